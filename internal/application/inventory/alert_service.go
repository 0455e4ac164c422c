package inventory

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/o4o-platform/inventory-engine/internal/domain/inventory"
	"github.com/o4o-platform/inventory-engine/internal/domain/shared"
)

// AlertNotification is the outbound payload handed to the notification
// collaborator when an alert warrants dispatch.
type AlertNotification struct {
	AlertID           uuid.UUID               `json:"alert_id"`
	InventoryID       uuid.UUID               `json:"inventory_id"`
	VendorID          uuid.UUID               `json:"vendor_id"`
	SKU               string                  `json:"sku"`
	ProductName       string                  `json:"product_name"`
	AlertType         inventory.AlertType     `json:"alert_type"`
	Severity          inventory.AlertSeverity `json:"severity"`
	Title             string                  `json:"title"`
	Message           string                  `json:"message"`
	RecommendedAction string                  `json:"recommended_action,omitempty"`
	OccurredAt        time.Time               `json:"occurred_at"`
}

// Notifier delivers alert notifications to the outside world. Delivery is
// best-effort and must never block the caller for long; implementations
// queue or drop.
type Notifier interface {
	Notify(ctx context.Context, n AlertNotification) error
}

// RaiseOption customizes a raised alert
type RaiseOption func(*inventory.InventoryAlert)

// WithReason appends a trigger-specific reason to the templated message
func WithReason(reason string) RaiseOption {
	return func(a *inventory.InventoryAlert) {
		if reason != "" {
			a.Message = fmt.Sprintf("%s (%s)", a.Message, reason)
		}
	}
}

// WithAutoResolve schedules the alert to self-resolve after the given hours
func WithAutoResolve(afterHours int, now time.Time) RaiseOption {
	return func(a *inventory.InventoryAlert) {
		a.EnableAutoResolve(afterHours, now)
	}
}

// AlertService owns the alert lifecycle. It is the only component that
// transitions alert status.
type AlertService struct {
	alertRepo inventory.AlertRepository
	itemRepo  inventory.ItemRepository
	notifier  Notifier
	publisher shared.EventPublisher
	logger    *zap.Logger
	now       func() time.Time
}

// NewAlertService creates an alert service
func NewAlertService(alertRepo inventory.AlertRepository, itemRepo inventory.ItemRepository, notifier Notifier, publisher shared.EventPublisher, logger *zap.Logger) *AlertService {
	return &AlertService{
		alertRepo: alertRepo,
		itemRepo:  itemRepo,
		notifier:  notifier,
		publisher: publisher,
		logger:    logger,
		now:       time.Now,
	}
}

// WithClock overrides the time source, for tests
func (s *AlertService) WithClock(now func() time.Time) *AlertService {
	s.now = now
	return s
}

// Raise records a detection of the given condition. If an active alert for
// (item, type) already exists its occurrence counter is bumped and no new
// notification goes out; otherwise a fresh alert is created from the type's
// template and critical/high severities are dispatched.
func (s *AlertService) Raise(ctx context.Context, item *inventory.InventoryItem, alertType inventory.AlertType, opts ...RaiseOption) (*inventory.InventoryAlert, error) {
	now := s.now()

	existing, err := s.alertRepo.FindActiveByItemAndType(ctx, item.ID, alertType)
	if err == nil {
		existing.RecordOccurrence(now)
		if saveErr := s.alertRepo.Save(ctx, existing); saveErr != nil {
			return nil, saveErr
		}
		return existing, nil
	}
	if !errors.Is(err, shared.ErrAlertNotFound) {
		return nil, err
	}

	alert, err := inventory.BuildAlert(item, alertType, now)
	if err != nil {
		return nil, err
	}
	for _, opt := range opts {
		opt(alert)
	}

	if alert.Severity.NeedsNotification() && s.notifier != nil {
		notifyErr := s.notifier.Notify(ctx, AlertNotification{
			AlertID:           alert.ID,
			InventoryID:       item.ID,
			VendorID:          item.VendorID,
			SKU:               item.SKU,
			ProductName:       item.ProductName,
			AlertType:         alert.AlertType,
			Severity:          alert.Severity,
			Title:             alert.Title,
			Message:           alert.Message,
			RecommendedAction: alert.RecommendedAction,
			OccurredAt:        now,
		})
		alert.RecordNotification(notifyErr, now)
		if notifyErr != nil {
			s.logger.Warn("alert notification dispatch failed",
				zap.String("alert_type", string(alertType)),
				zap.String("sku", item.SKU),
				zap.Error(notifyErr))
		}
	}

	if err := s.alertRepo.Save(ctx, alert); err != nil {
		// the store's partial unique index rejects our insert when a racing
		// raiser created the active row first; fold into its occurrence count
		racer, findErr := s.alertRepo.FindActiveByItemAndType(ctx, item.ID, alertType)
		if findErr != nil {
			return nil, err
		}
		racer.RecordOccurrence(now)
		if saveErr := s.alertRepo.Save(ctx, racer); saveErr != nil {
			return nil, saveErr
		}
		return racer, nil
	}

	if s.publisher != nil {
		if pubErr := s.publisher.Publish(ctx, inventory.NewAlertRaisedEvent(item, alert)); pubErr != nil {
			s.logger.Warn("failed to publish alert event", zap.Error(pubErr))
		}
	}

	s.logger.Info("alert raised",
		zap.String("alert_type", string(alertType)),
		zap.String("severity", string(alert.Severity)),
		zap.String("sku", item.SKU),
		zap.Int("quantity", item.Quantity))
	return alert, nil
}

// List returns alerts visible to the actor
func (s *AlertService) List(ctx context.Context, actor Actor, filter inventory.AlertFilter) (*shared.Paginated[AlertResponse], error) {
	if !actor.IsElevated() {
		if actor.VendorID == nil {
			return nil, shared.ErrPermissionDenied
		}
		if filter.VendorID != nil && *filter.VendorID != *actor.VendorID {
			return nil, shared.ErrPermissionDenied
		}
		filter.VendorID = actor.VendorID
	}
	alerts, err := s.alertRepo.FindAll(ctx, filter)
	if err != nil {
		return nil, err
	}
	total, err := s.alertRepo.Count(ctx, filter)
	if err != nil {
		return nil, err
	}
	out := make([]AlertResponse, len(alerts))
	for i := range alerts {
		out[i] = ToAlertResponse(&alerts[i])
	}
	page := shared.NewPaginated(out, total, filter.Page, filter.PageSize)
	return &page, nil
}

// loadScoped fetches an alert and enforces the vendor-scope rule through the
// owning item.
func (s *AlertService) loadScoped(ctx context.Context, actor Actor, alertID uuid.UUID) (*inventory.InventoryAlert, *inventory.InventoryItem, error) {
	alert, err := s.alertRepo.FindByID(ctx, alertID)
	if err != nil {
		return nil, nil, err
	}
	item, err := s.itemRepo.FindByID(ctx, alert.InventoryID)
	if err != nil {
		return nil, nil, err
	}
	if !actor.CanAccessVendor(item.VendorID) {
		return nil, nil, shared.ErrPermissionDenied
	}
	return alert, item, nil
}

// Acknowledge transitions an active alert to acknowledged
func (s *AlertService) Acknowledge(ctx context.Context, actor Actor, alertID uuid.UUID, notes string) (*AlertResponse, error) {
	alert, _, err := s.loadScoped(ctx, actor, alertID)
	if err != nil {
		return nil, err
	}
	if err := alert.Acknowledge(actor.UserName, notes, s.now()); err != nil {
		return nil, err
	}
	if err := s.alertRepo.Save(ctx, alert); err != nil {
		return nil, err
	}
	resp := ToAlertResponse(alert)
	return &resp, nil
}

// Resolve transitions an alert to resolved
func (s *AlertService) Resolve(ctx context.Context, actor Actor, alertID uuid.UUID, notes string) (*AlertResponse, error) {
	alert, item, err := s.loadScoped(ctx, actor, alertID)
	if err != nil {
		return nil, err
	}
	if err := alert.Resolve(actor.UserName, notes, s.now()); err != nil {
		return nil, err
	}
	if err := s.alertRepo.Save(ctx, alert); err != nil {
		return nil, err
	}
	if s.publisher != nil {
		if pubErr := s.publisher.Publish(ctx, inventory.NewAlertResolvedEvent(item.VendorID, alert)); pubErr != nil {
			s.logger.Warn("failed to publish alert event", zap.Error(pubErr))
		}
	}
	resp := ToAlertResponse(alert)
	return &resp, nil
}

// Ignore transitions an active alert to ignored
func (s *AlertService) Ignore(ctx context.Context, actor Actor, alertID uuid.UUID) (*AlertResponse, error) {
	alert, _, err := s.loadScoped(ctx, actor, alertID)
	if err != nil {
		return nil, err
	}
	if err := alert.Ignore(actor.UserName, s.now()); err != nil {
		return nil, err
	}
	if err := s.alertRepo.Save(ctx, alert); err != nil {
		return nil, err
	}
	resp := ToAlertResponse(alert)
	return &resp, nil
}

// Escalate bumps an alert to escalated with raised severity
func (s *AlertService) Escalate(ctx context.Context, actor Actor, alertID uuid.UUID) (*AlertResponse, error) {
	alert, _, err := s.loadScoped(ctx, actor, alertID)
	if err != nil {
		return nil, err
	}
	if err := alert.Escalate(s.now()); err != nil {
		return nil, err
	}
	if err := s.alertRepo.Save(ctx, alert); err != nil {
		return nil, err
	}
	resp := ToAlertResponse(alert)
	return &resp, nil
}

// AutoResolveSweep resolves every active alert whose scheduled resolve time
// has elapsed. Per-alert failures are logged and do not abort the sweep.
func (s *AlertService) AutoResolveSweep(ctx context.Context) (resolved, failed int) {
	now := s.now()
	due, err := s.alertRepo.FindDueForAutoResolve(ctx, now)
	if err != nil {
		s.logger.Error("auto-resolve sweep could not list alerts", zap.Error(err))
		return 0, 1
	}
	for i := range due {
		alert := &due[i]
		if err := alert.Resolve("system", "auto-resolved: schedule elapsed", now); err != nil {
			failed++
			continue
		}
		if err := s.alertRepo.Save(ctx, alert); err != nil {
			failed++
			s.logger.Warn("auto-resolve failed for alert",
				zap.String("alert_id", alert.ID.String()),
				zap.Error(err))
			continue
		}
		resolved++
	}
	if resolved > 0 {
		s.logger.Info("auto-resolve sweep finished", zap.Int("resolved", resolved), zap.Int("failed", failed))
	}
	return resolved, failed
}
