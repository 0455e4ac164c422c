package notification

import (
	"context"

	"go.uber.org/zap"

	appinventory "github.com/o4o-platform/inventory-engine/internal/application/inventory"
)

// LogNotifier writes alert notifications to the application log. Used in
// development and as a fallback when Redis is not configured.
type LogNotifier struct {
	logger *zap.Logger
}

// NewLogNotifier creates a log-backed notifier
func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	return &LogNotifier{logger: logger.Named("alerts")}
}

// Notify logs the notification
func (n *LogNotifier) Notify(_ context.Context, payload appinventory.AlertNotification) error {
	n.logger.Info("inventory alert",
		zap.String("alert_type", string(payload.AlertType)),
		zap.String("severity", string(payload.Severity)),
		zap.String("sku", payload.SKU),
		zap.String("product", payload.ProductName),
		zap.String("title", payload.Title),
		zap.String("message", payload.Message),
	)
	return nil
}

var _ appinventory.Notifier = (*LogNotifier)(nil)
