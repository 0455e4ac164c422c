package inventory

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/o4o-platform/inventory-engine/internal/domain/shared"
)

func createTestAlert(t *testing.T, alertType AlertType) *InventoryAlert {
	t.Helper()
	item := createTestItem(t, 5, 10, 0)
	alert, err := BuildAlert(item, alertType, time.Now())
	require.NoError(t, err)
	return alert
}

func TestBuildAlert(t *testing.T) {
	now := time.Now()

	t.Run("fills template with item numbers", func(t *testing.T) {
		item := createTestItem(t, 5, 10, 0)
		alert, err := BuildAlert(item, AlertTypeLowStock, now)
		require.NoError(t, err)

		assert.Equal(t, AlertStatusActive, alert.Status)
		assert.Equal(t, SeverityHigh, alert.Severity)
		assert.Equal(t, 1, alert.OccurrenceCount)
		assert.Contains(t, alert.Title, item.ProductName)
		assert.Contains(t, alert.Message, "5 units")
		require.NotNil(t, alert.CurrentQuantity)
		assert.Equal(t, 5, *alert.CurrentQuantity)
		require.NotNil(t, alert.ThresholdQuantity)
		assert.Equal(t, 10, *alert.ThresholdQuantity)
		assert.Equal(t, alert.FirstOccurredAt, alert.LastOccurredAt)
	})

	t.Run("rejects unknown alert type", func(t *testing.T) {
		item := createTestItem(t, 5, 10, 0)
		_, err := BuildAlert(item, AlertType("mystery"), now)
		assert.ErrorIs(t, err, shared.ErrInvalidInput)
	})

	t.Run("expiry alerts carry expiry context", func(t *testing.T) {
		item := createTestItem(t, 5, 0, 0)
		expiry := now.Add(12 * 24 * time.Hour)
		item.ExpiryDate = &expiry
		alert, err := BuildAlert(item, AlertTypeExpiryWarning, now)
		require.NoError(t, err)
		require.NotNil(t, alert.DaysUntilExpiry)
		assert.Equal(t, 12, *alert.DaysUntilExpiry)
	})
}

func TestAlertDefaultSeverities(t *testing.T) {
	assert.Equal(t, SeverityCritical, DefaultSeverity(AlertTypeOutOfStock))
	assert.Equal(t, SeverityCritical, DefaultSeverity(AlertTypeExpired))
	assert.Equal(t, SeverityHigh, DefaultSeverity(AlertTypeLowStock))
	assert.Equal(t, SeverityHigh, DefaultSeverity(AlertTypeReorderPoint))
	assert.Equal(t, SeverityMedium, DefaultSeverity(AlertTypeOverstock))
	assert.Equal(t, SeverityMedium, DefaultSeverity(AlertTypeDeadStock))
}

func TestAlertStateMachine(t *testing.T) {
	now := time.Now()

	t.Run("acknowledge from active", func(t *testing.T) {
		alert := createTestAlert(t, AlertTypeLowStock)
		require.NoError(t, alert.Acknowledge("ops", "looking into it", now))
		assert.Equal(t, AlertStatusAcknowledged, alert.Status)
		assert.Equal(t, "ops", alert.AcknowledgedBy)
		assert.True(t, alert.IsRead)
	})

	t.Run("acknowledge after resolve is rejected", func(t *testing.T) {
		alert := createTestAlert(t, AlertTypeLowStock)
		require.NoError(t, alert.Resolve("ops", "restocked", now))
		assert.ErrorIs(t, alert.Acknowledge("ops", "", now), shared.ErrInvalidTransition)
	})

	t.Run("resolve from acknowledged", func(t *testing.T) {
		alert := createTestAlert(t, AlertTypeLowStock)
		require.NoError(t, alert.Acknowledge("ops", "", now))
		require.NoError(t, alert.Resolve("ops", "restocked", now))
		assert.Equal(t, AlertStatusResolved, alert.Status)
		assert.True(t, alert.IsTerminal())
	})

	t.Run("ignore is terminal", func(t *testing.T) {
		alert := createTestAlert(t, AlertTypeSlowMoving)
		require.NoError(t, alert.Ignore("ops", now))
		assert.True(t, alert.IsTerminal())
		assert.ErrorIs(t, alert.Resolve("ops", "", now), shared.ErrInvalidTransition)
	})

	t.Run("escalate raises severity one step", func(t *testing.T) {
		alert := createTestAlert(t, AlertTypeDeadStock) // medium
		require.NoError(t, alert.Escalate(now))
		assert.Equal(t, AlertStatusEscalated, alert.Status)
		assert.Equal(t, SeverityHigh, alert.Severity)

		// escalated alerts can still be resolved
		require.NoError(t, alert.Resolve("ops", "cleared", now))
	})

	t.Run("escalate from terminal is rejected", func(t *testing.T) {
		alert := createTestAlert(t, AlertTypeLowStock)
		require.NoError(t, alert.Resolve("ops", "", now))
		assert.ErrorIs(t, alert.Escalate(now), shared.ErrInvalidTransition)
	})
}

func TestAlertOccurrences(t *testing.T) {
	now := time.Now()
	alert := createTestAlert(t, AlertTypeLowStock)

	for i := 0; i < 4; i++ {
		alert.RecordOccurrence(now.Add(time.Duration(i) * time.Minute))
	}

	assert.Equal(t, 5, alert.OccurrenceCount)
	assert.True(t, alert.IsRecurring)
	assert.True(t, alert.LastOccurredAt.After(*alert.FirstOccurredAt))
}

func TestAlertAutoResolve(t *testing.T) {
	now := time.Now()
	alert := createTestAlert(t, AlertTypeExpiryWarning)

	alert.EnableAutoResolve(24, now)
	assert.True(t, alert.AutoResolve)
	require.NotNil(t, alert.ScheduledResolveAt)
	assert.Equal(t, now.Add(24*time.Hour), *alert.ScheduledResolveAt)
}

func TestAlertNotificationBookkeeping(t *testing.T) {
	now := time.Now()
	alert := createTestAlert(t, AlertTypeOutOfStock)

	alert.RecordNotification(errors.New("channel unavailable"), now)
	assert.Equal(t, 1, alert.NotificationAttempts)
	assert.False(t, alert.IsNotified)
	assert.Equal(t, "channel unavailable", alert.LastNotificationError)

	alert.RecordNotification(nil, now)
	assert.Equal(t, 2, alert.NotificationAttempts)
	assert.True(t, alert.IsNotified)
	assert.Empty(t, alert.LastNotificationError)
	assert.NotNil(t, alert.NotifiedAt)
}
