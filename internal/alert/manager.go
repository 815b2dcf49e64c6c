package alert

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/qarote/qarote/internal/models"
	"github.com/qarote/qarote/internal/notify"
	"gorm.io/gorm"
)

// AlertManager owns the alert lifecycle: persisting new alerts, fanning
// them out to the workspace's channels, and acknowledge/resolve updates.
type AlertManager struct {
	db         *gorm.DB
	dispatcher *notify.Dispatcher
}

func NewAlertManager(db *gorm.DB, dispatcher *notify.Dispatcher) *AlertManager {
	return &AlertManager{
		db:         db,
		dispatcher: dispatcher,
	}
}

// RaiseAlerts persists a batch of newly-triggered alerts and notifies every
// enabled channel of the owning workspace. Delivery failures are logged by
// the dispatcher, never returned.
func (am *AlertManager) RaiseAlerts(ctx context.Context, server *models.Server, alerts []*models.Alert) error {
	if len(alerts) == 0 {
		return nil
	}

	for _, alert := range alerts {
		if err := am.db.Create(alert).Error; err != nil {
			return fmt.Errorf("failed to save alert: %v", err)
		}
	}

	var workspace models.Workspace
	if err := am.db.First(&workspace, server.WorkspaceID).Error; err != nil {
		return fmt.Errorf("failed to load workspace: %v", err)
	}

	channels, err := am.enabledChannels(server.WorkspaceID)
	if err != nil {
		return err
	}
	if len(channels) == 0 {
		return nil
	}

	batch := make([]models.Alert, 0, len(alerts))
	for _, a := range alerts {
		batch = append(batch, *a)
	}

	results := am.dispatcher.Dispatch(ctx, batch, workspace.Name, server.Name, channels)
	delivered := 0
	for _, r := range results {
		if r.Success {
			delivered++
		}
	}
	log.Printf("Dispatched %d alert(s) for workspace %q: %d/%d channels delivered",
		len(batch), workspace.Name, delivered, len(results))

	return nil
}

// Acknowledge marks an alert as acknowledged by the given user.
func (am *AlertManager) Acknowledge(alertID uint, username string) error {
	var alert models.Alert
	if err := am.db.First(&alert, alertID).Error; err != nil {
		return fmt.Errorf("failed to find alert: %v", err)
	}

	alert.Status = models.AlertStatusAcknowledged
	alert.AcknowledgedBy = username
	alert.AcknowledgedAt = time.Now()

	if err := am.db.Save(&alert).Error; err != nil {
		return fmt.Errorf("failed to update alert: %v", err)
	}

	return nil
}

// Resolve marks an alert as resolved by the given user.
func (am *AlertManager) Resolve(alertID uint, username string) error {
	var alert models.Alert
	if err := am.db.First(&alert, alertID).Error; err != nil {
		return fmt.Errorf("failed to find alert: %v", err)
	}

	alert.Status = models.AlertStatusResolved
	alert.ResolvedBy = username
	alert.ResolvedAt = time.Now()

	if err := am.db.Save(&alert).Error; err != nil {
		return fmt.Errorf("failed to update alert: %v", err)
	}

	return nil
}

// AutoResolve resolves active alerts for a rule+source whose condition has
// cleared.
func (am *AlertManager) AutoResolve(ruleID uint, sourceName string) error {
	return am.db.Model(&models.Alert{}).
		Where("rule_id = ? AND source_name = ? AND status IN ?",
			ruleID, sourceName, []models.AlertStatus{models.AlertStatusActive, models.AlertStatusAcknowledged}).
		Updates(map[string]interface{}{
			"status":      models.AlertStatusResolved,
			"resolved_by": "system",
			"resolved_at": time.Now(),
		}).Error
}

// List returns a workspace's alerts, optionally filtered by status and
// severity, newest first.
func (am *AlertManager) List(workspaceID uint, status, severity string) ([]models.Alert, error) {
	query := am.db.Where("workspace_id = ?", workspaceID)
	if status != "" {
		query = query.Where("status = ?", status)
	}
	if severity != "" {
		query = query.Where("severity = ?", severity)
	}

	var alerts []models.Alert
	if err := query.Order("created_at desc").Find(&alerts).Error; err != nil {
		return nil, err
	}
	return alerts, nil
}

// TestChannel pushes a synthetic alert through a single channel and returns
// the delivery outcome.
func (am *AlertManager) TestChannel(ctx context.Context, workspace *models.Workspace, channel models.NotificationChannel) notify.DeliveryResult {
	test := models.Alert{
		RuleName:     "Test notification",
		WorkspaceID:  workspace.ID,
		SourceType:   models.SourceQueue,
		SourceName:   "test-queue",
		Metric:       string(models.MetricQueueDepth),
		Threshold:    100,
		CurrentValue: 128,
		Severity:     models.SeverityInfo,
		Title:        "Test notification from Qarote",
		Description:  "This is a test alert to verify channel configuration.",
		Status:       models.AlertStatusActive,
		StartTime:    time.Now(),
	}

	results := am.dispatcher.Dispatch(ctx, []models.Alert{test}, workspace.Name, "test-server",
		[]models.NotificationChannel{channel})
	return results[0]
}

func (am *AlertManager) enabledChannels(workspaceID uint) ([]models.NotificationChannel, error) {
	var channels []models.NotificationChannel
	if err := am.db.Where("workspace_id = ? AND enabled = ?", workspaceID, true).Find(&channels).Error; err != nil {
		return nil, fmt.Errorf("failed to load notification channels: %v", err)
	}
	return channels, nil
}
