package alert

import (
	"context"
	"fmt"
	"time"

	"github.com/qarote/qarote/internal/models"
	"github.com/qarote/qarote/internal/rabbitmq"
	"gorm.io/gorm"
)

type RuleManager struct {
	evaluator    *RuleEvaluator
	alertManager *AlertManager
	db           *gorm.DB
}

func NewRuleManager(alertManager *AlertManager, db *gorm.DB) *RuleManager {
	return &RuleManager{
		evaluator:    NewRuleEvaluator(),
		alertManager: alertManager,
		db:           db,
	}
}

func (rm *RuleManager) CreateRule(rule *models.AlertRule) error {
	return rm.db.Create(rule).Error
}

func (rm *RuleManager) UpdateRule(rule *models.AlertRule) error {
	return rm.db.Save(rule).Error
}

func (rm *RuleManager) DeleteRule(id uint) error {
	return rm.db.Delete(&models.AlertRule{}, id).Error
}

func (rm *RuleManager) GetRule(id uint) (*models.AlertRule, error) {
	var rule models.AlertRule
	if err := rm.db.First(&rule, id).Error; err != nil {
		return nil, err
	}
	return &rule, nil
}

func (rm *RuleManager) ListRules(workspaceID uint, enabled *bool) ([]models.AlertRule, error) {
	query := rm.db.Where("workspace_id = ?", workspaceID)
	if enabled != nil {
		query = query.Where("is_enabled = ?", *enabled)
	}
	var rules []models.AlertRule
	if err := query.Find(&rules).Error; err != nil {
		return nil, err
	}
	return rules, nil
}

func (rm *RuleManager) EnableRule(id uint) error {
	return rm.db.Model(&models.AlertRule{}).Where("id = ?", id).Update("is_enabled", true).Error
}

func (rm *RuleManager) DisableRule(id uint) error {
	return rm.db.Model(&models.AlertRule{}).Where("id = ?", id).Update("is_enabled", false).Error
}

// EvaluateSnapshot runs every enabled rule of the server against one poll.
// Newly-triggered alerts are raised as a single batch; alerts whose
// condition cleared are auto-resolved.
func (rm *RuleManager) EvaluateSnapshot(ctx context.Context, server *models.Server, snap *rabbitmq.Snapshot) error {
	var rules []models.AlertRule
	if err := rm.db.Where("workspace_id = ? AND server_id = ? AND is_enabled = ?",
		server.WorkspaceID, server.ID, true).Find(&rules).Error; err != nil {
		return fmt.Errorf("failed to fetch rules: %v", err)
	}

	now := time.Now()
	var newAlerts []*models.Alert

	for i := range rules {
		rule := &rules[i]
		triggered, cleared := rm.evaluator.EvaluateRule(rule, server, snap)

		rule.LastChecked = &now
		if len(triggered) > 0 {
			rule.LastTriggered = &now
			rule.TriggerCount += len(triggered)
		}
		rule.ResolvedCount += len(cleared)
		if err := rm.db.Save(rule).Error; err != nil {
			return fmt.Errorf("failed to update rule %d: %v", rule.ID, err)
		}

		newAlerts = append(newAlerts, triggered...)

		for _, source := range cleared {
			if err := rm.alertManager.AutoResolve(rule.ID, source); err != nil {
				return fmt.Errorf("failed to auto-resolve alerts for rule %d: %v", rule.ID, err)
			}
		}
	}

	return rm.alertManager.RaiseAlerts(ctx, server, newAlerts)
}

// CreateDefaultRules seeds a new server with a sensible rule set.
func (rm *RuleManager) CreateDefaultRules(workspaceID, serverID uint) error {
	rules := []models.AlertRule{
		{
			Name:           "Queue backlog",
			Description:    "Alert when any queue holds more than 10k messages",
			Metric:         models.MetricQueueDepth,
			Operator:       models.OperatorGT,
			Threshold:      10000,
			Duration:       300,
			Severity:       models.SeverityWarning,
			CooldownPeriod: 1800,
		},
		{
			Name:           "Queue without consumers",
			Description:    "Alert when a queue has no consumers",
			Metric:         models.MetricQueueConsumers,
			Operator:       models.OperatorLT,
			Threshold:      1,
			Duration:       300,
			Severity:       models.SeverityWarning,
			CooldownPeriod: 1800,
		},
		{
			Name:           "Node memory pressure",
			Description:    "Alert when node memory usage is above 90% of its high watermark",
			Metric:         models.MetricNodeMemoryPercent,
			Operator:       models.OperatorGT,
			Threshold:      90,
			Duration:       180,
			Severity:       models.SeverityCritical,
			CooldownPeriod: 900,
		},
		{
			Name:           "Low disk space",
			Description:    "Alert when node free disk drops below 1GB",
			Metric:         models.MetricNodeDiskFree,
			Operator:       models.OperatorLT,
			Threshold:      1024 * 1024 * 1024,
			Duration:       120,
			Severity:       models.SeverityCritical,
			CooldownPeriod: 900,
		},
	}

	for _, rule := range rules {
		rule.WorkspaceID = workspaceID
		rule.ServerID = serverID
		if err := rm.CreateRule(&rule); err != nil {
			return fmt.Errorf("failed to create default rule %s: %v", rule.Name, err)
		}
	}

	return nil
}
