package alert

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/qarote/qarote/internal/database"
	"github.com/qarote/qarote/internal/models"
	"github.com/qarote/qarote/internal/notify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	return db
}

func testDispatcher() *notify.Dispatcher {
	slack := notify.NewSlackService("Qarote")
	slack.BaseDelay = time.Millisecond
	webhook := notify.NewWebhookService()
	webhook.BaseDelay = time.Millisecond
	return notify.NewDispatcher(slack, webhook, notify.NewEmailService("", 0, "", ""))
}

func seedWorkspace(t *testing.T, db *gorm.DB, slackURL string) (*models.Workspace, *models.Server) {
	t.Helper()

	workspace := &models.Workspace{Name: "acme-" + t.Name()}
	require.NoError(t, db.Create(workspace).Error)

	server := &models.Server{
		WorkspaceID: workspace.ID,
		Name:        "rabbit-1",
		Host:        "localhost",
		Port:        15672,
		Enabled:     true,
	}
	require.NoError(t, db.Create(server).Error)

	if slackURL != "" {
		require.NoError(t, db.Create(&models.NotificationChannel{
			WorkspaceID: workspace.ID,
			Name:        "team-slack",
			Type:        models.ChannelSlackWebhook,
			Enabled:     true,
			URL:         slackURL,
		}).Error)
	}

	return workspace, server
}

func TestRuleManagerCRUD(t *testing.T) {
	db := testDB(t)
	am := NewAlertManager(db, testDispatcher())
	rm := NewRuleManager(am, db)
	workspace, server := seedWorkspace(t, db, "")

	rule := &models.AlertRule{
		WorkspaceID: workspace.ID,
		ServerID:    server.ID,
		Name:        "Queue backlog",
		Metric:      models.MetricQueueDepth,
		Operator:    models.OperatorGT,
		Threshold:   100,
		Duration:    60,
		Severity:    models.SeverityWarning,
		IsEnabled:   true,
	}
	require.NoError(t, rm.CreateRule(rule))

	got, err := rm.GetRule(rule.ID)
	require.NoError(t, err)
	assert.Equal(t, "Queue backlog", got.Name)

	require.NoError(t, rm.DisableRule(rule.ID))
	enabled := true
	rules, err := rm.ListRules(workspace.ID, &enabled)
	require.NoError(t, err)
	assert.Empty(t, rules)

	require.NoError(t, rm.EnableRule(rule.ID))
	rules, err = rm.ListRules(workspace.ID, &enabled)
	require.NoError(t, err)
	assert.Len(t, rules, 1)

	require.NoError(t, rm.DeleteRule(rule.ID))
	_, err = rm.GetRule(rule.ID)
	assert.Error(t, err)
}

func TestCreateDefaultRulesBindsOwnership(t *testing.T) {
	db := testDB(t)
	am := NewAlertManager(db, testDispatcher())
	rm := NewRuleManager(am, db)
	workspace, server := seedWorkspace(t, db, "")

	require.NoError(t, rm.CreateDefaultRules(workspace.ID, server.ID))

	rules, err := rm.ListRules(workspace.ID, nil)
	require.NoError(t, err)
	require.NotEmpty(t, rules)
	for _, rule := range rules {
		assert.Equal(t, workspace.ID, rule.WorkspaceID)
		assert.Equal(t, server.ID, rule.ServerID)
		assert.True(t, rule.IsEnabled)
	}
}

func TestEvaluateSnapshotRaisesAndAutoResolves(t *testing.T) {
	var slackCalls int32
	slackSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&slackCalls, 1)
		fmt.Fprint(w, "ok")
	}))
	defer slackSrv.Close()

	db := testDB(t)
	am := NewAlertManager(db, testDispatcher())
	rm := NewRuleManager(am, db)
	workspace, server := seedWorkspace(t, db, slackSrv.URL)

	require.NoError(t, rm.CreateRule(&models.AlertRule{
		WorkspaceID: workspace.ID,
		ServerID:    server.ID,
		Name:        "Queue backlog",
		Metric:      models.MetricQueueDepth,
		Operator:    models.OperatorGT,
		Threshold:   100,
		Severity:    models.SeverityCritical,
		IsEnabled:   true,
	}))

	// Violation: an alert row is created and the Slack channel is notified
	require.NoError(t, rm.EvaluateSnapshot(context.Background(), server, testSnapshot(150)))

	var alerts []models.Alert
	require.NoError(t, db.Where("workspace_id = ?", workspace.ID).Find(&alerts).Error)
	require.Len(t, alerts, 1)
	assert.Equal(t, models.AlertStatusActive, alerts[0].Status)
	assert.Equal(t, "orders", alerts[0].SourceName)
	assert.Equal(t, int32(1), atomic.LoadInt32(&slackCalls))

	var rule models.AlertRule
	require.NoError(t, db.Where("workspace_id = ?", workspace.ID).First(&rule).Error)
	assert.Equal(t, 1, rule.TriggerCount)
	assert.NotNil(t, rule.LastTriggered)
	assert.NotNil(t, rule.LastChecked)

	// Condition clears: the alert is resolved by the system, no new dispatch
	require.NoError(t, rm.EvaluateSnapshot(context.Background(), server, testSnapshot(50)))

	require.NoError(t, db.Where("workspace_id = ?", workspace.ID).Find(&alerts).Error)
	require.Len(t, alerts, 1)
	assert.Equal(t, models.AlertStatusResolved, alerts[0].Status)
	assert.Equal(t, "system", alerts[0].ResolvedBy)
	assert.Equal(t, int32(1), atomic.LoadInt32(&slackCalls))

	require.NoError(t, db.Where("workspace_id = ?", workspace.ID).First(&rule).Error)
	assert.Equal(t, 1, rule.ResolvedCount)
}

func TestAcknowledgeAndResolve(t *testing.T) {
	db := testDB(t)
	am := NewAlertManager(db, testDispatcher())
	workspace, server := seedWorkspace(t, db, "")

	alert := &models.Alert{
		WorkspaceID: workspace.ID,
		ServerID:    server.ID,
		Title:       "Queue backlog: orders",
		Severity:    models.SeverityWarning,
		Status:      models.AlertStatusActive,
		StartTime:   time.Now(),
	}
	require.NoError(t, db.Create(alert).Error)

	require.NoError(t, am.Acknowledge(alert.ID, "alice"))
	var got models.Alert
	require.NoError(t, db.First(&got, alert.ID).Error)
	assert.Equal(t, models.AlertStatusAcknowledged, got.Status)
	assert.Equal(t, "alice", got.AcknowledgedBy)

	require.NoError(t, am.Resolve(alert.ID, "bob"))
	require.NoError(t, db.First(&got, alert.ID).Error)
	assert.Equal(t, models.AlertStatusResolved, got.Status)
	assert.Equal(t, "bob", got.ResolvedBy)
}

func TestListFiltersByStatusAndSeverity(t *testing.T) {
	db := testDB(t)
	am := NewAlertManager(db, testDispatcher())
	workspace, server := seedWorkspace(t, db, "")

	for _, a := range []models.Alert{
		{WorkspaceID: workspace.ID, ServerID: server.ID, Severity: models.SeverityCritical, Status: models.AlertStatusActive, StartTime: time.Now()},
		{WorkspaceID: workspace.ID, ServerID: server.ID, Severity: models.SeverityWarning, Status: models.AlertStatusResolved, StartTime: time.Now()},
		{WorkspaceID: workspace.ID + 1, ServerID: server.ID, Severity: models.SeverityCritical, Status: models.AlertStatusActive, StartTime: time.Now()},
	} {
		require.NoError(t, db.Create(&a).Error)
	}

	alerts, err := am.List(workspace.ID, "", "")
	require.NoError(t, err)
	assert.Len(t, alerts, 2, "other workspaces' alerts are invisible")

	alerts, err = am.List(workspace.ID, string(models.AlertStatusActive), "")
	require.NoError(t, err)
	require.Len(t, alerts, 1)
	assert.Equal(t, models.SeverityCritical, alerts[0].Severity)

	alerts, err = am.List(workspace.ID, "", string(models.SeverityWarning))
	require.NoError(t, err)
	require.Len(t, alerts, 1)
	assert.Equal(t, models.AlertStatusResolved, alerts[0].Status)
}
