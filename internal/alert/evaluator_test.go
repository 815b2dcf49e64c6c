package alert

import (
	"testing"
	"time"

	"github.com/qarote/qarote/internal/models"
	"github.com/qarote/qarote/internal/rabbitmq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func testServer() *models.Server {
	return &models.Server{
		Model:       gorm.Model{ID: 5},
		WorkspaceID: 1,
		Name:        "rabbit-1",
		Host:        "localhost",
	}
}

func testSnapshot(ordersDepth int64) *rabbitmq.Snapshot {
	return &rabbitmq.Snapshot{
		Overview: rabbitmq.OverviewSummary{ClusterName: "rabbit@rabbit-1", Connections: 42},
		Queues: []rabbitmq.QueueSummary{
			{Name: "orders", Messages: ordersDepth, Consumers: 0, MessagesUnacked: 5},
			{Name: "emails", Messages: 10, Consumers: 2},
		},
		Nodes: []rabbitmq.NodeSummary{
			{Name: "rabbit@rabbit-1", Running: true, MemPercent: 95.5, DiskFree: 512 * 1024 * 1024},
		},
		Timestamp: time.Now(),
	}
}

func depthRule() *models.AlertRule {
	return &models.AlertRule{
		Model:       gorm.Model{ID: 9},
		WorkspaceID: 1,
		ServerID:    5,
		Name:        "Queue backlog",
		Metric:      models.MetricQueueDepth,
		Operator:    models.OperatorGT,
		Threshold:   100,
		Severity:    models.SeverityWarning,
		IsEnabled:   true,
	}
}

func TestEvaluateRuleTriggersOnViolation(t *testing.T) {
	e := NewRuleEvaluator()

	triggered, cleared := e.EvaluateRule(depthRule(), testServer(), testSnapshot(150))
	require.Len(t, triggered, 1)
	assert.Empty(t, cleared)

	alert := triggered[0]
	assert.Equal(t, uint(9), alert.RuleID)
	assert.Equal(t, uint(1), alert.WorkspaceID)
	assert.Equal(t, uint(5), alert.ServerID)
	assert.Equal(t, models.SourceQueue, alert.SourceType)
	assert.Equal(t, "orders", alert.SourceName)
	assert.Equal(t, 150.0, alert.CurrentValue)
	assert.Equal(t, models.SeverityWarning, alert.Severity)
	assert.Equal(t, models.AlertStatusActive, alert.Status)
}

func TestEvaluateRuleDoesNotRefireWhileViolating(t *testing.T) {
	e := NewRuleEvaluator()
	rule := depthRule()

	triggered, _ := e.EvaluateRule(rule, testServer(), testSnapshot(150))
	require.Len(t, triggered, 1)

	triggered, cleared := e.EvaluateRule(rule, testServer(), testSnapshot(200))
	assert.Empty(t, triggered)
	assert.Empty(t, cleared)
}

func TestEvaluateRuleWaitsForDuration(t *testing.T) {
	e := NewRuleEvaluator()
	rule := depthRule()
	rule.Duration = 300

	triggered, _ := e.EvaluateRule(rule, testServer(), testSnapshot(150))
	assert.Empty(t, triggered, "violation has not lasted long enough yet")

	// Rewind the recorded violation start past the rule's duration
	state := e.stateCache[stateKey(rule.ID, "orders")]
	require.NotNil(t, state)
	require.True(t, state.IsViolating)
	state.ViolationStart = time.Now().Add(-301 * time.Second)

	triggered, _ = e.EvaluateRule(rule, testServer(), testSnapshot(150))
	require.Len(t, triggered, 1)
	assert.WithinDuration(t, time.Now().Add(-301*time.Second), triggered[0].StartTime, 2*time.Second)
}

func TestEvaluateRuleClearsWhenConditionStops(t *testing.T) {
	e := NewRuleEvaluator()
	rule := depthRule()

	triggered, _ := e.EvaluateRule(rule, testServer(), testSnapshot(150))
	require.Len(t, triggered, 1)

	triggered, cleared := e.EvaluateRule(rule, testServer(), testSnapshot(50))
	assert.Empty(t, triggered)
	assert.Equal(t, []string{"orders"}, cleared)
}

func TestEvaluateRuleHonorsCooldown(t *testing.T) {
	e := NewRuleEvaluator()
	rule := depthRule()
	rule.CooldownPeriod = 3600
	justNow := time.Now()
	rule.LastTriggered = &justNow

	triggered, _ := e.EvaluateRule(rule, testServer(), testSnapshot(150))
	assert.Empty(t, triggered)

	longAgo := time.Now().Add(-2 * time.Hour)
	rule.LastTriggered = &longAgo
	e2 := NewRuleEvaluator()
	triggered, _ = e2.EvaluateRule(rule, testServer(), testSnapshot(150))
	assert.Len(t, triggered, 1)
}

func TestEvaluateConditionIsTotal(t *testing.T) {
	tests := []struct {
		op        models.Operator
		current   float64
		threshold float64
		want      bool
	}{
		{models.OperatorGT, 2, 1, true},
		{models.OperatorGT, 1, 1, false},
		{models.OperatorLT, 0, 1, true},
		{models.OperatorLT, 1, 1, false},
		{models.OperatorGTE, 1, 1, true},
		{models.OperatorLTE, 1, 1, true},
		{models.OperatorEQ, 1, 1, true},
		{models.OperatorEQ, 2, 1, false},
		{models.OperatorNEQ, 2, 1, true},
		{models.OperatorNEQ, 1, 1, false},
		{models.Operator("~"), 1, 1, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, evaluateCondition(tt.op, tt.current, tt.threshold),
			"%v %s %v", tt.current, tt.op, tt.threshold)
	}
}

func TestExtractObservationsTargetQueueFilter(t *testing.T) {
	rule := depthRule()
	rule.TargetQueue = "emails"

	obs := extractObservations(rule, testSnapshot(150))
	require.Len(t, obs, 1)
	assert.Equal(t, "emails", obs[0].SourceName)
	assert.Equal(t, 10.0, obs[0].Value)
}

func TestExtractObservationsNodeAndConnectionMetrics(t *testing.T) {
	snap := testSnapshot(150)

	memRule := depthRule()
	memRule.Metric = models.MetricNodeMemoryPercent
	obs := extractObservations(memRule, snap)
	require.Len(t, obs, 1)
	assert.Equal(t, models.SourceNode, obs[0].SourceType)
	assert.Equal(t, 95.5, obs[0].Value)

	connRule := depthRule()
	connRule.Metric = models.MetricConnectionCount
	obs = extractObservations(connRule, snap)
	require.Len(t, obs, 1)
	assert.Equal(t, models.SourceConnection, obs[0].SourceType)
	assert.Equal(t, "rabbit@rabbit-1", obs[0].SourceName)
	assert.Equal(t, 42.0, obs[0].Value)

	snap.Overview.ClusterName = ""
	obs = extractObservations(connRule, snap)
	require.Len(t, obs, 1)
	assert.Equal(t, "cluster", obs[0].SourceName)
}
