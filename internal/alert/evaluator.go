package alert

import (
	"fmt"
	"sync"
	"time"

	"github.com/qarote/qarote/internal/models"
	"github.com/qarote/qarote/internal/rabbitmq"
)

// RuleEvaluator checks rules against polled snapshots. A rule can watch
// several sources at once (every queue on a server, every node), so
// violation state is tracked per rule+source pair.
type RuleEvaluator struct {
	stateCache map[string]*ruleState
	mutex      sync.Mutex
}

type ruleState struct {
	ViolationStart time.Time
	IsViolating    bool
	Alerted        bool
	LastValue      float64
}

type observation struct {
	SourceType models.SourceType
	SourceName string
	Value      float64
}

func NewRuleEvaluator() *RuleEvaluator {
	return &RuleEvaluator{
		stateCache: make(map[string]*ruleState),
	}
}

// EvaluateRule returns alerts that just crossed into violation and the
// rule+source keys that cleared (so active alerts can be auto-resolved).
func (e *RuleEvaluator) EvaluateRule(rule *models.AlertRule, server *models.Server, snap *rabbitmq.Snapshot) (triggered []*models.Alert, cleared []string) {
	e.mutex.Lock()
	defer e.mutex.Unlock()

	now := time.Now()
	for _, obs := range extractObservations(rule, snap) {
		key := stateKey(rule.ID, obs.SourceName)
		state, ok := e.stateCache[key]
		if !ok {
			state = &ruleState{}
			e.stateCache[key] = state
		}

		isViolating := evaluateCondition(rule.Operator, obs.Value, rule.Threshold)

		if isViolating {
			if !state.IsViolating {
				state.ViolationStart = now
				state.IsViolating = true
			}

			// The violation must last for the rule's duration before firing,
			// and the cooldown since the last trigger must have elapsed.
			if !state.Alerted &&
				now.Sub(state.ViolationStart) >= time.Duration(rule.Duration)*time.Second &&
				cooldownElapsed(rule, now) {
				state.Alerted = true
				triggered = append(triggered, &models.Alert{
					RuleID:       rule.ID,
					RuleName:     rule.Name,
					WorkspaceID:  rule.WorkspaceID,
					ServerID:     server.ID,
					ServerName:   server.Name,
					SourceType:   obs.SourceType,
					SourceName:   obs.SourceName,
					Metric:       string(rule.Metric),
					Threshold:    rule.Threshold,
					CurrentValue: obs.Value,
					Severity:     rule.Severity,
					Title:        fmt.Sprintf("%s: %s", rule.Name, obs.SourceName),
					Description:  formatAlertMessage(rule, obs),
					Status:       models.AlertStatusActive,
					StartTime:    state.ViolationStart,
				})
			}
		} else {
			if state.IsViolating {
				state.IsViolating = false
				if state.Alerted {
					state.Alerted = false
					cleared = append(cleared, obs.SourceName)
				}
			}
		}

		state.LastValue = obs.Value
	}

	return triggered, cleared
}

func stateKey(ruleID uint, sourceName string) string {
	return fmt.Sprintf("%d|%s", ruleID, sourceName)
}

func cooldownElapsed(rule *models.AlertRule, now time.Time) bool {
	if rule.CooldownPeriod <= 0 || rule.LastTriggered == nil {
		return true
	}
	return now.Sub(*rule.LastTriggered) >= time.Duration(rule.CooldownPeriod)*time.Second
}

func evaluateCondition(operator models.Operator, current, threshold float64) bool {
	switch operator {
	case models.OperatorGT:
		return current > threshold
	case models.OperatorLT:
		return current < threshold
	case models.OperatorGTE:
		return current >= threshold
	case models.OperatorLTE:
		return current <= threshold
	case models.OperatorEQ:
		return current == threshold
	case models.OperatorNEQ:
		return current != threshold
	default:
		return false
	}
}

// extractObservations picks the rule's metric out of the snapshot, one
// observation per matching source.
func extractObservations(rule *models.AlertRule, snap *rabbitmq.Snapshot) []observation {
	var out []observation

	switch rule.Metric {
	case models.MetricQueueDepth, models.MetricQueueConsumers, models.MetricUnackedMessages:
		for _, q := range snap.Queues {
			if rule.TargetQueue != "" && rule.TargetQueue != q.Name {
				continue
			}
			var value float64
			switch rule.Metric {
			case models.MetricQueueDepth:
				value = float64(q.Messages)
			case models.MetricQueueConsumers:
				value = float64(q.Consumers)
			case models.MetricUnackedMessages:
				value = float64(q.MessagesUnacked)
			}
			out = append(out, observation{models.SourceQueue, q.Name, value})
		}

	case models.MetricNodeMemoryPercent, models.MetricNodeDiskFree:
		for _, n := range snap.Nodes {
			value := n.MemPercent
			if rule.Metric == models.MetricNodeDiskFree {
				value = float64(n.DiskFree)
			}
			out = append(out, observation{models.SourceNode, n.Name, value})
		}

	case models.MetricConnectionCount:
		name := snap.Overview.ClusterName
		if name == "" {
			name = "cluster"
		}
		out = append(out, observation{models.SourceConnection, name, float64(snap.Overview.Connections)})
	}

	return out
}

func formatAlertMessage(rule *models.AlertRule, obs observation) string {
	return fmt.Sprintf("%s on %s %s is %.2f (threshold: %s %.2f)",
		rule.Metric, obs.SourceType, obs.SourceName, obs.Value, rule.Operator, rule.Threshold)
}
