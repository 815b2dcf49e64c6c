package models

import (
	"time"

	"gorm.io/gorm"
)

type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

type AlertStatus string

const (
	AlertStatusPending      AlertStatus = "pending"
	AlertStatusActive       AlertStatus = "active"
	AlertStatusAcknowledged AlertStatus = "acknowledged"
	AlertStatusResolved     AlertStatus = "resolved"
)

type SourceType string

const (
	SourceQueue      SourceType = "queue"
	SourceNode       SourceType = "node"
	SourceConnection SourceType = "connection"
)

// Alert is a detected threshold violation on a workspace's RabbitMQ server.
// It always references the workspace and server it came from; RuleID links
// back to the rule that produced it.
type Alert struct {
	gorm.Model
	RuleID         uint        `gorm:"index" json:"rule_id"`
	RuleName       string      `json:"rule_name"`
	WorkspaceID    uint        `gorm:"index;not null" json:"workspace_id"`
	ServerID       uint        `gorm:"index" json:"server_id"`
	ServerName     string      `json:"server_name"`
	SourceType     SourceType  `json:"source_type"`
	SourceName     string      `json:"source_name"`
	Metric         string      `json:"metric"`
	Threshold      float64     `json:"threshold"`
	CurrentValue   float64     `json:"current_value"`
	Severity       Severity    `json:"severity"`
	Title          string      `json:"title"`
	Description    string      `json:"description"`
	Status         AlertStatus `gorm:"index" json:"status"`
	StartTime      time.Time   `json:"start_time"`
	AcknowledgedBy string      `json:"acknowledged_by,omitempty"`
	AcknowledgedAt time.Time   `json:"acknowledged_at,omitempty"`
	ResolvedBy     string      `json:"resolved_by,omitempty"`
	ResolvedAt     time.Time   `json:"resolved_at,omitempty"`
}
