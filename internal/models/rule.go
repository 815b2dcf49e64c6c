package models

import (
	"time"

	"gorm.io/gorm"
)

type Operator string

const (
	OperatorGT  Operator = ">"
	OperatorLT  Operator = "<"
	OperatorGTE Operator = ">="
	OperatorLTE Operator = "<="
	OperatorEQ  Operator = "=="
	OperatorNEQ Operator = "!="
)

type Metric string

const (
	MetricQueueDepth        Metric = "queue_depth"
	MetricQueueConsumers    Metric = "queue_consumers"
	MetricUnackedMessages   Metric = "unacked_messages"
	MetricNodeMemoryPercent Metric = "node_memory_percent"
	MetricNodeDiskFree      Metric = "node_disk_free"
	MetricConnectionCount   Metric = "connection_count"
)

type AlertRule struct {
	gorm.Model
	WorkspaceID    uint       `gorm:"index;not null" json:"workspace_id"`
	ServerID       uint       `gorm:"index;not null" json:"server_id"`
	Name           string     `gorm:"not null" json:"name"`
	Description    string     `json:"description"`
	Metric         Metric     `gorm:"not null" json:"metric"`
	TargetQueue    string     `json:"target_queue"` // Optional, queue name filter for queue metrics
	Operator       Operator   `gorm:"not null" json:"operator"`
	Threshold      float64    `gorm:"not null" json:"threshold"`
	Duration       int        `gorm:"not null" json:"duration"` // In seconds
	CooldownPeriod int        `json:"cooldown_period"`          // In seconds, minimum time between alerts
	Severity       Severity   `gorm:"not null" json:"severity"`
	IsEnabled      bool       `gorm:"default:true" json:"is_enabled"`
	LastTriggered  *time.Time `json:"last_triggered"`
	LastChecked    *time.Time `json:"last_checked"`
	TriggerCount   int        `gorm:"default:0" json:"trigger_count"`
	ResolvedCount  int        `gorm:"default:0" json:"resolved_count"`
}
