package models

import (
	"gorm.io/gorm"
)

// Workspace is the tenant unit. Servers, rules, alerts and notification
// channels all belong to exactly one workspace.
type Workspace struct {
	gorm.Model
	Name string `gorm:"uniqueIndex;not null" json:"name"`
	Slug string `gorm:"uniqueIndex" json:"slug"`

	Servers  []Server              `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	Rules    []AlertRule           `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	Alerts   []Alert               `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	Channels []NotificationChannel `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	Users    []User                `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}
