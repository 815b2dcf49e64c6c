package models

import (
	"strings"

	"gorm.io/gorm"
)

type ChannelType string

const (
	ChannelSlackWebhook ChannelType = "slack_webhook"
	ChannelSlackToken   ChannelType = "slack_token"
	ChannelWebhook      ChannelType = "webhook"
	ChannelEmail        ChannelType = "email"
)

// NotificationChannel is an outbound notification target owned by a
// workspace. Which fields are meaningful depends on Type: webhook types use
// URL (and Secret for signing), slack_token uses Token and SlackChannel,
// email uses Recipients.
type NotificationChannel struct {
	gorm.Model
	WorkspaceID  uint        `gorm:"index;not null" json:"workspace_id"`
	Name         string      `gorm:"not null" json:"name"`
	Type         ChannelType `gorm:"not null" json:"type"`
	Enabled      bool        `gorm:"default:true" json:"enabled"`
	URL          string      `json:"url,omitempty"`
	Token        string      `json:"-"`
	SlackChannel string      `json:"slack_channel,omitempty"`
	Secret       string      `json:"-"`
	CustomValue  string      `json:"custom_value,omitempty"`
	Recipients   string      `json:"recipients,omitempty"` // Comma-separated email addresses
}

// RecipientList splits the comma-separated Recipients field.
func (c *NotificationChannel) RecipientList() []string {
	if c.Recipients == "" {
		return nil
	}
	parts := strings.Split(c.Recipients, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
