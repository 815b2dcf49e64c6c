package api

import (
	"testing"

	"github.com/qarote/qarote/internal/models"
	"github.com/stretchr/testify/assert"
)

func validRule() models.AlertRule {
	return models.AlertRule{
		Name:      "Queue backlog",
		ServerID:  1,
		Metric:    models.MetricQueueDepth,
		Operator:  models.OperatorGT,
		Threshold: 100,
		Duration:  60,
		Severity:  models.SeverityWarning,
	}
}

func TestValidateRuleFields(t *testing.T) {
	rule := validRule()
	assert.NoError(t, validateRuleFields(&rule))

	tests := []struct {
		name    string
		mutate  func(r *models.AlertRule)
		wantErr string
	}{
		{"missing name", func(r *models.AlertRule) { r.Name = "" }, "name is required"},
		{"bad metric", func(r *models.AlertRule) { r.Metric = "cpu_percent" }, "invalid metric"},
		{"bad operator", func(r *models.AlertRule) { r.Operator = "~" }, "invalid operator"},
		{"bad severity", func(r *models.AlertRule) { r.Severity = "catastrophic" }, "invalid severity"},
		{"zero duration", func(r *models.AlertRule) { r.Duration = 0 }, "duration must be positive"},
		{"negative duration", func(r *models.AlertRule) { r.Duration = -5 }, "duration must be positive"},
		{"missing server", func(r *models.AlertRule) { r.ServerID = 0 }, "server_id is required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rule := validRule()
			tt.mutate(&rule)
			err := validateRuleFields(&rule)
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestValidateChannel(t *testing.T) {
	tests := []struct {
		name    string
		channel models.NotificationChannel
		wantErr string
	}{
		{"slack webhook ok", models.NotificationChannel{Name: "s", Type: models.ChannelSlackWebhook, URL: "https://hooks.slack.com/x"}, ""},
		{"webhook ok", models.NotificationChannel{Name: "w", Type: models.ChannelWebhook, URL: "https://example.com/hook"}, ""},
		{"slack token ok", models.NotificationChannel{Name: "t", Type: models.ChannelSlackToken, Token: "xoxb-1", SlackChannel: "#alerts"}, ""},
		{"email ok", models.NotificationChannel{Name: "e", Type: models.ChannelEmail, Recipients: "a@example.com, b@example.com"}, ""},
		{"missing name", models.NotificationChannel{Type: models.ChannelWebhook, URL: "https://example.com"}, "name is required"},
		{"webhook without url", models.NotificationChannel{Name: "w", Type: models.ChannelWebhook}, "url is required"},
		{"token without channel", models.NotificationChannel{Name: "t", Type: models.ChannelSlackToken, Token: "xoxb-1"}, "slack_channel are required"},
		{"email without recipients", models.NotificationChannel{Name: "e", Type: models.ChannelEmail, Recipients: " , "}, "recipients are required"},
		{"unknown type", models.NotificationChannel{Name: "x", Type: "carrier-pigeon"}, "invalid channel type"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateChannel(&tt.channel)
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				assert.ErrorContains(t, err, tt.wantErr)
			}
		})
	}
}
