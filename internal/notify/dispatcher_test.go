package notify

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/qarote/qarote/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func fastDispatcher() *Dispatcher {
	slack := NewSlackService("Qarote")
	slack.BaseDelay = time.Millisecond
	webhook := NewWebhookService()
	webhook.BaseDelay = time.Millisecond
	return NewDispatcher(slack, webhook, NewEmailService("", 0, "", ""))
}

func TestDispatchOneResultPerChannel(t *testing.T) {
	okSlack := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "ok")
	}))
	defer okSlack.Close()

	okWebhook := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer okWebhook.Close()

	channels := []models.NotificationChannel{
		{Model: gorm.Model{ID: 1}, Name: "team-slack", Type: models.ChannelSlackWebhook, URL: okSlack.URL},
		// Nothing listens here; this channel must fail without touching the others
		{Model: gorm.Model{ID: 2}, Name: "dead-hook", Type: models.ChannelWebhook, URL: "http://127.0.0.1:1"},
		{Model: gorm.Model{ID: 3}, Name: "audit-hook", Type: models.ChannelWebhook, URL: okWebhook.URL},
	}

	d := fastDispatcher()
	results := d.Dispatch(context.Background(), makeAlerts(2), "acme", "rabbit-1", channels)

	require.Len(t, results, 3)
	assert.True(t, results[0].Success)
	assert.False(t, results[1].Success)
	assert.NotEmpty(t, results[1].Error)
	assert.True(t, results[2].Success)

	for i, channel := range channels {
		assert.Equal(t, channel.ID, results[i].ChannelID)
		assert.Equal(t, channel.Name, results[i].ChannelName)
	}
}

func TestDispatchRecordsUnknownChannelType(t *testing.T) {
	d := fastDispatcher()
	results := d.Dispatch(context.Background(), makeAlerts(1), "acme", "rabbit-1",
		[]models.NotificationChannel{{Model: gorm.Model{ID: 7}, Name: "mystery", Type: "pager"}})

	require.Len(t, results, 1)
	assert.False(t, results[0].Success)
	assert.Contains(t, results[0].Error, "unknown channel type")
}

func TestDispatchEmailWithoutSMTPConfigured(t *testing.T) {
	d := fastDispatcher()
	results := d.Dispatch(context.Background(), makeAlerts(1), "acme", "rabbit-1",
		[]models.NotificationChannel{{Model: gorm.Model{ID: 4}, Name: "ops-mail", Type: models.ChannelEmail, Recipients: "ops@example.com"}})

	require.Len(t, results, 1)
	assert.False(t, results[0].Success)
	assert.Contains(t, results[0].Error, "not configured")
}

func TestDispatchNoChannels(t *testing.T) {
	d := fastDispatcher()
	results := d.Dispatch(context.Background(), makeAlerts(1), "acme", "rabbit-1", nil)
	assert.Empty(t, results)
}
