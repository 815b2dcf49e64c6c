package notify

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/qarote/qarote/internal/models"
)

// DeliveryResult is one channel's outcome. Failures are recorded here and
// logged, never returned as errors to the caller.
type DeliveryResult struct {
	ChannelID   uint   `json:"channel_id"`
	ChannelName string `json:"channel_name"`
	Success     bool   `json:"success"`
	StatusCode  int    `json:"status_code,omitempty"`
	Error       string `json:"error,omitempty"`
	Retries     int    `json:"retries"`
}

// Dispatcher fans an alert batch out to a workspace's notification
// channels. Channels are attempted concurrently and independently; one
// channel failing cannot cancel or delay the others.
type Dispatcher struct {
	slack   *SlackService
	webhook *WebhookService
	email   *EmailService
}

func NewDispatcher(slack *SlackService, webhook *WebhookService, email *EmailService) *Dispatcher {
	return &Dispatcher{
		slack:   slack,
		webhook: webhook,
		email:   email,
	}
}

func (d *Dispatcher) Dispatch(ctx context.Context, alerts []models.Alert, workspaceName, serverName string, channels []models.NotificationChannel) []DeliveryResult {
	results := make([]DeliveryResult, len(channels))

	var wg sync.WaitGroup
	for i, channel := range channels {
		wg.Add(1)
		go func(i int, channel models.NotificationChannel) {
			defer wg.Done()
			results[i] = d.deliver(ctx, channel, alerts, workspaceName, serverName)
		}(i, channel)
	}
	wg.Wait()

	for _, r := range results {
		if !r.Success {
			log.Printf("Notification to channel %q (id=%d) failed after %d retries: %s",
				r.ChannelName, r.ChannelID, r.Retries, r.Error)
		}
	}

	return results
}

func (d *Dispatcher) deliver(ctx context.Context, channel models.NotificationChannel, alerts []models.Alert, workspaceName, serverName string) DeliveryResult {
	result := DeliveryResult{
		ChannelID:   channel.ID,
		ChannelName: channel.Name,
	}

	switch channel.Type {
	case models.ChannelSlackWebhook:
		msg := d.slack.BuildMessage(alerts, workspaceName, serverName, channel.CustomValue)
		sent := d.slack.SendMessage(ctx, channel.URL, msg)
		result.Success = sent.Success
		result.StatusCode = sent.StatusCode
		result.Error = sent.Error
		result.Retries = sent.Retries

	case models.ChannelSlackToken:
		msg := d.slack.BuildMessage(alerts, workspaceName, serverName, channel.CustomValue)
		if err := d.slack.PostViaToken(ctx, channel.Token, channel.SlackChannel, msg); err != nil {
			result.Error = fmt.Sprintf("slack API error: %v", err)
		} else {
			result.Success = true
		}

	case models.ChannelWebhook:
		sent := d.webhook.Send(ctx, channel.URL, channel.Secret, alerts, workspaceName, serverName)
		result.Success = sent.Success
		result.StatusCode = sent.StatusCode
		result.Error = sent.Error
		result.Retries = sent.Retries

	case models.ChannelEmail:
		if err := d.email.Send(alerts, workspaceName, serverName, channel.RecipientList()); err != nil {
			result.Error = fmt.Sprintf("email error: %v", err)
		} else {
			result.Success = true
		}

	default:
		result.Error = fmt.Sprintf("unknown channel type: %s", channel.Type)
	}

	return result
}
