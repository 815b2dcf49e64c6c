package notify

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/qarote/qarote/internal/models"
)

// WebhookService posts alert batches to generic webhook endpoints. Unlike
// Slack, any 2xx response is a success regardless of body. When the channel
// carries a secret, the payload is signed with HMAC-SHA256.
type WebhookService struct {
	httpSender
}

func NewWebhookService() *WebhookService {
	return &WebhookService{httpSender: newHTTPSender()}
}

type webhookPayload struct {
	Event     string         `json:"event"`
	Workspace string         `json:"workspace"`
	Server    string         `json:"server"`
	SentAt    time.Time      `json:"sent_at"`
	Alerts    []webhookAlert `json:"alerts"`
}

type webhookAlert struct {
	ID           uint    `json:"id"`
	Title        string  `json:"title"`
	Severity     string  `json:"severity"`
	Status       string  `json:"status"`
	Metric       string  `json:"metric"`
	SourceType   string  `json:"source_type"`
	SourceName   string  `json:"source_name"`
	CurrentValue float64 `json:"current_value"`
	Threshold    float64 `json:"threshold"`
	StartTime    string  `json:"start_time"`
}

func (w *WebhookService) Send(ctx context.Context, url, secret string, alerts []models.Alert, workspaceName, serverName string) SendResult {
	payload := webhookPayload{
		Event:     "alerts.triggered",
		Workspace: workspaceName,
		Server:    serverName,
		SentAt:    time.Now().UTC(),
		Alerts:    make([]webhookAlert, 0, len(alerts)),
	}
	for _, a := range alerts {
		payload.Alerts = append(payload.Alerts, webhookAlert{
			ID:           a.ID,
			Title:        a.Title,
			Severity:     string(a.Severity),
			Status:       string(a.Status),
			Metric:       a.Metric,
			SourceType:   string(a.SourceType),
			SourceName:   a.SourceName,
			CurrentValue: a.CurrentValue,
			Threshold:    a.Threshold,
			StartTime:    a.StartTime.UTC().Format(time.RFC3339),
		})
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return SendResult{Error: fmt.Sprintf("failed to marshal webhook payload: %v", err)}
	}

	var headers map[string]string
	if secret != "" {
		headers = map[string]string{"X-Qarote-Signature": Sign(secret, body)}
	}

	return w.post(ctx, url, headers, body, false)
}

// Sign computes the signature header value for a payload so receivers can
// verify origin.
func Sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}
