package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/qarote/qarote/internal/models"
	"github.com/slack-go/slack"
)

// At most this many alerts get their own attachment; the rest collapse
// into a single overflow notice.
const maxDetailedAlerts = 10

type SlackMessage struct {
	Text        string       `json:"text"`
	Username    string       `json:"username,omitempty"`
	IconEmoji   string       `json:"icon_emoji,omitempty"`
	Attachments []Attachment `json:"attachments"`
}

type Attachment struct {
	Color  string  `json:"color"`
	Title  string  `json:"title,omitempty"`
	Text   string  `json:"text"`
	Fields []Field `json:"fields,omitempty"`
	Footer string  `json:"footer,omitempty"`
	Ts     int64   `json:"ts,omitempty"`
}

type Field struct {
	Title string `json:"title"`
	Value string `json:"value"`
	Short bool   `json:"short"`
}

// SlackService delivers alert batches to Slack, either through an incoming
// webhook (SendMessage) or through the Web API with a bot token (PostViaToken).
type SlackService struct {
	httpSender
	Username string
}

func NewSlackService(username string) *SlackService {
	return &SlackService{
		httpSender: newHTTPSender(),
		Username:   username,
	}
}

// BuildMessage formats a batch of alerts into a Slack message. The first
// ten alerts are rendered in detail; a trailing attachment summarizes any
// overflow. customValue, when set, is appended to the summary text and to
// each attachment body.
func (s *SlackService) BuildMessage(alerts []models.Alert, workspaceName, serverName, customValue string) *SlackMessage {
	text := fmt.Sprintf("%d alert(s) triggered on %s / %s", len(alerts), workspaceName, serverName)
	if customValue != "" {
		text += "\n" + customValue
	}

	msg := &SlackMessage{
		Text:      text,
		Username:  s.Username,
		IconEmoji: severityEmoji(maxSeverity(alerts)),
	}

	now := time.Now().Unix()
	for i, alert := range alerts {
		if i == maxDetailedAlerts {
			msg.Attachments = append(msg.Attachments, Attachment{
				Color: severityColor(""),
				Text:  fmt.Sprintf("...and %d more alerts", len(alerts)-maxDetailedAlerts),
			})
			break
		}

		body := alert.Description
		if body == "" {
			body = fmt.Sprintf("%s on %s is %.2f (threshold %.2f)",
				alert.Metric, alert.SourceName, alert.CurrentValue, alert.Threshold)
		}
		if customValue != "" {
			body += "\n" + customValue
		}

		msg.Attachments = append(msg.Attachments, Attachment{
			Color: severityColor(alert.Severity),
			Title: alert.Title,
			Text:  body,
			Fields: []Field{
				{Title: "Source", Value: fmt.Sprintf("%s %s", alert.SourceType, alert.SourceName), Short: true},
				{Title: "Severity", Value: string(alert.Severity), Short: true},
				{Title: "Current", Value: fmt.Sprintf("%.2f", alert.CurrentValue), Short: true},
				{Title: "Threshold", Value: fmt.Sprintf("%.2f", alert.Threshold), Short: true},
			},
			Footer: "Qarote Alerts",
			Ts:     now,
		})
	}

	return msg
}

// SendMessage posts the message to a Slack incoming webhook with bounded
// retry. Slack answers a bare "ok" body on success; a 2xx response with any
// other body is logged but still counted a success.
func (s *SlackService) SendMessage(ctx context.Context, webhookURL string, msg *SlackMessage) SendResult {
	payload, err := json.Marshal(msg)
	if err != nil {
		return SendResult{Error: fmt.Sprintf("failed to marshal slack message: %v", err)}
	}
	return s.post(ctx, webhookURL, nil, payload, true)
}

// PostViaToken delivers the same message through the Slack Web API for
// workspaces configured with a bot token instead of an incoming webhook.
func (s *SlackService) PostViaToken(ctx context.Context, token, channel string, msg *SlackMessage) error {
	api := slack.New(token)
	_, _, err := api.PostMessageContext(ctx, channel,
		slack.MsgOptionText(msg.Text, false),
		slack.MsgOptionUsername(msg.Username),
		slack.MsgOptionIconEmoji(msg.IconEmoji),
		slack.MsgOptionAttachments(toSlackAttachments(msg.Attachments)...),
	)
	return err
}

func toSlackAttachments(attachments []Attachment) []slack.Attachment {
	out := make([]slack.Attachment, 0, len(attachments))
	for _, a := range attachments {
		fields := make([]slack.AttachmentField, 0, len(a.Fields))
		for _, f := range a.Fields {
			fields = append(fields, slack.AttachmentField{Title: f.Title, Value: f.Value, Short: f.Short})
		}
		out = append(out, slack.Attachment{
			Color:  a.Color,
			Title:  a.Title,
			Text:   a.Text,
			Fields: fields,
			Footer: a.Footer,
			Ts:     json.Number(strconv.FormatInt(a.Ts, 10)),
		})
	}
	return out
}

func severityColor(severity models.Severity) string {
	switch severity {
	case models.SeverityCritical:
		return "danger"
	case models.SeverityWarning:
		return "warning"
	case models.SeverityInfo:
		return "good"
	default:
		return "#36a64f"
	}
}

func severityEmoji(severity models.Severity) string {
	switch severity {
	case models.SeverityCritical:
		return ":rotating_light:"
	case models.SeverityWarning:
		return ":warning:"
	case models.SeverityInfo:
		return ":information_source:"
	default:
		return ":bell:"
	}
}

func maxSeverity(alerts []models.Alert) models.Severity {
	rank := map[models.Severity]int{
		models.SeverityInfo:     1,
		models.SeverityWarning:  2,
		models.SeverityCritical: 3,
	}
	var top models.Severity
	for _, a := range alerts {
		if rank[a.Severity] > rank[top] {
			top = a.Severity
		}
	}
	return top
}
