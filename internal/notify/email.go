package notify

import (
	"fmt"
	"strings"

	"github.com/qarote/qarote/internal/models"
	"gopkg.in/gomail.v2"
)

// EmailService sends alert batches over SMTP. Delivery is a single attempt;
// the dialer owns connection-level retry semantics.
type EmailService struct {
	dialer *gomail.Dialer
	from   string
}

func NewEmailService(smtpHost string, smtpPort int, from, password string) *EmailService {
	if smtpHost == "" {
		return &EmailService{}
	}
	return &EmailService{
		dialer: gomail.NewDialer(smtpHost, smtpPort, from, password),
		from:   from,
	}
}

func (e *EmailService) Send(alerts []models.Alert, workspaceName, serverName string, recipients []string) error {
	if e.dialer == nil {
		return fmt.Errorf("email delivery is not configured")
	}
	if len(recipients) == 0 {
		return fmt.Errorf("channel has no recipients")
	}

	m := gomail.NewMessage()
	m.SetHeader("From", e.from)
	m.SetHeader("To", recipients...)
	m.SetHeader("Subject", fmt.Sprintf("[%s] %d alert(s) on %s / %s",
		strings.ToUpper(string(maxSeverity(alerts))), len(alerts), workspaceName, serverName))

	var body strings.Builder
	for _, a := range alerts {
		fmt.Fprintf(&body, "%s [%s]\n", a.Title, a.Severity)
		fmt.Fprintf(&body, "  %s %s: %s is %.2f (threshold %.2f)\n",
			a.SourceType, a.SourceName, a.Metric, a.CurrentValue, a.Threshold)
		fmt.Fprintf(&body, "  Started: %s\n\n", a.StartTime.Format("2006-01-02 15:04:05 MST"))
	}

	m.SetBody("text/plain", body.String())

	return e.dialer.DialAndSend(m)
}
