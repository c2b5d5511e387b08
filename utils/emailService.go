package utils

import (
	"fmt"
	"log"
	"time"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

// AlertMailer emails the operations inbox when a resync scan dies.
// Implements services.FailureNotifier. With no api key or recipient it is a
// no-op, so local setups run without mail credentials.
type AlertMailer struct {
	apiKey    string
	sender    string
	recipient string
}

// NewAlertMailer builds a mailer sending from sender to recipient.
func NewAlertMailer(apiKey, sender, recipient string) *AlertMailer {
	return &AlertMailer{apiKey: apiKey, sender: sender, recipient: recipient}
}

// NotifyScanFailure sends a failure alert for one scan. Errors are logged,
// never propagated; alerting must not affect the sync pipeline.
func (m *AlertMailer) NotifyScanFailure(objectType, scanID string, cause error) {
	if m.apiKey == "" || m.recipient == "" {
		return
	}

	subject := fmt.Sprintf("Resync scan failed: %s", objectType)
	plain := fmt.Sprintf("Scan %s for object type %s failed at %s.\n\nCause: %v\n\nRe-trigger the sync for the same scope once the cause is resolved.",
		scanID, objectType, time.Now().Format(time.RFC3339), cause)
	html := fmt.Sprintf(`
	<div style="font-family: Helvetica, Arial, sans-serif;">
		<h2>Resync scan failed</h2>
		<p><b>Object type:</b> %s<br/><b>Scan:</b> %s<br/><b>Time:</b> %s</p>
		<p><b>Cause:</b> %v</p>
		<p>Re-trigger the sync for the same scope once the cause is resolved.</p>
	</div>`, objectType, scanID, time.Now().Format(time.RFC3339), cause)

	from := mail.NewEmail("LMS Sync", m.sender)
	to := mail.NewEmail("", m.recipient)
	message := mail.NewSingleEmail(from, subject, to, plain, html)

	client := sendgrid.NewSendClient(m.apiKey)
	resp, err := client.Send(message)
	if err != nil {
		log.Printf("[ALERT] failed to send scan failure mail: %v", err)
		return
	}
	if resp.StatusCode >= 300 {
		log.Printf("[ALERT] scan failure mail rejected: %d %s", resp.StatusCode, resp.Body)
	}
}
