package notify

import (
	"fmt"
	"net/smtp"
	"strings"
	"time"

	"rsvp-service/internal/config"
	"rsvp-service/internal/models"
)

// Summary holds the computed fields of a submission notification: counts
// include the primary respondent (always an adult) plus the sanitized
// attendees, and Lines is the numbered, category-annotated listing.
type Summary struct {
	Total    int
	Adults   int
	Children int
	Lines    []string
}

// BuildSummary computes the notification summary for a primary guest and
// their sanitized attendee list.
func BuildSummary(primaryGuest string, attendees []models.AttendeeInput) Summary {
	all := make([]models.AttendeeInput, 0, len(attendees)+1)
	all = append(all, models.AttendeeInput{Name: primaryGuest, Age: models.AgeAdult})
	all = append(all, attendees...)

	s := Summary{Total: len(all)}
	for i, a := range all {
		label := "Adult"
		if a.Age == models.AgeChild {
			label = "Child"
			s.Children++
		} else {
			s.Adults++
		}
		s.Lines = append(s.Lines, fmt.Sprintf("%d. %s (%s)", i+1, a.Name, label))
	}
	return s
}

// Mailer delivers submission notifications to the host over plain SMTP.
type Mailer struct {
	cfg config.EmailConfig
}

func NewMailer(cfg config.EmailConfig) *Mailer {
	return &Mailer{cfg: cfg}
}

// Enabled reports whether the mailer has enough configuration to attempt
// delivery at all.
func (m *Mailer) Enabled() bool {
	return m.cfg.SMTPHost != "" && m.cfg.HostEmail != ""
}

// SendRSVPNotification emails the host a summary of one submission. Callers
// run this detached; an error here never affects the submission itself.
func (m *Mailer) SendRSVPNotification(primaryGuest string, attendees []models.AttendeeInput, guestEmail string) error {
	if !m.Enabled() {
		return fmt.Errorf("mailer not configured")
	}

	summary := BuildSummary(primaryGuest, attendees)
	subject := fmt.Sprintf("New RSVP from %s", primaryGuest)
	body := m.buildHTMLBody(primaryGuest, guestEmail, summary)

	var msg strings.Builder
	msg.WriteString(fmt.Sprintf("From: %s\r\n", m.cfg.FromEmail))
	msg.WriteString(fmt.Sprintf("To: %s\r\n", m.cfg.HostEmail))
	msg.WriteString(fmt.Sprintf("Subject: %s\r\n", subject))
	msg.WriteString("MIME-Version: 1.0\r\n")
	msg.WriteString("Content-Type: text/html; charset=\"UTF-8\"\r\n")
	msg.WriteString("\r\n")
	msg.WriteString(body)

	addr := m.cfg.SMTPHost + ":" + m.cfg.SMTPPort
	var auth smtp.Auth
	if m.cfg.SMTPUsername != "" {
		auth = smtp.PlainAuth("", m.cfg.SMTPUsername, m.cfg.SMTPPassword, m.cfg.SMTPHost)
	}
	return smtp.SendMail(addr, auth, m.cfg.FromEmail, []string{m.cfg.HostEmail}, []byte(msg.String()))
}

func (m *Mailer) buildHTMLBody(primaryGuest, guestEmail string, summary Summary) string {
	contact := ""
	if guestEmail != "" {
		contact = fmt.Sprintf("<p>Contact: <a href=\"mailto:%s\">%s</a></p>", guestEmail, guestEmail)
	}

	return fmt.Sprintf(`<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; color: #2c2c2c;">
  <h1>New RSVP Received</h1>
  <h3>Primary Guest</h3>
  <p><strong>%s</strong></p>
  %s
  <h3>Headcount</h3>
  <p>Total: %d &middot; Adults: %d &middot; Children: %d</p>
  <h3>Attending Party</h3>
  <p>%s</p>
  <hr/>
  <p style="color:#6b7280;font-size:13px;">Automated notification from the RSVP service.<br/>
  Submitted at: %s</p>
</body>
</html>`,
		primaryGuest,
		contact,
		summary.Total, summary.Adults, summary.Children,
		strings.Join(summary.Lines, "<br/>"),
		time.Now().UTC().Format(time.RFC1123),
	)
}
