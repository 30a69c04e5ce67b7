package mail

import (
	"context"
	"io"

	"databox/internal/pkg/logging"
)

// Attachment is one file bundled into a delivery mail. The reader must stay
// open until the send completes; the caller owns closing it.
type Attachment struct {
	Name        string
	ContentType string
	Reader      io.Reader
}

// Mailer sends the two notification kinds the relay needs. Both report
// transport failure synchronously so callers can order sends before
// deletions.
type Mailer interface {
	// SendVerification mails the one-time link embedding code to the
	// submitter.
	SendVerification(ctx context.Context, to, code string) error

	// SendDelivery mails the message and attachments to the configured
	// drop recipient. fromEmail identifies the submitter inside the body;
	// it is not used as the envelope sender.
	SendDelivery(ctx context.Context, fromEmail, message string, attachments []Attachment) error
}

// ConsoleMailer logs instead of sending. Used in development and tests when
// no SMTP host is configured.
type ConsoleMailer struct {
	BaseURL string
}

func NewConsoleMailer(baseURL string) *ConsoleMailer {
	return &ConsoleMailer{BaseURL: baseURL}
}

func (m *ConsoleMailer) SendVerification(_ context.Context, to, code string) error {
	logging.Info("[DEV-MAIL] verification link", "to", to, "link", verificationLink(m.BaseURL, code))
	return nil
}

func (m *ConsoleMailer) SendDelivery(_ context.Context, fromEmail, message string, attachments []Attachment) error {
	names := make([]string, 0, len(attachments))
	for _, a := range attachments {
		names = append(names, a.Name)
	}
	logging.Info("[DEV-MAIL] delivery", "from", fromEmail, "message", message, "files", names)
	return nil
}
