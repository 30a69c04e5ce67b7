package mail

import (
	"context"
	"fmt"
	"time"

	gomail "github.com/wneessen/go-mail"

	"databox/internal/pkg/logging"
)

// SMTPConfig carries everything the SMTP mailer needs.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	SSL      bool
	From     string
	Timeout  time.Duration

	BaseURL string

	VerificationSubject string
	DeliverySubject     string
	DeliveryTo          string
}

// SMTPMailer sends real mail through an SMTP relay.
type SMTPMailer struct {
	cfg      SMTPConfig
	renderer *Renderer
}

func NewSMTPMailer(cfg SMTPConfig, renderer *Renderer) *SMTPMailer {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &SMTPMailer{cfg: cfg, renderer: renderer}
}

func (m *SMTPMailer) SendVerification(ctx context.Context, to, code string) error {
	body, err := m.renderer.Verification(VerificationData{
		Link: verificationLink(m.cfg.BaseURL, code),
	})
	if err != nil {
		return fmt.Errorf("failed to render verification mail: %w", err)
	}

	msg, err := m.newMessage(to, m.cfg.VerificationSubject, body)
	if err != nil {
		return err
	}

	if err := m.send(ctx, msg); err != nil {
		logging.Error("failed to send verification mail", "to", to, "err", err)
		return err
	}

	logging.Info("verification mail sent", "to", to)
	return nil
}

func (m *SMTPMailer) SendDelivery(ctx context.Context, fromEmail, message string, attachments []Attachment) error {
	names := make([]string, 0, len(attachments))
	for _, a := range attachments {
		names = append(names, a.Name)
	}

	body, err := m.renderer.Delivery(DeliveryData{
		From:    fromEmail,
		Message: message,
		Files:   names,
		Date:    nowStamp(),
	})
	if err != nil {
		return fmt.Errorf("failed to render delivery mail: %w", err)
	}

	msg, err := m.newMessage(m.cfg.DeliveryTo, m.cfg.DeliverySubject, body)
	if err != nil {
		return err
	}
	for _, a := range attachments {
		if err := msg.AttachReader(a.Name, a.Reader); err != nil {
			return fmt.Errorf("failed to attach %s: %w", a.Name, err)
		}
	}

	if err := m.send(ctx, msg); err != nil {
		logging.Error("failed to send delivery mail", "from", fromEmail, "err", err)
		return err
	}

	logging.Info("delivery mail sent", "from", fromEmail, "files", len(attachments))
	return nil
}

func (m *SMTPMailer) newMessage(to, subject, htmlBody string) (*gomail.Msg, error) {
	msg := gomail.NewMsg()
	if err := msg.From(m.cfg.From); err != nil {
		return nil, fmt.Errorf("invalid sender address: %w", err)
	}
	if err := msg.To(to); err != nil {
		return nil, fmt.Errorf("invalid recipient address: %w", err)
	}
	msg.Subject(subject)
	msg.SetBodyString(gomail.TypeTextHTML, htmlBody)
	return msg, nil
}

func (m *SMTPMailer) send(ctx context.Context, msg *gomail.Msg) error {
	tlsPolicy := gomail.TLSOpportunistic
	if m.cfg.SSL {
		tlsPolicy = gomail.TLSMandatory
	}

	client, err := gomail.NewClient(m.cfg.Host,
		gomail.WithPort(m.cfg.Port),
		gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
		gomail.WithUsername(m.cfg.Username),
		gomail.WithPassword(m.cfg.Password),
		gomail.WithTLSPolicy(tlsPolicy),
		gomail.WithTimeout(m.cfg.Timeout),
	)
	if err != nil {
		return fmt.Errorf("failed to create smtp client: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, m.cfg.Timeout)
	defer cancel()

	return client.DialAndSendWithContext(ctx, msg)
}
