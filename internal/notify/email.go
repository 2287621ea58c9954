package notify

import (
	"context"
	"errors"
	"html"
	"strings"

	"github.com/wolfman30/docconnect-ai/pkg/logging"
)

const defaultFromName = "DocConnect"

var errNoRecipient = errors.New("notify: email has no recipient")

// EmailSender delivers one email.
type EmailSender interface {
	Send(ctx context.Context, msg EmailMessage) error
}

// Address is a mailbox with an optional display name.
type Address struct {
	Email string
	Name  string
}

func (a Address) String() string {
	if a.Name == "" {
		return a.Email
	}
	return a.Name + " <" + a.Email + ">"
}

func (a Address) withDefaultName() Address {
	if a.Name == "" {
		a.Name = defaultFromName
	}
	return a
}

// EmailMessage is an outgoing email. HTML is derived from Body when empty.
type EmailMessage struct {
	To      string
	ToName  string
	Subject string
	Body    string
	HTML    string
}

func (m EmailMessage) htmlBody() string {
	if m.HTML != "" {
		return m.HTML
	}
	if m.Body == "" {
		return ""
	}
	return TextToHTML(m.Body)
}

// TextToHTML escapes a plain-text body and turns newlines into <br> tags.
func TextToHTML(body string) string {
	return strings.ReplaceAll(html.EscapeString(body), "\n", "<br>")
}

// LogEmailSender writes emails to the log instead of delivering them.
type LogEmailSender struct {
	logger *logging.Logger
}

func NewLogEmailSender(logger *logging.Logger) *LogEmailSender {
	if logger == nil {
		logger = logging.Default()
	}
	return &LogEmailSender{logger: logger}
}

func (s *LogEmailSender) Send(_ context.Context, msg EmailMessage) error {
	if msg.To == "" {
		return errNoRecipient
	}
	s.logger.Info("email not delivered, no provider configured", "to", msg.To, "subject", msg.Subject)
	return nil
}

// ProviderConfig selects an email provider.
type ProviderConfig struct {
	// Provider is "ses", "sendgrid", "log" or empty. Empty and unknown values
	// use SendGrid when a key is set.
	Provider string
	SendGrid SendGridConfig
	SES      SESConfig
}

// NewEmailSender picks a sender for cfg. ses may be nil when AWS is not
// configured; the log sender is the last resort.
func NewEmailSender(cfg ProviderConfig, ses SESAPI, logger *logging.Logger) EmailSender {
	if logger == nil {
		logger = logging.Default()
	}
	provider := strings.ToLower(strings.TrimSpace(cfg.Provider))
	if provider == "log" {
		return NewLogEmailSender(logger)
	}
	if provider == "ses" {
		if cfg.SES.From.Email != "" {
			if sender := NewSESSender(ses, cfg.SES, logger); sender != nil {
				logger.Info("email provider selected", "provider", "ses", "from", cfg.SES.From.Email)
				return sender
			}
		}
		logger.Warn("ses email provider requested but not configured")
	}
	if sender := NewSendGridSender(cfg.SendGrid, logger); sender != nil {
		logger.Info("email provider selected", "provider", "sendgrid", "from", cfg.SendGrid.From.Email)
		return sender
	}
	logger.Warn("no email provider configured, emails will only be logged")
	return NewLogEmailSender(logger)
}
