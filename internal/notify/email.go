package notify

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"

	"github.com/wolfman30/leadchat/pkg/logging"
)

const defaultFromName = "LeadChat"

// ErrNotConfigured is returned by a sender with no client behind it.
var ErrNotConfigured = errors.New("notify: sender not configured")

// EmailSender delivers one plain-text email.
type EmailSender interface {
	Send(ctx context.Context, email Email) error
}

// Email is a plain-text notification. ReplyTo lets the owner answer the lead
// directly from their inbox.
type Email struct {
	To      string
	Subject string
	Text    string
	ReplyTo string
}

// Sender identifies the From address.
type Sender struct {
	Name  string
	Email string
}

func (s Sender) withDefaults() Sender {
	if strings.TrimSpace(s.Name) == "" {
		s.Name = defaultFromName
	}
	return s
}

func (s Sender) String() string {
	return (&mail.Address{Name: s.Name, Address: s.Email}).String()
}

// SendGridSender delivers through the SendGrid v3 API.
type SendGridSender struct {
	client *sendgrid.Client
	from   Sender
	logger *logging.Logger
}

// NewSendGridSender returns nil when apiKey is empty.
func NewSendGridSender(apiKey string, from Sender, logger *logging.Logger) *SendGridSender {
	if strings.TrimSpace(apiKey) == "" {
		return nil
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &SendGridSender{client: sendgrid.NewSendClient(apiKey), from: from.withDefaults(), logger: logger}
}

func (s *SendGridSender) Send(ctx context.Context, email Email) error {
	if s == nil || s.client == nil {
		return ErrNotConfigured
	}
	msg := sgmail.NewSingleEmailPlainText(
		sgmail.NewEmail(s.from.Name, s.from.Email),
		email.Subject,
		sgmail.NewEmail("", email.To),
		email.Text,
	)
	if email.ReplyTo != "" {
		msg.SetReplyTo(sgmail.NewEmail("", email.ReplyTo))
	}

	resp, err := s.client.SendWithContext(ctx, msg)
	if err != nil {
		return fmt.Errorf("notify: sendgrid: %w", err)
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("notify: sendgrid status %d: %s", resp.StatusCode, resp.Body)
	}
	s.logger.Debug("lead email sent", "provider", "sendgrid", "status", resp.StatusCode)
	return nil
}

// LogSender records what would have been sent. Used when no provider is
// configured.
type LogSender struct {
	logger *logging.Logger
}

func NewLogSender(logger *logging.Logger) *LogSender {
	if logger == nil {
		logger = logging.Default()
	}
	return &LogSender{logger: logger}
}

func (s *LogSender) Send(_ context.Context, email Email) error {
	s.logger.Info("email delivery disabled; skipping lead email", "subject", email.Subject)
	return nil
}

var (
	_ EmailSender = (*SendGridSender)(nil)
	_ EmailSender = (*LogSender)(nil)
)
