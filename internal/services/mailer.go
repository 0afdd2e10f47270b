package services

import (
	"context"
	"fmt"
	"net/mail"

	"github.com/jordan-wright/email"
	"golang.org/x/oauth2"

	"github.com/yungbote/survey-backend/internal/platform/gmail"
	"github.com/yungbote/survey-backend/internal/platform/logger"
	"github.com/yungbote/survey-backend/internal/platform/sendgrid"
)

// Message is a single plain-text email.
type Message struct {
	FromName    string
	FromAddress string
	To          string
	Subject     string
	Text        string
}

// From renders the sender as a display-name address, e.g. "Gym App" <gym@example.com>.
func (m Message) From() string {
	return (&mail.Address{Name: m.FromName, Address: m.FromAddress}).String()
}

// Mailer delivers a Message through one transport.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
	Name() string
}

// AccessTokens fetches the Gmail access token under a caller context.
type AccessTokens interface {
	Token(ctx context.Context) (*oauth2.Token, error)
}

type gmailMailer struct {
	client gmail.Client
	tokens AccessTokens
}

// NewGmailMailer wraps client. When tokens is non-nil the access token is
// fetched under the send context first, so the client's transport finds it cached.
func NewGmailMailer(client gmail.Client, tokens AccessTokens) Mailer {
	return &gmailMailer{client: client, tokens: tokens}
}

func (m *gmailMailer) Name() string { return "gmail" }

func (m *gmailMailer) Send(ctx context.Context, msg Message) error {
	if m.tokens != nil {
		if _, err := m.tokens.Token(ctx); err != nil {
			return fmt.Errorf("gmail access token: %w", err)
		}
	}
	e := email.NewEmail()
	e.From = msg.From()
	e.To = []string{msg.To}
	e.Subject = msg.Subject
	e.Text = []byte(msg.Text)
	_, err := m.client.Send(ctx, e)
	return err
}

type sendGridMailer struct {
	client sendgrid.Client
}

func NewSendGridMailer(client sendgrid.Client) Mailer {
	return &sendGridMailer{client: client}
}

func (m *sendGridMailer) Name() string { return "sendgrid" }

func (m *sendGridMailer) Send(ctx context.Context, msg Message) error {
	_, err := m.client.Send(ctx, sendgrid.SendEmailRequest{
		From:    sendgrid.EmailAddress{Email: msg.FromAddress, Name: msg.FromName},
		To:      []sendgrid.EmailAddress{{Email: msg.To}},
		Subject: msg.Subject,
		Text:    msg.Text,
	})
	return err
}

type logMailer struct {
	log *logger.Logger
}

// NewLogMailer records messages in the log instead of delivering them.
func NewLogMailer(log *logger.Logger) Mailer {
	return &logMailer{log: log.With("mailer", "log")}
}

func (m *logMailer) Name() string { return "log" }

func (m *logMailer) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("log mailer: %w", err)
	}
	m.log.Info("Mail transport not configured, message logged only",
		"recipient", msg.To,
		"from", msg.From(),
		"subject", msg.Subject,
		"body_bytes", len(msg.Text),
	)
	return nil
}
