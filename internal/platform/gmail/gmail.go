package gmail

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"

	"github.com/jordan-wright/email"
	"golang.org/x/oauth2"
	gmailapi "google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"

	"github.com/yungbote/survey-backend/internal/platform/logger"
)

// Client sends RFC 5322 messages through the Gmail API as the authorised user.
type Client interface {
	Send(ctx context.Context, msg *email.Email) (messageID string, err error)
}

type client struct {
	svc *gmailapi.Service
	log *logger.Logger
}

func New(ctx context.Context, log *logger.Logger, ts oauth2.TokenSource, opts ...option.ClientOption) (Client, error) {
	if ts == nil {
		return nil, errors.New("gmail: token source required")
	}
	all := append([]option.ClientOption{
		option.WithTokenSource(ts),
		option.WithScopes(gmailapi.GmailSendScope),
	}, opts...)
	svc, err := gmailapi.NewService(ctx, all...)
	if err != nil {
		return nil, fmt.Errorf("gmail: create service: %w", err)
	}
	return &client{svc: svc, log: log.With("client", "GmailClient")}, nil
}

func (c *client) Send(ctx context.Context, msg *email.Email) (string, error) {
	if msg == nil || len(msg.To) == 0 {
		return "", errors.New("gmail: recipient required")
	}
	raw, err := msg.Bytes()
	if err != nil {
		return "", fmt.Errorf("gmail: encode message: %w", err)
	}
	sent, err := c.svc.Users.Messages.Send("me", &gmailapi.Message{
		Raw: base64.URLEncoding.EncodeToString(raw),
	}).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("gmail: send: %w", err)
	}
	c.log.Debug("Gmail message sent", "message_id", sent.Id)
	return sent.Id, nil
}
