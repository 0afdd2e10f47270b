package app

import (
	"context"
	"fmt"

	"google.golang.org/api/option"

	"github.com/yungbote/survey-backend/internal/platform/gmail"
	"github.com/yungbote/survey-backend/internal/platform/googleauth"
	"github.com/yungbote/survey-backend/internal/platform/logger"
	"github.com/yungbote/survey-backend/internal/platform/sendgrid"
	"github.com/yungbote/survey-backend/internal/services"
)

// gmailOptions is replaced in tests to point the Gmail client at a fake server.
var gmailOptions []option.ClientOption

// mailTransport picks gmail when OAuth credentials are present, then sendgrid, then log.
func mailTransport(cfg Config) string {
	if cfg.MailTransport != "" {
		return cfg.MailTransport
	}
	switch {
	case cfg.GoogleAuth.Complete():
		return MailTransportGmail
	case cfg.SendGrid.APIKey != "":
		return MailTransportSendGrid
	default:
		return MailTransportLog
	}
}

func resolveMailer(ctx context.Context, log *logger.Logger, cfg Config) (services.Mailer, error) {
	transport := mailTransport(cfg)
	log.Info("Selecting mail transport", "transport", transport)

	switch transport {
	case MailTransportGmail:
		provider, err := googleauth.New(log, cfg.GoogleAuth)
		if err != nil {
			return nil, fmt.Errorf("init google token provider: %w", err)
		}
		client, err := gmail.New(ctx, log, provider.TokenSource(), gmailOptions...)
		if err != nil {
			return nil, fmt.Errorf("init gmail client: %w", err)
		}
		return services.NewGmailMailer(client, provider), nil
	case MailTransportSendGrid:
		client, err := sendgrid.New(log, cfg.SendGrid)
		if err != nil {
			return nil, fmt.Errorf("init sendgrid client: %w", err)
		}
		return services.NewSendGridMailer(client), nil
	case MailTransportLog:
		log.Warn("No mail transport configured, thank-you emails will only be logged")
		return services.NewLogMailer(log), nil
	default:
		return nil, &ConfigError{Code: ConfigErrorInvalidValue, Key: "MAIL_TRANSPORT", Value: transport}
	}
}
