package services

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"text/template"
	"time"

	"github.com/yungbote/survey-backend/internal/observability"
	"github.com/yungbote/survey-backend/internal/platform/ctxutil"
	"github.com/yungbote/survey-backend/internal/platform/logger"
)

const (
	DefaultFromName  = "Gym App"
	DefaultPromoCode = "GYM20"
	ThankYouSubject  = "Thank You for Participating! 🎉"
)

const thankYouBody = `תודה שמילאת את הסקר!
בימים הקרובים נשלח איימל נוסף ובו נסביר לעומק על האפליקציה והחזון שלנו.
המשך יום נהדר! 😊

🔹 קוד ההנחה שלך: {{.PromoCode}}`

var thankYouTemplate = template.Must(template.New("thank_you").Parse(thankYouBody))

// Notifier sends the thank-you email. It never reports failure to the caller.
type Notifier interface {
	Send(ctx context.Context, email string)
}

type NotifierConfig struct {
	FromAddress string
	FromName    string
	PromoCode   string
	// Timeout bounds one send; zero means no bound.
	Timeout time.Duration
	// Metrics is optional.
	Metrics *observability.Metrics
}

type thankYouNotifier struct {
	mailer Mailer
	cfg    NotifierConfig
	log    *logger.Logger
}

func NewNotifier(log *logger.Logger, mailer Mailer, cfg NotifierConfig) Notifier {
	if strings.TrimSpace(cfg.FromName) == "" {
		cfg.FromName = DefaultFromName
	}
	if strings.TrimSpace(cfg.PromoCode) == "" {
		cfg.PromoCode = DefaultPromoCode
	}
	return &thankYouNotifier{
		mailer: mailer,
		cfg:    cfg,
		log:    log.With("service", "ThankYouNotifier", "mailer", mailer.Name()),
	}
}

// RenderThankYou builds the thank-you message for recipient.
func RenderThankYou(cfg NotifierConfig, recipient string) (Message, error) {
	var body bytes.Buffer
	if err := thankYouTemplate.Execute(&body, cfg); err != nil {
		return Message{}, fmt.Errorf("render thank-you body: %w", err)
	}
	return Message{
		FromName:    cfg.FromName,
		FromAddress: cfg.FromAddress,
		To:          recipient,
		Subject:     ThankYouSubject,
		Text:        body.String(),
	}, nil
}

// Send ignores cancellation of ctx; only the configured Timeout bounds it.
func (n *thankYouNotifier) Send(ctx context.Context, recipient string) {
	ctx = context.WithoutCancel(ctxutil.Default(ctx))
	if n.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, n.cfg.Timeout)
		defer cancel()
	}

	defer func() {
		if r := recover(); r != nil {
			n.log.Error("Thank-you email panicked", "recipient", recipient, "panic", fmt.Sprint(r))
		}
	}()

	msg, err := RenderThankYou(n.cfg, recipient)
	if err != nil {
		n.log.Error("Failed to render thank-you email", "recipient", recipient, "error", err)
		return
	}

	start := time.Now()
	if err := n.mailer.Send(ctx, msg); err != nil {
		n.cfg.Metrics.ObserveNotification(n.mailer.Name(), observability.OutcomeFailed, time.Since(start))
		n.log.Error("Failed to send thank-you email",
			"recipient", recipient,
			"duration_ms", time.Since(start).Milliseconds(),
			"error", err,
		)
		return
	}
	n.cfg.Metrics.ObserveNotification(n.mailer.Name(), observability.OutcomeSent, time.Since(start))
	n.log.Info("Thank-you email sent", "recipient", recipient, "duration_ms", time.Since(start).Milliseconds())
}
