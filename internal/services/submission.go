package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/yungbote/survey-backend/internal/data/repos"
	types "github.com/yungbote/survey-backend/internal/domain/survey"
	"github.com/yungbote/survey-backend/internal/observability"
	"github.com/yungbote/survey-backend/internal/platform/logger"
)

type SubmissionService interface {
	// Submit stores rec unless its email was already used, then sends the
	// thank-you email. Notification failures never surface here.
	Submit(ctx context.Context, rec *types.Record) (*types.Record, error)
}

type submissionService struct {
	store    repos.SurveyStore
	notifier Notifier
	now      func() time.Time
	metrics  *observability.Metrics
	log      *logger.Logger
}

type SubmissionOption func(*submissionService)

// WithSubmissionMetrics counts submission outcomes. A nil Metrics is allowed.
func WithSubmissionMetrics(m *observability.Metrics) SubmissionOption {
	return func(s *submissionService) { s.metrics = m }
}

func NewSubmissionService(log *logger.Logger, store repos.SurveyStore, notifier Notifier, opts ...SubmissionOption) SubmissionService {
	s := &submissionService{
		store:    store,
		notifier: notifier,
		now:      time.Now,
		log:      log.With("service", "SubmissionService"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *submissionService) Submit(ctx context.Context, rec *types.Record) (*types.Record, error) {
	if rec == nil || strings.TrimSpace(rec.Email) == "" {
		s.metrics.IncSubmission(observability.OutcomeInvalid)
		return nil, types.ErrEmailRequired
	}

	exists, err := s.store.Exists(ctx, rec.Email)
	if err != nil {
		s.metrics.IncSubmission(observability.OutcomeStorageFail)
		return nil, fmt.Errorf("check duplicate: %w", err)
	}
	if exists {
		s.metrics.IncSubmission(observability.OutcomeDuplicate)
		s.log.Info("Duplicate submission rejected", "email", rec.Email)
		return nil, types.ErrDuplicateEmail
	}

	rec.Stamp(s.now())
	stored, err := s.store.Append(ctx, rec)
	if errors.Is(err, types.ErrDuplicateEmail) {
		s.metrics.IncSubmission(observability.OutcomeDuplicate)
		s.log.Info("Duplicate submission rejected on insert", "email", rec.Email)
		return nil, err
	}
	if err != nil {
		s.metrics.IncSubmission(observability.OutcomeStorageFail)
		return nil, fmt.Errorf("store survey: %w", err)
	}
	s.metrics.IncSubmission(observability.OutcomeStored)
	s.log.Info("Survey stored", "email", stored.Email, "survey_id", stored.ID)

	s.notifier.Send(ctx, stored.Email)
	return stored, nil
}
