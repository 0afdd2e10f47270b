package testutil

import (
	"context"
	"testing"
	"time"

	"gorm.io/gorm"

	types "github.com/yungbote/survey-backend/internal/domain/survey"
)

// SurveyRecord returns an unsaved record with the answers of a typical respondent.
func SurveyRecord(email string) *types.Record {
	return &types.Record{
		Age:               types.FromScalar(float64(28)),
		TrainingDuration:  types.FromScalar("6 months"),
		TrainingPlan:      types.FromScalar("strength"),
		BeginnerHelp:      types.FromScalar(true),
		AIHelp:            types.FromScalar(true),
		Social:            types.FromScalar("yes"),
		TrainingChallenge: types.FromScalar("motivation"),
		ResearchInterest:  types.FromScalar(true),
		Email:             email,
	}
}

// SeedSurvey inserts a record directly, bypassing any store.
func SeedSurvey(tb testing.TB, ctx context.Context, tx *gorm.DB, email string) *types.Record {
	tb.Helper()
	rec := SurveyRecord(email)
	rec.Stamp(time.Now())
	if err := tx.WithContext(ctx).Create(rec).Error; err != nil {
		tb.Fatalf("seed survey: %v", err)
	}
	return rec
}
