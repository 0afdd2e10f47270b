package repos

import (
	"context"

	"github.com/yungbote/survey-backend/internal/data/repos/survey"
	"github.com/yungbote/survey-backend/internal/platform/logger"
	"google.golang.org/api/option"
	"gorm.io/gorm"
)

type SurveyStore = survey.Store
type SurveyLocker = survey.Locker
type SurveyBlob = survey.Blob

func NewSurveyGormStore(db *gorm.DB, backend string, log *logger.Logger) SurveyStore {
	return survey.NewGormStore(db, backend, log)
}

func NewSurveyFileStore(blob SurveyBlob, locker SurveyLocker, log *logger.Logger) SurveyStore {
	return survey.NewFileStore(blob, locker, log)
}

func NewSurveySheetsStore(ctx context.Context, cfg survey.SheetsConfig, locker SurveyLocker, log *logger.Logger, opts ...option.ClientOption) (SurveyStore, error) {
	return survey.NewSheetsStore(ctx, cfg, locker, log, opts...)
}
