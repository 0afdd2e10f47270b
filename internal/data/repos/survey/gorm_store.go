package survey

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	types "github.com/yungbote/survey-backend/internal/domain/survey"
	"github.com/yungbote/survey-backend/internal/platform/logger"
)

type gormStore struct {
	db      *gorm.DB
	backend string
	now     func() time.Time
	log     *logger.Logger
}

// NewGormStore stores records in the surveys table. The unique index on email
// makes Append an atomic insert-if-absent. The caller owns db.
func NewGormStore(db *gorm.DB, backend string, baseLog *logger.Logger) Store {
	if backend == "" {
		backend = db.Dialector.Name()
	}
	return &gormStore{
		db:      db,
		backend: backend,
		now:     time.Now,
		log:     baseLog.With("repo", "SurveyGormStore", "backend", backend),
	}
}

func (s *gormStore) Exists(ctx context.Context, email string) (bool, error) {
	var count int64
	if err := s.db.WithContext(ctx).
		Model(&types.Record{}).
		Where("email = ?", email).
		Count(&count).Error; err != nil {
		return false, types.Unavailable(s.backend, "exists", err)
	}
	return count > 0, nil
}

func (s *gormStore) Append(ctx context.Context, rec *types.Record) (*types.Record, error) {
	if rec == nil || strings.TrimSpace(rec.Email) == "" {
		return nil, types.ErrEmailRequired
	}
	out := *rec
	out.Stamp(s.now())

	if err := s.db.WithContext(ctx).Create(&out).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, types.ErrDuplicateEmail
		}
		return nil, types.Unavailable(s.backend, "append", err)
	}
	return &out, nil
}

func (s *gormStore) Get(ctx context.Context, email string) (*types.Record, error) {
	var rec types.Record
	err := s.db.WithContext(ctx).Where("email = ?", email).Take(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, types.ErrNotFound
	}
	if err != nil {
		return nil, types.Unavailable(s.backend, "get", err)
	}
	rec.SubmittedAt = rec.SubmittedAt.UTC()
	return &rec, nil
}

func (s *gormStore) Close() error { return nil }

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return true
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
