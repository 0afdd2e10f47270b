package survey

import (
	"context"

	types "github.com/yungbote/survey-backend/internal/domain/survey"
)

// Store persists survey records keyed by exact email.
type Store interface {
	Exists(ctx context.Context, email string) (bool, error)
	// Append inserts rec when no record with the same email exists and returns
	// types.ErrDuplicateEmail otherwise.
	Append(ctx context.Context, rec *types.Record) (*types.Record, error)
	Get(ctx context.Context, email string) (*types.Record, error)
	Close() error
}

const (
	BackendFile     = "file"
	BackendPostgres = "postgres"
	BackendSQLite   = "sqlite"
	BackendSheets   = "sheets"
)
