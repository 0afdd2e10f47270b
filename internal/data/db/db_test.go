package db

import (
	"path/filepath"
	"testing"

	"github.com/yungbote/survey-backend/internal/platform/logger"
)

func TestNewServiceSQLiteCreatesSchema(t *testing.T) {
	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("logger.New: %v", err)
	}
	path := filepath.Join(t.TempDir(), "nested", "surveys.db")

	svc, err := NewService(log, Config{Dialect: DialectSQLite, DSN: path})
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	t.Cleanup(func() { _ = svc.Close() })

	if err := svc.AutoMigrateAll(); err != nil {
		t.Fatalf("AutoMigrateAll: %v", err)
	}
	if !svc.DB().Migrator().HasTable("surveys") {
		t.Fatalf("expected surveys table")
	}
	if !svc.DB().Migrator().HasIndex("surveys", "idx_surveys_email") {
		t.Fatalf("expected unique email index")
	}
}

func TestNewServiceRejectsUnknownDialect(t *testing.T) {
	log, _ := logger.New("test")
	if _, err := NewService(log, Config{Dialect: "mysql", DSN: "x"}); err == nil {
		t.Fatalf("expected error for unsupported dialect")
	}
	if _, err := NewService(log, Config{Dialect: DialectPostgres}); err == nil {
		t.Fatalf("expected error for missing DSN")
	}
}

func TestPostgresDSNFromEnv(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("POSTGRES_USER", "u")
	t.Setenv("POSTGRES_PASSWORD", "p")
	t.Setenv("POSTGRES_HOST", "db")
	t.Setenv("POSTGRES_PORT", "6543")
	t.Setenv("POSTGRES_NAME", "gym")
	if got := PostgresDSNFromEnv(); got != "postgres://u:p@db:6543/gym?sslmode=disable" {
		t.Fatalf("dsn: got=%q", got)
	}
	t.Setenv("DATABASE_URL", "postgres://override")
	if got := PostgresDSNFromEnv(); got != "postgres://override" {
		t.Fatalf("dsn override: got=%q", got)
	}
}
