package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/redis/go-redis/v9"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
	"gorm.io/gorm"

	"github.com/yungbote/survey-backend/internal/data/db"
	"github.com/yungbote/survey-backend/internal/data/repos"
	"github.com/yungbote/survey-backend/internal/data/repos/survey"
	"github.com/yungbote/survey-backend/internal/platform/gcp"
	"github.com/yungbote/survey-backend/internal/platform/logger"
)

var (
	newObject                  = gcp.NewObject
	resolveObjectStorageConfig = gcp.ResolveObjectStorageConfigFromEnv
	newDBService               = db.NewService
	newSheetsStore             = repos.NewSurveySheetsStore
)

type StorageProviderBootstrapErrorCode string

const (
	StorageProviderBootstrapErrorInvalidBackend      StorageProviderBootstrapErrorCode = "invalid_backend"
	StorageProviderBootstrapErrorInvalidMode         StorageProviderBootstrapErrorCode = "invalid_mode"
	StorageProviderBootstrapErrorMissingBucket       StorageProviderBootstrapErrorCode = "missing_bucket"
	StorageProviderBootstrapErrorMissingEmulatorHost StorageProviderBootstrapErrorCode = "missing_emulator_host"
	StorageProviderBootstrapErrorInvalidEmulatorHost StorageProviderBootstrapErrorCode = "invalid_emulator_host"
	StorageProviderBootstrapErrorMissingSheetID      StorageProviderBootstrapErrorCode = "missing_sheet_id"
	StorageProviderBootstrapErrorConnectFailed       StorageProviderBootstrapErrorCode = "connect_failed"
	StorageProviderBootstrapErrorPrepareFailed       StorageProviderBootstrapErrorCode = "prepare_failed"
)

type StorageProviderBootstrapError struct {
	Code    StorageProviderBootstrapErrorCode
	Backend string
	Cause   error
}

func (e *StorageProviderBootstrapError) Error() string {
	if e == nil {
		return "survey storage bootstrap failed"
	}
	return fmt.Sprintf("survey storage bootstrap failed (code=%s backend=%q): %v", e.Code, e.Backend, e.Cause)
}

func (e *StorageProviderBootstrapError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// storageProvider owns the store and the clients behind it.
type storageProvider struct {
	Store  repos.SurveyStore
	DB     *gorm.DB
	Redis  redis.UniversalClient
	closer []func() error
}

func (p *storageProvider) Close() error {
	if p == nil {
		return nil
	}
	var errs []error
	for i := len(p.closer) - 1; i >= 0; i-- {
		if err := p.closer[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func resolveStorage(ctx context.Context, log *logger.Logger, cfg Config) (*storageProvider, error) {
	p := &storageProvider{}

	locker, rdb, err := resolveLocker(ctx, log, cfg)
	if err != nil {
		return nil, err
	}
	if rdb != nil {
		p.Redis = rdb
		p.closer = append(p.closer, rdb.Close)
	}

	log.Info("Selecting survey storage backend", "backend", cfg.StorageBackend)

	switch cfg.StorageBackend {
	case survey.BackendFile:
		blob, err := resolveBlob(ctx, log, cfg)
		if err != nil {
			_ = p.Close()
			return nil, err
		}
		p.Store = repos.NewSurveyFileStore(blob, locker, log)
	case survey.BackendPostgres, survey.BackendSQLite:
		dbCfg := db.Config{Dialect: db.DialectPostgres, DSN: cfg.PostgresDSN}
		if cfg.StorageBackend == survey.BackendSQLite {
			dbCfg = db.Config{Dialect: db.DialectSQLite, DSN: cfg.SQLitePath}
		}
		svc, err := newDBService(log, dbCfg)
		if err == nil {
			err = svc.AutoMigrateAll()
			if err != nil {
				_ = svc.Close()
			}
		}
		if err != nil {
			_ = p.Close()
			return nil, bootstrapError(log, cfg.StorageBackend, StorageProviderBootstrapErrorConnectFailed, err)
		}
		p.DB = svc.DB()
		p.closer = append(p.closer, svc.Close)
		p.Store = repos.NewSurveyGormStore(svc.DB(), cfg.StorageBackend, log)
	case survey.BackendSheets:
		if cfg.Sheets.SpreadsheetID == "" {
			_ = p.Close()
			return nil, bootstrapError(log, cfg.StorageBackend, StorageProviderBootstrapErrorMissingSheetID, errors.New("GOOGLE_SHEET_ID is not set"))
		}
		opts := append(gcp.ClientOptionsFromEnv(), option.WithScopes(sheets.SpreadsheetsScope))
		store, err := newSheetsStore(ctx, cfg.Sheets, locker, log, opts...)
		if err != nil {
			_ = p.Close()
			return nil, bootstrapError(log, cfg.StorageBackend, StorageProviderBootstrapErrorConnectFailed, err)
		}
		p.Store = store
	default:
		_ = p.Close()
		return nil, bootstrapError(log, cfg.StorageBackend, StorageProviderBootstrapErrorInvalidBackend, fmt.Errorf("unsupported storage backend %q", cfg.StorageBackend))
	}
	p.closer = append(p.closer, p.Store.Close)
	return p, nil
}

func resolveLocker(ctx context.Context, log *logger.Logger, cfg Config) (repos.SurveyLocker, redis.UniversalClient, error) {
	if cfg.RedisAddr == "" {
		return survey.NewLocalLocker(), nil, nil
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:        cfg.RedisAddr,
		Password:    cfg.RedisPassword,
		DB:          cfg.RedisDB,
		DialTimeout: 5 * time.Second,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, nil, bootstrapError(log, cfg.StorageBackend, StorageProviderBootstrapErrorConnectFailed, fmt.Errorf("redis ping: %w", err))
	}
	locker, err := survey.NewRedisLocker(rdb, survey.RedisLockerConfig{TTL: cfg.RedisLockTTL}, log)
	if err != nil {
		_ = rdb.Close()
		return nil, nil, bootstrapError(log, cfg.StorageBackend, StorageProviderBootstrapErrorConnectFailed, err)
	}
	log.Info("Using Redis lock for survey writes", "addr", cfg.RedisAddr, "ttl", cfg.RedisLockTTL.String())
	return locker, rdb, nil
}

func resolveBlob(ctx context.Context, log *logger.Logger, cfg Config) (repos.SurveyBlob, error) {
	if cfg.SurveyFileBucket == "" {
		// Only created at boot; a directory removed later surfaces as a storage fault.
		if dir := filepath.Dir(cfg.SurveyFilePath); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, bootstrapError(log, cfg.StorageBackend, StorageProviderBootstrapErrorPrepareFailed, fmt.Errorf("create survey directory: %w", err))
			}
		}
		log.Info("Using local survey file", "path", cfg.SurveyFilePath)
		return survey.NewLocalBlob(cfg.SurveyFilePath), nil
	}
	objCfg, err := resolveObjectStorageConfig()
	if err != nil {
		return nil, classifyStorageProviderBootstrapError(log, cfg.StorageBackend, err)
	}
	obj, err := newObject(ctx, log, objCfg, gcp.ClientOptionsFromEnv()...)
	if err != nil {
		return nil, classifyStorageProviderBootstrapError(log, cfg.StorageBackend, err)
	}
	return survey.NewObjectBlob(obj, fmt.Sprintf("gs://%s/%s", objCfg.Bucket, objCfg.Object)), nil
}

func classifyStorageProviderBootstrapError(log *logger.Logger, backend string, err error) error {
	code := StorageProviderBootstrapErrorConnectFailed
	var cfgErr *gcp.ObjectStorageConfigError
	if errors.As(err, &cfgErr) {
		switch cfgErr.Code {
		case gcp.ObjectStorageConfigErrorInvalidMode:
			code = StorageProviderBootstrapErrorInvalidMode
		case gcp.ObjectStorageConfigErrorMissingBucket:
			code = StorageProviderBootstrapErrorMissingBucket
		case gcp.ObjectStorageConfigErrorMissingEmulatorHost:
			code = StorageProviderBootstrapErrorMissingEmulatorHost
		case gcp.ObjectStorageConfigErrorInvalidEmulatorHost:
			code = StorageProviderBootstrapErrorInvalidEmulatorHost
		}
	}
	return bootstrapError(log, backend, code, err)
}

func bootstrapError(log *logger.Logger, backend string, code StorageProviderBootstrapErrorCode, cause error) error {
	err := &StorageProviderBootstrapError{Code: code, Backend: backend, Cause: cause}
	if log != nil {
		log.Error("Survey storage bootstrap failed", "backend", backend, "error_code", code, "error", cause)
	}
	return err
}
