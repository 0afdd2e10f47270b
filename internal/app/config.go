package app

import (
	"fmt"
	"strings"
	"time"

	"github.com/yungbote/survey-backend/internal/data/db"
	"github.com/yungbote/survey-backend/internal/data/repos/survey"
	"github.com/yungbote/survey-backend/internal/platform/envutil"
	"github.com/yungbote/survey-backend/internal/platform/googleauth"
	"github.com/yungbote/survey-backend/internal/platform/logger"
	"github.com/yungbote/survey-backend/internal/platform/sendgrid"
	"github.com/yungbote/survey-backend/internal/services"
)

const (
	DefaultPort           = "5000"
	DefaultSurveyFilePath = "data/surveys.json"
	DefaultSQLitePath     = "data/surveys.db"
	DefaultNotifyTimeout  = 30 * time.Second
	DefaultRedisLockTTL   = 10 * time.Second
)

const (
	MailTransportGmail    = "gmail"
	MailTransportSendGrid = "sendgrid"
	MailTransportLog      = "log"
)

type Config struct {
	Port            string
	Environment     string
	Version         string
	CORSOrigins     []string
	ShutdownTimeout time.Duration

	StorageBackend   string
	SurveyFilePath   string
	SurveyFileBucket string
	SQLitePath       string
	PostgresDSN      string
	Sheets           survey.SheetsConfig

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisLockTTL  time.Duration

	// MailTransport is empty when the transport should be picked from what is configured.
	MailTransport string
	GoogleAuth    googleauth.Config
	SendGrid      sendgrid.Config
	Notifier      services.NotifierConfig
}

type ConfigErrorCode string

const (
	ConfigErrorInvalidValue ConfigErrorCode = "invalid_value"
)

type ConfigError struct {
	Code  ConfigErrorCode
	Key   string
	Value string
}

func (e *ConfigError) Error() string {
	if e == nil {
		return "invalid configuration"
	}
	return fmt.Sprintf("invalid configuration (code=%s key=%s value=%q)", e.Code, e.Key, e.Value)
}

func LoadConfig(log *logger.Logger) Config {
	cfg := Config{
		Port:            envutil.String("PORT", DefaultPort),
		Environment:     envutil.String("APP_ENV", "development"),
		Version:         envutil.String("APP_VERSION", ""),
		CORSOrigins:     envutil.List("CORS_ALLOW_ORIGINS"),
		ShutdownTimeout: envutil.Seconds("HTTP_SHUTDOWN_TIMEOUT_SECONDS", 10*time.Second),

		StorageBackend:   strings.ToLower(envutil.String("STORAGE_BACKEND", survey.BackendFile)),
		SurveyFilePath:   envutil.String("SURVEY_FILE_PATH", DefaultSurveyFilePath),
		SurveyFileBucket: envutil.String("SURVEY_FILE_BUCKET", ""),
		SQLitePath:       envutil.String("SQLITE_PATH", DefaultSQLitePath),
		PostgresDSN:      db.PostgresDSNFromEnv(),
		Sheets: survey.SheetsConfig{
			SpreadsheetID: envutil.String("GOOGLE_SHEET_ID", ""),
			Title:         envutil.String("GOOGLE_SHEET_TITLE", survey.DefaultSheetTitle),
		},

		RedisAddr:     envutil.String("REDIS_ADDR", ""),
		RedisPassword: envutil.String("REDIS_PASSWORD", ""),
		RedisDB:       envutil.Int("REDIS_DB", 0),
		RedisLockTTL:  envutil.Seconds("REDIS_LOCK_TTL_SECONDS", DefaultRedisLockTTL),

		MailTransport: strings.ToLower(envutil.String("MAIL_TRANSPORT", "")),
		GoogleAuth:    googleauth.ConfigFromEnv(),
		SendGrid:      sendgrid.ConfigFromEnv(),
		Notifier: services.NotifierConfig{
			FromAddress: envutil.String("EMAIL_USER", ""),
			FromName:    envutil.String("MAIL_FROM_NAME", services.DefaultFromName),
			PromoCode:   envutil.String("THANK_YOU_PROMO_CODE", services.DefaultPromoCode),
			Timeout:     envutil.Seconds("NOTIFY_TIMEOUT_SECONDS", DefaultNotifyTimeout),
		},
	}
	if log != nil {
		log.Info("Configuration loaded",
			"port", cfg.Port,
			"storage_backend", cfg.StorageBackend,
			"mail_transport", cfg.MailTransport,
			"redis_lock", cfg.RedisAddr != "",
		)
	}
	return cfg
}

// Validate rejects unknown enum values before any client is built.
func (c Config) Validate() error {
	switch c.StorageBackend {
	case survey.BackendFile, survey.BackendPostgres, survey.BackendSQLite, survey.BackendSheets:
	default:
		return &ConfigError{Code: ConfigErrorInvalidValue, Key: "STORAGE_BACKEND", Value: c.StorageBackend}
	}
	switch c.MailTransport {
	case "", MailTransportGmail, MailTransportSendGrid, MailTransportLog:
	default:
		return &ConfigError{Code: ConfigErrorInvalidValue, Key: "MAIL_TRANSPORT", Value: c.MailTransport}
	}
	return nil
}

func (c Config) Addr() string {
	return ":" + strings.TrimPrefix(c.Port, ":")
}
