package app

import (
	"errors"
	"testing"
	"time"

	"github.com/yungbote/survey-backend/internal/data/repos/survey"
	"github.com/yungbote/survey-backend/internal/services"
)

func TestLoadConfigDefaults(t *testing.T) {
	for _, k := range []string{
		"PORT", "STORAGE_BACKEND", "SURVEY_FILE_PATH", "SQLITE_PATH", "GOOGLE_SHEET_TITLE",
		"MAIL_TRANSPORT", "MAIL_FROM_NAME", "THANK_YOU_PROMO_CODE", "NOTIFY_TIMEOUT_SECONDS",
		"REDIS_ADDR", "REDIS_LOCK_TTL_SECONDS", "CORS_ALLOW_ORIGINS", "REDIRECT_URI",
	} {
		t.Setenv(k, "")
	}
	cfg := LoadConfig(nil)

	if cfg.Port != DefaultPort || cfg.Addr() != ":5000" {
		t.Fatalf("port: got=%q addr=%q", cfg.Port, cfg.Addr())
	}
	if cfg.StorageBackend != survey.BackendFile || cfg.SurveyFilePath != DefaultSurveyFilePath {
		t.Fatalf("storage defaults: %+v", cfg)
	}
	if cfg.Sheets.Title != survey.DefaultSheetTitle {
		t.Fatalf("sheet title: got=%q", cfg.Sheets.Title)
	}
	if cfg.Notifier.FromName != services.DefaultFromName || cfg.Notifier.PromoCode != services.DefaultPromoCode {
		t.Fatalf("notifier defaults: %+v", cfg.Notifier)
	}
	if cfg.Notifier.Timeout != DefaultNotifyTimeout || cfg.RedisLockTTL != DefaultRedisLockTTL {
		t.Fatalf("durations: notify=%s lock=%s", cfg.Notifier.Timeout, cfg.RedisLockTTL)
	}
	if cfg.CORSOrigins != nil {
		t.Fatalf("cors origins should default to any, got %v", cfg.CORSOrigins)
	}
	if cfg.GoogleAuth.RedirectURL != "https://developers.google.com/oauthplayground" {
		t.Fatalf("redirect: got=%q", cfg.GoogleAuth.RedirectURL)
	}
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("PORT", "8080")
	t.Setenv("STORAGE_BACKEND", "SQLite")
	t.Setenv("NOTIFY_TIMEOUT_SECONDS", "0")
	t.Setenv("CORS_ALLOW_ORIGINS", "http://localhost:5173, https://survey.example.com")
	t.Setenv("THANK_YOU_PROMO_CODE", "SPRING5")

	cfg := LoadConfig(nil)
	if cfg.Addr() != ":8080" || cfg.StorageBackend != survey.BackendSQLite {
		t.Fatalf("unexpected config: %+v", cfg)
	}
	if cfg.Notifier.Timeout != 0*time.Second || cfg.Notifier.PromoCode != "SPRING5" {
		t.Fatalf("notifier: %+v", cfg.Notifier)
	}
	if len(cfg.CORSOrigins) != 2 || cfg.CORSOrigins[1] != "https://survey.example.com" {
		t.Fatalf("cors: %v", cfg.CORSOrigins)
	}
}

func TestConfigValidate(t *testing.T) {
	cases := []struct {
		name string
		cfg  Config
		key  string
	}{
		{name: "ok", cfg: Config{StorageBackend: survey.BackendFile}},
		{name: "bad backend", cfg: Config{StorageBackend: "mongo"}, key: "STORAGE_BACKEND"},
		{name: "bad transport", cfg: Config{StorageBackend: survey.BackendFile, MailTransport: "smtp"}, key: "MAIL_TRANSPORT"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.cfg.Validate()
			if tc.key == "" {
				if err != nil {
					t.Fatalf("Validate: %v", err)
				}
				return
			}
			var ce *ConfigError
			if !errors.As(err, &ce) || ce.Key != tc.key || ce.Code != ConfigErrorInvalidValue {
				t.Fatalf("expected ConfigError for %s, got %v", tc.key, err)
			}
		})
	}
}
