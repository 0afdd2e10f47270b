package app

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"google.golang.org/api/option"

	"github.com/yungbote/survey-backend/internal/data/repos/survey"
	types "github.com/yungbote/survey-backend/internal/domain/survey"
	"github.com/yungbote/survey-backend/internal/platform/gcp"
	"github.com/yungbote/survey-backend/internal/platform/logger"
)

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("logger.New: %v", err)
	}
	return log
}

func bootstrapCode(t *testing.T, err error) StorageProviderBootstrapErrorCode {
	t.Helper()
	var got *StorageProviderBootstrapError
	if !errors.As(err, &got) {
		t.Fatalf("expected StorageProviderBootstrapError, got=%T (%v)", err, err)
	}
	return got.Code
}

func TestClassifyStorageProviderBootstrapError(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want StorageProviderBootstrapErrorCode
	}{
		{name: "invalid mode", err: &gcp.ObjectStorageConfigError{Code: gcp.ObjectStorageConfigErrorInvalidMode}, want: StorageProviderBootstrapErrorInvalidMode},
		{name: "missing bucket", err: &gcp.ObjectStorageConfigError{Code: gcp.ObjectStorageConfigErrorMissingBucket}, want: StorageProviderBootstrapErrorMissingBucket},
		{name: "missing emulator host", err: &gcp.ObjectStorageConfigError{Code: gcp.ObjectStorageConfigErrorMissingEmulatorHost}, want: StorageProviderBootstrapErrorMissingEmulatorHost},
		{name: "invalid emulator host", err: &gcp.ObjectStorageConfigError{Code: gcp.ObjectStorageConfigErrorInvalidEmulatorHost}, want: StorageProviderBootstrapErrorInvalidEmulatorHost},
		{name: "connect failed", err: errors.New("dial tcp: connection refused"), want: StorageProviderBootstrapErrorConnectFailed},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := classifyStorageProviderBootstrapError(nil, survey.BackendFile, tc.err)
			if got := bootstrapCode(t, err); got != tc.want {
				t.Fatalf("code: want=%q got=%q", tc.want, got)
			}
			if !errors.Is(err, tc.err) {
				t.Fatalf("cause should be reachable")
			}
		})
	}
}

func TestResolveStorageLocalFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "surveys.json")
	p, err := resolveStorage(context.Background(), testLogger(t), Config{StorageBackend: survey.BackendFile, SurveyFilePath: path})
	if err != nil {
		t.Fatalf("resolveStorage: %v", err)
	}
	defer p.Close()

	if _, err := p.Store.Append(context.Background(), &types.Record{Email: "a@x.com"}); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if ok, _ := p.Store.Exists(context.Background(), "a@x.com"); !ok {
		t.Fatalf("expected stored record")
	}
	if p.DB != nil || p.Redis != nil {
		t.Fatalf("file backend should not open db or redis")
	}
}

func TestResolveStorageFileDirectoryCannotBeCreated(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "not-a-dir")
	if err := os.WriteFile(blocker, []byte("x"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	cfg := Config{StorageBackend: survey.BackendFile, SurveyFilePath: filepath.Join(blocker, "data", "surveys.json")}
	_, err := resolveStorage(context.Background(), testLogger(t), cfg)
	if got := bootstrapCode(t, err); got != StorageProviderBootstrapErrorPrepareFailed {
		t.Fatalf("code: want=%q got=%q", StorageProviderBootstrapErrorPrepareFailed, got)
	}
}

func TestResolveStorageSQLite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "surveys.db")
	p, err := resolveStorage(context.Background(), testLogger(t), Config{StorageBackend: survey.BackendSQLite, SQLitePath: path})
	if err != nil {
		t.Fatalf("resolveStorage: %v", err)
	}
	defer p.Close()

	if p.DB == nil {
		t.Fatalf("expected db handle")
	}
	if _, err := p.Store.Append(context.Background(), &types.Record{Email: "a@x.com"}); err != nil {
		t.Fatalf("Append: %v", err)
	}
	_, err = p.Store.Append(context.Background(), &types.Record{Email: "a@x.com"})
	if !errors.Is(err, types.ErrDuplicateEmail) {
		t.Fatalf("expected duplicate, got %v", err)
	}
}

func TestResolveStorageErrors(t *testing.T) {
	cases := []struct {
		name string
		cfg  Config
		want StorageProviderBootstrapErrorCode
	}{
		{name: "unknown backend", cfg: Config{StorageBackend: "mongo"}, want: StorageProviderBootstrapErrorInvalidBackend},
		{name: "sheets without id", cfg: Config{StorageBackend: survey.BackendSheets}, want: StorageProviderBootstrapErrorMissingSheetID},
		{name: "postgres without dsn", cfg: Config{StorageBackend: survey.BackendPostgres}, want: StorageProviderBootstrapErrorConnectFailed},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := resolveStorage(context.Background(), testLogger(t), tc.cfg)
			if got := bootstrapCode(t, err); got != tc.want {
				t.Fatalf("code: want=%q got=%q", tc.want, got)
			}
		})
	}
}

func TestResolveStorageBucketConfigErrors(t *testing.T) {
	cases := []struct {
		name string
		env  map[string]string
		want StorageProviderBootstrapErrorCode
	}{
		{name: "invalid mode", env: map[string]string{"OBJECT_STORAGE_MODE": "s3"}, want: StorageProviderBootstrapErrorInvalidMode},
		{name: "missing emulator host", env: map[string]string{"OBJECT_STORAGE_MODE": "gcs_emulator"}, want: StorageProviderBootstrapErrorMissingEmulatorHost},
		{name: "invalid emulator host", env: map[string]string{"STORAGE_EMULATOR_HOST": "fake-gcs:4443"}, want: StorageProviderBootstrapErrorInvalidEmulatorHost},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Setenv("SURVEY_FILE_BUCKET", "surveys")
			t.Setenv("OBJECT_STORAGE_MODE", "")
			t.Setenv("STORAGE_EMULATOR_HOST", "")
			for k, v := range tc.env {
				t.Setenv(k, v)
			}
			_, err := resolveStorage(context.Background(), testLogger(t), Config{StorageBackend: survey.BackendFile, SurveyFileBucket: "surveys"})
			if got := bootstrapCode(t, err); got != tc.want {
				t.Fatalf("code: want=%q got=%q", tc.want, got)
			}
		})
	}
}

type stubObject struct{}

func (stubObject) Read(context.Context) ([]byte, int64, error) { return nil, 0, nil }
func (stubObject) Write(context.Context, []byte, int64) error  { return nil }
func (stubObject) Close() error                                { return nil }

func TestResolveStorageBucketUsesObjectBlob(t *testing.T) {
	t.Setenv("SURVEY_FILE_BUCKET", "surveys")
	t.Setenv("SURVEY_FILE_OBJECT", "responses.json")
	t.Setenv("OBJECT_STORAGE_MODE", "")
	t.Setenv("STORAGE_EMULATOR_HOST", "")

	var gotCfg gcp.ObjectStorageConfig
	orig := newObject
	newObject = func(_ context.Context, _ *logger.Logger, cfg gcp.ObjectStorageConfig, _ ...option.ClientOption) (gcp.Object, error) {
		gotCfg = cfg
		return stubObject{}, nil
	}
	t.Cleanup(func() { newObject = orig })

	p, err := resolveStorage(context.Background(), testLogger(t), Config{StorageBackend: survey.BackendFile, SurveyFileBucket: "surveys"})
	if err != nil {
		t.Fatalf("resolveStorage: %v", err)
	}
	defer p.Close()
	if gotCfg.Bucket != "surveys" || gotCfg.Object != "responses.json" || gotCfg.Mode != gcp.ObjectStorageModeGCS {
		t.Fatalf("unexpected object config: %+v", gotCfg)
	}
	if _, err := p.Store.Append(context.Background(), &types.Record{Email: "a@x.com"}); err != nil {
		t.Fatalf("Append through object blob: %v", err)
	}
}

func TestResolveStorageBucketConnectFailure(t *testing.T) {
	t.Setenv("SURVEY_FILE_BUCKET", "surveys")
	t.Setenv("OBJECT_STORAGE_MODE", "")
	t.Setenv("STORAGE_EMULATOR_HOST", "")

	orig := newObject
	newObject = func(context.Context, *logger.Logger, gcp.ObjectStorageConfig, ...option.ClientOption) (gcp.Object, error) {
		return nil, errors.New("dial tcp: connection refused")
	}
	t.Cleanup(func() { newObject = orig })

	_, err := resolveStorage(context.Background(), testLogger(t), Config{StorageBackend: survey.BackendFile, SurveyFileBucket: "surveys"})
	if got := bootstrapCode(t, err); got != StorageProviderBootstrapErrorConnectFailed {
		t.Fatalf("code: got=%q", got)
	}
}

func TestResolveLockerRedisUnreachable(t *testing.T) {
	_, _, err := resolveLocker(context.Background(), testLogger(t), Config{StorageBackend: survey.BackendFile, RedisAddr: "127.0.0.1:1"})
	if got := bootstrapCode(t, err); got != StorageProviderBootstrapErrorConnectFailed {
		t.Fatalf("code: got=%q", got)
	}
}
