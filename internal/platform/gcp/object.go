package gcp

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"cloud.google.com/go/storage"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/yungbote/survey-backend/internal/platform/logger"
)

// ErrPreconditionFailed is returned when the object's generation moved since it was read.
var ErrPreconditionFailed = errors.New("object generation precondition failed")

// Object reads and conditionally rewrites one GCS object. Generation 0 means
// the object does not exist.
type Object interface {
	Read(ctx context.Context) (data []byte, generation int64, err error)
	Write(ctx context.Context, data []byte, ifGeneration int64) error
	Close() error
}

type object struct {
	client *storage.Client
	handle *storage.ObjectHandle
	name   string
	log    *logger.Logger
}

func NewObject(ctx context.Context, log *logger.Logger, cfg ObjectStorageConfig, extra ...option.ClientOption) (Object, error) {
	if err := ValidateObjectStorageConfig(cfg); err != nil {
		return nil, fmt.Errorf("validate object storage config: %w", err)
	}
	client, err := newStorageClientForMode(ctx, cfg, extra...)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}

	name := fmt.Sprintf("gs://%s/%s", cfg.Bucket, cfg.Object)
	serviceLog := log.With("service", "ObjectStore", "object", name)
	serviceLog.Info("Object storage initialized", "mode", cfg.Mode, "emulator_host", cfg.EmulatorHost)

	return &object{
		client: client,
		handle: client.Bucket(cfg.Bucket).Object(cfg.Object),
		name:   name,
		log:    serviceLog,
	}, nil
}

func newStorageClientForMode(ctx context.Context, cfg ObjectStorageConfig, extra ...option.ClientOption) (*storage.Client, error) {
	switch cfg.Mode {
	case ObjectStorageModeGCS:
		opts := ClientOptionsFromEnv()
		opts = append(opts, option.WithScopes(storage.ScopeReadWrite))
		opts = append(opts, extra...)
		return storage.NewClient(ctx, opts...)
	case ObjectStorageModeGCSEmulator:
		_ = os.Setenv("STORAGE_EMULATOR_HOST", strings.TrimRight(strings.TrimSpace(cfg.EmulatorHost), "/"))
		opts := append([]option.ClientOption{option.WithoutAuthentication()}, extra...)
		return storage.NewClient(ctx, opts...)
	default:
		return nil, &ObjectStorageConfigError{Code: ObjectStorageConfigErrorInvalidMode, Mode: string(cfg.Mode)}
	}
}

func (o *object) Read(ctx context.Context) ([]byte, int64, error) {
	r, err := o.handle.NewReader(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return nil, 0, nil
	}
	if err != nil {
		return nil, 0, fmt.Errorf("open %s: %w", o.name, err)
	}
	defer r.Close()

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, 0, fmt.Errorf("read %s: %w", o.name, err)
	}
	return data, r.Attrs.Generation, nil
}

func (o *object) Write(ctx context.Context, data []byte, ifGeneration int64) error {
	cond := storage.Conditions{GenerationMatch: ifGeneration}
	if ifGeneration == 0 {
		cond = storage.Conditions{DoesNotExist: true}
	}

	w := o.handle.If(cond).NewWriter(ctx)
	w.ContentType = "application/json"
	if _, err := io.Copy(w, bytes.NewReader(data)); err != nil {
		_ = w.Close()
		return classifyWriteError(o.name, err)
	}
	if err := w.Close(); err != nil {
		return classifyWriteError(o.name, err)
	}
	o.log.Debug("Object written", "generation", w.Attrs().Generation, "bytes", len(data))
	return nil
}

func (o *object) Close() error { return o.client.Close() }

func classifyWriteError(name string, err error) error {
	if IsPreconditionFailed(err) {
		return fmt.Errorf("write %s: %w", name, ErrPreconditionFailed)
	}
	return fmt.Errorf("write %s: %w", name, err)
}

func IsPreconditionFailed(err error) bool {
	var apiErr *googleapi.Error
	return errors.As(err, &apiErr) && apiErr.Code == http.StatusPreconditionFailed
}
