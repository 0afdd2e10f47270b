package survey

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/yungbote/survey-backend/internal/platform/gcp"
)

// ErrBlobConflict reports that the blob changed between Read and Write.
var ErrBlobConflict = errors.New("blob modified concurrently")

// Blob holds the whole survey document. Version 0 means the blob does not exist;
// Write must fail with ErrBlobConflict when the stored version no longer matches.
type Blob interface {
	Read(ctx context.Context) (data []byte, version int64, err error)
	Write(ctx context.Context, data []byte, version int64) error
	Name() string
	Close() error
}

type localBlob struct {
	path string
}

// NewLocalBlob stores the document at path. The parent directory must exist.
func NewLocalBlob(path string) Blob {
	return &localBlob{path: filepath.Clean(path)}
}

func (b *localBlob) Name() string { return b.path }

func (b *localBlob) Read(ctx context.Context) ([]byte, int64, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}
	data, err := os.ReadFile(b.path)
	if errors.Is(err, fs.ErrNotExist) {
		if _, dirErr := os.Stat(filepath.Dir(b.path)); dirErr != nil {
			return nil, 0, fmt.Errorf("survey directory: %w", dirErr)
		}
		return nil, 0, nil
	}
	if err != nil {
		return nil, 0, err
	}
	version, err := b.version()
	if err != nil {
		return nil, 0, err
	}
	return data, version, nil
}

func (b *localBlob) version() (int64, error) {
	info, err := os.Stat(b.path)
	if errors.Is(err, fs.ErrNotExist) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	// Guarantee a non-zero version for an existing file.
	return info.ModTime().UnixNano() ^ info.Size() | 1, nil
}

// Write replaces the file through a temp file and rename so readers never see
// a partial document.
func (b *localBlob) Write(ctx context.Context, data []byte, version int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(b.path), "."+filepath.Base(b.path)+"-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	current, err := b.version()
	if err != nil {
		return err
	}
	if current != version {
		return ErrBlobConflict
	}
	return os.Rename(tmpName, b.path)
}

func (b *localBlob) Close() error { return nil }

type objectBlob struct {
	obj  gcp.Object
	name string
}

// NewObjectBlob stores the document in a GCS object; versions are object generations.
func NewObjectBlob(obj gcp.Object, name string) Blob {
	return &objectBlob{obj: obj, name: name}
}

func (b *objectBlob) Name() string { return b.name }

func (b *objectBlob) Read(ctx context.Context) ([]byte, int64, error) {
	return b.obj.Read(ctx)
}

func (b *objectBlob) Write(ctx context.Context, data []byte, version int64) error {
	err := b.obj.Write(ctx, data, version)
	if errors.Is(err, gcp.ErrPreconditionFailed) {
		return ErrBlobConflict
	}
	return err
}

func (b *objectBlob) Close() error { return b.obj.Close() }
