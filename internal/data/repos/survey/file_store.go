package survey

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	types "github.com/yungbote/survey-backend/internal/domain/survey"
	"github.com/yungbote/survey-backend/internal/platform/logger"
)

const fileStoreMaxAttempts = 5

type fileStore struct {
	blob   Blob
	locker Locker
	mu     sync.Mutex
	now    func() time.Time
	log    *logger.Logger
}

// NewFileStore keeps every record in one JSON array held by blob. Appends are
// serialised in-process and through locker, and retried when the blob version moves.
func NewFileStore(blob Blob, locker Locker, baseLog *logger.Logger) Store {
	if locker == nil {
		locker = NewLocalLocker()
	}
	return &fileStore{
		blob:   blob,
		locker: locker,
		now:    time.Now,
		log:    baseLog.With("repo", "SurveyFileStore", "blob", blob.Name()),
	}
}

func (s *fileStore) load(ctx context.Context) ([]*types.Record, int64, error) {
	data, version, err := s.blob.Read(ctx)
	if err != nil {
		return nil, 0, types.Unavailable(BackendFile, "read", err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, version, nil
	}
	var records []*types.Record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, 0, types.Unavailable(BackendFile, "decode", fmt.Errorf("%s: %w", s.blob.Name(), err))
	}
	return records, version, nil
}

func find(records []*types.Record, email string) *types.Record {
	for _, r := range records {
		if r != nil && r.Email == email {
			return r
		}
	}
	return nil
}

func (s *fileStore) Exists(ctx context.Context, email string) (bool, error) {
	records, _, err := s.load(ctx)
	if err != nil {
		return false, err
	}
	return find(records, email) != nil, nil
}

func (s *fileStore) Get(ctx context.Context, email string) (*types.Record, error) {
	records, _, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	if r := find(records, email); r != nil {
		return r, nil
	}
	return nil, types.ErrNotFound
}

func (s *fileStore) Append(ctx context.Context, rec *types.Record) (*types.Record, error) {
	if rec == nil || strings.TrimSpace(rec.Email) == "" {
		return nil, types.ErrEmailRequired
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	unlock, err := s.locker.Lock(ctx, "file:"+s.blob.Name())
	if err != nil {
		return nil, types.Unavailable(BackendFile, "lock", err)
	}
	defer unlock()

	out := *rec
	out.Stamp(s.now())

	for attempt := 1; attempt <= fileStoreMaxAttempts; attempt++ {
		records, version, err := s.load(ctx)
		if err != nil {
			return nil, err
		}
		if find(records, out.Email) != nil {
			return nil, types.ErrDuplicateEmail
		}

		data, err := json.MarshalIndent(append(records, &out), "", "  ")
		if err != nil {
			return nil, types.Unavailable(BackendFile, "encode", err)
		}
		err = s.blob.Write(ctx, data, version)
		if errors.Is(err, ErrBlobConflict) {
			s.log.Warn("Survey blob changed during append, retrying", "attempt", attempt)
			continue
		}
		if err != nil {
			return nil, types.Unavailable(BackendFile, "write", err)
		}
		return &out, nil
	}
	return nil, types.Unavailable(BackendFile, "write", fmt.Errorf("gave up after %d attempts: %w", fileStoreMaxAttempts, ErrBlobConflict))
}

func (s *fileStore) Close() error { return s.blob.Close() }
