package survey

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/yungbote/survey-backend/internal/data/repos/testutil"
	types "github.com/yungbote/survey-backend/internal/domain/survey"
)

// runStoreContract checks the behaviour every Store implementation shares.
func runStoreContract(t *testing.T, store Store) {
	t.Helper()
	ctx := context.Background()

	exists, err := store.Exists(ctx, "a@x.com")
	if err != nil {
		t.Fatalf("Exists: %v", err)
	}
	if exists {
		t.Fatalf("Exists: expected false for empty store")
	}

	stored, err := store.Append(ctx, testutil.SurveyRecord("a@x.com"))
	if err != nil {
		t.Fatalf("Append: %v", err)
	}
	if stored.SubmittedAt.IsZero() {
		t.Fatalf("Append: submittedAt not assigned")
	}

	exists, err = store.Exists(ctx, "a@x.com")
	if err != nil || !exists {
		t.Fatalf("Exists after append: exists=%v err=%v", exists, err)
	}
	if exists, _ := store.Exists(ctx, "A@x.com"); exists {
		t.Fatalf("Exists should be case-sensitive")
	}

	got, err := store.Get(ctx, "a@x.com")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	want := testutil.SurveyRecord("a@x.com")
	for _, f := range types.AnswerFields {
		if fmt.Sprint(types.Scalar(got.Answer(f))) != fmt.Sprint(types.Scalar(want.Answer(f))) {
			t.Fatalf("Get %s: got=%s want=%s", f, got.Answer(f), want.Answer(f))
		}
	}
	if !got.SubmittedAt.Equal(stored.SubmittedAt) {
		t.Fatalf("Get submittedAt: got=%s want=%s", got.SubmittedAt, stored.SubmittedAt)
	}

	if _, err := store.Append(ctx, testutil.SurveyRecord("a@x.com")); !errors.Is(err, types.ErrDuplicateEmail) {
		t.Fatalf("second Append: expected ErrDuplicateEmail, got %v", err)
	}
	if _, err := store.Get(ctx, "missing@x.com"); !errors.Is(err, types.ErrNotFound) {
		t.Fatalf("Get missing: expected ErrNotFound, got %v", err)
	}
	if _, err := store.Append(ctx, testutil.SurveyRecord("")); !errors.Is(err, types.ErrEmailRequired) {
		t.Fatalf("Append without email: expected ErrEmailRequired, got %v", err)
	}
}

// runConcurrentAppend races several appends for one email; exactly one may win.
func runConcurrentAppend(t *testing.T, store Store) {
	t.Helper()
	ctx := context.Background()

	var ok, dup atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 6; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := store.Append(ctx, testutil.SurveyRecord("race@x.com"))
			switch {
			case err == nil:
				ok.Add(1)
			case errors.Is(err, types.ErrDuplicateEmail):
				dup.Add(1)
			default:
				t.Errorf("Append: unexpected error %v", err)
			}
		}()
	}
	wg.Wait()
	if ok.Load() != 1 || dup.Load() != 5 {
		t.Fatalf("expected 1 success and 5 duplicates, got %d/%d", ok.Load(), dup.Load())
	}
}
