package survey

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
)

const scenarioPayload = `{"age":28,"trainingDuration":"6 months","trainingPlan":"strength","beginnerHelp":true,"aiHelp":true,"Social":"yes","trainingChallenge":"motivation","researchInterest":true,"email":"a@x.com"}`

func TestSubmissionRecordRoundTrip(t *testing.T) {
	var sub Submission
	if err := json.Unmarshal([]byte(scenarioPayload), &sub); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	rec := sub.Record()
	rec.Stamp(time.Date(2026, 1, 2, 3, 4, 5, 0, time.FixedZone("X", 3600)))

	if rec.ID == uuid.Nil {
		t.Fatalf("expected id to be assigned")
	}
	if rec.SubmittedAt.Location() != time.UTC {
		t.Fatalf("submittedAt should be UTC, got %s", rec.SubmittedAt.Location())
	}

	raw, err := json.Marshal(rec)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var got map[string]interface{}
	if err := json.Unmarshal(raw, &got); err != nil {
		t.Fatalf("unmarshal record: %v", err)
	}
	var want map[string]interface{}
	_ = json.Unmarshal([]byte(scenarioPayload), &want)
	for k, v := range want {
		if fmt.Sprint(got[k]) != fmt.Sprint(v) {
			t.Fatalf("field %s: got=%v want=%v", k, got[k], v)
		}
	}
	if got[FieldSubmittedAt] != "2026-01-02T02:04:05Z" {
		t.Fatalf("submittedAt: got=%v", got[FieldSubmittedAt])
	}
}

func TestSubmissionTeenSocialAlias(t *testing.T) {
	var sub Submission
	if err := json.Unmarshal([]byte(`{"teenSocial":"sometimes","email":"t@x.com"}`), &sub); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	rec := sub.Record()
	if string(rec.Social) != `"sometimes"` {
		t.Fatalf("Social: got=%s", rec.Social)
	}

	sub = Submission{}
	_ = json.Unmarshal([]byte(`{"Social":"yes","teenSocial":"no"}`), &sub)
	if string(sub.Record().Social) != `"yes"` {
		t.Fatalf("Social should win over teenSocial, got=%s", sub.Record().Social)
	}
}

func TestStampKeepsExistingValues(t *testing.T) {
	id := uuid.New()
	at := time.Date(2025, 5, 5, 0, 0, 0, 0, time.UTC)
	rec := &Record{ID: id, SubmittedAt: at}
	rec.Stamp(time.Now())
	if rec.ID != id || !rec.SubmittedAt.Equal(at) {
		t.Fatalf("Stamp overwrote existing values: %+v", rec)
	}
}

func TestScalarConversions(t *testing.T) {
	cases := []struct {
		in   interface{}
		want string
	}{
		{in: true, want: "true"},
		{in: float64(28), want: "28"},
		{in: "6 months", want: `"6 months"`},
	}
	for _, tc := range cases {
		j := FromScalar(tc.in)
		if string(j) != tc.want {
			t.Fatalf("FromScalar(%v): got=%s want=%s", tc.in, j, tc.want)
		}
		if fmt.Sprint(Scalar(j)) != fmt.Sprint(tc.in) {
			t.Fatalf("Scalar(%s): got=%v", j, Scalar(j))
		}
	}
	if FromScalar(nil) != nil {
		t.Fatalf("nil should encode as null")
	}
	if string(FromScalar("")) != `""` || Scalar(FromScalar("")) != "" {
		t.Fatalf("empty string should stay a string, got=%s", FromScalar(""))
	}
	if Scalar(nil) != nil || !IsNull([]byte("null")) {
		t.Fatalf("null handling broken")
	}
}

func TestAnswerAccessors(t *testing.T) {
	rec := &Record{}
	for _, f := range AnswerFields {
		if !rec.SetAnswer(f, FromScalar(f)) {
			t.Fatalf("SetAnswer(%s) reported unknown field", f)
		}
	}
	for _, f := range AnswerFields {
		if Scalar(rec.Answer(f)) != f {
			t.Fatalf("Answer(%s): got=%v", f, Scalar(rec.Answer(f)))
		}
	}
	if rec.SetAnswer("unknown", nil) {
		t.Fatalf("SetAnswer should reject unknown fields")
	}
}

func TestStorageErrorMatchesUnavailable(t *testing.T) {
	cause := errors.New("disk full")
	err := fmt.Errorf("append: %w", Unavailable("file", "write", cause))
	if !errors.Is(err, ErrStorageUnavailable) {
		t.Fatalf("expected ErrStorageUnavailable match")
	}
	if !errors.Is(err, cause) {
		t.Fatalf("expected cause match")
	}
	if errors.Is(err, ErrDuplicateEmail) {
		t.Fatalf("unexpected duplicate match")
	}
	if Unavailable("file", "write", nil) != nil {
		t.Fatalf("nil should stay nil")
	}
	var se *StorageError
	if !errors.As(Unavailable("sheets", "read", err), &se) || se.Backend != "file" {
		t.Fatalf("re-wrapping should keep the original StorageError, got %+v", se)
	}
}
