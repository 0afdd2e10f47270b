package observability

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestNilMetricsAreNoOps(t *testing.T) {
	var m *Metrics
	m.ObserveAPI("POST", "/submit", 200, time.Millisecond)
	m.IncSubmission(OutcomeStored)
	m.ObserveNotification("gmail", OutcomeSent, time.Millisecond)
	m.APIInflightInc()
	m.APIInflightDec()
	if m.SubmissionCount(OutcomeStored) != 0 {
		t.Fatalf("nil metrics should report zero")
	}

	rec := httptest.NewRecorder()
	m.WriteHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status: got=%d", rec.Code)
	}
}

func TestWritePrometheus(t *testing.T) {
	m := New()
	m.ObserveAPI("POST", "/api/survey/submit", 200, 30*time.Millisecond)
	m.IncSubmission(OutcomeStored)
	m.IncSubmission(OutcomeDuplicate)
	m.IncSubmission(OutcomeDuplicate)
	m.ObserveNotification("gmail", OutcomeFailed, 2*time.Second)

	if got := m.SubmissionCount(OutcomeDuplicate); got != 2 {
		t.Fatalf("duplicate count: got=%v", got)
	}
	if got := m.NotificationCount("gmail", OutcomeFailed); got != 1 {
		t.Fatalf("notification count: got=%v", got)
	}

	var buf bytes.Buffer
	if err := m.WritePrometheus(&buf); err != nil {
		t.Fatalf("WritePrometheus: %v", err)
	}
	out := buf.String()
	for _, want := range []string{
		`survey_api_requests_total{method="POST",route="/api/survey/submit",status="200"} 1`,
		`survey_submissions_total{outcome="duplicate"} 2`,
		`survey_notifications_total{mailer="gmail",outcome="failed"} 1`,
		`survey_notification_duration_seconds_bucket{mailer="gmail",le="2"} 1`,
		`survey_notification_duration_seconds_bucket{mailer="gmail",le="1"} 0`,
		`survey_api_request_duration_seconds_bucket{method="POST",route="/api/survey/submit",le="+Inf"} 1`,
		"# TYPE survey_api_inflight_requests gauge",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q in output:\n%s", want, out)
		}
	}
}

func TestLabelString(t *testing.T) {
	if got := labelString([]string{"a", "b"}, []string{`x"y`}); got != `{a="x\"y",b="unknown"}` {
		t.Fatalf("labelString: got=%s", got)
	}
	if got := withLe("", "0.5"); got != `{le="0.5"}` {
		t.Fatalf("withLe: got=%s", got)
	}
}
