package observability

import (
	"context"
	"testing"
)

func TestOtelSampleRatio(t *testing.T) {
	cases := map[string]float64{
		"":     0.1,
		"abc":  0.1,
		"-1":   0,
		"2":    1,
		"0.25": 0.25,
	}
	for in, want := range cases {
		t.Setenv("OTEL_SAMPLER_RATIO", in)
		if got := otelSampleRatio(); got != want {
			t.Fatalf("ratio(%q): got=%v want=%v", in, got, want)
		}
	}
}

func TestOtelHeaders(t *testing.T) {
	t.Setenv("OTEL_EXPORTER_OTLP_HEADERS", "authorization=Bearer x, bad, =v,team=survey")
	got := otelHeaders()
	if len(got) != 2 || got["authorization"] != "Bearer x" || got["team"] != "survey" {
		t.Fatalf("headers: got=%v", got)
	}

	t.Setenv("OTEL_EXPORTER_OTLP_HEADERS", "")
	if otelHeaders() != nil {
		t.Fatalf("expected nil headers when unset")
	}
}

func TestInitOTelDisabledReturnsNoopShutdown(t *testing.T) {
	t.Setenv("OTEL_ENABLED", "false")
	shutdown := InitOTel(context.Background(), nil, OtelConfig{})
	if shutdown == nil {
		t.Fatalf("expected non-nil shutdown")
	}
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
}
