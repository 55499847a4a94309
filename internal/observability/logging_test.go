package observability

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
)

func TestWithRepoID(t *testing.T) {
	ctx := WithRepoID(context.Background(), "repo-123")

	lc := GetContext(ctx)
	if lc.RepoID != "repo-123" {
		t.Errorf("expected repo-123, got %s", lc.RepoID)
	}
}

func TestWithStage(t *testing.T) {
	ctx := WithStage(context.Background(), "materialize")

	lc := GetContext(ctx)
	if lc.Stage != "materialize" {
		t.Errorf("expected materialize, got %s", lc.Stage)
	}
}

func TestMultipleContextValues(t *testing.T) {
	ctx := context.Background()
	ctx = WithRepoID(ctx, "repo-1")
	ctx = WithRepoName(ctx, "acme-docs")
	ctx = WithStage(ctx, "sanitize")
	ctx = WithRequestID(ctx, "req-1")
	ctx = WithEvent(ctx, "notification_requested")

	lc := GetContext(ctx)
	if lc.RepoID != "repo-1" || lc.RepoName != "acme-docs" || lc.Stage != "sanitize" ||
		lc.RequestID != "req-1" || lc.Event != "notification_requested" {
		t.Errorf("unexpected context: %+v", lc)
	}
}

func TestOverwriteContextValue(t *testing.T) {
	ctx := WithStage(context.Background(), "materialize")
	ctx = WithStage(ctx, "render")

	if got := GetContext(ctx).Stage; got != "render" {
		t.Errorf("expected render, got %s", got)
	}
}

func TestEmptyContext(t *testing.T) {
	lc := GetContext(context.Background())
	if lc != (LogContext{}) {
		t.Error("expected empty context")
	}
	if len(getLogAttrs(context.Background())) != 0 {
		t.Error("expected no attributes for empty context")
	}
}

func TestContextIsolation(t *testing.T) {
	base := WithRepoID(context.Background(), "repo-1")
	a := WithStage(base, "materialize")
	b := WithStage(base, "render")

	if GetContext(a).Stage != "materialize" || GetContext(b).Stage != "render" {
		t.Error("derived contexts leaked into each other")
	}
	if GetContext(base).Stage != "" {
		t.Error("base context modified")
	}
}

func TestInfoContext(t *testing.T) {
	var buf bytes.Buffer
	slog.SetDefault(slog.New(slog.NewJSONHandler(&buf, nil)))

	ctx := WithRepoID(context.Background(), "repo-9")
	ctx = WithStage(ctx, "render")
	InfoContext(ctx, "tree rendered", slog.Int("entries", 12))

	output := buf.String()
	for _, want := range []string{"repo-9", "render", "tree rendered", "\"entries\":12"} {
		if !strings.Contains(output, want) {
			t.Errorf("expected %q in log output: %s", want, output)
		}
	}
}

func TestWarnAndErrorContext(t *testing.T) {
	var buf bytes.Buffer
	slog.SetDefault(slog.New(slog.NewJSONHandler(&buf, nil)))

	ctx := WithEvent(context.Background(), "docs_generation_requested")
	WarnContext(ctx, "event dropped")
	ErrorContext(ctx, "handler failed", slog.String("error", "smtp down"))

	output := buf.String()
	if !strings.Contains(output, "\"level\":\"WARN\"") || !strings.Contains(output, "\"level\":\"ERROR\"") {
		t.Errorf("expected warn and error records: %s", output)
	}
	if strings.Count(output, "docs_generation_requested") != 2 {
		t.Errorf("expected event attribute on both records: %s", output)
	}
}

func TestDebugContextRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	slog.SetDefault(slog.New(slog.NewJSONHandler(&buf, nil)))

	DebugContext(context.Background(), "hidden")
	if buf.Len() != 0 {
		t.Errorf("expected debug to be filtered at info level, got %s", buf.String())
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"WARN":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"bogus":   slog.LevelInfo,
	}
	for in, want := range cases {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	NewLogger(&buf, "info", "json").Info("hello")
	if !strings.HasPrefix(buf.String(), "{") {
		t.Errorf("expected JSON output, got %s", buf.String())
	}

	buf.Reset()
	NewLogger(&buf, "info", "text").Info("hello")
	if !strings.Contains(buf.String(), "msg=hello") {
		t.Errorf("expected text output, got %s", buf.String())
	}
}
