package errors

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPErrorAdapter_StatusCodeFor(t *testing.T) {
	a := NewHTTPErrorAdapter(slog.New(slog.NewTextHandler(io.Discard, nil)))

	cases := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, http.StatusOK},
		{"plain", fmt.Errorf("boom"), http.StatusInternalServerError},
		{"validation", ValidationError("bad sha").Build(), http.StatusBadRequest},
		{"auth", NewError(CategoryAuth, "denied").Build(), http.StatusUnauthorized},
		{"not found", NotFoundError("missing").Build(), http.StatusNotFound},
		{"materialization", MaterializationError("clone").Build(), http.StatusBadGateway},
		{"external", ExternalError("wiki").Build(), http.StatusBadGateway},
		{"sanitization", SanitizationError("too big").Build(), http.StatusUnprocessableEntity},
		{"rendering", RenderingError("rg").Build(), http.StatusUnprocessableEntity},
		{"runtime", RuntimeError("queue closed").Build(), http.StatusServiceUnavailable},
		{"storage", StorageError("db").Build(), http.StatusInternalServerError},
		{"config", ConfigError("ignore file").Build(), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, a.StatusCodeFor(tc.err))
		})
	}
}

func TestHTTPErrorAdapter_WriteErrorResponse(t *testing.T) {
	a := NewHTTPErrorAdapter(slog.New(slog.NewTextHandler(io.Discard, nil)))
	req := httptest.NewRequest(http.MethodPost, "/repositories", nil)
	rec := httptest.NewRecorder()

	err := SanitizationError("file exceeds size limit").
		WithContext("path", "big.bin").
		Build()
	a.WriteErrorResponse(rec, req, fmt.Errorf("generate docs: %w", err))

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body HTTPErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "file exceeds size limit", body.Error)
	assert.Equal(t, "sanitization", body.Code)
	assert.Equal(t, "big.bin", body.Details["path"])
	assert.False(t, body.Retryable)
}

func TestHTTPErrorAdapter_FormatRetryable(t *testing.T) {
	a := NewHTTPErrorAdapter(nil)
	resp := a.FormatErrorResponse(ExternalError("mailer unavailable").Build())
	assert.True(t, resp.Retryable)
	assert.Equal(t, "external", resp.Code)

	plain := a.FormatErrorResponse(fmt.Errorf("raw"))
	assert.Equal(t, "raw", plain.Error)
	assert.Empty(t, plain.Code)
}
