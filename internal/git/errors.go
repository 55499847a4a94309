package git

import (
	"strings"

	"github.com/INF-UCT/code-lens/internal/foundation/errors"
)

// Failure kinds recorded under the "reason" context key.
const (
	ReasonAuth        = "auth"
	ReasonNotFound    = "not_found"
	ReasonProtocol    = "unsupported_protocol"
	ReasonNetwork     = "network"
	ReasonFilesystem  = "filesystem"
	ReasonBadRevision = "bad_revision"
)

// ClassifyGitError translates go-git errors into materialization errors,
// recording a coarse failure reason as context.
func ClassifyGitError(err error, op, url string) error {
	if err == nil {
		return nil
	}
	if _, ok := errors.AsClassified(err); ok {
		return err
	}

	l := strings.ToLower(err.Error())
	builder := errors.MaterializationError(op+" failed").WithCause(err).
		WithContext("op", op).
		WithContext("url", url)

	switch {
	case strings.Contains(l, "authentication") || strings.Contains(l, "authorization") ||
		strings.Contains(l, "invalid username or password") || strings.Contains(l, "could not read username"):
		builder.WithContext("reason", ReasonAuth).UserAction()
	case strings.Contains(l, "repository not found") || strings.Contains(l, "repository does not exist") ||
		strings.Contains(l, "couldn't find remote ref") || strings.Contains(l, "reference not found"):
		builder.WithContext("reason", ReasonNotFound)
	case strings.Contains(l, "unsupported protocol") || strings.Contains(l, "protocol not supported"):
		builder.WithContext("reason", ReasonProtocol).UserAction()
	case strings.Contains(l, "timeout") || strings.Contains(l, "connection reset") ||
		strings.Contains(l, "connection refused") || strings.Contains(l, "no such host") ||
		strings.Contains(l, "remote hung up"):
		builder.WithContext("reason", ReasonNetwork).Retryable()
	}
	return builder.Build()
}

// Reason returns the failure reason recorded by ClassifyGitError, if any.
func Reason(err error) string {
	c, ok := errors.AsClassified(err)
	if !ok {
		return ""
	}
	r, _ := c.Context().GetString("reason")
	return r
}
