// Package wiki is the HTTP client for the external documentation service.
package wiki

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"path"
	"strings"

	"github.com/google/uuid"

	"github.com/INF-UCT/code-lens/internal/config"
	"github.com/INF-UCT/code-lens/internal/foundation/errors"
	"github.com/INF-UCT/code-lens/internal/logfields"
	"github.com/INF-UCT/code-lens/internal/retry"
)

const docsGenPath = "/docs-gen"

// DocsRequest is the body posted to the documentation service.
type DocsRequest struct {
	RepoID   uuid.UUID `json:"repo_id"`
	RepoPath string    `json:"repo_path"`
	// FileTree repeats FlatTree for services that only read the single-tree field.
	FileTree      string `json:"file_tree,omitempty"`
	FlatTree      string `json:"flat_tree,omitempty"`
	HierarchyTree string `json:"hierarchy_tree,omitempty"`
}

// Client posts documentation generation requests.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	retry      retry.Policy
}

// NewClient creates a Client from the wiki configuration.
func NewClient(cfg config.WikiConfig) *Client {
	return &Client{
		baseURL:    cfg.ServiceURL,
		apiKey:     cfg.APIKey,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		retry:      retry.FromConfig(cfg.Retry),
	}
}

// WithHTTPClient replaces the underlying HTTP client (fluent helper).
func (c *Client) WithHTTPClient(hc *http.Client) *Client { c.httpClient = hc; return c }

// RequestDocs asks the service to generate documentation for a clone.
// Transport failures and 5xx responses are retried per the configured policy.
func (c *Client) RequestDocs(ctx context.Context, req DocsRequest) error {
	if req.FileTree == "" {
		req.FileTree = req.FlatTree
	}

	endpoint, err := c.endpoint()
	if err != nil {
		return err
	}

	body, err := json.Marshal(req)
	if err != nil {
		return errors.WrapError(err, errors.CategoryInternal, "failed to marshal request body").Build()
	}

	attempt := 0
	err = c.retry.Do(ctx, func(ctx context.Context) error {
		attempt++
		if attempt > 1 {
			slog.Warn("Retrying docs-gen request",
				logfields.RepoID(req.RepoID.String()),
				slog.Int("attempt", attempt))
		}
		return c.post(ctx, endpoint, body)
	})
	if err != nil {
		return err
	}

	slog.Info("Successfully requested docs generation", logfields.RepoID(req.RepoID.String()))
	return nil
}

func (c *Client) post(ctx context.Context, endpoint string, body []byte) error {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return errors.WrapError(err, errors.CategoryInternal, "failed to create request").
			WithContext("url", endpoint).
			Build()
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	httpReq.Header.Set("User-Agent", "CodeLens/1.0")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		slog.Error("Failed to send docs-gen request to wiki service", logfields.Error(err))
		return errors.WrapError(err, errors.CategoryExternal, "wiki service request failed").
			WithContext("url", endpoint).
			Retryable().
			Build()
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		limited, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		bodyStr := strings.TrimSpace(string(limited))
		slog.Error("Wiki service returned error",
			logfields.Status(resp.StatusCode),
			slog.String("body", bodyStr))
		b := errors.ExternalError(fmt.Sprintf("wiki service error: HTTP %d", resp.StatusCode)).
			WithContext("status", resp.StatusCode).
			WithContext("body", bodyStr).
			WithContext("url", endpoint)
		if resp.StatusCode < 500 {
			b = b.WithRetry(errors.RetryNever)
		}
		return b.Build()
	}
	return nil
}

func (c *Client) endpoint() (string, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return "", errors.ConfigError("wiki service URL is not configured").
			WithContext("service_url", c.baseURL).
			Build()
	}
	u.Path = path.Join(strings.TrimSuffix(u.Path, "/"), docsGenPath)
	return u.String(), nil
}
