package pipeline

import (
	"context"
	"net/url"
	"regexp"
	"strings"

	"github.com/google/uuid"

	"github.com/INF-UCT/code-lens/internal/foundation/errors"
	"github.com/INF-UCT/code-lens/internal/store"
)

// DefaultBranch is used when a request names no branch.
const DefaultBranch = "main"

const maxNameLength = 255

var (
	commitSHAPattern = regexp.MustCompile(`^[0-9a-fA-F]{4,40}$`)
	scpLikePattern   = regexp.MustCompile(`^[A-Za-z0-9._-]+@[A-Za-z0-9.-]+:[^/].*$`)
	allowedSchemes   = map[string]bool{"http": true, "https": true, "ssh": true, "git": true, "file": true}
)

// AnalysisRequest asks for one repository revision to be ingested.
type AnalysisRequest struct {
	URL       string `json:"url"`
	Name      string `json:"name"`
	Branch    string `json:"branch"`
	CommitSHA string `json:"commit_sha"`
	// Owner is the username the repository is attributed to.
	Owner string `json:"owner,omitempty"`
}

// Normalize trims fields and applies the default branch.
func (r *AnalysisRequest) Normalize() {
	r.URL = strings.TrimSpace(r.URL)
	r.Name = strings.TrimSpace(r.Name)
	r.Branch = strings.TrimSpace(r.Branch)
	r.CommitSHA = strings.TrimSpace(r.CommitSHA)
	r.Owner = strings.TrimSpace(r.Owner)
	if r.Branch == "" {
		r.Branch = DefaultBranch
	}
}

// Validate checks the request after normalization.
func (r AnalysisRequest) Validate() error {
	switch {
	case !validRepositoryURL(r.URL):
		return invalid("url", "repository url must be http(s), ssh, git, file or scp-like")
	case r.Name == "" || len(r.Name) > maxNameLength:
		return invalid("name", "repository name must be 1-255 characters")
	case r.Branch == "":
		return invalid("branch", "branch is required")
	case !commitSHAPattern.MatchString(r.CommitSHA):
		return invalid("commit_sha", "commit sha must be 4-40 hexadecimal characters")
	}
	return nil
}

func validRepositoryURL(raw string) bool {
	if raw == "" {
		return false
	}
	if scpLikePattern.MatchString(raw) {
		return true
	}
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	if !allowedSchemes[strings.ToLower(u.Scheme)] {
		return false
	}
	if u.Scheme == "file" {
		return u.Path != ""
	}
	return u.Host != ""
}

func invalid(field, msg string) error {
	return errors.ValidationError(msg).WithContext("field", field).Build()
}

// Owner is the resolved user a repository belongs to.
type Owner struct {
	ID       uuid.UUID
	Username string
	Email    string
}

// OwnerResolver resolves owners through the user store.
type OwnerResolver struct {
	Users store.UserStore
}

// Resolve looks up username. Unknown users are not-found errors.
func (r OwnerResolver) Resolve(ctx context.Context, username string) (Owner, error) {
	if username == "" {
		return Owner{}, invalid("owner", "owner is required")
	}
	u, err := r.Users.FindByUsername(ctx, username)
	if err != nil {
		return Owner{}, err
	}
	return Owner{ID: u.ID, Username: u.Username, Email: u.Email}, nil
}
