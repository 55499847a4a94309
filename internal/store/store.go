// Package store persists repository and user records.
//
// Two backends are provided: SQLite (the default, schema created on open)
// and Postgres through pgxpool. CachedRepositories adds an LRU in front of
// name lookups for either backend.
package store

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/INF-UCT/code-lens/internal/foundation/errors"
)

// Repository is an ingested source repository. Name is unique.
type Repository struct {
	ID            uuid.UUID `json:"id"`
	Name          string    `json:"name"`
	URL           string    `json:"url"`
	OwnerID       uuid.UUID `json:"owner_id"`
	DefaultBranch string    `json:"default_branch"`
	LastCommitSHA string    `json:"last_commit_sha"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// User owns repositories and receives notifications.
type User struct {
	ID       uuid.UUID `json:"id"`
	Username string    `json:"username"`
	Email    string    `json:"email"`
}

// RepositoryStore reads and writes repository records.
type RepositoryStore interface {
	FindByName(ctx context.Context, name string) (*Repository, error)
	FindByID(ctx context.Context, id uuid.UUID) (*Repository, error)
	List(ctx context.Context) ([]Repository, error)
	// Save inserts r or, when a record with the same name exists, updates its
	// url, last commit and update time. The stored row is returned.
	Save(ctx context.Context, r Repository) (*Repository, error)
}

// UserStore reads and writes users.
type UserStore interface {
	FindByUsername(ctx context.Context, username string) (*User, error)
	Save(ctx context.Context, u User) (*User, error)
}

// Store bundles both record stores over one connection.
type Store interface {
	Repositories() RepositoryStore
	Users() UserStore
	Ping(ctx context.Context) error
	Close() error
}

// IsNotFound reports whether err is a missing-record error.
func IsNotFound(err error) bool {
	return errors.HasCategory(err, errors.CategoryNotFound)
}

func notFound(kind, key, value string) error {
	return errors.NotFoundError(kind+" not found").WithContext(key, value).Build()
}

func storageErr(err error, msg string) error {
	return errors.StorageError(msg).WithCause(err).Build()
}

// prepare fills identity and timestamps for a record about to be written.
func (r *Repository) prepare(now time.Time) {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = now
	}
	r.UpdatedAt = now
}

func validateRepository(r Repository) error {
	if r.Name == "" {
		return errors.ValidationError("repository name is required").Build()
	}
	if r.URL == "" {
		return errors.ValidationError("repository url is required").WithContext("name", r.Name).Build()
	}
	return nil
}

func validateUser(u User) error {
	if u.Username == "" {
		return errors.ValidationError("username is required").Build()
	}
	if u.Email == "" {
		return errors.ValidationError("email is required").WithContext("username", u.Username).Build()
	}
	return nil
}
