package store

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/INF-UCT/code-lens/internal/foundation/errors"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS users (
	id TEXT PRIMARY KEY,
	username TEXT NOT NULL UNIQUE,
	email TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS repositories (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL UNIQUE,
	url TEXT NOT NULL,
	owner_id TEXT NOT NULL,
	default_branch TEXT NOT NULL,
	last_commit_sha TEXT NOT NULL,
	created_at INTEGER NOT NULL,
	updated_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_repositories_created_at ON repositories(created_at);
`

const repositoryColumns = "id, name, url, owner_id, default_branch, last_commit_sha, created_at, updated_at"

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db  *sql.DB
	now func() time.Time
}

// NewSQLiteStore opens (creating if needed) the database at dsn.
// Use ":memory:" for an in-memory database.
func NewSQLiteStore(dsn string) (*SQLiteStore, error) {
	if dsn != ":memory:" {
		if dir := filepath.Dir(dsn); dir != "." {
			if err := os.MkdirAll(dir, 0o750); err != nil {
				return nil, errors.StorageError("failed to create database directory").WithCause(err).
					WithContext("path", dir).
					Build()
			}
		}
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, storageErr(err, "open sqlite database")
	}
	// A single connection serializes writers and keeps ":memory:" databases alive.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(sqliteSchema); err != nil {
		_ = db.Close()
		return nil, storageErr(err, "initialize schema")
	}
	return &SQLiteStore{db: db, now: time.Now}, nil
}

// Repositories implements Store.
func (s *SQLiteStore) Repositories() RepositoryStore { return sqliteRepositories{s} }

// Users implements Store.
func (s *SQLiteStore) Users() UserStore { return sqliteUsers{s} }

// Ping implements Store.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return storageErr(err, "ping sqlite database")
	}
	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error { return s.db.Close() }

type sqliteRepositories struct{ s *SQLiteStore }

func (r sqliteRepositories) FindByName(ctx context.Context, name string) (*Repository, error) {
	row := r.s.db.QueryRowContext(ctx,
		"SELECT "+repositoryColumns+" FROM repositories WHERE name = ?", name)
	repo, err := scanSQLiteRepository(row)
	if err == sql.ErrNoRows {
		return nil, notFound("repository", "name", name)
	}
	return repo, err
}

func (r sqliteRepositories) FindByID(ctx context.Context, id uuid.UUID) (*Repository, error) {
	row := r.s.db.QueryRowContext(ctx,
		"SELECT "+repositoryColumns+" FROM repositories WHERE id = ?", id.String())
	repo, err := scanSQLiteRepository(row)
	if err == sql.ErrNoRows {
		return nil, notFound("repository", "id", id.String())
	}
	return repo, err
}

func (r sqliteRepositories) List(ctx context.Context) ([]Repository, error) {
	rows, err := r.s.db.QueryContext(ctx,
		"SELECT "+repositoryColumns+" FROM repositories ORDER BY created_at DESC, name")
	if err != nil {
		return nil, storageErr(err, "query repositories")
	}
	defer func() { _ = rows.Close() }()

	var out []Repository
	for rows.Next() {
		repo, err := scanSQLiteRepository(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *repo)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr(err, "iterate repositories")
	}
	return out, nil
}

func (r sqliteRepositories) Save(ctx context.Context, repo Repository) (*Repository, error) {
	if err := validateRepository(repo); err != nil {
		return nil, err
	}
	repo.prepare(r.s.now())

	row := r.s.db.QueryRowContext(ctx, `
		INSERT INTO repositories (`+repositoryColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			url = excluded.url,
			last_commit_sha = excluded.last_commit_sha,
			updated_at = excluded.updated_at
		RETURNING `+repositoryColumns,
		repo.ID.String(), repo.Name, repo.URL, repo.OwnerID.String(), repo.DefaultBranch,
		repo.LastCommitSHA, repo.CreatedAt.UnixNano(), repo.UpdatedAt.UnixNano(),
	)
	saved, err := scanSQLiteRepository(row)
	if err != nil {
		return nil, errors.StorageError("save repository").WithCause(err).
			WithContext("name", repo.Name).
			Build()
	}
	return saved, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSQLiteRepository(row rowScanner) (*Repository, error) {
	var (
		repo             Repository
		id, owner        string
		created, updated int64
	)
	err := row.Scan(&id, &repo.Name, &repo.URL, &owner, &repo.DefaultBranch, &repo.LastCommitSHA, &created, &updated)
	if err == sql.ErrNoRows {
		return nil, err
	}
	if err != nil {
		return nil, storageErr(err, "scan repository")
	}
	if repo.ID, err = uuid.Parse(id); err != nil {
		return nil, storageErr(err, "parse repository id")
	}
	if repo.OwnerID, err = uuid.Parse(owner); err != nil {
		return nil, storageErr(err, "parse owner id")
	}
	repo.CreatedAt = time.Unix(0, created).UTC()
	repo.UpdatedAt = time.Unix(0, updated).UTC()
	return &repo, nil
}

type sqliteUsers struct{ s *SQLiteStore }

func (u sqliteUsers) FindByUsername(ctx context.Context, username string) (*User, error) {
	var (
		user User
		id   string
	)
	err := u.s.db.QueryRowContext(ctx,
		"SELECT id, username, email FROM users WHERE username = ?", username).
		Scan(&id, &user.Username, &user.Email)
	if err == sql.ErrNoRows {
		return nil, notFound("user", "username", username)
	}
	if err != nil {
		return nil, storageErr(err, "query user")
	}
	if user.ID, err = uuid.Parse(id); err != nil {
		return nil, storageErr(err, "parse user id")
	}
	return &user, nil
}

func (u sqliteUsers) Save(ctx context.Context, user User) (*User, error) {
	if err := validateUser(user); err != nil {
		return nil, err
	}
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	var id string
	err := u.s.db.QueryRowContext(ctx, `
		INSERT INTO users (id, username, email) VALUES (?, ?, ?)
		ON CONFLICT(username) DO UPDATE SET email = excluded.email
		RETURNING id`,
		user.ID.String(), user.Username, user.Email,
	).Scan(&id)
	if err != nil {
		return nil, errors.StorageError("save user").WithCause(err).
			WithContext("username", user.Username).
			Build()
	}
	if user.ID, err = uuid.Parse(id); err != nil {
		return nil, storageErr(err, "parse user id")
	}
	return &user, nil
}
