package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	ferrors "github.com/INF-UCT/code-lens/internal/foundation/errors"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS users (
	id UUID PRIMARY KEY,
	username TEXT NOT NULL UNIQUE,
	email TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS repositories (
	id UUID PRIMARY KEY,
	name TEXT NOT NULL UNIQUE,
	url TEXT NOT NULL,
	owner_id UUID NOT NULL,
	default_branch TEXT NOT NULL,
	last_commit_sha TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_repositories_created_at ON repositories(created_at);
`

// PostgresStore implements Store on a pgx connection pool.
type PostgresStore struct {
	pool *pgxpool.Pool
	now  func() time.Time
}

// NewPostgresStore connects to dsn, verifies the connection and creates the
// schema if needed.
func NewPostgresStore(ctx context.Context, dsn string) (*PostgresStore, error) {
	poolCfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryConfig, "parsing database config").
			WithContext("field", "database.dsn").
			Build()
	}
	if poolCfg.MaxConns == 0 {
		poolCfg.MaxConns = 10
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, storageErr(err, "creating connection pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, storageErr(err, "pinging database")
	}
	if _, err := pool.Exec(ctx, postgresSchema); err != nil {
		pool.Close()
		return nil, storageErr(err, "initialize schema")
	}
	return &PostgresStore{pool: pool, now: time.Now}, nil
}

// Repositories implements Store.
func (s *PostgresStore) Repositories() RepositoryStore { return pgRepositories{s} }

// Users implements Store.
func (s *PostgresStore) Users() UserStore { return pgUsers{s} }

// Ping implements Store.
func (s *PostgresStore) Ping(ctx context.Context) error {
	if err := s.pool.Ping(ctx); err != nil {
		return storageErr(err, "pinging database")
	}
	return nil
}

// Close releases the pool.
func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

type pgRepositories struct{ s *PostgresStore }

func (r pgRepositories) FindByName(ctx context.Context, name string) (*Repository, error) {
	row := r.s.pool.QueryRow(ctx,
		"SELECT "+repositoryColumns+" FROM repositories WHERE name = $1", name)
	repo, err := scanPgRepository(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, notFound("repository", "name", name)
	}
	return repo, err
}

func (r pgRepositories) FindByID(ctx context.Context, id uuid.UUID) (*Repository, error) {
	row := r.s.pool.QueryRow(ctx,
		"SELECT "+repositoryColumns+" FROM repositories WHERE id = $1", id)
	repo, err := scanPgRepository(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, notFound("repository", "id", id.String())
	}
	return repo, err
}

func (r pgRepositories) List(ctx context.Context) ([]Repository, error) {
	rows, err := r.s.pool.Query(ctx,
		"SELECT "+repositoryColumns+" FROM repositories ORDER BY created_at DESC, name")
	if err != nil {
		return nil, storageErr(err, "query repositories")
	}
	defer rows.Close()

	var out []Repository
	for rows.Next() {
		repo, err := scanPgRepository(rows)
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

func (r pgRepositories) Save(ctx context.Context, repo Repository) (*Repository, error) {
	if err := validateRepository(repo); err != nil {
		return nil, err
	}
	repo.prepare(r.s.now())

	row := r.s.pool.QueryRow(ctx, `
		INSERT INTO repositories (`+repositoryColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (name) DO UPDATE SET
			url = EXCLUDED.url,
			last_commit_sha = EXCLUDED.last_commit_sha,
			updated_at = EXCLUDED.updated_at
		RETURNING `+repositoryColumns,
		repo.ID, repo.Name, repo.URL, repo.OwnerID, repo.DefaultBranch,
		repo.LastCommitSHA, repo.CreatedAt, repo.UpdatedAt,
	)
	saved, err := scanPgRepository(row)
	if err != nil {
		return nil, ferrors.StorageError("save repository").WithCause(err).
			WithContext("name", repo.Name).
			Build()
	}
	return saved, nil
}

func scanPgRepository(row pgx.Row) (*Repository, error) {
	var repo Repository
	err := row.Scan(&repo.ID, &repo.Name, &repo.URL, &repo.OwnerID, &repo.DefaultBranch,
		&repo.LastCommitSHA, &repo.CreatedAt, &repo.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, storageErr(err, "scan repository")
	}
	repo.CreatedAt = repo.CreatedAt.UTC()
	repo.UpdatedAt = repo.UpdatedAt.UTC()
	return &repo, nil
}

type pgUsers struct{ s *PostgresStore }

func (u pgUsers) FindByUsername(ctx context.Context, username string) (*User, error) {
	var user User
	err := u.s.pool.QueryRow(ctx,
		"SELECT id, username, email FROM users WHERE username = $1", username).
		Scan(&user.ID, &user.Username, &user.Email)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, notFound("user", "username", username)
	}
	if err != nil {
		return nil, storageErr(err, "query user")
	}
	return &user, nil
}

func (u pgUsers) Save(ctx context.Context, user User) (*User, error) {
	if err := validateUser(user); err != nil {
		return nil, err
	}
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	err := u.s.pool.QueryRow(ctx, `
		INSERT INTO users (id, username, email) VALUES ($1, $2, $3)
		ON CONFLICT (username) DO UPDATE SET email = EXCLUDED.email
		RETURNING id`,
		user.ID, user.Username, user.Email,
	).Scan(&user.ID)
	if err != nil {
		return nil, ferrors.StorageError("save user").WithCause(err).
			WithContext("username", user.Username).
			Build()
	}
	return &user, nil
}
