package store

import (
	"context"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/INF-UCT/code-lens/internal/foundation/errors"
)

// DefaultCacheSize bounds CachedRepositories when no size is configured.
const DefaultCacheSize = 256

// CachedRepositories keeps recently used repository records in an LRU keyed
// by name. Writes go through to the wrapped store and refresh the cache.
// Misses are not cached.
type CachedRepositories struct {
	next  RepositoryStore
	cache *lru.Cache[string, Repository]
}

// NewCachedRepositories wraps next with a cache of the given size.
func NewCachedRepositories(next RepositoryStore, size int) (*CachedRepositories, error) {
	if size <= 0 {
		size = DefaultCacheSize
	}
	cache, err := lru.New[string, Repository](size)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryInternal, "create repository cache").Build()
	}
	return &CachedRepositories{next: next, cache: cache}, nil
}

// FindByName implements RepositoryStore.
func (c *CachedRepositories) FindByName(ctx context.Context, name string) (*Repository, error) {
	if repo, ok := c.cache.Get(name); ok {
		return &repo, nil
	}
	repo, err := c.next.FindByName(ctx, name)
	if err != nil {
		return nil, err
	}
	c.cache.Add(name, *repo)
	return repo, nil
}

// FindByID implements RepositoryStore.
func (c *CachedRepositories) FindByID(ctx context.Context, id uuid.UUID) (*Repository, error) {
	return c.next.FindByID(ctx, id)
}

// List implements RepositoryStore.
func (c *CachedRepositories) List(ctx context.Context) ([]Repository, error) {
	return c.next.List(ctx)
}

// Save implements RepositoryStore.
func (c *CachedRepositories) Save(ctx context.Context, r Repository) (*Repository, error) {
	saved, err := c.next.Save(ctx, r)
	if err != nil {
		c.cache.Remove(r.Name)
		return nil, err
	}
	c.cache.Add(saved.Name, *saved)
	return saved, nil
}

// Len returns the number of cached records.
func (c *CachedRepositories) Len() int { return c.cache.Len() }
