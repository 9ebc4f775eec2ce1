package blogs

import (
	"context"
	"sync"
	"time"
)

// ListingCache is an in-memory cache of the ordered live posts and tags
// beneath each blog index, with TTL. Every admin write invalidates it.
type ListingCache struct {
	mu      sync.RWMutex
	entries map[int64]*listingEntry
	ttl     time.Duration
	store   *Store
	now     func() time.Time
}

type listingEntry struct {
	posts   []BlogPage
	tags    []string
	fetched time.Time
}

// NewListingCache creates a ListingCache backed by the given Store.
func NewListingCache(s *Store, ttl time.Duration) *ListingCache {
	return &ListingCache{
		entries: make(map[int64]*listingEntry),
		ttl:     ttl,
		store:   s,
		now:     time.Now,
	}
}

func (c *ListingCache) valid(e *listingEntry) bool {
	return e != nil && c.now().Sub(e.fetched) < c.ttl
}

// Invalidate clears every entry so the next read triggers a fresh load.
func (c *ListingCache) Invalidate() {
	c.mu.Lock()
	c.entries = make(map[int64]*listingEntry)
	c.mu.Unlock()
}

// ensureLoaded returns the cached entry for indexID after ensuring it is fresh.
// It tries a read lock first; only takes a write lock if a reload is needed.
func (c *ListingCache) ensureLoaded(ctx context.Context, indexID int64) (*listingEntry, error) {
	c.mu.RLock()
	if e := c.entries[indexID]; c.valid(e) {
		c.mu.RUnlock()
		return e, nil
	}
	c.mu.RUnlock()

	c.mu.Lock()
	defer c.mu.Unlock()
	if e := c.entries[indexID]; c.valid(e) {
		return e, nil
	}
	posts, err := c.store.ListBlogPosts(ctx, indexID, "")
	if err != nil {
		return nil, err
	}
	tags, err := c.store.ListTags(ctx, indexID)
	if err != nil {
		return nil, err
	}
	e := &listingEntry{posts: posts, tags: tags, fetched: c.now()}
	c.entries[indexID] = e
	return e, nil
}

// Posts returns the live posts beneath indexID, newest first.
func (c *ListingCache) Posts(ctx context.Context, indexID int64) ([]BlogPage, error) {
	e, err := c.ensureLoaded(ctx, indexID)
	if err != nil {
		return nil, err
	}
	return e.posts, nil
}

// Tags returns the distinct tag names of the live posts beneath indexID.
func (c *ListingCache) Tags(ctx context.Context, indexID int64) ([]string, error) {
	e, err := c.ensureLoaded(ctx, indexID)
	if err != nil {
		return nil, err
	}
	return e.tags, nil
}
