package blogs

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListingCache_ServesUntilInvalidated(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	root := mustRoot(t, s)
	idx := mustIndex(t, s, root.ID, "blog")
	mustPost(t, s, idx.ID, "one", "2024-01-01", true, "go")

	c := NewListingCache(s, time.Hour)
	posts, err := c.Posts(ctx, idx.ID)
	require.NoError(t, err)
	require.Len(t, posts, 1)

	mustPost(t, s, idx.ID, "two", "2024-01-02", true, "web")
	posts, err = c.Posts(ctx, idx.ID)
	require.NoError(t, err)
	assert.Len(t, posts, 1, "cached entry should be served")

	c.Invalidate()
	posts, err = c.Posts(ctx, idx.ID)
	require.NoError(t, err)
	assert.Len(t, posts, 2)
	tags, err := c.Tags(ctx, idx.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"go", "web"}, tags)
}

func TestListingCache_ExpiresAfterTTL(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	root := mustRoot(t, s)
	idx := mustIndex(t, s, root.ID, "blog")

	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	c := NewListingCache(s, time.Minute)
	c.now = func() time.Time { return now }

	posts, err := c.Posts(ctx, idx.ID)
	require.NoError(t, err)
	assert.Empty(t, posts)

	mustPost(t, s, idx.ID, "late", "2024-01-01", true)
	now = now.Add(2 * time.Minute)
	posts, err = c.Posts(ctx, idx.ID)
	require.NoError(t, err)
	assert.Len(t, posts, 1)
}

func TestListingCache_PerIndex(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	root := mustRoot(t, s)
	a := mustIndex(t, s, root.ID, "a")
	b := mustIndex(t, s, root.ID, "b")
	mustPost(t, s, a.ID, "in-a", "2024-01-01", true)

	c := NewListingCache(s, time.Hour)
	pa, err := c.Posts(ctx, a.ID)
	require.NoError(t, err)
	pb, err := c.Posts(ctx, b.ID)
	require.NoError(t, err)
	assert.Len(t, pa, 1)
	assert.Empty(t, pb)
}

func TestListingCache_UnknownIndex(t *testing.T) {
	s := setupTestStore(t)
	c := NewListingCache(s, time.Hour)
	_, err := c.Posts(context.Background(), 404)
	assert.ErrorIs(t, err, ErrNotFound)
}
