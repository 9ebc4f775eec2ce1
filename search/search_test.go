package search

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestIndex(t *testing.T) (*Index, string) {
	t.Helper()
	dir := t.TempDir()
	index, created, err := Open(Options{DataPath: dir})
	require.NoError(t, err)
	require.True(t, created)
	t.Cleanup(func() { _ = index.Close() })
	return index, dir
}

func samplePosts() []*Document {
	return []*Document{
		{PageID: 2, Type: DocTypeBlogIndex, Title: "Journal", Intro: "Notes about gardening", URL: "/journal/"},
		{PageID: 3, Type: DocTypeBlog, Title: "Planting tomatoes", Body: "Tomatoes like warm soil.", Tags: []string{"garden"}, URL: "/journal/tomatoes/", Date: time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)},
		{PageID: 4, Type: DocTypeBlog, Title: "Compiler notes", Body: "Register allocation with graph colouring.", Tags: []string{"Go"}, URL: "/journal/compilers/", Date: time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)},
	}
}

func TestOpen_Empty(t *testing.T) {
	index, _ := setupTestIndex(t)
	count, err := index.DocumentCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(0), count)
}

func TestOpen_ReopensExisting(t *testing.T) {
	dir := t.TempDir()
	index, created, err := Open(Options{DataPath: dir})
	require.NoError(t, err)
	require.True(t, created)
	require.NoError(t, index.IndexDocument(samplePosts()[1]))
	require.NoError(t, index.Close())

	index, created, err = Open(Options{DataPath: dir})
	require.NoError(t, err)
	defer index.Close()
	assert.False(t, created)
	count, err := index.DocumentCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(1), count)
}

func TestOpen_MappingVersionChangeRecreates(t *testing.T) {
	dir := t.TempDir()
	index, _, err := Open(Options{DataPath: dir})
	require.NoError(t, err)
	require.NoError(t, index.IndexDocument(samplePosts()[1]))
	require.NoError(t, index.Close())

	require.NoError(t, os.WriteFile(filepath.Join(dir, "pages.version"), []byte("0"), 0o644))

	index, created, err := Open(Options{DataPath: dir})
	require.NoError(t, err)
	defer index.Close()
	assert.True(t, created)
	count, err := index.DocumentCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(0), count)
}

func TestIndex_SearchFields(t *testing.T) {
	index, _ := setupTestIndex(t)
	require.NoError(t, index.Rebuild(samplePosts()))
	ctx := context.Background()

	tests := []struct {
		name  string
		query string
		want  int64
	}{
		{"title", "tomatoes", 3},
		{"body", "allocation", 4},
		{"intro", "gardening", 2},
		{"tag", "Go", 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := index.Search(ctx, Params{Query: tt.query})
			require.NoError(t, err)
			require.NotEmpty(t, res.Hits)
			assert.Equal(t, tt.want, res.Hits[0].PageID)
		})
	}
}

func TestIndex_SearchReturnsStoredFields(t *testing.T) {
	index, _ := setupTestIndex(t)
	require.NoError(t, index.Rebuild(samplePosts()))

	res, err := index.Search(context.Background(), Params{Query: "compiler"})
	require.NoError(t, err)
	require.Len(t, res.Hits, 1)
	hit := res.Hits[0]
	assert.Equal(t, DocTypeBlog, hit.Type)
	assert.Equal(t, "Compiler notes", hit.Title)
	assert.Equal(t, "/journal/compilers/", hit.URL)
	assert.Equal(t, 1, res.Total)
}

func TestIndex_SearchFilters(t *testing.T) {
	index, _ := setupTestIndex(t)
	require.NoError(t, index.Rebuild(samplePosts()))
	ctx := context.Background()

	res, err := index.Search(ctx, Params{Query: "notes", Types: []DocType{DocTypeBlog}})
	require.NoError(t, err)
	require.Len(t, res.Hits, 1)
	assert.Equal(t, int64(4), res.Hits[0].PageID)

	res, err = index.Search(ctx, Params{Query: "notes", Tag: "garden"})
	require.NoError(t, err)
	assert.Empty(t, res.Hits)
}

func TestIndex_EmptyQuery(t *testing.T) {
	index, _ := setupTestIndex(t)
	require.NoError(t, index.Rebuild(samplePosts()))

	res, err := index.Search(context.Background(), Params{Query: "   "})
	require.NoError(t, err)
	assert.Empty(t, res.Hits)
	assert.Equal(t, 0, res.Total)
}

func TestIndex_Delete(t *testing.T) {
	index, _ := setupTestIndex(t)
	require.NoError(t, index.Rebuild(samplePosts()))

	require.NoError(t, index.Delete(3, 4))
	count, err := index.DocumentCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(1), count)

	res, err := index.Search(context.Background(), Params{Query: "tomatoes"})
	require.NoError(t, err)
	assert.Empty(t, res.Hits)
}

func TestIndex_IndexDocumentReplaces(t *testing.T) {
	index, _ := setupTestIndex(t)
	doc := samplePosts()[1]
	require.NoError(t, index.IndexDocument(doc))
	doc.Title = "Growing peppers"
	require.NoError(t, index.IndexDocument(doc))

	count, err := index.DocumentCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(1), count)

	res, err := index.Search(context.Background(), Params{Query: "peppers"})
	require.NoError(t, err)
	require.Len(t, res.Hits, 1)
	assert.Equal(t, "Growing peppers", res.Hits[0].Title)
}

func TestDocument_ToMap(t *testing.T) {
	doc := &Document{PageID: 9, Type: DocTypeFolder, Title: "Folder", Tags: []string{" a ", ""}}
	m := doc.ToMap()
	assert.Equal(t, "page-9", doc.ID())
	assert.Equal(t, float64(9), m["page_id"])
	assert.Equal(t, []string{"a"}, m["tags"])
	assert.NotContains(t, m, "body")
	assert.NotContains(t, m, "date")
}
