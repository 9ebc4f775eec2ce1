package blogs

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newestFirst returns n posts with distinct dates, newest first, the way
// the store orders them.
func newestFirst(n int) []BlogPage {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	posts := make([]BlogPage, n)
	for i := range posts {
		id := int64(n - i)
		posts[i] = BlogPage{
			Page: Page{ID: id, Type: PageTypeBlog, Title: fmt.Sprintf("Post %d", id), Live: true},
			Date: base.AddDate(0, 0, int(id)),
		}
	}
	return posts
}

func ids(posts []BlogPage) []int64 {
	out := make([]int64, len(posts))
	for i, p := range posts {
		out[i] = p.ID
	}
	return out
}

func TestPaginator_NumPages(t *testing.T) {
	assert.Equal(t, 1, NewPaginator(0, 10).NumPages())
	assert.Equal(t, 1, NewPaginator(10, 10).NumPages())
	assert.Equal(t, 2, NewPaginator(11, 10).NumPages())
	assert.Equal(t, 3, NewPaginator(25, 10).NumPages())
	assert.Equal(t, PostsPerPage, NewPaginator(5, 0).PerPage)
}

func TestPaginator_Page(t *testing.T) {
	p := NewPaginator(25, 10)
	tests := []struct {
		raw        string
		number     int
		start, end int
	}{
		{"", 1, 0, 10},
		{"1", 1, 0, 10},
		{"2", 2, 10, 20},
		{"3", 3, 20, 25},
		{" 2 ", 2, 10, 20},
		{"abc", 1, 0, 10},
		{"2.5", 1, 0, 10},
		{"0", 1, 0, 10},
		{"-4", 1, 0, 10},
		{"4", 3, 20, 25},
		{"9999", 3, 20, 25},
		{"99999999999999999999", 3, 20, 25},
		{"-99999999999999999999", 1, 0, 10},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			w := p.Page(tt.raw)
			assert.Equal(t, tt.number, w.Number)
			assert.Equal(t, tt.start, w.Start)
			assert.Equal(t, tt.end, w.End)
			assert.Equal(t, 3, w.NumPages)
		})
	}
}

func TestPageWindow_Navigation(t *testing.T) {
	p := NewPaginator(25, 10)

	first := p.Page("1")
	assert.False(t, first.HasPrevious())
	assert.True(t, first.HasNext())
	assert.Equal(t, 0, first.PreviousNumber())
	assert.Equal(t, 2, first.NextNumber())

	last := p.Page("3")
	assert.True(t, last.HasPrevious())
	assert.False(t, last.HasNext())
	assert.Equal(t, 2, last.PreviousNumber())
	assert.Equal(t, 0, last.NextNumber())
	assert.Equal(t, []int{1, 2, 3}, last.Pages())
}

func TestBuildListing_FirstPageNewestFirst(t *testing.T) {
	posts := newestFirst(23)

	l := BuildListing(posts, "", "")
	require.Len(t, l.Posts, 10)
	assert.Equal(t, []int64{23, 22, 21, 20, 19, 18, 17, 16, 15, 14}, ids(l.Posts))
	assert.Equal(t, 1, l.Number)
	assert.Equal(t, 3, l.NumPages)
	assert.Equal(t, 23, l.Count)
	for i := 1; i < len(l.Posts); i++ {
		assert.True(t, l.Posts[i-1].Date.After(l.Posts[i].Date))
	}
}

func TestBuildListing_FewerThanAPage(t *testing.T) {
	l := BuildListing(newestFirst(4), "", "")
	assert.Equal(t, []int64{4, 3, 2, 1}, ids(l.Posts))
	assert.Equal(t, 1, l.NumPages)
}

func TestBuildListing_Empty(t *testing.T) {
	l := BuildListing(nil, "", "3")
	assert.Empty(t, l.Posts)
	assert.Equal(t, 1, l.Number)
	assert.Equal(t, 1, l.NumPages)
}

func TestBuildListing_TagFilter(t *testing.T) {
	posts := newestFirst(5)
	posts[0].Tags = []string{"go", "web"}
	posts[2].Tags = []string{"go"}
	posts[3].Tags = []string{"Go"}
	posts[4].Tags = []string{"golang"}

	l := BuildListing(posts, "go", "")
	assert.Equal(t, []int64{5, 3}, ids(l.Posts))
	assert.Equal(t, "go", l.Tag)
	assert.Equal(t, 2, l.Count)

	l = BuildListing(posts, "rust", "")
	assert.Empty(t, l.Posts)
	assert.Equal(t, 0, l.Count)
}

func TestBuildListing_NonNumericPageIsFirstPage(t *testing.T) {
	posts := newestFirst(15)
	assert.Equal(t, BuildListing(posts, "", ""), BuildListing(posts, "", "abc"))
}

func TestBuildListing_PageOutOfRangeIsLastPage(t *testing.T) {
	posts := newestFirst(15)

	l := BuildListing(posts, "", "9999")
	assert.Equal(t, 2, l.Number)
	assert.Equal(t, []int64{5, 4, 3, 2, 1}, ids(l.Posts))
}

func TestBuildListing_PageNumberOverflowIsLastPage(t *testing.T) {
	posts := newestFirst(15)

	l := BuildListing(posts, "", "99999999999999999999")
	assert.Equal(t, 2, l.Number)
	assert.Equal(t, []int64{5, 4, 3, 2, 1}, ids(l.Posts))
}

func TestBuildListing_PostsDoNotAliasInput(t *testing.T) {
	posts := newestFirst(15)

	l := BuildListing(posts, "", "1")
	require.Len(t, l.Posts, 10)
	l.Posts[0].Title = "changed"
	l.Posts = append(l.Posts, BlogPage{Page: Page{ID: 99}})

	assert.Equal(t, "Post 15", posts[0].Title)
	assert.Equal(t, int64(5), posts[10].ID)
}
