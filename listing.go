package blogs

import (
	"context"
	"slices"
)

// Listing is the paginated, optionally tag-filtered post list of an index page.
type Listing struct {
	Posts []BlogPage
	Tag   string
	Count int // posts matching the filter, across all pages
	PageWindow
	IndexPage BlogIndexPage
}

// BuildListing filters posts (already ordered newest first) to those
// tagged exactly tag, when tag is non-empty, and selects the page named by
// page. Bad page numbers are normalized, never rejected.
func BuildListing(posts []BlogPage, tag, page string) Listing {
	if tag != "" {
		posts = FilterByTag(posts, tag)
	}
	w := NewPaginator(len(posts), PostsPerPage).Page(page)
	return Listing{
		Posts:      slices.Clone(posts[w.Start:w.End]),
		Tag:        tag,
		Count:      len(posts),
		PageWindow: w,
	}
}

// FilterByTag returns the posts carrying a tag named exactly tag, in order.
func FilterByTag(posts []BlogPage, tag string) []BlogPage {
	var out []BlogPage
	for _, p := range posts {
		if p.HasTag(tag) {
			out = append(out, p)
		}
	}
	return out
}

// IndexListing builds the listing of index from the cached, ordered list of
// live posts beneath it.
func (a *App) IndexListing(ctx context.Context, index BlogIndexPage, tag, page string) (Listing, error) {
	posts, err := a.Cache.Posts(ctx, index.ID)
	if err != nil {
		return Listing{}, err
	}
	l := BuildListing(posts, tag, page)
	l.IndexPage = index
	return l, nil
}
