package blogs

import (
	"errors"
	"strconv"
	"strings"
)

// PostsPerPage is the page size of blog index listings.
const PostsPerPage = 10

// Paginator splits Count ordered items into pages of PerPage.
// An empty result still has one (empty) page.
type Paginator struct {
	Count   int
	PerPage int
}

// NewPaginator returns a paginator over count items. A non-positive
// perPage falls back to PostsPerPage.
func NewPaginator(count, perPage int) Paginator {
	if perPage <= 0 {
		perPage = PostsPerPage
	}
	if count < 0 {
		count = 0
	}
	return Paginator{Count: count, PerPage: perPage}
}

// NumPages returns the number of pages, at least 1.
func (p Paginator) NumPages() int {
	if p.Count == 0 {
		return 1
	}
	return (p.Count + p.PerPage - 1) / p.PerPage
}

// Page selects the page named by raw. Absent, non-numeric and non-positive
// values select page 1; values past the end, including ones too large for an
// int, select the last page.
func (p Paginator) Page(raw string) PageWindow {
	num := p.NumPages()
	raw = strings.TrimSpace(raw)
	n, err := strconv.Atoi(raw)
	switch {
	case errors.Is(err, strconv.ErrRange) && !strings.HasPrefix(raw, "-"):
		n = num
	case err != nil || n < 1:
		n = 1
	}
	if n > num {
		n = num
	}
	start := (n - 1) * p.PerPage
	end := start + p.PerPage
	if end > p.Count {
		end = p.Count
	}
	return PageWindow{Number: n, NumPages: num, Start: start, End: end}
}

// PageWindow is a selected page: items [Start, End) of the ordered result.
type PageWindow struct {
	Number   int
	NumPages int
	Start    int
	End      int
}

// HasPrevious reports whether a page precedes this one.
func (w PageWindow) HasPrevious() bool { return w.Number > 1 }

// HasNext reports whether a page follows this one.
func (w PageWindow) HasNext() bool { return w.Number < w.NumPages }

// PreviousNumber returns the previous page number, or 0 on the first page.
func (w PageWindow) PreviousNumber() int {
	if !w.HasPrevious() {
		return 0
	}
	return w.Number - 1
}

// NextNumber returns the next page number, or 0 on the last page.
func (w PageWindow) NextNumber() int {
	if !w.HasNext() {
		return 0
	}
	return w.Number + 1
}

// Pages returns 1..NumPages for rendering page links.
func (w PageWindow) Pages() []int {
	out := make([]int, w.NumPages)
	for i := range out {
		out[i] = i + 1
	}
	return out
}
