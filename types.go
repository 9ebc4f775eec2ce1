package blogs

import (
	"time"

	"github.com/eringen/blogs/streamfield"
)

// PageType discriminates the concrete kind of a node in the page tree.
type PageType string

const (
	PageTypeRoot      PageType = "root"
	PageTypeFolder    PageType = "folder"
	PageTypeBlogIndex PageType = "blog_index"
	PageTypeBlog      PageType = "blog"
)

// Creatable reports whether pages of this type may be added under a parent.
func (t PageType) Creatable() bool {
	switch t {
	case PageTypeFolder, PageTypeBlogIndex, PageTypeBlog:
		return true
	}
	return false
}

// Page is a node of the page tree. Path is the materialized id path
// ("/1/4/9/"), URLPath the slug path served over HTTP ("/blog/post/").
type Page struct {
	ID                int64
	ParentID          int64
	Path              string
	Depth             int
	Type              PageType
	Title             string
	Slug              string
	URLPath           string
	Live              bool
	SeoTitle          string
	SearchDescription string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// URL returns the site-relative URL of the page.
func (p Page) URL() string { return p.URLPath }

// Ref returns a reference suitable for links and breadcrumbs.
func (p Page) Ref() PageRef {
	return PageRef{ID: p.ID, Title: p.Title, URL: p.URLPath}
}

// PageRef is a resolved reference to a page.
type PageRef struct {
	ID    int64
	Title string
	URL   string
}

// ImageRef is a resolved reference to an uploaded image.
type ImageRef struct {
	ID       int64
	Title    string
	URL      string
	Width    int
	Height   int
	BlurHash string
}

// DocumentRef is a resolved reference to an uploaded document.
type DocumentRef struct {
	ID    int64
	Title string
	URL   string
}

// BlogIndexPage lists the blog posts beneath it.
type BlogIndexPage struct {
	Page
	Intro        string // rich text HTML
	RelatedLinks []RelatedLink
}

// BlogPage is a single post. Posts loaded for a listing carry no carousel
// items or related links.
type BlogPage struct {
	Page
	Body          streamfield.Stream
	Date          time.Time
	Tags          []string
	FeedImage     *ImageRef
	CarouselItems []CarouselItem
	RelatedLinks  []RelatedLink
}

// HasTag reports whether the post carries a tag named exactly name.
func (p BlogPage) HasTag(name string) bool {
	for _, t := range p.Tags {
		if t == name {
			return true
		}
	}
	return false
}

// Image is an uploaded, re-encoded image.
type Image struct {
	ID           int64
	Title        string
	Filename     string
	OriginalName string
	Width        int
	Height       int
	Size         int
	BlurHash     string
	UploadedAt   string
}

// URL returns the public URL of the image file.
func (i Image) URL() string { return uploadsURLPrefix + i.Filename }

// Ref returns a reference to the image.
func (i Image) Ref() ImageRef {
	return ImageRef{ID: i.ID, Title: i.Title, URL: i.URL(), Width: i.Width, Height: i.Height, BlurHash: i.BlurHash}
}

// Document is an uploaded file served for download.
type Document struct {
	ID         int64
	Title      string
	Filename   string
	StorageKey string
	Size       int64
	UploadedAt string
}

// URL returns the download URL of the document.
func (d Document) URL() string { return documentURL(d.ID, d.Filename) }

// Ref returns a reference to the document.
func (d Document) Ref() DocumentRef {
	return DocumentRef{ID: d.ID, Title: d.Title, URL: d.URL()}
}

// PageMeta carries per-page OpenGraph and SEO metadata into the <head> template.
type PageMeta struct {
	Title       string
	Description string
	URL         string // canonical + og:url
	OGType      string // "website" or "article"
	Image       string
}
