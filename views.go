package blogs

import (
	"github.com/a-h/templ"

	"github.com/eringen/blogs/search"
)

// ViewFuncs holds the templ components the app calls when rendering
// pages. Sites supply their own or use the views package defaults.
type ViewFuncs struct {
	Index          func(v IndexView) templ.Component
	IndexPartial   func(v IndexView) templ.Component // listing only, for htmx swaps
	Post           func(v PostView) templ.Component
	Folder         func(v FolderView) templ.Component
	Search         func(v SearchView) templ.Component
	AdminLogin     func(showError bool, csrfToken string) templ.Component
	AdminDashboard func(v AdminDashboardView) templ.Component
	AdminPageForm  func(v AdminPageFormView) templ.Component
	AdminImages    func(images []Image, csrfToken string) templ.Component
	AdminDocuments func(docs []Document, csrfToken string) templ.Component
	NotFound       func() templ.Component
	ServerError    func() templ.Component
}

// IndexView renders a blog index with its listing.
type IndexView struct {
	Site        SiteConfig
	Meta        PageMeta
	Index       BlogIndexPage
	Listing     Listing
	Tags        []string
	Breadcrumbs []PageRef
}

// PostView renders a single blog post. Index is nil when the post has no
// blog index ancestor.
type PostView struct {
	Site        SiteConfig
	Meta        PageMeta
	Post        BlogPage
	Index       *BlogIndexPage
	Breadcrumbs []PageRef
	Body        templ.Component
	JSONLD      string
}

// FolderView renders a folder, or the root, as a list of its live children.
type FolderView struct {
	Site        SiteConfig
	Meta        PageMeta
	Folder      Page
	Children    []Page
	Breadcrumbs []PageRef
}

// SearchView renders a page of search results.
type SearchView struct {
	Site   SiteConfig
	Meta   PageMeta
	Query  string
	Result *search.Result
	PageWindow
}

// AdminDashboardView lists the whole page tree.
type AdminDashboardView struct {
	Pages   []Page
	Message string
	CSRF    string
}

// AdminPageFormView renders the create/edit form of one page. Values holds
// the current form field values keyed by form field name.
type AdminPageFormView struct {
	Type          PageType
	ParentID      int64
	PageID        int64
	Values        map[string]string
	Errors        map[string]string
	ContentPanels []Panel
	PromotePanels []Panel
	Images        []Image
	Documents     []Document
	CSRF          string
}
