package blogs

// LinkTarget is a single resolvable link. Any combination of the three
// fields may be set; resolution order is fixed: page, document, external.
type LinkTarget struct {
	External string
	Page     *PageRef
	Document *DocumentRef
}

// ResolveLink returns the effective URL of l. An unset link resolves to "".
func ResolveLink(l LinkTarget) string {
	switch {
	case l.Page != nil:
		return l.Page.URL
	case l.Document != nil:
		return l.Document.URL
	default:
		return l.External
	}
}

// URL is shorthand for ResolveLink(l).
func (l LinkTarget) URL() string { return ResolveLink(l) }

// RelatedLink is a titled link owned by an index page or a blog page.
type RelatedLink struct {
	ID        int64
	SortOrder int
	Title     string
	LinkTarget
}

// CarouselItem is a captioned image or embed with a link, owned by a blog page.
type CarouselItem struct {
	ID        int64
	SortOrder int
	Image     *ImageRef
	EmbedURL  string
	Caption   string
	LinkTarget
}
