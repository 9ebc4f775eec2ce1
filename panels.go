package blogs

// PanelKind names the editor widget used for a field.
type PanelKind string

const (
	PanelField        PanelKind = "field"
	PanelMultiField   PanelKind = "multi_field"
	PanelInline       PanelKind = "inline"
	PanelPageChooser  PanelKind = "page_chooser"
	PanelDocChooser   PanelKind = "document_chooser"
	PanelImageChooser PanelKind = "image_chooser"
	PanelStream       PanelKind = "stream"
)

// Panel describes one editor panel. Multi-field and inline panels group
// Children; inline panels edit an ordered child collection.
type Panel struct {
	Field     string
	Kind      PanelKind
	Label     string
	ClassName string
	Children  []Panel
}

// linkPanels edit the three link fields of related links and carousel items.
var linkPanels = []Panel{
	{Field: "link_external", Kind: PanelField, Label: "External link"},
	{Field: "link_page", Kind: PanelPageChooser, Label: "Link page"},
	{Field: "link_document", Kind: PanelDocChooser, Label: "Link document"},
}

// RelatedLinkPanels edit one related link.
var RelatedLinkPanels = []Panel{
	{Field: "title", Kind: PanelField, Label: "Title"},
	{Kind: PanelMultiField, Label: "Link", Children: linkPanels},
}

// CarouselItemPanels edit one carousel item.
var CarouselItemPanels = []Panel{
	{Field: "image", Kind: PanelImageChooser, Label: "Image"},
	{Field: "embed_url", Kind: PanelField, Label: "Embed URL"},
	{Field: "caption", Kind: PanelField, Label: "Caption"},
	{Kind: PanelMultiField, Label: "Link", Children: linkPanels},
}

var commonPromotePanels = []Panel{
	{Kind: PanelMultiField, Label: "Common page configuration", Children: []Panel{
		{Field: "slug", Kind: PanelField, Label: "Slug"},
		{Field: "seo_title", Kind: PanelField, Label: "SEO title"},
		{Field: "live", Kind: PanelField, Label: "Published"},
		{Field: "search_description", Kind: PanelField, Label: "Search description"},
	}},
}

// ContentPanels returns the content tab layout of the page type.
func ContentPanels(t PageType) []Panel {
	switch t {
	case PageTypeBlogIndex:
		return []Panel{
			{Field: "title", Kind: PanelField, Label: "Title", ClassName: "full title"},
			{Field: "intro", Kind: PanelField, Label: "Intro", ClassName: "full"},
			{Field: "related_links", Kind: PanelInline, Label: "Related links", Children: RelatedLinkPanels},
		}
	case PageTypeBlog:
		return []Panel{
			{Field: "title", Kind: PanelField, Label: "Title", ClassName: "full title"},
			{Field: "date", Kind: PanelField, Label: "Post date"},
			{Field: "body", Kind: PanelStream, Label: "Body"},
			{Field: "carousel_items", Kind: PanelInline, Label: "Carousel items", Children: CarouselItemPanels},
			{Field: "related_links", Kind: PanelInline, Label: "Related links", Children: RelatedLinkPanels},
		}
	case PageTypeFolder:
		return []Panel{
			{Field: "title", Kind: PanelField, Label: "Title", ClassName: "full title"},
		}
	}
	return nil
}

// PromotePanels returns the promote tab layout of the page type.
func PromotePanels(t PageType) []Panel {
	switch t {
	case PageTypeBlog:
		return append(append([]Panel{}, commonPromotePanels...),
			Panel{Field: "feed_image", Kind: PanelImageChooser, Label: "Feed image"},
			Panel{Field: "tags", Kind: PanelField, Label: "Tags"},
		)
	case PageTypeBlogIndex, PageTypeFolder:
		return commonPromotePanels
	}
	return nil
}

// PanelFields flattens panels to the form field names they edit, in order.
func PanelFields(panels []Panel) []string {
	var out []string
	for _, p := range panels {
		if p.Kind == PanelMultiField {
			out = append(out, PanelFields(p.Children)...)
			continue
		}
		out = append(out, p.Field)
	}
	return out
}
