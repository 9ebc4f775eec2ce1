package blogs

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPanelFields(t *testing.T) {
	assert.Equal(t,
		[]string{"title", "date", "body", "carousel_items", "related_links"},
		PanelFields(ContentPanels(PageTypeBlog)))
	assert.Equal(t,
		[]string{"slug", "seo_title", "live", "search_description", "feed_image", "tags"},
		PanelFields(PromotePanels(PageTypeBlog)))
	assert.Equal(t,
		[]string{"title", "intro", "related_links"},
		PanelFields(ContentPanels(PageTypeBlogIndex)))
	assert.Nil(t, ContentPanels(PageTypeRoot))
}

func TestPromotePanelsDoesNotAlias(t *testing.T) {
	blog := PromotePanels(PageTypeBlog)
	index := PromotePanels(PageTypeBlogIndex)
	assert.Len(t, index, 1)
	assert.Len(t, blog, 3)
}

// Every panel must edit a field the admin form accepts.
func TestPanelsMatchPageForm(t *testing.T) {
	accepted := map[string]bool{}
	ft := reflect.TypeOf(pageForm{})
	for i := 0; i < ft.NumField(); i++ {
		accepted[ft.Field(i).Tag.Get("form")] = true
	}
	for _, typ := range []PageType{PageTypeFolder, PageTypeBlogIndex, PageTypeBlog} {
		fields := append(PanelFields(ContentPanels(typ)), PanelFields(PromotePanels(typ))...)
		for _, f := range fields {
			assert.True(t, accepted[f], "%s panel field %q not accepted by the form", typ, f)
		}
	}
}
