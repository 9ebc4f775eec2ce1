package blogs

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolveLink(t *testing.T) {
	page := &PageRef{ID: 4, Title: "About", URL: "/about/"}
	doc := &DocumentRef{ID: 2, Title: "CV", URL: "/documents/2/cv.pdf"}

	tests := []struct {
		name string
		link LinkTarget
		want string
	}{
		{"nothing set", LinkTarget{}, ""},
		{"external only", LinkTarget{External: "https://example.com/x?y=1"}, "https://example.com/x?y=1"},
		{"document only", LinkTarget{Document: doc}, "/documents/2/cv.pdf"},
		{"page only", LinkTarget{Page: page}, "/about/"},
		{"page beats document", LinkTarget{Page: page, Document: doc}, "/about/"},
		{"page beats external", LinkTarget{Page: page, External: "https://example.com"}, "/about/"},
		{"document beats external", LinkTarget{Document: doc, External: "https://example.com"}, "/documents/2/cv.pdf"},
		{"all set", LinkTarget{Page: page, Document: doc, External: "https://example.com"}, "/about/"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ResolveLink(tt.link))
			assert.Equal(t, tt.want, tt.link.URL())
		})
	}
}

func TestEmbeddedLinkTarget(t *testing.T) {
	rl := RelatedLink{Title: "Docs", LinkTarget: LinkTarget{External: "https://go.dev"}}
	assert.Equal(t, "https://go.dev", rl.URL())

	ci := CarouselItem{Caption: "Home", LinkTarget: LinkTarget{Page: &PageRef{URL: "/"}}}
	assert.Equal(t, "/", ci.URL())
}
