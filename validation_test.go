package blogs

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eringen/blogs/streamfield"
)

func validationFields(t *testing.T, err error) map[string]string {
	t.Helper()
	var ve *ValidationError
	require.True(t, errors.As(err, &ve), "want *ValidationError, got %v", err)
	return ve.Fields
}

func TestValidator_PageForm(t *testing.T) {
	v := NewValidator()

	ok := pageForm{Type: "blog", Title: "Hello", Date: "2024-02-03"}
	assert.NoError(t, v.Validate(ok))

	tests := []struct {
		name  string
		form  pageForm
		field string
	}{
		{"missing title", pageForm{Type: "blog"}, "title"},
		{"bad type", pageForm{Type: "root", Title: "x"}, "type"},
		{"bad date", pageForm{Type: "blog", Title: "x", Date: "03/02/2024"}, "date"},
		{"negative image", pageForm{Type: "blog", Title: "x", FeedImageID: -1}, "feed_image"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fields := validationFields(t, v.Validate(tt.form))
			assert.Contains(t, fields, tt.field)
		})
	}
}

func TestPageForm_RelatedLinks(t *testing.T) {
	v := NewValidator()

	f := pageForm{RelatedLinks: `[{"title":"Docs","link_external":"https://go.dev"},{"title":"Home","link_page":3,"link_document":5}]`}
	links, err := f.relatedLinks(v)
	require.NoError(t, err)
	require.Len(t, links, 2)
	assert.Equal(t, "https://go.dev", links[0].URL())
	require.NotNil(t, links[1].Page)
	assert.Equal(t, int64(3), links[1].Page.ID)
	require.NotNil(t, links[1].Document)
	assert.Equal(t, 1, links[1].SortOrder)

	_, err = pageForm{RelatedLinks: `[{"title":"","link_external":"not a url"}]`}.relatedLinks(v)
	fields := validationFields(t, err)
	assert.Equal(t, "is required", fields["related_links[0].title"])
	assert.Equal(t, "must be a valid URL", fields["related_links[0].link_external"])

	_, err = pageForm{RelatedLinks: `{`}.relatedLinks(v)
	assert.Contains(t, validationFields(t, err), "related_links")

	links, err = pageForm{}.relatedLinks(v)
	require.NoError(t, err)
	assert.Empty(t, links)
}

func TestPageForm_BlogPage(t *testing.T) {
	v := NewValidator()
	f := pageForm{
		Type:          "blog",
		Title:         "Hello",
		Live:          "on",
		Date:          "2024-02-03",
		Tags:          "go, web, go",
		FeedImageID:   7,
		Body:          `[{"type":"h2","value":"Intro","id":"a"}]`,
		CarouselItems: `[{"image":7,"caption":"cap","embed_url":"https://video.example/1"}]`,
	}
	post, err := f.blogPage(v)
	require.NoError(t, err)
	assert.True(t, post.Live)
	assert.Equal(t, PageTypeBlog, post.Type)
	assert.Equal(t, []string{"go", "web"}, post.Tags)
	assert.Equal(t, "2024-02-03", post.Date.Format(dateLayout))
	require.Len(t, post.Body, 1)
	assert.Equal(t, streamfield.CharValue("Intro"), post.Body[0].Value)
	require.NotNil(t, post.FeedImage)
	require.Len(t, post.CarouselItems, 1)
	assert.Equal(t, int64(7), post.CarouselItems[0].Image.ID)

	f.Date = ""
	_, err = f.blogPage(v)
	assert.Contains(t, validationFields(t, err), "date")

	f.Date = "2024-02-03"
	f.Body = `[{"type":"marquee","value":"x"}]`
	_, err = f.blogPage(v)
	assert.Contains(t, validationFields(t, err), "body")
}

func TestValidationError_Message(t *testing.T) {
	err := &ValidationError{Fields: map[string]string{"title": "is required", "date": "is invalid"}}
	assert.Equal(t, "validation failed: date is invalid; title is required", err.Error())
}
