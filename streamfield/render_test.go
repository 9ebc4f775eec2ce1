package streamfield

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAssets struct {
	images map[int64]Image
	docs   map[int64]DocumentLink
}

func (f fakeAssets) Image(_ context.Context, id int64) (Image, bool) {
	img, ok := f.images[id]
	return img, ok
}

func (f fakeAssets) Document(_ context.Context, id int64) (DocumentLink, bool) {
	doc, ok := f.docs[id]
	return doc, ok
}

func render(t *testing.T, s Stream, assets Assets) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, Render(s, assets).Render(context.Background(), &buf))
	return buf.String()
}

func TestRender_AllBlocks(t *testing.T) {
	assets := fakeAssets{
		images: map[int64]Image{7: {URL: "/public/uploads/cat.jpg", Alt: "Cat", Width: 800, Height: 600}},
		docs:   map[int64]DocumentLink{3: {URL: "/documents/3/report.pdf", Title: "Report"}},
	}
	got := render(t, mixedStream(), assets)

	assert.Contains(t, got, "<h2>Getting started</h2>")
	assert.Contains(t, got, `<div class="intro"><p>An <em>intro</em>.</p></div>`)
	assert.Contains(t, got, `<figure class="image-left"><img src="/public/uploads/cat.jpg" alt="Cat" width="800" height="600" loading="lazy">`)
	assert.Contains(t, got, "<figcaption><p>A cat</p></figcaption>")
	assert.Contains(t, got, `<div class="rich-text"><p>Body text</p></div>`)
	assert.Contains(t, got, "<cite>Dijkstra</cite>")
	assert.Contains(t, got, "<h3>Details</h3>")
	assert.Contains(t, got, `<div class="html-full"><iframe src="x"></iframe></div>`)
	assert.Contains(t, got, `<a href="/documents/3/report.pdf">Report</a>`)
	assert.Contains(t, got, "<h4>Fin</h4>")

	// Blocks render in stream order.
	assert.Less(t, strings.Index(got, "<h2>"), strings.Index(got, "<h3>"))
	assert.Less(t, strings.Index(got, "<h3>"), strings.Index(got, "<h4>"))
}

func TestRender_EscapesPlainText(t *testing.T) {
	got := render(t, Stream{
		{Type: H2, Value: CharValue("<script>alert(1)</script>")},
		{Type: PullQuote, Value: PullQuoteValue{Quote: "a < b", Attribution: "\"me\""}},
	}, nil)

	assert.NotContains(t, got, "<script>")
	assert.Contains(t, got, "&lt;script&gt;")
	assert.Contains(t, got, "a &lt; b")
	assert.Contains(t, got, "&#34;me&#34;")
}

func TestRender_MissingAssets(t *testing.T) {
	got := render(t, Stream{
		{Type: AlignedImage, Value: ImageValue{Image: 99, Alignment: ImageMid}},
		{Type: Document, Value: DocumentValue(99)},
	}, fakeAssets{})

	assert.Equal(t, `<figure class="image-mid"></figure>`, got)
}
