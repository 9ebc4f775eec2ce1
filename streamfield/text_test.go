package streamfield

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHTMLToText(t *testing.T) {
	assert.Equal(t, "", HTMLToText("   "))
	assert.Equal(t, "no markup here", HTMLToText("  no markup here "))

	got := HTMLToText("<p>Hello <strong>world</strong></p>")
	assert.Contains(t, got, "Hello")
	assert.Contains(t, got, "world")
	assert.NotContains(t, got, "<p>")
}

func TestPlainText(t *testing.T) {
	got := PlainText(mixedStream())

	assert.Contains(t, got, "Getting started")
	assert.Contains(t, got, "Body text")
	assert.Contains(t, got, "Simplicity is prerequisite for reliability. - Dijkstra")
	assert.Contains(t, got, "A cat")
	assert.NotContains(t, got, "<em>")
}

func TestFirstText(t *testing.T) {
	assert.Contains(t, FirstText(mixedStream()), "intro")

	onlyParagraph := Stream{
		{Type: H2, Value: CharValue("Heading")},
		{Type: Paragraph, Value: RichTextValue("<p>First paragraph</p>")},
	}
	assert.Equal(t, "First paragraph", FirstText(onlyParagraph))

	assert.Equal(t, "", FirstText(Stream{{Type: H2, Value: CharValue("x")}}))
}
