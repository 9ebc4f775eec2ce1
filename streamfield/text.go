package streamfield

import (
	"regexp"
	"strings"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
)

var htmlTagPattern = regexp.MustCompile(`<[a-zA-Z/][^>]*>`)

// HTMLToText converts editor HTML into readable Markdown-flavoured text for
// search indexing and feed summaries. Input without markup is returned trimmed.
func HTMLToText(s string) string {
	s = strings.TrimSpace(s)
	if s == "" || !htmlTagPattern.MatchString(s) {
		return s
	}
	md, err := htmltomarkdown.ConvertString(s)
	if err != nil {
		return strings.TrimSpace(htmlTagPattern.ReplaceAllString(s, " "))
	}
	return strings.TrimSpace(md)
}

// PlainText extracts the readable text of the stream, one block per paragraph.
// Document and image references contribute only their captions.
func PlainText(s Stream) string {
	var parts []string
	for _, b := range s {
		var text string
		switch v := b.Value.(type) {
		case CharValue:
			text = strings.TrimSpace(string(v))
		case RichTextValue:
			text = HTMLToText(string(v))
		case ImageValue:
			text = HTMLToText(v.Caption)
		case PullQuoteValue:
			text = strings.TrimSpace(v.Quote)
			if v.Attribution != "" {
				text += " - " + strings.TrimSpace(v.Attribution)
			}
		case AlignedHTMLValue:
			text = HTMLToText(v.HTML)
		}
		if text != "" {
			parts = append(parts, text)
		}
	}
	return strings.Join(parts, "\n\n")
}

// FirstText returns the text of the first intro block, falling back to the
// first paragraph. It is used as a teaser when a post has no description.
func FirstText(s Stream) string {
	for _, t := range []BlockType{Intro, Paragraph} {
		for _, b := range s.OfType(t) {
			if v, ok := b.Value.(RichTextValue); ok {
				if text := HTMLToText(string(v)); text != "" {
					return text
				}
			}
		}
	}
	return ""
}
