package streamfield

import (
	"bytes"
	"context"
	"html"
	"io"
	"strconv"

	"github.com/a-h/templ"
)

// Image is the display data of a referenced image.
type Image struct {
	URL    string
	Alt    string
	Width  int
	Height int
}

// DocumentLink is the display data of a referenced document.
type DocumentLink struct {
	URL   string
	Title string
}

// Assets resolves image and document references while rendering.
// A false result renders the block without the missing asset.
type Assets interface {
	Image(ctx context.Context, id int64) (Image, bool)
	Document(ctx context.Context, id int64) (DocumentLink, bool)
}

// Render returns a templ.Component that writes the stream as HTML.
// Rich text and raw HTML payloads are trusted editor output and written as is.
func Render(s Stream, assets Assets) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var buf bytes.Buffer
		for _, b := range s {
			renderBlock(ctx, &buf, b, assets)
		}
		_, err := w.Write(buf.Bytes())
		return err
	})
}

func renderBlock(ctx context.Context, buf *bytes.Buffer, b Block, assets Assets) {
	switch v := b.Value.(type) {
	case CharValue:
		tag := string(b.Type)
		buf.WriteString("<" + tag + ">" + html.EscapeString(string(v)) + "</" + tag + ">")
	case RichTextValue:
		class := "rich-text"
		if b.Type == Intro {
			class = "intro"
		}
		buf.WriteString(`<div class="` + class + `">` + string(v) + "</div>")
	case ImageValue:
		buf.WriteString(`<figure class="image-` + html.EscapeString(string(v.Alignment)) + `">`)
		if assets != nil {
			if img, ok := assets.Image(ctx, v.Image); ok {
				buf.WriteString(`<img src="` + html.EscapeString(img.URL) + `" alt="` + html.EscapeString(img.Alt) + `"`)
				if img.Width > 0 && img.Height > 0 {
					buf.WriteString(` width="` + strconv.Itoa(img.Width) + `" height="` + strconv.Itoa(img.Height) + `"`)
				}
				buf.WriteString(` loading="lazy">`)
			}
		}
		if v.Caption != "" {
			buf.WriteString("<figcaption>" + v.Caption + "</figcaption>")
		}
		buf.WriteString("</figure>")
	case PullQuoteValue:
		buf.WriteString(`<blockquote class="pullquote"><p>` + html.EscapeString(v.Quote) + "</p>")
		if v.Attribution != "" {
			buf.WriteString("<cite>" + html.EscapeString(v.Attribution) + "</cite>")
		}
		buf.WriteString("</blockquote>")
	case AlignedHTMLValue:
		buf.WriteString(`<div class="html-` + html.EscapeString(string(v.Alignment)) + `">` + v.HTML + "</div>")
	case DocumentValue:
		if assets == nil {
			return
		}
		doc, ok := assets.Document(ctx, int64(v))
		if !ok {
			return
		}
		buf.WriteString(`<p class="document"><a href="` + html.EscapeString(doc.URL) + `">` + html.EscapeString(doc.Title) + "</a></p>")
	}
}
