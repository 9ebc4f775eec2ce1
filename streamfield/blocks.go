// Package streamfield implements the ordered, heterogeneous content body of
// a blog post: a sequence of typed blocks drawn from a closed set, stored as
// JSON in the StreamField shape ([{"type": ..., "value": ..., "id": ...}]).
package streamfield

import (
	"fmt"

	"github.com/google/uuid"
)

// BlockType is the discriminator carried by every block in a stream.
type BlockType string

const (
	H2           BlockType = "h2"
	H3           BlockType = "h3"
	H4           BlockType = "h4"
	Intro        BlockType = "intro"
	Paragraph    BlockType = "paragraph"
	AlignedImage BlockType = "aligned_image"
	PullQuote    BlockType = "pullquote"
	AlignedHTML  BlockType = "aligned_html"
	Document     BlockType = "document"
)

// BlockTypes lists the closed variant set in editor order.
var BlockTypes = []BlockType{H2, H3, H4, Intro, Paragraph, AlignedImage, PullQuote, AlignedHTML, Document}

// kind groups block types that share a payload shape.
type kind int

const (
	kindUnknown kind = iota
	kindChar
	kindRichText
	kindImage
	kindPullQuote
	kindHTML
	kindDocument
)

func (t BlockType) kind() kind {
	switch t {
	case H2, H3, H4:
		return kindChar
	case Intro, Paragraph:
		return kindRichText
	case AlignedImage:
		return kindImage
	case PullQuote:
		return kindPullQuote
	case AlignedHTML:
		return kindHTML
	case Document:
		return kindDocument
	}
	return kindUnknown
}

// Valid reports whether t belongs to the closed variant set.
func (t BlockType) Valid() bool { return t.kind() != kindUnknown }

// Value is the payload of a block. It is implemented only by the payload
// types of this package.
type Value interface {
	kind() kind
}

// CharValue is plain single-line text (headings).
type CharValue string

// RichTextValue is editor-produced HTML.
type RichTextValue string

// DocumentValue references a document by id.
type DocumentValue int64

// ImageFormat is the wrap/width choice for an aligned image.
type ImageFormat string

const (
	ImageLeft  ImageFormat = "left"
	ImageRight ImageFormat = "right"
	ImageMid   ImageFormat = "mid"
	ImageFull  ImageFormat = "full"
)

// ImageFormats maps each choice to its editor label.
var ImageFormats = map[ImageFormat]string{
	ImageLeft:  "Wrap left",
	ImageRight: "Wrap right",
	ImageMid:   "Mid width",
	ImageFull:  "Full width",
}

// HTMLAlignment is the width choice for an aligned raw HTML block.
type HTMLAlignment string

const (
	HTMLNormal HTMLAlignment = "normal"
	HTMLFull   HTMLAlignment = "full"
)

// HTMLAlignments maps each choice to its editor label.
var HTMLAlignments = map[HTMLAlignment]string{
	HTMLNormal: "Normal",
	HTMLFull:   "Full width",
}

// ImageValue is an image with a rich-text caption and an alignment.
type ImageValue struct {
	Image     int64       `json:"image"`
	Caption   string      `json:"caption"`
	Alignment ImageFormat `json:"alignment"`
}

// PullQuoteValue is a quotation with its attribution.
type PullQuoteValue struct {
	Quote       string `json:"quote"`
	Attribution string `json:"attribution"`
}

// AlignedHTMLValue is raw HTML with an alignment.
type AlignedHTMLValue struct {
	HTML      string        `json:"html"`
	Alignment HTMLAlignment `json:"alignment"`
}

func (CharValue) kind() kind        { return kindChar }
func (RichTextValue) kind() kind    { return kindRichText }
func (DocumentValue) kind() kind    { return kindDocument }
func (ImageValue) kind() kind       { return kindImage }
func (PullQuoteValue) kind() kind   { return kindPullQuote }
func (AlignedHTMLValue) kind() kind { return kindHTML }

// Block is one typed unit of content.
type Block struct {
	ID    string
	Type  BlockType
	Value Value
}

// NewBlock returns a block of type t carrying v with a fresh id.
func NewBlock(t BlockType, v Value) Block {
	return Block{ID: uuid.NewString(), Type: t, Value: v}
}

// Validate checks that the block type is known, that the payload shape
// matches the type, and that choice fields hold an allowed value.
func (b Block) Validate() error {
	if !b.Type.Valid() {
		return fmt.Errorf("streamfield: unknown block type %q", b.Type)
	}
	if b.Value == nil {
		return fmt.Errorf("streamfield: block %q has no value", b.Type)
	}
	if b.Value.kind() != b.Type.kind() {
		return fmt.Errorf("streamfield: block %q cannot hold %T", b.Type, b.Value)
	}
	switch v := b.Value.(type) {
	case ImageValue:
		if _, ok := ImageFormats[v.Alignment]; !ok {
			return fmt.Errorf("streamfield: invalid image alignment %q", v.Alignment)
		}
	case AlignedHTMLValue:
		if _, ok := HTMLAlignments[v.Alignment]; !ok {
			return fmt.Errorf("streamfield: invalid html alignment %q", v.Alignment)
		}
	}
	return nil
}

// Stream is the ordered body of a post.
type Stream []Block

// Validate validates every block, reporting the first failure with its position.
func (s Stream) Validate() error {
	for i, b := range s {
		if err := b.Validate(); err != nil {
			return fmt.Errorf("block %d: %w", i, err)
		}
	}
	return nil
}

// OfType returns the blocks of type t in stream order.
func (s Stream) OfType(t BlockType) []Block {
	var out []Block
	for _, b := range s {
		if b.Type == t {
			out = append(out, b)
		}
	}
	return out
}

// DocumentIDs returns the ids referenced by document blocks.
func (s Stream) DocumentIDs() []int64 {
	var ids []int64
	for _, b := range s {
		if v, ok := b.Value.(DocumentValue); ok {
			ids = append(ids, int64(v))
		}
	}
	return ids
}

// ImageIDs returns the ids referenced by aligned image blocks.
func (s Stream) ImageIDs() []int64 {
	var ids []int64
	for _, b := range s {
		if v, ok := b.Value.(ImageValue); ok {
			ids = append(ids, v.Image)
		}
	}
	return ids
}
