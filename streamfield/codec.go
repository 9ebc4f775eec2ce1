package streamfield

import (
	"bytes"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
)

// rawBlock is the wire shape of a single block.
type rawBlock struct {
	Type  BlockType       `json:"type"`
	Value json.RawMessage `json:"value"`
	ID    string          `json:"id,omitempty"`
}

// MarshalJSON encodes the block as {"type", "value", "id"}.
func (b Block) MarshalJSON() ([]byte, error) {
	if err := b.Validate(); err != nil {
		return nil, err
	}
	value, err := json.Marshal(b.Value)
	if err != nil {
		return nil, fmt.Errorf("streamfield: encode %q value: %w", b.Type, err)
	}
	return json.Marshal(rawBlock{Type: b.Type, Value: value, ID: b.ID})
}

// UnmarshalJSON decodes a block, choosing the payload type from its "type".
func (b *Block) UnmarshalJSON(data []byte) error {
	var raw rawBlock
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("streamfield: decode block: %w", err)
	}
	value, err := decodeValue(raw.Type, raw.Value)
	if err != nil {
		return err
	}
	decoded := Block{ID: raw.ID, Type: raw.Type, Value: value}
	if err := decoded.Validate(); err != nil {
		return err
	}
	*b = decoded
	return nil
}

func decodeValue(t BlockType, data json.RawMessage) (Value, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("streamfield: block %q has no value", t)
	}
	var (
		v   Value
		err error
	)
	switch t.kind() {
	case kindChar:
		var s CharValue
		err = json.Unmarshal(data, &s)
		v = s
	case kindRichText:
		var s RichTextValue
		err = json.Unmarshal(data, &s)
		v = s
	case kindDocument:
		var id DocumentValue
		err = json.Unmarshal(data, &id)
		v = id
	case kindImage:
		var img ImageValue
		err = json.Unmarshal(data, &img)
		v = img
	case kindPullQuote:
		var q PullQuoteValue
		err = json.Unmarshal(data, &q)
		v = q
	case kindHTML:
		var h AlignedHTMLValue
		err = json.Unmarshal(data, &h)
		v = h
	default:
		return nil, fmt.Errorf("streamfield: unknown block type %q", t)
	}
	if err != nil {
		return nil, fmt.Errorf("streamfield: decode %q value: %w", t, err)
	}
	return v, nil
}

// Marshal encodes the stream. An empty stream encodes as [].
func (s Stream) Marshal() ([]byte, error) {
	if len(s) == 0 {
		return []byte("[]"), nil
	}
	return json.Marshal([]Block(s))
}

// MarshalJSON encodes a nil stream as [] rather than null.
func (s Stream) MarshalJSON() ([]byte, error) {
	return s.Marshal()
}

// Parse decodes a stream. Empty input and JSON null yield an empty stream.
func Parse(data []byte) (Stream, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil, nil
	}
	var blocks []Block
	if err := json.Unmarshal(data, &blocks); err != nil {
		return nil, err
	}
	return Stream(blocks), nil
}

// Value implements driver.Valuer so a stream can be written to a TEXT column.
func (s Stream) Value() (driver.Value, error) {
	data, err := s.Marshal()
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

// Scan implements sql.Scanner.
func (s *Stream) Scan(src any) error {
	var data []byte
	switch v := src.(type) {
	case nil:
		*s = nil
		return nil
	case string:
		data = []byte(v)
	case []byte:
		data = v
	default:
		return errors.New("streamfield: unsupported scan source")
	}
	parsed, err := Parse(data)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}
