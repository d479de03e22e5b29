// Package tag provides an implementation of a nostr tag list, an array of
// strings with a usually single letter first "key" field, including methods to
// compare, marshal/unmarshal and access elements with their proper semantics.
package tag

import (
	"bytes"

	"golang.org/x/exp/constraints"

	"renote.lol/errorf"
	"renote.lol/text"
)

// The tag position meanings, so they are clear when reading.
const (
	Key = iota
	Value
	Relay
)

// T is a list of strings with a literal ordering.
//
// Not a set, there can be repeating elements.
type T struct {
	field [][]byte
}

// New creates a new tag.T from a variadic parameter that can be either string
// or byte slice.
func New[V string | []byte](fields ...V) (t *T) {
	t = &T{field: make([][]byte, len(fields))}
	for i, field := range fields {
		t.field[i] = []byte(field)
	}
	return
}

// NewWithCap creates a new empty tag.T with a pre-allocated capacity for some
// number of fields.
func NewWithCap[V constraints.Integer](c V) *T { return &T{make([][]byte, 0, c)} }

// FromBytesSlice creates a tag.T from a slice of slice of bytes.
func FromBytesSlice(fields ...[]byte) (t *T) {
	return &T{field: fields}
}

// S returns a field of a tag.T as a string.
func (t *T) S(i int) (s string) {
	if t == nil || t.Len() <= i {
		return
	}
	return string(t.field[i])
}

// B returns a field of a tag.T as a byte slice.
func (t *T) B(i int) (b []byte) {
	if t == nil || t.Len() <= i {
		return
	}
	return t.field[i]
}

// Len returns the number of elements in a tag.T.
func (t *T) Len() int {
	if t == nil {
		return 0
	}
	return len(t.field)
}

// Key returns the first element of the tag.
func (t *T) Key() []byte {
	if t.Len() > Key {
		return t.field[Key]
	}
	return nil
}

// Value returns the second element of the tag.
func (t *T) Value() []byte {
	if t.Len() > Value {
		return t.field[Value]
	}
	return nil
}

// Append adds fields to the end of the tag.
func (t *T) Append(b ...[]byte) (tt *T) {
	tt = t
	if tt == nil {
		tt = &T{}
	}
	tt.field = append(tt.field, b...)
	return
}

// Clone makes a new tag.T with copies of the same members.
func (t *T) Clone() (c *T) {
	if t == nil {
		return nil
	}
	c = &T{field: make([][]byte, 0, len(t.field))}
	for _, f := range t.field {
		b := make([]byte, len(f))
		copy(b, f)
		c.field = append(c.field, b)
	}
	return
}

// Contains returns true if the provided element is found in the tag.
func (t *T) Contains(s []byte) bool {
	if t == nil {
		return false
	}
	for i := range t.field {
		if bytes.Equal(t.field[i], s) {
			return true
		}
	}
	return false
}

// Equal checks that the provided tag matches exactly.
func (t *T) Equal(ta *T) bool {
	if t == nil || ta == nil {
		return t == nil && ta == nil
	}
	if len(t.field) != len(ta.field) {
		return false
	}
	for i := range t.field {
		if !bytes.Equal(t.field[i], ta.field[i]) {
			return false
		}
	}
	return true
}

// ToSliceOfBytes renders a tag.T as a slice of slice of bytes.
func (t *T) ToSliceOfBytes() (b [][]byte) {
	if t == nil {
		return [][]byte{}
	}
	b = make([][]byte, t.Len())
	for i := range t.field {
		b[i] = t.field[i]
	}
	return
}

// ToStringSlice converts a tag.T to a slice of strings.
func (t *T) ToStringSlice() (b []string) {
	b = make([]string, 0, len(t.field))
	for i := range t.field {
		b = append(b, string(t.field[i]))
	}
	return
}

// Marshal encodes a tag.T as a standard minified JSON array of strings.
func (t *T) Marshal(dst []byte) (b []byte) {
	if t == nil {
		return append(dst, "[]"...)
	}
	dst = append(dst, '[')
	for i, s := range t.field {
		if i > 0 {
			dst = append(dst, ',')
		}
		dst = text.AppendQuote(dst, s, text.NostrEscape)
	}
	dst = append(dst, ']')
	return dst
}

// Unmarshal decodes a standard minified JSON array of strings to a tag.T,
// returning the remainder after the closing bracket.
func (t *T) Unmarshal(b []byte) (r []byte, err error) {
	var inQuotes, openedBracket bool
	var quoteStart int
	t.field = t.field[:0]
	for i := 0; i < len(b); i++ {
		if !openedBracket {
			if b[i] == '[' {
				openedBracket = true
				continue
			}
			return nil, errorf.E("tag: expected opening bracket, got '%c'", b[i])
		}
		if !inQuotes {
			switch b[i] {
			case '"':
				inQuotes, quoteStart = true, i+1
			case ']':
				return b[i+1:], nil
			case ',', ' ':
			default:
				return nil, errorf.E(
					"tag: unexpected character '%c' outside quotes", b[i])
			}
		} else {
			if b[i] == '\\' && i < len(b)-1 {
				i++
			} else if b[i] == '"' {
				inQuotes = false
				t.field = append(t.field, text.NostrUnescape(b[quoteStart:i]))
			}
		}
	}
	if inQuotes {
		return nil, errorf.E("tag: unclosed quote")
	}
	return nil, errorf.E("tag: unclosed bracket")
}
