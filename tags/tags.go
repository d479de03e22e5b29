// Package tags implements the list of tag lists attached to a nostr event,
// with ordering and no uniqueness constraint (not a set).
package tags

import (
	"renote.lol/errorf"
	"renote.lol/tag"
)

type T struct {
	t []*tag.T
}

func New(fields ...*tag.T) (t *T) {
	t = &T{}
	t.t = append(t.t, fields...)
	return
}

func NewWithCap(c int) (t *T) {
	return &T{t: make([]*tag.T, 0, c)}
}

func (t *T) Len() (l int) {
	if t == nil {
		return
	}
	return len(t.t)
}

// N returns the tag at the given index, or an empty tag if out of bounds.
func (t *T) N(i int) (tt *tag.T) {
	if t == nil || len(t.t) <= i {
		return tag.NewWithCap(0)
	}
	return t.t[i]
}

// Value returns the underlying list of tags.
func (t *T) Value() (tt []*tag.T) {
	if t == nil {
		return []*tag.T{}
	}
	return t.t
}

// AppendTags adds tags to the end of the list.
func (t *T) AppendTags(ttt ...*tag.T) (tt *T) {
	tt = t
	if tt == nil {
		tt = NewWithCap(len(ttt))
	}
	tt.t = append(tt.t, ttt...)
	return
}

// GetFirst gets the first tag in tags whose key matches.
func (t *T) GetFirst(key []byte) *tag.T {
	if t == nil {
		return nil
	}
	for _, v := range t.t {
		if string(v.Key()) == string(key) {
			return v
		}
	}
	return nil
}

func (t *T) Clone() (c *T) {
	if t == nil {
		return nil
	}
	c = &T{t: make([]*tag.T, len(t.t))}
	for i, field := range t.t {
		c.t[i] = field.Clone()
	}
	return
}

func (t *T) Equal(ta *T) bool {
	if t.Len() != ta.Len() {
		return false
	}
	for i := range t.t {
		if !t.t[i].Equal(ta.t[i]) {
			return false
		}
	}
	return true
}

// ToStringSlice converts the tags to a slice of slices of strings.
func (t *T) ToStringSlice() (b [][]string) {
	b = make([][]string, 0, len(t.t))
	for i := range t.t {
		b = append(b, t.t[i].ToStringSlice())
	}
	return
}

// Marshal appends the JSON form of the tag list to dst. String escaping is as
// described in RFC8259.
func (t *T) Marshal(dst []byte) (b []byte) {
	b = dst
	b = append(b, '[')
	if t != nil {
		for i, s := range t.t {
			if i > 0 {
				b = append(b, ',')
			}
			b = s.Marshal(b)
		}
	}
	b = append(b, ']')
	return
}

// Unmarshal decodes a JSON array of arrays of strings into the tags,
// returning the remainder after the closing bracket.
func (t *T) Unmarshal(b []byte) (r []byte, err error) {
	r = b
	var opened bool
	for len(r) > 0 {
		switch r[0] {
		case '[':
			if !opened {
				opened = true
				r = r[1:]
				continue
			}
			tt := &tag.T{}
			if r, err = tt.Unmarshal(r); err != nil {
				return
			}
			t.t = append(t.t, tt)
		case ',', ' ':
			r = r[1:]
		case ']':
			r = r[1:]
			return
		default:
			return nil, errorf.E(
				"tags: unexpected character '%c' in tag list", r[0])
		}
	}
	return
}
