// Package noticeenvelope implements the NOTICE envelope, a human readable
// message from a relay.
package noticeenvelope

import (
	"renote.lol/codec"
	"renote.lol/envelopes"
	"renote.lol/text"
)

const L = envelopes.LNotice

type T struct {
	Message []byte
}

var _ codec.Envelope = (*T)(nil)

func New() *T { return &T{} }

func NewFrom[V string | []byte](msg V) *T { return &T{Message: []byte(msg)} }

func (en *T) Label() string { return L }

func (en *T) MessageString() string { return string(en.Message) }

func (en *T) Marshal(dst []byte) (b []byte) {
	b = envelopes.Marshal(dst, L, func(bst []byte) (o []byte) {
		o = bst
		o = append(o, ',')
		o = text.AppendQuote(o, en.Message, text.NostrEscape)
		return
	})
	return
}

func (en *T) Unmarshal(b []byte) (r []byte, err error) {
	r = b
	if en.Message, r, err = text.UnmarshalQuoted(r); err != nil {
		return
	}
	if r, err = envelopes.SkipToTheEnd(r); err != nil {
		return
	}
	return
}

// Parse decodes the remainder of a NOTICE envelope after Identify has
// consumed the label.
func Parse(b []byte) (t *T, rem []byte, err error) {
	t = New()
	if rem, err = t.Unmarshal(b); err != nil {
		return
	}
	return
}
