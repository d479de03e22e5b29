// Package closeenvelope implements the CLOSE envelope, terminating a
// subscription by its id.
package closeenvelope

import (
	"renote.lol/codec"
	"renote.lol/envelopes"
	"renote.lol/subscriptionid"
)

const L = envelopes.LClose

type T struct {
	ID *subscriptionid.T
}

var _ codec.Envelope = (*T)(nil)

func New() *T { return &T{} }

func NewFrom(id *subscriptionid.T) *T { return &T{ID: id} }

func (en *T) Label() string { return L }

func (en *T) Marshal(dst []byte) (b []byte) {
	b = envelopes.Marshal(dst, L, func(bst []byte) (o []byte) {
		o = bst
		o = append(o, ',')
		o = en.ID.Marshal(o)
		return
	})
	return
}

func (en *T) Unmarshal(b []byte) (r []byte, err error) {
	r = b
	en.ID = &subscriptionid.T{}
	if r, err = en.ID.Unmarshal(r); err != nil {
		return
	}
	if r, err = envelopes.SkipToTheEnd(r); err != nil {
		return
	}
	return
}
