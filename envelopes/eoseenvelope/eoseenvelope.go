// Package eoseenvelope implements the EOSE envelope, the marker a relay sends
// when the stored events of a subscription have all been delivered.
package eoseenvelope

import (
	"renote.lol/codec"
	"renote.lol/envelopes"
	"renote.lol/subscriptionid"
)

const L = envelopes.LEose

type T struct {
	Subscription *subscriptionid.T
}

var _ codec.Envelope = (*T)(nil)

func New() *T { return &T{} }

func NewFrom(id *subscriptionid.T) *T { return &T{Subscription: id} }

func (en *T) Label() string { return L }

func (en *T) Marshal(dst []byte) (b []byte) {
	b = envelopes.Marshal(dst, L, func(bst []byte) (o []byte) {
		o = bst
		o = append(o, ',')
		o = en.Subscription.Marshal(o)
		return
	})
	return
}

func (en *T) Unmarshal(b []byte) (r []byte, err error) {
	r = b
	en.Subscription = &subscriptionid.T{}
	if r, err = en.Subscription.Unmarshal(r); err != nil {
		return
	}
	if r, err = envelopes.SkipToTheEnd(r); err != nil {
		return
	}
	return
}

// Parse decodes the remainder of an EOSE envelope after Identify has
// consumed the label.
func Parse(b []byte) (t *T, rem []byte, err error) {
	t = New()
	if rem, err = t.Unmarshal(b); err != nil {
		return
	}
	return
}
