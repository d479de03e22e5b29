// Package closedenvelope implements the CLOSED envelope, a relay's
// notification that it has ended a subscription, with a machine readable
// reason.
package closedenvelope

import (
	"renote.lol/codec"
	"renote.lol/envelopes"
	"renote.lol/subscriptionid"
	"renote.lol/text"
)

const L = envelopes.LClosed

type T struct {
	Subscription *subscriptionid.T
	Reason       []byte
}

var _ codec.Envelope = (*T)(nil)

func New() *T { return &T{} }

func NewFrom(id *subscriptionid.T, reason []byte) *T {
	return &T{Subscription: id, Reason: reason}
}

func (en *T) Label() string { return L }

func (en *T) ReasonString() string { return string(en.Reason) }

func (en *T) Marshal(dst []byte) (b []byte) {
	b = envelopes.Marshal(dst, L, func(bst []byte) (o []byte) {
		o = bst
		o = append(o, ',')
		o = en.Subscription.Marshal(o)
		o = append(o, ',')
		o = text.AppendQuote(o, en.Reason, text.NostrEscape)
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
	if en.Reason, r, err = text.UnmarshalQuoted(r); err != nil {
		return
	}
	if r, err = envelopes.SkipToTheEnd(r); err != nil {
		return
	}
	return
}

// Parse decodes the remainder of a CLOSED envelope after Identify has
// consumed the label.
func Parse(b []byte) (t *T, rem []byte, err error) {
	t = New()
	if rem, err = t.Unmarshal(b); err != nil {
		return
	}
	return
}
