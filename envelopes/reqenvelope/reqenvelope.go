// Package reqenvelope implements the REQ envelope, a client's request for a
// relay to open a subscription delivering stored and new events matching a
// list of filters.
package reqenvelope

import (
	"renote.lol/codec"
	"renote.lol/envelopes"
	"renote.lol/filters"
	"renote.lol/subscriptionid"
)

const L = envelopes.LReq

type T struct {
	Subscription *subscriptionid.T
	Filters      *filters.T
}

var _ codec.Envelope = (*T)(nil)

func New() *T {
	return &T{Subscription: subscriptionid.NewStd(), Filters: filters.New()}
}

func NewFrom(id *subscriptionid.T, ff *filters.T) *T {
	return &T{Subscription: id, Filters: ff}
}

func (en *T) Label() string { return L }

func (en *T) Marshal(dst []byte) (b []byte) {
	b = envelopes.Marshal(dst, L, func(bst []byte) (o []byte) {
		o = bst
		o = append(o, ',')
		o = en.Subscription.Marshal(o)
		o = append(o, ',')
		o = en.Filters.Marshal(o)
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
	// the filters are left in their JSON form, a client only sends REQ.
	if r, err = envelopes.SkipToTheEnd(r); err != nil {
		return
	}
	return
}
