// Package eventenvelope implements the two forms of the EVENT envelope: the
// Submission a client sends to publish an event, and the Result a relay sends
// back for a subscription.
package eventenvelope

import (
	"renote.lol/codec"
	"renote.lol/envelopes"
	"renote.lol/event"
	"renote.lol/subscriptionid"
)

const L = envelopes.LEvent

// Submission is a request from a client for a relay to store an event.
type Submission struct {
	T *event.T
}

var _ codec.Envelope = (*Submission)(nil)

func NewSubmission() *Submission { return &Submission{T: &event.T{}} }

func NewSubmissionWith(ev *event.T) *Submission { return &Submission{T: ev} }

func (en *Submission) Label() string { return L }

func (en *Submission) Marshal(dst []byte) (b []byte) {
	b = envelopes.Marshal(dst, L, func(bst []byte) (o []byte) {
		o = bst
		o = append(o, ',')
		o = en.T.Marshal(o)
		return
	})
	return
}

func (en *Submission) Unmarshal(b []byte) (r []byte, err error) {
	r = b
	if en.T == nil {
		en.T = &event.T{}
	}
	if r, err = en.T.Unmarshal(r); err != nil {
		return
	}
	if r, err = envelopes.SkipToTheEnd(r); err != nil {
		return
	}
	return
}

// Result is an event matching a filter associated with a subscription, sent
// from a relay to a client.
type Result struct {
	Subscription *subscriptionid.T
	Event        *event.T
}

var _ codec.Envelope = (*Result)(nil)

func NewResult() *Result { return &Result{} }

func NewResultWith[V string | []byte](s V,
	ev *event.T) (res *Result, err error) {
	var sid *subscriptionid.T
	if sid, err = subscriptionid.New(s); err != nil {
		return
	}
	res = &Result{Subscription: sid, Event: ev}
	return
}

func (en *Result) Label() string { return L }

func (en *Result) Marshal(dst []byte) (b []byte) {
	b = envelopes.Marshal(dst, L, func(bst []byte) (o []byte) {
		o = bst
		o = append(o, ',')
		o = en.Subscription.Marshal(o)
		o = append(o, ',')
		o = en.Event.Marshal(o)
		return
	})
	return
}

func (en *Result) Unmarshal(b []byte) (r []byte, err error) {
	r = b
	if en.Subscription, err = subscriptionid.New([]byte{0}); err != nil {
		return
	}
	if r, err = en.Subscription.Unmarshal(r); err != nil {
		return
	}
	en.Event = &event.T{}
	if r, err = en.Event.Unmarshal(r); err != nil {
		return
	}
	if r, err = envelopes.SkipToTheEnd(r); err != nil {
		return
	}
	return
}

// ParseResult decodes the remainder of an EVENT envelope after Identify has
// consumed the label.
func ParseResult(b []byte) (t *Result, rem []byte, err error) {
	t = NewResult()
	if rem, err = t.Unmarshal(b); err != nil {
		return
	}
	return
}
