// Package okenvelope implements the OK envelope, the relay's acceptance or
// rejection response to an EVENT submission.
package okenvelope

import (
	"renote.lol/codec"
	"renote.lol/envelopes"
	"renote.lol/errorf"
	"renote.lol/eventid"
	"renote.lol/hex"
	"renote.lol/sha256"
	"renote.lol/text"
)

const L = envelopes.LOK

type T struct {
	EventID *eventid.T
	OK      bool
	Reason  []byte
}

var _ codec.Envelope = (*T)(nil)

func New() *T { return &T{} }

func NewFrom[V string | []byte](eid *eventid.T, ok bool, msg ...V) *T {
	var m []byte
	if len(msg) > 0 {
		m = []byte(msg[0])
	}
	return &T{EventID: eid, OK: ok, Reason: m}
}

func (en *T) Label() string { return L }

func (en *T) ReasonString() string { return string(en.Reason) }

func (en *T) Marshal(dst []byte) (b []byte) {
	b = envelopes.Marshal(dst, L, func(bst []byte) (o []byte) {
		o = bst
		o = append(o, ',')
		o = text.AppendQuote(o, en.EventID.Bytes(), hex.EncAppend)
		o = append(o, ',')
		o = text.MarshalBool(o, en.OK)
		o = append(o, ',')
		o = text.AppendQuote(o, en.Reason, text.NostrEscape)
		return
	})
	return
}

func (en *T) Unmarshal(b []byte) (r []byte, err error) {
	r = b
	var idHex []byte
	if idHex, r, err = text.UnmarshalHex(r); err != nil {
		return
	}
	if len(idHex) != sha256.Size {
		err = errorf.E("invalid event ID length in OK envelope: %d",
			len(idHex))
		return
	}
	en.EventID = eventid.NewWith(idHex)
	if r, en.OK, err = text.UnmarshalBool(r); err != nil {
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

// Parse decodes the remainder of an OK envelope after Identify has consumed
// the label.
func Parse(b []byte) (t *T, rem []byte, err error) {
	t = New()
	if rem, err = t.Unmarshal(b); err != nil {
		return
	}
	return
}
