// Package subscriptionid implements the client-chosen identifier carried in
// REQ, EVENT (relay to client), EOSE, CLOSE and CLOSED envelopes.
package subscriptionid

import (
	"renote.lol/errorf"
	"renote.lol/eventid"
	"renote.lol/text"
)

type T struct {
	T []byte
}

// IsValid returns true if the subscription id is between 1 and 64 characters.
func (si *T) IsValid() bool { return len(si.T) <= 64 && len(si.T) > 0 }

// New creates a new subscription id from a string or byte slice.
func New[V string | []byte](s V) (*T, error) {
	si := &T{T: []byte(s)}
	if si.IsValid() {
		return si, nil
	}
	return nil, errorf.E("invalid subscription ID, length %d", len(si.T))
}

// MustNew is for use with hardcoded subscription ids, it panics if the input
// is out of spec.
func MustNew[V string | []byte](s V) *T {
	si, err := New(s)
	if err != nil {
		panic(err)
	}
	return si
}

// NewStd creates a new random subscription identifier.
func NewStd() (t *T) {
	t = &T{T: []byte(eventid.Gen().String()[:32])}
	return
}

func (si *T) String() string { return string(si.T) }

// Marshal appends the quoted subscription id to dst.
func (si *T) Marshal(dst []byte) (b []byte) {
	b = text.AppendQuote(dst, si.T, text.NostrEscape)
	return
}

// Unmarshal reads a quoted subscription id out of b and returns the
// remainder.
func (si *T) Unmarshal(b []byte) (r []byte, err error) {
	if si.T, r, err = text.UnmarshalQuoted(b); err != nil {
		return
	}
	return
}
