// Package eventid wraps the SHA256 hash of the canonical form of an event.
package eventid

import (
	"bytes"

	"lukechampine.com/frand"

	"renote.lol/errorf"
	"renote.lol/hex"
	"renote.lol/sha256"
)

// T is the SHA256 hash of the canonical form of an event as produced by
// event.T.ToCanonical.
type T struct {
	b []byte
}

func New() (ei *T) { return &T{} }

func NewWith[V string | []byte](s V) (ei *T) { return &T{b: []byte(s)} }

// Set checks the length of the hash and stores it.
func (ei *T) Set(b []byte) (err error) {
	if len(b) != sha256.Size {
		err = errorf.E("ID bytes incorrect size, got %d require %d",
			len(b), sha256.Size)
		return
	}
	ei.b = b
	return
}

func NewFromBytes(b []byte) (ei *T, err error) {
	ei = New()
	if err = ei.Set(b); err != nil {
		return
	}
	return
}

// NewFromString inspects a string and ensures it is a valid, 64 character long
// hexadecimal string, returning the decoded hash.
func NewFromString(s string) (ei *T, err error) {
	if len(s) != 2*sha256.Size {
		return nil, errorf.E("event ID hex wrong size, got %d require %d",
			len(s), 2*sha256.Size)
	}
	ei = &T{b: make([]byte, 0, sha256.Size)}
	ei.b, err = hex.DecAppend(ei.b, []byte(s))
	return
}

func (ei *T) String() string {
	if ei == nil || ei.b == nil {
		return ""
	}
	return hex.Enc(ei.b)
}

// ByteString appends the hexadecimal form of the hash to src.
func (ei *T) ByteString(src []byte) (b []byte) { return hex.EncAppend(src, ei.b) }

func (ei *T) Bytes() (b []byte) {
	if ei == nil {
		return nil
	}
	return ei.b
}

func (ei *T) Len() int {
	if ei == nil {
		return 0
	}
	return len(ei.b)
}

func (ei *T) Equal(ei2 *T) bool { return bytes.Equal(ei.b, ei2.b) }

// Gen creates a pseudorandom generated event ID for tests.
func Gen() (ei *T) { return &T{frand.Bytes(sha256.Size)} }
