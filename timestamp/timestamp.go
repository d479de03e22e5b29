// Package timestamp implements the nostr 64 bit 1 second precision UNIX
// timestamp and its append JSON codec.
package timestamp

import (
	"time"

	"renote.lol/ints"
)

// T is a convenience type for UNIX 64 bit timestamps of 1 second precision.
type T int64

func New() (t *T) {
	tt := T(0)
	return &tt
}

// Now returns the current UNIX timestamp of the current second.
func Now() *T {
	tt := T(time.Now().Unix())
	return &tt
}

// U64 returns the timestamp as a uint64.
func (t *T) U64() uint64 { return uint64(*t) }

// I64 returns the timestamp as an int64.
func (t *T) I64() int64 { return int64(*t) }

// Int returns the timestamp as an int.
func (t *T) Int() int { return int(*t) }

// Time converts the timestamp into a stdlib time.Time.
func (t *T) Time() time.Time { return time.Unix(int64(*t), 0) }

// FromTime returns a T from a time.Time.
func FromTime(t time.Time) *T {
	tt := T(t.Unix())
	return &tt
}

// FromUnix converts from a standard int64 unix timestamp.
func FromUnix(t int64) *T {
	tt := T(t)
	return &tt
}

func (t *T) String() (s string) {
	return string(t.Marshal(nil))
}

// Marshal appends the decimal form of the timestamp to dst.
func (t *T) Marshal(dst []byte) (b []byte) {
	return ints.New(t.U64()).Marshal(dst)
}

// Unmarshal reads a decimal timestamp out of b and returns the remainder.
func (t *T) Unmarshal(b []byte) (r []byte, err error) {
	n := ints.New(0)
	if r, err = n.Unmarshal(b); err != nil {
		return
	}
	*t = T(n.Uint64())
	return
}
