// Package ints is an append-style codec for positive decimal integers in JSON,
// tolerant of non-numeric prefix content so numbers can be plucked out of a
// message without a full parse.
package ints

import (
	"io"
	"strconv"

	"renote.lol/errorf"
)

const zero, nine = '0', '9'

// T wraps an unsigned integer with the append codec methods.
type T struct {
	N uint64
}

func New[V uint | int | uint64 | uint32 | uint16 | uint8 | int64 | int32 | int16 | int8](n V) *T {
	return &T{uint64(n)}
}

func (n *T) Uint64() uint64 { return n.N }
func (n *T) Int64() int64   { return int64(n.N) }
func (n *T) Uint16() uint16 { return uint16(n.N) }

// Marshal appends the decimal ASCII form of the number to dst.
func (n *T) Marshal(dst []byte) (b []byte) {
	return strconv.AppendUint(dst, n.N, 10)
}

// Unmarshal reads a string, which must contain a positive integer no larger
// than math.MaxUint64, skipping any non-numeric content before it, and returns
// the remainder after the digits end.
func (n *T) Unmarshal(b []byte) (r []byte, err error) {
	if len(b) < 1 {
		err = errorf.E("zero length number")
		return
	}
	if b[0] == zero {
		r = b[1:]
		n.N = 0
		return
	}
	// skip non-number characters
	for i, v := range b {
		if v >= zero && v <= nine {
			b = b[i:]
			break
		}
	}
	if len(b) == 0 {
		err = io.EOF
		return
	}
	var sLen int
	for ; sLen < len(b) && b[sLen] >= zero && b[sLen] <= nine; sLen++ {
	}
	if sLen == 0 {
		err = errorf.E("zero length number")
		return
	}
	if sLen > 20 {
		err = errorf.E("too big number for uint64")
		return
	}
	r = b[sLen:]
	if n.N, err = strconv.ParseUint(string(b[:sLen]), 10, 64); err != nil {
		return
	}
	return
}
