// Package hex is a set of shortcuts to the standard library hex encoder with
// SIMD accelerated append codecs from templexxx/xhex.
package hex

import (
	"encoding/hex"

	"github.com/templexxx/xhex"
)

var (
	Enc      = hex.EncodeToString
	EncBytes = hex.Encode
	Dec      = hex.DecodeString
	DecBytes = hex.Decode
	DecLen   = hex.DecodedLen
)

type InvalidByteError = hex.InvalidByteError

// EncAppend appends the hexadecimal encoding of src to dst.
func EncAppend(dst, src []byte) (b []byte) {
	l := len(dst)
	dst = append(dst, make([]byte, len(src)*2)...)
	xhex.Encode(dst[l:], src)
	return dst
}

// DecAppend appends the decoding of the hexadecimal in src to dst.
func DecAppend(dst, src []byte) (b []byte, err error) {
	l := len(dst)
	b = append(dst, make([]byte, len(src)/2)...)
	if err = xhex.Decode(b[l:], src); err != nil {
		return
	}
	return
}
