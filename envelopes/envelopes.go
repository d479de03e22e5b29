// Package envelopes provides the label identification step of decoding nostr
// wire messages, which are JSON arrays whose first element names the type of
// the remainder.
package envelopes

import (
	"bytes"
	"io"

	"renote.lol/text"
)

const (
	LEvent  = "EVENT"
	LOK     = "OK"
	LReq    = "REQ"
	LClose  = "CLOSE"
	LClosed = "CLOSED"
	LEose   = "EOSE"
	LNotice = "NOTICE"
	LAuth   = "AUTH"
)

// Identify scans the opening of an envelope, returning its label and the
// remainder of the input positioned after the comma that follows the label
// (or after the label's closing quote for envelopes with no further
// elements).
func Identify(b []byte) (t string, rest []byte, err error) {
	var openBracket, inLabel bool
	var label []byte
	rest = b
	for ; len(rest) > 0; rest = rest[1:] {
		if !openBracket {
			if rest[0] == '[' {
				openBracket = true
			}
			continue
		}
		if !inLabel {
			if rest[0] == '"' {
				inLabel = true
			}
			continue
		}
		if rest[0] == '"' {
			rest = rest[1:]
			break
		}
		label = append(label, rest[0])
	}
	if !inLabel {
		err = io.EOF
		return
	}
	t = string(label)
	// position after the comma if there is one, so envelope decoders start at
	// their first element.
	for len(rest) > 0 {
		if rest[0] == ',' {
			rest = rest[1:]
			break
		}
		if rest[0] == ']' {
			break
		}
		rest = rest[1:]
	}
	return
}

// Marshal wraps an envelope payload in its enclosing array with the label as
// first element. The inner function appends the elements after the label,
// including their leading comma.
func Marshal(dst []byte, label string,
	inner func(dst []byte) []byte) (b []byte) {
	b = dst
	b = append(b, '[')
	b = text.AppendQuote(b, []byte(label), text.Noop)
	b = inner(b)
	b = append(b, ']')
	return
}

// SkipToTheEnd consumes the closing bracket of an envelope and returns the
// remainder. Input that runs out before a bracket appears is not an error, a
// payload pulled out of a decoded array has already lost its brackets.
func SkipToTheEnd(rest []byte) (r []byte, err error) {
	r = bytes.TrimSpace(rest)
	for len(r) > 0 {
		if r[0] == ']' {
			r = r[1:]
			return
		}
		r = r[1:]
	}
	return
}
