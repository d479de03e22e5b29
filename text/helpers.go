package text

import (
	"io"

	"github.com/templexxx/xhex"

	"renote.lol/errorf"
)

// JSONKey generates the JSON format for an object key and terminates with the
// colon.
func JSONKey(dst, k []byte) (b []byte) {
	dst = append(dst, '"')
	dst = append(dst, k...)
	dst = append(dst, '"', ':')
	b = dst
	return
}

// AppendQuote appends the source encoded by enc wrapped in double quotes.
func AppendQuote(dst, src []byte, enc func(dst, src []byte) []byte) (b []byte) {
	dst = append(dst, '"')
	dst = enc(dst, src)
	dst = append(dst, '"')
	b = dst
	return
}

// Noop is an encoder for AppendQuote that copies the source verbatim.
func Noop(dst, src []byte) (b []byte) { return append(dst, src...) }

// UnmarshalHex takes a byte string that should contain a quoted hexadecimal
// encoded value, decodes it in-place using a SIMD hex codec and returns the
// decoded truncated bytes (the other half will be as it was but no allocation
// is required).
func UnmarshalHex(b []byte) (h []byte, rem []byte, err error) {
	rem = b[:]
	var inQuote bool
	var start int
	for i := 0; i < len(b); i++ {
		if !inQuote {
			if b[i] == '"' {
				inQuote = true
				start = i + 1
			}
		} else if b[i] == '"' {
			h = b[start:i]
			rem = b[i+1:]
			break
		}
	}
	if !inQuote {
		err = io.EOF
		return
	}
	l := len(h)
	if l%2 != 0 {
		err = errorf.E("invalid length for hex: %d, %0x", len(h), h)
		return
	}
	if err = xhex.Decode(h, h); err != nil {
		return
	}
	h = h[:l/2]
	return
}

// UnmarshalQuoted performs an in-place unquoting of a NIP-01 quoted byte
// string, returning the unescaped content and the remainder after the closing
// quote.
func UnmarshalQuoted(b []byte) (content, rem []byte, err error) {
	if len(b) == 0 {
		err = io.EOF
		return
	}
	rem = b[:]
	for ; len(rem) > 0; rem = rem[1:] {
		// advance to open quotes
		if rem[0] == '"' {
			rem = rem[1:]
			content = rem
			break
		}
	}
	if len(rem) == 0 {
		err = io.EOF
		return
	}
	var escaping bool
	var contentLen int
	for len(rem) > 0 {
		if rem[0] == '\\' {
			escaping = !escaping
			contentLen++
			rem = rem[1:]
		} else if rem[0] == '"' {
			if !escaping {
				rem = rem[1:]
				content = content[:contentLen]
				content = NostrUnescape(content)
				return
			}
			contentLen++
			rem = rem[1:]
			escaping = false
		} else {
			escaping = false
			switch rem[0] {
			// none of these characters are allowed raw inside a JSON string:
			// backspace, tab, newline, form feed or carriage return.
			case '\b', '\t', '\n', '\f', '\r':
				err = errorf.E("invalid character '%s' in quoted string",
					NostrEscape(nil, rem[:1]))
				return
			}
			contentLen++
			rem = rem[1:]
		}
	}
	err = io.EOF
	return
}

// Comma discards content up to and including the next comma.
func Comma(b []byte) (rem []byte, err error) {
	rem = b
	for ; len(rem) > 0; rem = rem[1:] {
		if rem[0] == ',' {
			rem = rem[1:]
			return
		}
	}
	err = io.EOF
	return
}

var (
	tru  = []byte("true")
	fals = []byte("false")
)

// MarshalBool appends a JSON boolean literal to dst.
func MarshalBool(dst []byte, v bool) (b []byte) {
	if v {
		return append(dst, tru...)
	}
	return append(dst, fals...)
}

// UnmarshalBool scans for the next JSON boolean literal and returns the
// remainder after it.
func UnmarshalBool(b []byte) (rem []byte, v bool, err error) {
	rem = b
	for ; len(rem) > 0; rem = rem[1:] {
		if rem[0] == 't' && len(rem) >= len(tru) {
			rem = rem[len(tru):]
			v = true
			return
		}
		if rem[0] == 'f' && len(rem) >= len(fals) {
			rem = rem[len(fals):]
			return
		}
	}
	err = io.EOF
	return
}
