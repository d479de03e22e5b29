// Package text implements the NIP-01 mandated JSON string escaping and a set
// of append/consume helpers for hand-rolled JSON codecs.
package text

// NostrEscape for JSON encoding according to RFC8259.
//
// To prevent implementation differences from creating a different event id for
// the same event, only the following characters are escaped, and everything
// else is included verbatim:
//
//   - A line break, 0x0A, as \n
//   - A double quote, 0x22, as \"
//   - A backslash, 0x5C, as \\
//   - A carriage return, 0x0D, as \r
//   - A tab character, 0x09, as \t
//   - A backspace, 0x08, as \b
//   - A form feed, 0x0C, as \f
//
// UTF-8 should be used for encoding.
func NostrEscape(dst, src []byte) []byte {
	l := len(src)
	for i := 0; i < l; i++ {
		c := src[i]
		switch {
		case c == '"':
			dst = append(dst, '\\', '"')
		case c == '\\':
			if i+1 < l && src[i+1] == 'u' {
				dst = append(dst, '\\')
			} else {
				dst = append(dst, '\\', '\\')
			}
		case c == '\b':
			dst = append(dst, '\\', 'b')
		case c == '\t':
			dst = append(dst, '\\', 't')
		case c == '\n':
			dst = append(dst, '\\', 'n')
		case c == '\f':
			dst = append(dst, '\\', 'f')
		case c == '\r':
			dst = append(dst, '\\', 'r')
		default:
			dst = append(dst, c)
		}
	}
	return dst
}

// NostrUnescape reverses the operation of NostrEscape except instead of
// appending it to the provided slice, it rewrites it, eliminating a memory
// copy. Keep in mind that the original JSON will be mangled by this operation,
// but the resultant slices will cost zero allocations.
func NostrUnescape(dst []byte) (b []byte) {
	var r, w int
	for ; r < len(dst); r++ {
		if dst[r] == '\\' {
			r++
			if r >= len(dst) {
				break
			}
			c := dst[r]
			switch {
			case c == '"':
				dst[w] = '"'
				w++
			case c == '\\':
				dst[w] = '\\'
				w++
			case c == 'b':
				dst[w] = '\b'
				w++
			case c == 't':
				dst[w] = '\t'
				w++
			case c == 'n':
				dst[w] = '\n'
				w++
			case c == 'f':
				dst[w] = '\f'
				w++
			case c == 'r':
				dst[w] = '\r'
				w++

			// json escapes not specified in nip-01 must be preserved so the
			// canonical form regenerates the same id.
			case c == 'u', c == '/':
				dst[w] = '\\'
				w++
				dst[w] = c
				w++
			case c >= '0' && c <= '9':
				dst[w] = '\\'
				w++
				dst[w] = c
				w++
			default:
				dst[w] = '\\'
				w++
				dst[w] = c
				w++
			}
		} else {
			dst[w] = dst[r]
			w++
		}
	}
	b = dst[:w]
	return
}
