// Package filter implements the query form found in REQ envelopes, describing
// a set of events by ids, authors, kinds and time window.
package filter

import (
	"bytes"

	"renote.lol/event"
	"renote.lol/hex"
	"renote.lol/ints"
	"renote.lol/kinds"
	"renote.lol/tag"
	"renote.lol/text"
	"renote.lol/timestamp"
)

// T is a filter as found in a REQ envelope. Fields left at their zero value
// are omitted from the JSON form and match everything.
type T struct {
	IDs     *tag.T
	Kinds   *kinds.T
	Authors *tag.T
	Since   *timestamp.T
	Until   *timestamp.T
	Limit   *uint
}

// New creates a filter with the list fields initialised empty.
func New() (f *T) {
	return &T{
		IDs:     tag.NewWithCap(10),
		Kinds:   kinds.NewWithCap(10),
		Authors: tag.NewWithCap(10),
	}
}

var (
	jIds     = []byte("ids")
	jKinds   = []byte("kinds")
	jAuthors = []byte("authors")
	jSince   = []byte("since")
	jUntil   = []byte("until")
	jLimit   = []byte("limit")
)

// Marshal appends the JSON object form of the filter to dst, omitting unset
// fields.
func (f *T) Marshal(dst []byte) (b []byte) {
	b = dst
	b = append(b, '{')
	first := true
	sep := func() {
		if !first {
			b = append(b, ',')
		}
		first = false
	}
	if f.IDs != nil && f.IDs.Len() > 0 {
		sep()
		b = text.JSONKey(b, jIds)
		b = marshalHexStrings(b, f.IDs)
	}
	if f.Kinds != nil && f.Kinds.Len() > 0 {
		sep()
		b = text.JSONKey(b, jKinds)
		b = f.Kinds.Marshal(b)
	}
	if f.Authors != nil && f.Authors.Len() > 0 {
		sep()
		b = text.JSONKey(b, jAuthors)
		b = marshalHexStrings(b, f.Authors)
	}
	if f.Since != nil {
		sep()
		b = text.JSONKey(b, jSince)
		b = f.Since.Marshal(b)
	}
	if f.Until != nil {
		sep()
		b = text.JSONKey(b, jUntil)
		b = f.Until.Marshal(b)
	}
	if f.Limit != nil {
		sep()
		b = text.JSONKey(b, jLimit)
		b = ints.New(uint64(*f.Limit)).Marshal(b)
	}
	b = append(b, '}')
	return
}

// Serialize renders the filter as JSON in a fresh allocation.
func (f *T) Serialize() (b []byte) { return f.Marshal(nil) }

func (f *T) String() (s string) { return string(f.Serialize()) }

// Matches reports whether an event satisfies every constraint the filter
// carries.
func (f *T) Matches(ev *event.T) bool {
	if ev == nil {
		return false
	}
	if f.IDs != nil && f.IDs.Len() > 0 && !containsHex(f.IDs, ev.ID) {
		return false
	}
	if f.Kinds != nil && f.Kinds.Len() > 0 && !f.Kinds.Contains(ev.Kind) {
		return false
	}
	if f.Authors != nil && f.Authors.Len() > 0 &&
		!containsHex(f.Authors, ev.Pubkey) {
		return false
	}
	if f.Since != nil && ev.CreatedAt.I64() < f.Since.I64() {
		return false
	}
	if f.Until != nil && ev.CreatedAt.I64() > f.Until.I64() {
		return false
	}
	return true
}

// marshalHexStrings appends a JSON array of the tag fields, which already
// hold hex strings, without re-encoding them.
func marshalHexStrings(dst []byte, t *tag.T) (b []byte) {
	b = append(dst, '[')
	for i, v := range t.ToSliceOfBytes() {
		if i > 0 {
			b = append(b, ',')
		}
		b = text.AppendQuote(b, v, text.Noop)
	}
	b = append(b, ']')
	return
}

// containsHex reports whether a list of hex encoded fields contains the raw
// binary value.
func containsHex(t *tag.T, raw []byte) bool {
	h := []byte(hex.Enc(raw))
	for _, v := range t.ToSliceOfBytes() {
		if bytes.Equal(v, h) {
			return true
		}
	}
	return false
}
