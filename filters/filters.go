// Package filters implements the list of filters found in a REQ envelope. An
// event matches the list if it matches any one member.
package filters

import (
	"renote.lol/event"
	"renote.lol/filter"
)

type T struct {
	F []*filter.T
}

func New(ff ...*filter.T) (f *T) { return &T{F: ff} }

func (f *T) Len() int { return len(f.F) }

// Marshal appends the comma separated JSON forms of the filters to dst. The
// enclosing REQ array provides the brackets so none are written here.
func (f *T) Marshal(dst []byte) (b []byte) {
	b = dst
	for i := range f.F {
		b = f.F[i].Marshal(b)
		if i != len(f.F)-1 {
			b = append(b, ',')
		}
	}
	return
}

// Serialize renders the filter list as JSON in a fresh allocation.
func (f *T) Serialize() (b []byte) { return f.Marshal(nil) }

func (f *T) String() (s string) { return string(f.Serialize()) }

// Match reports whether any filter in the list matches the event.
func (f *T) Match(ev *event.T) bool {
	for _, ff := range f.F {
		if ff.Matches(ev) {
			return true
		}
	}
	return false
}
