// Package kinds is a list of kind.T with a JSON array codec and membership
// tests, as used in query filters.
package kinds

import (
	"renote.lol/kind"
)

type T struct {
	K []*kind.T
}

func New(k ...*kind.T) *T { return &T{k} }

func NewWithCap(c int) *T { return &T{make([]*kind.T, 0, c)} }

func (k *T) Len() int {
	if k == nil {
		return 0
	}
	return len(k.K)
}

// Contains reports whether the list includes the given kind.
func (k *T) Contains(s *kind.T) bool {
	for i := range k.K {
		if k.K[i].Equal(s) {
			return true
		}
	}
	return false
}

// ToUint16 returns the list in raw numeric form.
func (k *T) ToUint16() (kk []uint16) {
	kk = make([]uint16, k.Len())
	for i := range k.K {
		kk[i] = k.K[i].ToU16()
	}
	return
}

// Marshal appends the JSON array form of the kind list to dst.
func (k *T) Marshal(dst []byte) (b []byte) {
	b = dst
	b = append(b, '[')
	for i := range k.K {
		if i > 0 {
			b = append(b, ',')
		}
		b = k.K[i].Marshal(b)
	}
	b = append(b, ']')
	return
}

// Unmarshal reads a JSON array of kind numbers out of b and returns the
// remainder.
func (k *T) Unmarshal(b []byte) (r []byte, err error) {
	r = b
	for len(r) > 0 {
		switch r[0] {
		case '[', ',':
			r = r[1:]
			if len(r) > 0 && r[0] == ']' {
				r = r[1:]
				return
			}
			kk := kind.New(0)
			if r, err = kk.Unmarshal(r); err != nil {
				return
			}
			k.K = append(k.K, kk)
		case ']':
			r = r[1:]
			return
		default:
			r = r[1:]
		}
	}
	return
}
