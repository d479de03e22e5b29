// Package kind implements the nostr event type discriminator.
package kind

import (
	"renote.lol/ints"
)

// T is the event type in the nostr protocol, the use of the capital T
// signifying type, consistent with Go idiom and much existing code.
type T struct {
	K uint16
}

func New[V uint16 | uint32 | int32 | int](k V) (ki *T) { return &T{uint16(k)} }

// The kinds this module knows by name.
var (
	ProfileMetadata = New(0)
	TextNote        = New(1)
	FollowList      = New(3)
	Deletion        = New(5)
	Repost          = New(6)
	Reaction        = New(7)
)

func (k *T) ToInt() int {
	if k == nil {
		return 0
	}
	return int(k.K)
}

func (k *T) ToU16() uint16 {
	if k == nil {
		return 0
	}
	return k.K
}

func (k *T) ToU64() uint64 {
	if k == nil {
		return 0
	}
	return uint64(k.K)
}

func (k *T) Equal(k2 *T) bool { return *k == *k2 }

// Marshal appends the decimal form of the kind to dst.
func (k *T) Marshal(dst []byte) (b []byte) { return ints.New(k.ToU64()).Marshal(dst) }

// Unmarshal reads a decimal kind out of b and returns the remainder.
func (k *T) Unmarshal(b []byte) (r []byte, err error) {
	n := ints.New(0)
	if r, err = n.Unmarshal(b); err != nil {
		return
	}
	k.K = n.Uint16()
	return
}
