package ints

import (
	"testing"

	"lukechampine.com/frand"
)

func TestMarshalUnmarshal(t *testing.T) {
	var err error
	var b, rem []byte
	for i := 0; i < 10000; i++ {
		n := New(frand.Uint64n(1 << 62))
		b = n.Marshal(b[:0])
		m := New(0)
		if rem, err = m.Unmarshal(b); err != nil {
			t.Fatal(err)
		}
		if len(rem) != 0 {
			t.Fatalf("remainder after decoding %s: %s", b, rem)
		}
		if n.Uint64() != m.Uint64() {
			t.Fatalf("decoded %d from %s, want %d", m.Uint64(), b, n.Uint64())
		}
	}
}

func TestUnmarshalSkipsLeadingNonDigits(t *testing.T) {
	n := New(0)
	rem, err := n.Unmarshal([]byte(" :1692838923,"))
	if err != nil {
		t.Fatal(err)
	}
	if n.Uint64() != 1692838923 {
		t.Fatalf("got %d", n.Uint64())
	}
	if string(rem) != "," {
		t.Fatalf("remainder %q", rem)
	}
}

func TestUnmarshalEmpty(t *testing.T) {
	n := New(0)
	if _, err := n.Unmarshal([]byte("")); err == nil {
		t.Fatal("expected error on empty input")
	}
}
