package p256k

import (
	"bytes"
	"testing"

	"lukechampine.com/frand"

	"renote.lol/chk"
	"renote.lol/sha256"
)

func TestSignerGenerate(t *testing.T) {
	var err error
	s := &Signer{}
	if err = s.Generate(); chk.E(err) {
		t.Fatal(err)
	}
	if len(s.Sec()) != SecKeyBytesLen {
		t.Fatalf("secret key length %d", len(s.Sec()))
	}
	if len(s.Pub()) != 32 {
		t.Fatalf("public key length %d", len(s.Pub()))
	}
}

func TestSignVerify(t *testing.T) {
	var err error
	s := &Signer{}
	if err = s.Generate(); chk.E(err) {
		t.Fatal(err)
	}
	for i := 0; i < 100; i++ {
		h := sha256.Sum256(frand.Bytes(64))
		var sig []byte
		if sig, err = s.Sign(h[:]); chk.E(err) {
			t.Fatal(err)
		}
		var valid bool
		if valid, err = s.Verify(h[:], sig); chk.E(err) {
			t.Fatal(err)
		}
		if !valid {
			t.Fatal("signature did not verify")
		}
		// flip a bit, must no longer verify
		sig[i%64] ^= 1
		if valid, _ = s.Verify(h[:], sig); valid {
			t.Fatal("mangled signature verified")
		}
	}
}

func TestInitSecDeterministic(t *testing.T) {
	var err error
	gen := &Signer{}
	if err = gen.Generate(); chk.E(err) {
		t.Fatal(err)
	}
	skb := append([]byte{}, gen.Sec()...)
	a, b := &Signer{}, &Signer{}
	if err = a.InitSec(skb); chk.E(err) {
		t.Fatal(err)
	}
	if err = b.InitSec(skb); chk.E(err) {
		t.Fatal(err)
	}
	if !bytes.Equal(a.Pub(), b.Pub()) {
		t.Fatalf("same secret derived different public keys: %x vs %x",
			a.Pub(), b.Pub())
	}
}

func TestZero(t *testing.T) {
	var err error
	s := &Signer{}
	if err = s.Generate(); chk.E(err) {
		t.Fatal(err)
	}
	sec := s.Sec()
	s.Zero()
	for i := range sec {
		if sec[i] != 0 {
			t.Fatal("secret key bytes not wiped")
		}
	}
}
