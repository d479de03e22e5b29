package bech32encoding

import (
	"bytes"
	"testing"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/schnorr"
	"github.com/pkg/errors"

	"renote.lol/chk"
)

func TestConvertBits(t *testing.T) {
	var err error
	var b5, b8, b58 []byte
	for i := 0; i < 100; i++ {
		sec, _ := btcec.NewPrivateKey()
		b8 = sec.Serialize()
		if b5, err = ConvertForBech32(b8); chk.E(err) {
			t.Fatal(err)
		}
		if b58, err = ConvertFromBech32(b5); chk.E(err) {
			t.Fatal(err)
		}
		if !bytes.Equal(b8, b58[:len(b8)]) {
			t.Fatalf("bit conversion did not round trip: %x -> %x", b8, b58)
		}
	}
}

func TestSecretKeyToNsec(t *testing.T) {
	var err error
	var sec, reSec *btcec.PrivateKey
	var nsec, reNsec []byte
	for i := 0; i < 100; i++ {
		if sec, err = btcec.NewPrivateKey(); chk.E(err) {
			t.Fatalf("error generating key: '%s'", err)
		}
		if nsec, err = SecretKeyToNsec(sec); chk.E(err) {
			t.Fatalf("error converting key to nsec: '%s'", err)
		}
		if !bytes.HasPrefix(nsec, SecHRP) {
			t.Fatalf("nsec missing hrp: %s", nsec)
		}
		if reSec, err = NsecToSecretKey(nsec); chk.E(err) {
			t.Fatalf("error nsec back to secret key: '%s'", err)
		}
		if !bytes.Equal(sec.Serialize(), reSec.Serialize()) {
			t.Fatalf("did not recover same key bytes: orig %x, got %x",
				sec.Serialize(), reSec.Serialize())
		}
		if reNsec, err = SecretKeyToNsec(reSec); chk.E(err) {
			t.Fatalf("error re-encoding recovered secret key: %s", err)
		}
		if !bytes.Equal(nsec, reNsec) {
			t.Fatalf("nsec did not round trip: orig %s, got %s", nsec, reNsec)
		}
	}
}

func TestPublicKeyToNpub(t *testing.T) {
	var err error
	var pub, rePub *btcec.PublicKey
	var npub, reNpub []byte
	for i := 0; i < 100; i++ {
		var sec *btcec.PrivateKey
		if sec, err = btcec.NewPrivateKey(); chk.E(err) {
			t.Fatal(err)
		}
		pub = sec.PubKey()
		if npub, err = PublicKeyToNpub(pub); chk.E(err) {
			t.Fatal(err)
		}
		if rePub, err = NpubToPublicKey(npub); chk.E(err) {
			t.Fatal(err)
		}
		if !bytes.Equal(schnorr.SerializePubKey(pub),
			schnorr.SerializePubKey(rePub)) {
			t.Fatalf("did not recover same public key from npub %s", npub)
		}
		if reNpub, err = PublicKeyToNpub(rePub); chk.E(err) {
			t.Fatal(err)
		}
		if !bytes.Equal(npub, reNpub) {
			t.Fatalf("npub did not round trip: orig %s, got %s", npub, reNpub)
		}
	}
}

func TestWrongKeyType(t *testing.T) {
	sec, _ := btcec.NewPrivateKey()
	nsec, err := SecretKeyToNsec(sec)
	if chk.E(err) {
		t.Fatal(err)
	}
	if _, err = NpubToPublicKey(nsec); err == nil {
		t.Fatal("decoding an nsec as npub should fail")
	}
	if !errors.Is(err, ErrWrongKeyType) {
		t.Fatalf("want ErrWrongKeyType, got %v", err)
	}
	npub, err := PublicKeyToNpub(sec.PubKey())
	if chk.E(err) {
		t.Fatal(err)
	}
	if _, err = NsecToSecretKey(npub); !errors.Is(err, ErrWrongKeyType) {
		t.Fatalf("want ErrWrongKeyType, got %v", err)
	}
}

func TestInvalidFormat(t *testing.T) {
	for _, s := range []string{
		"",
		"npub1",
		"not bech32 at all",
		"npub1!!!!!!!!!!!!!!!!!!!!!!!!!!!!!!!!!!!!!!!!!!!!!!!!!!!!!!!",
		// valid charset but mangled checksum
		"npub180cvv07tjdrrgpa0j7j7tmnyl2yr6yr7l8j4s3evf6u64th6gkwsyjh6w0",
	} {
		if _, err := NpubToPublicKey([]byte(s)); !errors.Is(err,
			ErrInvalidFormat) {
			t.Fatalf("expected ErrInvalidFormat for %q, got %v", s, err)
		}
	}
}
