// Package bech32encoding implements the bech32 encoded presentation forms of
// nostr public and secret keys (npub and nsec).
package bech32encoding

import (
	"bytes"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/schnorr"
	"github.com/btcsuite/btcd/btcutil/bech32"
	"github.com/pkg/errors"

	"renote.lol/chk"
	"renote.lol/hex"
)

const (
	// MinKeyStringLen is 56 because Bech32 needs 52 characters plus 4 for the
	// HRP, any string shorter than this cannot be a nostr key.
	MinKeyStringLen = 56
	HexKeyLen       = 64
	Bech32HRPLen    = 4
)

var (
	SecHRP = []byte("nsec")
	PubHRP = []byte("npub")
)

var (
	// ErrInvalidFormat means the input is not a structurally valid bech32 key
	// string.
	ErrInvalidFormat = errors.New("invalid bech32 key encoding")
	// ErrWrongKeyType means the input decoded but carries a different human
	// readable prefix than the expected key category.
	ErrWrongKeyType = errors.New("wrong key type")
)

// ConvertForBech32 performs the bit expansion required for encoding into
// Bech32.
func ConvertForBech32(b8 []byte) (b5 []byte, err error) {
	return bech32.ConvertBits(b8, 8, 5, true)
}

// ConvertFromBech32 collapses together the bit expanded 5 bit numbers encoded
// in bech32.
func ConvertFromBech32(b5 []byte) (b8 []byte, err error) {
	return bech32.ConvertBits(b5, 5, 8, true)
}

// SecretKeyToNsec encodes a secp256k1 secret key as a Bech32 string (nsec).
func SecretKeyToNsec(sk *btcec.PrivateKey) (encoded []byte, err error) {
	var b5 []byte
	if b5, err = ConvertForBech32(sk.Serialize()); chk.E(err) {
		return
	}
	var s string
	if s, err = bech32.Encode(string(SecHRP), b5); chk.E(err) {
		return
	}
	encoded = []byte(s)
	return
}

// PublicKeyToNpub encodes a public key as a bech32 string (npub).
func PublicKeyToNpub(pk *btcec.PublicKey) (encoded []byte, err error) {
	var bits5 []byte
	pubKeyBytes := schnorr.SerializePubKey(pk)
	if bits5, err = ConvertForBech32(pubKeyBytes); chk.E(err) {
		return
	}
	var s string
	if s, err = bech32.Encode(string(PubHRP), bits5); chk.E(err) {
		return
	}
	encoded = []byte(s)
	return
}

// NsecToSecretKey decodes a nostr secret key (nsec) and returns the secp256k1
// secret key.
func NsecToSecretKey(encoded []byte) (sk *btcec.PrivateKey, err error) {
	var b8 []byte
	if b8, err = decode(encoded, SecHRP); err != nil {
		return
	}
	sk, _ = btcec.PrivKeyFromBytes(b8[:SecKeyLen])
	return
}

// NpubToPublicKey decodes a nostr public key (npub) and returns a secp256k1
// public key.
func NpubToPublicKey(encoded []byte) (pk *btcec.PublicKey, err error) {
	var b8 []byte
	if b8, err = decode(encoded, PubHRP); err != nil {
		return
	}
	if pk, err = schnorr.ParsePubKey(b8[:SecKeyLen]); chk.D(err) {
		err = errors.Wrapf(ErrInvalidFormat, "not a point on the curve: %s",
			err.Error())
		return
	}
	return
}

// SecKeyLen is the raw length of both key categories.
const SecKeyLen = 32

// decode runs the bech32 decode and classifies failures: a structural failure
// is ErrInvalidFormat, a mismatched human readable prefix is ErrWrongKeyType.
func decode(encoded, wantHRP []byte) (b8 []byte, err error) {
	var b5 []byte
	var hrp string
	if hrp, b5, err = bech32.Decode(string(bytes.TrimSpace(encoded))); err != nil {
		err = errors.Wrapf(ErrInvalidFormat, "%s", err.Error())
		return
	}
	if hrp != string(wantHRP) {
		err = errors.Wrapf(ErrWrongKeyType,
			"wrong human readable part, got '%s' want '%s'", hrp, wantHRP)
		return
	}
	if b8, err = ConvertFromBech32(b5); err != nil {
		err = errors.Wrapf(ErrInvalidFormat, "%s", err.Error())
		return
	}
	if len(b8) < SecKeyLen {
		err = errors.Wrapf(ErrInvalidFormat,
			"key payload too short, got %d require %d", len(b8), SecKeyLen)
		return
	}
	return
}

// HexToPublicKey decodes a string that should be a 64 character long hex
// encoded public key into a btcec.PublicKey that can be used to verify a
// signature or encode to Bech32.
func HexToPublicKey(pk string) (p *btcec.PublicKey, err error) {
	if len(pk) != HexKeyLen {
		err = errors.Wrapf(ErrInvalidFormat,
			"public key hex is %d chars, must be %d", len(pk), HexKeyLen)
		return
	}
	var pb []byte
	if pb, err = hex.Dec(pk); chk.D(err) {
		err = errors.Wrapf(ErrInvalidFormat, "%s", err.Error())
		return
	}
	if p, err = schnorr.ParsePubKey(pb); chk.D(err) {
		err = errors.Wrapf(ErrInvalidFormat, "%s", err.Error())
		return
	}
	return
}

// HexToNpub converts a hex encoded public key to a bech32 encoded npub.
func HexToNpub(publicKeyHex string) (npub []byte, err error) {
	var p *btcec.PublicKey
	if p, err = HexToPublicKey(publicKeyHex); err != nil {
		return
	}
	return PublicKeyToNpub(p)
}

// BinToNpub converts raw x-only public key bytes to a bech32 encoded npub.
func BinToNpub(b []byte) (npub []byte, err error) {
	var bits5 []byte
	if bits5, err = ConvertForBech32(b); chk.E(err) {
		return
	}
	var s string
	if s, err = bech32.Encode(string(PubHRP), bits5); chk.E(err) {
		return
	}
	npub = []byte(s)
	return
}
