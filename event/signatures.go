package event

import (
	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/schnorr"

	"renote.lol/chk"
	"renote.lol/errorf"
	"renote.lol/signer"
)

// Sign the event using the signer.I. Uses github.com/btcsuite/btcd/btcec/v2
// internally. The event ID and Pubkey are overwritten from the canonical hash
// and the signer's key so the event is consistent after signing no matter its
// prior state.
func (ev *T) Sign(keys signer.I) (err error) {
	ev.Pubkey = keys.Pub()
	ev.ID = ev.GetIDBytes()
	if ev.Sig, err = keys.Sign(ev.ID); chk.E(err) {
		return
	}
	return
}

// Verify an event is signed by the pubkey it contains. Uses
// github.com/btcsuite/btcd/btcec/v2 internally. The ID is recomputed from the
// canonical form first, a mismatched ID fails verification before the curve
// operation runs.
func (ev *T) Verify() (valid bool, err error) {
	if len(ev.Pubkey) != schnorr.PubKeyBytesLen {
		err = errorf.E("invalid pubkey length %d", len(ev.Pubkey))
		return
	}
	if len(ev.Sig) != schnorr.SignatureSize {
		err = errorf.E("invalid signature length %d", len(ev.Sig))
		return
	}
	if !ev.CheckID() {
		err = errorf.E("event ID does not match canonical hash %0x", ev.ID)
		return
	}
	var pub *btcec.PublicKey
	if pub, err = schnorr.ParsePubKey(ev.Pubkey); chk.D(err) {
		return
	}
	var sig *schnorr.Signature
	if sig, err = schnorr.ParseSignature(ev.Sig); chk.D(err) {
		return
	}
	valid = sig.Verify(ev.ID, pub)
	return
}
