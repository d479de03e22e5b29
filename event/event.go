// Package event implements the nostr wire protocol event: the identified,
// timestamped, kinded, tagged and signed message that is the fundamental unit
// of the protocol.
package event

import (
	"renote.lol/hex"
	"renote.lol/kind"
	"renote.lol/sha256"
	"renote.lol/tags"
	"renote.lol/timestamp"
)

// C is a channel that carries events.
type C chan *T

// T is the primary datatype of nostr. This is the form of the structure that
// defines its JSON string based format.
type T struct {
	// ID is the SHA256 hash of the canonical encoding of the event in binary
	// format.
	ID []byte
	// Pubkey is the public key of the event creator in binary format.
	Pubkey []byte
	// CreatedAt is the UNIX timestamp of the event according to the event
	// creator (never trust a timestamp!)
	CreatedAt *timestamp.T
	// Kind is the nostr protocol code for the type of event. See kind.T
	Kind *kind.T
	// Tags are a list of tags, which are a list of strings usually structured
	// as a 3 layer scheme indicating specific features of an event.
	Tags *tags.T
	// Content is an arbitrary string that can contain anything, but usually
	// conforming to a specification relating to the Kind and the Tags.
	Content []byte
	// Sig is the signature on the ID hash that validates as coming from the
	// Pubkey.
	Sig []byte
}

// New makes a new event.T with a copy of the zero-value fields ready to be
// populated.
func New() (ev *T) {
	return &T{
		CreatedAt: timestamp.New(),
		Kind:      kind.New(0),
		Tags:      tags.New(),
	}
}

// IDHex returns the event ID as a hex encoded string.
func (ev *T) IDHex() (s string) { return hex.Enc(ev.ID) }

// PubkeyHex returns the event author public key as a hex encoded string.
func (ev *T) PubkeyHex() (s string) { return hex.Enc(ev.Pubkey) }

// Serialize renders the event as minified JSON in a fresh allocation.
func (ev *T) Serialize() (b []byte) { return ev.Marshal(nil) }

// String renders the event as minified JSON.
func (ev *T) String() (s string) { return string(ev.Serialize()) }

// Clone duplicates an event, sharing the tag and content backing arrays but
// with freshly copied ID, Pubkey and Sig so the copy can be re-identified and
// re-signed without touching the source.
func (ev *T) Clone() (clone *T) {
	clone = &T{
		ID:        append([]byte{}, ev.ID...),
		Pubkey:    append([]byte{}, ev.Pubkey...),
		CreatedAt: timestamp.FromUnix(ev.CreatedAt.I64()),
		Kind:      kind.New(ev.Kind.K),
		Tags:      ev.Tags.Clone(),
		Content:   ev.Content,
		Sig:       append([]byte{}, ev.Sig...),
	}
	return
}

// Hash is a little helper generate a hash and return a slice instead of an
// array.
func Hash(in []byte) (out []byte) {
	h := sha256.Sum256(in)
	return h[:]
}
