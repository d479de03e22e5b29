package event

import (
	"renote.lol/hex"
	"renote.lol/text"
)

// ToCanonical converts the event to the form used to derive the event ID,
// which is an array:
//
//	[0,"<pubkey hex>",<created_at>,<kind>,<tags>,"<content>"]
func (ev *T) ToCanonical(dst []byte) (b []byte) {
	b = dst
	b = append(b, "[0,\""...)
	b = hex.EncAppend(b, ev.Pubkey)
	b = append(b, "\","...)
	b = ev.CreatedAt.Marshal(b)
	b = append(b, ',')
	b = ev.Kind.Marshal(b)
	b = append(b, ',')
	b = ev.Tags.Marshal(b)
	b = append(b, ',')
	b = text.AppendQuote(b, ev.Content, text.NostrEscape)
	b = append(b, ']')
	return
}

// GetIDBytes returns the raw SHA256 hash of the canonical form of an event.T.
func (ev *T) GetIDBytes() []byte { return Hash(ev.ToCanonical(nil)) }

// CheckID recomputes the canonical hash and reports whether the event ID
// matches it.
func (ev *T) CheckID() (valid bool) {
	id := ev.GetIDBytes()
	if len(ev.ID) != len(id) {
		return
	}
	for i := range id {
		if id[i] != ev.ID[i] {
			return
		}
	}
	return true
}
