package event

import (
	"io"

	"renote.lol/errorf"
	"renote.lol/kind"
	"renote.lol/sha256"
	"renote.lol/tags"
	"renote.lol/text"
	"renote.lol/timestamp"
)

// Unmarshal decodes the JSON object form of an event out of the front of b,
// returning the remainder. Keys are disambiguated by their first byte ('c'
// needs a second byte to tell created_at from content), unknown keys are an
// error.
func (ev *T) Unmarshal(b []byte) (r []byte, err error) {
	key := make([]byte, 0, 9)
	r = b
	for ; len(r) > 0; r = r[1:] {
		if r[0] == '{' {
			r = r[1:]
			goto BetweenKeys
		}
	}
	goto eof
BetweenKeys:
	for ; len(r) > 0; r = r[1:] {
		if r[0] == '"' {
			r = r[1:]
			goto InKey
		}
	}
	goto eof
InKey:
	for ; len(r) > 0; r = r[1:] {
		if r[0] == '"' {
			r = r[1:]
			goto InKV
		}
		key = append(key, r[0])
	}
	goto eof
InKV:
	for ; len(r) > 0; r = r[1:] {
		if r[0] == ':' {
			r = r[1:]
			goto InVal
		}
	}
	goto eof
InVal:
	switch key[0] {
	case jId[0]:
		if len(key) < len(jId) {
			goto invalid
		}
		if ev.ID, r, err = text.UnmarshalHex(r); err != nil {
			return
		}
		if len(ev.ID) != sha256.Size {
			err = errorf.E("invalid ID, require %d got %d", sha256.Size,
				len(ev.ID))
			return
		}
		goto BetweenKV
	case jPubkey[0]:
		if len(key) < len(jPubkey) {
			goto invalid
		}
		if ev.Pubkey, r, err = text.UnmarshalHex(r); err != nil {
			return
		}
		if len(ev.Pubkey) != 32 {
			err = errorf.E("invalid pubkey, require 32 got %d",
				len(ev.Pubkey))
			return
		}
		goto BetweenKV
	case jKind[0]:
		if len(key) < len(jKind) {
			goto invalid
		}
		ev.Kind = kind.New(0)
		if r, err = ev.Kind.Unmarshal(r); err != nil {
			return
		}
		goto BetweenKV
	case jTags[0]:
		if len(key) < len(jTags) {
			goto invalid
		}
		ev.Tags = tags.New()
		if r, err = ev.Tags.Unmarshal(r); err != nil {
			return
		}
		goto BetweenKV
	case jSig[0]:
		if len(key) < len(jSig) {
			goto invalid
		}
		if ev.Sig, r, err = text.UnmarshalHex(r); err != nil {
			return
		}
		if len(ev.Sig) != 64 {
			err = errorf.E("invalid sig, require 64 got %d", len(ev.Sig))
			return
		}
		goto BetweenKV
	case jContent[0]:
		if len(key) < len(jContent) {
			goto invalid
		}
		if key[1] == jContent[1] {
			if ev.Content, r, err = text.UnmarshalQuoted(r); err != nil {
				return
			}
			goto BetweenKV
		} else if key[1] == jCreatedAt[1] {
			if len(key) < len(jCreatedAt) {
				goto invalid
			}
			ev.CreatedAt = timestamp.New()
			if r, err = ev.CreatedAt.Unmarshal(r); err != nil {
				return
			}
			goto BetweenKV
		} else {
			goto invalid
		}
	default:
		goto invalid
	}
BetweenKV:
	key = key[:0]
	for ; len(r) > 0; r = r[1:] {
		switch {
		case len(r) == 0:
			goto eof
		case r[0] == '}':
			r = r[1:]
			goto AfterClose
		case r[0] == ',':
			r = r[1:]
			goto BetweenKeys
		case r[0] == '"':
			r = r[1:]
			goto InKey
		}
	}
	goto eof
AfterClose:
	return
invalid:
	err = errorf.E("invalid key '%s'", key)
	return
eof:
	err = io.EOF
	return
}
