// Package renote is a tool that takes the notes published by one nostr
// identity and broadcasts them again, re-signed under a second identity, to a
// configurable set of relays.
package renote

const (
	Name    = "renote"
	Version = "v0.1.0"
	URL     = "renote.lol"
)
