// Package normalize turns user-entered relay addresses into canonical
// websocket URLs.
package normalize

import (
	"bytes"
	"net/url"

	"renote.lol/chk"
	"renote.lol/ints"
	"renote.lol/log"
)

var (
	hp    = bytes.HasPrefix
	WS    = []byte("ws://")
	WSS   = []byte("wss://")
	HTTP  = []byte("http://")
	HTTPS = []byte("https://")
)

// URL normalizes a relay URL:
//
// - Adds wss:// to addresses without a port, or with 443, that have no
// protocol prefix
//
// - Adds wss:// to addresses with any other port
//
// - Converts http/s to ws/s
//
// Malformed addresses return nil.
func URL[V string | []byte](v V) (b []byte) {
	u := []byte(v)
	if len(u) == 0 {
		return nil
	}
	u = bytes.TrimSpace(u)
	u = bytes.ToLower(u)
	// if the address has a port number and no protocol prefix, check the port
	// and add the prefix; a protocol prefix present means it is already
	// complete, http/s is converted to the websocket equivalent below anyway.
	if bytes.Contains(u, []byte(":")) &&
		!(hp(u, HTTP) || hp(u, HTTPS) || hp(u, WS) || hp(u, WSS)) {

		split := bytes.Split(u, []byte(":"))
		if len(split) != 2 {
			log.D.F("more than one ':' in URL: '%s'", u)
			return
		}
		p := ints.New(0)
		if _, err := p.Unmarshal(split[1]); chk.E(err) {
			log.D.F("error normalizing URL '%s': %s", u, err)
			return
		}
		if p.Uint64() > 65535 {
			log.D.F("port on address %d: greater than maximum 65535",
				p.Uint64())
			return
		}
		// if the port is explicitly set to 443 we assume it is wss:// and drop
		// the port.
		if p.Uint16() == 443 {
			u = append(WSS, split[0]...)
		} else {
			u = append(WSS, u...)
		}
	}
	// if the prefix isn't specified as http/s or websocket, assume secure
	// websocket and add the wss prefix (this is the most common).
	if !(hp(u, HTTP) || hp(u, HTTPS) || hp(u, WS) || hp(u, WSS)) {
		u = append(WSS, u...)
	}
	var err error
	var p *url.URL
	if p, err = url.Parse(string(u)); chk.E(err) {
		return
	}
	// convert http/s to ws/s
	switch p.Scheme {
	case "https":
		p.Scheme = "wss"
	case "http":
		p.Scheme = "ws"
	}
	// remove trailing path slash
	p.Path = string(bytes.TrimRight([]byte(p.Path), "/"))
	return []byte(p.String())
}
