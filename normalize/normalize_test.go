package normalize

import (
	"testing"
)

func TestURL(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"wss://x.com/y", "wss://x.com/y"},
		{"wss://x.com/y/", "wss://x.com/y"},
		{"WSS://X.COM/Y", "wss://x.com/y"},
		{"x.com", "wss://x.com"},
		{"x.com/", "wss://x.com"},
		{"x.com:443", "wss://x.com"},
		{"x.com:7447", "wss://x.com:7447"},
		{"http://x.com/y", "ws://x.com/y"},
		{"https://x.com/y", "wss://x.com/y"},
		{"  wss://x.com  ", "wss://x.com"},
	}
	for _, c := range cases {
		got := string(URL(c.in))
		if got != c.want {
			t.Fatalf("URL(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}
