package ws

import (
	"testing"
	"time"

	"renote.lol/chk"
	"renote.lol/context"
	"renote.lol/event"
	"renote.lol/filter"
	"renote.lol/hex"
	"renote.lol/kind"
	"renote.lol/kinds"
	"renote.lol/normalize"
	"renote.lol/p256k"
	"renote.lol/tag"
)

func TestPoolFetchAllDeduplicates(t *testing.T) {
	var err error
	sign := &p256k.Signer{}
	if err = sign.Generate(); chk.E(err) {
		t.Fatal(err)
	}
	notes := []*event.T{
		newTestNote(t, sign, 1672068534, "one"),
		newTestNote(t, sign, 1672068535, "two"),
		newTestNote(t, sign, 1672068536, "three"),
	}
	// two relays serving the same three events
	ws1 := newWebsocketServer(queryHandler(t, notes))
	defer ws1.Close()
	ws2 := newWebsocketServer(queryHandler(t, notes))
	defer ws2.Close()

	c, cancel := context.Timeout(context.Bg(), 10*time.Second)
	defer cancel()
	pool := NewSimplePool(c)
	defer pool.Close()
	f := &filter.T{
		Authors: tag.New(hex.Enc(sign.Pub())),
		Kinds:   kinds.New(kind.TextNote),
	}
	evs := pool.FetchAll(c, []string{ws1.URL, ws2.URL}, f)
	if len(evs) != len(notes) {
		t.Fatalf("got %d events, want %d deduplicated", len(evs), len(notes))
	}
	seen := make(map[string]bool, len(evs))
	for _, ev := range evs {
		if seen[ev.IDHex()] {
			t.Fatalf("event %s delivered twice", ev.IDHex())
		}
		seen[ev.IDHex()] = true
	}
}

func TestPoolFetchAllToleratesDeadRelay(t *testing.T) {
	var err error
	sign := &p256k.Signer{}
	if err = sign.Generate(); chk.E(err) {
		t.Fatal(err)
	}
	notes := []*event.T{newTestNote(t, sign, 1672068534, "only")}
	live := newWebsocketServer(queryHandler(t, notes))
	defer live.Close()
	dead := newWebsocketServer(discardingHandler)
	dead.Close() // nothing is listening here any more

	c, cancel := context.Timeout(context.Bg(), 10*time.Second)
	defer cancel()
	pool := NewSimplePool(c)
	defer pool.Close()
	f := &filter.T{
		Authors: tag.New(hex.Enc(sign.Pub())),
		Kinds:   kinds.New(kind.TextNote),
	}
	evs := pool.FetchAll(c, []string{dead.URL, live.URL}, f)
	if len(evs) != 1 {
		t.Fatalf("got %d events, want 1 from the live relay", len(evs))
	}
}

func TestPoolPublishToAnyFirstSuccess(t *testing.T) {
	var err error
	sign := &p256k.Signer{}
	if err = sign.Generate(); chk.E(err) {
		t.Fatal(err)
	}
	note := newTestNote(t, sign, 1672068534, "fan out")
	accepting := newWebsocketServer(acceptingHandler)
	defer accepting.Close()
	dead := newWebsocketServer(discardingHandler)
	dead.Close()

	c, cancel := context.Timeout(context.Bg(), 10*time.Second)
	defer cancel()
	pool := NewSimplePool(c)
	defer pool.Close()
	relay, err := pool.PublishToAny(c, []string{dead.URL, accepting.URL},
		note)
	if err != nil {
		t.Fatalf("publish should have succeeded on the live relay: %v", err)
	}
	if relay == "" {
		t.Fatal("no relay URL reported for the accepted event")
	}
}

func TestPoolQuerySingle(t *testing.T) {
	var err error
	sign := &p256k.Signer{}
	if err = sign.Generate(); chk.E(err) {
		t.Fatal(err)
	}
	notes := []*event.T{
		newTestNote(t, sign, 1672068534, "one"),
		newTestNote(t, sign, 1672068535, "two"),
	}
	ws := newWebsocketServer(queryHandler(t, notes))
	defer ws.Close()

	c, cancel := context.Timeout(context.Bg(), 10*time.Second)
	defer cancel()
	pool := NewSimplePool(c)
	defer pool.Close()
	f := &filter.T{
		Authors: tag.New(hex.Enc(sign.Pub())),
		Kinds:   kinds.New(kind.TextNote),
	}
	ie := pool.QuerySingle(c, []string{ws.URL}, f)
	if ie == nil {
		t.Fatal("expected one event, got none")
	}
	if ie.Client == nil {
		t.Fatal("incoming event carries no relay connection")
	}
	found := false
	for _, note := range notes {
		if note.IDHex() == ie.Event.IDHex() {
			found = true
		}
	}
	if !found {
		t.Fatalf("returned event %s is not one of the served notes",
			ie.Event.Serialize())
	}
}

func TestPoolConnectionReuse(t *testing.T) {
	var err error
	sign := &p256k.Signer{}
	if err = sign.Generate(); chk.E(err) {
		t.Fatal(err)
	}
	accepting := newWebsocketServer(acceptingHandler)
	defer accepting.Close()

	c, cancel := context.Timeout(context.Bg(), 10*time.Second)
	defer cancel()
	pool := NewSimplePool(c)
	defer pool.Close()
	if _, err = pool.PublishToAny(c, []string{accepting.URL},
		newTestNote(t, sign, 1672068534, "first")); err != nil {
		t.Fatalf("first publish failed: %v", err)
	}
	// the pooled connection must outlive the call that dialed it
	nm := string(normalize.URL(accepting.URL))
	rl, ok := pool.Relays.Load(nm)
	if !ok {
		t.Fatal("no pooled connection for the relay")
	}
	if !rl.IsConnected() {
		t.Fatal("pooled connection died after the call that opened it")
	}
	if _, err = pool.PublishToAny(c, []string{accepting.URL},
		newTestNote(t, sign, 1672068535, "second")); err != nil {
		t.Fatalf("second publish over the cached connection failed: %v", err)
	}
}

func TestPoolPublishToAnyAllFail(t *testing.T) {
	var err error
	sign := &p256k.Signer{}
	if err = sign.Generate(); chk.E(err) {
		t.Fatal(err)
	}
	note := newTestNote(t, sign, 1672068534, "nowhere to go")
	dead1 := newWebsocketServer(discardingHandler)
	dead1.Close()
	dead2 := newWebsocketServer(discardingHandler)
	dead2.Close()

	c, cancel := context.Timeout(context.Bg(), 10*time.Second)
	defer cancel()
	pool := NewSimplePool(c)
	defer pool.Close()
	if _, err = pool.PublishToAny(c, []string{dead1.URL, dead2.URL},
		note); err == nil {
		t.Fatal("publish should have failed with every relay down")
	}
}
