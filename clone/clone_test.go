package clone

import (
	"bytes"
	"sync"
	"testing"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/pkg/errors"

	"renote.lol/bech32encoding"
	"renote.lol/chk"
	"renote.lol/context"
	"renote.lol/event"
	"renote.lol/filter"
	"renote.lol/kind"
	"renote.lol/p256k"
	"renote.lol/tag"
	"renote.lol/tags"
	"renote.lol/timestamp"
)

// fakePool is a scripted stand-in for the relay pool.
type fakePool struct {
	mu         sync.Mutex
	evs        []*event.T
	publishErr error
	fetched    []*filter.T
	published  []*event.T
}

func (f *fakePool) FetchAll(c context.T, urls []string,
	fl *filter.T) []*event.T {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetched = append(f.fetched, fl)
	return f.evs
}

func (f *fakePool) PublishToAny(c context.T, urls []string,
	ev *event.T) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.publishErr != nil {
		return "", f.publishErr
	}
	f.published = append(f.published, ev)
	return urls[0], nil
}

type identity struct {
	sign *p256k.Signer
	npub []byte
	nsec []byte
}

func newIdentity(t *testing.T) *identity {
	t.Helper()
	sec, err := btcec.NewPrivateKey()
	if chk.E(err) {
		t.Fatal(err)
	}
	sign := &p256k.Signer{}
	if err = sign.InitSec(sec.Serialize()); chk.E(err) {
		t.Fatal(err)
	}
	npub, err := bech32encoding.PublicKeyToNpub(sec.PubKey())
	if chk.E(err) {
		t.Fatal(err)
	}
	nsec, err := bech32encoding.SecretKeyToNsec(sec)
	if chk.E(err) {
		t.Fatal(err)
	}
	return &identity{sign: sign, npub: npub, nsec: nsec}
}

func sourceNotes(t *testing.T, id *identity, n int) (evs []*event.T) {
	t.Helper()
	for i := 0; i < n; i++ {
		ev := &event.T{
			CreatedAt: timestamp.FromUnix(int64(1700000000 + i)),
			Kind:      kind.TextNote,
			Tags:      tags.New(tag.New("t", "original")),
			Content:   []byte{byte('a' + i)},
		}
		if err := ev.Sign(id.sign); chk.E(err) {
			t.Fatal(err)
		}
		evs = append(evs, ev)
	}
	return
}

var testRelays = []string{"wss://one.example.com", "wss://two.example.com"}

func TestRunClonesAndPublishes(t *testing.T) {
	src, dst := newIdentity(t), newIdentity(t)
	pool := &fakePool{evs: sourceNotes(t, src, 3)}
	fixed := int64(1800000000)
	var states []State
	p := New(pool, testRelays,
		WithPace(0),
		WithClock(func() *timestamp.T { return timestamp.FromUnix(fixed) }),
		WithStateFunc(func(s State) { states = append(states, s) }),
	)
	res, err := p.Run(context.Bg(), src.npub, dst.nsec)
	if chk.E(err) {
		t.Fatal(err)
	}
	if len(res.Source) != 3 {
		t.Fatalf("fetched %d source events, want 3", len(res.Source))
	}
	if len(res.Outcomes) != 3 {
		t.Fatalf("got %d outcomes, want 3", len(res.Outcomes))
	}
	if res.Published() != 3 {
		t.Fatalf("published %d, want 3", res.Published())
	}
	if len(pool.published) != 3 {
		t.Fatalf("pool saw %d publishes, want 3", len(pool.published))
	}
	contents := make(map[string]bool)
	for _, src := range res.Source {
		contents[string(src.Content)] = true
	}
	for _, out := range res.Outcomes {
		ev := out.Event
		if !bytes.Equal(ev.Pubkey, dst.sign.Pub()) {
			t.Fatalf("clone has author %x, want destination %x", ev.Pubkey,
				dst.sign.Pub())
		}
		if ev.CreatedAt.I64() != fixed {
			t.Fatalf("clone timestamp %d, want injected clock value %d",
				ev.CreatedAt.I64(), fixed)
		}
		if !contents[string(ev.Content)] {
			t.Fatalf("clone content %q not among the sources", ev.Content)
		}
		valid, err := ev.Verify()
		if chk.E(err) {
			t.Fatal(err)
		}
		if !valid {
			t.Fatalf("clone %s does not verify", ev.IDHex())
		}
		if out.Relay == "" || out.Err != nil {
			t.Fatalf("outcome not successful: %+v", out)
		}
	}
	want := []State{ValidatingInput, Querying, Transforming, Publishing,
		Done}
	if len(states) != len(want) {
		t.Fatalf("state transitions %v, want %v", states, want)
	}
	for i := range want {
		if states[i] != want[i] {
			t.Fatalf("state transitions %v, want %v", states, want)
		}
	}
	// the query must name the source author, the text note kind and a limit
	if len(pool.fetched) != 1 {
		t.Fatalf("pool saw %d queries, want 1", len(pool.fetched))
	}
	f := pool.fetched[0]
	if f.Kinds.Len() != 1 || !f.Kinds.Contains(kind.TextNote) {
		t.Fatalf("query kinds: %s", f.Kinds.Marshal(nil))
	}
	if f.Authors.Len() != 1 || f.Limit == nil || *f.Limit != DefaultLimit {
		t.Fatalf("query filter: %s", f.Serialize())
	}
}

func TestRunNoEvents(t *testing.T) {
	src, dst := newIdentity(t), newIdentity(t)
	pool := &fakePool{}
	p := New(pool, testRelays, WithPace(0))
	_, err := p.Run(context.Bg(), src.npub, dst.nsec)
	if !errors.Is(err, ErrNoEvents) {
		t.Fatalf("want ErrNoEvents, got %v", err)
	}
	if p.State() != Failed {
		t.Fatalf("state %s, want failed", p.State())
	}
	if len(pool.published) != 0 {
		t.Fatal("nothing should have been published")
	}
}

func TestRunWithoutDestinationKey(t *testing.T) {
	src := newIdentity(t)
	pool := &fakePool{evs: sourceNotes(t, src, 2)}
	p := New(pool, testRelays, WithPace(0))
	res, err := p.Run(context.Bg(), src.npub, nil)
	if chk.E(err) {
		t.Fatal(err)
	}
	if len(res.Source) != 2 {
		t.Fatalf("fetched %d source events, want 2", len(res.Source))
	}
	if len(res.Outcomes) != 0 {
		t.Fatal("no destination key, nothing should have been cloned")
	}
	if len(pool.published) != 0 {
		t.Fatal("no destination key, nothing should have been published")
	}
	if p.State() != Done {
		t.Fatalf("state %s, want done", p.State())
	}
}

func TestRunInvalidKeys(t *testing.T) {
	src, dst := newIdentity(t), newIdentity(t)
	pool := &fakePool{evs: sourceNotes(t, src, 1)}
	p := New(pool, testRelays, WithPace(0))
	if _, err := p.Run(context.Bg(), []byte("garbage"),
		dst.nsec); !errors.Is(err, bech32encoding.ErrInvalidFormat) {
		t.Fatalf("want ErrInvalidFormat, got %v", err)
	}
	// an nsec where the npub belongs is the wrong key category
	if _, err := p.Run(context.Bg(), dst.nsec,
		dst.nsec); !errors.Is(err, bech32encoding.ErrWrongKeyType) {
		t.Fatalf("want ErrWrongKeyType, got %v", err)
	}
	if len(pool.fetched) != 0 {
		t.Fatal("no query should run with invalid keys")
	}
}

func TestRunPublishFailureIsNonFatal(t *testing.T) {
	src, dst := newIdentity(t), newIdentity(t)
	pool := &fakePool{
		evs:        sourceNotes(t, src, 2),
		publishErr: errors.New("all relays failed"),
	}
	p := New(pool, testRelays, WithPace(0))
	res, err := p.Run(context.Bg(), src.npub, dst.nsec)
	if chk.E(err) {
		t.Fatalf("publish failures must not fail the run: %v", err)
	}
	if len(res.Outcomes) != 2 {
		t.Fatalf("got %d outcomes, want 2", len(res.Outcomes))
	}
	for _, out := range res.Outcomes {
		if out.Err == nil {
			t.Fatal("outcome should carry the publish failure")
		}
	}
	if res.Published() != 0 {
		t.Fatal("nothing should count as published")
	}
	if p.State() != Done {
		t.Fatalf("state %s, want done", p.State())
	}
}

func TestRunDryRun(t *testing.T) {
	src, dst := newIdentity(t), newIdentity(t)
	pool := &fakePool{evs: sourceNotes(t, src, 2)}
	p := New(pool, testRelays, WithPace(0), WithDryRun(true))
	res, err := p.Run(context.Bg(), src.npub, dst.nsec)
	if chk.E(err) {
		t.Fatal(err)
	}
	if len(res.Outcomes) != 2 {
		t.Fatalf("got %d outcomes, want 2", len(res.Outcomes))
	}
	if len(pool.published) != 0 {
		t.Fatal("dry run must not publish")
	}
}

func TestRunLimit(t *testing.T) {
	src, dst := newIdentity(t), newIdentity(t)
	pool := &fakePool{evs: sourceNotes(t, src, 5)}
	p := New(pool, testRelays, WithPace(0), WithLimit(2))
	res, err := p.Run(context.Bg(), src.npub, dst.nsec)
	if chk.E(err) {
		t.Fatal(err)
	}
	if len(res.Source) != 2 {
		t.Fatalf("limit 2 but kept %d source events", len(res.Source))
	}
	// the newest events are the ones kept
	if res.Source[0].CreatedAt.I64() < res.Source[1].CreatedAt.I64() {
		t.Fatal("source events not in reverse chronological order")
	}
	if len(res.Outcomes) != 2 {
		t.Fatalf("got %d outcomes, want 2", len(res.Outcomes))
	}
}

func TestDedupeRelays(t *testing.T) {
	p := New(&fakePool{}, []string{
		"wss://one.example.com",
		"one.example.com",
		"wss://two.example.com/",
		"wss://two.example.com",
		"",
	})
	if len(p.relays) != 2 {
		t.Fatalf("relays %v, want 2 distinct", p.relays)
	}
	if p.relays[0] != "wss://one.example.com" ||
		p.relays[1] != "wss://two.example.com" {
		t.Fatalf("relays %v, wrong order or normalization", p.relays)
	}
}

func TestRunNoRelays(t *testing.T) {
	src, dst := newIdentity(t), newIdentity(t)
	p := New(&fakePool{evs: sourceNotes(t, src, 1)}, nil)
	if _, err := p.Run(context.Bg(), src.npub, dst.nsec); err == nil {
		t.Fatal("expected an error with no relays configured")
	}
}
