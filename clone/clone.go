// Package clone implements the identity cloning pipeline: fetch the text
// notes a source identity published to a set of relays, re-sign each one
// under a destination identity with a fresh timestamp, and fan-out publish
// the results back to the relays, one event at a time with a pacing delay.
package clone

import (
	"sort"
	"sync/atomic"
	"time"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/schnorr"
	"github.com/pkg/errors"

	"renote.lol/bech32encoding"
	"renote.lol/chk"
	"renote.lol/context"
	"renote.lol/event"
	"renote.lol/filter"
	"renote.lol/hex"
	"renote.lol/kind"
	"renote.lol/kinds"
	"renote.lol/log"
	"renote.lol/normalize"
	"renote.lol/p256k"
	"renote.lol/tag"
	"renote.lol/timestamp"
)

// ErrNoEvents is returned when no relay had any events authored by the
// source identity, there is nothing to clone.
var ErrNoEvents = errors.New("no events found for source identity")

// State is the phase the pipeline is currently in.
type State int32

const (
	Idle State = iota
	ValidatingInput
	Querying
	Transforming
	Publishing
	Done
	Failed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case ValidatingInput:
		return "validating input"
	case Querying:
		return "querying relays"
	case Transforming:
		return "re-signing events"
	case Publishing:
		return "publishing"
	case Done:
		return "done"
	case Failed:
		return "failed"
	}
	return "unknown"
}

// Pool is the slice of the relay pool the pipeline consumes: a joined
// fan-out read and a first-success-wins fan-out write.
type Pool interface {
	// FetchAll collects every event matching the filter from the given
	// relays, deduplicated by event ID, returning when all relays have
	// delivered their stored events or failed.
	FetchAll(c context.T, urls []string, f *filter.T) []*event.T
	// PublishToAny submits the event to every relay concurrently, returning
	// the URL of the first one that accepts it, or an error when all of them
	// fail.
	PublishToAny(c context.T, urls []string, ev *event.T) (relay string,
		err error)
}

// Outcome records what happened to one cloned event.
type Outcome struct {
	// Event is the re-signed clone.
	Event *event.T
	// Relay is the URL of the relay that accepted the event, empty if none
	// did.
	Relay string
	// Err carries the aggregate publish failure when no relay accepted the
	// event.
	Err error
}

// Result is everything one pipeline invocation produced.
type Result struct {
	// Source are the events fetched from the relays, newest first.
	Source []*event.T
	// Outcomes are the cloned events in publish order with their per-event
	// publish outcome. Empty when no destination key was supplied.
	Outcomes []Outcome
}

// Published counts the outcomes that were accepted by at least one relay.
func (r *Result) Published() (n int) {
	for i := range r.Outcomes {
		if r.Outcomes[i].Err == nil && r.Outcomes[i].Relay != "" {
			n++
		}
	}
	return
}

// Option is the type of the optional arguments to New.
type Option interface {
	IsPipelineOption()
}

// WithPace sets the delay between publishing one event and the next.
type WithPace time.Duration

func (WithPace) IsPipelineOption() {}

// WithLimit caps how many events are fetched from the source identity.
type WithLimit uint

func (WithLimit) IsPipelineOption() {}

// WithClock supplies the timestamp source used for the cloned events, so a
// fixed instant can stand in for the wall clock.
type WithClock func() *timestamp.T

func (WithClock) IsPipelineOption() {}

// WithDryRun stops the pipeline before publishing: events are fetched and
// re-signed but nothing is sent back to the relays.
type WithDryRun bool

func (WithDryRun) IsPipelineOption() {}

// WithStateFunc registers a callback invoked at every state transition.
type WithStateFunc func(State)

func (WithStateFunc) IsPipelineOption() {}

var (
	_ Option = (WithPace)(0)
	_ Option = (WithLimit)(0)
	_ Option = (WithClock)(nil)
	_ Option = (WithDryRun)(false)
	_ Option = (WithStateFunc)(nil)
)

const (
	DefaultPace  = 50 * time.Millisecond
	DefaultLimit = 50
)

// T is one identity clone operation. It holds no key material between
// invocations of Run, and a single T must not be shared between concurrent
// invocations.
type T struct {
	pool      Pool
	relays    []string
	pace      time.Duration
	limit     uint
	clock     func() *timestamp.T
	dryRun    bool
	stateFunc func(State)
	state     atomic.Int32
}

// New creates a pipeline over the given pool and relay set. The relay list
// is normalized and deduplicated, preserving first occurrence order.
func New(pool Pool, relays []string, opts ...Option) (p *T) {
	p = &T{
		pool:   pool,
		relays: dedupe(relays),
		pace:   DefaultPace,
		limit:  DefaultLimit,
		clock:  timestamp.Now,
	}
	for _, opt := range opts {
		switch o := opt.(type) {
		case WithPace:
			p.pace = time.Duration(o)
		case WithLimit:
			p.limit = uint(o)
		case WithClock:
			p.clock = o
		case WithDryRun:
			p.dryRun = bool(o)
		case WithStateFunc:
			p.stateFunc = o
		}
	}
	return
}

// State returns the phase the pipeline is currently in.
func (p *T) State() State { return State(p.state.Load()) }

// Status returns the human readable form of the current phase.
func (p *T) Status() string { return p.State().String() }

func (p *T) setState(s State) {
	p.state.Store(int32(s))
	if p.stateFunc != nil {
		p.stateFunc(s)
	}
}

// Run executes one clone operation: fetch everything the source identity
// (npub) published, re-sign it under the destination identity (nsec) and
// publish the clones.
//
// An empty nsec is a defined early exit: the source events are fetched and
// returned, nothing is signed or published, and no error is raised. The
// destination secret key is wiped before Run returns.
func (p *T) Run(c context.T, npub, nsec []byte) (res *Result, err error) {
	p.setState(ValidatingInput)
	defer func() {
		if err != nil {
			p.setState(Failed)
		}
	}()
	if len(p.relays) == 0 {
		err = errors.New("at least one relay is required")
		return
	}
	var srcPub *btcec.PublicKey
	if srcPub, err = bech32encoding.NpubToPublicKey(npub); err != nil {
		return
	}
	var sign *p256k.Signer
	if len(nsec) > 0 {
		var sec *btcec.PrivateKey
		if sec, err = bech32encoding.NsecToSecretKey(nsec); err != nil {
			return
		}
		sign = &p256k.Signer{}
		if err = sign.InitSec(sec.Serialize()); chk.E(err) {
			return
		}
		defer sign.Zero()
	}

	p.setState(Querying)
	author := schnorr.SerializePubKey(srcPub)
	limit := p.limit
	f := &filter.T{
		Authors: tag.New(hex.Enc(author)),
		Kinds:   kinds.New(kind.TextNote),
		Limit:   &limit,
	}
	evs := p.pool.FetchAll(c, p.relays, f)
	if len(evs) == 0 {
		err = ErrNoEvents
		return
	}
	// the merge of several relays arrives in no particular order, restore
	// reverse chronological order and apply the limit to the newest events.
	sort.Sort(event.Descending(evs))
	if uint(len(evs)) > p.limit {
		evs = evs[:p.limit]
	}
	res = &Result{Source: evs}
	if sign == nil {
		// no destination key yet, nothing to sign or publish
		p.setState(Done)
		return
	}

	p.setState(Transforming)
	clones := make([]*event.T, 0, len(evs))
	for _, src := range evs {
		ev := &event.T{
			CreatedAt: p.clock(),
			Kind:      src.Kind,
			Tags:      src.Tags,
			Content:   src.Content,
		}
		if err = ev.Sign(sign); chk.E(err) {
			err = errors.Wrap(err, "signing cloned event")
			return
		}
		clones = append(clones, ev)
	}

	p.setState(Publishing)
	for i, ev := range clones {
		out := Outcome{Event: ev}
		if !p.dryRun {
			if out.Relay, out.Err = p.pool.PublishToAny(c, p.relays,
				ev); out.Err != nil {
				// one unpublishable event does not stop the rest
				log.W.F("failed to publish clone %s: %v", ev.IDHex(), out.Err)
			} else {
				log.D.F("published clone %s to %s", ev.IDHex(), out.Relay)
			}
		}
		res.Outcomes = append(res.Outcomes, out)
		if i != len(clones)-1 {
			select {
			case <-time.After(p.pace):
			case <-c.Done():
				err = c.Err()
				return
			}
		}
	}
	p.setState(Done)
	return
}

// dedupe normalizes the relay URLs and removes duplicates, keeping the first
// occurrence order.
func dedupe(relays []string) (out []string) {
	seen := make(map[string]struct{}, len(relays))
	for _, r := range relays {
		nm := string(normalize.URL(r))
		if nm == "" {
			continue
		}
		if _, ok := seen[nm]; ok {
			continue
		}
		seen[nm] = struct{}{}
		out = append(out, nm)
	}
	return
}
