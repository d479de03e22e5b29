package ws

import (
	"fmt"
	"sync"
	"time"
	"unsafe"

	"github.com/puzpuzpuz/xsync/v3"

	"renote.lol/chk"
	"renote.lol/context"
	"renote.lol/errorf"
	"renote.lol/event"
	"renote.lol/filter"
	"renote.lol/filters"
	"renote.lol/log"
	"renote.lol/normalize"
)

// SimplePool aggregates connections to multiple relays, deduplicating events
// received from more than one of them.
type SimplePool struct {
	Relays          *xsync.MapOf[string, *Client]
	Context         context.T
	cancel          context.F
	eventMiddleware []func(IncomingEvent)
}

// IncomingEvent is an event along with the relay connection it arrived on.
type IncomingEvent struct {
	Event  *event.T
	Client *Client
}

func (ie IncomingEvent) String() string {
	return fmt.Sprintf("[%s] >> %s", ie.Client.URL(), ie.Event.Serialize())
}

// PublishResult is the outcome of submitting one event to one relay.
type PublishResult struct {
	Event *event.T
	Relay string
	Err   error
}

type PoolOption interface {
	ApplyPoolOption(*SimplePool)
}

func NewSimplePool(c context.T, opts ...PoolOption) *SimplePool {
	ctx, cancel := context.Cancel(c)

	pool := &SimplePool{
		Relays: xsync.NewMapOf[string, *Client](),

		Context: ctx,
		cancel:  cancel,
	}

	for _, opt := range opts {
		opt.ApplyPoolOption(pool)
	}

	return pool
}

// WithEventMiddleware is a function that will be called with all events
// received. More than one can be passed at a time.
type WithEventMiddleware func(IncomingEvent)

func (h WithEventMiddleware) ApplyPoolOption(pool *SimplePool) {
	pool.eventMiddleware = append(pool.eventMiddleware, h)
}

var _ PoolOption = (WithEventMiddleware)(nil)

const MAX_LOCKS = 50

var namedMutexPool = make([]sync.Mutex, MAX_LOCKS)

//go:noescape
//go:linkname memhash runtime.memhash
func memhash(p unsafe.Pointer, h, s uintptr) uintptr

func namedLock(name string) (unlock func()) {
	sptr := unsafe.StringData(name)
	idx := uint64(memhash(unsafe.Pointer(sptr), 0,
		uintptr(len(name)))) % MAX_LOCKS
	namedMutexPool[idx].Lock()
	return namedMutexPool[idx].Unlock
}

// EnsureRelay returns the pool's connection to a relay, dialing it if there
// is none or the old one died.
func (pool *SimplePool) EnsureRelay(url string) (*Client, error) {
	nm := string(normalize.URL(url))
	defer namedLock(nm)()

	relay, ok := pool.Relays.Load(nm)
	if ok && relay.IsConnected() {
		// already connected, unlock and return
		return relay, nil
	} else {
		var err error
		// the timeout bounds the dial only; the client's lifetime hangs off
		// the pool context so when the pool dies everything dies
		ctx, cancel := context.Timeout(pool.Context, time.Second*15)
		defer cancel()

		relay = NewClient(pool.Context, nm)
		if err = relay.Connect(ctx); chk.T(err) {
			return nil, errorf.E("failed to connect: %w", err)
		}

		pool.Relays.Store(nm, relay)
		return relay, nil
	}
}

// SubManyEose opens a subscription with the given filters to multiple relays
// and closes the returned channel when all of them have delivered their
// stored events (or died). Events seen on more than one relay are only
// emitted once.
func (pool *SimplePool) SubManyEose(c context.T, urls []string,
	ff *filters.T) chan IncomingEvent {
	ctx, cancel := context.Cancel(c)

	events := make(chan IncomingEvent)
	seenAlready := xsync.NewMapOf[string, bool]()
	wg := sync.WaitGroup{}
	wg.Add(len(urls))

	go func() {
		// this will happen when all subscriptions get an eose (or when they
		// die)
		wg.Wait()
		cancel()
		close(events)
	}()

	for _, url := range urls {
		go func(nm string) {
			var err error
			defer wg.Done()
			var client *Client
			if client, err = pool.EnsureRelay(nm); chk.E(err) {
				return
			}

			var sub *Subscription
			if sub, err = client.Subscribe(ctx, ff); chk.E(err) ||
				sub == nil {
				log.E.F("error subscribing to %s with %v: %s", client, ff,
					err)
				return
			}
			for {
				select {
				case <-ctx.Done():
					return
				case <-sub.EndOfStoredEvents:
					return
				case reason := <-sub.ClosedReason:
					log.I.F("CLOSED from %s: '%s'", nm, reason)
					return
				case evt, more := <-sub.Events:
					if !more {
						return
					}

					ie := IncomingEvent{Event: evt, Client: client}
					for _, mh := range pool.eventMiddleware {
						mh(ie)
					}

					if _, seen := seenAlready.LoadOrStore(evt.IDHex(),
						true); seen {
						continue
					}

					select {
					case events <- ie:
					case <-ctx.Done():
						return
					}
				}
			}
		}(string(normalize.URL(url)))
	}

	return events
}

// FetchAll collects every event matching the filter from the given relays,
// deduplicated, returning once all of them have signalled the end of their
// stored events or the context expires.
func (pool *SimplePool) FetchAll(c context.T, urls []string,
	f *filter.T) (evs []*event.T) {
	for ie := range pool.SubManyEose(c, urls, filters.New(f)) {
		evs = append(evs, ie.Event)
	}
	return
}

// QuerySingle returns the first event returned by the first relay, cancels
// everything else.
func (pool *SimplePool) QuerySingle(c context.T, urls []string,
	f *filter.T) *IncomingEvent {
	ctx, cancel := context.Cancel(c)
	defer cancel()
	for ievt := range pool.SubManyEose(ctx, urls, filters.New(f)) {
		return &ievt
	}
	return nil
}

// PublishToAny submits the event to every relay concurrently and returns the
// URL of the first one that accepts it, cancelling the rest. An error is
// returned only when every relay rejects the event or fails.
func (pool *SimplePool) PublishToAny(c context.T, urls []string,
	ev *event.T) (relay string, err error) {
	if len(urls) == 0 {
		err = errorf.E("no relays to publish to")
		return
	}
	ctx, cancel := context.Cancel(c)
	defer cancel()
	results := make(chan PublishResult, len(urls))
	for _, url := range urls {
		go func(nm string) {
			var e error
			var client *Client
			if client, e = pool.EnsureRelay(nm); e != nil {
				results <- PublishResult{Event: ev, Relay: nm, Err: e}
				return
			}
			if e = client.Publish(ctx, ev); e != nil {
				results <- PublishResult{Event: ev, Relay: nm, Err: e}
				return
			}
			results <- PublishResult{Event: ev, Relay: nm}
		}(string(normalize.URL(url)))
	}
	var failures []error
	for range urls {
		select {
		case res := <-results:
			if res.Err == nil {
				relay = res.Relay
				return
			}
			failures = append(failures, errorf.E("%s: %w", res.Relay, res.Err))
		case <-c.Done():
			err = c.Err()
			return
		}
	}
	err = errorf.E("all %d relays failed: %v", len(urls), failures)
	return
}

// Close shuts down every connection in the pool.
func (pool *SimplePool) Close() {
	pool.cancel()
	pool.Relays.Range(func(_ string, relay *Client) bool {
		chk.D(relay.Close())
		return true
	})
}
