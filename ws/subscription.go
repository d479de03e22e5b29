package ws

import (
	"strconv"
	"sync"
	"sync/atomic"

	"renote.lol/chk"
	"renote.lol/context"
	"renote.lol/envelopes/closeenvelope"
	"renote.lol/envelopes/reqenvelope"
	"renote.lol/errorf"
	"renote.lol/event"
	"renote.lol/filters"
	"renote.lol/log"
	"renote.lol/subscriptionid"
)

type Subscription struct {
	label   string
	counter int

	Relay   *Client
	Filters *filters.T

	// The Events channel emits all EVENTs that come in for the Subscription.
	// It will be closed when the subscription ends.
	Events event.C
	mu     sync.Mutex

	// The EndOfStoredEvents channel receives once when an EOSE comes for the
	// subscription.
	EndOfStoredEvents chan struct{}

	// The ClosedReason channel emits the reason when a CLOSED message is
	// received.
	ClosedReason chan string

	// Context will be .Done() when the subscription ends.
	Context context.T

	live   atomic.Bool
	eosed  atomic.Bool
	closed atomic.Bool
	cancel context.F

	// This keeps track of the events received before the EOSE that must be
	// dispatched before closing the EndOfStoredEvents channel.
	storedwg sync.WaitGroup
}

// SubscriptionOption is the type of the optional arguments to Subscribe.
type SubscriptionOption interface {
	IsSubscriptionOption()
}

// WithLabel puts a label on the subscription (it is prepended to the
// automatic id) that is sent to relays.
type WithLabel string

func (_ WithLabel) IsSubscriptionOption() {}

var _ SubscriptionOption = (WithLabel)("")

// GetID returns the subscription ID as given to the relay, a concatenation of
// the label and a serial number.
func (sub *Subscription) GetID() (id *subscriptionid.T) {
	var err error
	if id, err = subscriptionid.New(sub.label + ":" +
		strconv.Itoa(sub.counter)); chk.E(err) {
		return
	}
	return
}

func (sub *Subscription) start() {
	<-sub.Context.Done()
	// the subscription ends once the context is canceled (if not already)
	sub.Unsub()

	// hold the mutex so the Events channel is never closed while a dispatch
	// is trying to send to it
	sub.mu.Lock()
	close(sub.Events)
	sub.mu.Unlock()
}

func (sub *Subscription) dispatchEvent(evt *event.T) {
	added := false
	if !sub.eosed.Load() {
		sub.storedwg.Add(1)
		added = true
	}

	go func() {
		sub.mu.Lock()
		defer sub.mu.Unlock()

		if sub.live.Load() {
			select {
			case sub.Events <- evt:
			case <-sub.Context.Done():
			}
		}

		if added {
			sub.storedwg.Done()
		}
	}()
}

func (sub *Subscription) dispatchEose() {
	if sub.eosed.CompareAndSwap(false, true) {
		go func() {
			sub.storedwg.Wait()
			sub.EndOfStoredEvents <- struct{}{}
		}()
	}
}

func (sub *Subscription) dispatchClosed(reason []byte) {
	if sub.closed.CompareAndSwap(false, true) {
		go func() {
			sub.ClosedReason <- string(reason)
		}()
	}
}

// Unsub closes the subscription, sending "CLOSE" to the relay. Unsub() also
// closes the channel sub.Events.
func (sub *Subscription) Unsub() {
	// cancel the context (if it's not canceled already)
	sub.cancel()
	// mark subscription as closed and send a CLOSE to the relay (naïve
	// sync.Once implementation)
	if sub.live.CompareAndSwap(true, false) {
		sub.Close()
	}
	// remove subscription from our map
	sub.Relay.Subscriptions.Delete(sub.GetID().String())
}

// Close just sends a CLOSE message. You probably want Unsub() instead.
func (sub *Subscription) Close() {
	if sub.Relay.IsConnected() {
		id := sub.GetID()
		b := closeenvelope.NewFrom(id).Marshal(nil)
		log.D.F("{%s} sending %s", sub.Relay.URL(), b)
		<-sub.Relay.Write(b)
	}
}

// Fire sends the "REQ" command to the relay.
func (sub *Subscription) Fire() (err error) {
	id := sub.GetID()
	b := reqenvelope.NewFrom(id, sub.Filters).Marshal(nil)
	log.D.F("{%s} sending %s", sub.Relay.URL(), b)
	sub.live.Store(true)
	if err = <-sub.Relay.Write(b); err != nil {
		sub.cancel()
		return errorf.E("failed to write: %w", err)
	}
	return nil
}
