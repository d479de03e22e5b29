// Package ws implements a nostr client over websockets: a relay connection
// with a serialized write queue, subscription management and publish
// confirmation, and a pool aggregating many relays.
package ws

import (
	"bytes"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/puzpuzpuz/xsync/v3"

	"renote.lol/chk"
	"renote.lol/codec"
	"renote.lol/context"
	"renote.lol/envelopes"
	"renote.lol/envelopes/closedenvelope"
	"renote.lol/envelopes/eoseenvelope"
	"renote.lol/envelopes/eventenvelope"
	"renote.lol/envelopes/noticeenvelope"
	"renote.lol/envelopes/okenvelope"
	"renote.lol/event"
	"renote.lol/filter"
	"renote.lol/filters"
	"renote.lol/log"
	"renote.lol/normalize"
)

var subscriptionIDCounter atomic.Int32

// Client is a connection to a single relay.
type Client struct {
	// Ctx will be canceled when connection closes
	Ctx                     context.T
	ConnectionContextCancel context.F
	closeMutex              sync.Mutex
	url                     []byte
	// RequestHeader e.g. for origin header
	RequestHeader   http.Header
	Connection      *Connection
	Subscriptions   *xsync.MapOf[string, *Subscription]
	ConnectionError error
	// notices are NIP-01 NOTICE
	notices                       chan []byte
	okCallbacks                   *xsync.MapOf[string, func(bool, []byte)]
	writeQueue                    chan writeRequest
	subscriptionChannelCloseQueue chan *Subscription

	// AssumeValid skips verifying signatures of events from this relay.
	AssumeValid bool
}

func (r *Client) URL() string { return string(r.url) }

func (r *Client) Delete(key string) { r.Subscriptions.Delete(key) }

type writeRequest struct {
	msg    []byte
	answer chan error
}

// NewClient returns a new relay client. The relay connection will be closed
// when the context is canceled.
func NewClient(c context.T, url string, opts ...Option) *Client {
	ctx, cancel := context.Cancel(c)
	r := &Client{
		url:                           normalize.URL(url),
		Ctx:                           ctx,
		ConnectionContextCancel:       cancel,
		Subscriptions:                 xsync.NewMapOf[string, *Subscription](),
		okCallbacks:                   xsync.NewMapOf[string, func(bool, []byte)](),
		writeQueue:                    make(chan writeRequest),
		subscriptionChannelCloseQueue: make(chan *Subscription),
	}

	for _, opt := range opts {
		switch o := opt.(type) {
		case WithNoticeHandler:
			r.notices = make(chan []byte)
			go func() {
				for n := range r.notices {
					o(n)
				}
			}()
		}
	}

	return r
}

// Connect returns a relay object connected to url. Once successfully
// connected, cancelling ctx has no effect. To close the connection, call
// r.Close().
func Connect(c context.T, url string, opts ...Option) (*Client, error) {
	r := NewClient(c, url, opts...)
	err := r.Connect(c)
	return r, err
}

// Option is the type of the optional arguments to NewClient and Connect.
type Option interface {
	IsRelayOption()
}

// WithNoticeHandler just takes notices and is expected to do something with
// them. When not given, notices are logged.
type WithNoticeHandler func(notice []byte)

func (_ WithNoticeHandler) IsRelayOption() {}

var _ Option = (WithNoticeHandler)(nil)

// String just returns the relay URL.
func (r *Client) String() string {
	return string(r.url)
}

// Context retrieves the context that is associated with this relay
// connection.
func (r *Client) Context() context.T { return r.Ctx }

// IsConnected returns true if the connection to this relay seems to be
// active.
func (r *Client) IsConnected() bool { return r.Ctx.Err() == nil }

// Connect tries to establish a websocket connection to r.URL. If the context
// expires before the connection is complete, an error is returned. Once
// successfully connected, context expiration has no effect: call r.Close to
// close the connection.
func (r *Client) Connect(c context.T) (err error) {
	if r.Ctx == nil || r.Subscriptions == nil {
		return fmt.Errorf(
			"relay must be initialized with a call to NewClient()")
	}
	if len(r.url) < 1 {
		return fmt.Errorf("invalid relay URL '%s'", r.URL())
	}
	if _, ok := c.Deadline(); !ok {
		// if no timeout is set, force it to 7 seconds
		var cancel context.F
		c, cancel = context.Timeout(c, 7*time.Second)
		defer cancel()
	}
	var conn *Connection
	conn, err = NewConnection(c, r.URL(), r.RequestHeader, nil)
	if err != nil {
		return fmt.Errorf("error opening websocket to '%s': %w", r.URL(), err)
	}
	r.Connection = conn
	// ping every 29 seconds
	ticker := time.NewTicker(29 * time.Second)
	// to be used when the connection is closed
	go func() {
		<-r.Ctx.Done()
		// close these things when the connection is closed
		if r.notices != nil {
			close(r.notices)
		}
		// stop the ticker
		ticker.Stop()
		// close all subscriptions
		r.Subscriptions.Range(func(_ string, sub *Subscription) bool {
			go sub.Unsub()
			return true
		})
	}()

	// queue all write operations here so we don't do mutex spaghetti
	go func() {
		var err error
		for {
			select {
			case <-ticker.C:
				if err = r.Connection.Ping(); err != nil {
					log.D.F("{%s} error writing ping: %v; closing websocket",
						r.URL(), err)
					chk.D(r.Close())
					return
				}
			case wr := <-r.writeQueue:
				if wr.msg == nil {
					return
				}
				// all write requests go through here to prevent races
				if err = r.Connection.WriteMessage(r.Ctx,
					wr.msg); err != nil {
					wr.answer <- err
				}
				close(wr.answer)
			case <-r.Ctx.Done():
				return
			}
		}
	}()

	// general message reader loop
	go r.MessageReadLoop(conn)
	return nil
}

func (r *Client) MessageReadLoop(conn *Connection) {
	var err error
	for {
		buf := new(bytes.Buffer)
		if err = conn.ReadMessage(r.Ctx, buf); err != nil {
			r.ConnectionError = err
			chk.D(r.Close())
			break
		}

		message := buf.Bytes()
		var rem []byte
		var t string
		if t, rem, err = envelopes.Identify(message); chk.E(err) {
			log.I.Ln(string(message))
			continue
		}
		if t == "" {
			continue
		}

		switch t {
		case noticeenvelope.L:
			env := noticeenvelope.New()
			if rem, err = env.Unmarshal(rem); chk.E(err) {
				continue
			}
			// see WithNoticeHandler
			if r.notices != nil {
				r.notices <- env.Message
			} else {
				log.D.F("NOTICE from %s: '%s'", r.URL(), env.Message)
			}

		case eventenvelope.L:
			env := eventenvelope.NewResult()
			if rem, err = env.Unmarshal(rem); chk.E(err) {
				continue
			}
			// if it has no subscription ID we don't know what it is
			if env.Subscription.String() == "" {
				continue
			}
			if s, ok := r.Subscriptions.Load(env.Subscription.String()); !ok {
				log.D.F("{%s} no subscription with id '%s'",
					r.URL(), env.Subscription.String())
				continue
			} else {
				// check if the event matches the desired filter, ignore
				// otherwise
				if !s.Filters.Match(env.Event) {
					log.D.F("{%s} filter does not match: %s ~ %s",
						r.URL(), s.Filters.String(), env.Event.Serialize())
					continue
				}
				// check signature, ignore invalid, except from trusted
				// (AssumeValid) relays
				if !r.AssumeValid {
					if ok, err = env.Event.Verify(); !ok {
						errmsg := ""
						if chk.D(err) {
							errmsg = err.Error()
						}
						log.D.F("{%s} bad signature on %s; %s",
							r.URL(), env.Event.IDHex(), errmsg)
						continue
					}
				}
				// dispatch this to the internal .events channel of the
				// subscription
				s.dispatchEvent(env.Event)
			}

		case eoseenvelope.L:
			env := eoseenvelope.New()
			if rem, err = env.Unmarshal(rem); chk.E(err) {
				continue
			}
			if s, ok := r.Subscriptions.Load(env.Subscription.String()); ok {
				s.dispatchEose()
			}

		case closedenvelope.L:
			env := closedenvelope.New()
			if rem, err = env.Unmarshal(rem); chk.E(err) {
				continue
			}
			if s, ok := r.Subscriptions.Load(env.Subscription.String()); ok {
				s.dispatchClosed(env.Reason)
			}

		case okenvelope.L:
			env := okenvelope.New()
			if rem, err = env.Unmarshal(rem); chk.E(err) {
				continue
			}
			if okCallback, exist := r.okCallbacks.Load(
				env.EventID.String()); exist {
				okCallback(env.OK, env.Reason)
			} else {
				log.D.F("{%s} got an unexpected OK message for event %s",
					r.URL(), env.EventID.String())
			}
		}
	}
}

// Write queues a message to be sent to the relay.
func (r *Client) Write(msg []byte) (ch chan error) {
	ch = make(chan error, 1)
	timeout := time.After(time.Second * 5)
	select {
	case r.writeQueue <- writeRequest{msg: msg, answer: ch}:
	case <-r.Ctx.Done():
		ch <- fmt.Errorf("connection closed")
	case <-timeout:
		ch <- fmt.Errorf("write timed out")
		return
	}
	return
}

// Publish sends an "EVENT" command to the relay as in NIP-01 and waits for an
// OK response.
func (r *Client) Publish(c context.T, ev *event.T) error {
	return r.publish(c, ev.IDHex(), eventenvelope.NewSubmissionWith(ev))
}

// publish sends the envelope and waits for the matching OK.
func (r *Client) publish(c context.T, id string,
	env codec.Envelope) (err error) {
	var cancel context.F
	if _, ok := c.Deadline(); !ok {
		// if no timeout is set, force it to 4 seconds
		c, cancel = context.Timeout(c, 4*time.Second)
		defer cancel()
	} else {
		// otherwise make the context cancellable, so we can stop everything
		// upon receiving an "OK"
		c, cancel = context.Cancel(c)
		defer cancel()
	}
	// listen for an OK callback
	gotOk := false
	r.okCallbacks.Store(id, func(ok bool, reason []byte) {
		gotOk = true
		if !ok {
			err = log.E.Err("msg: %s", reason)
		}
		cancel()
	})
	defer r.okCallbacks.Delete(id)
	// publish event
	var enb []byte
	enb = env.Marshal(enb)
	if err = <-r.Write(enb); err != nil {
		return err
	}
	for {
		select {
		case <-c.Done():
			// called when we get an OK or when the context is canceled
			if gotOk {
				return err
			}
			return c.Err()
		case <-r.Ctx.Done():
			// this is caused when we lose connectivity
			return err
		}
	}
}

// Subscribe sends a "REQ" command to the relay as in NIP-01. Events are
// returned through the channel sub.Events. The subscription is closed when
// context ctx is cancelled ("CLOSE" in NIP-01).
//
// Remember to cancel subscriptions, either by calling `.Unsub()` on them or
// ensuring their `context.T` will be canceled at some point. Failure to do
// that will result in a huge number of halted goroutines being created.
func (r *Client) Subscribe(c context.T, f *filters.T,
	opts ...SubscriptionOption) (sub *Subscription, err error) {

	sub = r.PrepareSubscription(c, f, opts...)

	if err := sub.Fire(); err != nil {
		return nil, fmt.Errorf("couldn't subscribe to %v at %s: %w", f,
			r.URL(), err)
	}

	return sub, nil
}

// PrepareSubscription creates a subscription, but doesn't fire it.
//
// Remember to cancel subscriptions, either by calling `.Unsub()` on them or
// ensuring their `context.T` will be canceled at some point.
func (r *Client) PrepareSubscription(c context.T, f *filters.T,
	opts ...SubscriptionOption) *Subscription {

	if r.Connection == nil {
		panic(fmt.Errorf(
			"must call .Connect() first before calling .Subscribe()"))
	}

	current := subscriptionIDCounter.Add(1)
	ctx, cancel := context.Cancel(c)

	sub := &Subscription{
		Relay:             r,
		Context:           ctx,
		cancel:            cancel,
		counter:           int(current),
		Events:            make(event.C),
		EndOfStoredEvents: make(chan struct{}),
		ClosedReason:      make(chan string, 1),
		Filters:           f,
	}

	for _, opt := range opts {
		switch o := opt.(type) {
		case WithLabel:
			sub.label = string(o)
		}
	}

	id := sub.GetID()
	r.Subscriptions.Store(id.String(), sub)

	// start handling events, eose, unsub etc:
	go sub.start()

	return sub
}

// QuerySync subscribes with a single filter and collects events until the
// relay signals the end of stored events or the context expires.
func (r *Client) QuerySync(c context.T, f *filter.T,
	opts ...SubscriptionOption) ([]*event.T, error) {
	sub, err := r.Subscribe(c, filters.New(f), opts...)
	if err != nil {
		return nil, err
	}

	defer sub.Unsub()

	if _, ok := c.Deadline(); !ok {
		// if no timeout is set, force it to 7 seconds
		var cancel context.F
		c, cancel = context.Timeout(c, 7*time.Second)
		defer cancel()
	}

	var events []*event.T
	for {
		select {
		case evt := <-sub.Events:
			if evt == nil {
				return events, nil
			}
			events = append(events, evt)
		case <-sub.EndOfStoredEvents:
			return events, nil
		case <-c.Done():
			return events, nil
		}
	}
}

func (r *Client) Close() error {
	r.closeMutex.Lock()
	defer r.closeMutex.Unlock()

	if r.ConnectionContextCancel == nil {
		return fmt.Errorf("relay not connected")
	}

	r.ConnectionContextCancel()
	r.ConnectionContextCancel = nil
	return r.Connection.Close()
}
