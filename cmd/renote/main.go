// Package main is a command line tool that clones a nostr identity: it
// fetches the text notes an npub has published to a set of relays, re-signs
// them under the identity of an nsec, and publishes the copies back to the
// same relays.
package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alexflint/go-arg"

	"renote.lol/clone"
	"renote.lol/config"
	"renote.lol/context"
	"renote.lol/log"
	"renote.lol/ws"
)

var args struct {
	Npub   string        `arg:"positional,required" help:"the bech32 public key of the source identity"`
	Nsec   string        `arg:"positional" help:"the bech32 secret key of the destination identity; omit to only fetch"`
	Relay  []string      `arg:"--relay,separate" help:"relay URL, repeatable; overrides the RELAYS environment variable"`
	Limit  uint          `arg:"-l,--limit" help:"maximum number of events to clone; overrides LIMIT"`
	Pace   time.Duration `arg:"--pace" help:"delay between publishes; overrides PACE"`
	DryRun bool          `arg:"--dry-run" help:"fetch and re-sign but do not publish"`
}

func main() {
	cfg := config.New()
	arg.MustParse(&args)
	relays := cfg.Relays
	if len(args.Relay) > 0 {
		relays = args.Relay
	}
	if args.Limit > 0 {
		cfg.Limit = args.Limit
	}
	if args.Pace > 0 {
		cfg.Pace = args.Pace
	}
	if len(relays) == 0 {
		_, _ = fmt.Fprintln(os.Stderr,
			"no relays given; set RELAYS or pass --relay")
		os.Exit(1)
	}
	c, cancel := context.Timeout(context.Bg(), cfg.Timeout)
	defer cancel()
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigs
		log.I.Ln("interrupt signal received")
		cancel()
	}()

	pool := ws.NewSimplePool(c)
	defer pool.Close()
	started := time.Now()
	p := clone.New(pool, relays,
		clone.WithPace(cfg.Pace),
		clone.WithLimit(cfg.Limit),
		clone.WithDryRun(args.DryRun),
		clone.WithStateFunc(func(s clone.State) {
			log.I.F("%s", s)
		}),
	)
	res, err := p.Run(c, []byte(args.Npub), []byte(args.Nsec))
	if err != nil {
		log.F.F("clone failed: %v", err)
		os.Exit(1)
	}
	fmt.Printf("fetched %d events from %d relays\n", len(res.Source),
		len(relays))
	if len(res.Outcomes) == 0 {
		fmt.Println("no destination key supplied, nothing published")
		return
	}
	for _, out := range res.Outcomes {
		switch {
		case args.DryRun:
			fmt.Printf("  %s (dry run)\n", out.Event.IDHex())
		case out.Err != nil:
			fmt.Printf("  %s FAILED: %v\n", out.Event.IDHex(), out.Err)
		default:
			fmt.Printf("  %s -> %s\n", out.Event.IDHex(), out.Relay)
		}
	}
	fmt.Printf("published %d of %d cloned events in %v\n", res.Published(),
		len(res.Outcomes), time.Since(started).Round(time.Millisecond))
}
