// Package config loads the runtime configuration from the environment.
package config

import (
	"fmt"
	"os"
	"time"

	"go-simpler.org/env"

	"renote.lol"
	"renote.lol/chk"
	"renote.lol/lol"
)

// C is the configuration for a clone run. All of it comes from environment
// variables, the key material is taken on the command line so it never sits
// in the environment of the process.
type C struct {
	AppName  string        `env:"APP_NAME" default:"renote"`
	Relays   []string      `env:"RELAYS" usage:"comma separated relay URLs to fetch from and publish to"`
	Pace     time.Duration `env:"PACE" default:"50ms" usage:"delay between publishing successive events"`
	Limit    uint          `env:"LIMIT" default:"50" usage:"maximum number of events to fetch from the source"`
	Timeout  time.Duration `env:"TIMEOUT" default:"30s" usage:"overall deadline for one clone run"`
	LogLevel string        `env:"LOG_LEVEL" default:"info" usage:"logging level: off fatal error warn info debug trace"`
}

func New() (c *C) {
	if len(os.Args) == 2 && os.Args[1] == "version" {
		fmt.Println(renote.Version)
		os.Exit(0)
	}
	c = &C{}
	if err := env.Load(c, &env.Options{SliceSep: ","}); chk.T(err) {
		return
	}
	if len(os.Args) == 2 && os.Args[1] == "help" {
		fmt.Printf("\nenvironment variables that configure %s\n\n", c.AppName)
		env.Usage(c, os.Stdout, nil)
		fmt.Printf(`
commands:

  - print this help message

      %s help

  - print version info

      %s version

`, os.Args[0], os.Args[0])
		os.Exit(0)
	}
	lol.SetLogLevel(c.LogLevel)
	return
}
