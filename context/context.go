// Package context is a set of shorter names for the types and functions of the
// standard library context package used on every blocking operation in this
// module.
package context

import (
	"context"
	"time"
)

type (
	// T is the context interface passed into blocking operations.
	T = context.Context
	// F is a context cancel function.
	F = context.CancelFunc
)

var (
	// Bg returns a fresh background context.
	Bg = context.Background
	// Cancel returns a cancelable child context.
	Cancel = context.WithCancel
	// TODO marks a context that has not been decided yet.
	TODO = context.TODO
	// Canceled is the error returned from a canceled context.
	Canceled = context.Canceled
)

// Timeout returns a child context that is canceled after d.
func Timeout(c T, d time.Duration) (T, F) { return context.WithTimeout(c, d) }
