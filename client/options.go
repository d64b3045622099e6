// Copyright 2026 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

package client

import (
	"log/slog"
	"time"

	"github.com/benbjohnson/clock"
)

// Option's can be used to configure the client.
type Option func(*options)
type options struct {
	log     *slog.Logger
	timeout time.Duration
	clock   clock.Clock

	onItems         func(ItemsEvent)
	onDelete        func(DeleteEvent)
	onPurge         func(PurgeEvent)
	onSubscription  func(SubscriptionEvent)
	onConfiguration func(ConfigurationEvent)
}

func getOpts(o ...Option) (res options) {
	for _, f := range o {
		f(&res)
	}

	// Log to /dev/null by default.
	if res.log == nil {
		res.log = slog.New(slog.DiscardHandler)
	}
	if res.clock == nil {
		res.clock = clock.New()
	}
	return
}

// The Logger option can be provided to have the Client log unexpected responses
// and other helpful info.
func Logger(logger *slog.Logger) Option {
	return func(o *options) {
		o.log = logger
	}
}

// Timeout sets a deadline on every request sent by the client.
// If no response is received before it expires the request fails with
// pubsub.CondTimeout and any response that arrives later is dropped.
// The default is 0 (no timeout), in which case requests only end when a
// response arrives, the context passed to Wait is canceled, or the client is
// closed.
func Timeout(d time.Duration) Option {
	return func(o *options) {
		o.timeout = d
	}
}

// Clock sets the clock used to schedule request timeouts.
// It is mostly useful for testing.
func Clock(c clock.Clock) Option {
	return func(o *options) {
		o.clock = c
	}
}

// OnItems registers a function that is called for every items notification.
func OnItems(f func(ItemsEvent)) Option {
	return func(o *options) {
		o.onItems = f
	}
}

// OnDelete registers a function that is called when a service reports that a
// node was deleted.
func OnDelete(f func(DeleteEvent)) Option {
	return func(o *options) {
		o.onDelete = f
	}
}

// OnPurge registers a function that is called when a service reports that all
// items were removed from a node.
func OnPurge(f func(PurgeEvent)) Option {
	return func(o *options) {
		o.onPurge = f
	}
}

// OnSubscription registers a function that is called when a service reports a
// change to a subscription.
func OnSubscription(f func(SubscriptionEvent)) Option {
	return func(o *options) {
		o.onSubscription = f
	}
}

// OnConfiguration registers a function that is called when a service reports
// that the configuration of a node changed.
func OnConfiguration(f func(ConfigurationEvent)) Option {
	return func(o *options) {
		o.onConfiguration = f
	}
}
