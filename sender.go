// Copyright 2026 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

package pubsub

import (
	"context"
	"encoding/xml"
)

// Sender transmits stanzas over an established stream.
//
// The method set matches the Send method of *xmpp.Session from
// mellium.im/xmpp so that a session may be used directly.
// Send must not return until the entire stanza has been consumed from r.
type Sender interface {
	Send(ctx context.Context, r xml.TokenReader) error
}

// The SenderFunc type is an adapter to allow the use of ordinary functions as
// senders.
type SenderFunc func(ctx context.Context, r xml.TokenReader) error

// Send calls f(ctx, r).
func (f SenderFunc) Send(ctx context.Context, r xml.TokenReader) error {
	return f(ctx, r)
}
