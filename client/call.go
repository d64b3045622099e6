// Copyright 2026 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

package client

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
	"mellium.im/xmpp/jid"

	"mellium.im/pubsub"
	"mellium.im/pubsub/internal/telemetry"
	"mellium.im/pubsub/stanza"
)

// Call is an outstanding request.
// It is resolved exactly once, by a response, a failure to send the request,
// a timeout, cancelation of the context passed to Wait, or closing the client.
type Call struct {
	// ID is the id of the request stanza.
	ID string

	// Action is the name of the pubsub action requested.
	Action string

	// To is the address the request was sent to.
	To jid.JID

	// Payload is the first child of a successful response, if any.
	// It is only valid after Done is closed.
	Payload *stanza.Element

	// Err is the reason the request failed, if any.
	// It is only valid after Done is closed.
	Err error

	client *Client
	done   chan struct{}
	start  time.Time
	timer  *clock.Timer
	span   trace.Span
}

// Done returns a channel that is closed when the call is resolved.
func (call *Call) Done() <-chan struct{} {
	return call.done
}

// Wait blocks until the call is resolved and returns the response payload or
// error.
// If the deadline of ctx passes first the call is resolved with
// pubsub.CondTimeout, if ctx is canceled it is resolved with
// pubsub.CondRequestFailed.
// Either way the context error is wrapped and any response that arrives later
// is dropped.
func (call *Call) Wait(ctx context.Context) (*stanza.Element, error) {
	select {
	case <-call.done:
	case <-ctx.Done():
		cond := pubsub.CondRequestFailed
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			cond = pubsub.CondTimeout
		}
		call.client.complete(call, nil, pubsub.Error{Condition: cond, Err: ctx.Err()}, true)
		<-call.done
	}
	return call.Payload, call.Err
}

// from reports whether a response from j may belong to the call.
func (call *Call) from(j jid.JID) bool {
	if j.String() == "" || call.To.String() == "" {
		return true
	}
	return j.Equal(call.To)
}

// Go sends a request and returns without waiting for the response.
//
// If the IQ has no id a random one is assigned.
// The type of the IQ must be get or set.
// If the request cannot be sent, the returned call is already resolved with
// pubsub.CondRequestFailed.
// An error is only returned if the request is invalid or the client is closed.
func (c *Client) Go(ctx context.Context, action string, iq stanza.IQ, payload *stanza.Element) (*Call, error) {
	if iq.Type != stanza.GetIQ && iq.Type != stanza.SetIQ {
		return nil, invalidf("cannot send IQ of type %q as a request", iq.Type)
	}
	if iq.ID == "" {
		iq.ID = uuid.NewString()
	}
	call := &Call{
		ID:     iq.ID,
		Action: action,
		To:     iq.To,
		client: c,
		done:   make(chan struct{}),
		start:  c.clock.Now(),
	}

	_, call.span = telemetry.StartClientSpan(ctx, action, iq.To.String())

	// The timer is set with c.mu held; complete reads it under the same lock.
	c.mu.Lock()
	var err error
	switch _, dup := c.pending[iq.ID]; {
	case c.closed:
		err = pubsub.Error{Condition: pubsub.CondRequestFailed, Err: ErrClosed}
	case dup:
		err = invalidf("request with id %q is already outstanding", iq.ID)
	}
	if err != nil {
		c.mu.Unlock()
		telemetry.EndSpan(call.span, err)
		return nil, err
	}
	c.pending[iq.ID] = call
	c.metrics.ClientPending(ctx, 1)
	if c.timeout > 0 {
		call.timer = c.clock.AfterFunc(c.timeout, func() {
			c.complete(call, nil, pubsub.Error{Condition: pubsub.CondTimeout}, true)
		})
	}
	c.mu.Unlock()

	var r = iq.Wrap(nil)
	if payload != nil {
		r = iq.Wrap(payload.TokenReader())
	}
	if err := c.sender.Send(ctx, r); err != nil {
		c.complete(call, nil, pubsub.Error{Condition: pubsub.CondRequestFailed, Err: err}, false)
	}
	return call, nil
}

// complete resolves the call if it is still outstanding and reports whether it
// did so.
// If expire is set, the id is remembered so that a response arriving later can
// be identified as late.
func (c *Client) complete(call *Call, payload *stanza.Element, err error, expire bool) bool {
	c.mu.Lock()
	if cur, ok := c.pending[call.ID]; !ok || cur != call {
		c.mu.Unlock()
		return false
	}
	delete(c.pending, call.ID)
	if expire {
		c.expired.Add(call.ID, struct{}{})
	}
	timer := call.timer
	c.mu.Unlock()

	if timer != nil {
		timer.Stop()
	}
	call.Payload = payload
	call.Err = err
	close(call.done)

	var cond string
	if err != nil {
		cond = pubsub.CondUndefined.String()
		if pe, ok := err.(pubsub.Error); ok {
			cond = pe.Condition.String()
		}
		c.log.Debug("pubsub: request failed", "id", call.ID, "action", call.Action, "to", call.To, "condition", cond, "err", err)
	}
	ctx := context.Background()
	c.metrics.ClientPending(ctx, -1)
	c.metrics.ClientRequest(ctx, call.Action, cond, c.clock.Since(call.start))
	telemetry.EndSpan(call.span, err)
	return true
}

// do sends a request and waits for the response.
func (c *Client) do(ctx context.Context, action string, typ stanza.IQType, to jid.JID, payload *stanza.Element) (*stanza.Element, error) {
	call, err := c.Go(ctx, action, stanza.IQ{Type: typ, To: to}, payload)
	if err != nil {
		return nil, err
	}
	return call.Wait(ctx)
}

func invalidf(format string, v ...interface{}) error {
	return pubsub.Error{Condition: pubsub.CondInvalidArgument, Text: fmt.Sprintf(format, v...)}
}
