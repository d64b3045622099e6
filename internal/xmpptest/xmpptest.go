// Copyright 2026 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

// Package xmpptest provides transports for testing the client and service
// roles without a network connection.
//
// Every stanza sent through these transports is serialized with an
// xml.Encoder and parsed back so that namespace handling matches what a peer
// would see on the wire.
package xmpptest // import "mellium.im/pubsub/internal/xmpptest"

import (
	"bytes"
	"context"
	"encoding/xml"
	"sync"
	"testing"
	"time"

	"mellium.im/xmlstream"

	"mellium.im/pubsub/stanza"
)

// WaitTimeout is how long Next waits for a stanza before failing the test.
const WaitTimeout = 5 * time.Second

// Encode serializes the tokens read from r and parses the result into an
// element tree.
func Encode(r xml.TokenReader) (*stanza.Element, error) {
	var b bytes.Buffer
	e := xml.NewEncoder(&b)
	if _, err := xmlstream.Copy(e, r); err != nil {
		return nil, err
	}
	if err := e.Flush(); err != nil {
		return nil, err
	}
	return stanza.Parse(&b)
}

// Recorder is a sender that keeps every stanza sent through it.
type Recorder struct {
	mu   sync.Mutex
	sent []*stanza.Element
	err  error
	c    chan *stanza.Element
}

// NewRecorder returns a recorder that can buffer up to 100 stanzas that have
// not been received with Next.
func NewRecorder() *Recorder {
	return &Recorder{c: make(chan *stanza.Element, 100)}
}

// Fail causes future sends to return err without recording anything.
// Passing nil restores normal operation.
func (r *Recorder) Fail(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.err = err
}

// Send satisfies pubsub.Sender.
func (r *Recorder) Send(ctx context.Context, tr xml.TokenReader) error {
	r.mu.Lock()
	err := r.err
	r.mu.Unlock()
	if err != nil {
		return err
	}
	el, err := Encode(tr)
	if err != nil {
		return err
	}
	r.mu.Lock()
	r.sent = append(r.sent, el)
	r.mu.Unlock()
	select {
	case r.c <- el:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Sent returns all stanzas recorded so far.
func (r *Recorder) Sent() []*stanza.Element {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*stanza.Element(nil), r.sent...)
}

// Next returns the oldest stanza not yet returned by Next.
// If no stanza is sent within WaitTimeout the test fails.
func (r *Recorder) Next(t testing.TB) *stanza.Element {
	t.Helper()
	select {
	case el := <-r.c:
		return el
	case <-time.After(WaitTimeout):
		t.Fatal("timed out waiting for a stanza to be sent")
		return nil
	}
}

// Empty fails the test if any stanza is waiting to be returned by Next.
func (r *Recorder) Empty(t testing.TB) {
	t.Helper()
	select {
	case el := <-r.c:
		t.Fatalf("unexpected stanza sent: %v", el)
	default:
	}
}

// Loopback is a sender that hands every stanza to a function, as if it had
// been delivered to the other end of a stream.
// It can be used to connect a client directly to a service.
type Loopback func(*stanza.Element)

// Send satisfies pubsub.Sender.
func (f Loopback) Send(_ context.Context, r xml.TokenReader) error {
	el, err := Encode(r)
	if err != nil {
		return err
	}
	f(el)
	return nil
}
