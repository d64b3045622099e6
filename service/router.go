// Copyright 2026 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

package service

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sort"
	"sync"
	"time"

	"mellium.im/xmlstream"

	"mellium.im/pubsub"
	"mellium.im/pubsub/internal/telemetry"
	"mellium.im/pubsub/stanza"
)

// ErrClosed is returned when sending notifications after the router has been
// closed.
var ErrClosed = errors.New("service: router closed")

var errPanic = errors.New("service: handler panicked")

// Router dispatches pubsub requests to handler functions.
// It is safe for concurrent use by multiple goroutines.
type Router struct {
	log      *slog.Logger
	cfg      Config
	base     context.Context
	handlers [numActions]handler

	sender  pubsub.Sender
	metrics telemetry.Metrics

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	mu     sync.Mutex
	closed bool
}

// New creates a router that sends responses and notifications using s.
// Registering a handler for the same action twice panics.
func New(s pubsub.Sender, opts ...Option) *Router {
	r := &Router{
		sender: s,
	}
	for _, o := range opts {
		o(r)
	}
	// Log to /dev/null by default.
	if r.log == nil {
		r.log = slog.New(slog.DiscardHandler)
	}
	if r.metrics == nil {
		r.metrics = telemetry.NewMetrics(r.log)
	}
	if r.base == nil {
		r.base = context.Background()
	}
	r.ctx, r.cancel = context.WithCancel(r.base)
	return r
}

// Features returns the features of every action that has a handler, sorted and
// without duplicates.
func (r *Router) Features() []pubsub.Feature {
	seen := make(map[pubsub.Feature]struct{})
	var features []pubsub.Feature
	for a, h := range r.handlers {
		if h == nil {
			continue
		}
		f := Action(a).Feature()
		if _, ok := seen[f]; ok {
			continue
		}
		seen[f] = struct{}{}
		features = append(features, f)
	}
	if r.handlers[ActionCreate] != nil {
		features = append(features, pubsub.FeatureInstantNodes)
		if r.handlers[ActionSetConfig] != nil {
			features = append(features, pubsub.FeatureCreateAndConfigure)
		}
	}
	if r.handlers[ActionPublish] != nil {
		features = append(features, pubsub.FeatureItemIDs)
	}
	sort.Slice(features, func(i, j int) bool { return features[i] < features[j] })
	return features
}

// HandleXMPP reads a full stanza from t and handles it as HandleStanza would.
// Its signature matches the xmpp.Handler interface.
func (r *Router) HandleXMPP(t xmlstream.TokenReadEncoder, start *xml.StartElement) error {
	el, err := stanza.ReadElement(t, start)
	if err != nil {
		return err
	}
	r.HandleStanza(el)
	return nil
}

// HandleStanza handles an incoming stanza.
// It reports whether the stanza was a pubsub request, in which case exactly
// one response is sent for it.
// Requests are validated before the handler is looked up, so malformed
// requests are rejected even for unsupported actions.
// Malformed requests are answered immediately; valid requests are passed to
// their handler in a new goroutine.
func (r *Router) HandleStanza(el *stanza.Element) bool {
	if el == nil || !stanza.Is(el.XMLName) || el.XMLName.Local != "iq" {
		return false
	}
	iq, err := stanza.NewIQ(el.StartElement())
	if err != nil {
		r.log.Debug("service: ignoring malformed iq", "id", el.Attribute("id"), "err", err)
		return false
	}
	if iq.Type != stanza.GetIQ && iq.Type != stanza.SetIQ {
		return false
	}
	ps := el.Child(xml.Name{Space: pubsub.NS, Local: "pubsub"})
	if ps == nil {
		ps = el.Child(xml.Name{Space: pubsub.NSOwner, Local: "pubsub"})
	}
	if ps == nil {
		return false
	}

	a, err := classify(iq.Type, ps)
	if err != nil {
		r.reject(iq, "unknown", err)
		return true
	}
	req, err := parseRequest(a, iq, ps, r.cfg)
	if err != nil {
		r.reject(iq, a.String(), err)
		return true
	}
	h := r.handlers[a]
	if h == nil {
		r.reject(iq, a.String(), pubsub.Unsupported(a.Feature()))
		return true
	}

	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		r.reject(iq, a.String(), pubsub.Error{Condition: pubsub.CondServiceUnavailable})
		return true
	}
	r.wg.Add(1)
	r.mu.Unlock()

	go func() {
		defer r.wg.Done()
		r.serve(iq, req, h)
	}()
	return true
}

func (r *Router) serve(iq stanza.IQ, req *Request, h handler) {
	ctx := r.ctx
	if d := r.cfg.handlerTimeout(); d > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d)
		defer cancel()
	}
	ctx, span := telemetry.StartServiceSpan(ctx, req.Action.String(), req.Requestor.String(), req.Node)
	start := time.Now()

	payload, err := r.call(ctx, h, req)
	if err != nil {
		r.respondError(iq, req.Action.String(), err)
	} else {
		var body xml.TokenReader
		if payload != nil {
			body = payload.TokenReader()
		}
		r.send(iq, iq.Result(body))
	}
	r.metrics.ServiceRequest(ctx, req.Action.String(), condition(err), time.Since(start))
	telemetry.EndSpan(span, err)
}

func (r *Router) call(ctx context.Context, h handler, req *Request) (payload *stanza.Element, err error) {
	defer func() {
		if v := recover(); v != nil {
			r.log.Error("service: handler panicked",
				"action", req.Action.String(),
				"id", req.ID,
				"panic", fmt.Sprint(v),
				"stack", string(debug.Stack()))
			payload, err = nil, errPanic
		}
	}()
	return h(ctx, req)
}

// reject answers a request that was never passed to a handler.
func (r *Router) reject(iq stanza.IQ, action string, err error) {
	r.log.Debug("service: rejecting request", "id", iq.ID, "from", iq.From, "action", action, "err", err)
	r.respondError(iq, action, err)
	r.metrics.ServiceRequest(r.ctx, action, condition(err), 0)
}

func (r *Router) respondError(iq stanza.IQ, action string, err error) {
	r.send(iq, iq.Error(r.stanzaError(iq, action, err)))
}

// stanzaError maps a handler error to the error sent on the wire.
// Conditions that only exist on the requesting side are sent as
// internal-server-error.
func (r *Router) stanzaError(iq stanza.IQ, action string, err error) stanza.Error {
	var pe pubsub.Error
	if errors.As(err, &pe) && !pe.Condition.Local() {
		return pe.StanzaError()
	}
	var se stanza.Error
	if errors.As(err, &se) {
		return se
	}
	var sep *stanza.Error
	if errors.As(err, &sep) && sep != nil {
		return *sep
	}
	r.log.Warn("service: handler failed", "id", iq.ID, "from", iq.From, "action", action, "err", err)
	return pubsub.Error{Condition: pubsub.CondInternalServerError}.StanzaError()
}

func (r *Router) send(iq stanza.IQ, tr xml.TokenReader) {
	// Responses are still sent for handlers that end after Close.
	ctx := context.WithoutCancel(r.ctx)
	if err := r.sender.Send(ctx, tr); err != nil {
		r.log.Warn("service: sending response failed", "id", iq.ID, "to", iq.From, "err", err)
	}
}

// condition returns the condition reported for err in metrics.
// It is empty if err is nil.
func condition(err error) string {
	if err == nil {
		return ""
	}
	var pe pubsub.Error
	if errors.As(err, &pe) && !pe.Condition.Local() {
		return pe.Condition.String()
	}
	var se stanza.Error
	if errors.As(err, &se) {
		return string(se.Condition)
	}
	var sep *stanza.Error
	if errors.As(err, &sep) && sep != nil {
		return string(sep.Condition)
	}
	return pubsub.CondInternalServerError.String()
}

// Background runs f in a new goroutine with a context that is canceled by
// Close, and Close waits for f to return.
// It lets handlers finish work, such as sending notifications, after their
// response has been sent.
// If the router is closed f is not run and ErrClosed is returned.
func (r *Router) Background(f func(ctx context.Context)) error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return ErrClosed
	}
	r.wg.Add(1)
	r.mu.Unlock()

	go func() {
		defer r.wg.Done()
		f(r.ctx)
	}()
	return nil
}

// Close cancels the context of every running handler and background function
// and waits for them to return.
// Requests received after Close are answered with service-unavailable.
func (r *Router) Close() error {
	r.mu.Lock()
	r.closed = true
	r.mu.Unlock()
	r.cancel()
	r.wg.Wait()
	return nil
}
