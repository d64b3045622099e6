// Copyright 2026 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

package client

import (
	"context"
	"encoding/xml"
	"errors"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"mellium.im/xmlstream"
	"mellium.im/xmpp/jid"

	"mellium.im/pubsub"
	"mellium.im/pubsub/internal/telemetry"
	"mellium.im/pubsub/stanza"
)

// ErrClosed is the cause of failures for requests that were outstanding when
// the client was closed, and the error returned when sending a request after
// the client is closed.
var ErrClosed = errors.New("pubsub: client closed")

// expiredLen is the number of ids of abandoned requests that are remembered so
// that late responses can be told apart from unsolicited ones.
const expiredLen = 128

// Client sends requests to pubsub services and receives notifications from
// them.
// It is safe for concurrent use by multiple goroutines.
type Client struct {
	options
	sender  pubsub.Sender
	metrics telemetry.Metrics

	mu      sync.Mutex
	pending map[string]*Call
	expired *lru.Cache[string, struct{}]
	closed  bool
}

// New creates a client that sends requests using s.
func New(s pubsub.Sender, opts ...Option) *Client {
	// lru.New only fails for non-positive sizes.
	expired, _ := lru.New[string, struct{}](expiredLen)
	o := getOpts(opts...)
	return &Client{
		options: o,
		sender:  s,
		metrics: telemetry.NewMetrics(o.log),
		pending: make(map[string]*Call),
		expired: expired,
	}
}

// HandleXMPP reads a full stanza from t and handles it as HandleStanza would.
// Its signature matches the xmpp.Handler interface.
// Errors are only returned if the stanza cannot be read, problems with the
// content of the stanza are logged.
func (c *Client) HandleXMPP(t xmlstream.TokenReadEncoder, start *xml.StartElement) error {
	el, err := stanza.ReadElement(t, start)
	if err != nil {
		return err
	}
	c.HandleStanza(el)
	return nil
}

// HandleStanza handles an incoming stanza.
// Responses are matched against outstanding requests and pubsub event
// notifications are passed to the registered callbacks, in the order that
// HandleStanza is called.
// It reports whether the stanza was consumed by the client.
func (c *Client) HandleStanza(el *stanza.Element) bool {
	if el == nil || !stanza.Is(el.XMLName) {
		return false
	}
	switch el.XMLName.Local {
	case "iq":
		return c.handleIQ(el)
	case "message":
		return c.handleMessage(el)
	}
	return false
}

func (c *Client) handleIQ(el *stanza.Element) bool {
	typ := stanza.IQType(el.Attribute("type"))
	if typ != stanza.ResultIQ && typ != stanza.ErrorIQ {
		return false
	}
	id := el.Attribute("id")
	from, err := parseAddr(el.Attribute("from"))
	if err != nil {
		c.log.Warn("pubsub: dropping response with bad from address", "id", id, "err", err)
		c.metrics.ClientAnomaly(context.Background(), "malformed")
		return false
	}

	c.mu.Lock()
	call, ok := c.pending[id]
	_, late := c.expired.Get(id)
	c.mu.Unlock()
	if !ok || !call.from(from) {
		if late {
			c.log.Debug("pubsub: dropping late response", "id", id, "from", from)
			c.metrics.ClientAnomaly(context.Background(), "late")
			return true
		}
		c.log.Debug("pubsub: ignoring unsolicited response", "id", id, "from", from)
		c.metrics.ClientAnomaly(context.Background(), "unsolicited")
		return false
	}

	var payload *stanza.Element
	if typ == stanza.ErrorIQ {
		err = responseError(el)
	} else if len(el.Children) > 0 {
		payload = el.Children[0]
	}
	if !c.complete(call, payload, err, false) {
		c.log.Debug("pubsub: dropping late response", "id", id, "from", from)
		c.metrics.ClientAnomaly(context.Background(), "late")
	}
	return true
}

func responseError(el *stanza.Element) error {
	errEl := stanza.FindError(el)
	if errEl == nil {
		return pubsub.Error{Condition: pubsub.CondUndefined, Text: "error response without an error"}
	}
	return pubsub.FromStanzaError(stanza.ErrorFromElement(errEl))
}

func parseAddr(s string) (jid.JID, error) {
	if s == "" {
		return jid.JID{}, nil
	}
	return jid.Parse(s)
}

// Close fails every outstanding request with pubsub.CondRequestFailed and
// causes future requests to fail immediately.
// Notifications continue to be dispatched.
func (c *Client) Close() error {
	c.mu.Lock()
	c.closed = true
	calls := make([]*Call, 0, len(c.pending))
	for _, call := range c.pending {
		calls = append(calls, call)
	}
	c.mu.Unlock()

	for _, call := range calls {
		c.complete(call, nil, pubsub.Error{Condition: pubsub.CondRequestFailed, Err: ErrClosed}, false)
	}
	return nil
}

// Pending returns the number of outstanding requests.
func (c *Client) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pending)
}
