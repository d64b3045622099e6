// Copyright 2026 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

package client

import (
	"context"
	"encoding/xml"

	"mellium.im/xmpp/jid"

	"mellium.im/pubsub"
	"mellium.im/pubsub/form"
	"mellium.im/pubsub/stanza"
)

// Subscribe subscribes subscriber to node.
// If opts is not nil it is submitted as the subscription options.
//
// If the service does not report the resulting subscription, it is assumed to
// be active.
func (c *Client) Subscribe(ctx context.Context, service jid.JID, node string, subscriber jid.JID, opts *form.Data) (pubsub.Subscription, error) {
	sub := pubsub.Subscription{JID: subscriber, Node: node, State: pubsub.SubSubscribed}
	if err := requireNode(node); err != nil {
		return sub, err
	}
	if err := requireJID(subscriber, "subscriber"); err != nil {
		return sub, err
	}
	ps, act := request(pubsub.NS, "subscribe", node)
	act.SetAttr("jid", subscriber.String())
	if opts != nil {
		ps.Append(wrapForm(pubsub.NS, "options", submission(opts)))
	}

	payload, err := c.do(ctx, "subscribe", stanza.SetIQ, service, ps)
	if err != nil {
		return sub, err
	}
	el := responseChild(payload, pubsub.NS, "subscription")
	if el == nil {
		return sub, nil
	}
	got, err := pubsub.SubscriptionFromElement(el)
	if err != nil {
		return sub, err
	}
	if got.Node == "" {
		got.Node = node
	}
	if got.JID.String() == "" {
		got.JID = subscriber
	}
	return got, nil
}

// Unsubscribe removes the subscription of subscriber to node.
// subID is only required if the subscriber has more than one subscription to
// the node.
func (c *Client) Unsubscribe(ctx context.Context, service jid.JID, node string, subscriber jid.JID, subID string) error {
	if err := requireNode(node); err != nil {
		return err
	}
	if err := requireJID(subscriber, "subscriber"); err != nil {
		return err
	}
	ps, act := request(pubsub.NS, "unsubscribe", node)
	act.SetAttr("jid", subscriber.String())
	if subID != "" {
		act.SetAttr("subid", subID)
	}
	_, err := c.do(ctx, "unsubscribe", stanza.SetIQ, service, ps)
	return err
}

func optionsRequest(node string, subscriber jid.JID, subID string) (*stanza.Element, *stanza.Element, error) {
	if err := requireNode(node); err != nil {
		return nil, nil, err
	}
	if err := requireJID(subscriber, "subscriber"); err != nil {
		return nil, nil, err
	}
	ps, act := request(pubsub.NS, "options", node)
	act.SetAttr("jid", subscriber.String())
	if subID != "" {
		act.SetAttr("subid", subID)
	}
	return ps, act, nil
}

// GetOptions requests the subscription options form for the subscription of
// subscriber to node.
func (c *Client) GetOptions(ctx context.Context, service jid.JID, node string, subscriber jid.JID, subID string) (*form.Data, error) {
	ps, _, err := optionsRequest(node, subscriber, subID)
	if err != nil {
		return nil, err
	}
	payload, err := c.do(ctx, "options", stanza.GetIQ, service, ps)
	if err != nil {
		return nil, err
	}
	return responseForm(payload, pubsub.NS, "options")
}

// SetOptions submits new subscription options for the subscription of
// subscriber to node.
func (c *Client) SetOptions(ctx context.Context, service jid.JID, node string, subscriber jid.JID, subID string, opts *form.Data) error {
	if err := requireForm(opts); err != nil {
		return err
	}
	ps, act, err := optionsRequest(node, subscriber, subID)
	if err != nil {
		return err
	}
	act.Append(submission(opts).Element())
	_, err = c.do(ctx, "options", stanza.SetIQ, service, ps)
	return err
}

// DefaultOptions requests the default subscription options of a node, or of
// the service if node is empty.
func (c *Client) DefaultOptions(ctx context.Context, service jid.JID, node string) (*form.Data, error) {
	ps, _ := request(pubsub.NS, "default", node)
	payload, err := c.do(ctx, "default", stanza.GetIQ, service, ps)
	if err != nil {
		return nil, err
	}
	return responseForm(payload, pubsub.NS, "default")
}

// Subscriptions requests the subscriptions of the requesting entity, limited
// to node if it is not empty.
func (c *Client) Subscriptions(ctx context.Context, service jid.JID, node string) ([]pubsub.Subscription, error) {
	return c.subscriptions(ctx, "subscriptions", pubsub.NS, service, node)
}

func (c *Client) subscriptions(ctx context.Context, action, space string, service jid.JID, node string) ([]pubsub.Subscription, error) {
	ps, _ := request(space, "subscriptions", node)
	payload, err := c.do(ctx, action, stanza.GetIQ, service, ps)
	if err != nil {
		return nil, err
	}
	var subs []pubsub.Subscription
	for _, el := range responseChild(payload, space, "subscriptions").ChildrenNamed(xml.Name{Space: space, Local: "subscription"}) {
		s, err := pubsub.SubscriptionFromElement(el)
		if err != nil {
			return subs, err
		}
		if s.Node == "" {
			s.Node = node
		}
		subs = append(subs, s)
	}
	return subs, nil
}

// Affiliations requests the affiliations of the requesting entity, limited to
// node if it is not empty.
func (c *Client) Affiliations(ctx context.Context, service jid.JID, node string) ([]pubsub.Affiliation, error) {
	return c.affiliations(ctx, "affiliations", pubsub.NS, service, node)
}

func (c *Client) affiliations(ctx context.Context, action, space string, service jid.JID, node string) ([]pubsub.Affiliation, error) {
	ps, _ := request(space, "affiliations", node)
	payload, err := c.do(ctx, action, stanza.GetIQ, service, ps)
	if err != nil {
		return nil, err
	}
	var affs []pubsub.Affiliation
	for _, el := range responseChild(payload, space, "affiliations").ChildrenNamed(xml.Name{Space: space, Local: "affiliation"}) {
		a, err := pubsub.AffiliationFromElement(el)
		if err != nil {
			return affs, err
		}
		if a.Node == "" {
			a.Node = node
		}
		affs = append(affs, a)
	}
	return affs, nil
}
