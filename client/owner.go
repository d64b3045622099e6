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

// CreateNode creates a node and returns its name.
// If node is empty, an instant node is created and the name assigned by the
// service is returned.
// If config is not nil it is submitted as the configuration of the new node.
func (c *Client) CreateNode(ctx context.Context, service jid.JID, node string, config *form.Data) (string, error) {
	ps, _ := request(pubsub.NS, "create", node)
	if config != nil {
		ps.Append(wrapForm(pubsub.NS, "configure", submission(config)))
	}
	payload, err := c.do(ctx, "create", stanza.SetIQ, service, ps)
	if err != nil {
		return "", err
	}
	if created := responseChild(payload, pubsub.NS, "create").Attribute("node"); created != "" {
		return created, nil
	}
	if node == "" {
		return "", pubsub.Error{Condition: pubsub.CondUndefined, Text: "service did not report the name of the instant node"}
	}
	return node, nil
}

// DeleteNode deletes a node.
// If redirect is not empty, subscribers are told to use the node at that URI
// instead.
func (c *Client) DeleteNode(ctx context.Context, service jid.JID, node, redirect string) error {
	if err := requireNode(node); err != nil {
		return err
	}
	ps, act := request(pubsub.NSOwner, "delete", node)
	if redirect != "" {
		act.AddChild(xml.Name{Space: pubsub.NSOwner, Local: "redirect"}).SetAttr("uri", redirect)
	}
	_, err := c.do(ctx, "delete", stanza.SetIQ, service, ps)
	return err
}

// PurgeNode removes every item from a node.
func (c *Client) PurgeNode(ctx context.Context, service jid.JID, node string) error {
	if err := requireNode(node); err != nil {
		return err
	}
	ps, _ := request(pubsub.NSOwner, "purge", node)
	_, err := c.do(ctx, "purge", stanza.SetIQ, service, ps)
	return err
}

// GetConfig requests the configuration form of a node.
func (c *Client) GetConfig(ctx context.Context, service jid.JID, node string) (*form.Data, error) {
	if err := requireNode(node); err != nil {
		return nil, err
	}
	ps, _ := request(pubsub.NSOwner, "configure", node)
	payload, err := c.do(ctx, "configure", stanza.GetIQ, service, ps)
	if err != nil {
		return nil, err
	}
	return responseForm(payload, pubsub.NSOwner, "configure")
}

// SetConfig submits a new configuration for a node.
func (c *Client) SetConfig(ctx context.Context, service jid.JID, node string, config *form.Data) error {
	if err := requireNode(node); err != nil {
		return err
	}
	if err := requireForm(config); err != nil {
		return err
	}
	ps, act := request(pubsub.NSOwner, "configure", node)
	act.Append(submission(config).Element())
	_, err := c.do(ctx, "configure", stanza.SetIQ, service, ps)
	return err
}

// GetDefaultConfig requests the configuration that new nodes are created with.
func (c *Client) GetDefaultConfig(ctx context.Context, service jid.JID) (*form.Data, error) {
	ps, _ := request(pubsub.NSOwner, "default", "")
	payload, err := c.do(ctx, "default", stanza.GetIQ, service, ps)
	if err != nil {
		return nil, err
	}
	return responseForm(payload, pubsub.NSOwner, "default")
}

// NodeSubscriptions requests every subscription to a node.
// Only owners of the node are normally allowed to do this.
func (c *Client) NodeSubscriptions(ctx context.Context, service jid.JID, node string) ([]pubsub.Subscription, error) {
	if err := requireNode(node); err != nil {
		return nil, err
	}
	return c.subscriptions(ctx, "owner-subscriptions", pubsub.NSOwner, service, node)
}

// SetNodeSubscriptions changes the subscriptions to a node.
// A subscription with the state pubsub.SubNone removes the subscription.
func (c *Client) SetNodeSubscriptions(ctx context.Context, service jid.JID, node string, subs ...pubsub.Subscription) error {
	if err := requireNode(node); err != nil {
		return err
	}
	if len(subs) == 0 {
		return invalidf("at least one subscription is required")
	}
	ps, act := request(pubsub.NSOwner, "subscriptions", node)
	for _, s := range subs {
		if err := requireJID(s.JID, "subscriber"); err != nil {
			return err
		}
		s.Node = ""
		act.Append(s.Element(pubsub.NSOwner))
	}
	_, err := c.do(ctx, "owner-subscriptions", stanza.SetIQ, service, ps)
	return err
}

// NodeAffiliations requests every affiliation with a node.
func (c *Client) NodeAffiliations(ctx context.Context, service jid.JID, node string) ([]pubsub.Affiliation, error) {
	if err := requireNode(node); err != nil {
		return nil, err
	}
	return c.affiliations(ctx, "owner-affiliations", pubsub.NSOwner, service, node)
}

// SetNodeAffiliations changes the affiliations with a node.
// An affiliation of pubsub.AffiliationNone removes the entity's affiliation.
func (c *Client) SetNodeAffiliations(ctx context.Context, service jid.JID, node string, affs ...pubsub.Affiliation) error {
	if err := requireNode(node); err != nil {
		return err
	}
	if len(affs) == 0 {
		return invalidf("at least one affiliation is required")
	}
	ps, act := request(pubsub.NSOwner, "affiliations", node)
	for _, a := range affs {
		if err := requireJID(a.JID, "affiliated"); err != nil {
			return err
		}
		a.Node = ""
		act.Append(a.Element(pubsub.NSOwner))
	}
	_, err := c.do(ctx, "owner-affiliations", stanza.SetIQ, service, ps)
	return err
}
