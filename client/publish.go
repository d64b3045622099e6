// Copyright 2026 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

package client

import (
	"context"
	"encoding/xml"
	"strconv"

	"mellium.im/xmpp/jid"

	"mellium.im/pubsub"
	"mellium.im/pubsub/form"
	"mellium.im/pubsub/stanza"
)

// Publish publishes items to node and returns the ids of the published items.
//
// Items without an id are assigned one by the service.
// If the service does not report the ids, the ids of the items passed in are
// returned.
// An empty node is only accepted by services that support publishing to a
// default node.
func (c *Client) Publish(ctx context.Context, service jid.JID, node string, items ...pubsub.Item) ([]string, error) {
	return c.PublishWithOptions(ctx, service, node, nil, items...)
}

// PublishWithOptions is like Publish except that it also submits publish
// options that the node configuration must satisfy.
func (c *Client) PublishWithOptions(ctx context.Context, service jid.JID, node string, opts *form.Data, items ...pubsub.Item) ([]string, error) {
	ps, act := request(pubsub.NS, "publish", node)
	for _, item := range items {
		act.Append(item.Element(pubsub.NS))
	}
	if opts != nil {
		ps.Append(wrapForm(pubsub.NS, "publish-options", submission(opts)))
	}

	payload, err := c.do(ctx, "publish", stanza.SetIQ, service, ps)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(items))
	for _, el := range responseChild(payload, pubsub.NS, "publish").ChildrenNamed(xml.Name{Space: pubsub.NS, Local: "item"}) {
		if id := el.Attribute("id"); id != "" {
			ids = append(ids, id)
		}
	}
	if len(ids) > 0 {
		return ids, nil
	}
	for _, item := range items {
		ids = append(ids, item.ID)
	}
	return ids, nil
}

// Retract removes the items with the given ids from node.
// If notify is set the service is asked to notify subscribers of the
// retraction.
func (c *Client) Retract(ctx context.Context, service jid.JID, node string, notify bool, ids ...string) error {
	if err := requireNode(node); err != nil {
		return err
	}
	if err := requireIDs(ids); err != nil {
		return err
	}
	ps, act := request(pubsub.NS, "retract", node)
	if notify {
		act.SetAttr("notify", "true")
	}
	for _, id := range ids {
		act.Append(pubsub.Item{ID: id}.Element(pubsub.NS))
	}
	_, err := c.do(ctx, "retract", stanza.SetIQ, service, ps)
	return err
}

// Items fetches items from node.
// If maxItems is greater than zero, the service is asked to return at most
// that many of the most recent items.
func (c *Client) Items(ctx context.Context, service jid.JID, node string, maxItems int) ([]pubsub.Item, error) {
	if err := requireNode(node); err != nil {
		return nil, err
	}
	if maxItems < 0 {
		return nil, invalidf("max items must not be negative")
	}
	ps, act := request(pubsub.NS, "items", node)
	if maxItems > 0 {
		act.SetAttr("max_items", strconv.Itoa(maxItems))
	}
	return c.items(ctx, service, ps)
}

// ItemsByID fetches the items with the given ids from node.
func (c *Client) ItemsByID(ctx context.Context, service jid.JID, node string, ids ...string) ([]pubsub.Item, error) {
	if err := requireNode(node); err != nil {
		return nil, err
	}
	if err := requireIDs(ids); err != nil {
		return nil, err
	}
	ps, act := request(pubsub.NS, "items", node)
	for _, id := range ids {
		act.Append(pubsub.Item{ID: id}.Element(pubsub.NS))
	}
	return c.items(ctx, service, ps)
}

func (c *Client) items(ctx context.Context, service jid.JID, ps *stanza.Element) ([]pubsub.Item, error) {
	payload, err := c.do(ctx, "items", stanza.GetIQ, service, ps)
	if err != nil {
		return nil, err
	}
	var items []pubsub.Item
	for _, el := range responseChild(payload, pubsub.NS, "items").ChildrenNamed(xml.Name{Space: pubsub.NS, Local: "item"}) {
		items = append(items, pubsub.ItemFromElement(el))
	}
	return items, nil
}
