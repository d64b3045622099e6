// Copyright 2026 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

package service

import (
	"context"
	"encoding/xml"

	"golang.org/x/sync/errgroup"
	"mellium.im/xmpp/jid"

	"mellium.im/pubsub"
	"mellium.im/pubsub/form"
	"mellium.im/pubsub/stanza"
)

func event(local, node string) (*stanza.Element, *stanza.Element) {
	ev := stanza.NewElement(xml.Name{Space: pubsub.NSEvent, Local: "event"})
	el := ev.AddChild(xml.Name{Space: pubsub.NSEvent, Local: local})
	if node != "" {
		el.SetAttr("node", node)
	}
	return ev, el
}

// NotifyItems sends an items notification listing changes to node.
func (r *Router) NotifyItems(ctx context.Context, service jid.JID, node string, changes []pubsub.Change, subscribers ...jid.JID) error {
	ev, el := event("items", node)
	for _, c := range changes {
		if c.Retract {
			el.AddChild(xml.Name{Space: pubsub.NSEvent, Local: "retract"}).SetAttr("id", c.ID)
			continue
		}
		el.Append(c.Item.Element(pubsub.NSEvent))
	}
	return r.notify(ctx, "items", service, ev, subscribers)
}

// NotifyPublish tells subscribers that items were published to node.
func (r *Router) NotifyPublish(ctx context.Context, service jid.JID, node string, items []pubsub.Item, subscribers ...jid.JID) error {
	changes := make([]pubsub.Change, 0, len(items))
	for _, item := range items {
		changes = append(changes, pubsub.Change{Item: item})
	}
	return r.NotifyItems(ctx, service, node, changes, subscribers...)
}

// NotifyRetract tells subscribers that items were removed from node.
func (r *Router) NotifyRetract(ctx context.Context, service jid.JID, node string, ids []string, subscribers ...jid.JID) error {
	changes := make([]pubsub.Change, 0, len(ids))
	for _, id := range ids {
		changes = append(changes, pubsub.Change{Item: pubsub.Item{ID: id}, Retract: true})
	}
	return r.NotifyItems(ctx, service, node, changes, subscribers...)
}

// NotifyDelete tells subscribers that node was deleted.
// If redirect is not empty it is the URI of a node that replaces it.
func (r *Router) NotifyDelete(ctx context.Context, service jid.JID, node, redirect string, subscribers ...jid.JID) error {
	ev, el := event("delete", node)
	if redirect != "" {
		el.AddChild(xml.Name{Space: pubsub.NSEvent, Local: "redirect"}).SetAttr("uri", redirect)
	}
	return r.notify(ctx, "delete", service, ev, subscribers)
}

// NotifyPurge tells subscribers that all items were removed from node.
func (r *Router) NotifyPurge(ctx context.Context, service jid.JID, node string, subscribers ...jid.JID) error {
	ev, _ := event("purge", node)
	return r.notify(ctx, "purge", service, ev, subscribers)
}

// NotifySubscription tells an entity about a change to its subscription.
func (r *Router) NotifySubscription(ctx context.Context, service jid.JID, sub pubsub.Subscription, recipients ...jid.JID) error {
	ev := stanza.NewElement(xml.Name{Space: pubsub.NSEvent, Local: "event"})
	ev.Append(sub.Element(pubsub.NSEvent))
	return r.notify(ctx, "subscription", service, ev, recipients)
}

// NotifyConfiguration tells subscribers that the configuration of node
// changed.
// If config is nil the notification only names the node.
func (r *Router) NotifyConfiguration(ctx context.Context, service jid.JID, node string, config *form.Data, subscribers ...jid.JID) error {
	ev, el := event("configuration", node)
	if config != nil {
		el.Append(config.Element())
	}
	return r.notify(ctx, "configuration", service, ev, subscribers)
}

// notify sends ev to each recipient in its own message.
// Every recipient is tried and the first error, if any, is returned.
func (r *Router) notify(ctx context.Context, kind string, service jid.JID, ev *stanza.Element, recipients []jid.JID) error {
	r.mu.Lock()
	closed := r.closed
	r.mu.Unlock()
	if closed {
		return ErrClosed
	}

	var g errgroup.Group
	g.SetLimit(r.cfg.notifyConcurrency())
	for _, to := range recipients {
		msg := stanza.Message{To: to, From: service}
		g.Go(func() error {
			err := r.sender.Send(ctx, msg.Wrap(ev.TokenReader()))
			if err != nil {
				r.log.Warn("service: sending notification failed", "kind", kind, "to", to, "err", err)
				return err
			}
			r.metrics.Event(ctx, kind)
			return nil
		})
	}
	return g.Wait()
}
