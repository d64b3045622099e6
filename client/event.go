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

// Event contains the fields common to all notifications.
type Event struct {
	// Recipient is the address the notification was sent to.
	Recipient jid.JID

	// Service is the address of the pubsub service that sent the notification.
	Service jid.JID

	// Node is the node that the notification concerns.
	Node string
}

// ItemsEvent is a notification of items published to or retracted from a
// node.
// Changes are in the order the service listed them.
type ItemsEvent struct {
	Event
	Changes []pubsub.Change
}

// DeleteEvent is a notification that a node was deleted.
type DeleteEvent struct {
	Event

	// Redirect is the URI of a node that replaces the deleted one, if any.
	Redirect string
}

// PurgeEvent is a notification that every item was removed from a node.
type PurgeEvent struct {
	Event
}

// SubscriptionEvent is a notification that a subscription changed state.
type SubscriptionEvent struct {
	Event
	Subscription pubsub.Subscription
}

// ConfigurationEvent is a notification that the configuration of a node
// changed.
// Form is nil if the service did not include the new configuration.
type ConfigurationEvent struct {
	Event
	Form *form.Data
}

func (c *Client) handleMessage(el *stanza.Element) bool {
	if stanza.MessageType(el.Attribute("type")) == stanza.ErrorMessage {
		return false
	}
	event := el.Child(xml.Name{Space: pubsub.NSEvent, Local: "event"})
	if event == nil {
		return false
	}
	to, err := parseAddr(el.Attribute("to"))
	if err != nil {
		c.log.Warn("pubsub: dropping event with bad to address", "err", err)
		return false
	}
	from, err := parseAddr(el.Attribute("from"))
	if err != nil {
		c.log.Warn("pubsub: dropping event with bad from address", "err", err)
		return false
	}

	// Only the first recognized child is meaningful, anything else is from an
	// extension we do not know about.
	for _, child := range event.Children {
		if child.XMLName.Space != pubsub.NSEvent {
			continue
		}
		ev := Event{Recipient: to, Service: from, Node: child.Attribute("node")}
		if c.dispatch(ev, child) {
			c.metrics.Event(context.Background(), child.XMLName.Local)
			return true
		}
	}
	return false
}

// dispatch parses the notification in child and calls the matching callback.
// It reports whether the notification was recognized.
func (c *Client) dispatch(ev Event, child *stanza.Element) bool {
	switch child.XMLName.Local {
	case "items":
		changes := make([]pubsub.Change, 0, len(child.Children))
		for _, ch := range child.Children {
			switch ch.XMLName.Local {
			case "item":
				changes = append(changes, pubsub.Change{Item: pubsub.ItemFromElement(ch)})
			case "retract":
				changes = append(changes, pubsub.Change{Item: pubsub.Item{ID: ch.Attribute("id")}, Retract: true})
			}
		}
		if c.onItems != nil {
			c.onItems(ItemsEvent{Event: ev, Changes: changes})
		}
	case "delete":
		redirect := child.Child(xml.Name{Space: pubsub.NSEvent, Local: "redirect"}).Attribute("uri")
		if c.onDelete != nil {
			c.onDelete(DeleteEvent{Event: ev, Redirect: redirect})
		}
	case "purge":
		if c.onPurge != nil {
			c.onPurge(PurgeEvent{Event: ev})
		}
	case "subscription":
		sub, err := pubsub.SubscriptionFromElement(child)
		if err != nil {
			c.log.Warn("pubsub: dropping malformed subscription event", "from", ev.Service, "err", err)
			return false
		}
		if c.onSubscription != nil {
			c.onSubscription(SubscriptionEvent{Event: ev, Subscription: sub})
		}
	case "configuration":
		var f *form.Data
		if x := form.Find(child); x != nil {
			var err error
			f, err = form.FromElement(x)
			if err != nil {
				c.log.Warn("pubsub: dropping malformed configuration event", "from", ev.Service, "err", err)
				return false
			}
		}
		if c.onConfiguration != nil {
			c.onConfiguration(ConfigurationEvent{Event: ev, Form: f})
		}
	default:
		return false
	}
	return true
}
