// Copyright 2026 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

package service

import (
	"context"
	"encoding/xml"
	"log/slog"

	"mellium.im/pubsub"
	"mellium.im/pubsub/form"
	"mellium.im/pubsub/stanza"
)

// Option configures a Router.
type Option func(r *Router)

// handler runs a request and returns the payload of the result, if any.
type handler func(ctx context.Context, req *Request) (*stanza.Element, error)

// Logger sets the logger used to report failed handlers and dropped stanzas.
// By default nothing is logged.
func Logger(logger *slog.Logger) Option {
	return func(r *Router) {
		r.log = logger
	}
}

// UseConfig sets the configuration of the router.
func UseConfig(c Config) Option {
	return func(r *Router) {
		r.cfg = c
	}
}

// BaseContext sets the context that handler contexts are derived from.
// Canceling it cancels all running handlers.
func BaseContext(ctx context.Context) Option {
	return func(r *Router) {
		r.base = ctx
	}
}

func register(a Action, h handler) Option {
	return func(r *Router) {
		if r.handlers[a] != nil {
			panic("service: multiple registrations for " + a.String())
		}
		r.handlers[a] = h
	}
}

func mustFunc(a Action, isNil bool) {
	if isNil {
		panic("service: nil " + a.String() + " handler")
	}
}

// result returns a <pubsub/> element in the given namespace wrapping a single
// element, and that element.
func result(space, local, node string) (*stanza.Element, *stanza.Element) {
	ps := stanza.NewElement(xml.Name{Space: space, Local: "pubsub"})
	el := ps.AddChild(xml.Name{Space: space, Local: local})
	if node != "" {
		el.SetAttr("node", node)
	}
	return ps, el
}

func simple(a Action, f func(context.Context, *Request) error) Option {
	mustFunc(a, f == nil)
	return register(a, func(ctx context.Context, req *Request) (*stanza.Element, error) {
		return nil, f(ctx, req)
	})
}

func formResult(a Action, space, local string, f func(context.Context, *Request) (*form.Data, error)) Option {
	mustFunc(a, f == nil)
	return register(a, func(ctx context.Context, req *Request) (*stanza.Element, error) {
		data, err := f(ctx, req)
		if err != nil || data == nil {
			return nil, err
		}
		ps, el := result(space, local, req.Node)
		if a == ActionGetOptions {
			if j := req.Subscriber.String(); j != "" {
				el.SetAttr("jid", j)
			}
			if req.SubID != "" {
				el.SetAttr("subid", req.SubID)
			}
		}
		el.Append(data.Element())
		return ps, nil
	})
}

// Publish handles requests to publish items.
// The function returns the ids of the published items, which must include ids
// assigned by the service to items that were published without one.
func Publish(f func(context.Context, *Request) ([]string, error)) Option {
	mustFunc(ActionPublish, f == nil)
	return register(ActionPublish, func(ctx context.Context, req *Request) (*stanza.Element, error) {
		ids, err := f(ctx, req)
		if err != nil || len(ids) == 0 {
			return nil, err
		}
		ps, el := result(pubsub.NS, "publish", req.Node)
		for _, id := range ids {
			el.Append(pubsub.Item{ID: id}.Element(pubsub.NS))
		}
		return ps, nil
	})
}

// Subscribe handles subscription requests.
// The returned subscription is sent to the requestor; empty fields are filled
// in from the request.
func Subscribe(f func(context.Context, *Request) (pubsub.Subscription, error)) Option {
	mustFunc(ActionSubscribe, f == nil)
	return register(ActionSubscribe, func(ctx context.Context, req *Request) (*stanza.Element, error) {
		sub, err := f(ctx, req)
		if err != nil {
			return nil, err
		}
		if sub.Node == "" {
			sub.Node = req.Node
		}
		if sub.JID.String() == "" {
			sub.JID = req.Subscriber
		}
		ps := stanza.NewElement(xml.Name{Space: pubsub.NS, Local: "pubsub"})
		return ps.Append(sub.Element(pubsub.NS)), nil
	})
}

// Unsubscribe handles requests to remove a subscription.
func Unsubscribe(f func(context.Context, *Request) error) Option {
	return simple(ActionUnsubscribe, f)
}

// Retract handles requests to remove items from a node.
func Retract(f func(context.Context, *Request) error) Option {
	return simple(ActionRetract, f)
}

// Items handles requests to retrieve items from a node.
// If the request lists item ids only those items should be returned,
// otherwise up to MaxItems of the most recent items.
func Items(f func(context.Context, *Request) ([]pubsub.Item, error)) Option {
	mustFunc(ActionItems, f == nil)
	return register(ActionItems, func(ctx context.Context, req *Request) (*stanza.Element, error) {
		items, err := f(ctx, req)
		if err != nil {
			return nil, err
		}
		ps, el := result(pubsub.NS, "items", req.Node)
		for _, item := range items {
			el.Append(item.Element(pubsub.NS))
		}
		return ps, nil
	})
}

// Create handles requests to create a node.
// The function returns the id of the new node, which must be assigned by the
// service if the request did not name one.
func Create(f func(context.Context, *Request) (string, error)) Option {
	mustFunc(ActionCreate, f == nil)
	return register(ActionCreate, func(ctx context.Context, req *Request) (*stanza.Element, error) {
		node, err := f(ctx, req)
		if err != nil || node == "" || node == req.Node {
			return nil, err
		}
		ps, _ := result(pubsub.NS, "create", node)
		return ps, nil
	})
}

// GetOptions handles requests for the options of a subscription.
// The router does not require a node or jid for options requests; the handler
// reports nodeid-required or jid-required itself.
func GetOptions(f func(context.Context, *Request) (*form.Data, error)) Option {
	return formResult(ActionGetOptions, pubsub.NS, "options", f)
}

// SetOptions handles requests to change the options of a subscription.
// As with GetOptions the handler checks the node and jid, and also that a
// form was submitted.
func SetOptions(f func(context.Context, *Request) error) Option {
	return simple(ActionSetOptions, f)
}

// DefaultOptions handles requests for the default subscription options.
func DefaultOptions(f func(context.Context, *Request) (*form.Data, error)) Option {
	return formResult(ActionDefaultOptions, pubsub.NS, "default", f)
}

// Subscriptions handles requests by an entity for its own subscriptions.
func Subscriptions(f func(context.Context, *Request) ([]pubsub.Subscription, error)) Option {
	mustFunc(ActionSubscriptions, f == nil)
	return register(ActionSubscriptions, func(ctx context.Context, req *Request) (*stanza.Element, error) {
		subs, err := f(ctx, req)
		if err != nil {
			return nil, err
		}
		ps, el := result(pubsub.NS, "subscriptions", req.Node)
		for _, s := range subs {
			el.Append(s.Element(pubsub.NS))
		}
		return ps, nil
	})
}

// Affiliations handles requests by an entity for its own affiliations.
func Affiliations(f func(context.Context, *Request) ([]pubsub.Affiliation, error)) Option {
	mustFunc(ActionAffiliations, f == nil)
	return register(ActionAffiliations, func(ctx context.Context, req *Request) (*stanza.Element, error) {
		affs, err := f(ctx, req)
		if err != nil {
			return nil, err
		}
		ps, el := result(pubsub.NS, "affiliations", req.Node)
		for _, a := range affs {
			el.Append(a.Element(pubsub.NS))
		}
		return ps, nil
	})
}

// GetConfig handles requests for the configuration of a node.
func GetConfig(f func(context.Context, *Request) (*form.Data, error)) Option {
	return formResult(ActionGetConfig, pubsub.NSOwner, "configure", f)
}

// SetConfig handles requests to change the configuration of a node.
func SetConfig(f func(context.Context, *Request) error) Option {
	return simple(ActionSetConfig, f)
}

// DefaultConfig handles requests for the default node configuration.
func DefaultConfig(f func(context.Context, *Request) (*form.Data, error)) Option {
	return formResult(ActionDefaultConfig, pubsub.NSOwner, "default", f)
}

// Delete handles requests to delete a node.
func Delete(f func(context.Context, *Request) error) Option {
	return simple(ActionDelete, f)
}

// Purge handles requests to remove all items from a node.
func Purge(f func(context.Context, *Request) error) Option {
	return simple(ActionPurge, f)
}

// NodeSubscriptions handles requests by an owner for the subscriptions to a
// node.
func NodeSubscriptions(f func(context.Context, *Request) ([]pubsub.Subscription, error)) Option {
	mustFunc(ActionNodeSubscriptions, f == nil)
	return register(ActionNodeSubscriptions, func(ctx context.Context, req *Request) (*stanza.Element, error) {
		subs, err := f(ctx, req)
		if err != nil {
			return nil, err
		}
		ps, el := result(pubsub.NSOwner, "subscriptions", req.Node)
		for _, s := range subs {
			s.Node = ""
			el.Append(s.Element(pubsub.NSOwner))
		}
		return ps, nil
	})
}

// SetNodeSubscriptions handles requests by an owner to change subscriptions to
// a node.
func SetNodeSubscriptions(f func(context.Context, *Request) error) Option {
	return simple(ActionSetNodeSubscriptions, f)
}

// NodeAffiliations handles requests by an owner for the affiliations with a
// node.
func NodeAffiliations(f func(context.Context, *Request) ([]pubsub.Affiliation, error)) Option {
	mustFunc(ActionNodeAffiliations, f == nil)
	return register(ActionNodeAffiliations, func(ctx context.Context, req *Request) (*stanza.Element, error) {
		affs, err := f(ctx, req)
		if err != nil {
			return nil, err
		}
		ps, el := result(pubsub.NSOwner, "affiliations", req.Node)
		for _, a := range affs {
			a.Node = ""
			el.Append(a.Element(pubsub.NSOwner))
		}
		return ps, nil
	})
}

// SetNodeAffiliations handles requests by an owner to change affiliations with
// a node.
func SetNodeAffiliations(f func(context.Context, *Request) error) Option {
	return simple(ActionSetNodeAffiliations, f)
}
