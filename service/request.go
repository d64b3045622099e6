// Copyright 2026 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

package service

import (
	"encoding/xml"
	"strconv"

	"mellium.im/xmpp/jid"

	"mellium.im/pubsub"
	"mellium.im/pubsub/form"
	"mellium.im/pubsub/stanza"
)

// Request is a validated pubsub request.
// Fields that do not apply to the action are left empty.
type Request struct {
	Action Action

	// ID is the id of the IQ that carried the request.
	ID   string
	Lang string

	// Requestor is the entity that sent the request and Service is the address
	// it was sent to.
	Requestor jid.JID
	Service   jid.JID

	// Node is the node that the request applies to.
	// It is empty when creating an instant node, when publishing with
	// Config.ImplicitDefaultNode set, and for requests that may apply to the
	// service as a whole such as listing subscriptions.
	Node string

	// Subscriber is the address being subscribed, unsubscribed, or configured.
	Subscriber jid.JID
	SubID      string

	// Items are the items being published.
	// The list may be empty.
	Items []pubsub.Item

	// ItemIDs are the items being retracted or retrieved.
	ItemIDs []string

	// MaxItems limits the number of items returned by an items request.
	// Zero means no limit.
	MaxItems int

	// Notify is set when subscribers should be told about retracted items.
	Notify bool

	// Form is the data form carried by the request if any.
	// This is the node configuration when creating or configuring a node, the
	// subscription options when subscribing or setting options, and the publish
	// options when publishing.
	Form *form.Data

	// Redirect is the URI of a replacement node when deleting a node.
	Redirect string

	// Subscriptions and Affiliations are the changes made by an owner.
	Subscriptions []pubsub.Subscription
	Affiliations  []pubsub.Affiliation
}

func badRequest(text string) error {
	return pubsub.Error{Condition: pubsub.CondBadRequest, Text: text}
}

// classify finds the action named by the children of a <pubsub/> element.
func classify(typ stanza.IQType, ps *stanza.Element) (Action, error) {
	if len(ps.Children) == 0 {
		return 0, badRequest("missing action element")
	}
	act := ps.Children[0]
	if act.XMLName.Space != ps.XMLName.Space {
		return 0, badRequest("unknown action element")
	}
	a, ok := routes[route{typ: typ, space: ps.XMLName.Space, local: act.XMLName.Local}]
	if !ok {
		return 0, badRequest("unknown action element " + act.XMLName.Local)
	}
	switch len(ps.Children) {
	case 1:
	case 2:
		aux := ps.Children[1]
		if actions[a].aux == "" || aux.XMLName.Space != pubsub.NS || aux.XMLName.Local != actions[a].aux {
			return a, badRequest("unexpected element " + aux.XMLName.Local)
		}
	default:
		return a, badRequest("too many elements")
	}
	return a, nil
}

// parseRequest validates the action element and extracts its arguments.
func parseRequest(a Action, iq stanza.IQ, ps *stanza.Element, cfg Config) (*Request, error) {
	act := ps.Children[0]
	var aux *stanza.Element
	if len(ps.Children) > 1 {
		aux = ps.Children[1]
	}
	req := &Request{
		Action:    a,
		ID:        iq.ID,
		Lang:      iq.Lang,
		Requestor: iq.From,
		Service:   iq.To,
		Node:      act.Attribute("node"),
	}

	var err error
	switch a {
	case ActionPublish:
		if req.Node == "" && !cfg.ImplicitDefaultNode {
			return req, pubsub.Error{Condition: pubsub.CondNodeRequired}
		}
		for _, el := range act.ChildrenNamed(xml.Name{Space: pubsub.NS, Local: "item"}) {
			if len(el.Children) > 1 {
				return req, pubsub.Error{Condition: pubsub.CondInvalidPayload, Text: "item has more than one payload"}
			}
			req.Items = append(req.Items, pubsub.ItemFromElement(el))
		}
		req.Form, err = parseForm(aux, false)
	case ActionSubscribe:
		if err = requireNode(req); err != nil {
			return req, err
		}
		if req.Subscriber, err = parseJID(act); err != nil {
			return req, err
		}
		req.Form, err = parseForm(aux, false)
	case ActionUnsubscribe:
		if err = requireNode(req); err != nil {
			return req, err
		}
		req.SubID = act.Attribute("subid")
		req.Subscriber, err = parseJID(act)
	case ActionGetOptions, ActionSetOptions:
		// Node and jid are checked by the handler so that a service without
		// options support reports it as unsupported.
		req.SubID = act.Attribute("subid")
		if _, ok := act.LookupAttr("jid"); ok {
			if req.Subscriber, err = parseJID(act); err != nil {
				return req, err
			}
		}
		if a == ActionSetOptions {
			req.Form, err = parseForm(act, false)
		}
	case ActionItems:
		if err = requireNode(req); err != nil {
			return req, err
		}
		req.SubID = act.Attribute("subid")
		if req.MaxItems, err = parseMaxItems(act, cfg.MaxItemsLimit); err != nil {
			return req, err
		}
		for _, el := range act.ChildrenNamed(xml.Name{Space: pubsub.NS, Local: "item"}) {
			id := el.Attribute("id")
			if id == "" {
				return req, badRequest("requested item has no id")
			}
			req.ItemIDs = append(req.ItemIDs, id)
		}
	case ActionRetract:
		if err = requireNode(req); err != nil {
			return req, err
		}
		if v, ok := act.LookupAttr("notify"); ok {
			if req.Notify, err = strconv.ParseBool(v); err != nil {
				return req, badRequest("bad notify attribute")
			}
		}
		for _, el := range act.ChildrenNamed(xml.Name{Space: pubsub.NS, Local: "item"}) {
			id := el.Attribute("id")
			if id == "" {
				return req, pubsub.Error{Condition: pubsub.CondItemRequired}
			}
			req.ItemIDs = append(req.ItemIDs, id)
		}
		if len(req.ItemIDs) == 0 {
			return req, pubsub.Error{Condition: pubsub.CondItemRequired}
		}
	case ActionCreate:
		req.Form, err = parseForm(aux, false)
	case ActionGetConfig, ActionPurge, ActionNodeSubscriptions, ActionNodeAffiliations:
		err = requireNode(req)
	case ActionSetConfig:
		if err = requireNode(req); err != nil {
			return req, err
		}
		req.Form, err = parseForm(act, true)
	case ActionDelete:
		if err = requireNode(req); err != nil {
			return req, err
		}
		req.Redirect = act.Child(xml.Name{Space: pubsub.NSOwner, Local: "redirect"}).Attribute("uri")
	case ActionSetNodeSubscriptions:
		if err = requireNode(req); err != nil {
			return req, err
		}
		req.Subscriptions, err = parseSubscriptions(act, req.Node)
	case ActionSetNodeAffiliations:
		if err = requireNode(req); err != nil {
			return req, err
		}
		req.Affiliations, err = parseAffiliations(act, req.Node)
	case ActionDefaultOptions, ActionSubscriptions, ActionAffiliations, ActionDefaultConfig:
	}
	return req, err
}

func requireNode(req *Request) error {
	if req.Node == "" {
		return pubsub.Error{Condition: pubsub.CondNodeRequired}
	}
	return nil
}

func parseJID(el *stanza.Element) (jid.JID, error) {
	v := el.Attribute("jid")
	if v == "" {
		return jid.JID{}, pubsub.Error{Condition: pubsub.CondJIDRequired}
	}
	j, err := jid.Parse(v)
	if err != nil {
		return j, pubsub.Error{Condition: pubsub.CondInvalidJID, Err: err}
	}
	return j, nil
}

// parseForm parses the data form that is a child of el.
func parseForm(el *stanza.Element, required bool) (*form.Data, error) {
	x := form.Find(el)
	if x == nil {
		if required {
			return nil, badRequest("missing data form")
		}
		return nil, nil
	}
	f, err := form.FromElement(x)
	if err != nil {
		return nil, pubsub.Error{Condition: pubsub.CondBadRequest, Text: "bad data form", Err: err}
	}
	return f, nil
}

func parseMaxItems(el *stanza.Element, limit int) (int, error) {
	v, ok := el.LookupAttr("max_items")
	if !ok {
		return limit, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return 0, badRequest("max_items must be a positive integer")
	}
	if limit > 0 && n > limit {
		n = limit
	}
	return n, nil
}

func parseSubscriptions(act *stanza.Element, node string) ([]pubsub.Subscription, error) {
	var subs []pubsub.Subscription
	for _, el := range act.ChildrenNamed(xml.Name{Space: pubsub.NSOwner, Local: "subscription"}) {
		if _, err := parseJID(el); err != nil {
			return nil, err
		}
		if _, ok := el.LookupAttr("subscription"); !ok {
			return nil, badRequest("subscription state is required")
		}
		s, err := pubsub.SubscriptionFromElement(el)
		if err != nil {
			return nil, pubsub.Error{Condition: pubsub.CondBadRequest, Err: err}
		}
		s.Node = node
		subs = append(subs, s)
	}
	if len(subs) == 0 {
		return nil, badRequest("no subscriptions to change")
	}
	return subs, nil
}

func parseAffiliations(act *stanza.Element, node string) ([]pubsub.Affiliation, error) {
	var affs []pubsub.Affiliation
	for _, el := range act.ChildrenNamed(xml.Name{Space: pubsub.NSOwner, Local: "affiliation"}) {
		if _, err := parseJID(el); err != nil {
			return nil, err
		}
		a, err := pubsub.AffiliationFromElement(el)
		if err != nil {
			return nil, pubsub.Error{Condition: pubsub.CondBadRequest, Err: err}
		}
		a.Node = node
		affs = append(affs, a)
	}
	if len(affs) == 0 {
		return nil, badRequest("no affiliations to change")
	}
	return affs, nil
}
