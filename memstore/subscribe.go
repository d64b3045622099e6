// Copyright 2026 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

package memstore

import (
	"context"
	"slices"

	"github.com/google/uuid"
	"mellium.im/xmpp/jid"

	"mellium.im/pubsub"
	"mellium.im/pubsub/form"
	"mellium.im/pubsub/service"
)

func (s *Store) subscribe(_ context.Context, req *service.Request) (pubsub.Subscription, error) {
	if key(req.Subscriber) != key(req.Requestor) {
		return pubsub.Subscription{}, pubsub.Error{Condition: pubsub.CondInvalidJID}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	n, err := s.lookup(req.Node)
	if err != nil {
		return pubsub.Subscription{}, err
	}
	if err := n.canAccess(req.Requestor); err != nil {
		return pubsub.Subscription{}, err
	}
	opts := defaults(optionFields)
	if err := opts.apply(req.Form, optionFields, pubsub.FormSubOptions); err != nil {
		return pubsub.Subscription{}, invalidOptions(err)
	}
	for _, sub := range n.subs {
		if sub.JID.Equal(req.Subscriber) && sub.State == pubsub.SubSubscribed {
			return sub.Subscription, nil
		}
	}
	sub := &subscription{
		Subscription: pubsub.Subscription{
			JID:   req.Subscriber,
			Node:  n.name,
			SubID: uuid.NewString(),
			State: pubsub.SubSubscribed,
		},
		options: opts,
	}
	n.subs = append(n.subs, sub)
	return sub.Subscription, nil
}

func invalidOptions(err error) error {
	return pubsub.Error{Condition: pubsub.CondInvalidOptions, Err: err}
}

// findSub returns the subscription of subscriber to the node.
// If the subscriber has more than one subscription subID selects between them.
func (n *node) findSub(subscriber jid.JID, subID string) (*subscription, error) {
	var found []*subscription
	for _, sub := range n.subs {
		if sub.JID.Equal(subscriber) {
			found = append(found, sub)
		}
	}
	switch {
	case len(found) == 0:
		return nil, pubsub.Error{Condition: pubsub.CondNotSubscribed}
	case subID == "" && len(found) > 1:
		return nil, pubsub.Error{Condition: pubsub.CondSubIDRequired}
	case subID == "":
		return found[0], nil
	}
	for _, sub := range found {
		if sub.SubID == subID {
			return sub, nil
		}
	}
	return nil, pubsub.Error{Condition: pubsub.CondInvalidSubID}
}

// ownSub looks up a subscription that the requestor is allowed to manage.
// s.mu must be held.
func (s *Store) ownSub(req *service.Request) (*node, *subscription, error) {
	n, err := s.lookup(req.Node)
	if err != nil {
		return nil, nil, err
	}
	if key(req.Subscriber) != key(req.Requestor) && n.affiliation(req.Requestor) != pubsub.AffiliationOwner {
		return nil, nil, forbidden()
	}
	sub, err := n.findSub(req.Subscriber, req.SubID)
	return n, sub, err
}

func (s *Store) unsubscribe(_ context.Context, req *service.Request) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, sub, err := s.ownSub(req)
	if err != nil {
		return err
	}
	n.subs = slices.DeleteFunc(n.subs, func(x *subscription) bool {
		return x == sub
	})
	return nil
}

// optionsArgs checks the arguments of an options request.
func optionsArgs(req *service.Request) error {
	switch {
	case req.Node == "":
		return pubsub.Error{Condition: pubsub.CondNodeRequired}
	case req.Subscriber.String() == "":
		return pubsub.Error{Condition: pubsub.CondJIDRequired}
	case req.Action == service.ActionSetOptions && req.Form == nil:
		return pubsub.Error{Condition: pubsub.CondBadRequest, Text: "missing data form"}
	}
	return nil
}

func (s *Store) getOptions(_ context.Context, req *service.Request) (*form.Data, error) {
	if err := optionsArgs(req); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	_, sub, err := s.ownSub(req)
	if err != nil {
		return nil, err
	}
	return sub.options.form(optionFields, pubsub.FormSubOptions), nil
}

func (s *Store) setOptions(_ context.Context, req *service.Request) error {
	if err := optionsArgs(req); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	_, sub, err := s.ownSub(req)
	if err != nil {
		return err
	}
	if err := sub.options.apply(req.Form, optionFields, pubsub.FormSubOptions); err != nil {
		return invalidOptions(err)
	}
	return nil
}

func (s *Store) defaultOptions(_ context.Context, req *service.Request) (*form.Data, error) {
	if req.Node != "" {
		s.mu.Lock()
		_, err := s.lookup(req.Node)
		s.mu.Unlock()
		if err != nil {
			return nil, err
		}
	}
	return defaults(optionFields).form(optionFields, pubsub.FormSubOptions), nil
}

// subscriptions lists the subscriptions of the requestor, optionally limited
// to a single node.
func (s *Store) subscriptions(_ context.Context, req *service.Request) ([]pubsub.Subscription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	names := s.nodeNames()
	if req.Node != "" {
		if _, err := s.lookup(req.Node); err != nil {
			return nil, err
		}
		names = []string{req.Node}
	}
	var subs []pubsub.Subscription
	for _, name := range names {
		for _, sub := range s.nodes[name].subs {
			if key(sub.JID) == key(req.Requestor) {
				subs = append(subs, sub.Subscription)
			}
		}
	}
	return subs, nil
}

func (s *Store) affiliations(_ context.Context, req *service.Request) ([]pubsub.Affiliation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	names := s.nodeNames()
	if req.Node != "" {
		if _, err := s.lookup(req.Node); err != nil {
			return nil, err
		}
		names = []string{req.Node}
	}
	var affs []pubsub.Affiliation
	for _, name := range names {
		if t := s.nodes[name].affiliation(req.Requestor); t != pubsub.AffiliationNone {
			affs = append(affs, pubsub.Affiliation{Node: name, Type: t})
		}
	}
	return affs, nil
}
