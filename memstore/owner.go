// Copyright 2026 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

package memstore

import (
	"context"
	"errors"
	"slices"
	"sort"

	"github.com/google/uuid"
	"mellium.im/xmpp/jid"

	"mellium.im/pubsub"
	"mellium.im/pubsub/form"
	"mellium.im/pubsub/service"
)

func (s *Store) create(_ context.Context, req *service.Request) (string, error) {
	config := defaults(nodeFields)
	if err := config.apply(req.Form, nodeFields, pubsub.FormNodeConfig); err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	name := req.Node
	if name == "" {
		name = uuid.NewString()
	}
	if _, ok := s.nodes[name]; ok {
		return "", pubsub.Error{Condition: pubsub.CondConflict}
	}
	s.newNode(name, req.Requestor, config)
	return name, nil
}

// owned returns the requested node if the requestor owns it.
// s.mu must be held.
func (s *Store) owned(req *service.Request) (*node, error) {
	n, err := s.lookup(req.Node)
	if err != nil {
		return nil, err
	}
	return n, n.requireOwner(req.Requestor)
}

func (s *Store) delete(ctx context.Context, req *service.Request) error {
	s.mu.Lock()
	n, err := s.owned(req)
	if err != nil {
		s.mu.Unlock()
		return err
	}
	delete(s.nodes, n.name)
	var rcpts []jid.JID
	if n.config.bool(fieldNotifyDelete) {
		rcpts = n.recipients()
	}
	s.mu.Unlock()

	if len(rcpts) > 0 {
		s.notify("delete", n.name, func(ctx context.Context, nt Notifier) error {
			return nt.NotifyDelete(ctx, req.Service, n.name, req.Redirect, rcpts...)
		})
	}
	return nil
}

func (s *Store) purge(ctx context.Context, req *service.Request) error {
	s.mu.Lock()
	n, err := s.owned(req)
	if err != nil {
		s.mu.Unlock()
		return err
	}
	n.items = nil
	var rcpts []jid.JID
	if n.config.bool(fieldNotifyRetract) {
		rcpts = n.recipients()
	}
	s.mu.Unlock()

	if len(rcpts) > 0 {
		s.notify("purge", n.name, func(ctx context.Context, nt Notifier) error {
			return nt.NotifyPurge(ctx, req.Service, n.name, rcpts...)
		})
	}
	return nil
}

func (s *Store) getConfig(_ context.Context, req *service.Request) (*form.Data, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, err := s.owned(req)
	if err != nil {
		return nil, err
	}
	return n.config.form(nodeFields, pubsub.FormNodeConfig), nil
}

func (s *Store) setConfig(ctx context.Context, req *service.Request) error {
	s.mu.Lock()
	n, err := s.owned(req)
	if err != nil {
		s.mu.Unlock()
		return err
	}
	if err := n.config.apply(req.Form, nodeFields, pubsub.FormNodeConfig); err != nil {
		s.mu.Unlock()
		return err
	}
	var rcpts []jid.JID
	if n.config.bool(fieldNotifyConfig) {
		rcpts = n.recipients()
	}
	var config *form.Data
	if n.config.bool(fieldDeliverPayload) {
		config = n.config.form(nodeFields, pubsub.FormNodeConfig)
		config.Type = form.TypeResult
	}
	s.mu.Unlock()

	if len(rcpts) > 0 {
		s.notify("configuration", n.name, func(ctx context.Context, nt Notifier) error {
			return nt.NotifyConfiguration(ctx, req.Service, n.name, config, rcpts...)
		})
	}
	return nil
}

func (s *Store) defaultConfig(context.Context, *service.Request) (*form.Data, error) {
	return defaults(nodeFields).form(nodeFields, pubsub.FormNodeConfig), nil
}

func (s *Store) nodeSubscriptions(_ context.Context, req *service.Request) ([]pubsub.Subscription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, err := s.owned(req)
	if err != nil {
		return nil, err
	}
	subs := make([]pubsub.Subscription, 0, len(n.subs))
	for _, sub := range n.subs {
		subs = append(subs, sub.Subscription)
	}
	return subs, nil
}

func (s *Store) setNodeSubscriptions(ctx context.Context, req *service.Request) error {
	s.mu.Lock()
	n, err := s.owned(req)
	if err != nil {
		s.mu.Unlock()
		return err
	}
	changed := make([]pubsub.Subscription, 0, len(req.Subscriptions))
	for _, change := range req.Subscriptions {
		sub, err := n.findSub(change.JID, change.SubID)
		switch {
		case err == nil:
		case errors.Is(err, pubsub.Error{Condition: pubsub.CondNotSubscribed}):
			if change.State == pubsub.SubNone {
				continue
			}
			sub = &subscription{
				Subscription: pubsub.Subscription{JID: change.JID, Node: n.name, SubID: uuid.NewString()},
				options:      defaults(optionFields),
			}
			n.subs = append(n.subs, sub)
		default:
			s.mu.Unlock()
			return err
		}
		sub.State = change.State
		if change.State == pubsub.SubNone {
			n.subs = slices.DeleteFunc(n.subs, func(x *subscription) bool {
				return x == sub
			})
		}
		changed = append(changed, sub.Subscription)
	}
	s.mu.Unlock()

	for _, sub := range changed {
		s.notify("subscription", n.name, func(ctx context.Context, nt Notifier) error {
			return nt.NotifySubscription(ctx, req.Service, sub, sub.JID)
		})
	}
	return nil
}

func (s *Store) nodeAffiliations(_ context.Context, req *service.Request) ([]pubsub.Affiliation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, err := s.owned(req)
	if err != nil {
		return nil, err
	}
	keys := make([]string, 0, len(n.affs))
	for k := range n.affs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	affs := make([]pubsub.Affiliation, 0, len(keys))
	for _, k := range keys {
		j, err := jid.Parse(k)
		if err != nil {
			continue
		}
		affs = append(affs, pubsub.Affiliation{JID: j, Node: n.name, Type: n.affs[k]})
	}
	return affs, nil
}

func (s *Store) setNodeAffiliations(_ context.Context, req *service.Request) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, err := s.owned(req)
	if err != nil {
		return err
	}
	next := make(map[string]pubsub.AffiliationType, len(n.affs))
	for k, v := range n.affs {
		next[k] = v
	}
	for _, a := range req.Affiliations {
		if a.Type == pubsub.AffiliationNone {
			delete(next, key(a.JID))
			continue
		}
		next[key(a.JID)] = a.Type
	}
	owners := 0
	for _, t := range next {
		if t == pubsub.AffiliationOwner {
			owners++
		}
	}
	if owners == 0 {
		return pubsub.Error{Condition: pubsub.CondNotAcceptable, Text: "a node must have an owner"}
	}
	n.affs = next
	n.subs = slices.DeleteFunc(n.subs, func(sub *subscription) bool {
		return n.affs[key(sub.JID)] == pubsub.AffiliationOutcast
	})
	return nil
}
