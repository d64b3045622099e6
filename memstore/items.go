// Copyright 2026 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

package memstore

import (
	"context"
	"slices"

	"github.com/google/uuid"

	"mellium.im/pubsub"
	"mellium.im/pubsub/form"
	"mellium.im/pubsub/service"
)

func (s *Store) publish(ctx context.Context, req *service.Request) ([]string, error) {
	name := req.Node
	if name == "" {
		name = s.defaultNode
	}
	if name == "" {
		return nil, pubsub.Error{Condition: pubsub.CondNodeRequired}
	}

	s.mu.Lock()
	n, ok := s.nodes[name]
	if !ok {
		if !s.autoCreate {
			s.mu.Unlock()
			return nil, pubsub.Error{Condition: pubsub.CondNodeNotFound}
		}
		n = s.newNode(name, req.Requestor, nil)
	}
	if !n.canPublish(req.Requestor) {
		s.mu.Unlock()
		return nil, forbidden()
	}
	if err := n.preconditions(req.Form); err != nil {
		s.mu.Unlock()
		return nil, err
	}
	persist := n.config.bool(fieldPersistItems)
	if persist && len(req.Items) == 0 {
		s.mu.Unlock()
		return nil, pubsub.Error{Condition: pubsub.CondItemRequired}
	}

	ids := make([]string, 0, len(req.Items))
	published := make([]pubsub.Item, 0, len(req.Items))
	for _, item := range req.Items {
		if item.ID == "" {
			item.ID = uuid.NewString()
		}
		if persist {
			n.store(item)
		}
		ids = append(ids, item.ID)
		if !n.config.bool(fieldDeliverPayload) {
			item.Payload = nil
		}
		published = append(published, item)
	}
	rcpts := n.recipients()
	s.mu.Unlock()

	if len(published) > 0 && len(rcpts) > 0 {
		s.notify("items", name, func(ctx context.Context, nt Notifier) error {
			changes := make([]pubsub.Change, 0, len(published))
			for _, item := range published {
				changes = append(changes, pubsub.Change{Item: item})
			}
			return nt.NotifyItems(ctx, req.Service, name, changes, rcpts...)
		})
	}
	return ids, nil
}

// preconditions checks publish options against the node configuration.
func (n *node) preconditions(opts *form.Data) error {
	if opts == nil {
		return nil
	}
	for _, f := range opts.Fields {
		if f.Var == form.FieldFormType {
			continue
		}
		have, ok := n.config[f.Var]
		if !ok || !slices.Equal(normalize(f.Var, have), normalize(f.Var, f.Values)) {
			return pubsub.Error{Condition: pubsub.CondPreconditionNotMet, Text: f.Var + " does not match"}
		}
	}
	return nil
}

// normalize returns boolean values in a canonical form so that "true" and "1"
// compare equal.
func normalize(v string, vals []string) []string {
	if f, ok := lookupField(nodeFields, v); ok && f.Type == form.TypeBoolean {
		b, _ := parseBool(vals)
		return []string{formatBool(b)}
	}
	return vals
}

// store adds an item to the node, replacing any item with the same id, and
// drops the oldest items if the node is full.
func (n *node) store(item pubsub.Item) {
	n.items = slices.DeleteFunc(n.items, func(i pubsub.Item) bool {
		return i.ID == item.ID
	})
	n.items = append(n.items, item)
	if limit := n.config.int(fieldMaxItems); limit > 0 && len(n.items) > limit {
		n.items = slices.Delete(n.items, 0, len(n.items)-limit)
	}
}

func (n *node) itemIndex(id string) int {
	return slices.IndexFunc(n.items, func(i pubsub.Item) bool {
		return i.ID == id
	})
}

func (s *Store) retract(ctx context.Context, req *service.Request) error {
	s.mu.Lock()
	n, err := s.lookup(req.Node)
	if err != nil {
		s.mu.Unlock()
		return err
	}
	if !n.canPublish(req.Requestor) {
		s.mu.Unlock()
		return forbidden()
	}
	for _, id := range req.ItemIDs {
		if n.itemIndex(id) < 0 {
			s.mu.Unlock()
			return pubsub.Error{Condition: pubsub.CondNodeNotFound, Text: "no item with id " + id}
		}
	}
	n.items = slices.DeleteFunc(n.items, func(i pubsub.Item) bool {
		return slices.Contains(req.ItemIDs, i.ID)
	})
	notify := req.Notify || n.config.bool(fieldNotifyRetract)
	rcpts := n.recipients()
	s.mu.Unlock()

	if notify && len(rcpts) > 0 {
		s.notify("retract", req.Node, func(ctx context.Context, nt Notifier) error {
			changes := make([]pubsub.Change, 0, len(req.ItemIDs))
			for _, id := range req.ItemIDs {
				changes = append(changes, pubsub.Change{Item: pubsub.Item{ID: id}, Retract: true})
			}
			return nt.NotifyItems(ctx, req.Service, req.Node, changes, rcpts...)
		})
	}
	return nil
}

func (s *Store) items(_ context.Context, req *service.Request) ([]pubsub.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, err := s.lookup(req.Node)
	if err != nil {
		return nil, err
	}
	if err := n.canAccess(req.Requestor); err != nil {
		return nil, err
	}

	if len(req.ItemIDs) > 0 {
		var found []pubsub.Item
		for _, id := range req.ItemIDs {
			if i := n.itemIndex(id); i >= 0 {
				found = append(found, n.items[i])
			}
		}
		if len(found) == 0 {
			return nil, pubsub.Error{Condition: pubsub.CondNodeNotFound, Text: "no such items"}
		}
		return found, nil
	}
	items := n.items
	if req.MaxItems > 0 && len(items) > req.MaxItems {
		items = items[len(items)-req.MaxItems:]
	}
	return slices.Clone(items), nil
}
