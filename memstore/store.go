// Copyright 2026 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

package memstore

import (
	"context"
	"log/slog"
	"sort"
	"sync"

	"mellium.im/xmpp/jid"

	"mellium.im/pubsub"
	"mellium.im/pubsub/form"
	"mellium.im/pubsub/service"
)

// Notifier sends event notifications to subscribers.
// It is implemented by *service.Router.
type Notifier interface {
	NotifyItems(ctx context.Context, service jid.JID, node string, changes []pubsub.Change, subscribers ...jid.JID) error
	NotifyDelete(ctx context.Context, service jid.JID, node, redirect string, subscribers ...jid.JID) error
	NotifyPurge(ctx context.Context, service jid.JID, node string, subscribers ...jid.JID) error
	NotifySubscription(ctx context.Context, service jid.JID, sub pubsub.Subscription, recipients ...jid.JID) error
	NotifyConfiguration(ctx context.Context, service jid.JID, node string, config *form.Data, subscribers ...jid.JID) error

	// Background runs f outside of the request that triggered it.
	Background(f func(ctx context.Context)) error
}

// Option configures a Store.
type Option func(*Store)

// Logger sets the logger used to report failed notifications.
func Logger(l *slog.Logger) Option {
	return func(s *Store) {
		s.log = l
	}
}

// DefaultNode sets the node that items are published to when a request does
// not name one.
// It is only used if the router is configured to accept such requests.
func DefaultNode(node string) Option {
	return func(s *Store) {
		s.defaultNode = node
	}
}

// AutoCreate causes publishing to a node that does not exist to create it with
// the default configuration, owned by the publisher.
func AutoCreate() Option {
	return func(s *Store) {
		s.autoCreate = true
	}
}

// Store holds nodes, items, subscriptions, and affiliations in memory.
// It is safe for concurrent use by multiple goroutines.
type Store struct {
	log         *slog.Logger
	defaultNode string
	autoCreate  bool

	mu       sync.Mutex
	nodes    map[string]*node
	notifier Notifier
}

type subscription struct {
	pubsub.Subscription
	options values
}

type node struct {
	name   string
	config values
	items  []pubsub.Item
	subs   []*subscription
	affs   map[string]pubsub.AffiliationType
}

// New returns an empty store.
func New(opts ...Option) *Store {
	s := &Store{
		nodes: make(map[string]*node),
	}
	for _, o := range opts {
		o(s)
	}
	if s.log == nil {
		s.log = slog.New(slog.DiscardHandler)
	}
	return s
}

// Attach sets the notifier used to tell subscribers about changes.
// Until a notifier is attached no notifications are sent.
func (s *Store) Attach(n Notifier) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notifier = n
}

// Options returns options that register the store as the handler for every
// action.
func (s *Store) Options() []service.Option {
	return []service.Option{
		service.Publish(s.publish),
		service.Retract(s.retract),
		service.Items(s.items),
		service.Subscribe(s.subscribe),
		service.Unsubscribe(s.unsubscribe),
		service.GetOptions(s.getOptions),
		service.SetOptions(s.setOptions),
		service.DefaultOptions(s.defaultOptions),
		service.Subscriptions(s.subscriptions),
		service.Affiliations(s.affiliations),
		service.Create(s.create),
		service.Delete(s.delete),
		service.Purge(s.purge),
		service.GetConfig(s.getConfig),
		service.SetConfig(s.setConfig),
		service.DefaultConfig(s.defaultConfig),
		service.NodeSubscriptions(s.nodeSubscriptions),
		service.SetNodeSubscriptions(s.setNodeSubscriptions),
		service.NodeAffiliations(s.nodeAffiliations),
		service.SetNodeAffiliations(s.setNodeAffiliations),
	}
}

// Nodes returns the names of all nodes in the store, sorted.
func (s *Store) Nodes() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.nodeNames()
}

func (s *Store) nodeNames() []string {
	names := make([]string, 0, len(s.nodes))
	for name := range s.nodes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// notify calls f with the attached notifier, if any, in the background so
// that the response to the request does not wait for notifications to be
// delivered.
// Failures are logged.
// It must not be called with s.mu held.
func (s *Store) notify(kind, node string, f func(context.Context, Notifier) error) {
	s.mu.Lock()
	n := s.notifier
	s.mu.Unlock()
	if n == nil {
		return
	}
	err := n.Background(func(ctx context.Context) {
		if err := f(ctx, n); err != nil {
			s.log.Warn("memstore: notification failed", "kind", kind, "node", node, "err", err)
		}
	})
	if err != nil {
		s.log.Warn("memstore: notification dropped", "kind", kind, "node", node, "err", err)
	}
}

// lookup returns the named node.
// s.mu must be held.
func (s *Store) lookup(name string) (*node, error) {
	n, ok := s.nodes[name]
	if !ok {
		return nil, pubsub.Error{Condition: pubsub.CondNodeNotFound}
	}
	return n, nil
}

// newNode adds a node owned by owner.
// s.mu must be held.
func (s *Store) newNode(name string, owner jid.JID, config values) *node {
	if config == nil {
		config = defaults(nodeFields)
	}
	n := &node{
		name:   name,
		config: config,
		affs:   map[string]pubsub.AffiliationType{key(owner): pubsub.AffiliationOwner},
	}
	s.nodes[name] = n
	return n
}

func key(j jid.JID) string {
	return j.Bare().String()
}

func forbidden() error {
	return pubsub.Error{Condition: pubsub.CondForbidden}
}

func (n *node) affiliation(j jid.JID) pubsub.AffiliationType {
	return n.affs[key(j)]
}

func (n *node) requireOwner(j jid.JID) error {
	if n.affiliation(j) != pubsub.AffiliationOwner {
		return forbidden()
	}
	return nil
}

func (n *node) canPublish(j jid.JID) bool {
	switch n.affiliation(j) {
	case pubsub.AffiliationOwner, pubsub.AffiliationPublisher:
		return true
	case pubsub.AffiliationOutcast:
		return false
	}
	return n.config.string(fieldPublishModel) == "open"
}

// canAccess reports an error if j may not subscribe to the node or read its
// items.
func (n *node) canAccess(j jid.JID) error {
	aff := n.affiliation(j)
	if aff == pubsub.AffiliationOutcast {
		return forbidden()
	}
	if n.config.string(fieldAccessModel) == "whitelist" && aff == pubsub.AffiliationNone {
		return pubsub.Error{Condition: pubsub.CondClosedNode}
	}
	return nil
}

// recipients returns the addresses that should receive notifications from
// the node.
func (n *node) recipients() []jid.JID {
	seen := make(map[string]struct{})
	var rcpts []jid.JID
	for _, sub := range n.subs {
		if sub.State != pubsub.SubSubscribed || !sub.options.bool(fieldDeliver) {
			continue
		}
		k := sub.JID.String()
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		rcpts = append(rcpts, sub.JID)
	}
	return rcpts
}
