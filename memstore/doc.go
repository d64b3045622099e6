// Copyright 2026 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

// Package memstore is an in-memory pubsub service.
//
// It implements every action supported by the service package and is meant
// for tests and as an example of how to write handlers.
// Nothing is persisted.
//
// A Store is connected to a Router by registering its options and attaching
// the router so that the store can send notifications:
//
//	store := memstore.New()
//	r := service.New(session, store.Options()...)
//	store.Attach(r)
package memstore // import "mellium.im/pubsub/memstore"
