// Copyright 2026 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

// Package client implements the requesting side of the publish–subscribe
// protocol.
//
// A Client builds requests, sends them to a pubsub service, and matches the
// responses it is handed back to the outstanding request with the same id.
// It also parses event notifications pushed by a service and dispatches them to
// callbacks registered when the client is created.
//
// The client does not read from the network itself.
// The host passes every incoming stanza to HandleXMPP or HandleStanza, for
// example from the handler of an xmpp.Session.
// Responses that do not match an outstanding request are logged and dropped.
package client // import "mellium.im/pubsub/client"
