// Copyright 2026 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

//go:generate go run -tags=tools golang.org/x/tools/cmd/stringer -output=string.go -type=Condition,Feature,SubType,AffiliationType -linecomment

// Package pubsub implements the shared vocabulary of the publish–subscribe
// protocol extension (XEP-0060).
//
// It defines the failure conditions a pubsub service may report along with
// their mapping to and from stanza errors, the protocol features a service may
// advertise, and the value types exchanged between the client and service
// roles.
// The client role lives in the client package and the service role in the
// service package.
package pubsub // import "mellium.im/pubsub"

// Various namespaces used by this package, provided as a convenience.
const (
	NS        = `http://jabber.org/protocol/pubsub`
	NSErrors  = `http://jabber.org/protocol/pubsub#errors`
	NSEvent   = `http://jabber.org/protocol/pubsub#event`
	NSOptions = `http://jabber.org/protocol/pubsub#subscription-options`
	NSOwner   = `http://jabber.org/protocol/pubsub#owner`
)

// Form types used by data forms exchanged with a pubsub service.
const (
	FormNodeConfig     = NS + "#node_config"
	FormSubOptions     = NS + "#subscribe_options"
	FormPublishOptions = NS + "#publish-options"
)
