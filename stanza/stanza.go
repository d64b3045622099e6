// Copyright 2026 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

// Package stanza contains the stanza model used by the publish–subscribe
// engine.
//
// Stanzas are handled as generic element trees (see Element) so that incoming
// stanzas can be fully read off of the stream before they are processed and
// outgoing stanzas can be built without knowledge of the eventual encoder.
// The IQ, Message, and Error types describe the parts of a stanza that the
// engine needs to route and answer requests.
package stanza // import "mellium.im/pubsub/stanza"

import (
	"encoding/xml"

	"mellium.im/pubsub/internal/ns"
)

// Is tests whether name is a valid stanza based on name and space.
// An empty namespace is accepted since stanzas inherit the stream namespace.
func Is(name xml.Name) bool {
	return (name.Local == "iq" || name.Local == "message" || name.Local == "presence") &&
		(name.Space == "" || name.Space == ns.Client || name.Space == ns.Server)
}
