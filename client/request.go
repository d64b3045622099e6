// Copyright 2026 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

package client

import (
	"encoding/xml"

	"mellium.im/xmpp/jid"

	"mellium.im/pubsub"
	"mellium.im/pubsub/form"
	"mellium.im/pubsub/stanza"
)

// request returns a <pubsub/> element in the given namespace wrapping a single
// action element, and the action element.
func request(space, action, node string) (*stanza.Element, *stanza.Element) {
	ps := stanza.NewElement(xml.Name{Space: space, Local: "pubsub"})
	act := ps.AddChild(xml.Name{Space: space, Local: action})
	if node != "" {
		act.SetAttr("node", node)
	}
	return ps, act
}

// wrapForm returns an element in the given namespace containing the form.
func wrapForm(space, local string, f *form.Data) *stanza.Element {
	return stanza.NewElement(xml.Name{Space: space, Local: local}).Append(f.Element())
}

// submission returns the form to send when submitting f.
func submission(f *form.Data) *form.Data {
	if f.Type == form.TypeSubmit || f.Type == form.TypeCancel {
		return f
	}
	return f.Submit()
}

// responseChild returns the named child of a <pubsub/> response payload in the
// given namespace.
func responseChild(payload *stanza.Element, space, local string) *stanza.Element {
	if payload == nil || payload.XMLName.Space != space || payload.XMLName.Local != "pubsub" {
		return nil
	}
	return payload.Child(xml.Name{Space: space, Local: local})
}

// responseForm parses the data form inside the named child of a response.
func responseForm(payload *stanza.Element, space, local string) (*form.Data, error) {
	x := form.Find(responseChild(payload, space, local))
	if x == nil {
		return nil, pubsub.Error{Condition: pubsub.CondUndefined, Text: "response did not include a " + local + " form"}
	}
	return form.FromElement(x)
}

func requireNode(node string) error {
	if node == "" {
		return invalidf("a node is required")
	}
	return nil
}

func requireJID(j jid.JID, what string) error {
	if j.String() == "" {
		return invalidf("%s address is required", what)
	}
	return nil
}

func requireForm(f *form.Data) error {
	if f == nil {
		return invalidf("a data form is required")
	}
	return nil
}

func requireIDs(ids []string) error {
	if len(ids) == 0 {
		return invalidf("at least one item id is required")
	}
	for _, id := range ids {
		if id == "" {
			return invalidf("item ids must not be empty")
		}
	}
	return nil
}
