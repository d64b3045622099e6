// Copyright 2026 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

package pubsub

import (
	"encoding/xml"
	"fmt"

	"mellium.im/xmpp/jid"

	"mellium.im/pubsub/stanza"
)

// SubType is the state of a subscription.
type SubType uint8

// A list of subscription states.
const (
	SubNone         SubType = iota // none
	SubPending                     // pending
	SubSubscribed                  // subscribed
	SubUnconfigured                // unconfigured
)

// ParseSubType returns the subscription state with the provided name.
func ParseSubType(s string) (SubType, bool) {
	for t := SubNone; t <= SubUnconfigured; t++ {
		if t.String() == s {
			return t, true
		}
	}
	return SubNone, false
}

// AffiliationType is the relationship of an entity to a node.
type AffiliationType uint8

// A list of affiliations.
const (
	AffiliationNone      AffiliationType = iota // none
	AffiliationOwner                            // owner
	AffiliationPublisher                        // publisher
	AffiliationMember                           // member
	AffiliationOutcast                          // outcast
)

// ParseAffiliation returns the affiliation with the provided name.
func ParseAffiliation(s string) (AffiliationType, bool) {
	for t := AffiliationNone; t <= AffiliationOutcast; t++ {
		if t.String() == s {
			return t, true
		}
	}
	return AffiliationNone, false
}

// Item is a payload published to a node.
type Item struct {
	ID      string
	Payload *stanza.Element
}

// Element returns the item as an <item/> element in the provided namespace.
func (i Item) Element(space string) *stanza.Element {
	el := stanza.NewElement(xml.Name{Space: space, Local: "item"})
	if i.ID != "" {
		el.SetAttr("id", i.ID)
	}
	return el.Append(i.Payload)
}

// ItemFromElement returns the item represented by an <item/> element.
// The first child element, if any, is the payload.
func ItemFromElement(el *stanza.Element) Item {
	item := Item{ID: el.Attribute("id")}
	if len(el.Children) > 0 {
		item.Payload = el.Children[0]
	}
	return item
}

// Change is an entry of an items notification.
// It is either a published item or, if Retract is set, the retraction of the
// item with the given ID.
type Change struct {
	Item
	Retract bool
}

// Subscription is the registration of an entity to receive notifications from
// a node.
type Subscription struct {
	JID   jid.JID
	Node  string
	SubID string
	State SubType
}

// Element returns the subscription as a <subscription/> element in the
// provided namespace.
// Empty fields are omitted.
func (s Subscription) Element(space string) *stanza.Element {
	el := stanza.NewElement(xml.Name{Space: space, Local: "subscription"})
	if s.Node != "" {
		el.SetAttr("node", s.Node)
	}
	if j := s.JID.String(); j != "" {
		el.SetAttr("jid", j)
	}
	if s.SubID != "" {
		el.SetAttr("subid", s.SubID)
	}
	return el.SetAttr("subscription", s.State.String())
}

// SubscriptionFromElement parses a <subscription/> element.
// A missing subscription attribute is treated as subscribed.
func SubscriptionFromElement(el *stanza.Element) (Subscription, error) {
	s := Subscription{
		Node:  el.Attribute("node"),
		SubID: el.Attribute("subid"),
		State: SubSubscribed,
	}
	if v := el.Attribute("jid"); v != "" {
		j, err := jid.Parse(v)
		if err != nil {
			return s, fmt.Errorf("pubsub: bad subscription jid: %w", err)
		}
		s.JID = j
	}
	if v, ok := el.LookupAttr("subscription"); ok {
		state, ok := ParseSubType(v)
		if !ok {
			return s, fmt.Errorf("pubsub: unknown subscription state %q", v)
		}
		s.State = state
	}
	return s, nil
}

// Affiliation is the relationship of an entity to a node.
type Affiliation struct {
	JID  jid.JID
	Node string
	Type AffiliationType
}

// Element returns the affiliation as an <affiliation/> element in the provided
// namespace.
// Empty fields are omitted.
func (a Affiliation) Element(space string) *stanza.Element {
	el := stanza.NewElement(xml.Name{Space: space, Local: "affiliation"})
	if a.Node != "" {
		el.SetAttr("node", a.Node)
	}
	if j := a.JID.String(); j != "" {
		el.SetAttr("jid", j)
	}
	return el.SetAttr("affiliation", a.Type.String())
}

// AffiliationFromElement parses an <affiliation/> element.
func AffiliationFromElement(el *stanza.Element) (Affiliation, error) {
	a := Affiliation{Node: el.Attribute("node")}
	if v := el.Attribute("jid"); v != "" {
		j, err := jid.Parse(v)
		if err != nil {
			return a, fmt.Errorf("pubsub: bad affiliation jid: %w", err)
		}
		a.JID = j
	}
	v := el.Attribute("affiliation")
	t, ok := ParseAffiliation(v)
	if !ok {
		return a, fmt.Errorf("pubsub: unknown affiliation %q", v)
	}
	a.Type = t
	return a, nil
}
