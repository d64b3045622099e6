// Copyright 2026 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

package stanza

import (
	"encoding/xml"
	"fmt"

	"mellium.im/xmlstream"
	"mellium.im/xmpp/jid"

	"mellium.im/pubsub/internal/ns"
)

// MessageType is the type of a message stanza.
// It should normally be one of the constants defined in this package.
type MessageType string

const (
	// NormalMessage is a standalone message that is sent outside the context of
	// a one-to-one conversation or groupchat, and to which it is expected that
	// the recipient will reply.
	NormalMessage MessageType = "normal"

	// ChatMessage represents a message sent in the context of a one-to-one chat
	// session.
	ChatMessage MessageType = "chat"

	// ErrorMessage is generated by an entity that experiences an error when
	// processing a message received from another entity.
	ErrorMessage MessageType = "error"

	// GroupChatMessage is sent in the context of a multi-user chat environment.
	GroupChatMessage MessageType = "groupchat"

	// HeadlineMessage provides an alert, a notification, or other transient
	// information to which no reply is expected.
	HeadlineMessage MessageType = "headline"
)

// Message is an XMPP stanza that contains a payload for direct one-to-one
// communication with another network entity.
// Publish–subscribe notifications are pushed in message stanzas.
type Message struct {
	ID   string
	To   jid.JID
	From jid.JID
	Lang string
	Type MessageType
}

// NewMessage unmarshals the attributes of a message start element.
func NewMessage(start xml.StartElement) (Message, error) {
	msg := Message{}
	if start.Name.Local != "message" {
		return msg, fmt.Errorf("stanza: expected message start element, got %q", start.Name.Local)
	}
	var err error
	for _, a := range start.Attr {
		switch {
		case a.Name.Space == ns.XML && a.Name.Local == "lang":
			msg.Lang = a.Value
		case a.Name.Space != "":
		case a.Name.Local == "id":
			msg.ID = a.Value
		case a.Name.Local == "to" && a.Value != "":
			msg.To, err = jid.Parse(a.Value)
			if err != nil {
				return msg, fmt.Errorf("stanza: bad to attribute: %w", err)
			}
		case a.Name.Local == "from" && a.Value != "":
			msg.From, err = jid.Parse(a.Value)
			if err != nil {
				return msg, fmt.Errorf("stanza: bad from attribute: %w", err)
			}
		case a.Name.Local == "type":
			msg.Type = MessageType(a.Value)
		}
	}
	return msg, nil
}

// StartElement returns the start token of the message.
func (msg Message) StartElement() xml.StartElement {
	return xml.StartElement{
		Name: xml.Name{Local: "message"},
		Attr: addressAttrs(msg.ID, msg.To, msg.From, msg.Lang, string(msg.Type)),
	}
}

// Wrap wraps the payload in a stanza.
func (msg Message) Wrap(payload xml.TokenReader) xml.TokenReader {
	return xmlstream.Wrap(payload, msg.StartElement())
}

// Element returns the message as an element tree containing the provided
// payload.
func (msg Message) Element(payload ...*Element) *Element {
	start := msg.StartElement()
	return NewElement(start.Name, start.Attr...).Append(payload...)
}
