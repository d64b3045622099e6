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

// IQType is the type of an IQ stanza.
// It should normally be one of the constants defined in this package.
type IQType string

const (
	// GetIQ is used to query another entity for information.
	GetIQ IQType = "get"

	// SetIQ is used to provide data to another entity, set new values, and
	// replace existing values.
	SetIQ IQType = "set"

	// ResultIQ is sent in response to a successful get or set IQ.
	ResultIQ IQType = "result"

	// ErrorIQ is sent to report that an error occurred during the delivery or
	// processing of a get or set IQ.
	ErrorIQ IQType = "error"
)

// IQ ("Information Query") is used as a general request response mechanism.
// IQ's are one-to-one, provide get and set semantics, and always require a
// response in the form of a result or an error.
type IQ struct {
	ID   string
	To   jid.JID
	From jid.JID
	Lang string
	Type IQType
}

// NewIQ unmarshals the attributes of an IQ start element.
func NewIQ(start xml.StartElement) (IQ, error) {
	iq := IQ{}
	if start.Name.Local != "iq" {
		return iq, fmt.Errorf("stanza: expected iq start element, got %q", start.Name.Local)
	}
	var err error
	for _, a := range start.Attr {
		switch {
		case a.Name.Space == ns.XML && a.Name.Local == "lang":
			iq.Lang = a.Value
		case a.Name.Space != "":
		case a.Name.Local == "id":
			iq.ID = a.Value
		case a.Name.Local == "to" && a.Value != "":
			iq.To, err = jid.Parse(a.Value)
			if err != nil {
				return iq, fmt.Errorf("stanza: bad to attribute: %w", err)
			}
		case a.Name.Local == "from" && a.Value != "":
			iq.From, err = jid.Parse(a.Value)
			if err != nil {
				return iq, fmt.Errorf("stanza: bad from attribute: %w", err)
			}
		case a.Name.Local == "type":
			iq.Type = IQType(a.Value)
		}
	}
	switch iq.Type {
	case GetIQ, SetIQ, ResultIQ, ErrorIQ:
	default:
		return iq, fmt.Errorf("stanza: invalid iq type %q", iq.Type)
	}
	return iq, nil
}

func addressAttrs(id string, to, from jid.JID, lang, typ string) []xml.Attr {
	var attrs []xml.Attr
	if id != "" {
		attrs = append(attrs, xml.Attr{Name: xml.Name{Local: "id"}, Value: id})
	}
	if s := to.String(); s != "" {
		attrs = append(attrs, xml.Attr{Name: xml.Name{Local: "to"}, Value: s})
	}
	if s := from.String(); s != "" {
		attrs = append(attrs, xml.Attr{Name: xml.Name{Local: "from"}, Value: s})
	}
	if lang != "" {
		attrs = append(attrs, xml.Attr{Name: xml.Name{Space: ns.XML, Local: "lang"}, Value: lang})
	}
	if typ != "" {
		attrs = append(attrs, xml.Attr{Name: xml.Name{Local: "type"}, Value: typ})
	}
	return attrs
}

// StartElement returns the start token of the IQ.
func (iq IQ) StartElement() xml.StartElement {
	return xml.StartElement{
		Name: xml.Name{Local: "iq"},
		Attr: addressAttrs(iq.ID, iq.To, iq.From, iq.Lang, string(iq.Type)),
	}
}

// Wrap wraps the payload in a stanza.
//
// If payload is nil, an empty IQ is returned.
func (iq IQ) Wrap(payload xml.TokenReader) xml.TokenReader {
	return xmlstream.Wrap(payload, iq.StartElement())
}

// Element returns the IQ as an element tree containing the provided payload.
func (iq IQ) Element(payload ...*Element) *Element {
	start := iq.StartElement()
	return NewElement(start.Name, start.Attr...).Append(payload...)
}

// Result returns a token reader for a response to the IQ with the to and from
// attributes switched, the type set to result, and the payload wrapped in the
// IQ.
func (iq IQ) Result(payload xml.TokenReader) xml.TokenReader {
	iq.Type = ResultIQ
	iq.To, iq.From = iq.From, iq.To
	return iq.Wrap(payload)
}

// Error returns a token reader for an error response to the IQ with the to and
// from attributes switched and the type set to error.
func (iq IQ) Error(err Error) xml.TokenReader {
	iq.Type = ErrorIQ
	iq.To, iq.From = iq.From, iq.To
	return iq.Wrap(err.TokenReader())
}
