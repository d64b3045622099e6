// Copyright 2026 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

package stanza

import (
	"encoding/xml"
	"sort"

	"mellium.im/xmlstream"
	"mellium.im/xmpp/jid"

	"mellium.im/pubsub/internal/ns"
)

// ErrorType is the type of an stanza error payloads.
// It should normally be one of the constants defined in this package.
type ErrorType string

const (
	// Cancel indicates that the error cannot be remedied and the operation should
	// not be retried.
	Cancel ErrorType = "cancel"

	// Auth indicates that an operation should be retried after providing
	// credentials.
	Auth ErrorType = "auth"

	// Continue indicates that the operation can proceed (the condition was only a
	// warning).
	Continue ErrorType = "continue"

	// Modify indicates that the operation can be retried after changing the data
	// sent.
	Modify ErrorType = "modify"

	// Wait is indicates that an error is temporary and may be retried.
	Wait ErrorType = "wait"
)

// Condition represents a more specific stanza error condition that can be
// encapsulated by an <error/> element.
type Condition string

// A list of stanza error conditions defined in RFC 6120 §8.3.3
const (
	// The sender has sent a stanza containing XML that does not conform to
	// the appropriate schema or that cannot be processed.
	BadRequest Condition = "bad-request"

	// Access cannot be granted because an existing resource exists with the
	// same name or address.
	Conflict Condition = "conflict"

	// The feature represented in the XML stanza is not implemented by the
	// intended recipient.
	FeatureNotImplemented Condition = "feature-not-implemented"

	// The requesting entity does not possess the necessary permissions to
	// perform an action that only certain authorized roles or individuals
	// are allowed to complete.
	Forbidden Condition = "forbidden"

	// The recipient or server can no longer be contacted at this address.
	Gone Condition = "gone"

	// The server has experienced a misconfiguration or other internal error
	// that prevents it from processing the stanza.
	InternalServerError Condition = "internal-server-error"

	// The addressed JID or item requested cannot be found.
	ItemNotFound Condition = "item-not-found"

	// The sending entity has provided or communicated an XMPP address that
	// violates the rules of the mellium.im/xmpp/jid package.
	JIDMalformed Condition = "jid-malformed"

	// The recipient or server understands the request but cannot process it
	// because the request does not meet criteria defined by the recipient.
	NotAcceptable Condition = "not-acceptable"

	// The recipient or server does not allow any entity to perform the
	// action.
	NotAllowed Condition = "not-allowed"

	// The sender needs to provide credentials before being allowed to
	// perform the action, or has provided improper credentials.
	NotAuthorized Condition = "not-authorized"

	// The entity has violated some local service policy.
	PolicyViolation Condition = "policy-violation"

	// The intended recipient is temporarily unavailable.
	RecipientUnavailable Condition = "recipient-unavailable"

	// The recipient or server is redirecting requests for this information
	// to another entity.
	Redirect Condition = "redirect"

	// The requesting entity is not authorized to access the requested
	// service because prior registration is necessary.
	RegistrationRequired Condition = "registration-required"

	// A remote server or service specified as part or all of the JID of the
	// intended recipient does not exist or cannot be resolved.
	RemoteServerNotFound Condition = "remote-server-not-found"

	// A remote server or service specified as part or all of the JID of the
	// intended recipient was resolved but communications could not be
	// established within a reasonable amount of time.
	RemoteServerTimeout Condition = "remote-server-timeout"

	// The server or recipient is busy or lacks the system resources
	// necessary to service the request.
	ResourceConstraint Condition = "resource-constraint"

	// The server or recipient does not currently provide the requested
	// service.
	ServiceUnavailable Condition = "service-unavailable"

	// The requesting entity is not authorized to access the requested
	// service because a prior subscription is necessary.
	SubscriptionRequired Condition = "subscription-required"

	// The error condition is not one of those defined by the other
	// conditions in this list.
	UndefinedCondition Condition = "undefined-condition"

	// The recipient or server understood the request but was not expecting
	// it at this time.
	UnexpectedRequest Condition = "unexpected-request"
)

// Error is an implementation of error intended to be marshalable and
// unmarshalable as XML.
type Error struct {
	By        jid.JID
	Type      ErrorType
	Condition Condition

	// Text maps xml:lang values to human readable descriptions of the error.
	// The empty key is used for text without a language.
	Text map[string]string

	// Application is an optional application-specific condition element.
	Application *Element
}

// Error satisfies the error interface by returning the condition and the
// application-specific condition, if any.
func (se Error) Error() string {
	s := string(se.Condition)
	if se.Application != nil {
		s += " (" + se.Application.XMLName.Local + ")"
	}
	if text := se.Text[""]; text != "" {
		s += ": " + text
	}
	return s
}

// TokenReader satisfies the xmlstream.Marshaler interface for Error.
func (se Error) TokenReader() xml.TokenReader {
	start := xml.StartElement{
		Name: xml.Name{Local: "error"},
	}
	if se.Type != "" {
		start.Attr = append(start.Attr, xml.Attr{Name: xml.Name{Local: "type"}, Value: string(se.Type)})
	}
	if by := se.By.String(); by != "" {
		start.Attr = append(start.Attr, xml.Attr{Name: xml.Name{Local: "by"}, Value: by})
	}

	inner := []xml.TokenReader{
		xmlstream.Wrap(nil, xml.StartElement{
			Name: xml.Name{Space: ns.Stanza, Local: string(se.Condition)},
		}),
	}

	langs := make([]string, 0, len(se.Text))
	for lang := range se.Text {
		langs = append(langs, lang)
	}
	sort.Strings(langs)
	for _, lang := range langs {
		data := se.Text[lang]
		if data == "" {
			continue
		}
		var attrs []xml.Attr
		// xml:lang attribute is optional, don't include it if it's empty.
		if lang != "" {
			attrs = []xml.Attr{{
				Name:  xml.Name{Space: ns.XML, Local: "lang"},
				Value: lang,
			}}
		}
		inner = append(inner, xmlstream.Wrap(
			xmlstream.Token(xml.CharData(data)),
			xml.StartElement{
				Name: xml.Name{Space: ns.Stanza, Local: "text"},
				Attr: attrs,
			},
		))
	}
	if se.Application != nil {
		inner = append(inner, se.Application.TokenReader())
	}

	return xmlstream.Wrap(
		xmlstream.MultiReader(inner...),
		start,
	)
}

// WriteXML satisfies the xmlstream.WriterTo interface.
// It is like MarshalXML except it writes tokens to w.
func (se Error) WriteXML(w xmlstream.TokenWriter) (n int, err error) {
	return xmlstream.Copy(w, se.TokenReader())
}

// MarshalXML satisfies the xml.Marshaler interface for Error.
func (se Error) MarshalXML(e *xml.Encoder, _ xml.StartElement) error {
	_, err := se.WriteXML(e)
	return err
}

// UnmarshalXML satisfies the xml.Unmarshaler interface for Error.
func (se *Error) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	el, err := ReadElement(d, &start)
	if err != nil {
		return err
	}
	*se = ErrorFromElement(el)
	return nil
}

// ErrorFromElement converts an <error/> element into an Error.
// Unknown children are ignored, and the first child outside of the stanza
// errors namespace is treated as the application-specific condition.
func ErrorFromElement(el *Element) Error {
	se := Error{
		Type: ErrorType(el.Attribute("type")),
	}
	if by := el.Attribute("by"); by != "" {
		if j, err := jid.Parse(by); err == nil {
			se.By = j
		}
	}
	for _, c := range el.Children {
		switch {
		case c.XMLName.Space == ns.Stanza && c.XMLName.Local == "text":
			if c.Text == "" {
				continue
			}
			if se.Text == nil {
				se.Text = make(map[string]string)
			}
			var lang string
			for _, a := range c.Attr {
				if a.Name.Space == ns.XML && a.Name.Local == "lang" {
					lang = a.Value
				}
			}
			se.Text[lang] = c.Text
		case c.XMLName.Space == ns.Stanza:
			if se.Condition == "" {
				se.Condition = Condition(c.XMLName.Local)
			}
		case se.Application == nil:
			se.Application = c
		}
	}
	return se
}

// FindError returns the first <error/> child of a stanza or nil.
func FindError(el *Element) *Element {
	return el.Child(xml.Name{Local: "error"})
}
