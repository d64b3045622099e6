// Copyright 2026 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

package stanza

import (
	"encoding/xml"
	"errors"
	"io"
	"strings"

	"mellium.im/xmlstream"

	"mellium.im/pubsub/internal/attr"
)

// Element is a generic XML element tree.
//
// Character data is collected into Text and, when marshaled, is written before
// any child elements.
// Whitespace only character data between child elements is not preserved.
// Namespace declarations are not kept as attributes; the namespace of each
// element is part of its name.
type Element struct {
	XMLName  xml.Name
	Attr     []xml.Attr
	Children []*Element
	Text     string
}

// NewElement returns a new element with the provided name and attributes.
func NewElement(name xml.Name, attrs ...xml.Attr) *Element {
	return &Element{
		XMLName: name,
		Attr:    attrs,
	}
}

// Attribute returns the value of the first unqualified attribute with the
// provided local name or the empty string.
func (e *Element) Attribute(local string) string {
	v, _ := e.LookupAttr(local)
	return v
}

// LookupAttr is like Attribute except that it also reports whether the
// attribute was present at all.
func (e *Element) LookupAttr(local string) (string, bool) {
	if e == nil {
		return "", false
	}
	idx, v := attr.Get(e.Attr, local)
	return v, idx != -1
}

// SetAttr sets the unqualified attribute local to value, replacing any existing
// value, and returns the element to allow chaining.
func (e *Element) SetAttr(local, value string) *Element {
	e.Attr = attr.Set(e.Attr, local, value)
	return e
}

// Append adds the children to the element and returns the element to allow
// chaining.
// Nil children are skipped.
func (e *Element) Append(children ...*Element) *Element {
	for _, c := range children {
		if c != nil {
			e.Children = append(e.Children, c)
		}
	}
	return e
}

// AddChild creates a new child element, appends it, and returns the child.
func (e *Element) AddChild(name xml.Name, attrs ...xml.Attr) *Element {
	c := NewElement(name, attrs...)
	e.Children = append(e.Children, c)
	return c
}

func matches(have, want xml.Name) bool {
	return have.Local == want.Local && (want.Space == "" || have.Space == want.Space)
}

// Child returns the first child element matching name or nil.
// If name.Space is empty, children in any namespace are matched.
func (e *Element) Child(name xml.Name) *Element {
	if e == nil {
		return nil
	}
	for _, c := range e.Children {
		if matches(c.XMLName, name) {
			return c
		}
	}
	return nil
}

// ChildrenNamed returns all child elements matching name in document order.
// If name.Space is empty, children in any namespace are matched.
func (e *Element) ChildrenNamed(name xml.Name) []*Element {
	if e == nil {
		return nil
	}
	var found []*Element
	for _, c := range e.Children {
		if matches(c.XMLName, name) {
			found = append(found, c)
		}
	}
	return found
}

// Copy returns a deep copy of the element.
func (e *Element) Copy() *Element {
	if e == nil {
		return nil
	}
	cp := &Element{
		XMLName: e.XMLName,
		Text:    e.Text,
	}
	if e.Attr != nil {
		cp.Attr = append([]xml.Attr(nil), e.Attr...)
	}
	for _, c := range e.Children {
		cp.Children = append(cp.Children, c.Copy())
	}
	return cp
}

// StartElement returns the start token of the element.
func (e *Element) StartElement() xml.StartElement {
	return xml.StartElement{
		Name: e.XMLName,
		Attr: append([]xml.Attr(nil), e.Attr...),
	}
}

// TokenReader satisfies the xmlstream.Marshaler interface for Element.
// Each call returns a new reader over the entire element.
func (e *Element) TokenReader() xml.TokenReader {
	inner := make([]xml.TokenReader, 0, len(e.Children)+1)
	if e.Text != "" {
		inner = append(inner, xmlstream.Token(xml.CharData(e.Text)))
	}
	for _, c := range e.Children {
		inner = append(inner, c.TokenReader())
	}
	return xmlstream.Wrap(xmlstream.MultiReader(inner...), e.StartElement())
}

// WriteXML satisfies the xmlstream.WriterTo interface.
// It is like MarshalXML except it writes tokens to w.
func (e *Element) WriteXML(w xmlstream.TokenWriter) (int, error) {
	return xmlstream.Copy(w, e.TokenReader())
}

// MarshalXML satisfies the xml.Marshaler interface for *Element.
func (e *Element) MarshalXML(enc *xml.Encoder, _ xml.StartElement) error {
	_, err := e.WriteXML(enc)
	return err
}

// UnmarshalXML satisfies the xml.Unmarshaler interface for *Element.
func (e *Element) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	el, err := ReadElement(d, &start)
	if err != nil {
		return err
	}
	*e = *el
	return nil
}

// Decode unmarshals the element into v using the rules of encoding/xml.
func (e *Element) Decode(v interface{}) error {
	return xml.NewTokenDecoder(e.TokenReader()).Decode(v)
}

// String returns the serialized form of the element.
// It is meant for logging and debugging.
func (e *Element) String() string {
	if e == nil {
		return ""
	}
	var b strings.Builder
	enc := xml.NewEncoder(&b)
	if _, err := e.WriteXML(enc); err != nil {
		return ""
	}
	if err := enc.Flush(); err != nil {
		return ""
	}
	return b.String()
}

// Parse decodes the first element read from r.
func Parse(r io.Reader) (*Element, error) {
	return ReadElement(xml.NewDecoder(r), nil)
}

// ParseString is like Parse but it reads from a string.
func ParseString(s string) (*Element, error) {
	return Parse(strings.NewReader(s))
}

func fromStart(start xml.StartElement) *Element {
	el := &Element{XMLName: start.Name}
	for _, a := range start.Attr {
		// Namespace declarations have already been applied to the names by the
		// decoder.
		if a.Name.Space == "xmlns" || (a.Name.Space == "" && a.Name.Local == "xmlns") {
			continue
		}
		el.Attr = append(el.Attr, a)
	}
	return el
}

// ReadElement reads a full element from r.
// If start is non-nil it is assumed to have already been popped from r and
// only the remainder of the element is read, otherwise tokens are skipped until
// the first start element.
func ReadElement(r xml.TokenReader, start *xml.StartElement) (*Element, error) {
	for start == nil {
		tok, err := r.Token()
		if s, ok := tok.(xml.StartElement); ok {
			start = &s
			break
		}
		if err != nil {
			return nil, err
		}
	}

	el := fromStart(*start)
	for {
		tok, err := r.Token()
		switch t := tok.(type) {
		case xml.StartElement:
			child, cerr := ReadElement(r, &t)
			if cerr != nil {
				return nil, cerr
			}
			el.Children = append(el.Children, child)
		case xml.EndElement:
			return trimText(el), nil
		case xml.CharData:
			el.Text += string(t)
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil, io.ErrUnexpectedEOF
			}
			return nil, err
		}
	}
}

func trimText(el *Element) *Element {
	if len(el.Children) > 0 && strings.TrimSpace(el.Text) == "" {
		el.Text = ""
	}
	return el
}
