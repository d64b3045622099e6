// Copyright 2026 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

// Package form implements sending and submitting data forms.
//
// Data forms are used by publish–subscribe services to carry node
// configuration, default node configuration, and subscription options.
package form // import "mellium.im/pubsub/form"

import (
	"encoding/xml"
	"errors"
	"strconv"

	"mellium.im/xmlstream"

	"mellium.im/pubsub/stanza"
)

// NS is the data forms namespace.
const NS = "jabber:x:data"

// FieldFormType is the name of the hidden field that carries the type of a
// form.
const FieldFormType = "FORM_TYPE"

// Type is the type of a form.
type Type string

// Valid form types.
const (
	// TypeForm indicates that the form-processing entity is asking the
	// form-submitting entity to complete a form.
	TypeForm Type = "form"

	// TypeSubmit indicates that the form-submitting entity is submitting data to
	// the form-processing entity.
	TypeSubmit Type = "submit"

	// TypeCancel indicates that the form-submitting entity has cancelled
	// submission of data to the form-processing entity.
	TypeCancel Type = "cancel"

	// TypeResult indicates that the form-processing entity is returning data
	// (e.g., search results) to the form-submitting entity, or the data is a
	// generic data set.
	TypeResult Type = "result"
)

// FieldType is the type of a form field.
type FieldType string

// Valid field types.
const (
	TypeBoolean     FieldType = "boolean"
	TypeFixed       FieldType = "fixed"
	TypeHidden      FieldType = "hidden"
	TypeJIDMulti    FieldType = "jid-multi"
	TypeJIDSingle   FieldType = "jid-single"
	TypeListMulti   FieldType = "list-multi"
	TypeListSingle  FieldType = "list-single"
	TypeTextMulti   FieldType = "text-multi"
	TypeTextPrivate FieldType = "text-private"
	TypeTextSingle  FieldType = "text-single"
)

// Option is one of the choices of a list field.
type Option struct {
	Label string
	Value string
}

// Field is a single field of a data form.
type Field struct {
	Var      string
	Type     FieldType
	Label    string
	Desc     string
	Required bool
	Values   []string
	Options  []Option
}

// Data represents a data form.
type Data struct {
	Type         Type
	Title        string
	Instructions string
	Fields       []Field
}

// New creates a new data form of type "form" with the provided fields.
// If formType is not empty, a hidden FORM_TYPE field is added first.
func New(formType string, fields ...Field) *Data {
	d := &Data{Type: TypeForm}
	if formType != "" {
		d.Fields = append(d.Fields, Field{
			Var:    FieldFormType,
			Type:   TypeHidden,
			Values: []string{formType},
		})
	}
	d.Fields = append(d.Fields, fields...)
	return d
}

// FormType returns the value of the FORM_TYPE field, if any.
func (d *Data) FormType() string {
	v, _ := d.GetString(FieldFormType)
	return v
}

func (d *Data) field(v string) *Field {
	if d == nil {
		return nil
	}
	for i := range d.Fields {
		if d.Fields[i].Var == v {
			return &d.Fields[i]
		}
	}
	return nil
}

// Get returns the values of the field with the provided var.
func (d *Data) Get(v string) ([]string, bool) {
	f := d.field(v)
	if f == nil {
		return nil, false
	}
	return f.Values, true
}

// GetString returns the first value of the field with the provided var.
func (d *Data) GetString(v string) (string, bool) {
	f := d.field(v)
	if f == nil || len(f.Values) == 0 {
		return "", f != nil
	}
	return f.Values[0], true
}

// GetBool returns the value of a boolean field.
// If the field does not exist or cannot be parsed as a boolean, ok is false.
func (d *Data) GetBool(v string) (value, ok bool) {
	s, ok := d.GetString(v)
	if !ok {
		return false, false
	}
	b, err := strconv.ParseBool(s)
	if err != nil {
		return false, false
	}
	return b, true
}

// Set sets the values of the field with the provided var, adding the field if
// it does not exist.
func (d *Data) Set(v string, values ...string) {
	if f := d.field(v); f != nil {
		f.Values = values
		return
	}
	d.Fields = append(d.Fields, Field{Var: v, Values: values})
}

// Submit returns a copy of the form with the type set to "submit" containing
// only the field vars and values.
func (d *Data) Submit() *Data {
	sub := &Data{Type: TypeSubmit}
	if d == nil {
		return sub
	}
	for _, f := range d.Fields {
		if f.Var == "" || f.Type == TypeFixed {
			continue
		}
		sub.Fields = append(sub.Fields, Field{
			Var:    f.Var,
			Type:   f.Type,
			Values: append([]string(nil), f.Values...),
		})
	}
	return sub
}

// Element returns the form as an element tree.
func (d *Data) Element() *stanza.Element {
	typ := d.Type
	if typ == "" {
		typ = TypeForm
	}
	x := stanza.NewElement(xml.Name{Space: NS, Local: "x"}).SetAttr("type", string(typ))
	if d.Title != "" {
		x.AddChild(xml.Name{Space: NS, Local: "title"}).Text = d.Title
	}
	if d.Instructions != "" {
		x.AddChild(xml.Name{Space: NS, Local: "instructions"}).Text = d.Instructions
	}
	for _, f := range d.Fields {
		field := x.AddChild(xml.Name{Space: NS, Local: "field"})
		if f.Var != "" {
			field.SetAttr("var", f.Var)
		}
		if f.Type != "" {
			field.SetAttr("type", string(f.Type))
		}
		if f.Label != "" {
			field.SetAttr("label", f.Label)
		}
		if f.Desc != "" {
			field.AddChild(xml.Name{Space: NS, Local: "desc"}).Text = f.Desc
		}
		if f.Required {
			field.AddChild(xml.Name{Space: NS, Local: "required"})
		}
		for _, v := range f.Values {
			field.AddChild(xml.Name{Space: NS, Local: "value"}).Text = v
		}
		for _, o := range f.Options {
			opt := field.AddChild(xml.Name{Space: NS, Local: "option"})
			if o.Label != "" {
				opt.SetAttr("label", o.Label)
			}
			opt.AddChild(xml.Name{Space: NS, Local: "value"}).Text = o.Value
		}
	}
	return x
}

// TokenReader implements xmlstream.Marshaler for Data.
func (d *Data) TokenReader() xml.TokenReader {
	return d.Element().TokenReader()
}

// WriteXML implements xmlstream.WriterTo for Data.
func (d *Data) WriteXML(w xmlstream.TokenWriter) (int, error) {
	return xmlstream.Copy(w, d.TokenReader())
}

// MarshalXML satisfies the xml.Marshaler interface for *Data.
func (d *Data) MarshalXML(e *xml.Encoder, _ xml.StartElement) error {
	_, err := d.WriteXML(e)
	return err
}

// UnmarshalXML satisfies the xml.Unmarshaler interface for *Data.
func (d *Data) UnmarshalXML(dec *xml.Decoder, start xml.StartElement) error {
	el, err := stanza.ReadElement(dec, &start)
	if err != nil {
		return err
	}
	data, err := FromElement(el)
	if err != nil {
		return err
	}
	*d = *data
	return nil
}

var errNotForm = errors.New("form: element is not a data form")

// FromElement parses an <x xmlns="jabber:x:data"/> element.
func FromElement(el *stanza.Element) (*Data, error) {
	if el == nil || el.XMLName.Local != "x" || el.XMLName.Space != NS {
		return nil, errNotForm
	}
	d := &Data{Type: Type(el.Attribute("type"))}
	switch d.Type {
	case TypeForm, TypeSubmit, TypeCancel, TypeResult:
	default:
		return nil, errors.New("form: invalid form type " + strconv.Quote(string(d.Type)))
	}
	for _, c := range el.Children {
		switch c.XMLName.Local {
		case "title":
			d.Title = c.Text
		case "instructions":
			if d.Instructions != "" {
				d.Instructions += "\n"
			}
			d.Instructions += c.Text
		case "field":
			f := Field{
				Var:   c.Attribute("var"),
				Type:  FieldType(c.Attribute("type")),
				Label: c.Attribute("label"),
			}
			for _, fc := range c.Children {
				switch fc.XMLName.Local {
				case "desc":
					f.Desc = fc.Text
				case "required":
					f.Required = true
				case "value":
					f.Values = append(f.Values, fc.Text)
				case "option":
					f.Options = append(f.Options, Option{
						Label: fc.Attribute("label"),
						Value: text(fc.Child(xml.Name{Local: "value"})),
					})
				}
			}
			d.Fields = append(d.Fields, f)
		}
	}
	return d, nil
}

func text(el *stanza.Element) string {
	if el == nil {
		return ""
	}
	return el.Text
}

// Find returns the first data form child of el or nil.
func Find(el *stanza.Element) *stanza.Element {
	return el.Child(xml.Name{Space: NS, Local: "x"})
}
