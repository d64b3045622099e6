// Copyright 2026 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

package pubsub

import (
	"encoding/xml"
	"sort"

	"mellium.im/pubsub/stanza"
)

// Error is a failed pubsub request.
//
// Errors compare equal under errors.Is when their conditions match.
// If the target has a Feature set it must also match.
type Error struct {
	Condition Condition

	// Feature is the name of the unsupported feature when Condition is
	// CondUnsupported.
	Feature string

	// Text is optional human readable text describing the failure.
	Text string

	// Stanza is the error received from the remote entity, if any.
	Stanza *stanza.Error

	// Err is the local cause of the failure, if any.
	Err error
}

// Unsupported returns an error indicating that f is not supported.
func Unsupported(f Feature) Error {
	return Error{Condition: CondUnsupported, Feature: f.String()}
}

// Error satisfies the error interface.
func (e Error) Error() string {
	s := "pubsub: " + e.Condition.String()
	if e.Feature != "" {
		s += " (" + e.Feature + ")"
	}
	if e.Text != "" {
		s += ": " + e.Text
	}
	if e.Err != nil {
		s += ": " + e.Err.Error()
	}
	return s
}

// Unwrap returns the local cause of the error.
func (e Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is an Error with the same condition.
func (e Error) Is(target error) bool {
	var t Error
	switch v := target.(type) {
	case Error:
		t = v
	case *Error:
		if v == nil {
			return false
		}
		t = *v
	default:
		return false
	}
	return t.Condition == e.Condition && (t.Feature == "" || t.Feature == e.Feature)
}

// StanzaError returns the wire representation of the error.
func (e Error) StanzaError() stanza.Error {
	cond, app := ToWire(e.Condition)
	se := stanza.Error{
		Type:      errorType(cond),
		Condition: cond,
	}
	if app != "" {
		se.Application = stanza.NewElement(xml.Name{Space: NSErrors, Local: app})
		if e.Condition == CondUnsupported && e.Feature != "" {
			se.Application.SetAttr("feature", e.Feature)
		}
	}
	if e.Text != "" {
		se.Text = map[string]string{"": e.Text}
	}
	return se
}

// FromStanzaError converts an error received from a remote entity into an
// Error.
// It never fails: unrecognized conditions result in CondUndefined.
func FromStanzaError(se stanza.Error) Error {
	var app, feature string
	if se.Application != nil && se.Application.XMLName.Space == NSErrors {
		app = se.Application.XMLName.Local
		feature = se.Application.Attribute("feature")
	}
	e := Error{
		Condition: FromWire(se.Condition, app),
		Feature:   feature,
		Text:      errorText(se.Text),
	}
	e.Stanza = &se
	return e
}

func errorText(text map[string]string) string {
	if t, ok := text[""]; ok {
		return t
	}
	langs := make([]string, 0, len(text))
	for lang := range text {
		langs = append(langs, lang)
	}
	if len(langs) == 0 {
		return ""
	}
	sort.Strings(langs)
	return text[langs[0]]
}
