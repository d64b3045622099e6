// Copyright 2026 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

// Package attr contains unexported functionality related to XML attributes.
package attr // import "mellium.im/pubsub/internal/attr"

import (
	"encoding/xml"
)

// Get returns the index and value of the first unqualified attribute with the
// provided local name from a list of attributes.
// If no such attribute exists, idx is -1.
func Get(attr []xml.Attr, local string) (idx int, value string) {
	for i, a := range attr {
		if a.Name.Space == "" && a.Name.Local == local {
			return i, a.Value
		}
	}
	return -1, ""
}

// Set replaces the value of the first unqualified attribute with the provided
// local name or appends a new attribute if none exists.
func Set(attr []xml.Attr, local, value string) []xml.Attr {
	if idx, _ := Get(attr, local); idx != -1 {
		attr[idx].Value = value
		return attr
	}
	return append(attr, xml.Attr{Name: xml.Name{Local: local}, Value: value})
}
