// Copyright 2026 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

package xmpptest

import (
	"encoding/xml"
	"io"
	"strings"

	"mellium.im/xmlstream"
)

// Tokens is a slice of XML tokens that can also act as an xml.TokenReader by
// popping tokens from itself.
// This is useful for feeding handlers input that an xml.Decoder would reject,
// such as a stanza that ends before it is complete.
type Tokens []xml.Token

// Token satisfies xml.TokenReader.
func (r *Tokens) Token() (xml.Token, error) {
	if len(*r) == 0 {
		return nil, io.EOF
	}

	var t xml.Token
	t, *r = (*r)[0], (*r)[1:]
	return t, nil
}

type stream struct {
	xml.TokenReader
	*xml.Encoder
}

// Stream pops the first start element from r and returns it along with a
// TokenReadEncoder positioned just after it, as an XMPP session would when
// calling a handler.
// Anything written to the encoder is discarded.
func Stream(r xml.TokenReader) (xmlstream.TokenReadEncoder, *xml.StartElement, error) {
	for {
		tok, err := r.Token()
		if start, ok := tok.(xml.StartElement); ok {
			return stream{
				TokenReader: r,
				Encoder:     xml.NewEncoder(io.Discard),
			}, &start, nil
		}
		if err != nil {
			return nil, nil, err
		}
	}
}

// StreamString is like Stream except that it decodes the stanza from s.
func StreamString(s string) (xmlstream.TokenReadEncoder, *xml.StartElement, error) {
	return Stream(xml.NewDecoder(strings.NewReader(s)))
}
