// Copyright 2026 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

package form_test

import (
	"encoding/xml"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"mellium.im/xmlstream"

	"mellium.im/pubsub/form"
	"mellium.im/pubsub/stanza"
)

var (
	_ xmlstream.Marshaler = (*form.Data)(nil)
	_ xmlstream.WriterTo  = (*form.Data)(nil)
	_ xml.Marshaler       = (*form.Data)(nil)
	_ xml.Unmarshaler     = (*form.Data)(nil)
)

const nodeConfig = `<x xmlns="jabber:x:data" type="form">
  <title>Configuration for "princely_musings" Node</title>
  <field var="FORM_TYPE" type="hidden"><value>http://jabber.org/protocol/pubsub#node_config</value></field>
  <field var="pubsub#title" type="text-single" label="A friendly name for the node"><value>Princely Musings</value></field>
  <field var="pubsub#deliver_notifications" type="boolean" label="Whether to deliver event notifications"><value>1</value></field>
  <field var="pubsub#access_model" type="list-single" label="Specify the subscriber model">
    <option><value>authorize</value></option>
    <option label="Open"><value>open</value></option>
    <value>open</value>
  </field>
  <field type="fixed"><value>Advanced</value></field>
</x>`

func TestFromElement(t *testing.T) {
	el, err := stanza.ParseString(nodeConfig)
	require.NoError(t, err)
	d, err := form.FromElement(el)
	require.NoError(t, err)

	assert.Equal(t, form.TypeForm, d.Type)
	assert.Equal(t, `Configuration for "princely_musings" Node`, d.Title)
	assert.Equal(t, "http://jabber.org/protocol/pubsub#node_config", d.FormType())

	title, ok := d.GetString("pubsub#title")
	assert.True(t, ok)
	assert.Equal(t, "Princely Musings", title)

	deliver, ok := d.GetBool("pubsub#deliver_notifications")
	assert.True(t, ok)
	assert.True(t, deliver)

	_, ok = d.GetBool("pubsub#title")
	assert.False(t, ok)

	_, ok = d.Get("pubsub#max_items")
	assert.False(t, ok)

	access := d.Fields[3]
	assert.Equal(t, form.TypeListSingle, access.Type)
	assert.Equal(t, []form.Option{{Value: "authorize"}, {Label: "Open", Value: "open"}}, access.Options)
	assert.Equal(t, []string{"open"}, access.Values)
}

func TestFromElementErrors(t *testing.T) {
	el, err := stanza.ParseString(`<x xmlns="jabber:x:data" type="nope"/>`)
	require.NoError(t, err)
	_, err = form.FromElement(el)
	assert.Error(t, err)

	el, err = stanza.ParseString(`<x xmlns="urn:example"/>`)
	require.NoError(t, err)
	_, err = form.FromElement(el)
	assert.Error(t, err)

	_, err = form.FromElement(nil)
	assert.Error(t, err)
}

func TestSubmit(t *testing.T) {
	el, err := stanza.ParseString(nodeConfig)
	require.NoError(t, err)
	d, err := form.FromElement(el)
	require.NoError(t, err)

	d.Set("pubsub#title", "Musings")
	d.Set("pubsub#max_items", "10")
	sub := d.Submit()

	assert.Equal(t, form.TypeSubmit, sub.Type)
	assert.Empty(t, sub.Title)
	for _, f := range sub.Fields {
		assert.NotEqual(t, form.TypeFixed, f.Type)
		assert.Empty(t, f.Options)
		assert.Empty(t, f.Label)
	}
	v, _ := sub.GetString("pubsub#title")
	assert.Equal(t, "Musings", v)
	v, _ = sub.GetString("pubsub#max_items")
	assert.Equal(t, "10", v)

	// The original form is left untouched by changes to the submission.
	sub.Set("pubsub#title", "Changed")
	v, _ = d.GetString("pubsub#title")
	assert.Equal(t, "Musings", v)
}

func TestMarshalRoundTrip(t *testing.T) {
	d := form.New("http://jabber.org/protocol/pubsub#subscribe_options",
		form.Field{Var: "pubsub#deliver", Type: form.TypeBoolean, Label: "Enable delivery?", Values: []string{"1"}, Required: true, Desc: "Turn it on"},
		form.Field{Var: "pubsub#show-values", Type: form.TypeListMulti, Values: []string{"chat", "online"}},
	)
	d.Instructions = "Fill it in"

	b, err := xml.Marshal(d)
	require.NoError(t, err)

	var again form.Data
	require.NoError(t, xml.Unmarshal(b, &again))
	assert.Equal(t, *d, again)
}

func TestNilData(t *testing.T) {
	var d *form.Data
	_, ok := d.Get("x")
	assert.False(t, ok)
	assert.Empty(t, d.FormType())
	assert.Equal(t, form.TypeSubmit, d.Submit().Type)
}
