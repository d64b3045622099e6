// Copyright 2026 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

package memstore

import (
	"strconv"

	"mellium.im/pubsub"
	"mellium.im/pubsub/form"
)

// Node configuration fields understood by the store.
const (
	fieldTitle          = "pubsub#title"
	fieldDeliverPayload = "pubsub#deliver_payloads"
	fieldNotifyConfig   = "pubsub#notify_config"
	fieldNotifyDelete   = "pubsub#notify_delete"
	fieldNotifyRetract  = "pubsub#notify_retract"
	fieldPersistItems   = "pubsub#persist_items"
	fieldMaxItems       = "pubsub#max_items"
	fieldAccessModel    = "pubsub#access_model"
	fieldPublishModel   = "pubsub#publish_model"

	fieldDeliver = "pubsub#deliver"
)

var nodeFields = []form.Field{
	{Var: fieldTitle, Type: form.TypeTextSingle, Label: "A friendly name for the node"},
	{Var: fieldDeliverPayload, Type: form.TypeBoolean, Label: "Deliver payloads with event notifications", Values: []string{"1"}},
	{Var: fieldNotifyConfig, Type: form.TypeBoolean, Label: "Notify subscribers when the node configuration changes", Values: []string{"0"}},
	{Var: fieldNotifyDelete, Type: form.TypeBoolean, Label: "Notify subscribers when the node is deleted", Values: []string{"1"}},
	{Var: fieldNotifyRetract, Type: form.TypeBoolean, Label: "Notify subscribers when items are removed from the node", Values: []string{"1"}},
	{Var: fieldPersistItems, Type: form.TypeBoolean, Label: "Persist items to storage", Values: []string{"1"}},
	{Var: fieldMaxItems, Type: form.TypeTextSingle, Label: "Max # of items to persist", Values: []string{"10"}},
	{
		Var: fieldAccessModel, Type: form.TypeListSingle, Label: "Specify the subscriber model", Values: []string{"open"},
		Options: []form.Option{{Value: "open"}, {Value: "whitelist"}},
	},
	{
		Var: fieldPublishModel, Type: form.TypeListSingle, Label: "Specify the publisher model", Values: []string{"publishers"},
		Options: []form.Option{{Value: "publishers"}, {Value: "open"}},
	},
}

var optionFields = []form.Field{
	{Var: fieldDeliver, Type: form.TypeBoolean, Label: "Enable delivery?", Values: []string{"1"}},
}

// values holds the current value of each field of a form.
type values map[string][]string

func defaults(fields []form.Field) values {
	v := make(values, len(fields))
	for _, f := range fields {
		v[f.Var] = append([]string(nil), f.Values...)
	}
	return v
}

// apply copies the fields of a submitted form into v.
// Fields that are not part of the form template are rejected.
func (v values) apply(f *form.Data, fields []form.Field, formType string) error {
	if f == nil || f.Type == form.TypeCancel {
		return nil
	}
	if t := f.FormType(); t != "" && t != formType {
		return pubsub.Error{Condition: pubsub.CondNotAcceptable, Text: "unexpected form type " + t}
	}
	next := make(values, len(v))
	for k, vals := range v {
		next[k] = vals
	}
	for _, field := range f.Fields {
		if field.Var == form.FieldFormType {
			continue
		}
		tmpl, ok := lookupField(fields, field.Var)
		if !ok {
			return pubsub.Error{Condition: pubsub.CondNotAcceptable, Text: "unknown field " + field.Var}
		}
		if tmpl.Type == form.TypeBoolean {
			b, err := parseBool(field.Values)
			if err != nil {
				return pubsub.Error{Condition: pubsub.CondNotAcceptable, Text: "bad value for " + field.Var, Err: err}
			}
			next[field.Var] = []string{formatBool(b)}
			continue
		}
		if tmpl.Var == fieldMaxItems {
			if n, err := strconv.Atoi(first(field.Values)); err != nil || n < 0 {
				return pubsub.Error{Condition: pubsub.CondNotAcceptable, Text: "bad value for " + field.Var}
			}
		}
		if len(tmpl.Options) > 0 && !hasOption(tmpl.Options, first(field.Values)) {
			return pubsub.Error{Condition: pubsub.CondNotAcceptable, Text: "unsupported value for " + field.Var}
		}
		next[field.Var] = append([]string(nil), field.Values...)
	}
	for k, vals := range next {
		v[k] = vals
	}
	return nil
}

func (v values) bool(key string) bool {
	b, _ := parseBool(v[key])
	return b
}

func (v values) int(key string) int {
	n, _ := strconv.Atoi(first(v[key]))
	return n
}

func (v values) string(key string) string {
	return first(v[key])
}

// form returns the values as a form using fields as the template.
func (v values) form(fields []form.Field, formType string) *form.Data {
	out := make([]form.Field, 0, len(fields))
	for _, f := range fields {
		f.Values = append([]string(nil), v[f.Var]...)
		out = append(out, f)
	}
	return form.New(formType, out...)
}

func lookupField(fields []form.Field, v string) (form.Field, bool) {
	for _, f := range fields {
		if f.Var == v {
			return f, true
		}
	}
	return form.Field{}, false
}

func hasOption(opts []form.Option, v string) bool {
	for _, o := range opts {
		if o.Value == v {
			return true
		}
	}
	return false
}

func first(vals []string) string {
	if len(vals) == 0 {
		return ""
	}
	return vals[0]
}

func parseBool(vals []string) (bool, error) {
	return strconv.ParseBool(first(vals))
}

func formatBool(b bool) string {
	if b {
		return "1"
	}
	return "0"
}
