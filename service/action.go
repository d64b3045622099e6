// Copyright 2026 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

package service

import (
	"strconv"

	"mellium.im/pubsub"
	"mellium.im/pubsub/stanza"
)

// Action is a kind of request that can be made of a pubsub service.
type Action uint8

// A list of actions.
const (
	ActionPublish Action = iota
	ActionSubscribe
	ActionUnsubscribe
	ActionRetract
	ActionItems
	ActionCreate
	ActionGetOptions
	ActionSetOptions
	ActionDefaultOptions
	ActionSubscriptions
	ActionAffiliations
	ActionGetConfig
	ActionSetConfig
	ActionDefaultConfig
	ActionDelete
	ActionPurge
	ActionNodeSubscriptions
	ActionSetNodeSubscriptions
	ActionNodeAffiliations
	ActionSetNodeAffiliations

	numActions
)

type actionInfo struct {
	name    string
	typ     stanza.IQType
	space   string
	local   string
	aux     string
	feature pubsub.Feature
}

var actions = [numActions]actionInfo{
	ActionPublish:              {"publish", stanza.SetIQ, pubsub.NS, "publish", "publish-options", pubsub.FeaturePublish},
	ActionSubscribe:            {"subscribe", stanza.SetIQ, pubsub.NS, "subscribe", "options", pubsub.FeatureSubscribe},
	ActionUnsubscribe:          {"unsubscribe", stanza.SetIQ, pubsub.NS, "unsubscribe", "", pubsub.FeatureSubscribe},
	ActionRetract:              {"retract", stanza.SetIQ, pubsub.NS, "retract", "", pubsub.FeatureRetractItems},
	ActionItems:                {"items", stanza.GetIQ, pubsub.NS, "items", "", pubsub.FeatureRetrieveItems},
	ActionCreate:               {"create", stanza.SetIQ, pubsub.NS, "create", "configure", pubsub.FeatureCreateNodes},
	ActionGetOptions:           {"get-options", stanza.GetIQ, pubsub.NS, "options", "", pubsub.FeatureSubscriptionOptions},
	ActionSetOptions:           {"set-options", stanza.SetIQ, pubsub.NS, "options", "", pubsub.FeatureSubscriptionOptions},
	ActionDefaultOptions:       {"default-options", stanza.GetIQ, pubsub.NS, "default", "", pubsub.FeatureRetrieveDefaultSub},
	ActionSubscriptions:        {"subscriptions", stanza.GetIQ, pubsub.NS, "subscriptions", "", pubsub.FeatureRetrieveSubscriptions},
	ActionAffiliations:         {"affiliations", stanza.GetIQ, pubsub.NS, "affiliations", "", pubsub.FeatureRetrieveAffiliations},
	ActionGetConfig:            {"get-config", stanza.GetIQ, pubsub.NSOwner, "configure", "", pubsub.FeatureConfigNode},
	ActionSetConfig:            {"set-config", stanza.SetIQ, pubsub.NSOwner, "configure", "", pubsub.FeatureConfigNode},
	ActionDefaultConfig:        {"default-config", stanza.GetIQ, pubsub.NSOwner, "default", "", pubsub.FeatureRetrieveDefault},
	ActionDelete:               {"delete", stanza.SetIQ, pubsub.NSOwner, "delete", "", pubsub.FeatureDeleteNodes},
	ActionPurge:                {"purge", stanza.SetIQ, pubsub.NSOwner, "purge", "", pubsub.FeaturePurgeNodes},
	ActionNodeSubscriptions:    {"node-subscriptions", stanza.GetIQ, pubsub.NSOwner, "subscriptions", "", pubsub.FeatureManageSubscriptions},
	ActionSetNodeSubscriptions: {"set-node-subscriptions", stanza.SetIQ, pubsub.NSOwner, "subscriptions", "", pubsub.FeatureManageSubscriptions},
	ActionNodeAffiliations:     {"node-affiliations", stanza.GetIQ, pubsub.NSOwner, "affiliations", "", pubsub.FeatureModifyAffiliations},
	ActionSetNodeAffiliations:  {"set-node-affiliations", stanza.SetIQ, pubsub.NSOwner, "affiliations", "", pubsub.FeatureModifyAffiliations},
}

type route struct {
	typ   stanza.IQType
	space string
	local string
}

var routes = func() map[route]Action {
	m := make(map[route]Action, numActions)
	for a, info := range actions {
		m[route{typ: info.typ, space: info.space, local: info.local}] = Action(a)
	}
	return m
}()

// String returns a short name for the action.
func (a Action) String() string {
	if a >= numActions {
		return "Action(" + strconv.Itoa(int(a)) + ")"
	}
	return actions[a].name
}

// Feature returns the protocol feature that the action belongs to.
func (a Action) Feature() pubsub.Feature {
	return actions[a].feature
}
