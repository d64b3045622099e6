// Copyright 2026 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

package pubsub

import (
	"mellium.im/pubsub/stanza"
)

// Condition is a reason that a pubsub request failed.
//
// Conditions are a closed set.
// Each one has a fixed representation on the wire consisting of a generic
// stanza error condition and, optionally, an application specific condition in
// the NSErrors namespace.
type Condition uint8

// A list of possible conditions.
const (
	CondUndefined                    Condition = iota // undefined
	CondBadRequest                                    // bad-request
	CondConflict                                      // conflict
	CondForbidden                                     // forbidden
	CondNotAcceptable                                 // not-acceptable
	CondNotAllowed                                    // not-allowed
	CondNotAuthorized                                 // not-authorized
	CondServiceUnavailable                            // service-unavailable
	CondInternalServerError                           // internal-server-error
	CondNodeNotFound                                  // node-not-found
	CondSubscriptionRequired                          // subscription-required
	CondNodeRequired                                  // node-required
	CondItemRequired                                  // item-required
	CondItemForbidden                                 // item-forbidden
	CondInvalidJID                                    // invalid-jid
	CondInvalidOptions                                // invalid-options
	CondJIDRequired                                   // jid-required
	CondInvalidPayload                                // invalid-payload
	CondPayloadRequired                               // payload-required
	CondSubIDRequired                                 // subid-required
	CondNotSubscribed                                 // not-subscribed
	CondPayloadTooBig                                 // payload-too-big
	CondConfigurationRequired                         // configuration-required
	CondInvalidSubID                                  // invalid-subid
	CondUnsupportedAccessModel                        // unsupported-access-model
	CondUnsupported                                   // unsupported
	CondClosedNode                                    // closed-node
	CondMaxItemsExceeded                              // max-items-exceeded
	CondMaxNodesExceeded                              // max-nodes-exceeded
	CondTooManySubscriptions                          // too-many-subscriptions
	CondPendingSubscription                           // pending-subscription
	CondPresenceSubscriptionRequired                  // presence-subscription-required
	CondNotInRosterGroup                              // not-in-roster-group
	CondPreconditionNotMet                            // precondition-not-met

	// Conditions below this point are produced locally and never sent.

	CondInvalidArgument // invalid-argument
	CondRequestFailed   // request-failed
	CondTimeout         // timeout
)

type wireCondition struct {
	cond stanza.Condition
	app  string
}

var wireConditions = [...]wireCondition{
	CondUndefined:                    {stanza.UndefinedCondition, ""},
	CondBadRequest:                   {stanza.BadRequest, ""},
	CondConflict:                     {stanza.Conflict, ""},
	CondForbidden:                    {stanza.Forbidden, ""},
	CondNotAcceptable:                {stanza.NotAcceptable, ""},
	CondNotAllowed:                   {stanza.NotAllowed, ""},
	CondNotAuthorized:                {stanza.NotAuthorized, ""},
	CondServiceUnavailable:           {stanza.ServiceUnavailable, ""},
	CondInternalServerError:          {stanza.InternalServerError, ""},
	CondNodeNotFound:                 {stanza.ItemNotFound, ""},
	CondSubscriptionRequired:         {stanza.SubscriptionRequired, ""},
	CondNodeRequired:                 {stanza.BadRequest, "nodeid-required"},
	CondItemRequired:                 {stanza.BadRequest, "item-required"},
	CondItemForbidden:                {stanza.BadRequest, "item-forbidden"},
	CondInvalidJID:                   {stanza.BadRequest, "invalid-jid"},
	CondInvalidOptions:               {stanza.BadRequest, "invalid-options"},
	CondJIDRequired:                  {stanza.BadRequest, "jid-required"},
	CondInvalidPayload:               {stanza.BadRequest, "invalid-payload"},
	CondPayloadRequired:              {stanza.BadRequest, "payload-required"},
	CondSubIDRequired:                {stanza.BadRequest, "subid-required"},
	CondNotSubscribed:                {stanza.UnexpectedRequest, "not-subscribed"},
	CondPayloadTooBig:                {stanza.NotAcceptable, "payload-too-big"},
	CondConfigurationRequired:        {stanza.NotAcceptable, "configuration-required"},
	CondInvalidSubID:                 {stanza.NotAcceptable, "invalid-subid"},
	CondUnsupportedAccessModel:       {stanza.NotAcceptable, "unsupported-access-model"},
	CondUnsupported:                  {stanza.FeatureNotImplemented, "unsupported"},
	CondClosedNode:                   {stanza.NotAllowed, "closed-node"},
	CondMaxItemsExceeded:             {stanza.NotAllowed, "max-items-exceeded"},
	CondMaxNodesExceeded:             {stanza.NotAllowed, "max-nodes-exceeded"},
	CondTooManySubscriptions:         {stanza.NotAllowed, "too-many-subscriptions"},
	CondPendingSubscription:          {stanza.NotAuthorized, "pending-subscription"},
	CondPresenceSubscriptionRequired: {stanza.NotAuthorized, "presence-subscription-required"},
	CondNotInRosterGroup:             {stanza.NotAuthorized, "not-in-roster-group"},
	CondPreconditionNotMet:           {stanza.Conflict, "precondition-not-met"},
	CondInvalidArgument:              {stanza.BadRequest, ""},
	CondRequestFailed:                {stanza.UndefinedCondition, ""},
	CondTimeout:                      {stanza.RemoteServerTimeout, ""},
}

// Local reports whether the condition is only ever produced locally.
// Local conditions are never received from a peer.
func (c Condition) Local() bool {
	return c >= CondInvalidArgument && int(c) < len(wireConditions)
}

// ToWire returns the generic stanza error condition and the local name of the
// application specific condition (or the empty string if there is none) that
// represent c on the wire.
// Unknown conditions are mapped to undefined-condition.
func ToWire(c Condition) (cond stanza.Condition, app string) {
	if int(c) >= len(wireConditions) {
		c = CondUndefined
	}
	w := wireConditions[c]
	return w.cond, w.app
}

// FromWire returns the condition represented by a generic stanza error
// condition and an application specific condition.
// The application condition is consulted first, then the generic condition
// alone.
// If neither is recognized CondUndefined is returned.
func FromWire(cond stanza.Condition, app string) Condition {
	if app != "" {
		for c, w := range wireConditions {
			if w.app == app {
				return Condition(c)
			}
		}
	}
	for c, w := range wireConditions[:CondInvalidArgument] {
		if w.app == "" && w.cond == cond {
			return Condition(c)
		}
	}
	return CondUndefined
}

// errorType returns the error type that accompanies a generic condition.
func errorType(cond stanza.Condition) stanza.ErrorType {
	switch cond {
	case stanza.BadRequest, stanza.NotAcceptable, stanza.JIDMalformed:
		return stanza.Modify
	case stanza.Forbidden, stanza.NotAuthorized, stanza.SubscriptionRequired:
		return stanza.Auth
	case stanza.RemoteServerTimeout, stanza.ResourceConstraint:
		return stanza.Wait
	}
	return stanza.Cancel
}
