// Copyright 2026 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

// Package service implements the serving side of the publish–subscribe
// protocol.
//
// A Router receives pubsub requests, checks that they are well formed, and
// passes them to the handler functions registered for each action.
// Actions without a handler are answered with a feature-not-implemented error
// naming the missing feature, so a service only needs to register the
// functionality it actually has.
//
// Handlers are responsible for storage and authorization.
// They return either a result or an error.
// Errors of type pubsub.Error or stanza.Error are sent to the requestor;
// any other error is logged and reported as internal-server-error.
//
// The Router also provides methods to push event notifications to
// subscribers, which handlers typically call after a successful change.
package service // import "mellium.im/pubsub/service"
