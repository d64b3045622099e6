// Copyright 2026 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

package telemetry

import (
	"context"
	"time"
)

// Noop is a Metrics that does nothing.
type Noop struct{}

var _ Metrics = Noop{}

// ClientRequest does nothing.
func (Noop) ClientRequest(context.Context, string, string, time.Duration) {}

// ClientPending does nothing.
func (Noop) ClientPending(context.Context, int64) {}

// ClientAnomaly does nothing.
func (Noop) ClientAnomaly(context.Context, string) {}

// ServiceRequest does nothing.
func (Noop) ServiceRequest(context.Context, string, string, time.Duration) {}

// Event does nothing.
func (Noop) Event(context.Context, string) {}
