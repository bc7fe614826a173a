/*
Copyright 2024 The Streamloom Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package reduce

import (
	"time"

	"github.com/streamloom/streamloom/pkg/element"
	"github.com/streamloom/streamloom/pkg/reduce/sink"
	"github.com/streamloom/streamloom/pkg/state"
	"github.com/streamloom/streamloom/pkg/timer"
)

// TransformResult is the outcome of evaluating one input batch. It is
// constructed once per batch, immutable after construction, and consumed by
// the surrounding engine for commit and watermark propagation.
type TransformResult struct {
	// Bundles are the per-key output bundles, one per evaluated key.
	Bundles []*sink.Bundle
	// State is the committed state snapshot after this evaluation.
	State *state.Snapshot
	// TimerUpdate carries the timer additions and cancellations staged by
	// this evaluation.
	TimerUpdate timer.Update
	// Hold is the step's aggregate watermark hold; valid only when HasHold
	// is true. The surrounding engine must not advance the watermark past
	// it while data is still buffered.
	Hold time.Time
	// HasHold is false when no window holds the watermark.
	HasHold bool
	// DroppedDueToLateness is the lateness counter delta of this batch.
	DroppedDueToLateness uint64
	// DroppedDueToClosedWindow is the closed-window counter delta of this
	// batch.
	DroppedDueToClosedWindow uint64
	// Deferred lists elements reserved for retry in a later evaluation.
	// Always empty under the current policy; reserved as an extension
	// point.
	Deferred []*element.WindowedValue
}
