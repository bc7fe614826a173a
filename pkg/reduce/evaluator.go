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

// Package reduce implements the windowed-grouping evaluator. One evaluator
// instance processes one key-partitioned input batch: it filters out data
// that arrived too late to matter, drives the per-key grouping engine over
// the surviving elements and the fired timers, commits the state mutations
// of all keys as one unit, and reports how far the watermark may safely
// advance given what is still buffered.
//
// The evaluator is synchronous per invocation. Correctness relies on an
// external guarantee it does not itself enforce: no two evaluations for the
// same key and step may run concurrently; the caller serializes by key,
// e.g. via partitioned dispatch (see element.Slot).
package reduce

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/atomic"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/streamloom/streamloom/pkg/element"
	"github.com/streamloom/streamloom/pkg/metrics"
	"github.com/streamloom/streamloom/pkg/reduce/engine"
	"github.com/streamloom/streamloom/pkg/reduce/sink"
	"github.com/streamloom/streamloom/pkg/shared/logging"
	"github.com/streamloom/streamloom/pkg/state"
	"github.com/streamloom/streamloom/pkg/timer"
	"github.com/streamloom/streamloom/pkg/window"
)

type phase int

const (
	phaseIdle phase = iota
	phaseProcessingKeys
	phaseFinalizing
	phaseDone
)

// meteredCounter increments the exported prometheus counter and the batch
// local delta together, so the TransformResult can carry per-batch counter
// deltas.
type meteredCounter struct {
	prom  prometheus.Counter
	delta *atomic.Uint64
}

func (c meteredCounter) Inc() {
	c.prom.Inc()
	c.delta.Inc()
}

// Evaluator evaluates one key-partitioned input batch against the step's
// windowing strategy. Construct one per batch; it is not reusable.
type Evaluator struct {
	strategy       window.Strategy
	stateStore     *state.Store
	timerStore     *timer.Store
	inputWatermark time.Time
	opts           *options

	latenessCounter     meteredCounter
	closedWindowCounter meteredCounter

	mu      sync.Mutex
	bundles []*sink.Bundle
	phase   phase

	log *zap.SugaredLogger
}

// NewEvaluator returns an evaluator for one batch. inputWatermark is the
// step's current input watermark; stateStore and timerStore carry the
// persistent per-key state across batches and must be exclusively owned per
// key by this evaluation.
func NewEvaluator(ctx context.Context,
	strategy window.Strategy,
	stateStore *state.Store,
	timerStore *timer.Store,
	inputWatermark time.Time,
	opts ...Option) *Evaluator {

	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}
	labels := map[string]string{
		metrics.LabelPipeline: o.pipelineName,
		metrics.LabelStep:     o.stepName,
	}
	return &Evaluator{
		strategy:       strategy,
		stateStore:     stateStore,
		timerStore:     timerStore,
		inputWatermark: inputWatermark,
		opts:           o,
		latenessCounter: meteredCounter{
			prom:  droppedDueToLateness.With(labels),
			delta: atomic.NewUint64(0),
		},
		closedWindowCounter: meteredCounter{
			prom:  droppedDueToClosedWindow.With(labels),
			delta: atomic.NewUint64(0),
		},
		log: logging.FromContext(ctx).With("step", o.stepName),
	}
}

// Evaluate processes all work items of the batch and commits the resulting
// state as one unit. Any fault while processing one key aborts the whole
// batch; nothing is committed and nothing is retried here, retry policy
// belongs to the caller.
func (ev *Evaluator) Evaluate(ctx context.Context, items []*element.KeyedWorkItem) (*TransformResult, error) {
	if ev.phase != phaseIdle {
		return nil, fmt.Errorf("evaluator is single use, construct a new one per batch")
	}
	ev.phase = phaseProcessingKeys

	ctx = engine.WithInputWatermark(ctx, ev.inputWatermark)

	// keys touch disjoint state, so they may be evaluated concurrently; no
	// ordering between keys is guaranteed or assumed
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(ev.opts.parallelism)
	for _, wi := range items {
		wi := wi
		g.Go(func() error {
			return ev.processWorkItem(gctx, wi)
		})
	}
	if err := g.Wait(); err != nil {
		// keys that already persisted before a sibling failed have staged
		// state and timer mutations behind; roll them back so a later
		// batch's commit cannot make this batch's partial mutations durable
		ev.stateStore.DiscardStaged()
		ev.timerStore.Discard()
		return nil, fmt.Errorf("batch evaluation aborted: %w", err)
	}

	ev.phase = phaseFinalizing
	snapshot, err := ev.stateStore.Commit()
	if err != nil {
		ev.timerStore.Discard()
		return nil, fmt.Errorf("failed to commit state: %w", err)
	}
	ev.timerStore.Commit()
	hold, hasHold := snapshot.EarliestWatermarkHold()

	result := &TransformResult{
		Bundles:                  ev.bundles,
		State:                    snapshot,
		TimerUpdate:              ev.timerStore.Delta(),
		Hold:                     hold,
		HasHold:                  hasHold,
		DroppedDueToLateness:     ev.latenessCounter.delta.Load(),
		DroppedDueToClosedWindow: ev.closedWindowCounter.delta.Load(),
		// reserved for retry semantics, the current policy never defers
		Deferred: nil,
	}
	ev.phase = phaseDone
	return result, nil
}

// processWorkItem evaluates one key: allocate the key's output bundle, load
// its state and timer handles, construct the grouping engine, run the
// late-data filter, feed the survivors and then the fired timers through the
// engine, and persist.
func (ev *Evaluator) processWorkItem(ctx context.Context, wi *element.KeyedWorkItem) error {
	if wi.Key == "" {
		return fmt.Errorf("work item carries no key, upstream partitioning is broken")
	}
	bundle := sink.NewBundle(wi.Key)
	ev.mu.Lock()
	ev.bundles = append(ev.bundles, bundle)
	ev.mu.Unlock()

	keyState, err := ev.stateStore.Load(wi.Key)
	if err != nil {
		return fmt.Errorf("failed to load state for key %q: %w", wi.Key, err)
	}
	timers := ev.timerStore.KeyStore(wi.Key)

	eng := engine.New(ctx, wi.Key, ev.strategy, keyState, ev.stateStore, timers,
		sink.NewAdapter(bundle), ev.closedWindowCounter)

	admitted := ev.dropExpiredWindows(wi.Key, wi.Elements, eng.InputWatermark())
	if err := eng.ProcessElements(admitted); err != nil {
		return fmt.Errorf("failed to process elements for key %q: %w", wi.Key, err)
	}
	for _, t := range wi.Timers {
		if err := eng.OnTimer(t); err != nil {
			return fmt.Errorf("failed to replay timer %v for key %q: %w", t, wi.Key, err)
		}
	}
	if err := eng.Persist(); err != nil {
		return fmt.Errorf("failed to persist key %q: %w", wi.Key, err)
	}
	return nil
}
