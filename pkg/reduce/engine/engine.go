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

// Package engine implements the windowed grouping and trigger engine for one
// key. It buffers admitted elements into their windows' state, drives the
// per-window trigger state machines, schedules garbage-collection timers,
// and emits grouped panes through the write-only output sink. All mutations
// stay local to the engine until Persist stages them for commit.
package engine

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/streamloom/streamloom/pkg/element"
	"github.com/streamloom/streamloom/pkg/reduce/sink"
	"github.com/streamloom/streamloom/pkg/shared/logging"
	"github.com/streamloom/streamloom/pkg/state"
	"github.com/streamloom/streamloom/pkg/timer"
	"github.com/streamloom/streamloom/pkg/trigger"
	"github.com/streamloom/streamloom/pkg/window"
)

// Counter is the narrow metric surface the engine increments. Satisfied by
// prometheus counters.
type Counter interface {
	Inc()
}

// Engine drives the windowing state of one key for one evaluation. It must
// be constructed fresh per (key, evaluation); ordering contract: all
// elements are processed before any timer is replayed, and Persist is called
// exactly once after both phases.
type Engine struct {
	key                 string
	strategy            window.Strategy
	keyState            *state.KeyState
	stateStore          *state.Store
	timers              *timer.KeyStore
	out                 *sink.Adapter
	reduceFn            ReduceFn
	inputWatermark      time.Time
	droppedClosedWindow Counter
	persisted           bool
	log                 *zap.SugaredLogger
}

// New returns an engine scoped to the given key. keyState must be the copy
// the evaluation loaded from the state store; inputWatermark is the step's
// current input watermark.
func New(ctx context.Context,
	key string,
	strategy window.Strategy,
	keyState *state.KeyState,
	stateStore *state.Store,
	timers *timer.KeyStore,
	out *sink.Adapter,
	droppedClosedWindow Counter) *Engine {

	return &Engine{
		key:                 key,
		strategy:            strategy,
		keyState:            keyState,
		stateStore:          stateStore,
		timers:              timers,
		out:                 out,
		reduceFn:            Buffering(),
		inputWatermark:      watermarkOf(ctx),
		droppedClosedWindow: droppedClosedWindow,
		log:                 logging.FromContext(ctx).With("key", key),
	}
}

type watermarkKey struct{}

// WithInputWatermark returns a context carrying the step's current input
// watermark for engines constructed from it.
func WithInputWatermark(ctx context.Context, wm time.Time) context.Context {
	return context.WithValue(ctx, watermarkKey{}, wm)
}

func watermarkOf(ctx context.Context) time.Time {
	if wm, ok := ctx.Value(watermarkKey{}).(time.Time); ok {
		return wm
	}
	return time.Time{}
}

// InputWatermark returns the step's input watermark the engine was
// constructed with.
func (e *Engine) InputWatermark() time.Time {
	return e.inputWatermark
}

// ProcessElements buffers each admitted element into its window's state and
// advances the per-window trigger machine, which may synchronously emit
// panes through the output sink. Elements must already have survived the
// late-data filter.
func (e *Engine) ProcessElements(elems []*element.WindowedValue) error {
	if e.persisted {
		return fmt.Errorf("engine for key %q already persisted", e.key)
	}
	for _, wv := range elems {
		for _, single := range wv.Explode() {
			e.processElement(single)
		}
	}
	return nil
}

func (e *Engine) processElement(wv *element.WindowedValue) {
	w := wv.SingleWindow()

	if ws, ok := e.keyState.Get(w); ok && ws.Closed {
		e.droppedClosedWindow.Inc()
		e.log.Debugw("Dropping element for closed window",
			zap.Time("eventTime", wv.Timestamp), zap.String("window", w.String()))
		return
	}

	ws := e.keyState.GetOrCreate(w, e.strategy.Trigger)
	e.reduceFn.Add(ws, wv.Value)
	e.updateHoldOnBuffer(ws, wv.Timestamp)

	// schedule the end-of-window timer that delivers the on-time firing,
	// and garbage collection at max timestamp plus the allowed lateness.
	// With zero allowed lateness the two coincide and the final pane is
	// emitted at collection time. Set overwrites, so re-scheduling per
	// element is idempotent.
	eow := w.MaxTimestamp()
	e.timers.Set(timer.TimerData{
		Window:    w,
		Timestamp: eow,
		Domain:    timer.EventTime,
	})
	if gc := e.strategy.GCTime(w); gc.After(eow) {
		e.timers.Set(timer.TimerData{
			Window:    w,
			Timestamp: gc,
			Domain:    timer.EventTime,
		})
	}

	res := ws.Machine.Advance(trigger.Event{
		Kind:      trigger.ElementArrived,
		Timestamp: wv.Timestamp,
		WindowMax: w.MaxTimestamp(),
	})
	if res.Fire {
		e.firePane(ws, e.inputWatermark, false)
	}
	if res.Finished {
		e.closeWindow(ws)
	}
}

// OnTimer replays one fired timer through the window's trigger machine.
// Timers belonging to windows already garbage-collected are counted and
// ignored; fired-but-stale is not an error, so replaying the same timer
// twice is a no-op both times.
func (e *Engine) OnTimer(t timer.TimerData) error {
	if e.persisted {
		return fmt.Errorf("engine for key %q already persisted", e.key)
	}

	ws, ok := e.keyState.Get(t.Window)
	if !ok {
		e.droppedClosedWindow.Inc()
		e.log.Debugw("Ignoring timer for garbage-collected window",
			zap.String("window", t.Window.String()), zap.Time("timerTs", t.Timestamp))
		return nil
	}

	if t.Domain == timer.EventTime && !t.Timestamp.Before(e.strategy.GCTime(t.Window)) {
		e.garbageCollect(ws, t)
		return nil
	}

	if ws.Closed {
		e.droppedClosedWindow.Inc()
		e.log.Debugw("Ignoring timer for closed window",
			zap.String("window", t.Window.String()), zap.Time("timerTs", t.Timestamp))
		return nil
	}

	kind := trigger.EventTimeAdvanced
	if t.Domain == timer.ProcessingTime {
		kind = trigger.ProcessingTimeAdvanced
	}
	res := ws.Machine.Advance(trigger.Event{
		Kind:      kind,
		Timestamp: t.Timestamp,
		WindowMax: t.Window.MaxTimestamp(),
	})
	if res.Fire {
		e.firePane(ws, t.Timestamp, false)
	}
	if res.Finished {
		e.closeWindow(ws)
	}
	return nil
}

// garbageCollect retires the window's state. Buffered un-fired contents are
// emitted as the final pane first; a window with nothing left to emit only
// bumps the closed-window counter.
func (e *Engine) garbageCollect(ws *state.WindowState, t timer.TimerData) {
	if ws.HasBufferedData() && !ws.Closed {
		e.firePane(ws, t.Timestamp, true)
	} else {
		e.droppedClosedWindow.Inc()
	}
	e.keyState.Delete(ws.Window)
	e.log.Debugw("Garbage-collected window state", zap.String("window", ws.Window.String()))
}

// firePane extracts the window's grouped contents and emits them as one pane
// through the output sink. now is the event-time vantage of whatever caused
// the firing and classifies the pane's timing.
func (e *Engine) firePane(ws *state.WindowState, now time.Time, last bool) {
	values := e.reduceFn.Extract(ws)

	var timing window.PaneTiming
	switch {
	case ws.OnTimeFired:
		timing = window.PaneLate
	case now.Before(ws.Window.MaxTimestamp()):
		timing = window.PaneEarly
	default:
		timing = window.PaneOnTime
		ws.OnTimeFired = true
	}

	pane := window.PaneInfo{
		Index:   ws.PaneIndex,
		IsFirst: ws.PaneIndex == 0,
		IsLast:  last,
		Timing:  timing,
	}
	ws.PaneIndex++

	e.out.Emit(values, ws.Window.MaxTimestamp(), []window.IntervalWindow{ws.Window}, pane)
	e.reduceFn.OnFired(ws, e.strategy.Mode)
	e.updateHoldAfterFire(ws)
}

// closeWindow marks the window's trigger machine terminal. The buffered
// contents have been emitted by the firing that finished the machine; the
// state entry stays behind until garbage collection so late input can be
// attributed to a closed window.
func (e *Engine) closeWindow(ws *state.WindowState) {
	ws.Closed = true
	ws.Values = nil
	ws.Hold = time.Time{}

	// a closed window fires no on-time pane, only garbage collection is
	// still pending
	if eow, gc := ws.Window.MaxTimestamp(), e.strategy.GCTime(ws.Window); gc.After(eow) {
		e.timers.Cancel(timer.TimerData{
			Window:    ws.Window,
			Timestamp: eow,
			Domain:    timer.EventTime,
		})
	}
}

// updateHoldOnBuffer tracks the earliest buffered event time as the
// window's watermark hold, capped at the garbage-collection time so the
// hold can never outlast the window itself.
func (e *Engine) updateHoldOnBuffer(ws *state.WindowState, eventTime time.Time) {
	hold := eventTime
	if gc := e.strategy.GCTime(ws.Window); hold.After(gc) {
		hold = gc
	}
	if ws.Hold.IsZero() || hold.Before(ws.Hold) {
		ws.Hold = hold
	}
}

func (e *Engine) updateHoldAfterFire(ws *state.WindowState) {
	switch {
	case !ws.HasBufferedData():
		ws.Hold = time.Time{}
	case ws.OnTimeFired:
		// the on-time pane is out, anything still buffered may only produce
		// late panes up to garbage collection
		ws.Hold = e.strategy.GCTime(ws.Window)
	}
}

// Persist flushes the engine's window state mutations and timer changes so
// they become visible at commit. It must be called exactly once, after all
// elements and timers for the key have been processed.
func (e *Engine) Persist() error {
	if e.persisted {
		return fmt.Errorf("engine for key %q already persisted", e.key)
	}
	e.persisted = true
	return multierr.Append(
		e.stateStore.Stage(e.key, e.keyState),
		e.timers.Persist(),
	)
}
