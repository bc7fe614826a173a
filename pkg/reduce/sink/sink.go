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

// Package sink is the narrow, write-only channel the grouping engine emits
// panes through. The adapter deliberately faults on any attempt to read
// ambient per-key context: data flows evaluator to engine, never the
// reverse, and the engine may only act on what was passed explicitly into
// ProcessElements and OnTimer.
package sink

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/streamloom/streamloom/pkg/state"
	"github.com/streamloom/streamloom/pkg/timer"
	"github.com/streamloom/streamloom/pkg/window"
)

// ErrAmbientContext is the usage fault returned when the engine tries to
// read per-key context through the sink instead of the arguments it was
// given. It signals a programming error in the engine, not a runtime
// condition to recover from.
var ErrAmbientContext = errors.New("ambient context is not readable through the output sink")

// GroupedValue is one emitted pane: the key's grouped values with their
// output timestamp, window memberships and pane metadata.
type GroupedValue struct {
	// Key is the grouping key.
	Key string
	// Values are the grouped payloads of the pane.
	Values [][]byte
	// Timestamp is the output event time of the pane.
	Timestamp time.Time
	// Windows are the windows the pane belongs to.
	Windows []window.IntervalWindow
	// Pane is the firing metadata.
	Pane window.PaneInfo
}

// Bundle collects the panes emitted for one key during one evaluation. The
// bundle is uncommitted until the evaluation's TransformResult is assembled.
type Bundle struct {
	// ID identifies the bundle towards the downstream dispatch stage.
	ID string
	// Key is the key all grouped values in the bundle belong to.
	Key string

	mu    sync.Mutex
	items []GroupedValue
}

// NewBundle returns an empty output bundle for the key.
func NewBundle(key string) *Bundle {
	return &Bundle{ID: uuid.NewString(), Key: key}
}

func (b *Bundle) add(gv GroupedValue) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.items = append(b.items, gv)
}

// Items returns the emitted grouped values in emission order.
func (b *Bundle) Items() []GroupedValue {
	b.mu.Lock()
	defer b.mu.Unlock()
	items := make([]GroupedValue, len(b.items))
	copy(items, b.items)
	return items
}

// Len returns the number of emitted grouped values.
func (b *Bundle) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.items)
}

// Adapter is the write-only emit surface handed to the grouping engine. All
// reads of ambient context fault with ErrAmbientContext.
type Adapter struct {
	bundle *Bundle
}

// NewAdapter returns an adapter appending into the given bundle.
func NewAdapter(bundle *Bundle) *Adapter {
	return &Adapter{bundle: bundle}
}

// Emit appends one grouped value into the key's output bundle.
func (a *Adapter) Emit(values [][]byte, timestamp time.Time, windows []window.IntervalWindow, pane window.PaneInfo) {
	a.bundle.add(GroupedValue{
		Key:       a.bundle.Key,
		Values:    values,
		Timestamp: timestamp,
		Windows:   windows,
		Pane:      pane,
	})
}

// State faults: the engine must use the key state it was constructed with
// rather than reading it back through the sink.
func (a *Adapter) State() (*state.KeyState, error) {
	return nil, fmt.Errorf("engine must use the key state it was given: %w", ErrAmbientContext)
}

// Timers faults: the engine must use the timer handle it was constructed
// with rather than reading it back through the sink.
func (a *Adapter) Timers() (*timer.KeyStore, error) {
	return nil, fmt.Errorf("engine must use the timer store it was given: %w", ErrAmbientContext)
}

// ActiveWindows faults: the engine must inspect the windows of the input
// elements instead.
func (a *Adapter) ActiveWindows() ([]window.IntervalWindow, error) {
	return nil, fmt.Errorf("engine must inspect the windows of its input elements: %w", ErrAmbientContext)
}

// Pane faults: the engine must derive pane metadata from the window state it
// owns instead.
func (a *Adapter) Pane() (window.PaneInfo, error) {
	return window.PaneInfo{}, fmt.Errorf("engine must derive pane metadata from its own window state: %w", ErrAmbientContext)
}
