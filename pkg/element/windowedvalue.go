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

// Package element holds the value types that flow through the
// windowed-grouping evaluator: values paired with event time, window
// memberships and pane metadata, and the per-key work items the evaluator
// consumes.
package element

import (
	"time"

	"github.com/streamloom/streamloom/pkg/window"
)

// WindowedValue is a payload paired with an event timestamp, the non-empty
// set of windows it currently belongs to, and pane metadata. A WindowedValue
// in more than one window is a compact encoding of one independent
// per-window copy; see Explode.
type WindowedValue struct {
	// Value is the raw payload.
	Value []byte
	// Timestamp is the event time of the value.
	Timestamp time.Time
	// Windows is the set of windows the value belongs to, never empty.
	Windows []window.IntervalWindow
	// Pane describes the firing the value was emitted in, or the no-firing
	// pane for fresh input.
	Pane window.PaneInfo
}

// NewWindowedValue returns a WindowedValue carrying the no-firing pane.
func NewWindowedValue(value []byte, timestamp time.Time, windows []window.IntervalWindow) *WindowedValue {
	return &WindowedValue{
		Value:     value,
		Timestamp: timestamp,
		Windows:   windows,
		Pane:      window.NoFiringPane(),
	}
}

// Explode expands the value into one independent copy per window membership,
// each carrying exactly one window and the original timestamp, payload and
// pane. A value in a single window explodes to itself.
func (wv *WindowedValue) Explode() []*WindowedValue {
	if len(wv.Windows) == 1 {
		return []*WindowedValue{wv}
	}
	exploded := make([]*WindowedValue, 0, len(wv.Windows))
	for _, w := range wv.Windows {
		exploded = append(exploded, &WindowedValue{
			Value:     wv.Value,
			Timestamp: wv.Timestamp,
			Windows:   []window.IntervalWindow{w},
			Pane:      wv.Pane,
		})
	}
	return exploded
}

// SingleWindow returns the value's only window. It must not be called before
// the value has been exploded.
func (wv *WindowedValue) SingleWindow() window.IntervalWindow {
	return wv.Windows[0]
}
