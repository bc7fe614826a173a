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

// Package window holds the event-time window and pane model used by the
// windowed-grouping evaluator. A window is a time-bounded grouping construct;
// an element may belong to more than one window at a time (e.g., sliding
// windows). The package also carries the per-collection windowing strategy
// (assignment rule, trigger definition, allowed lateness and accumulation
// mode) which is read-only input to the evaluator.
package window

import (
	"fmt"
	"time"

	"github.com/streamloom/streamloom/pkg/trigger"
)

// IntervalWindow is an event-time interval. Assignment of elements to windows
// follows a left inclusive and right exclusive principle, so an element whose
// event time falls exactly on a boundary belongs to the window to the right
// of the boundary.
type IntervalWindow struct {
	// Start is the start time of the window
	Start time.Time
	// End is the end time of the window
	End time.Time
}

// NewIntervalWindow returns an IntervalWindow for the given boundaries.
func NewIntervalWindow(start time.Time, end time.Time) IntervalWindow {
	return IntervalWindow{Start: start, End: end}
}

// MaxTimestamp returns the latest event-time instant considered to be inside
// the window. Data for the window arriving after MaxTimestamp plus the
// allowed lateness is discarded by the evaluator.
func (iw IntervalWindow) MaxTimestamp() time.Time {
	return iw.End
}

// Equals returns true if both windows describe the same interval.
func (iw IntervalWindow) Equals(other IntervalWindow) bool {
	return iw.Start.Equal(other.Start) && iw.End.Equal(other.End)
}

// ID uniquely identifies the window. It is used to key per-window state.
func (iw IntervalWindow) ID() string {
	return fmt.Sprintf("%v-%v", iw.Start.UnixMilli(), iw.End.UnixMilli())
}

func (iw IntervalWindow) String() string {
	return fmt.Sprintf("[%v,%v)", iw.Start.UnixMilli(), iw.End.UnixMilli())
}

// Assigner maps an event time to the set of windows the event belongs to.
// The assignment rule is opaque to the evaluator; it only relies on the
// returned windows.
type Assigner interface {
	// AssignWindows assigns windows for the given eventTime.
	AssignWindows(eventTime time.Time) []IntervalWindow
}

// AccumulationMode controls what happens to the buffered contents of a window
// once a pane has fired.
type AccumulationMode int

const (
	// Discarding clears the buffered values after every firing, so each pane
	// carries only the values that arrived since the previous firing.
	Discarding AccumulationMode = iota
	// Accumulating retains the buffered values across firings, so each pane
	// carries everything buffered so far.
	Accumulating
)

func (m AccumulationMode) String() string {
	switch m {
	case Discarding:
		return "Discarding"
	case Accumulating:
		return "Accumulating"
	default:
		return "Unknown"
	}
}

// Strategy is the immutable per-collection windowing configuration consumed
// by the evaluator and the grouping engine.
type Strategy struct {
	// Assigner is the window assignment rule.
	Assigner Assigner
	// Trigger is the trigger definition driving when buffered window
	// contents become an emitted pane. The zero value means the default
	// watermark trigger.
	Trigger trigger.Trigger
	// AllowedLateness is the grace duration past a window's max timestamp
	// after which further data for the window is discarded.
	AllowedLateness time.Duration
	// Mode decides whether fired panes accumulate or discard previously
	// buffered values.
	Mode AccumulationMode
}

// GCTime returns the instant at which the given window's state becomes
// garbage-collectible under this strategy.
func (s Strategy) GCTime(iw IntervalWindow) time.Time {
	return iw.MaxTimestamp().Add(s.AllowedLateness)
}
