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

// Package sliding implements sliding windows. Successive windows overlap and
// are phased out by the slide duration, so a single event belongs to
// length/slide windows at once.
package sliding

import (
	"time"

	"github.com/streamloom/streamloom/pkg/window"
)

// Sliding assigns every event to the overlapping set of windows that contain
// its event time.
type Sliding struct {
	// Length is the duration of the window.
	Length time.Duration
	// Slide is the offset between successive windows.
	Slide time.Duration
}

var _ window.Assigner = (*Sliding)(nil)

// NewSliding returns a sliding window assigner.
func NewSliding(length time.Duration, slide time.Duration) *Sliding {
	return &Sliding{Length: length, Slide: slide}
}

// AssignWindows returns the set of windows that contain the given eventTime,
// ordered from the most recent window start to the earliest.
func (s *Sliding) AssignWindows(eventTime time.Time) []window.IntervalWindow {
	windows := make([]window.IntervalWindow, 0)

	// use the highest integer multiple of slide length which is not after
	// the eventTime as the start time of the most recent window. For example
	// if the eventTime is 810 and the slide length is 70, use 770 as the
	// startTime of that window. That guarantees consistency while assigning
	// the same event time to windows across invocations.
	startTime := time.UnixMilli((eventTime.UnixMilli() / s.Slide.Milliseconds()) * s.Slide.Milliseconds())
	endTime := startTime.Add(s.Length)

	// startTime and endTime describe the most recent window for the given
	// eventTime; the earlier overlapping windows are derived by subtracting
	// the slide length. Because assignment is left inclusive and right
	// exclusive, an event on a boundary is attributed only to the window to
	// the right of the boundary.
	for !startTime.After(eventTime) && endTime.After(eventTime) {
		windows = append(windows, window.NewIntervalWindow(startTime, endTime))
		startTime = startTime.Add(-s.Slide)
		endTime = endTime.Add(-s.Slide)
	}

	return windows
}
