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

// Package fixed implements fixed windows. Fixed windows (sometimes called
// tumbling windows) are defined by a static window size, e.g. minutely
// windows or hourly windows. They are aligned, i.e. every window applies
// across all the data for the corresponding period of time.
package fixed

import (
	"time"

	"github.com/streamloom/streamloom/pkg/window"
)

// Fixed assigns every event to exactly one aligned window of a static
// length.
type Fixed struct {
	// Length is the temporal length of the window.
	Length time.Duration
}

var _ window.Assigner = (*Fixed)(nil)

// NewFixed returns a fixed window assigner.
func NewFixed(length time.Duration) *Fixed {
	return &Fixed{Length: length}
}

// AssignWindows assigns a window for the given eventTime.
func (f *Fixed) AssignWindows(eventTime time.Time) []window.IntervalWindow {
	start := eventTime.Truncate(f.Length)

	// Assignment of windows follows a left inclusive and right exclusive
	// principle. Since we use truncate here, it is guaranteed that any
	// element on the boundary will automatically fall in to the window to
	// the right of the boundary.
	return []window.IntervalWindow{
		window.NewIntervalWindow(start, start.Add(f.Length)),
	}
}
