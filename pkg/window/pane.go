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

package window

// PaneTiming describes where a pane firing sits relative to the watermark
// passing the end of its window.
type PaneTiming int

const (
	// PaneEarly fires before the watermark has reached the end of the window.
	PaneEarly PaneTiming = iota
	// PaneOnTime is the single firing at the point the watermark passes the
	// end of the window.
	PaneOnTime
	// PaneLate fires after the on-time pane, for data admitted within the
	// allowed lateness.
	PaneLate
	// PaneUnknown is used where no firing has happened yet.
	PaneUnknown
)

func (t PaneTiming) String() string {
	switch t {
	case PaneEarly:
		return "EARLY"
	case PaneOnTime:
		return "ON_TIME"
	case PaneLate:
		return "LATE"
	case PaneUnknown:
		return "UNKNOWN"
	default:
		return "UNKNOWN"
	}
}

// PaneInfo is the metadata attached to one emitted firing of a window's
// accumulated contents.
type PaneInfo struct {
	// Index is the zero based position of this firing among all firings of
	// the window.
	Index int64
	// IsFirst is true for the first firing of the window.
	IsFirst bool
	// IsLast is true for the final firing of the window, after which the
	// window's state is retired.
	IsLast bool
	// Timing classifies the firing relative to the watermark.
	Timing PaneTiming
}

// NoFiringPane is the pane attached to elements that have not been through
// any trigger firing, e.g. freshly arrived input.
func NoFiringPane() PaneInfo {
	return PaneInfo{Index: 0, IsFirst: true, IsLast: true, Timing: PaneUnknown}
}
