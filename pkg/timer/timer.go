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

// Package timer holds scheduled wake-ups for the windowed-grouping
// evaluator. Timers are created, overwritten and canceled only by the
// grouping engine; fired timers are delivered back into the engine by the
// evaluator as part of the keyed work item.
package timer

import (
	"fmt"
	"time"

	"github.com/streamloom/streamloom/pkg/window"
)

// Domain distinguishes what clock a timer fires against.
type Domain int

const (
	// EventTime timers fire when the input watermark passes the timer's
	// timestamp.
	EventTime Domain = iota
	// ProcessingTime timers fire when wall-clock time passes the timer's
	// timestamp.
	ProcessingTime
)

func (d Domain) String() string {
	switch d {
	case EventTime:
		return "EventTime"
	case ProcessingTime:
		return "ProcessingTime"
	default:
		return "Unknown"
	}
}

// TimerData is one scheduled notification, identified by
// (key, window, timestamp, domain). Setting a timer with the same identity
// again is an idempotent overwrite; a timer at a different timestamp is a
// different timer.
type TimerData struct {
	// Key is the key the timer belongs to.
	Key string
	// Window is the window the timer belongs to.
	Window window.IntervalWindow
	// Timestamp is the instant the timer is scheduled to fire at.
	Timestamp time.Time
	// Domain is the clock the timer fires against.
	Domain Domain
}

// ID returns the identity of the timer, (key, window, timestamp, domain).
// Setting a timer with the same identity again is an idempotent overwrite.
func (t TimerData) ID() string {
	return fmt.Sprintf("%s/%s/%d/%v", t.Key, t.Window.ID(), t.Timestamp.UnixMilli(), t.Domain)
}

func (t TimerData) String() string {
	return fmt.Sprintf("{key=%s window=%v ts=%v domain=%v}", t.Key, t.Window, t.Timestamp.UnixMilli(), t.Domain)
}
