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

package trigger

import "time"

// EventKind enumerates the inputs a trigger state machine can be advanced
// with.
type EventKind int

const (
	// ElementArrived is a new element buffered into the window.
	ElementArrived EventKind = iota
	// EventTimeAdvanced is an event-time timer firing, i.e. the input
	// watermark has passed the timer's timestamp.
	EventTimeAdvanced
	// ProcessingTimeAdvanced is a processing-time timer firing.
	ProcessingTimeAdvanced
)

func (k EventKind) String() string {
	switch k {
	case ElementArrived:
		return "ElementArrived"
	case EventTimeAdvanced:
		return "EventTimeAdvanced"
	case ProcessingTimeAdvanced:
		return "ProcessingTimeAdvanced"
	default:
		return "Unknown"
	}
}

// Event is one input to a trigger state machine. Events carry everything the
// machine is allowed to observe; machines never read ambient state.
type Event struct {
	// Kind selects the input variant.
	Kind EventKind
	// Timestamp is the element's event time for ElementArrived, or the timer
	// target for the timer kinds.
	Timestamp time.Time
	// WindowMax is the max timestamp of the window this machine belongs to.
	WindowMax time.Time
}

// Result is the outcome of advancing a trigger state machine.
type Result struct {
	// Fire is true when the window's buffered contents should be emitted as
	// a pane.
	Fire bool
	// Finished is true when the machine has reached a terminal condition and
	// the window should accept no further firings.
	Finished bool
}

// Machine is the mutable per-window instance of a trigger definition. One
// machine is owned by exactly one (key, window) pair and lives in the per-key
// window state across evaluations.
type Machine struct {
	def      Trigger
	subs     []*Machine
	count    int
	subFired []bool
	finished bool
}

// NewMachine builds a fresh state machine tree for the given definition.
func NewMachine(def Trigger) *Machine {
	m := &Machine{def: def}
	if len(def.Subs) > 0 {
		m.subs = make([]*Machine, len(def.Subs))
		m.subFired = make([]bool, len(def.Subs))
		for i, sub := range def.Subs {
			m.subs[i] = NewMachine(sub)
		}
	}
	return m
}

// Clone returns a deep copy of the machine and its progress. Used by the
// copy-on-access state store so an in-flight evaluation never mutates the
// committed trigger progress.
func (m *Machine) Clone() *Machine {
	c := &Machine{def: m.def, count: m.count, finished: m.finished}
	if len(m.subs) > 0 {
		c.subs = make([]*Machine, len(m.subs))
		c.subFired = make([]bool, len(m.subFired))
		copy(c.subFired, m.subFired)
		for i, sub := range m.subs {
			c.subs[i] = sub.Clone()
		}
	}
	return c
}

// Finished reports whether the machine has reached its terminal condition.
func (m *Machine) Finished() bool {
	return m.finished
}

// Advance feeds one event into the machine and returns whether the window
// should fire and whether the machine is now finished. Advancing a finished
// machine is a no-op.
func (m *Machine) Advance(ev Event) Result {
	if m.finished {
		return Result{Finished: true}
	}

	switch m.def.Kind {
	case Default:
		// Fires every time an event-time timer at or past the end of the
		// window is delivered. The first such firing is the on-time pane;
		// subsequent ones cover late batches. The machine never finishes on
		// its own, garbage collection retires it.
		if ev.Kind == EventTimeAdvanced && !ev.Timestamp.Before(ev.WindowMax) {
			return Result{Fire: true}
		}
		return Result{}

	case AfterCount:
		if ev.Kind != ElementArrived {
			return Result{}
		}
		m.count++
		if m.count >= m.def.Count {
			m.count = 0
			m.finished = true
			return Result{Fire: true, Finished: true}
		}
		return Result{}

	case Repeatedly:
		res := m.subs[0].Advance(ev)
		if res.Finished {
			// re-arm the sub-trigger
			m.subs[0] = NewMachine(m.def.Subs[0])
		}
		return Result{Fire: res.Fire}

	case AnyOf:
		var out Result
		for _, sub := range m.subs {
			res := sub.Advance(ev)
			out.Fire = out.Fire || res.Fire
			out.Finished = out.Finished || res.Finished
		}
		m.finished = out.Finished
		return out

	case AllOf:
		for i, sub := range m.subs {
			if m.subFired[i] {
				continue
			}
			if res := sub.Advance(ev); res.Fire {
				m.subFired[i] = true
			}
		}
		for _, fired := range m.subFired {
			if !fired {
				return Result{}
			}
		}
		m.finished = true
		return Result{Fire: true, Finished: true}

	default:
		// closed variant set, anything else is a programming error
		panic("unknown trigger kind")
	}
}
