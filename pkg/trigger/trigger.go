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

// Package trigger implements the trigger definitions and the per-window
// trigger state machines that decide when a window's buffered contents become
// an emitted pane. The set of trigger kinds is closed and matched
// exhaustively; composites are expressed as trees of sub-triggers.
package trigger

import "fmt"

// Kind enumerates the supported trigger variants.
type Kind int

const (
	// Default fires when the watermark passes the end of the window, and
	// again for every batch of late data admitted within the allowed
	// lateness.
	Default Kind = iota
	// AfterCount fires once the window has buffered a fixed number of
	// elements.
	AfterCount
	// Repeatedly re-arms its sub-trigger forever, firing every time the
	// sub-trigger fires.
	Repeatedly
	// AnyOf fires when any of its sub-triggers fires, and finishes when any
	// of them finishes.
	AnyOf
	// AllOf fires once all of its sub-triggers have fired, and then
	// finishes.
	AllOf
)

func (k Kind) String() string {
	switch k {
	case Default:
		return "Default"
	case AfterCount:
		return "AfterCount"
	case Repeatedly:
		return "Repeatedly"
	case AnyOf:
		return "AnyOf"
	case AllOf:
		return "AllOf"
	default:
		return "Unknown"
	}
}

// Trigger is an immutable trigger definition. The zero value is the default
// watermark trigger.
type Trigger struct {
	// Kind selects the variant.
	Kind Kind
	// Count is the element threshold for AfterCount.
	Count int
	// Subs are the sub-triggers for Repeatedly (exactly one), AnyOf and
	// AllOf (one or more).
	Subs []Trigger
}

// NewDefault returns the default watermark trigger.
func NewDefault() Trigger {
	return Trigger{Kind: Default}
}

// NewAfterCount returns a trigger that fires after count elements.
func NewAfterCount(count int) Trigger {
	return Trigger{Kind: AfterCount, Count: count}
}

// NewRepeatedly returns a trigger that re-arms sub forever.
func NewRepeatedly(sub Trigger) Trigger {
	return Trigger{Kind: Repeatedly, Subs: []Trigger{sub}}
}

// NewAnyOf returns a trigger that fires when any sub-trigger fires.
func NewAnyOf(subs ...Trigger) Trigger {
	return Trigger{Kind: AnyOf, Subs: subs}
}

// NewAllOf returns a trigger that fires once all sub-triggers have fired.
func NewAllOf(subs ...Trigger) Trigger {
	return Trigger{Kind: AllOf, Subs: subs}
}

func (t Trigger) String() string {
	switch t.Kind {
	case AfterCount:
		return fmt.Sprintf("AfterCount(%d)", t.Count)
	case Repeatedly, AnyOf, AllOf:
		return fmt.Sprintf("%v%v", t.Kind, t.Subs)
	default:
		return t.Kind.String()
	}
}
