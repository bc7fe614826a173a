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

// Package state holds the per-key windowing state that survives across
// evaluations: the buffered contents of each open window, the trigger state
// machine progress, and the per-window watermark holds. The store follows a
// copy-on-access discipline, mutations made during one evaluation are
// invisible to readers of the committed state until the evaluation commits.
package state

import (
	"time"

	"github.com/streamloom/streamloom/pkg/trigger"
	"github.com/streamloom/streamloom/pkg/window"
)

// WindowState is the state of one (key, window) pair.
type WindowState struct {
	// Window is the interval this state belongs to.
	Window window.IntervalWindow
	// Values is the buffered element multiset, unordered, no combine.
	Values [][]byte
	// Hold is the watermark hold for the window, the zero time means no
	// hold. While values are buffered the hold promises that output
	// timestamped no earlier than the hold may still be emitted.
	Hold time.Time
	// Machine is the trigger state machine progress for the window.
	Machine *trigger.Machine
	// PaneIndex is the index the next firing of the window will carry.
	PaneIndex int64
	// OnTimeFired is true once the window has emitted its on-time pane.
	OnTimeFired bool
	// Closed is true once the trigger machine finished; further input for
	// the window is dropped as targeting a closed window.
	Closed bool
}

// HasBufferedData reports whether the window still holds un-fired values.
func (ws *WindowState) HasBufferedData() bool {
	return len(ws.Values) > 0
}

func (ws *WindowState) clone() *WindowState {
	c := &WindowState{
		Window:      ws.Window,
		Hold:        ws.Hold,
		PaneIndex:   ws.PaneIndex,
		OnTimeFired: ws.OnTimeFired,
		Closed:      ws.Closed,
	}
	if ws.Machine != nil {
		c.Machine = ws.Machine.Clone()
	}
	if len(ws.Values) > 0 {
		// payloads are treated as immutable, only the slice header is copied
		c.Values = make([][]byte, len(ws.Values))
		copy(c.Values, ws.Values)
	}
	return c
}

// KeyState maps windows to their state for one key. It is exclusively owned
// by the evaluation currently processing the key.
type KeyState struct {
	// Key is the grouping key the state belongs to.
	Key string

	windows map[string]*WindowState
}

// NewKeyState returns an empty KeyState for the key.
func NewKeyState(key string) *KeyState {
	return &KeyState{Key: key, windows: make(map[string]*WindowState)}
}

// Get returns the state of the given window, if present.
func (ks *KeyState) Get(iw window.IntervalWindow) (*WindowState, bool) {
	ws, ok := ks.windows[iw.ID()]
	return ws, ok
}

// GetOrCreate returns the state of the given window, creating it with a
// fresh trigger machine for the given definition if absent.
func (ks *KeyState) GetOrCreate(iw window.IntervalWindow, def trigger.Trigger) *WindowState {
	if ws, ok := ks.windows[iw.ID()]; ok {
		return ws
	}
	ws := &WindowState{Window: iw, Machine: trigger.NewMachine(def)}
	ks.windows[iw.ID()] = ws
	return ws
}

// Delete retires the state of the given window.
func (ks *KeyState) Delete(iw window.IntervalWindow) {
	delete(ks.windows, iw.ID())
}

// Windows returns the states of all windows currently tracked for the key.
func (ks *KeyState) Windows() []*WindowState {
	windows := make([]*WindowState, 0, len(ks.windows))
	for _, ws := range ks.windows {
		windows = append(windows, ws)
	}
	return windows
}

// Len returns the number of windows tracked for the key.
func (ks *KeyState) Len() int {
	return len(ks.windows)
}

func (ks *KeyState) clone() *KeyState {
	c := NewKeyState(ks.Key)
	for id, ws := range ks.windows {
		c.windows[id] = ws.clone()
	}
	return c
}
