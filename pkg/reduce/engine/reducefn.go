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

package engine

import (
	"github.com/streamloom/streamloom/pkg/state"
	"github.com/streamloom/streamloom/pkg/window"
)

// ReduceFn describes how values accumulate inside a window's buffered state
// and how a pane's output is extracted from it.
type ReduceFn interface {
	// Add buffers one value into the window state.
	Add(ws *state.WindowState, value []byte)
	// Extract returns the grouped output of a pane firing.
	Extract(ws *state.WindowState) [][]byte
	// OnFired adjusts the buffer after a pane has fired.
	OnFired(ws *state.WindowState, mode window.AccumulationMode)
}

// bufferingReduceFn retains all values, unordered, with no combine. It is
// the system reduce fn backing plain group-by-window.
type bufferingReduceFn struct{}

// Buffering returns the system buffering reduce fn.
func Buffering() ReduceFn {
	return bufferingReduceFn{}
}

func (bufferingReduceFn) Add(ws *state.WindowState, value []byte) {
	ws.Values = append(ws.Values, value)
}

func (bufferingReduceFn) Extract(ws *state.WindowState) [][]byte {
	values := make([][]byte, len(ws.Values))
	copy(values, ws.Values)
	return values
}

func (bufferingReduceFn) OnFired(ws *state.WindowState, mode window.AccumulationMode) {
	if mode == window.Discarding {
		ws.Values = nil
	}
}
