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

package state

import (
	"fmt"
	"sync"
	"time"
)

// Store is the copy-on-access per-key windowing state store for one step.
// Load hands out deep copies of the committed state; mutations are staged
// per key and only become visible to subsequent Loads after Commit applies
// them as one unit.
type Store struct {
	mu        sync.RWMutex
	committed map[string]*KeyState
	staged    map[string]*KeyState
	closed    bool
}

// NewInMemoryStore returns an empty in-memory state store.
func NewInMemoryStore() *Store {
	return &Store{
		committed: make(map[string]*KeyState),
		staged:    make(map[string]*KeyState),
	}
}

// Load returns the key's state for mutation by the current evaluation. The
// returned state is a deep copy of the latest committed state, so in-flight
// mutations never leak to concurrent readers of the committed view.
func (s *Store) Load(key string) (*KeyState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, fmt.Errorf("state store is closed")
	}
	if ks, ok := s.committed[key]; ok {
		return ks.clone(), nil
	}
	return NewKeyState(key), nil
}

// Stage records the key's mutated state for the next Commit. Staging
// replaces any previously staged state for the same key.
func (s *Store) Stage(key string, ks *KeyState) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return fmt.Errorf("state store is closed")
	}
	s.staged[key] = ks
	return nil
}

// Commit applies all staged mutations onto the committed state as one unit
// and returns a read-only snapshot of the result. Keys whose staged state no
// longer tracks any window are dropped from the committed view.
func (s *Store) Commit() (*Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, fmt.Errorf("state store is closed")
	}
	for key, ks := range s.staged {
		if ks.Len() == 0 {
			delete(s.committed, key)
			continue
		}
		s.committed[key] = ks
	}
	s.staged = make(map[string]*KeyState)

	// commit swaps whole KeyState pointers, so the snapshot can reference
	// the committed map entries directly; later evaluations mutate copies.
	keys := make(map[string]*KeyState, len(s.committed))
	for key, ks := range s.committed {
		keys[key] = ks
	}
	return &Snapshot{keys: keys}, nil
}

// DiscardStaged drops all staged mutations without applying them. Called
// when the evaluation that staged them aborts, so a later Commit cannot make
// a failed batch's partial mutations durable.
func (s *Store) DiscardStaged() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.staged = make(map[string]*KeyState)
}

// Close marks the store unusable. Further Loads, Stages and Commits fail.
func (s *Store) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
}

// Snapshot is an idempotent observation of the latest committed state.
type Snapshot struct {
	keys map[string]*KeyState
}

// KeyState returns the committed state of the given key, if any. The
// returned state is read-only.
func (sn *Snapshot) KeyState(key string) (*KeyState, bool) {
	ks, ok := sn.keys[key]
	return ks, ok
}

// Keys returns the number of keys with committed window state.
func (sn *Snapshot) Keys() int {
	return len(sn.keys)
}

// EarliestWatermarkHold returns the earliest hold across all buffered
// windows of all keys, and false if no window holds the watermark. The
// surrounding engine must not advance the watermark past the returned
// instant while ok is true.
func (sn *Snapshot) EarliestWatermarkHold() (time.Time, bool) {
	var earliest time.Time
	var found bool
	for _, ks := range sn.keys {
		for _, ws := range ks.Windows() {
			if ws.Hold.IsZero() || !ws.HasBufferedData() {
				continue
			}
			if !found || ws.Hold.Before(earliest) {
				earliest = ws.Hold
				found = true
			}
		}
	}
	return earliest, found
}
