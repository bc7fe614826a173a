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

package timer

import (
	"sync"
)

// Update carries the timer additions and cancellations accumulated since the
// last call to Delta. It is handed to the surrounding engine at commit so the
// global timer wheel can be adjusted.
type Update struct {
	// SetTimers are timers scheduled or overwritten.
	SetTimers []TimerData
	// DeletedTimers are timers canceled before firing.
	DeletedTimers []TimerData
}

// Store holds the pending future wake-ups for one step. Per-key handles
// stage their mutations locally and hand them to the store's batch buffer on
// persist; nothing becomes durable until Commit applies the whole batch, so
// an aborted batch can be rolled back with Discard even after some of its
// keys persisted.
type Store struct {
	mu      sync.Mutex
	active  map[string]TimerData
	set     map[string]TimerData
	deleted map[string]TimerData
	pending []timerOp
}

// NewInMemoryStore returns an empty in-memory timer store.
func NewInMemoryStore() *Store {
	return &Store{
		active:  make(map[string]TimerData),
		set:     make(map[string]TimerData),
		deleted: make(map[string]TimerData),
	}
}

// Commit applies all persisted-but-uncommitted mutations of the current
// batch. The applied additions and cancellations become part of the next
// Delta.
func (s *Store) Commit() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, op := range s.pending {
		id := op.timer.ID()
		if op.cancel {
			delete(s.active, id)
			delete(s.set, id)
			s.deleted[id] = op.timer
		} else {
			s.active[id] = op.timer
			s.set[id] = op.timer
			delete(s.deleted, id)
		}
	}
	s.pending = nil
}

// Discard drops all persisted-but-uncommitted mutations without applying
// them. Called when the batch that produced them aborts.
func (s *Store) Discard() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = nil
}

// KeyStore returns a staging handle scoped to the given key. The handle must
// only be used by the evaluation that currently owns the key.
func (s *Store) KeyStore(key string) *KeyStore {
	return &KeyStore{store: s, key: key}
}

// Delta returns the additions and cancellations accumulated since the last
// call and resets the accumulation.
func (s *Store) Delta() Update {
	s.mu.Lock()
	defer s.mu.Unlock()

	var u Update
	for _, t := range s.set {
		u.SetTimers = append(u.SetTimers, t)
	}
	for _, t := range s.deleted {
		u.DeletedTimers = append(u.DeletedTimers, t)
	}
	s.set = make(map[string]TimerData)
	s.deleted = make(map[string]TimerData)
	return u
}

// Timers returns a snapshot of all currently scheduled timers.
func (s *Store) Timers() []TimerData {
	s.mu.Lock()
	defer s.mu.Unlock()

	timers := make([]TimerData, 0, len(s.active))
	for _, t := range s.active {
		timers = append(timers, t)
	}
	return timers
}

type timerOp struct {
	cancel bool
	timer  TimerData
}

// KeyStore is the write handle the grouping engine uses to schedule and
// cancel timers for one key. Mutations are buffered locally until Persist.
type KeyStore struct {
	store  *Store
	key    string
	staged []timerOp
}

// Set schedules the timer, overwriting any previously scheduled timer with
// the same (key, window, timestamp, domain) identity. A Set at a new
// timestamp schedules a second timer, it does not move the old one.
func (ks *KeyStore) Set(t TimerData) {
	t.Key = ks.key
	ks.staged = append(ks.staged, timerOp{timer: t})
}

// Cancel removes the timer with the same identity, if scheduled.
func (ks *KeyStore) Cancel(t TimerData) {
	t.Key = ks.key
	ks.staged = append(ks.staged, timerOp{cancel: true, timer: t})
}

// Persist hands the buffered mutations to the store's current batch. They
// stay invisible until the store commits the batch, so an aborted batch can
// still discard them. Persist must be called at most once per evaluation,
// after all elements and timers for the key have been processed.
func (ks *KeyStore) Persist() error {
	ks.store.mu.Lock()
	defer ks.store.mu.Unlock()

	ks.store.pending = append(ks.store.pending, ks.staged...)
	ks.staged = nil
	return nil
}
