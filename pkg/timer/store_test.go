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
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/streamloom/streamloom/pkg/window"
)

var testWindow = window.NewIntervalWindow(time.UnixMilli(0), time.UnixMilli(10000))

func TestKeyStore_SetIsStagedUntilCommit(t *testing.T) {
	store := NewInMemoryStore()
	ks := store.KeyStore("k1")

	ks.Set(TimerData{Window: testWindow, Timestamp: time.UnixMilli(10000), Domain: EventTime})

	// nothing is visible before persist
	assert.Empty(t, store.Timers())
	assert.Empty(t, store.Delta().SetTimers)

	require.NoError(t, ks.Persist())

	// persisted but still batch-local until the store commits
	assert.Empty(t, store.Timers())
	assert.Empty(t, store.Delta().SetTimers)

	store.Commit()

	timers := store.Timers()
	require.Len(t, timers, 1)
	assert.Equal(t, "k1", timers[0].Key)

	delta := store.Delta()
	require.Len(t, delta.SetTimers, 1)
	assert.Empty(t, delta.DeletedTimers)

	// delta is an accumulation since the previous call
	assert.Empty(t, store.Delta().SetTimers)
}

func TestKeyStore_SetOverwrites(t *testing.T) {
	store := NewInMemoryStore()
	ks := store.KeyStore("k1")

	td := TimerData{Window: testWindow, Timestamp: time.UnixMilli(10000), Domain: EventTime}
	ks.Set(td)
	ks.Set(td)
	require.NoError(t, ks.Persist())
	store.Commit()

	assert.Len(t, store.Timers(), 1)
	assert.Len(t, store.Delta().SetTimers, 1)
}

func TestKeyStore_Cancel(t *testing.T) {
	store := NewInMemoryStore()
	ks := store.KeyStore("k1")

	td := TimerData{Window: testWindow, Timestamp: time.UnixMilli(10000), Domain: EventTime}
	ks.Set(td)
	require.NoError(t, ks.Persist())
	store.Commit()
	require.Len(t, store.Timers(), 1)
	store.Delta()

	ks2 := store.KeyStore("k1")
	ks2.Cancel(td)
	require.NoError(t, ks2.Persist())
	store.Commit()

	assert.Empty(t, store.Timers())
	delta := store.Delta()
	assert.Empty(t, delta.SetTimers)
	require.Len(t, delta.DeletedTimers, 1)
}

func TestKeyStore_KeysAreIndependent(t *testing.T) {
	store := NewInMemoryStore()

	ks1 := store.KeyStore("k1")
	ks2 := store.KeyStore("k2")
	ks1.Set(TimerData{Window: testWindow, Timestamp: time.UnixMilli(10000), Domain: EventTime})
	ks2.Set(TimerData{Window: testWindow, Timestamp: time.UnixMilli(10000), Domain: EventTime})
	require.NoError(t, ks1.Persist())
	require.NoError(t, ks2.Persist())
	store.Commit()

	assert.Len(t, store.Timers(), 2)
}

func TestStore_DiscardDropsPersistedBatch(t *testing.T) {
	store := NewInMemoryStore()

	ks := store.KeyStore("k1")
	ks.Set(TimerData{Window: testWindow, Timestamp: time.UnixMilli(10000), Domain: EventTime})
	require.NoError(t, ks.Persist())

	// the batch aborts before commit, its timer ops must vanish
	store.Discard()
	store.Commit()

	assert.Empty(t, store.Timers())
	delta := store.Delta()
	assert.Empty(t, delta.SetTimers)
	assert.Empty(t, delta.DeletedTimers)
}

func TestTimerData_ID(t *testing.T) {
	a := TimerData{Key: "k1", Window: testWindow, Timestamp: time.UnixMilli(10000), Domain: EventTime}
	b := TimerData{Key: "k1", Window: testWindow, Timestamp: time.UnixMilli(10000), Domain: EventTime}
	assert.Equal(t, a.ID(), b.ID())

	// timestamp and domain are part of the identity
	c := TimerData{Key: "k1", Window: testWindow, Timestamp: time.UnixMilli(15000), Domain: EventTime}
	assert.NotEqual(t, a.ID(), c.ID())
	d := TimerData{Key: "k1", Window: testWindow, Timestamp: time.UnixMilli(10000), Domain: ProcessingTime}
	assert.NotEqual(t, a.ID(), d.ID())
}
