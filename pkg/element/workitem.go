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

package element

import (
	"fmt"
	"strconv"

	"github.com/spaolacci/murmur3"

	"github.com/streamloom/streamloom/pkg/timer"
)

// KeyedWorkItem is the unit of input to the evaluator: the elements newly
// arrived for one key plus the timers that have fired for that key. It is
// produced by the upstream key-partitioning stage and consumed exactly once
// per evaluation.
type KeyedWorkItem struct {
	// Key is the grouping key.
	Key string
	// Elements are the windowed values destined for the key.
	Elements []*WindowedValue
	// Timers are the fired timers for the key, in arrival order. Only the
	// ordering relative to elements is guaranteed (all elements are
	// processed first); ordering between timers is not.
	Timers []timer.TimerData
}

func (wi *KeyedWorkItem) String() string {
	return fmt.Sprintf("{key=%s elements=%d timers=%d}", wi.Key, len(wi.Elements), len(wi.Timers))
}

// Slot maps a key to one of slots hash-ranges. Keys in the same slot are
// dispatched to the same evaluator instance, which is how the caller
// guarantees that no two evaluations for the same key run concurrently.
// A slot count below two collapses to the single slot "0".
func Slot(key string, slots int) string {
	if slots <= 1 {
		return "0"
	}
	h := murmur3.Sum32([]byte(key))
	return strconv.Itoa(int(h % uint32(slots)))
}

// WorkItemBuilder groups a mixed batch of elements and fired timers into one
// KeyedWorkItem per key. Keys preserve the relative order of their own
// elements and timers; ordering between keys is unspecified.
type WorkItemBuilder struct {
	items map[string]*KeyedWorkItem
	order []string
}

// NewWorkItemBuilder returns an empty builder.
func NewWorkItemBuilder() *WorkItemBuilder {
	return &WorkItemBuilder{items: make(map[string]*KeyedWorkItem)}
}

func (b *WorkItemBuilder) item(key string) *KeyedWorkItem {
	wi, ok := b.items[key]
	if !ok {
		wi = &KeyedWorkItem{Key: key}
		b.items[key] = wi
		b.order = append(b.order, key)
	}
	return wi
}

// AddElement appends an element for the given key.
func (b *WorkItemBuilder) AddElement(key string, wv *WindowedValue) {
	wi := b.item(key)
	wi.Elements = append(wi.Elements, wv)
}

// AddTimer appends a fired timer for its key.
func (b *WorkItemBuilder) AddTimer(t timer.TimerData) {
	wi := b.item(t.Key)
	wi.Timers = append(wi.Timers, t)
}

// Build returns one work item per distinct key, in first-seen key order.
func (b *WorkItemBuilder) Build() []*KeyedWorkItem {
	items := make([]*KeyedWorkItem, 0, len(b.order))
	for _, key := range b.order {
		items = append(items, b.items[key])
	}
	return items
}
