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
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/streamloom/streamloom/pkg/window"
)

func TestWindowedValue_Explode(t *testing.T) {
	windows := []window.IntervalWindow{
		window.NewIntervalWindow(time.UnixMilli(0), time.UnixMilli(10)),
		window.NewIntervalWindow(time.UnixMilli(10), time.UnixMilli(20)),
		window.NewIntervalWindow(time.UnixMilli(5), time.UnixMilli(15)),
	}
	wv := NewWindowedValue([]byte("v"), time.UnixMilli(7), windows)

	exploded := wv.Explode()
	assert.Len(t, exploded, len(windows))
	for i, single := range exploded {
		assert.Equal(t, []byte("v"), single.Value)
		assert.Equal(t, time.UnixMilli(7), single.Timestamp)
		assert.Len(t, single.Windows, 1)
		assert.True(t, windows[i].Equals(single.SingleWindow()))
		assert.Equal(t, wv.Pane, single.Pane)
	}
}

func TestWindowedValue_ExplodeSingleWindow(t *testing.T) {
	wv := NewWindowedValue([]byte("v"), time.UnixMilli(7), []window.IntervalWindow{
		window.NewIntervalWindow(time.UnixMilli(0), time.UnixMilli(10)),
	})
	exploded := wv.Explode()
	assert.Len(t, exploded, 1)
	assert.Same(t, wv, exploded[0])
}
