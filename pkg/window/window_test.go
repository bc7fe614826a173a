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

package window

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestIntervalWindow_MaxTimestamp(t *testing.T) {
	iw := NewIntervalWindow(time.UnixMilli(60000), time.UnixMilli(120000))
	assert.Equal(t, time.UnixMilli(120000), iw.MaxTimestamp())
}

func TestIntervalWindow_Equals(t *testing.T) {
	tests := []struct {
		name string
		a    IntervalWindow
		b    IntervalWindow
		want bool
	}{
		{
			name: "same_interval",
			a:    NewIntervalWindow(time.UnixMilli(0), time.UnixMilli(1000)),
			b:    NewIntervalWindow(time.UnixMilli(0), time.UnixMilli(1000)),
			want: true,
		},
		{
			name: "different_end",
			a:    NewIntervalWindow(time.UnixMilli(0), time.UnixMilli(1000)),
			b:    NewIntervalWindow(time.UnixMilli(0), time.UnixMilli(2000)),
			want: false,
		},
		{
			name: "different_start",
			a:    NewIntervalWindow(time.UnixMilli(0), time.UnixMilli(1000)),
			b:    NewIntervalWindow(time.UnixMilli(500), time.UnixMilli(1000)),
			want: false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.a.Equals(tt.b))
			assert.Equal(t, tt.want, tt.a.ID() == tt.b.ID())
		})
	}
}

func TestStrategy_GCTime(t *testing.T) {
	iw := NewIntervalWindow(time.UnixMilli(0), time.UnixMilli(10000))

	s := Strategy{AllowedLateness: 0}
	assert.Equal(t, time.UnixMilli(10000), s.GCTime(iw))

	s = Strategy{AllowedLateness: 5 * time.Second}
	assert.Equal(t, time.UnixMilli(15000), s.GCTime(iw))
}

func TestNoFiringPane(t *testing.T) {
	pane := NoFiringPane()
	assert.True(t, pane.IsFirst)
	assert.True(t, pane.IsLast)
	assert.Equal(t, int64(0), pane.Index)
	assert.Equal(t, PaneUnknown, pane.Timing)
}

func TestPaneTiming_String(t *testing.T) {
	assert.Equal(t, "EARLY", PaneEarly.String())
	assert.Equal(t, "ON_TIME", PaneOnTime.String())
	assert.Equal(t, "LATE", PaneLate.String())
	assert.Equal(t, "UNKNOWN", PaneUnknown.String())
}
