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

package reduce

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/streamloom/streamloom/pkg/metrics"
)

// droppedDueToLateness counts (element, window) pairs discarded because the
// window's max timestamp plus the allowed lateness fell behind the input
// watermark.
var droppedDueToLateness = promauto.NewCounterVec(prometheus.CounterOpts{
	Subsystem: "grouping",
	Name:      "dropped_due_to_lateness_total",
	Help:      "Total number of elements dropped because their window expired behind the input watermark",
}, []string{metrics.LabelPipeline, metrics.LabelStep})

// droppedDueToClosedWindow counts elements and timers that targeted a window
// whose state was already closed or garbage-collected.
var droppedDueToClosedWindow = promauto.NewCounterVec(prometheus.CounterOpts{
	Subsystem: "grouping",
	Name:      "dropped_due_to_closed_window_total",
	Help:      "Total number of elements and timers dropped because their window was already closed",
}, []string{metrics.LabelPipeline, metrics.LabelStep})
