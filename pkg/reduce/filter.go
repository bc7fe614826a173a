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
	"time"

	"go.uber.org/zap"

	"github.com/streamloom/streamloom/pkg/element"
)

// dropExpiredWindows explodes every element into one copy per window
// membership and drops the copies whose window has expired behind the input
// watermark. A copy is expired when the window's max timestamp plus the
// allowed lateness is strictly before the watermark, so a window landing
// exactly on the watermark is kept. Survivors preserve their relative order.
//
// This runs before any state mutation, a late element never perturbs trigger
// or buffer state.
func (ev *Evaluator) dropExpiredWindows(key string, elems []*element.WindowedValue, watermark time.Time) []*element.WindowedValue {
	kept := make([]*element.WindowedValue, 0, len(elems))
	for _, wv := range elems {
		for _, single := range wv.Explode() {
			w := single.SingleWindow()
			if w.MaxTimestamp().Add(ev.strategy.AllowedLateness).Before(watermark) {
				// the element is too late for this window
				ev.latenessCounter.Inc()
				ev.log.Debugw("Dropping element too far behind the input watermark",
					zap.String("key", key),
					zap.Time("eventTime", single.Timestamp),
					zap.String("window", w.String()),
					zap.Time("watermark", watermark))
				continue
			}
			kept = append(kept, single)
		}
	}
	return kept
}
