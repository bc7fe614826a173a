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

type options struct {
	pipelineName string
	stepName     string
	parallelism  int
}

// Option configures an Evaluator.
type Option func(*options)

func defaultOptions() *options {
	return &options{
		pipelineName: "default",
		stepName:     "windowed-grouping",
		parallelism:  1,
	}
}

// WithPipelineName sets the pipeline name used in metric labels.
func WithPipelineName(name string) Option {
	return func(o *options) {
		o.pipelineName = name
	}
}

// WithStepName sets the step name used in metric labels.
func WithStepName(name string) Option {
	return func(o *options) {
		o.stepName = name
	}
}

// WithParallelism bounds how many keys are evaluated concurrently within one
// batch. Keys touch disjoint state, so concurrent evaluation is safe as long
// as the input batch carries each key at most once, which the work-item
// builder guarantees. Defaults to 1 (fully sequential).
func WithParallelism(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.parallelism = n
		}
	}
}
