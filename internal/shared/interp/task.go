/*
Copyright 2026 The llm-d Authors

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

// The file defines the unit of interpolation work and its result.
package interp

import (
	"fmt"
	"strconv"

	"github.com/llm-d-incubation/frame-interpolation/internal/device"
	"github.com/llm-d-incubation/frame-interpolation/internal/shared/frame"
)

// TaskID correlates a submitted frame pair with its interpolated output.
type TaskID int64

func (id TaskID) String() string {
	return strconv.FormatInt(int64(id), 10)
}

// Task is one frame pair to interpolate. Output stays nil until a worker fills
// it; a failed task carries Err instead.
type Task struct {
	ID       TaskID
	Timestep float32 // position of the output between Frame0 (0) and Frame1 (1)
	Frame0   *frame.Frame
	Frame1   *frame.Frame

	Output *frame.Frame
	Err    error
	Device device.Device // device that processed the task
}

// Result is what a caller retrieves for a completed task.
type Result struct {
	ID     TaskID
	Frame  *frame.Frame
	Err    error
	Device device.Device
}

// Failed reports whether the task produced no frame.
func (r Result) Failed() bool {
	return r.Err != nil || r.Frame == nil
}

// Result converts a completed task to the caller-facing form.
func (t *Task) Result() Result {
	return Result{ID: t.ID, Frame: t.Output, Err: t.Err, Device: t.Device}
}

// InferenceFailure marks a task whose inference call did not produce a usable frame.
type InferenceFailure struct {
	TaskID TaskID
	Device string
	Err    error
}

func (e *InferenceFailure) Error() string {
	return fmt.Sprintf("task %s failed on %s: %v", e.TaskID, e.Device, e.Err)
}

func (e *InferenceFailure) Unwrap() error {
	return e.Err
}

// TaskState is the lifecycle position of a task as seen by status observers.
type TaskState int

const (
	Queued TaskState = iota
	Processing
	Completed
	Failed
)

func (s TaskState) String() string {
	switch s {
	case Queued:
		return "queued"
	case Processing:
		return "processing"
	case Completed:
		return "completed"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}
