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

package interp

import (
	"errors"
	"testing"

	"github.com/llm-d-incubation/frame-interpolation/internal/shared/frame"
)

func TestResultFailed(t *testing.T) {
	out, _ := frame.New(2, 2, 3)

	tests := []struct {
		name string
		task Task
		want bool
	}{
		{name: "frame present", task: Task{ID: 1, Output: out}, want: false},
		{name: "error present", task: Task{ID: 2, Err: errors.New("boom")}, want: true},
		{name: "nothing written", task: Task{ID: 3}, want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := tt.task.Result()
			if r.ID != tt.task.ID {
				t.Errorf("expected id %d, got %d", tt.task.ID, r.ID)
			}
			if r.Failed() != tt.want {
				t.Errorf("expected Failed()=%v, got %v", tt.want, r.Failed())
			}
		})
	}
}

func TestInferenceFailureUnwrap(t *testing.T) {
	cause := errors.New("engine exploded")
	err := error(&InferenceFailure{TaskID: 7, Device: "gpu0", Err: cause})

	if !errors.Is(err, cause) {
		t.Errorf("expected failure to wrap its cause")
	}
	var failure *InferenceFailure
	if !errors.As(err, &failure) || failure.TaskID != 7 {
		t.Errorf("expected errors.As to recover the task id")
	}
}

func TestTaskStateString(t *testing.T) {
	for state, want := range map[TaskState]string{
		Queued:        "queued",
		Processing:    "processing",
		Completed:     "completed",
		Failed:        "failed",
		TaskState(42): "unknown",
	} {
		if got := state.String(); got != want {
			t.Errorf("state %d: got %q, want %q", state, got, want)
		}
	}
}
