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

// This file defines the messages carried by the intake queue.
package worker

import (
	"github.com/llm-d-incubation/frame-interpolation/internal/shared/interp"
)

// Message is either a task to interpolate or a request for one worker to stop.
// Workers decide by type, so no task id is ever reserved for shutdown.
type Message interface {
	isMessage()
}

type workMessage struct {
	task *interp.Task
}

type shutdownMessage struct{}

func (workMessage) isMessage()     {}
func (shutdownMessage) isMessage() {}

// Work wraps a task for the intake queue.
func Work(task *interp.Task) Message {
	return workMessage{task: task}
}

// Shutdown returns the message that stops exactly one worker.
func Shutdown() Message {
	return shutdownMessage{}
}

// TaskOf returns the task carried by a work message.
func TaskOf(msg Message) (*interp.Task, bool) {
	w, ok := msg.(workMessage)
	return w.task, ok
}
