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

package device

// HardwareContext abstracts the process-wide accelerator enumeration handle.
// Init and Shutdown bracket every other call; the topology owns that bracket.
type HardwareContext interface {
	// Init acquires the global hardware context.
	Init() error
	// Shutdown releases the global hardware context.
	Shutdown() error
	// AcceleratorCount returns the number of accelerators visible to the process.
	AcceleratorCount() (int, error)
	// ComputeQueueCount returns how many compute queues the accelerator exposes.
	ComputeQueueCount(index int) (int, error)
	// AcceleratorName returns a human readable name for the accelerator.
	AcceleratorName(index int) (string, error)
	// CPUCount returns the number of CPU execution units available to the process.
	CPUCount() int
}
