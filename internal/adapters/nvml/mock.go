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

package nvml

import (
	"fmt"
	"sync"

	"github.com/llm-d-incubation/frame-interpolation/internal/device"
)

// MockProvider provides fake accelerator data for testing.
// Queues holds the compute queue count of each accelerator.
type MockProvider struct {
	Queues  []int
	Names   []string
	CPUs    int
	InitErr error

	mu        sync.Mutex
	initCalls int
	shutdowns int
}

func NewMockProvider(cpus int, queues ...int) *MockProvider {
	return &MockProvider{CPUs: cpus, Queues: queues}
}

func (p *MockProvider) Init() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.InitErr != nil {
		return p.InitErr
	}
	p.initCalls++
	return nil
}

func (p *MockProvider) Shutdown() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.shutdowns++
	return nil
}

func (p *MockProvider) AcceleratorCount() (int, error) {
	return len(p.Queues), nil
}

func (p *MockProvider) ComputeQueueCount(index int) (int, error) {
	if index < 0 || index >= len(p.Queues) {
		return 0, fmt.Errorf("no accelerator %d", index)
	}
	return p.Queues[index], nil
}

func (p *MockProvider) AcceleratorName(index int) (string, error) {
	if index < len(p.Names) {
		return p.Names[index], nil
	}
	return fmt.Sprintf("Mock GPU %d", index), nil
}

func (p *MockProvider) CPUCount() int {
	return p.CPUs
}

// Acquired reports whether the context is currently held.
func (p *MockProvider) Acquired() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.initCalls > p.shutdowns
}

// Shutdowns returns how many times the context was released.
func (p *MockProvider) Shutdowns() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.shutdowns
}

// Compile-time interface check
var _ device.HardwareContext = (*MockProvider)(nil)
