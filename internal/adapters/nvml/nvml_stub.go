//go:build nonvml
// +build nonvml

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

	"github.com/llm-d-incubation/frame-interpolation/internal/device"
)

const DefaultQueuesPerAccelerator = 8

// NVMLProvider stub - used when building without NVIDIA libraries
type NVMLProvider struct{}

func NewNVMLProvider(queuesPerDevice int) *NVMLProvider {
	return &NVMLProvider{}
}

func (p *NVMLProvider) Init() error {
	return fmt.Errorf("NVML not available (built with nonvml tag)")
}

func (p *NVMLProvider) Shutdown() error {
	return nil
}

func (p *NVMLProvider) AcceleratorCount() (int, error) {
	return 0, fmt.Errorf("NVML not available")
}

func (p *NVMLProvider) ComputeQueueCount(index int) (int, error) {
	return 0, fmt.Errorf("NVML not available")
}

func (p *NVMLProvider) AcceleratorName(index int) (string, error) {
	return "", fmt.Errorf("NVML not available")
}

func (p *NVMLProvider) CPUCount() int {
	return device.AvailableCPUs()
}

// Compile-time interface check
var _ device.HardwareContext = (*NVMLProvider)(nil)
