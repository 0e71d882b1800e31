//go:build !nonvml
// +build !nonvml

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

	"github.com/NVIDIA/go-nvml/pkg/nvml"

	"github.com/llm-d-incubation/frame-interpolation/internal/device"
)

// DefaultQueuesPerAccelerator is the compute queue count assumed for a GPU in
// the default (shared) compute mode.
const DefaultQueuesPerAccelerator = 8

// NVMLProvider is the hardware context backed by the NVIDIA management library.
type NVMLProvider struct {
	queuesPerDevice int
}

func NewNVMLProvider(queuesPerDevice int) *NVMLProvider {
	if queuesPerDevice < 1 {
		queuesPerDevice = DefaultQueuesPerAccelerator
	}
	return &NVMLProvider{queuesPerDevice: queuesPerDevice}
}

func (p *NVMLProvider) Init() error {
	ret := nvml.Init()
	if ret != nvml.SUCCESS {
		return fmt.Errorf("NVML init failed: %v", nvml.ErrorString(ret))
	}
	return nil
}

func (p *NVMLProvider) Shutdown() error {
	ret := nvml.Shutdown()
	if ret != nvml.SUCCESS {
		return fmt.Errorf("NVML shutdown failed: %v", nvml.ErrorString(ret))
	}
	return nil
}

func (p *NVMLProvider) AcceleratorCount() (int, error) {
	count, ret := nvml.DeviceGetCount()
	if ret != nvml.SUCCESS {
		return 0, fmt.Errorf("failed to get device count: %v", nvml.ErrorString(ret))
	}
	return count, nil
}

// ComputeQueueCount maps the device compute mode to a queue capacity. Exclusive
// modes admit a single context, prohibited mode admits none.
func (p *NVMLProvider) ComputeQueueCount(index int) (int, error) {
	dev, ret := nvml.DeviceGetHandleByIndex(index)
	if ret != nvml.SUCCESS {
		return 0, fmt.Errorf("failed to get device %d: %v", index, nvml.ErrorString(ret))
	}
	mode, ret := dev.GetComputeMode()
	if ret != nvml.SUCCESS {
		return 0, fmt.Errorf("failed to get compute mode of device %d: %v", index, nvml.ErrorString(ret))
	}
	return queuesForMode(mode, p.queuesPerDevice), nil
}

func queuesForMode(mode nvml.ComputeMode, shared int) int {
	switch mode {
	case nvml.COMPUTEMODE_PROHIBITED:
		return 0
	case nvml.COMPUTEMODE_EXCLUSIVE_THREAD, nvml.COMPUTEMODE_EXCLUSIVE_PROCESS:
		return 1
	default:
		return shared
	}
}

func (p *NVMLProvider) AcceleratorName(index int) (string, error) {
	dev, ret := nvml.DeviceGetHandleByIndex(index)
	if ret != nvml.SUCCESS {
		return "", fmt.Errorf("failed to get device %d: %v", index, nvml.ErrorString(ret))
	}
	name, ret := dev.GetName()
	if ret != nvml.SUCCESS {
		return "", fmt.Errorf("failed to get name of device %d: %v", index, nvml.ErrorString(ret))
	}
	return name, nil
}

func (p *NVMLProvider) CPUCount() int {
	return device.AvailableCPUs()
}

// Compile-time interface check
var _ device.HardwareContext = (*NVMLProvider)(nil)
