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

import (
	"fmt"
	"sync"
)

// Topology is the validated set of devices for one session. It owns the
// hardware context acquired during Build and releases it on Close.
type Topology struct {
	hw        HardwareContext
	devices   []Device
	totalJobs int

	closeOnce sync.Once
	closeErr  error
}

// Build acquires the hardware context, validates the requested device indices and
// derives the job slot count of every device. An empty request selects the CPU.
// On error no topology is returned and the hardware context is already released.
func Build(hw HardwareContext, requested []int, defaultJobSlots int) (*Topology, error) {
	return build(hw, defaultJobSlots, func() ([]int, error) {
		if len(requested) == 0 {
			return []int{CPUIndex}, nil
		}
		return requested, nil
	})
}

// BuildAuto is Build over every accelerator the hardware context reports, falling
// back to the CPU when there are none.
func BuildAuto(hw HardwareContext, defaultJobSlots int) (*Topology, error) {
	return build(hw, defaultJobSlots, func() ([]int, error) {
		return AutoSelect(hw)
	})
}

func build(hw HardwareContext, defaultJobSlots int, selectDevices func() ([]int, error)) (topo *Topology, err error) {
	if hw == nil {
		return nil, fmt.Errorf("hardware context is nil")
	}
	if defaultJobSlots < 1 {
		defaultJobSlots = DefaultJobSlots
	}

	if err := hw.Init(); err != nil {
		return nil, fmt.Errorf("failed to acquire hardware context: %w", err)
	}
	defer func() {
		if err != nil {
			_ = hw.Shutdown()
		}
	}()

	requested, err := selectDevices()
	if err != nil {
		return nil, fmt.Errorf("failed to select devices: %w", err)
	}
	accelerators, err := hw.AcceleratorCount()
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate accelerators: %w", err)
	}

	// validate every index before deriving slots so a bad request never
	// leaves a half-built device list behind
	seen := make(map[int]bool, len(requested))
	for _, idx := range requested {
		if idx < CPUIndex || idx >= accelerators {
			return nil, &InvalidDeviceError{Index: idx, Count: accelerators}
		}
		if seen[idx] {
			return nil, &InvalidDeviceError{Index: idx, Count: accelerators, Reason: "duplicate device"}
		}
		seen[idx] = true
	}

	devices := make([]Device, 0, len(requested))
	total := 0
	for _, idx := range requested {
		dev, err := describe(hw, idx, accelerators, defaultJobSlots)
		if err != nil {
			return nil, err
		}
		devices = append(devices, dev)
		total += dev.JobSlots
	}

	return &Topology{
		hw:        hw,
		devices:   devices,
		totalJobs: total,
	}, nil
}

func describe(hw HardwareContext, idx, accelerators, defaultJobSlots int) (Device, error) {
	if idx == CPUIndex {
		return Device{
			Kind:     KindCPU,
			Index:    CPUIndex,
			JobSlots: max(1, min(defaultJobSlots, hw.CPUCount())),
			Name:     "cpu",
		}, nil
	}

	queues, err := hw.ComputeQueueCount(idx)
	if err != nil {
		return Device{}, fmt.Errorf("failed to query compute queues of device %d: %w", idx, err)
	}
	if queues < 1 {
		return Device{}, &InvalidDeviceError{Index: idx, Count: accelerators, Reason: "no compute queues"}
	}
	name, err := hw.AcceleratorName(idx)
	if err != nil {
		name = ""
	}
	return Device{
		Kind:     KindAccelerator,
		Index:    idx,
		JobSlots: min(defaultJobSlots, queues),
		Name:     name,
	}, nil
}

// AutoSelect returns every accelerator index reported by the hardware context,
// or the CPU when there are none. The context must already be initialised.
func AutoSelect(hw HardwareContext) ([]int, error) {
	count, err := hw.AcceleratorCount()
	if err != nil {
		return nil, err
	}
	if count == 0 {
		return []int{CPUIndex}, nil
	}
	ids := make([]int, count)
	for i := range ids {
		ids[i] = i
	}
	return ids, nil
}

// Devices returns a copy of the selected devices in request order.
func (t *Topology) Devices() []Device {
	out := make([]Device, len(t.devices))
	copy(out, t.devices)
	return out
}

// DeviceCount is the number of selected devices. The CPU counts as one.
func (t *Topology) DeviceCount() int {
	return len(t.devices)
}

// TotalJobSlots is the sum of job slots over all devices.
func (t *Topology) TotalJobSlots() int {
	return t.totalJobs
}

// Close releases the hardware context. Only the first call has any effect.
func (t *Topology) Close() error {
	t.closeOnce.Do(func() {
		t.closeErr = t.hw.Shutdown()
	})
	return t.closeErr
}
