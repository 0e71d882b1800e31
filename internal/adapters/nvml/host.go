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

// HostProvider is a hardware context without accelerators, used on hosts where
// NVML cannot be initialised.
type HostProvider struct{}

func NewHostProvider() *HostProvider {
	return &HostProvider{}
}

func (p *HostProvider) Init() error     { return nil }
func (p *HostProvider) Shutdown() error { return nil }

func (p *HostProvider) AcceleratorCount() (int, error) {
	return 0, nil
}

func (p *HostProvider) ComputeQueueCount(index int) (int, error) {
	return 0, fmt.Errorf("no accelerator %d on a host-only context", index)
}

func (p *HostProvider) AcceleratorName(index int) (string, error) {
	return "", fmt.Errorf("no accelerator %d on a host-only context", index)
}

func (p *HostProvider) CPUCount() int {
	return device.AvailableCPUs()
}

// Detect probes NVML and falls back to the host-only context when it is not usable.
// The probe context is released again; the topology acquires it for real later.
func Detect(queuesPerDevice int) (device.HardwareContext, error) {
	p := NewNVMLProvider(queuesPerDevice)
	if err := p.Init(); err != nil {
		return NewHostProvider(), err
	}
	_ = p.Shutdown()
	return p, nil
}

var _ device.HardwareContext = (*HostProvider)(nil)
