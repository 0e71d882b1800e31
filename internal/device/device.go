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

// Package device enumerates compute devices and decides how many concurrent job
// slots each one can host.
package device

import (
	"fmt"
)

// CPUIndex is the requested index that selects the CPU instead of an accelerator.
const CPUIndex = -1

// DefaultJobSlots is the per-device job slot count used when none is configured.
const DefaultJobSlots = 2

type Kind int

const (
	KindCPU Kind = iota
	KindAccelerator
)

func (k Kind) String() string {
	switch k {
	case KindCPU:
		return "cpu"
	case KindAccelerator:
		return "accelerator"
	default:
		return "unknown"
	}
}

// Device is one compute resource selected for the session. Devices are
// discovered once at session start and never change afterwards.
type Device struct {
	Kind     Kind
	Index    int // accelerator ordinal, CPUIndex for the CPU
	JobSlots int
	Name     string
}

// IsCPU reports whether the device is the synthetic CPU device.
func (d Device) IsCPU() bool {
	return d.Kind == KindCPU
}

// Label is a short stable identifier used for logs and metric labels.
func (d Device) Label() string {
	if d.IsCPU() {
		return "cpu"
	}
	return fmt.Sprintf("gpu%d", d.Index)
}

func (d Device) String() string {
	if d.Name == "" {
		return fmt.Sprintf("%s(slots=%d)", d.Label(), d.JobSlots)
	}
	return fmt.Sprintf("%s[%s](slots=%d)", d.Label(), d.Name, d.JobSlots)
}
