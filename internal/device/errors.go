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
)

// InvalidDeviceError is returned when a requested device cannot be used.
type InvalidDeviceError struct {
	Index  int
	Count  int // accelerator count reported by the hardware context
	Reason string
}

func (e *InvalidDeviceError) Error() string {
	reason := e.Reason
	if reason == "" {
		reason = fmt.Sprintf("out of range [%d, %d)", CPUIndex, e.Count)
	}
	return fmt.Sprintf("invalid device %d: %s", e.Index, reason)
}
