//go:build !nonvml

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
	"testing"

	"github.com/NVIDIA/go-nvml/pkg/nvml"
	"github.com/stretchr/testify/assert"
)

func TestQueuesForMode(t *testing.T) {
	assert.Equal(t, 8, queuesForMode(nvml.COMPUTEMODE_DEFAULT, 8))
	assert.Equal(t, 1, queuesForMode(nvml.COMPUTEMODE_EXCLUSIVE_THREAD, 8))
	assert.Equal(t, 1, queuesForMode(nvml.COMPUTEMODE_EXCLUSIVE_PROCESS, 8))
	assert.Equal(t, 0, queuesForMode(nvml.COMPUTEMODE_PROHIBITED, 8))
}

func TestNewNVMLProvider_DefaultsQueueCount(t *testing.T) {
	p := NewNVMLProvider(0)

	assert.Equal(t, DefaultQueuesPerAccelerator, p.queuesPerDevice)
}
