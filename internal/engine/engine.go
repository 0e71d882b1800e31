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

// Package engine defines the inference collaborator the worker pool drives.
package engine

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/llm-d-incubation/frame-interpolation/internal/device"
	"github.com/llm-d-incubation/frame-interpolation/internal/shared/frame"
)

// Engine turns two frames and a timestep into one interpolated frame.
// One engine is created per device and shared by that device's job slots.
type Engine interface {
	// Load reads the model weights. It is called once before the first Infer.
	Load(ctx context.Context, modelPath string) error
	// Infer produces a frame with the same shape as its inputs.
	Infer(ctx context.Context, frame0, frame1 *frame.Frame, timestep float32) (*frame.Frame, error)
	// ConcurrencySafe reports whether Infer may be called from several job slots at once.
	ConcurrencySafe() bool
	Close() error
}

// Factory builds the engine bound to one device.
type Factory interface {
	NewEngine(ctx context.Context, dev device.Device, opts Options) (Engine, error)
}

// FactoryFunc adapts a function to Factory.
type FactoryFunc func(ctx context.Context, dev device.Device, opts Options) (Engine, error)

func (f FactoryFunc) NewEngine(ctx context.Context, dev device.Device, opts Options) (Engine, error) {
	return f(ctx, dev, opts)
}

// Variant distinguishes model generations that need different graph handling.
type Variant int

const (
	VariantV1 Variant = iota
	VariantV2
)

func (v Variant) String() string {
	if v == VariantV2 {
		return "v2"
	}
	return "v1"
}

// VariantFromPath picks the model variant from the model directory name.
func VariantFromPath(modelPath string) Variant {
	if strings.Contains(filepath.ToSlash(modelPath), "rife-v2") {
		return VariantV2
	}
	return VariantV1
}

// Options configures an engine instance.
type Options struct {
	ModelPath string
	TTA       bool // test-time augmentation
	HighRes   bool // high resolution (UHD) mode
	Threads   int  // concurrent callers the engine must support
	Variant   Variant
}

// NewOptions derives engine options for a device from the session settings.
func NewOptions(modelPath string, tta, highRes bool, dev device.Device) Options {
	return Options{
		ModelPath: modelPath,
		TTA:       tta,
		HighRes:   highRes,
		Threads:   max(1, dev.JobSlots),
		Variant:   VariantFromPath(modelPath),
	}
}

// LoadError is returned when an engine cannot be created or its model loaded.
type LoadError struct {
	Device    device.Device
	ModelPath string
	Err       error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("failed to load model %q on %s: %v", e.ModelPath, e.Device.Label(), e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}
