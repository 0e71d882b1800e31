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

// Package blend provides a reference CPU engine that cross-fades the two input
// frames. It has no model of its own and is used where no neural engine is
// available, e.g. smoke tests of the scheduling path.
package blend

import (
	"context"
	"fmt"
	"os"

	"k8s.io/klog/v2"

	"github.com/llm-d-incubation/frame-interpolation/internal/device"
	"github.com/llm-d-incubation/frame-interpolation/internal/engine"
	"github.com/llm-d-incubation/frame-interpolation/internal/shared/frame"
)

type Engine struct {
	dev    device.Device
	opts   engine.Options
	loaded bool
}

// NewFactory returns a factory building blend engines. The blend always runs on
// the host; an accelerator device only determines how many slots share it.
func NewFactory() engine.Factory {
	return engine.FactoryFunc(func(ctx context.Context, dev device.Device, opts engine.Options) (engine.Engine, error) {
		return &Engine{dev: dev, opts: opts}, nil
	})
}

// Load checks that the model path exists so configuration errors surface at startup.
func (e *Engine) Load(ctx context.Context, modelPath string) error {
	if modelPath != "" {
		if _, err := os.Stat(modelPath); err != nil {
			return err
		}
	}
	e.loaded = true
	klog.FromContext(ctx).Info("Blend engine ready", "device", e.dev.Label(), "model", modelPath, "variant", e.opts.Variant.String())
	return nil
}

func (e *Engine) Infer(ctx context.Context, frame0, frame1 *frame.Frame, timestep float32) (*frame.Frame, error) {
	if !e.loaded {
		return nil, fmt.Errorf("engine not loaded")
	}
	if err := frame0.Validate(); err != nil {
		return nil, fmt.Errorf("frame0: %w", err)
	}
	if err := frame1.Validate(); err != nil {
		return nil, fmt.Errorf("frame1: %w", err)
	}
	if !frame0.SameShape(frame1) {
		return nil, fmt.Errorf("frame shapes differ: %s vs %s", frame0, frame1)
	}

	out, err := frame.New(frame0.Width, frame0.Height, frame0.Channels)
	if err != nil {
		return nil, err
	}
	t := min(max(timestep, 0), 1)
	for i := range out.Data {
		v := (1-t)*float32(frame0.Data[i]) + t*float32(frame1.Data[i])
		out.Data[i] = uint8(v + 0.5)
	}
	return out, nil
}

// ConcurrencySafe is true: Infer keeps no state between calls.
func (e *Engine) ConcurrencySafe() bool {
	return true
}

func (e *Engine) Close() error {
	e.loaded = false
	return nil
}
