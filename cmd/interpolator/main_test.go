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

package main

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/llm-d-incubation/frame-interpolation/internal/adapters/nvml"
	"github.com/llm-d-incubation/frame-interpolation/internal/engine/blend"
	"github.com/llm-d-incubation/frame-interpolation/internal/files_store/fs"
	"github.com/llm-d-incubation/frame-interpolation/internal/processor/config"
	"github.com/llm-d-incubation/frame-interpolation/internal/session"
	"github.com/llm-d-incubation/frame-interpolation/internal/shared/frame"
)

func solid(t *testing.T, value byte) *frame.Frame {
	t.Helper()
	f, err := frame.New(3, 2, frame.RGBChannels)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i := range f.Data {
		f.Data[i] = value
	}
	return f
}

func TestInterpolateSequence(t *testing.T) {
	ctx := context.Background()
	sess, err := session.New(ctx, session.Options{QueueCapacity: 1}, nvml.NewMockProvider(2), blend.NewFactory())
	if err != nil {
		t.Fatalf("unexpected session error: %v", err)
	}
	defer sess.Shutdown(ctx)

	out := t.TempDir()
	store, err := fs.New(out)
	if err != nil {
		t.Fatalf("unexpected store error: %v", err)
	}
	frames := []*frame.Frame{solid(t, 0), solid(t, 100), solid(t, 200)}
	if err := interpolateSequence(ctx, sess, frames, 4, store); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// 0, 25, 50, 75, 100, 125, 150, 175, 200
	for i := 0; i < 9; i++ {
		f, err := fs.LoadFile(filepath.Join(out, fmt.Sprintf("frame_%05d.png", i)))
		if err != nil {
			t.Fatalf("frame %d: %v", i, err)
		}
		if want := byte(i * 25); f.Data[0] != want {
			t.Errorf("frame %d has value %d, want %d", i, f.Data[0], want)
		}
	}
}

func TestNewFactory(t *testing.T) {
	cfg := config.NewConfig()
	if _, err := newFactory(cfg); err != nil {
		t.Errorf("unexpected error for the blend engine: %v", err)
	}

	cfg.Engine = config.EngineRemote
	if _, err := newFactory(cfg); err == nil {
		t.Errorf("expected an error for a remote engine without url")
	}
	cfg.Remote.BaseURL = "http://localhost:8000"
	if _, err := newFactory(cfg); err != nil {
		t.Errorf("unexpected error for the remote engine: %v", err)
	}
}

func TestNewStatusStoreWithoutRedis(t *testing.T) {
	store, closeStore, err := newStatusStore(context.Background(), config.NewConfig(), "s")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer closeStore()
	if store == nil {
		t.Errorf("expected a no-op store")
	}
}
