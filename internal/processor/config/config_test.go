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

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

func TestDefaultsAreValid(t *testing.T) {
	if err := NewConfig().Validate(); err != nil {
		t.Fatalf("default config is invalid: %v", err)
	}
}

func TestLoadFromYAML(t *testing.T) {
	path := writeConfig(t, `
model_path: models/rife-v2.3
tta_mode: true
devices: [-1, 0, 1]
job_slots_per_device: 3
engine: remote
remote:
  base_url: http://localhost:8000
  timeout: 5s
status:
  redis_url: redis://localhost:6379/0
shutdown_timeout: 1m
timesteps: 4
`)

	cfg := NewConfig()
	if err := cfg.LoadFromYAML(path); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.ModelPath != "models/rife-v2.3" || !cfg.TTAMode || cfg.HighResMode {
		t.Errorf("model settings not loaded: %+v", cfg)
	}
	if len(cfg.Devices) != 3 || cfg.Devices[0] != -1 || cfg.Devices[2] != 1 {
		t.Errorf("unexpected devices %v", cfg.Devices)
	}
	if cfg.JobSlotsPerDevice != 3 {
		t.Errorf("expected 3 job slots, got %d", cfg.JobSlotsPerDevice)
	}
	if cfg.Remote.Timeout != 5*time.Second || cfg.Remote.MaxRetries != 3 {
		t.Errorf("unexpected remote config %+v", cfg.Remote)
	}
	if cfg.Status.TTL != 10*time.Minute || cfg.Status.KeyPrefix != "interp:" {
		t.Errorf("status defaults were lost: %+v", cfg.Status)
	}
	if cfg.ShutdownTimeout != time.Minute || cfg.Timesteps != 4 {
		t.Errorf("unexpected shutdown timeout %s or timesteps %d", cfg.ShutdownTimeout, cfg.Timesteps)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("loaded config is invalid: %v", err)
	}
}

func TestLoadFromYAMLErrors(t *testing.T) {
	cfg := NewConfig()
	if err := cfg.LoadFromYAML(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Errorf("expected an error for a missing file")
	}
	if err := cfg.LoadFromYAML(writeConfig(t, "devices: [a")); err == nil {
		t.Errorf("expected an error for malformed yaml")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *InterpolatorConfig)
		wantErr string
	}{
		{name: "zero job slots", mutate: func(c *InterpolatorConfig) { c.JobSlotsPerDevice = 0 }, wantErr: "job_slots_per_device"},
		{name: "zero capacity", mutate: func(c *InterpolatorConfig) { c.QueueCapacity = 0 }, wantErr: "queue_capacity"},
		{name: "zero accelerator queues", mutate: func(c *InterpolatorConfig) { c.QueuesPerAccelerator = 0 }, wantErr: "queues_per_accelerator"},
		{name: "bad device index", mutate: func(c *InterpolatorConfig) { c.Devices = []int{-2} }, wantErr: "device index"},
		{name: "auto with explicit devices", mutate: func(c *InterpolatorConfig) { c.AutoDevices = true }, wantErr: "mutually exclusive"},
		{name: "unknown engine", mutate: func(c *InterpolatorConfig) { c.Engine = "ncnn" }, wantErr: "unknown engine"},
		{name: "remote without url", mutate: func(c *InterpolatorConfig) { c.Engine = EngineRemote }, wantErr: "base_url"},
		{name: "negative redis db", mutate: func(c *InterpolatorConfig) { c.Status.DBIndex = -1 }, wantErr: "db_index"},
		{name: "single timestep", mutate: func(c *InterpolatorConfig) { c.Timesteps = 1 }, wantErr: "timesteps"},
		{name: "no shutdown timeout", mutate: func(c *InterpolatorConfig) { c.ShutdownTimeout = 0 }, wantErr: "shutdown_timeout"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatalf("expected an error containing %q", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not mention %q", err, tt.wantErr)
			}
		})
	}
}
