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

// The interpolator's configuration definitions.

package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	EngineBlend  = "blend"
	EngineRemote = "remote"
)

type InterpolatorConfig struct {
	ModelPath   string `json:"model_path" yaml:"model_path" mapstructure:"model_path"`
	TTAMode     bool   `json:"tta_mode" yaml:"tta_mode" mapstructure:"tta_mode"`
	HighResMode bool   `json:"high_res_mode" yaml:"high_res_mode" mapstructure:"high_res_mode"`

	// Devices lists accelerator indices, -1 for the CPU.
	Devices              []int `json:"devices" yaml:"devices" mapstructure:"devices"`
	AutoDevices          bool  `json:"auto_devices" yaml:"auto_devices" mapstructure:"auto_devices"`
	JobSlotsPerDevice    int   `json:"job_slots_per_device" yaml:"job_slots_per_device" mapstructure:"job_slots_per_device"`
	QueueCapacity        int   `json:"queue_capacity" yaml:"queue_capacity" mapstructure:"queue_capacity"`
	QueuesPerAccelerator int   `json:"queues_per_accelerator" yaml:"queues_per_accelerator" mapstructure:"queues_per_accelerator"`

	Engine string       `json:"engine" yaml:"engine" mapstructure:"engine"`
	Remote RemoteConfig `json:"remote" yaml:"remote" mapstructure:"remote"`
	Status StatusConfig `json:"status" yaml:"status" mapstructure:"status"`

	MetricsAddress  string        `json:"metrics_address" yaml:"metrics_address" mapstructure:"metrics_address"`
	ShutdownTimeout time.Duration `json:"shutdown_timeout" yaml:"shutdown_timeout" mapstructure:"shutdown_timeout"`
	// Timesteps is the number of intervals between two input frames.
	Timesteps int `json:"timesteps" yaml:"timesteps" mapstructure:"timesteps"`
}

// RemoteConfig configures the HTTP inference engine.
type RemoteConfig struct {
	BaseURL    string        `json:"base_url" yaml:"base_url" mapstructure:"base_url"`
	Timeout    time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`
	MaxRetries int           `json:"max_retries" yaml:"max_retries" mapstructure:"max_retries"`
	APIKey     string        `json:"api_key" yaml:"api_key" mapstructure:"api_key"`

	TLSInsecureSkipVerify bool   `json:"tls_insecure_skip_verify" yaml:"tls_insecure_skip_verify" mapstructure:"tls_insecure_skip_verify"`
	TLSCACertFile         string `json:"tls_ca_cert_file" yaml:"tls_ca_cert_file" mapstructure:"tls_ca_cert_file"`
	TLSClientCertFile     string `json:"tls_client_cert_file" yaml:"tls_client_cert_file" mapstructure:"tls_client_cert_file"`
	TLSClientKeyFile      string `json:"tls_client_key_file" yaml:"tls_client_key_file" mapstructure:"tls_client_key_file"`
}

// StatusConfig configures task status tracking. Tracking is off without a redis url.
type StatusConfig struct {
	RedisURL  string        `json:"redis_url" yaml:"redis_url" mapstructure:"redis_url"`
	DBIndex   int           `json:"db_index" yaml:"db_index" mapstructure:"db_index"`
	Timeout   time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`
	TTL       time.Duration `json:"ttl" yaml:"ttl" mapstructure:"ttl"`
	KeyPrefix string        `json:"key_prefix" yaml:"key_prefix" mapstructure:"key_prefix"`

	EnableTLS             bool   `json:"enable_tls" yaml:"enable_tls" mapstructure:"enable_tls"`
	TLSInsecureSkipVerify bool   `json:"tls_insecure_skip_verify" yaml:"tls_insecure_skip_verify" mapstructure:"tls_insecure_skip_verify"`
	TLSCACertFile         string `json:"tls_ca_cert_file" yaml:"tls_ca_cert_file" mapstructure:"tls_ca_cert_file"`
	TLSClientCertFile     string `json:"tls_client_cert_file" yaml:"tls_client_cert_file" mapstructure:"tls_client_cert_file"`
	TLSClientKeyFile      string `json:"tls_client_key_file" yaml:"tls_client_key_file" mapstructure:"tls_client_key_file"`
}

// LoadFromYaml loads the configuration from a YAML file.
func (c *InterpolatorConfig) LoadFromYAML(filePath string) error {
	file, err := os.Open(filePath)
	if err != nil {
		return err
	}
	defer file.Close()

	decoder := yaml.NewDecoder(file)
	if err := decoder.Decode(c); err != nil {
		return err
	}
	return nil
}

// Validate checks value ranges. It does not touch the file system or hardware.
func (c *InterpolatorConfig) Validate() error {
	var errs []error
	if c.JobSlotsPerDevice < 1 {
		errs = append(errs, fmt.Errorf("job_slots_per_device must be positive, got %d", c.JobSlotsPerDevice))
	}
	if c.QueueCapacity < 1 {
		errs = append(errs, fmt.Errorf("queue_capacity must be positive, got %d", c.QueueCapacity))
	}
	if c.QueuesPerAccelerator < 1 {
		errs = append(errs, fmt.Errorf("queues_per_accelerator must be positive, got %d", c.QueuesPerAccelerator))
	}
	for _, d := range c.Devices {
		if d < -1 {
			errs = append(errs, fmt.Errorf("invalid device index %d", d))
		}
	}
	if c.AutoDevices && len(c.Devices) > 0 {
		errs = append(errs, errors.New("devices and auto_devices are mutually exclusive"))
	}
	switch c.Engine {
	case EngineBlend:
	case EngineRemote:
		if c.Remote.BaseURL == "" {
			errs = append(errs, errors.New("remote.base_url is required for the remote engine"))
		}
		if c.Remote.MaxRetries < 0 {
			errs = append(errs, fmt.Errorf("remote.max_retries must not be negative, got %d", c.Remote.MaxRetries))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown engine %q", c.Engine))
	}
	if c.Status.DBIndex < 0 {
		errs = append(errs, fmt.Errorf("status.db_index must not be negative, got %d", c.Status.DBIndex))
	}
	if c.Timesteps < 2 {
		errs = append(errs, fmt.Errorf("timesteps must be at least 2, got %d", c.Timesteps))
	}
	if c.ShutdownTimeout <= 0 {
		errs = append(errs, fmt.Errorf("shutdown_timeout must be positive, got %s", c.ShutdownTimeout))
	}
	return errors.Join(errs...)
}

// NewConfig returns a new InterpolatorConfig with default values.
func NewConfig() *InterpolatorConfig {
	return &InterpolatorConfig{
		ModelPath:            "",
		Devices:              []int{-1},
		JobSlotsPerDevice:    2,
		QueueCapacity:        8,
		QueuesPerAccelerator: 8,
		Engine:               EngineBlend,
		Remote: RemoteConfig{
			Timeout:    30 * time.Second,
			MaxRetries: 3,
		},
		Status: StatusConfig{
			Timeout:   5 * time.Second,
			TTL:       10 * time.Minute,
			KeyPrefix: "interp:",
		},
		MetricsAddress:  ":9090",
		ShutdownTimeout: 30 * time.Second,
		Timesteps:       2,
	}
}
