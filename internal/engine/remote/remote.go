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

// Package remote drives an out-of-process inference server over HTTP. Each
// engine instance owns one server-side engine bound to a device.
package remote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"k8s.io/klog/v2"

	"github.com/llm-d-incubation/frame-interpolation/internal/device"
	"github.com/llm-d-incubation/frame-interpolation/internal/engine"
	"github.com/llm-d-incubation/frame-interpolation/internal/shared/frame"
	"github.com/llm-d-incubation/frame-interpolation/internal/util/logging"
	utls "github.com/llm-d-incubation/frame-interpolation/internal/util/tls"
)

const (
	LoadPath        = "/v1/engines"
	InterpolatePath = "/v1/engines/{engine_id}/interpolate"
	EnginePath      = "/v1/engines/{engine_id}"

	HeaderRequestID = "X-Request-ID"
	HeaderWidth     = "X-Frame-Width"
	HeaderHeight    = "X-Frame-Height"
	HeaderChannels  = "X-Frame-Channels"
	HeaderTimestep  = "X-Timestep"
)

// Config holds configuration for the remote engine client
type Config struct {
	BaseURL string        // Base URL of the inference server (e.g., "http://localhost:8000")
	Timeout time.Duration // Per request timeout (default: 2 minutes)
	APIKey  string        // Optional API key for authentication

	// TLS configuration (optional)
	TLSInsecureSkipVerify bool
	TLSCACertFile         string
	TLSClientCertFile     string
	TLSClientKeyFile      string

	// Load retries while the server is starting (default: 5 attempts)
	MaxRetries     int
	InitialBackoff time.Duration // default: 500ms
	MaxBackoff     time.Duration // default: 10s
}

type loadRequest struct {
	Model   string `json:"model"`
	Device  int    `json:"device"`
	TTA     bool   `json:"tta"`
	HighRes bool   `json:"high_res"`
	Threads int    `json:"threads"`
	Variant string `json:"variant"`
}

type loadResponse struct {
	EngineID string `json:"engine_id"`
}

type errorResponse struct {
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

// Engine is one server-side engine instance.
type Engine struct {
	client   *resty.Client
	cfg      Config
	dev      device.Device
	opts     engine.Options
	engineID string
}

// NewFactory returns a factory whose engines share one HTTP client.
func NewFactory(cfg Config) (engine.Factory, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("remote engine requires a base url")
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 2 * time.Minute
	}
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = 5
	}
	if cfg.InitialBackoff == 0 {
		cfg.InitialBackoff = 500 * time.Millisecond
	}
	if cfg.MaxBackoff == 0 {
		cfg.MaxBackoff = 10 * time.Second
	}

	client := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(cfg.Timeout)
	if cfg.APIKey != "" {
		client.SetAuthToken(cfg.APIKey)
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	tlsConfig, err := utls.ClientConfig(cfg.TLSInsecureSkipVerify, utls.ClientFiles{
		CertFile:   cfg.TLSClientCertFile,
		KeyFile:    cfg.TLSClientKeyFile,
		CaCertFile: cfg.TLSCACertFile,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build TLS config: %w", err)
	}
	if tlsConfig != nil {
		transport.TLSClientConfig = tlsConfig
	}
	client.SetTransport(transport)

	return engine.FactoryFunc(func(ctx context.Context, dev device.Device, opts engine.Options) (engine.Engine, error) {
		return &Engine{client: client, cfg: cfg, dev: dev, opts: opts}, nil
	}), nil
}

// Load asks the server to create an engine on the device, retrying with
// exponential backoff while the server answers 5xx or is unreachable.
func (e *Engine) Load(ctx context.Context, modelPath string) error {
	logger := klog.FromContext(ctx).WithValues("device", e.dev.Label(), "model", modelPath)
	body := loadRequest{
		Model:   modelPath,
		Device:  e.dev.Index,
		TTA:     e.opts.TTA,
		HighRes: e.opts.HighRes,
		Threads: e.opts.Threads,
		Variant: e.opts.Variant.String(),
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = e.cfg.InitialBackoff
	policy.MaxInterval = e.cfg.MaxBackoff
	retry := backoff.WithContext(backoff.WithMaxRetries(policy, uint64(e.cfg.MaxRetries)), ctx)

	attempt := 0
	op := func() error {
		attempt++
		var out loadResponse
		resp, err := e.client.R().
			SetContext(ctx).
			SetHeader("Content-Type", "application/json").
			SetHeader(HeaderRequestID, uuid.NewString()).
			SetBody(body).
			SetResult(&out).
			Post(LoadPath)
		if err != nil {
			logger.V(logging.DEBUG).Info("Engine load attempt failed", "attempt", attempt, "err", err)
			return err
		}
		if resp.StatusCode() != http.StatusOK {
			err := statusError(resp)
			if !retryable(resp.StatusCode()) {
				return backoff.Permanent(err)
			}
			logger.V(logging.DEBUG).Info("Engine load attempt failed", "attempt", attempt, "status", resp.StatusCode())
			return err
		}
		if out.EngineID == "" {
			return backoff.Permanent(errors.New("server returned an empty engine id"))
		}
		e.engineID = out.EngineID
		return nil
	}
	if err := backoff.Retry(op, retry); err != nil {
		return err
	}
	logger.Info("Remote engine loaded", "engineID", e.engineID, "attempts", attempt)
	return nil
}

// Infer sends both frames as one octet stream and reads back the output frame.
// Inference is never retried.
func (e *Engine) Infer(ctx context.Context, frame0, frame1 *frame.Frame, timestep float32) (*frame.Frame, error) {
	if e.engineID == "" {
		return nil, fmt.Errorf("engine not loaded")
	}
	if !frame0.SameShape(frame1) {
		return nil, fmt.Errorf("frame shapes differ: %s vs %s", frame0, frame1)
	}
	payload := make([]byte, 0, len(frame0.Data)+len(frame1.Data))
	payload = append(payload, frame0.Data...)
	payload = append(payload, frame1.Data...)

	requestID := uuid.NewString()
	klog.FromContext(ctx).V(logging.TRACE).Info("Sending interpolation request", "requestID", requestID, "engineID", e.engineID, "shape", frame0.String())

	resp, err := e.client.R().
		SetContext(ctx).
		SetPathParam("engine_id", e.engineID).
		SetHeader("Content-Type", "application/octet-stream").
		SetHeader(HeaderRequestID, requestID).
		SetHeader(HeaderWidth, strconv.Itoa(frame0.Width)).
		SetHeader(HeaderHeight, strconv.Itoa(frame0.Height)).
		SetHeader(HeaderChannels, strconv.Itoa(frame0.Channels)).
		SetHeader(HeaderTimestep, strconv.FormatFloat(float64(timestep), 'f', -1, 32)).
		SetBody(payload).
		Post(InterpolatePath)
	if err != nil {
		return nil, fmt.Errorf("interpolation request failed: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, statusError(resp)
	}

	out := &frame.Frame{
		Width:    frame0.Width,
		Height:   frame0.Height,
		Channels: frame0.Channels,
		Data:     resp.Body(),
	}
	if err := out.Validate(); err != nil {
		return nil, fmt.Errorf("server returned a malformed frame: %w", err)
	}
	return out, nil
}

// ConcurrencySafe is true: each call is an independent HTTP request.
func (e *Engine) ConcurrencySafe() bool {
	return true
}

// Close releases the server-side engine.
func (e *Engine) Close() error {
	if e.engineID == "" {
		return nil
	}
	resp, err := e.client.R().
		SetPathParam("engine_id", e.engineID).
		Delete(EnginePath)
	e.engineID = ""
	if err != nil {
		return err
	}
	if resp.StatusCode() != http.StatusOK && resp.StatusCode() != http.StatusNotFound {
		return statusError(resp)
	}
	return nil
}

func retryable(statusCode int) bool {
	return statusCode == http.StatusTooManyRequests || statusCode >= 500
}

func statusError(resp *resty.Response) error {
	message := string(resp.Body())
	var parsed errorResponse
	if err := json.Unmarshal(resp.Body(), &parsed); err == nil && parsed.Error.Message != "" {
		message = parsed.Error.Message
	}
	return fmt.Errorf("HTTP %d: %s", resp.StatusCode(), message)
}
