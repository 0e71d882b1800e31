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

// The entry point for the interpolator.

package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/coreos/go-systemd/v22/daemon"
	"github.com/google/uuid"
	"k8s.io/klog/v2"

	"github.com/llm-d-incubation/frame-interpolation/internal/adapters/nvml"
	"github.com/llm-d-incubation/frame-interpolation/internal/engine"
	"github.com/llm-d-incubation/frame-interpolation/internal/engine/blend"
	"github.com/llm-d-incubation/frame-interpolation/internal/engine/remote"
	"github.com/llm-d-incubation/frame-interpolation/internal/files_store/fs"
	"github.com/llm-d-incubation/frame-interpolation/internal/processor/config"
	"github.com/llm-d-incubation/frame-interpolation/internal/processor/health"
	"github.com/llm-d-incubation/frame-interpolation/internal/processor/metrics"
	"github.com/llm-d-incubation/frame-interpolation/internal/processor/status"
	"github.com/llm-d-incubation/frame-interpolation/internal/sequence"
	"github.com/llm-d-incubation/frame-interpolation/internal/session"
	"github.com/llm-d-incubation/frame-interpolation/internal/shared/frame"
	"github.com/llm-d-incubation/frame-interpolation/internal/util/logging"
	"github.com/llm-d-incubation/frame-interpolation/internal/util/redis"
	utls "github.com/llm-d-incubation/frame-interpolation/internal/util/tls"
)

func main() {
	// initialize klog
	klog.InitFlags(nil)
	defer klog.Flush()

	// load configuration & logging setup
	cfg := config.NewConfig()
	flags := flag.NewFlagSet("frame-interpolator", flag.ExitOnError)

	cfgFilePath := flags.String("config", "cmd/interpolator/config.yaml", "Path to configuration file")
	outputDir := flags.String("output", "out", "Directory for the output sequence")
	timesteps := flags.Int("timesteps", 0, "Intervals between two input frames (overrides the config file)")
	klog.InitFlags(flags)
	flags.Parse(os.Args[1:])

	if err := cfg.LoadFromYAML(*cfgFilePath); err != nil {
		klog.InfoS("Failed to load config file, using defaults", "path", *cfgFilePath)
	}
	if *timesteps > 0 {
		cfg.Timesteps = *timesteps
	}
	if err := cfg.Validate(); err != nil {
		klog.ErrorS(err, "Invalid configuration")
		os.Exit(1)
	}
	inputs := flags.Args()
	if len(inputs) < 2 {
		klog.ErrorS(nil, "At least two input frames are required", "got", len(inputs))
		os.Exit(2)
	}

	// setup context with graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	signalChan := make(chan os.Signal, 2)
	signal.Notify(signalChan, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-signalChan
		klog.InfoS("Received shutdown signal, starting graceful shutdown...", "signal", sig)
		cancel()

		sig = <-signalChan
		klog.InfoS("Received second shutdown signal, forcing shutdown...", "signal", sig)
		os.Exit(1) // force exit immediately for second signal
	}()

	// setup metrics and health checks endpoints (background goroutine)
	healthHandler := health.NewHealthHandler()
	if cfg.MetricsAddress != "" {
		go func() {
			m := http.NewServeMux()

			m.Handle("/metrics", metrics.Handler())
			healthHandler.Register(m)
			klog.InfoS("Starting observability server", "address", cfg.MetricsAddress)
			if err := http.ListenAndServe(cfg.MetricsAddress, m); err != nil {
				klog.ErrorS(err, "Observability server failed")
			}
		}()
	}

	if err := run(ctx, cfg, inputs, *outputDir, healthHandler); err != nil {
		klog.ErrorS(err, "Interpolation failed")
		klog.Flush()
		os.Exit(1)
	}
	klog.InfoS("Interpolation finished", "output", *outputDir)
}

func run(ctx context.Context, cfg *config.InterpolatorConfig, inputs []string, outputDir string, ready *health.HealthHandler) error {
	frames := make([]*frame.Frame, 0, len(inputs))
	for _, path := range inputs {
		f, err := fs.LoadFile(path)
		if err != nil {
			return err
		}
		frames = append(frames, f)
	}
	store, err := fs.New(outputDir)
	if err != nil {
		return err
	}

	hw, err := nvml.Detect(cfg.QueuesPerAccelerator)
	if err != nil {
		klog.InfoS("NVML is not available, running on the CPU only", "reason", err.Error())
	}

	factory, err := newFactory(cfg)
	if err != nil {
		return err
	}

	sessionID := uuid.New().String()
	tracker, closeTracker, err := newStatusStore(ctx, cfg, sessionID)
	if err != nil {
		return err
	}
	defer closeTracker()

	sess, err := session.New(ctx, session.Options{
		ID:                sessionID,
		ModelPath:         cfg.ModelPath,
		TTA:               cfg.TTAMode,
		HighRes:           cfg.HighResMode,
		Devices:           cfg.Devices,
		AutoDevices:       cfg.AutoDevices,
		JobSlotsPerDevice: cfg.JobSlotsPerDevice,
		QueueCapacity:     cfg.QueueCapacity,
		Status:            tracker,
	}, hw, factory)
	if err != nil {
		return err
	}

	ready.SetReady(true)
	notify(daemon.SdNotifyReady)
	runErr := interpolateSequence(ctx, sess, frames, cfg.Timesteps, store)
	ready.SetReady(false)
	notify(daemon.SdNotifyStopping)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := sess.Shutdown(shutdownCtx); err != nil {
		klog.ErrorS(err, "Session did not shut down cleanly")
	}
	return runErr
}

// interpolateSequence writes the input frames with timesteps-1 generated frames
// between every pair, numbered in playback order.
func interpolateSequence(ctx context.Context, sess *session.Session, frames []*frame.Frame, timesteps int, store *fs.Client) error {
	steps := sequence.Timesteps(timesteps)
	pairs := len(frames) - 1
	total := pairs * len(steps)

	submitErr := make(chan error, 1)
	go func() {
		for i := 0; i < pairs; i++ {
			for _, t := range steps {
				if _, err := sess.Submit(ctx, frames[i], frames[i+1], t); err != nil {
					submitErr <- err
					return
				}
			}
		}
		submitErr <- nil
	}()

	// the session is fresh, so task ids run from 1 in submission order
	results, err := sequence.Collect(ctx, sess, 1, total)
	if err != nil {
		return err
	}
	if err := <-submitErr; err != nil {
		return err
	}

	index := 0
	save := func(f *frame.Frame) error {
		md, err := store.Store(ctx, fmt.Sprintf("frame_%05d.png", index), f)
		if err != nil {
			return err
		}
		index++
		klog.FromContext(ctx).V(logging.DEBUG).Info("Frame written", "location", md.Location)
		return nil
	}
	for i := 0; i < pairs; i++ {
		if err := save(frames[i]); err != nil {
			return err
		}
		for _, res := range results[i*len(steps) : (i+1)*len(steps)] {
			if res.Failed() {
				return fmt.Errorf("task %s failed: %w", res.ID, res.Err)
			}
			if err := save(res.Frame); err != nil {
				return err
			}
		}
	}
	return save(frames[pairs])
}

// notify reports state changes to systemd when running as a notify unit.
func notify(state string) {
	if sent, err := daemon.SdNotify(false, state); err != nil {
		klog.ErrorS(err, "Failed to notify systemd", "state", state)
	} else if sent {
		klog.V(logging.DEBUG).InfoS("Notified systemd", "state", state)
	}
}

func newFactory(cfg *config.InterpolatorConfig) (engine.Factory, error) {
	switch cfg.Engine {
	case config.EngineRemote:
		return remote.NewFactory(remote.Config{
			BaseURL:               cfg.Remote.BaseURL,
			Timeout:               cfg.Remote.Timeout,
			APIKey:                cfg.Remote.APIKey,
			MaxRetries:            cfg.Remote.MaxRetries,
			TLSInsecureSkipVerify: cfg.Remote.TLSInsecureSkipVerify,
			TLSCACertFile:         cfg.Remote.TLSCACertFile,
			TLSClientCertFile:     cfg.Remote.TLSClientCertFile,
			TLSClientKeyFile:      cfg.Remote.TLSClientKeyFile,
		})
	default:
		return blend.NewFactory(), nil
	}
}

func newStatusStore(ctx context.Context, cfg *config.InterpolatorConfig, sessionID string) (status.Store, func(), error) {
	if cfg.Status.RedisURL == "" {
		return status.NoopStore{}, func() {}, nil
	}
	rds, err := redis.NewRedisClient(ctx, &redis.RedisClientConfig{
		Url:       cfg.Status.RedisURL,
		DbIdx:     cfg.Status.DBIndex,
		EnableTLS: cfg.Status.EnableTLS,
		Insecure:  cfg.Status.TLSInsecureSkipVerify,
		Certificates: utls.ClientFiles{
			CertFile:   cfg.Status.TLSClientCertFile,
			KeyFile:    cfg.Status.TLSClientKeyFile,
			CaCertFile: cfg.Status.TLSCACertFile,
		},
		ServiceName: "frame-interpolator",
		Timeout:     cfg.Status.Timeout,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to the status store: %w", err)
	}
	closeStore := func() {
		if err := rds.Close(); err != nil {
			klog.ErrorS(err, "Failed to close redis client")
		}
	}
	return status.NewRedisStore(rds, cfg.Status.KeyPrefix, sessionID, cfg.Status.TTL), closeStore, nil
}
