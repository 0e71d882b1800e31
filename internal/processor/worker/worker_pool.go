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

// This file contains the per-device worker pool.
package worker

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"k8s.io/klog/v2"

	"github.com/llm-d-incubation/frame-interpolation/internal/device"
	"github.com/llm-d-incubation/frame-interpolation/internal/engine"
	"github.com/llm-d-incubation/frame-interpolation/internal/processor/metrics"
	"github.com/llm-d-incubation/frame-interpolation/internal/processor/queue"
	"github.com/llm-d-incubation/frame-interpolation/internal/processor/status"
	"github.com/llm-d-incubation/frame-interpolation/internal/shared/interp"
)

// PoolConfig carries the engine settings shared by every device.
type PoolConfig struct {
	ModelPath string
	TTA       bool
	HighRes   bool
	Status    status.Store // optional
}

// deviceEngine is the engine of one device together with the guard used when
// the engine cannot serve several job slots at once.
type deviceEngine struct {
	dev device.Device
	eng engine.Engine
	mu  *sync.Mutex
}

// WorkerPool owns one engine per device and one worker per job slot.
type WorkerPool struct {
	intake  *queue.BoundedQueue[Message]
	results *queue.BoundedQueue[*interp.Task]
	status  status.Store
	engines []*deviceEngine

	// ctx is cancelled to make workers leave between tasks
	ctx    context.Context
	cancel context.CancelFunc

	wg       sync.WaitGroup
	workers  int
	running  atomic.Int32
	stopOnce sync.Once
	stopErr  error
}

// Start creates the engines of every device in the topology and spawns one
// worker per job slot. If any engine fails, the engines built so far are closed
// and a *engine.LoadError is returned; no worker is started in that case.
func Start(
	ctx context.Context,
	topo *device.Topology,
	factory engine.Factory,
	cfg PoolConfig,
	intake *queue.BoundedQueue[Message],
	results *queue.BoundedQueue[*interp.Task],
) (*WorkerPool, error) {
	logger := klog.FromContext(ctx)

	store := cfg.Status
	if store == nil {
		store = status.NoopStore{}
	}
	p := &WorkerPool{
		intake:  intake,
		results: results,
		status:  store,
	}

	for _, dev := range topo.Devices() {
		de, err := newDeviceEngine(ctx, factory, dev, cfg)
		if err != nil {
			metrics.RecordEngineLoadFailure(dev.Label())
			logger.Error(err, "Failed to create engine", "device", dev.String())
			p.closeEngines(ctx)
			return nil, err
		}
		p.engines = append(p.engines, de)
		logger.Info("Engine ready", "device", dev.String(), "concurrencySafe", de.mu == nil)
	}

	p.ctx, p.cancel = context.WithCancel(ctx)
	for _, de := range p.engines {
		for slot := 0; slot < de.dev.JobSlots; slot++ {
			p.wg.Add(1)
			p.workers++
			go p.run(p.workers, slot, de)
		}
	}
	logger.Info("Worker pool started", "devices", len(p.engines), "workers", p.workers)
	return p, nil
}

func newDeviceEngine(ctx context.Context, factory engine.Factory, dev device.Device, cfg PoolConfig) (*deviceEngine, error) {
	opts := engine.NewOptions(cfg.ModelPath, cfg.TTA, cfg.HighRes, dev)
	eng, err := factory.NewEngine(ctx, dev, opts)
	if err != nil {
		return nil, &engine.LoadError{Device: dev, ModelPath: cfg.ModelPath, Err: err}
	}
	if eng == nil {
		return nil, &engine.LoadError{Device: dev, ModelPath: cfg.ModelPath, Err: errors.New("factory returned no engine")}
	}
	if err := eng.Load(ctx, cfg.ModelPath); err != nil {
		_ = eng.Close()
		return nil, &engine.LoadError{Device: dev, ModelPath: cfg.ModelPath, Err: err}
	}
	de := &deviceEngine{dev: dev, eng: eng}
	if dev.JobSlots > 1 && !eng.ConcurrencySafe() {
		de.mu = &sync.Mutex{}
	}
	return de, nil
}

// Workers returns the number of workers spawned by Start.
func (p *WorkerPool) Workers() int {
	return p.workers
}

// Running returns the number of workers that have not exited yet.
func (p *WorkerPool) Running() int {
	return int(p.running.Load())
}

// Stop sends one shutdown message per worker, waits for every worker and closes
// the engines. If ctx ends first, workers are told to leave after their current
// task and results they still hold are dropped; Stop then returns ctx.Err()
// once teardown is complete. Calls after the first return the first result.
func (p *WorkerPool) Stop(ctx context.Context) error {
	p.stopOnce.Do(func() {
		p.stopErr = p.stop(ctx)
	})
	return p.stopErr
}

func (p *WorkerPool) stop(ctx context.Context) error {
	logger := klog.FromContext(ctx)

	// the sends are pointless once the workers are already leaving
	sendCtx, cancelSend := context.WithCancel(ctx)
	release := context.AfterFunc(p.ctx, cancelSend)
	sent := 0
	for ; sent < p.workers; sent++ {
		if err := p.intake.PutContext(sendCtx, Shutdown()); err != nil {
			break
		}
	}
	release()
	cancelSend()

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	var err error
	select {
	case <-done:
	case <-ctx.Done():
		err = ctx.Err()
		logger.Info("Shutdown deadline reached, aborting workers", "workers", p.Running(), "shutdownMessagesSent", sent)
		p.cancel()
		<-done
	}
	p.cancel()

	p.closeEngines(ctx)
	logger.Info("All workers have finished", "workers", p.workers)
	return err
}

func (p *WorkerPool) closeEngines(ctx context.Context) {
	logger := klog.FromContext(ctx)
	for _, de := range p.engines {
		if err := de.eng.Close(); err != nil {
			logger.Error(err, "Failed to close engine", "device", de.dev.String())
		}
	}
	p.engines = nil
}
