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

// Package session is the caller-facing interpolation API: it owns the device
// topology, the worker pool and the two queues between them.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/google/uuid"
	"k8s.io/klog/v2"

	"github.com/llm-d-incubation/frame-interpolation/internal/device"
	"github.com/llm-d-incubation/frame-interpolation/internal/engine"
	"github.com/llm-d-incubation/frame-interpolation/internal/processor/metrics"
	"github.com/llm-d-incubation/frame-interpolation/internal/processor/queue"
	"github.com/llm-d-incubation/frame-interpolation/internal/processor/status"
	"github.com/llm-d-incubation/frame-interpolation/internal/processor/worker"
	"github.com/llm-d-incubation/frame-interpolation/internal/shared/frame"
	"github.com/llm-d-incubation/frame-interpolation/internal/shared/interp"
	"github.com/llm-d-incubation/frame-interpolation/internal/util/logging"
)

var (
	// ErrSessionClosed is returned by Submit after Shutdown, and by Retrieve once
	// every remaining result has been drained.
	ErrSessionClosed = errors.New("session is shut down")
	// ErrInvalidTask is returned by Submit for frames or timesteps no engine can use.
	ErrInvalidTask = errors.New("invalid interpolation task")
	// ErrConcurrentUse is returned by Interpolate when another caller retrieved
	// its result first.
	ErrConcurrentUse = errors.New("session is used by another caller")
)

// Options configures a session.
type Options struct {
	// ID names the session in logs and status keys. A uuid is generated when empty.
	ID string

	ModelPath string
	TTA       bool
	HighRes   bool

	// Devices lists accelerator indices, device.CPUIndex for the CPU.
	// Ignored when AutoDevices is set. Empty means CPU only.
	Devices     []int
	AutoDevices bool

	JobSlotsPerDevice int // device.DefaultJobSlots when zero
	QueueCapacity     int // queue.DefaultCapacity when zero

	Status status.Store // optional
}

// Session schedules interpolation tasks over every job slot of its topology.
// Submit and Retrieve may be called from different goroutines.
type Session struct {
	id      string
	topo    *device.Topology
	pool    *worker.WorkerPool
	intake  *queue.BoundedQueue[worker.Message]
	results *queue.BoundedQueue[*interp.Task]
	status  status.Store

	lastID atomic.Int64
	closed atomic.Bool
}

// New builds the device topology over hw, loads one engine per device and starts
// the workers. On failure every resource acquired so far is released, including
// the hardware context. ctx supplies the logger; cancelling it later does not
// stop the workers, which run until Shutdown.
func New(ctx context.Context, opts Options, hw device.HardwareContext, factory engine.Factory) (*Session, error) {
	id := opts.ID
	if id == "" {
		id = uuid.New().String()
	}
	ctx, logger := logging.WithValues(ctx, "session", id)

	slots := opts.JobSlotsPerDevice
	if slots <= 0 {
		slots = device.DefaultJobSlots
	}

	var (
		topo *device.Topology
		err  error
	)
	if opts.AutoDevices {
		topo, err = device.BuildAuto(hw, slots)
	} else {
		topo, err = device.Build(hw, opts.Devices, slots)
	}
	if err != nil {
		logger.Error(err, "Failed to build device topology", "devices", opts.Devices)
		return nil, err
	}
	for _, dev := range topo.Devices() {
		logger.Info("Using device", "device", dev.String(), "jobSlots", dev.JobSlots)
	}

	store := opts.Status
	if store == nil {
		store = status.NoopStore{}
	}
	s := &Session{
		id:      id,
		topo:    topo,
		intake:  queue.New[worker.Message](opts.QueueCapacity),
		results: queue.New[*interp.Task](opts.QueueCapacity),
		status:  store,
	}

	s.pool, err = worker.Start(context.WithoutCancel(ctx), topo, factory, worker.PoolConfig{
		ModelPath: opts.ModelPath,
		TTA:       opts.TTA,
		HighRes:   opts.HighRes,
		Status:    store,
	}, s.intake, s.results)
	if err != nil {
		if cerr := topo.Close(); cerr != nil {
			logger.Error(cerr, "Failed to release hardware context")
		}
		return nil, err
	}

	logger.Info("Session started", "devices", topo.DeviceCount(), "jobSlots", topo.TotalJobSlots(),
		"queueCapacity", s.intake.Cap())
	return s, nil
}

// ID returns the session identifier.
func (s *Session) ID() string {
	return s.id
}

// Topology returns the devices the session runs on.
func (s *Session) Topology() *device.Topology {
	return s.topo
}

// Submit enqueues one interpolation between frameA and frameB at the given
// timestep and returns its id. It blocks while the intake queue is full; ctx
// bounds that wait. Frames must not be modified until their result is retrieved.
func (s *Session) Submit(ctx context.Context, frameA, frameB *frame.Frame, timestep float32) (interp.TaskID, error) {
	if s.closed.Load() {
		return 0, ErrSessionClosed
	}
	if err := validate(frameA, frameB, timestep); err != nil {
		return 0, err
	}

	task := &interp.Task{
		ID:       interp.TaskID(s.lastID.Add(1)),
		Timestep: timestep,
		Frame0:   frameA,
		Frame1:   frameB,
	}
	if err := s.status.Set(ctx, task.ID, interp.Queued); err != nil {
		klog.FromContext(ctx).V(logging.DEBUG).Info("Failed to record task state", "taskID", task.ID, "err", err)
	}
	if err := s.intake.PutContext(ctx, worker.Work(task)); err != nil {
		if errors.Is(err, queue.ErrClosed) {
			return 0, ErrSessionClosed
		}
		return 0, err
	}
	metrics.SetQueueDepth(metrics.QueueIntake, s.intake.Len())
	klog.FromContext(ctx).V(logging.TRACE).Info("Task submitted", "session", s.id, "taskID", task.ID, "timestep", timestep)
	return task.ID, nil
}

func validate(frameA, frameB *frame.Frame, timestep float32) error {
	if err := frameA.Validate(); err != nil {
		return fmt.Errorf("%w: first frame: %v", ErrInvalidTask, err)
	}
	if err := frameB.Validate(); err != nil {
		return fmt.Errorf("%w: second frame: %v", ErrInvalidTask, err)
	}
	if !frameA.SameShape(frameB) {
		return fmt.Errorf("%w: frame shapes differ: %s and %s", ErrInvalidTask, frameA, frameB)
	}
	// also rejects NaN
	if !(timestep >= 0 && timestep <= 1) {
		return fmt.Errorf("%w: timestep %v outside [0, 1]", ErrInvalidTask, timestep)
	}
	return nil
}

// Retrieve blocks until a completed task is available and returns it. Results
// come back in completion order, not submission order. After Shutdown the
// remaining results are still returned, then ErrSessionClosed.
func (s *Session) Retrieve(ctx context.Context) (interp.Result, error) {
	task, err := s.results.GetContext(ctx)
	if err != nil {
		if errors.Is(err, queue.ErrClosed) {
			return interp.Result{}, ErrSessionClosed
		}
		return interp.Result{}, err
	}
	metrics.SetQueueDepth(metrics.QueueOutput, s.results.Len())
	return task.Result(), nil
}

// Interpolate submits one task and waits for its result. It is meant for a
// single caller; if a different result arrives first it is lost and
// ErrConcurrentUse is returned.
func (s *Session) Interpolate(ctx context.Context, frameA, frameB *frame.Frame, timestep float32) (*frame.Frame, error) {
	id, err := s.Submit(ctx, frameA, frameB, timestep)
	if err != nil {
		return nil, err
	}
	res, err := s.Retrieve(ctx)
	if err != nil {
		return nil, err
	}
	if res.ID != id {
		return nil, fmt.Errorf("%w: expected task %s, got %s", ErrConcurrentUse, id, res.ID)
	}
	if res.Failed() {
		return nil, res.Err
	}
	return res.Frame, nil
}

// Shutdown stops every worker after the tasks queued before it, releases the
// engines and then the hardware context. Only the first call does any work;
// later calls return nil.
//
// Workers hand every finished task to the output queue before leaving, so a
// graceful drain needs either a concurrent Retrieve loop or a bounded ctx: with
// both queues full and nobody retrieving, Shutdown waits as long as ctx allows.
// If ctx ends before the workers have drained, workers leave after their
// current task and results that cannot be delivered are dropped. Shutdown then
// returns the context error once teardown has finished.
func (s *Session) Shutdown(ctx context.Context) error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}
	ctx, logger := logging.WithValues(ctx, "session", s.id)
	logger.Info("Shutting down session", "workers", s.pool.Workers(), "pending", s.intake.Len())

	err := s.pool.Stop(ctx)
	// work submitted behind the shutdown messages is never picked up
	if dropped := s.intake.Len(); dropped > 0 {
		logger.Info("Discarding tasks submitted during shutdown", "tasks", dropped)
	}
	s.intake.Close()
	s.results.Close()

	if cerr := s.topo.Close(); cerr != nil {
		logger.Error(cerr, "Failed to release hardware context")
		if err == nil {
			err = cerr
		}
	}
	logger.Info("Session shut down", "undelivered", s.results.Len())
	return err
}
