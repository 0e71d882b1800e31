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

// this file contains the dispatch loop run by every worker.
package worker

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"k8s.io/klog/v2"

	"github.com/llm-d-incubation/frame-interpolation/internal/processor/metrics"
	"github.com/llm-d-incubation/frame-interpolation/internal/shared/frame"
	"github.com/llm-d-incubation/frame-interpolation/internal/shared/interp"
	"github.com/llm-d-incubation/frame-interpolation/internal/util/logging"
)

// run is the dispatch loop: wait for a message, process work, repeat until a
// shutdown message arrives or the pool context ends.
func (p *WorkerPool) run(id, slot int, de *deviceEngine) {
	defer p.wg.Done()

	// engines may keep per-thread device state
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	ctx, logger := logging.WithValues(p.ctx, "workerID", id, "device", de.dev.Label(), "slot", slot)
	// inference is never interrupted; cancellation is only observed between tasks
	inferCtx := context.WithoutCancel(ctx)

	p.running.Add(1)
	metrics.IncWorkerThreads()
	defer func() {
		p.running.Add(-1)
		metrics.DecWorkerThreads()
	}()
	logger.V(logging.DEBUG).Info("Worker started")

	for {
		msg, err := p.intake.GetContext(ctx)
		if err != nil {
			logger.V(logging.DEBUG).Info("Worker stopped", "reason", err.Error())
			return
		}
		metrics.SetQueueDepth(metrics.QueueIntake, p.intake.Len())

		switch m := msg.(type) {
		case shutdownMessage:
			logger.V(logging.DEBUG).Info("Worker stopped", "reason", "shutdown")
			return
		case workMessage:
			p.process(inferCtx, de, m.task)
			if err := p.results.PutContext(ctx, m.task); err != nil {
				metrics.RecordTaskDiscarded()
				logger.Info("Dropped completed task", "taskID", m.task.ID, "reason", err.Error())
				continue
			}
			metrics.SetQueueDepth(metrics.QueueOutput, p.results.Len())
		default:
			logger.Error(fmt.Errorf("unexpected message %T", msg), "Ignoring intake message")
		}
	}
}

// process runs one inference and fills exactly one of task.Output or task.Err.
func (p *WorkerPool) process(ctx context.Context, de *deviceEngine, task *interp.Task) {
	logger := klog.FromContext(ctx).WithValues("taskID", task.ID)
	task.Device = de.dev
	p.setStatus(ctx, task, interp.Processing)

	metrics.IncActiveWorkers()
	start := time.Now()
	out, err := de.infer(ctx, task)
	metrics.RecordInferenceDuration(time.Since(start), de.dev.Label())
	metrics.DecActiveWorkers()

	if err == nil && !out.SameShape(task.Frame0) {
		err = fmt.Errorf("engine returned frame %s for input %s", out, task.Frame0)
	}
	if err != nil {
		task.Output = nil
		task.Err = &interp.InferenceFailure{TaskID: task.ID, Device: de.dev.Label(), Err: err}
		metrics.RecordTaskProcessed(metrics.ResultFailed)
		p.setStatus(ctx, task, interp.Failed)
		logger.Error(err, "Inference failed")
		return
	}

	task.Output = out
	metrics.RecordTaskProcessed(metrics.ResultSuccess)
	p.setStatus(ctx, task, interp.Completed)
	logger.V(logging.TRACE).Info("Task completed", "duration", time.Since(start))
}

func (de *deviceEngine) infer(ctx context.Context, task *interp.Task) (out *frame.Frame, err error) {
	defer func() {
		if r := recover(); r != nil {
			out, err = nil, fmt.Errorf("engine panic: %v", r)
		}
	}()
	if de.mu != nil {
		de.mu.Lock()
		defer de.mu.Unlock()
	}
	return de.eng.Infer(ctx, task.Frame0, task.Frame1, task.Timestep)
}

func (p *WorkerPool) setStatus(ctx context.Context, task *interp.Task, state interp.TaskState) {
	if err := p.status.Set(ctx, task.ID, state); err != nil {
		klog.FromContext(ctx).V(logging.DEBUG).Info("Failed to record task state", "taskID", task.ID, "state", state.String(), "err", err)
	}
}
