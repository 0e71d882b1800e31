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

// The file provides the fixed-capacity FIFO connecting callers and workers.
package queue

import (
	"context"
	"errors"
	"sync"

	ring "github.com/eapache/queue"
)

// DefaultCapacity bounds how many frame pairs may wait between stages.
const DefaultCapacity = 8

// ErrClosed is returned by Put on a closed queue and by Get once a closed queue is drained.
var ErrClosed = errors.New("queue closed")

// BoundedQueue is a blocking FIFO holding at most Cap() items. Put blocks while the
// queue is full and Get blocks while it is empty, so a fast producer cannot run
// unboundedly ahead of slow consumers.
type BoundedQueue[T any] struct {
	mu       sync.Mutex
	notFull  *sync.Cond
	notEmpty *sync.Cond
	items    *ring.Queue
	capacity int
	closed   bool
}

// New returns a queue of the given capacity. Non-positive capacities use DefaultCapacity.
func New[T any](capacity int) *BoundedQueue[T] {
	if capacity < 1 {
		capacity = DefaultCapacity
	}
	q := &BoundedQueue[T]{
		items:    ring.New(),
		capacity: capacity,
	}
	q.notFull = sync.NewCond(&q.mu)
	q.notEmpty = sync.NewCond(&q.mu)
	return q
}

// Put appends item, blocking while the queue is full.
func (q *BoundedQueue[T]) Put(item T) error {
	return q.PutContext(context.Background(), item)
}

// PutContext is Put bounded by ctx. On cancellation the item is not enqueued.
func (q *BoundedQueue[T]) PutContext(ctx context.Context, item T) error {
	stop := q.wakeOnDone(ctx, q.notFull)
	defer stop()

	q.mu.Lock()
	for q.items.Length() >= q.capacity && !q.closed && ctx.Err() == nil {
		q.notFull.Wait()
	}
	if q.closed {
		q.mu.Unlock()
		return ErrClosed
	}
	if err := ctx.Err(); err != nil {
		// pass on a wakeup this waiter may have consumed
		if q.items.Length() < q.capacity {
			q.notFull.Signal()
		}
		q.mu.Unlock()
		return err
	}
	q.items.Add(item)
	q.mu.Unlock()
	q.notEmpty.Signal()
	return nil
}

// Get removes and returns the oldest item, blocking while the queue is empty.
func (q *BoundedQueue[T]) Get() (T, error) {
	return q.GetContext(context.Background())
}

// GetContext is Get bounded by ctx. A closed queue still yields its remaining items.
func (q *BoundedQueue[T]) GetContext(ctx context.Context) (T, error) {
	stop := q.wakeOnDone(ctx, q.notEmpty)
	defer stop()

	var zero T
	q.mu.Lock()
	for q.items.Length() == 0 && !q.closed && ctx.Err() == nil {
		q.notEmpty.Wait()
	}
	if q.items.Length() == 0 {
		closed := q.closed
		q.mu.Unlock()
		if closed {
			return zero, ErrClosed
		}
		return zero, ctx.Err()
	}
	if err := ctx.Err(); err != nil {
		q.notEmpty.Signal()
		q.mu.Unlock()
		return zero, err
	}
	item := q.items.Remove().(T)
	q.mu.Unlock()
	q.notFull.Signal()
	return item, nil
}

// Close wakes every waiter. Pending items stay available to Get.
func (q *BoundedQueue[T]) Close() {
	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()
	q.notFull.Broadcast()
	q.notEmpty.Broadcast()
}

// Len returns the number of pending items.
func (q *BoundedQueue[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.items.Length()
}

// Cap returns the fixed capacity.
func (q *BoundedQueue[T]) Cap() int {
	return q.capacity
}

// wakeOnDone broadcasts on cond once ctx is done so a waiter can observe ctx.Err().
func (q *BoundedQueue[T]) wakeOnDone(ctx context.Context, cond *sync.Cond) func() bool {
	if ctx.Done() == nil {
		return func() bool { return false }
	}
	return context.AfterFunc(ctx, func() {
		q.mu.Lock()
		cond.Broadcast()
		q.mu.Unlock()
	})
}
