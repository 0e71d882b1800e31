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

// Package sequence turns per-task results back into an ordered frame sequence.
package sequence

import (
	"context"
	"fmt"

	"github.com/llm-d-incubation/frame-interpolation/internal/shared/interp"
)

// Timesteps returns the n-1 evenly spaced positions strictly between two
// frames, i/n for i in 1..n-1. It returns nil for n < 2.
func Timesteps(n int) []float32 {
	if n < 2 {
		return nil
	}
	steps := make([]float32, 0, n-1)
	for i := 1; i < n; i++ {
		steps = append(steps, float32(i)/float32(n))
	}
	return steps
}

// Sequencer buffers results that arrive out of order and releases them by
// ascending task id.
type Sequencer struct {
	next    interp.TaskID
	pending map[interp.TaskID]interp.Result
}

// NewSequencer returns a sequencer expecting first as the next id.
func NewSequencer(first interp.TaskID) *Sequencer {
	return &Sequencer{next: first, pending: make(map[interp.TaskID]interp.Result)}
}

// Add stores r and returns every result that is now in order, possibly none.
// Results with ids already released are ignored.
func (s *Sequencer) Add(r interp.Result) []interp.Result {
	if r.ID < s.next {
		return nil
	}
	s.pending[r.ID] = r

	var ready []interp.Result
	for {
		next, ok := s.pending[s.next]
		if !ok {
			return ready
		}
		delete(s.pending, s.next)
		ready = append(ready, next)
		s.next++
	}
}

// Pending returns the number of results held back.
func (s *Sequencer) Pending() int {
	return len(s.pending)
}

// Next returns the id the sequencer waits for.
func (s *Sequencer) Next() interp.TaskID {
	return s.next
}

// Retriever is the source Collect reads from.
type Retriever interface {
	Retrieve(ctx context.Context) (interp.Result, error)
}

// Collect retrieves count results with consecutive ids starting at first and
// returns them in id order. Failed results are returned as is.
func Collect(ctx context.Context, src Retriever, first interp.TaskID, count int) ([]interp.Result, error) {
	seq := NewSequencer(first)
	out := make([]interp.Result, 0, count)
	for len(out) < count {
		r, err := src.Retrieve(ctx)
		if err != nil {
			return out, fmt.Errorf("collected %d of %d results: %w", len(out), count, err)
		}
		if r.ID < first || r.ID >= first+interp.TaskID(count) {
			return out, fmt.Errorf("result %s is outside [%s, %s)", r.ID, first, first+interp.TaskID(count))
		}
		out = append(out, seq.Add(r)...)
	}
	return out, nil
}
