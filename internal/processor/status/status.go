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

// Package status publishes task lifecycle states so that processes outside the
// session can observe progress.
package status

import (
	"context"
	"errors"
	"fmt"
	"time"

	gredis "github.com/redis/go-redis/v9"

	"github.com/llm-d-incubation/frame-interpolation/internal/shared/interp"
)

// DefaultTTL bounds how long a task state stays visible after its last update.
const DefaultTTL = 10 * time.Minute

// ErrNotFound is returned for a task without a recorded state.
var ErrNotFound = errors.New("task state not found")

// Store records task states. Implementations must be safe for concurrent use.
type Store interface {
	Set(ctx context.Context, id interp.TaskID, state interp.TaskState) error
	Get(ctx context.Context, id interp.TaskID) (interp.TaskState, error)
}

// NoopStore discards every update.
type NoopStore struct{}

func (NoopStore) Set(context.Context, interp.TaskID, interp.TaskState) error { return nil }

func (NoopStore) Get(context.Context, interp.TaskID) (interp.TaskState, error) {
	return 0, ErrNotFound
}

// RedisStore keeps one key per task, namespaced by session.
type RedisStore struct {
	rds       *gredis.Client
	keyPrefix string
	sessionID string
	ttl       time.Duration
}

func NewRedisStore(rds *gredis.Client, keyPrefix, sessionID string, ttl time.Duration) *RedisStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisStore{rds: rds, keyPrefix: keyPrefix, sessionID: sessionID, ttl: ttl}
}

func (s *RedisStore) key(id interp.TaskID) string {
	return fmt.Sprintf("%s%s:task:%s", s.keyPrefix, s.sessionID, id)
}

func (s *RedisStore) Set(ctx context.Context, id interp.TaskID, state interp.TaskState) error {
	return s.rds.Set(ctx, s.key(id), state.String(), s.ttl).Err()
}

func (s *RedisStore) Get(ctx context.Context, id interp.TaskID) (interp.TaskState, error) {
	val, err := s.rds.Get(ctx, s.key(id)).Result()
	if errors.Is(err, gredis.Nil) {
		return 0, ErrNotFound
	}
	if err != nil {
		return 0, err
	}
	return ParseState(val)
}

// ParseState is the inverse of interp.TaskState.String.
func ParseState(s string) (interp.TaskState, error) {
	for _, st := range []interp.TaskState{interp.Queued, interp.Processing, interp.Completed, interp.Failed} {
		if st.String() == s {
			return st, nil
		}
	}
	return 0, fmt.Errorf("unknown task state %q", s)
}
