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

// The file provides HTTP handlers for health check endpoints.
// Liveness is unconditional; readiness follows the interpolation session.
package health

import (
	"net/http"
	"sync/atomic"
)

const (
	HealthPath = "/health"
	ReadyPath  = "/ready"
)

type HealthHandler struct {
	ready atomic.Bool
}

func NewHealthHandler() *HealthHandler {
	return &HealthHandler{}
}

// SetReady marks whether the session accepts work.
func (h *HealthHandler) SetReady(ready bool) {
	h.ready.Store(ready)
}

// Register adds both endpoints. GET patterns also serve HEAD; other methods get 405.
func (h *HealthHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc(http.MethodGet+" "+HealthPath, h.Health)
	mux.HandleFunc(http.MethodGet+" "+ReadyPath, h.Ready)
}

func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	if !h.ready.Load() {
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte("NOT READY"))
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}
