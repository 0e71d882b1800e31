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

// The file contains unit tests for the health check handlers.
package health

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestHealthHandler(t *testing.T) {
	mux := http.NewServeMux()
	handler := NewHealthHandler()
	handler.Register(mux)

	tests := []struct {
		name           string
		method         string
		path           string
		ready          bool
		expectedStatus int
	}{
		{
			name:           "GET health returns 200",
			method:         http.MethodGet,
			path:           HealthPath,
			expectedStatus: http.StatusOK,
		},
		{
			name:           "HEAD health returns 200",
			method:         http.MethodHead,
			path:           HealthPath,
			expectedStatus: http.StatusOK,
		},
		{
			name:           "POST health returns 405",
			method:         http.MethodPost,
			path:           HealthPath,
			expectedStatus: http.StatusMethodNotAllowed,
		},
		{
			name:           "DELETE health returns 405",
			method:         http.MethodDelete,
			path:           HealthPath,
			expectedStatus: http.StatusMethodNotAllowed,
		},
		{
			name:           "GET ready before start returns 503",
			method:         http.MethodGet,
			path:           ReadyPath,
			expectedStatus: http.StatusServiceUnavailable,
		},
		{
			name:           "GET ready after start returns 200",
			method:         http.MethodGet,
			path:           ReadyPath,
			ready:          true,
			expectedStatus: http.StatusOK,
		},
		{
			name:           "PUT ready returns 405",
			method:         http.MethodPut,
			path:           ReadyPath,
			ready:          true,
			expectedStatus: http.StatusMethodNotAllowed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler.SetReady(tt.ready)
			req := httptest.NewRequest(tt.method, tt.path, nil)
			w := httptest.NewRecorder()

			mux.ServeHTTP(w, req)

			if w.Code != tt.expectedStatus {
				t.Errorf("expected status %d, got %d", tt.expectedStatus, w.Code)
			}
		})
	}
}
