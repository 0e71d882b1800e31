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

package remote

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"github.com/llm-d-incubation/frame-interpolation/internal/device"
	"github.com/llm-d-incubation/frame-interpolation/internal/engine"
	"github.com/llm-d-incubation/frame-interpolation/internal/shared/frame"
)

var gpu0 = device.Device{Kind: device.KindAccelerator, Index: 0, JobSlots: 2}

// fakeServer answers the remote engine protocol; the interpolated frame is frame1.
type fakeServer struct {
	loadFailures int32 // number of 503 answers before a load succeeds
	loadStatus   int
	loads        atomic.Int32
	deletes      atomic.Int32
	lastLoad     loadRequest
	lastTimestep string
}

func (s *fakeServer) handler(t *testing.T) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/engines", func(w http.ResponseWriter, r *http.Request) {
		n := s.loads.Add(1)
		if n <= s.loadFailures {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		if s.loadStatus != 0 {
			w.WriteHeader(s.loadStatus)
			w.Write([]byte(`{"error":{"type":"invalid_request","message":"model not found"}}`))
			return
		}
		if err := json.NewDecoder(r.Body).Decode(&s.lastLoad); err != nil {
			t.Errorf("bad load body: %v", err)
		}
		json.NewEncoder(w).Encode(loadResponse{EngineID: "eng-1"})
	})
	mux.HandleFunc("POST /v1/engines/{id}/interpolate", func(w http.ResponseWriter, r *http.Request) {
		if r.PathValue("id") != "eng-1" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		width, _ := strconv.Atoi(r.Header.Get(HeaderWidth))
		height, _ := strconv.Atoi(r.Header.Get(HeaderHeight))
		channels, _ := strconv.Atoi(r.Header.Get(HeaderChannels))
		s.lastTimestep = r.Header.Get(HeaderTimestep)
		body, _ := io.ReadAll(r.Body)
		size := width * height * channels
		if len(body) != 2*size {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		w.Write(body[size:])
	})
	mux.HandleFunc("DELETE /v1/engines/{id}", func(w http.ResponseWriter, r *http.Request) {
		s.deletes.Add(1)
	})
	return mux
}

func newEngine(t *testing.T, srv *httptest.Server) engine.Engine {
	t.Helper()
	factory, err := NewFactory(Config{
		BaseURL:        srv.URL,
		Timeout:        5 * time.Second,
		MaxRetries:     3,
		InitialBackoff: time.Millisecond,
		MaxBackoff:     5 * time.Millisecond,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	eng, err := factory.NewEngine(context.Background(), gpu0, engine.NewOptions("models/rife-v2.4", true, false, gpu0))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return eng
}

func TestLoadInferClose(t *testing.T) {
	fs := &fakeServer{}
	srv := httptest.NewServer(fs.handler(t))
	defer srv.Close()
	eng := newEngine(t, srv)

	if err := eng.Load(context.Background(), "models/rife-v2.4"); err != nil {
		t.Fatalf("unexpected load error: %v", err)
	}
	if fs.lastLoad.Device != 0 || !fs.lastLoad.TTA || fs.lastLoad.Threads != 2 || fs.lastLoad.Variant != "v2" {
		t.Errorf("unexpected load request %+v", fs.lastLoad)
	}

	a, _ := frame.FromRGB(2, 1, []byte{1, 2, 3, 4, 5, 6})
	b, _ := frame.FromRGB(2, 1, []byte{9, 8, 7, 6, 5, 4})
	out, err := eng.Infer(context.Background(), a, b, 0.25)
	if err != nil {
		t.Fatalf("unexpected infer error: %v", err)
	}
	if !out.SameShape(a) || out.Data[0] != 9 {
		t.Errorf("unexpected output %v %v", out, out.Data)
	}
	if fs.lastTimestep != "0.25" {
		t.Errorf("expected timestep header 0.25, got %q", fs.lastTimestep)
	}

	if err := eng.Close(); err != nil {
		t.Fatalf("unexpected close error: %v", err)
	}
	if fs.deletes.Load() != 1 {
		t.Errorf("expected one delete, got %d", fs.deletes.Load())
	}
}

func TestLoadRetriesWhileServerStarts(t *testing.T) {
	fs := &fakeServer{loadFailures: 2}
	srv := httptest.NewServer(fs.handler(t))
	defer srv.Close()
	eng := newEngine(t, srv)

	if err := eng.Load(context.Background(), "models/rife"); err != nil {
		t.Fatalf("unexpected load error: %v", err)
	}
	if got := fs.loads.Load(); got != 3 {
		t.Errorf("expected 3 load attempts, got %d", got)
	}
}

func TestLoadDoesNotRetryClientErrors(t *testing.T) {
	fs := &fakeServer{loadStatus: http.StatusBadRequest}
	srv := httptest.NewServer(fs.handler(t))
	defer srv.Close()
	eng := newEngine(t, srv)

	err := eng.Load(context.Background(), "models/missing")
	if err == nil {
		t.Fatalf("expected a load error")
	}
	if got := fs.loads.Load(); got != 1 {
		t.Errorf("expected a single attempt, got %d", got)
	}
	if want := "HTTP 400: model not found"; err.Error() != want {
		t.Errorf("got %q, want %q", err.Error(), want)
	}
}

func TestLoadGivesUpAfterMaxRetries(t *testing.T) {
	fs := &fakeServer{loadFailures: 100}
	srv := httptest.NewServer(fs.handler(t))
	defer srv.Close()
	eng := newEngine(t, srv)

	if err := eng.Load(context.Background(), "models/rife"); err == nil {
		t.Fatalf("expected a load error")
	}
	if got := fs.loads.Load(); got != 4 {
		t.Errorf("expected 1 attempt plus 3 retries, got %d", got)
	}
}

func TestInferBeforeLoad(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()
	eng := newEngine(t, srv)
	a, _ := frame.New(1, 1, 3)

	if _, err := eng.Infer(context.Background(), a, a, 0.5); err == nil {
		t.Errorf("expected an unloaded engine to refuse inference")
	}
}

func TestNewFactoryRequiresBaseURL(t *testing.T) {
	if _, err := NewFactory(Config{}); err == nil {
		t.Errorf("expected an error without a base url")
	}
}
