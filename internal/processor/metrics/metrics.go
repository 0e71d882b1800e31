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

package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// labels definition
const (
	// result labels
	ResultSuccess = "success"
	ResultFailed  = "failed"

	// queue labels
	QueueIntake = "intake"
	QueueOutput = "output"
)

var (
	// number of tasks processed so far
	tasksProcessed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "interpolation_tasks_processed_total",
			Help: "Total number of interpolation tasks processed",
		}, []string{"result"},
	)

	// duration of a single inference call
	inferenceDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "interpolation_inference_duration_seconds",
			Help: "Duration of one inference call in seconds",
			// Buckets -
			// Bucket 1: ~ 5ms
			// Bucket 2: ~ 10ms
			// ...
			// Bucket 12: ~ 10.2s
			Buckets: prometheus.ExponentialBuckets(0.005, 2, 12),
		}, []string{"device"},
	)

	// workers currently inside an inference call
	activeWorkers = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "interpolation_active_workers",
			Help: "Current number of workers processing a task",
		},
	)

	// live worker threads
	workerThreads = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "interpolation_worker_threads",
			Help: "Current number of running worker threads",
		},
	)

	// pending items per queue
	queueDepth = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "interpolation_queue_depth",
			Help: "Number of items waiting in a queue",
		}, []string{"queue"},
	)

	engineLoadFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "interpolation_engine_load_failures_total",
			Help: "Total number of engine creation or model load failures",
		}, []string{"device"},
	)

	// results dropped because the output queue was closed
	tasksDiscarded = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "interpolation_tasks_discarded_total",
			Help: "Total number of completed tasks dropped during a forced shutdown",
		},
	)
)

func init() {
	prometheus.MustRegister(tasksProcessed)
	prometheus.MustRegister(inferenceDuration)
	prometheus.MustRegister(activeWorkers)
	prometheus.MustRegister(workerThreads)
	prometheus.MustRegister(queueDepth)
	prometheus.MustRegister(engineLoadFailures)
	prometheus.MustRegister(tasksDiscarded)
}

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Recorder funcs

// RecordTaskProcessed increments the processed task count.
func RecordTaskProcessed(result string) {
	tasksProcessed.WithLabelValues(result).Inc()
}

// RecordInferenceDuration observes the time taken by one inference call.
func RecordInferenceDuration(duration time.Duration, device string) {
	inferenceDuration.WithLabelValues(device).Observe(duration.Seconds())
}

// IncActiveWorkers increments the gauge for active workers.
func IncActiveWorkers() {
	activeWorkers.Inc()
}

// DecActiveWorkers decrements the gauge for active workers.
func DecActiveWorkers() {
	activeWorkers.Dec()
}

func IncWorkerThreads() {
	workerThreads.Inc()
}

func DecWorkerThreads() {
	workerThreads.Dec()
}

// SetQueueDepth records the current length of a queue.
func SetQueueDepth(queue string, depth int) {
	queueDepth.WithLabelValues(queue).Set(float64(depth))
}

// RecordEngineLoadFailure increments the load failure count for a device.
func RecordEngineLoadFailure(device string) {
	engineLoadFailures.WithLabelValues(device).Inc()
}

func RecordTaskDiscarded() {
	tasksDiscarded.Inc()
}
