// Copyright 2025 The Rivaas Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package metrics exposes the process-wide counter/gauge/histogram
// registry the connector and outbound clients record to, plus a /metrics
// HTTP endpoint in Prometheus exposition format.
//
// Grounded on the teacher framework's metrics package, which holds its
// meter registry behind a lazily-initialized, process-wide singleton so
// multiple components can share one registry without import-order games.
// This module trades the teacher's OpenTelemetry meter-provider indirection
// for a direct github.com/prometheus/client_golang registry, since the
// spec only asks for the fixed set of counter/histogram families named in
// spec.md §3/§6 exposed at GET /metrics — no OTLP export, no arbitrary
// custom-metric registration API is in scope.
package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// TimeUnit selects how dispatch/outbound elapsed time is recorded into the
// fixed {0.2, 0.5, 1, 2, 4, 10} histogram buckets.
//
// spec.md §3/§9 flags this as an open question: the source measured
// elapsed time in milliseconds but used bucket boundaries that read like
// seconds. Rather than guess the source's intent, this is a configuration
// knob (Open Question resolution, see DESIGN.md).
type TimeUnit int

const (
	// Seconds records elapsed time in fractional seconds (default — the
	// bucket values read naturally as seconds: 200ms, 500ms, 1s, 2s, 4s, 10s).
	Seconds TimeUnit = iota
	// Milliseconds reproduces the source's literal behavior: elapsed
	// milliseconds placed into the same {0.2...10} bucket set.
	Milliseconds
)

// Buckets are the fixed histogram boundaries named in spec.md §3.
var Buckets = []float64{0.2, 0.5, 1, 2, 4, 10}

// Registry is the process-wide metrics sink. Construct via Default(); tests
// may build an isolated instance with New() and a private
// prometheus.Registry to avoid collisions with the global one.
type Registry struct {
	reg      *prometheus.Registry
	timeUnit TimeUnit

	mu sync.Mutex

	handleCount map[bool]*prometheus.CounterVec   // keyed by success
	handleTime  map[bool]*prometheus.HistogramVec // keyed by success
	callCount   map[bool]*prometheus.CounterVec
	callTime    map[bool]*prometheus.HistogramVec

	logWarnings prometheus.Counter
	logErrors   prometheus.Counter
}

// Option configures a Registry.
type Option func(*Registry)

// WithHistogramUnit sets the elapsed-time unit recorded into histograms.
func WithHistogramUnit(unit TimeUnit) Option {
	return func(r *Registry) { r.timeUnit = unit }
}

// New builds a standalone Registry backed by its own prometheus.Registry.
// Use Default() for the process-wide singleton; use New() directly in
// tests that want isolation.
func New(opts ...Option) *Registry {
	r := &Registry{
		reg:         prometheus.NewRegistry(),
		handleCount: map[bool]*prometheus.CounterVec{},
		handleTime:  map[bool]*prometheus.HistogramVec{},
		callCount:   map[bool]*prometheus.CounterVec{},
		callTime:    map[bool]*prometheus.HistogramVec{},
	}
	for _, opt := range opts {
		opt(r)
	}

	r.handleCount[true] = r.mustRegisterCounter("handle_api_success_count", "api")
	r.handleCount[false] = r.mustRegisterCounter("handle_api_failure_count", "api")
	r.handleTime[true] = r.mustRegisterHistogram("handle_api_success_time", "api")
	r.handleTime[false] = r.mustRegisterHistogram("handle_api_failure_time", "api")

	r.callCount[true] = r.mustRegisterCounter("call_api_success_count", "api")
	r.callCount[false] = r.mustRegisterCounter("call_api_failure_count", "api")
	r.callTime[true] = r.mustRegisterHistogram("call_api_success_time", "api")
	r.callTime[false] = r.mustRegisterHistogram("call_api_failure_time", "api")

	r.logWarnings = prometheus.NewCounter(prometheus.CounterOpts{Name: "log_warnings", Help: "Count of Warn-level log calls."})
	r.logErrors = prometheus.NewCounter(prometheus.CounterOpts{Name: "log_errors", Help: "Count of Error-level log calls."})
	r.reg.MustRegister(r.logWarnings, r.logErrors)

	return r
}

func (r *Registry) mustRegisterCounter(name, labelName string) *prometheus.CounterVec {
	vec := prometheus.NewCounterVec(prometheus.CounterOpts{Name: name, Help: name + " total."}, []string{labelName})
	r.reg.MustRegister(vec)
	return vec
}

func (r *Registry) mustRegisterHistogram(name, labelName string) *prometheus.HistogramVec {
	vec := prometheus.NewHistogramVec(prometheus.HistogramOpts{Name: name, Help: name + " elapsed time.", Buckets: Buckets}, []string{labelName})
	r.reg.MustRegister(vec)
	return vec
}

var (
	defaultOnce sync.Once
	defaultReg  *Registry
)

// Default returns the process-wide Registry, constructing it on first use.
// First construction wins: subsequent calls, even with different options,
// return the already-built instance (spec §5, "idempotent on
// re-construction").
func Default(opts ...Option) *Registry {
	defaultOnce.Do(func() { defaultReg = New(opts...) })
	return defaultReg
}

// RecordHandle records one inbound dispatch outcome for route api.
func (r *Registry) RecordHandle(api string, success bool, elapsedSeconds float64) {
	r.handleCount[success].WithLabelValues(api).Inc()
	r.handleTime[success].WithLabelValues(api).Observe(r.scale(elapsedSeconds))
}

// RecordCall records one outbound call outcome for "<service>.<method>".
func (r *Registry) RecordCall(api string, success bool, elapsedSeconds float64) {
	r.callCount[success].WithLabelValues(api).Inc()
	r.callTime[success].WithLabelValues(api).Observe(r.scale(elapsedSeconds))
}

func (r *Registry) scale(seconds float64) float64 {
	if r.timeUnit == Milliseconds {
		return seconds * 1000
	}
	return seconds
}

// IncrLogWarning increments the log_warnings counter.
func (r *Registry) IncrLogWarning() { r.logWarnings.Inc() }

// IncrLogError increments the log_errors counter.
func (r *Registry) IncrLogError() { r.logErrors.Inc() }

// Handler returns the net/http handler to mount at GET /metrics.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{})
}
