// Copyright 2026 The Zaparoo Project Contributors.
// SPDX-License-Identifier: Apache-2.0
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

// Package metrics exposes scan counters to Prometheus.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ZaparooProject/pn532scan/polling"
)

const namespace = "pn532"

// Source provides a counter snapshot. *polling.Loop and
// *polling.Supervisor are sources.
type Source interface {
	Metrics() polling.Metrics
}

var states = []polling.State{
	polling.StateInit,
	polling.StateWakeDelay,
	polling.StateQueryFirmware,
	polling.StateConfigureSAM,
	polling.StateScanning,
	polling.StateStopped,
	polling.StateFailed,
}

// Collector reads a Source on every scrape.
type Collector struct {
	source        Source
	pollCycles    *prometheus.Desc
	noTargetPolls *prometheus.Desc
	cardsDetected *prometheus.Desc
	failures      *prometheus.Desc
	restarts      *prometheus.Desc
	pollLatency   *prometheus.Desc
	state         *prometheus.Desc
}

// NewCollector creates a collector labelled with the process run ID.
func NewCollector(source Source, runID string) *Collector {
	labels := prometheus.Labels{"run_id": runID}
	desc := func(name, help string, variable ...string) *prometheus.Desc {
		return prometheus.NewDesc(prometheus.BuildFQName(namespace, "", name), help, variable, labels)
	}
	return &Collector{
		source:        source,
		pollCycles:    desc("poll_cycles_total", "Passive target reads attempted."),
		noTargetPolls: desc("no_target_polls_total", "Passive target reads that found no card."),
		cardsDetected: desc("cards_detected_total", "Passive target reads that returned a UID."),
		failures:      desc("session_failures_total", "Scan sessions that ended in the failed state."),
		restarts:      desc("session_restarts_total", "Scan sessions restarted after a failure."),
		pollLatency:   desc("last_poll_latency_seconds", "Duration of the last passive target read."),
		state:         desc("scan_state", "Current scan state, 1 for the active state.", "state"),
	}
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.pollCycles
	ch <- c.noTargetPolls
	ch <- c.cardsDetected
	ch <- c.failures
	ch <- c.restarts
	ch <- c.pollLatency
	ch <- c.state
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	m := c.source.Metrics()

	ch <- prometheus.MustNewConstMetric(c.pollCycles, prometheus.CounterValue, float64(m.PollCycles))
	ch <- prometheus.MustNewConstMetric(c.noTargetPolls, prometheus.CounterValue, float64(m.NoTargetPolls))
	ch <- prometheus.MustNewConstMetric(c.cardsDetected, prometheus.CounterValue, float64(m.CardsDetected))
	ch <- prometheus.MustNewConstMetric(c.failures, prometheus.CounterValue, float64(m.Failures))
	ch <- prometheus.MustNewConstMetric(c.restarts, prometheus.CounterValue, float64(m.Restarts))
	ch <- prometheus.MustNewConstMetric(c.pollLatency, prometheus.GaugeValue, m.LastPollLatency.Seconds())
	for _, s := range states {
		value := 0.0
		if s == m.State {
			value = 1
		}
		ch <- prometheus.MustNewConstMetric(c.state, prometheus.GaugeValue, value, s.String())
	}
}

// NewRegistry creates a registry with the Go and process collectors
// registered.
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// Handler returns the exposition handler for reg.
func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})
}

// NewServer returns an HTTP server exposing reg on /metrics.
func NewServer(addr string, reg *prometheus.Registry) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler(reg))
	return &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
}
