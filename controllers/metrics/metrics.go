/*
Copyright 2019 Google LLC.

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

// Package metrics exports the consistent region gauges.
package metrics

import (
	"fmt"
	"strconv"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Consistent region metrics.
const (
	AverageDrainTime        = "average_drain_time_milliseconds"
	AverageResetTime        = "average_reset_time_milliseconds"
	LastConsistentStateTime = "last_consistent_state_time_milliseconds"
	LastResetTime           = "last_reset_time_milliseconds"
	LastCompletedDrainSeqID = "last_completed_drain_seq_id"
	LastCompletedResetSeqID = "last_completed_reset_seq_id"
	State                   = "state"
	CurrentResetAttempts    = "n_current_reset_attempts"
)

var metricHelp = map[string]string{
	AverageDrainTime:        "Average time of the last drains of the region.",
	AverageResetTime:        "Average time of the last resets of the region.",
	LastConsistentStateTime: "Time the region last reached a consistent state.",
	LastResetTime:           "Time the region was last reset.",
	LastCompletedDrainSeqID: "Sequence ID of the last completed drain.",
	LastCompletedResetSeqID: "Sequence ID of the last completed reset.",
	State:                   "State of the region, 0 STARTED to 6 MAXIMUM_RESET_ATTEMPTS_REACHED.",
	CurrentResetAttempts:    "Number of consecutive reset attempts.",
}

// RegionID identifies the region a metric belongs to.
type RegionID struct {
	Namespace string
	Job       string
	Region    int32
}

func (r RegionID) labels() []string {
	return []string{r.Namespace, r.Job, strconv.Itoa(int(r.Region))}
}

// Sink receives metric updates from the region state machine.
type Sink interface {
	UpdateMetric(region RegionID, name string, value int64)
	DeleteRegion(region RegionID)
}

// NopSink drops every update.
type NopSink struct{}

func (NopSink) UpdateMetric(RegionID, string, int64) {}

func (NopSink) DeleteRegion(RegionID) {}

// PrometheusSink keeps one gauge vector per metric.
type PrometheusSink struct {
	gauges map[string]*prometheus.GaugeVec
}

// NewPrometheusSink creates the gauges and registers them.
func NewPrometheusSink(registerer prometheus.Registerer) (*PrometheusSink, error) {
	var sink = &PrometheusSink{gauges: map[string]*prometheus.GaugeVec{}}
	for name, help := range metricHelp {
		var gauge = prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "streams",
				Subsystem: "consistent_region",
				Name:      name,
				Help:      help,
			},
			[]string{"namespace", "job", "region"},
		)
		if err := registerer.Register(gauge); err != nil {
			return nil, fmt.Errorf("failed to register metric %v: %w", name, err)
		}
		sink.gauges[name] = gauge
	}
	return sink, nil
}

// UpdateMetric sets the gauge of the region. Unknown metrics are ignored.
func (s *PrometheusSink) UpdateMetric(region RegionID, name string, value int64) {
	if gauge, ok := s.gauges[name]; ok {
		gauge.WithLabelValues(region.labels()...).Set(float64(value))
	}
}

// DeleteRegion removes the series of a deleted region.
func (s *PrometheusSink) DeleteRegion(region RegionID) {
	for _, gauge := range s.gauges {
		gauge.DeleteLabelValues(region.labels()...)
	}
}

// Gauge returns the gauge vector of a metric.
func (s *PrometheusSink) Gauge(name string) *prometheus.GaugeVec {
	return s.gauges[name]
}

// RecordingSink keeps the last value of every metric, for tests and for the
// REST view of a region.
type RecordingSink struct {
	mu     sync.Mutex
	values map[RegionID]map[string]int64
}

func NewRecordingSink() *RecordingSink {
	return &RecordingSink{values: map[RegionID]map[string]int64{}}
}

func (s *RecordingSink) UpdateMetric(region RegionID, name string, value int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.values[region] == nil {
		s.values[region] = map[string]int64{}
	}
	s.values[region][name] = value
}

func (s *RecordingSink) DeleteRegion(region RegionID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.values, region)
}

// Value returns the last value of a metric and whether it was set.
func (s *RecordingSink) Value(region RegionID, name string) (int64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	value, ok := s.values[region][name]
	return value, ok
}

// MultiSink fans updates out to several sinks.
type MultiSink []Sink

func (m MultiSink) UpdateMetric(region RegionID, name string, value int64) {
	for _, sink := range m {
		sink.UpdateMetric(region, name, value)
	}
}

func (m MultiSink) DeleteRegion(region RegionID) {
	for _, sink := range m {
		sink.DeleteRegion(region)
	}
}
