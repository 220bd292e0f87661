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

// Package timer arms the drain and reset timers of consistent regions.
package timer

import (
	"sort"
	"sync"
	"time"

	"k8s.io/apimachinery/pkg/types"
	"k8s.io/apimachinery/pkg/util/clock"
)

// Kind of a region timer.
type Kind string

// Region timers.
const (
	DrainPeriod  Kind = "DrainPeriod"
	DrainTimeout Kind = "DrainTimeout"
	ResetTimeout Kind = "ResetTimeout"
)

// Event is delivered when a timer fires. TimerSeqID is the nonce of the
// region when the timer was armed.
type Event struct {
	Region     types.NamespacedName
	Kind       Kind
	TimerSeqID int64
}

// Scheduler keeps at most one timer of each kind per region.
type Scheduler struct {
	clock clock.Clock
	fire  func(Event)

	mu     sync.Mutex
	timers map[types.NamespacedName]map[Kind]*armedTimer
}

type armedTimer struct {
	event Event
	timer clock.Timer
	stop  chan struct{}
}

// NewScheduler returns a scheduler calling fire from its own goroutine
// whenever a timer expires.
func NewScheduler(clk clock.Clock, fire func(Event)) *Scheduler {
	if clk == nil {
		clk = clock.RealClock{}
	}
	return &Scheduler{
		clock:  clk,
		fire:   fire,
		timers: map[types.NamespacedName]map[Kind]*armedTimer{},
	}
}

// Schedule arms a timer, replacing the timer of the same kind of the region.
func (s *Scheduler) Schedule(event Event, after time.Duration) {
	var armed = &armedTimer{
		event: event,
		timer: s.clock.NewTimer(after),
		stop:  make(chan struct{}),
	}

	s.mu.Lock()
	var regionTimers, ok = s.timers[event.Region]
	if !ok {
		regionTimers = map[Kind]*armedTimer{}
		s.timers[event.Region] = regionTimers
	}
	if previous, ok := regionTimers[event.Kind]; ok {
		previous.cancel()
	}
	regionTimers[event.Kind] = armed
	s.mu.Unlock()

	go s.wait(armed)
}

// Cancel disarms every timer of the region.
func (s *Scheduler) Cancel(region types.NamespacedName) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, armed := range s.timers[region] {
		armed.cancel()
	}
	delete(s.timers, region)
}

// Armed returns the kinds of the timers armed for the region, sorted.
func (s *Scheduler) Armed(region types.NamespacedName) []Kind {
	s.mu.Lock()
	defer s.mu.Unlock()
	var kinds []Kind
	for kind := range s.timers[region] {
		kinds = append(kinds, kind)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	return kinds
}

// Stop disarms every timer.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for region, regionTimers := range s.timers {
		for _, armed := range regionTimers {
			armed.cancel()
		}
		delete(s.timers, region)
	}
}

func (s *Scheduler) wait(armed *armedTimer) {
	select {
	case <-armed.stop:
		return
	case <-armed.timer.C():
	}

	s.mu.Lock()
	var regionTimers = s.timers[armed.event.Region]
	if regionTimers == nil || regionTimers[armed.event.Kind] != armed {
		s.mu.Unlock()
		return
	}
	delete(regionTimers, armed.event.Kind)
	if len(regionTimers) == 0 {
		delete(s.timers, armed.event.Region)
	}
	s.mu.Unlock()

	s.fire(armed.event)
}

func (t *armedTimer) cancel() {
	t.timer.Stop()
	close(t.stop)
}
