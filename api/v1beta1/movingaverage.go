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

package v1beta1

// MovingAverage is a bounded window of samples, most recent first, with a
// running total.
type MovingAverage struct {
	// Capacity of the window.
	MaxSize int32 `json:"maxSize"`

	// Retained samples, most recent first.
	Samples []int64 `json:"samples,omitempty"`

	// Sum of the retained samples.
	Total int64 `json:"total"`
}

// NewMovingAverage returns an empty average holding at most size samples.
func NewMovingAverage(size int32) MovingAverage {
	return MovingAverage{MaxSize: size}
}

// AddSample records a sample, evicting the oldest one when the window is
// full.
func (m *MovingAverage) AddSample(sample int64) {
	if m.MaxSize <= 0 {
		m.MaxSize = MovingAverageSize
	}
	if int32(len(m.Samples)) >= m.MaxSize {
		var last = len(m.Samples) - 1
		m.Total -= m.Samples[last]
		m.Samples = m.Samples[:last]
	}
	m.Samples = append([]int64{sample}, m.Samples...)
	m.Total += sample
}

// CalcAverage returns the mean of the retained samples, 0 when empty.
func (m *MovingAverage) CalcAverage() float64 {
	if len(m.Samples) == 0 {
		return 0
	}
	return float64(m.Total) / float64(len(m.Samples))
}

// Count returns the number of retained samples.
func (m *MovingAverage) Count() int {
	return len(m.Samples)
}
