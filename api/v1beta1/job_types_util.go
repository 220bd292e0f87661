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

import (
	"fmt"
	"time"
)

// IsSubmitted returns true once the PEs and regions of the job have been
// created for its current generation.
func (j *JobStatus) IsSubmitted(generation int64) bool {
	return j != nil &&
		j.Phase == JobPhaseSubmitted &&
		j.ObservedGeneration == generation
}

func (j *JobStatus) IsFailed() bool {
	return j != nil && j.Phase == JobPhaseFailed
}

// ShouldRetry returns true if a failed job may be submitted again, which is
// the case after the retry interval has passed since the failure.
func (j *JobStatus) ShouldRetry(now time.Time, intervalSec int) bool {
	if !j.IsFailed() {
		return false
	}
	if j.LastUpdateTime == "" {
		return true
	}
	return hasTimeElapsed(j.LastUpdateTime, now, intervalSec)
}

// TimeConverter converts between time.Time and string.
type TimeConverter struct{}

// FromString converts string to time.Time.
func (tc *TimeConverter) FromString(timeStr string) time.Time {
	timestamp, err := time.Parse(
		time.RFC3339, timeStr)
	if err != nil {
		panic(fmt.Sprintf("Failed to parse time string: %s", timeStr))
	}
	return timestamp
}

// ToString converts time.Time to string.
func (tc *TimeConverter) ToString(timestamp time.Time) string {
	return timestamp.Format(time.RFC3339)
}

// ToEpochMillis converts time.Time to the millisecond timestamps stored in
// consistent region specs.
func (tc *TimeConverter) ToEpochMillis(timestamp time.Time) int64 {
	return timestamp.UnixNano() / int64(time.Millisecond)
}

// Check time has passed
func hasTimeElapsed(timeToCheckStr string, now time.Time, intervalSec int) bool {
	tc := &TimeConverter{}
	timeToCheck := tc.FromString(timeToCheckStr)
	intervalPassedTime := timeToCheck.Add(time.Duration(int64(intervalSec) * int64(time.Second)))
	return now.After(intervalPassedTime)
}
