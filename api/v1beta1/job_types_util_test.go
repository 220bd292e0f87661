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
	"testing"
	"time"

	"gotest.tools/assert"
)

func TestJobStatusShouldRetry(t *testing.T) {
	var tc = &TimeConverter{}
	var failedAt = time.Now()

	var status = JobStatus{Phase: JobPhaseFailed, LastUpdateTime: tc.ToString(failedAt)}
	assert.Equal(t, status.ShouldRetry(failedAt.Add(10*time.Second), 60), false)
	assert.Equal(t, status.ShouldRetry(failedAt.Add(90*time.Second), 60), true)

	// Never failed
	status = JobStatus{Phase: JobPhaseSubmitted, LastUpdateTime: tc.ToString(failedAt)}
	assert.Equal(t, status.ShouldRetry(failedAt.Add(90*time.Second), 60), false)

	// No timestamp recorded
	status = JobStatus{Phase: JobPhaseFailed}
	assert.Equal(t, status.ShouldRetry(failedAt, 60), true)
}

func TestJobStatusIsSubmitted(t *testing.T) {
	var status = JobStatus{Phase: JobPhaseSubmitted, ObservedGeneration: 2}
	assert.Equal(t, status.IsSubmitted(2), true)
	assert.Equal(t, status.IsSubmitted(3), false)

	var nilStatus *JobStatus
	assert.Equal(t, nilStatus.IsSubmitted(1), false)
}

func TestTimeConverter(t *testing.T) {
	var tc = &TimeConverter{}
	var timestamp = time.Date(2020, 1, 2, 3, 4, 5, 0, time.UTC)
	assert.Equal(t, tc.ToString(timestamp), "2020-01-02T03:04:05Z")
	assert.Assert(t, tc.FromString("2020-01-02T03:04:05Z").Equal(timestamp))
	assert.Equal(t, tc.ToEpochMillis(time.Unix(12, 345000000)), int64(12345))
}

// Deep copies of a region own their containers.
func TestConsistentRegionDeepCopy(t *testing.T) {
	var template = ConsistentRegionTemplate{
		RegionIndex:            0,
		Trigger:                TriggerPeriodic,
		Pes:                    []int64{1, 2},
		OperatorsToStartRegion: []string{"src"},
		OperatorsToTrigger:     []string{"trig"},
	}
	_SetConsistentRegionDefault(&template)
	var region = ConsistentRegion{Spec: NewConsistentRegionSpec("job", &template)}
	region.Spec.AvgDrainTime.AddSample(5)

	var copied = region.DeepCopy()
	copied.Spec.PesInRegion[0] = 9
	copied.Spec.PeToCompletion["1"] = PeStatusDrained
	copied.Spec.OperatorsToStartRegionMap["other"] = true
	copied.Spec.OperatorsToTriggerMap["trig"] = false
	copied.Spec.AvgDrainTime.Samples[0] = 7

	assert.DeepEqual(t, region.Spec.PesInRegion, []int64{1, 2})
	assert.Equal(t, region.Spec.PeToCompletion["1"], PeStatusNone)
	assert.Equal(t, len(region.Spec.OperatorsToStartRegionMap), 1)
	assert.Equal(t, region.Spec.OperatorsToTriggerMap["trig"], true)
	assert.Equal(t, region.Spec.AvgDrainTime.Samples[0], int64(5))
}
