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
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/utils/pointer"
)

func newTestJob() *Job {
	var job = &Job{
		ObjectMeta: metav1.ObjectMeta{
			Name:      "wordcount",
			Namespace: "default",
		},
		Spec: JobSpec{
			Bundle: BundleSpec{Name: "wordcount", URL: "http://bundles/wordcount.sab"},
			Image:  "streams-runtime:7.0",
			ProcessingElements: []ProcessingElementTemplate{
				{ID: 0}, {ID: 1}, {ID: 2},
			},
			ConsistentRegions: []ConsistentRegionTemplate{
				{RegionIndex: 0, Pes: []int64{0, 1}},
			},
		},
	}
	_SetJobDefault(job)
	return job
}

func newTestRegion() *ConsistentRegion {
	var job = newTestJob()
	return &ConsistentRegion{
		ObjectMeta: metav1.ObjectMeta{
			Name:      ConsistentRegionName(job.Name, 0),
			Namespace: job.Namespace,
		},
		Spec: NewConsistentRegionSpec(job.Name, &job.Spec.ConsistentRegions[0]),
	}
}

func TestValidateJobCreate(t *testing.T) {
	var validator = &Validator{}
	var job = newTestJob()
	assert.NilError(t, validator.ValidateJobCreate(job))
}

func TestValidateJobCreateDuplicatePe(t *testing.T) {
	var validator = &Validator{}
	var job = newTestJob()
	job.Spec.ProcessingElements = append(
		job.Spec.ProcessingElements, ProcessingElementTemplate{ID: 1})
	var err = validator.ValidateJobCreate(job)
	assert.Error(t, err, "duplicate PE ID: 1")
}

func TestValidateJobCreateUnknownRegionPe(t *testing.T) {
	var validator = &Validator{}
	var job = newTestJob()
	job.Spec.ConsistentRegions[0].Pes = []int64{0, 9}
	var err = validator.ValidateJobCreate(job)
	assert.Error(t, err, "consistent region 0 refers to unknown PE 9")
}

func TestValidateJobCreateInvalidTrigger(t *testing.T) {
	var validator = &Validator{}
	var job = newTestJob()
	job.Spec.ConsistentRegions[0].Trigger = "sometimes"
	var err = validator.ValidateJobCreate(job)
	assert.Error(t, err, "invalid trigger: sometimes")
}

func TestValidateJobCreateInvalidResetAttempts(t *testing.T) {
	var validator = &Validator{}
	var job = newTestJob()
	job.Spec.ConsistentRegions[0].MaxConsecutiveResetAttempts = pointer.Int64Ptr(0)
	var err = validator.ValidateJobCreate(job)
	assert.Error(t, err, "consistent region 0 maxConsecutiveResetAttempts must be positive")
}

func TestValidateJobUpdateRegions(t *testing.T) {
	var validator = &Validator{}
	var oldJob = newTestJob()
	var newJob = newTestJob()
	newJob.Spec.ConsistentRegions[0].Pes = []int64{0}
	var err = validator.ValidateJobUpdate(oldJob, newJob)
	assert.Error(t, err, "consistent regions cannot be updated")

	newJob = newTestJob()
	newJob.Spec.Image = "streams-runtime:7.1"
	assert.NilError(t, validator.ValidateJobUpdate(oldJob, newJob))
}

func TestValidateRegionCreate(t *testing.T) {
	var validator = &Validator{}
	var region = newTestRegion()
	assert.NilError(t, validator.ValidateRegionCreate(region))

	region.Spec.LastCompletedSeqID = 3
	var err = validator.ValidateRegionCreate(region)
	assert.Error(t, err, "lastCompletedSeqID 3 is ahead of currentSeqID 0")

	region = newTestRegion()
	delete(region.Spec.PeToCompletion, "1")
	err = validator.ValidateRegionCreate(region)
	assert.Error(t, err, "peToCompletion does not match pesInRegion")
}

func TestValidateRegionUpdateImmutable(t *testing.T) {
	var validator = &Validator{}
	var oldRegion = newTestRegion()
	var newRegion = newTestRegion()
	newRegion.Spec.DrainTimeout = metav1.Duration{Duration: time.Second}
	var err = validator.ValidateRegionUpdate(oldRegion, newRegion)
	assert.Error(t, err, "timeouts is immutable for consistent region wordcount-cr0")
}

func TestValidateRegionUpdateTransition(t *testing.T) {
	var validator = &Validator{}
	var oldRegion = newTestRegion()
	var newRegion = newTestRegion()
	newRegion.Spec.State = ConsistentRegionStateDraining
	var err = validator.ValidateRegionUpdate(oldRegion, newRegion)
	assert.Error(
		t, err, "invalid state transition for consistent region wordcount-cr0: STARTED -> DRAINING")

	newRegion.Spec.State = ConsistentRegionStateProcessing
	assert.NilError(t, validator.ValidateRegionUpdate(oldRegion, newRegion))
}

func TestCanTransition(t *testing.T) {
	assert.Assert(t, CanTransition(
		ConsistentRegionStateResetting, ConsistentRegionStateResetting))
	assert.Assert(t, CanTransition(
		ConsistentRegionStateMaximumResetAttemptsReached, ConsistentRegionStateResetting))
	assert.Assert(t, !CanTransition(
		ConsistentRegionStateMaximumResetAttemptsReached, ConsistentRegionStateProcessing))
	assert.Assert(t, !CanTransition(
		ConsistentRegionStateUnhealthy, ConsistentRegionStateDraining))
}
