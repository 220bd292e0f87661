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
	"reflect"

	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
)

const (
	ImmutableRegionFieldMsg = "%v is immutable for consistent region %v"
	InvalidTransitionMsg    = "invalid state transition for consistent region %v: %v -> %v"
)

// ConsistentRegionTransitions lists, for each state, the states a region may
// move to in a single update.
var ConsistentRegionTransitions = map[ConsistentRegionState][]ConsistentRegionState{
	ConsistentRegionStateStarted: {
		ConsistentRegionStateProcessing,
		ConsistentRegionStateResetting,
		ConsistentRegionStateMaximumResetAttemptsReached,
	},
	ConsistentRegionStateProcessing: {
		ConsistentRegionStateDraining,
		ConsistentRegionStateResetting,
		ConsistentRegionStateUnhealthy,
		ConsistentRegionStateMaximumResetAttemptsReached,
	},
	ConsistentRegionStateDraining: {
		ConsistentRegionStateProcessing,
		ConsistentRegionStateCheckpointPending,
		ConsistentRegionStateResetting,
		ConsistentRegionStateUnhealthy,
		ConsistentRegionStateMaximumResetAttemptsReached,
	},
	ConsistentRegionStateCheckpointPending: {
		ConsistentRegionStateProcessing,
		ConsistentRegionStateResetting,
		ConsistentRegionStateUnhealthy,
		ConsistentRegionStateMaximumResetAttemptsReached,
	},
	ConsistentRegionStateResetting: {
		ConsistentRegionStateProcessing,
		ConsistentRegionStateUnhealthy,
		ConsistentRegionStateMaximumResetAttemptsReached,
	},
	ConsistentRegionStateUnhealthy: {
		ConsistentRegionStateResetting,
		ConsistentRegionStateMaximumResetAttemptsReached,
	},
	ConsistentRegionStateMaximumResetAttemptsReached: {
		ConsistentRegionStateResetting,
		ConsistentRegionStateUnhealthy,
	},
}

// CanTransition returns true if a region may move from one state to another.
func CanTransition(from, to ConsistentRegionState) bool {
	if from == to {
		return true
	}
	for _, next := range ConsistentRegionTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Validator validates CUD requests for the CRs.
type Validator struct{}

// ValidateJobCreate validates create request for a job.
func (v *Validator) ValidateJobCreate(job *Job) error {
	var err error
	err = v.validateMeta(&job.ObjectMeta)
	if err != nil {
		return err
	}
	err = v.validateBundle(&job.Spec.Bundle)
	if err != nil {
		return err
	}
	if len(job.Spec.Image) == 0 {
		return fmt.Errorf("image is unspecified")
	}
	var pes = map[int64]bool{}
	for _, pe := range job.Spec.ProcessingElements {
		if pe.ID < 0 {
			return fmt.Errorf("invalid PE ID: %v", pe.ID)
		}
		if pes[pe.ID] {
			return fmt.Errorf("duplicate PE ID: %v", pe.ID)
		}
		pes[pe.ID] = true
	}
	var regions = map[int32]bool{}
	for i := range job.Spec.ConsistentRegions {
		var region = &job.Spec.ConsistentRegions[i]
		if regions[region.RegionIndex] {
			return fmt.Errorf("duplicate region index: %v", region.RegionIndex)
		}
		regions[region.RegionIndex] = true
		err = v.validateRegionTemplate(region, pes)
		if err != nil {
			return err
		}
	}
	return nil
}

// ValidateJobUpdate validates update request for a job.
func (v *Validator) ValidateJobUpdate(old *Job, new *Job) error {
	// Skip remaining validation if no changes in spec.
	if reflect.DeepEqual(new.Spec, old.Spec) {
		return nil
	}
	if !reflect.DeepEqual(new.Spec.ConsistentRegions, old.Spec.ConsistentRegions) {
		return fmt.Errorf("consistent regions cannot be updated")
	}
	return v.ValidateJobCreate(new)
}

// ValidateRegionCreate validates create request for a consistent region.
func (v *Validator) ValidateRegionCreate(region *ConsistentRegion) error {
	var err error
	err = v.validateMeta(&region.ObjectMeta)
	if err != nil {
		return err
	}
	var spec = &region.Spec
	if len(spec.JobName) == 0 {
		return fmt.Errorf("job name is unspecified")
	}
	if len(spec.PesInRegion) == 0 {
		return fmt.Errorf("consistent region %v has no PE", spec.RegionIndex)
	}
	err = v.validateTrigger(spec.Trigger, spec.Period)
	if err != nil {
		return err
	}
	err = v.validateTimeouts(spec.DrainTimeout, spec.ResetTimeout)
	if err != nil {
		return err
	}
	if spec.MaxConsecutiveResetAttempts <= 0 {
		return fmt.Errorf(
			"invalid maxConsecutiveResetAttempts: %v", spec.MaxConsecutiveResetAttempts)
	}
	if _, ok := ConsistentRegionTransitions[spec.State]; !ok {
		return fmt.Errorf("invalid consistent region state: %v", spec.State)
	}
	if spec.LastCompletedSeqID > spec.CurrentSeqID {
		return fmt.Errorf(
			"lastCompletedSeqID %v is ahead of currentSeqID %v",
			spec.LastCompletedSeqID, spec.CurrentSeqID)
	}
	if len(spec.PeToCompletion) != len(spec.PesInRegion) {
		return fmt.Errorf("peToCompletion does not match pesInRegion")
	}
	for _, id := range spec.PesInRegion {
		if _, ok := spec.PeToCompletion[PeKey(id)]; !ok {
			return fmt.Errorf("peToCompletion does not match pesInRegion")
		}
	}
	return nil
}

// ValidateRegionUpdate validates update request for a consistent region.
func (v *Validator) ValidateRegionUpdate(
	old *ConsistentRegion, new *ConsistentRegion) error {
	var name = new.ObjectMeta.Name
	var o, n = &old.Spec, &new.Spec
	if o.JobName != n.JobName {
		return fmt.Errorf(ImmutableRegionFieldMsg, "jobName", name)
	}
	if o.RegionIndex != n.RegionIndex || o.LogicalIndex != n.LogicalIndex {
		return fmt.Errorf(ImmutableRegionFieldMsg, "regionIndex", name)
	}
	if !reflect.DeepEqual(o.PesInRegion, n.PesInRegion) {
		return fmt.Errorf(ImmutableRegionFieldMsg, "pesInRegion", name)
	}
	if o.Trigger != n.Trigger || o.Period != n.Period {
		return fmt.Errorf(ImmutableRegionFieldMsg, "trigger", name)
	}
	if o.DrainTimeout != n.DrainTimeout || o.ResetTimeout != n.ResetTimeout {
		return fmt.Errorf(ImmutableRegionFieldMsg, "timeouts", name)
	}
	if o.MaxConsecutiveResetAttempts != n.MaxConsecutiveResetAttempts {
		return fmt.Errorf(ImmutableRegionFieldMsg, "maxConsecutiveResetAttempts", name)
	}
	if !CanTransition(o.State, n.State) {
		return fmt.Errorf(InvalidTransitionMsg, name, o.State, n.State)
	}
	if n.LastCompletedSeqID < o.LastCompletedSeqID {
		return fmt.Errorf("lastCompletedSeqID cannot decrease for consistent region %v", name)
	}
	return v.ValidateRegionCreate(new)
}

func (v *Validator) validateMeta(meta *metav1.ObjectMeta) error {
	if len(meta.Name) == 0 {
		return fmt.Errorf("name is unspecified")
	}
	if len(meta.Namespace) == 0 {
		return fmt.Errorf("namespace is unspecified")
	}
	return nil
}

func (v *Validator) validateBundle(bundle *BundleSpec) error {
	if len(bundle.Name) == 0 {
		return fmt.Errorf("bundle name is unspecified")
	}
	if len(bundle.URL) == 0 {
		return fmt.Errorf("bundle URL is unspecified")
	}
	switch bundle.PullPolicy {
	case BundlePullPolicyAlways, BundlePullPolicyIfNotPresent:
	default:
		return fmt.Errorf("invalid bundle pull policy: %v", bundle.PullPolicy)
	}
	return nil
}

func (v *Validator) validateRegionTemplate(
	region *ConsistentRegionTemplate, pes map[int64]bool) error {
	if len(region.Pes) == 0 {
		return fmt.Errorf("consistent region %v has no PE", region.RegionIndex)
	}
	for _, id := range region.Pes {
		if !pes[id] {
			return fmt.Errorf(
				"consistent region %v refers to unknown PE %v", region.RegionIndex, id)
		}
	}
	var period metav1.Duration
	if region.Period != nil {
		period = *region.Period
	}
	var err = v.validateTrigger(region.Trigger, period)
	if err != nil {
		return err
	}
	if region.DrainTimeout == nil || region.ResetTimeout == nil {
		return fmt.Errorf("consistent region %v timeouts are unspecified", region.RegionIndex)
	}
	err = v.validateTimeouts(*region.DrainTimeout, *region.ResetTimeout)
	if err != nil {
		return err
	}
	if region.MaxConsecutiveResetAttempts == nil || *region.MaxConsecutiveResetAttempts <= 0 {
		return fmt.Errorf(
			"consistent region %v maxConsecutiveResetAttempts must be positive",
			region.RegionIndex)
	}
	return nil
}

func (v *Validator) validateTrigger(trigger string, period metav1.Duration) error {
	switch trigger {
	case TriggerPeriodic:
		if period.Duration <= 0 {
			return fmt.Errorf("drain period must be positive for periodic regions")
		}
	case TriggerOperatorDriven:
	default:
		return fmt.Errorf("invalid trigger: %v", trigger)
	}
	return nil
}

func (v *Validator) validateTimeouts(drain, reset metav1.Duration) error {
	if drain.Duration <= 0 {
		return fmt.Errorf("drain timeout must be positive")
	}
	if reset.Duration <= 0 {
		return fmt.Errorf("reset timeout must be positive")
	}
	return nil
}
