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
	"sort"
	"strconv"
)

// ConsistentRegionName returns the name of the region resource of a job.
func ConsistentRegionName(jobName string, regionIndex int32) string {
	return fmt.Sprintf("%s-cr%d", jobName, regionIndex)
}

// ProcessingElementName returns the name of a PE resource, which is also the
// name of its pod.
func ProcessingElementName(jobName string, peID int64) string {
	return fmt.Sprintf("%s-%d", jobName, peID)
}

// ConsistentRegionOperatorName returns the name of the consistent region
// operator resource of a job.
func ConsistentRegionOperatorName(jobName string) string {
	return jobName + "-cro"
}

// PeKey is the key of a PE in the completion map.
func PeKey(peID int64) string {
	return strconv.FormatInt(peID, 10)
}

// NewConsistentRegionSpec builds the initial state of a region from its
// template. The template must have its defaults set.
func NewConsistentRegionSpec(
	jobName string, template *ConsistentRegionTemplate) ConsistentRegionSpec {
	var pes = append([]int64(nil), template.Pes...)
	sort.Slice(pes, func(i, j int) bool { return pes[i] < pes[j] })
	var spec = ConsistentRegionSpec{
		JobName:                     jobName,
		RegionIndex:                 template.RegionIndex,
		LogicalIndex:                template.LogicalIndex,
		PesInRegion:                 pes,
		OperatorsToStartRegionMap:   map[string]bool{},
		OperatorsToTriggerMap:       map[string]bool{},
		Trigger:                     template.Trigger,
		MaxConsecutiveResetAttempts: *template.MaxConsecutiveResetAttempts,
		CurrentMaxResetAttempts:     *template.MaxConsecutiveResetAttempts,
		State:                       ConsistentRegionStateStarted,
		IsCleanStart:                true,
		Health:                      RegionHealthUnknown,
		AvgDrainTime:                NewMovingAverage(MovingAverageSize),
		AvgResetTime:                NewMovingAverage(MovingAverageSize),
	}
	if template.Period != nil {
		spec.Period = *template.Period
	}
	if template.DrainTimeout != nil {
		spec.DrainTimeout = *template.DrainTimeout
	}
	if template.ResetTimeout != nil {
		spec.ResetTimeout = *template.ResetTimeout
	}
	for _, op := range template.OperatorsToStartRegion {
		spec.OperatorsToStartRegionMap[op] = true
		spec.OperatorsToTriggerMap[op] = false
	}
	for _, op := range template.OperatorsToTrigger {
		spec.OperatorsToTriggerMap[op] = true
	}
	spec.ResetPeToCompletion()
	return spec
}

// HasPe returns true if the PE belongs to the region.
func (s *ConsistentRegionSpec) HasPe(peID int64) bool {
	for _, id := range s.PesInRegion {
		if id == peID {
			return true
		}
	}
	return false
}

// PeStatusOf returns the completion status of a PE of the region.
func (s *ConsistentRegionSpec) PeStatusOf(peID int64) PeStatus {
	if status, ok := s.PeToCompletion[PeKey(peID)]; ok {
		return status
	}
	return PeStatusNone
}

// SetPeStatus records the completion status of a PE of the region.
func (s *ConsistentRegionSpec) SetPeStatus(peID int64, status PeStatus) {
	if s.PeToCompletion == nil {
		s.PeToCompletion = map[string]PeStatus{}
	}
	s.PeToCompletion[PeKey(peID)] = status
}

// ResetPeToCompletion sets every PE of the region back to None. The keys of
// the completion map are exactly the PEs of the region afterwards.
func (s *ConsistentRegionSpec) ResetPeToCompletion() {
	s.PeToCompletion = make(map[string]PeStatus, len(s.PesInRegion))
	for _, id := range s.PesInRegion {
		s.PeToCompletion[PeKey(id)] = PeStatusNone
	}
}

// CountPeStatus returns the number of PEs in any of the given statuses.
func (s *ConsistentRegionSpec) CountPeStatus(statuses ...PeStatus) int {
	var count = 0
	for _, id := range s.PesInRegion {
		var status = s.PeStatusOf(id)
		for _, expected := range statuses {
			if status == expected {
				count++
				break
			}
		}
	}
	return count
}

// IsPeriodic returns true if drains are triggered by the drain period.
func (s *ConsistentRegionSpec) IsPeriodic() bool {
	return s.Trigger == TriggerPeriodic
}

// IsOperatorDriven returns true if drains are requested by trigger operators.
func (s *ConsistentRegionSpec) IsOperatorDriven() bool {
	return s.Trigger == TriggerOperatorDriven
}

// IsTriggerOperator returns true if the operator may request a drain.
func (s *ConsistentRegionSpec) IsTriggerOperator(opName string) bool {
	trigger, ok := s.OperatorsToTriggerMap[opName]
	return ok && trigger
}

// IsActive returns true in the states where the region takes part in drain
// and reset cycles.
func (s ConsistentRegionState) IsActive() bool {
	switch s {
	case ConsistentRegionStateProcessing,
		ConsistentRegionStateDraining,
		ConsistentRegionStateCheckpointPending,
		ConsistentRegionStateResetting:
		return true
	}
	return false
}

// Ordinal is the numeric value exported by the state metric.
func (s ConsistentRegionState) Ordinal() int {
	switch s {
	case ConsistentRegionStateStarted:
		return 0
	case ConsistentRegionStateProcessing:
		return 1
	case ConsistentRegionStateDraining:
		return 2
	case ConsistentRegionStateResetting:
		return 3
	case ConsistentRegionStateCheckpointPending:
		return 4
	case ConsistentRegionStateUnhealthy:
		return 5
	case ConsistentRegionStateMaximumResetAttemptsReached:
		return 6
	}
	return -1
}
