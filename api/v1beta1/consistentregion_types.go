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
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
)

// ConsistentRegionState is the lifecycle state of a consistent region.
type ConsistentRegionState string

// ConsistentRegionState defines states for a consistent region.
const (
	ConsistentRegionStateStarted                     ConsistentRegionState = "STARTED"
	ConsistentRegionStateProcessing                  ConsistentRegionState = "PROCESSING"
	ConsistentRegionStateDraining                    ConsistentRegionState = "DRAINING"
	ConsistentRegionStateResetting                   ConsistentRegionState = "RESETTING"
	ConsistentRegionStateCheckpointPending           ConsistentRegionState = "CHECKPOINT_PENDING"
	ConsistentRegionStateUnhealthy                   ConsistentRegionState = "UNHEALTHY"
	ConsistentRegionStateMaximumResetAttemptsReached ConsistentRegionState = "MAXIMUM_RESET_ATTEMPTS_REACHED"
)

// PeStatus is the per-cycle completion status of a PE in a region.
type PeStatus string

// PeStatus defines the completion states reported by a PE.
const (
	PeStatusNone                   PeStatus = "None"
	PeStatusDrained                PeStatus = "Drained"
	PeStatusBlockingCheckpointDone PeStatus = "BlockingCheckpointDone"
	PeStatusReset                  PeStatus = "Reset"
)

// RegionHealth is the aggregated health of the PEs of a region.
type RegionHealth string

// RegionHealth defines the tri-state health of a region.
const (
	RegionHealthUnknown   RegionHealth = "Unknown"
	RegionHealthHealthy   RegionHealth = "Healthy"
	RegionHealthUnhealthy RegionHealth = "Unhealthy"
)

// Region triggers.
const (
	TriggerPeriodic       = "periodic"
	TriggerOperatorDriven = "operator driven"
)

// MovingAverageSize is the number of samples kept by the drain and reset
// time averages.
const MovingAverageSize = 10

// ConsistentRegionSpec is the persisted state of one consistent region.
type ConsistentRegionSpec struct {
	// The name of the owning job.
	JobName string `json:"jobName"`

	// Index of the region, assigned at job launch.
	RegionIndex int32 `json:"regionIndex"`

	// Logical index of the region in the application.
	LogicalIndex int32 `json:"logicalIndex"`

	// IDs of the PEs in the region.
	PesInRegion []int64 `json:"pesInRegion"`

	// Operators of the region that start the region.
	OperatorsToStartRegionMap map[string]bool `json:"operatorsToStartRegionMap,omitempty"`

	// Operators of the region, true when the operator is a trigger operator.
	OperatorsToTriggerMap map[string]bool `json:"operatorsToTriggerMap,omitempty"`

	// Trigger, enum("periodic", "operator driven").
	Trigger string `json:"trigger"`

	// Drain period for periodic regions.
	Period metav1.Duration `json:"period,omitempty"`

	// Drain timeout.
	DrainTimeout metav1.Duration `json:"drainTimeout"`

	// Reset timeout.
	ResetTimeout metav1.Duration `json:"resetTimeout"`

	// Maximum number of consecutive reset attempts.
	MaxConsecutiveResetAttempts int64 `json:"maxConsecutiveResetAttempts"`

	// Current state of the region.
	State ConsistentRegionState `json:"state,omitempty"`

	// Reset attempt counters.
	CurrentResetAttempt     int64 `json:"currentResetAttempt"`
	CurrentMaxResetAttempts int64 `json:"currentMaxResetAttempts"`

	// Sequence IDs of the drain and reset cycles.
	CurrentSeqID       int64 `json:"currentSeqID"`
	LastCompletedSeqID int64 `json:"lastCompletedSeqID"`
	PendingSeqID       int64 `json:"pendingSeqID"`
	ToRetireSeqID      int64 `json:"toRetireSeqID"`

	// Completion status of each PE for the current cycle, keyed by PE ID.
	PeToCompletion map[string]PeStatus `json:"peToCompletion,omitempty"`

	// Flags governing the transitions.
	IsRegionHealthy    bool `json:"regionHealthy"`
	IsCleanStart       bool `json:"cleanStart"`
	IsHealthyFirstTime bool `json:"healthyFirstTime"`
	IsMustReset        bool `json:"mustReset"`

	// Last observed aggregated health.
	Health RegionHealth `json:"health,omitempty"`

	// Average drain and reset times in milliseconds.
	AvgDrainTime MovingAverage `json:"avgDrainTime"`
	AvgResetTime MovingAverage `json:"avgResetTime"`

	// Start of the current drain and reset, epoch milliseconds.
	DrainStartTimestamp int64 `json:"drainStartTimestamp,omitempty"`
	ResetStartTimestamp int64 `json:"resetStartTimestamp,omitempty"`

	// Metric values.
	LastCompletedDrain      int64 `json:"lastCompletedDrain,omitempty"`
	LastCompletedReset      int64 `json:"lastCompletedReset,omitempty"`
	LastConsistentStateTime int64 `json:"lastConsistentStateTime,omitempty"`
	LastResetTime           int64 `json:"lastResetTime,omitempty"`
	AvgDrainTimeMetric      int64 `json:"avgDrainTimeMetric,omitempty"`
	AvgResetTimeMetric      int64 `json:"avgResetTimeMetric,omitempty"`

	// Nonce of the armed timers.
	CurrentTimerSeqID int64 `json:"currentTimerSeqID"`
}

// +kubebuilder:object:root=true
// +kubebuilder:printcolumn:name="Job",type=string,JSONPath=`.spec.jobName`
// +kubebuilder:printcolumn:name="Region",type=integer,JSONPath=`.spec.regionIndex`
// +kubebuilder:printcolumn:name="State",type=string,JSONPath=`.spec.state`
// +kubebuilder:printcolumn:name="Health",type=string,JSONPath=`.spec.health`

// ConsistentRegion is the Schema for the consistentregions API
type ConsistentRegion struct {
	metav1.TypeMeta   `json:",inline"`
	metav1.ObjectMeta `json:"metadata,omitempty"`

	Spec ConsistentRegionSpec `json:"spec"`
}

// +kubebuilder:object:root=true

// ConsistentRegionList contains a list of ConsistentRegion
type ConsistentRegionList struct {
	metav1.TypeMeta `json:",inline"`
	metav1.ListMeta `json:"metadata,omitempty"`
	Items           []ConsistentRegion `json:"items"`
}

func init() {
	SchemeBuilder.Register(&ConsistentRegion{}, &ConsistentRegionList{})
}
