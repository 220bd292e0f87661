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
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
)

// Labels and annotations set by the operator.
const (
	LabelJob        = "streamsoperator.k8s.io/job"
	LabelPeID       = "streamsoperator.k8s.io/pe-id"
	LabelGeneration = "streamsoperator.k8s.io/generation"
	LabelRegion     = "streamsoperator.k8s.io/region"

	AnnotationLaunchCount      = "streamsoperator.k8s.io/launch-count"
	AnnotationApplicationScope = "streamsoperator.k8s.io/application-scope"
)

// JobPhase defines phases of a job.
const (
	JobPhaseSubmitting = "Submitting"
	JobPhaseSubmitted  = "Submitted"
	JobPhaseFailed     = "Failed"
)

// BundlePullPolicy defines when the application bundle is fetched.
type BundlePullPolicy = string

const (
	// BundlePullPolicyAlways - always fetch the bundle from its URL.
	BundlePullPolicyAlways = "Always"

	// BundlePullPolicyIfNotPresent - use the cached bundle when present.
	BundlePullPolicyIfNotPresent = "IfNotPresent"
)

// BundleSpec defines where the application bundle of a job comes from.
type BundleSpec struct {
	// Bundle name.
	Name string `json:"name"`

	// URL of the bundle.
	URL string `json:"url"`

	// Pull policy, enum("Always", "IfNotPresent"), default: IfNotPresent.
	PullPolicy BundlePullPolicy `json:"pullPolicy,omitempty"`
}

// ProcessingElementTemplate describes one PE of the job.
type ProcessingElementTemplate struct {
	// PE ID.
	ID int64 `json:"id"`

	// Runtime descriptor of the PE, passed to its pod as environment.
	Descriptor map[string]string `json:"descriptor,omitempty"`

	// Restart the pod when it fails, default: true.
	RestartFailedPod *bool `json:"restartFailedPod,omitempty"`

	// Restart the pod when it is deleted, default: true.
	RestartDeletedPod *bool `json:"restartDeletedPod,omitempty"`
}

// ConsistentRegionTemplate describes one consistent region of the job.
type ConsistentRegionTemplate struct {
	// Region index.
	RegionIndex int32 `json:"regionIndex"`

	// Logical index.
	LogicalIndex int32 `json:"logicalIndex"`

	// Trigger, enum("periodic", "operator driven").
	Trigger string `json:"trigger"`

	// Drain period, default: 30s for periodic regions.
	Period *metav1.Duration `json:"period,omitempty"`

	// Drain timeout, default: 180s.
	DrainTimeout *metav1.Duration `json:"drainTimeout,omitempty"`

	// Reset timeout, default: 180s.
	ResetTimeout *metav1.Duration `json:"resetTimeout,omitempty"`

	// Maximum consecutive reset attempts, default: 5.
	MaxConsecutiveResetAttempts *int64 `json:"maxConsecutiveResetAttempts,omitempty"`

	// PEs of the region.
	Pes []int64 `json:"pes"`

	// Operators that start the region.
	OperatorsToStartRegion []string `json:"operatorsToStartRegion,omitempty"`

	// Operators allowed to trigger a drain.
	OperatorsToTrigger []string `json:"operatorsToTrigger,omitempty"`
}

// JobSpec defines the desired state of Job
type JobSpec struct {
	// Application bundle.
	Bundle BundleSpec `json:"bundle"`

	// PE runtime image.
	Image string `json:"image"`

	// Image pull policy of PE pods.
	ImagePullPolicy corev1.PullPolicy `json:"imagePullPolicy,omitempty"`

	// Secrets for image pull.
	ImagePullSecrets []corev1.LocalObjectReference `json:"imagePullSecrets,omitempty"`

	// Log level of the consistent region operator.
	LogLevel string `json:"logLevel,omitempty"`

	// PEs of the job.
	ProcessingElements []ProcessingElementTemplate `json:"processingElements"`

	// Consistent regions of the job.
	ConsistentRegions []ConsistentRegionTemplate `json:"consistentRegions,omitempty"`
}

// JobStatus defines the observed state of Job
type JobStatus struct {
	// Phase of the job.
	Phase string `json:"phase,omitempty"`

	// Details of the last failure.
	Message string `json:"message,omitempty"`

	// Digest of the loaded bundle.
	BundleDigest string `json:"bundleDigest,omitempty"`

	// Generation the PEs were last synchronized with.
	ObservedGeneration int64 `json:"observedGeneration,omitempty"`

	// Number of PEs.
	ProcessingElementCount int32 `json:"processingElementCount,omitempty"`

	// Last update timestamp for this status.
	LastUpdateTime string `json:"lastUpdateTime,omitempty"`
}

// +kubebuilder:object:root=true
// +kubebuilder:subresource:status
// +kubebuilder:printcolumn:name="Phase",type=string,JSONPath=`.status.phase`

// Job is the Schema for the jobs API
type Job struct {
	metav1.TypeMeta   `json:",inline"`
	metav1.ObjectMeta `json:"metadata,omitempty"`

	Spec   JobSpec   `json:"spec"`
	Status JobStatus `json:"status,omitempty"`
}

// +kubebuilder:object:root=true

// JobList contains a list of Job
type JobList struct {
	metav1.TypeMeta `json:",inline"`
	metav1.ListMeta `json:"metadata,omitempty"`
	Items           []Job `json:"items"`
}

func init() {
	SchemeBuilder.Register(&Job{}, &JobList{})
}
