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

// ConsistentRegionOperatorSpec describes the consistent region operator of a
// job.
type ConsistentRegionOperatorSpec struct {
	// Name of the job.
	JobName string `json:"jobName"`

	// Log level.
	LogLevel string `json:"logLevel,omitempty"`

	// Image pull policy.
	ImagePullPolicy corev1.PullPolicy `json:"imagePullPolicy,omitempty"`

	// Image pull secret.
	ImagePullSecret string `json:"imagePullSecret,omitempty"`

	// Number of consistent regions of the job.
	NumRegions int32 `json:"numRegions"`

	// Timer-driven drains are enabled once the operator has started.
	HasStarted bool `json:"hasStarted"`
}

// ConsistentRegionOperatorStatus defines the observed state of
// ConsistentRegionOperator
type ConsistentRegionOperatorStatus struct {
	// Number of operator processes that have driven the regions of the job.
	Launches int32 `json:"launches,omitempty"`
}

// +kubebuilder:object:root=true
// +kubebuilder:subresource:status

// ConsistentRegionOperator is the Schema for the consistentregionoperators API
type ConsistentRegionOperator struct {
	metav1.TypeMeta   `json:",inline"`
	metav1.ObjectMeta `json:"metadata,omitempty"`

	Spec   ConsistentRegionOperatorSpec   `json:"spec"`
	Status ConsistentRegionOperatorStatus `json:"status,omitempty"`
}

// +kubebuilder:object:root=true

// ConsistentRegionOperatorList contains a list of ConsistentRegionOperator
type ConsistentRegionOperatorList struct {
	metav1.TypeMeta `json:",inline"`
	metav1.ListMeta `json:"metadata,omitempty"`
	Items           []ConsistentRegionOperator `json:"items"`
}

func init() {
	SchemeBuilder.Register(&ConsistentRegionOperator{}, &ConsistentRegionOperatorList{})
}
