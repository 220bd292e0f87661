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

// Connectivity is the state of the links of a PE to its peers.
type Connectivity string

// Connectivity values reported by the PE runtime.
const (
	ConnectivityNone    Connectivity = "None"
	ConnectivityPartial Connectivity = "Partial"
	ConnectivityFull    Connectivity = "Full"
)

// ProcessingElementSpec defines the desired state of ProcessingElement
type ProcessingElementSpec struct {
	// Name of the owning job.
	JobName string `json:"jobName"`

	// PE ID.
	ID int64 `json:"id"`

	// Digest of the PE descriptor and bundle.
	ContentID string `json:"contentId,omitempty"`

	// Number of launches of the PE pod.
	LaunchCount int32 `json:"launchCount"`

	// Connectivity reported by the PE.
	Connectivity Connectivity `json:"connectivity,omitempty"`

	// Restart the pod when it fails.
	RestartFailedPod bool `json:"restartFailedPod"`

	// Restart the pod when it is deleted.
	RestartDeletedPod bool `json:"restartDeletedPod"`

	// Runtime descriptor.
	Descriptor map[string]string `json:"descriptor,omitempty"`
}

// +kubebuilder:object:root=true
// +kubebuilder:printcolumn:name="Job",type=string,JSONPath=`.spec.jobName`
// +kubebuilder:printcolumn:name="Launches",type=integer,JSONPath=`.spec.launchCount`
// +kubebuilder:printcolumn:name="Connectivity",type=string,JSONPath=`.spec.connectivity`

// ProcessingElement is the Schema for the processingelements API
type ProcessingElement struct {
	metav1.TypeMeta   `json:",inline"`
	metav1.ObjectMeta `json:"metadata,omitempty"`

	Spec ProcessingElementSpec `json:"spec"`
}

// +kubebuilder:object:root=true

// ProcessingElementList contains a list of ProcessingElement
type ProcessingElementList struct {
	metav1.TypeMeta `json:",inline"`
	metav1.ListMeta `json:"metadata,omitempty"`
	Items           []ProcessingElement `json:"items"`
}

func init() {
	SchemeBuilder.Register(&ProcessingElement{}, &ProcessingElementList{})
}
