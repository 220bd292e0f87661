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

// StreamProperty is a named property attached to an exported stream.
type StreamProperty struct {
	// Property name.
	Name string `json:"name"`

	// Property type, enum("rstring", "int64", "float64") and their lists.
	Type string `json:"type,omitempty"`

	// Property values.
	Values []string `json:"values"`
}

// ExportedStream describes how a stream is exported.
type ExportedStream struct {
	// (Optional) Stream name for name-based imports.
	Name string `json:"name,omitempty"`

	// (Optional) Properties for property-based imports.
	Properties []StreamProperty `json:"properties,omitempty"`

	// Whether importers may apply a filter.
	AllowFilter bool `json:"allowFilter"`
}

// ExportSpec defines the desired state of Export
type ExportSpec struct {
	// Name of the exporting job.
	JobName string `json:"jobName"`

	// Exporting PE.
	PeID int64 `json:"peId"`

	// Output port of the exporting PE.
	PortID int64 `json:"portId"`

	// Exported stream.
	Stream ExportedStream `json:"stream"`
}

// +kubebuilder:object:root=true

// Export is the Schema for the exports API
type Export struct {
	metav1.TypeMeta   `json:",inline"`
	metav1.ObjectMeta `json:"metadata,omitempty"`

	Spec ExportSpec `json:"spec"`
}

// +kubebuilder:object:root=true

// ExportList contains a list of Export
type ExportList struct {
	metav1.TypeMeta `json:",inline"`
	metav1.ListMeta `json:"metadata,omitempty"`
	Items           []Export `json:"items"`
}

func init() {
	SchemeBuilder.Register(&Export{}, &ExportList{})
}
