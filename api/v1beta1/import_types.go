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

// NameBasedImport selects exported streams by job and stream name.
type NameBasedImport struct {
	// (Optional) Exporting job, any job when empty.
	JobName string `json:"jobName,omitempty"`

	// Stream name, glob patterns are accepted.
	StreamName string `json:"streamName"`
}

// PropertyBasedImport selects exported streams by their properties.
type PropertyBasedImport struct {
	// (Optional) Application scope the exports must belong to.
	ApplicationScope string `json:"applicationScope,omitempty"`

	// Subscription, a label selector over the export properties,
	// ex) kind=trades,region in (eu,us)
	Subscription string `json:"subscription"`
}

// ImportedStreams describes the streams an import subscribes to.
type ImportedStreams struct {
	// Name-based imports.
	NameBasedImports []NameBasedImport `json:"nameBasedImports,omitempty"`

	// Property-based import.
	PropertyBasedImport *PropertyBasedImport `json:"propertyBasedImport,omitempty"`

	// (Optional) Filter expression applied at the exporter.
	Filter string `json:"filter,omitempty"`
}

// ImportSpec defines the desired state of Import
type ImportSpec struct {
	// Name of the importing job.
	JobName string `json:"jobName"`

	// Importing PE.
	PeID int64 `json:"peId"`

	// Input port of the importing PE.
	PortID int64 `json:"portId"`

	// Index of the input port.
	PortIndex int32 `json:"portIndex"`

	// Imported streams.
	Streams ImportedStreams `json:"streams"`
}

// +kubebuilder:object:root=true

// Import is the Schema for the imports API
type Import struct {
	metav1.TypeMeta   `json:",inline"`
	metav1.ObjectMeta `json:"metadata,omitempty"`

	Spec ImportSpec `json:"spec"`
}

// +kubebuilder:object:root=true

// ImportList contains a list of Import
type ImportList struct {
	metav1.TypeMeta `json:",inline"`
	metav1.ListMeta `json:"metadata,omitempty"`
	Items           []Import `json:"items"`
}

func init() {
	SchemeBuilder.Register(&Import{}, &ImportList{})
}
