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
	"time"

	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/utils/pointer"
)

// Default region settings.
const (
	DefaultDrainPeriod                 = 30 * time.Second
	DefaultDrainTimeout                = 180 * time.Second
	DefaultResetTimeout                = 180 * time.Second
	DefaultMaxConsecutiveResetAttempts = int64(5)
)

// Sets default values for unspecified Job properties.
func _SetJobDefault(job *Job) {
	_SetBundleDefault(&job.Spec.Bundle)
	if len(job.Spec.ImagePullPolicy) == 0 {
		job.Spec.ImagePullPolicy = corev1.PullIfNotPresent
	}
	if len(job.Spec.LogLevel) == 0 {
		job.Spec.LogLevel = "info"
	}
	for i := range job.Spec.ProcessingElements {
		_SetProcessingElementDefault(&job.Spec.ProcessingElements[i])
	}
	for i := range job.Spec.ConsistentRegions {
		_SetConsistentRegionDefault(&job.Spec.ConsistentRegions[i])
	}
}

func _SetBundleDefault(bundle *BundleSpec) {
	if len(bundle.PullPolicy) == 0 {
		bundle.PullPolicy = BundlePullPolicyIfNotPresent
	}
}

func _SetProcessingElementDefault(pe *ProcessingElementTemplate) {
	if pe.RestartFailedPod == nil {
		pe.RestartFailedPod = pointer.BoolPtr(true)
	}
	if pe.RestartDeletedPod == nil {
		pe.RestartDeletedPod = pointer.BoolPtr(true)
	}
}

func _SetConsistentRegionDefault(region *ConsistentRegionTemplate) {
	if len(region.Trigger) == 0 {
		region.Trigger = TriggerPeriodic
	}
	if region.Period == nil && region.Trigger == TriggerPeriodic {
		region.Period = &metav1.Duration{Duration: DefaultDrainPeriod}
	}
	if region.DrainTimeout == nil {
		region.DrainTimeout = &metav1.Duration{Duration: DefaultDrainTimeout}
	}
	if region.ResetTimeout == nil {
		region.ResetTimeout = &metav1.Duration{Duration: DefaultResetTimeout}
	}
	if region.MaxConsecutiveResetAttempts == nil {
		region.MaxConsecutiveResetAttempts =
			pointer.Int64Ptr(DefaultMaxConsecutiveResetAttempts)
	}
}

// SetDefaults sets default values for unspecified Job properties.
func (job *Job) SetDefaults() {
	_SetJobDefault(job)
}
