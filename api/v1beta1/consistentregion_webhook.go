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
	"k8s.io/apimachinery/pkg/runtime"
	ctrl "sigs.k8s.io/controller-runtime"
	"sigs.k8s.io/controller-runtime/pkg/webhook"
)

// SetupWebhookWithManager adds webhook for ConsistentRegion.
func (region *ConsistentRegion) SetupWebhookWithManager(mgr ctrl.Manager) error {
	return ctrl.NewWebhookManagedBy(mgr).
		For(region).
		Complete()
}

// +kubebuilder:webhook:path=/validate-streamsoperator-k8s-io-v1beta1-consistentregion,mutating=false,failurePolicy=fail,groups=streamsoperator.k8s.io,resources=consistentregions,verbs=create;update,versions=v1beta1,name=vconsistentregion.streamsoperator.k8s.io,sideEffects=None,admissionReviewVersions=v1

var _ webhook.Validator = &ConsistentRegion{}

// ValidateCreate implements webhook.Validator.
func (region *ConsistentRegion) ValidateCreate() error {
	log.Info("Validate create", "name", region.Name)
	return validator.ValidateRegionCreate(region)
}

// ValidateUpdate implements webhook.Validator.
func (region *ConsistentRegion) ValidateUpdate(old runtime.Object) error {
	var oldRegion = old.(*ConsistentRegion)
	if oldRegion.Spec.State != region.Spec.State {
		log.Info(
			"Validate update",
			"name", region.Name,
			"from", oldRegion.Spec.State,
			"to", region.Spec.State)
	}
	return validator.ValidateRegionUpdate(oldRegion, region)
}

// ValidateDelete implements webhook.Validator.
func (region *ConsistentRegion) ValidateDelete() error {
	return nil
}
