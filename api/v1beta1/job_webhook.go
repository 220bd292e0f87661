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
// +kubebuilder:docs-gen:collapse=Apache License

package v1beta1

import (
	"k8s.io/apimachinery/pkg/runtime"
	ctrl "sigs.k8s.io/controller-runtime"
	logf "sigs.k8s.io/controller-runtime/pkg/log"
	"sigs.k8s.io/controller-runtime/pkg/webhook"
)

// +kubebuilder:docs-gen:collapse=Go imports

var log = logf.Log.WithName("webhook")

// SetupWebhookWithManager adds webhook for Job.
func (job *Job) SetupWebhookWithManager(mgr ctrl.Manager) error {
	return ctrl.NewWebhookManagedBy(mgr).
		For(job).
		Complete()
}

// +kubebuilder:webhook:path=/mutate-streamsoperator-k8s-io-v1beta1-job,mutating=true,failurePolicy=fail,groups=streamsoperator.k8s.io,resources=jobs,verbs=create;update,versions=v1beta1,name=mjob.streamsoperator.k8s.io,sideEffects=None,admissionReviewVersions=v1

var _ webhook.Defaulter = &Job{}

// Default implements webhook.Defaulter so a webhook will be registered for the
// type.
func (job *Job) Default() {
	log.Info("default", "name", job.Name, "original", *job)
	_SetJobDefault(job)
	log.Info("default", "name", job.Name, "augmented", *job)
}

// +kubebuilder:webhook:path=/validate-streamsoperator-k8s-io-v1beta1-job,mutating=false,failurePolicy=fail,groups=streamsoperator.k8s.io,resources=jobs,verbs=create;update,versions=v1beta1,name=vjob.streamsoperator.k8s.io,sideEffects=None,admissionReviewVersions=v1

var _ webhook.Validator = &Job{}
var validator = Validator{}

// ValidateCreate implements webhook.Validator so a webhook will be registered
// for the type.
func (job *Job) ValidateCreate() error {
	log.Info("Validate create", "name", job.Name)
	return validator.ValidateJobCreate(job)
}

// ValidateUpdate implements webhook.Validator so a webhook will be registered
// for the type.
func (job *Job) ValidateUpdate(old runtime.Object) error {
	log.Info("Validate update", "name", job.Name)
	var oldJob = old.(*Job)
	return validator.ValidateJobUpdate(oldJob, job)
}

// ValidateDelete implements webhook.Validator so a webhook will be registered
// for the type.
func (job *Job) ValidateDelete() error {
	return nil
}
