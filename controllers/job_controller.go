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

package controllers

import (
	"context"
	"fmt"
	"time"

	"github.com/go-logr/logr"
	"k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/types"
	"k8s.io/apimachinery/pkg/util/clock"
	"k8s.io/client-go/util/retry"
	ctrl "sigs.k8s.io/controller-runtime"
	"sigs.k8s.io/controller-runtime/pkg/client"

	"github.com/googlecloudplatform/streams-operator/api/v1beta1"
	"github.com/googlecloudplatform/streams-operator/controllers/bundle"
	"github.com/googlecloudplatform/streams-operator/controllers/hash"
	"github.com/googlecloudplatform/streams-operator/controllers/processingelement"
)

// DefaultJobRetryIntervalSec is the wait before a failed job is submitted
// again.
const DefaultJobRetryIntervalSec = 60

// JobReconciler reconciles a Job object
type JobReconciler struct {
	Client           client.Client
	Log              logr.Logger
	Loader           *bundle.Loader
	Pes              *processingelement.Coordinator
	Clock            clock.Clock
	RetryIntervalSec int
}

// +kubebuilder:rbac:groups=streamsoperator.k8s.io,resources=jobs,verbs=get;list;watch;create;update;patch;delete
// +kubebuilder:rbac:groups=streamsoperator.k8s.io,resources=jobs/status,verbs=get;update;patch
// +kubebuilder:rbac:groups=streamsoperator.k8s.io,resources=processingelements,verbs=get;list;watch;create;update;patch;delete
// +kubebuilder:rbac:groups=streamsoperator.k8s.io,resources=consistentregions,verbs=get;list;watch;create;update;patch;delete
// +kubebuilder:rbac:groups=streamsoperator.k8s.io,resources=consistentregionoperators,verbs=get;list;watch;create;update;patch;delete

// Reconcile submits the current generation of a job: its PEs, its regions
// and its consistent region operator.
func (reconciler *JobReconciler) Reconcile(
	ctx context.Context, request ctrl.Request) (ctrl.Result, error) {
	var handler = _JobHandler{
		reconciler: reconciler,
		context:    ctx,
		log:        reconciler.Log.WithValues("job", request.NamespacedName),
	}
	return handler.reconcile(request)
}

// SetupWithManager registers this reconciler with the controller manager and
// starts watching Job, ProcessingElement, ConsistentRegion and
// ConsistentRegionOperator resources.
func (reconciler *JobReconciler) SetupWithManager(mgr ctrl.Manager) error {
	return ctrl.NewControllerManagedBy(mgr).
		For(&v1beta1.Job{}).
		Owns(&v1beta1.ProcessingElement{}).
		Owns(&v1beta1.ConsistentRegion{}).
		Owns(&v1beta1.ConsistentRegionOperator{}).
		Complete(reconciler)
}

// _JobHandler holds the context and state for a reconcile request.
type _JobHandler struct {
	reconciler *JobReconciler
	context    context.Context
	log        logr.Logger
	job        *v1beta1.Job
}

func (handler *_JobHandler) reconcile(request ctrl.Request) (ctrl.Result, error) {
	var reconciler = handler.reconciler
	var log = handler.log
	var ctx = handler.context

	var job v1beta1.Job
	if err := reconciler.Client.Get(ctx, request.NamespacedName, &job); err != nil {
		return ctrl.Result{}, client.IgnoreNotFound(err)
	}
	if job.DeletionTimestamp != nil {
		return ctrl.Result{}, nil
	}
	job.SetDefaults()
	handler.job = &job

	if job.Status.IsSubmitted(job.Generation) {
		log.V(1).Info("Job already submitted", "generation", job.Generation)
		return ctrl.Result{}, nil
	}
	var retryInterval = reconciler.RetryIntervalSec
	if retryInterval <= 0 {
		retryInterval = DefaultJobRetryIntervalSec
	}
	if job.Status.IsFailed() && job.Status.ObservedGeneration == job.Generation &&
		!job.Status.ShouldRetry(reconciler.Clock.Now(), retryInterval) {
		return ctrl.Result{RequeueAfter: time.Duration(retryInterval) * time.Second}, nil
	}

	log.Info("---------- 1. Load the bundle ----------")

	var b, err = reconciler.Loader.Load(ctx, job.Spec.Bundle, job.Namespace)
	if err != nil {
		log.Error(err, "Failed to load the bundle")
		if err := handler.updateStatus(v1beta1.JobPhaseFailed, err.Error(), ""); err != nil {
			return ctrl.Result{}, err
		}
		return ctrl.Result{RequeueAfter: time.Duration(retryInterval) * time.Second}, nil
	}
	var digest = b.Digest()

	log.Info("---------- 2. Synchronize the processing elements ----------")

	if err := handler.syncPes(digest); err != nil {
		log.Error(err, "Failed to synchronize the processing elements")
		return ctrl.Result{}, err
	}

	log.Info("---------- 3. Synchronize the consistent regions ----------")

	if err := handler.syncRegions(); err != nil {
		log.Error(err, "Failed to synchronize the consistent regions")
		return ctrl.Result{}, err
	}
	if err := handler.syncOperator(); err != nil {
		log.Error(err, "Failed to synchronize the consistent region operator")
		return ctrl.Result{}, err
	}

	log.Info("---------- 4. Update job status ----------")

	if err := handler.updateStatus(v1beta1.JobPhaseSubmitted, "", digest); err != nil {
		log.Error(err, "Failed to update the job status")
		return ctrl.Result{}, err
	}
	if err := handler.startOperator(); err != nil {
		log.Error(err, "Failed to start the consistent region operator")
		return ctrl.Result{}, err
	}
	return ctrl.Result{}, nil
}

// Creates missing PEs, updates the existing ones to the current generation
// and deletes the PEs the job no longer has.
func (handler *_JobHandler) syncPes(digest string) error {
	var reconciler = handler.reconciler
	var job = handler.job
	var ctx = handler.context
	var generation = processingelement.GenerationOf(job)

	var existing v1beta1.ProcessingElementList
	var err = reconciler.Client.List(ctx, &existing,
		client.InNamespace(job.Namespace), client.MatchingLabels(getJobLabels(job.Name)))
	if err != nil {
		return err
	}
	var byID = map[int64]*v1beta1.ProcessingElement{}
	for i := range existing.Items {
		byID[existing.Items[i].Spec.ID] = &existing.Items[i]
	}

	for i := range job.Spec.ProcessingElements {
		var template = &job.Spec.ProcessingElements[i]
		var contentID = hash.ContentID(digest, template)
		var pe, ok = byID[template.ID]
		delete(byID, template.ID)
		if !ok {
			var desired = getDesiredPe(job, template, contentID)
			handler.log.Info("Creating PE", "pe", desired.Name)
			if err := reconciler.Client.Create(ctx, desired); err != nil && !errors.IsAlreadyExists(err) {
				return fmt.Errorf("creating PE %s: %w", desired.Name, err)
			}
			continue
		}
		if pe.Labels[v1beta1.LabelGeneration] == generation {
			continue
		}
		var key = client.ObjectKeyFromObject(pe)
		if pe.Spec.ContentID == contentID {
			handler.log.Info("Touching PE", "pe", pe.Name, "generation", generation)
			err = reconciler.Pes.TouchPe(ctx, job, key)
		} else {
			handler.log.Info("Relaunching PE with new content", "pe", pe.Name, "contentID", contentID)
			err = reconciler.Pes.UpdatePeContentIDAndIncrementLaunchCount(ctx, job, key, contentID)
		}
		if err != nil {
			return fmt.Errorf("updating PE %s: %w", pe.Name, err)
		}
	}

	for _, pe := range byID {
		handler.log.Info("Deleting PE", "pe", pe.Name)
		if err := reconciler.Client.Delete(ctx, pe); client.IgnoreNotFound(err) != nil {
			return fmt.Errorf("deleting PE %s: %w", pe.Name, err)
		}
	}
	return nil
}

// Creates missing regions and deletes the regions the job no longer has.
// The configuration of an existing region is immutable.
func (handler *_JobHandler) syncRegions() error {
	var reconciler = handler.reconciler
	var job = handler.job
	var ctx = handler.context

	var existing v1beta1.ConsistentRegionList
	var err = reconciler.Client.List(ctx, &existing,
		client.InNamespace(job.Namespace), client.MatchingLabels(getJobLabels(job.Name)))
	if err != nil {
		return err
	}
	var byName = map[string]*v1beta1.ConsistentRegion{}
	for i := range existing.Items {
		byName[existing.Items[i].Name] = &existing.Items[i]
	}

	for i := range job.Spec.ConsistentRegions {
		var desired = getDesiredRegion(job, &job.Spec.ConsistentRegions[i])
		if _, ok := byName[desired.Name]; ok {
			delete(byName, desired.Name)
			continue
		}
		handler.log.Info("Creating consistent region", "region", desired.Name)
		if err := reconciler.Client.Create(ctx, desired); err != nil && !errors.IsAlreadyExists(err) {
			return fmt.Errorf("creating region %s: %w", desired.Name, err)
		}
	}

	for _, region := range byName {
		handler.log.Info("Deleting consistent region", "region", region.Name)
		if err := reconciler.Client.Delete(ctx, region); client.IgnoreNotFound(err) != nil {
			return fmt.Errorf("deleting region %s: %w", region.Name, err)
		}
	}
	return nil
}

// Creates the consistent region operator of the job when it has regions.
func (handler *_JobHandler) syncOperator() error {
	var reconciler = handler.reconciler
	var job = handler.job
	var ctx = handler.context

	var key = types.NamespacedName{
		Namespace: job.Namespace, Name: v1beta1.ConsistentRegionOperatorName(job.Name)}
	var operator v1beta1.ConsistentRegionOperator
	var err = reconciler.Client.Get(ctx, key, &operator)
	if err == nil || !errors.IsNotFound(err) {
		return err
	}
	if len(job.Spec.ConsistentRegions) == 0 {
		return nil
	}
	var desired = getDesiredOperator(job)
	handler.log.Info("Creating consistent region operator", "operator", desired.Name)
	if err := reconciler.Client.Create(ctx, desired); err != nil && !errors.IsAlreadyExists(err) {
		return err
	}
	return nil
}

// Enables timer-driven drains once the job is submitted.
func (handler *_JobHandler) startOperator() error {
	var reconciler = handler.reconciler
	var job = handler.job
	var ctx = handler.context
	var key = types.NamespacedName{
		Namespace: job.Namespace, Name: v1beta1.ConsistentRegionOperatorName(job.Name)}
	return retry.RetryOnConflict(retry.DefaultBackoff, func() error {
		var operator v1beta1.ConsistentRegionOperator
		if err := reconciler.Client.Get(ctx, key, &operator); err != nil {
			return client.IgnoreNotFound(err)
		}
		if operator.Spec.HasStarted {
			return nil
		}
		operator.Spec.HasStarted = true
		handler.log.Info("Starting consistent region operator", "operator", key.Name)
		return reconciler.Client.Update(ctx, &operator)
	})
}

func (handler *_JobHandler) updateStatus(phase, message, digest string) error {
	var reconciler = handler.reconciler
	var job = handler.job
	var ctx = handler.context
	var tc = &v1beta1.TimeConverter{}
	return retry.RetryOnConflict(retry.DefaultBackoff, func() error {
		var latest v1beta1.Job
		if err := reconciler.Client.Get(ctx, client.ObjectKeyFromObject(job), &latest); err != nil {
			return client.IgnoreNotFound(err)
		}
		latest.Status.Phase = phase
		latest.Status.Message = message
		if digest != "" {
			latest.Status.BundleDigest = digest
		}
		latest.Status.ObservedGeneration = job.Generation
		latest.Status.ProcessingElementCount = int32(len(job.Spec.ProcessingElements))
		latest.Status.LastUpdateTime = tc.ToString(reconciler.Clock.Now())
		return reconciler.Client.Status().Update(ctx, &latest)
	})
}

// Gets the desired PE of a job from its template.
func getDesiredPe(
	job *v1beta1.Job,
	template *v1beta1.ProcessingElementTemplate,
	contentID string) *v1beta1.ProcessingElement {
	var descriptor map[string]string
	for k, v := range template.Descriptor {
		if descriptor == nil {
			descriptor = make(map[string]string, len(template.Descriptor))
		}
		descriptor[k] = v
	}
	return &v1beta1.ProcessingElement{
		ObjectMeta: metav1.ObjectMeta{
			Namespace: job.Namespace,
			Name:      v1beta1.ProcessingElementName(job.Name, template.ID),
			Labels: getPeLabels(
				job.Name, template.ID, processingelement.GenerationOf(job)),
			OwnerReferences: []metav1.OwnerReference{toOwnerReference(job)},
		},
		Spec: v1beta1.ProcessingElementSpec{
			JobName:           job.Name,
			ID:                template.ID,
			ContentID:         contentID,
			LaunchCount:       1,
			Connectivity:      v1beta1.ConnectivityNone,
			RestartFailedPod:  template.RestartFailedPod == nil || *template.RestartFailedPod,
			RestartDeletedPod: template.RestartDeletedPod == nil || *template.RestartDeletedPod,
			Descriptor:        descriptor,
		},
	}
}

// Gets the desired region of a job from its template.
func getDesiredRegion(
	job *v1beta1.Job, template *v1beta1.ConsistentRegionTemplate) *v1beta1.ConsistentRegion {
	var labels = getJobLabels(job.Name)
	labels[v1beta1.LabelRegion] = fmt.Sprint(template.RegionIndex)
	return &v1beta1.ConsistentRegion{
		ObjectMeta: metav1.ObjectMeta{
			Namespace:       job.Namespace,
			Name:            v1beta1.ConsistentRegionName(job.Name, template.RegionIndex),
			Labels:          labels,
			OwnerReferences: []metav1.OwnerReference{toOwnerReference(job)},
		},
		Spec: v1beta1.NewConsistentRegionSpec(job.Name, template),
	}
}

// Gets the desired consistent region operator of a job.
func getDesiredOperator(job *v1beta1.Job) *v1beta1.ConsistentRegionOperator {
	var pullSecret string
	if len(job.Spec.ImagePullSecrets) > 0 {
		pullSecret = job.Spec.ImagePullSecrets[0].Name
	}
	return &v1beta1.ConsistentRegionOperator{
		ObjectMeta: metav1.ObjectMeta{
			Namespace:       job.Namespace,
			Name:            v1beta1.ConsistentRegionOperatorName(job.Name),
			Labels:          getJobLabels(job.Name),
			OwnerReferences: []metav1.OwnerReference{toOwnerReference(job)},
		},
		Spec: v1beta1.ConsistentRegionOperatorSpec{
			JobName:         job.Name,
			LogLevel:        job.Spec.LogLevel,
			ImagePullPolicy: job.Spec.ImagePullPolicy,
			ImagePullSecret: pullSecret,
			NumRegions:      int32(len(job.Spec.ConsistentRegions)),
		},
	}
}
