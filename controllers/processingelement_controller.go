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
	"sync"

	"github.com/go-logr/logr"
	corev1 "k8s.io/api/core/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	"k8s.io/apimachinery/pkg/types"
	"k8s.io/client-go/util/workqueue"
	ctrl "sigs.k8s.io/controller-runtime"
	"sigs.k8s.io/controller-runtime/pkg/client"
	"sigs.k8s.io/controller-runtime/pkg/event"
	"sigs.k8s.io/controller-runtime/pkg/handler"
	"sigs.k8s.io/controller-runtime/pkg/source"

	"github.com/googlecloudplatform/streams-operator/api/v1beta1"
	"github.com/googlecloudplatform/streams-operator/controllers/consistent"
	"github.com/googlecloudplatform/streams-operator/controllers/coordinator"
	"github.com/googlecloudplatform/streams-operator/controllers/processingelement"
)

// ProcessingElementReconciler reconciles a ProcessingElement object
type ProcessingElementReconciler struct {
	Client client.Client
	Log    logr.Logger
	// Coordinator of the PE commands, fed by the PE watch.
	Coordinator *coordinator.Coordinator
	Pes         *processingelement.Coordinator

	// Pods whose end already relaunched their PE, by UID.
	relaunched sync.Map
}

// +kubebuilder:rbac:groups=streamsoperator.k8s.io,resources=processingelements,verbs=get;list;watch;create;update;patch;delete
// +kubebuilder:rbac:groups=streamsoperator.k8s.io,resources=jobs,verbs=get;list;watch
// +kubebuilder:rbac:groups=core,resources=pods,verbs=get;list;watch;create;update;patch;delete

// Reconcile makes the pod of a PE match its current launch.
func (reconciler *ProcessingElementReconciler) Reconcile(
	ctx context.Context, request ctrl.Request) (ctrl.Result, error) {
	var log = reconciler.Log.WithValues("processingelement", request.NamespacedName)
	var k8sClient = reconciler.Client

	var pe v1beta1.ProcessingElement
	if err := k8sClient.Get(ctx, request.NamespacedName, &pe); err != nil {
		return ctrl.Result{}, client.IgnoreNotFound(err)
	}
	if pe.DeletionTimestamp != nil {
		return ctrl.Result{}, nil
	}
	var job v1beta1.Job
	var jobKey = types.NamespacedName{Namespace: pe.Namespace, Name: pe.Spec.JobName}
	if err := k8sClient.Get(ctx, jobKey, &job); err != nil {
		log.V(1).Info("Job not found, waiting for garbage collection", "job", jobKey)
		return ctrl.Result{}, client.IgnoreNotFound(err)
	}

	var pod corev1.Pod
	var err = k8sClient.Get(ctx, request.NamespacedName, &pod)
	if client.IgnoreNotFound(err) != nil {
		return ctrl.Result{}, err
	}
	if err != nil {
		var desired = getDesiredPod(&job, &pe)
		log.Info("Creating pod", "launchCount", pe.Spec.LaunchCount)
		if err := k8sClient.Create(ctx, desired); err != nil {
			log.Error(err, "Failed to create pod")
			if apierrors.IsAlreadyExists(err) {
				return ctrl.Result{}, nil
			}
			return ctrl.Result{}, err
		}
		return ctrl.Result{}, nil
	}

	var launch = consistent.PodLaunchCount(&pod)
	if launch != pe.Spec.LaunchCount && pod.DeletionTimestamp == nil {
		log.Info("Deleting pod of a previous launch",
			"podLaunchCount", launch, "launchCount", pe.Spec.LaunchCount)
		var err = k8sClient.Delete(ctx, &pod, client.Preconditions{UID: &pod.UID})
		if err != nil {
			log.Error(err, "Failed to delete pod")
			return ctrl.Result{}, client.IgnoreNotFound(err)
		}
	}
	return ctrl.Result{}, nil
}

// SetupWithManager registers this reconciler with the controller manager and
// starts watching ProcessingElement and Pod resources.
func (reconciler *ProcessingElementReconciler) SetupWithManager(mgr ctrl.Manager) error {
	return ctrl.NewControllerManagedBy(mgr).
		For(&v1beta1.ProcessingElement{}).
		Owns(&corev1.Pod{}).
		Watches(&source.Kind{Type: &v1beta1.ProcessingElement{}},
			reconciler.Coordinator.EventHandler()).
		Watches(&source.Kind{Type: &corev1.Pod{}}, reconciler.podLaunchHandler()).
		Complete(reconciler)
}

// podLaunchHandler relaunches a PE when its pod ends and the PE asks for it.
// It enqueues nothing.
func (reconciler *ProcessingElementReconciler) podLaunchHandler() handler.EventHandler {
	return handler.Funcs{
		UpdateFunc: func(e event.UpdateEvent, _ workqueue.RateLimitingInterface) {
			if pod, ok := e.ObjectNew.(*corev1.Pod); ok {
				reconciler.onPodChange(pod, false)
			}
		},
		DeleteFunc: func(e event.DeleteEvent, _ workqueue.RateLimitingInterface) {
			if pod, ok := e.Object.(*corev1.Pod); ok {
				reconciler.onPodChange(pod, true)
				reconciler.relaunched.Delete(pod.UID)
			}
		},
	}
}

func (reconciler *ProcessingElementReconciler) onPodChange(pod *corev1.Pod, deleted bool) {
	var jobName, peID, ok = getPeIdentity(pod)
	if !ok {
		return
	}
	var key = types.NamespacedName{
		Namespace: pod.Namespace,
		Name:      v1beta1.ProcessingElementName(jobName, peID),
	}
	var log = reconciler.Log.WithValues("processingelement", key, "pod", pod.Name)

	var pe v1beta1.ProcessingElement
	if err := reconciler.Client.Get(context.Background(), key, &pe); err != nil {
		if client.IgnoreNotFound(err) != nil {
			log.Error(err, "Failed to get PE")
		}
		return
	}
	if !shouldRelaunch(&pe, pod, deleted) {
		return
	}
	if _, done := reconciler.relaunched.LoadOrStore(pod.UID, true); done {
		return
	}
	log.Info("Relaunching PE", "phase", pod.Status.Phase, "deleted", deleted,
		"launchCount", pe.Spec.LaunchCount)
	reconciler.Pes.IncrementPeLaunchCount(key)
}

// shouldRelaunch returns true if the end of the pod of the current launch of
// a PE must start a new launch.
func shouldRelaunch(pe *v1beta1.ProcessingElement, pod *corev1.Pod, deleted bool) bool {
	if consistent.PodLaunchCount(pod) != pe.Spec.LaunchCount {
		return false
	}
	switch {
	case pod.Status.Phase == corev1.PodFailed:
		return pe.Spec.RestartFailedPod
	case pod.Status.Phase == corev1.PodSucceeded:
		return pe.Spec.RestartDeletedPod
	case deleted:
		return pe.Spec.RestartDeletedPod
	}
	return false
}
