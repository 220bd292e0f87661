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
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/types"
	"k8s.io/apimachinery/pkg/util/clock"
	"k8s.io/client-go/tools/record"
	"k8s.io/client-go/util/retry"
	ctrl "sigs.k8s.io/controller-runtime"
	"sigs.k8s.io/controller-runtime/pkg/client"
	"sigs.k8s.io/controller-runtime/pkg/event"
	"sigs.k8s.io/controller-runtime/pkg/handler"
	"sigs.k8s.io/controller-runtime/pkg/reconcile"
	"sigs.k8s.io/controller-runtime/pkg/source"

	"github.com/googlecloudplatform/streams-operator/api/v1beta1"
	"github.com/googlecloudplatform/streams-operator/controllers/consistent"
	"github.com/googlecloudplatform/streams-operator/controllers/coordinator"
	"github.com/googlecloudplatform/streams-operator/controllers/metrics"
	"github.com/googlecloudplatform/streams-operator/controllers/notification"
	"github.com/googlecloudplatform/streams-operator/controllers/timer"
)

// DefaultMaxEventsPerPass bounds the inbox events handled by one reconcile.
const DefaultMaxEventsPerPass = 16

// ConsistentRegionReconciler reconciles a ConsistentRegion object
type ConsistentRegionReconciler struct {
	Client      client.Client
	Log         logr.Logger
	Recorder    record.EventRecorder
	Machine     *consistent.Machine
	Inbox       *consistent.Inbox
	Timers      *timer.Scheduler
	Coordinator *coordinator.Coordinator
	Publisher   *notification.Publisher
	Metrics     metrics.Sink
	Clock       clock.Clock
	// Events wakes the reconciler up for regions with queued events.
	Events           chan event.GenericEvent
	MaxEventsPerPass int

	// Regions seen by this process, with the spec they were first seen with.
	known sync.Map
	// Launch counts of the consistent region operators, once bumped.
	launches sync.Map
}

// +kubebuilder:rbac:groups=streamsoperator.k8s.io,resources=consistentregions,verbs=get;list;watch;create;update;patch;delete
// +kubebuilder:rbac:groups=streamsoperator.k8s.io,resources=consistentregionoperators,verbs=get;list;watch
// +kubebuilder:rbac:groups=streamsoperator.k8s.io,resources=consistentregionoperators/status,verbs=get;update;patch
// +kubebuilder:rbac:groups=streamsoperator.k8s.io,resources=processingelements,verbs=get;list;watch
// +kubebuilder:rbac:groups=core,resources=pods,verbs=get;list;watch
// +kubebuilder:rbac:groups=core,resources=events,verbs=create;patch

// Reconcile handles the health of the region and its queued events.
func (reconciler *ConsistentRegionReconciler) Reconcile(
	ctx context.Context, request ctrl.Request) (ctrl.Result, error) {
	var handler = _RegionHandler{
		reconciler: reconciler,
		request:    request,
		context:    ctx,
		log: reconciler.Log.WithValues(
			"consistentregion", request.NamespacedName),
	}
	return handler.reconcile()
}

// SetupWithManager registers this reconciler with the controller manager and
// starts watching ConsistentRegion, ProcessingElement, Pod and
// ConsistentRegionOperator resources.
func (reconciler *ConsistentRegionReconciler) SetupWithManager(mgr ctrl.Manager) error {
	return ctrl.NewControllerManagedBy(mgr).
		For(&v1beta1.ConsistentRegion{}).
		Watches(&source.Kind{Type: &v1beta1.ConsistentRegion{}},
			reconciler.Coordinator.EventHandler()).
		Watches(&source.Kind{Type: &v1beta1.ProcessingElement{}},
			handler.EnqueueRequestsFromMapFunc(reconciler.regionsOfPe)).
		Watches(&source.Kind{Type: &corev1.Pod{}},
			handler.EnqueueRequestsFromMapFunc(reconciler.regionsOfPe)).
		Watches(&source.Kind{Type: &v1beta1.ConsistentRegionOperator{}},
			handler.EnqueueRequestsFromMapFunc(reconciler.regionsOfOperator)).
		Watches(&source.Channel{Source: reconciler.Events},
			&handler.EnqueueRequestForObject{}).
		Complete(reconciler)
}

// OnTimer queues a fired region timer.
func (reconciler *ConsistentRegionReconciler) OnTimer(e timer.Event) {
	reconciler.Enqueue(e.Region, consistent.TimerEvent(e))
}

// OnProgress queues the progress report of a PE.
func (reconciler *ConsistentRegionReconciler) OnProgress(
	namespace string, progress consistent.Progress) {
	var region = types.NamespacedName{
		Namespace: namespace,
		Name:      v1beta1.ConsistentRegionName(progress.JobName, progress.RegionIndex),
	}
	reconciler.Enqueue(region, consistent.ProgressEvent(progress))
}

// Enqueue queues an event for a region and wakes the reconciler up.
func (reconciler *ConsistentRegionReconciler) Enqueue(
	region types.NamespacedName, e consistent.Event) {
	reconciler.Inbox.Push(region, e)
	if reconciler.Events != nil {
		reconciler.Events <- event.GenericEvent{Object: &v1beta1.ConsistentRegion{
			ObjectMeta: metav1.ObjectMeta{Namespace: region.Namespace, Name: region.Name},
		}}
	}
}

func (reconciler *ConsistentRegionReconciler) regionsOfPe(obj client.Object) []reconcile.Request {
	var jobName, peID, ok = getPeIdentity(obj)
	if !ok {
		return nil
	}
	return reconciler.regionsOfJob(obj.GetNamespace(), jobName, func(spec *v1beta1.ConsistentRegionSpec) bool {
		return spec.HasPe(peID)
	})
}

func (reconciler *ConsistentRegionReconciler) regionsOfOperator(obj client.Object) []reconcile.Request {
	var operator, ok = obj.(*v1beta1.ConsistentRegionOperator)
	if !ok {
		return nil
	}
	return reconciler.regionsOfJob(operator.Namespace, operator.Spec.JobName, nil)
}

func (reconciler *ConsistentRegionReconciler) regionsOfJob(
	namespace, jobName string,
	filter func(spec *v1beta1.ConsistentRegionSpec) bool) []reconcile.Request {
	var regions v1beta1.ConsistentRegionList
	var err = reconciler.Client.List(context.Background(), &regions,
		client.InNamespace(namespace), client.MatchingLabels(getJobLabels(jobName)))
	if err != nil {
		reconciler.Log.Error(err, "Failed to list regions", "job", jobName)
		return nil
	}
	var requests []reconcile.Request
	for i := range regions.Items {
		var region = &regions.Items[i]
		if filter != nil && !filter(&region.Spec) {
			continue
		}
		requests = append(requests, reconcile.Request{
			NamespacedName: client.ObjectKeyFromObject(region)})
	}
	return requests
}

// operatorRestarted counts the launch of this process for the operator of a
// job, once, and returns true if another process drove the job before.
func (reconciler *ConsistentRegionReconciler) operatorRestarted(
	ctx context.Context, operator *v1beta1.ConsistentRegionOperator) (bool, error) {
	if operator == nil {
		return false, nil
	}
	var key = client.ObjectKeyFromObject(operator)
	if launches, ok := reconciler.launches.Load(key); ok {
		return launches.(int32) > 1, nil
	}
	var launches int32
	var err = retry.RetryOnConflict(retry.DefaultBackoff, func() error {
		var latest v1beta1.ConsistentRegionOperator
		if err := reconciler.Client.Get(ctx, key, &latest); err != nil {
			return err
		}
		latest.Status.Launches++
		launches = latest.Status.Launches
		return reconciler.Client.Status().Update(ctx, &latest)
	})
	if err != nil {
		return false, err
	}
	reconciler.launches.Store(key, launches)
	return launches > 1, nil
}

// forget drops what this process holds for a deleted region.
func (reconciler *ConsistentRegionReconciler) forget(key types.NamespacedName) {
	reconciler.Timers.Cancel(key)
	reconciler.Inbox.Drop(key)
	if spec, ok := reconciler.known.LoadAndDelete(key); ok {
		var regionSpec = spec.(*v1beta1.ConsistentRegionSpec)
		reconciler.Publisher.ClearRegion(key.Namespace, regionSpec)
		reconciler.Metrics.DeleteRegion(getRegionID(key.Namespace, regionSpec))
	}
}

// _RegionHandler holds the context and state for a reconcile request.
type _RegionHandler struct {
	reconciler    *ConsistentRegionReconciler
	request       ctrl.Request
	context       context.Context
	log           logr.Logger
	observedState _ObservedRegionState
}

func (handler *_RegionHandler) reconcile() (ctrl.Result, error) {
	var reconciler = handler.reconciler
	var key = handler.request.NamespacedName
	var log = handler.log
	var observed = &handler.observedState

	log.V(1).Info("---------- 1. Observe the current state ----------")

	var observer = _RegionStateObserver{
		k8sClient: reconciler.Client,
		request:   handler.request,
		context:   handler.context,
		log:       log,
	}
	if err := observer.observe(observed); err != nil {
		log.Error(err, "Failed to observe the current state")
		return ctrl.Result{}, err
	}
	if observed.region == nil {
		reconciler.forget(key)
		return ctrl.Result{}, nil
	}

	log.V(1).Info("---------- 2. Compute the region health ----------")

	var info = consistent.CheckRegion(&observed.region.Spec, observed.pes, observed.pods)
	var restarted, err = reconciler.operatorRestarted(handler.context, observed.operator)
	if err != nil {
		log.Error(err, "Failed to count the launch of the consistent region operator")
		return ctrl.Result{}, err
	}
	var env = consistent.Env{
		Region:            info,
		OperatorRestarted: restarted,
		OperatorStarted:   observed.operator != nil && observed.operator.Spec.HasStarted,
		Now:               reconciler.Clock.Now(),
	}
	log.V(1).Info("Region health", "health", info.Health, "cleanStart", info.CleanStart)

	if _, seen := reconciler.known.LoadOrStore(key, observed.region.Spec.DeepCopy()); !seen {
		for _, t := range consistent.RecoverTimers(&observed.region.Spec) {
			log.Info("Re-arming timer", "timer", t.Kind)
			reconciler.Timers.Schedule(timer.Event{
				Region: key, Kind: t.Kind, TimerSeqID: t.TimerSeqID}, t.After)
		}
	}

	log.V(1).Info("---------- 3. Handle events ----------")

	var updater = _RegionUpdater{
		reconciler: reconciler,
		key:        key,
		context:    handler.context,
		log:        log,
	}
	if err := updater.handle(consistent.HealthEvent(), env); err != nil {
		log.Error(err, "Failed to handle the region health")
		return ctrl.Result{}, err
	}
	var max = reconciler.MaxEventsPerPass
	if max <= 0 {
		max = DefaultMaxEventsPerPass
	}
	for i := 0; i < max; i++ {
		var e, ok = reconciler.Inbox.Pop(key)
		if !ok {
			break
		}
		env.Now = reconciler.Clock.Now()
		if err := updater.handle(e, env); err != nil {
			log.Error(err, "Failed to handle event", "event", e.String())
			reconciler.Inbox.PushFront(key, e)
			return ctrl.Result{}, err
		}
	}
	if reconciler.Inbox.Len(key) > 0 {
		return ctrl.Result{Requeue: true}, nil
	}
	return ctrl.Result{}, nil
}
