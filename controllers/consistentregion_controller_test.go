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
	"time"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
	corev1 "k8s.io/api/core/v1"
	"k8s.io/apimachinery/pkg/types"
	"k8s.io/apimachinery/pkg/util/clock"
	"k8s.io/client-go/tools/record"
	ctrl "sigs.k8s.io/controller-runtime"
	"sigs.k8s.io/controller-runtime/pkg/client"
	"sigs.k8s.io/controller-runtime/pkg/client/fake"
	logf "sigs.k8s.io/controller-runtime/pkg/log"

	"github.com/googlecloudplatform/streams-operator/api/v1beta1"
	"github.com/googlecloudplatform/streams-operator/controllers/consistent"
	"github.com/googlecloudplatform/streams-operator/controllers/coordinator"
	"github.com/googlecloudplatform/streams-operator/controllers/metrics"
	"github.com/googlecloudplatform/streams-operator/controllers/notification"
	"github.com/googlecloudplatform/streams-operator/controllers/timer"
)

var _ = Describe("ConsistentRegionReconciler", func() {
	var (
		ctx        context.Context
		k8sClient  client.Client
		fakeClock  *clock.FakeClock
		sink       *metrics.RecordingSink
		recorder   *record.FakeRecorder
		board      *notification.Board
		regions    *coordinator.Coordinator
		reconciler *ConsistentRegionReconciler
		region     *v1beta1.ConsistentRegion
		key        types.NamespacedName
		regionID   = metrics.RegionID{Namespace: testNamespace, Job: testJob, Region: 0}
		pe1        = types.NamespacedName{Namespace: testNamespace, Name: "trades-1"}
	)

	var start = func(objects ...client.Object) {
		var log = logf.Log.WithName("region-test")
		regions = coordinator.New(log.WithName("coordinator"), fakeClock, time.Minute)
		k8sClient = &watchingClient{
			Client: fake.NewClientBuilder().
				WithScheme(newTestScheme()).
				WithObjects(objects...).
				Build(),
			coordinator: regions,
		}
		reconciler = &ConsistentRegionReconciler{
			Client:      k8sClient,
			Log:         log,
			Recorder:    recorder,
			Machine:     &consistent.Machine{Log: log.WithName("machine")},
			Inbox:       consistent.NewInbox(),
			Coordinator: regions,
			Publisher:   notification.NewPublisher(nil, "", board, log),
			Metrics:     sink,
			Clock:       fakeClock,
		}
		reconciler.Timers = timer.NewScheduler(fakeClock, reconciler.OnTimer)
	}

	var reconcileRegion = func() {
		var _, err = reconciler.Reconcile(ctx, ctrl.Request{NamespacedName: key})
		Expect(err).NotTo(HaveOccurred())
	}

	var getRegion = func() *v1beta1.ConsistentRegion {
		var latest v1beta1.ConsistentRegion
		Expect(k8sClient.Get(ctx, key, &latest)).To(Succeed())
		return &latest
	}

	var setPodPhase = func(id int64, phase corev1.PodPhase) {
		var pod corev1.Pod
		var podKey = types.NamespacedName{
			Namespace: testNamespace, Name: v1beta1.ProcessingElementName(testJob, id)}
		Expect(k8sClient.Get(ctx, podKey, &pod)).To(Succeed())
		pod.Status.Phase = phase
		Expect(k8sClient.Update(ctx, &pod)).To(Succeed())
	}

	var notificationOf = func(pe types.NamespacedName) consistent.NotificationType {
		return board.Get(pe)[0].Type
	}

	BeforeEach(func() {
		ctx = context.Background()
		fakeClock = clock.NewFakeClock(time.Date(2021, 6, 1, 12, 0, 0, 0, time.UTC))
		sink = metrics.NewRecordingSink()
		recorder = record.NewFakeRecorder(32)
		board = notification.NewBoard()
		region = newTestRegion()
		key = client.ObjectKeyFromObject(region)
	})

	AfterEach(func() {
		reconciler.Timers.Stop()
		regions.Close()
	})

	Context("with a healthy job", func() {
		BeforeEach(func() {
			start(region, newTestOperator(true),
				newTestPe(1, 1), newTestPe(2, 1),
				newTestPod(1, 1, corev1.PodRunning), newTestPod(2, 1, corev1.PodRunning))
		})

		It("moves the region to processing and arms the drain period", func() {
			reconcileRegion()

			var latest = getRegion()
			Expect(latest.Spec.State).To(Equal(v1beta1.ConsistentRegionStateProcessing))
			Expect(latest.Spec.Health).To(Equal(v1beta1.RegionHealthHealthy))
			Expect(reconciler.Timers.Armed(key)).To(Equal([]timer.Kind{timer.DrainPeriod}))

			var state, ok = sink.Value(regionID, metrics.State)
			Expect(ok).To(BeTrue())
			Expect(state).To(Equal(int64(v1beta1.ConsistentRegionStateProcessing.Ordinal())))
			Eventually(recorder.Events).Should(Receive(ContainSubstring("PROCESSING")))
		})

		It("counts the launch of this process once", func() {
			reconcileRegion()
			reconcileRegion()

			var operator v1beta1.ConsistentRegionOperator
			var operatorKey = types.NamespacedName{
				Namespace: testNamespace, Name: v1beta1.ConsistentRegionOperatorName(testJob)}
			Expect(k8sClient.Get(ctx, operatorKey, &operator)).To(Succeed())
			Expect(operator.Status.Launches).To(Equal(int32(1)))
		})

		It("drains on the drain period and resumes once every PE drained", func() {
			reconcileRegion()

			fakeClock.Step(30 * time.Second)
			Eventually(func() int { return reconciler.Inbox.Len(key) }).Should(Equal(1))
			reconcileRegion()

			var latest = getRegion()
			Expect(latest.Spec.State).To(Equal(v1beta1.ConsistentRegionStateDraining))
			Expect(notificationOf(pe1)).To(Equal(consistent.NotificationTriggerDrain))
			Expect(reconciler.Timers.Armed(key)).To(Equal([]timer.Kind{timer.DrainTimeout}))

			for _, id := range []int64{1, 2} {
				reconciler.OnProgress(testNamespace, consistent.Progress{
					Type:    consistent.ProgressCheckpointDone,
					JobName: testJob,
					PeID:    id,
					SeqID:   latest.Spec.PendingSeqID,
				})
			}
			reconcileRegion()

			latest = getRegion()
			Expect(latest.Spec.State).To(Equal(v1beta1.ConsistentRegionStateProcessing))
			Expect(latest.Spec.CurrentSeqID).To(Equal(int64(1)))
			Expect(latest.Spec.LastCompletedSeqID).To(Equal(int64(0)))
			Expect(notificationOf(pe1)).To(Equal(consistent.NotificationResumeSubmission))
			Expect(reconciler.Timers.Armed(key)).To(Equal([]timer.Kind{timer.DrainPeriod}))
			Expect(reconciler.Inbox.Len(key)).To(Equal(0))

			var drained, _ = sink.Value(regionID, metrics.LastCompletedDrainSeqID)
			Expect(drained).To(Equal(int64(0)))
		})

		It("marks the region unhealthy when a pod fails and resets it once healthy", func() {
			reconcileRegion()

			setPodPhase(2, corev1.PodFailed)
			reconcileRegion()

			var latest = getRegion()
			Expect(latest.Spec.State).To(Equal(v1beta1.ConsistentRegionStateUnhealthy))
			Expect(reconciler.Timers.Armed(key)).To(BeEmpty())
			Expect(board.Get(pe1)).To(BeEmpty())

			setPodPhase(2, corev1.PodRunning)
			reconcileRegion()

			latest = getRegion()
			Expect(latest.Spec.State).To(Equal(v1beta1.ConsistentRegionStateResetting))
			Expect(latest.Spec.CurrentResetAttempt).To(Equal(int64(1)))
			Expect(notificationOf(pe1)).To(Equal(consistent.NotificationTriggerReset))
			Expect(reconciler.Timers.Armed(key)).To(Equal([]timer.Kind{timer.ResetTimeout}))
		})

		It("forgets a deleted region", func() {
			reconcileRegion()
			Expect(k8sClient.Delete(ctx, getRegion())).To(Succeed())

			reconcileRegion()

			Expect(reconciler.Timers.Armed(key)).To(BeEmpty())
			var _, ok = sink.Value(regionID, metrics.State)
			Expect(ok).To(BeFalse())
		})

		It("maps a PE to the regions containing it", func() {
			Expect(reconciler.regionsOfPe(newTestPe(1, 1))).To(
				ConsistOf(ctrl.Request{NamespacedName: key}))
			Expect(reconciler.regionsOfPe(newTestPe(9, 1))).To(BeEmpty())
			Expect(reconciler.regionsOfOperator(newTestOperator(true))).To(
				ConsistOf(ctrl.Request{NamespacedName: key}))
		})
	})

	Context("with a pod missing", func() {
		BeforeEach(func() {
			start(region, newTestOperator(true),
				newTestPe(1, 1), newTestPe(2, 1),
				newTestPod(1, 1, corev1.PodRunning))
		})

		It("keeps the region started while the health is unknown", func() {
			reconcileRegion()

			var latest = getRegion()
			Expect(latest.Spec.State).To(Equal(v1beta1.ConsistentRegionStateStarted))
			Expect(latest.Spec.Health).To(Equal(v1beta1.RegionHealthUnknown))
			Expect(reconciler.Timers.Armed(key)).To(BeEmpty())
		})
	})

	Context("with a region draining before the process started", func() {
		BeforeEach(func() {
			region.Spec.State = v1beta1.ConsistentRegionStateDraining
			region.Spec.IsRegionHealthy = true
			region.Spec.IsHealthyFirstTime = true
			region.Spec.Health = v1beta1.RegionHealthHealthy
			start(region, newTestOperator(true),
				newTestPe(1, 1), newTestPe(2, 1),
				newTestPod(1, 1, corev1.PodRunning), newTestPod(2, 1, corev1.PodRunning))
		})

		It("re-arms the drain timeout", func() {
			reconcileRegion()

			Expect(getRegion().Spec.State).To(Equal(v1beta1.ConsistentRegionStateDraining))
			Expect(reconciler.Timers.Armed(key)).To(Equal([]timer.Kind{timer.DrainTimeout}))
		})
	})
})
