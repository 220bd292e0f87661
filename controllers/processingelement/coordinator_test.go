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

package processingelement

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	. "github.com/onsi/gomega"
	"github.com/stretchr/testify/require"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/apimachinery/pkg/types"
	"k8s.io/apimachinery/pkg/util/clock"
	"sigs.k8s.io/controller-runtime/pkg/client"
	"sigs.k8s.io/controller-runtime/pkg/client/fake"
	logf "sigs.k8s.io/controller-runtime/pkg/log"

	"github.com/googlecloudplatform/streams-operator/api/v1beta1"
	"github.com/googlecloudplatform/streams-operator/controllers/coordinator"
)

var peKey = types.NamespacedName{Namespace: "default", Name: "trades-1"}

// countingClient counts the updates reaching the API server.
type countingClient struct {
	client.Client
	updates int32
}

func (c *countingClient) Update(
	ctx context.Context, obj client.Object, opts ...client.UpdateOption) error {
	atomic.AddInt32(&c.updates, 1)
	return c.Client.Update(ctx, obj, opts...)
}

func (c *countingClient) count() int32 {
	return atomic.LoadInt32(&c.updates)
}

// lateEventClient hands the coordinator the delta of an earlier change right
// before the first update, as an informer does when its cache is ahead of
// the events it has delivered.
type lateEventClient struct {
	*countingClient
	coordinator *coordinator.Coordinator
	once        sync.Once
}

func (c *lateEventClient) Update(
	ctx context.Context, obj client.Object, opts ...client.UpdateOption) error {
	c.once.Do(func() {
		var stored v1beta1.ProcessingElement
		if err := c.Get(ctx, client.ObjectKeyFromObject(obj), &stored); err != nil {
			return
		}
		var before = stored.DeepCopy()
		before.Spec.Connectivity = v1beta1.ConnectivityNone
		c.coordinator.OnEvent(peKey, before, &stored)
	})
	return c.countingClient.Update(ctx, obj, opts...)
}

type fixture struct {
	client      *countingClient
	coordinator *coordinator.Coordinator
	pes         *Coordinator
}

func newFixture(objs ...client.Object) *fixture {
	var scheme = runtime.NewScheme()
	_ = v1beta1.AddToScheme(scheme)
	var k8sClient = &countingClient{
		Client: fake.NewClientBuilder().WithScheme(scheme).WithObjects(objs...).Build(),
	}
	var c = coordinator.New(
		logf.Log.WithName("pe-coordinator-test"), clock.NewFakeClock(time.Now()), time.Minute)
	return &fixture{client: k8sClient, coordinator: c, pes: NewCoordinator(k8sClient, c)}
}

// observe delivers the current state of the PE to the coordinator.
func (f *fixture) observe(t *testing.T, prev *v1beta1.ProcessingElement) *v1beta1.ProcessingElement {
	var cur v1beta1.ProcessingElement
	require.NoError(t, f.client.Get(context.Background(), peKey, &cur))
	f.coordinator.OnEvent(peKey, prev, &cur)
	return &cur
}

func newJob(generation int64) *v1beta1.Job {
	return &v1beta1.Job{
		ObjectMeta: metav1.ObjectMeta{
			Namespace: "default", Name: "trades", Generation: generation},
	}
}

func newPe(launchCount int32) *v1beta1.ProcessingElement {
	return &v1beta1.ProcessingElement{
		ObjectMeta: metav1.ObjectMeta{
			Namespace: peKey.Namespace,
			Name:      peKey.Name,
			Labels:    map[string]string{v1beta1.LabelGeneration: "1"},
		},
		Spec: v1beta1.ProcessingElementSpec{
			JobName:      "trades",
			ID:           1,
			LaunchCount:  launchCount,
			Connectivity: v1beta1.ConnectivityNone,
		},
	}
}

func TestUpdatePeConnectivity(t *testing.T) {
	var g = NewWithT(t)
	var pe = newPe(1)
	var f = newFixture(pe)
	var result = make(chan error, 1)
	go func() {
		result <- f.pes.UpdatePeConnectivity(context.Background(), peKey, v1beta1.ConnectivityFull)
	}()
	g.Eventually(f.client.count).Should(Equal(int32(1)))
	g.Consistently(result, 50*time.Millisecond).ShouldNot(Receive())

	f.observe(t, pe)
	g.Eventually(result).Should(Receive(BeNil()))

	// Already at the target value.
	require.NoError(t, f.pes.UpdatePeConnectivity(
		context.Background(), peKey, v1beta1.ConnectivityFull))
	require.Equal(t, int32(1), f.client.count())
}

func TestUpdatePeConnectivityOnePendingCommand(t *testing.T) {
	var g = NewWithT(t)
	var pe = newPe(1)
	var f = newFixture(pe)
	var first = make(chan error, 1)
	var second = make(chan error, 1)

	go func() {
		first <- f.pes.UpdatePeConnectivity(context.Background(), peKey, v1beta1.ConnectivityPartial)
	}()
	g.Eventually(f.client.count).Should(Equal(int32(1)))
	go func() {
		second <- f.pes.UpdatePeConnectivity(context.Background(), peKey, v1beta1.ConnectivityFull)
	}()
	g.Consistently(f.client.count, 100*time.Millisecond).Should(Equal(int32(1)))

	var partial = f.observe(t, pe)
	g.Eventually(first).Should(Receive(BeNil()))
	g.Eventually(f.client.count).Should(Equal(int32(2)))

	f.observe(t, partial)
	g.Eventually(second).Should(Receive(BeNil()))
	require.False(t, f.coordinator.IsPending(peKey))
}

func TestUpdatePeConnectivityMissingPe(t *testing.T) {
	var f = newFixture()
	var err = f.pes.UpdatePeConnectivity(context.Background(), peKey, v1beta1.ConnectivityFull)
	require.True(t, errors.Is(err, coordinator.ErrProcessingElementNotFound))
}

func TestIncrementPeLaunchCountDoesNotBlock(t *testing.T) {
	var g = NewWithT(t)
	var pe = newPe(3)
	var f = newFixture(pe)

	var cmd = f.pes.IncrementPeLaunchCount(peKey)
	g.Eventually(f.client.count).Should(Equal(int32(1)))
	require.Equal(t, coordinator.StatusUnknown, cmd.Status())

	var cur = f.observe(t, pe)
	require.Equal(t, int32(4), cur.Spec.LaunchCount)
	g.Eventually(cmd.Done()).Should(BeClosed())
	require.Equal(t, coordinator.StatusSuccess, cmd.Status())
}

func TestTouchPe(t *testing.T) {
	var g = NewWithT(t)
	var pe = newPe(1)
	var job = newJob(2)
	var f = newFixture(job, pe)
	var result = make(chan error, 1)
	go func() {
		result <- f.pes.TouchPe(context.Background(), job, peKey)
	}()
	g.Eventually(f.client.count).Should(Equal(int32(1)))

	var cur = f.observe(t, pe)
	g.Eventually(result).Should(Receive(BeNil()))
	require.Equal(t, "2", cur.Labels[v1beta1.LabelGeneration])
	require.Equal(t, int32(1), cur.Spec.LaunchCount)

	require.NoError(t, f.pes.TouchPe(context.Background(), job, peKey))
	require.Equal(t, int32(1), f.client.count())
}

func TestTouchPeMissingJob(t *testing.T) {
	var f = newFixture(newPe(1))
	var err = f.pes.TouchPe(context.Background(), newJob(2), peKey)
	require.True(t, errors.Is(err, coordinator.ErrJobNotFound))
}

func TestUpdatePeContentIDAndIncrementLaunchCount(t *testing.T) {
	var g = NewWithT(t)
	var pe = newPe(1)
	var job = newJob(3)
	var f = newFixture(job, pe)
	var result = make(chan error, 1)
	go func() {
		result <- f.pes.UpdatePeContentIDAndIncrementLaunchCount(
			context.Background(), job, peKey, "c0ffee")
	}()
	g.Eventually(f.client.count).Should(Equal(int32(1)))

	// Only the label moved: not yet satisfied.
	var partial = pe.DeepCopy()
	partial.Labels[v1beta1.LabelGeneration] = "3"
	f.coordinator.OnEvent(peKey, pe, partial)
	g.Consistently(result, 50*time.Millisecond).ShouldNot(Receive())

	var cur = f.observe(t, partial)
	g.Eventually(result).Should(Receive(BeNil()))
	require.Equal(t, "c0ffee", cur.Spec.ContentID)
	require.Equal(t, int32(2), cur.Spec.LaunchCount)
	require.Equal(t, "3", cur.Labels[v1beta1.LabelGeneration])
}

func TestUpdatePeContentIDDeletedPe(t *testing.T) {
	var g = NewWithT(t)
	var pe = newPe(1)
	var job = newJob(3)
	var f = newFixture(job, pe)
	var result = make(chan error, 1)
	go func() {
		result <- f.pes.UpdatePeContentIDAndIncrementLaunchCount(
			context.Background(), job, peKey, "c0ffee")
	}()
	g.Eventually(f.client.count).Should(Equal(int32(1)))

	f.coordinator.OnEvent(peKey, pe, nil)
	var err error
	g.Eventually(result).Should(Receive(&err))
	require.True(t, errors.Is(err, coordinator.ErrProcessingElementNotFound))
}

func TestUpdatePeConnectivityIgnoresLateEvent(t *testing.T) {
	var g = NewWithT(t)
	var pe = newPe(1)
	pe.Spec.Connectivity = v1beta1.ConnectivityPartial
	var f = newFixture(pe)
	var k8sClient = &lateEventClient{countingClient: f.client, coordinator: f.coordinator}
	var pes = NewCoordinator(k8sClient, f.coordinator)

	var result = make(chan error, 1)
	go func() {
		result <- pes.UpdatePeConnectivity(context.Background(), peKey, v1beta1.ConnectivityFull)
	}()
	g.Eventually(f.client.count).Should(Equal(int32(1)))
	g.Consistently(result, 100*time.Millisecond).ShouldNot(Receive())

	var partial = pe.DeepCopy()
	var cur = f.observe(t, partial)
	g.Eventually(result).Should(Receive(BeNil()))
	require.Equal(t, v1beta1.ConnectivityFull, cur.Spec.Connectivity)
	require.False(t, f.coordinator.IsPending(peKey))
}
