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

package coordinator

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	. "github.com/onsi/gomega"
	"github.com/stretchr/testify/require"
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/types"
	"k8s.io/apimachinery/pkg/util/clock"
	"sigs.k8s.io/controller-runtime/pkg/client"
	"sigs.k8s.io/controller-runtime/pkg/event"
	logf "sigs.k8s.io/controller-runtime/pkg/log"
)

var testKey = types.NamespacedName{Namespace: "default", Name: "pe-1"}

func newConfigMap(value string) *corev1.ConfigMap {
	return &corev1.ConfigMap{
		ObjectMeta: metav1.ObjectMeta{Namespace: testKey.Namespace, Name: testKey.Name},
		Data:       map[string]string{"connectivity": value},
	}
}

// setCommand waits for the "connectivity" value of the watched object to
// become target.
func setCommand(target string, runs *int32) *Command {
	return NewCommand("set-"+target,
		func(ctx context.Context) (Action, Status, error) {
			atomic.AddInt32(runs, 1)
			return ActionWait, StatusUnknown, nil
		},
		func(prev, cur client.Object) (bool, Status) {
			if cur == nil {
				return true, StatusProcessingElementNotFound
			}
			var value = cur.(*corev1.ConfigMap).Data["connectivity"]
			if value == target {
				return true, StatusSuccess
			}
			if prev != nil && prev.(*corev1.ConfigMap).Data["connectivity"] != value {
				return true, StatusFailure
			}
			return false, StatusUnknown
		})
}

func newTestCoordinator(clk clock.Clock) *Coordinator {
	return New(logf.Log.WithName("coordinator-test"), clk, time.Minute)
}

func TestApplyRemoveResolvesSynchronously(t *testing.T) {
	var c = newTestCoordinator(clock.NewFakeClock(time.Now()))
	var cmd = NewCommand("noop",
		func(ctx context.Context) (Action, Status, error) {
			return ActionRemove, StatusNoChangeNeeded, nil
		},
		func(prev, cur client.Object) (bool, Status) { return false, StatusUnknown })

	var status, err = c.Apply(context.Background(), testKey, cmd)
	require.NoError(t, err)
	require.Equal(t, StatusNoChangeNeeded, status)
	require.False(t, c.IsPending(testKey))
}

func TestApplyRunError(t *testing.T) {
	var c = newTestCoordinator(clock.NewFakeClock(time.Now()))
	var cmd = NewCommand("broken",
		func(ctx context.Context) (Action, Status, error) {
			return ActionWait, StatusUnknown, errors.New("conflict")
		},
		func(prev, cur client.Object) (bool, Status) { return false, StatusUnknown })

	var status, err = c.Apply(context.Background(), testKey, cmd)
	require.Equal(t, StatusFailure, status)
	require.True(t, errors.Is(err, ErrCommandFailed))
	require.False(t, c.IsPending(testKey))
}

func TestApplyResolvedByWatchEvent(t *testing.T) {
	var g = NewWithT(t)
	var c = newTestCoordinator(clock.NewFakeClock(time.Now()))
	var runs int32
	var result = make(chan error, 1)
	go func() {
		var _, err = c.Apply(context.Background(), testKey, setCommand("Full", &runs))
		result <- err
	}()
	g.Eventually(func() int32 { return atomic.LoadInt32(&runs) }).Should(Equal(int32(1)))

	// Unrelated change.
	var prev = newConfigMap("None")
	var cur = newConfigMap("None")
	cur.Labels = map[string]string{"generation": "2"}
	c.OnEvent(testKey, prev, cur)
	g.Consistently(result, 50*time.Millisecond).ShouldNot(Receive())

	c.OnEvent(testKey, cur, newConfigMap("Full"))
	g.Eventually(result).Should(Receive(BeNil()))
	require.False(t, c.IsPending(testKey))
}

func TestApplyFailureSurfacesError(t *testing.T) {
	var g = NewWithT(t)
	var c = newTestCoordinator(clock.NewFakeClock(time.Now()))
	var runs int32
	var result = make(chan error, 1)
	go func() {
		var _, err = c.Apply(context.Background(), testKey, setCommand("Full", &runs))
		result <- err
	}()
	g.Eventually(func() int32 { return atomic.LoadInt32(&runs) }).Should(Equal(int32(1)))

	c.OnEvent(testKey, newConfigMap("None"), newConfigMap("Partial"))
	var err error
	g.Eventually(result).Should(Receive(&err))
	require.True(t, errors.Is(err, ErrCommandFailed))
}

// A second command for the same resource runs only after the first one is
// resolved.
func TestAtMostOnePendingCommand(t *testing.T) {
	var g = NewWithT(t)
	var c = newTestCoordinator(clock.NewFakeClock(time.Now()))
	var firstRuns, secondRuns int32
	var first, second = make(chan Status, 1), make(chan Status, 1)

	go func() {
		var status, _ = c.Apply(context.Background(), testKey, setCommand("Full", &firstRuns))
		first <- status
	}()
	g.Eventually(func() int32 { return atomic.LoadInt32(&firstRuns) }).Should(Equal(int32(1)))

	go func() {
		var status, _ = c.Apply(context.Background(), testKey, setCommand("Partial", &secondRuns))
		second <- status
	}()
	g.Consistently(func() int32 { return atomic.LoadInt32(&secondRuns) }, 100*time.Millisecond).
		Should(Equal(int32(0)))

	c.OnEvent(testKey, newConfigMap("None"), newConfigMap("Full"))
	g.Eventually(first).Should(Receive(Equal(StatusSuccess)))
	g.Eventually(func() int32 { return atomic.LoadInt32(&secondRuns) }).Should(Equal(int32(1)))
	require.Equal(t, int32(1), atomic.LoadInt32(&firstRuns))

	g.Eventually(func() bool { return c.IsPending(testKey) }).Should(BeTrue())
	c.OnEvent(testKey, newConfigMap("Full"), newConfigMap("Partial"))
	g.Eventually(second).Should(Receive(Equal(StatusSuccess)))
}

// Events delivered while the command is running are checked once it
// finishes.
func TestEventDuringRunIsReplayed(t *testing.T) {
	var c = newTestCoordinator(clock.NewFakeClock(time.Now()))
	var cmd = NewCommand("racy",
		nil,
		func(prev, cur client.Object) (bool, Status) {
			return cur.(*corev1.ConfigMap).Data["connectivity"] == "Full", StatusSuccess
		})
	cmd.Run = func(ctx context.Context) (Action, Status, error) {
		c.OnEvent(testKey, newConfigMap("None"), newConfigMap("Full"))
		return ActionWait, StatusUnknown, nil
	}

	var status, err = c.Apply(context.Background(), testKey, cmd)
	require.NoError(t, err)
	require.Equal(t, StatusSuccess, status)
}

func withVersion(cm *corev1.ConfigMap, version string) *corev1.ConfigMap {
	cm.ResourceVersion = version
	return cm
}

// Deltas older than the recorded write never resolve the command, even when
// they look like a conflicting change.
func TestDeltaOlderThanWriteIsSkipped(t *testing.T) {
	var g = NewWithT(t)
	var c = newTestCoordinator(clock.NewFakeClock(time.Now()))
	var runs int32
	var cmd = setCommand("Full", &runs)
	cmd.Run = func(ctx context.Context) (Action, Status, error) {
		// Delivered late by the informer, after the cache already moved on.
		c.OnEvent(testKey, withVersion(newConfigMap("None"), "3"),
			withVersion(newConfigMap("Partial"), "4"))
		RecordWrite(ctx, withVersion(newConfigMap("Full"), "5"))
		return ActionWait, StatusUnknown, nil
	}
	var result = make(chan Status, 1)
	go func() {
		var status, _ = c.Apply(context.Background(), testKey, cmd)
		result <- status
	}()
	g.Consistently(result, 100*time.Millisecond).ShouldNot(Receive())
	require.True(t, c.IsPending(testKey))

	c.OnEvent(testKey, withVersion(newConfigMap("Partial"), "4"),
		withVersion(newConfigMap("Full"), "5"))
	g.Eventually(result).Should(Receive(Equal(StatusSuccess)))
}

// A later version than the write counts as observed when the write itself
// was never delivered.
func TestNewerVersionThanWriteIsChecked(t *testing.T) {
	var g = NewWithT(t)
	var c = newTestCoordinator(clock.NewFakeClock(time.Now()))
	var runs int32
	var cmd = setCommand("Full", &runs)
	cmd.Run = func(ctx context.Context) (Action, Status, error) {
		RecordWrite(ctx, withVersion(newConfigMap("Full"), "5"))
		return ActionWait, StatusUnknown, nil
	}
	var result = make(chan Status, 1)
	go func() {
		var status, _ = c.Apply(context.Background(), testKey, cmd)
		result <- status
	}()
	g.Eventually(func() bool { return c.IsPending(testKey) }).Should(BeTrue())

	var full = withVersion(newConfigMap("Full"), "7")
	full.Labels = map[string]string{"generation": "2"}
	c.OnEvent(testKey, withVersion(newConfigMap("Full"), "6"), full)
	g.Eventually(result).Should(Receive(Equal(StatusSuccess)))
}

func TestApplyTimeout(t *testing.T) {
	var g = NewWithT(t)
	var fakeClock = clock.NewFakeClock(time.Now())
	var c = newTestCoordinator(fakeClock)
	var runs int32
	var result = make(chan error, 1)
	go func() {
		var _, err = c.Apply(context.Background(), testKey, setCommand("Full", &runs))
		result <- err
	}()
	g.Eventually(fakeClock.HasWaiters).Should(BeTrue())
	fakeClock.Step(time.Minute)

	var err error
	g.Eventually(result).Should(Receive(&err))
	require.True(t, errors.Is(err, ErrCommandTimeout))
	require.False(t, c.IsPending(testKey))
}

func TestSubmitDoesNotBlock(t *testing.T) {
	var g = NewWithT(t)
	var c = newTestCoordinator(clock.NewFakeClock(time.Now()))
	var runs int32
	var cmd = setCommand("Full", &runs)

	c.Submit(testKey, cmd)
	g.Eventually(func() int32 { return atomic.LoadInt32(&runs) }).Should(Equal(int32(1)))
	require.Equal(t, StatusUnknown, cmd.Status())

	c.OnEvent(testKey, newConfigMap("None"), newConfigMap("Full"))
	g.Eventually(cmd.Done()).Should(BeClosed())
	require.Equal(t, StatusSuccess, cmd.Status())
}

func TestDeletedResource(t *testing.T) {
	var g = NewWithT(t)
	var c = newTestCoordinator(clock.NewFakeClock(time.Now()))
	var runs int32
	var cmd = setCommand("Full", &runs)
	c.Submit(testKey, cmd)
	g.Eventually(func() int32 { return atomic.LoadInt32(&runs) }).Should(Equal(int32(1)))

	c.EventHandler().Delete(event.DeleteEvent{Object: newConfigMap("None")}, nil)
	g.Eventually(cmd.Done()).Should(BeClosed())
	require.True(t, errors.Is(cmd.Err(), ErrProcessingElementNotFound))
}

func TestCloseResolvesUnknown(t *testing.T) {
	var g = NewWithT(t)
	var c = newTestCoordinator(clock.NewFakeClock(time.Now()))
	var runs int32
	var cmd = setCommand("Full", &runs)
	c.Submit(testKey, cmd)
	g.Eventually(func() int32 { return atomic.LoadInt32(&runs) }).Should(Equal(int32(1)))

	c.Close()
	g.Eventually(cmd.Done()).Should(BeClosed())
	require.Equal(t, StatusUnknown, cmd.Status())
	require.True(t, errors.Is(cmd.Err(), ErrCommandUnknown))

	var _, err = c.Apply(context.Background(), testKey, setCommand("Full", &runs))
	require.True(t, errors.Is(err, ErrCommandUnknown))
}

func TestStatusErr(t *testing.T) {
	var cases = []struct {
		status Status
		want   error
	}{
		{StatusSuccess, nil},
		{StatusNoChangeNeeded, nil},
		{StatusJobNotFound, ErrJobNotFound},
		{StatusProcessingElementNotFound, ErrProcessingElementNotFound},
		{StatusExportNotFound, ErrExportNotFound},
		{StatusFailure, ErrCommandFailed},
		{StatusTimeout, ErrCommandTimeout},
		{StatusUnknown, ErrCommandUnknown},
	}
	for _, tc := range cases {
		t.Run(string(tc.status), func(t *testing.T) {
			var err = tc.status.Err(nil)
			if tc.want == nil {
				require.NoError(t, err)
				return
			}
			require.True(t, errors.Is(err, tc.want))
		})
	}
	require.True(t, errors.Is(StatusFailure.Err(errors.New("boom")), ErrCommandFailed))
}
