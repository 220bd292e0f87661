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

package consistent

import (
	"testing"

	"github.com/stretchr/testify/require"
	"k8s.io/apimachinery/pkg/types"

	"github.com/googlecloudplatform/streams-operator/controllers/timer"
)

func TestInboxOrder(t *testing.T) {
	var inbox = NewInbox()
	var region = types.NamespacedName{Namespace: "default", Name: "trades-cr0"}
	var other = types.NamespacedName{Namespace: "default", Name: "trades-cr1"}

	inbox.Push(region, checkpointDone(1, 0))
	inbox.Push(region, checkpointDone(2, 0))
	inbox.Push(other, HealthEvent())
	require.Equal(t, 2, inbox.Len(region))
	require.Equal(t, 1, inbox.Len(other))

	e, ok := inbox.Pop(region)
	require.True(t, ok)
	require.Equal(t, int64(1), e.Progress.PeID)

	inbox.PushFront(region, e)
	e, ok = inbox.Pop(region)
	require.True(t, ok)
	require.Equal(t, int64(1), e.Progress.PeID)

	e, ok = inbox.Pop(region)
	require.True(t, ok)
	require.Equal(t, int64(2), e.Progress.PeID)

	_, ok = inbox.Pop(region)
	require.False(t, ok)
	require.Equal(t, 0, inbox.Len(region))
}

func TestInboxDrop(t *testing.T) {
	var inbox = NewInbox()
	var region = types.NamespacedName{Namespace: "default", Name: "trades-cr0"}
	inbox.Push(region, TimerEvent(timer.Event{Region: region, Kind: timer.DrainPeriod}))
	inbox.Drop(region)
	require.Equal(t, 0, inbox.Len(region))
}

func TestEventString(t *testing.T) {
	require.Equal(t, "CheckpointDone(pe=2, seq=5)", checkpointDone(2, 5).String())
	require.Equal(t, "Health", HealthEvent().String())
	require.Equal(t, "DrainTimeout(timer=3)",
		TimerEvent(timer.Event{Kind: timer.DrainTimeout, TimerSeqID: 3}).String())
}
