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

package notification

import (
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/nats-io/nats.go"
	"gotest.tools/assert"
	"k8s.io/apimachinery/pkg/types"
	logf "sigs.k8s.io/controller-runtime/pkg/log"

	"github.com/googlecloudplatform/streams-operator/api/v1beta1"
	"github.com/googlecloudplatform/streams-operator/controllers/consistent"
)

type message struct {
	subject string
	data    []byte
}

type recordingConn struct {
	mu       sync.Mutex
	messages []message
	err      error
}

func (c *recordingConn) Publish(subject string, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return c.err
	}
	c.messages = append(c.messages, message{subject: subject, data: data})
	return nil
}

var drain = consistent.Notification{
	Type: consistent.NotificationTriggerDrain, Message: "seqId=4"}

func testRegion(index int32, pes ...int64) *v1beta1.ConsistentRegionSpec {
	return &v1beta1.ConsistentRegionSpec{JobName: "trades", RegionIndex: index, PesInRegion: pes}
}

func TestBoard(t *testing.T) {
	var board = NewBoard()
	var pe = types.NamespacedName{Namespace: "default", Name: "trades-1"}
	var reset = consistent.Notification{
		Type: consistent.NotificationTriggerReset, Message: "seqId=3;resetAttempt=0"}

	board.Add(pe, 0, drain)
	board.Add(pe, 1, drain)
	board.Add(pe, 0, reset)
	assert.DeepEqual(t, board.Get(pe), map[int32]consistent.Notification{0: reset, 1: drain})

	var copied = board.Get(pe)
	delete(copied, 0)
	assert.Equal(t, len(board.Get(pe)), 2)

	board.Clear(pe, 0)
	board.Clear(pe, 1)
	assert.Equal(t, len(board.Keys()), 0)
	assert.Equal(t, len(board.Get(pe)), 0)

	board.Add(pe, 2, drain)
	board.Remove(pe)
	assert.Equal(t, len(board.Keys()), 0)
}

func TestNotifyRegion(t *testing.T) {
	var conn = &recordingConn{}
	var publisher = NewPublisher(conn, "", NewBoard(), logf.Log.WithName("publisher-test"))

	assert.NilError(t, publisher.NotifyRegion("default", testRegion(2, 1, 3), drain))
	assert.Equal(t, len(conn.messages), 2)
	assert.Equal(t, conn.messages[0].subject, "streams.default.trades-1.consistent-region")
	assert.Equal(t, conn.messages[1].subject, "streams.default.trades-3.consistent-region")

	var payload map[int32]consistent.Notification
	assert.NilError(t, json.Unmarshal(conn.messages[1].data, &payload))
	assert.DeepEqual(t, payload, map[int32]consistent.Notification{2: drain})

	var keys = publisher.Board().Keys()
	assert.Equal(t, len(keys), 2)

	publisher.ClearRegion("default", testRegion(2, 1, 3))
	assert.Equal(t, len(publisher.Board().Keys()), 0)
}

func TestNotifyRegionPublishError(t *testing.T) {
	var conn = &recordingConn{err: nats.ErrConnectionClosed}
	var publisher = NewPublisher(conn, "streams", NewBoard(), logf.Log.WithName("publisher-test"))

	var err = publisher.NotifyRegion("default", testRegion(0, 1), drain)
	assert.Assert(t, errors.Is(err, nats.ErrConnectionClosed))
	// The board is updated regardless so the PE can fetch it.
	assert.Equal(t, len(publisher.Board().Keys()), 1)
}

func TestNotifySubscriptions(t *testing.T) {
	var conn = &recordingConn{}
	var publisher = NewPublisher(conn, "streams", NewBoard(), logf.Log.WithName("publisher-test"))
	var pe = types.NamespacedName{Namespace: "apps", Name: "trades-7"}

	assert.NilError(t, publisher.NotifySubscriptions(pe, []byte(`{}`)))
	assert.Equal(t, conn.messages[0].subject, "streams.apps.trades-7.subscriptions")
}

func TestPublisherWithoutConnection(t *testing.T) {
	var publisher = NewPublisher(nil, "streams", NewBoard(), logf.Log.WithName("publisher-test"))
	assert.NilError(t, publisher.NotifyRegion("default", testRegion(0, 1), drain))
	assert.Equal(t, len(publisher.Board().Keys()), 1)
}

func TestProgressListenerHandleMsg(t *testing.T) {
	type received struct {
		namespace string
		progress  consistent.Progress
	}
	var got []received
	var listener = NewProgressListener(nil, "streams",
		func(namespace string, progress consistent.Progress) {
			got = append(got, received{namespace: namespace, progress: progress})
		}, logf.Log.WithName("progress-test"))

	listener.HandleMsg(&nats.Msg{
		Subject: "streams.default.progress",
		Data: []byte(`{"progressType":"CheckpointDone","jobName":"trades",` +
			`"regionIndex":1,"peId":3,"sequenceId":7,"resetAttempt":0}`),
	})
	listener.HandleMsg(&nats.Msg{Subject: "streams.default.progress", Data: []byte(`{`)})
	listener.HandleMsg(&nats.Msg{Subject: "streams.default.progress", Data: []byte(`{}`)})
	listener.HandleMsg(&nats.Msg{Subject: "other.default.progress", Data: []byte(`{}`)})

	assert.DeepEqual(t, got, []received{{
		namespace: "default",
		progress: consistent.Progress{
			Type:        consistent.ProgressCheckpointDone,
			JobName:     "trades",
			RegionIndex: 1,
			PeID:        3,
			SeqID:       7,
		},
	}}, cmp.AllowUnexported(received{}))
}

func TestSubjects(t *testing.T) {
	assert.Equal(t, RegionSubject("streams", "ns", "job", 4), "streams.ns.job-4.consistent-region")
	assert.Equal(t, SubscriptionsSubject("streams", "ns", "job-4"), "streams.ns.job-4.subscriptions")
	assert.Equal(t, ProgressSubject("streams", "ns"), "streams.ns.progress")
}
