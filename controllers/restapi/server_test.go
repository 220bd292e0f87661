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

package restapi

import (
	"bytes"
	"encoding/json"
	"io/ioutil"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"gotest.tools/assert"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/apimachinery/pkg/types"
	"k8s.io/apimachinery/pkg/util/clock"
	"sigs.k8s.io/controller-runtime/pkg/client"
	"sigs.k8s.io/controller-runtime/pkg/client/fake"
	logf "sigs.k8s.io/controller-runtime/pkg/log"

	"github.com/googlecloudplatform/streams-operator/api/v1beta1"
	"github.com/googlecloudplatform/streams-operator/controllers/consistent"
	"github.com/googlecloudplatform/streams-operator/controllers/coordinator"
	"github.com/googlecloudplatform/streams-operator/controllers/notification"
	"github.com/googlecloudplatform/streams-operator/controllers/subscription"
)

var properties = []v1beta1.StreamProperty{
	{Name: "kind", Type: "rstring", Values: []string{"trades"}},
}

func newTestServer(objs ...client.Object) (*Server, *subscription.Board, *notification.Board) {
	var scheme = runtime.NewScheme()
	_ = v1beta1.AddToScheme(scheme)
	var k8sClient = fake.NewClientBuilder().WithScheme(scheme).WithObjects(objs...).Build()
	var log = logf.Log.WithName("restapi-test")
	var c = coordinator.New(log, clock.NewFakeClock(time.Now()), time.Minute)
	var subs = subscription.NewBoard()
	var notes = notification.NewBoard()
	var server = NewServer(Options{}, subs, notes, k8sClient,
		subscription.NewExportCoordinator(k8sClient, c), log)
	return server, subs, notes
}

func get(t *testing.T, handler http.Handler, url string) (int, []byte) {
	var recorder = httptest.NewRecorder()
	handler.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, url, nil))
	var body, err = ioutil.ReadAll(recorder.Result().Body)
	assert.NilError(t, err)
	return recorder.Code, body
}

func TestHealth(t *testing.T) {
	var server, _, _ = newTestServer()
	var code, body = get(t, server.Handler(), "/healthz")
	assert.Equal(t, code, http.StatusOK)
	assert.Equal(t, string(body), "ok")
}

func TestGetSubscriptions(t *testing.T) {
	var server, subs, _ = newTestServer()
	subs.Add(
		subscription.ExportRef{
			Key:     types.NamespacedName{Namespace: "default", Name: "exp"},
			JobName: "producer", PeID: 1, PortID: 10},
		subscription.ImportRef{
			Key:     types.NamespacedName{Namespace: "default", Name: "imp"},
			JobName: "consumer", PeID: 2, PortID: 20})

	var code, body = get(t, server.Handler(), "/api/subscriptions/job/producer/pe/1")
	assert.Equal(t, code, http.StatusOK)
	var got subscription.Subscriptions
	assert.NilError(t, json.Unmarshal(body, &got))
	assert.Equal(t, len(got.Exports), 1)
	assert.Equal(t, len(got.Imports), 0)

	code, _ = get(t, server.Handler(), "/api/subscriptions/job/producer/pe/1?namespace=other")
	assert.Equal(t, code, http.StatusNotFound)

	code, _ = get(t, server.Handler(), "/api/subscriptions/job/producer/pe/one")
	assert.Equal(t, code, http.StatusNotFound)
}

func TestGetNotifications(t *testing.T) {
	var server, _, notes = newTestServer()
	var drain = consistent.Notification{
		Type: consistent.NotificationTriggerDrain, Message: "seqId=2"}
	notes.Add(types.NamespacedName{Namespace: "default", Name: "trades-3"}, 1, drain)

	var code, body = get(t, server.Handler(), "/api/consistent-region/job/trades/pe/3")
	assert.Equal(t, code, http.StatusOK)
	var got map[int32]consistent.Notification
	assert.NilError(t, json.Unmarshal(body, &got))
	assert.DeepEqual(t, got, map[int32]consistent.Notification{1: drain})

	code, body = get(t, server.Handler(), "/api/consistent-region/job/trades/pe/4")
	assert.Equal(t, code, http.StatusOK)
	assert.Equal(t, string(bytes.TrimSpace(body)), "{}")
}

func TestGetRegion(t *testing.T) {
	var region = &v1beta1.ConsistentRegion{
		ObjectMeta: metav1.ObjectMeta{Namespace: "default", Name: "trades-cr0"},
		Spec: v1beta1.ConsistentRegionSpec{
			JobName: "trades", State: v1beta1.ConsistentRegionStateDraining, CurrentSeqID: 5},
	}
	var server, _, _ = newTestServer(region)

	var code, body = get(t, server.Handler(), "/api/consistent-region/job/trades/region/0")
	assert.Equal(t, code, http.StatusOK)
	var got v1beta1.ConsistentRegionSpec
	assert.NilError(t, json.Unmarshal(body, &got))
	assert.Equal(t, got.State, v1beta1.ConsistentRegionStateDraining)
	assert.Equal(t, got.CurrentSeqID, int64(5))

	code, _ = get(t, server.Handler(), "/api/consistent-region/job/trades/region/1")
	assert.Equal(t, code, http.StatusNotFound)
}

func TestPutExportProperties(t *testing.T) {
	var job = &v1beta1.Job{ObjectMeta: metav1.ObjectMeta{Namespace: "default", Name: "producer"}}
	var export = &v1beta1.Export{
		ObjectMeta: metav1.ObjectMeta{Namespace: "default", Name: "exp"},
		Spec: v1beta1.ExportSpec{
			JobName: "producer", PeID: 1, PortID: 10,
			Stream: v1beta1.ExportedStream{Properties: properties},
		},
	}
	var server, _, _ = newTestServer(job, export)
	var put = func(name string, body []byte) int {
		var recorder = httptest.NewRecorder()
		server.Handler().ServeHTTP(recorder, httptest.NewRequest(
			http.MethodPut, "/api/exports/"+name+"/properties", bytes.NewReader(body)))
		return recorder.Code
	}

	var body, _ = json.Marshal(properties)
	assert.Equal(t, put("exp", body), http.StatusNoContent)
	assert.Equal(t, put("missing", body), http.StatusNotFound)
	assert.Equal(t, put("exp", []byte("[")), http.StatusBadRequest)
}
