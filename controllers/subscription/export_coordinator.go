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

package subscription

import (
	"context"
	"reflect"

	apierrors "k8s.io/apimachinery/pkg/api/errors"
	"k8s.io/apimachinery/pkg/types"
	"k8s.io/client-go/util/retry"
	"sigs.k8s.io/controller-runtime/pkg/client"

	"github.com/googlecloudplatform/streams-operator/api/v1beta1"
	"github.com/googlecloudplatform/streams-operator/controllers/coordinator"
)

// ExportCoordinator mutates exports through the coordinator.
type ExportCoordinator struct {
	client      client.Client
	coordinator *coordinator.Coordinator
}

func NewExportCoordinator(
	k8sClient client.Client, c *coordinator.Coordinator) *ExportCoordinator {
	return &ExportCoordinator{client: k8sClient, coordinator: c}
}

// UpdateExportProperties replaces the stream properties of an export and
// waits until the change is observed.
func (ec *ExportCoordinator) UpdateExportProperties(
	ctx context.Context,
	key types.NamespacedName,
	properties []v1beta1.StreamProperty) error {
	var run = func(ctx context.Context) (coordinator.Action, coordinator.Status, error) {
		var status coordinator.Status
		var err = retry.RetryOnConflict(retry.DefaultBackoff, func() error {
			var export v1beta1.Export
			if err := ec.client.Get(ctx, key, &export); err != nil {
				if apierrors.IsNotFound(err) {
					status = coordinator.StatusExportNotFound
					return nil
				}
				return err
			}
			var job v1beta1.Job
			var jobKey = types.NamespacedName{Namespace: key.Namespace, Name: export.Spec.JobName}
			if err := ec.client.Get(ctx, jobKey, &job); err != nil {
				if apierrors.IsNotFound(err) {
					status = coordinator.StatusJobNotFound
					return nil
				}
				return err
			}
			if propertiesEqual(export.Spec.Stream.Properties, properties) {
				status = coordinator.StatusNoChangeNeeded
				return nil
			}
			export.Spec.Stream.Properties = properties
			status = coordinator.StatusUnknown
			if err := ec.client.Update(ctx, &export); err != nil {
				return err
			}
			coordinator.RecordWrite(ctx, &export)
			return nil
		})
		if err != nil {
			return coordinator.ActionRemove, coordinator.StatusFailure, err
		}
		if status != coordinator.StatusUnknown {
			return coordinator.ActionRemove, status, nil
		}
		return coordinator.ActionWait, coordinator.StatusUnknown, nil
	}
	var check = func(prev, cur client.Object) (bool, coordinator.Status) {
		if cur == nil {
			return true, coordinator.StatusExportNotFound
		}
		var current = cur.(*v1beta1.Export).Spec.Stream.Properties
		if propertiesEqual(current, properties) {
			return true, coordinator.StatusSuccess
		}
		if prev != nil &&
			!propertiesEqual(prev.(*v1beta1.Export).Spec.Stream.Properties, current) {
			return true, coordinator.StatusFailure
		}
		return false, coordinator.StatusUnknown
	}
	var cmd = coordinator.NewCommand("update-export-properties", run, check)
	var _, err = ec.coordinator.Apply(ctx, key, cmd)
	return err
}

func propertiesEqual(a, b []v1beta1.StreamProperty) bool {
	if len(a) == 0 && len(b) == 0 {
		return true
	}
	return reflect.DeepEqual(a, b)
}
