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

	"github.com/go-logr/logr"
	corev1 "k8s.io/api/core/v1"
	"k8s.io/apimachinery/pkg/api/errors"
	"k8s.io/apimachinery/pkg/types"
	"k8s.io/client-go/util/retry"
	"sigs.k8s.io/controller-runtime/pkg/client"

	"github.com/googlecloudplatform/streams-operator/api/v1beta1"
	"github.com/googlecloudplatform/streams-operator/controllers/consistent"
	"github.com/googlecloudplatform/streams-operator/controllers/coordinator"
	"github.com/googlecloudplatform/streams-operator/controllers/timer"
)

// _RegionUpdater persists the transitions of a region and applies their
// effects once the write is confirmed.
type _RegionUpdater struct {
	reconciler *ConsistentRegionReconciler
	key        types.NamespacedName
	context    context.Context
	log        logr.Logger
}

// Handles one event against the latest region.
func (updater *_RegionUpdater) handle(e consistent.Event, env consistent.Env) error {
	var reconciler = updater.reconciler
	var log = updater.log.WithValues("event", e.String())

	var result consistent.Result
	var previous v1beta1.ConsistentRegionState
	var written *v1beta1.ConsistentRegion

	var run = func(ctx context.Context) (coordinator.Action, coordinator.Status, error) {
		var err = retry.RetryOnConflict(retry.DefaultBackoff, func() error {
			var region v1beta1.ConsistentRegion
			if err := reconciler.Client.Get(ctx, updater.key, &region); err != nil {
				return err
			}
			previous = region.Spec.State
			result = reconciler.Machine.Handle(&region.Spec, e, env)
			if !result.IsChanged() {
				written = &region
				return nil
			}
			region.Spec = *result.Spec
			if err := reconciler.Client.Update(ctx, &region); err != nil {
				return err
			}
			coordinator.RecordWrite(ctx, &region)
			written = &region
			return nil
		})
		if err != nil {
			if errors.IsNotFound(err) {
				return coordinator.ActionRemove, coordinator.StatusConsistentRegionNotFound, nil
			}
			return coordinator.ActionRemove, coordinator.StatusFailure, err
		}
		if !result.IsChanged() {
			return coordinator.ActionRemove, coordinator.StatusNoChangeNeeded, nil
		}
		return coordinator.ActionWait, coordinator.StatusUnknown, nil
	}
	var check = func(prev, cur client.Object) (bool, coordinator.Status) {
		if cur == nil {
			return true, coordinator.StatusConsistentRegionNotFound
		}
		if written != nil && cur.GetResourceVersion() == written.ResourceVersion {
			return true, coordinator.StatusSuccess
		}
		return false, coordinator.StatusUnknown
	}

	var cmd = coordinator.NewCommand("HandleRegionEvent", run, check)
	var status, err = reconciler.Coordinator.Apply(updater.context, updater.key, cmd)
	if written == nil {
		if status == coordinator.StatusConsistentRegionNotFound {
			log.Info("Region is gone, dropping event")
			return nil
		}
		if err == nil {
			err = fmt.Errorf("region %s was not updated: %s", updater.key, status)
		}
		return err
	}
	switch status {
	case coordinator.StatusSuccess, coordinator.StatusNoChangeNeeded:
	case coordinator.StatusConsistentRegionNotFound:
		log.Info("Region deleted after update, dropping effects")
		return nil
	default:
		// The write went through, only its observation is missing.
		log.Info("Region update not observed, applying effects", "status", status)
	}
	updater.apply(written, previous, &result)
	return nil
}

// Applies the effects of a persisted transition.
func (updater *_RegionUpdater) apply(
	region *v1beta1.ConsistentRegion,
	previous v1beta1.ConsistentRegionState,
	result *consistent.Result) {
	var reconciler = updater.reconciler
	var namespace = updater.key.Namespace
	var spec = &region.Spec

	if result.ClearTimers {
		reconciler.Timers.Cancel(updater.key)
	}
	for _, t := range result.Timers {
		updater.log.V(1).Info("Arming timer", "timer", t.Kind, "after", t.After)
		reconciler.Timers.Schedule(timer.Event{
			Region: updater.key, Kind: t.Kind, TimerSeqID: t.TimerSeqID}, t.After)
	}
	if result.ClearBoard {
		reconciler.Publisher.ClearRegion(namespace, spec)
	}
	if result.Notification != nil {
		var n = *result.Notification
		updater.log.Info("Notifying region", "notification", n.Type, "message", n.Message)
		if err := reconciler.Publisher.NotifyRegion(namespace, spec, n); err != nil {
			updater.log.Error(err, "Failed to publish notification", "notification", n.Type)
		}
	}
	if !result.IsChanged() {
		return
	}
	updateRegionMetrics(reconciler.Metrics, namespace, spec)
	if spec.State != previous && reconciler.Recorder != nil {
		var eventType = corev1.EventTypeNormal
		if spec.State == v1beta1.ConsistentRegionStateMaximumResetAttemptsReached {
			eventType = corev1.EventTypeWarning
		}
		reconciler.Recorder.Eventf(region, eventType, "StateChanged",
			"Consistent region moved from %s to %s", previous, spec.State)
	}
}
