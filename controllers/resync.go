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
	"github.com/robfig/cron/v3"
	"sigs.k8s.io/controller-runtime/pkg/client"
	"sigs.k8s.io/controller-runtime/pkg/event"

	"github.com/googlecloudplatform/streams-operator/api/v1beta1"
)

// DefaultResyncSchedule re-evaluates every region once a minute.
const DefaultResyncSchedule = "@every 1m"

// RegionResync periodically wakes the region reconciler up for every region
// so that health changes missed by the watches are still handled.
type RegionResync struct {
	Reader    client.Reader
	Log       logr.Logger
	Events    chan<- event.GenericEvent
	Schedule  string
	Namespace string
}

// Start runs the sweep on its schedule until the context is done.
func (r *RegionResync) Start(ctx context.Context) error {
	var schedule = r.Schedule
	if schedule == "" {
		schedule = DefaultResyncSchedule
	}
	var c = cron.New()
	if _, err := c.AddFunc(schedule, func() { r.sweep(ctx) }); err != nil {
		return fmt.Errorf("invalid resync schedule %q: %w", schedule, err)
	}
	r.Log.Info("Starting region resync", "schedule", schedule)
	c.Start()
	<-ctx.Done()
	<-c.Stop().Done()
	return nil
}

func (r *RegionResync) sweep(ctx context.Context) {
	var regions v1beta1.ConsistentRegionList
	var opts []client.ListOption
	if r.Namespace != "" {
		opts = append(opts, client.InNamespace(r.Namespace))
	}
	if err := r.Reader.List(ctx, &regions, opts...); err != nil {
		r.Log.Error(err, "Failed to list regions")
		return
	}
	r.Log.V(1).Info("Resyncing regions", "count", len(regions.Items))
	for i := range regions.Items {
		select {
		case r.Events <- event.GenericEvent{Object: &regions.Items[i]}:
		case <-ctx.Done():
			return
		}
	}
}
