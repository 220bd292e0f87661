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

// Package processingelement mutates processing elements through the
// coordinator so that a mutation is only reported once it is observed.
package processingelement

import (
	"context"
	"strconv"

	apierrors "k8s.io/apimachinery/pkg/api/errors"
	"k8s.io/apimachinery/pkg/types"
	"k8s.io/client-go/util/retry"
	"sigs.k8s.io/controller-runtime/pkg/client"

	"github.com/googlecloudplatform/streams-operator/api/v1beta1"
	"github.com/googlecloudplatform/streams-operator/controllers/coordinator"
)

// Coordinator exposes the mutations of processing elements. Every method
// but IncrementPeLaunchCount blocks until the mutation is observed.
type Coordinator struct {
	client      client.Client
	coordinator *coordinator.Coordinator
}

func NewCoordinator(k8sClient client.Client, c *coordinator.Coordinator) *Coordinator {
	return &Coordinator{client: k8sClient, coordinator: c}
}

// GenerationOf returns the generation label value of the PEs of a job.
func GenerationOf(job *v1beta1.Job) string {
	return strconv.FormatInt(job.Generation, 10)
}

// mutation changes a PE in place. It returns false when the PE is already
// in the desired state.
type mutation func(job *v1beta1.Job, pe *v1beta1.ProcessingElement) bool

// run returns the run function of a command mutating a PE. The job is read
// first when jobName is not empty.
func (pc *Coordinator) run(
	key types.NamespacedName, jobName string, mutate mutation) coordinator.RunFunc {
	return func(ctx context.Context) (coordinator.Action, coordinator.Status, error) {
		var status coordinator.Status
		var err = retry.RetryOnConflict(retry.DefaultBackoff, func() error {
			var job *v1beta1.Job
			if jobName != "" {
				job = &v1beta1.Job{}
				var jobKey = types.NamespacedName{Namespace: key.Namespace, Name: jobName}
				if err := pc.client.Get(ctx, jobKey, job); err != nil {
					if apierrors.IsNotFound(err) {
						status = coordinator.StatusJobNotFound
						return nil
					}
					return err
				}
			}
			var pe v1beta1.ProcessingElement
			if err := pc.client.Get(ctx, key, &pe); err != nil {
				if apierrors.IsNotFound(err) {
					status = coordinator.StatusProcessingElementNotFound
					return nil
				}
				return err
			}
			if !mutate(job, &pe) {
				status = coordinator.StatusNoChangeNeeded
				return nil
			}
			status = coordinator.StatusUnknown
			if err := pc.client.Update(ctx, &pe); err != nil {
				return err
			}
			coordinator.RecordWrite(ctx, &pe)
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
}

// UpdatePeConnectivity sets the connectivity of a PE.
func (pc *Coordinator) UpdatePeConnectivity(
	ctx context.Context,
	key types.NamespacedName,
	connectivity v1beta1.Connectivity) error {
	var run = pc.run(key, "", func(_ *v1beta1.Job, pe *v1beta1.ProcessingElement) bool {
		if pe.Spec.Connectivity == connectivity {
			return false
		}
		pe.Spec.Connectivity = connectivity
		return true
	})
	var check = func(prev, cur client.Object) (bool, coordinator.Status) {
		if cur == nil {
			return true, coordinator.StatusProcessingElementNotFound
		}
		var current = cur.(*v1beta1.ProcessingElement).Spec.Connectivity
		if current == connectivity {
			return true, coordinator.StatusSuccess
		}
		if prev != nil && prev.(*v1beta1.ProcessingElement).Spec.Connectivity != current {
			return true, coordinator.StatusFailure
		}
		return false, coordinator.StatusUnknown
	}
	var cmd = coordinator.NewCommand("update-pe-connectivity", run, check)
	var _, err = pc.coordinator.Apply(ctx, key, cmd)
	return err
}

// IncrementPeLaunchCount bumps the launch count of a PE without waiting for
// the result. It is called from the watch handlers of pods, which must not
// block on the PE watch.
func (pc *Coordinator) IncrementPeLaunchCount(key types.NamespacedName) *coordinator.Command {
	var expected int32
	var run = pc.run(key, "", func(_ *v1beta1.Job, pe *v1beta1.ProcessingElement) bool {
		expected = pe.Spec.LaunchCount + 1
		pe.Spec.LaunchCount = expected
		return true
	})
	var check = func(prev, cur client.Object) (bool, coordinator.Status) {
		if cur == nil {
			return true, coordinator.StatusProcessingElementNotFound
		}
		var current = cur.(*v1beta1.ProcessingElement).Spec.LaunchCount
		switch {
		case current == expected:
			return true, coordinator.StatusSuccess
		case current > expected:
			return true, coordinator.StatusFailure
		}
		return false, coordinator.StatusUnknown
	}
	var cmd = coordinator.NewCommand("increment-pe-launch-count", run, check)
	pc.coordinator.Submit(key, cmd)
	return cmd
}

// TouchPe records the current generation of the job on a PE.
func (pc *Coordinator) TouchPe(
	ctx context.Context, job *v1beta1.Job, key types.NamespacedName) error {
	var generation string
	var run = pc.run(key, job.Name, func(job *v1beta1.Job, pe *v1beta1.ProcessingElement) bool {
		generation = GenerationOf(job)
		if pe.Labels[v1beta1.LabelGeneration] == generation {
			return false
		}
		setLabel(pe, v1beta1.LabelGeneration, generation)
		return true
	})
	var check = func(prev, cur client.Object) (bool, coordinator.Status) {
		if cur == nil {
			return true, coordinator.StatusProcessingElementNotFound
		}
		if cur.GetLabels()[v1beta1.LabelGeneration] == generation {
			return true, coordinator.StatusSuccess
		}
		return false, coordinator.StatusUnknown
	}
	var cmd = coordinator.NewCommand("touch-pe", run, check)
	var _, err = pc.coordinator.Apply(ctx, key, cmd)
	return err
}

// UpdatePeContentIDAndIncrementLaunchCount records a new content ID, the
// descriptor and the current generation of the job on a PE and relaunches
// it.
func (pc *Coordinator) UpdatePeContentIDAndIncrementLaunchCount(
	ctx context.Context,
	job *v1beta1.Job,
	key types.NamespacedName,
	contentID string) error {
	var generation string
	var expected int32
	var run = pc.run(key, job.Name, func(job *v1beta1.Job, pe *v1beta1.ProcessingElement) bool {
		generation = GenerationOf(job)
		expected = pe.Spec.LaunchCount + 1
		setLabel(pe, v1beta1.LabelGeneration, generation)
		pe.Spec.ContentID = contentID
		pe.Spec.LaunchCount = expected
		for i := range job.Spec.ProcessingElements {
			if template := &job.Spec.ProcessingElements[i]; template.ID == pe.Spec.ID {
				pe.Spec.Descriptor = copyDescriptor(template.Descriptor)
			}
		}
		return true
	})
	var check = func(prev, cur client.Object) (bool, coordinator.Status) {
		if cur == nil {
			return true, coordinator.StatusProcessingElementNotFound
		}
		var pe = cur.(*v1beta1.ProcessingElement)
		if pe.Labels[v1beta1.LabelGeneration] == generation &&
			pe.Spec.ContentID == contentID &&
			pe.Spec.LaunchCount == expected {
			return true, coordinator.StatusSuccess
		}
		if pe.Spec.LaunchCount > expected {
			return true, coordinator.StatusFailure
		}
		return false, coordinator.StatusUnknown
	}
	var cmd = coordinator.NewCommand("update-pe-content-id", run, check)
	var _, err = pc.coordinator.Apply(ctx, key, cmd)
	return err
}

func setLabel(pe *v1beta1.ProcessingElement, name, value string) {
	if pe.Labels == nil {
		pe.Labels = map[string]string{}
	}
	pe.Labels[name] = value
}

// copyDescriptor returns a copy of a PE descriptor, nil when empty.
func copyDescriptor(descriptor map[string]string) map[string]string {
	if len(descriptor) == 0 {
		return nil
	}
	var copied = make(map[string]string, len(descriptor))
	for k, v := range descriptor {
		copied[k] = v
	}
	return copied
}
