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

	"github.com/go-logr/logr"
	corev1 "k8s.io/api/core/v1"
	"k8s.io/apimachinery/pkg/types"
	ctrl "sigs.k8s.io/controller-runtime"
	"sigs.k8s.io/controller-runtime/pkg/client"

	"github.com/googlecloudplatform/streams-operator/api/v1beta1"
)

// _RegionStateObserver gets the observed state of a consistent region.
type _RegionStateObserver struct {
	k8sClient client.Client
	request   ctrl.Request
	context   context.Context
	log       logr.Logger
}

// _ObservedRegionState holds observed state of a region and of the PEs of
// its job, the PEs and pods keyed by PE ID.
type _ObservedRegionState struct {
	region   *v1beta1.ConsistentRegion
	operator *v1beta1.ConsistentRegionOperator
	pes      map[int64]*v1beta1.ProcessingElement
	pods     map[int64]*corev1.Pod
}

// Observes the state of the region and the resources it depends on.
// NOT_FOUND error is ignored because it is normal, other errors are returned.
func (observer *_RegionStateObserver) observe(observed *_ObservedRegionState) error {
	var log = observer.log

	var region = new(v1beta1.ConsistentRegion)
	var err = observer.k8sClient.Get(observer.context, observer.request.NamespacedName, region)
	if err != nil {
		if client.IgnoreNotFound(err) != nil {
			log.Error(err, "Failed to get the region")
			return err
		}
		log.Info("Observed region", "region", "nil")
		return nil
	}
	log.V(1).Info("Observed region", "state", region.Spec.State,
		"currentSeqID", region.Spec.CurrentSeqID, "health", region.Spec.Health)
	observed.region = region
	var jobName = region.Spec.JobName

	var operator = new(v1beta1.ConsistentRegionOperator)
	err = observer.k8sClient.Get(observer.context, types.NamespacedName{
		Namespace: region.Namespace,
		Name:      v1beta1.ConsistentRegionOperatorName(jobName),
	}, operator)
	if err != nil {
		if client.IgnoreNotFound(err) != nil {
			log.Error(err, "Failed to get the consistent region operator")
			return err
		}
		log.Info("Observed consistent region operator", "state", "nil")
	} else {
		observed.operator = operator
	}

	var pes v1beta1.ProcessingElementList
	err = observer.k8sClient.List(observer.context, &pes,
		client.InNamespace(region.Namespace), client.MatchingLabels(getJobLabels(jobName)))
	if err != nil {
		log.Error(err, "Failed to list the PEs")
		return err
	}
	observed.pes = make(map[int64]*v1beta1.ProcessingElement, len(pes.Items))
	for i := range pes.Items {
		var pe = &pes.Items[i]
		if pe.Spec.JobName == jobName {
			observed.pes[pe.Spec.ID] = pe
		}
	}

	var pods corev1.PodList
	err = observer.k8sClient.List(observer.context, &pods,
		client.InNamespace(region.Namespace), client.MatchingLabels(getJobLabels(jobName)))
	if err != nil {
		log.Error(err, "Failed to list the pods")
		return err
	}
	observed.pods = make(map[int64]*corev1.Pod, len(pods.Items))
	for i := range pods.Items {
		var pod = &pods.Items[i]
		if _, peID, ok := getPeIdentity(pod); ok {
			observed.pods[peID] = pod
		}
	}
	log.V(1).Info("Observed PEs", "pes", len(observed.pes), "pods", len(observed.pods))
	return nil
}
