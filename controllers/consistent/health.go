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
	"strconv"

	corev1 "k8s.io/api/core/v1"

	"github.com/googlecloudplatform/streams-operator/api/v1beta1"
)

// RegionInfo is the aggregated health of the PEs of a region.
type RegionInfo struct {
	Health v1beta1.RegionHealth
	// No PE of the region was launched more than once.
	CleanStart bool
}

func (r RegionInfo) IsHealthUnknown() bool {
	return r.Health != v1beta1.RegionHealthHealthy && r.Health != v1beta1.RegionHealthUnhealthy
}

func (r RegionInfo) IsHealthy() bool {
	return r.Health == v1beta1.RegionHealthHealthy
}

// CheckRegion computes the health of a region from the PEs and pods of its
// job, both keyed by PE ID. A PE without a resource or without the pod of
// its current launch makes the health unknown. Otherwise the region is
// healthy when every PE is fully connected and its pod is running.
func CheckRegion(
	spec *v1beta1.ConsistentRegionSpec,
	pes map[int64]*v1beta1.ProcessingElement,
	pods map[int64]*corev1.Pod) RegionInfo {
	var info = RegionInfo{Health: v1beta1.RegionHealthHealthy, CleanStart: true}
	var unknown = false
	for _, id := range spec.PesInRegion {
		var pe, ok = pes[id]
		if !ok {
			unknown = true
			continue
		}
		if pe.Spec.LaunchCount > 1 {
			info.CleanStart = false
		}
		pod, ok := pods[id]
		if !ok || PodLaunchCount(pod) != pe.Spec.LaunchCount {
			unknown = true
			continue
		}
		if pe.Spec.Connectivity != v1beta1.ConnectivityFull ||
			pod.Status.Phase != corev1.PodRunning ||
			pod.DeletionTimestamp != nil {
			info.Health = v1beta1.RegionHealthUnhealthy
		}
	}
	if unknown {
		info.Health = v1beta1.RegionHealthUnknown
	}
	return info
}

// PodLaunchCount returns the launch of the PE a pod was created for, -1 when
// the pod carries no launch count.
func PodLaunchCount(pod *corev1.Pod) int32 {
	var value, ok = pod.Annotations[v1beta1.AnnotationLaunchCount]
	if !ok {
		return -1
	}
	count, err := strconv.ParseInt(value, 10, 32)
	if err != nil {
		return -1
	}
	return int32(count)
}
