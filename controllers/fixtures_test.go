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
	"strconv"
	"time"

	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/types"
	"k8s.io/utils/pointer"

	"github.com/googlecloudplatform/streams-operator/api/v1beta1"
)

const (
	testNamespace = "default"
	testJob       = "trades"
)

func newTestJob() *v1beta1.Job {
	var job = &v1beta1.Job{
		ObjectMeta: metav1.ObjectMeta{
			Namespace:  testNamespace,
			Name:       testJob,
			UID:        "job-uid",
			Generation: 1,
		},
		Spec: v1beta1.JobSpec{
			Bundle: v1beta1.BundleSpec{Name: "trades.sab", URL: "http://bundles/trades.sab"},
			Image:  "streams/runtime:5.5",
			ProcessingElements: []v1beta1.ProcessingElementTemplate{
				{ID: 1, Descriptor: map[string]string{"OPERATORS": "beacon"}},
				{ID: 2, Descriptor: map[string]string{"OPERATORS": "sink"}},
			},
			ConsistentRegions: []v1beta1.ConsistentRegionTemplate{
				{RegionIndex: 0, Pes: []int64{1, 2}, OperatorsToStartRegion: []string{"beacon"}},
			},
		},
	}
	job.SetDefaults()
	return job
}

func newTestRegion() *v1beta1.ConsistentRegion {
	var template = v1beta1.ConsistentRegionTemplate{
		RegionIndex:                 0,
		Trigger:                     v1beta1.TriggerPeriodic,
		Period:                      &metav1.Duration{Duration: 30 * time.Second},
		DrainTimeout:                &metav1.Duration{Duration: 180 * time.Second},
		ResetTimeout:                &metav1.Duration{Duration: 180 * time.Second},
		MaxConsecutiveResetAttempts: pointer.Int64Ptr(3),
		Pes:                         []int64{1, 2},
	}
	return &v1beta1.ConsistentRegion{
		ObjectMeta: metav1.ObjectMeta{
			Namespace: testNamespace,
			Name:      v1beta1.ConsistentRegionName(testJob, 0),
			Labels:    getJobLabels(testJob),
		},
		Spec: v1beta1.NewConsistentRegionSpec(testJob, &template),
	}
}

func newTestOperator(hasStarted bool) *v1beta1.ConsistentRegionOperator {
	return &v1beta1.ConsistentRegionOperator{
		ObjectMeta: metav1.ObjectMeta{
			Namespace: testNamespace,
			Name:      v1beta1.ConsistentRegionOperatorName(testJob),
			Labels:    getJobLabels(testJob),
		},
		Spec: v1beta1.ConsistentRegionOperatorSpec{
			JobName:    testJob,
			NumRegions: 1,
			HasStarted: hasStarted,
		},
	}
}

func newTestPe(id int64, launchCount int32) *v1beta1.ProcessingElement {
	return &v1beta1.ProcessingElement{
		ObjectMeta: metav1.ObjectMeta{
			Namespace: testNamespace,
			Name:      v1beta1.ProcessingElementName(testJob, id),
			UID:       "pe-uid",
			Labels:    getPeLabels(testJob, id, "1"),
		},
		Spec: v1beta1.ProcessingElementSpec{
			JobName:           testJob,
			ID:                id,
			LaunchCount:       launchCount,
			Connectivity:      v1beta1.ConnectivityFull,
			RestartFailedPod:  true,
			RestartDeletedPod: true,
		},
	}
}

func newTestPod(id int64, launchCount int32, phase corev1.PodPhase) *corev1.Pod {
	return &corev1.Pod{
		ObjectMeta: metav1.ObjectMeta{
			Namespace: testNamespace,
			Name:      v1beta1.ProcessingElementName(testJob, id),
			UID:       types.UID("pod-uid-" + strconv.FormatInt(id, 10) + "-" + strconv.Itoa(int(launchCount))),
			Labels:    getPeLabels(testJob, id, ""),
			Annotations: map[string]string{
				v1beta1.AnnotationLaunchCount: strconv.Itoa(int(launchCount)),
			},
		},
		Status: corev1.PodStatus{Phase: phase},
	}
}
