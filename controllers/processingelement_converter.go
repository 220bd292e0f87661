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
	"sort"
	"strconv"

	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/utils/pointer"

	"github.com/googlecloudplatform/streams-operator/api/v1beta1"
)

// Converter which converts a PE into the pod running its current launch.

// Environment of the PE runtime.
const (
	envJobName     = "STREAMS_JOB_NAME"
	envPeID        = "STREAMS_PE_ID"
	envLaunchCount = "STREAMS_PE_LAUNCH_COUNT"
	envContentID   = "STREAMS_PE_CONTENT_ID"
)

const peTerminationGracePeriodSeconds = 30

// Gets the desired pod of a PE.
func getDesiredPod(
	job *v1beta1.Job, pe *v1beta1.ProcessingElement) *corev1.Pod {
	var labels = getPeLabels(pe.Spec.JobName, pe.Spec.ID, "")
	var env = []corev1.EnvVar{
		{Name: envJobName, Value: pe.Spec.JobName},
		{Name: envPeID, Value: strconv.FormatInt(pe.Spec.ID, 10)},
		{Name: envLaunchCount, Value: strconv.FormatInt(int64(pe.Spec.LaunchCount), 10)},
		{Name: envContentID, Value: pe.Spec.ContentID},
	}
	env = append(env, getDescriptorEnv(pe.Spec.Descriptor)...)

	return &corev1.Pod{
		ObjectMeta: metav1.ObjectMeta{
			Namespace:       pe.Namespace,
			Name:            pe.Name,
			OwnerReferences: []metav1.OwnerReference{toPeOwnerReference(pe)},
			Labels:          labels,
			Annotations: map[string]string{
				v1beta1.AnnotationLaunchCount: strconv.FormatInt(int64(pe.Spec.LaunchCount), 10),
			},
		},
		Spec: corev1.PodSpec{
			RestartPolicy:                 corev1.RestartPolicyNever,
			TerminationGracePeriodSeconds: pointer.Int64Ptr(peTerminationGracePeriodSeconds),
			ImagePullSecrets:              job.Spec.ImagePullSecrets,
			Containers: []corev1.Container{
				{
					Name:            "pe",
					Image:           job.Spec.Image,
					ImagePullPolicy: job.Spec.ImagePullPolicy,
					Env:             env,
				},
			},
		},
	}
}

// Descriptor entries as environment variables, sorted by name.
func getDescriptorEnv(descriptor map[string]string) []corev1.EnvVar {
	var names = make([]string, 0, len(descriptor))
	for name := range descriptor {
		names = append(names, name)
	}
	sort.Strings(names)
	var env = make([]corev1.EnvVar, 0, len(names))
	for _, name := range names {
		env = append(env, corev1.EnvVar{Name: name, Value: descriptor[name]})
	}
	return env
}
