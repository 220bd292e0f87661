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

	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"sigs.k8s.io/controller-runtime/pkg/client"

	"github.com/googlecloudplatform/streams-operator/api/v1beta1"
	"github.com/googlecloudplatform/streams-operator/controllers/metrics"
)

// Labels of the resources owned by a job.
func getJobLabels(jobName string) map[string]string {
	return map[string]string{v1beta1.LabelJob: jobName}
}

// Labels of a PE and its pod.
func getPeLabels(jobName string, peID int64, generation string) map[string]string {
	var labels = getJobLabels(jobName)
	labels[v1beta1.LabelPeID] = strconv.FormatInt(peID, 10)
	if generation != "" {
		labels[v1beta1.LabelGeneration] = generation
	}
	return labels
}

// Gets the job and the PE ID of a PE or pod from its labels.
func getPeIdentity(obj client.Object) (string, int64, bool) {
	var labels = obj.GetLabels()
	var jobName, ok = labels[v1beta1.LabelJob]
	if !ok {
		return "", 0, false
	}
	peID, err := strconv.ParseInt(labels[v1beta1.LabelPeID], 10, 64)
	if err != nil {
		return "", 0, false
	}
	return jobName, peID, true
}

// Converts the job as owner reference for its child resources.
func toOwnerReference(job *v1beta1.Job) metav1.OwnerReference {
	return metav1.OwnerReference{
		APIVersion:         v1beta1.GroupVersion.String(),
		Kind:               "Job",
		Name:               job.Name,
		UID:                job.UID,
		Controller:         &[]bool{true}[0],
		BlockOwnerDeletion: &[]bool{false}[0],
	}
}

// Converts the PE as owner reference for its pod.
func toPeOwnerReference(pe *v1beta1.ProcessingElement) metav1.OwnerReference {
	return metav1.OwnerReference{
		APIVersion:         v1beta1.GroupVersion.String(),
		Kind:               "ProcessingElement",
		Name:               pe.Name,
		UID:                pe.UID,
		Controller:         &[]bool{true}[0],
		BlockOwnerDeletion: &[]bool{false}[0],
	}
}

func getRegionID(namespace string, spec *v1beta1.ConsistentRegionSpec) metrics.RegionID {
	return metrics.RegionID{Namespace: namespace, Job: spec.JobName, Region: spec.RegionIndex}
}

// Publishes the metrics of a region from its spec.
func updateRegionMetrics(
	sink metrics.Sink, namespace string, spec *v1beta1.ConsistentRegionSpec) {
	var id = getRegionID(namespace, spec)
	sink.UpdateMetric(id, metrics.AverageDrainTime, spec.AvgDrainTimeMetric)
	sink.UpdateMetric(id, metrics.AverageResetTime, spec.AvgResetTimeMetric)
	sink.UpdateMetric(id, metrics.LastConsistentStateTime, spec.LastConsistentStateTime)
	sink.UpdateMetric(id, metrics.LastResetTime, spec.LastResetTime)
	sink.UpdateMetric(id, metrics.LastCompletedDrainSeqID, spec.LastCompletedDrain)
	sink.UpdateMetric(id, metrics.LastCompletedResetSeqID, spec.LastCompletedReset)
	sink.UpdateMetric(id, metrics.State, int64(spec.State.Ordinal()))
	sink.UpdateMetric(id, metrics.CurrentResetAttempts, spec.CurrentResetAttempt)
}
