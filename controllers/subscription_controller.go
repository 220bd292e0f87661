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
	ctrl "sigs.k8s.io/controller-runtime"
	"sigs.k8s.io/controller-runtime/pkg/client"
	"sigs.k8s.io/controller-runtime/pkg/source"

	"github.com/googlecloudplatform/streams-operator/api/v1beta1"
	"github.com/googlecloudplatform/streams-operator/controllers/coordinator"
	"github.com/googlecloudplatform/streams-operator/controllers/subscription"
)

// ExportReconciler feeds the subscription broker with Export resources.
type ExportReconciler struct {
	Client client.Client
	Log    logr.Logger
	Broker *subscription.Broker
	// Coordinator of the export commands, fed by the Export watch.
	Coordinator *coordinator.Coordinator
}

// +kubebuilder:rbac:groups=streamsoperator.k8s.io,resources=exports,verbs=get;list;watch;update;patch

func (reconciler *ExportReconciler) Reconcile(
	ctx context.Context, request ctrl.Request) (ctrl.Result, error) {
	var log = reconciler.Log.WithValues("export", request.NamespacedName)
	var export v1beta1.Export
	var err = reconciler.Client.Get(ctx, request.NamespacedName, &export)
	if client.IgnoreNotFound(err) != nil {
		return ctrl.Result{}, err
	}
	if err != nil || export.DeletionTimestamp != nil {
		log.Info("Export removed")
		return ctrl.Result{}, reconciler.Broker.DeleteExport(request.NamespacedName)
	}
	log.V(1).Info("Syncing export")
	return ctrl.Result{}, reconciler.Broker.SyncExport(ctx, &export)
}

func (reconciler *ExportReconciler) SetupWithManager(mgr ctrl.Manager) error {
	return ctrl.NewControllerManagedBy(mgr).
		For(&v1beta1.Export{}).
		Watches(&source.Kind{Type: &v1beta1.Export{}},
			reconciler.Coordinator.EventHandler()).
		Complete(reconciler)
}

// ImportReconciler feeds the subscription broker with Import resources.
type ImportReconciler struct {
	Client client.Client
	Log    logr.Logger
	Broker *subscription.Broker
}

// +kubebuilder:rbac:groups=streamsoperator.k8s.io,resources=imports,verbs=get;list;watch

func (reconciler *ImportReconciler) Reconcile(
	ctx context.Context, request ctrl.Request) (ctrl.Result, error) {
	var log = reconciler.Log.WithValues("import", request.NamespacedName)
	var imp v1beta1.Import
	var err = reconciler.Client.Get(ctx, request.NamespacedName, &imp)
	if client.IgnoreNotFound(err) != nil {
		return ctrl.Result{}, err
	}
	if err != nil || imp.DeletionTimestamp != nil {
		log.Info("Import removed")
		return ctrl.Result{}, reconciler.Broker.DeleteImport(request.NamespacedName)
	}
	log.V(1).Info("Syncing import")
	return ctrl.Result{}, reconciler.Broker.SyncImport(ctx, &imp)
}

func (reconciler *ImportReconciler) SetupWithManager(mgr ctrl.Manager) error {
	return ctrl.NewControllerManagedBy(mgr).
		For(&v1beta1.Import{}).
		Complete(reconciler)
}
