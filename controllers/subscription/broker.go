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
	"encoding/json"
	"fmt"

	"github.com/go-logr/logr"
	"github.com/gobwas/glob"
	"k8s.io/apimachinery/pkg/labels"
	"k8s.io/apimachinery/pkg/types"
	"sigs.k8s.io/controller-runtime/pkg/client"

	"github.com/googlecloudplatform/streams-operator/api/v1beta1"
)

// DefaultApplicationScope is the scope of exports without a scope annotation.
const DefaultApplicationScope = "Default"

// Notifier delivers the subscriptions of a PE to the PE.
type Notifier interface {
	NotifySubscriptions(pe types.NamespacedName, payload []byte) error
}

// Matches returns true if the import consumes the export.
func Matches(export *v1beta1.Export, imp *v1beta1.Import) (bool, error) {
	if export.Namespace != imp.Namespace {
		return false, nil
	}
	var streams = &imp.Spec.Streams
	if streams.Filter != "" && !export.Spec.Stream.AllowFilter {
		return false, nil
	}
	for _, nbi := range streams.NameBasedImports {
		if export.Spec.Stream.Name == "" {
			break
		}
		if nbi.JobName != "" && nbi.JobName != export.Spec.JobName {
			continue
		}
		var pattern, err = glob.Compile(nbi.StreamName)
		if err != nil {
			return false, fmt.Errorf("invalid stream name %q: %w", nbi.StreamName, err)
		}
		if pattern.Match(export.Spec.Stream.Name) {
			return true, nil
		}
	}
	if pbi := streams.PropertyBasedImport; pbi != nil && len(export.Spec.Stream.Properties) > 0 {
		if pbi.ApplicationScope != "" && pbi.ApplicationScope != applicationScope(export) {
			return false, nil
		}
		return matchProperties(pbi.Subscription, export.Spec.Stream.Properties)
	}
	return false, nil
}

func applicationScope(export *v1beta1.Export) string {
	if scope, ok := export.Annotations[v1beta1.AnnotationApplicationScope]; ok && scope != "" {
		return scope
	}
	return DefaultApplicationScope
}

// matchProperties evaluates a label selector against stream properties. A
// requirement on a multi-valued property holds when any value satisfies it.
func matchProperties(subscription string, properties []v1beta1.StreamProperty) (bool, error) {
	var selector, err = labels.Parse(subscription)
	if err != nil {
		return false, fmt.Errorf("invalid subscription %q: %w", subscription, err)
	}
	var requirements, selectable = selector.Requirements()
	if !selectable {
		return false, nil
	}
	var values = map[string][]string{}
	for _, property := range properties {
		values[property.Name] = append(values[property.Name], property.Values...)
	}
	for _, requirement := range requirements {
		var propertyValues = values[requirement.Key()]
		if len(propertyValues) == 0 {
			if !requirement.Matches(labels.Set{}) {
				return false, nil
			}
			continue
		}
		var satisfied = false
		for _, value := range propertyValues {
			if requirement.Matches(labels.Set{requirement.Key(): value}) {
				satisfied = true
				break
			}
		}
		if !satisfied {
			return false, nil
		}
	}
	return true, nil
}

// Broker keeps the board in sync with the Export and Import resources.
type Broker struct {
	client   client.Client
	board    *Board
	notifier Notifier
	log      logr.Logger
}

func NewBroker(
	k8sClient client.Client, board *Board, notifier Notifier, log logr.Logger) *Broker {
	return &Broker{client: k8sClient, board: board, notifier: notifier, log: log}
}

// Board returns the board fed by the broker.
func (b *Broker) Board() *Board {
	return b.board
}

// SyncExport records the subscriptions of an added or modified export.
func (b *Broker) SyncExport(ctx context.Context, export *v1beta1.Export) error {
	var key = types.NamespacedName{Namespace: export.Namespace, Name: export.Name}
	var affected = newKeySet()
	for _, pe := range b.board.RemoveExport(key) {
		affected.add(pe)
	}

	var imports v1beta1.ImportList
	if err := b.client.List(ctx, &imports, client.InNamespace(export.Namespace)); err != nil {
		return fmt.Errorf("failed to list imports: %w", err)
	}
	for i := range imports.Items {
		var imp = &imports.Items[i]
		var ok, err = Matches(export, imp)
		if err != nil {
			b.log.Info("Skipping import", "import", imp.Name, "error", err)
			continue
		}
		if !ok {
			continue
		}
		b.log.Info("Subscription matched", "export", export.Name, "import", imp.Name)
		for _, pe := range b.board.Add(NewExportRef(export), NewImportRef(imp)) {
			affected.add(pe)
		}
	}
	return b.notify(affected)
}

// SyncImport records the subscriptions of an added or modified import.
func (b *Broker) SyncImport(ctx context.Context, imp *v1beta1.Import) error {
	var key = types.NamespacedName{Namespace: imp.Namespace, Name: imp.Name}
	var affected = newKeySet()
	for _, pe := range b.board.RemoveImport(key) {
		affected.add(pe)
	}

	var exports v1beta1.ExportList
	if err := b.client.List(ctx, &exports, client.InNamespace(imp.Namespace)); err != nil {
		return fmt.Errorf("failed to list exports: %w", err)
	}
	for i := range exports.Items {
		var export = &exports.Items[i]
		var ok, err = Matches(export, imp)
		if err != nil {
			b.log.Info("Skipping import", "import", imp.Name, "error", err)
			return b.notify(affected)
		}
		if !ok {
			continue
		}
		b.log.Info("Subscription matched", "export", export.Name, "import", imp.Name)
		for _, pe := range b.board.Add(NewExportRef(export), NewImportRef(imp)) {
			affected.add(pe)
		}
	}
	return b.notify(affected)
}

// DeleteExport drops the subscriptions of a deleted export.
func (b *Broker) DeleteExport(key types.NamespacedName) error {
	var affected = newKeySet()
	for _, pe := range b.board.RemoveExport(key) {
		affected.add(pe)
	}
	return b.notify(affected)
}

// DeleteImport drops the subscriptions of a deleted import.
func (b *Broker) DeleteImport(key types.NamespacedName) error {
	var affected = newKeySet()
	for _, pe := range b.board.RemoveImport(key) {
		affected.add(pe)
	}
	return b.notify(affected)
}

func (b *Broker) notify(affected keySet) error {
	if b.notifier == nil {
		return nil
	}
	for _, pe := range affected.sorted() {
		var subs, ok = b.board.Get(pe)
		if !ok {
			subs = newSubscriptions().DeepCopy()
		}
		var payload, err = json.Marshal(subs)
		if err != nil {
			return err
		}
		if err := b.notifier.NotifySubscriptions(pe, payload); err != nil {
			return fmt.Errorf("failed to notify %v: %w", pe, err)
		}
	}
	return nil
}
