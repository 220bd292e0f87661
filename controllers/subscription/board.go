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

// Package subscription keeps track of which exported streams are consumed by
// which imports, per PE.
package subscription

import (
	"sort"
	"sync"

	"k8s.io/apimachinery/pkg/types"

	"github.com/googlecloudplatform/streams-operator/api/v1beta1"
)

// Importer is the consuming end of a subscription, seen from the exporter.
type Importer struct {
	JobName string `json:"jobName"`
	PeID    int64  `json:"peId"`
	PortID  int64  `json:"portId"`
}

// Exporter is the producing end of a subscription, seen from the importer.
type Exporter struct {
	JobName   string `json:"jobName"`
	PeID      int64  `json:"peId"`
	PortID    int64  `json:"portId"`
	PortIndex int32  `json:"portIndex"`
	Filter    string `json:"filter,omitempty"`
}

// ExportSubscription lists the importers of one exported stream.
type ExportSubscription struct {
	PortID    int64               `json:"portId"`
	Importers map[string]Importer `json:"importers"`
}

// ImportSubscription lists the exporters feeding one import.
type ImportSubscription struct {
	PortID    int64               `json:"portId"`
	PortIndex int32               `json:"portIndex"`
	Exporters map[string]Exporter `json:"exporters"`
}

// Subscriptions of a PE, keyed by export and import label.
type Subscriptions struct {
	Exports map[string]*ExportSubscription `json:"exports"`
	Imports map[string]*ImportSubscription `json:"imports"`
}

func newSubscriptions() *Subscriptions {
	return &Subscriptions{
		Exports: map[string]*ExportSubscription{},
		Imports: map[string]*ImportSubscription{},
	}
}

// IsEmpty returns true if the PE neither exports nor imports.
func (s *Subscriptions) IsEmpty() bool {
	return len(s.Exports) == 0 && len(s.Imports) == 0
}

// DeepCopy returns a copy sharing no map with s.
func (s *Subscriptions) DeepCopy() Subscriptions {
	var out = Subscriptions{
		Exports: make(map[string]*ExportSubscription, len(s.Exports)),
		Imports: make(map[string]*ImportSubscription, len(s.Imports)),
	}
	for label, exp := range s.Exports {
		var importers = make(map[string]Importer, len(exp.Importers))
		for k, v := range exp.Importers {
			importers[k] = v
		}
		out.Exports[label] = &ExportSubscription{PortID: exp.PortID, Importers: importers}
	}
	for label, imp := range s.Imports {
		var exporters = make(map[string]Exporter, len(imp.Exporters))
		for k, v := range imp.Exporters {
			exporters[k] = v
		}
		out.Imports[label] = &ImportSubscription{
			PortID: imp.PortID, PortIndex: imp.PortIndex, Exporters: exporters}
	}
	return out
}

// ExportRef is the part of an Export the board records.
type ExportRef struct {
	Key     types.NamespacedName
	JobName string
	PeID    int64
	PortID  int64
}

// ImportRef is the part of an Import the board records.
type ImportRef struct {
	Key       types.NamespacedName
	JobName   string
	PeID      int64
	PortID    int64
	PortIndex int32
	Filter    string
}

func NewExportRef(export *v1beta1.Export) ExportRef {
	return ExportRef{
		Key:     types.NamespacedName{Namespace: export.Namespace, Name: export.Name},
		JobName: export.Spec.JobName,
		PeID:    export.Spec.PeID,
		PortID:  export.Spec.PortID,
	}
}

func NewImportRef(imp *v1beta1.Import) ImportRef {
	return ImportRef{
		Key:       types.NamespacedName{Namespace: imp.Namespace, Name: imp.Name},
		JobName:   imp.Spec.JobName,
		PeID:      imp.Spec.PeID,
		PortID:    imp.Spec.PortID,
		PortIndex: imp.Spec.PortIndex,
		Filter:    imp.Spec.Streams.Filter,
	}
}

// PeKey returns the board key of the PE owning an export or import.
func PeKey(namespace, jobName string, peID int64) types.NamespacedName {
	return types.NamespacedName{
		Namespace: namespace,
		Name:      v1beta1.ProcessingElementName(jobName, peID),
	}
}

func (r ExportRef) peKey() types.NamespacedName {
	return PeKey(r.Key.Namespace, r.JobName, r.PeID)
}

func (r ImportRef) peKey() types.NamespacedName {
	return PeKey(r.Key.Namespace, r.JobName, r.PeID)
}

// Board maps PEs to their subscriptions. A PE has an entry only while it
// has at least one export or import subscription.
type Board struct {
	mu      sync.RWMutex
	entries map[types.NamespacedName]*Subscriptions

	// Owning PE of every recorded export and import.
	exports map[types.NamespacedName]ExportRef
	imports map[types.NamespacedName]ImportRef
}

func NewBoard() *Board {
	return &Board{
		entries: map[types.NamespacedName]*Subscriptions{},
		exports: map[types.NamespacedName]ExportRef{},
		imports: map[types.NamespacedName]ImportRef{},
	}
}

// Add records that the import consumes the export and returns the PEs whose
// subscriptions changed.
func (b *Board) Add(exp ExportRef, imp ImportRef) []types.NamespacedName {
	b.mu.Lock()
	defer b.mu.Unlock()

	var affected = newKeySet()
	var expLabel, impLabel = exp.Key.Name, imp.Key.Name

	var exporter = b.entry(exp.peKey())
	var expSub, ok = exporter.Exports[expLabel]
	if !ok {
		expSub = &ExportSubscription{PortID: exp.PortID, Importers: map[string]Importer{}}
		exporter.Exports[expLabel] = expSub
	}
	var importer = Importer{JobName: imp.JobName, PeID: imp.PeID, PortID: imp.PortID}
	if current, ok := expSub.Importers[impLabel]; !ok || current != importer {
		expSub.Importers[impLabel] = importer
		affected.add(exp.peKey())
	}

	var importing = b.entry(imp.peKey())
	impSub, ok := importing.Imports[impLabel]
	if !ok {
		impSub = &ImportSubscription{
			PortID: imp.PortID, PortIndex: imp.PortIndex, Exporters: map[string]Exporter{}}
		importing.Imports[impLabel] = impSub
	}
	var exporterEnd = Exporter{
		JobName:   exp.JobName,
		PeID:      exp.PeID,
		PortID:    exp.PortID,
		PortIndex: imp.PortIndex,
		Filter:    imp.Filter,
	}
	if current, ok := impSub.Exporters[expLabel]; !ok || current != exporterEnd {
		impSub.Exporters[expLabel] = exporterEnd
		affected.add(imp.peKey())
	}

	b.exports[exp.Key] = exp
	b.imports[imp.Key] = imp
	return affected.sorted()
}

// RemoveExport drops an export and all its subscriptions, returning the PEs
// whose subscriptions changed.
func (b *Board) RemoveExport(key types.NamespacedName) []types.NamespacedName {
	b.mu.Lock()
	defer b.mu.Unlock()

	var affected = newKeySet()
	var exp, ok = b.exports[key]
	if !ok {
		return nil
	}
	delete(b.exports, key)

	var exporterKey = exp.peKey()
	if exporter, ok := b.entries[exporterKey]; ok {
		if expSub, ok := exporter.Exports[key.Name]; ok {
			for impLabel := range expSub.Importers {
				var impKey = types.NamespacedName{Namespace: key.Namespace, Name: impLabel}
				if imp, ok := b.imports[impKey]; ok {
					b.unlinkImport(imp, key.Name, affected)
				}
			}
			delete(exporter.Exports, key.Name)
			affected.add(exporterKey)
		}
		b.collect(exporterKey)
	}
	return affected.sorted()
}

// RemoveImport drops an import and all its subscriptions, returning the PEs
// whose subscriptions changed.
func (b *Board) RemoveImport(key types.NamespacedName) []types.NamespacedName {
	b.mu.Lock()
	defer b.mu.Unlock()

	var affected = newKeySet()
	var imp, ok = b.imports[key]
	if !ok {
		return nil
	}
	delete(b.imports, key)

	var importerKey = imp.peKey()
	if importer, ok := b.entries[importerKey]; ok {
		if impSub, ok := importer.Imports[key.Name]; ok {
			for expLabel := range impSub.Exporters {
				var expKey = types.NamespacedName{Namespace: key.Namespace, Name: expLabel}
				if exp, ok := b.exports[expKey]; ok {
					b.unlinkExport(exp, key.Name, affected)
				}
			}
			delete(importer.Imports, key.Name)
			affected.add(importerKey)
		}
		b.collect(importerKey)
	}
	return affected.sorted()
}

// Get returns a copy of the subscriptions of a PE.
func (b *Board) Get(pe types.NamespacedName) (Subscriptions, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	var subs, ok = b.entries[pe]
	if !ok {
		return Subscriptions{}, false
	}
	return subs.DeepCopy(), true
}

// Keys returns the PEs with subscriptions, sorted.
func (b *Board) Keys() []types.NamespacedName {
	b.mu.RLock()
	defer b.mu.RUnlock()
	var keys = newKeySet()
	for key := range b.entries {
		keys.add(key)
	}
	return keys.sorted()
}

// Len returns the number of PEs with subscriptions.
func (b *Board) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.entries)
}

// HasExport returns true if the export is recorded.
func (b *Board) HasExport(key types.NamespacedName) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	_, ok := b.exports[key]
	return ok
}

// HasImport returns true if the import is recorded.
func (b *Board) HasImport(key types.NamespacedName) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	_, ok := b.imports[key]
	return ok
}

func (b *Board) entry(pe types.NamespacedName) *Subscriptions {
	var subs, ok = b.entries[pe]
	if !ok {
		subs = newSubscriptions()
		b.entries[pe] = subs
	}
	return subs
}

// unlinkImport removes the exporter from the import side.
func (b *Board) unlinkImport(imp ImportRef, expLabel string, affected keySet) {
	var importerKey = imp.peKey()
	var importer, ok = b.entries[importerKey]
	if !ok {
		return
	}
	if impSub, ok := importer.Imports[imp.Key.Name]; ok {
		if _, ok := impSub.Exporters[expLabel]; ok {
			delete(impSub.Exporters, expLabel)
			affected.add(importerKey)
		}
		if len(impSub.Exporters) == 0 {
			delete(importer.Imports, imp.Key.Name)
			delete(b.imports, imp.Key)
		}
	}
	b.collect(importerKey)
}

// unlinkExport removes the importer from the export side.
func (b *Board) unlinkExport(exp ExportRef, impLabel string, affected keySet) {
	var exporterKey = exp.peKey()
	var exporter, ok = b.entries[exporterKey]
	if !ok {
		return
	}
	if expSub, ok := exporter.Exports[exp.Key.Name]; ok {
		if _, ok := expSub.Importers[impLabel]; ok {
			delete(expSub.Importers, impLabel)
			affected.add(exporterKey)
		}
		if len(expSub.Importers) == 0 {
			delete(exporter.Exports, exp.Key.Name)
			delete(b.exports, exp.Key)
		}
	}
	b.collect(exporterKey)
}

func (b *Board) collect(pe types.NamespacedName) {
	if subs, ok := b.entries[pe]; ok && subs.IsEmpty() {
		delete(b.entries, pe)
	}
}

type keySet map[types.NamespacedName]struct{}

func newKeySet() keySet {
	return keySet{}
}

func (s keySet) add(key types.NamespacedName) {
	s[key] = struct{}{}
}

func (s keySet) sorted() []types.NamespacedName {
	var keys = make([]types.NamespacedName, 0, len(s))
	for key := range s {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].String() < keys[j].String() })
	return keys
}
