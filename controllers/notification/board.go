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

package notification

import (
	"sort"
	"sync"

	"k8s.io/apimachinery/pkg/types"

	"github.com/googlecloudplatform/streams-operator/controllers/consistent"
)

// Board keeps the last notification of every region for every PE, so that a
// PE that missed a message can fetch it.
type Board struct {
	mu      sync.RWMutex
	entries map[types.NamespacedName]map[int32]consistent.Notification
}

func NewBoard() *Board {
	return &Board{entries: map[types.NamespacedName]map[int32]consistent.Notification{}}
}

// Add records the notification of a region for a PE, replacing the previous one.
func (b *Board) Add(pe types.NamespacedName, region int32, n consistent.Notification) {
	b.mu.Lock()
	defer b.mu.Unlock()
	var regions, ok = b.entries[pe]
	if !ok {
		regions = map[int32]consistent.Notification{}
		b.entries[pe] = regions
	}
	regions[region] = n
}

// Clear drops the notification of a region for a PE.
func (b *Board) Clear(pe types.NamespacedName, region int32) {
	b.mu.Lock()
	defer b.mu.Unlock()
	var regions, ok = b.entries[pe]
	if !ok {
		return
	}
	delete(regions, region)
	if len(regions) == 0 {
		delete(b.entries, pe)
	}
}

// Remove drops every notification of a PE.
func (b *Board) Remove(pe types.NamespacedName) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.entries, pe)
}

// Get returns a copy of the notifications of a PE keyed by region index.
func (b *Board) Get(pe types.NamespacedName) map[int32]consistent.Notification {
	b.mu.RLock()
	defer b.mu.RUnlock()
	var result = map[int32]consistent.Notification{}
	for region, n := range b.entries[pe] {
		result[region] = n
	}
	return result
}

// Keys returns the PEs with notifications, sorted.
func (b *Board) Keys() []types.NamespacedName {
	b.mu.RLock()
	defer b.mu.RUnlock()
	var keys = make([]types.NamespacedName, 0, len(b.entries))
	for key := range b.entries {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].String() < keys[j].String() })
	return keys
}
