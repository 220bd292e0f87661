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
	"sync"

	"k8s.io/apimachinery/pkg/types"
)

// Inbox queues the events of every region until the region is reconciled.
type Inbox struct {
	mu     sync.Mutex
	queues map[types.NamespacedName][]Event
}

func NewInbox() *Inbox {
	return &Inbox{queues: map[types.NamespacedName][]Event{}}
}

// Push appends an event to the queue of the region.
func (i *Inbox) Push(region types.NamespacedName, e Event) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.queues[region] = append(i.queues[region], e)
}

// PushFront puts back an event that could not be handled.
func (i *Inbox) PushFront(region types.NamespacedName, e Event) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.queues[region] = append([]Event{e}, i.queues[region]...)
}

// Pop removes the oldest event of the region.
func (i *Inbox) Pop(region types.NamespacedName) (Event, bool) {
	i.mu.Lock()
	defer i.mu.Unlock()
	var queue = i.queues[region]
	if len(queue) == 0 {
		return Event{}, false
	}
	var e = queue[0]
	if len(queue) == 1 {
		delete(i.queues, region)
	} else {
		i.queues[region] = queue[1:]
	}
	return e, true
}

// Len returns the number of events queued for the region.
func (i *Inbox) Len(region types.NamespacedName) int {
	i.mu.Lock()
	defer i.mu.Unlock()
	return len(i.queues[region])
}

// Drop discards the events of a deleted region.
func (i *Inbox) Drop(region types.NamespacedName) {
	i.mu.Lock()
	defer i.mu.Unlock()
	delete(i.queues, region)
}
