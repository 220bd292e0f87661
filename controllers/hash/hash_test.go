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

package hash

import (
	"testing"

	"gotest.tools/assert"
	"k8s.io/utils/pointer"

	"github.com/googlecloudplatform/streams-operator/api/v1beta1"
)

func newTemplate() *v1beta1.ProcessingElementTemplate {
	return &v1beta1.ProcessingElementTemplate{
		ID:                1,
		Descriptor:        map[string]string{"fusion": "a,b", "threads": "4"},
		RestartFailedPod:  pointer.BoolPtr(true),
		RestartDeletedPod: pointer.BoolPtr(false),
	}
}

func TestContentIDIsStable(t *testing.T) {
	var a = newTemplate()
	var b = newTemplate()
	// Same values behind different pointers and map insertion orders.
	b.Descriptor = map[string]string{"threads": "4", "fusion": "a,b"}
	assert.Equal(t, ContentID("digest", a), ContentID("digest", b))
}

func TestContentIDChanges(t *testing.T) {
	var base = ContentID("digest", newTemplate())

	var changed = newTemplate()
	changed.Descriptor["threads"] = "8"
	assert.Assert(t, ContentID("digest", changed) != base)

	assert.Assert(t, ContentID("other", newTemplate()) != base)

	changed = newTemplate()
	changed.RestartFailedPod = pointer.BoolPtr(false)
	assert.Assert(t, ContentID("digest", changed) != base)
}
