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
	"encoding/json"
	"fmt"

	"github.com/go-logr/logr"
	"k8s.io/apimachinery/pkg/types"

	"github.com/googlecloudplatform/streams-operator/api/v1beta1"
	"github.com/googlecloudplatform/streams-operator/controllers/consistent"
)

// Conn publishes raw messages. *nats.Conn satisfies it.
type Conn interface {
	Publish(subject string, data []byte) error
}

// Publisher delivers notifications to PEs. Without a connection the
// notifications are only recorded on the board.
type Publisher struct {
	conn   Conn
	prefix string
	board  *Board
	log    logr.Logger
}

func NewPublisher(conn Conn, prefix string, board *Board, log logr.Logger) *Publisher {
	if prefix == "" {
		prefix = DefaultSubjectPrefix
	}
	return &Publisher{conn: conn, prefix: prefix, board: board, log: log}
}

// Board returns the notification board of the publisher.
func (p *Publisher) Board() *Board {
	return p.board
}

// NotifySubscriptions sends the subscriptions of a PE.
func (p *Publisher) NotifySubscriptions(pe types.NamespacedName, payload []byte) error {
	return p.publish(SubscriptionsSubject(p.prefix, pe.Namespace, pe.Name), payload)
}

// NotifyRegion records a region notification for every PE of the region and
// sends each PE its notifications.
func (p *Publisher) NotifyRegion(
	namespace string, spec *v1beta1.ConsistentRegionSpec, n consistent.Notification) error {
	var firstErr error
	for _, peID := range spec.PesInRegion {
		var pe = types.NamespacedName{
			Namespace: namespace,
			Name:      v1beta1.ProcessingElementName(spec.JobName, peID),
		}
		p.board.Add(pe, spec.RegionIndex, n)
		var payload, err = json.Marshal(p.board.Get(pe))
		if err != nil {
			return err
		}
		err = p.publish(RegionSubject(p.prefix, namespace, spec.JobName, peID), payload)
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// ClearRegion drops the notifications of a region from the board.
func (p *Publisher) ClearRegion(namespace string, spec *v1beta1.ConsistentRegionSpec) {
	for _, peID := range spec.PesInRegion {
		p.board.Clear(types.NamespacedName{
			Namespace: namespace,
			Name:      v1beta1.ProcessingElementName(spec.JobName, peID),
		}, spec.RegionIndex)
	}
}

func (p *Publisher) publish(subject string, payload []byte) error {
	if p.conn == nil {
		p.log.V(1).Info("Notifications disabled, not publishing", "subject", subject)
		return nil
	}
	if err := p.conn.Publish(subject, payload); err != nil {
		return fmt.Errorf("publishing on %s: %w", subject, err)
	}
	p.log.V(1).Info("Published", "subject", subject, "bytes", len(payload))
	return nil
}
