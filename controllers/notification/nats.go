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

// Package notification carries the messages exchanged with the PE runtime
// over NATS: progress reports in, region notifications and subscription
// updates out.
package notification

import (
	"fmt"
	"time"

	"github.com/go-logr/logr"
	"github.com/nats-io/nats.go"
)

// DefaultSubjectPrefix is the first token of every subject.
const DefaultSubjectPrefix = "streams"

// Connect opens a NATS connection that keeps reconnecting forever.
func Connect(url string, log logr.Logger) (*nats.Conn, error) {
	var conn, err = nats.Connect(url,
		nats.Name("streams-operator"),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				log.Error(err, "Disconnected from NATS")
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			log.Info("Reconnected to NATS", "url", c.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connecting to NATS at %s: %w", url, err)
	}
	return conn, nil
}

// RegionSubject is the subject of the consistent region notifications of a PE.
func RegionSubject(prefix, namespace, job string, peID int64) string {
	return fmt.Sprintf("%s.%s.%s-%d.consistent-region", prefix, namespace, job, peID)
}

// SubscriptionsSubject is the subject of the subscription updates of a PE.
func SubscriptionsSubject(prefix, namespace, peName string) string {
	return fmt.Sprintf("%s.%s.%s.subscriptions", prefix, namespace, peName)
}

// ProgressSubject is the subject PEs report consistent region progress on.
func ProgressSubject(prefix, namespace string) string {
	return fmt.Sprintf("%s.%s.progress", prefix, namespace)
}
