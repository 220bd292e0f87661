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
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/go-logr/logr"
	"github.com/nats-io/nats.go"

	"github.com/googlecloudplatform/streams-operator/controllers/consistent"
)

// ProgressHandler receives the progress reports of the PEs of a namespace.
type ProgressHandler func(namespace string, progress consistent.Progress)

// ProgressListener subscribes to the progress subjects of every namespace.
type ProgressListener struct {
	conn    *nats.Conn
	prefix  string
	handler ProgressHandler
	log     logr.Logger
}

func NewProgressListener(
	conn *nats.Conn, prefix string, handler ProgressHandler, log logr.Logger) *ProgressListener {
	if prefix == "" {
		prefix = DefaultSubjectPrefix
	}
	return &ProgressListener{conn: conn, prefix: prefix, handler: handler, log: log}
}

// Start subscribes and blocks until the context is done.
func (l *ProgressListener) Start(ctx context.Context) error {
	var subject = ProgressSubject(l.prefix, "*")
	var sub, err = l.conn.Subscribe(subject, l.HandleMsg)
	if err != nil {
		return fmt.Errorf("subscribing to %s: %w", subject, err)
	}
	l.log.Info("Listening for progress", "subject", subject)
	<-ctx.Done()
	if err := sub.Unsubscribe(); err != nil {
		l.log.Error(err, "Failed to unsubscribe", "subject", subject)
	}
	return nil
}

// HandleMsg decodes a progress report and hands it to the handler.
func (l *ProgressListener) HandleMsg(msg *nats.Msg) {
	var namespace, ok = l.namespaceOf(msg.Subject)
	if !ok {
		l.log.Info("Ignoring message on unexpected subject", "subject", msg.Subject)
		return
	}
	var progress consistent.Progress
	if err := json.Unmarshal(msg.Data, &progress); err != nil {
		l.log.Error(err, "Discarding malformed progress", "subject", msg.Subject)
		return
	}
	if progress.JobName == "" || progress.Type == "" {
		l.log.Info("Discarding incomplete progress", "subject", msg.Subject)
		return
	}
	l.handler(namespace, progress)
}

func (l *ProgressListener) namespaceOf(subject string) (string, bool) {
	var tokens = strings.Split(subject, ".")
	if len(tokens) != 3 || tokens[0] != l.prefix || tokens[2] != "progress" || tokens[1] == "" {
		return "", false
	}
	return tokens[1], true
}
