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

// Package coordinator serializes mutations of watched resources. A command
// is applied at most once at a time per resource and is resolved by the
// watch event that shows its effect, or by a timeout.
package coordinator

import (
	"context"
	"sync"
	"time"

	"github.com/go-logr/logr"
	"k8s.io/apimachinery/pkg/types"
	"k8s.io/apimachinery/pkg/util/clock"
	"k8s.io/client-go/util/workqueue"
	"sigs.k8s.io/controller-runtime/pkg/client"
	"sigs.k8s.io/controller-runtime/pkg/event"
	"sigs.k8s.io/controller-runtime/pkg/handler"
)

// DefaultTimeout bounds how long a command waits for its watch event.
const DefaultTimeout = 30 * time.Second

// Coordinator tracks the pending command of every resource.
type Coordinator struct {
	log     logr.Logger
	clock   clock.Clock
	timeout time.Duration

	mu      sync.Mutex
	pending map[types.NamespacedName]*Command
	closed  bool
}

// New returns a coordinator resolving commands with a timeout after the
// given duration, DefaultTimeout when zero.
func New(log logr.Logger, clk clock.Clock, timeout time.Duration) *Coordinator {
	if clk == nil {
		clk = clock.RealClock{}
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Coordinator{
		log:     log,
		clock:   clk,
		timeout: timeout,
		pending: map[types.NamespacedName]*Command{},
	}
}

// Apply runs the command and blocks until it is resolved. A command pending
// for the same resource is waited for before this one runs.
func (c *Coordinator) Apply(
	ctx context.Context, key types.NamespacedName, cmd *Command) (Status, error) {
	if err := c.register(ctx, key, cmd); err != nil {
		return StatusUnknown, err
	}
	c.execute(ctx, key, cmd)
	return cmd.Status(), cmd.Err()
}

// Submit applies the command without waiting for its result. It is meant for
// callers running on the watch delivery path of the resource itself, which
// would otherwise wait for an event they are blocking.
func (c *Coordinator) Submit(key types.NamespacedName, cmd *Command) {
	go func() {
		var status, err = c.Apply(context.Background(), key, cmd)
		if err != nil {
			c.log.Info("Command did not succeed",
				"command", cmd.Name, "resource", key, "status", status, "error", err)
		}
	}()
}

// IsPending returns true if a command is pending for the resource.
func (c *Coordinator) IsPending(key types.NamespacedName) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.pending[key]
	return ok
}

// OnEvent hands a watch delta of the resource to its pending command.
func (c *Coordinator) OnEvent(key types.NamespacedName, prev, cur client.Object) {
	c.mu.Lock()
	var cmd, ok = c.pending[key]
	if !ok {
		c.mu.Unlock()
		return
	}
	if !cmd.armed {
		cmd.backlog = append(cmd.backlog, delta{prev: prev, cur: cur})
		c.mu.Unlock()
		return
	}
	c.mu.Unlock()
	c.check(key, cmd, prev, cur)
}

// Close resolves every pending command with Unknown and rejects new ones.
func (c *Coordinator) Close() {
	c.mu.Lock()
	var pending = c.pending
	c.pending = map[types.NamespacedName]*Command{}
	c.closed = true
	c.mu.Unlock()
	for key, cmd := range pending {
		c.log.Info("Abandoning pending command", "command", cmd.Name, "resource", key)
		cmd.resolve(StatusUnknown, nil)
	}
}

// EventHandler returns a watch handler feeding the coordinator. It enqueues
// nothing.
func (c *Coordinator) EventHandler() handler.EventHandler {
	return handler.Funcs{
		CreateFunc: func(e event.CreateEvent, _ workqueue.RateLimitingInterface) {
			c.OnEvent(client.ObjectKeyFromObject(e.Object), nil, e.Object)
		},
		UpdateFunc: func(e event.UpdateEvent, _ workqueue.RateLimitingInterface) {
			c.OnEvent(client.ObjectKeyFromObject(e.ObjectNew), e.ObjectOld, e.ObjectNew)
		},
		DeleteFunc: func(e event.DeleteEvent, _ workqueue.RateLimitingInterface) {
			c.OnEvent(client.ObjectKeyFromObject(e.Object), e.Object, nil)
		},
	}
}

func (c *Coordinator) register(
	ctx context.Context, key types.NamespacedName, cmd *Command) error {
	if cmd.done == nil {
		cmd.done = make(chan struct{})
		cmd.status = StatusUnknown
	}
	for {
		c.mu.Lock()
		if c.closed {
			c.mu.Unlock()
			cmd.resolve(StatusUnknown, nil)
			return ErrCommandUnknown
		}
		var prior, ok = c.pending[key]
		if !ok {
			c.pending[key] = cmd
			c.mu.Unlock()
			return nil
		}
		c.mu.Unlock()
		select {
		case <-prior.done:
		case <-ctx.Done():
			cmd.resolve(StatusUnknown, ctx.Err())
			return ctx.Err()
		}
	}
}

func (c *Coordinator) execute(
	ctx context.Context, key types.NamespacedName, cmd *Command) {
	var log = c.log.WithValues("command", cmd.Name, "resource", key)
	var action, status, err = cmd.Run(withCommand(ctx, cmd))
	if err != nil {
		if status == StatusUnknown || status == StatusSuccess {
			status = StatusFailure
		}
		log.Info("Command run failed", "status", status, "error", err)
		c.resolve(key, cmd, status, err)
		return
	}
	if action == ActionRemove {
		log.V(1).Info("Command resolved without waiting", "status", status)
		c.resolve(key, cmd, status, nil)
		return
	}

	c.mu.Lock()
	cmd.armed = true
	var backlog = cmd.backlog
	cmd.backlog = nil
	c.mu.Unlock()
	for _, d := range backlog {
		if c.check(key, cmd, d.prev, d.cur) {
			break
		}
	}

	var timer = c.clock.NewTimer(c.timeout)
	defer timer.Stop()
	select {
	case <-cmd.done:
	case <-timer.C():
		if c.resolve(key, cmd, StatusTimeout, nil) {
			log.Info("Command timed out", "timeout", c.timeout)
		}
	case <-ctx.Done():
		c.resolve(key, cmd, StatusUnknown, ctx.Err())
	}
}

func (c *Coordinator) check(
	key types.NamespacedName, cmd *Command, prev, cur client.Object) bool {
	c.mu.Lock()
	var current = cmd.observes(cur)
	c.mu.Unlock()
	if !current {
		c.log.V(1).Info("Skipping delta older than the write",
			"command", cmd.Name, "resource", key, "resourceVersion", cur.GetResourceVersion())
		return false
	}
	var ok, status = cmd.Check(prev, cur)
	if !ok {
		return false
	}
	c.log.V(1).Info("Command resolved", "command", cmd.Name, "resource", key, "status", status)
	c.resolve(key, cmd, status, nil)
	return true
}

func (c *Coordinator) resolve(
	key types.NamespacedName, cmd *Command, status Status, err error) bool {
	c.mu.Lock()
	if c.pending[key] == cmd {
		delete(c.pending, key)
	}
	c.mu.Unlock()
	return cmd.resolve(status, err)
}
