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

package coordinator

import (
	"context"
	"strconv"
	"sync"

	"sigs.k8s.io/controller-runtime/pkg/client"
)

// Action tells the coordinator what to do once a command has run.
type Action int

const (
	// ActionWait keeps the command pending until a watch event satisfies it.
	ActionWait Action = iota
	// ActionRemove resolves the command immediately.
	ActionRemove
)

// RunFunc performs the mutation. The returned status is the result of the
// command when the action is ActionRemove or the error is not nil.
type RunFunc func(ctx context.Context) (Action, Status, error)

// CheckFunc inspects a watch delta of the target resource. cur is nil when
// the resource was deleted, prev is nil when it was added. It returns true
// with the final status once the effect of the mutation is visible, false
// when the event is unrelated to the mutation.
type CheckFunc func(prev, cur client.Object) (bool, Status)

// Command is a single mutation attempt against one resource.
type Command struct {
	// Name describes the command in logs.
	Name  string
	Run   RunFunc
	Check CheckFunc

	once   sync.Once
	done   chan struct{}
	status Status
	err    error

	// set by Run before the command is armed
	written string

	// guarded by the coordinator mutex
	armed   bool
	backlog []delta
	seen    bool
}

type delta struct {
	prev client.Object
	cur  client.Object
}

// NewCommand returns a command ready to be applied.
func NewCommand(name string, run RunFunc, check CheckFunc) *Command {
	return &Command{
		Name:   name,
		Run:    run,
		Check:  check,
		done:   make(chan struct{}),
		status: StatusUnknown,
	}
}

type commandKey struct{}

func withCommand(ctx context.Context, cmd *Command) context.Context {
	return context.WithValue(ctx, commandKey{}, cmd)
}

// RecordWrite records the object returned by the update of the command
// running with ctx. Watch deltas older than that object are then not
// handed to Check.
func RecordWrite(ctx context.Context, obj client.Object) {
	if cmd, ok := ctx.Value(commandKey{}).(*Command); ok {
		cmd.written = obj.GetResourceVersion()
	}
}

// observes returns false for a delta older than the write of the command.
// Deltas are delivered in resource version order, so once the write or a
// later version is seen every following delta is current.
func (c *Command) observes(cur client.Object) bool {
	if c.written == "" || c.seen || cur == nil {
		return true
	}
	var version = cur.GetResourceVersion()
	if version == c.written || newerVersion(version, c.written) {
		c.seen = true
		return true
	}
	return false
}

// newerVersion compares resource versions when both are numbers, as the
// API server issues them.
func newerVersion(version, than string) bool {
	var v, err = strconv.ParseUint(version, 10, 64)
	if err != nil {
		return false
	}
	t, err := strconv.ParseUint(than, 10, 64)
	if err != nil {
		return false
	}
	return v > t
}

// Done is closed when the command is resolved.
func (c *Command) Done() <-chan struct{} {
	return c.done
}

// Status returns the result of the command, Unknown while pending.
func (c *Command) Status() Status {
	select {
	case <-c.done:
		return c.status
	default:
		return StatusUnknown
	}
}

// Err returns the error of a resolved command.
func (c *Command) Err() error {
	select {
	case <-c.done:
		return c.status.Err(c.err)
	default:
		return ErrCommandUnknown
	}
}

func (c *Command) resolve(status Status, err error) bool {
	var resolved = false
	c.once.Do(func() {
		c.status = status
		c.err = err
		close(c.done)
		resolved = true
	})
	return resolved
}
