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
	"fmt"
	"time"

	"github.com/googlecloudplatform/streams-operator/api/v1beta1"
	"github.com/googlecloudplatform/streams-operator/controllers/timer"
)

// ProgressType is the kind of a progress report sent by a PE.
type ProgressType string

// Progress reports.
const (
	ProgressCheckpointDone         ProgressType = "CheckpointDone"
	ProgressBlockingCheckpointDone ProgressType = "BlockingCheckpointDone"
	ProgressResetDone              ProgressType = "ResetDone"
	ProgressDrain                  ProgressType = "Drain"
	ProgressReset                  ProgressType = "Reset"
)

// Progress is reported by the consistent region runtime of a PE.
type Progress struct {
	Type         ProgressType `json:"progressType"`
	JobName      string       `json:"jobName"`
	RegionIndex  int32        `json:"regionIndex"`
	PeID         int64        `json:"peId"`
	OpName       string       `json:"opName,omitempty"`
	Force        bool         `json:"force,omitempty"`
	SeqID        int64        `json:"sequenceId"`
	ResetAttempt int64        `json:"resetAttempt"`
}

// NotificationType is the kind of a notification sent to the PEs of a region.
type NotificationType string

// Notifications.
const (
	NotificationTriggerDrain     NotificationType = "TRIGGER_DRAIN"
	NotificationTriggerReset     NotificationType = "TRIGGER_RESET"
	NotificationResumeSubmission NotificationType = "RESUME_SUBMISSION"
	NotificationRegionDrained    NotificationType = "REGION_DRAINED"
	NotificationResetFailed      NotificationType = "RESET_FAILED"
)

// Notification is sent to every PE of a region.
type Notification struct {
	Type    NotificationType `json:"type"`
	Message string           `json:"message"`
}

func drainMessage(seqID int64) string {
	return fmt.Sprintf("seqId=%d", seqID)
}

func resetMessage(seqID, resetAttempt int64) string {
	return fmt.Sprintf("seqId=%d;resetAttempt=%d", seqID, resetAttempt)
}

func resumeMessage(seqID, retireID int64, pendingCheckpoint bool) string {
	var pending = 0
	if pendingCheckpoint {
		pending = 1
	}
	return fmt.Sprintf("seqId=%d;retId=%d;pendCkpt=%d", seqID, retireID, pending)
}

// EventType is the kind of an event handled by the state machine.
type EventType string

// Events.
const (
	EventHealth   EventType = "Health"
	EventProgress EventType = "Progress"
	EventTimer    EventType = "Timer"
)

// Event is an input of the state machine. Health events carry no payload,
// the health is taken from the environment.
type Event struct {
	Type     EventType
	Progress *Progress
	Timer    *timer.Event
}

func ProgressEvent(progress Progress) Event {
	return Event{Type: EventProgress, Progress: &progress}
}

func TimerEvent(e timer.Event) Event {
	return Event{Type: EventTimer, Timer: &e}
}

func HealthEvent() Event {
	return Event{Type: EventHealth}
}

func (e Event) String() string {
	switch e.Type {
	case EventProgress:
		return fmt.Sprintf("%s(pe=%d, seq=%d)", e.Progress.Type, e.Progress.PeID, e.Progress.SeqID)
	case EventTimer:
		return fmt.Sprintf("%s(timer=%d)", e.Timer.Kind, e.Timer.TimerSeqID)
	}
	return string(e.Type)
}

// Env is what the state machine knows about the world besides the region.
type Env struct {
	// Current health of the region.
	Region RegionInfo
	// The operator process driving the region is not the first one.
	OperatorRestarted bool
	// Timer-driven drains are enabled.
	OperatorStarted bool
	Now             time.Time
}

// TimerRequest asks for a timer to be armed.
type TimerRequest struct {
	Kind       timer.Kind
	After      time.Duration
	TimerSeqID int64
}

// Result of handling an event. Effects must be applied only once the new
// spec is persisted.
type Result struct {
	// New spec, nil when the region is unchanged.
	Spec *v1beta1.ConsistentRegionSpec

	ClearTimers  bool
	Timers       []TimerRequest
	Notification *Notification
	// Drop the notifications recorded for the PEs of the region.
	ClearBoard bool
}

// IsChanged returns true if the spec must be persisted.
func (r *Result) IsChanged() bool {
	return r.Spec != nil
}

// HasEffects returns true if something must be applied besides the spec.
func (r *Result) HasEffects() bool {
	return r.ClearTimers || len(r.Timers) > 0 || r.Notification != nil || r.ClearBoard
}
