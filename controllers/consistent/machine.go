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

// Package consistent implements the consistent region state machine. The
// machine is a pure function of the persisted region spec, an event and the
// environment. It returns the new spec together with the timers and
// notifications to apply once the spec is persisted.
package consistent

import (
	"time"

	"github.com/go-logr/logr"
	"k8s.io/apimachinery/pkg/api/equality"

	"github.com/googlecloudplatform/streams-operator/api/v1beta1"
	"github.com/googlecloudplatform/streams-operator/controllers/timer"
)

// Machine drives consistent regions through drain and reset cycles.
type Machine struct {
	Log logr.Logger
}

// transition holds the state of the handling of one event.
type transition struct {
	log    logr.Logger
	cur    *v1beta1.ConsistentRegionSpec
	spec   *v1beta1.ConsistentRegionSpec
	env    Env
	result Result
}

// Handle computes the outcome of an event for a region. cur is not modified.
func (m *Machine) Handle(cur *v1beta1.ConsistentRegionSpec, e Event, env Env) Result {
	var t = &transition{
		log: m.Log.WithValues(
			"job", cur.JobName, "region", cur.RegionIndex, "event", e.String()),
		cur:  cur,
		spec: cur.DeepCopy(),
		env:  env,
	}
	switch e.Type {
	case EventHealth:
		t.handleHealth()
	case EventProgress:
		t.handleProgress(e.Progress)
	case EventTimer:
		t.handleTimer(e.Timer)
	}
	if !equality.Semantic.DeepEqual(cur, t.spec) {
		t.result.Spec = t.spec
		if t.spec.State != cur.State {
			t.log.Info("State transition", "from", cur.State, "to", t.spec.State)
		}
	}
	return t.result
}

func (t *transition) handleHealth() {
	var info = t.env.Region
	if info.IsHealthUnknown() {
		t.spec.Health = v1beta1.RegionHealthUnknown
		return
	}
	t.spec.Health = info.Health

	var changed = info.IsHealthy() != t.cur.IsRegionHealthy
	if changed {
		t.spec.IsRegionHealthy = info.IsHealthy()
		t.spec.IsCleanStart = info.CleanStart
	}
	switch {
	case info.IsHealthy() && (changed || t.spec.State == v1beta1.ConsistentRegionStateUnhealthy):
		t.becomeHealthy()
	case info.IsHealthy():
		t.finishDeferredCheckpoint()
	case changed:
		t.becomeUnhealthy()
	}
}

func (t *transition) becomeHealthy() {
	switch t.spec.State {
	case v1beta1.ConsistentRegionStateUnhealthy:
		t.resetRegion()
	case v1beta1.ConsistentRegionStateMaximumResetAttemptsReached:
		t.log.Info("Region is healthy, but the maximum reset attempts were reached: not resetting")
	case v1beta1.ConsistentRegionStateStarted:
		t.log.Info("Region is healthy for the first time")
		if !t.spec.IsCleanStart {
			t.log.Info("Region did not have a clean start")
			t.spec.IsMustReset = true
		}
		if t.env.OperatorRestarted {
			t.log.Info("Consistent region operator has been restarted, forcing a reset")
			t.spec.IsMustReset = true
		}
		t.spec.IsHealthyFirstTime = true
		t.moveToProcessingOrReset()
	default:
		t.finishDeferredCheckpoint()
	}
}

func (t *transition) becomeUnhealthy() {
	t.result.ClearBoard = true
	if t.spec.State.IsActive() {
		t.log.Info("Region is unhealthy, waiting for it to become healthy")
		t.spec.State = v1beta1.ConsistentRegionStateUnhealthy
		t.clearTimers()
	}
}

func (t *transition) moveToProcessingOrReset() {
	if !t.spec.IsHealthyFirstTime {
		return
	}
	if t.spec.IsMustReset {
		t.spec.IsMustReset = false
		t.resetRegion()
		return
	}
	t.spec.State = v1beta1.ConsistentRegionStateProcessing
	t.armDrainPeriod()
}

func (t *transition) handleProgress(p *Progress) {
	switch p.Type {
	case ProgressCheckpointDone:
		t.checkpointDone(p)
	case ProgressBlockingCheckpointDone:
		t.blockingCheckpointDone(p)
	case ProgressResetDone:
		t.resetDone(p)
	case ProgressDrain:
		t.drain(p.OpName, p.SeqID)
	case ProgressReset:
		t.reset(p.Force)
	default:
		t.log.Info("Ignoring unknown progress", "type", p.Type)
	}
}

// drainSeqID returns the sequence ID drain completions must carry.
func (t *transition) drainSeqID() (int64, bool) {
	switch t.spec.State {
	case v1beta1.ConsistentRegionStateDraining,
		v1beta1.ConsistentRegionStateCheckpointPending:
		return t.spec.PendingSeqID, true
	}
	return 0, false
}

func (t *transition) allPes(statuses ...v1beta1.PeStatus) bool {
	return t.spec.CountPeStatus(statuses...) == len(t.spec.PesInRegion)
}

func (t *transition) checkpointDone(p *Progress) {
	if !t.spec.HasPe(p.PeID) {
		t.log.Info("Ignoring progress of a PE outside the region", "pe", p.PeID)
		return
	}
	var expected, ok = t.drainSeqID()
	if !ok {
		t.log.V(1).Info("Ignoring drain completion", "state", t.spec.State)
		return
	}
	if p.SeqID != expected {
		t.log.Info("Discarding stale drain completion",
			"pe", p.PeID, "seqId", p.SeqID, "expected", expected)
		return
	}
	if t.spec.PeStatusOf(p.PeID) == v1beta1.PeStatusDrained {
		t.log.Info("Discarding duplicate drain completion", "pe", p.PeID)
		return
	}
	t.spec.SetPeStatus(p.PeID, v1beta1.PeStatusDrained)

	if !t.allPes(v1beta1.PeStatusDrained) {
		if t.spec.State == v1beta1.ConsistentRegionStateDraining &&
			t.allPes(v1beta1.PeStatusDrained, v1beta1.PeStatusBlockingCheckpointDone) {
			t.finishBlockingCheckpoint(p.SeqID)
		}
		return
	}
	if t.env.Region.IsHealthUnknown() {
		t.log.Info("Region drained while its health is unknown, deferring completion")
		return
	}
	t.spec.ResetPeToCompletion()
	t.finishCheckpoint()
}

func (t *transition) blockingCheckpointDone(p *Progress) {
	if !t.spec.HasPe(p.PeID) {
		t.log.Info("Ignoring progress of a PE outside the region", "pe", p.PeID)
		return
	}
	var expected, ok = t.drainSeqID()
	if !ok {
		t.log.V(1).Info("Ignoring blocking checkpoint completion", "state", t.spec.State)
		return
	}
	if p.SeqID != expected {
		t.log.Info("Discarding stale blocking checkpoint completion",
			"pe", p.PeID, "seqId", p.SeqID, "expected", expected)
		return
	}
	switch t.spec.PeStatusOf(p.PeID) {
	case v1beta1.PeStatusBlockingCheckpointDone, v1beta1.PeStatusDrained:
		t.log.Info("Discarding duplicate blocking checkpoint completion", "pe", p.PeID)
		return
	}
	t.spec.SetPeStatus(p.PeID, v1beta1.PeStatusBlockingCheckpointDone)

	if t.spec.State == v1beta1.ConsistentRegionStateDraining &&
		t.allPes(v1beta1.PeStatusDrained, v1beta1.PeStatusBlockingCheckpointDone) {
		t.finishBlockingCheckpoint(p.SeqID)
	}
}

// finishDeferredCheckpoint completes a drain whose PEs all reported while
// the health of the region was unknown.
func (t *transition) finishDeferredCheckpoint() {
	if _, ok := t.drainSeqID(); !ok {
		return
	}
	if !t.allPes(v1beta1.PeStatusDrained) {
		return
	}
	t.log.Info("Completing deferred drain")
	t.spec.ResetPeToCompletion()
	t.finishCheckpoint()
}

func (t *transition) finishBlockingCheckpoint(seqID int64) {
	t.spec.PendingSeqID = seqID
	t.spec.CurrentSeqID++
	t.spec.State = v1beta1.ConsistentRegionStateCheckpointPending
	t.notify(NotificationResumeSubmission,
		resumeMessage(t.spec.CurrentSeqID, t.spec.ToRetireSeqID, true))
}

func (t *transition) finishCheckpoint() {
	var spec = t.spec
	switch spec.State {
	case v1beta1.ConsistentRegionStateDraining:
		spec.ToRetireSeqID = spec.LastCompletedSeqID
		spec.LastCompletedSeqID = spec.CurrentSeqID
		spec.CurrentSeqID++
		t.notify(NotificationResumeSubmission,
			resumeMessage(spec.CurrentSeqID, spec.ToRetireSeqID, false))
	case v1beta1.ConsistentRegionStateCheckpointPending:
		spec.ToRetireSeqID = spec.LastCompletedSeqID
		spec.LastCompletedSeqID = spec.PendingSeqID
		t.notify(NotificationRegionDrained, drainMessage(spec.PendingSeqID))
	}
	spec.CurrentResetAttempt = 0
	spec.CurrentMaxResetAttempts = spec.MaxConsecutiveResetAttempts

	spec.State = v1beta1.ConsistentRegionStateProcessing
	t.clearTimers()
	spec.PendingSeqID = spec.CurrentSeqID
	t.armDrainPeriod()

	var now = t.now()
	spec.LastCompletedDrain = spec.LastCompletedSeqID
	spec.LastConsistentStateTime = now
	spec.AvgDrainTime.AddSample(now - spec.DrainStartTimestamp)
	spec.AvgDrainTimeMetric = int64(spec.AvgDrainTime.CalcAverage())
}

func (t *transition) resetDone(p *Progress) {
	if !t.spec.HasPe(p.PeID) {
		t.log.Info("Ignoring progress of a PE outside the region", "pe", p.PeID)
		return
	}
	if t.spec.State != v1beta1.ConsistentRegionStateResetting {
		t.log.V(1).Info("Ignoring reset completion", "state", t.spec.State)
		return
	}
	if p.SeqID != t.spec.LastCompletedSeqID ||
		p.ResetAttempt != t.spec.CurrentResetAttempt-1 {
		t.log.Info("Discarding stale reset completion",
			"pe", p.PeID, "seqId", p.SeqID, "resetAttempt", p.ResetAttempt)
		return
	}
	if t.spec.PeStatusOf(p.PeID) == v1beta1.PeStatusReset {
		t.log.Info("Discarding duplicate reset completion", "pe", p.PeID)
		return
	}
	t.spec.SetPeStatus(p.PeID, v1beta1.PeStatusReset)

	if !t.allPes(v1beta1.PeStatusReset) {
		return
	}
	t.spec.ResetPeToCompletion()
	t.finishReset()
}

func (t *transition) finishReset() {
	var spec = t.spec
	spec.CurrentSeqID++
	t.clearTimers()
	spec.State = v1beta1.ConsistentRegionStateProcessing
	t.notify(NotificationResumeSubmission,
		resumeMessage(spec.CurrentSeqID, spec.ToRetireSeqID, false))
	spec.CurrentResetAttempt = 0
	spec.CurrentMaxResetAttempts = spec.MaxConsecutiveResetAttempts
	spec.PendingSeqID = spec.CurrentSeqID
	t.armDrainPeriod()

	var now = t.now()
	spec.LastCompletedReset = spec.LastCompletedSeqID
	spec.LastResetTime = now
	spec.AvgResetTime.AddSample(now - spec.ResetStartTimestamp)
	spec.AvgResetTimeMetric = int64(spec.AvgResetTime.CalcAverage())
}

// drain starts a drain requested by a trigger operator.
func (t *transition) drain(opName string, seqID int64) {
	if !t.spec.IsTriggerOperator(opName) {
		t.log.Info("Ignoring drain request of a non trigger operator", "operator", opName)
		return
	}
	if !t.spec.IsOperatorDriven() {
		t.log.Info("Ignoring drain request of a periodic region", "operator", opName)
		return
	}
	switch t.spec.State {
	case v1beta1.ConsistentRegionStateStarted:
		t.spec.IsMustReset = true
		return
	case v1beta1.ConsistentRegionStateProcessing:
	default:
		return
	}
	if seqID != t.spec.CurrentSeqID {
		t.log.Info("Discarding drain request with unexpected sequence ID",
			"seqId", seqID, "expected", t.spec.CurrentSeqID)
		return
	}
	t.startDrain()
}

func (t *transition) reset(force bool) {
	t.log.Info("Reset requested", "force", force)
	if force {
		t.spec.CurrentMaxResetAttempts =
			t.spec.CurrentResetAttempt + t.spec.MaxConsecutiveResetAttempts
	}
	switch t.spec.State {
	case v1beta1.ConsistentRegionStateStarted:
		t.spec.IsMustReset = true
	case v1beta1.ConsistentRegionStateUnhealthy:
		// The region resets once it becomes healthy.
	case v1beta1.ConsistentRegionStateMaximumResetAttemptsReached:
		if !force {
			return
		}
		if !t.env.Region.IsHealthy() {
			t.spec.State = v1beta1.ConsistentRegionStateUnhealthy
			return
		}
		t.spec.IsRegionHealthy = true
		t.resetRegion()
	default:
		t.resetRegion()
	}
}

func (t *transition) handleTimer(e *timer.Event) {
	if e.TimerSeqID < t.cur.CurrentTimerSeqID {
		t.log.V(1).Info("Ignoring cancelled timer",
			"timerSeqId", e.TimerSeqID, "current", t.cur.CurrentTimerSeqID)
		return
	}
	switch e.Kind {
	case timer.DrainTimeout, timer.ResetTimeout:
		if t.spec.State.IsActive() {
			t.log.Info("Timeout expired", "timer", e.Kind)
			t.resetRegion()
		}
	case timer.DrainPeriod:
		t.drainPeriod()
	}
}

func (t *transition) drainPeriod() {
	if t.spec.State != v1beta1.ConsistentRegionStateProcessing {
		t.log.V(1).Info("Ignoring drain period", "state", t.spec.State)
		return
	}
	if !t.env.OperatorStarted || t.env.Region.IsHealthUnknown() {
		t.log.Info("Postponing drain",
			"operatorStarted", t.env.OperatorStarted, "health", t.env.Region.Health)
		t.armDrainPeriod()
		return
	}
	t.notify(NotificationTriggerDrain, drainMessage(t.spec.CurrentSeqID))
	t.startDrain()
}

func (t *transition) startDrain() {
	t.spec.State = v1beta1.ConsistentRegionStateDraining
	t.spec.PendingSeqID = t.spec.CurrentSeqID
	t.spec.ResetPeToCompletion()
	t.arm(timer.DrainTimeout, t.spec.DrainTimeout.Duration)
	t.spec.DrainStartTimestamp = t.now()
}

func (t *transition) resetRegion() {
	var spec = t.spec
	t.clearTimers()
	if spec.CurrentResetAttempt > spec.CurrentMaxResetAttempts {
		spec.State = v1beta1.ConsistentRegionStateMaximumResetAttemptsReached
		spec.ResetPeToCompletion()
		t.log.Info("Maximum reset attempts reached",
			"maxResetAttempts", spec.CurrentMaxResetAttempts)
		t.notify(NotificationResetFailed, drainMessage(spec.LastCompletedSeqID))
		return
	}
	t.log.Info("Resetting region", "resetAttempt", spec.CurrentResetAttempt)
	spec.State = v1beta1.ConsistentRegionStateResetting
	spec.ResetPeToCompletion()
	t.notify(NotificationTriggerReset,
		resetMessage(spec.LastCompletedSeqID, spec.CurrentResetAttempt))
	spec.CurrentResetAttempt++
	t.arm(timer.ResetTimeout, spec.ResetTimeout.Duration)
	spec.ResetStartTimestamp = t.now()
}

func (t *transition) armDrainPeriod() {
	if t.spec.IsPeriodic() {
		t.arm(timer.DrainPeriod, t.spec.Period.Duration)
	}
}

func (t *transition) arm(kind timer.Kind, after time.Duration) {
	t.result.Timers = append(t.result.Timers, TimerRequest{
		Kind:       kind,
		After:      after,
		TimerSeqID: t.spec.CurrentTimerSeqID,
	})
}

// clearTimers cancels the armed timers and the ones requested so far.
func (t *transition) clearTimers() {
	t.result.ClearTimers = true
	t.result.Timers = nil
	t.spec.CurrentTimerSeqID++
}

func (t *transition) notify(kind NotificationType, message string) {
	t.result.Notification = &Notification{Type: kind, Message: message}
}

func (t *transition) now() int64 {
	var now = t.env.Now
	if now.IsZero() {
		now = time.Now()
	}
	var tc v1beta1.TimeConverter
	return tc.ToEpochMillis(now)
}

// RecoverTimers returns the timers a region in its persisted state would have
// armed. It is used when a region is first seen by this process, since armed
// timers do not survive a restart.
func RecoverTimers(spec *v1beta1.ConsistentRegionSpec) []TimerRequest {
	var request = func(kind timer.Kind, after time.Duration) []TimerRequest {
		return []TimerRequest{{Kind: kind, After: after, TimerSeqID: spec.CurrentTimerSeqID}}
	}
	switch spec.State {
	case v1beta1.ConsistentRegionStateProcessing:
		if spec.IsPeriodic() {
			return request(timer.DrainPeriod, spec.Period.Duration)
		}
	case v1beta1.ConsistentRegionStateDraining,
		v1beta1.ConsistentRegionStateCheckpointPending:
		return request(timer.DrainTimeout, spec.DrainTimeout.Duration)
	case v1beta1.ConsistentRegionStateResetting:
		return request(timer.ResetTimeout, spec.ResetTimeout.Duration)
	}
	return nil
}
