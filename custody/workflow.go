/*
workflow.go - Append-only workflow log

PURPOSE:
  The workflow is the authoritative audit trail of a document's lifecycle.
  Every upload, transfer, acceptance, review verdict, and archive action
  appends a step here. Steps are immutable facts: once appended, never
  modified or removed.

CRITICAL INVARIANTS:
  1. APPEND-ONLY: No Update, No Delete. Ever.
  2. MONOTONIC TIME: step[i+1].Timestamp >= step[i].Timestamp, enforced
     with a clamp against clock skew
  3. DERIVED STATUS: Document.Status is assigned by the registry at the
     moment of an approve/reject command; DeriveStatus exists to check
     log/status consistency, not to drive mutation

CLOCK-SKEW CLAMP:
  Timestamps come from the wall clock, which can step backwards (NTP
  corrections, VM migration). If the clock reads earlier than the last
  entry, the new step is stamped one nanosecond after the last entry so
  ordering in the log always matches append order.

SEE ALSO:
  - ledger.go: Custody transitions recorded through this log
  - registry.go: The only writer
*/
package custody

import "time"

// WorkflowLog appends immutable lifecycle steps to documents.
type WorkflowLog struct {
	Clock Clock
	IDs   IDGenerator
}

func NewWorkflowLog(clock Clock, ids IDGenerator) *WorkflowLog {
	return &WorkflowLog{Clock: clock, IDs: ids}
}

// Append records a step with a monotonically nondecreasing timestamp.
// The step's ID and Timestamp fields are assigned here; callers supply
// actor, action, status, and comment.
func (w *WorkflowLog) Append(doc *Document, actor Actor, action WorkflowAction, status StepStatus, comment string) WorkflowStep {
	step := WorkflowStep{
		ID:        w.IDs.NewID(),
		Role:      actor.Role,
		UserID:    actor.ID,
		Action:    action,
		Status:    status,
		Timestamp: w.clampedNow(doc),
		Comment:   comment,
	}
	doc.Workflow = append(doc.Workflow, step)
	return step
}

// clampedNow returns the wall clock, bumped past the last entry when the
// clock has stepped backwards.
func (w *WorkflowLog) clampedNow(doc *Document) time.Time {
	now := w.Clock.Now()
	if n := len(doc.Workflow); n > 0 {
		if last := doc.Workflow[n-1].Timestamp; now.Before(last) {
			return last.Add(time.Nanosecond)
		}
	}
	return now
}

// DeriveStatus computes the status implied by the step sequence and the
// possession flags. Used to cross-check the explicitly assigned status;
// the registry remains the writer of Document.Status.
func DeriveStatus(doc *Document) DocumentStatus {
	for i := len(doc.Workflow) - 1; i >= 0; i-- {
		switch doc.Workflow[i].Action {
		case ActionArchive:
			return StatusArchived
		case ActionApprove:
			return StatusApproved
		case ActionReject:
			return StatusRejected
		case ActionReview:
			return StatusInReview
		}
	}
	if doc.AwaitingAcceptance {
		return StatusPending
	}
	if len(doc.Workflow) == 0 {
		return StatusDraft
	}
	return StatusPending
}
