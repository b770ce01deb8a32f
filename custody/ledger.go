/*
ledger.go - Possession ledger: custody transitions for one document

PURPOSE:
  The PossessionLedger owns the current-possession and possession-history
  invariants. It validates and applies the three custody transitions:

    Transfer:  holder → recipient, leaves possession Pending
    Accept:    recipient confirms receipt, possession becomes Accepted
    Reject:    recipient declines, custody reverts to the prior holder

  The ledger mutates the document in memory only. The registry wraps each
  transition with permission checks, the matching workflow step, and the
  persistence write, all under the per-document lock.

CRITICAL INVARIANTS:
  1. Exactly one current PossessionRecord per document
  2. A superseded record is SEALED (Transferred, TransferredAt/To filled)
     before being archived into history
  3. Archived records are never mutated afterwards
  4. Only the current CONFIRMED holder may transfer; a Pending possession
     cannot be re-transferred

WHY A SEPARATE LEDGER?
  Custody and review authority are orthogonal. A physical contract can sit
  on someone's desk (custody) while a different person decides its fate
  (review). Mixing the two under one field is a classic source of bugs, so
  the ledger never reads or writes Document.Reviewer except where the
  transfer contract explicitly reassigns it to the recipient.

REJECTION SEMANTICS:
  Declining a transfer is not loss. The pending record is discarded, the
  most recent history entry is reconstructed as the current record with
  its transfer fields cleared and status Accepted: the transfer is undone
  and custody is exactly where it was before. The rejection itself is
  recorded by the registry as a workflow step carrying the mandatory
  reason.

SEE ALSO:
  - registry.go: Orchestrates ledger + workflow log + persistence
  - workflow.go: The audit trail appended alongside each transition
*/
package custody

// PossessionLedger applies custody transitions to a single document.
type PossessionLedger struct {
	Clock Clock
	IDs   IDGenerator
}

func NewPossessionLedger(clock Clock, ids IDGenerator) *PossessionLedger {
	return &PossessionLedger{Clock: clock, IDs: ids}
}

// Transfer seals the current possession record and installs a Pending
// record for the recipient.
//
// Preconditions:
//   - fromUserID is the current holder (else NotHolderError)
//   - current possession is Accepted, not mid-transfer (else ErrAlreadyPending)
//   - toUserID differs from the current holder (else ErrSelfTransfer)
func (l *PossessionLedger) Transfer(doc *Document, fromUserID, toUserID UserID, possessionType PossessionType, notes, location string) error {
	if doc.CurrentPossession.UserID != fromUserID {
		return &NotHolderError{DocumentID: doc.ID, ActorID: fromUserID, HolderID: doc.CurrentPossession.UserID}
	}
	if doc.AwaitingAcceptance || doc.CurrentPossession.Status != PossessionAccepted {
		return ErrAlreadyPending
	}
	if toUserID == fromUserID {
		return ErrSelfTransfer
	}

	now := l.Clock.Now()

	// Seal the outgoing record.
	sealed := doc.CurrentPossession
	sealed.TransferredAt = &now
	sealed.TransferredTo = toUserID
	sealed.Status = PossessionTransferred
	if notes != "" {
		sealed.Notes = notes
	}
	doc.PossessionHistory = append(doc.PossessionHistory, sealed)

	// Fresh Pending record for the recipient. UserName stays empty until
	// the recipient accepts and supplies their display name.
	doc.CurrentPossession = PossessionRecord{
		ID:             l.IDs.NewID(),
		UserID:         toUserID,
		UserName:       "",
		PossessionType: possessionType,
		ReceivedAt:     now,
		Location:       location,
		Notes:          notes,
		Status:         PossessionPending,
	}

	doc.AwaitingAcceptance = true
	doc.TargetDestination = toUserID
	doc.Reviewer = toUserID
	return nil
}

// Accept confirms receipt by the transfer's target recipient.
//
// Preconditions:
//   - a transfer is outstanding (else ErrNotAwaitingAcceptance)
//   - userID is the target recipient (else NotTargetRecipientError)
//
// Accepting twice fails with ErrNotAwaitingAcceptance rather than
// silently succeeding: a second call signals a duplicate request.
func (l *PossessionLedger) Accept(doc *Document, userID UserID, userName, location, notes string) error {
	if !doc.AwaitingAcceptance {
		return ErrNotAwaitingAcceptance
	}
	if doc.TargetDestination != userID {
		return &NotTargetRecipientError{DocumentID: doc.ID, ActorID: userID, TargetID: doc.TargetDestination}
	}

	now := l.Clock.Now()
	doc.CurrentPossession.AcceptedAt = &now
	doc.CurrentPossession.UserName = userName
	doc.CurrentPossession.Status = PossessionAccepted
	// Transferor-supplied location/notes survive unless the recipient
	// explicitly overrides them.
	if location != "" {
		doc.CurrentPossession.Location = location
	}
	if notes != "" {
		doc.CurrentPossession.Notes = notes
	}

	doc.AwaitingAcceptance = false
	doc.TargetDestination = ""
	return nil
}

// Reject declines an outstanding transfer and reverts custody to the
// prior holder. The document is not Lost; the transfer simply failed.
//
// Preconditions: same as Accept, plus a non-empty reason.
func (l *PossessionLedger) Reject(doc *Document, userID UserID, reason string) error {
	if reason == "" {
		return ErrEmptyReason
	}
	if !doc.AwaitingAcceptance {
		return ErrNotAwaitingAcceptance
	}
	if doc.TargetDestination != userID {
		return &NotTargetRecipientError{DocumentID: doc.ID, ActorID: userID, TargetID: doc.TargetDestination}
	}
	if len(doc.PossessionHistory) == 0 {
		// A pending possession always has the sealed predecessor in
		// history; an empty history means corrupted state.
		return ErrNotAwaitingAcceptance
	}

	// Undo the transfer: the pending record is discarded and the sealed
	// predecessor becomes current again with its transfer fields cleared.
	last := len(doc.PossessionHistory) - 1
	restored := doc.PossessionHistory[last]
	doc.PossessionHistory = doc.PossessionHistory[:last]

	restored.TransferredAt = nil
	restored.TransferredTo = ""
	restored.Status = PossessionAccepted

	doc.CurrentPossession = restored
	doc.AwaitingAcceptance = false
	doc.TargetDestination = ""
	doc.Reviewer = restored.UserID
	return nil
}
