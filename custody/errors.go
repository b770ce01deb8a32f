/*
errors.go - Centralized error types for the custody engine

PURPOSE:
  All error types in one place for consistency and discoverability.
  Every command returns one of these; the HTTP layer maps the class to a
  status code and never lets an expected condition surface as a panic.

ERROR CATEGORIES:
  1. Authorization - actor lacks authority for the operation
  2. StateConflict - operation invalid for the document's current state
  3. Validation    - malformed input
  4. NotFound      - unknown document or user identity
  5. Fatal         - identity collision; a caller/ID-generation bug

USAGE:
  Callers classify with the helpers:

    if custody.IsAuthorization(err) { ... 403 }
    if custody.IsStateConflict(err) { ... 409 }

SEE ALSO:
  - ledger.go: Returns the custody errors
  - registry.go: Returns the full taxonomy
*/
package custody

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrNotHolder is returned when someone other than the current
	// confirmed holder attempts a transfer.
	ErrNotHolder = errors.New("actor does not hold the document")

	// ErrAlreadyPending is returned when transferring a document whose
	// possession is already mid-transfer.
	ErrAlreadyPending = errors.New("a transfer is already outstanding")

	// ErrNotTargetRecipient is returned when accept/reject is attempted
	// by anyone other than the pending transfer's recipient.
	ErrNotTargetRecipient = errors.New("actor is not the transfer recipient")

	// ErrNotAwaitingAcceptance is returned when accept/reject is attempted
	// on a document with no outstanding transfer. A second accept on an
	// already-accepted record hits this; it signals a caller bug or a
	// duplicate request, so it is not a silent no-op.
	ErrNotAwaitingAcceptance = errors.New("document is not awaiting acceptance")

	// ErrNotReviewer is returned when a review action is attempted by
	// anyone other than the document's assigned reviewer.
	ErrNotReviewer = errors.New("actor is not the document's reviewer")

	// ErrNotReviewable is returned when reviewing a document whose status
	// is terminal (Approved, Rejected, Archived).
	ErrNotReviewable = errors.New("document status does not allow review")

	// ErrPermissionDenied is returned when the actor's role lacks the
	// capability required by the command.
	ErrPermissionDenied = errors.New("role lacks permission for this operation")

	// ErrEmptyReason is returned when rejecting possession without a reason.
	ErrEmptyReason = errors.New("rejection reason must not be empty")

	// ErrEmptyContent is returned when a comment is blank after trimming.
	ErrEmptyContent = errors.New("comment content must not be empty")

	// ErrEmptyTitle is returned when uploading without a title.
	ErrEmptyTitle = errors.New("document title must not be empty")

	// ErrInvalidEnum is returned for unknown type/priority/possession values.
	ErrInvalidEnum = errors.New("invalid enumeration value")

	// ErrSelfTransfer is returned when transferring a document to its
	// current holder.
	ErrSelfTransfer = errors.New("cannot transfer a document to its current holder")

	// ErrDocumentNotFound is returned for an unknown document identity.
	ErrDocumentNotFound = errors.New("document not found")

	// ErrUserNotFound is returned for an unknown user identity.
	ErrUserNotFound = errors.New("user not found")

	// ErrDuplicateID is returned on document identity collision at
	// creation. This indicates an ID-generation bug, not a user error,
	// and must never be silently swallowed.
	ErrDuplicateID = errors.New("document identity already exists")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// NotHolderError reports who actually holds the document.
type NotHolderError struct {
	DocumentID DocumentID
	ActorID    UserID
	HolderID   UserID
}

func (e *NotHolderError) Error() string {
	return fmt.Sprintf("document %s is held by %s, not %s", e.DocumentID, e.HolderID, e.ActorID)
}

func (e *NotHolderError) Unwrap() error { return ErrNotHolder }

// NotTargetRecipientError reports who the outstanding transfer targets.
type NotTargetRecipientError struct {
	DocumentID DocumentID
	ActorID    UserID
	TargetID   UserID
}

func (e *NotTargetRecipientError) Error() string {
	return fmt.Sprintf("document %s transfer targets %s, not %s", e.DocumentID, e.TargetID, e.ActorID)
}

func (e *NotTargetRecipientError) Unwrap() error { return ErrNotTargetRecipient }

// NotReviewerError reports who the assigned reviewer is.
type NotReviewerError struct {
	DocumentID DocumentID
	ActorID    UserID
	ReviewerID UserID
}

func (e *NotReviewerError) Error() string {
	return fmt.Sprintf("document %s review is assigned to %s, not %s", e.DocumentID, e.ReviewerID, e.ActorID)
}

func (e *NotReviewerError) Unwrap() error { return ErrNotReviewer }

// PermissionDeniedError reports the role and missing capability.
type PermissionDeniedError struct {
	Role       Role
	Capability string
}

func (e *PermissionDeniedError) Error() string {
	return fmt.Sprintf("role %s lacks capability %s", e.Role, e.Capability)
}

func (e *PermissionDeniedError) Unwrap() error { return ErrPermissionDenied }

// =============================================================================
// CLASSIFICATION HELPERS
// =============================================================================

// IsAuthorization reports whether the actor lacked authority.
func IsAuthorization(err error) bool {
	return errors.Is(err, ErrNotHolder) ||
		errors.Is(err, ErrNotTargetRecipient) ||
		errors.Is(err, ErrNotReviewer) ||
		errors.Is(err, ErrPermissionDenied)
}

// IsStateConflict reports whether the operation was invalid for the
// document's current state.
func IsStateConflict(err error) bool {
	return errors.Is(err, ErrAlreadyPending) ||
		errors.Is(err, ErrNotAwaitingAcceptance) ||
		errors.Is(err, ErrNotReviewable)
}

// IsValidation reports whether the input was malformed.
func IsValidation(err error) bool {
	return errors.Is(err, ErrEmptyReason) ||
		errors.Is(err, ErrEmptyContent) ||
		errors.Is(err, ErrEmptyTitle) ||
		errors.Is(err, ErrInvalidEnum) ||
		errors.Is(err, ErrSelfTransfer)
}

// IsNotFound reports whether the error indicates a missing identity.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrDocumentNotFound) ||
		errors.Is(err, ErrUserNotFound)
}

// IsFatal reports whether the error indicates a caller bug rather than
// a recoverable user-facing condition.
func IsFatal(err error) bool {
	return errors.Is(err, ErrDuplicateID)
}
