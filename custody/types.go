/*
Package custody provides the core document custody and approval engine.

PURPOSE:
  This package contains the domain types and algorithms for tracking who
  holds a document at any instant, how custody moves between users, and
  how every lifecycle action is recorded in an append-only workflow log.
  Possession (who physically or digitally holds the document) and review
  authority (who may approve or reject it) are modelled as two distinct
  relations and never conflated.

KEY CONCEPTS IN THIS FILE (types.go):
  - Document: The tracked unit with custody, workflow, and comments
  - PossessionRecord: A single custody assertion (who holds it, since when)
  - WorkflowStep: An immutable audit-log entry of a lifecycle action
  - Actor: The authenticated principal issuing a command
  - Role: The closed set of organizational roles

DESIGN PRINCIPLES:
  1. Immutability: Workflow steps and archived possession records are
     never modified after being written
  2. Single custody: Exactly one current PossessionRecord per document;
     superseded records are sealed and moved into history
  3. Two authorities: CurrentPossession.UserID governs who may transfer;
     Reviewer governs who may approve or reject
  4. Auditability: Every custody and status change produces a WorkflowStep

SEE ALSO:
  - ledger.go: Custody transitions (transfer, accept, reject)
  - workflow.go: Append-only workflow log with monotonic timestamps
  - registry.go: The single mutation gateway coordinating both
*/
package custody

import "time"

// =============================================================================
// IDENTIFIERS
// =============================================================================

type DocumentID string
type UserID string

// =============================================================================
// ROLES AND ACTORS
// =============================================================================

// Role is the closed set of organizational roles. Role is the sole
// permission key; see policy.go.
type Role string

const (
	RoleAdmin      Role = "Admin"
	RoleHR         Role = "HR"
	RoleAccounting Role = "Accounting"
	RoleAudit      Role = "Audit"
)

// User is a member of the organization known to the directory.
type User struct {
	ID    UserID
	Name  string
	Email string
	Role  Role
}

// Actor is the authenticated principal issuing a command. The engine
// trusts the supplied identity; credential verification happens upstream.
type Actor struct {
	ID   UserID
	Name string
	Role Role
}

// =============================================================================
// ENUMS
// =============================================================================

type DocumentType string

const (
	TypeInvoice  DocumentType = "Invoice"
	TypeContract DocumentType = "Contract"
	TypeReport   DocumentType = "Report"
	TypePolicy   DocumentType = "Policy"
	TypeForm     DocumentType = "Form"
	TypeOther    DocumentType = "Other"
)

type DocumentStatus string

const (
	StatusDraft    DocumentStatus = "Draft"
	StatusPending  DocumentStatus = "Pending"
	StatusInReview DocumentStatus = "In Review"
	StatusApproved DocumentStatus = "Approved"
	StatusRejected DocumentStatus = "Rejected"
	StatusArchived DocumentStatus = "Archived"
)

// IsTerminal reports whether no further review action is possible.
func (s DocumentStatus) IsTerminal() bool {
	return s == StatusApproved || s == StatusRejected || s == StatusArchived
}

type Priority string

const (
	PriorityLow      Priority = "Low"
	PriorityMedium   Priority = "Medium"
	PriorityHigh     Priority = "High"
	PriorityCritical Priority = "Critical"
)

// PossessionType is the medium the document exists in.
type PossessionType string

const (
	PossessionDigital  PossessionType = "Digital"
	PossessionPhysical PossessionType = "Physical"
)

// PossessionStatus is the state of a single PossessionRecord.
type PossessionStatus string

const (
	// PossessionPending: a transfer is outstanding, the recipient has
	// not yet confirmed receipt.
	PossessionPending PossessionStatus = "Pending"

	// PossessionAccepted: the holder has confirmed receipt. Only an
	// Accepted record authorizes a further transfer.
	PossessionAccepted PossessionStatus = "Accepted"

	// PossessionTransferred: sealed; the record was superseded by a
	// transfer and lives in history.
	PossessionTransferred PossessionStatus = "Transferred"

	// PossessionLost: sealed; custody could not be accounted for.
	PossessionLost PossessionStatus = "Lost"
)

type WorkflowAction string

const (
	ActionUpload   WorkflowAction = "Upload"
	ActionReview   WorkflowAction = "Review"
	ActionApprove  WorkflowAction = "Approve"
	ActionReject   WorkflowAction = "Reject"
	ActionComment  WorkflowAction = "Comment"
	ActionArchive  WorkflowAction = "Archive"
	ActionTransfer WorkflowAction = "Transfer"
	ActionAccept   WorkflowAction = "Accept"
	ActionReceive  WorkflowAction = "Receive"
)

type StepStatus string

const (
	StepPending  StepStatus = "Pending"
	StepComplete StepStatus = "Complete"
	StepSkipped  StepStatus = "Skipped"
)

type CommentType string

const (
	CommentPlain            CommentType = "Comment"
	CommentSystem           CommentType = "System"
	CommentStatusChange     CommentType = "Status Change"
	CommentPossessionChange CommentType = "Possession Change"
)

// =============================================================================
// POSSESSION RECORD - A single custody assertion
// =============================================================================

// PossessionRecord asserts that a user holds (or held) the document.
// A fresh record is created on every transfer; the outgoing record is
// sealed (Status set to Transferred, TransferredAt/TransferredTo filled)
// and archived into the document's history before being replaced.
type PossessionRecord struct {
	ID             string
	UserID         UserID
	UserName       string // resolved on acceptance; empty while Pending
	PossessionType PossessionType
	ReceivedAt     time.Time
	AcceptedAt     *time.Time
	TransferredAt  *time.Time
	TransferredTo  UserID
	Location       string // physical documents only
	Notes          string
	Status         PossessionStatus
}

// =============================================================================
// WORKFLOW STEP - Immutable audit-log entry
// =============================================================================

// WorkflowStep is an immutable fact about a lifecycle action. Once
// appended to a document's workflow it is never modified or removed.
type WorkflowStep struct {
	ID        string
	Role      Role
	UserID    UserID
	Action    WorkflowAction
	Status    StepStatus
	Timestamp time.Time
	Comment   string
}

// =============================================================================
// COMMENT
// =============================================================================

type Comment struct {
	ID        string
	UserID    UserID
	UserName  string
	Content   string
	Timestamp time.Time
	Type      CommentType
}

// =============================================================================
// DOCUMENT - The tracked unit
// =============================================================================

// Document tracks metadata and custody state; file bytes live elsewhere.
//
// INVARIANTS:
//   - AwaitingAcceptance == true iff CurrentPossession.Status == Pending
//     iff TargetDestination == CurrentPossession.UserID and is non-empty
//   - Exactly one current PossessionRecord; superseded records are sealed
//     into PossessionHistory, which is append-only
//   - Workflow is append-only with nondecreasing timestamps
//   - CurrentPossession.UserID decides who may transfer next;
//     Reviewer decides who may approve or reject
type Document struct {
	ID          DocumentID
	Title       string
	Description string
	Type        DocumentType
	Category    string
	Status      DocumentStatus
	Priority    Priority
	UploadedBy  UserID
	UploadedAt  time.Time

	// Reviewer is the user with authority over the next workflow action
	// (approve/reject). Distinct from the custodian.
	Reviewer UserID

	DueDate  *time.Time
	FileSize int64
	FileName string
	Tags     []string

	PossessionType    PossessionType
	CurrentPossession PossessionRecord
	PossessionHistory []PossessionRecord

	// TargetDestination is set iff a transfer is outstanding.
	TargetDestination  UserID
	AwaitingAcceptance bool

	Workflow []WorkflowStep
	Comments []Comment
}

// Clone returns a deep copy. The registry mutates a clone and persists it
// only on success, so callers never observe a half-applied command.
func (d *Document) Clone() *Document {
	c := *d
	c.Tags = append([]string(nil), d.Tags...)
	c.PossessionHistory = append([]PossessionRecord(nil), d.PossessionHistory...)
	c.Workflow = append([]WorkflowStep(nil), d.Workflow...)
	c.Comments = append([]Comment(nil), d.Comments...)
	if d.DueDate != nil {
		due := *d.DueDate
		c.DueDate = &due
	}
	return &c
}

// Custodian returns the user currently responsible for holding the
// document, whether or not they have accepted yet.
func (d *Document) Custodian() UserID {
	return d.CurrentPossession.UserID
}

// HeldBy reports whether userID holds the document with confirmed
// (Accepted) possession.
func (d *Document) HeldBy(userID UserID) bool {
	return !d.AwaitingAcceptance &&
		d.CurrentPossession.UserID == userID &&
		d.CurrentPossession.Status == PossessionAccepted
}

// IsOverdue reports whether the due date has passed without approval.
func (d *Document) IsOverdue(now time.Time) bool {
	return d.DueDate != nil && d.DueDate.Before(now) && d.Status != StatusApproved
}

// =============================================================================
// NOTIFICATION - Fire-and-forget delivery record
// =============================================================================

type NotificationType string

const (
	NotifyDocument   NotificationType = "Document"
	NotifySystem     NotificationType = "System"
	NotifyWarning    NotificationType = "Warning"
	NotifySuccess    NotificationType = "Success"
	NotifyPossession NotificationType = "Possession"
)

type Notification struct {
	ID             string
	UserID         UserID
	Title          string
	Message        string
	Type           NotificationType
	DocumentID     DocumentID
	Read           bool
	Timestamp      time.Time
	ActionRequired bool
}

// =============================================================================
// DASHBOARD STATS - Read-side summary for one user
// =============================================================================

type DashboardStats struct {
	TotalDocuments     int
	PendingReview      int
	ApprovedToday      int
	OverdueDocuments   int
	MyDocuments        int
	RecentActivity     int
	AwaitingAcceptance int
	InMyPossession     int
}
