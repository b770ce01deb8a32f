/*
registry.go - Document registry: the single mutation gateway

PURPOSE:
  Every state-changing command enters here. The registry checks role
  permissions, delegates the custody-affecting part to the possession
  ledger, appends the matching workflow step, and persists the updated
  document - all under a per-document lock so no reader ever observes a
  half-applied transfer.

COMMAND FLOW:
  1. Resolve and validate input
  2. Check role capability (policy.go)
  3. Load the document, take its lock, clone it
  4. Apply ledger/workflow mutations to the clone
  5. Persist the clone; only then is the command visible

  Steps 1-4 can fail without any mutation: validate-then-apply, never
  apply-then-rollback.

CONCURRENCY:
  Commands against the same document identity are serialized by a keyed
  mutex held across validate+apply+persist. Commands against different
  documents proceed in parallel; there is no cross-document ordering.

NOTIFICATIONS:
  Upload-with-target and Transfer fire a notification at the recipient.
  Delivery is fire-and-forget: a sink failure is logged and the command
  still succeeds.

SEE ALSO:
  - ledger.go: Custody transition rules
  - workflow.go: Audit trail appends
  - policy.go: Role capability table
*/
package custody

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// =============================================================================
// REGISTRY
// =============================================================================

// Registry is the single mutation gateway over the document set.
type Registry struct {
	docs     DocumentStore
	notes    NotificationStore
	users    UserDirectory
	ledger   *PossessionLedger
	workflow *WorkflowLog
	clock    Clock
	ids      IDGenerator
	log      zerolog.Logger

	mu    sync.Mutex
	locks map[DocumentID]*sync.Mutex
}

// NewRegistry wires the registry with its ports. Clock and IDs are shared
// with the ledger and workflow log so all timestamps come from one source.
func NewRegistry(docs DocumentStore, notes NotificationStore, users UserDirectory, clock Clock, ids IDGenerator, log zerolog.Logger) *Registry {
	return &Registry{
		docs:     docs,
		notes:    notes,
		users:    users,
		ledger:   NewPossessionLedger(clock, ids),
		workflow: NewWorkflowLog(clock, ids),
		clock:    clock,
		ids:      ids,
		log:      log,
		locks:    make(map[DocumentID]*sync.Mutex),
	}
}

// lockFor returns the mutex serializing commands for one document.
func (r *Registry) lockFor(id DocumentID) *sync.Mutex {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.locks[id]
	if !ok {
		l = &sync.Mutex{}
		r.locks[id] = l
	}
	return l
}

// permissions resolves the capability set, logging the HR fallback for
// roles the policy does not recognize.
func (r *Registry) permissions(role Role) Permissions {
	p, known := PermissionsFor(role)
	if !known {
		r.log.Warn().Str("role", string(role)).Msg("unknown role, applying HR permission fallback")
	}
	return p
}

// =============================================================================
// UPLOAD
// =============================================================================

// UploadForm carries the attributes of a new document. TargetUserID, when
// set, makes the upload an upload-and-transfer: the document arrives
// already awaiting the target's acceptance.
type UploadForm struct {
	Title          string
	Description    string
	Type           DocumentType
	Category       string
	Priority       Priority
	DueDate        *time.Time
	FileName       string
	FileSize       int64
	PossessionType PossessionType
	Location       string
	TargetUserID   UserID
	TransferNotes  string
}

// Upload creates a document. Without a target the uploader keeps
// confirmed possession; with a target the uploader's possession is
// sealed into history and a Pending record awaits the recipient.
func (r *Registry) Upload(ctx context.Context, actor Actor, form UploadForm) (*Document, error) {
	if strings.TrimSpace(form.Title) == "" {
		return nil, ErrEmptyTitle
	}
	if err := validateUploadEnums(form); err != nil {
		return nil, err
	}
	perms := r.permissions(actor.Role)
	if !perms.CanUpload {
		return nil, &PermissionDeniedError{Role: actor.Role, Capability: "canUpload"}
	}
	if form.TargetUserID != "" {
		target, err := r.users.Get(ctx, form.TargetUserID)
		if err != nil {
			return nil, fmt.Errorf("resolve target user: %w", err)
		}
		if target == nil {
			return nil, ErrUserNotFound
		}
	}

	id := DocumentID(r.ids.NewID())
	existing, err := r.docs.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("check identity: %w", err)
	}
	if existing != nil {
		// ID allocator handed out a duplicate. This is a bug, not a
		// user error; surface it loudly.
		r.log.Error().Str("document_id", string(id)).Msg("document identity collision on upload")
		return nil, ErrDuplicateID
	}

	now := r.clock.Now()
	doc := &Document{
		ID:             id,
		Title:          form.Title,
		Description:    form.Description,
		Type:           form.Type,
		Category:       form.Category,
		Status:         StatusPending,
		Priority:       form.Priority,
		UploadedBy:     actor.ID,
		UploadedAt:     now,
		DueDate:        form.DueDate,
		FileSize:       form.FileSize,
		FileName:       form.FileName,
		Tags:           splitTags(form.Category),
		PossessionType: form.PossessionType,
	}
	if doc.FileSize == 0 {
		doc.FileSize = 1024
	}
	if doc.FileName == "" {
		doc.FileName = form.Title + ".pdf"
	}

	if form.TargetUserID == "" {
		// Uploader keeps confirmed possession.
		accepted := now
		doc.Reviewer = actor.ID
		doc.CurrentPossession = PossessionRecord{
			ID:             r.ids.NewID(),
			UserID:         actor.ID,
			UserName:       actor.Name,
			PossessionType: form.PossessionType,
			ReceivedAt:     now,
			AcceptedAt:     &accepted,
			Location:       form.Location,
			Notes:          form.TransferNotes,
			Status:         PossessionAccepted,
		}
		r.workflow.Append(doc, actor, ActionUpload, StepComplete, "Document uploaded and in possession")
	} else {
		// Upload-and-transfer: synthesize the uploader's short-lived
		// Accepted-then-Transferred record directly into history.
		accepted := now
		transferred := now
		doc.Reviewer = form.TargetUserID
		doc.TargetDestination = form.TargetUserID
		doc.AwaitingAcceptance = true
		doc.PossessionHistory = []PossessionRecord{{
			ID:             r.ids.NewID(),
			UserID:         actor.ID,
			UserName:       actor.Name,
			PossessionType: form.PossessionType,
			ReceivedAt:     now,
			AcceptedAt:     &accepted,
			TransferredAt:  &transferred,
			TransferredTo:  form.TargetUserID,
			Notes:          form.TransferNotes,
			Status:         PossessionTransferred,
		}}
		doc.CurrentPossession = PossessionRecord{
			ID:             r.ids.NewID(),
			UserID:         form.TargetUserID,
			UserName:       "",
			PossessionType: form.PossessionType,
			ReceivedAt:     now,
			Location:       form.Location,
			Notes:          form.TransferNotes,
			Status:         PossessionPending,
		}
		r.workflow.Append(doc, actor, ActionUpload, StepComplete, "Document uploaded and transferred to recipient")
		transferComment := form.TransferNotes
		if transferComment == "" {
			transferComment = fmt.Sprintf("Transferred %s document to recipient", strings.ToLower(string(form.PossessionType)))
		}
		r.workflow.Append(doc, actor, ActionTransfer, StepComplete, transferComment)
	}

	if err := r.docs.Upsert(ctx, doc); err != nil {
		return nil, fmt.Errorf("persist document: %w", err)
	}

	if form.TargetUserID != "" {
		r.notify(ctx, Notification{
			ID:             r.ids.NewID(),
			UserID:         form.TargetUserID,
			Title:          "New Document Received",
			Message:        fmt.Sprintf("%s has uploaded and transferred %q to you", actor.Name, doc.Title),
			Type:           NotifyPossession,
			DocumentID:     doc.ID,
			Timestamp:      r.clock.Now(),
			ActionRequired: true,
		})
	}
	return doc, nil
}

func validateUploadEnums(form UploadForm) error {
	switch form.Type {
	case TypeInvoice, TypeContract, TypeReport, TypePolicy, TypeForm, TypeOther:
	default:
		return fmt.Errorf("%w: document type %q", ErrInvalidEnum, form.Type)
	}
	switch form.Priority {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityCritical:
	default:
		return fmt.Errorf("%w: priority %q", ErrInvalidEnum, form.Priority)
	}
	switch form.PossessionType {
	case PossessionDigital, PossessionPhysical:
	default:
		return fmt.Errorf("%w: possession type %q", ErrInvalidEnum, form.PossessionType)
	}
	return nil
}

// splitTags derives the tag set from the free-text category.
func splitTags(category string) []string {
	var tags []string
	for _, t := range strings.Split(category, ",") {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}

// =============================================================================
// CUSTODY COMMANDS
// =============================================================================

// Transfer moves custody from the acting holder to toUserID, leaving the
// possession Pending until the recipient accepts.
func (r *Registry) Transfer(ctx context.Context, actor Actor, docID DocumentID, toUserID UserID, possessionType PossessionType, notes, location string) (*Document, error) {
	switch possessionType {
	case PossessionDigital, PossessionPhysical:
	default:
		return nil, fmt.Errorf("%w: possession type %q", ErrInvalidEnum, possessionType)
	}
	recipient, err := r.users.Get(ctx, toUserID)
	if err != nil {
		return nil, fmt.Errorf("resolve recipient: %w", err)
	}
	if recipient == nil {
		return nil, ErrUserNotFound
	}

	var title string
	doc, err := r.mutate(ctx, docID, func(doc *Document) error {
		if err := r.ledger.Transfer(doc, actor.ID, toUserID, possessionType, notes, location); err != nil {
			return err
		}
		comment := notes
		if comment == "" {
			comment = fmt.Sprintf("Transferred %s document to recipient", strings.ToLower(string(possessionType)))
		}
		r.workflow.Append(doc, actor, ActionTransfer, StepComplete, comment)
		title = doc.Title
		return nil
	})
	if err != nil {
		return nil, err
	}

	r.notify(ctx, Notification{
		ID:             r.ids.NewID(),
		UserID:         toUserID,
		Title:          "Document Transfer Received",
		Message:        fmt.Sprintf("%s has transferred %q to you", actor.Name, title),
		Type:           NotifyPossession,
		DocumentID:     docID,
		Timestamp:      r.clock.Now(),
		ActionRequired: true,
	})
	return doc, nil
}

// AcceptPossession confirms receipt of an outstanding transfer.
func (r *Registry) AcceptPossession(ctx context.Context, actor Actor, docID DocumentID, location, notes string) (*Document, error) {
	return r.mutate(ctx, docID, func(doc *Document) error {
		if err := r.ledger.Accept(doc, actor.ID, actor.Name, location, notes); err != nil {
			return err
		}
		comment := notes
		if comment == "" {
			comment = fmt.Sprintf("Accepted possession of %s document", strings.ToLower(string(doc.PossessionType)))
		}
		r.workflow.Append(doc, actor, ActionAccept, StepComplete, comment)
		return nil
	})
}

// RejectPossession declines an outstanding transfer; custody reverts to
// the prior holder. The declined receipt is logged as a Skipped Receive
// step so the review-verdict Reject action keeps its meaning.
func (r *Registry) RejectPossession(ctx context.Context, actor Actor, docID DocumentID, reason string) (*Document, error) {
	return r.mutate(ctx, docID, func(doc *Document) error {
		if err := r.ledger.Reject(doc, actor.ID, reason); err != nil {
			return err
		}
		r.workflow.Append(doc, actor, ActionReceive, StepSkipped, reason)
		return nil
	})
}

// =============================================================================
// REVIEW COMMANDS
// =============================================================================

// ReviewVerdict is the outcome of a review action.
type ReviewVerdict string

const (
	VerdictApprove ReviewVerdict = "approve"
	VerdictReject  ReviewVerdict = "reject"
)

// Review applies an approve/reject verdict. The actor must hold the
// canApprove capability AND be the document's assigned reviewer; the
// reviewer match is the one authority check that is never skipped.
func (r *Registry) Review(ctx context.Context, actor Actor, docID DocumentID, verdict ReviewVerdict, comment string) (*Document, error) {
	perms := r.permissions(actor.Role)
	if !perms.CanApprove {
		return nil, &PermissionDeniedError{Role: actor.Role, Capability: "canApprove"}
	}

	return r.mutate(ctx, docID, func(doc *Document) error {
		if doc.Status.IsTerminal() {
			return ErrNotReviewable
		}
		if doc.Reviewer != actor.ID {
			return &NotReviewerError{DocumentID: doc.ID, ActorID: actor.ID, ReviewerID: doc.Reviewer}
		}
		switch verdict {
		case VerdictApprove:
			doc.Status = StatusApproved
			if comment == "" {
				comment = "Document approved"
			}
			r.workflow.Append(doc, actor, ActionApprove, StepComplete, comment)
		case VerdictReject:
			doc.Status = StatusRejected
			if comment == "" {
				comment = "Document rejected"
			}
			r.workflow.Append(doc, actor, ActionReject, StepComplete, comment)
		default:
			return fmt.Errorf("%w: review verdict %q", ErrInvalidEnum, verdict)
		}
		return nil
	})
}

// Archive moves a document to its terminal Archived status. Requires the
// canApprove capability; already-archived documents conflict.
func (r *Registry) Archive(ctx context.Context, actor Actor, docID DocumentID, comment string) (*Document, error) {
	perms := r.permissions(actor.Role)
	if !perms.CanApprove {
		return nil, &PermissionDeniedError{Role: actor.Role, Capability: "canApprove"}
	}

	return r.mutate(ctx, docID, func(doc *Document) error {
		if doc.Status == StatusArchived {
			return ErrNotReviewable
		}
		doc.Status = StatusArchived
		if comment == "" {
			comment = "Document archived"
		}
		r.workflow.Append(doc, actor, ActionArchive, StepComplete, comment)
		return nil
	})
}

// =============================================================================
// COMMENTS
// =============================================================================

// AddComment appends to the comment thread. Comments never touch the
// workflow or possession state.
func (r *Registry) AddComment(ctx context.Context, actor Actor, docID DocumentID, content string) (*Document, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, ErrEmptyContent
	}
	return r.mutate(ctx, docID, func(doc *Document) error {
		doc.Comments = append(doc.Comments, Comment{
			ID:        r.ids.NewID(),
			UserID:    actor.ID,
			UserName:  actor.Name,
			Content:   content,
			Timestamp: r.clock.Now(),
			Type:      CommentPlain,
		})
		return nil
	})
}

// =============================================================================
// QUERIES (read-only, current snapshot)
// =============================================================================

// Get returns one document.
func (r *Registry) Get(ctx context.Context, id DocumentID) (*Document, error) {
	doc, err := r.docs.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, ErrDocumentNotFound
	}
	return doc, nil
}

// All returns every document.
func (r *Registry) All(ctx context.Context) ([]*Document, error) {
	return r.docs.GetAll(ctx)
}

// AwaitingAcceptance returns documents with an outstanding transfer
// targeting userID.
func (r *Registry) AwaitingAcceptance(ctx context.Context, userID UserID) ([]*Document, error) {
	return r.filter(ctx, func(d *Document) bool {
		return d.AwaitingAcceptance && d.TargetDestination == userID
	})
}

// InPossession returns documents held by userID with confirmed possession.
func (r *Registry) InPossession(ctx context.Context, userID UserID) ([]*Document, error) {
	return r.filter(ctx, func(d *Document) bool {
		return d.HeldBy(userID)
	})
}

// ByReviewer returns documents whose next review action belongs to userID.
func (r *Registry) ByReviewer(ctx context.Context, userID UserID) ([]*Document, error) {
	return r.filter(ctx, func(d *Document) bool {
		return d.Reviewer == userID
	})
}

// ByStatus returns documents with the given lifecycle status.
func (r *Registry) ByStatus(ctx context.Context, status DocumentStatus) ([]*Document, error) {
	return r.filter(ctx, func(d *Document) bool {
		return d.Status == status
	})
}

// Overdue returns unapproved documents whose due date has passed.
func (r *Registry) Overdue(ctx context.Context) ([]*Document, error) {
	now := r.clock.Now()
	return r.filter(ctx, func(d *Document) bool {
		return d.IsOverdue(now)
	})
}

func (r *Registry) filter(ctx context.Context, keep func(*Document) bool) ([]*Document, error) {
	all, err := r.docs.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	result := []*Document{}
	for _, d := range all {
		if keep(d) {
			result = append(result, d)
		}
	}
	return result, nil
}

// =============================================================================
// INTERNALS
// =============================================================================

// mutate runs fn on a clone of the document under its lock and persists
// the clone only when fn succeeds. On failure the stored document is
// untouched.
func (r *Registry) mutate(ctx context.Context, id DocumentID, fn func(*Document) error) (*Document, error) {
	lock := r.lockFor(id)
	lock.Lock()
	defer lock.Unlock()

	stored, err := r.docs.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load document: %w", err)
	}
	if stored == nil {
		return nil, ErrDocumentNotFound
	}

	doc := stored.Clone()
	if err := fn(doc); err != nil {
		return nil, err
	}
	if err := r.docs.Upsert(ctx, doc); err != nil {
		return nil, fmt.Errorf("persist document: %w", err)
	}
	return doc, nil
}

// notify is fire-and-forget: sink failures are logged, never returned.
func (r *Registry) notify(ctx context.Context, n Notification) {
	if r.notes == nil {
		return
	}
	if err := r.notes.Append(ctx, n); err != nil {
		r.log.Warn().Err(err).
			Str("recipient", string(n.UserID)).
			Str("document_id", string(n.DocumentID)).
			Msg("notification delivery failed")
	}
}
