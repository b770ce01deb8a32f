package custody_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/custody-engine/custody"
	"github.com/warp/custody-engine/custody/store"
)

// =============================================================================
// TEST SETUP
// =============================================================================

var (
	alice = custody.Actor{ID: "alice", Name: "Alice", Role: custody.RoleAccounting}
	bob   = custody.Actor{ID: "bob", Name: "Bob", Role: custody.RoleHR}
	carol = custody.Actor{ID: "carol", Name: "Carol", Role: custody.RoleAdmin}
	dave  = custody.Actor{ID: "dave", Name: "Dave", Role: custody.RoleAudit}
)

type testEnv struct {
	reg   *custody.Registry
	docs  *store.MemoryDocuments
	notes *store.MemoryNotifications
	clock *stubClock
}

func newTestRegistry(t *testing.T) *testEnv {
	t.Helper()
	clock := &stubClock{now: testEpoch}
	docs := store.NewMemoryDocuments()
	notes := store.NewMemoryNotifications()
	users := store.NewMemoryUsers(
		custody.User{ID: "alice", Name: "Alice", Email: "alice@company.com", Role: custody.RoleAccounting},
		custody.User{ID: "bob", Name: "Bob", Email: "bob@company.com", Role: custody.RoleHR},
		custody.User{ID: "carol", Name: "Carol", Email: "carol@company.com", Role: custody.RoleAdmin},
		custody.User{ID: "dave", Name: "Dave", Email: "dave@company.com", Role: custody.RoleAudit},
	)
	reg := custody.NewRegistry(docs, notes, users, clock, &seqIDs{}, zerolog.Nop())
	return &testEnv{reg: reg, docs: docs, notes: notes, clock: clock}
}

func basicUpload() custody.UploadForm {
	return custody.UploadForm{
		Title:          "Q4 Financial Report",
		Description:    "Quarterly statements",
		Type:           custody.TypeReport,
		Category:       "Finance",
		Priority:       custody.PriorityHigh,
		PossessionType: custody.PossessionDigital,
	}
}

// =============================================================================
// UPLOAD
// =============================================================================

func TestRegistry_Upload_UploaderKeepsPossession(t *testing.T) {
	// GIVEN: An upload with no target recipient
	// THEN: The uploader holds confirmed possession and is the reviewer

	env := newTestRegistry(t)
	ctx := context.Background()

	doc, err := env.reg.Upload(ctx, alice, basicUpload())
	require.NoError(t, err)

	assert.Equal(t, custody.StatusPending, doc.Status)
	assert.Equal(t, custody.UserID("alice"), doc.UploadedBy)
	assert.Equal(t, custody.UserID("alice"), doc.Reviewer)
	assert.Equal(t, custody.UserID("alice"), doc.CurrentPossession.UserID)
	assert.Equal(t, custody.PossessionAccepted, doc.CurrentPossession.Status)
	assert.False(t, doc.AwaitingAcceptance)
	assert.Empty(t, doc.PossessionHistory)

	require.Len(t, doc.Workflow, 1)
	assert.Equal(t, custody.ActionUpload, doc.Workflow[0].Action)
	assert.Equal(t, "Document uploaded and in possession", doc.Workflow[0].Comment)

	// Persisted
	stored, err := env.docs.Get(ctx, doc.ID)
	require.NoError(t, err)
	require.NotNil(t, stored)
}

func TestRegistry_Upload_Defaults(t *testing.T) {
	env := newTestRegistry(t)

	form := basicUpload()
	form.Category = "Finance, quarterly , audit"
	doc, err := env.reg.Upload(context.Background(), alice, form)
	require.NoError(t, err)

	assert.Equal(t, int64(1024), doc.FileSize)
	assert.Equal(t, "Q4 Financial Report.pdf", doc.FileName)
	assert.Equal(t, []string{"Finance", "quarterly", "audit"}, doc.Tags)
}

func TestRegistry_Upload_WithTarget_ArrivesAwaitingAcceptance(t *testing.T) {
	// GIVEN: An upload that names a target recipient
	// THEN: The uploader's possession is already sealed into history and the
	//       document awaits the recipient, who gets a notification

	env := newTestRegistry(t)
	ctx := context.Background()

	form := basicUpload()
	form.TargetUserID = "bob"
	doc, err := env.reg.Upload(ctx, alice, form)
	require.NoError(t, err)

	assert.True(t, doc.AwaitingAcceptance)
	assert.Equal(t, custody.UserID("bob"), doc.TargetDestination)
	assert.Equal(t, custody.UserID("bob"), doc.Reviewer)
	assert.Equal(t, custody.PossessionPending, doc.CurrentPossession.Status)
	assert.Equal(t, custody.UserID("bob"), doc.CurrentPossession.UserID)

	require.Len(t, doc.PossessionHistory, 1)
	assert.Equal(t, custody.UserID("alice"), doc.PossessionHistory[0].UserID)
	assert.Equal(t, custody.PossessionTransferred, doc.PossessionHistory[0].Status)

	require.Len(t, doc.Workflow, 2)
	assert.Equal(t, custody.ActionUpload, doc.Workflow[0].Action)
	assert.Equal(t, custody.ActionTransfer, doc.Workflow[1].Action)

	notes, err := env.notes.ByUser(ctx, "bob")
	require.NoError(t, err)
	require.Len(t, notes, 1)
	assert.Equal(t, "New Document Received", notes[0].Title)
	assert.True(t, notes[0].ActionRequired)
	assert.Equal(t, doc.ID, notes[0].DocumentID)
}

func TestRegistry_Upload_Validation(t *testing.T) {
	env := newTestRegistry(t)
	ctx := context.Background()

	t.Run("empty title", func(t *testing.T) {
		form := basicUpload()
		form.Title = "   "
		_, err := env.reg.Upload(ctx, alice, form)
		assert.ErrorIs(t, err, custody.ErrEmptyTitle)
	})

	t.Run("unknown document type", func(t *testing.T) {
		form := basicUpload()
		form.Type = custody.DocumentType("Memo")
		_, err := env.reg.Upload(ctx, alice, form)
		assert.ErrorIs(t, err, custody.ErrInvalidEnum)
	})

	t.Run("unknown priority", func(t *testing.T) {
		form := basicUpload()
		form.Priority = custody.Priority("Urgent")
		_, err := env.reg.Upload(ctx, alice, form)
		assert.ErrorIs(t, err, custody.ErrInvalidEnum)
	})

	t.Run("unknown target user", func(t *testing.T) {
		form := basicUpload()
		form.TargetUserID = "nobody"
		_, err := env.reg.Upload(ctx, alice, form)
		assert.ErrorIs(t, err, custody.ErrUserNotFound)
	})
}

func TestRegistry_Upload_AuditDenied(t *testing.T) {
	// Audit observes; it cannot create documents.
	env := newTestRegistry(t)

	_, err := env.reg.Upload(context.Background(), dave, basicUpload())

	var pdErr *custody.PermissionDeniedError
	require.ErrorAs(t, err, &pdErr)
	assert.Equal(t, custody.RoleAudit, pdErr.Role)
	assert.True(t, custody.IsAuthorization(err))
}

func TestRegistry_Upload_UnknownRole_FallsBackToHR(t *testing.T) {
	// An unrecognized role gets the HR capability set, so uploading works.
	env := newTestRegistry(t)
	contractor := custody.Actor{ID: "alice", Name: "Alice", Role: custody.Role("Contractor")}

	doc, err := env.reg.Upload(context.Background(), contractor, basicUpload())
	require.NoError(t, err)
	assert.Equal(t, custody.UserID("alice"), doc.UploadedBy)
}

// =============================================================================
// CUSTODY COMMANDS
// =============================================================================

func TestRegistry_TransferAccept_FullFlow(t *testing.T) {
	// Scenario: Alice uploads, transfers to Bob, Bob accepts.
	env := newTestRegistry(t)
	ctx := context.Background()

	doc, err := env.reg.Upload(ctx, alice, basicUpload())
	require.NoError(t, err)

	env.clock.Advance(time.Hour)
	doc, err = env.reg.Transfer(ctx, alice, doc.ID, "bob", custody.PossessionDigital, "for HR filing", "")
	require.NoError(t, err)
	assert.True(t, doc.AwaitingAcceptance)

	env.clock.Advance(30 * time.Minute)
	doc, err = env.reg.AcceptPossession(ctx, bob, doc.ID, "", "")
	require.NoError(t, err)

	assert.Equal(t, custody.UserID("bob"), doc.CurrentPossession.UserID)
	assert.Equal(t, "Bob", doc.CurrentPossession.UserName)
	assert.Equal(t, custody.PossessionAccepted, doc.CurrentPossession.Status)
	assert.False(t, doc.AwaitingAcceptance)

	// Upload, Transfer, Accept
	require.Len(t, doc.Workflow, 3)
	assert.Equal(t, custody.ActionTransfer, doc.Workflow[1].Action)
	assert.Equal(t, "for HR filing", doc.Workflow[1].Comment)
	assert.Equal(t, custody.ActionAccept, doc.Workflow[2].Action)
	assert.Equal(t, "Accepted possession of digital document", doc.Workflow[2].Comment)

	notes, err := env.notes.ByUser(ctx, "bob")
	require.NoError(t, err)
	require.Len(t, notes, 1)
	assert.Equal(t, "Document Transfer Received", notes[0].Title)
}

func TestRegistry_Transfer_UnknownRecipient_Rejected(t *testing.T) {
	env := newTestRegistry(t)
	ctx := context.Background()

	doc, err := env.reg.Upload(ctx, alice, basicUpload())
	require.NoError(t, err)

	_, err = env.reg.Transfer(ctx, alice, doc.ID, "nobody", custody.PossessionDigital, "", "")
	assert.ErrorIs(t, err, custody.ErrUserNotFound)
}

func TestRegistry_Transfer_UnknownDocument_Rejected(t *testing.T) {
	env := newTestRegistry(t)

	_, err := env.reg.Transfer(context.Background(), alice, "missing", "bob", custody.PossessionDigital, "", "")
	assert.ErrorIs(t, err, custody.ErrDocumentNotFound)
}

func TestRegistry_Transfer_FailureLeavesStoreUntouched(t *testing.T) {
	// GIVEN: Alice's document in her confirmed possession
	// WHEN: Carol, who does not hold it, tries to transfer it
	// THEN: The command fails and the stored document is byte-for-byte unchanged

	env := newTestRegistry(t)
	ctx := context.Background()

	doc, err := env.reg.Upload(ctx, alice, basicUpload())
	require.NoError(t, err)
	before, err := env.docs.Get(ctx, doc.ID)
	require.NoError(t, err)

	_, err = env.reg.Transfer(ctx, carol, doc.ID, "bob", custody.PossessionDigital, "", "")
	var nhErr *custody.NotHolderError
	require.ErrorAs(t, err, &nhErr)

	after, err := env.docs.Get(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, before, after, "failed command must not mutate stored state")

	// And no stray notification
	notes, err := env.notes.ByUser(ctx, "bob")
	require.NoError(t, err)
	assert.Empty(t, notes)
}

func TestRegistry_RejectPossession_RevertsAndLogs(t *testing.T) {
	// Scenario: Bob declines a transfer; custody reverts to Alice and the
	// declined receipt lands in the audit trail with the reason.
	env := newTestRegistry(t)
	ctx := context.Background()

	doc, err := env.reg.Upload(ctx, alice, basicUpload())
	require.NoError(t, err)
	doc, err = env.reg.Transfer(ctx, alice, doc.ID, "bob", custody.PossessionDigital, "", "")
	require.NoError(t, err)

	doc, err = env.reg.RejectPossession(ctx, bob, doc.ID, "wrong department")
	require.NoError(t, err)

	assert.Equal(t, custody.UserID("alice"), doc.CurrentPossession.UserID)
	assert.Equal(t, custody.PossessionAccepted, doc.CurrentPossession.Status)
	assert.Equal(t, custody.UserID("alice"), doc.Reviewer)
	assert.False(t, doc.AwaitingAcceptance)

	last := doc.Workflow[len(doc.Workflow)-1]
	assert.Equal(t, custody.ActionReceive, last.Action)
	assert.Equal(t, custody.StepSkipped, last.Status)
	assert.Equal(t, "wrong department", last.Comment)

	// A declined receipt is not a review rejection
	assert.NotEqual(t, custody.StatusRejected, doc.Status)
	assert.Equal(t, custody.StatusPending, custody.DeriveStatus(doc))
}

func TestRegistry_RejectPossession_RequiresReason(t *testing.T) {
	env := newTestRegistry(t)
	ctx := context.Background()

	doc, err := env.reg.Upload(ctx, alice, basicUpload())
	require.NoError(t, err)
	_, err = env.reg.Transfer(ctx, alice, doc.ID, "bob", custody.PossessionDigital, "", "")
	require.NoError(t, err)

	_, err = env.reg.RejectPossession(ctx, bob, doc.ID, "")
	assert.ErrorIs(t, err, custody.ErrEmptyReason)

	// Transfer still outstanding
	stored, err := env.reg.Get(ctx, doc.ID)
	require.NoError(t, err)
	assert.True(t, stored.AwaitingAcceptance)
}

// =============================================================================
// REVIEW
// =============================================================================

func TestRegistry_Review_ApproveByReviewer(t *testing.T) {
	// Scenario: Alice uploads straight to Bob, Bob accepts and approves.
	env := newTestRegistry(t)
	ctx := context.Background()

	form := basicUpload()
	form.TargetUserID = "bob"
	doc, err := env.reg.Upload(ctx, alice, form)
	require.NoError(t, err)
	doc, err = env.reg.AcceptPossession(ctx, bob, doc.ID, "", "")
	require.NoError(t, err)
	require.Equal(t, custody.UserID("bob"), doc.Reviewer)

	doc, err = env.reg.Review(ctx, bob, doc.ID, custody.VerdictApprove, "")
	require.NoError(t, err)

	assert.Equal(t, custody.StatusApproved, doc.Status)
	last := doc.Workflow[len(doc.Workflow)-1]
	assert.Equal(t, custody.ActionApprove, last.Action)
	assert.Equal(t, "Document approved", last.Comment)
	assert.Equal(t, custody.StatusApproved, custody.DeriveStatus(doc))
}

func TestRegistry_Review_RejectWithComment(t *testing.T) {
	env := newTestRegistry(t)
	ctx := context.Background()

	doc, err := env.reg.Upload(ctx, alice, basicUpload())
	require.NoError(t, err)

	// The uploader is the reviewer until a transfer reassigns it.
	doc, err = env.reg.Review(ctx, alice, doc.ID, custody.VerdictReject, "figures do not reconcile")
	require.NoError(t, err)

	assert.Equal(t, custody.StatusRejected, doc.Status)
	last := doc.Workflow[len(doc.Workflow)-1]
	assert.Equal(t, custody.ActionReject, last.Action)
	assert.Equal(t, "figures do not reconcile", last.Comment)
}

func TestRegistry_Review_NotReviewer_Rejected(t *testing.T) {
	// Holding canApprove is not enough; the actor must be the assigned reviewer.
	env := newTestRegistry(t)
	ctx := context.Background()

	doc, err := env.reg.Upload(ctx, alice, basicUpload())
	require.NoError(t, err)

	_, err = env.reg.Review(ctx, carol, doc.ID, custody.VerdictApprove, "")

	var nrErr *custody.NotReviewerError
	require.ErrorAs(t, err, &nrErr)
	assert.Equal(t, custody.UserID("alice"), nrErr.ReviewerID)

	stored, err := env.reg.Get(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, custody.StatusPending, stored.Status, "verdict must not stick")
}

func TestRegistry_Review_AuditDenied(t *testing.T) {
	env := newTestRegistry(t)
	ctx := context.Background()

	doc, err := env.reg.Upload(ctx, alice, basicUpload())
	require.NoError(t, err)

	_, err = env.reg.Review(ctx, dave, doc.ID, custody.VerdictApprove, "")
	assert.ErrorIs(t, err, custody.ErrPermissionDenied)
}

func TestRegistry_Review_TerminalStatus_Conflicts(t *testing.T) {
	env := newTestRegistry(t)
	ctx := context.Background()

	doc, err := env.reg.Upload(ctx, alice, basicUpload())
	require.NoError(t, err)
	_, err = env.reg.Review(ctx, alice, doc.ID, custody.VerdictApprove, "")
	require.NoError(t, err)

	_, err = env.reg.Review(ctx, alice, doc.ID, custody.VerdictApprove, "")
	assert.ErrorIs(t, err, custody.ErrNotReviewable)
	assert.True(t, custody.IsStateConflict(err))
}

func TestRegistry_Review_UnknownVerdict_Rejected(t *testing.T) {
	env := newTestRegistry(t)
	ctx := context.Background()

	doc, err := env.reg.Upload(ctx, alice, basicUpload())
	require.NoError(t, err)

	_, err = env.reg.Review(ctx, alice, doc.ID, custody.ReviewVerdict("escalate"), "")
	assert.ErrorIs(t, err, custody.ErrInvalidEnum)
}

func TestRegistry_Archive(t *testing.T) {
	env := newTestRegistry(t)
	ctx := context.Background()

	doc, err := env.reg.Upload(ctx, alice, basicUpload())
	require.NoError(t, err)

	doc, err = env.reg.Archive(ctx, alice, doc.ID, "")
	require.NoError(t, err)
	assert.Equal(t, custody.StatusArchived, doc.Status)
	last := doc.Workflow[len(doc.Workflow)-1]
	assert.Equal(t, custody.ActionArchive, last.Action)
	assert.Equal(t, "Document archived", last.Comment)

	_, err = env.reg.Archive(ctx, alice, doc.ID, "")
	assert.ErrorIs(t, err, custody.ErrNotReviewable)
}

// =============================================================================
// COMMENTS
// =============================================================================

func TestRegistry_AddComment(t *testing.T) {
	env := newTestRegistry(t)
	ctx := context.Background()

	doc, err := env.reg.Upload(ctx, alice, basicUpload())
	require.NoError(t, err)
	wfLen := len(doc.Workflow)

	doc, err = env.reg.AddComment(ctx, bob, doc.ID, "  looks complete to me  ")
	require.NoError(t, err)

	require.Len(t, doc.Comments, 1)
	assert.Equal(t, "looks complete to me", doc.Comments[0].Content)
	assert.Equal(t, "Bob", doc.Comments[0].UserName)
	assert.Equal(t, custody.CommentPlain, doc.Comments[0].Type)
	assert.Len(t, doc.Workflow, wfLen, "comments never touch the workflow")
}

func TestRegistry_AddComment_Blank_Rejected(t *testing.T) {
	env := newTestRegistry(t)
	ctx := context.Background()

	doc, err := env.reg.Upload(ctx, alice, basicUpload())
	require.NoError(t, err)

	_, err = env.reg.AddComment(ctx, bob, doc.ID, "   ")
	assert.ErrorIs(t, err, custody.ErrEmptyContent)
}

// =============================================================================
// QUERIES
// =============================================================================

func TestRegistry_Queries(t *testing.T) {
	env := newTestRegistry(t)
	ctx := context.Background()

	// doc1: held by alice, overdue
	past := testEpoch.Add(-24 * time.Hour)
	form1 := basicUpload()
	form1.Title = "Overdue Invoice"
	form1.DueDate = &past
	doc1, err := env.reg.Upload(ctx, alice, form1)
	require.NoError(t, err)

	// doc2: in transfer to bob
	form2 := basicUpload()
	form2.Title = "Handbook"
	form2.TargetUserID = "bob"
	doc2, err := env.reg.Upload(ctx, alice, form2)
	require.NoError(t, err)

	// doc3: approved
	doc3, err := env.reg.Upload(ctx, carol, basicUpload())
	require.NoError(t, err)
	_, err = env.reg.Review(ctx, carol, doc3.ID, custody.VerdictApprove, "")
	require.NoError(t, err)

	awaiting, err := env.reg.AwaitingAcceptance(ctx, "bob")
	require.NoError(t, err)
	require.Len(t, awaiting, 1)
	assert.Equal(t, doc2.ID, awaiting[0].ID)

	held, err := env.reg.InPossession(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, held, 1)
	assert.Equal(t, doc1.ID, held[0].ID)

	toReview, err := env.reg.ByReviewer(ctx, "bob")
	require.NoError(t, err)
	require.Len(t, toReview, 1)
	assert.Equal(t, doc2.ID, toReview[0].ID)

	approved, err := env.reg.ByStatus(ctx, custody.StatusApproved)
	require.NoError(t, err)
	require.Len(t, approved, 1)
	assert.Equal(t, doc3.ID, approved[0].ID)

	overdue, err := env.reg.Overdue(ctx)
	require.NoError(t, err)
	require.Len(t, overdue, 1)
	assert.Equal(t, doc1.ID, overdue[0].ID)
}

// =============================================================================
// NOTIFICATION DELIVERY
// =============================================================================

// failingNotes simulates a broken notification sink.
type failingNotes struct{}

func (failingNotes) Append(context.Context, custody.Notification) error {
	return errors.New("sink down")
}

func (failingNotes) ByUser(context.Context, custody.UserID) ([]custody.Notification, error) {
	return nil, nil
}

func (failingNotes) MarkRead(context.Context, string) error { return nil }

func TestRegistry_NotificationFailure_DoesNotFailCommand(t *testing.T) {
	// Delivery is fire-and-forget; the transfer must still commit.
	clock := &stubClock{now: testEpoch}
	docs := store.NewMemoryDocuments()
	users := store.NewMemoryUsers(
		custody.User{ID: "alice", Name: "Alice", Role: custody.RoleAccounting},
		custody.User{ID: "bob", Name: "Bob", Role: custody.RoleHR},
	)
	reg := custody.NewRegistry(docs, failingNotes{}, users, clock, &seqIDs{}, zerolog.Nop())
	ctx := context.Background()

	doc, err := reg.Upload(ctx, alice, basicUpload())
	require.NoError(t, err)

	doc, err = reg.Transfer(ctx, alice, doc.ID, "bob", custody.PossessionDigital, "", "")
	require.NoError(t, err)
	assert.True(t, doc.AwaitingAcceptance)

	stored, err := docs.Get(ctx, doc.ID)
	require.NoError(t, err)
	assert.True(t, stored.AwaitingAcceptance, "transfer committed despite sink failure")
}
