package sqlite_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/custody-engine/custody"
	"github.com/warp/custody-engine/store/sqlite"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func newTestStore(t *testing.T) *sqlite.Store {
	t.Helper()
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func sampleDocument() *custody.Document {
	uploaded := time.Date(2025, time.June, 2, 9, 0, 0, 0, time.UTC)
	accepted := uploaded.Add(30 * time.Minute)
	transferred := uploaded.Add(time.Hour)
	due := uploaded.Add(72 * time.Hour)

	return &custody.Document{
		ID:          "doc-1",
		Title:       "Q4 Financial Report",
		Description: "Quarterly statements",
		Type:        custody.TypeReport,
		Category:    "Finance",
		Status:      custody.StatusPending,
		Priority:    custody.PriorityHigh,
		UploadedBy:  "alice",
		UploadedAt:  uploaded,
		Reviewer:    "bob",
		DueDate:     &due,
		FileSize:    2048,
		FileName:    "q4.pdf",
		Tags:        []string{"quarterly", "finance"},

		PossessionType: custody.PossessionPhysical,
		CurrentPossession: custody.PossessionRecord{
			ID:             "pos-2",
			UserID:         "bob",
			PossessionType: custody.PossessionPhysical,
			ReceivedAt:     transferred,
			Location:       "HR office",
			Status:         custody.PossessionPending,
		},
		PossessionHistory: []custody.PossessionRecord{
			{
				ID:             "pos-1",
				UserID:         "alice",
				UserName:       "Alice",
				PossessionType: custody.PossessionPhysical,
				ReceivedAt:     uploaded,
				AcceptedAt:     &accepted,
				TransferredAt:  &transferred,
				TransferredTo:  "bob",
				Status:         custody.PossessionTransferred,
			},
		},

		TargetDestination:  "bob",
		AwaitingAcceptance: true,

		Workflow: []custody.WorkflowStep{
			{ID: "wf-1", Role: custody.RoleAccounting, UserID: "alice", Action: custody.ActionUpload, Status: custody.StepComplete, Timestamp: uploaded, Comment: "initial upload"},
			{ID: "wf-2", Role: custody.RoleAccounting, UserID: "alice", Action: custody.ActionTransfer, Status: custody.StepComplete, Timestamp: transferred},
		},
		Comments: []custody.Comment{
			{ID: "c-1", UserID: "alice", UserName: "Alice", Content: "ready for review", Timestamp: accepted, Type: custody.CommentPlain},
		},
	}
}

// =============================================================================
// DOCUMENTS
// =============================================================================

func TestSQLite_Document_RoundTrip(t *testing.T) {
	// The full nested document state must survive a write and read.
	store := newTestStore(t)
	ctx := context.Background()

	doc := sampleDocument()
	require.NoError(t, store.Upsert(ctx, doc))

	got, err := store.Get(ctx, doc.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, doc, got)
}

func TestSQLite_Get_UnknownID_ReturnsNil(t *testing.T) {
	store := newTestStore(t)

	got, err := store.Get(context.Background(), "missing")
	require.NoError(t, err)
	assert.Nil(t, got, "unknown identity is nil, nil - not an error")
}

func TestSQLite_Upsert_UpdatesExistingRow(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	doc := sampleDocument()
	require.NoError(t, store.Upsert(ctx, doc))

	// Simulate acceptance: status flips to confirmed, transfer flags clear
	doc.AwaitingAcceptance = false
	doc.TargetDestination = ""
	accepted := doc.CurrentPossession.ReceivedAt.Add(15 * time.Minute)
	doc.CurrentPossession.Status = custody.PossessionAccepted
	doc.CurrentPossession.AcceptedAt = &accepted
	doc.CurrentPossession.UserName = "Bob"
	require.NoError(t, store.Upsert(ctx, doc))

	got, err := store.Get(ctx, doc.ID)
	require.NoError(t, err)
	assert.False(t, got.AwaitingAcceptance)
	assert.Empty(t, got.TargetDestination)
	assert.Equal(t, custody.PossessionAccepted, got.CurrentPossession.Status)
	assert.Equal(t, "Bob", got.CurrentPossession.UserName)
}

func TestSQLite_GetAll_OrderedByUploadTime(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	later := sampleDocument()
	later.ID = "doc-2"
	later.UploadedAt = later.UploadedAt.Add(time.Hour)
	require.NoError(t, store.Upsert(ctx, later))

	earlier := sampleDocument()
	require.NoError(t, store.Upsert(ctx, earlier))

	docs, err := store.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, custody.DocumentID("doc-1"), docs[0].ID)
	assert.Equal(t, custody.DocumentID("doc-2"), docs[1].ID)
}

func TestSQLite_Document_NilOptionalsSurvive(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	doc := sampleDocument()
	doc.DueDate = nil
	doc.TargetDestination = ""
	doc.AwaitingAcceptance = false
	doc.Comments = nil
	require.NoError(t, store.Upsert(ctx, doc))

	got, err := store.Get(ctx, doc.ID)
	require.NoError(t, err)
	assert.Nil(t, got.DueDate)
	assert.Empty(t, got.TargetDestination)
	assert.Nil(t, got.Comments)
}

// =============================================================================
// NOTIFICATIONS
// =============================================================================

func TestSQLite_Notifications_ByUserNewestFirst(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	base := time.Date(2025, time.June, 2, 9, 0, 0, 0, time.UTC)

	for i, ts := range []time.Time{base, base.Add(time.Hour), base.Add(2 * time.Hour)} {
		require.NoError(t, store.Append(ctx, custody.Notification{
			ID:         string(rune('a' + i)),
			UserID:     "bob",
			Title:      "Document Transfer Received",
			Message:    "incoming",
			Type:       custody.NotifyPossession,
			DocumentID: "doc-1",
			Timestamp:  ts,
		}))
	}
	// Another user's notification stays invisible
	require.NoError(t, store.Append(ctx, custody.Notification{
		ID: "z", UserID: "carol", Title: "t", Message: "m",
		Type: custody.NotifySystem, Timestamp: base,
	}))

	notes, err := store.ByUser(ctx, "bob")
	require.NoError(t, err)
	require.Len(t, notes, 3)
	assert.Equal(t, "c", notes[0].ID, "newest first")
	assert.Equal(t, "a", notes[2].ID)
}

func TestSQLite_Notifications_MarkRead(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Append(ctx, custody.Notification{
		ID: "n-1", UserID: "bob", Title: "t", Message: "m",
		Type: custody.NotifyDocument, Timestamp: time.Now().UTC(),
	}))

	require.NoError(t, store.MarkRead(ctx, "n-1"))
	notes, err := store.ByUser(ctx, "bob")
	require.NoError(t, err)
	require.Len(t, notes, 1)
	assert.True(t, notes[0].Read)

	// Unknown ID is a no-op, not an error
	assert.NoError(t, store.MarkRead(ctx, "missing"))
}

// =============================================================================
// USER DIRECTORY
// =============================================================================

func TestSQLite_Users_RoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	u := custody.User{ID: "alice", Name: "Alice", Email: "alice@company.com", Role: custody.RoleAccounting}
	require.NoError(t, store.SaveUser(ctx, u))

	dir := sqlite.Directory{Store: store}
	got, err := dir.Get(ctx, "alice")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, u, *got)

	missing, err := dir.Get(ctx, "nobody")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestSQLite_Users_SaveIsUpsert(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveUser(ctx, custody.User{ID: "alice", Name: "Alice", Role: custody.RoleHR}))
	require.NoError(t, store.SaveUser(ctx, custody.User{ID: "alice", Name: "Alice A.", Role: custody.RoleAdmin}))

	dir := sqlite.Directory{Store: store}
	users, err := dir.List(ctx)
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, "Alice A.", users[0].Name)
	assert.Equal(t, custody.RoleAdmin, users[0].Role)
}
