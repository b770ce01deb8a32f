package custody_test

import (
	"fmt"
	"time"

	"github.com/warp/custody-engine/custody"
)

// =============================================================================
// TEST DOUBLES
// =============================================================================

// stubClock is a settable clock so tests control every timestamp.
type stubClock struct {
	now time.Time
}

func (c *stubClock) Now() time.Time { return c.now }

func (c *stubClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

// seqIDs hands out deterministic IDs (id-1, id-2, ...).
type seqIDs struct {
	n int
}

func (g *seqIDs) NewID() string {
	g.n++
	return fmt.Sprintf("id-%d", g.n)
}

var testEpoch = time.Date(2025, time.June, 2, 9, 0, 0, 0, time.UTC)

// heldDocument builds a document in confirmed possession of the holder,
// the state every custody transition starts from.
func heldDocument(id custody.DocumentID, holder custody.UserID, holderName string) *custody.Document {
	accepted := testEpoch
	return &custody.Document{
		ID:         id,
		Title:      "Vendor Contract",
		Type:       custody.TypeContract,
		Category:   "Legal",
		Status:     custody.StatusPending,
		Priority:   custody.PriorityMedium,
		UploadedBy: holder,
		UploadedAt: testEpoch,
		Reviewer:   holder,

		PossessionType: custody.PossessionDigital,
		CurrentPossession: custody.PossessionRecord{
			ID:             "pos-0",
			UserID:         holder,
			UserName:       holderName,
			PossessionType: custody.PossessionDigital,
			ReceivedAt:     testEpoch,
			AcceptedAt:     &accepted,
			Status:         custody.PossessionAccepted,
		},
		Workflow: []custody.WorkflowStep{
			{ID: "wf-0", UserID: holder, Action: custody.ActionUpload, Status: custody.StepComplete, Timestamp: testEpoch},
		},
	}
}
