/*
seed.go - Demo scenario loader

PURPOSE:
  Populates the stores with a realistic office document flow for demos
  and manual testing: four users covering every role and three documents
  in different custody states.

SCENARIO STATE:
  Document 1 (Q4 Financial Report):   accepted by Audit, under review
  Document 2 (Employee Handbook):     approved, held by Admin
  Document 3 (Vendor Contract):       physical transfer pending on HR

  Users get the fixed IDs 1-4 so demo requests can set X-User-ID
  directly:
    1 John Admin (Admin), 2 Sarah HR (HR),
    3 Mike Accounting (Accounting), 4 Lisa Audit (Audit)

NOTE:
  Seeding writes directly through the stores instead of replaying
  commands, so the scenario can include mid-flight states (a pending
  physical transfer, an in-progress review) with believable timestamps
  in the recent past.

SEE ALSO:
  - handlers.go: LoadScenario handler
  - cmd/server/main.go: seed-on-startup flag
*/
package api

import (
	"context"
	"time"

	"github.com/warp/custody-engine/custody"
)

// UserWriter is the write side of the user directory, satisfied by both
// the SQLite store and the in-memory directory.
type UserWriter interface {
	SaveUser(ctx context.Context, u custody.User) error
}

// Seeder loads the demo scenario into the stores.
type Seeder struct {
	Docs  custody.DocumentStore
	Users UserWriter
	Clock custody.Clock
}

// NewSeeder creates a seeder over the given stores.
func NewSeeder(docs custody.DocumentStore, users UserWriter, clock custody.Clock) *Seeder {
	return &Seeder{Docs: docs, Users: users, Clock: clock}
}

var seedUsers = []custody.User{
	{ID: "1", Name: "John Admin", Email: "admin@company.com", Role: custody.RoleAdmin},
	{ID: "2", Name: "Sarah HR", Email: "hr@company.com", Role: custody.RoleHR},
	{ID: "3", Name: "Mike Accounting", Email: "accounting@company.com", Role: custody.RoleAccounting},
	{ID: "4", Name: "Lisa Audit", Email: "audit@company.com", Role: custody.RoleAudit},
}

// Load writes the scenario users and documents. Idempotent: reloading
// overwrites the same fixed IDs.
func (s *Seeder) Load(ctx context.Context) error {
	for _, u := range seedUsers {
		if err := s.Users.SaveUser(ctx, u); err != nil {
			return err
		}
	}
	now := s.Clock.Now()
	for _, doc := range seedDocuments(now) {
		if err := s.Docs.Upsert(ctx, doc); err != nil {
			return err
		}
	}
	return nil
}

func ptr(t time.Time) *time.Time { return &t }

// seedDocuments builds the three demo documents with timestamps in the
// recent past relative to now, so dashboard stats show live-looking data.
func seedDocuments(now time.Time) []*custody.Document {
	var (
		d1Upload   = now.Add(-48 * time.Hour)
		d1Transfer = d1Upload.Add(time.Hour)
		d1Accept   = d1Transfer.Add(30 * time.Minute)
		d1Review   = d1Accept.Add(15 * time.Minute)

		d2Upload  = now.Add(-5 * 24 * time.Hour)
		d2Approve = d2Upload.Add(45 * time.Hour)

		d3Upload   = now.Add(-24 * time.Hour)
		d3Transfer = d3Upload.Add(30 * time.Minute)
	)

	return []*custody.Document{
		{
			ID:          "1",
			Title:       "Q4 Financial Report",
			Description: "Quarterly financial statements and analysis",
			Type:        custody.TypeReport,
			Category:    "Finance",
			Status:      custody.StatusInReview,
			Priority:    custody.PriorityHigh,
			UploadedBy:  "3",
			UploadedAt:  d1Upload,
			Reviewer:    "4",
			DueDate:     ptr(now.Add(72 * time.Hour)),
			FileSize:    2048576,
			FileName:    "q4-financial-report.pdf",
			Tags:        []string{"quarterly", "finance", "analysis"},

			PossessionType: custody.PossessionDigital,
			CurrentPossession: custody.PossessionRecord{
				ID:             "seed-1b",
				UserID:         "4",
				UserName:       "Lisa Audit",
				PossessionType: custody.PossessionDigital,
				ReceivedAt:     d1Transfer,
				AcceptedAt:     ptr(d1Accept),
				Status:         custody.PossessionAccepted,
			},
			PossessionHistory: []custody.PossessionRecord{
				{
					ID:             "seed-1a",
					UserID:         "3",
					UserName:       "Mike Accounting",
					PossessionType: custody.PossessionDigital,
					ReceivedAt:     d1Upload,
					AcceptedAt:     ptr(d1Upload),
					TransferredAt:  ptr(d1Transfer),
					TransferredTo:  "4",
					Status:         custody.PossessionTransferred,
				},
			},

			Workflow: []custody.WorkflowStep{
				{ID: "seed-w1", Role: custody.RoleAccounting, UserID: "3", Action: custody.ActionUpload, Status: custody.StepComplete, Timestamp: d1Upload, Comment: "Initial upload of Q4 financial report"},
				{ID: "seed-w2", Role: custody.RoleAccounting, UserID: "3", Action: custody.ActionTransfer, Status: custody.StepComplete, Timestamp: d1Transfer, Comment: "Transferred to Audit for review"},
				{ID: "seed-w3", Role: custody.RoleAudit, UserID: "4", Action: custody.ActionAccept, Status: custody.StepComplete, Timestamp: d1Accept, Comment: "Accepted possession for review"},
				{ID: "seed-w4", Role: custody.RoleAudit, UserID: "4", Action: custody.ActionReview, Status: custody.StepComplete, Timestamp: d1Review, Comment: "Started review of financial statements"},
			},
			Comments: []custody.Comment{
				{ID: "seed-c1", UserID: "3", UserName: "Mike Accounting", Content: "Initial Q4 report ready for review", Timestamp: d1Upload.Add(30 * time.Minute), Type: custody.CommentPlain},
			},
		},
		{
			ID:          "2",
			Title:       "Employee Handbook Update",
			Description: "Updated employee handbook with new policies",
			Type:        custody.TypePolicy,
			Category:    "HR",
			Status:      custody.StatusApproved,
			Priority:    custody.PriorityMedium,
			UploadedBy:  "2",
			UploadedAt:  d2Upload,
			Reviewer:    "1",
			DueDate:     ptr(now.Add(5 * 24 * time.Hour)),
			FileSize:    1024000,
			FileName:    "employee-handbook-v2.pdf",
			Tags:        []string{"policy", "handbook", "hr"},

			PossessionType: custody.PossessionDigital,
			CurrentPossession: custody.PossessionRecord{
				ID:             "seed-2b",
				UserID:         "1",
				UserName:       "John Admin",
				PossessionType: custody.PossessionDigital,
				ReceivedAt:     d2Approve.Add(-15 * time.Minute),
				AcceptedAt:     ptr(d2Approve),
				Status:         custody.PossessionAccepted,
			},
			PossessionHistory: []custody.PossessionRecord{
				{
					ID:             "seed-2a",
					UserID:         "2",
					UserName:       "Sarah HR",
					PossessionType: custody.PossessionDigital,
					ReceivedAt:     d2Upload,
					AcceptedAt:     ptr(d2Upload),
					TransferredAt:  ptr(d2Approve.Add(-15 * time.Minute)),
					TransferredTo:  "1",
					Status:         custody.PossessionTransferred,
				},
			},

			Workflow: []custody.WorkflowStep{
				{ID: "seed-w5", Role: custody.RoleHR, UserID: "2", Action: custody.ActionUpload, Status: custody.StepComplete, Timestamp: d2Upload, Comment: "Updated handbook with new remote work policies"},
				{ID: "seed-w6", Role: custody.RoleAdmin, UserID: "1", Action: custody.ActionApprove, Status: custody.StepComplete, Timestamp: d2Approve, Comment: "Approved - ready for distribution"},
			},
			Comments: []custody.Comment{
				{ID: "seed-c2", UserID: "2", UserName: "Sarah HR", Content: "Updated with latest remote work policies", Timestamp: d2Upload.Add(30 * time.Minute), Type: custody.CommentPlain},
			},
		},
		{
			ID:          "3",
			Title:       "Vendor Contract - Tech Solutions",
			Description: "Annual contract with Tech Solutions Inc.",
			Type:        custody.TypeContract,
			Category:    "Legal",
			Status:      custody.StatusPending,
			Priority:    custody.PriorityCritical,
			UploadedBy:  "1",
			UploadedAt:  d3Upload,
			Reviewer:    "2",
			DueDate:     ptr(now.Add(-2 * time.Hour)),
			FileSize:    512000,
			FileName:    "tech-solutions-contract.pdf",
			Tags:        []string{"contract", "vendor", "technology"},

			PossessionType: custody.PossessionPhysical,
			CurrentPossession: custody.PossessionRecord{
				ID:             "seed-3b",
				UserID:         "2",
				PossessionType: custody.PossessionPhysical,
				ReceivedAt:     d3Transfer,
				Status:         custody.PossessionPending,
			},
			PossessionHistory: []custody.PossessionRecord{
				{
					ID:             "seed-3a",
					UserID:         "1",
					UserName:       "John Admin",
					PossessionType: custody.PossessionPhysical,
					ReceivedAt:     d3Upload,
					AcceptedAt:     ptr(d3Upload),
					TransferredAt:  ptr(d3Transfer),
					TransferredTo:  "2",
					Location:       "Admin Office - Desk",
					Status:         custody.PossessionTransferred,
				},
			},

			TargetDestination:  "2",
			AwaitingAcceptance: true,

			Workflow: []custody.WorkflowStep{
				{ID: "seed-w7", Role: custody.RoleAdmin, UserID: "1", Action: custody.ActionUpload, Status: custody.StepComplete, Timestamp: d3Upload, Comment: "Contract ready for HR review"},
				{ID: "seed-w8", Role: custody.RoleAdmin, UserID: "1", Action: custody.ActionTransfer, Status: custody.StepComplete, Timestamp: d3Transfer, Comment: "Physical document sent to HR office"},
				{ID: "seed-w9", Role: custody.RoleHR, UserID: "2", Action: custody.ActionReceive, Status: custody.StepPending, Timestamp: d3Transfer, Comment: "Awaiting acceptance of physical document"},
			},
			Comments: []custody.Comment{},
		},
	}
}
