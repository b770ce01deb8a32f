/*
stats.go - Dashboard statistics

PURPOSE:
  A pure read-side reducer over the current document snapshot for one
  user. No caching, no side effects: every call recomputes from the
  store, which is fine at this dataset size. If the document set grows,
  incremental counters are an acceptable optimization so long as the
  semantics below are preserved exactly.

SEMANTICS:
  TotalDocuments:     every document in the system
  PendingReview:      documents whose reviewer is the user and whose
                      status is not Approved
  ApprovedToday:      Approved documents uploaded on the current
                      calendar day
  OverdueDocuments:   due date in the past and status != Approved
  MyDocuments:        documents uploaded by the user
  RecentActivity:     documents uploaded in the trailing 7 days
  AwaitingAcceptance: outstanding transfers targeting the user
  InMyPossession:     confirmed possession held by the user
*/
package custody

import (
	"context"
	"time"
)

// StatsAggregator derives dashboard metrics from the registry snapshot.
type StatsAggregator struct {
	Docs  DocumentStore
	Clock Clock
}

func NewStatsAggregator(docs DocumentStore, clock Clock) *StatsAggregator {
	return &StatsAggregator{Docs: docs, Clock: clock}
}

// ForUser computes the dashboard stats for one user.
func (s *StatsAggregator) ForUser(ctx context.Context, userID UserID) (DashboardStats, error) {
	docs, err := s.Docs.GetAll(ctx)
	if err != nil {
		return DashboardStats{}, err
	}

	now := s.Clock.Now()
	weekAgo := now.Add(-7 * 24 * time.Hour)

	var stats DashboardStats
	stats.TotalDocuments = len(docs)
	for _, d := range docs {
		if d.Reviewer == userID && d.Status != StatusApproved {
			stats.PendingReview++
		}
		if d.Status == StatusApproved && sameCalendarDay(d.UploadedAt, now) {
			stats.ApprovedToday++
		}
		if d.IsOverdue(now) {
			stats.OverdueDocuments++
		}
		if d.UploadedBy == userID {
			stats.MyDocuments++
		}
		if !d.UploadedAt.Before(weekAgo) {
			stats.RecentActivity++
		}
		if d.AwaitingAcceptance && d.TargetDestination == userID {
			stats.AwaitingAcceptance++
		}
		if d.HeldBy(userID) {
			stats.InMyPossession++
		}
	}
	return stats, nil
}

func sameCalendarDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
