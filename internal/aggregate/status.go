// Package aggregate computes dashboard figures from a reconciled view. All
// functions are pure; records missing an optional field are left out of the
// bucket that needs it and nothing else.
package aggregate

import (
	"strings"

	"rcca-backend/internal/domain"
	"rcca-backend/internal/reconcile"
)

// Scope selects whose records a count covers. Admin scope sees everything.
type Scope struct {
	ActorID string
	Admin   bool
}

// StatusCounts is the per-status summary shown on the dashboard cards.
// Pending covers both Submitted and Resubmitted records.
type StatusCounts struct {
	Draft    int `json:"draft"`
	Pending  int `json:"pending"`
	Approved int `json:"approved"`
	Rejected int `json:"rejected"`
	Total    int `json:"total"`
}

// CountStatuses counts the live records of v visible to scope. Superseded
// rejections and shadowed duplicates never count.
func CountStatuses(v *reconcile.View, scope Scope) StatusCounts {
	var c StatusCounts
	if v == nil {
		return c
	}
	for _, r := range v.Live() {
		switch r.Status {
		case domain.RecordStatusDraft:
			if scope.Admin || ownsOrAssigned(r, scope.ActorID) {
				c.Draft++
			}
		case domain.RecordStatusSubmitted, domain.RecordStatusResubmitted:
			if scope.Admin || r.CreatorID() == scope.ActorID {
				c.Pending++
			}
		case domain.RecordStatusApproved:
			if scope.Admin || r.CreatorID() == scope.ActorID {
				c.Approved++
			}
		case domain.RecordStatusRejected:
			if scope.Admin || r.CreatorID() == scope.ActorID {
				c.Rejected++
			}
		}
	}
	c.Total = c.Draft + c.Pending + c.Approved + c.Rejected
	return c
}

func ownsOrAssigned(r domain.Record, actorID string) bool {
	if actorID == "" {
		return false
	}
	if r.CreatorID() == actorID {
		return true
	}
	return r.EditingPermissions.HasTeamMember(actorID)
}

// matchFactory treats an empty filter or "All" as no filter.
func matchFactory(filter, value string) bool {
	filter = strings.TrimSpace(filter)
	if filter == "" || strings.EqualFold(filter, "all") {
		return true
	}
	return strings.EqualFold(strings.TrimSpace(value), filter)
}

func filterFactory(records []domain.Record, factory string) []domain.Record {
	out := make([]domain.Record, 0, len(records))
	for _, r := range records {
		if r.Superseded || !matchFactory(factory, r.Factory) {
			continue
		}
		out = append(out, r)
	}
	return out
}
