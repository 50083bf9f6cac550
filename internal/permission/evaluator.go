// Package permission holds the single edit policy for RCCA records.
package permission

import (
	"time"

	"rcca-backend/internal/domain"
)

// DefaultGracePeriod is how long after approval an admin may still amend a
// record.
const DefaultGracePeriod = 7 * 24 * time.Hour

type Evaluator struct {
	gracePeriod time.Duration
	now         func() time.Time
}

type Option func(*Evaluator)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(e *Evaluator) { e.now = now }
}

func NewEvaluator(gracePeriod time.Duration, opts ...Option) *Evaluator {
	if gracePeriod <= 0 {
		gracePeriod = DefaultGracePeriod
	}
	e := &Evaluator{gracePeriod: gracePeriod, now: time.Now}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Evaluator) GracePeriod() time.Duration {
	return e.gracePeriod
}

// CanEdit decides whether actor may mutate r.
//
//	Draft                   creator, team member, admin
//	Submitted, Resubmitted  creator, admin
//	Rejected                creator, admin
//	Approved                creator; admin only inside the grace window
//
// The grace window never applies to the creator.
func (e *Evaluator) CanEdit(r *domain.Record, actor domain.Actor) bool {
	if r == nil || actor.ID == "" {
		return false
	}
	isCreator := r.CreatorID() == actor.ID || r.CreatedBy == actor.ID

	switch r.Status {
	case domain.RecordStatusDraft:
		return isCreator || actor.IsAdmin || isTeamMember(r, actor.ID)
	case domain.RecordStatusSubmitted, domain.RecordStatusResubmitted, domain.RecordStatusRejected:
		return isCreator || actor.IsAdmin
	case domain.RecordStatusApproved:
		if isCreator {
			return true
		}
		return actor.IsAdmin && e.withinGrace(r)
	default:
		return false
	}
}

// CanDecide reports whether actor may approve or reject submissions.
func (e *Evaluator) CanDecide(actor domain.Actor) bool {
	return actor.IsAdmin && actor.ID != ""
}

// CanResubmit reports whether actor may resubmit a rejected record.
func (e *Evaluator) CanResubmit(r *domain.Record, actor domain.Actor) bool {
	if r == nil || actor.ID == "" {
		return false
	}
	return actor.IsAdmin || r.CreatorID() == actor.ID || r.CreatedBy == actor.ID
}

// CanDelete lets a creator delete their own draft and an admin delete
// anything they could still edit.
func (e *Evaluator) CanDelete(r *domain.Record, actor domain.Actor) bool {
	if r == nil || actor.ID == "" {
		return false
	}
	if actor.IsAdmin {
		if r.Status == domain.RecordStatusApproved {
			return e.withinGrace(r)
		}
		return true
	}
	isCreator := r.CreatorID() == actor.ID || r.CreatedBy == actor.ID
	return isCreator && r.Status == domain.RecordStatusDraft
}

// CanView lets admins see everything; everyone else sees records they
// created or are assigned to.
func (e *Evaluator) CanView(r *domain.Record, actor domain.Actor) bool {
	if r == nil || actor.ID == "" {
		return false
	}
	if actor.IsAdmin {
		return true
	}
	return r.CreatorID() == actor.ID || r.CreatedBy == actor.ID || isTeamMember(r, actor.ID)
}

func (e *Evaluator) withinGrace(r *domain.Record) bool {
	if r.ApprovedAt == nil {
		return false
	}
	return e.now().Sub(*r.ApprovedAt) <= e.gracePeriod
}

func isTeamMember(r *domain.Record, id string) bool {
	if r.EditingPermissions.HasTeamMember(id) {
		return true
	}
	for _, m := range r.AssignedMembers {
		if m.ID == id {
			return true
		}
	}
	return false
}
