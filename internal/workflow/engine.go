// Package workflow implements the RCCA lifecycle as a pure transition
// function. It never touches storage; callers persist the outcome and
// dispatch the returned event.
package workflow

import (
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"rcca-backend/internal/domain"
	"rcca-backend/internal/permission"
)

type Action string

const (
	ActionSaveDraft Action = "SaveDraft"
	ActionSubmit    Action = "Submit"
	ActionApprove   Action = "Approve"
	ActionReject    Action = "Reject"
	ActionResubmit  Action = "Resubmit"
)

// allowedFrom lists the source statuses each action accepts. SaveDraft is
// handled separately since it accepts any status.
var allowedFrom = map[Action][]domain.RecordStatus{
	ActionSubmit:   {domain.RecordStatusDraft, domain.RecordStatusRejected},
	ActionApprove:  {domain.RecordStatusSubmitted},
	ActionReject:   {domain.RecordStatusSubmitted},
	ActionResubmit: {domain.RecordStatusRejected},
}

type Command struct {
	Action Action
	Actor  domain.Actor
	Reason string
}

// Outcome is the result of a successful transition. Superseded is only set
// when a rejected record was resubmitted.
type Outcome struct {
	Record     *domain.Record
	Superseded *domain.Record
	Event      domain.Event
}

type Engine struct {
	perms    *permission.Evaluator
	validate *validator.Validate
	now      func() time.Time
	newID    func() string
}

type Option func(*Engine)

func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

func WithIDGenerator(fn func() string) Option {
	return func(e *Engine) { e.newID = fn }
}

func NewEngine(perms *permission.Evaluator, opts ...Option) *Engine {
	e := &Engine{
		perms:    perms,
		validate: validator.New(),
		now:      time.Now,
		newID:    func() string { return uuid.NewString() },
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// NewDraft builds a fresh draft owned by actor with a canonical id.
func (e *Engine) NewDraft(actor domain.Actor, patch domain.RecordPatch) *domain.Record {
	now := e.now()
	r := &domain.Record{
		ID:        e.newID(),
		Tier:      domain.TierLocal,
		Status:    domain.RecordStatusDraft,
		CreatedBy: actor.ID,
		CreatedAt: now,
		UpdatedAt: now,
		EditingPermissions: domain.EditingPermissions{
			CreatorID:     actor.ID,
			TeamMemberIDs: []string{},
			AdminIDs:      []string{},
			LastUpdated:   now,
		},
	}
	patch.Apply(r, now)
	return r
}

// Transition applies cmd to r and returns the new state. r is never
// modified; on error nothing has changed.
func (e *Engine) Transition(r *domain.Record, cmd Command) (*Outcome, error) {
	if r == nil {
		return nil, &domain.ValidationError{Field: "record", Message: "record is required"}
	}

	switch cmd.Action {
	case ActionSaveDraft:
		return e.saveDraft(r, cmd)
	case ActionSubmit:
		if err := checkFrom(r, cmd.Action); err != nil {
			return nil, err
		}
		if r.Status == domain.RecordStatusRejected {
			return e.resubmit(r, cmd)
		}
		return e.submit(r, cmd)
	case ActionApprove:
		return e.approve(r, cmd)
	case ActionReject:
		return e.reject(r, cmd)
	case ActionResubmit:
		if err := checkFrom(r, cmd.Action); err != nil {
			return nil, err
		}
		return e.resubmit(r, cmd)
	default:
		return nil, &domain.ValidationError{Field: "action", Message: "unknown action " + string(cmd.Action)}
	}
}

func (e *Engine) saveDraft(r *domain.Record, cmd Command) (*Outcome, error) {
	if !e.perms.CanEdit(r, cmd.Actor) {
		return nil, &domain.PermissionError{ActorID: cmd.Actor.ID, Action: "edit " + r.ID}
	}
	now := e.now()
	next := r.Clone()
	next.Status = domain.RecordStatusDraft
	next.UpdatedAt = now
	// a demoted record is no longer approved or rejected
	next.ApprovedAt, next.ApprovedBy = nil, ""
	next.RejectionReason, next.RejectedBy = "", ""
	if next.Tier != domain.TierLocal {
		next.Tier = domain.TierMain
	}
	if cmd.Actor.IsAdmin {
		next.AddAdmin(cmd.Actor.ID, now)
	}
	return &Outcome{Record: next, Event: e.event(domain.EventDraftSaved, next, cmd, now)}, nil
}

func (e *Engine) submit(r *domain.Record, cmd Command) (*Outcome, error) {
	if !e.perms.CanEdit(r, cmd.Actor) {
		return nil, &domain.PermissionError{ActorID: cmd.Actor.ID, Action: "submit " + r.ID}
	}
	if err := e.requireText("narrative", r.Narrative); err != nil {
		return nil, err
	}
	now := e.now()
	next := r.Clone()
	next.Status = domain.RecordStatusSubmitted
	next.Tier = domain.TierPending
	next.UpdatedAt = now
	next.ReplaceMembers(next.AssignedMembers, now)
	return &Outcome{Record: next, Event: e.event(domain.EventSubmitted, next, cmd, now)}, nil
}

func (e *Engine) approve(r *domain.Record, cmd Command) (*Outcome, error) {
	if err := checkFrom(r, cmd.Action); err != nil {
		return nil, err
	}
	if !e.perms.CanDecide(cmd.Actor) {
		return nil, &domain.PermissionError{ActorID: cmd.Actor.ID, Action: "approve " + r.ID}
	}
	now := e.now()
	next := r.Clone()
	next.Status = domain.RecordStatusApproved
	next.Tier = domain.TierMain
	next.ApprovedAt = &now
	next.ApprovedBy = cmd.Actor.ID
	next.UpdatedAt = now
	next.AddAdmin(cmd.Actor.ID, now)
	return &Outcome{Record: next, Event: e.event(domain.EventApproved, next, cmd, now)}, nil
}

func (e *Engine) reject(r *domain.Record, cmd Command) (*Outcome, error) {
	if err := checkFrom(r, cmd.Action); err != nil {
		return nil, err
	}
	if !e.perms.CanDecide(cmd.Actor) {
		return nil, &domain.PermissionError{ActorID: cmd.Actor.ID, Action: "reject " + r.ID}
	}
	if err := e.requireText("reason", cmd.Reason); err != nil {
		return nil, err
	}
	now := e.now()
	next := r.Clone()
	next.Status = domain.RecordStatusRejected
	next.Tier = domain.TierMain
	next.RejectionReason = strings.TrimSpace(cmd.Reason)
	next.RejectedBy = cmd.Actor.ID
	next.UpdatedAt = now
	next.AddAdmin(cmd.Actor.ID, now)
	ev := e.event(domain.EventRejected, next, cmd, now)
	ev.Reason = next.RejectionReason
	return &Outcome{Record: next, Event: ev}, nil
}

func (e *Engine) resubmit(r *domain.Record, cmd Command) (*Outcome, error) {
	if r.Superseded {
		return nil, &domain.ValidationError{Field: "status", Message: "record " + r.ID + " was already resubmitted"}
	}
	if !e.perms.CanResubmit(r, cmd.Actor) {
		return nil, &domain.PermissionError{ActorID: cmd.Actor.ID, Action: "resubmit " + r.ID}
	}
	if err := e.requireText("narrative", r.Narrative); err != nil {
		return nil, err
	}
	now := e.now()

	original := r.Clone()
	original.Superseded = true

	next := r.Clone()
	next.ID = e.newID()
	next.StorageID = ""
	next.Tier = domain.TierPending
	next.Status = domain.RecordStatusSubmitted
	next.ResubmissionLink = r.ID
	next.Superseded = false
	next.RejectionReason = ""
	next.RejectedBy = ""
	next.ApprovedAt = nil
	next.ApprovedBy = ""
	next.UpdatedAt = now
	next.ReplaceMembers(next.AssignedMembers, now)

	ev := e.event(domain.EventResubmitted, next, cmd, now)
	ev.OriginalID = r.ID
	return &Outcome{Record: next, Superseded: original, Event: ev}, nil
}

func (e *Engine) requireText(field, value string) error {
	if err := e.validate.Var(strings.TrimSpace(value), "required"); err != nil {
		return &domain.ValidationError{Field: field, Message: "must not be empty"}
	}
	return nil
}

func (e *Engine) event(t domain.EventType, r *domain.Record, cmd Command, at time.Time) domain.Event {
	return domain.Event{
		Type:       t,
		RecordID:   r.ID,
		ActorID:    cmd.Actor.ID,
		CreatorID:  r.CreatorID(),
		MemberIDs:  domain.MemberIDs(r.AssignedMembers),
		Title:      r.Title,
		OccurredAt: at,
	}
}

func checkFrom(r *domain.Record, action Action) error {
	for _, s := range allowedFrom[action] {
		if r.Status == s {
			return nil
		}
	}
	return &domain.ValidationError{
		Field:   "status",
		Message: "cannot " + string(action) + " a record in status " + string(r.Status),
	}
}
