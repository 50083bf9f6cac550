package service

import (
	"context"
	"strings"
	"time"

	"rcca-backend/internal/domain"
	"rcca-backend/internal/events"
	"rcca-backend/internal/logger"
	"rcca-backend/internal/metrics"
	"rcca-backend/internal/permission"
	"rcca-backend/internal/reconcile"
	"rcca-backend/internal/repository"
	"rcca-backend/internal/workflow"
)

type rccaService struct {
	snapshotLoader
	engine  *workflow.Engine
	perms   *permission.Evaluator
	history repository.StatusHistoryRepository
	bus     *events.Bus
	metrics *metrics.Metrics
	now     func() time.Time
}

func NewRCCAService(
	records repository.RecordRepository,
	cache repository.DraftCache,
	history repository.StatusHistoryRepository,
	engine *workflow.Engine,
	perms *permission.Evaluator,
	bus *events.Bus,
	m *metrics.Metrics,
) RCCAService {
	if bus == nil {
		bus = events.NewBus()
	}
	if m != nil {
		bus.SubscribeAll(func(_ context.Context, ev domain.Event) { m.ObserveEvent(ev) })
	}
	return &rccaService{
		snapshotLoader: snapshotLoader{records: records, cache: cache},
		engine:         engine,
		perms:          perms,
		history:        history,
		bus:            bus,
		metrics:        m,
		now:            time.Now,
	}
}

func (s *rccaService) CreateDraft(ctx context.Context, actor domain.Actor, patch domain.RecordPatch) (*domain.Record, error) {
	logger.EnterMethod("rccaService.CreateDraft", "actorID", actor.ID)
	if actor.ID == "" {
		err := &domain.PermissionError{ActorID: actor.ID, Action: "create a draft"}
		logger.ExitMethodWithError("rccaService.CreateDraft", err)
		return nil, err
	}

	r := s.engine.NewDraft(actor, patch)
	if err := s.writeDraft(ctx, r); err != nil {
		logger.ExitMethodWithError("rccaService.CreateDraft", err, "recordID", r.ID)
		return nil, err
	}

	s.commit(ctx, "", domain.RecordStatusDraft, domain.Event{
		Type:       domain.EventDraftSaved,
		RecordID:   r.ID,
		ActorID:    actor.ID,
		CreatorID:  r.CreatorID(),
		MemberIDs:  domain.MemberIDs(r.AssignedMembers),
		Title:      r.Title,
		OccurredAt: r.CreatedAt,
	})
	logger.ExitMethod("rccaService.CreateDraft", "recordID", r.ID, "tier", r.Tier)
	return r, nil
}

func (s *rccaService) SaveDraft(ctx context.Context, actor domain.Actor, id string, patch domain.RecordPatch) (*domain.Record, error) {
	logger.EnterMethod("rccaService.SaveDraft", "actorID", actor.ID, "recordID", id)

	cur, err := s.resolve(ctx, id)
	if err != nil {
		logger.ExitMethodWithError("rccaService.SaveDraft", err, "recordID", id)
		return nil, err
	}
	out, err := s.engine.Transition(cur, workflow.Command{Action: workflow.ActionSaveDraft, Actor: actor})
	if err != nil {
		logger.ExitMethodWithError("rccaService.SaveDraft", err, "recordID", id)
		return nil, err
	}

	next := out.Record
	patch.Apply(next, next.UpdatedAt)
	if cur.Tier == domain.TierMain {
		err = s.records.Update(ctx, next)
	} else {
		// local drafts and records pulled back from the pending table
		err = s.writeDraft(ctx, next)
	}
	if err != nil {
		logger.ExitMethodWithError("rccaService.SaveDraft", err, "recordID", id)
		return nil, err
	}

	ev := out.Event
	ev.Title = next.Title
	ev.MemberIDs = domain.MemberIDs(next.AssignedMembers)
	s.commit(ctx, cur.Status, next.Status, ev)
	logger.ExitMethod("rccaService.SaveDraft", "recordID", id, "from", cur.Status)
	return next, nil
}

func (s *rccaService) UpdateMembers(ctx context.Context, actor domain.Actor, id string, members []domain.Member) (*domain.Record, error) {
	logger.EnterMethod("rccaService.UpdateMembers", "actorID", actor.ID, "recordID", id, "count", len(members))

	for _, m := range members {
		if strings.TrimSpace(m.ID) == "" {
			err := &domain.ValidationError{Field: "members", Message: "every member needs an id"}
			logger.ExitMethodWithError("rccaService.UpdateMembers", err, "recordID", id)
			return nil, err
		}
	}

	cur, err := s.resolve(ctx, id)
	if err != nil {
		logger.ExitMethodWithError("rccaService.UpdateMembers", err, "recordID", id)
		return nil, err
	}
	if !s.perms.CanEdit(cur, actor) {
		err := &domain.PermissionError{ActorID: actor.ID, Action: "update members of " + id}
		logger.ExitMethodWithError("rccaService.UpdateMembers", err, "recordID", id)
		return nil, err
	}

	now := s.now()
	next := cur.Clone()
	next.ReplaceMembers(members, now)
	next.UpdatedAt = now
	if cur.Tier == domain.TierLocal {
		err = s.writeDraft(ctx, next)
	} else {
		err = s.records.UpdateMembers(ctx, id, next.AssignedMembers, now)
	}
	if err != nil {
		logger.ExitMethodWithError("rccaService.UpdateMembers", err, "recordID", id)
		return nil, err
	}

	logger.ExitMethod("rccaService.UpdateMembers", "recordID", id, "teamMembers", len(next.EditingPermissions.TeamMemberIDs))
	return next, nil
}

func (s *rccaService) Submit(ctx context.Context, actor domain.Actor, id string) (*domain.Record, error) {
	logger.EnterMethod("rccaService.Submit", "actorID", actor.ID, "recordID", id)

	cur, err := s.resolve(ctx, id)
	if err != nil {
		logger.ExitMethodWithError("rccaService.Submit", err, "recordID", id)
		return nil, err
	}
	out, err := s.engine.Transition(cur, workflow.Command{Action: workflow.ActionSubmit, Actor: actor})
	if err != nil {
		logger.ExitMethodWithError("rccaService.Submit", err, "recordID", id)
		return nil, err
	}

	if out.Superseded != nil {
		err = s.records.Resubmit(ctx, cur.ID, out.Record)
	} else {
		err = s.records.Submit(ctx, out.Record)
	}
	if err != nil {
		s.observeFailure(err)
		logger.ExitMethodWithError("rccaService.Submit", err, "recordID", id)
		return nil, err
	}
	if cur.Tier == domain.TierLocal {
		s.dropCached(ctx, cur.ID)
	}

	s.commit(ctx, cur.Status, out.Record.Status, out.Event)
	logger.ExitMethod("rccaService.Submit", "recordID", out.Record.ID, "resubmission", out.Superseded != nil)
	return out.Record, nil
}

func (s *rccaService) Approve(ctx context.Context, actor domain.Actor, id string) (*domain.Record, error) {
	return s.decide(ctx, actor, id, workflow.ActionApprove, "")
}

func (s *rccaService) Reject(ctx context.Context, actor domain.Actor, id, reason string) (*domain.Record, error) {
	return s.decide(ctx, actor, id, workflow.ActionReject, reason)
}

// decide runs Approve or Reject. The store only commits while the record is
// still Submitted, so two admins racing on one record get one success and
// one ConflictError.
func (s *rccaService) decide(ctx context.Context, actor domain.Actor, id string, action workflow.Action, reason string) (*domain.Record, error) {
	method := "rccaService." + string(action)
	logger.EnterMethod(method, "actorID", actor.ID, "recordID", id)

	cur, err := s.resolve(ctx, id)
	if err != nil {
		logger.ExitMethodWithError(method, err, "recordID", id)
		return nil, err
	}
	out, err := s.engine.Transition(cur, workflow.Command{Action: action, Actor: actor, Reason: reason})
	if err != nil {
		logger.ExitMethodWithError(method, err, "recordID", id)
		return nil, err
	}

	if action == workflow.ActionApprove {
		err = s.records.Approve(ctx, out.Record)
	} else {
		err = s.records.Reject(ctx, out.Record)
	}
	if err != nil {
		s.observeFailure(err)
		logger.ExitMethodWithError(method, err, "recordID", id)
		return nil, err
	}

	s.commit(ctx, cur.Status, out.Record.Status, out.Event)
	logger.ExitMethod(method, "recordID", id, "status", out.Record.Status)
	return out.Record, nil
}

func (s *rccaService) Resubmit(ctx context.Context, actor domain.Actor, id string) (*domain.Record, error) {
	logger.EnterMethod("rccaService.Resubmit", "actorID", actor.ID, "recordID", id)

	cur, err := s.resolve(ctx, id)
	if err != nil {
		logger.ExitMethodWithError("rccaService.Resubmit", err, "recordID", id)
		return nil, err
	}
	out, err := s.engine.Transition(cur, workflow.Command{Action: workflow.ActionResubmit, Actor: actor})
	if err != nil {
		logger.ExitMethodWithError("rccaService.Resubmit", err, "recordID", id)
		return nil, err
	}
	if err := s.records.Resubmit(ctx, cur.ID, out.Record); err != nil {
		s.observeFailure(err)
		logger.ExitMethodWithError("rccaService.Resubmit", err, "recordID", id)
		return nil, err
	}

	s.commit(ctx, cur.Status, out.Record.Status, out.Event)
	logger.ExitMethod("rccaService.Resubmit", "originalID", id, "recordID", out.Record.ID)
	return out.Record, nil
}

func (s *rccaService) Delete(ctx context.Context, actor domain.Actor, id, reason string) error {
	logger.EnterMethod("rccaService.Delete", "actorID", actor.ID, "recordID", id)

	reason = strings.TrimSpace(reason)
	if reason == "" {
		err := &domain.ValidationError{Field: "reason", Message: "must not be empty"}
		logger.ExitMethodWithError("rccaService.Delete", err, "recordID", id)
		return err
	}
	cur, err := s.resolve(ctx, id)
	if err != nil {
		logger.ExitMethodWithError("rccaService.Delete", err, "recordID", id)
		return err
	}
	if !s.perms.CanDelete(cur, actor) {
		err := &domain.PermissionError{ActorID: actor.ID, Action: "delete " + id}
		logger.ExitMethodWithError("rccaService.Delete", err, "recordID", id)
		return err
	}

	if cur.Tier != domain.TierLocal {
		if err := s.records.Delete(ctx, id); err != nil {
			logger.ExitMethodWithError("rccaService.Delete", err, "recordID", id)
			return err
		}
	}
	s.dropCached(ctx, id)

	s.commit(ctx, cur.Status, domain.HistoryDeleted, domain.Event{
		Type:       domain.EventDeleted,
		RecordID:   id,
		ActorID:    actor.ID,
		CreatorID:  cur.CreatorID(),
		MemberIDs:  domain.MemberIDs(cur.AssignedMembers),
		Title:      cur.Title,
		Reason:     reason,
		OccurredAt: s.now(),
	})
	logger.ExitMethod("rccaService.Delete", "recordID", id)
	return nil
}

func (s *rccaService) Get(ctx context.Context, actor domain.Actor, id string) (*RecordDetail, error) {
	logger.EnterMethod("rccaService.Get", "actorID", actor.ID, "recordID", id)

	cur, err := s.resolve(ctx, id)
	if err != nil {
		logger.ExitMethodWithError("rccaService.Get", err, "recordID", id)
		return nil, err
	}
	if !s.perms.CanView(cur, actor) {
		err := &domain.PermissionError{ActorID: actor.ID, Action: "view " + id}
		logger.ExitMethodWithError("rccaService.Get", err, "recordID", id)
		return nil, err
	}

	detail := &RecordDetail{
		Record:    *cur,
		CanEdit:   s.perms.CanEdit(cur, actor),
		CanDelete: s.perms.CanDelete(cur, actor),
	}
	if cur.Status == domain.RecordStatusRejected {
		// the superseding record may only be linked by notification number
		if v, err := s.load(ctx); err == nil {
			key := reconcile.Key(*cur)
			detail.SupersededBy = v.SupersededBy(key)
			if v.IsSuperseded(key) {
				detail.Record.Superseded = true
			}
		} else {
			logger.Warn("Could not resolve resubmissions", "recordID", id, "error", err)
		}
	}

	logger.ExitMethod("rccaService.Get", "recordID", id, "canEdit", detail.CanEdit)
	return detail, nil
}

func (s *rccaService) List(ctx context.Context, actor domain.Actor, filter ListFilter) ([]domain.Record, error) {
	logger.EnterMethod("rccaService.List", "actorID", actor.ID, "status", filter.Status, "factory", filter.Factory)

	v, err := s.load(ctx)
	if err != nil {
		logger.ExitMethodWithError("rccaService.List", err)
		return nil, err
	}

	candidates := v.Active()
	if filter.IncludeSuperseded {
		candidates = v.Records()
	}
	out := make([]domain.Record, 0, len(candidates))
	for i := range candidates {
		r := &candidates[i]
		if !s.perms.CanView(r, actor) {
			continue
		}
		if filter.Status != "" && r.Status != filter.Status {
			continue
		}
		if f := strings.TrimSpace(filter.Factory); f != "" && !strings.EqualFold(f, "all") && !strings.EqualFold(f, strings.TrimSpace(r.Factory)) {
			continue
		}
		out = append(out, *r)
	}

	logger.ExitMethod("rccaService.List", "count", len(out))
	return out, nil
}

func (s *rccaService) History(ctx context.Context, actor domain.Actor, id string) ([]domain.StatusChange, error) {
	logger.EnterMethod("rccaService.History", "actorID", actor.ID, "recordID", id)

	cur, err := s.resolve(ctx, id)
	if err != nil {
		logger.ExitMethodWithError("rccaService.History", err, "recordID", id)
		return nil, err
	}
	if !s.perms.CanView(cur, actor) {
		err := &domain.PermissionError{ActorID: actor.ID, Action: "view " + id}
		logger.ExitMethodWithError("rccaService.History", err, "recordID", id)
		return nil, err
	}
	changes, err := s.history.ListByRecord(ctx, id)
	if err != nil {
		logger.ExitMethodWithError("rccaService.History", err, "recordID", id)
		return nil, err
	}

	logger.ExitMethod("rccaService.History", "recordID", id, "count", len(changes))
	return changes, nil
}

// writeDraft stages r in the draft cache and then writes it to the store.
// When the store is unreachable the draft stays cached for the sync job and
// comes back with the local tier; any other failure is returned.
func (s *rccaService) writeDraft(ctx context.Context, r *domain.Record) error {
	staged := false
	if s.cache != nil {
		if err := s.cache.Set(ctx, r); err != nil {
			logger.WarnContext(ctx, "Failed to stage draft in cache", "recordID", r.ID, "error", err)
		} else {
			staged = true
		}
	}

	err := s.records.CreateDraft(ctx, r)
	switch {
	case err == nil:
		if staged {
			s.dropCached(ctx, r.ID)
		}
		return nil
	case staged && domain.IsStore(err):
		logger.WarnContext(ctx, "Record store unavailable, draft kept in local cache", "recordID", r.ID, "error", err)
		r.Tier = domain.TierLocal
		return nil
	default:
		return err
	}
}

func (s *rccaService) dropCached(ctx context.Context, id string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Remove(ctx, id); err != nil {
		logger.WarnContext(ctx, "Failed to drop cached draft", "recordID", id, "error", err)
	}
}

// commit runs the side effects of a transition the store has accepted.
// None of them can fail the operation.
func (s *rccaService) commit(ctx context.Context, from, to domain.RecordStatus, ev domain.Event) {
	if from != to && s.history != nil {
		change := &domain.StatusChange{
			RecordID:   ev.RecordID,
			FromStatus: from,
			ToStatus:   to,
			ActorID:    ev.ActorID,
			Reason:     ev.Reason,
			CreatedOn:  ev.OccurredAt,
		}
		if err := s.history.Append(ctx, change); err != nil {
			logger.ErrorContext(ctx, "Failed to append status history", "recordID", ev.RecordID, "error", err)
		}
	}
	s.bus.Publish(ctx, ev)
}

func (s *rccaService) observeFailure(err error) {
	if s.metrics != nil && domain.IsConflict(err) {
		s.metrics.ObserveConflict()
	}
}
