package service

import (
	"context"
	"errors"

	"golang.org/x/sync/errgroup"

	"rcca-backend/internal/domain"
	"rcca-backend/internal/logger"
	"rcca-backend/internal/reconcile"
	"rcca-backend/internal/repository"
)

// snapshotLoader fetches the three tiers concurrently and reconciles them.
// Every read path goes through it so the view is always rebuilt from an
// authoritative refetch.
type snapshotLoader struct {
	records repository.RecordRepository
	cache   repository.DraftCache
}

func (l snapshotLoader) load(ctx context.Context) (*reconcile.View, error) {
	var main, pending, local []domain.Record

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		main, err = l.records.ListMain(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		pending, err = l.records.ListPending(gctx)
		return err
	})
	g.Go(func() error {
		if l.cache == nil {
			return nil
		}
		var err error
		local, err = l.cache.List(gctx)
		if err != nil {
			// local drafts are best effort
			logger.WarnContext(ctx, "Draft cache unavailable, continuing without local drafts", "error", err)
			local = nil
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	logger.Debug("Snapshot loaded", "main", len(main), "pending", len(pending), "local", len(local))
	return reconcile.Build(main, pending, local), nil
}

// resolve finds a record by canonical id, preferring the store over the
// draft cache.
func (l snapshotLoader) resolve(ctx context.Context, id string) (*domain.Record, error) {
	if id == "" {
		return nil, &domain.ValidationError{Field: "id", Message: "record id is required"}
	}
	r, err := l.records.FindByID(ctx, id)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) || l.cache == nil {
			return nil, err
		}
		if r, err = l.cache.Get(ctx, id); err != nil {
			return nil, err
		}
	}
	// assigned members are authoritative for team edit rights
	if !r.MembersInSync() {
		logger.Warn("Team member ids drifted from assigned members", "recordID", r.ID,
			"teamMemberIDs", r.EditingPermissions.TeamMemberIDs)
		r.ReplaceMembers(r.AssignedMembers, r.EditingPermissions.LastUpdated)
	}
	return r, nil
}
