package service

import (
	"context"
	"errors"

	"rcca-backend/internal/domain"
	"rcca-backend/internal/logger"
	"rcca-backend/internal/metrics"
	"rcca-backend/internal/repository"
)

const (
	syncFlushed = "flushed"
	syncDropped = "dropped"
	syncFailed  = "failed"
)

type syncService struct {
	records repository.RecordRepository
	cache   repository.DraftCache
	metrics *metrics.Metrics
}

func NewSyncService(records repository.RecordRepository, cache repository.DraftCache, m *metrics.Metrics) SyncService {
	return &syncService{records: records, cache: cache, metrics: m}
}

// Sync flushes the draft cache into the record store. A draft the store
// already knows is dropped from the cache without being written, since the
// store copy wins. Drafts that fail stay cached for the next run.
func (s *syncService) Sync(ctx context.Context) (*SyncResult, error) {
	logger.EnterMethod("syncService.Sync")

	drafts, err := s.cache.List(ctx)
	if err != nil {
		logger.ExitMethodWithError("syncService.Sync", err)
		return nil, err
	}

	res := &SyncResult{}
	for i := range drafts {
		if err := ctx.Err(); err != nil {
			logger.ExitMethodWithError("syncService.Sync", err, "flushed", res.Flushed)
			return res, err
		}
		d := &drafts[i]

		_, err := s.records.FindByID(ctx, d.ID)
		switch {
		case err == nil:
			s.settle(ctx, d.ID, syncDropped, res)
		case errors.Is(err, domain.ErrNotFound):
			if err := s.records.CreateDraft(ctx, d); err != nil {
				logger.Warn("Draft sync failed", "recordID", d.ID, "error", err)
				s.observe(syncFailed, res)
				continue
			}
			s.settle(ctx, d.ID, syncFlushed, res)
		default:
			logger.Warn("Draft lookup failed", "recordID", d.ID, "error", err)
			s.observe(syncFailed, res)
		}
	}

	logger.ExitMethod("syncService.Sync", "flushed", res.Flushed, "dropped", res.Dropped, "failed", res.Failed)
	return res, nil
}

func (s *syncService) settle(ctx context.Context, id, result string, res *SyncResult) {
	if err := s.cache.Remove(ctx, id); err != nil {
		logger.Warn("Failed to remove synced draft from cache", "recordID", id, "error", err)
	}
	s.observe(result, res)
}

func (s *syncService) observe(result string, res *SyncResult) {
	switch result {
	case syncFlushed:
		res.Flushed++
	case syncDropped:
		res.Dropped++
	default:
		res.Failed++
	}
	if s.metrics != nil {
		s.metrics.ObserveDraftSync(result)
	}
}
