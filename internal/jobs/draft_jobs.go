package jobs

import (
	"context"

	"rcca-backend/internal/logger"
)

// SyncLocalDrafts pushes drafts that only exist in the local cache to the
// record store.
func (jr *JobRunner) SyncLocalDrafts() error {
	return jr.runWithRecovery(JobSyncLocalDrafts, func(ctx context.Context) error {
		res, err := jr.services.Sync.Sync(ctx)
		if err != nil {
			return err
		}
		if res.Failed > 0 {
			logger.Warn("Some local drafts could not be synced", "failed", res.Failed)
		}
		logger.Info("Local drafts synced", "flushed", res.Flushed, "dropped", res.Dropped, "failed", res.Failed)
		return nil
	})
}
