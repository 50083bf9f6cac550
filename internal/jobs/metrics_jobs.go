package jobs

import (
	"context"

	"rcca-backend/internal/logger"
)

// RefreshStatusMetrics recomputes the per-status record gauges.
func (jr *JobRunner) RefreshStatusMetrics() error {
	return jr.runWithRecovery(JobRefreshStatusMetrics, func(ctx context.Context) error {
		counts, err := jr.services.Dashboard.RefreshMetrics(ctx)
		if err != nil {
			return err
		}
		logger.Debug("Status metrics refreshed",
			"draft", counts.Draft,
			"pending", counts.Pending,
			"approved", counts.Approved,
			"rejected", counts.Rejected)
		return nil
	})
}
