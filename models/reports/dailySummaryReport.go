package reports

import (
	"context"
	"time"

	"github.com/mmdatafocus/pos_backend/models"
)

// GetDailySummaryReport reads persisted daily rows; they are not cached because the cron job rewrites them.
func GetDailySummaryReport(ctx context.Context, from *time.Time, to *time.Time) ([]*models.DailySalesSummary, error) {
	ctx, span := tracer.Start(ctx, "reports.daily-summary")
	defer span.End()
	started := time.Now()
	defer logSlowReport(ctx, "daily-summary", started, nil)

	rows, err := models.ListDailySummaries(ctx, from, to)
	if err != nil {
		return nil, err
	}
	if rows == nil {
		rows = []*models.DailySalesSummary{}
	}
	return rows, nil
}
