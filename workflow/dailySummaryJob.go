package workflow

import (
	"context"
	"errors"
	"time"

	"github.com/bsm/redislock"
	"github.com/mmdatafocus/pos_backend/config"
	"github.com/mmdatafocus/pos_backend/models"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

const dailySummaryLockKey = "Lock:DailySummary"

// DailySummaryJob persists yesterday's sales summary. Instances race for a Redis lock so one of them runs it.
type DailySummaryJob struct {
	Logger  *logrus.Logger
	Locker  *redislock.Client
	LockTTL time.Duration
	Now     func() time.Time
	Compute func(ctx context.Context, day time.Time) (*models.DailySalesSummary, error)
}

func NewDailySummaryJob(logger *logrus.Logger, locker *redislock.Client) *DailySummaryJob {
	return &DailySummaryJob{
		Logger:  logger,
		Locker:  locker,
		LockTTL: 5 * time.Minute,
		Now:     time.Now,
		Compute: models.ComputeDailySummary,
	}
}

// Run computes the previous local day. It returns false when another instance holds the lock.
func (j *DailySummaryJob) Run(ctx context.Context) (bool, error) {
	if j.Locker != nil {
		lock, err := j.Locker.Obtain(ctx, dailySummaryLockKey, j.LockTTL, nil)
		if err != nil {
			if errors.Is(err, redislock.ErrNotObtained) {
				return false, nil
			}
			return false, err
		}
		defer func() {
			_ = lock.Release(context.Background())
		}()
	}

	day := j.Now().In(config.Location()).AddDate(0, 0, -1)
	summary, err := j.Compute(ctx, day)
	if err != nil {
		return true, err
	}
	if j.Logger != nil {
		j.Logger.WithFields(logrus.Fields{
			"field":  "DailySummaryJob",
			"date":   summary.SummaryDate.Format("2006-01-02"),
			"orders": summary.Orders,
			"total":  summary.TotalSales.String(),
		}).Info("daily summary stored")
	}
	return true, nil
}

// StartDailySummaryCron schedules the job; an empty spec disables it and returns nil.
func StartDailySummaryCron(spec string, job *DailySummaryJob) (*cron.Cron, error) {
	if spec == "" {
		return nil, nil
	}
	c := cron.New(cron.WithLocation(config.Location()))
	_, err := c.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
		defer cancel()
		if _, err := job.Run(ctx); err != nil && job.Logger != nil {
			config.LogError(job.Logger, "dailySummaryJob.go", "StartDailySummaryCron", "running job", spec, err)
		}
	})
	if err != nil {
		return nil, err
	}
	c.Start()
	return c, nil
}
