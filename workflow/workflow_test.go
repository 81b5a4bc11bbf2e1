package workflow

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/bsm/redislock"
	"github.com/mmdatafocus/pos_backend/config"
	"github.com/mmdatafocus/pos_backend/models"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func TestPublishBackoff(t *testing.T) {
	cases := []struct {
		attempt int
		want    time.Duration
	}{
		{1, 5 * time.Second},
		{2, 10 * time.Second},
		{3, 20 * time.Second},
		{7, 320 * time.Second},
		{8, 10 * time.Minute},
		{20, 10 * time.Minute},
	}
	for _, tc := range cases {
		if got := publishBackoff(5*time.Second, tc.attempt); got != tc.want {
			t.Errorf("attempt %d: got %s want %s", tc.attempt, got, tc.want)
		}
	}
}

func TestDispatchOnceWithoutDB(t *testing.T) {
	d := NewOutboxDispatcher(nil, nil)
	if n := d.DispatchOnce(context.Background()); n != 0 {
		t.Fatalf("expected 0 claimed, got %d", n)
	}
}

func TestDispatchOnceEmptyBatch(t *testing.T) {
	sqlDB, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	defer sqlDB.Close()
	gdb, err := gorm.Open(mysql.New(mysql.Config{Conn: sqlDB, SkipInitializeWithVersion: true}), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatal(err)
	}

	mock.ExpectBegin()
	mock.ExpectQuery("FROM `outbox_messages`.*FOR UPDATE SKIP LOCKED").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectCommit()

	published := 0
	d := NewOutboxDispatcher(gdb, nil)
	d.Publish = func(ctx context.Context, msg config.EventMessage) (string, error) {
		published++
		return "id", nil
	}
	if n := d.DispatchOnce(context.Background()); n != 0 {
		t.Fatalf("expected 0 claimed, got %d", n)
	}
	if published != 0 {
		t.Fatalf("nothing should be published")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func newLocker(t *testing.T) *redislock.Client {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return redislock.New(client)
}

func TestDailySummaryJobComputesYesterday(t *testing.T) {
	t.Setenv("TIMEZONE", "America/Santiago")
	loc := config.Location()
	now := time.Date(2024, 5, 10, 0, 5, 0, 0, loc)

	var gotDay time.Time
	job := NewDailySummaryJob(nil, newLocker(t))
	job.Now = func() time.Time { return now }
	job.Compute = func(ctx context.Context, day time.Time) (*models.DailySalesSummary, error) {
		gotDay = day
		return &models.DailySalesSummary{SummaryDate: day, TotalSales: decimal.Zero}, nil
	}

	ran, err := job.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if !ran {
		t.Fatal("expected job to run")
	}
	if got := gotDay.In(loc).Format("2006-01-02"); got != "2024-05-09" {
		t.Fatalf("computed day = %s", got)
	}
}

func TestDailySummaryJobSkipsWhenLocked(t *testing.T) {
	locker := newLocker(t)
	held, err := locker.Obtain(context.Background(), dailySummaryLockKey, time.Minute, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer held.Release(context.Background())

	called := false
	job := NewDailySummaryJob(nil, locker)
	job.Compute = func(ctx context.Context, day time.Time) (*models.DailySalesSummary, error) {
		called = true
		return &models.DailySalesSummary{}, nil
	}

	ran, err := job.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if ran || called {
		t.Fatal("job must not run while another instance holds the lock")
	}
}

func TestDailySummaryJobPropagatesError(t *testing.T) {
	job := NewDailySummaryJob(nil, nil)
	job.Compute = func(ctx context.Context, day time.Time) (*models.DailySalesSummary, error) {
		return nil, errors.New("db down")
	}
	if _, err := job.Run(context.Background()); err == nil {
		t.Fatal("expected error")
	}
}

func TestStartDailySummaryCronDisabled(t *testing.T) {
	c, err := StartDailySummaryCron("", NewDailySummaryJob(nil, nil))
	if err != nil || c != nil {
		t.Fatalf("expected disabled cron, got %v %v", c, err)
	}
}

func TestStartDailySummaryCronRejectsBadSpec(t *testing.T) {
	if _, err := StartDailySummaryCron("not a spec", NewDailySummaryJob(nil, nil)); err == nil {
		t.Fatal("expected error for invalid cron expression")
	}
}
