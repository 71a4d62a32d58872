package jobs

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/require"

	"github.com/pijar-hq/pijar/internal/dashboard"
	_ "github.com/pijar-hq/pijar/testing"
)

type stubDashboardRepo struct {
	sales     atomic.Int64
	marketing atomic.Int64
	ops       atomic.Int64
	finance   atomic.Int64
	err       error
}

func (s *stubDashboardRepo) SalesOverview(ctx context.Context, from, to time.Time) (dashboard.SalesOverview, error) {
	s.sales.Add(1)
	return dashboard.SalesOverview{Revenue: 1000}, s.err
}

func (s *stubDashboardRepo) MarketingOverview(ctx context.Context, from, to time.Time) (dashboard.MarketingOverview, error) {
	s.marketing.Add(1)
	return dashboard.MarketingOverview{}, s.err
}

func (s *stubDashboardRepo) OpsOverview(ctx context.Context, from, to time.Time) (dashboard.OpsOverview, error) {
	s.ops.Add(1)
	return dashboard.OpsOverview{}, s.err
}

func (s *stubDashboardRepo) FinanceOverview(ctx context.Context, from, to time.Time) (dashboard.FinanceOverview, error) {
	s.finance.Add(1)
	return dashboard.FinanceOverview{}, s.err
}

func newWarmupFixture(t *testing.T, repoErr error) (*DashboardWarmupJob, *stubDashboardRepo) {
	t.Helper()
	repo := &stubDashboardRepo{err: repoErr}
	svc := dashboard.NewService(repo, nil)
	job := NewDashboardWarmupJob(svc, slog.New(slog.NewTextHandler(io.Discard, nil)))
	return job, repo
}

func TestDashboardWarmupHandleWarmsAllAreas(t *testing.T) {
	job, repo := newWarmupFixture(t, nil)

	task, err := NewDashboardWarmupTask("2025-03")
	require.NoError(t, err)

	require.NoError(t, job.Handle(context.Background(), task))
	require.Equal(t, int64(1), repo.sales.Load())
	require.Equal(t, int64(1), repo.marketing.Load())
	require.Equal(t, int64(1), repo.ops.Load())
	require.Equal(t, int64(1), repo.finance.Load())
}

func TestDashboardWarmupHandleSkipsRetryOnBadPayload(t *testing.T) {
	job, repo := newWarmupFixture(t, nil)

	task := asynq.NewTask(TaskDashboardWarmup, []byte("{not json"))
	err := job.Handle(context.Background(), task)
	require.ErrorIs(t, err, asynq.SkipRetry)
	require.Equal(t, int64(0), repo.sales.Load())
}

func TestDashboardWarmupHandlePropagatesLoadError(t *testing.T) {
	job, _ := newWarmupFixture(t, errors.New("db down"))

	task, err := NewDashboardWarmupTask("")
	require.NoError(t, err)
	require.Error(t, job.Handle(context.Background(), task))
}
