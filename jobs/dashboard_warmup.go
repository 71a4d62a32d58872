package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/pijar-hq/pijar/internal/dashboard"
)

// DashboardWarmupJob pre-populates dashboard caches so the first page load
// of the day hits warm data.
type DashboardWarmupJob struct {
	Dashboards *dashboard.Service
	Logger     *slog.Logger
	clock      func() time.Time
}

// NewDashboardWarmupJob wires dependencies for the warmup handler.
func NewDashboardWarmupJob(dashboards *dashboard.Service, logger *slog.Logger) *DashboardWarmupJob {
	return &DashboardWarmupJob{
		Dashboards: dashboards,
		Logger:     logger,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// Handle processes dashboard warmup tasks.
func (j *DashboardWarmupJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Dashboards == nil {
		return errors.New("dashboard warmup: handler not configured")
	}
	var payload DashboardWarmupPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}

	period := j.Dashboards.ParsePeriod(payload.Period)
	logger := j.logger().With(slog.String("period", period.String()))
	logger.Info("starting dashboard warmup")

	jobCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	start := j.now()
	if err := j.Dashboards.Warm(jobCtx, period); err != nil {
		logger.Error("warm dashboards", slog.Any("error", err))
		return err
	}
	logger.Info("completed dashboard warmup", slog.Duration("duration", time.Since(start)))
	return nil
}

func (j *DashboardWarmupJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskDashboardWarmup))
	}
	return slog.Default().With(slog.String("job", TaskDashboardWarmup))
}

func (j *DashboardWarmupJob) now() time.Time {
	if j.clock != nil {
		return j.clock()
	}
	return time.Now().UTC()
}
