package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskDashboardWarmup precomputes dashboard caches.
	TaskDashboardWarmup = "dashboard:warmup"
)

// DashboardWarmupPayload selects the reporting period to warm. An empty
// period means the current month.
type DashboardWarmupPayload struct {
	Period string `json:"period"`
}

// NewDashboardWarmupTask constructs an Asynq task.
func NewDashboardWarmupTask(period string) (*asynq.Task, error) {
	data, err := json.Marshal(DashboardWarmupPayload{Period: period})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskDashboardWarmup, data), nil
}
