package job

import (
	"log/slog"

	"github.com/hibiken/asynq"
	"github.com/kavyarc11/postpilot/internal/queue"
)

// PublishSweepJob is the periodic trigger: each cron tick enqueues one
// batch sweep for the worker to run.
type PublishSweepJob struct {
	client *asynq.Client
}

func NewPublishSweepJob(client *asynq.Client) *PublishSweepJob {
	return &PublishSweepJob{client: client}
}

func (j *PublishSweepJob) Run() {
	if err := queue.EnqueueBatch(j.client); err != nil {
		slog.Info(err.Error())
	}
}
