package queue

import (
	"context"
	"log"

	"github.com/hibiken/asynq"
)

func (q *Queue) HandlePublishBatchTask(ctx context.Context, task *asynq.Task) error {
	summary, err := q.e.RunBatch(ctx)
	if err != nil {
		log.Printf("Publish sweep failed: %v", err)
		return err
	}

	if summary.Attempted > 0 || summary.Skipped > 0 {
		log.Printf("Publish sweep %s: attempted=%d published=%d failed=%d skipped=%d",
			summary.RunID, summary.Attempted, summary.Published, summary.Failed, summary.Skipped)
	}
	return nil
}
