package queue

import (
	"log"

	"github.com/hibiken/asynq"
)

// EnqueueBatch queues one publish sweep. The task carries no payload; the
// worker figures out what is due when it runs.
func EnqueueBatch(asynqClient *asynq.Client) error {
	task := asynq.NewTask(TaskTypePublishBatch, nil)

	_, err := asynqClient.Enqueue(task)
	if err != nil {
		return err
	}

	log.Println("Publish sweep task enqueued")
	return nil
}
