package queue

import (
	"github.com/kavyarc11/postpilot/internal/engine"
)

type Queue struct {
	e *engine.Engine
}

func NewQueue(e *engine.Engine) *Queue {
	return &Queue{e: e}
}

const TaskTypePublishBatch = "publish:batch"
