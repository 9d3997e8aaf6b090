package tasks

import (
	"context"
	"fmt"
	"math/rand"
	"time"
)

type TaskType string

const (
	TaskTypeBuildFeed TaskType = "build_feed"
)

// TaskInterface is what the scheduler needs to run and report a task.
type TaskInterface interface {
	Execute(ctx context.Context) error
	GetID() string
	GetType() TaskType
	GetTrigger() string
	Start()
	GetDuration() time.Duration
}

// Task carries the bookkeeping shared by every task. Runs are never retried:
// the next scheduled run picks up whatever the previous one missed.
type Task struct {
	ID        string
	Type      TaskType
	Trigger   string
	StartedAt *time.Time
}

func (t *Task) GetID() string {
	return t.ID
}

func (t *Task) GetType() TaskType {
	return t.Type
}

func (t *Task) GetTrigger() string {
	return t.Trigger
}

func (t *Task) Start() {
	now := time.Now()
	t.StartedAt = &now
}

func (t *Task) GetDuration() time.Duration {
	if t.StartedAt == nil {
		return 0
	}
	return time.Since(*t.StartedAt)
}

// NewTask creates the base of a task with a unique ID. trigger records what
// caused the run (startup, schedule, api, once).
func NewTask(taskType TaskType, trigger string) Task {
	uniqueID := fmt.Sprintf("%d-%d", time.Now().UnixNano(), rand.Intn(10000))

	return Task{
		ID:      uniqueID,
		Type:    taskType,
		Trigger: trigger,
	}
}
