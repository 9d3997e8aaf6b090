package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

const (
	DefaultQueueSize   = 1
	DefaultTaskTimeout = 30 * time.Minute
)

var _ TaskSchedulerInterface = (*Scheduler)(nil)

// Scheduler enqueues a build on every cron tick. A single worker drains the
// queue, so two runs never overlap; ticks that find the queue full are
// dropped.
type Scheduler struct {
	cron        *cron.Cron
	newTask     TaskFactory
	taskTimeout time.Duration
	ctx         context.Context
	cancel      context.CancelFunc
	wg          sync.WaitGroup
	taskQueue   chan TaskInterface

	mu      sync.RWMutex
	lastRun *RunStatus
}

// NewScheduler creates a scheduler that enqueues a task from newTask on every
// tick of the cron schedule.
func NewScheduler(schedule string, newTask TaskFactory) (*Scheduler, error) {
	ctx, cancel := context.WithCancel(context.Background())

	s := &Scheduler{
		cron:        cron.New(cron.WithLogger(cronLogger{})),
		newTask:     newTask,
		taskTimeout: DefaultTaskTimeout,
		ctx:         ctx,
		cancel:      cancel,
		taskQueue:   make(chan TaskInterface, DefaultQueueSize),
	}

	if _, err := s.cron.AddFunc(schedule, s.enqueueScheduled); err != nil {
		cancel()
		return nil, fmt.Errorf("invalid schedule %q: %w", schedule, err)
	}

	return s, nil
}

// Start launches the worker, enqueues a startup run and starts the cron.
func (s *Scheduler) Start() {
	s.wg.Add(1)
	go s.worker()

	if _, err := s.EnqueueBuild("startup"); err != nil {
		slog.Warn("Failed to enqueue startup task", "error", err)
	}

	s.cron.Start()
}

// Stop waits for running cron jobs, then cancels the running task.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.cancel()
	s.wg.Wait()
}

func (s *Scheduler) EnqueueTask(task TaskInterface) error {
	select {
	case <-s.ctx.Done():
		return s.ctx.Err()
	default:
	}

	select {
	case s.taskQueue <- task:
		return nil
	default:
		return fmt.Errorf("task queue is full")
	}
}

func (s *Scheduler) EnqueueBuild(trigger string) (TaskInterface, error) {
	task := s.newTask(trigger)
	if err := s.EnqueueTask(task); err != nil {
		return nil, err
	}
	slog.Debug("Task enqueued", "type", string(task.GetType()), "id", task.GetID(), "trigger", trigger)
	return task, nil
}

func (s *Scheduler) LastRun() *RunStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastRun
}

func (s *Scheduler) enqueueScheduled() {
	if _, err := s.EnqueueBuild("schedule"); err != nil {
		slog.Warn("Skipping scheduled run", "error", err)
	}
}

func (s *Scheduler) worker() {
	defer s.wg.Done()

	for {
		select {
		case task := <-s.taskQueue:
			s.executeTask(task)
		case <-s.ctx.Done():
			return
		}
	}
}

func (s *Scheduler) executeTask(task TaskInterface) {
	task.Start()

	taskCtx, cancel := context.WithTimeout(s.ctx, s.taskTimeout)
	defer cancel()

	err := task.Execute(taskCtx)

	status := &RunStatus{
		TaskID:     task.GetID(),
		Trigger:    task.GetTrigger(),
		FinishedAt: time.Now().UTC(),
		Success:    err == nil,
	}
	if provider, ok := task.(ResultProvider); ok {
		status.Result = provider.Result()
	}

	if err != nil {
		status.Error = err.Error()
		slog.Error("Task execution failed", "type", string(task.GetType()), "id", task.GetID(), "duration", task.GetDuration(), "error", err)
	}

	s.mu.Lock()
	s.lastRun = status
	s.mu.Unlock()
}

// cronLogger routes cron's own messages through slog.
type cronLogger struct{}

func (cronLogger) Info(msg string, keysAndValues ...interface{}) {
	slog.Debug("cron: "+msg, keysAndValues...)
}

func (cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	slog.Error("cron: "+msg, append(keysAndValues, "error", err)...)
}
