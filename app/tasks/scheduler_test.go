package tasks

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

type fakeTask struct {
	Task
	release chan struct{}
	running *atomic.Int32
	maxSeen *atomic.Int32
	err     error
	done    chan struct{}
}

func (f *fakeTask) Execute(ctx context.Context) error {
	n := f.running.Add(1)
	defer f.running.Add(-1)
	if n > f.maxSeen.Load() {
		f.maxSeen.Store(n)
	}

	if f.release != nil {
		select {
		case <-f.release:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	close(f.done)
	return f.err
}

func (f *fakeTask) Result() *Result {
	return &Result{Written: 1}
}

type fakeFactory struct {
	release chan struct{}
	running atomic.Int32
	maxSeen atomic.Int32
	err     error
	tasks   chan *fakeTask
}

func newFakeFactory() *fakeFactory {
	return &fakeFactory{tasks: make(chan *fakeTask, 10)}
}

func (f *fakeFactory) newTask(trigger string) TaskInterface {
	task := &fakeTask{
		Task:    NewTask(TaskTypeBuildFeed, trigger),
		release: f.release,
		running: &f.running,
		maxSeen: &f.maxSeen,
		err:     f.err,
		done:    make(chan struct{}),
	}
	f.tasks <- task
	return task
}

func waitDone(t *testing.T, task *fakeTask) {
	t.Helper()
	select {
	case <-task.done:
	case <-time.After(5 * time.Second):
		t.Fatal("Timed out waiting for task")
	}
}

func waitLastRun(t *testing.T, s *Scheduler, id string) *RunStatus {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if status := s.LastRun(); status != nil && status.TaskID == id {
			return status
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("Timed out waiting for run status")
	return nil
}

func TestScheduler_InvalidSchedule(t *testing.T) {
	if _, err := NewScheduler("not a schedule", newFakeFactory().newTask); err == nil {
		t.Errorf("Expected error for invalid cron spec")
	}
}

func TestScheduler_StartRunsImmediately(t *testing.T) {
	factory := newFakeFactory()
	s, err := NewScheduler("@every 1h", factory.newTask)
	if err != nil {
		t.Fatal(err)
	}

	s.Start()
	defer s.Stop()

	task := <-factory.tasks
	waitDone(t, task)

	status := waitLastRun(t, s, task.ID)
	if !status.Success || status.Trigger != "startup" {
		t.Errorf("Expected successful startup run, got %+v", status)
	}
	if status.Result == nil || status.Result.Written != 1 {
		t.Errorf("Expected task result to be recorded, got %+v", status.Result)
	}
}

func TestScheduler_RecordsFailure(t *testing.T) {
	factory := newFakeFactory()
	factory.err = errors.New("failed to write feed")

	s, err := NewScheduler("@every 1h", factory.newTask)
	if err != nil {
		t.Fatal(err)
	}

	s.Start()
	defer s.Stop()

	task := <-factory.tasks
	status := waitLastRun(t, s, task.ID)

	if status.Success || status.Error != "failed to write feed" {
		t.Errorf("Expected failed run with error, got %+v", status)
	}
}

func TestScheduler_RunsDoNotOverlap(t *testing.T) {
	factory := newFakeFactory()
	factory.release = make(chan struct{})

	s, err := NewScheduler("@every 1h", factory.newTask)
	if err != nil {
		t.Fatal(err)
	}

	s.Start()
	defer s.Stop()

	first := <-factory.tasks
	for factory.running.Load() == 0 {
		time.Sleep(5 * time.Millisecond)
	}

	if _, err := s.EnqueueBuild("api"); err != nil {
		t.Fatalf("Expected one pending run to be accepted, got: %v", err)
	}
	<-factory.tasks

	if _, err := s.EnqueueBuild("api"); err == nil {
		t.Errorf("Expected queue to be full while a run is pending")
	}
	<-factory.tasks

	close(factory.release)
	waitDone(t, first)

	if peak := factory.maxSeen.Load(); peak != 1 {
		t.Errorf("Expected at most one concurrent run, got %d", peak)
	}
}

func TestScheduler_EnqueueAfterStop(t *testing.T) {
	factory := newFakeFactory()
	s, err := NewScheduler("@every 1h", factory.newTask)
	if err != nil {
		t.Fatal(err)
	}

	s.Start()
	waitDone(t, <-factory.tasks)
	s.Stop()

	if _, err := s.EnqueueBuild("api"); err == nil {
		t.Errorf("Expected error after stop")
	}
}
