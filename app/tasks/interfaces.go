package tasks

// TaskSchedulerInterface is used by the API to trigger runs and report on the
// last one.
type TaskSchedulerInterface interface {
	Start()
	Stop()
	EnqueueTask(task TaskInterface) error
	EnqueueBuild(trigger string) (TaskInterface, error)
	LastRun() *RunStatus
}

// ResultProvider is implemented by tasks that report a run Result.
type ResultProvider interface {
	Result() *Result
}

// TaskFactory creates a fresh build task for each run.
type TaskFactory func(trigger string) TaskInterface
