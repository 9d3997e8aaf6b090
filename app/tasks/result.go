package tasks

import (
	"time"
)

// Result summarizes one pipeline run.
type Result struct {
	StartedAt     time.Time     `json:"started_at"`
	Sources       int           `json:"sources"`
	FailedSources int           `json:"failed_sources"`
	Extracted     int           `json:"extracted"`
	Qualified     int           `json:"qualified"`
	Duplicates    int           `json:"duplicates"`
	New           int           `json:"new"`
	Written       int           `json:"written"`
	Seen          int           `json:"seen"`
	Duration      time.Duration `json:"duration"`
}

// RunStatus is what the scheduler remembers about the last finished task.
type RunStatus struct {
	TaskID     string    `json:"task_id"`
	Trigger    string    `json:"trigger"`
	FinishedAt time.Time `json:"finished_at"`
	Success    bool      `json:"success"`
	Error      string    `json:"error,omitempty"`
	Result     *Result   `json:"result,omitempty"`
}
