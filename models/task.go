package models

import (
	"time"
)

type TaskState string

const (
	StateQueued     TaskState = "queued"
	StateRunning    TaskState = "downloading"
	StateConverting TaskState = "converting"
	StateReady      TaskState = "ready"
	StateError      TaskState = "error"
)

// IsTerminal reports whether no further transition may leave the state.
func (s TaskState) IsTerminal() bool {
	return s == StateReady || s == StateError
}

func (s TaskState) String() string {
	return string(s)
}

// DownloadRequest is the immutable submission payload a task was created for.
type DownloadRequest struct {
	URL        string
	VideoID    string
	Quality    string
	FormatKind string
}

// TaskResult is populated only in StateReady.
type TaskResult struct {
	FilePath string
	Filename string
	Title    string
	Expiry   time.Time
}

// Task is the in-memory view of one submission. It lives only in the
// registry and is lost on process restart; once ready, the durable Record
// supersedes it.
type Task struct {
	ID        string
	State     TaskState
	Progress  int
	Request   DownloadRequest
	Result    *TaskResult
	Failure   string
	CreatedAt time.Time
}

// Record is the durable row written for a finished artifact. It is created
// exactly once by the executor and deleted exactly once by the collector.
type Record struct {
	ID              string
	VideoID         string
	Title           string
	FilePath        string
	DurationSeconds int64
	ExpiresAt       time.Time
	FormatInfo      string
	CreatedAt       time.Time
}
