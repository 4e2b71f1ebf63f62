package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// JobStatus represents the lifecycle state of an import job.
type JobStatus string

// Possible job status values. Completed and failed are terminal.
const (
	JobStatusProcessing JobStatus = "processing"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
)

// ImportMode selects how imported records interact with existing questions.
type ImportMode string

// Supported import modes.
const (
	ImportModeAdd     ImportMode = "add"
	ImportModeReplace ImportMode = "replace"
)

// JobTokenPrefix prefixes every externally visible job token.
const JobTokenPrefix = "imp_"

// Job-level failure messages.
const (
	MsgAllChunksFailed = "all chunks failed"
	MsgNoValidChunk    = "content has no valid chunk"
	MsgJobTimeout      = "import job timeout"
	MsgQueueFull       = "import queue is full"
)

var (
	ErrEmptyJobToken     = errors.New("import job token cannot be empty")
	ErrNegativeCounter   = errors.New("import job counters cannot be negative")
	ErrCounterMismatch   = errors.New("processed chunks must equal successful plus failed chunks")
	ErrProcessedOverflow = errors.New("processed chunks exceed total chunks")
)

// Job is one asynchronous import request. Its counters track how many chunks
// have concluded; ProcessedChunks always equals SuccessChunks + FailedChunks.
type Job struct {
	ID              int64      `json:"-"`
	Token           string     `json:"id"`
	Mode            ImportMode `json:"mode"`
	Status          JobStatus  `json:"status"`
	TotalChunks     int        `json:"total_chunks"`
	ProcessedChunks int        `json:"processed_chunks"`
	SuccessChunks   int        `json:"success_chunks"`
	FailedChunks    int        `json:"failed_chunks"`
	StartedAt       time.Time  `json:"started_at"`
	EndedAt         *time.Time `json:"ended_at,omitempty"`
	ErrorMessage    string     `json:"error_message,omitempty"`
}

// NewJob creates a processing job with a fresh correlation token.
// Unknown or empty modes fall back to add.
func NewJob(mode ImportMode) *Job {
	return &Job{
		Token:     NewJobToken(),
		Mode:      NormalizeMode(string(mode)),
		Status:    JobStatusProcessing,
		StartedAt: time.Now().UTC(),
	}
}

// NewJobToken returns an opaque job token.
func NewJobToken() string {
	return JobTokenPrefix + strings.ReplaceAll(uuid.NewString(), "-", "")
}

// NormalizeMode maps a raw mode string onto a supported ImportMode.
func NormalizeMode(raw string) ImportMode {
	if ImportMode(strings.ToLower(strings.TrimSpace(raw))) == ImportModeReplace {
		return ImportModeReplace
	}
	return ImportModeAdd
}

// ParseMode is the strict variant of NormalizeMode: empty means add, anything
// other than add or replace is rejected.
func ParseMode(raw string) (ImportMode, error) {
	switch ImportMode(strings.ToLower(strings.TrimSpace(raw))) {
	case "", ImportModeAdd:
		return ImportModeAdd, nil
	case ImportModeReplace:
		return ImportModeReplace, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidMode, raw)
	}
}

// Validate checks the job's fields and counter invariants.
func (j *Job) Validate() error {
	if j.Token == "" {
		return ErrEmptyJobToken
	}
	if j.Mode != ImportModeAdd && j.Mode != ImportModeReplace {
		return ErrInvalidMode
	}
	if !IsValidJobStatus(j.Status) {
		return ErrInvalidJobStatus
	}
	if j.TotalChunks < 0 || j.ProcessedChunks < 0 || j.SuccessChunks < 0 || j.FailedChunks < 0 {
		return ErrNegativeCounter
	}
	if j.ProcessedChunks != j.SuccessChunks+j.FailedChunks {
		return ErrCounterMismatch
	}
	if j.TotalChunks > 0 && j.ProcessedChunks > j.TotalChunks {
		return ErrProcessedOverflow
	}
	return nil
}

// IsTerminal reports whether the job has reached completed or failed.
func (j *Job) IsTerminal() bool {
	return j.Status == JobStatusCompleted || j.Status == JobStatusFailed
}

// FinalStatus applies the finalisation rule: a job fails only when no chunk
// succeeded and at least one failed. A job that produced zero outcomes counts
// as completed.
func (j *Job) FinalStatus() (JobStatus, string) {
	if j.SuccessChunks == 0 && j.FailedChunks > 0 {
		return JobStatusFailed, MsgAllChunksFailed
	}
	return JobStatusCompleted, ""
}

// Percentage returns processed/total as a percentage, 0 while the total is unknown.
func (j *Job) Percentage() float64 {
	if j.TotalChunks <= 0 {
		return 0
	}
	return float64(j.ProcessedChunks) * 100 / float64(j.TotalChunks)
}

// Duration returns the elapsed run time, measured to now while processing.
func (j *Job) Duration(now time.Time) time.Duration {
	end := now
	if j.EndedAt != nil {
		end = *j.EndedAt
	}
	d := end.Sub(j.StartedAt)
	if d < 0 {
		return 0
	}
	return d
}

// IsValidJobStatus checks if the given status is a valid JobStatus.
func IsValidJobStatus(status JobStatus) bool {
	switch status {
	case JobStatusProcessing, JobStatusCompleted, JobStatusFailed:
		return true
	default:
		return false
	}
}
