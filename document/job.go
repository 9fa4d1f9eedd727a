package document

import (
	"time"

	"github.com/xraph/cosmoq/id"
)

// JobState represents the lifecycle state of a job record.
type JobState string

const (
	// JobEnqueued means the job is waiting in its queue.
	JobEnqueued JobState = "enqueued"
	// JobScheduled means the job is waiting for its run-at time.
	JobScheduled JobState = "scheduled"
	// JobProcessing means a server is currently executing the job.
	JobProcessing JobState = "processing"
	// JobSucceeded means the job finished successfully.
	JobSucceeded JobState = "succeeded"
	// JobFailed means the job failed and will not be retried.
	JobFailed JobState = "failed"
	// JobDeleted means the job was removed without running.
	JobDeleted JobState = "deleted"
)

// Job is a background job record. Queue is its routing field: all jobs of
// one queue share a partition, so queue-scoped fetches are single-partition.
type Job struct {
	ID         id.JobID          `json:"id"`
	Name       string            `json:"name"`
	Queue      string            `json:"queue"`
	Payload    []byte            `json:"payload"`
	State      JobState          `json:"state"`
	Priority   int               `json:"priority"`
	MaxRetries int               `json:"max_retries"`
	RetryCount int               `json:"retry_count"`
	LastError  string            `json:"last_error,omitempty"`
	ServerID   id.ServerID       `json:"server_id,omitempty"`
	Parameters map[string]string `json:"parameters,omitempty"`
	RunAt      time.Time         `json:"run_at"`
	StartedAt  *time.Time        `json:"started_at,omitempty"`
	FinishedAt *time.Time        `json:"finished_at,omitempty"`
	ExpireAt   *time.Time        `json:"expire_at,omitempty"`
	CreatedAt  time.Time         `json:"created_at"`
}

// Kind returns KindJob.
func (*Job) Kind() Kind { return KindJob }

// RoutingKey returns the queue name.
func (j *Job) RoutingKey() string { return j.Queue }
