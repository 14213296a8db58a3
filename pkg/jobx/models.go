package jobx

import (
	"encoding/json"
	"time"
)

// State is a job's lifecycle state in the backend.
type State string

const (
	StateQueued    State = "queued"
	StateRunning   State = "running"
	StateSucceeded State = "succeeded"
	StateFailed    State = "failed"
	StateRetrying  State = "retrying"
)

// Job is a unit of work to enqueue. Payload is an opaque JSON document owned
// by the handler.
type Job struct {
	Type    string          `json:"type"`
	Queue   string          `json:"queue"`
	Payload json.RawMessage `json:"payload"`

	// MaxAttempts bounds total executions, first run included. Zero means
	// the default of 3.
	MaxAttempts int `json:"max_attempts"`
}

// Record is the stored representation of a job.
type Record struct {
	ID          string          `json:"id"`
	Type        string          `json:"type"`
	Queue       string          `json:"queue"`
	Payload     json.RawMessage `json:"payload"`
	State       State           `json:"state"`
	Result      json.RawMessage `json:"result,omitempty"`
	LastError   string          `json:"last_error,omitempty"`
	MaxAttempts int             `json:"max_attempts"`
	Attempts    int             `json:"attempts"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}
