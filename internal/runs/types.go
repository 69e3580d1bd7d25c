package runs

import (
	"context"
	"time"
)

// RunStatus represents the current status of an analysis run.
type RunStatus string

const (
	// RunStatusRunning indicates the model call is in flight.
	RunStatusRunning RunStatus = "RUNNING"
	// RunStatusSucceeded indicates the analysis set was replaced.
	RunStatusSucceeded RunStatus = "SUCCEEDED"
	// RunStatusFailed indicates the run was absorbed and the prior set kept.
	RunStatusFailed RunStatus = "FAILED"
)

// Run is the operator-facing record of one analysis run.
type Run struct {
	// RunID is the unique identifier for this run.
	RunID string `json:"run_id"`

	// Model is the model identifier used for generation.
	Model string `json:"model"`

	// Status is the current status of the run.
	Status RunStatus `json:"status"`

	// TransactionCount is the number of transactions sent to the model.
	TransactionCount int `json:"transaction_count"`

	// AnalysisCount is the number of analyses that replaced the prior set.
	AnalysisCount int `json:"analysis_count"`

	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`

	// ErrorKind is one of transport, schema_violation, empty_result or unknown.
	ErrorKind string `json:"error_kind,omitempty"`

	// Error contains error details if the run failed.
	Error string `json:"error,omitempty"`
}

// ModelOutput is the raw text returned by the model for a run.
type ModelOutput struct {
	OutputID  string    `json:"output_id"`
	RunID     string    `json:"run_id"`
	Model     string    `json:"model"`
	RawText   string    `json:"raw_text"`
	CreatedAt time.Time `json:"created_at"`
}

// RunFilter defines filtering criteria for listing runs.
type RunFilter struct {
	// Status filters runs by status.
	Status RunStatus

	// Limit limits the number of results.
	Limit int
}

// Recorder stores analysis run diagnostics.
// Implementations exist for memory and BigQuery.
type Recorder interface {
	// StartRun saves a new run with status RUNNING.
	StartRun(ctx context.Context, run *Run) error

	// MarkRunFailed sets status FAILED with the error kind and message.
	// Failures are logged, not returned.
	MarkRunFailed(ctx context.Context, runID, errorKind string, runErr error)

	// MarkRunSucceeded sets status SUCCEEDED with the number of analyses produced.
	MarkRunSucceeded(ctx context.Context, runID string, analysisCount int) error

	// InsertModelOutput stores the raw model text of a run.
	InsertModelOutput(ctx context.Context, out *ModelOutput) error

	// ListRuns returns runs, newest first.
	ListRuns(ctx context.Context, filter RunFilter) ([]*Run, error)
}

// TruncateError keeps stored error messages bounded.
func TruncateError(err error) string {
	if err == nil {
		return ""
	}
	msg := err.Error()
	const maxLen = 2000
	if len(msg) > maxLen {
		msg = msg[:maxLen]
	}
	return msg
}
