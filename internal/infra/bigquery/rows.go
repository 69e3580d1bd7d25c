package bigquery

import (
	"time"

	"cloud.google.com/go/bigquery"
	"github.com/dvloznov/smartpause/internal/runs"
)

// AnalysisRunRow is one row of analysis_runs.
type AnalysisRunRow struct {
	RunID string `bigquery:"run_id"` // REQUIRED
	Model string `bigquery:"model"`  // REQUIRED

	Status           string `bigquery:"status"`            // REQUIRED
	TransactionCount int64  `bigquery:"transaction_count"` // REQUIRED
	AnalysisCount    int64  `bigquery:"analysis_count"`    // REQUIRED

	StartedTS  time.Time              `bigquery:"started_ts"`  // REQUIRED
	FinishedTS bigquery.NullTimestamp `bigquery:"finished_ts"` // NULLABLE

	ErrorKind    bigquery.NullString `bigquery:"error_kind"`    // NULLABLE
	ErrorMessage bigquery.NullString `bigquery:"error_message"` // NULLABLE
}

// ModelOutputRow is one row of model_outputs.
type ModelOutputRow struct {
	OutputID  string    `bigquery:"output_id"`  // REQUIRED
	RunID     string    `bigquery:"run_id"`     // REQUIRED
	ModelName string    `bigquery:"model_name"` // REQUIRED
	RawText   string    `bigquery:"raw_text"`   // REQUIRED
	CreatedTS time.Time `bigquery:"created_ts"` // REQUIRED
}

func (r *AnalysisRunRow) toRun() *runs.Run {
	run := &runs.Run{
		RunID:            r.RunID,
		Model:            r.Model,
		Status:           runs.RunStatus(r.Status),
		TransactionCount: int(r.TransactionCount),
		AnalysisCount:    int(r.AnalysisCount),
		StartedAt:        r.StartedTS,
		ErrorKind:        r.ErrorKind.StringVal,
		Error:            r.ErrorMessage.StringVal,
	}
	if r.FinishedTS.Valid {
		finished := r.FinishedTS.Timestamp
		run.FinishedAt = &finished
	}
	return run
}
