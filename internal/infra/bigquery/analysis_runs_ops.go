package bigquery

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"cloud.google.com/go/bigquery"
	"github.com/dvloznov/smartpause/internal/runs"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/iterator"
)

const (
	analysisRunsTable = "analysis_runs"
	modelOutputsTable = "model_outputs"
)

// Recorder is the BigQuery implementation of runs.Recorder.
// It holds a shared client for all operations.
type Recorder struct {
	client    *bigquery.Client
	projectID string
	datasetID string
	log       zerolog.Logger
	now       func() time.Time
}

// NewRecorder creates a Recorder with its own BigQuery client.
func NewRecorder(ctx context.Context, projectID, datasetID string, log zerolog.Logger) (*Recorder, error) {
	client, err := bigquery.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("NewRecorder: creating client: %w", err)
	}
	return &Recorder{
		client:    client,
		projectID: projectID,
		datasetID: datasetID,
		log:       log,
		now:       time.Now,
	}, nil
}

// Close closes the BigQuery client connection.
func (r *Recorder) Close() error {
	if r.client != nil {
		return r.client.Close()
	}
	return nil
}

// EnsureTables creates analysis_runs and model_outputs when they do not exist.
func (r *Recorder) EnsureTables(ctx context.Context) error {
	tables := []struct {
		name string
		row  interface{}
	}{
		{analysisRunsTable, AnalysisRunRow{}},
		{modelOutputsTable, ModelOutputRow{}},
	}

	ds := r.client.Dataset(r.datasetID)
	for _, t := range tables {
		table := ds.Table(t.name)
		_, err := table.Metadata(ctx)
		if err == nil {
			continue
		}
		if !isNotFound(err) {
			return fmt.Errorf("EnsureTables: reading %s metadata: %w", t.name, err)
		}

		schema, err := bigquery.InferSchema(t.row)
		if err != nil {
			return fmt.Errorf("EnsureTables: inferring %s schema: %w", t.name, err)
		}
		if err := table.Create(ctx, &bigquery.TableMetadata{Schema: schema}); err != nil {
			return fmt.Errorf("EnsureTables: creating %s: %w", t.name, err)
		}
		r.log.Info().Str("table", t.name).Msg("Created BigQuery table")
	}
	return nil
}

func isNotFound(err error) bool {
	var gerr *googleapi.Error
	return errors.As(err, &gerr) && gerr.Code == http.StatusNotFound
}

func (r *Recorder) table(name string) string {
	return "`" + r.projectID + "." + r.datasetID + "." + name + "`"
}

// exec runs a DML statement and waits for it to finish.
func (r *Recorder) exec(ctx context.Context, op, query string, params []bigquery.QueryParameter) error {
	q := r.client.Query(query)
	q.Parameters = params

	job, err := q.Run(ctx)
	if err != nil {
		return fmt.Errorf("%s: running query: %w", op, err)
	}
	status, err := job.Wait(ctx)
	if err != nil {
		return fmt.Errorf("%s: waiting for job: %w", op, err)
	}
	if err := status.Err(); err != nil {
		return fmt.Errorf("%s: job error: %w", op, err)
	}
	return nil
}

// StartRun inserts a row with status=RUNNING.
func (r *Recorder) StartRun(ctx context.Context, run *runs.Run) error {
	if run.RunID == "" {
		return fmt.Errorf("StartRun: run ID is required")
	}
	started := run.StartedAt
	if started.IsZero() {
		started = r.now()
	}

	return r.exec(ctx, "StartRun", `
		INSERT INTO `+r.table(analysisRunsTable)+` (
			run_id, model, status, transaction_count, analysis_count, started_ts
		)
		VALUES (
			@run_id, @model, @status, @transaction_count, 0, @started_ts
		)
	`, []bigquery.QueryParameter{
		{Name: "run_id", Value: run.RunID},
		{Name: "model", Value: run.Model},
		{Name: "status", Value: string(runs.RunStatusRunning)},
		{Name: "transaction_count", Value: run.TransactionCount},
		{Name: "started_ts", Value: started},
	})
}

// MarkRunFailed sets status=FAILED, finished_ts and the error fields.
// Errors are logged, not returned.
func (r *Recorder) MarkRunFailed(ctx context.Context, runID, errorKind string, runErr error) {
	err := r.exec(ctx, "MarkRunFailed", `
		UPDATE `+r.table(analysisRunsTable)+`
		SET status = @status,
		    finished_ts = @finished_ts,
		    error_kind = @error_kind,
		    error_message = @error_message
		WHERE run_id = @run_id
	`, []bigquery.QueryParameter{
		{Name: "status", Value: string(runs.RunStatusFailed)},
		{Name: "finished_ts", Value: r.now()},
		{Name: "error_kind", Value: errorKind},
		{Name: "error_message", Value: runs.TruncateError(runErr)},
		{Name: "run_id", Value: runID},
	})
	if err != nil {
		r.log.Error().
			Err(err).
			Str("run_id", runID).
			Msg("MarkRunFailed: update failed")
	}
}

// MarkRunSucceeded sets status=SUCCEEDED, finished_ts and the analysis count.
func (r *Recorder) MarkRunSucceeded(ctx context.Context, runID string, analysisCount int) error {
	return r.exec(ctx, "MarkRunSucceeded", `
		UPDATE `+r.table(analysisRunsTable)+`
		SET status = @status,
		    finished_ts = @finished_ts,
		    analysis_count = @analysis_count,
		    error_kind = NULL,
		    error_message = NULL
		WHERE run_id = @run_id
	`, []bigquery.QueryParameter{
		{Name: "status", Value: string(runs.RunStatusSucceeded)},
		{Name: "finished_ts", Value: r.now()},
		{Name: "analysis_count", Value: analysisCount},
		{Name: "run_id", Value: runID},
	})
}

// ListRuns returns runs newest first.
func (r *Recorder) ListRuns(ctx context.Context, filter runs.RunFilter) ([]*runs.Run, error) {
	query, params := buildListRunsQuery(r.table(analysisRunsTable), filter)

	q := r.client.Query(query)
	q.Parameters = params
	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("ListRuns: reading query: %w", err)
	}

	var result []*runs.Run
	for {
		var row AnalysisRunRow
		err := it.Next(&row)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("ListRuns: iterating: %w", err)
		}
		result = append(result, row.toRun())
	}
	return result, nil
}

func buildListRunsQuery(table string, filter runs.RunFilter) (string, []bigquery.QueryParameter) {
	var b strings.Builder
	var params []bigquery.QueryParameter

	b.WriteString(`
		SELECT
			run_id, model, status, transaction_count, analysis_count,
			started_ts, finished_ts, error_kind, error_message
		FROM ` + table)
	if filter.Status != "" {
		b.WriteString("\n\t\tWHERE status = @status")
		params = append(params, bigquery.QueryParameter{Name: "status", Value: string(filter.Status)})
	}
	b.WriteString("\n\t\tORDER BY started_ts DESC")
	if filter.Limit > 0 {
		b.WriteString("\n\t\tLIMIT @limit")
		params = append(params, bigquery.QueryParameter{Name: "limit", Value: filter.Limit})
	}
	return b.String(), params
}

// InsertModelOutput stores the raw model text of a run. Uses DML INSERT to avoid
// streaming buffer issues with later reads.
func (r *Recorder) InsertModelOutput(ctx context.Context, out *runs.ModelOutput) error {
	if out.RunID == "" {
		return fmt.Errorf("InsertModelOutput: run ID is required")
	}
	row := newModelOutputRow(out, r.now)

	return r.exec(ctx, "InsertModelOutput", `
		INSERT INTO `+r.table(modelOutputsTable)+` (
			output_id, run_id, model_name, raw_text, created_ts
		)
		VALUES (
			@output_id, @run_id, @model_name, @raw_text, @created_ts
		)
	`, []bigquery.QueryParameter{
		{Name: "output_id", Value: row.OutputID},
		{Name: "run_id", Value: row.RunID},
		{Name: "model_name", Value: row.ModelName},
		{Name: "raw_text", Value: row.RawText},
		{Name: "created_ts", Value: row.CreatedTS},
	})
}

func newModelOutputRow(out *runs.ModelOutput, now func() time.Time) *ModelOutputRow {
	row := &ModelOutputRow{
		OutputID:  out.OutputID,
		RunID:     out.RunID,
		ModelName: out.Model,
		RawText:   out.RawText,
		CreatedTS: out.CreatedAt,
	}
	if row.OutputID == "" {
		row.OutputID = uuid.NewString()
	}
	if row.CreatedTS.IsZero() {
		row.CreatedTS = now()
	}
	return row
}

// Ensure Recorder implements runs.Recorder.
var _ runs.Recorder = (*Recorder)(nil)
