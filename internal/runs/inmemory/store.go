package inmemory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/dvloznov/smartpause/internal/runs"
	"github.com/google/uuid"
)

// Store is an in-memory implementation of runs.Recorder.
// It is safe for concurrent use. Data is lost on restart; use the BigQuery
// recorder when run history must survive.
type Store struct {
	mu      sync.RWMutex
	runs    map[string]*runs.Run
	outputs map[string]*runs.ModelOutput // keyed by run ID
	now     func() time.Time
}

// NewStore creates a new in-memory run store.
func NewStore() *Store {
	return &Store{
		runs:    make(map[string]*runs.Run),
		outputs: make(map[string]*runs.ModelOutput),
		now:     time.Now,
	}
}

// StartRun implements runs.Recorder.
func (s *Store) StartRun(ctx context.Context, run *runs.Run) error {
	if run.RunID == "" {
		return fmt.Errorf("run ID is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	runCopy := *run
	runCopy.Status = runs.RunStatusRunning
	if runCopy.StartedAt.IsZero() {
		runCopy.StartedAt = s.now()
	}
	s.runs[run.RunID] = &runCopy
	return nil
}

// MarkRunFailed implements runs.Recorder.
func (s *Store) MarkRunFailed(ctx context.Context, runID, errorKind string, runErr error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	run, ok := s.runs[runID]
	if !ok {
		return
	}
	finished := s.now()
	run.Status = runs.RunStatusFailed
	run.FinishedAt = &finished
	run.ErrorKind = errorKind
	run.Error = runs.TruncateError(runErr)
}

// MarkRunSucceeded implements runs.Recorder.
func (s *Store) MarkRunSucceeded(ctx context.Context, runID string, analysisCount int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	run, ok := s.runs[runID]
	if !ok {
		return fmt.Errorf("run not found: %s", runID)
	}
	finished := s.now()
	run.Status = runs.RunStatusSucceeded
	run.FinishedAt = &finished
	run.AnalysisCount = analysisCount
	run.ErrorKind = ""
	run.Error = ""
	return nil
}

// InsertModelOutput implements runs.Recorder.
func (s *Store) InsertModelOutput(ctx context.Context, out *runs.ModelOutput) error {
	if out.RunID == "" {
		return fmt.Errorf("run ID is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	outCopy := *out
	if outCopy.OutputID == "" {
		outCopy.OutputID = uuid.NewString()
	}
	if outCopy.CreatedAt.IsZero() {
		outCopy.CreatedAt = s.now()
	}
	s.outputs[out.RunID] = &outCopy
	return nil
}

// ModelOutput returns the stored raw output for a run.
func (s *Store) ModelOutput(runID string) (*runs.ModelOutput, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out, ok := s.outputs[runID]
	if !ok {
		return nil, false
	}
	outCopy := *out
	return &outCopy, true
}

// ListRuns implements runs.Recorder.
func (s *Store) ListRuns(ctx context.Context, filter runs.RunFilter) ([]*runs.Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*runs.Run, 0, len(s.runs))
	for _, run := range s.runs {
		if filter.Status != "" && run.Status != filter.Status {
			continue
		}
		runCopy := *run
		result = append(result, &runCopy)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].StartedAt.After(result[j].StartedAt)
	})

	if filter.Limit > 0 && filter.Limit < len(result) {
		result = result[:filter.Limit]
	}
	return result, nil
}

// Ensure Store implements runs.Recorder.
var _ runs.Recorder = (*Store)(nil)
