package pipeline

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/dvloznov/smartpause/internal/domain"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// RunResult describes the outcome of one analysis run.
type RunResult struct {
	RunID         string `json:"runId"`
	Replaced      bool   `json:"replaced"`
	Version       uint64 `json:"version,omitempty"`
	AnalysisCount int    `json:"analysisCount"`
	ErrorKind     string `json:"errorKind,omitempty"`
	Err           error  `json:"-"`
}

// RunnerConfig configures a Runner.
type RunnerConfig struct {
	// Timeout bounds a single generation call. Zero means no bound.
	Timeout time.Duration
}

// Runner executes analysis runs one at a time.
//
// Generation failures never reach the caller as errors: the store keeps its
// previous sequence and the failure is recorded on the run. The only error
// returned by Run and Start is ErrRunInProgress.
type Runner struct {
	generator *Generator
	txs       *domain.TransactionStore
	store     AnalysisStore
	recorder  Recorder
	timeout   time.Duration
	log       zerolog.Logger

	inFlight atomic.Bool
	newID    func() string
}

// NewRunner creates a Runner over a fixed transaction batch.
func NewRunner(gen *Generator, txs *domain.TransactionStore, store AnalysisStore, rec Recorder, cfg RunnerConfig, log zerolog.Logger) *Runner {
	return &Runner{
		generator: gen,
		txs:       txs,
		store:     store,
		recorder:  rec,
		timeout:   cfg.Timeout,
		log:       log,
		newID:     uuid.NewString,
	}
}

// InFlight reports whether a run is currently executing.
func (r *Runner) InFlight() bool {
	return r.inFlight.Load()
}

// Run executes one analysis run synchronously.
func (r *Runner) Run(ctx context.Context) (RunResult, error) {
	if !r.inFlight.CompareAndSwap(false, true) {
		return RunResult{}, ErrRunInProgress
	}
	defer r.inFlight.Store(false)

	return r.execute(ctx, r.newID()), nil
}

// Start begins a run in the background and returns its ID.
func (r *Runner) Start(ctx context.Context) (string, error) {
	if !r.inFlight.CompareAndSwap(false, true) {
		return "", ErrRunInProgress
	}

	runID := r.newID()
	go func() {
		defer r.inFlight.Store(false)
		r.execute(ctx, runID)
	}()
	return runID, nil
}

func (r *Runner) execute(ctx context.Context, runID string) RunResult {
	ctx = context.WithoutCancel(ctx)

	log := r.log.With().Str("run_id", runID).Logger()
	st := &RunState{
		RunID:        runID,
		Model:        r.generator.Model(),
		Transactions: r.txs.All(),
	}

	log.Info().
		Str("model", st.Model).
		Int("transactions", len(st.Transactions)).
		Msg("Starting analysis run")

	err := NewAnalysisPipeline(r.generator, r.timeout, r.store, r.recorder, log).Execute(ctx, st)
	if err != nil {
		kind := ErrorKind(err)
		storeModelOutput(ctx, r.recorder, log, st)
		r.recorder.MarkRunFailed(ctx, runID, kind, err)

		log.Warn().Err(err).Str("error_kind", kind).Msg("Analysis run failed, keeping previous analyses")
		return RunResult{RunID: runID, ErrorKind: kind, Err: err}
	}

	log.Info().
		Uint64("version", st.Version).
		Int("analyses", len(st.Output.Analyses)).
		Msg("Analysis run succeeded")

	return RunResult{
		RunID:         runID,
		Replaced:      true,
		Version:       st.Version,
		AnalysisCount: len(st.Output.Analyses),
	}
}
