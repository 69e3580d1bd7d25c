package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/dvloznov/smartpause/internal/domain"
	"github.com/dvloznov/smartpause/internal/runs"
	"github.com/rs/zerolog"
)

// RunStep is a single step of an analysis run.
type RunStep interface {
	Execute(ctx context.Context, st *RunState) error
}

// RunState holds the data shared by the steps of one run.
type RunState struct {
	RunID        string
	Model        string
	Transactions []domain.Transaction
	Output       *Output
	OutputStored bool
	Version      uint64
}

// AnalysisStore receives a successful result. state.Store implements it.
type AnalysisStore interface {
	ReplaceAnalyses(next []domain.SubscriptionAnalysis) uint64
}

// Step 1: StartRunStep records the run as RUNNING. Recorder errors are logged only.
type StartRunStep struct {
	Recorder Recorder
	Log      zerolog.Logger
}

func (s *StartRunStep) Execute(ctx context.Context, st *RunState) error {
	err := s.Recorder.StartRun(ctx, &runs.Run{
		RunID:            st.RunID,
		Model:            st.Model,
		TransactionCount: len(st.Transactions),
	})
	if err != nil {
		s.Log.Error().Err(err).Str("run_id", st.RunID).Msg("Failed to record run start")
	}
	return nil
}

// Step 2: GenerateStep calls the generator. A partial output is kept for diagnostics.
// A positive Timeout bounds the model call only; later steps keep the run context.
type GenerateStep struct {
	Generator *Generator
	Timeout   time.Duration
}

func (s *GenerateStep) Execute(ctx context.Context, st *RunState) error {
	if s.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.Timeout)
		defer cancel()
	}
	out, err := s.Generator.Generate(ctx, st.Transactions)
	st.Output = out
	return err
}

// Step 3: StoreModelOutputStep keeps the raw model text. Recorder errors are logged only.
type StoreModelOutputStep struct {
	Recorder Recorder
	Log      zerolog.Logger
}

func (s *StoreModelOutputStep) Execute(ctx context.Context, st *RunState) error {
	storeModelOutput(ctx, s.Recorder, s.Log, st)
	return nil
}

// Step 4: ReplaceAnalysesStep swaps the new sequence into the store.
type ReplaceAnalysesStep struct {
	Store AnalysisStore
}

func (s *ReplaceAnalysesStep) Execute(ctx context.Context, st *RunState) error {
	if st.Output == nil || len(st.Output.Analyses) == 0 {
		return fmt.Errorf("ReplaceAnalysesStep: %w", ErrEmptyResult)
	}
	st.Version = s.Store.ReplaceAnalyses(st.Output.Analyses)
	return nil
}

// Step 5: MarkSuccessStep marks the run as SUCCEEDED. Recorder errors are logged only.
type MarkSuccessStep struct {
	Recorder Recorder
	Log      zerolog.Logger
}

func (s *MarkSuccessStep) Execute(ctx context.Context, st *RunState) error {
	if err := s.Recorder.MarkRunSucceeded(ctx, st.RunID, len(st.Output.Analyses)); err != nil {
		s.Log.Error().Err(err).Str("run_id", st.RunID).Msg("Failed to mark run succeeded")
	}
	return nil
}

func storeModelOutput(ctx context.Context, rec Recorder, log zerolog.Logger, st *RunState) {
	if st.Output == nil || st.OutputStored {
		return
	}
	st.OutputStored = true
	err := rec.InsertModelOutput(ctx, &runs.ModelOutput{
		RunID:   st.RunID,
		Model:   st.Model,
		RawText: st.Output.RawText,
	})
	if err != nil {
		log.Error().Err(err).Str("run_id", st.RunID).Msg("Failed to store model output")
	}
}

// Pipeline executes a sequence of steps in order, stopping at the first error.
type Pipeline struct {
	steps []RunStep
}

// NewPipeline creates a new pipeline with the given steps.
func NewPipeline(steps ...RunStep) *Pipeline {
	return &Pipeline{steps: steps}
}

// Execute runs all steps sequentially.
func (p *Pipeline) Execute(ctx context.Context, st *RunState) error {
	for i, step := range p.steps {
		if err := step.Execute(ctx, st); err != nil {
			return fmt.Errorf("run step %d failed: %w", i+1, err)
		}
	}
	return nil
}

// NewAnalysisPipeline creates the standard 5-step analysis run.
func NewAnalysisPipeline(gen *Generator, timeout time.Duration, store AnalysisStore, rec Recorder, log zerolog.Logger) *Pipeline {
	return NewPipeline(
		&StartRunStep{Recorder: rec, Log: log},
		&GenerateStep{Generator: gen, Timeout: timeout},
		&StoreModelOutputStep{Recorder: rec, Log: log},
		&ReplaceAnalysesStep{Store: store},
		&MarkSuccessStep{Recorder: rec, Log: log},
	)
}
