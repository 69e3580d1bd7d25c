// Package app wires configuration into the running components shared by the
// API server and the CLI.
package app

import (
	"context"
	"fmt"

	"github.com/dvloznov/smartpause/internal/assets"
	"github.com/dvloznov/smartpause/internal/config"
	"github.com/dvloznov/smartpause/internal/domain"
	infraBQ "github.com/dvloznov/smartpause/internal/infra/bigquery"
	"github.com/dvloznov/smartpause/internal/kv"
	kvmem "github.com/dvloznov/smartpause/internal/kv/inmemory"
	kvsqlite "github.com/dvloznov/smartpause/internal/kv/sqlite"
	"github.com/dvloznov/smartpause/internal/pipeline"
	"github.com/dvloznov/smartpause/internal/runs"
	runsmem "github.com/dvloznov/smartpause/internal/runs/inmemory"
	"github.com/dvloznov/smartpause/internal/source"
	"github.com/dvloznov/smartpause/internal/state"
	"github.com/rs/zerolog"
)

// App holds the wired components.
type App struct {
	Config       *config.Config
	Log          zerolog.Logger
	Transactions *domain.TransactionStore
	State        *state.Store
	Recorder     runs.Recorder
	Runner       *pipeline.Runner
	Assets       *assets.Cache

	closers []func() error
}

// LoadTransactions resolves the configured transaction source.
func LoadTransactions(ctx context.Context, cfg *config.Config) (*domain.TransactionStore, error) {
	txs, err := source.NewLoader(nil).Load(ctx, cfg.Transactions.Source)
	if err != nil {
		return nil, fmt.Errorf("LoadTransactions: %w", err)
	}
	return txs, nil
}

// New builds every component. The state container starts from the bootstrap set.
func New(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*App, error) {
	if err := cfg.RequireAPIKey(); err != nil {
		return nil, fmt.Errorf("New: %w", err)
	}

	a := &App{Config: cfg, Log: log}

	txs, err := LoadTransactions(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("New: %w", err)
	}
	a.Transactions = txs

	client, err := pipeline.NewGenAIClient(ctx, cfg.Gemini.APIKey, cfg.Gemini.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("New: %w", err)
	}

	recorder, err := a.newRecorder(ctx)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("New: %w", err)
	}
	a.Recorder = recorder

	store, err := a.newKV(ctx)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("New: %w", err)
	}

	a.State = state.New(pipeline.Bootstrap(), pipeline.AggregateRecoverableSpend)

	gen := pipeline.NewGenerator(
		pipeline.NewGeminiAnalysisModel(client, cfg.Gemini.AnalysisModel),
		log.With().Str("component", "generator").Logger(),
	)
	a.Runner = pipeline.NewRunner(gen, txs, a.State, recorder,
		pipeline.RunnerConfig{Timeout: cfg.Gemini.Timeout},
		log.With().Str("component", "runner").Logger(),
	)

	a.Assets = assets.NewCache(store,
		assets.NewGeminiImageModel(client, cfg.Gemini.ImageModel),
		log.With().Str("component", "assets").Logger(),
	)

	return a, nil
}

func (a *App) newRecorder(ctx context.Context) (runs.Recorder, error) {
	switch a.Config.Runs.Backend {
	case config.BackendBigQuery:
		rec, err := infraBQ.NewRecorder(ctx, a.Config.Runs.ProjectID, a.Config.Runs.Dataset,
			a.Log.With().Str("component", "bigquery").Logger())
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, rec.Close)
		if err := rec.EnsureTables(ctx); err != nil {
			return nil, err
		}
		return rec, nil
	default:
		return runsmem.NewStore(), nil
	}
}

func (a *App) newKV(ctx context.Context) (kv.Store, error) {
	switch a.Config.Cache.Backend {
	case config.BackendSQLite:
		s, err := kvsqlite.Open(ctx, a.Config.Cache.Path)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, s.Close)
		return s, nil
	default:
		return kvmem.NewStore(), nil
	}
}

// Close releases storage handles in reverse order of creation.
func (a *App) Close() error {
	var first error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil && first == nil {
			first = err
		}
	}
	a.closers = nil
	return first
}
