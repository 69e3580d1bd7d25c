package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/dvloznov/smartpause/internal/app"
	"github.com/dvloznov/smartpause/internal/config"
	"github.com/dvloznov/smartpause/internal/logger"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

type globalFlags struct {
	configPath   string
	transactions string
	format       string
	logLevel     string
}

func newRootCmd() *cobra.Command {
	g := &globalFlags{}

	root := &cobra.Command{
		Use:           "smartpause",
		Short:         "Behavioral analysis of recurring payments",
		Long:          "Operator CLI for SmartPause: inspect transactions, run an analysis, summarize recoverable spend and warm the asset cache.",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	root.PersistentFlags().StringVarP(&g.configPath, "config", "c", "", "Path to YAML config (default: $SMARTPAUSE_CONFIG)")
	root.PersistentFlags().StringVarP(&g.transactions, "transactions", "t", "", "Transaction source: local JSON file or gs:// URI")
	root.PersistentFlags().StringVarP(&g.format, "format", "f", "text", "Output format: text or json")
	root.PersistentFlags().StringVar(&g.logLevel, "log-level", "", "Log level override (debug, info, warn, error)")

	root.AddCommand(
		newTransactionsCmd(g),
		newSummaryCmd(g),
		newAnalyzeCmd(g),
		newAssetsCmd(g),
		newMigrateCmd(g),
	)
	return root
}

// load resolves configuration and a stderr logger from the global flags.
func (g *globalFlags) load(cmd *cobra.Command) (*config.Config, zerolog.Logger, error) {
	path := g.configPath
	if path == "" {
		path = os.Getenv("SMARTPAUSE_CONFIG")
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, zerolog.Nop(), err
	}
	if g.transactions != "" {
		cfg.Transactions.Source = g.transactions
	}
	if g.logLevel != "" {
		cfg.Log.Level = g.logLevel
	}

	log, err := logger.NewWithOptions(logger.Options{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Writer: cmd.ErrOrStderr(),
	})
	if err != nil {
		return nil, zerolog.Nop(), err
	}
	return cfg, log, nil
}

// openApp builds the full component graph; it needs a Gemini API key.
func (g *globalFlags) openApp(cmd *cobra.Command) (*app.App, error) {
	cfg, log, err := g.load(cmd)
	if err != nil {
		return nil, err
	}
	ctx := logger.WithContext(cmd.Context(), log)
	return app.New(ctx, cfg, log)
}

func (g *globalFlags) jsonOutput() bool {
	return g.format == "json"
}

func (g *globalFlags) validateFormat() error {
	if g.format != "text" && g.format != "json" {
		return fmt.Errorf("--format must be text or json, got %q", g.format)
	}
	return nil
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
