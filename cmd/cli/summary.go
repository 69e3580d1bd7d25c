package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/dvloznov/smartpause/internal/domain"
	"github.com/dvloznov/smartpause/internal/pipeline"
	"github.com/spf13/cobra"
)

func newSummaryCmd(g *globalFlags) *cobra.Command {
	var analysesPath string

	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Summarize recoverable spend for the bootstrap set or a saved analysis file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := g.validateFormat(); err != nil {
				return err
			}

			analyses := pipeline.Bootstrap()
			if analysesPath != "" {
				loaded, err := readAnalyses(analysesPath)
				if err != nil {
					return err
				}
				analyses = loaded
			}

			s := pipeline.Summarize(analyses)
			if g.jsonOutput() {
				return writeJSON(cmd.OutOrStdout(), s)
			}
			return printSummary(cmd.OutOrStdout(), s)
		},
	}

	cmd.Flags().StringVarP(&analysesPath, "analyses", "a", "", "JSON file written by 'analyze --output' (default: bootstrap set)")
	return cmd
}

func readAnalyses(path string) ([]domain.SubscriptionAnalysis, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read analyses: %w", err)
	}
	var analyses []domain.SubscriptionAnalysis
	if err := json.Unmarshal(data, &analyses); err != nil {
		return nil, fmt.Errorf("decode analyses %s: %w", path, err)
	}
	for i := range analyses {
		if err := analyses[i].Validate(); err != nil {
			return nil, fmt.Errorf("analysis %d (%s): %w", i, analyses[i].Name, err)
		}
	}
	return analyses, nil
}

func printSummary(w io.Writer, s pipeline.Summary) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tREGRET\tRECOVERABLE\tREPORTED WASTE")
	for _, it := range s.Items {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", it.Name, it.RegretProbability, it.Recoverable.StringFixed(2), it.WastedSpendEstimate.StringFixed(2))
	}
	fmt.Fprintln(tw)
	fmt.Fprintf(tw, "Analyses:\t%d\n", s.AnalysisCount)
	for _, level := range domain.RegretLevels {
		fmt.Fprintf(tw, "%s regret:\t%d\n", level, s.ByRegret[level])
	}
	fmt.Fprintf(tw, "Total recoverable spend:\t%s\n", s.RecoverableSpend.StringFixed(2))
	return tw.Flush()
}
