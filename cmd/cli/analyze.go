package main

import (
	"fmt"
	"os"

	"github.com/dvloznov/smartpause/internal/pipeline"
	"github.com/spf13/cobra"
)

func newAnalyzeCmd(g *globalFlags) *cobra.Command {
	var outputPath string

	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Run one analysis synchronously and print the result",
		Long: "Runs the analysis generator once over the transaction store. " +
			"On failure the bootstrap set is kept and reported, and the command exits non-zero.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := g.validateFormat(); err != nil {
				return err
			}
			a, err := g.openApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			res, err := a.Runner.Run(commandContext(cmd))
			if err != nil {
				return err
			}

			analyses := a.State.Analyses()
			if outputPath != "" {
				f, err := os.Create(outputPath)
				if err != nil {
					return fmt.Errorf("create output: %w", err)
				}
				if err := writeJSON(f, analyses); err != nil {
					f.Close()
					return fmt.Errorf("write output: %w", err)
				}
				if err := f.Close(); err != nil {
					return fmt.Errorf("close output: %w", err)
				}
			}

			out := cmd.OutOrStdout()
			if g.jsonOutput() {
				if err := writeJSON(out, map[string]interface{}{
					"run":              res,
					"analyses":         analyses,
					"recoverableSpend": a.State.RecoverableSpend(),
				}); err != nil {
					return err
				}
			} else {
				fmt.Fprintf(out, "Run %s: model=%s replaced=%v\n\n", res.RunID, a.Config.Gemini.AnalysisModel, res.Replaced)
				if err := printSummary(out, pipeline.Summarize(analyses)); err != nil {
					return err
				}
			}

			if !res.Replaced {
				return fmt.Errorf("analysis run %s failed (%s): %w", res.RunID, res.ErrorKind, res.Err)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "Also write the resulting analyses to this JSON file")
	return cmd
}
