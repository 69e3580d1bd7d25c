package main

import (
	"fmt"

	infraBQ "github.com/dvloznov/smartpause/internal/infra/bigquery"
	"github.com/spf13/cobra"
)

func newMigrateCmd(g *globalFlags) *cobra.Command {
	var projectID, datasetID string

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Create the BigQuery run history tables if they do not exist",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := g.load(cmd)
			if err != nil {
				return err
			}
			if projectID == "" {
				projectID = cfg.Runs.ProjectID
			}
			if datasetID == "" {
				datasetID = cfg.Runs.Dataset
			}
			if projectID == "" {
				return fmt.Errorf("--project is required (or set runs.project_id)")
			}

			rec, err := infraBQ.NewRecorder(commandContext(cmd), projectID, datasetID, log)
			if err != nil {
				return err
			}
			defer rec.Close()

			if err := rec.EnsureTables(commandContext(cmd)); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Tables ready in %s.%s\n", projectID, datasetID)
			return nil
		},
	}

	cmd.Flags().StringVar(&projectID, "project", "", "GCP project ID (default: runs.project_id)")
	cmd.Flags().StringVar(&datasetID, "dataset", "", "BigQuery dataset ID (default: runs.dataset)")
	return cmd
}
