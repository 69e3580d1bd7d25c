package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/dvloznov/smartpause/internal/domain"
	"github.com/spf13/cobra"
)

func newAssetsCmd(g *globalFlags) *cobra.Command {
	var saveDir string

	cmd := &cobra.Command{
		Use:   "assets",
		Short: "Fetch the brand mark and hero image through the cache and report hit or miss",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := g.validateFormat(); err != nil {
				return err
			}
			a, err := g.openApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			type result struct {
				Kind   domain.AssetKind `json:"kind"`
				Cached bool             `json:"cached"`
				Bytes  int              `json:"bytes,omitempty"`
				Error  string           `json:"error,omitempty"`
			}

			var results []result
			failed := 0
			for _, kind := range domain.AssetKinds {
				payload, cached, err := a.Assets.FetchWithSource(commandContext(cmd), kind)
				if err != nil {
					failed++
					results = append(results, result{Kind: kind, Error: err.Error()})
					continue
				}
				mimeType, data, err := domain.DecodeDataURI(payload)
				if err != nil {
					failed++
					results = append(results, result{Kind: kind, Cached: cached, Error: err.Error()})
					continue
				}
				results = append(results, result{Kind: kind, Cached: cached, Bytes: len(data)})

				if saveDir != "" {
					path := filepath.Join(saveDir, string(kind)+extensionFor(mimeType))
					if err := os.WriteFile(path, data, 0o644); err != nil {
						return fmt.Errorf("save %s: %w", kind, err)
					}
				}
			}

			out := cmd.OutOrStdout()
			if g.jsonOutput() {
				if err := writeJSON(out, results); err != nil {
					return err
				}
			} else {
				for _, r := range results {
					switch {
					case r.Error != "":
						fmt.Fprintf(out, "%-12s failed: %s\n", r.Kind, r.Error)
					case r.Cached:
						fmt.Fprintf(out, "%-12s hit   %d bytes\n", r.Kind, r.Bytes)
					default:
						fmt.Fprintf(out, "%-12s miss  %d bytes (generated)\n", r.Kind, r.Bytes)
					}
				}
			}

			if failed > 0 {
				return fmt.Errorf("%d of %d assets unavailable", failed, len(domain.AssetKinds))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&saveDir, "save", "", "Directory to write the decoded images to")
	return cmd
}

func extensionFor(mimeType string) string {
	switch mimeType {
	case "image/jpeg":
		return ".jpg"
	case "image/webp":
		return ".webp"
	default:
		return ".png"
	}
}
