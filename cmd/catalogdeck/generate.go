package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"catalogdeck/internal/config"
	"catalogdeck/internal/images"
	"catalogdeck/internal/pipeline"
)

func newGenerateCmd(s *settings) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate <items>",
		Short: "Generate a presentation for a list of item codes",
		Long: `Reads item codes from a file and writes one slide per code.

The file type picks the reader: .xlsx/.xlsm (item column or first column), .pdf, .html,
.eml (body plus spreadsheet and PDF attachments) or plain text with one code per line.
Use "-" to read plain text from stdin.`,
		Example: `  # One code per line
  catalogdeck generate items.txt

  # Codes from a customer mail, custom output
  catalogdeck generate request.eml --out offer.pptx --report offer-report.xlsx

  # Pipe codes in
  printf '03194\n03094-A\n' | catalogdeck generate -`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			profile, err := config.LoadProfile(s.profilePath)
			if err != nil {
				return err
			}

			items, err := pipeline.LoadItems(args[0], cmd.InOrStdin())
			if err != nil {
				return err
			}
			if len(items) == 0 {
				return fmt.Errorf("no item codes found in %s", args[0])
			}
			slog.Info("Items loaded", "source", args[0], "count", len(items))

			fetcher := images.NewFetcher(images.OptionsFromConfig(s.cfg))
			res, err := pipeline.Generate(cmd.Context(), s.paths, profile, fetcher, s.cfg.BatchSize, items)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "generated %d slides to %s\n", res.Slides, s.paths.Output)
			if len(res.Missing) > 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "%d items not in catalog, listed in %s\n", len(res.Missing), s.paths.Missing)
			}
			if len(res.Warnings) > 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "%d fields degraded, see log\n", len(res.Warnings))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&s.paths.Output, "out", "o", "", "output pptx path [OUTPUT_PATH]")
	cmd.Flags().StringVar(&s.paths.Missing, "missing", "", "missing items file [MISSING_ITEMS_PATH]")
	cmd.Flags().StringVar(&s.paths.Report, "report", "", "optional per-item xlsx report [REPORT_PATH]")

	return cmd
}
