package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"catalogdeck/internal/config"
	"catalogdeck/internal/pipeline"
)

// settings is filled from the environment before any subcommand runs; flags override it.
type settings struct {
	cfg         config.Config
	paths       pipeline.Paths
	profilePath string
}

func newRootCmd() *cobra.Command {
	s := &settings{}

	cmd := &cobra.Command{
		Use:   "catalogdeck",
		Short: "Build product slide decks from a catalog sheet and a pptx template",
		Long: `catalogdeck turns a list of item codes into a presentation.

Every code is looked up in the catalog sheet, its stock variants are summarized from the
stock sheet and the first slide of the template is cloned and filled with the product's
text, links and images. Codes that are not in the catalog still get a slide and are
written to the missing-items file.

Settings come from the environment (a .env file is loaded when present) and can be
overridden with flags.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.SlogLevel()})))

			s.cfg = cfg
			applyDefaults(cmd, s)
			return nil
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&s.paths.Catalog, "catalog", "", "catalog (mapping) xlsx path [MAPPING_FILE_PATH]")
	flags.StringVar(&s.paths.Stock, "stock", "", "stock xlsx path [STOCK_FILE_PATH]")
	flags.StringVar(&s.paths.Template, "template", "", "pptx template path [TEMPLATE_FILE_PATH]")
	flags.StringVar(&s.profilePath, "profile", "", "deck profile yaml [DECK_PROFILE_PATH]")

	cmd.AddCommand(newGenerateCmd(s))
	cmd.AddCommand(newCheckCmd(s))

	return cmd
}

// applyDefaults fills every path flag the user did not set from the loaded config.
func applyDefaults(cmd *cobra.Command, s *settings) {
	fromEnv := pipeline.PathsFromConfig(s.cfg)
	pick := func(flag string, dst *string, fallback string) {
		if f := cmd.Flags().Lookup(flag); f != nil && f.Changed {
			return
		}
		*dst = fallback
	}
	pick("catalog", &s.paths.Catalog, fromEnv.Catalog)
	pick("stock", &s.paths.Stock, fromEnv.Stock)
	pick("template", &s.paths.Template, fromEnv.Template)
	pick("out", &s.paths.Output, fromEnv.Output)
	pick("missing", &s.paths.Missing, fromEnv.Missing)
	pick("report", &s.paths.Report, fromEnv.Report)
	pick("profile", &s.profilePath, s.cfg.ProfilePath)
}
