package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"catalogdeck/internal/config"
	"catalogdeck/internal/pipeline"
)

func newCheckCmd(s *settings) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Validate the catalog, stock sheet and template without generating",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			profile, err := config.LoadProfile(s.profilePath)
			if err != nil {
				return err
			}

			res, err := pipeline.Check(s.paths, profile)
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "catalog rows:    %d\n", res.CatalogRows)
			fmt.Fprintf(out, "stock rows:      %d\n", res.StockRows)
			fmt.Fprintf(out, "template slides: %d\n", res.TemplateSlides)
			if len(res.TemplateTokens) > 0 {
				fmt.Fprintf(out, "template tokens: %s\n", strings.Join(res.TemplateTokens, " "))
			}
			if len(res.UnusedTokens) > 0 {
				fmt.Fprintf(out, "not on template: %s\n", strings.Join(res.UnusedTokens, " "))
			}
			return err
		},
	}
}
