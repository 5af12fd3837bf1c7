package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aellingwood/folio/internal/deck"
)

var presentCmd = &cobra.Command{
	Use:   "present",
	Short: "Render presentation pages from Markdown decks",
	Long: "Render every Markdown deck in the decks directory to a standalone HTML\n" +
		"presentation page.",
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		dc := &cfg.Decks
		if cmd.Flags().Changed("dir") {
			dc.Dir, _ = cmd.Flags().GetString("dir")
		}
		if cmd.Flags().Changed("output-dir") {
			dc.OutputDir, _ = cmd.Flags().GetString("output-dir")
		}
		if cmd.Flags().Changed("style") {
			dc.HighlightStyle, _ = cmd.Flags().GetString("style")
		}

		results, err := deck.BuildAll(dc.Dir, dc.OutputDir, deck.Options{HighlightStyle: dc.HighlightStyle})
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if len(results) == 0 {
			fmt.Fprintf(out, "No decks found in %s\n", dc.Dir)
			return nil
		}
		failed := 0
		for _, res := range results {
			if res.Err != nil {
				failed++
				fmt.Fprintf(out, "Failed to render %s: %v\n", displayPath(dc.Dir, res.Source), res.Err)
				continue
			}
			fmt.Fprintf(out, "Generated %s (%d slides)\n", res.Output, res.Slides)
		}

		if failOnError, _ := cmd.Flags().GetBool("fail-on-error"); failOnError && failed > 0 {
			return fmt.Errorf("%d of %d decks failed", failed, len(results))
		}
		return nil
	},
}

func init() {
	presentCmd.Flags().String("dir", "", "directory of Markdown decks")
	presentCmd.Flags().StringP("output-dir", "o", "", "directory for generated pages")
	presentCmd.Flags().String("style", "", "chroma style for code blocks")
	presentCmd.Flags().Bool("fail-on-error", false, "exit non-zero when any deck fails")

	rootCmd.AddCommand(presentCmd)
}
