package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aellingwood/folio/internal/scriptpdf"
)

var scriptCmd = &cobra.Command{
	Use:   "script",
	Short: "Render the script PDF",
	Long:  "Lay out the script data file as an A4 PDF document.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		sc := &cfg.Script
		if cmd.Flags().Changed("data") {
			sc.Data, _ = cmd.Flags().GetString("data")
		}

		s, err := scriptpdf.Load(sc.Data)
		if err != nil {
			return err
		}

		// The flag wins over the data file, which wins over the config.
		output := sc.Output
		if s.Output != "" {
			output = s.Output
		}
		if cmd.Flags().Changed("output") {
			output, _ = cmd.Flags().GetString("output")
		}

		pages, err := scriptpdf.Write(s, output)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "PDF generated successfully: %s (%d pages)\n", output, pages)
		return nil
	},
}

func init() {
	scriptCmd.Flags().String("data", "", "script data file (YAML, JSON or TOML)")
	scriptCmd.Flags().StringP("output", "o", "", "output PDF path")

	rootCmd.AddCommand(scriptCmd)
}
