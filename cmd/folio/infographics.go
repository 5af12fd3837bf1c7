package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aellingwood/folio/internal/content"
	"github.com/aellingwood/folio/internal/image"
	"github.com/aellingwood/folio/internal/infographic"
)

var infographicsCmd = &cobra.Command{
	Use:   "infographics",
	Short: "Render project infographics",
	Long: "Render the infographics described in the infographics data file as PNG images,\n" +
		"optionally converting each one to WebP.",
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		ic := &cfg.Infographics
		if cmd.Flags().Changed("data") {
			ic.Data, _ = cmd.Flags().GetString("data")
		}
		if cmd.Flags().Changed("output-dir") {
			ic.OutputDir, _ = cmd.Flags().GetString("output-dir")
		}
		if cmd.Flags().Changed("webp") {
			ic.WebP, _ = cmd.Flags().GetBool("webp")
		}

		var data infographic.Data
		if err := content.LoadData(ic.Data, &data); err != nil {
			return err
		}
		r, err := infographic.NewRenderer(infographic.Options{
			Width:        ic.Width,
			Height:       ic.Height,
			FontPath:     ic.FontPath,
			BoldFontPath: ic.BoldFontPath,
		})
		if err != nil {
			return err
		}

		var conv *image.Converter
		if ic.WebP {
			opts := imageOptions(cfg)
			opts.Format = "webp"
			opts.OutputDir = ""
			opts.Incremental = false
			root, err := projectRoot()
			if err != nil {
				return err
			}
			if conv, err = image.NewConverter(opts, root); err != nil {
				return err
			}
		}

		out := cmd.OutOrStdout()
		failed := 0
		for _, res := range r.Generate(&data, ic.OutputDir) {
			if res.Err != nil {
				failed++
				fmt.Fprintf(out, "Failed to generate %s: %v\n", nameOr(res.Item.File, res.Item.Title), res.Err)
				continue
			}
			fmt.Fprintf(out, "Generated %s\n", res.Path)
			if conv != nil {
				printResult(out, ic.OutputDir, conv.Convert(res.Path), verbose(cmd))
			}
		}

		if failOnError, _ := cmd.Flags().GetBool("fail-on-error"); failOnError && failed > 0 {
			return fmt.Errorf("%d of %d infographics failed", failed, len(data.Items))
		}
		return nil
	},
}

func init() {
	infographicsCmd.Flags().String("data", "", "infographics data file (YAML, JSON or TOML)")
	infographicsCmd.Flags().StringP("output-dir", "o", "", "directory for generated images")
	infographicsCmd.Flags().Bool("webp", false, "also convert each image to WebP")
	infographicsCmd.Flags().Bool("fail-on-error", false, "exit non-zero when any infographic fails")

	rootCmd.AddCommand(infographicsCmd)
}

func nameOr(name, fallback string) string {
	if name != "" {
		return name
	}
	return fallback
}
