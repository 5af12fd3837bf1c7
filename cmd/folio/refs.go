package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aellingwood/folio/internal/image"
)

var refsCmd = &cobra.Command{
	Use:   "refs [dir]",
	Short: "Rewrite references to converted images",
	Long: "Find images in the images directory that already have a converted counterpart and\n" +
		"rewrite references to them in HTML and Markdown files under the refs root.",
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		if len(args) == 1 {
			cfg.Images.Dir = args[0]
		}
		keys := map[string]string{"root": "refsRoot"}
		for flag, key := range imageFlagKeys {
			keys[flag] = key
		}
		if err := applyOverrides(cmd, cfg, keys); err != nil {
			return err
		}
		root, err := projectRoot()
		if err != nil {
			return err
		}

		opts := imageOptions(cfg)
		opts.Incremental = false
		conv, err := image.NewConverter(opts, root)
		if err != nil {
			return err
		}
		renames, err := conv.ExistingRenames(cfg.Images.Dir)
		if err != nil {
			return err
		}
		if len(renames) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No converted images found.")
			return nil
		}

		dryRun, _ := cmd.Flags().GetBool("dry-run")
		return rewriteRefs(cmd.OutOrStdout(), cfg, renames, dryRun)
	},
}

func init() {
	addImageFlags(refsCmd)
	refsCmd.Flags().String("root", ".", "directory whose HTML and Markdown files are rewritten")
	refsCmd.Flags().Bool("dry-run", false, "report changes without writing")

	rootCmd.AddCommand(refsCmd)
}
