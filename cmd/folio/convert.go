package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/aellingwood/folio/internal/config"
	"github.com/aellingwood/folio/internal/image"
	"github.com/aellingwood/folio/internal/refs"
)

// imageFlagKeys maps image flags to config override keys.
var imageFlagKeys = map[string]string{
	"format":      "format",
	"quality":     "quality",
	"lossless":    "lossless",
	"recursive":   "recursive",
	"output-dir":  "outputDir",
	"workers":     "workers",
	"incremental": "incremental",
	"ext":         "extensions",
}

var convertCmd = &cobra.Command{
	Use:   "convert [dir]",
	Short: "Convert images to a compressed format",
	Long: "Convert every matching image in a directory to the configured format (WebP by default).\n" +
		"Each file is converted independently; a failure is reported and the batch continues.",
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		if len(args) == 1 {
			cfg.Images.Dir = args[0]
		}
		if err := applyOverrides(cmd, cfg, imageFlagKeys); err != nil {
			return err
		}
		root, err := projectRoot()
		if err != nil {
			return err
		}

		conv, err := image.NewConverter(imageOptions(cfg), root)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		out := cmd.OutOrStdout()
		dir := cfg.Images.Dir
		start := time.Now()
		report, err := conv.ConvertDir(ctx, dir, func(res image.Result) {
			printResult(out, dir, res, verbose(cmd))
		})
		if errors.Is(err, image.ErrDirNotFound) {
			fmt.Fprintf(out, "Directory not found: %s\n", dir)
			return err
		}
		if report == nil {
			return err
		}
		printSummary(out, report, time.Since(start))
		if err != nil {
			return fmt.Errorf("conversion interrupted: %w", err)
		}

		if rewrite, _ := cmd.Flags().GetBool("rewrite-refs"); rewrite {
			dryRun, _ := cmd.Flags().GetBool("dry-run")
			if err := rewriteRefs(out, cfg, report.Renames(), dryRun); err != nil {
				return err
			}
		}

		if failOnError, _ := cmd.Flags().GetBool("fail-on-error"); failOnError && report.Failed > 0 {
			return fmt.Errorf("%d of %d files failed to convert", report.Failed, len(report.Results))
		}
		return nil
	},
}

func init() {
	addImageFlags(convertCmd)
	convertCmd.Flags().Bool("fail-on-error", false, "exit non-zero when any file fails to convert")
	convertCmd.Flags().Bool("rewrite-refs", false, "rewrite references in HTML and Markdown files after converting")
	convertCmd.Flags().Bool("dry-run", false, "with --rewrite-refs, report reference changes without writing")

	rootCmd.AddCommand(convertCmd)
}

// addImageFlags registers the flags that override the images config
// section.
func addImageFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("format", "f", "webp", "output format: webp, jpeg or png")
	cmd.Flags().IntP("quality", "q", 80, "encoding quality (1-100)")
	cmd.Flags().Bool("lossless", false, "encode WebP losslessly")
	cmd.Flags().BoolP("recursive", "r", false, "descend into subdirectories")
	cmd.Flags().StringP("output-dir", "o", "", "write outputs here instead of beside each source")
	cmd.Flags().IntP("workers", "w", 0, "parallel conversions (0 = one per CPU)")
	cmd.Flags().Bool("incremental", false, "skip files unchanged since their last conversion")
	cmd.Flags().StringSlice("ext", nil, "input extensions (default .png,.jpg,.jpeg)")
}

func imageOptions(cfg *config.Config) image.Options {
	ic := cfg.Images
	return image.Options{
		Extensions:  ic.Extensions,
		Format:      ic.Format,
		Quality:     ic.Quality,
		Lossless:    ic.Lossless,
		Recursive:   ic.Recursive,
		Exclude:     ic.Exclude,
		OutputDir:   ic.OutputDir,
		Workers:     ic.Workers,
		Incremental: ic.Incremental,
	}
}

func printResult(w io.Writer, dir string, res image.Result, verbose bool) {
	src, dst := displayPath(dir, res.Source), displayPath(dir, res.Output)
	switch res.Status {
	case image.StatusConverted:
		fmt.Fprintf(w, "Converted %s to %s (%s). Reduced by %.1f%%\n",
			src, dst, formatKB(res.ConvertedBytes), res.Savings()*100)
	case image.StatusUnchanged:
		if verbose {
			fmt.Fprintf(w, "Unchanged %s\n", src)
		}
	case image.StatusFailed:
		fmt.Fprintf(w, "Failed to convert %s: %v\n", src, res.Err)
	}
}

func printSummary(w io.Writer, r *image.Report, elapsed time.Duration) {
	if len(r.Results) == 0 {
		fmt.Fprintln(w, "No matching images found.")
		return
	}
	fmt.Fprintf(w, "\nConverted %d, unchanged %d, failed %d in %s\n",
		r.Converted, r.Unchanged, r.Failed, elapsed.Round(time.Millisecond))
	fmt.Fprintf(w, "Total %s -> %s. Reduced by %.1f%%\n",
		formatKB(r.OriginalBytes), formatKB(r.ConvertedBytes), r.Savings()*100)
}

// rewriteRefs applies renames to the files under the refs root.
func rewriteRefs(w io.Writer, cfg *config.Config, renames map[string]string, dryRun bool) error {
	summary, err := refs.Rewrite(cfg.Refs.Root, renames, refs.Options{
		Extensions: cfg.Refs.Extensions,
		Exclude:    cfg.Refs.Exclude,
		DryRun:     dryRun,
	})
	if err != nil {
		return fmt.Errorf("rewriting references: %w", err)
	}
	verb := "Updated"
	if dryRun {
		verb = "Would update"
	}
	for _, c := range summary.Changes {
		fmt.Fprintf(w, "%s %d references in %s\n", verb, c.Replacements, displayPath(cfg.Refs.Root, c.Path))
	}
	fmt.Fprintf(w, "Total references updated: %d\n", summary.TotalReplacements)
	return nil
}
