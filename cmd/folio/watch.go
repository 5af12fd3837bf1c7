package main

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/aellingwood/folio/internal/image"
	"github.com/aellingwood/folio/internal/watch"
)

var watchCmd = &cobra.Command{
	Use:   "watch [dir]",
	Short: "Convert images whenever they change",
	Long: "Run a conversion, then watch the images directory and convert again whenever a\n" +
		"matching image is added or modified. Incremental mode is enabled by default.",
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		if len(args) == 1 {
			cfg.Images.Dir = args[0]
		}
		cfg.Images.Incremental = true
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
		debounce, _ := cmd.Flags().GetDuration("debounce")
		rewrite, _ := cmd.Flags().GetBool("rewrite-refs")

		// Runs never overlap; a change arriving mid-run waits for the lock.
		var mu sync.Mutex
		run := func() {
			mu.Lock()
			defer mu.Unlock()
			start := time.Now()
			report, err := conv.ConvertDir(ctx, dir, func(res image.Result) {
				printResult(out, dir, res, verbose(cmd))
			})
			if err != nil {
				if ctx.Err() == nil {
					warnf("conversion failed: %v", err)
				}
				return
			}
			if report.Converted > 0 || verbose(cmd) {
				printSummary(out, report, time.Since(start))
			}
			if rewrite && report.Converted > 0 {
				if err := rewriteRefs(out, cfg, report.Renames(), false); err != nil {
					warnf("%v", err)
				}
			}
		}

		run()
		if ctx.Err() != nil {
			return nil
		}

		w := watch.NewWatcher([]string{dir}, debounce, run)
		w.SetFilter(inputFilter(cfg.Images.Extensions, conv.OutputExt()))
		w.SkipDirs(cfg.Images.Exclude...)

		go func() {
			<-ctx.Done()
			fmt.Fprintln(out, "\nStopping...")
			w.Stop()
		}()

		fmt.Fprintf(out, "Watching %s for changes. Press Ctrl+C to stop.\n", dir)
		if err := w.Start(); err != nil {
			return fmt.Errorf("watcher error: %w", err)
		}
		return nil
	},
}

func init() {
	addImageFlags(watchCmd)
	watchCmd.Flags().Duration("debounce", 300*time.Millisecond, "quiet period before converting after a change")
	watchCmd.Flags().Bool("rewrite-refs", false, "rewrite references after each conversion")

	rootCmd.AddCommand(watchCmd)
}

// inputFilter accepts paths with one of the input extensions. Outputs and
// temporary files never match, so writing them does not retrigger a run.
func inputFilter(exts []string, outputExt string) func(string) bool {
	return func(path string) bool {
		ext := strings.ToLower(filepath.Ext(path))
		if ext == outputExt || strings.HasPrefix(filepath.Base(path), ".folio-") {
			return false
		}
		return slices.Contains(exts, ext)
	}
}
