package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/aellingwood/folio/internal/config"
	"github.com/aellingwood/folio/internal/deck"
	"github.com/aellingwood/folio/internal/image"
	"github.com/aellingwood/folio/internal/server"
	"github.com/aellingwood/folio/internal/watch"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Preview the portfolio with live reload",
	Long: "Render the decks and convert the images, then serve the project directory\n" +
		"locally. Changes to decks or images are rebuilt and open pages reload.",
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		cfg.Images.Incremental = true
		if err := cfg.Validate(); err != nil {
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

		port, _ := cmd.Flags().GetInt("port")
		bind, _ := cmd.Flags().GetString("bind")
		noLiveReload, _ := cmd.Flags().GetBool("no-live-reload")
		debounce, _ := cmd.Flags().GetDuration("debounce")

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		out := cmd.OutOrStdout()
		srv := server.New(server.Options{
			Port:         port,
			Bind:         bind,
			Root:         root,
			NoLiveReload: noLiveReload,
		})

		var mu sync.Mutex
		rebuild := func() {
			mu.Lock()
			defer mu.Unlock()
			start := time.Now()
			n := buildPreview(ctx, out, cfg, conv)
			fmt.Fprintf(out, "Rebuilt %d outputs in %s\n", n, time.Since(start).Round(time.Millisecond))
		}
		rebuild()

		w := watch.NewWatcher([]string{cfg.Decks.Dir, cfg.Images.Dir}, debounce, func() {
			rebuild()
			srv.NotifyReload()
		})
		w.SetFilter(previewFilter(cfg, conv.OutputExt()))
		w.SkipDirs(cfg.Images.Exclude...)
		go func() {
			if err := w.Start(); err != nil {
				warnf("watcher error: %v", err)
			}
		}()
		defer w.Stop()

		fmt.Fprintf(out, "Serving %s at http://%s/\nPress Ctrl+C to stop.\n", root, srv.Addr())
		if err := srv.Start(ctx); err != nil {
			return err
		}
		fmt.Fprintln(out, "\nShutting down...")
		return nil
	},
}

func init() {
	serveCmd.Flags().Int("port", 4000, "server port")
	serveCmd.Flags().String("bind", "localhost", "bind address")
	serveCmd.Flags().Bool("no-live-reload", false, "disable live reload")
	serveCmd.Flags().Duration("debounce", 300*time.Millisecond, "quiet period before rebuilding after a change")

	rootCmd.AddCommand(serveCmd)
}

// buildPreview renders every deck and converts changed images. Failures are
// reported as warnings so the server keeps running. It returns the number
// of outputs written.
func buildPreview(ctx context.Context, out io.Writer, cfg *config.Config, conv *image.Converter) int {
	written := 0

	results, err := deck.BuildAll(cfg.Decks.Dir, cfg.Decks.OutputDir, deck.Options{HighlightStyle: cfg.Decks.HighlightStyle})
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		warnf("rendering decks: %v", err)
	default:
		for _, res := range results {
			if res.Err != nil {
				warnf("%s: %v", displayPath(cfg.Decks.Dir, res.Source), res.Err)
				continue
			}
			written++
		}
	}

	report, err := conv.ConvertDir(ctx, cfg.Images.Dir, func(res image.Result) {
		if res.Status == image.StatusConverted {
			fmt.Fprintf(out, "Converted %s\n", displayPath(cfg.Images.Dir, res.Source))
		}
	})
	if err != nil {
		if !errors.Is(err, image.ErrDirNotFound) && ctx.Err() == nil {
			warnf("converting images: %v", err)
		}
		return written
	}
	for _, res := range report.Results {
		if res.Err != nil {
			warnf("%s: %v", displayPath(cfg.Images.Dir, res.Source), res.Err)
		}
	}
	return written + report.Converted
}

// previewFilter accepts deck sources and convertible images.
func previewFilter(cfg *config.Config, outputExt string) func(string) bool {
	images := inputFilter(cfg.Images.Extensions, outputExt)
	return func(path string) bool {
		if strings.EqualFold(filepath.Ext(path), ".md") {
			return true
		}
		return images(path)
	}
}
