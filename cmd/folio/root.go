package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aellingwood/folio/internal/config"
)

var rootCmd = &cobra.Command{
	Use:   "folio",
	Short: "Portfolio asset toolkit",
	Long: "Folio converts portfolio images to compressed formats, rewrites references to them,\n" +
		"and renders infographics, presentation pages and script PDFs.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().String("config", "folio.yaml", "path to config file")
	rootCmd.PersistentFlags().Bool("verbose", false, "enable verbose output")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// loadConfig resolves the configuration for cmd. A missing file is only an
// error when --config was given explicitly.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadOrDefault(path, !cmd.Flags().Changed("config"))
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return cfg, nil
}

// applyOverrides copies the changed flags named in keys onto cfg and
// validates the result. keys maps flag names to override keys.
func applyOverrides(cmd *cobra.Command, cfg *config.Config, keys map[string]string) error {
	overrides := make(map[string]any)
	flags := cmd.Flags()
	for flag, key := range keys {
		if !flags.Changed(flag) {
			continue
		}
		f := flags.Lookup(flag)
		switch f.Value.Type() {
		case "string":
			overrides[key], _ = flags.GetString(flag)
		case "int":
			overrides[key], _ = flags.GetInt(flag)
		case "bool":
			overrides[key], _ = flags.GetBool(flag)
		case "stringSlice":
			overrides[key], _ = flags.GetStringSlice(flag)
		}
	}
	if err := cfg.WithOverrides(overrides).Validate(); err != nil {
		return err
	}
	return nil
}

// projectRoot returns the working directory, which anchors relative paths
// and the incremental cache.
func projectRoot() (string, error) {
	root, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("determining project root: %w", err)
	}
	return root, nil
}

func verbose(cmd *cobra.Command) bool {
	v, _ := cmd.Flags().GetBool("verbose")
	return v
}

// displayPath shortens path relative to base for output lines.
func displayPath(base, path string) string {
	if rel, err := filepath.Rel(base, path); err == nil && !strings.HasPrefix(rel, "..") {
		return rel
	}
	return path
}

// formatKB formats a byte count the way the per-file lines report it.
func formatKB(n int64) string {
	return fmt.Sprintf("%.2f KB", float64(n)/1024)
}

func warnf(format string, args ...any) {
	log.Printf("warning: "+format, args...)
}
