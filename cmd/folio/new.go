package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aellingwood/folio/internal/scaffold"
)

var newCmd = &cobra.Command{
	Use:   "new",
	Short: "Create a project or deck",
	Long:  "Create a new folio project layout or a new presentation deck.",
}

var newProjectCmd = &cobra.Command{
	Use:   "project [dir]",
	Short: "Create a new project",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dir := "."
		if len(args) == 1 {
			dir = args[0]
		}
		if err := scaffold.NewProject(dir); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Project created: %s\n", dir)
		return nil
	},
}

var newDeckCmd = &cobra.Command{
	Use:   "deck <title>",
	Short: "Create a new deck",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		path, err := scaffold.NewDeck(cfg.Decks.Dir, strings.Join(args, " "))
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Deck created: %s\n", path)
		return nil
	},
}

func init() {
	newCmd.AddCommand(newProjectCmd)
	newCmd.AddCommand(newDeckCmd)

	rootCmd.AddCommand(newCmd)
}
