package main

import (
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"

	"github.com/aellingwood/folio/internal/mcpserver"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run an MCP server over stdio",
	Long: "Start an MCP (Model Context Protocol) server over stdio so AI clients can list\n" +
		"and create decks and run the asset pipeline for this project.",
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		root, _ := cmd.Flags().GetString("source")
		if root == "" {
			var err error
			if root, err = projectRoot(); err != nil {
				return err
			}
		}
		return mcpserver.New(root, version).Run(cmd.Context(), &mcp.StdioTransport{})
	},
}

func init() {
	mcpCmd.Flags().String("source", "", "project root directory (default: current directory)")

	rootCmd.AddCommand(mcpCmd)
}
