// Package cmd wires the CLI entry points.
package cmd

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "steelhand",
	Short: "Steelhand - AI service agent for the heavy-equipment marketplace",
	Long: `Steelhand is the backend for Alex, the marketplace's AI service
agent: chat support, equipment diagnostics against the listing catalog,
and document delivery.

Run "steelhand serve" for the HTTP API, "steelhand voice" for the voice
gateway, or "steelhand mcp" to expose the toolset over MCP.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe()
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
