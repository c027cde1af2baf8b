package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	mcpSdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"

	"github.com/steelhand/steelhand/internal/app"
	"github.com/steelhand/steelhand/internal/config"
	"github.com/steelhand/steelhand/internal/log"
	"github.com/steelhand/steelhand/internal/mcp"
	"github.com/steelhand/steelhand/internal/security"
	"github.com/steelhand/steelhand/internal/tools"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the MCP server on stdio",
	Long: `Expose the agent's tools (web_search, web_fetch, sql_query, and
send_document when configured) over the Model Context Protocol.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runMCP()
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}

func runMCP() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	logger := log.New(log.Config{})
	logger.Info("starting MCP server", "version", AppVersion)

	a, err := app.Setup(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("initializing application: %w", err)
	}
	defer func() {
		if closeErr := a.Close(); closeErr != nil {
			logger.Warn("shutdown error", "error", closeErr)
		}
	}()

	mcpServer, err := mcp.NewServer(mcp.Config{
		Name:    "steelhand",
		Version: AppVersion,
		KitConfig: tools.KitConfig{
			Guard:      security.NewURLGuard(logger),
			DB:         a.DBPool,
			Dispatcher: a.Dispatcher,
			SearXNG:    cfg.SearXNG,
			Scraper:    cfg.WebScraper,
			Logger:     logger,
		},
	})
	if err != nil {
		return fmt.Errorf("creating MCP server: %w", err)
	}

	logger.Info("MCP server ready",
		"transport", "stdio",
		"document_delivery", a.DocumentDeliveryEnabled())

	if err := mcpServer.Run(ctx, &mcpSdk.StdioTransport{}); err != nil {
		return fmt.Errorf("MCP server: %w", err)
	}
	return nil
}
