// Package app assembles the application: configuration, tracing,
// database, Genkit, tools, agents, and flows. Setup builds everything
// in dependency order; Close tears it down in reverse.
package app

import (
	"context"
	"time"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/steelhand/steelhand/internal/chat"
	"github.com/steelhand/steelhand/internal/config"
	"github.com/steelhand/steelhand/internal/diagnostics"
	"github.com/steelhand/steelhand/internal/log"
	"github.com/steelhand/steelhand/internal/session"
	"github.com/steelhand/steelhand/internal/tools"
	"github.com/steelhand/steelhand/internal/webhook"
)

// App is the assembled application container.
type App struct {
	Config *config.Config
	Logger log.Logger

	Genkit   *genkit.Genkit
	DBPool   *pgxpool.Pool
	Sessions *session.Store

	// Kit holds the concrete tool implementations; Tools are their
	// Genkit registrations, shared by every agent surface.
	Kit   *tools.Kit
	Tools []ai.ToolRef

	// Dispatcher is nil when DOCUMENT_WEBHOOK_URL is not configured.
	// That single decision removes sendDocument from every surface.
	Dispatcher *webhook.Dispatcher

	ChatAgent       *chat.Agent
	ChatFlow        *chat.Flow
	Diagnostics     *diagnostics.Service
	DiagnosticsFlow *diagnostics.Flow

	otelShutdown func(context.Context) error
}

// Close releases all resources. Safe to call on a partially built App.
func (a *App) Close() error {
	if a.Logger != nil {
		a.Logger.Info("shutting down application")
	}

	if a.DBPool != nil {
		a.DBPool.Close()
	}

	if a.otelShutdown != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := a.otelShutdown(ctx); err != nil && a.Logger != nil {
			a.Logger.Warn("tracer shutdown failed", "error", err)
		}
	}

	return nil
}

// DocumentDeliveryEnabled reports whether the sendDocument tool is
// part of this process's tool surface.
func (a *App) DocumentDeliveryEnabled() bool {
	return a.Dispatcher != nil
}
