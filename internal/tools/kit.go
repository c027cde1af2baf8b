// Package tools implements the agent's tool surface: web search, page
// fetch, read-only database queries, and document delivery. All tool
// inputs come from the model and are validated before touching the
// network or the database.
package tools

import (
	"context"
	"errors"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
	"github.com/jackc/pgx/v5"

	"github.com/steelhand/steelhand/internal/config"
	"github.com/steelhand/steelhand/internal/log"
	"github.com/steelhand/steelhand/internal/security"
	"github.com/steelhand/steelhand/internal/webhook"
)

// Querier is the subset of pgxpool.Pool the sql tool needs.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// KitConfig carries the dependencies for a tool kit.
//
// Dispatcher may be nil: document delivery is an optional capability
// decided once at startup, and a nil dispatcher means the sendDocument
// tool is simply never registered.
type KitConfig struct {
	Guard      *security.URLGuard
	DB         Querier
	Dispatcher *webhook.Dispatcher
	SearXNG    config.SearXNGConfig
	Scraper    config.WebScraperConfig
	Logger     log.Logger
}

// Kit bundles the tool implementations behind one registration point.
type Kit struct {
	guard      *security.URLGuard
	db         Querier
	dispatcher *webhook.Dispatcher
	searxng    config.SearXNGConfig
	scraper    config.WebScraperConfig
	logger     log.Logger
}

// NewKit validates dependencies and returns a kit.
func NewKit(cfg KitConfig) (*Kit, error) {
	if cfg.Guard == nil {
		return nil, errors.New("KitConfig.Guard is required")
	}
	if cfg.DB == nil {
		return nil, errors.New("KitConfig.DB is required")
	}
	if cfg.Logger == nil {
		return nil, errors.New("KitConfig.Logger is required")
	}

	return &Kit{
		guard:      cfg.Guard,
		db:         cfg.DB,
		dispatcher: cfg.Dispatcher,
		searxng:    cfg.SearXNG,
		scraper:    cfg.Scraper,
		logger:     cfg.Logger,
	}, nil
}

// Register defines every available tool on the Genkit instance and
// returns the references handed to generation calls. The same slice
// backs all agent surfaces, so a tool absent here exists nowhere.
func (k *Kit) Register(g *genkit.Genkit) ([]ai.ToolRef, error) {
	if g == nil {
		return nil, errors.New("genkit instance is required")
	}

	refs := []ai.ToolRef{
		genkit.DefineTool(g, "webSearch",
			"Search the web for current information. "+
				"Use this for equipment specs, part numbers, dealer info, or anything not in the database. "+
				"Returns a list of results with title, URL, and snippet.",
			k.WebSearch),
		genkit.DefineTool(g, "webFetch",
			"Fetch one or more web pages and extract their readable text content. "+
				"Use this after webSearch to read a promising result in full. "+
				"Accepts up to 10 URLs per call.",
			k.WebFetch),
		genkit.DefineTool(g, "sqlQuery",
			"Run a read-only SQL SELECT against the marketplace database. "+
				"The listing table holds equipment inventory (listing_id, title, make, model, year, hours, price_cents, condition, description). "+
				"Only SELECT statements are permitted.",
			k.SQLQuery),
	}

	if k.dispatcher != nil {
		refs = append(refs, genkit.DefineTool(g, "sendDocument",
			"Send a document link (manual, repair guide, spec sheet) to the customer "+
				"through the delivery service. Provide the document title and its URL; "+
				"recipient is optional.",
			k.SendDocument))
	}

	k.logger.Debug("tools registered", "count", len(refs), "send_document", k.dispatcher != nil)
	return refs, nil
}
