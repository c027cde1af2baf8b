package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/firebase/genkit/go/genkit"
	"github.com/firebase/genkit/go/plugins/compat_oai/openai"
	"github.com/firebase/genkit/go/plugins/googlegenai"
	"github.com/firebase/genkit/go/plugins/ollama"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/steelhand/steelhand/db"
	"github.com/steelhand/steelhand/internal/chat"
	"github.com/steelhand/steelhand/internal/config"
	"github.com/steelhand/steelhand/internal/database"
	"github.com/steelhand/steelhand/internal/diagnostics"
	"github.com/steelhand/steelhand/internal/log"
	"github.com/steelhand/steelhand/internal/observability"
	"github.com/steelhand/steelhand/internal/security"
	"github.com/steelhand/steelhand/internal/session"
	"github.com/steelhand/steelhand/internal/tools"
	"github.com/steelhand/steelhand/internal/webhook"
)

// Setup builds the application in dependency order. On failure,
// everything already initialized is released before returning.
func Setup(ctx context.Context, cfg *config.Config, logger log.Logger) (_ *App, retErr error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}
	if logger == nil {
		return nil, errors.New("logger is required")
	}

	a := &App{Config: cfg, Logger: logger}

	defer func() {
		if retErr != nil {
			if err := a.Close(); err != nil {
				logger.Warn("cleanup during setup failure", "error", err)
			}
		}
	}()

	// Tracing registers on Genkit's TracerProvider, so it has to come
	// before genkit.Init.
	otelShutdown, err := observability.Setup(ctx, observability.Config{
		AgentHost:   cfg.Otel.AgentHost,
		Environment: cfg.Otel.Environment,
		ServiceName: cfg.Otel.ServiceName,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("setting up tracing: %w", err)
	}
	a.otelShutdown = otelShutdown

	pool, err := providePool(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	a.DBPool = pool

	g, err := provideGenkit(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	a.Genkit = g

	store, err := session.NewStore(pool, logger)
	if err != nil {
		return nil, fmt.Errorf("creating session store: %w", err)
	}
	a.Sessions = store

	// Document delivery exists for the whole process or not at all: the
	// dispatcher is built here iff the webhook URL is configured, and
	// every tool surface inherits that decision.
	if cfg.Webhook.Enabled() {
		dispatcher, err := webhook.NewDispatcher(webhook.Config{
			URL:    cfg.Webhook.DocumentURL,
			Secret: cfg.Webhook.DocumentSecret,
		}, logger)
		if err != nil {
			return nil, fmt.Errorf("creating webhook dispatcher: %w", err)
		}
		a.Dispatcher = dispatcher
		logger.Info("document delivery enabled")
	} else {
		logger.Info("document delivery disabled, webhook URL not configured")
	}

	kit, err := tools.NewKit(tools.KitConfig{
		Guard:      security.NewURLGuard(logger),
		DB:         pool,
		Dispatcher: a.Dispatcher,
		SearXNG:    cfg.SearXNG,
		Scraper:    cfg.WebScraper,
		Logger:     logger,
	})
	if err != nil {
		return nil, fmt.Errorf("creating tool kit: %w", err)
	}
	a.Kit = kit

	refs, err := kit.Register(g)
	if err != nil {
		return nil, fmt.Errorf("registering tools: %w", err)
	}
	a.Tools = refs

	agent, err := chat.New(chat.Config{
		Genkit:       g,
		Sessions:     store,
		Logger:       logger,
		Tools:        refs,
		ModelName:    cfg.FullModelName(),
		MaxTurns:     cfg.MaxTurns,
		HistoryLimit: int(cfg.MaxHistoryMessages),
	})
	if err != nil {
		return nil, fmt.Errorf("creating chat agent: %w", err)
	}
	a.ChatAgent = agent
	a.ChatFlow = chat.NewFlow(g, agent)

	diag, err := diagnostics.New(diagnostics.Config{
		Genkit:    g,
		Sessions:  store,
		Logger:    logger,
		Tools:     refs,
		ModelName: cfg.FullModelName(),
		MaxTurns:  cfg.MaxTurns,
	})
	if err != nil {
		return nil, fmt.Errorf("creating diagnostics service: %w", err)
	}
	a.Diagnostics = diag
	a.DiagnosticsFlow = diagnostics.NewFlow(g, diag)

	logger.Info("application initialized",
		"provider", cfg.Provider,
		"model", cfg.FullModelName(),
		"tool_count", len(refs),
		"document_delivery", a.DocumentDeliveryEnabled())

	return a, nil
}

// providePool runs migrations and opens the connection pool.
func providePool(ctx context.Context, cfg *config.Config, logger log.Logger) (*pgxpool.Pool, error) {
	if err := db.Migrate(cfg.PostgresURL(), logger); err != nil {
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	pool, err := database.Connect(ctx, cfg.PostgresConnectionString())
	if err != nil {
		return nil, fmt.Errorf("connecting to database: %w", err)
	}
	return pool, nil
}

// provideGenkit initializes Genkit with the configured provider
// plugin. Ollama needs its model registered explicitly; the hosted
// providers discover models themselves.
func provideGenkit(ctx context.Context, cfg *config.Config, logger log.Logger) (*genkit.Genkit, error) {
	var g *genkit.Genkit

	switch cfg.Provider {
	case config.ProviderOllama:
		ollamaPlugin := &ollama.Ollama{ServerAddress: cfg.OllamaHost}
		g = genkit.Init(ctx, genkit.WithPlugins(ollamaPlugin))
		if g == nil {
			return nil, errors.New("initializing genkit with ollama provider")
		}
		ollamaPlugin.DefineModel(g, ollama.ModelDefinition{
			Name: cfg.ModelName,
			Type: "chat",
		}, nil)

	case config.ProviderOpenAI:
		g = genkit.Init(ctx, genkit.WithPlugins(&openai.OpenAI{}))
		if g == nil {
			return nil, errors.New("initializing genkit with openai provider")
		}

	default:
		g = genkit.Init(ctx, genkit.WithPlugins(&googlegenai.GoogleAI{}))
		if g == nil {
			return nil, errors.New("initializing genkit with googleai provider")
		}
	}

	logger.Info("genkit initialized", "provider", cfg.Provider, "model", cfg.ModelName)
	return g, nil
}
