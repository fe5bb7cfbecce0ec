package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/core/tracing"
	"github.com/firebase/genkit/go/genkit"
	"github.com/firebase/genkit/go/plugins/compat_oai"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/openai/openai-go/option"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/koopa0/flightgpt/db"
	"github.com/koopa0/flightgpt/internal/agent"
	"github.com/koopa0/flightgpt/internal/config"
	"github.com/koopa0/flightgpt/internal/log"
	"github.com/koopa0/flightgpt/internal/store"
)

// Setup creates and initializes the application.
// Returns an App with embedded cleanup — call Close() to release.
func Setup(ctx context.Context, cfg *config.Config, logger log.Logger) (_ *App, retErr error) {
	a := &App{Config: cfg, Logger: logger}

	// On error, clean up everything already initialized
	defer func() {
		if retErr != nil {
			if err := a.Close(); err != nil {
				logger.Warn("cleanup during setup failure", "error", err)
			}
		}
	}()

	a.otelCleanup = provideOtelShutdown(ctx, cfg, logger)

	pool, dbCleanup, err := provideDBPool(ctx, cfg)
	if err != nil {
		return nil, err
	}
	a.dbCleanup = dbCleanup
	a.DBPool = pool

	g, err := provideGenkit(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	a.Genkit = g

	a.Store = store.New(pool, logger.With("component", "store"))

	builder, err := agent.NewBuilder(agent.Config{
		Genkit:        g,
		Logger:        logger.With("component", "agent"),
		FlightsMCPURL: cfg.FlightsMCPURL,
		ModelName:     cfg.FullModelName(),
		Temperature:   cfg.Temperature,
		MaxTurns:      cfg.MaxTurns,
	})
	if err != nil {
		return nil, fmt.Errorf("creating agent builder: %w", err)
	}
	a.Builder = builder

	return a, nil
}

// provideOtelShutdown sets up OTLP trace export before Genkit initialization,
// so the span processor is registered on Genkit's TracerProvider from the
// first request. Traces go to a local collector over OTLP HTTP.
func provideOtelShutdown(ctx context.Context, cfg *config.Config, logger log.Logger) func() {
	otelCfg := cfg.Otel

	agentHost := otelCfg.AgentHost
	if agentHost == "" {
		agentHost = "localhost:4318"
	}

	// SAFETY: os.Setenv is not concurrent-safe, but this runs exactly once
	// during startup, before goroutines are spawned.
	if otelCfg.ServiceName != "" {
		_ = os.Setenv("OTEL_SERVICE_NAME", otelCfg.ServiceName)
	}
	if otelCfg.Environment != "" {
		_ = os.Setenv("OTEL_RESOURCE_ATTRIBUTES", "deployment.environment="+otelCfg.Environment)
	}

	exporter, err := otlptracehttp.New(ctx,
		otlptracehttp.WithEndpoint(agentHost),
		otlptracehttp.WithInsecure(), // localhost collector, no TLS
	)
	if err != nil {
		logger.Warn("creating OTLP exporter, tracing disabled", "error", err)
		return func() {}
	}

	processor := sdktrace.NewBatchSpanProcessor(exporter)
	tracing.TracerProvider().RegisterSpanProcessor(processor)

	logger.Debug("trace export enabled",
		"collector", agentHost,
		"service", otelCfg.ServiceName,
		"environment", otelCfg.Environment,
	)

	shutdown := tracing.TracerProvider().Shutdown

	return func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(shutdownCtx); err != nil {
			logger.Warn("shutting down tracer provider", "error", err)
		}
	}
}

// provideGenkit initializes Genkit with the OpenRouter provider via the
// OpenAI-compatible plugin and registers the configured model.
func provideGenkit(ctx context.Context, cfg *config.Config, logger log.Logger) (*genkit.Genkit, error) {
	oc := &compat_oai.OpenAICompatible{
		Provider: config.Provider,
		APIKey:   cfg.APIKey,
		Opts: []option.RequestOption{
			option.WithBaseURL(cfg.BaseURL),
		},
	}

	g := genkit.Init(ctx, genkit.WithPlugins(oc))
	if g == nil {
		return nil, errors.New("initializing genkit with openrouter provider")
	}

	if m := oc.DefineModel(config.Provider, cfg.ModelName, ai.ModelOptions{
		Label: "OpenRouter - " + cfg.ModelName,
		Supports: &ai.ModelSupports{
			Multiturn:  true,
			Tools:      true,
			SystemRole: true,
		},
	}); m == nil {
		return nil, fmt.Errorf("registering model %q", cfg.ModelName)
	}

	logger.Info("initialized Genkit with openrouter provider",
		"model", cfg.ModelName, "base_url", cfg.BaseURL)
	return g, nil
}

// provideDBPool runs migrations and creates a PostgreSQL connection pool.
func provideDBPool(ctx context.Context, cfg *config.Config) (*pgxpool.Pool, func(), error) {
	if err := db.Migrate(cfg.PostgresURL()); err != nil {
		return nil, nil, fmt.Errorf("running migrations: %w", err)
	}

	poolCfg, err := pgxpool.ParseConfig(cfg.PostgresConnectionString())
	if err != nil {
		return nil, nil, fmt.Errorf("parsing connection config: %w", err)
	}
	poolCfg.MaxConns = 10
	poolCfg.MinConns = 1
	poolCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, nil, fmt.Errorf("creating connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("pinging database: %w", err)
	}

	return pool, pool.Close, nil
}
