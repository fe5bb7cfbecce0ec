// Package app wires FlightGPT's components together: configuration, trace
// export, database pool, Genkit with the OpenRouter provider, the message
// store, and the per-request agent builder.
package app

import (
	"github.com/firebase/genkit/go/genkit"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/koopa0/flightgpt/internal/agent"
	"github.com/koopa0/flightgpt/internal/config"
	"github.com/koopa0/flightgpt/internal/log"
	"github.com/koopa0/flightgpt/internal/store"
)

// App holds the initialized application components.
type App struct {
	Config  *config.Config
	Logger  log.Logger
	DBPool  *pgxpool.Pool
	Genkit  *genkit.Genkit
	Store   *store.Store
	Builder *agent.Builder

	otelCleanup func()
	dbCleanup   func()
}

// Pipeline returns a non-streaming invocation pipeline over the builder.
func (a *App) Pipeline() *agent.Pipeline {
	return agent.NewPipeline(a.Builder, a.Logger.With("component", "pipeline"))
}

// Observer returns a streaming observer over the builder.
func (a *App) Observer() *agent.Observer {
	return agent.NewObserver(a.Builder, a.Logger.With("component", "observer"))
}

// Close releases all resources in reverse initialization order.
// Safe to call on a partially initialized App.
func (a *App) Close() error {
	if a.dbCleanup != nil {
		a.dbCleanup()
		a.dbCleanup = nil
	}
	if a.otelCleanup != nil {
		a.otelCleanup()
		a.otelCleanup = nil
	}
	return nil
}
