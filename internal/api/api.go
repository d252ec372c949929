// Package api assembles the partner-facing API module and the engine callback
// module over a shared set of domain systems.
package api

import (
	"net/http"

	"github.com/JaimeStill/courier/internal/config"
	"github.com/JaimeStill/courier/internal/partners"
	"github.com/JaimeStill/courier/pkg/middleware"
	"github.com/JaimeStill/courier/pkg/module"
)

// NewModule creates the partner API module. Every route requires a resolved
// partner identity.
func NewModule(cfg *config.Config, runtime *Runtime, domain *Domain) *module.Module {
	mux := http.NewServeMux()
	registerRoutes(mux, domain, runtime)

	m := module.New(cfg.API.BasePath, mux)
	m.Use(middleware.RequestID())
	m.Use(middleware.Recover(runtime.Logger))
	m.Use(middleware.Logger(runtime.Logger))
	m.Use(partners.Middleware(runtime.Auth, runtime.Logger))

	return m
}

// NewEngineModule creates the module the analysis engine posts completion
// events to. It is guarded by the shared engine token.
func NewEngineModule(cfg *config.Config, runtime *Runtime, domain *Domain) *module.Module {
	logger := runtime.Logger.With("surface", "engine")

	mux := http.NewServeMux()
	registerEngineRoutes(mux, domain, runtime)

	m := module.New(cfg.Engine.BasePath, mux)
	m.Use(middleware.RequestID())
	m.Use(middleware.Recover(logger))
	m.Use(middleware.Logger(logger))
	m.Use(middleware.BearerToken(cfg.Engine.Token))

	return m
}
