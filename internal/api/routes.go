package api

import (
	"net/http"

	"github.com/JaimeStill/courier/internal/analysis"
	"github.com/JaimeStill/courier/pkg/routes"
)

func registerRoutes(mux *http.ServeMux, domain *Domain, runtime *Runtime) {
	patterns := routes.Register(
		mux,
		domain.Documents.Handler().Routes(),
	)
	runtime.Logger.Debug("partner routes registered", "routes", patterns)
}

func registerEngineRoutes(mux *http.ServeMux, domain *Domain, runtime *Runtime) {
	patterns := routes.Register(
		mux,
		analysis.NewHandler(domain.Documents, runtime.Logger).Routes(),
	)
	runtime.Logger.Debug("engine routes registered", "routes", patterns)
}
