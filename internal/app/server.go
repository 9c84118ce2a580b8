package app

import (
	"errors"
	"net/http"

	"github.com/Kirosoft/ProductOwnerCoPilot/internal/app/middleware"
)

func (a *Application) startWebServer() {
	cfg := a.getConfig()
	a.logger.Info("Starting WebServer...", "host", cfg.Server.Host, "port", cfg.Server.Port)

	mux := http.NewServeMux()

	a.registerRoutes()
	a.registry.WireUp(mux)

	var handler http.Handler = mux
	if cfg.Server.RequestLogging {
		handler = middleware.LoggingMiddleware(a.logger)(mux)
	}

	a.server.Handler = handler

	go func() {
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Error("HTTP server error", "error", err)
			a.errCh <- err
		}
	}()

	a.logger.Info("Started WebServer", "bind", a.server.Addr)
}

func (a *Application) registerRoutes() {
	a.registry.Register("/stream_result", a.streamResultHandler, "Streaming artifact generation")
	a.registry.Register("/api/status", a.statusHandler, "Backend liveness status")
	a.registry.Register("/internal/health", a.healthHandler, "Health check endpoint")
	a.registry.Register("/internal/version", a.versionHandler, "Application version metadata")
	a.registry.Register("/internal/metrics", a.metricsHandler, "Prometheus metrics")
	a.registry.Register("/static/", a.staticHandler, "Static assets")
	a.registry.Register("/", a.indexHandler, "Landing page")
}
