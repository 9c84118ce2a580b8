package app

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"github.com/spf13/viper"

	"github.com/Kirosoft/ProductOwnerCoPilot/internal/adapter/liveness"
	"github.com/Kirosoft/ProductOwnerCoPilot/internal/adapter/ollama"
	"github.com/Kirosoft/ProductOwnerCoPilot/internal/adapter/relay"
	"github.com/Kirosoft/ProductOwnerCoPilot/internal/adapter/stats"
	"github.com/Kirosoft/ProductOwnerCoPilot/internal/adapter/templates"
	"github.com/Kirosoft/ProductOwnerCoPilot/internal/config"
	"github.com/Kirosoft/ProductOwnerCoPilot/internal/logger"
	"github.com/Kirosoft/ProductOwnerCoPilot/internal/router"
	"github.com/Kirosoft/ProductOwnerCoPilot/internal/version"
)

// Application wires the request pipeline together and owns the HTTP server.
type Application struct {
	configMu sync.RWMutex
	config   *config.Config
	server   *http.Server
	logger   logger.StyledLogger
	registry *router.RouteRegistry

	probe     *liveness.FileProbe
	templates *templates.FileStore
	client    *ollama.Client
	engine    *relay.Engine
	collector *stats.PrometheusCollector

	errCh chan error
}

// New creates a new application instance
func New(styledLogger logger.StyledLogger) (*Application, error) {

	/**
	 * Slightly annoying but we have to setup the configuration with defaults
	 * here then load it again with viper to allow hot reloading.
	 **/
	defaults := config.DefaultConfig()

	registry := router.NewRouteRegistry(styledLogger)
	probe := liveness.NewFileProbe(defaults.Liveness.StatusFile, styledLogger)
	store := templates.NewFileStore(defaults.Templates, styledLogger)
	client := ollama.NewClient(defaults.Ollama, styledLogger)
	collector := stats.NewPrometheusCollector(styledLogger)
	engine := relay.NewEngine(collector, styledLogger)

	app := &Application{
		logger:    styledLogger,
		registry:  registry,
		probe:     probe,
		templates: store,
		client:    client,
		engine:    engine,
		collector: collector,
		errCh:     make(chan error, 1),
	}

	cfg, err := config.Load(func() {
		// Hot reloading of configuration file
		// this is a bit tricky, inspired by Viper's docs.
		if err := viper.ReadInConfig(); err != nil {
			styledLogger.Error("Failed to re-read config file", "error", err)
			return
		}

		newConfig := config.DefaultConfig()
		if err := viper.Unmarshal(newConfig); err != nil {
			styledLogger.Error("Failed to unmarshal new config", "error", err)
			return
		}

		app.setConfig(newConfig)

		probe.SetPath(newConfig.Liveness.StatusFile)
		store.UpdateConfig(newConfig.Templates)
		client.UpdateConfig(newConfig.Ollama)

		styledLogger.Info("Configuration reloaded",
			"ollama_url", newConfig.Ollama.URL,
			"model", newConfig.Ollama.Model)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	app.setConfig(cfg)
	probe.SetPath(cfg.Liveness.StatusFile)
	store.UpdateConfig(cfg.Templates)
	client.UpdateConfig(cfg.Ollama)

	server := &http.Server{
		Addr:        cfg.Server.GetAddress(),
		ReadTimeout: cfg.Server.ReadTimeout,
		// WriteTimeout stays zero so long generations are not severed
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
		Handler:      nil, // Will be set in Start()
	}
	app.server = server

	return app, nil
}

func (a *Application) setConfig(cfg *config.Config) {
	a.configMu.Lock()
	defer a.configMu.Unlock()
	a.config = cfg
}

func (a *Application) getConfig() *config.Config {
	a.configMu.RLock()
	defer a.configMu.RUnlock()
	return a.config
}

// Start starts the application
func (a *Application) Start(ctx context.Context) error {

	go func() {
		select {
		case err := <-a.errCh:
			a.logger.Error("Server startup error", "error", err)
		case <-ctx.Done():
			return
		}
	}()

	a.startWebServer()

	cfg := a.getConfig()
	a.logger.InfoWithEndpoint("Generating against", cfg.Ollama.URL, "model", cfg.Ollama.Model)
	a.logger.Info(version.Name+" started", "bind", a.server.Addr)
	return nil
}

// Stop stops the application
func (a *Application) Stop(ctx context.Context) error {
	shutdownCtx, cancel := context.WithTimeout(ctx, a.getConfig().Server.ShutdownTimeout)
	defer cancel()

	if err := a.server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("HTTP server shutdown error: %w", err)
	}

	return nil
}
