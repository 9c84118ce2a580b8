package app

import (
	"net/http"
	"path/filepath"
)

// metricsHandler exposes the collector's registry in Prometheus text format.
func (a *Application) metricsHandler(w http.ResponseWriter, r *http.Request) {
	a.collector.Handler().ServeHTTP(w, r)
}

// indexHandler serves the landing page. The mux routes every unclaimed path
// here, so anything that is not the root gets a 404 rather than the index.
func (a *Application) indexHandler(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	cfg := a.getConfig()
	http.ServeFile(w, r, filepath.Join(cfg.Static.Dir, cfg.Static.Index))
}

// staticHandler serves template and UI assets from the configured directory.
func (a *Application) staticHandler(w http.ResponseWriter, r *http.Request) {
	cfg := a.getConfig()
	fs := http.StripPrefix("/static/", http.FileServer(http.Dir(cfg.Static.Dir)))
	fs.ServeHTTP(w, r)
}
