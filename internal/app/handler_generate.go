package app

import (
	"net/http"
	"time"

	"github.com/Kirosoft/ProductOwnerCoPilot/internal/app/middleware"
	"github.com/Kirosoft/ProductOwnerCoPilot/internal/core/constants"
	"github.com/Kirosoft/ProductOwnerCoPilot/internal/core/ports"
)

const (
	offlineBody         = "LLM is offline"
	templateMissingBody = "Error: template file not found."
)

// streamResultHandler merges the caller's prompt into the selected template
// and relays the backend's generation stream as it arrives. Once the 200
// header has gone out every failure is reported inline in the body, never
// as a late status change.
func (a *Application) streamResultHandler(w http.ResponseWriter, r *http.Request) {
	rlog := a.logger.WithRequestID(middleware.GetRequestID(r.Context()))

	prompt := r.URL.Query().Get("prompt")
	if prompt == "" {
		rlog.Warn("rejected request without prompt", "remote_addr", r.RemoteAddr)
		http.Error(w, "prompt query parameter is required", http.StatusBadRequest)
		return
	}

	key := a.templates.Resolve(r.URL.Query().Get("template"))
	rlog.InfoWithTemplate("Request received", string(key), "prompt_chars", len(prompt))

	w.Header().Set(constants.ContentTypeHeader, constants.ContentTypeText)
	w.Header().Set("Cache-Control", "no-cache")

	state := a.probe.Check(r.Context())
	if !state.Online() {
		rlog.InfoLivenessStatus("backend marked offline, declining generation", state)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(offlineBody))
		a.collector.RecordOutcome(ports.OutcomeOffline)
		return
	}

	merged, err := a.templates.Compose(key, prompt)
	if err != nil {
		rlog.Error("template unavailable", "template", string(key), "error", err)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(templateMissingBody))
		a.collector.RecordOutcome(ports.OutcomeTemplateMissing)
		return
	}

	w.WriteHeader(http.StatusOK)
	if flusher, ok := w.(http.Flusher); ok {
		flusher.Flush()
	}

	opened := time.Now()
	stream, err := a.client.Generate(r.Context(), merged)
	connectLatency := time.Since(opened)
	if err != nil {
		res := a.engine.Fail(err, connectLatency, w, rlog)
		rlog.Warn("generation never started", "outcome", res.Outcome, "error", err)
		return
	}
	defer stream.Close()
	a.collector.RecordUpstreamLatency(connectLatency)

	res := a.engine.Relay(stream, w, rlog)
	rlog.Info("generation finished",
		"outcome", res.Outcome,
		"state", res.State.String(),
		"chunks", res.Chunks,
		"bytes", res.Bytes,
		"duration_ms", time.Since(opened).Milliseconds())
}

// statusHandler reports the liveness verdict the next generation request
// would see.
func (a *Application) statusHandler(w http.ResponseWriter, r *http.Request) {
	state := a.probe.Check(r.Context())
	writeJSON(w, map[string]string{"status": string(state)})
}
