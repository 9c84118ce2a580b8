// Package ports defines the boundaries between the request pipeline and its
// collaborators. Handlers depend on these interfaces, never on the adapters
// directly, so each stage can be swapped or mocked independently.
package ports

import (
	"context"
	"time"

	"github.com/Kirosoft/ProductOwnerCoPilot/internal/core/domain"
)

// LivenessProbe reports whether the inference backend is considered reachable.
// Consulted at the top of every generation request; implementations must be
// cheap and must never fail the request (read failures are fail-open).
type LivenessProbe interface {
	Check(ctx context.Context) domain.LivenessState
}

// TemplateStore resolves template keys and assembles the upstream prompt.
type TemplateStore interface {
	// Resolve maps an arbitrary caller-supplied key onto a known template,
	// falling back to the default for anything unrecognised.
	Resolve(key string) domain.TemplateKey

	// Compose merges the resolved template body with the caller's prompt.
	// The only failure is domain.ErrTemplateNotFound.
	Compose(key domain.TemplateKey, userPrompt string) (string, error)
}

// EventStream is a finite, non-restartable sequence of upstream events.
// Next returns io.EOF when the transport is exhausted without a terminal
// event, or a wrapped domain.ErrUpstreamUnavailable / ErrUpstreamTimeout on
// transport faults. Close releases the underlying connection and is safe to
// call concurrently with a blocked Next.
type EventStream interface {
	Next() (domain.UpstreamEvent, error)
	Close() error
}

// StreamClient opens one streaming generation exchange per call.
type StreamClient interface {
	Generate(ctx context.Context, prompt string) (EventStream, error)
}

// Generation request outcomes as recorded against the StatsCollector.
const (
	OutcomeCompleted       = "completed"
	OutcomeOffline         = "offline"
	OutcomeTemplateMissing = "template_missing"
	OutcomeUpstreamError   = "upstream_error"
	OutcomeUpstreamTimeout = "upstream_timeout"
	OutcomeMalformed       = "malformed"
	OutcomeClientGone      = "client_gone"
)

// StatsCollector records what happened to each generation request.
type StatsCollector interface {
	RecordOutcome(outcome string)
	RecordChunk(bytes int)
	RecordUpstreamLatency(d time.Duration)
	RecordCompletion(terminalEvent []byte)
}
