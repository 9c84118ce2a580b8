// Package relay bridges the upstream event sequence onto the caller's open
// response stream. It is the one component that never fails: every upstream
// misbehaviour is converted into a final human-readable diagnostic chunk so
// the caller's stream always ends cleanly instead of with a severed
// connection.
package relay

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/Kirosoft/ProductOwnerCoPilot/internal/core/domain"
	"github.com/Kirosoft/ProductOwnerCoPilot/internal/core/ports"
	"github.com/Kirosoft/ProductOwnerCoPilot/internal/logger"
)

// State of one relay. Streaming until a terminal condition moves it to Done
// (backend finished, or a reported malformed line) or Failed (transport
// fault, caller gone).
type State int

const (
	StateStreaming State = iota
	StateDone
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateStreaming:
		return "streaming"
	case StateDone:
		return "done"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Result summarises a finished relay for logging and stats.
type Result struct {
	Outcome string
	Chunks  int
	Bytes   int64
	State   State
}

// Engine relays upstream events for one request at a time. Stateless between
// Relay calls; one engine instance is shared by all requests.
type Engine struct {
	stats  ports.StatsCollector
	logger logger.StyledLogger
}

func NewEngine(stats ports.StatsCollector, logger logger.StyledLogger) *Engine {
	return &Engine{
		stats:  stats,
		logger: logger,
	}
}

// Relay consumes events until a terminal state and writes each text fragment
// to w as soon as it arrives, flushing per chunk. Chunks go out strictly in
// event order, one chunk per event, nothing merged or split. The returned
// Result is informational; there is no error to return by design.
func (e *Engine) Relay(events ports.EventStream, w io.Writer, rlog logger.StyledLogger) Result {
	res := Result{State: StateStreaming}
	flusher, canFlush := w.(http.Flusher)
	start := time.Now()

	for res.State == StateStreaming {
		ev, err := events.Next()
		if err != nil {
			e.finishOnTransportFault(err, time.Since(start), w, flusher, canFlush, &res, rlog)
			continue
		}

		if ev.Malformed {
			// one bad line aborts the relay, but visibly: the caller gets a
			// diagnostic tail, not a silent truncation
			rlog.Warn("malformed upstream line, aborting relay",
				"raw", string(ev.Raw),
				"error", ev.DecodeErr,
				"chunks_sent", res.Chunks)
			e.writeChunk(diagnostic(ev.DecodeErr), w, flusher, canFlush, &res)
			res.State = StateDone
			res.Outcome = ports.OutcomeMalformed
			continue
		}

		if ev.Fragment != "" {
			if werr := e.writeChunk(ev.Fragment, w, flusher, canFlush, &res); werr != nil {
				rlog.Info("caller went away mid-stream",
					"error", werr,
					"chunks_sent", res.Chunks,
					"bytes_sent", res.Bytes)
				res.State = StateFailed
				res.Outcome = ports.OutcomeClientGone
				continue
			}
		}

		if ev.Final {
			rlog.Debug("backend signalled completion",
				"chunks_sent", res.Chunks,
				"bytes_sent", res.Bytes,
				"duration_ms", time.Since(start).Milliseconds())
			e.stats.RecordCompletion(ev.Raw)
			res.State = StateDone
			res.Outcome = ports.OutcomeCompleted
		}
	}

	e.stats.RecordOutcome(res.Outcome)
	return res
}

// Fail writes the diagnostic tail for a request whose upstream stream never
// opened, recording the same outcome a mid-stream fault would.
func (e *Engine) Fail(err error, elapsed time.Duration, w io.Writer, rlog logger.StyledLogger) Result {
	res := Result{State: StateStreaming}
	flusher, canFlush := w.(http.Flusher)
	e.finishOnTransportFault(err, elapsed, w, flusher, canFlush, &res, rlog)
	e.stats.RecordOutcome(res.Outcome)
	return res
}

// finishOnTransportFault ends the relay on a Next error. EOF is a normal
// exhaustion; everything else gets one diagnostic chunk before closing.
func (e *Engine) finishOnTransportFault(err error, elapsed time.Duration, w io.Writer, flusher http.Flusher, canFlush bool, res *Result, rlog logger.StyledLogger) {
	if errors.Is(err, io.EOF) {
		rlog.Debug("upstream closed without terminal event",
			"chunks_sent", res.Chunks,
			"bytes_sent", res.Bytes)
		res.State = StateDone
		res.Outcome = ports.OutcomeCompleted
		return
	}

	rlog.Error("upstream transport fault during relay",
		"error", err,
		"elapsed", elapsed,
		"chunks_sent", res.Chunks)
	e.writeChunk(diagnostic(friendlyMessage(err, elapsed)), w, flusher, canFlush, res)
	res.State = StateFailed
	if errors.Is(err, domain.ErrUpstreamTimeout) {
		res.Outcome = ports.OutcomeUpstreamTimeout
	} else {
		res.Outcome = ports.OutcomeUpstreamError
	}
}

func (e *Engine) writeChunk(text string, w io.Writer, flusher http.Flusher, canFlush bool, res *Result) error {
	n, err := io.WriteString(w, text)
	res.Bytes += int64(n)
	if err != nil {
		return err
	}
	res.Chunks++
	e.stats.RecordChunk(n)
	if canFlush {
		flusher.Flush()
	}
	return nil
}

// diagnostic formats the inline error tail the caller sees, matching the
// bracketed shape clients already parse for
func diagnostic(detail any) string {
	return fmt.Sprintf("\n[Streaming error: %v]\n", detail)
}
