package ollama

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"sync"

	"github.com/Kirosoft/ProductOwnerCoPilot/internal/core/domain"
)

// generateResponse is one NDJSON line from the backend. The terminal line
// carries generation metrics alongside done; those stay in the raw bytes for
// the stats collector to pick over.
type generateResponse struct {
	Response string `json:"response"`
	Done     bool   `json:"done"`
}

// eventStream walks the response body line by line. Finite: ends on the
// terminal event, transport exhaustion, or a transport fault. Blank lines are
// skipped without emitting; a single undecodable line becomes one Malformed
// event rather than killing the sequence.
type eventStream struct {
	ctx       context.Context
	body      io.ReadCloser
	scanner   *bufio.Scanner
	cancel    context.CancelFunc
	closeOnce sync.Once
	closeErr  error
	exhausted bool
}

func newEventStream(ctx context.Context, body io.ReadCloser, cancel context.CancelFunc, maxLineSize int) *eventStream {
	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 64*1024), maxLineSize)

	return &eventStream{
		ctx:     ctx,
		body:    body,
		scanner: scanner,
		cancel:  cancel,
	}
}

func (s *eventStream) Next() (domain.UpstreamEvent, error) {
	if s.exhausted {
		return domain.UpstreamEvent{}, io.EOF
	}

	for s.scanner.Scan() {
		line := bytes.TrimSpace(s.scanner.Bytes())
		if len(line) == 0 {
			continue
		}

		// scanner reuses its buffer between calls
		raw := make([]byte, len(line))
		copy(raw, line)

		var payload generateResponse
		if err := json.Unmarshal(raw, &payload); err != nil {
			return domain.UpstreamEvent{Malformed: true, Raw: raw, DecodeErr: err}, nil
		}

		if payload.Done {
			s.exhausted = true
		}
		return domain.UpstreamEvent{Fragment: payload.Response, Final: payload.Done, Raw: raw}, nil
	}

	s.exhausted = true
	if err := s.scanner.Err(); err != nil {
		return domain.UpstreamEvent{}, classifyTransportError(s.ctx, err)
	}
	return domain.UpstreamEvent{}, io.EOF
}

// Close cancels the exchange context and closes the body, unwinding the
// backend connection. Safe to call more than once and concurrently with a
// blocked Next.
func (s *eventStream) Close() error {
	s.closeOnce.Do(func() {
		s.cancel()
		s.closeErr = s.body.Close()
	})
	return s.closeErr
}
