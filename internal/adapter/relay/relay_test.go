package relay

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/Kirosoft/ProductOwnerCoPilot/internal/core/domain"
	"github.com/Kirosoft/ProductOwnerCoPilot/internal/core/ports"
	"github.com/Kirosoft/ProductOwnerCoPilot/internal/logger"
)

func testLogger() logger.StyledLogger {
	return logger.NewPlainStyledLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

// scriptedStream replays a fixed event sequence, then an optional error
type scriptedStream struct {
	events   []domain.UpstreamEvent
	finalErr error
	pos      int
	closed   bool
}

func (s *scriptedStream) Next() (domain.UpstreamEvent, error) {
	if s.pos >= len(s.events) {
		if s.finalErr != nil {
			return domain.UpstreamEvent{}, s.finalErr
		}
		return domain.UpstreamEvent{}, io.EOF
	}
	ev := s.events[s.pos]
	s.pos++
	return ev, nil
}

func (s *scriptedStream) Close() error {
	s.closed = true
	return nil
}

// chunkRecorder captures each Write as a discrete chunk and counts flushes
type chunkRecorder struct {
	chunks  []string
	flushes int
	failAt  int // fail the Nth write (1-based), 0 = never
}

func (r *chunkRecorder) Write(p []byte) (int, error) {
	if r.failAt > 0 && len(r.chunks)+1 == r.failAt {
		return 0, errors.New("broken pipe")
	}
	r.chunks = append(r.chunks, string(p))
	return len(p), nil
}

func (r *chunkRecorder) Flush() { r.flushes++ }

type recordingStats struct {
	outcomes    []string
	chunkBytes  []int
	completions [][]byte
}

func (s *recordingStats) RecordOutcome(outcome string)       { s.outcomes = append(s.outcomes, outcome) }
func (s *recordingStats) RecordChunk(bytes int)              { s.chunkBytes = append(s.chunkBytes, bytes) }
func (s *recordingStats) RecordUpstreamLatency(time.Duration) {}
func (s *recordingStats) RecordCompletion(raw []byte)        { s.completions = append(s.completions, raw) }

func fragment(text string) domain.UpstreamEvent {
	return domain.UpstreamEvent{Fragment: text, Raw: []byte(fmt.Sprintf(`{"response":%q,"done":false}`, text))}
}

func terminal(text string) domain.UpstreamEvent {
	return domain.UpstreamEvent{Fragment: text, Final: true, Raw: []byte(`{"done":true,"eval_count":10}`)}
}

func TestRelay_HappyPathOrderingAndBoundaries(t *testing.T) {
	stream := &scriptedStream{events: []domain.UpstreamEvent{
		fragment("As a user"),
		fragment(", I want to log in."),
		terminal(""),
	}}
	sink := &chunkRecorder{}
	stats := &recordingStats{}

	res := NewEngine(stats, testLogger()).Relay(stream, sink, testLogger())

	if res.State != StateDone {
		t.Errorf("expected StateDone, got %v", res.State)
	}
	if res.Outcome != ports.OutcomeCompleted {
		t.Errorf("expected completed outcome, got %s", res.Outcome)
	}
	// exactly one chunk per non-empty fragment, in event order
	want := []string{"As a user", ", I want to log in."}
	if len(sink.chunks) != len(want) {
		t.Fatalf("expected %d chunks, got %d: %v", len(want), len(sink.chunks), sink.chunks)
	}
	for i, chunk := range want {
		if sink.chunks[i] != chunk {
			t.Errorf("chunk %d = %q, want %q", i, sink.chunks[i], chunk)
		}
	}
	if sink.flushes != len(want) {
		t.Errorf("expected one flush per chunk, got %d flushes for %d chunks", sink.flushes, len(want))
	}
	if len(stats.completions) != 1 {
		t.Errorf("expected terminal event recorded once, got %d", len(stats.completions))
	}
}

func TestRelay_TerminalEventCarryingText(t *testing.T) {
	stream := &scriptedStream{events: []domain.UpstreamEvent{
		fragment("partial"),
		terminal(" and the end."),
	}}
	sink := &chunkRecorder{}

	res := NewEngine(&recordingStats{}, testLogger()).Relay(stream, sink, testLogger())

	if res.State != StateDone {
		t.Errorf("expected StateDone, got %v", res.State)
	}
	joined := strings.Join(sink.chunks, "")
	if joined != "partial and the end." {
		t.Errorf("expected final fragment emitted before Done, got %q", joined)
	}
}

func TestRelay_EmptyFragmentsNotEmitted(t *testing.T) {
	stream := &scriptedStream{events: []domain.UpstreamEvent{
		{Fragment: ""},
		fragment("text"),
		{Fragment: ""},
		terminal(""),
	}}
	sink := &chunkRecorder{}

	NewEngine(&recordingStats{}, testLogger()).Relay(stream, sink, testLogger())

	if len(sink.chunks) != 1 || sink.chunks[0] != "text" {
		t.Errorf("expected only the non-empty fragment, got %v", sink.chunks)
	}
}

func TestRelay_MalformedLineAbortsWithDiagnostic(t *testing.T) {
	stream := &scriptedStream{events: []domain.UpstreamEvent{
		fragment("one"),
		fragment("two"),
		{Malformed: true, Raw: []byte("{bad"), DecodeErr: errors.New("unexpected end of JSON input")},
		fragment("never sent"),
		terminal(""),
	}}
	sink := &chunkRecorder{}
	stats := &recordingStats{}

	res := NewEngine(stats, testLogger()).Relay(stream, sink, testLogger())

	if res.State != StateDone {
		t.Errorf("expected StateDone after reported malformed line, got %v", res.State)
	}
	if res.Outcome != ports.OutcomeMalformed {
		t.Errorf("expected malformed outcome, got %s", res.Outcome)
	}
	if len(sink.chunks) != 3 {
		t.Fatalf("expected 2 text chunks + 1 diagnostic, got %v", sink.chunks)
	}
	if sink.chunks[0] != "one" || sink.chunks[1] != "two" {
		t.Errorf("expected preceding chunks preserved, got %v", sink.chunks[:2])
	}
	if !strings.HasPrefix(sink.chunks[2], "\n[Streaming error: ") || !strings.HasSuffix(sink.chunks[2], "]\n") {
		t.Errorf("diagnostic chunk has wrong shape: %q", sink.chunks[2])
	}
	// consumption stops at the malformed line
	if stream.pos != 3 {
		t.Errorf("expected no events consumed past the malformed line, consumed %d", stream.pos)
	}
}

func TestRelay_TransportFaultAfterChunks(t *testing.T) {
	cause := fmt.Errorf("%w: connection reset", domain.ErrUpstreamUnavailable)
	stream := &scriptedStream{
		events:   []domain.UpstreamEvent{fragment("a"), fragment("b")},
		finalErr: cause,
	}
	sink := &chunkRecorder{}
	stats := &recordingStats{}

	res := NewEngine(stats, testLogger()).Relay(stream, sink, testLogger())

	if res.State != StateFailed {
		t.Errorf("expected StateFailed, got %v", res.State)
	}
	if res.Outcome != ports.OutcomeUpstreamError {
		t.Errorf("expected upstream_error outcome, got %s", res.Outcome)
	}
	if len(sink.chunks) != 3 {
		t.Fatalf("expected 2 chunks + 1 diagnostic, got %v", sink.chunks)
	}
	if !strings.Contains(sink.chunks[2], "[Streaming error: ") {
		t.Errorf("expected diagnostic tail, got %q", sink.chunks[2])
	}
}

func TestRelay_TimeoutFaultClassified(t *testing.T) {
	stream := &scriptedStream{
		finalErr: fmt.Errorf("%w: context deadline exceeded", domain.ErrUpstreamTimeout),
	}
	sink := &chunkRecorder{}
	stats := &recordingStats{}

	res := NewEngine(stats, testLogger()).Relay(stream, sink, testLogger())

	if res.Outcome != ports.OutcomeUpstreamTimeout {
		t.Errorf("expected upstream_timeout outcome, got %s", res.Outcome)
	}
	if len(sink.chunks) != 1 || !strings.Contains(sink.chunks[0], "stopped responding") {
		t.Errorf("expected timeout diagnostic, got %v", sink.chunks)
	}
}

func TestRelay_EOFWithoutTerminalEventIsClean(t *testing.T) {
	stream := &scriptedStream{events: []domain.UpstreamEvent{fragment("tail")}}
	sink := &chunkRecorder{}

	res := NewEngine(&recordingStats{}, testLogger()).Relay(stream, sink, testLogger())

	if res.State != StateDone || res.Outcome != ports.OutcomeCompleted {
		t.Errorf("expected clean completion on EOF, got %v / %s", res.State, res.Outcome)
	}
	if len(sink.chunks) != 1 {
		t.Errorf("expected no diagnostic on plain EOF, got %v", sink.chunks)
	}
}

func TestRelay_WriteFailureStopsConsumption(t *testing.T) {
	stream := &scriptedStream{events: []domain.UpstreamEvent{
		fragment("a"),
		fragment("b"),
		fragment("c"),
		terminal(""),
	}}
	sink := &chunkRecorder{failAt: 2}
	stats := &recordingStats{}

	res := NewEngine(stats, testLogger()).Relay(stream, sink, testLogger())

	if res.State != StateFailed {
		t.Errorf("expected StateFailed when caller is gone, got %v", res.State)
	}
	if res.Outcome != ports.OutcomeClientGone {
		t.Errorf("expected client_gone outcome, got %s", res.Outcome)
	}
	if stream.pos != 2 {
		t.Errorf("expected consumption to stop after failed write, consumed %d", stream.pos)
	}
}

func TestRelay_OutcomeRecordedExactlyOnce(t *testing.T) {
	stream := &scriptedStream{events: []domain.UpstreamEvent{terminal("x")}}
	stats := &recordingStats{}

	NewEngine(stats, testLogger()).Relay(stream, &chunkRecorder{}, testLogger())

	if len(stats.outcomes) != 1 || stats.outcomes[0] != ports.OutcomeCompleted {
		t.Errorf("expected single completed outcome, got %v", stats.outcomes)
	}
}
