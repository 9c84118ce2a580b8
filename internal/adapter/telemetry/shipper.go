package telemetry

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"os"
	"sync"
	"sync/atomic"
	"time"
)

const (
	DefaultQueueSize   = 1024
	DefaultShipTimeout = 5 * time.Second
)

// Record is the envelope shipped to the index backend
type Record struct {
	Timestamp time.Time      `json:"timestamp"`
	Fields    map[string]any `json:"fields,omitempty"`
	ID        string         `json:"id"`
	Level     string         `json:"level"`
	Message   string         `json:"message"`
	Source    string         `json:"source"`
}

// Config for the shipper, bootstrapped from the environment in main so the
// mirror exists before the first log line.
type Config struct {
	Endpoint    string
	Source      string
	QueueSize   int
	ShipTimeout time.Duration
}

// Shipper drains the mirror queue into the index backend. Failures are
// counted and reported through its own stderr logger; they never propagate
// and never touch the mirrored logging path.
type Shipper struct {
	cfg     Config
	queue   chan Record
	client  *http.Client
	slog    *slog.Logger // plain stderr JSON, deliberately not the mirrored logger
	dropped atomic.Int64
	failed  atomic.Int64
	wg      sync.WaitGroup
}

func NewShipper(cfg Config) *Shipper {
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = DefaultQueueSize
	}
	if cfg.ShipTimeout <= 0 {
		cfg.ShipTimeout = DefaultShipTimeout
	}
	if cfg.Source == "" {
		cfg.Source = "pocopilot"
	}

	return &Shipper{
		cfg:    cfg,
		queue:  make(chan Record, cfg.QueueSize),
		client: &http.Client{Timeout: cfg.ShipTimeout},
		slog:   slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn})),
	}
}

// Enqueue hands a record to the drainer without ever blocking the caller.
// A full queue drops the record.
func (s *Shipper) Enqueue(record Record) {
	record.Source = s.cfg.Source
	select {
	case s.queue <- record:
	default:
		s.dropped.Add(1)
	}
}

// Start launches the drainer. It runs until ctx is cancelled, then drains
// whatever is left in the queue before returning.
func (s *Shipper) Start(ctx context.Context) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		for {
			select {
			case record := <-s.queue:
				s.ship(record)
			case <-ctx.Done():
				for {
					select {
					case record := <-s.queue:
						s.ship(record)
					default:
						return
					}
				}
			}
		}
	}()
}

// Wait blocks until the drainer has exited
func (s *Shipper) Wait() {
	s.wg.Wait()
}

// Dropped reports records discarded because the queue was full
func (s *Shipper) Dropped() int64 {
	return s.dropped.Load()
}

// Failed reports ship attempts that did not reach the backend
func (s *Shipper) Failed() int64 {
	return s.failed.Load()
}

func (s *Shipper) ship(record Record) {
	payload, err := json.Marshal(record)
	if err != nil {
		s.failed.Add(1)
		return
	}

	resp, err := s.client.Post(s.cfg.Endpoint, "application/json", bytes.NewReader(payload))
	if err != nil {
		if s.failed.Add(1) == 1 {
			// first failure only; a down index backend must not spam stderr
			s.slog.Warn("telemetry shipping failing", "endpoint", s.cfg.Endpoint, "error", err)
		}
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		s.failed.Add(1)
	}
}
