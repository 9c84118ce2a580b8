package telemetry

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShipper_ShipsRecords(t *testing.T) {
	var mu sync.Mutex
	var received []Record

	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var rec Record
		require.NoError(t, json.NewDecoder(r.Body).Decode(&rec))
		mu.Lock()
		received = append(received, rec)
		mu.Unlock()
	}))
	defer backend.Close()

	shipper := NewShipper(Config{Endpoint: backend.URL, QueueSize: 8})
	ctx, cancel := context.WithCancel(context.Background())
	shipper.Start(ctx)

	shipper.Enqueue(Record{ID: "a", Message: "first"})
	shipper.Enqueue(Record{ID: "b", Message: "second"})

	time.Sleep(100 * time.Millisecond)
	cancel()
	shipper.Wait()

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, received, 2)
	assert.Equal(t, "pocopilot", received[0].Source, "source should be stamped on records")
}

func TestShipper_FullQueueDropsWithoutBlocking(t *testing.T) {
	// never started, so the queue only fills
	shipper := NewShipper(Config{Endpoint: "http://127.0.0.1:1", QueueSize: 2})

	done := make(chan struct{})
	go func() {
		for i := 0; i < 10; i++ {
			shipper.Enqueue(Record{ID: "x"})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Enqueue blocked on a full queue")
	}

	assert.Equal(t, int64(8), shipper.Dropped())
}

func TestShipper_BackendFailureIsAbsorbed(t *testing.T) {
	shipper := NewShipper(Config{Endpoint: "http://127.0.0.1:1", QueueSize: 4, ShipTimeout: 100 * time.Millisecond})
	ctx, cancel := context.WithCancel(context.Background())
	shipper.Start(ctx)

	shipper.Enqueue(Record{ID: "a"})
	shipper.Enqueue(Record{ID: "b"})

	time.Sleep(200 * time.Millisecond)
	cancel()
	shipper.Wait()

	assert.Equal(t, int64(2), shipper.Failed())
}

func TestMirrorHandler_EnqueuesRecords(t *testing.T) {
	shipper := NewShipper(Config{Endpoint: "http://127.0.0.1:1", QueueSize: 8})
	handler := NewMirrorHandler(shipper, slog.LevelInfo)
	log := slog.New(handler)

	log.Info("request complete", "status", 200)
	log.Debug("ignored below level")

	require.Len(t, shipper.queue, 1)

	rec := <-shipper.queue
	assert.Equal(t, "request complete", rec.Message)
	assert.NotEmpty(t, rec.ID, "expected a generated record id")
	assert.Equal(t, int64(200), rec.Fields["status"])
}

func TestMirrorHandler_CarriesWithAttrsAndGroups(t *testing.T) {
	shipper := NewShipper(Config{Endpoint: "http://127.0.0.1:1", QueueSize: 8})
	handler := NewMirrorHandler(shipper, slog.LevelInfo)
	log := slog.New(handler).With("request_id", "pbi_refining_beef").WithGroup("upstream")

	log.Info("stream open", "model", "mistral-small:latest")

	rec := <-shipper.queue
	assert.Equal(t, "pbi_refining_beef", rec.Fields["request_id"])
	assert.Equal(t, "mistral-small:latest", rec.Fields["upstream.model"])
}
