// Package telemetry mirrors log records to an external indexing backend.
// Strictly one-way: records are handed to a bounded queue and a single
// drainer ships them; nothing on this path can block, fail or log back into
// the request-handling pipeline.
package telemetry

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
)

// MirrorHandler is a slog.Handler that copies every record into the
// shipper's queue. It is attached as an extra fan-out inside the logger, so
// enabling or disabling telemetry never touches call sites.
type MirrorHandler struct {
	shipper *Shipper
	attrs   []slog.Attr
	groups  []string
	level   slog.Level
}

func NewMirrorHandler(shipper *Shipper, level slog.Level) *MirrorHandler {
	return &MirrorHandler{
		shipper: shipper,
		level:   level,
	}
}

func (h *MirrorHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level
}

// Handle converts the record into a ship-ready envelope. The enqueue is
// non-blocking; a full queue drops the record and bumps a counter. The
// bounded queue is also the recursion guard: the drainer logs only through
// its own stderr logger, never through a mirrored one, so a shipping failure
// cannot generate more mirrored records.
func (h *MirrorHandler) Handle(_ context.Context, record slog.Record) error {
	if !h.Enabled(nil, record.Level) {
		return nil
	}

	fields := make(map[string]any, record.NumAttrs()+len(h.attrs))
	for _, attr := range h.attrs {
		// handler attrs were key-qualified when WithAttrs ran
		fields[attr.Key] = attr.Value.Resolve().Any()
	}
	record.Attrs(func(attr slog.Attr) bool {
		fields[h.qualify(attr.Key)] = attr.Value.Resolve().Any()
		return true
	})

	h.shipper.Enqueue(Record{
		ID:        uuid.NewString(),
		Timestamp: record.Time,
		Level:     record.Level.String(),
		Message:   record.Message,
		Fields:    fields,
	})
	return nil
}

func (h *MirrorHandler) qualify(key string) string {
	if len(h.groups) == 0 {
		return key
	}
	qualified := key
	for i := len(h.groups) - 1; i >= 0; i-- {
		qualified = h.groups[i] + "." + qualified
	}
	return qualified
}

func (h *MirrorHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	clone := *h
	clone.attrs = append([]slog.Attr{}, h.attrs...)
	for _, attr := range attrs {
		clone.attrs = append(clone.attrs, slog.Attr{Key: h.qualify(attr.Key), Value: attr.Value})
	}
	return &clone
}

func (h *MirrorHandler) WithGroup(name string) slog.Handler {
	clone := *h
	clone.groups = append(append([]string{}, h.groups...), name)
	return &clone
}
