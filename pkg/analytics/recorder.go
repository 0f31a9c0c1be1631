// Package analytics records completion summaries and aggregates them into
// the admin dashboard payload.
//
// Recording is fire-and-forget: a bounded channel decouples the comparison
// hot path from storage, and records are dropped with a counter bump when
// the channel is full.
package analytics

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/prompt-arena/arena/pkg/api"
	"github.com/prompt-arena/arena/pkg/debug"
	"github.com/prompt-arena/arena/pkg/observability"
	"github.com/prompt-arena/arena/pkg/storage"
)

// DefaultBufferSize is the channel capacity between Record and the writer.
const DefaultBufferSize = 256

// writeTimeout bounds each storage append so a stuck store cannot wedge
// the writer goroutine forever.
const writeTimeout = 10 * time.Second

// Recorder buffers completion records and writes them to the log store
// from a single background goroutine.
type Recorder struct {
	store   storage.LogStore
	ch      chan api.CompletionRecord
	done    chan struct{}
	closeMu sync.Mutex
	closed  bool
}

// NewRecorder starts the writer goroutine. bufferSize <= 0 uses the default.
func NewRecorder(store storage.LogStore, bufferSize int) *Recorder {
	if bufferSize <= 0 {
		bufferSize = DefaultBufferSize
	}
	r := &Recorder{
		store: store,
		ch:    make(chan api.CompletionRecord, bufferSize),
		done:  make(chan struct{}),
	}
	go r.run()
	return r
}

// Record enqueues a completion record without blocking. Records are
// dropped when the buffer is full or the recorder is closed.
func (r *Recorder) Record(rec api.CompletionRecord) {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}

	r.closeMu.Lock()
	defer r.closeMu.Unlock()
	if r.closed {
		return
	}

	select {
	case r.ch <- rec:
	default:
		observability.CompletionRecordsDropped.Inc()
		slog.Warn("completion record dropped, buffer full",
			"request_id", rec.RequestID,
		)
	}
}

// Close stops accepting records, drains the buffer, and waits for the
// writer to finish.
func (r *Recorder) Close() {
	r.closeMu.Lock()
	if r.closed {
		r.closeMu.Unlock()
		return
	}
	r.closed = true
	close(r.ch)
	r.closeMu.Unlock()

	<-r.done
}

func (r *Recorder) run() {
	defer close(r.done)

	for rec := range r.ch {
		ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
		err := r.store.AppendCompletion(ctx, rec)
		cancel()
		if err != nil {
			slog.Error("appending completion record failed",
				"request_id", rec.RequestID,
				"error", err,
			)
			continue
		}
		debug.Log("analytics", "completion recorded",
			"request_id", rec.RequestID,
			"providers", len(rec.ProvidersAttempted),
			"elapsed_ms", rec.ElapsedMs,
		)
	}
}
