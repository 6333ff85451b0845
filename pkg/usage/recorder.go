package usage

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

const (
	defaultBuffer = 1000
	writeTimeout  = 5 * time.Second
)

// Recorder enqueues ledger writes so the request path never waits on
// SQLite. Records are dropped, with a warning, if the buffer fills.
type Recorder struct {
	store  *Store
	ch     chan *Record
	wg     sync.WaitGroup
	logger *slog.Logger

	closeOnce sync.Once
}

// NewRecorder starts the background writer.
func NewRecorder(store *Store, buffer int, logger *slog.Logger) *Recorder {
	if buffer <= 0 {
		buffer = defaultBuffer
	}
	if logger == nil {
		logger = slog.Default()
	}

	r := &Recorder{
		store:  store,
		ch:     make(chan *Record, buffer),
		logger: logger,
	}
	r.wg.Add(1)
	go r.worker()
	return r
}

// Record enqueues one entry, filling in id and timestamp. Never blocks.
func (r *Recorder) Record(rec *Record) {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}

	select {
	case r.ch <- rec:
	default:
		r.logger.Warn("usage buffer full, dropping record",
			slog.String("request_id", rec.RequestID))
	}
}

// Close drains the queue and stops the writer.
func (r *Recorder) Close() {
	r.closeOnce.Do(func() {
		close(r.ch)
	})
	r.wg.Wait()
}

func (r *Recorder) worker() {
	defer r.wg.Done()
	for rec := range r.ch {
		ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
		if err := r.store.Insert(ctx, rec); err != nil {
			r.logger.Error("failed to write usage record",
				slog.String("request_id", rec.RequestID),
				slog.String("error", err.Error()))
		}
		cancel()
	}
}
