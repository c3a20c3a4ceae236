// Package sync mirrors teaching events to a remote store in the background.
// Records are best effort: a full queue or a failed write is logged and dropped.
package sync

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"garden_buddy/internal/logger"
	"garden_buddy/internal/storage"
	"garden_buddy/pkg"

	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

// Record types
const (
	TypeTeach = "teach"
	TypeWrong = "wrong"
	TypeWhy   = "why"
)

// Sink receives mirrored records
type Sink interface {
	Write(ctx context.Context, rec pkg.SyncRecord) error
}

// KVSink writes each record under its own key in a key-value store
type KVSink struct {
	KV   storage.KeyValueStore
	Keys storage.Keys
}

// Write stores rec as JSON
func (s KVSink) Write(ctx context.Context, rec pkg.SyncRecord) error {
	return storage.SetJSON(ctx, s.KV, s.Keys.SyncRecord(rec.UserID, rec.ID), rec)
}

// Config paces the queue
type Config struct {
	Rate      float64 // records per second, <= 0 means unlimited
	Burst     int
	QueueSize int
}

// NewRecord stamps a new record with a fresh id
func NewRecord(userID, typ, content string, now time.Time) pkg.SyncRecord {
	return pkg.SyncRecord{
		ID:        uuid.NewString(),
		UserID:    userID,
		Type:      typ,
		Content:   content,
		CreatedAt: now,
	}
}

// Queue forwards records to a Sink from a single goroutine
type Queue struct {
	sink    Sink
	limiter *rate.Limiter
	records chan pkg.SyncRecord
	quit    chan struct{}
	done    chan struct{}
	closed  atomic.Bool
}

// NewQueue starts the background writer
func NewQueue(sink Sink, cfg Config) *Queue {
	limit := rate.Inf
	if cfg.Rate > 0 {
		limit = rate.Limit(cfg.Rate)
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}
	size := cfg.QueueSize
	if size <= 0 {
		size = 64
	}

	q := &Queue{
		sink:    sink,
		limiter: rate.NewLimiter(limit, burst),
		records: make(chan pkg.SyncRecord, size),
		quit:    make(chan struct{}),
		done:    make(chan struct{}),
	}
	go q.run()
	return q
}

// Enqueue hands rec to the writer without blocking. It returns false when the
// queue is closed or full.
func (q *Queue) Enqueue(rec pkg.SyncRecord) bool {
	if q.closed.Load() {
		return false
	}
	select {
	case q.records <- rec:
		return true
	default:
		logger.Warn().
			Str("user_id", rec.UserID).
			Str("teaching_type", rec.Type).
			Msg("Sync queue full, dropping record")
		return false
	}
}

// Close stops accepting records and waits for the buffered ones to be written
func (q *Queue) Close() error {
	if q.closed.CompareAndSwap(false, true) {
		close(q.quit)
	}
	<-q.done
	return nil
}

func (q *Queue) run() {
	defer close(q.done)
	ctx := context.Background()

	for {
		select {
		case rec := <-q.records:
			q.write(ctx, rec)
		case <-q.quit:
			for {
				select {
				case rec := <-q.records:
					q.write(ctx, rec)
				default:
					return
				}
			}
		}
	}
}

func (q *Queue) write(ctx context.Context, rec pkg.SyncRecord) {
	if err := q.limiter.Wait(ctx); err != nil {
		logger.Warn().Err(err).Msg("Sync rate limiter failed")
		return
	}
	if err := q.sink.Write(ctx, rec); err != nil {
		logger.Warn().
			Err(fmt.Errorf("sync write failed: %w", err)).
			Str("user_id", rec.UserID).
			Str("record_id", rec.ID).
			Msg("Failed to sync teaching")
		return
	}
	logger.Debug().
		Str("user_id", rec.UserID).
		Str("teaching_type", rec.Type).
		Msg("Teaching synced")
}
