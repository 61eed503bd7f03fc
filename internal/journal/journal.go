// Package journal implements an in-memory mutation journal with a worker
// pool that drains entries into the structured log and expvar counters.
package journal

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fairyhunter13/inventory-stock-service/internal/obs"
)

// Kind labels the inventory mutation a journal entry describes.
type Kind string

const (
	KindProductCreated Kind = "product_created"
	KindProductUpdated Kind = "product_updated"
	KindProductDeleted Kind = "product_deleted"
	KindProductSold    Kind = "product_sold"
	KindSellRejected   Kind = "sell_rejected"
)

// Entry is one recorded inventory mutation.
type Entry struct {
	Sequence  uint64    `json:"sequence"`
	Kind      Kind      `json:"kind"`
	ProductID string    `json:"product_id"`
	Quantity  int64     `json:"quantity"`
	At        time.Time `json:"at"`
}

// Queue is a buffered entry queue with a background broker.
type Queue struct {
	mu           sync.Mutex
	backlog      []Entry
	notify       chan struct{}
	out          chan Entry
	shuttingDown atomic.Bool

	enqueued  atomic.Uint64
	processed atomic.Uint64
}

// NewQueue creates a Queue with a buffered output channel.
func NewQueue(outBuffer int) *Queue {
	if outBuffer <= 0 {
		outBuffer = 64
	}
	return &Queue{
		notify: make(chan struct{}, 1),
		out:    make(chan Entry, outBuffer),
	}
}

// Start runs the broker loop.
func (q *Queue) Start(ctx context.Context, highWatermark int) {
	go q.broker(ctx, highWatermark)
}

// broker moves backlog items to the output channel.
func (q *Queue) broker(ctx context.Context, highWatermark int) {
	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()
	for {
		q.flushOnce()
		if highWatermark > 0 {
			if sz := q.BacklogSize(); sz > highWatermark {
				obs.Logger.Warn("journal backlog exceeds high watermark", "backlog_size", sz, "high_watermark", highWatermark)
			}
		}
		select {
		case <-ctx.Done():
			return
		case <-q.notify:
		case <-ticker.C:
		}
	}
}

// flushOnce drains backlog into the output buffer.
func (q *Queue) flushOnce() {
	q.mu.Lock()
	defer q.mu.Unlock()
	for len(q.backlog) > 0 && len(q.out) < cap(q.out) {
		item := q.backlog[0]
		q.backlog = q.backlog[1:]
		q.out <- item
	}
}

// Enqueue appends an entry into the backlog and notifies the broker.
func (q *Queue) Enqueue(e Entry) bool {
	if q.shuttingDown.Load() {
		return false
	}
	q.enqueued.Add(1)
	q.mu.Lock()
	q.backlog = append(q.backlog, e)
	q.mu.Unlock()
	select {
	case q.notify <- struct{}{}:
	default:
	}
	return true
}

// Out exposes the output channel of entries.
func (q *Queue) Out() <-chan Entry { return q.out }

// BacklogSize returns the number of enqueued-but-not-yet-output entries.
func (q *Queue) BacklogSize() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.backlog)
}

// Depth returns backlog plus buffered output items.
func (q *Queue) Depth() int {
	q.mu.Lock()
	bl := len(q.backlog)
	q.mu.Unlock()
	return bl + len(q.out)
}

// MarkProcessed increases the processed counter.
func (q *Queue) MarkProcessed() { q.processed.Add(1) }

// Metrics returns counters and sizes for observability.
func (q *Queue) Metrics() (enq, proc uint64, backlog, depth int) {
	enq = q.enqueued.Load()
	proc = q.processed.Load()
	backlog = q.BacklogSize()
	depth = q.Depth()
	return enq, proc, backlog, depth
}

// CloseIntake disallows future enqueues.
func (q *Queue) CloseIntake() { q.shuttingDown.Store(true) }

// IsShuttingDown reports whether new enqueues are rejected.
func (q *Queue) IsShuttingDown() bool { return q.shuttingDown.Load() }
