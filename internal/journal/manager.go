package journal

import (
	"context"
	"expvar"
	"sync"
	"time"

	"github.com/fairyhunter13/inventory-stock-service/internal/config"
	"github.com/fairyhunter13/inventory-stock-service/internal/obs"
)

var entryCounts = expvar.NewMap("journal_entries")

// Manager coordinates workers draining journal entries and scaling.
type Manager struct {
	cfg config.Config
	q   *Queue
	seq Sequencer

	ctx    context.Context
	cancel context.CancelFunc

	mu            sync.Mutex
	workerCancels []context.CancelFunc
}

// NewManager constructs a Manager with the given config and queue.
func NewManager(cfg config.Config, q *Queue) *Manager {
	return &Manager{cfg: cfg, q: q}
}

// Start begins processing and autoscaling in the background.
func (m *Manager) Start(parent context.Context) {
	m.ctx, m.cancel = context.WithCancel(parent)
	m.q.Start(m.ctx, m.cfg.JournalHighWatermark)
	m.addWorkers(m.cfg.InitialWorkerCount)
	go m.scaler()
}

// Stop cancels background routines and stops workers.
func (m *Manager) Stop() {
	if m.cancel != nil {
		m.cancel()
	}
	m.mu.Lock()
	for _, c := range m.workerCancels {
		c()
	}
	m.workerCancels = nil
	m.mu.Unlock()
}

// Record stamps a mutation with the next sequence number and enqueues it.
// It reports false when intake is closed for shutdown.
func (m *Manager) Record(kind Kind, productID string, quantity int64) bool {
	e := Entry{
		Sequence:  m.seq.Next(),
		Kind:      kind,
		ProductID: productID,
		Quantity:  quantity,
		At:        time.Now().UTC(),
	}
	return m.q.Enqueue(e)
}

// scaler adjusts worker count based on backlog and configuration.
func (m *Manager) scaler() {
	t := time.NewTicker(m.cfg.ScaleInterval)
	defer t.Stop()
	idleTicks := 0
	for {
		select {
		case <-m.ctx.Done():
			return
		case <-t.C:
			backlog := m.q.BacklogSize()
			wc := m.WorkerCount()
			if backlog > wc*m.cfg.ScaleUpBacklogPerWorker && wc < m.cfg.WorkerMax {
				m.addWorkers(1)
				idleTicks = 0
				continue
			}
			if backlog == 0 {
				idleTicks++
				if idleTicks >= m.cfg.ScaleDownIdleTicks && wc > m.cfg.WorkerMin {
					m.removeWorkers(1)
					idleTicks = 0
				}
			} else {
				idleTicks = 0
			}
		}
	}
}

// addWorkers spawns n workers.
func (m *Manager) addWorkers(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := 0; i < n; i++ {
		wctx, cancel := context.WithCancel(m.ctx)
		m.workerCancels = append(m.workerCancels, cancel)
		go m.worker(wctx)
	}
	obs.Logger.Info("journal workers scaled", "worker_count", len(m.workerCancels))
}

// removeWorkers stops up to n workers.
func (m *Manager) removeWorkers(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if n > len(m.workerCancels) {
		n = len(m.workerCancels)
	}
	for i := 0; i < n; i++ {
		c := m.workerCancels[len(m.workerCancels)-1]
		m.workerCancels = m.workerCancels[:len(m.workerCancels)-1]
		c()
	}
	obs.Logger.Info("journal workers scaled", "worker_count", len(m.workerCancels))
}

// worker drains entries from the queue and emits them.
func (m *Manager) worker(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case e := <-m.q.Out():
			m.emit(e)
			m.q.MarkProcessed()
		}
	}
}

// emit writes one entry to the log and bumps its kind counter.
func (m *Manager) emit(e Entry) {
	entryCounts.Add(string(e.Kind), 1)
	obs.Logger.Info("journal_entry",
		"sequence", e.Sequence,
		"kind", string(e.Kind),
		"product_id", e.ProductID,
		"quantity", e.Quantity,
		"at", e.At.Format(time.RFC3339),
	)
}

// BacklogSize returns pending items in the queue.
func (m *Manager) BacklogSize() int { return m.q.BacklogSize() }

// Depth returns backlog plus buffered output items.
func (m *Manager) Depth() int { return m.q.Depth() }

// WorkerCount returns the current number of workers.
func (m *Manager) WorkerCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.workerCancels)
}

// IsShuttingDown reports whether new entries are rejected.
func (m *Manager) IsShuttingDown() bool { return m.q.IsShuttingDown() }

// CloseIntake disallows future entries.
func (m *Manager) CloseIntake() { m.q.CloseIntake() }

// Metrics exposes the underlying queue metrics.
func (m *Manager) Metrics() (enq, proc uint64, backlog, depth int) {
	return m.q.Metrics()
}

// DrainUntil blocks until the journal is fully drained or context is done.
func (m *Manager) DrainUntil(ctx context.Context) bool {
	for {
		enq, proc, backlog, depth := m.q.Metrics()
		if backlog == 0 && depth == 0 && enq == proc {
			return true
		}
		select {
		case <-ctx.Done():
			return false
		case <-time.After(50 * time.Millisecond):
		}
	}
}
