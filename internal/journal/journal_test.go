package journal

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fairyhunter13/inventory-stock-service/internal/config"
	"github.com/fairyhunter13/inventory-stock-service/internal/obs"
)

func testConfig() config.Config {
	return config.Config{
		InitialWorkerCount:      2,
		WorkerMin:               1,
		WorkerMax:               4,
		ScaleInterval:           50 * time.Millisecond,
		ScaleUpBacklogPerWorker: 100,
		ScaleDownIdleTicks:      1000,
		JournalHighWatermark:    5000,
	}
}

func setupManager(t *testing.T) *Manager {
	t.Helper()
	obs.InitLogger("error")
	q := NewQueue(16)
	m := NewManager(testConfig(), q)
	ctx, cancel := context.WithCancel(context.Background())
	m.Start(ctx)
	t.Cleanup(func() {
		cancel()
		m.Stop()
	})
	return m
}

func TestRecordAndDrain(t *testing.T) {
	m := setupManager(t)

	for i := 0; i < 10; i++ {
		require.True(t, m.Record(KindProductSold, "p-1", 1))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.True(t, m.DrainUntil(ctx), "drain timeout")

	enq, proc, backlog, depth := m.Metrics()
	assert.Equal(t, uint64(10), enq)
	assert.Equal(t, uint64(10), proc)
	assert.Zero(t, backlog)
	assert.Zero(t, depth)
}

func TestCloseIntakeRejectsRecords(t *testing.T) {
	m := setupManager(t)
	m.CloseIntake()
	assert.True(t, m.IsShuttingDown())
	assert.False(t, m.Record(KindProductCreated, "p-1", 1))
}

func TestSequencesAreUniqueUnderConcurrency(t *testing.T) {
	var seq Sequencer
	const n = 200
	seen := make(chan uint64, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			seen <- seq.Next()
		}()
	}
	wg.Wait()
	close(seen)
	unique := make(map[uint64]struct{}, n)
	for v := range seen {
		unique[v] = struct{}{}
	}
	assert.Len(t, unique, n)
	assert.Equal(t, uint64(n+1), seq.Next())
}

func TestWorkerCountStartsAtInitial(t *testing.T) {
	m := setupManager(t)
	assert.Equal(t, 2, m.WorkerCount())
}
