package main

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/edgeviewer/frame-processing-service/processing"
)

const (
	// DefaultPoolSize Pool configuration
	DefaultPoolSize = 4
	AcquireTimeout  = 5 * time.Second
)

// ProcessorPool hands out processing gateways, one per in-flight
// request. A processor records its last processing time without
// synchronization, so it must never serve two requests at once; the pool
// is what makes concurrent streams safe.
type ProcessorPool struct {
	processors chan *processing.Processor
	size       int
	mu         sync.Mutex
	closed     bool
	metrics    *PoolMetrics
}

type PoolMetrics struct {
	mu              sync.RWMutex
	inUse           int
	totalAcquired   int64
	totalReleased   int64
	acquireFailures int64
	waitTime        time.Duration
}

// PoolMetricsSnapshot is a point-in-time copy of the pool counters.
type PoolMetricsSnapshot struct {
	InUse           int
	TotalAcquired   int64
	TotalReleased   int64
	AcquireFailures int64
	WaitTime        time.Duration
}

func NewProcessorPool(size int, debug bool, maxPixels int) *ProcessorPool {
	if size <= 0 {
		size = DefaultPoolSize
	}

	pool := &ProcessorPool{
		processors: make(chan *processing.Processor, size),
		size:       size,
		metrics:    &PoolMetrics{},
	}

	for i := 0; i < size; i++ {
		proc := processing.NewProcessor()
		proc.Debug = debug
		proc.MaxPixels = maxPixels
		pool.processors <- proc
	}

	return pool
}

func (p *ProcessorPool) Acquire(ctx context.Context) (*processing.Processor, error) {
	if p.closed {
		return nil, fmt.Errorf("pool is closed")
	}

	start := time.Now()
	defer func() {
		p.metrics.mu.Lock()
		p.metrics.waitTime += time.Since(start)
		p.metrics.mu.Unlock()
	}()

	select {
	case proc := <-p.processors:
		p.metrics.mu.Lock()
		p.metrics.inUse++
		p.metrics.totalAcquired++
		p.metrics.mu.Unlock()
		return proc, nil
	case <-time.After(AcquireTimeout):
		p.metrics.mu.Lock()
		p.metrics.acquireFailures++
		p.metrics.mu.Unlock()
		return nil, fmt.Errorf("timeout waiting for available processor")
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (p *ProcessorPool) Release(proc *processing.Processor) {
	if p.closed {
		return
	}

	p.metrics.mu.Lock()
	p.metrics.inUse--
	p.metrics.totalReleased++
	p.metrics.mu.Unlock()

	p.processors <- proc
}

func (p *ProcessorPool) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return
	}

	p.closed = true
	close(p.processors)

	// Drain so Release on a closed pool never blocks a late handler.
	for range p.processors {
	}
}

func (p *ProcessorPool) Metrics() PoolMetricsSnapshot {
	p.metrics.mu.RLock()
	defer p.metrics.mu.RUnlock()
	return PoolMetricsSnapshot{
		InUse:           p.metrics.inUse,
		TotalAcquired:   p.metrics.totalAcquired,
		TotalReleased:   p.metrics.totalReleased,
		AcquireFailures: p.metrics.acquireFailures,
		WaitTime:        p.metrics.waitTime,
	}
}
