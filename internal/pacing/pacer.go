// Package pacing throttles the cube engine's historical backfill walk
// so that regenerating years of cube cells for one tenant cannot
// starve concurrent reads and writes for every other tenant sharing
// the database. The limiter-per-key-with-cleanup shape is the same
// one the teacher uses for its per-API-token request rate limiter,
// repurposed here from "requests per token" to "periods regenerated
// per tenant".
package pacing

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const (
	// CleanupInterval is how often stale per-tenant limiters are swept.
	CleanupInterval = 5 * time.Minute
	// LimiterTTL is how long an idle tenant's limiter is kept around.
	LimiterTTL = 10 * time.Minute
)

// Pacer hands out a per-tenant token-bucket limiter for the cube
// backfill walk.
type Pacer struct {
	mu        sync.Mutex
	limiters  map[string]*limiterEntry
	rateLimit rate.Limit
	burstSize int
	stopCh    chan struct{}
}

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// New creates a Pacer allowing periodsPerSecond periods to be
// regenerated per tenant, with the given burst allowance.
func New(periodsPerSecond float64, burstSize int) *Pacer {
	p := &Pacer{
		limiters:  make(map[string]*limiterEntry),
		rateLimit: rate.Limit(periodsPerSecond),
		burstSize: burstSize,
		stopCh:    make(chan struct{}),
	}
	go p.cleanup()
	return p
}

// Wait blocks until tenantID's limiter admits the next regenerated
// period, or ctx is done.
func (p *Pacer) Wait(ctx context.Context, tenantID string) error {
	return p.limiterFor(tenantID).Wait(ctx)
}

func (p *Pacer) limiterFor(tenantID string) *rate.Limiter {
	p.mu.Lock()
	defer p.mu.Unlock()

	entry, ok := p.limiters[tenantID]
	if !ok {
		entry = &limiterEntry{
			limiter:  rate.NewLimiter(p.rateLimit, p.burstSize),
			lastSeen: time.Now(),
		}
		p.limiters[tenantID] = entry
	} else {
		entry.lastSeen = time.Now()
	}
	return entry.limiter
}

func (p *Pacer) cleanup() {
	ticker := time.NewTicker(CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			p.mu.Lock()
			now := time.Now()
			for tenantID, entry := range p.limiters {
				if now.Sub(entry.lastSeen) > LimiterTTL {
					delete(p.limiters, tenantID)
				}
			}
			p.mu.Unlock()
		case <-p.stopCh:
			return
		}
	}
}

// Stop halts the cleanup goroutine.
func (p *Pacer) Stop() {
	close(p.stopCh)
}
