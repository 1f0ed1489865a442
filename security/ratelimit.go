package security

import (
	"log/slog"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// limiterEntry tracks one key's token bucket and its last use.
type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// KeyedLimiter rate-limits by an opaque key (typically the client IP) using
// a token bucket per key. Idle entries are dropped by a background janitor
// so the map cannot grow without bound.
type KeyedLimiter struct {
	mu      sync.Mutex
	entries map[string]*limiterEntry

	rate   rate.Limit
	burst  int
	maxAge time.Duration

	stop   chan struct{}
	logger *slog.Logger
}

// NewKeyedLimiter creates a limiter allowing perSecond requests with the
// given burst per key. Entries idle for 30 minutes are evicted.
func NewKeyedLimiter(perSecond float64, burst int, logger *slog.Logger) *KeyedLimiter {
	if logger == nil {
		logger = slog.Default()
	}
	kl := &KeyedLimiter{
		entries: make(map[string]*limiterEntry),
		rate:    rate.Limit(perSecond),
		burst:   burst,
		maxAge:  30 * time.Minute,
		stop:    make(chan struct{}),
		logger:  logger,
	}
	go kl.janitor()
	return kl
}

// Allow reports whether a request under the given key may proceed.
func (kl *KeyedLimiter) Allow(key string) bool {
	kl.mu.Lock()
	defer kl.mu.Unlock()

	entry, ok := kl.entries[key]
	if !ok {
		entry = &limiterEntry{limiter: rate.NewLimiter(kl.rate, kl.burst)}
		kl.entries[key] = entry
	}
	entry.lastSeen = time.Now()
	return entry.limiter.Allow()
}

// janitor drops idle entries every five minutes until Stop is called.
func (kl *KeyedLimiter) janitor() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			kl.evictIdle()
		case <-kl.stop:
			return
		}
	}
}

func (kl *KeyedLimiter) evictIdle() {
	kl.mu.Lock()
	defer kl.mu.Unlock()

	cutoff := time.Now().Add(-kl.maxAge)
	removed := 0
	for key, entry := range kl.entries {
		if entry.lastSeen.Before(cutoff) {
			delete(kl.entries, key)
			removed++
		}
	}
	if removed > 0 {
		kl.logger.Debug("Rate limiter cleanup completed",
			"removed", removed,
			"remaining", len(kl.entries))
	}
}

// Stop terminates the janitor goroutine.
func (kl *KeyedLimiter) Stop() {
	close(kl.stop)
}
