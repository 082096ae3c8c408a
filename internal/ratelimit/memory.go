package ratelimit

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

type window struct {
	start time.Time
	count int
}

// MemoryLimiter keeps one fixed window per key in process memory. At most
// maxKeys windows are tracked; past that, expired windows are dropped first
// and then the oldest window is evicted.
type MemoryLimiter struct {
	limit   int
	period  time.Duration
	maxKeys int
	now     func() time.Time
	logger  *logrus.Logger

	mutex   sync.Mutex
	windows map[string]*window
}

func NewMemoryLimiter(limit int, period time.Duration, maxKeys int, logger *logrus.Logger) *MemoryLimiter {
	if limit <= 0 {
		limit = 10
	}
	if period <= 0 {
		period = time.Minute
	}
	if maxKeys <= 0 {
		maxKeys = 10000
	}
	return &MemoryLimiter{
		limit:   limit,
		period:  period,
		maxKeys: maxKeys,
		now:     time.Now,
		logger:  logger,
		windows: make(map[string]*window),
	}
}

func (l *MemoryLimiter) Allow(ctx context.Context, key string) (Decision, error) {
	l.mutex.Lock()
	defer l.mutex.Unlock()

	now := l.now()
	w, ok := l.windows[key]
	if ok && now.Sub(w.start) >= l.period {
		w.start, w.count = now, 0
	}
	if !ok {
		if len(l.windows) >= l.maxKeys {
			l.makeRoom(now)
		}
		w = &window{start: now}
		l.windows[key] = w
	}

	if w.count >= l.limit {
		return Decision{RetryAfter: w.start.Add(l.period).Sub(now)}, nil
	}
	w.count++
	return Decision{Allowed: true, Remaining: l.limit - w.count}, nil
}

// makeRoom must be called with the mutex held.
func (l *MemoryLimiter) makeRoom(now time.Time) {
	if l.sweep(now) > 0 {
		return
	}
	var oldestKey string
	var oldest time.Time
	for k, w := range l.windows {
		if oldestKey == "" || w.start.Before(oldest) {
			oldestKey, oldest = k, w.start
		}
	}
	delete(l.windows, oldestKey)
}

func (l *MemoryLimiter) sweep(now time.Time) int {
	removed := 0
	for k, w := range l.windows {
		if now.Sub(w.start) >= l.period {
			delete(l.windows, k)
			removed++
		}
	}
	return removed
}

// Cleanup drops expired windows and returns how many were removed.
func (l *MemoryLimiter) Cleanup() int {
	l.mutex.Lock()
	defer l.mutex.Unlock()
	return l.sweep(l.now())
}

func (l *MemoryLimiter) Len() int {
	l.mutex.Lock()
	defer l.mutex.Unlock()
	return len(l.windows)
}

// Run cleans up every interval until ctx is cancelled.
func (l *MemoryLimiter) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := l.Cleanup(); n > 0 {
				l.logger.WithField("removed", n).Debug("Rate limit windows cleaned up")
			}
		}
	}
}
