package breaker

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)
	return logger
}

var errUpstream = errors.New("upstream failed")

func fail(ctx context.Context) error { return errUpstream }
func succeed(ctx context.Context) error { return nil }

func TestOpensAfterMaxFailures(t *testing.T) {
	b := New(Config{Name: "mail", MaxFailures: 3, OpenTimeout: time.Minute}, testLogger())
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if err := b.Execute(ctx, fail); !errors.Is(err, errUpstream) {
			t.Fatalf("Expected upstream error, got %v", err)
		}
	}

	if b.State() != StateOpen {
		t.Fatalf("Expected open, got %s", b.State())
	}

	called := false
	err := b.Execute(ctx, func(ctx context.Context) error {
		called = true
		return nil
	})
	if !errors.Is(err, ErrOpen) {
		t.Errorf("Expected ErrOpen, got %v", err)
	}
	if called {
		t.Error("Function must not run while open")
	}

	stats := b.Stats()
	if stats.TotalRequests != 3 || stats.TotalFailures != 3 || stats.TotalRejected != 1 {
		t.Errorf("Unexpected stats %+v", stats)
	}
}

func TestSuccessResetsFailureCount(t *testing.T) {
	b := New(Config{Name: "mail", MaxFailures: 2, OpenTimeout: time.Minute}, testLogger())
	ctx := context.Background()

	_ = b.Execute(ctx, fail)
	_ = b.Execute(ctx, succeed)
	_ = b.Execute(ctx, fail)

	if b.State() != StateClosed {
		t.Errorf("Expected closed, got %s", b.State())
	}
}

func TestHalfOpenRecovery(t *testing.T) {
	b := New(Config{Name: "images", MaxFailures: 1, OpenTimeout: 30 * time.Millisecond}, testLogger())
	ctx := context.Background()

	_ = b.Execute(ctx, fail)
	if b.State() != StateOpen {
		t.Fatalf("Expected open, got %s", b.State())
	}

	time.Sleep(40 * time.Millisecond)

	if err := b.Execute(ctx, succeed); err != nil {
		t.Fatalf("Expected probe to pass, got %v", err)
	}
	if b.State() != StateClosed {
		t.Errorf("Expected closed after successful probe, got %s", b.State())
	}
}

func TestHalfOpenFailureReopens(t *testing.T) {
	b := New(Config{Name: "images", MaxFailures: 1, OpenTimeout: 30 * time.Millisecond}, testLogger())
	ctx := context.Background()

	_ = b.Execute(ctx, fail)
	time.Sleep(40 * time.Millisecond)
	_ = b.Execute(ctx, fail)

	if b.State() != StateOpen {
		t.Errorf("Expected open after failed probe, got %s", b.State())
	}
}

func TestHalfOpenLimitsProbes(t *testing.T) {
	b := New(Config{Name: "images", MaxFailures: 1, OpenTimeout: 20 * time.Millisecond, HalfOpenMax: 1}, testLogger())
	ctx := context.Background()

	_ = b.Execute(ctx, fail)
	time.Sleep(30 * time.Millisecond)

	release := make(chan struct{})
	started := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_ = b.Execute(ctx, func(ctx context.Context) error {
			close(started)
			<-release
			return nil
		})
	}()

	<-started
	if err := b.Execute(ctx, succeed); !errors.Is(err, ErrOpen) {
		t.Errorf("Expected second probe to be rejected, got %v", err)
	}
	close(release)
	wg.Wait()

	if b.State() != StateClosed {
		t.Errorf("Expected closed, got %s", b.State())
	}
}

func TestCancelledContextIsNotAFailure(t *testing.T) {
	b := New(Config{Name: "mail", MaxFailures: 1, OpenTimeout: time.Minute}, testLogger())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := b.Execute(ctx, func(ctx context.Context) error { return ctx.Err() })
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Expected context.Canceled, got %v", err)
	}
	if b.State() != StateClosed {
		t.Errorf("Expected closed, got %s", b.State())
	}
}

func TestStateChangeCallback(t *testing.T) {
	var calls int32
	done := make(chan struct{}, 2)
	b := New(Config{
		Name:        "mail",
		MaxFailures: 1,
		OpenTimeout: time.Minute,
		OnStateChange: func(name string, from, to State) {
			atomic.AddInt32(&calls, 1)
			done <- struct{}{}
		},
	}, testLogger())

	_ = b.Execute(context.Background(), fail)
	b.Reset()

	for i := 0; i < 2; i++ {
		select {
		case <-done:
		case <-time.After(time.Second):
			t.Fatal("Timed out waiting for callback")
		}
	}
	if atomic.LoadInt32(&calls) != 2 {
		t.Errorf("Expected 2 callbacks, got %d", calls)
	}
}

func TestConfigDefaults(t *testing.T) {
	b := New(Config{}, testLogger())
	if b.name != "unnamed" || b.maxFailures != 5 || b.openTimeout != 30*time.Second || b.halfOpenMax != 1 {
		t.Errorf("Unexpected defaults: %s", b)
	}
}

func TestManagerReturnsSameBreaker(t *testing.T) {
	m := NewManager(testLogger())
	a := m.GetOrCreate("mail", Config{MaxFailures: 2})
	b := m.GetOrCreate("mail", Config{MaxFailures: 9})
	m.GetOrCreate("images", Config{})

	if a != b {
		t.Error("Expected the same breaker instance")
	}
	stats := m.AllStats()
	if len(stats) != 2 || stats[0].Name != "images" || stats[1].Name != "mail" {
		t.Errorf("Unexpected stats %+v", stats)
	}
}

func TestConcurrentExecuteKeepsStatsConsistent(t *testing.T) {
	b := New(Config{Name: "images", MaxFailures: 5, OpenTimeout: time.Minute}, testLogger())
	ctx := context.Background()

	const workers = 40
	var wg sync.WaitGroup
	var rejected atomic.Int64
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			fn := succeed
			if i%2 == 0 {
				fn = fail
			}
			if err := b.Execute(ctx, fn); errors.Is(err, ErrOpen) {
				rejected.Add(1)
			}
		}(i)
	}
	wg.Wait()

	stats := b.Stats()
	if stats.TotalRequests+stats.TotalRejected != workers {
		t.Errorf("Expected %d calls accounted for, got %+v", workers, stats)
	}
	if stats.TotalFailures+stats.TotalSuccesses != stats.TotalRequests {
		t.Errorf("Every admitted call needs a verdict: %+v", stats)
	}
	if stats.TotalRejected != rejected.Load() {
		t.Errorf("Expected %d rejections, stats say %d", rejected.Load(), stats.TotalRejected)
	}
}

func TestResetClosesBreaker(t *testing.T) {
	b := New(Config{Name: "mail", MaxFailures: 1, OpenTimeout: time.Minute}, testLogger())
	b.Execute(context.Background(), fail)
	if b.State() != StateOpen {
		t.Fatalf("Expected open, got %s", b.State())
	}

	b.Reset()
	if b.State() != StateClosed {
		t.Errorf("Expected closed after reset, got %s", b.State())
	}
	if err := b.Execute(context.Background(), succeed); err != nil {
		t.Errorf("Expected call through after reset, got %v", err)
	}
}
