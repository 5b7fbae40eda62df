package scheduler

import (
	"context"
	"log/slog"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"raffle_tracker/internal/auditor"
	"raffle_tracker/internal/domain"
)

type fakeResolver struct {
	runs chan struct{}
}

func (f *fakeResolver) Scan(ctx context.Context) (*domain.ScanStats, error) {
	select {
	case f.runs <- struct{}{}:
	default:
	}
	return &domain.ScanStats{}, nil
}

type fakeDiscoverer struct {
	raffles []domain.Raffle
	runs    chan struct{}
}

func (f *fakeDiscoverer) Discover(ctx context.Context) ([]domain.Raffle, error) {
	select {
	case f.runs <- struct{}{}:
	default:
	}
	return f.raffles, nil
}

type fakeStore struct {
	mu      sync.Mutex
	last    int64
	stored  int
	putRuns int
}

func (f *fakeStore) PutAll(ctx context.Context, raffles []domain.Raffle) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.putRuns++
	f.stored += len(raffles)
	return len(raffles), nil
}

func (f *fakeStore) LastDiscoveryAt(ctx context.Context) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.last, nil
}

func (f *fakeStore) SetLastDiscoveryAt(ctx context.Context, ts int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.last = ts
	return nil
}

type fakeNotifier struct {
	mu      sync.Mutex
	reasons []string
}

func (f *fakeNotifier) Invalidate(ctx context.Context, reason string, count int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reasons = append(f.reasons, reason)
	return nil
}

func (f *fakeNotifier) seen(reason string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.reasons {
		if r == reason {
			return true
		}
	}
	return false
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func canonicalConfig() Config {
	return Config{
		ContextID:          "ctx-1",
		CanonicalContextID: "ctx-1",
		ResolveEnabled:     true,
		ResolveInterval:    time.Hour,
	}
}

func waitSignal(t *testing.T, ch chan struct{}, msg string) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(2 * time.Second):
		t.Fatal(msg)
	}
}

func assertNoSignal(t *testing.T, ch chan struct{}, msg string) {
	t.Helper()
	select {
	case <-ch:
		t.Fatal(msg)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestIsCanonical(t *testing.T) {
	tests := []struct {
		name      string
		contextID string
		canonical string
		want      bool
	}{
		{"exact match", "ctx-1", "ctx-1", true},
		{"mismatch", "ctx-2", "ctx-1", false},
		{"empty ids never match", "", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := New(nil, nil, nil, nil, nil, testLogger(), Config{
				ContextID:          tt.contextID,
				CanonicalContextID: tt.canonical,
			})
			assert.Equal(t, tt.want, s.IsCanonical())
		})
	}
}

func TestStart_PassiveWhenNotCanonical(t *testing.T) {
	resolver := &fakeResolver{runs: make(chan struct{}, 1)}
	cfg := canonicalConfig()
	cfg.ContextID = "other"

	s := New(resolver, nil, &fakeStore{}, &fakeNotifier{}, nil, testLogger(), cfg)
	s.Start(context.Background())
	defer s.Stop()

	assertNoSignal(t, resolver.runs, "passive context must not run the resolve loop")
}

func TestStart_ResolveRunsImmediately(t *testing.T) {
	resolver := &fakeResolver{runs: make(chan struct{}, 1)}

	s := New(resolver, nil, &fakeStore{}, &fakeNotifier{}, nil, testLogger(), canonicalConfig())
	s.Start(context.Background())
	defer s.Stop()

	waitSignal(t, resolver.runs, "resolve loop did not run on start")
}

func TestDiscovery_ImmediateWhenStale(t *testing.T) {
	resolver := &fakeResolver{runs: make(chan struct{}, 1)}
	discoverer := &fakeDiscoverer{
		raffles: []domain.Raffle{{PostID: "p1"}, {PostID: "p2"}},
		runs:    make(chan struct{}, 1),
	}
	store := &fakeStore{}
	notifier := &fakeNotifier{}

	cfg := canonicalConfig()
	cfg.DiscoveryEnabled = true
	cfg.DiscoveryInterval = time.Hour

	s := New(resolver, discoverer, store, notifier, nil, testLogger(), cfg)
	s.Start(context.Background())
	defer s.Stop()

	waitSignal(t, discoverer.runs, "stale last-discovery timestamp must trigger an immediate run")

	require.Eventually(t, func() bool {
		store.mu.Lock()
		defer store.mu.Unlock()
		return store.stored == 2 && store.last > 0
	}, 2*time.Second, 10*time.Millisecond)

	require.Eventually(t, func() bool {
		return notifier.seen("discovery")
	}, 2*time.Second, 10*time.Millisecond)
}

func TestDiscovery_NoImmediateRunWhenFresh(t *testing.T) {
	resolver := &fakeResolver{runs: make(chan struct{}, 1)}
	discoverer := &fakeDiscoverer{runs: make(chan struct{}, 1)}
	store := &fakeStore{last: time.Now().Unix()}

	cfg := canonicalConfig()
	cfg.DiscoveryEnabled = true
	cfg.DiscoveryInterval = time.Hour

	s := New(resolver, discoverer, store, &fakeNotifier{}, nil, testLogger(), cfg)
	s.Start(context.Background())
	defer s.Stop()

	assertNoSignal(t, discoverer.runs, "fresh last-discovery timestamp must suppress the immediate run")
}

func TestReconfigure_EnablesResolveLoop(t *testing.T) {
	resolver := &fakeResolver{runs: make(chan struct{}, 1)}
	cfg := canonicalConfig()
	cfg.ResolveEnabled = false

	s := New(resolver, nil, &fakeStore{}, &fakeNotifier{}, nil, testLogger(), cfg)
	s.Start(context.Background())
	defer s.Stop()

	assertNoSignal(t, resolver.runs, "disabled resolve loop must not run")

	cfg.ResolveEnabled = true
	s.Reconfigure(cfg)

	waitSignal(t, resolver.runs, "reconfigured resolve loop did not start")
}

type fakeAuditor struct {
	runs chan struct{}
}

func (f *fakeAuditor) Audit(ctx context.Context) (*auditor.Report, error) {
	select {
	case f.runs <- struct{}{}:
	default:
	}
	return &auditor.Report{}, nil
}

func TestResolve_AuditRunsAfterScan(t *testing.T) {
	resolver := &fakeResolver{runs: make(chan struct{}, 1)}
	aud := &fakeAuditor{runs: make(chan struct{}, 1)}

	s := New(resolver, nil, &fakeStore{}, &fakeNotifier{}, aud, testLogger(), canonicalConfig())
	s.Start(context.Background())
	defer s.Stop()

	waitSignal(t, resolver.runs, "resolve loop did not run")
	waitSignal(t, aud.runs, "audit did not run after the scan")
}

func TestStop_HaltsLoops(t *testing.T) {
	resolver := &fakeResolver{runs: make(chan struct{}, 1)}
	cfg := canonicalConfig()
	cfg.ResolveInterval = 20 * time.Millisecond

	s := New(resolver, nil, &fakeStore{}, &fakeNotifier{}, nil, testLogger(), cfg)
	s.Start(context.Background())
	waitSignal(t, resolver.runs, "resolve loop did not run")

	s.Stop()

	// Drain anything in flight, then the ticker must be silent.
	select {
	case <-resolver.runs:
	default:
	}
	assertNoSignal(t, resolver.runs, "resolve loop still running after Stop")
}
