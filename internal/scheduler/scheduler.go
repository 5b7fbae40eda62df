package scheduler

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"raffle_tracker/internal/auditor"
	"raffle_tracker/internal/domain"
)

// Resolver runs one resolution scan over the store.
type Resolver interface {
	Scan(ctx context.Context) (*domain.ScanStats, error)
}

// Discoverer supplies candidate raffle records from the external feed.
type Discoverer interface {
	Discover(ctx context.Context) ([]domain.Raffle, error)
}

// DiscoveryStore is the store slice the discovery loop needs: batched
// upserts plus the persisted last-discovery timestamp that survives reloads.
type DiscoveryStore interface {
	PutAll(ctx context.Context, raffles []domain.Raffle) (int, error)
	LastDiscoveryAt(ctx context.Context) (int64, error)
	SetLastDiscoveryAt(ctx context.Context, ts int64) error
}

// Notifier signals read-side consumers after a discovery batch lands.
type Notifier interface {
	Invalidate(ctx context.Context, reason string, count int) error
}

// Auditor runs the consistency check after each resolution pass. Optional.
type Auditor interface {
	Audit(ctx context.Context) (*auditor.Report, error)
}

// Config holds the scheduler's runtime knobs. ContextID must exactly equal
// CanonicalContextID for the loops to run at all; every other context is a
// passive reader of the shared store.
type Config struct {
	ContextID          string
	CanonicalContextID string

	DiscoveryEnabled  bool
	DiscoveryInterval time.Duration
	ResolveEnabled    bool
	ResolveInterval   time.Duration
}

// Scheduler owns the discovery and resolution loops: their timers, enabled
// flags and periods, reconfigurable at runtime. It is constructed once and
// holds no global state.
type Scheduler struct {
	resolver   Resolver
	discoverer Discoverer
	store      DiscoveryStore
	notifier   Notifier
	auditor    Auditor
	logger     *slog.Logger
	now        func() int64

	mu        sync.Mutex
	cfg       Config
	ctx       context.Context
	cancel    context.CancelFunc
	running   bool
	discovery *loop
	resolve   *loop
	wg        sync.WaitGroup
}

func New(
	resolver Resolver,
	discoverer Discoverer,
	store DiscoveryStore,
	notifier Notifier,
	aud Auditor,
	logger *slog.Logger,
	cfg Config,
) *Scheduler {
	return &Scheduler{
		resolver:   resolver,
		discoverer: discoverer,
		store:      store,
		notifier:   notifier,
		auditor:    aud,
		logger:     logger.With("component", "scheduler"),
		now:        func() int64 { return time.Now().Unix() },
		cfg:        cfg,
	}
}

// IsCanonical reports whether this context is the designated sole producer.
func (s *Scheduler) IsCanonical() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cfg.ContextID != "" && s.cfg.ContextID == s.cfg.CanonicalContextID
}

// Start launches the enabled loops and returns immediately. Non-canonical
// contexts stay passive: Start logs and does nothing. The loops stop when
// ctx is cancelled or Stop is called.
func (s *Scheduler) Start(ctx context.Context) {
	if !s.IsCanonical() {
		s.logger.Info("not the canonical context, staying passive",
			"context_id", s.cfg.ContextID,
		)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return
	}
	s.running = true
	s.ctx, s.cancel = context.WithCancel(ctx)

	s.logger.Info("scheduler started",
		"discovery_enabled", s.cfg.DiscoveryEnabled,
		"discovery_interval", s.cfg.DiscoveryInterval,
		"resolve_enabled", s.cfg.ResolveEnabled,
		"resolve_interval", s.cfg.ResolveInterval,
	)

	if s.cfg.DiscoveryEnabled && s.discoverer == nil {
		s.logger.Warn("discovery enabled but no discoverer wired, loop disabled")
	}
	if s.cfg.DiscoveryEnabled && s.discoverer != nil {
		s.discovery = s.startLoop(s.cfg.DiscoveryInterval, s.runDiscovery, s.discoveryDue())
	}
	if s.cfg.ResolveEnabled {
		// Resolution always runs immediately on load; interrupted work is
		// simply revisited.
		s.resolve = s.startLoop(s.cfg.ResolveInterval, s.runResolve, true)
	}
}

// Stop halts both loops and waits for in-flight runs to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	s.cancel()
	s.discovery = nil
	s.resolve = nil
	s.mu.Unlock()

	s.wg.Wait()
	s.logger.Info("scheduler stopped")
}

// Reconfigure applies new enabled flags and periods at runtime. A changed
// period restarts that loop's timer.
func (s *Scheduler) Reconfigure(cfg Config) {
	s.mu.Lock()
	defer s.mu.Unlock()

	old := s.cfg
	s.cfg = cfg

	if !s.running {
		return
	}

	if old.DiscoveryEnabled != cfg.DiscoveryEnabled || old.DiscoveryInterval != cfg.DiscoveryInterval {
		if s.discovery != nil {
			s.discovery.stop()
			s.discovery = nil
		}
		if cfg.DiscoveryEnabled && s.discoverer != nil {
			s.discovery = s.startLoop(cfg.DiscoveryInterval, s.runDiscovery, s.discoveryDue())
		}
		s.logger.Info("discovery loop reconfigured",
			"enabled", cfg.DiscoveryEnabled,
			"interval", cfg.DiscoveryInterval,
		)
	}

	if old.ResolveEnabled != cfg.ResolveEnabled || old.ResolveInterval != cfg.ResolveInterval {
		if s.resolve != nil {
			s.resolve.stop()
			s.resolve = nil
		}
		if cfg.ResolveEnabled {
			s.resolve = s.startLoop(cfg.ResolveInterval, s.runResolve, true)
		}
		s.logger.Info("resolution loop reconfigured",
			"enabled", cfg.ResolveEnabled,
			"interval", cfg.ResolveInterval,
		)
	}
}

// discoveryDue checks the persisted last-discovery timestamp against the
// interval. An elapsed-time check rather than a bare timer, so a process
// reload does not reset the throttle. Callers hold s.mu.
func (s *Scheduler) discoveryDue() bool {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	last, err := s.store.LastDiscoveryAt(ctx)
	if err != nil {
		s.logger.Warn("failed to read last discovery timestamp", "error", err)
		return true
	}
	return time.Duration(s.now()-last)*time.Second >= s.cfg.DiscoveryInterval
}

// loop is one restartable periodic runner.
type loop struct {
	done chan struct{}
}

func (l *loop) stop() {
	close(l.done)
}

// startLoop launches a goroutine that optionally runs fn immediately, then
// on every tick until the loop or the scheduler stops. Callers hold s.mu.
func (s *Scheduler) startLoop(interval time.Duration, fn func(ctx context.Context), immediate bool) *loop {
	l := &loop{done: make(chan struct{})}
	ctx := s.ctx

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		if immediate {
			fn(ctx)
		}

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-l.done:
				return
			case <-ticker.C:
				fn(ctx)
			}
		}
	}()
	return l
}

func (s *Scheduler) runDiscovery(ctx context.Context) {
	runCtx, cancel := context.WithTimeout(ctx, 5*time.Minute)
	defer cancel()

	raffles, err := s.discoverer.Discover(runCtx)
	if err != nil {
		s.logger.Error("discovery failed", "error", err)
		return
	}

	stored, err := s.store.PutAll(runCtx, raffles)
	if err != nil {
		s.logger.Error("failed to store discovered raffles", "error", err)
		return
	}

	if err := s.store.SetLastDiscoveryAt(runCtx, s.now()); err != nil {
		s.logger.Warn("failed to persist discovery timestamp", "error", err)
	}

	if stored > 0 && s.notifier != nil {
		if err := s.notifier.Invalidate(runCtx, "discovery", stored); err != nil {
			s.logger.Warn("invalidate signal failed", "error", err)
		}
	}

	s.logger.Info("discovery completed", "fetched", len(raffles), "stored", stored)
}

func (s *Scheduler) runResolve(ctx context.Context) {
	runCtx, cancel := context.WithTimeout(ctx, 30*time.Minute)
	defer cancel()

	if _, err := s.resolver.Scan(runCtx); err != nil && err != context.Canceled {
		s.logger.Error("resolution scan failed", "error", err)
		return
	}

	if s.auditor != nil {
		report, err := s.auditor.Audit(runCtx)
		if err != nil {
			s.logger.Warn("post-scan audit failed", "error", err)
			return
		}
		if len(report.Findings) > 0 {
			s.logger.Warn("post-scan audit reported findings",
				"scanned", report.Scanned,
				"findings", len(report.Findings),
			)
		}
	}
}
