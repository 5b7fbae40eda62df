package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/google/uuid"

	"raffle_tracker/internal/config"
	"raffle_tracker/internal/domain"
	"raffle_tracker/internal/raffleapi"
)

// Engine advances expired, unresolved raffles toward a terminal state via
// the external gateway, honoring the conservative claim policies. All I/O
// failures are converted into status fields on the entity; no error from a
// single raffle escapes past the scan loop.
type Engine struct {
	store    RaffleStore
	api      RaffleAPI
	notifier Notifier
	logger   *slog.Logger
	config   config.EngineConfig

	now func() int64
}

func New(
	store RaffleStore,
	api RaffleAPI,
	notifier Notifier,
	logger *slog.Logger,
	cfg config.EngineConfig,
) *Engine {
	return &Engine{
		store:    store,
		api:      api,
		notifier: notifier,
		logger:   logger.With("component", "engine"),
		config:   cfg,
		now:      func() int64 { return time.Now().Unix() },
	}
}

type outcome int

const (
	outcomeAdvanced outcome = iota
	outcomeClaimed
	outcomeResolved
	outcomeFailed
)

// Scan walks the whole store and processes every candidate sequentially,
// separated by the configured throttle delay. A panic anywhere inside the
// loop is converted into the Crashed flag on the summary; raffles already
// persisted earlier in the scan keep their progress.
func (e *Engine) Scan(ctx context.Context) (stats *domain.ScanStats, err error) {
	startTime := time.Now()
	stats = &domain.ScanStats{ScanID: uuid.NewString()}
	logger := e.logger.With("scan_id", stats.ScanID)

	defer func() {
		stats.Duration = time.Since(startTime)
		if r := recover(); r != nil {
			stats.Crashed = true
			logger.Error("scan crashed", "panic", fmt.Sprint(r))
		}
		if stats.Persisted > 0 && e.notifier != nil {
			if nerr := e.notifier.Invalidate(ctx, "scan", stats.Persisted); nerr != nil {
				logger.Warn("invalidate signal failed", "error", nerr)
			}
		}
		logger.Info("scan completed",
			"scanned", stats.Scanned,
			"candidates", stats.Candidates,
			"claimed", stats.Claimed,
			"resolved", stats.Resolved,
			"errors", stats.Errors,
			"crashed", stats.Crashed,
			"duration", stats.Duration,
		)
	}()

	logger.Info("starting scan", "throttle", e.config.ThrottleDelay)

	days, err := e.store.ListDayKeys(ctx)
	if err != nil {
		return stats, fmt.Errorf("list day keys: %w", err)
	}

	for _, day := range days {
		raffles, err := e.store.ListByDay(ctx, day)
		if err != nil {
			return stats, fmt.Errorf("list day %s: %w", day, err)
		}
		for i := range raffles {
			r := &raffles[i]
			stats.Scanned++
			if !e.isCandidate(r) {
				stats.Skipped++
				continue
			}
			stats.Candidates++

			switch e.processRaffle(ctx, r, stats) {
			case outcomeResolved:
				stats.Resolved++
			case outcomeFailed:
				stats.Errors++
			}

			if err := sleepCtx(ctx, e.config.ThrottleDelay); err != nil {
				return stats, err
			}
		}
	}

	return stats, nil
}

// isCandidate filters the store scan down to raffles worth an API round
// trip: ended, no winner yet, and not permanently deleted. A raffle turned
// inactive by a hard 500 is never revisited; one turned inactive by a
// terminal 401 is retried on the next scan, since a token refresh may
// recover it.
func (e *Engine) isCandidate(r *domain.Raffle) bool {
	if r.HasWinner() {
		return false
	}
	if domain.IsHTTPTransport(r.Status.Transport, http.StatusInternalServerError) {
		return false
	}
	return r.Ended(e.now())
}

// processRaffle runs the per-candidate step sequence. The raffle is
// persisted after every terminal step, bounding the cost of an interruption
// to at most one redo of the current raffle.
func (e *Engine) processRaffle(ctx context.Context, r *domain.Raffle, stats *domain.ScanStats) outcome {
	logger := e.logger.With("post_id", r.PostID)

	if out, done := e.ensureToken(ctx, r, stats); done {
		return out
	}

	res, err := e.callWithAuthRetry(ctx, r, e.api.FetchRaffleData)
	if err != nil {
		e.recordTransportFailure(r, err)
		e.persist(ctx, r, stats)
		return outcomeFailed
	}
	if out, done := e.recordHTTPFailure(ctx, r, res, stats); done {
		return out
	}

	now := e.now()
	e.merge(r, res.Data, now)
	r.RecordAttemptOK(now)
	r.Rederive(now)
	e.persist(ctx, r, stats)

	// A winner revealed by this fetch does not short-circuit: the self-claim
	// gate needs to see it.
	switch EvaluateClaimPolicy(r, e.config.CurrentUserID, e.now()) {
	case ClaimSelf, ClaimBookkeeping:
		if out, done := e.claim(ctx, r, stats, logger); done {
			return out
		}
	}

	if e.config.InferSoleEntrantWinner && e.inferSoleEntrantWinner(r) {
		logger.Info("inferred sole-entrant winner", "winner_id", r.Winner.WinnerID)
		e.persist(ctx, r, stats)
	}

	if r.HasWinner() {
		return outcomeResolved
	}
	if r.Claim != nil {
		return outcomeClaimed
	}
	return outcomeAdvanced
}

// ensureToken guarantees a bearer token before any gateway call. done=true
// means the step sequence stops here for this pass.
func (e *Engine) ensureToken(ctx context.Context, r *domain.Raffle, stats *domain.ScanStats) (outcome, bool) {
	if r.Token.WebbitToken != "" {
		return 0, false
	}
	now := e.now()
	if r.Token.WebviewURL == "" {
		r.RecordAttemptError(domain.TransportNetworkError, "token-missing: no source url", now)
		r.Rederive(now)
		e.persist(ctx, r, stats)
		return outcomeFailed, true
	}

	token, err := e.api.RefreshToken(ctx, r.Token.WebviewURL)
	if err != nil {
		e.recordTransportFailure(r, err)
		e.persist(ctx, r, stats)
		return outcomeFailed, true
	}
	r.Token = *token
	r.UpdatedAt = e.now()
	e.persist(ctx, r, stats)
	return 0, false
}

// callWithAuthRetry performs one gateway call, refreshing the token exactly
// once on a 401 and resubmitting the same request. A 401 on the resubmission
// comes back to the caller as a terminal status for this pass.
func (e *Engine) callWithAuthRetry(
	ctx context.Context,
	r *domain.Raffle,
	call func(ctx context.Context, token domain.Token) (*raffleapi.Result, error),
) (*raffleapi.Result, error) {
	res, err := call(ctx, r.Token)
	if err != nil {
		return nil, err
	}
	if res.Status != http.StatusUnauthorized || r.Token.WebviewURL == "" {
		return res, nil
	}

	token, err := e.api.RefreshToken(ctx, r.Token.WebviewURL)
	if err != nil {
		return nil, fmt.Errorf("token refresh after 401: %w", err)
	}
	r.Token = *token
	return call(ctx, r.Token)
}

// recordHTTPFailure handles non-2xx statuses. A 500 at any step marks the
// raffle permanently inactive; a 401 surviving the refresh retry is terminal
// for this pass; anything else is a transient failure left for the next
// scheduled scan. done=true means the step sequence stops here.
func (e *Engine) recordHTTPFailure(ctx context.Context, r *domain.Raffle, res *raffleapi.Result, stats *domain.ScanStats) (outcome, bool) {
	if res.OK() {
		return 0, false
	}
	now := e.now()
	switch res.Status {
	case http.StatusInternalServerError:
		r.RecordAttemptError(domain.TransportHTTP(res.Status), "gateway hard failure, raffle treated as deleted", now)
	case http.StatusUnauthorized:
		r.RecordAttemptError(domain.TransportHTTP(res.Status), "unauthorized after token refresh", now)
	default:
		r.RecordAttemptError(domain.TransportHTTP(res.Status), fmt.Sprintf("gateway status %d", res.Status), now)
	}
	r.Rederive(now)
	e.persist(ctx, r, stats)
	return outcomeFailed, true
}

// claim performs the gated claim call and, when the raffle is still marked
// unrevealed afterwards, re-fetches once to resolve the winner identity.
// done=true means a failure stopped the sequence.
func (e *Engine) claim(ctx context.Context, r *domain.Raffle, stats *domain.ScanStats, logger *slog.Logger) (outcome, bool) {
	res, err := e.callWithAuthRetry(ctx, r, e.api.Claim)
	if err != nil {
		e.recordTransportFailure(r, err)
		e.persist(ctx, r, stats)
		return outcomeFailed, true
	}
	if out, done := e.recordHTTPFailure(ctx, r, res, stats); done {
		return out, true
	}

	now := e.now()
	r.Claim = &domain.Claim{ClaimedAt: now}
	e.merge(r, res.Data, now)
	r.RecordAttemptOK(now)
	r.Rederive(now)
	e.persist(ctx, r, stats)
	stats.Claimed++
	logger.Info("claimed raffle")

	if r.HasWinner() || !isUnrevealed(r) {
		return 0, false
	}

	res, err = e.callWithAuthRetry(ctx, r, e.api.FetchRaffleData)
	if err != nil {
		e.recordTransportFailure(r, err)
		e.persist(ctx, r, stats)
		return outcomeFailed, true
	}
	if out, done := e.recordHTTPFailure(ctx, r, res, stats); done {
		return out, true
	}

	now = e.now()
	e.merge(r, res.Data, now)
	r.RecordAttemptOK(now)
	r.Rederive(now)
	e.persist(ctx, r, stats)
	return 0, false
}

// merge overwrites stored raffle attributes with whatever the gateway
// reported. Authoritative data always replaces heuristic placeholders; a
// recorded winner is only ever replaced by another non-empty winner, never
// cleared.
func (e *Engine) merge(r *domain.Raffle, data *raffleapi.RaffleData, now int64) {
	if data == nil {
		return
	}
	if data.EndTime > 0 {
		r.Raffle.EndTime = data.EndTime
	}
	if data.StickerID != "" {
		r.Raffle.StickerID = data.StickerID
	}
	if data.StickerName != "" {
		r.Raffle.StickerName = data.StickerName
	}
	if data.StickerStars != nil {
		v := *data.StickerStars
		r.Raffle.StickerStars = &v
	}
	if data.ParticipantIDs != nil {
		r.Raffle.ParticipantIDs = append([]string(nil), data.ParticipantIDs...)
	}
	if data.UnrevealedForCurrentUser != nil {
		v := *data.UnrevealedForCurrentUser
		r.Raffle.UnrevealedForCurrentUser = &v
	}
	if data.WinnerID != "" || data.WinnerName != "" {
		r.Winner = domain.Winner{
			WinnerID:        data.WinnerID,
			WinnerName:      data.WinnerName,
			WinnerFetchedAt: now,
		}
	}
	r.LastSeenAt = now
	r.UpdatedAt = now
}

// recordTransportFailure classifies a transport-level error onto the entity.
func (e *Engine) recordTransportFailure(r *domain.Raffle, err error) {
	now := e.now()
	transport := domain.TransportNetworkError
	if isTimeout(err) {
		transport = domain.TransportTimeout
	}
	r.RecordAttemptError(transport, err.Error(), now)
	r.Rederive(now)
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// persist submits the raffle through the store's single-authority path. A
// store failure here is logged and counted but cannot stop the scan; the
// raffle is simply revisited next cycle.
func (e *Engine) persist(ctx context.Context, r *domain.Raffle, stats *domain.ScanStats) {
	stored, err := e.store.Put(ctx, r)
	if err != nil {
		e.logger.Error("persist failed", "post_id", r.PostID, "error", err)
		stats.Errors++
		return
	}
	*r = *stored
	stats.Persisted++
}

func isUnrevealed(r *domain.Raffle) bool {
	return r.Raffle.UnrevealedForCurrentUser != nil && *r.Raffle.UnrevealedForCurrentUser
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}
