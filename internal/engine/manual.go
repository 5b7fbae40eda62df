package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"raffle_tracker/internal/domain"
)

// Action selects one step of the per-raffle sequence for a manual run.
type Action string

const (
	ActionToken Action = "token"
	ActionFetch Action = "fetch"
	ActionClaim Action = "claim"
)

// RunManual executes a single action over a caller-supplied subset of
// raffles, with an explicit inter-raffle delay. The claim action refuses
// five-star and unknown-tier raffles even though the run was explicitly
// requested.
func (e *Engine) RunManual(ctx context.Context, action Action, postIDs []string, delay time.Duration) (*domain.ScanStats, error) {
	switch action {
	case ActionToken, ActionFetch, ActionClaim:
	default:
		return nil, fmt.Errorf("unknown action %q", action)
	}

	startTime := time.Now()
	stats := &domain.ScanStats{ScanID: uuid.NewString()}
	logger := e.logger.With("scan_id", stats.ScanID, "action", string(action))
	logger.Info("starting manual run", "raffles", len(postIDs), "delay", delay)

	for _, postID := range postIDs {
		stats.Scanned++
		r, err := e.store.Get(ctx, postID)
		if err != nil {
			logger.Warn("manual run skipping raffle", "post_id", postID, "error", err)
			stats.Errors++
			continue
		}

		switch action {
		case ActionToken:
			e.manualToken(ctx, r, stats)
		case ActionFetch:
			stats.Candidates++
			if _, done := e.ensureToken(ctx, r, stats); done {
				stats.Errors++
				break
			}
			e.manualFetch(ctx, r, stats)
		case ActionClaim:
			e.manualClaim(ctx, r, stats, logger)
		}

		if err := sleepCtx(ctx, delay); err != nil {
			stats.Duration = time.Since(startTime)
			return stats, err
		}
	}

	stats.Duration = time.Since(startTime)
	logger.Info("manual run completed",
		"scanned", stats.Scanned,
		"claimed", stats.Claimed,
		"errors", stats.Errors,
	)
	return stats, nil
}

// manualToken always refreshes, replacing any present token.
func (e *Engine) manualToken(ctx context.Context, r *domain.Raffle, stats *domain.ScanStats) {
	if r.Token.WebviewURL == "" {
		now := e.now()
		r.RecordAttemptError(domain.TransportNetworkError, "token-missing: no source url", now)
		r.Rederive(now)
		e.persist(ctx, r, stats)
		stats.Errors++
		return
	}
	token, err := e.api.RefreshToken(ctx, r.Token.WebviewURL)
	if err != nil {
		e.recordTransportFailure(r, err)
		e.persist(ctx, r, stats)
		stats.Errors++
		return
	}
	r.Token = *token
	r.UpdatedAt = e.now()
	e.persist(ctx, r, stats)
}

func (e *Engine) manualFetch(ctx context.Context, r *domain.Raffle, stats *domain.ScanStats) {
	res, err := e.callWithAuthRetry(ctx, r, e.api.FetchRaffleData)
	if err != nil {
		e.recordTransportFailure(r, err)
		e.persist(ctx, r, stats)
		stats.Errors++
		return
	}
	if _, done := e.recordHTTPFailure(ctx, r, res, stats); done {
		stats.Errors++
		return
	}
	now := e.now()
	e.merge(r, res.Data, now)
	r.RecordAttemptOK(now)
	r.Rederive(now)
	e.persist(ctx, r, stats)
	if r.HasWinner() {
		stats.Resolved++
	}
}

// manualClaim runs the claim step directly, but the five-star refusal is not
// overridable: an explicit request still never claims a five-star or
// unknown-tier raffle.
func (e *Engine) manualClaim(ctx context.Context, r *domain.Raffle, stats *domain.ScanStats, logger *slog.Logger) {
	if !autoClaimTierAllowed(r) {
		logger.Warn("refusing manual claim for five-star or unknown tier",
			"post_id", r.PostID,
		)
		stats.Skipped++
		return
	}
	if r.HasWinner() && r.Winner.WinnerID != e.config.CurrentUserID {
		logger.Warn("refusing manual claim, winner is someone else", "post_id", r.PostID)
		stats.Skipped++
		return
	}
	if _, done := e.ensureToken(ctx, r, stats); done {
		stats.Errors++
		return
	}
	if _, done := e.claim(ctx, r, stats, e.logger.With("post_id", r.PostID)); done {
		stats.Errors++
		return
	}
	if r.HasWinner() {
		stats.Resolved++
	}
}
