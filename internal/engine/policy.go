package engine

import "raffle_tracker/internal/domain"

// ClaimPolicy identifies which of the two mutually exclusive claim gates a
// raffle satisfies, if any.
type ClaimPolicy int

const (
	ClaimNone ClaimPolicy = iota
	// ClaimSelf: the current user won and the win is still unrevealed.
	ClaimSelf
	// ClaimBookkeeping: the raffle ended revealed with no winner on record
	// and the current user never entered; claiming settles the record.
	ClaimBookkeeping
)

// EvaluateClaimPolicy checks the self-claim gate first, then the
// non-participant bookkeeping gate. At most one can match.
func EvaluateClaimPolicy(r *domain.Raffle, userID string, now int64) ClaimPolicy {
	if selfClaimEligible(r, userID, now) {
		return ClaimSelf
	}
	if bookkeepingClaimEligible(r, userID, now) {
		return ClaimBookkeeping
	}
	return ClaimNone
}

// selfClaimEligible gates the irreversible self-claim: the raffle must have
// ended, the stored winner must be the current user, the win must still be
// unrevealed, and the sticker tier must be known and below five stars.
// Five-star and indeterminate-tier wins are never auto-claimed.
func selfClaimEligible(r *domain.Raffle, userID string, now int64) bool {
	if !r.Ended(now) {
		return false
	}
	if userID == "" || r.Winner.WinnerID != userID {
		return false
	}
	if r.Raffle.UnrevealedForCurrentUser == nil || !*r.Raffle.UnrevealedForCurrentUser {
		return false
	}
	return autoClaimTierAllowed(r)
}

// bookkeepingClaimEligible gates the non-participant claim used to force the
// gateway to disclose a winner: raffle ended, already revealed for the
// current user, the user never entered, no winner recorded yet, and the
// gateway has not reported the "nobody" sentinel.
func bookkeepingClaimEligible(r *domain.Raffle, userID string, now int64) bool {
	if !r.Ended(now) {
		return false
	}
	if r.Raffle.UnrevealedForCurrentUser == nil || *r.Raffle.UnrevealedForCurrentUser {
		return false
	}
	if userID != "" && r.HasParticipant(userID) {
		return false
	}
	if r.HasWinner() {
		return false
	}
	return r.Winner.WinnerName != domain.WinnerNobody
}

// autoClaimTierAllowed refuses five-star and unknown-tier stickers.
func autoClaimTierAllowed(r *domain.Raffle) bool {
	return r.Raffle.StickerStars != nil && *r.Raffle.StickerStars != domain.FiveStarTier
}

// inferSoleEntrantWinner is a heuristic fallback, deliberately separated
// from the authoritative merge path: when an ended raffle reports no winner
// and the current user is its only participant, record the user as winner.
// Authoritative data from a later fetch overwrites it. Gated by the
// infer_sole_entrant_winner config flag.
func (e *Engine) inferSoleEntrantWinner(r *domain.Raffle) bool {
	if r.HasWinner() || !r.Ended(e.now()) {
		return false
	}
	userID := e.config.CurrentUserID
	if userID == "" {
		return false
	}
	if len(r.Raffle.ParticipantIDs) != 1 || r.Raffle.ParticipantIDs[0] != userID {
		return false
	}
	now := e.now()
	r.Winner = domain.Winner{
		WinnerID:        userID,
		WinnerFetchedAt: now,
	}
	r.UpdatedAt = now
	r.Rederive(now)
	return true
}
