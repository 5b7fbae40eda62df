package domain

// Raffle is the tracked entity. Identity is PostID, assigned on first
// discovery and immutable afterwards. JSON field names match the persisted
// bucket format, so records written by earlier versions deserialize as-is.
// All timestamps are unix seconds.
type Raffle struct {
	PostID      string `json:"postId"`
	URL         string `json:"url,omitempty"`
	PostTitle   string `json:"postTitle,omitempty"`
	FirstSeenAt int64  `json:"firstSeenAt,omitempty"`
	LastSeenAt  int64  `json:"lastSeenAt,omitempty"`
	CreatedAt   int64  `json:"createdAt,omitempty"`
	UpdatedAt   int64  `json:"updatedAt,omitempty"`

	Raffle RaffleDetails `json:"raffle"`
	Token  Token         `json:"token"`
	Winner Winner        `json:"winner"`
	Status Status        `json:"status"`

	Entry *Entry `json:"entry,omitempty"`
	Claim *Claim `json:"claim,omitempty"`
}

// RaffleDetails holds the authoritative raffle attributes. Whenever the
// external API returns a value it overwrites the stored one wholesale;
// heuristic substitutes only fill the gap until then. StickerStars and
// UnrevealedForCurrentUser are pointers because "unknown" is meaningful to
// the claim policies.
type RaffleDetails struct {
	EndTime                  int64    `json:"endTime,omitempty"`
	StickerID                string   `json:"stickerId,omitempty"`
	StickerName              string   `json:"stickerName,omitempty"`
	StickerStars             *int     `json:"stickerStars,omitempty"`
	ParticipantIDs           []string `json:"participantIds,omitempty"`
	UnrevealedForCurrentUser *bool    `json:"unrevealedForCurrentUser,omitempty"`
}

// Token is the per-raffle bearer credential, owned exclusively by the
// resolution engine's token-refresh step.
type Token struct {
	WebbitToken    string `json:"webbitToken,omitempty"`
	WebviewURL     string `json:"webviewUrl,omitempty"`
	GatewayOrigin  string `json:"gatewayOrigin,omitempty"`
	TokenFetchedAt int64  `json:"tokenFetchedAt,omitempty"`
}

// Winner is monotonic: once WinnerID or WinnerName is non-empty it is
// permanently authoritative and never cleared.
type Winner struct {
	WinnerID        string `json:"winnerId,omitempty"`
	WinnerName      string `json:"winnerName,omitempty"`
	WinnerFetchedAt int64  `json:"winnerFetchedAt,omitempty"`
}

// Status is derived bookkeeping; see DerivePhase and transport constants.
type Status struct {
	Phase         Phase  `json:"phase,omitempty"`
	Transport     string `json:"transport,omitempty"`
	LastAttemptAt int64  `json:"lastAttemptAt,omitempty"`
	LastSuccessAt int64  `json:"lastSuccessAt,omitempty"`
	LastErrorAt   int64  `json:"lastErrorAt,omitempty"`
	LastError     string `json:"lastError,omitempty"`
}

type Entry struct {
	EnteredAt int64 `json:"enteredAt,omitempty"`
}

type Claim struct {
	ClaimedAt int64 `json:"claimedAt,omitempty"`
}

// WinnerNobody is the sentinel the upstream API reports when a raffle ended
// without a winner. It counts as a recorded winner for the claim policies.
const WinnerNobody = "nobody"

// FiveStarTier is the sticker tier that is never auto-claimed.
const FiveStarTier = 5

func (r *Raffle) HasWinner() bool {
	return r.Winner.WinnerID != "" || r.Winner.WinnerName != ""
}

// Ended reports whether the raffle's end time has passed. An unset end time
// counts as not ended.
func (r *Raffle) Ended(now int64) bool {
	return r.Raffle.EndTime > 0 && r.Raffle.EndTime <= now
}

func (r *Raffle) HasParticipant(userID string) bool {
	for _, id := range r.Raffle.ParticipantIDs {
		if id == userID {
			return true
		}
	}
	return false
}

// EffectiveTime is the timestamp the raffle is bucketed by, in priority
// order: end time, last seen, first seen, created. Zero means none is set
// and the caller falls back to the current time.
func (r *Raffle) EffectiveTime() int64 {
	for _, ts := range []int64{r.Raffle.EndTime, r.LastSeenAt, r.FirstSeenAt, r.CreatedAt} {
		if ts > 0 {
			return ts
		}
	}
	return 0
}

// millisThreshold separates second-range from millisecond-range unix values.
// 1e12 seconds is year 33658; anything at or above it must be milliseconds.
const millisThreshold = int64(1e12)

// IsMillisRange reports whether a unix value looks like milliseconds rather
// than seconds. Such values are reported as anomalies, never rescaled.
func IsMillisRange(ts int64) bool {
	return ts >= millisThreshold
}

// Timestamps returns the entity's second-granularity timestamp fields with
// their persisted names, for anomaly scanning.
func (r *Raffle) Timestamps() map[string]int64 {
	ts := map[string]int64{
		"firstSeenAt":            r.FirstSeenAt,
		"lastSeenAt":             r.LastSeenAt,
		"createdAt":              r.CreatedAt,
		"updatedAt":              r.UpdatedAt,
		"raffle.endTime":         r.Raffle.EndTime,
		"token.tokenFetchedAt":   r.Token.TokenFetchedAt,
		"winner.winnerFetchedAt": r.Winner.WinnerFetchedAt,
		"status.lastAttemptAt":   r.Status.LastAttemptAt,
		"status.lastSuccessAt":   r.Status.LastSuccessAt,
		"status.lastErrorAt":     r.Status.LastErrorAt,
	}
	if r.Entry != nil {
		ts["entry.enteredAt"] = r.Entry.EnteredAt
	}
	if r.Claim != nil {
		ts["claim.claimedAt"] = r.Claim.ClaimedAt
	}
	return ts
}

// Clone returns a deep copy. Components read a copy, mutate it and resubmit
// through the store; sharing slices or pointers across that boundary would
// let writes bypass the single-authority path.
func (r *Raffle) Clone() *Raffle {
	if r == nil {
		return nil
	}
	out := *r
	if r.Raffle.StickerStars != nil {
		v := *r.Raffle.StickerStars
		out.Raffle.StickerStars = &v
	}
	if r.Raffle.UnrevealedForCurrentUser != nil {
		v := *r.Raffle.UnrevealedForCurrentUser
		out.Raffle.UnrevealedForCurrentUser = &v
	}
	if r.Raffle.ParticipantIDs != nil {
		out.Raffle.ParticipantIDs = append([]string(nil), r.Raffle.ParticipantIDs...)
	}
	if r.Entry != nil {
		v := *r.Entry
		out.Entry = &v
	}
	if r.Claim != nil {
		v := *r.Claim
		out.Claim = &v
	}
	return &out
}
