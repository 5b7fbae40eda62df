package domain

import (
	"fmt"
	"strings"
)

// Phase is the derived lifecycle state of a raffle.
type Phase string

const (
	PhaseDiscovered Phase = "discovered"
	PhaseExpired    Phase = "expired"
	PhaseClaimed    Phase = "claimed"
	PhaseResolved   Phase = "resolved"
	PhaseInactive   Phase = "inactive"
)

// Transport classifications for the last external call.
const (
	TransportOK           = "ok"
	TransportNetworkError = "network-error"
	TransportTimeout      = "timeout"
)

// TransportHTTP formats an HTTP status as a transport classification,
// e.g. "http-401".
func TransportHTTP(status int) string {
	return fmt.Sprintf("http-%d", status)
}

// terminal transport outcomes that force a raffle inactive.
var (
	transportUnauthorized = TransportHTTP(401)
	transportServerError  = TransportHTTP(500)
)

// DerivePhase computes the lifecycle phase from raw fields. Rules apply in
// precedence order:
//
//  1. recorded winner       -> resolved (terminal, never regresses)
//  2. last transport 401/500 -> inactive
//  3. claim recorded, no winner yet -> claimed
//  4. end time passed       -> expired
//  5. otherwise             -> discovered
//
// Because the winner check precedes the transport check, a raffle with a
// winner can never be forced inactive by a later transport failure.
func DerivePhase(r *Raffle, now int64) Phase {
	switch {
	case r.HasWinner():
		return PhaseResolved
	case r.Status.Transport == transportUnauthorized || r.Status.Transport == transportServerError:
		return PhaseInactive
	case r.Claim != nil:
		return PhaseClaimed
	case r.Ended(now):
		return PhaseExpired
	default:
		return PhaseDiscovered
	}
}

// Rederive recomputes the phase in place.
func (r *Raffle) Rederive(now int64) {
	r.Status.Phase = DerivePhase(r, now)
}

// RecordAttemptOK overwrites the transport classification with a success and
// clears any prior error fields. Errors are not sticky once a later attempt
// succeeds.
func (r *Raffle) RecordAttemptOK(now int64) {
	r.Status.Transport = TransportOK
	r.Status.LastAttemptAt = now
	r.Status.LastSuccessAt = now
	r.Status.LastErrorAt = 0
	r.Status.LastError = ""
}

// RecordAttemptError overwrites the transport classification and error
// bookkeeping for a failed attempt.
func (r *Raffle) RecordAttemptError(transport, msg string, now int64) {
	r.Status.Transport = transport
	r.Status.LastAttemptAt = now
	r.Status.LastErrorAt = now
	r.Status.LastError = msg
}

// IsHTTPTransport reports whether the transport classification carries the
// given HTTP status.
func IsHTTPTransport(transport string, status int) bool {
	return transport == TransportHTTP(status)
}

// ParseHTTPTransport extracts the status code from an "http-<code>"
// transport classification, returning false for other classifications.
func ParseHTTPTransport(transport string) (int, bool) {
	rest, found := strings.CutPrefix(transport, "http-")
	if !found {
		return 0, false
	}
	var code int
	if _, err := fmt.Sscanf(rest, "%d", &code); err != nil {
		return 0, false
	}
	return code, true
}
