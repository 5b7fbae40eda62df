package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"raffle_tracker/testdata/utils"
)

const testNow = int64(1_700_000_000)

func TestDerivePhase(t *testing.T) {
	tests := []struct {
		name   string
		raffle Raffle
		want   Phase
	}{
		{
			name:   "fresh raffle is discovered",
			raffle: Raffle{PostID: "p1"},
			want:   PhaseDiscovered,
		},
		{
			name: "future end time is discovered",
			raffle: Raffle{
				PostID: "p1",
				Raffle: RaffleDetails{EndTime: testNow + 3600},
			},
			want: PhaseDiscovered,
		},
		{
			name: "past end time is expired",
			raffle: Raffle{
				PostID: "p1",
				Raffle: RaffleDetails{EndTime: testNow - 1},
			},
			want: PhaseExpired,
		},
		{
			name: "end time exactly now is expired",
			raffle: Raffle{
				PostID: "p1",
				Raffle: RaffleDetails{EndTime: testNow},
			},
			want: PhaseExpired,
		},
		{
			name: "claim without winner is claimed",
			raffle: Raffle{
				PostID: "p1",
				Raffle: RaffleDetails{EndTime: testNow - 1},
				Claim:  &Claim{ClaimedAt: testNow - 10},
			},
			want: PhaseClaimed,
		},
		{
			name: "winner id is resolved",
			raffle: Raffle{
				PostID: "p1",
				Winner: Winner{WinnerID: "u1"},
			},
			want: PhaseResolved,
		},
		{
			name: "winner name alone is resolved",
			raffle: Raffle{
				PostID: "p1",
				Winner: Winner{WinnerName: "nobody"},
			},
			want: PhaseResolved,
		},
		{
			name: "unauthorized transport is inactive",
			raffle: Raffle{
				PostID: "p1",
				Raffle: RaffleDetails{EndTime: testNow - 1},
				Status: Status{Transport: TransportHTTP(401)},
			},
			want: PhaseInactive,
		},
		{
			name: "server error transport is inactive",
			raffle: Raffle{
				PostID: "p1",
				Status: Status{Transport: TransportHTTP(500)},
			},
			want: PhaseInactive,
		},
		{
			name: "other http failures do not force inactive",
			raffle: Raffle{
				PostID: "p1",
				Raffle: RaffleDetails{EndTime: testNow - 1},
				Status: Status{Transport: TransportHTTP(503)},
			},
			want: PhaseExpired,
		},
		{
			name: "winner outranks failing transport",
			raffle: Raffle{
				PostID: "p1",
				Winner: Winner{WinnerID: "u1"},
				Status: Status{Transport: TransportHTTP(500)},
			},
			want: PhaseResolved,
		},
		{
			name: "winner outranks claim record",
			raffle: Raffle{
				PostID: "p1",
				Winner: Winner{WinnerID: "u1"},
				Claim:  &Claim{ClaimedAt: testNow - 10},
			},
			want: PhaseResolved,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DerivePhase(&tt.raffle, testNow))
		})
	}
}

func TestRecordAttemptOK_ClearsErrorFields(t *testing.T) {
	r := Raffle{PostID: "p1"}
	r.RecordAttemptError(TransportTimeout, "deadline exceeded", testNow-60)

	r.RecordAttemptOK(testNow)

	assert.Equal(t, TransportOK, r.Status.Transport)
	assert.Equal(t, testNow, r.Status.LastAttemptAt)
	assert.Equal(t, testNow, r.Status.LastSuccessAt)
	assert.Zero(t, r.Status.LastErrorAt)
	assert.Empty(t, r.Status.LastError)
}

func TestRecordAttemptError(t *testing.T) {
	r := Raffle{PostID: "p1"}
	r.RecordAttemptError(TransportHTTP(401), "unauthorized", testNow)

	assert.Equal(t, "http-401", r.Status.Transport)
	assert.Equal(t, testNow, r.Status.LastAttemptAt)
	assert.Equal(t, testNow, r.Status.LastErrorAt)
	assert.Equal(t, "unauthorized", r.Status.LastError)
}

func TestParseHTTPTransport(t *testing.T) {
	code, ok := ParseHTTPTransport("http-404")
	assert.True(t, ok)
	assert.Equal(t, 404, code)

	_, ok = ParseHTTPTransport(TransportTimeout)
	assert.False(t, ok)

	_, ok = ParseHTTPTransport("http-abc")
	assert.False(t, ok)
}

func TestEffectiveTime_Priority(t *testing.T) {
	r := Raffle{
		FirstSeenAt: 100,
		LastSeenAt:  200,
		CreatedAt:   50,
		Raffle:      RaffleDetails{EndTime: 300},
	}
	assert.Equal(t, int64(300), r.EffectiveTime())

	r.Raffle.EndTime = 0
	assert.Equal(t, int64(200), r.EffectiveTime())

	r.LastSeenAt = 0
	assert.Equal(t, int64(100), r.EffectiveTime())

	r.FirstSeenAt = 0
	assert.Equal(t, int64(50), r.EffectiveTime())

	r.CreatedAt = 0
	assert.Zero(t, r.EffectiveTime())
}

func TestIsMillisRange(t *testing.T) {
	assert.False(t, IsMillisRange(testNow))
	assert.True(t, IsMillisRange(testNow*1000))
}

func TestClone_IsDeep(t *testing.T) {
	orig := &Raffle{
		PostID: "p1",
		Raffle: RaffleDetails{
			StickerStars:             utils.Ptr(3),
			UnrevealedForCurrentUser: utils.Ptr(true),
			ParticipantIDs:           []string{"u1", "u2"},
		},
		Claim: &Claim{ClaimedAt: testNow},
	}

	cp := orig.Clone()
	*cp.Raffle.StickerStars = 5
	*cp.Raffle.UnrevealedForCurrentUser = false
	cp.Raffle.ParticipantIDs[0] = "u9"
	cp.Claim.ClaimedAt = 0

	assert.Equal(t, 3, *orig.Raffle.StickerStars)
	assert.True(t, *orig.Raffle.UnrevealedForCurrentUser)
	assert.Equal(t, "u1", orig.Raffle.ParticipantIDs[0])
	assert.Equal(t, testNow, orig.Claim.ClaimedAt)
}
