package raffleapi

// Result is the outcome of one API round trip. Status is the HTTP status
// code; Data is non-nil only for successful responses. Transport failures
// are returned as errors by the client, not encoded here.
type Result struct {
	Status int
	Data   *RaffleData
}

// OK reports a 2xx status.
func (r *Result) OK() bool {
	return r.Status >= 200 && r.Status < 300
}

// RaffleData carries the authoritative raffle attributes as the gateway
// reports them. Pointer fields distinguish "not reported" from zero values;
// a reported value always overwrites the stored one wholesale.
type RaffleData struct {
	EndTime                  int64    `json:"endTime,omitempty"`
	StickerID                string   `json:"stickerId,omitempty"`
	StickerName              string   `json:"stickerName,omitempty"`
	StickerStars             *int     `json:"stickerStars,omitempty"`
	ParticipantIDs           []string `json:"participantIds,omitempty"`
	UnrevealedForCurrentUser *bool    `json:"unrevealedForCurrentUser,omitempty"`
	WinnerID                 string   `json:"winnerId,omitempty"`
	WinnerName               string   `json:"winnerName,omitempty"`
}

type raffleResponse struct {
	Raffle *RaffleData `json:"raffle"`
	Winner *struct {
		WinnerID   string `json:"winnerId"`
		WinnerName string `json:"winnerName"`
	} `json:"winner"`
}

// tokenResponse is what the webview endpoint returns on refresh.
type tokenResponse struct {
	WebbitToken   string `json:"webbitToken"`
	GatewayOrigin string `json:"gatewayOrigin"`
}
