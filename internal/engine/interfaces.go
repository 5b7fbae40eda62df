package engine

//go:generate mockgen -source=interfaces.go -destination=mocks/mocks.go -package=mocks

import (
	"context"

	"raffle_tracker/internal/domain"
	"raffle_tracker/internal/raffleapi"
)

// RaffleStore is the slice of the store the engine needs. Every mutation
// goes back through Put; the engine never holds a reference into the store's
// own state.
type RaffleStore interface {
	Get(ctx context.Context, postID string) (*domain.Raffle, error)
	Put(ctx context.Context, r *domain.Raffle) (*domain.Raffle, error)
	ListDayKeys(ctx context.Context) ([]string, error)
	ListByDay(ctx context.Context, dayKey string) ([]domain.Raffle, error)
}

// RaffleAPI is the external gateway. Non-2xx statuses come back in the
// Result; errors are transport failures only.
type RaffleAPI interface {
	RefreshToken(ctx context.Context, webviewURL string) (*domain.Token, error)
	FetchRaffleData(ctx context.Context, token domain.Token) (*raffleapi.Result, error)
	Claim(ctx context.Context, token domain.Token) (*raffleapi.Result, error)
}

// Notifier signals read-side consumers that a background mutation batch
// completed and their projections are stale.
type Notifier interface {
	Invalidate(ctx context.Context, reason string, count int) error
}
