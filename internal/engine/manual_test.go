package engine

import (
	"go.uber.org/mock/gomock"

	"raffle_tracker/internal/domain"
	"raffle_tracker/internal/raffleapi"
	"raffle_tracker/testdata/utils"
)

func (s *EngineTestSuite) TestRunManual_UnknownAction() {
	_, err := s.engine.RunManual(s.ctx, "reveal", []string{"p1"}, 0)
	s.Error(err)
}

func (s *EngineTestSuite) TestRunManual_MissingRaffleCounted() {
	stats, err := s.engine.RunManual(s.ctx, ActionFetch, []string{"missing"}, 0)
	s.NoError(err)
	s.Equal(1, stats.Scanned)
	s.Equal(1, stats.Errors)
}

func (s *EngineTestSuite) TestRunManual_TokenReplacesExisting() {
	s.seed("p1", nil)

	s.api.EXPECT().RefreshToken(gomock.Any(), "https://webbit.example/view/1").
		Return(&domain.Token{WebbitToken: "fresh", WebviewURL: "https://webbit.example/view/1"}, nil)

	stats, err := s.engine.RunManual(s.ctx, ActionToken, []string{"p1"}, 0)
	s.NoError(err)
	s.Equal(0, stats.Errors)
	s.Equal("fresh", s.get("p1").Token.WebbitToken)
}

func (s *EngineTestSuite) TestRunManual_FetchMergesData() {
	s.seed("p1", nil)

	s.api.EXPECT().FetchRaffleData(gomock.Any(), gomock.Any()).
		Return(ok(&raffleapi.RaffleData{
			StickerID:   "st-1",
			StickerName: "Gold Frog",
			WinnerID:    "w",
		}), nil)

	stats, err := s.engine.RunManual(s.ctx, ActionFetch, []string{"p1"}, 0)
	s.NoError(err)
	s.Equal(1, stats.Resolved)

	r := s.get("p1")
	s.Equal("Gold Frog", r.Raffle.StickerName)
	s.Equal(domain.PhaseResolved, r.Status.Phase)
}

func (s *EngineTestSuite) TestRunManual_ClaimRefusesFiveStarEvenManually() {
	s.seed("p1", func(r *domain.Raffle) {
		r.Winner.WinnerID = testUser
		r.Raffle.StickerStars = utils.Ptr(5)
		r.Raffle.UnrevealedForCurrentUser = utils.Ptr(true)
	})

	stats, err := s.engine.RunManual(s.ctx, ActionClaim, []string{"p1"}, 0)
	s.NoError(err)
	s.Equal(1, stats.Skipped)
	s.Equal(0, stats.Claimed)
}

func (s *EngineTestSuite) TestRunManual_ClaimRefusesForeignWinner() {
	s.seed("p1", func(r *domain.Raffle) {
		r.Winner.WinnerID = "other"
		r.Raffle.StickerStars = utils.Ptr(3)
	})

	stats, err := s.engine.RunManual(s.ctx, ActionClaim, []string{"p1"}, 0)
	s.NoError(err)
	s.Equal(1, stats.Skipped)
	s.Equal(0, stats.Claimed)
}

func (s *EngineTestSuite) TestRunManual_Claim() {
	s.seed("p1", func(r *domain.Raffle) {
		r.Winner.WinnerID = testUser
		r.Raffle.StickerStars = utils.Ptr(3)
		r.Raffle.UnrevealedForCurrentUser = utils.Ptr(true)
	})

	s.api.EXPECT().Claim(gomock.Any(), gomock.Any()).
		Return(ok(&raffleapi.RaffleData{
			UnrevealedForCurrentUser: utils.Ptr(false),
		}), nil)

	stats, err := s.engine.RunManual(s.ctx, ActionClaim, []string{"p1"}, 0)
	s.NoError(err)
	s.Equal(1, stats.Claimed)
	s.NotNil(s.get("p1").Claim)
}
