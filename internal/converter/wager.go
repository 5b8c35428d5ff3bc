package converter

import (
	"fmt"
	"numbers_backend/internal/api/dto/wager"
	"numbers_backend/internal/model"

	"github.com/google/uuid"
)

func ToPlaceWager(accountID int64, req wager.PlaceWagerRequest) (model.PlaceWager, error) {
	var roundID uuid.UUID
	if req.RoundID != "" {
		id, err := uuid.Parse(req.RoundID)
		if err != nil {
			return model.PlaceWager{}, fmt.Errorf("invalid round_id: %w", err)
		}
		roundID = id
	}

	return model.PlaceWager{
		AccountID: accountID,
		RoundID:   roundID,
		GameClass: model.GameClass(req.GameClass),
		Number:    req.Number,
		Stake:     req.Stake,
	}, nil
}

func ToWagerResponse(w model.Wager) wager.WagerResponse {
	return wager.WagerResponse{
		ID:        w.ID.String(),
		RoundID:   w.RoundID.String(),
		GameClass: string(w.GameClass),
		Number:    w.Number,
		Stake:     w.Stake,
		Status:    string(w.Status),
		WinAmount: w.WinAmount,
		SlotLabel: w.SlotLabel,
		CreatedAt: w.CreatedAt,
		SettledAt: w.SettledAt,
	}
}

func ToPlaceWagerResponse(p model.PlacedWager) wager.PlaceWagerResponse {
	return wager.PlaceWagerResponse{
		Wager:   ToWagerResponse(p.Wager),
		Balance: p.Balance,
	}
}

func ToListWagersResponse(ws []model.Wager) wager.ListWagersResponse {
	res := wager.ListWagersResponse{Wagers: make([]wager.WagerResponse, len(ws))}
	for i, w := range ws {
		res.Wagers[i] = ToWagerResponse(w)
	}
	return res
}
