package wager

import (
	"context"
	"numbers_backend/internal/model"
	"sort"

	"github.com/google/uuid"
)

// AggregateExposure Суммы только по ставкам в статусе pending
func (s *serv) AggregateExposure(ctx context.Context, roundID uuid.UUID) ([]model.Exposure, error) {
	if _, err := s.rounds.Get(ctx, roundID); err != nil {
		return nil, err
	}
	return s.wagerRepo.Aggregate(ctx, roundID, model.WagerPending)
}

// Statistics Экспозиция по всем ставкам раунда, итоги по классам и худшая выплата по номеру
func (s *serv) Statistics(ctx context.Context, roundID uuid.UUID) (*model.RoundStatistics, error) {
	if _, err := s.rounds.Get(ctx, roundID); err != nil {
		return nil, err
	}

	exposure, err := s.wagerRepo.Aggregate(ctx, roundID)
	if err != nil {
		return nil, err
	}

	stats := &model.RoundStatistics{RoundID: roundID, Exposure: exposure}
	totals := make(map[model.GameClass]*model.ClassTotal)
	for _, e := range exposure {
		t, ok := totals[e.GameClass]
		if !ok {
			t = &model.ClassTotal{GameClass: e.GameClass}
			totals[e.GameClass] = t
		}
		t.Stake += e.Stake
		t.Count += e.Count

		stats.TotalStake += e.Stake
		stats.WagerCount += e.Count
		stats.Liabilities = append(stats.Liabilities, model.Liability{
			Space:  e.Space,
			Number: e.Number,
			Payout: e.Stake * s.cfg.Multiplier(e.GameClass),
		})
	}

	for _, class := range model.Classes {
		if t, ok := totals[class]; ok {
			stats.Totals = append(stats.Totals, *t)
		}
	}
	sort.SliceStable(stats.Liabilities, func(i, j int) bool {
		return stats.Liabilities[i].Payout > stats.Liabilities[j].Payout
	})

	return stats, nil
}

const (
	defaultHistoryLimit = 50
	maxHistoryLimit     = 200
)

func (s *serv) ListByAccount(ctx context.Context, accountID int64, limit int) ([]model.Wager, error) {
	switch {
	case limit <= 0:
		limit = defaultHistoryLimit
	case limit > maxHistoryLimit:
		limit = maxHistoryLimit
	}
	return s.wagerRepo.ListByAccount(ctx, accountID, limit)
}
