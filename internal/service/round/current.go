package round

import (
	"context"
	"errors"
	"fmt"
	"numbers_backend/internal/clock"
	"numbers_backend/internal/model"
	"time"

	"github.com/google/uuid"
)

// GetOrCreateCurrent Раунд текущего слота, создается при первом обращении
func (s *serv) GetOrCreateCurrent(ctx context.Context) (*model.Round, error) {
	now := s.clock.Now()
	slot := s.schedule.Resolve(now)

	round, err := s.repo.GetBySlot(ctx, slot.Date, slot.Label)
	if err == nil {
		return round, nil
	}
	if !errors.Is(err, model.ErrRoundNotFound) {
		return nil, fmt.Errorf("get round by slot: %w", err)
	}

	created, err := s.repo.Create(ctx, &model.Round{
		ID:        uuid.New(),
		GameDate:  slot.Date,
		SlotLabel: slot.Label,
		SlotStart: slot.Start,
		SlotEnd:   slot.End,
		Status:    model.RoundActive,
		CreatedAt: now,
	})
	if err != nil {
		return nil, fmt.Errorf("create round: %w", err)
	}
	if created {
		s.log.Info().Str("game_date", slot.Date).Str("slot", slot.Label).Msg("round created")
	}

	// Конкурентный вызов мог создать раунд раньше нас
	return s.repo.GetBySlot(ctx, slot.Date, slot.Label)
}

// Current Текущий раунд вместе с фазой и оставшимся временем
func (s *serv) Current(ctx context.Context) (*model.CurrentRound, error) {
	round, err := s.GetOrCreateCurrent(ctx)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	slot := s.schedule.SlotOf(round.SlotStart)

	return &model.CurrentRound{
		Round:            *round,
		Phase:            clock.PhaseAt(slot, now),
		BettingEndsAt:    slot.BettingEnd,
		OperatorEndsAt:   slot.OperatorEnd,
		SlotEndsAt:       slot.End,
		BettingRemaining: remaining(now, slot.BettingEnd),
		DeclareRemaining: remaining(now, slot.OperatorEnd),
	}, nil
}

func (s *serv) Get(ctx context.Context, id uuid.UUID) (*model.Round, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *serv) ListUnfinished(ctx context.Context) ([]model.Round, error) {
	return s.repo.ListUnfinished(ctx)
}

func remaining(now, until time.Time) time.Duration {
	if d := until.Sub(now); d > 0 {
		return d
	}
	return 0
}
