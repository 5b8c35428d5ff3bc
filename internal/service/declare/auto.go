package declare

import (
	"context"
	"fmt"
	"numbers_backend/internal/model"

	"github.com/google/uuid"
)

// DeclareByAuto Системное объявление. Разрешено с начала последней минуты слота и позже.
// Решение оператора, ожидающее в очереди повторов, записывается вместо случайной тройки
func (s *serv) DeclareByAuto(ctx context.Context, roundID uuid.UUID) (*model.Declaration, error) {
	res, err := s.declareByAuto(ctx, roundID)
	s.observe(sourceAuto, res, err)
	return res, err
}

func (s *serv) declareByAuto(ctx context.Context, roundID uuid.UUID) (*model.Declaration, error) {
	round, err := s.rounds.Get(ctx, roundID)
	if err != nil {
		return nil, err
	}
	if round.HasResult() {
		return nil, model.ErrAlreadyDeclared
	}

	now := s.clock.Now()
	slot := s.schedule.SlotOf(round.SlotStart)
	if now.Before(slot.OperatorEnd) {
		return nil, &model.OutsideWindowError{Reason: model.WindowTooEarly, Remaining: slot.OperatorEnd.Sub(now)}
	}

	if err := s.closeBetting(ctx, round); err != nil {
		return nil, err
	}

	if s.queue != nil {
		queued, err := s.queue.Find(ctx, roundID)
		if err != nil {
			return nil, fmt.Errorf("check queued declaration: %w", err)
		}
		if queued != nil {
			return s.recordQueued(ctx, *queued)
		}
	}

	triple, err := s.locks.PickAutoEligible(ctx, roundID)
	if err != nil {
		return nil, err
	}

	return s.declare(ctx, round, triple, model.DeclaredBySystem)
}
