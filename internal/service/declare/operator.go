package declare

import (
	"context"
	"errors"
	"numbers_backend/internal/clock"
	"numbers_backend/internal/model"
	"numbers_backend/internal/numspace"
	"time"

	"github.com/google/uuid"
)

const (
	sourceOperator = "operator"
	sourceAuto     = "auto"
)

// DeclareByOperator Проверки по порядку: результат еще не объявлен, окно оператора,
// допустимость тройки, блокировки тройки и ее редукции
func (s *serv) DeclareByOperator(ctx context.Context, roundID uuid.UUID, triple string, operatorID int64) (*model.Declaration, error) {
	res, err := s.declareByOperator(ctx, roundID, triple, operatorID)
	s.observe(sourceOperator, res, err)
	return res, err
}

func (s *serv) declareByOperator(ctx context.Context, roundID uuid.UUID, triple string, operatorID int64) (*model.Declaration, error) {
	round, err := s.rounds.Get(ctx, roundID)
	if err != nil {
		return nil, err
	}
	if round.HasResult() {
		return nil, model.ErrAlreadyDeclared
	}

	now := s.clock.Now()
	slot := s.schedule.SlotOf(round.SlotStart)
	if err := operatorWindow(slot, now); err != nil {
		return nil, err
	}

	if !numspace.IsLegalTriple(triple) {
		return nil, model.ErrInvalidSelection
	}

	if err := s.closeBetting(ctx, round); err != nil {
		return nil, err
	}
	if err := s.locks.CheckTriple(ctx, roundID, triple); err != nil {
		return nil, err
	}

	return s.declare(ctx, round, triple, model.DeclaredByOperator(operatorID))
}

func operatorWindow(slot clock.Slot, now time.Time) error {
	switch clock.PhaseAt(slot, now) {
	case model.PhaseOperatorDeclare:
		return nil
	case model.PhaseSystemOnly:
		return &model.OutsideWindowError{Reason: model.WindowSystemOnly}
	case model.PhaseClosed:
		if !now.Before(slot.End) {
			return &model.OutsideWindowError{Reason: model.WindowElapsed}
		}
	}
	return &model.OutsideWindowError{Reason: model.WindowTooEarly, Remaining: slot.BettingEnd.Sub(now)}
}

// closeBetting Переводит раунд в awaiting_result, если планировщик еще не успел
func (s *serv) closeBetting(ctx context.Context, round *model.Round) error {
	if round.Status != model.RoundActive {
		return nil
	}
	err := s.rounds.MarkAwaitingResult(ctx, round.ID)
	if errors.Is(err, model.ErrRoundAlreadyCompleted) {
		return model.ErrAlreadyDeclared
	}
	return err
}
