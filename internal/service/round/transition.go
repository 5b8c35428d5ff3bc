package round

import (
	"context"
	"fmt"
	"numbers_backend/internal/model"
	"numbers_backend/internal/numspace"

	"github.com/google/uuid"
)

// MarkAwaitingResult active -> awaiting_result. Повторный вызов не ошибка
func (s *serv) MarkAwaitingResult(ctx context.Context, id uuid.UUID) error {
	ok, err := s.repo.MarkAwaitingResult(ctx, id)
	if err != nil {
		return fmt.Errorf("mark awaiting result: %w", err)
	}
	if ok {
		return nil
	}

	round, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if round.Status == model.RoundCompleted {
		return model.ErrRoundAlreadyCompleted
	}
	return nil
}

// RecordResult Записывает результат раунда ровно один раз.
// Проигравший в гонке получает ErrAlreadyDeclared
func (s *serv) RecordResult(ctx context.Context, id uuid.UUID, triple, declaredBy string) (*model.Round, error) {
	red, err := numspace.Reduce(triple)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrInvalidSelection, err)
	}

	ok, err := s.repo.RecordResult(ctx, id, model.RoundResult{
		Triple:     triple,
		Single:     red.Single,
		DeclaredAt: s.clock.Now(),
		DeclaredBy: declaredBy,
	})
	if err != nil {
		return nil, fmt.Errorf("record result: %w", err)
	}

	round, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if ok {
		return round, nil
	}

	if round.HasResult() {
		return nil, model.ErrAlreadyDeclared
	}
	if round.Status == model.RoundCompleted {
		return nil, model.ErrRoundAlreadyCompleted
	}
	return nil, fmt.Errorf("record result: round %s in status %s was not updated", id, round.Status)
}

// Complete awaiting_result -> completed
func (s *serv) Complete(ctx context.Context, id uuid.UUID) error {
	ok, err := s.repo.Complete(ctx, id, s.clock.Now())
	if err != nil {
		return fmt.Errorf("complete round: %w", err)
	}
	if ok {
		return nil
	}

	round, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if round.Status == model.RoundCompleted {
		return model.ErrRoundAlreadyCompleted
	}
	if !round.HasResult() {
		return model.ErrResultNotDeclared
	}
	return fmt.Errorf("complete round: round %s in status %s was not updated", id, round.Status)
}
