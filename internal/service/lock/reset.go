package lock

import (
	"context"
	"numbers_backend/internal/model"

	"github.com/google/uuid"
)

// ResetLocks Сбрасывает набор, следующий ComputeLocks посчитает его заново.
// После объявления результата сброс запрещен
func (s *serv) ResetLocks(ctx context.Context, roundID uuid.UUID) error {
	return s.txManager.Do(ctx, func(txCtx context.Context) error {
		round, err := s.roundRepo.GetForShare(txCtx, roundID)
		if err != nil {
			return err
		}
		if round.HasResult() {
			return model.ErrAlreadyDeclared
		}

		if err := s.lockRepo.DeleteAll(txCtx, roundID); err != nil {
			return err
		}
		if err := s.roundRepo.ResetLockComputation(txCtx, roundID); err != nil {
			return err
		}

		s.log.Info().Str("round_id", roundID.String()).Msg("locks reset")
		return nil
	})
}
