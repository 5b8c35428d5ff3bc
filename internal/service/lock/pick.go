package lock

import (
	"context"
	"fmt"
	"numbers_backend/internal/model"
	"numbers_backend/internal/numspace"

	"github.com/google/uuid"
)

// PickAutoEligible Случайная допустимая тройка, проходящая обе проверки блокировок.
// Если таких нет, снимается блокировка с редукции первой свободной тройки
func (s *serv) PickAutoEligible(ctx context.Context, roundID uuid.UUID) (string, error) {
	set, err := s.ComputeLocks(ctx, roundID)
	if err != nil {
		return "", err
	}

	triples := numspace.Universe(model.SpaceTriple)

	s.rndMu.Lock()
	perm := s.rnd.Perm(len(triples))
	s.rndMu.Unlock()

	for _, i := range perm {
		if blocker(set, triples[i]) == nil {
			return triples[i], nil
		}
	}

	return s.forceUnlock(ctx, roundID, set, triples)
}

func (s *serv) forceUnlock(ctx context.Context, roundID uuid.UUID, set model.LockSet, triples []string) (string, error) {
	pick := triples[0]
	unlockTriple := true
	for _, t := range triples {
		if !set.Contains(model.SpaceTriple, t) {
			pick = t
			unlockTriple = false
			break
		}
	}

	single, err := numspace.SingleOf(pick)
	if err != nil {
		return "", err
	}

	err = s.txManager.Do(ctx, func(txCtx context.Context) error {
		if unlockTriple {
			if err := s.lockRepo.Delete(txCtx, roundID, model.SpaceTriple, pick); err != nil {
				return err
			}
		}
		return s.lockRepo.Delete(txCtx, roundID, model.SpaceSingle, single)
	})
	if err != nil {
		return "", fmt.Errorf("force unlock: %w", err)
	}

	s.metrics.ForcedUnlocks.Inc()
	s.log.Warn().
		Str("round_id", roundID.String()).
		Str("triple", pick).
		Str("single", single).
		Bool("triple_unlocked", unlockTriple).
		Msg("no eligible triple, forced unlock")

	return pick, nil
}
