package lock

import (
	"context"
	"fmt"
	"math"
	"numbers_backend/internal/clock"
	"numbers_backend/internal/model"
	"numbers_backend/internal/numspace"
	"sort"

	"github.com/google/uuid"
)

// ComputeLocks Набор заблокированных номеров раунда.
// Пока идет прием ставок, возвращается предварительный расчет без сохранения.
// После окна ставок набор считается один раз и дальше только читается
func (s *serv) ComputeLocks(ctx context.Context, roundID uuid.UUID) (model.LockSet, error) {
	round, err := s.roundRepo.GetByID(ctx, roundID)
	if err != nil {
		return model.LockSet{}, err
	}

	slot := s.schedule.SlotOf(round.SlotStart)
	if round.Status == model.RoundActive && clock.PhaseAt(slot, s.clock.Now()) == model.PhaseBetting {
		exposure, err := s.wagerRepo.Aggregate(ctx, roundID, model.WagerPending)
		if err != nil {
			return model.LockSet{}, fmt.Errorf("aggregate exposure: %w", err)
		}
		return s.rank(exposure), nil
	}

	var set model.LockSet
	err = s.txManager.Do(ctx, func(txCtx context.Context) error {
		claimed, err := s.roundRepo.ClaimLockComputation(txCtx, roundID, s.clock.Now())
		if err != nil {
			return err
		}

		if claimed {
			exposure, err := s.wagerRepo.Aggregate(txCtx, roundID, model.WagerPending)
			if err != nil {
				return fmt.Errorf("aggregate exposure: %w", err)
			}
			computed := s.rank(exposure)
			if err := s.lockRepo.Insert(txCtx, toRecords(roundID, computed)); err != nil {
				return fmt.Errorf("insert locks: %w", err)
			}
			s.log.Info().
				Str("round_id", roundID.String()).
				Int("singles", len(computed.Singles)).
				Int("triples", len(computed.Triples)).
				Msg("locks computed")
		}

		set, err = s.lockRepo.Get(txCtx, roundID)
		return err
	})
	if err != nil {
		return model.LockSet{}, err
	}

	return set, nil
}

// rank Для каждого пространства: топ ceil(fraction * размер) номеров по сумме ставок.
// Равные суммы упорядочены каноническим порядком номеров
func (s *serv) rank(exposure []model.Exposure) model.LockSet {
	return model.LockSet{
		Singles: s.rankSpace(model.SpaceSingle, exposure),
		Triples: s.rankSpace(model.SpaceTriple, exposure),
	}
}

func (s *serv) rankSpace(space model.Space, exposure []model.Exposure) []string {
	universe := numspace.Universe(space)
	limit := int(math.Ceil(s.cfg.LockFraction(space) * float64(len(universe))))
	if limit == 0 {
		return nil
	}

	stakes := make(map[string]int64)
	for _, e := range exposure {
		if e.Space == space && e.Stake > 0 {
			stakes[e.Number] += e.Stake
		}
	}

	if len(stakes) == 0 {
		return defaultLocks(space, limit)
	}

	numbers := make([]string, 0, len(stakes))
	for n := range stakes {
		numbers = append(numbers, n)
	}
	sort.Slice(numbers, func(i, j int) bool {
		a, b := numbers[i], numbers[j]
		if stakes[a] != stakes[b] {
			return stakes[a] > stakes[b]
		}
		return numspace.Order(space, a) < numspace.Order(space, b)
	})

	if len(numbers) > limit {
		numbers = numbers[:limit]
	}
	return numbers
}

// defaultLocks Раунд без ставок в пространстве: цифры по убыванию (9, 8, ...), тройки не блокируются
func defaultLocks(space model.Space, limit int) []string {
	if space != model.SpaceSingle {
		return nil
	}
	universe := numspace.Universe(space)
	out := make([]string, 0, limit)
	for i := len(universe) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, universe[i])
	}
	return out
}

func toRecords(roundID uuid.UUID, set model.LockSet) []model.LockedNumber {
	out := make([]model.LockedNumber, 0, len(set.Singles)+len(set.Triples))
	for _, n := range set.Singles {
		out = append(out, model.LockedNumber{RoundID: roundID, Space: model.SpaceSingle, Number: n})
	}
	for _, n := range set.Triples {
		out = append(out, model.LockedNumber{RoundID: roundID, Space: model.SpaceTriple, Number: n})
	}
	return out
}
