package wager

import (
	"context"
	"errors"
	"fmt"
	"numbers_backend/internal/clock"
	"numbers_backend/internal/model"
	"numbers_backend/internal/numspace"

	"github.com/google/uuid"
)

// PlaceWager Списание, ставка и запись журнала в одной транзакции.
// Раунд читается с FOR SHARE, поэтому объявление результата не пересекается с приемом ставки
func (s *serv) PlaceWager(ctx context.Context, req model.PlaceWager) (*model.PlacedWager, error) {
	placed, err := s.place(ctx, req)
	if err != nil {
		s.metrics.WagersRejected.WithLabelValues(rejectReason(err)).Inc()
		return nil, err
	}

	s.metrics.WagersPlaced.WithLabelValues(string(req.GameClass)).Inc()
	return placed, nil
}

func (s *serv) place(ctx context.Context, req model.PlaceWager) (*model.PlacedWager, error) {
	if err := s.validateStake(req.Stake); err != nil {
		return nil, err
	}
	if !req.GameClass.Valid() || !numspace.IsLegal(req.GameClass, req.Number) {
		return nil, fmt.Errorf("%w: %q is not a %s number", model.ErrInvalidSelection, req.Number, req.GameClass)
	}

	if err := s.checkRate(ctx, req.AccountID); err != nil {
		return nil, err
	}

	round, err := s.targetRound(ctx, req.RoundID)
	if err != nil {
		return nil, err
	}

	slot := s.schedule.SlotOf(round.SlotStart)
	if clock.PhaseAt(slot, s.clock.Now()) != model.PhaseBetting {
		return nil, model.ErrBettingClosed
	}

	var res *model.PlacedWager
	err = s.txManager.Do(ctx, func(txCtx context.Context) error {
		locked, err := s.roundRepo.GetForShare(txCtx, round.ID)
		if err != nil {
			return err
		}
		if locked.Status != model.RoundActive || locked.HasResult() {
			return model.ErrBettingClosed
		}

		balance, err := s.accountRepo.Debit(txCtx, req.AccountID, req.Stake)
		if err != nil {
			return err
		}

		now := s.clock.Now()
		w := model.Wager{
			ID:        uuid.New(),
			AccountID: req.AccountID,
			RoundID:   round.ID,
			GameClass: req.GameClass,
			Number:    req.Number,
			Stake:     req.Stake,
			Status:    model.WagerPending,
			SlotLabel: round.SlotLabel,
			CreatedAt: now,
		}
		if err := s.wagerRepo.Create(txCtx, &w); err != nil {
			return fmt.Errorf("create wager: %w", err)
		}

		err = s.txRepo.Append(txCtx, &model.TransactionRecord{
			ID:           uuid.New(),
			AccountID:    req.AccountID,
			RoundID:      round.ID,
			WagerID:      w.ID,
			Type:         model.TxBetPlaced,
			Amount:       -req.Stake,
			BalanceAfter: balance,
			CreatedAt:    now,
		})
		if err != nil {
			return fmt.Errorf("append transaction: %w", err)
		}

		res = &model.PlacedWager{Wager: w, Balance: balance}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return res, nil
}

func (s *serv) validateStake(stake int64) error {
	if stake <= 0 {
		return fmt.Errorf("%w: stake must be positive", model.ErrInvalidStake)
	}
	if stake < s.cfg.MinStake() {
		return fmt.Errorf("%w: minimum stake is %d", model.ErrInvalidStake, s.cfg.MinStake())
	}
	if maxStake := s.cfg.MaxStake(); maxStake > 0 && stake > maxStake {
		return fmt.Errorf("%w: maximum stake is %d", model.ErrInvalidStake, maxStake)
	}
	return nil
}

// checkRate При недоступном Redis ставка пропускается, ошибка пишется в лог
func (s *serv) checkRate(ctx context.Context, accountID int64) error {
	if s.limiter == nil {
		return nil
	}
	limit, window := s.cfg.RateLimit()
	ok, err := s.limiter.Allow(ctx, accountID, rateAction, limit, window)
	if err != nil {
		s.log.Warn().Err(err).Int64("account_id", accountID).Msg("rate limiter unavailable")
		return nil
	}
	if !ok {
		return model.ErrRateLimited
	}
	return nil
}

func (s *serv) targetRound(ctx context.Context, id uuid.UUID) (*model.Round, error) {
	if id == uuid.Nil {
		return s.rounds.GetOrCreateCurrent(ctx)
	}
	return s.rounds.Get(ctx, id)
}

func rejectReason(err error) string {
	switch {
	case errors.Is(err, model.ErrInvalidStake):
		return "invalid_stake"
	case errors.Is(err, model.ErrInvalidSelection):
		return "invalid_selection"
	case errors.Is(err, model.ErrInsufficientFunds):
		return "insufficient_funds"
	case errors.Is(err, model.ErrBettingClosed):
		return "betting_closed"
	case errors.Is(err, model.ErrRateLimited):
		return "rate_limited"
	default:
		return "error"
	}
}
