package settlement

import (
	"context"
	"errors"
	"fmt"
	"numbers_backend/internal/model"
	"strconv"
	"time"

	"github.com/google/uuid"
)

// Settle Рассчитывает все ставки раунда в статусе pending и завершает раунд.
// Каждая ставка - отдельная транзакция с условным переходом из pending,
// поэтому повторный вызов после частичного сбоя ничего не начисляет дважды
func (s *serv) Settle(ctx context.Context, roundID uuid.UUID, triple string, single int) (*model.SettlementReport, error) {
	round, err := s.rounds.Get(ctx, roundID)
	if err != nil {
		return nil, err
	}
	if !round.HasResult() {
		return nil, model.ErrResultNotDeclared
	}
	if round.Result.Triple != triple || round.Result.Single != single {
		return nil, fmt.Errorf("%w: declared %s/%d", model.ErrResultMismatch, round.Result.Triple, round.Result.Single)
	}

	started := time.Now()
	report := &model.SettlementReport{RoundID: roundID, Triple: triple, Single: single}
	winningSingle := strconv.Itoa(single)

	for {
		batch, err := s.wagerRepo.ListPendingByRound(ctx, roundID, s.cfg.SettlementBatchSize())
		if err != nil {
			return report, fmt.Errorf("list pending wagers: %w", err)
		}
		if len(batch) == 0 {
			break
		}

		for _, w := range batch {
			if err := s.settleWager(ctx, w, triple, winningSingle, report); err != nil {
				return report, fmt.Errorf("settle wager %s: %w", w.ID, err)
			}
		}
	}

	err = s.rounds.Complete(ctx, roundID)
	if err != nil && !errors.Is(err, model.ErrRoundAlreadyCompleted) {
		return report, err
	}

	s.metrics.SettlementDuration.Observe(time.Since(started).Seconds())
	s.metrics.SettlementPaid.Add(float64(report.TotalPaid))
	s.log.Info().
		Str("round_id", roundID.String()).
		Str("triple", triple).
		Int("won", report.Won).
		Int("lost", report.Lost).
		Int("skipped", report.Skipped).
		Int64("paid", report.TotalPaid).
		Msg("round settled")

	s.publish(ctx, round, report)
	return report, nil
}

func (s *serv) settleWager(ctx context.Context, w model.Wager, triple, single string, report *model.SettlementReport) error {
	won := Wins(w, triple, single)
	var payout int64
	status := model.WagerLost
	if won {
		payout = w.Stake * s.cfg.Multiplier(w.GameClass)
		status = model.WagerWon
	}

	var settled bool
	err := s.txManager.Do(ctx, func(txCtx context.Context) error {
		now := s.clock.Now()

		ok, err := s.wagerRepo.SetOutcome(txCtx, w.ID, status, payout, now)
		if err != nil {
			return err
		}
		settled = ok
		if !ok || !won {
			return nil
		}

		balance, err := s.accountRepo.Credit(txCtx, w.AccountID, payout)
		if err != nil {
			return err
		}

		return s.txRepo.Append(txCtx, &model.TransactionRecord{
			ID:           uuid.New(),
			AccountID:    w.AccountID,
			RoundID:      w.RoundID,
			WagerID:      w.ID,
			Type:         model.TxBetWon,
			Amount:       payout,
			BalanceAfter: balance,
			CreatedAt:    now,
		})
	})
	if err != nil {
		return err
	}

	// Ставку уже рассчитал параллельный вызов
	if !settled {
		report.Skipped++
		return nil
	}

	report.TotalStake += w.Stake
	if won {
		report.Won++
		report.TotalPaid += payout
		s.metrics.WagersSettled.WithLabelValues(string(model.WagerWon)).Inc()
	} else {
		report.Lost++
		s.metrics.WagersSettled.WithLabelValues(string(model.WagerLost)).Inc()
	}
	return nil
}

// Wins Прямое совпадение: single сравнивается с редукцией, классы panna - с тройкой
func Wins(w model.Wager, triple, single string) bool {
	if w.GameClass == model.ClassSingle {
		return w.Number == single
	}
	return w.Number == triple
}

func (s *serv) publish(ctx context.Context, round *model.Round, report *model.SettlementReport) {
	err := s.events.Publish(ctx, model.RoundEvent{
		Type:      model.EventRoundSettled,
		RoundID:   round.ID,
		GameDate:  round.GameDate,
		SlotLabel: round.SlotLabel,
		Triple:    report.Triple,
		Single:    report.Single,
		Report:    report,
		At:        s.clock.Now(),
	})
	if err != nil {
		s.log.Warn().Err(err).Str("round_id", round.ID.String()).Msg("publish settled event failed")
	}
}
