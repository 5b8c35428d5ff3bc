package declare

import (
	"context"
	"errors"
	"numbers_backend/internal/model"
	"numbers_backend/internal/numspace"

	"github.com/google/uuid"
)

// declare Записывает результат и запускает расчет.
// Сбой записи - решение уходит в очередь повторов, сбой расчета - расчет продолжит планировщик
func (s *serv) declare(ctx context.Context, round *model.Round, triple, declaredBy string) (*model.Declaration, error) {
	red, err := numspace.Reduce(triple)
	if err != nil {
		return nil, model.ErrInvalidSelection
	}

	res := &model.Declaration{
		RoundID:    round.ID,
		Triple:     triple,
		Single:     red.Single,
		DeclaredBy: declaredBy,
	}

	recorded, err := s.rounds.RecordResult(ctx, round.ID, triple, declaredBy)
	if err != nil {
		if isConflict(err) || s.queue == nil {
			return nil, err
		}

		if qerr := s.enqueue(ctx, round.ID, triple, declaredBy); qerr != nil {
			s.log.Error().Err(err).AnErr("queue_error", qerr).Str("round_id", round.ID.String()).Msg("declaration lost: record and enqueue failed")
			return nil, errors.Join(err, qerr)
		}
		s.log.Warn().Err(err).Str("round_id", round.ID.String()).Str("triple", triple).Msg("declaration queued for retry")
		res.Queued = true
		return res, nil
	}

	s.log.Info().
		Str("round_id", round.ID.String()).
		Str("triple", triple).
		Int("single", red.Single).
		Str("declared_by", declaredBy).
		Msg("result declared")
	s.publishDeclared(ctx, recorded)

	return s.settle(ctx, recorded, res), nil
}

func (s *serv) settle(ctx context.Context, round *model.Round, res *model.Declaration) *model.Declaration {
	report, err := s.settlement.Settle(ctx, round.ID, round.Result.Triple, round.Result.Single)
	if err != nil {
		s.log.Error().Err(err).Str("round_id", round.ID.String()).Msg("settlement failed, will resume")
		res.SettlementPending = true
		return res
	}
	res.Report = report
	return res
}

// ResumeSettlement Довести до конца расчет раунда с уже записанным результатом
func (s *serv) ResumeSettlement(ctx context.Context, roundID uuid.UUID) (*model.Declaration, error) {
	round, err := s.rounds.Get(ctx, roundID)
	if err != nil {
		return nil, err
	}
	if !round.HasResult() {
		return nil, model.ErrResultNotDeclared
	}

	res := &model.Declaration{
		RoundID:    round.ID,
		Triple:     round.Result.Triple,
		Single:     round.Result.Single,
		DeclaredBy: round.Result.DeclaredBy,
	}
	report, err := s.settlement.Settle(ctx, round.ID, round.Result.Triple, round.Result.Single)
	if err != nil {
		return nil, err
	}
	res.Report = report
	return res, nil
}

func (s *serv) enqueue(ctx context.Context, roundID uuid.UUID, triple, declaredBy string) error {
	err := s.queue.Push(ctx, model.PendingDeclaration{
		RoundID:    roundID,
		Triple:     triple,
		DeclaredBy: declaredBy,
		DecidedAt:  s.clock.Now(),
	})
	if err == nil {
		s.metrics.RetryQueue.WithLabelValues("push").Inc()
	}
	return err
}

func (s *serv) publishDeclared(ctx context.Context, round *model.Round) {
	err := s.events.Publish(ctx, model.RoundEvent{
		Type:       model.EventRoundDeclared,
		RoundID:    round.ID,
		GameDate:   round.GameDate,
		SlotLabel:  round.SlotLabel,
		Triple:     round.Result.Triple,
		Single:     round.Result.Single,
		DeclaredBy: round.Result.DeclaredBy,
		At:         s.clock.Now(),
	})
	if err != nil {
		s.log.Warn().Err(err).Str("round_id", round.ID.String()).Msg("publish declared event failed")
	}
}

// isConflict Бизнес-ошибки, которые повтор не исправит
func isConflict(err error) bool {
	return errors.Is(err, model.ErrAlreadyDeclared) ||
		errors.Is(err, model.ErrRoundAlreadyCompleted) ||
		errors.Is(err, model.ErrRoundNotFound) ||
		errors.Is(err, model.ErrInvalidSelection)
}

func (s *serv) observe(source string, res *model.Declaration, err error) {
	outcome := "declared"
	switch {
	case err != nil:
		outcome = outcomeOf(err)
	case res.Queued:
		outcome = "queued"
	case res.SettlementPending:
		outcome = "settlement_pending"
	}
	s.metrics.Declarations.WithLabelValues(source, outcome).Inc()
}

func outcomeOf(err error) string {
	switch {
	case errors.Is(err, model.ErrAlreadyDeclared):
		return "already_declared"
	case errors.Is(err, model.ErrOutsideDeclarationWindow):
		return "outside_window"
	case errors.Is(err, model.ErrNumberLocked):
		return "locked"
	case errors.Is(err, model.ErrInvalidSelection):
		return "invalid_selection"
	default:
		return "error"
	}
}
