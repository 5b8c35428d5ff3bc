package declare

import (
	"context"
	"numbers_backend/internal/model"
	"time"
)

// DrainRetryQueue Повторяет запись отложенных решений, пока очередь не опустеет.
// Решение, которое уже не может победить (результат есть), подтверждается и отбрасывается
func (s *serv) DrainRetryQueue(ctx context.Context) (int, error) {
	if s.queue == nil {
		return 0, nil
	}

	applied := 0
	for {
		if err := ctx.Err(); err != nil {
			return applied, err
		}

		d, err := s.queue.Claim(ctx)
		if err != nil {
			return applied, err
		}
		if d == nil {
			return applied, nil
		}

		_, err = s.recordQueued(ctx, d.PendingDeclaration)
		if err != nil {
			if isConflict(err) {
				s.dropQueued(ctx, d.PendingDeclaration, err)
				if err := s.queue.Ack(ctx, d); err != nil {
					return applied, err
				}
				continue
			}

			s.metrics.RetryQueue.WithLabelValues("requeued").Inc()
			if qerr := s.queue.Requeue(ctx, d); qerr != nil {
				s.log.Error().Err(qerr).Str("round_id", d.RoundID.String()).Msg("requeue failed, left in processing")
			}
			return applied, err
		}

		if err := s.queue.Ack(ctx, d); err != nil {
			return applied, err
		}
		applied++
	}
}

// recordQueued Записывает отложенное решение и запускает расчет
func (s *serv) recordQueued(ctx context.Context, d model.PendingDeclaration) (*model.Declaration, error) {
	round, err := s.rounds.RecordResult(ctx, d.RoundID, d.Triple, d.DeclaredBy)
	if err != nil {
		return nil, err
	}

	s.metrics.RetryQueue.WithLabelValues("applied").Inc()
	s.log.Info().
		Str("round_id", d.RoundID.String()).
		Str("triple", d.Triple).
		Str("declared_by", d.DeclaredBy).
		Int("attempts", d.Attempts+1).
		Dur("delay", s.clock.Now().Sub(d.DecidedAt)).
		Msg("queued declaration recorded")

	s.publishDeclared(ctx, round)
	return s.settle(ctx, round, &model.Declaration{
		RoundID:    round.ID,
		Triple:     d.Triple,
		Single:     round.Result.Single,
		DeclaredBy: d.DeclaredBy,
	}), nil
}

// dropQueued Решение, уже записанное системным объявлением, не считается потерянным
func (s *serv) dropQueued(ctx context.Context, d model.PendingDeclaration, cause error) {
	if round, err := s.rounds.Get(ctx, d.RoundID); err == nil && round.HasResult() &&
		round.Result.Triple == d.Triple && round.Result.DeclaredBy == d.DeclaredBy {
		s.log.Info().Str("round_id", d.RoundID.String()).Str("triple", d.Triple).Msg("queued declaration already recorded")
		s.metrics.RetryQueue.WithLabelValues("already_recorded").Inc()
		return
	}
	s.log.Warn().Err(cause).Str("round_id", d.RoundID.String()).Str("triple", d.Triple).Msg("queued declaration dropped")
	s.metrics.RetryQueue.WithLabelValues("dropped").Inc()
}

// RunDrainer Фоновая разборка очереди повторов с экспоненциальной паузой после сбоев
func (s *serv) RunDrainer(ctx context.Context, interval time.Duration) {
	if s.queue == nil {
		return
	}
	if n, err := s.queue.RecoverProcessing(ctx); err != nil {
		s.log.Error().Err(err).Msg("recover processing declarations")
	} else if n > 0 {
		s.log.Warn().Int("count", n).Msg("recovered unacknowledged declarations")
	}

	const maxBackoff = 5 * time.Minute
	wait := interval
	for {
		select {
		case <-ctx.Done():
			return
		case <-time.After(wait):
		}

		_, err := s.DrainRetryQueue(ctx)
		if err == nil {
			wait = interval
			continue
		}
		if ctx.Err() != nil {
			return
		}

		wait *= 2
		if wait > maxBackoff {
			wait = maxBackoff
		}
		s.log.Warn().Err(err).Dur("retry_in", wait).Msg("drain declarations failed")
	}
}
