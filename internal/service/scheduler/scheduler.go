package scheduler

import (
	"context"
	"errors"
	"numbers_backend/internal/clock"
	"numbers_backend/internal/model"
	"numbers_backend/internal/observability"
	"numbers_backend/internal/repository"
	"numbers_backend/internal/service"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

type scheduler struct {
	schedule *clock.Schedule
	clock    clock.Clock
	rounds   service.RoundService
	locks    service.LockService
	declarer service.DeclareService
	lease    repository.Lease
	interval time.Duration
	leaseTTL time.Duration
	log      zerolog.Logger
	metrics  *observability.Metrics

	running atomic.Bool
}

type Deps struct {
	Schedule *clock.Schedule
	Clock    clock.Clock
	Rounds   service.RoundService
	Locks    service.LockService
	Declarer service.DeclareService
	// Lease - nil для одного экземпляра
	Lease    repository.Lease
	Interval time.Duration
	LeaseTTL time.Duration
	Log      zerolog.Logger
	Metrics  *observability.Metrics
}

// NewScheduler Планировщик автообъявления: закрывает прием ставок, считает блокировки,
// объявляет результат за оператора и доводит незавершенные расчеты
func NewScheduler(deps Deps) service.SchedulerService {
	return &scheduler{
		schedule: deps.Schedule,
		clock:    deps.Clock,
		rounds:   deps.Rounds,
		locks:    deps.Locks,
		declarer: deps.Declarer,
		lease:    deps.Lease,
		interval: deps.Interval,
		leaseTTL: deps.LeaseTTL,
		log:      deps.Log,
		metrics:  deps.Metrics,
	}
}

// Run Тик сразу и затем каждые interval, каждый тик в своей горутине.
// Тик, начатый во время предыдущего, пропускается
func (s *scheduler) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	go s.Tick(ctx)
	for {
		select {
		case <-ctx.Done():
			if s.lease != nil {
				s.lease.Release(context.WithoutCancel(ctx))
			}
			return
		case <-ticker.C:
			go s.Tick(ctx)
		}
	}
}

// Tick Один проход по незавершенным раундам. false - тик пропущен
func (s *scheduler) Tick(ctx context.Context) bool {
	if !s.running.CompareAndSwap(false, true) {
		s.metrics.SchedulerTicks.WithLabelValues("skipped").Inc()
		s.log.Warn().Msg("previous tick still running, skipping")
		return false
	}
	defer s.running.Store(false)

	tickCtx, cancel := context.WithTimeout(ctx, s.interval)
	defer cancel()

	if s.lease != nil {
		ok, err := s.lease.Acquire(tickCtx, s.leaseTTL)
		if err != nil {
			s.metrics.SchedulerTicks.WithLabelValues("lease_error").Inc()
			s.log.Error().Err(err).Msg("acquire scheduler lease")
			return false
		}
		if !ok {
			s.metrics.SchedulerTicks.WithLabelValues("not_leader").Inc()
			return false
		}
	}

	if _, err := s.rounds.GetOrCreateCurrent(tickCtx); err != nil {
		s.log.Error().Err(err).Msg("ensure current round")
	}

	rounds, err := s.rounds.ListUnfinished(tickCtx)
	if err != nil {
		s.metrics.SchedulerTicks.WithLabelValues("error").Inc()
		s.log.Error().Err(err).Msg("list unfinished rounds")
		return true
	}

	failed := 0
	for i := range rounds {
		if err := s.process(tickCtx, &rounds[i]); err != nil {
			failed++
			s.log.Error().Err(err).
				Str("round_id", rounds[i].ID.String()).
				Str("slot", rounds[i].SlotLabel).
				Msg("scheduler round failed")
		}
	}

	if failed > 0 {
		s.metrics.SchedulerTicks.WithLabelValues("partial").Inc()
	} else {
		s.metrics.SchedulerTicks.WithLabelValues("ok").Inc()
	}
	return true
}

func (s *scheduler) process(ctx context.Context, round *model.Round) error {
	now := s.clock.Now()
	slot := s.schedule.SlotOf(round.SlotStart)
	if now.Before(slot.BettingEnd) {
		return nil
	}

	if round.HasResult() {
		_, err := s.declarer.ResumeSettlement(ctx, round.ID)
		return err
	}

	if round.Status == model.RoundActive {
		if err := s.rounds.MarkAwaitingResult(ctx, round.ID); err != nil {
			return err
		}
		if _, err := s.locks.ComputeLocks(ctx, round.ID); err != nil {
			return err
		}
	}

	if now.Before(slot.OperatorEnd) {
		return nil
	}

	res, err := s.declarer.DeclareByAuto(ctx, round.ID)
	if errors.Is(err, model.ErrAlreadyDeclared) {
		return nil
	}
	if err != nil {
		return err
	}
	if res.Queued {
		s.log.Warn().Str("round_id", round.ID.String()).Msg("auto declaration queued")
	}
	return nil
}
