package round

import (
	"numbers_backend/internal/clock"
	"numbers_backend/internal/repository"
	"numbers_backend/internal/service"

	"github.com/rs/zerolog"
)

type serv struct {
	repo     repository.RoundRepository
	schedule *clock.Schedule
	clock    clock.Clock
	log      zerolog.Logger
}

// NewRoundService Раунды по слотам расписания и переходы их статусов
func NewRoundService(
	repo repository.RoundRepository,
	schedule *clock.Schedule,
	clk clock.Clock,
	log zerolog.Logger,
) service.RoundService {
	return &serv{
		repo:     repo,
		schedule: schedule,
		clock:    clk,
		log:      log,
	}
}
