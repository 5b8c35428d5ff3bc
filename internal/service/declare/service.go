package declare

import (
	"numbers_backend/internal/clock"
	"numbers_backend/internal/observability"
	"numbers_backend/internal/repository"
	"numbers_backend/internal/service"

	"github.com/rs/zerolog"
)

type serv struct {
	schedule   *clock.Schedule
	clock      clock.Clock
	rounds     service.RoundService
	locks      service.LockService
	settlement service.SettlementService
	queue      repository.DeclarationQueue
	events     repository.EventPublisher
	log        zerolog.Logger
	metrics    *observability.Metrics
}

type Deps struct {
	Schedule   *clock.Schedule
	Clock      clock.Clock
	Rounds     service.RoundService
	Locks      service.LockService
	Settlement service.SettlementService
	// Queue - nil означает, что ошибка записи результата возвращается вызывающему
	Queue   repository.DeclarationQueue
	Events  repository.EventPublisher
	Log     zerolog.Logger
	Metrics *observability.Metrics
}

// NewDeclareService Объявление результата оператором и системой
func NewDeclareService(deps Deps) service.DeclareService {
	return &serv{
		schedule:   deps.Schedule,
		clock:      deps.Clock,
		rounds:     deps.Rounds,
		locks:      deps.Locks,
		settlement: deps.Settlement,
		queue:      deps.Queue,
		events:     deps.Events,
		log:        deps.Log,
		metrics:    deps.Metrics,
	}
}
