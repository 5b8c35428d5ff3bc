package wager

import (
	"numbers_backend/internal/clock"
	"numbers_backend/internal/config"
	"numbers_backend/internal/observability"
	"numbers_backend/internal/repository"
	"numbers_backend/internal/service"

	"github.com/avito-tech/go-transaction-manager/trm/v2"
	"github.com/rs/zerolog"
)

const rateAction = "wager"

type serv struct {
	cfg         config.GameConfig
	schedule    *clock.Schedule
	clock       clock.Clock
	rounds      service.RoundService
	roundRepo   repository.RoundRepository
	wagerRepo   repository.WagerRepository
	accountRepo repository.AccountRepository
	txRepo      repository.TransactionRepository
	limiter     repository.RateLimiter
	txManager   trm.Manager
	log         zerolog.Logger
	metrics     *observability.Metrics
}

type Deps struct {
	Cfg         config.GameConfig
	Schedule    *clock.Schedule
	Clock       clock.Clock
	Rounds      service.RoundService
	RoundRepo   repository.RoundRepository
	WagerRepo   repository.WagerRepository
	AccountRepo repository.AccountRepository
	TxRepo      repository.TransactionRepository
	// Limiter - nil отключает ограничение частоты ставок
	Limiter   repository.RateLimiter
	TxManager trm.Manager
	Log       zerolog.Logger
	Metrics   *observability.Metrics
}

// NewWagerService Прием ставок и агрегаты по раунду
func NewWagerService(deps Deps) service.WagerService {
	return &serv{
		cfg:         deps.Cfg,
		schedule:    deps.Schedule,
		clock:       deps.Clock,
		rounds:      deps.Rounds,
		roundRepo:   deps.RoundRepo,
		wagerRepo:   deps.WagerRepo,
		accountRepo: deps.AccountRepo,
		txRepo:      deps.TxRepo,
		limiter:     deps.Limiter,
		txManager:   deps.TxManager,
		log:         deps.Log,
		metrics:     deps.Metrics,
	}
}
