package settlement

import (
	"numbers_backend/internal/clock"
	"numbers_backend/internal/config"
	"numbers_backend/internal/observability"
	"numbers_backend/internal/repository"
	"numbers_backend/internal/service"

	"github.com/avito-tech/go-transaction-manager/trm/v2"
	"github.com/rs/zerolog"
)

type serv struct {
	cfg         config.GameConfig
	clock       clock.Clock
	rounds      service.RoundService
	wagerRepo   repository.WagerRepository
	accountRepo repository.AccountRepository
	txRepo      repository.TransactionRepository
	events      repository.EventPublisher
	txManager   trm.Manager
	log         zerolog.Logger
	metrics     *observability.Metrics
}

type Deps struct {
	Cfg         config.GameConfig
	Clock       clock.Clock
	Rounds      service.RoundService
	WagerRepo   repository.WagerRepository
	AccountRepo repository.AccountRepository
	TxRepo      repository.TransactionRepository
	Events      repository.EventPublisher
	TxManager   trm.Manager
	Log         zerolog.Logger
	Metrics     *observability.Metrics
}

// NewSettlementService Расчет ставок раунда по объявленному результату
func NewSettlementService(deps Deps) service.SettlementService {
	return &serv{
		cfg:         deps.Cfg,
		clock:       deps.Clock,
		rounds:      deps.Rounds,
		wagerRepo:   deps.WagerRepo,
		accountRepo: deps.AccountRepo,
		txRepo:      deps.TxRepo,
		events:      deps.Events,
		txManager:   deps.TxManager,
		log:         deps.Log,
		metrics:     deps.Metrics,
	}
}
