package lock

import (
	"math/rand"
	"numbers_backend/internal/clock"
	"numbers_backend/internal/config"
	"numbers_backend/internal/observability"
	"numbers_backend/internal/repository"
	"numbers_backend/internal/service"
	"sync"
	"time"

	"github.com/avito-tech/go-transaction-manager/trm/v2"
	"github.com/rs/zerolog"
)

type serv struct {
	cfg       config.GameConfig
	schedule  *clock.Schedule
	clock     clock.Clock
	roundRepo repository.RoundRepository
	lockRepo  repository.LockRepository
	wagerRepo repository.WagerRepository
	txManager trm.Manager
	log       zerolog.Logger
	metrics   *observability.Metrics

	rndMu sync.Mutex
	rnd   *rand.Rand
}

type Deps struct {
	Cfg       config.GameConfig
	Schedule  *clock.Schedule
	Clock     clock.Clock
	RoundRepo repository.RoundRepository
	LockRepo  repository.LockRepository
	WagerRepo repository.WagerRepository
	TxManager trm.Manager
	Log       zerolog.Logger
	Metrics   *observability.Metrics
	// Rand - источник для выбора номера при автообъявлении, nil - от текущего времени
	Rand *rand.Rand
}

// NewLockService Блокировки номеров раунда по экспозиции ставок
func NewLockService(deps Deps) service.LockService {
	rnd := deps.Rand
	if rnd == nil {
		rnd = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	return &serv{
		cfg:       deps.Cfg,
		schedule:  deps.Schedule,
		clock:     deps.Clock,
		roundRepo: deps.RoundRepo,
		lockRepo:  deps.LockRepo,
		wagerRepo: deps.WagerRepo,
		txManager: deps.TxManager,
		log:       deps.Log,
		metrics:   deps.Metrics,
		rnd:       rnd,
	}
}
