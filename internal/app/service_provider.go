package app

import (
	"context"
	"net/http"
	roundAPI "numbers_backend/internal/api/round"
	wagerAPI "numbers_backend/internal/api/wager"
	"numbers_backend/internal/clock"
	"numbers_backend/internal/config"
	"numbers_backend/internal/config/env"
	"numbers_backend/internal/events"
	"numbers_backend/internal/kv"
	"numbers_backend/internal/middleware"
	"numbers_backend/internal/migrate"
	"numbers_backend/internal/model"
	"numbers_backend/internal/observability"
	"numbers_backend/internal/repository"
	"numbers_backend/internal/repository/account_repo"
	"numbers_backend/internal/repository/lock_repo"
	"numbers_backend/internal/repository/round_repo"
	"numbers_backend/internal/repository/txlog_repo"
	"numbers_backend/internal/repository/wager_repo"
	"numbers_backend/internal/service"
	"numbers_backend/internal/service/declare"
	"numbers_backend/internal/service/lock"
	"numbers_backend/internal/service/round"
	"numbers_backend/internal/service/scheduler"
	"numbers_backend/internal/service/settlement"
	"numbers_backend/internal/service/wager"
	"numbers_backend/pkg/resp"

	trmpgx "github.com/avito-tech/go-transaction-manager/drivers/pgxv5/v2"
	"github.com/avito-tech/go-transaction-manager/trm/v2"
	"github.com/avito-tech/go-transaction-manager/trm/v2/manager"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nats-io/nats.go"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

type ServiceProvider struct {
	//TXManager
	txManager trm.Manager

	// Database
	pgConfig config.PGConfig
	dbClient *pgxpool.Pool
	migrator *migrate.Migrator

	// Redis
	redisCfg    config.RedisConfig
	redisClient *redis.Client
	declQueue   repository.DeclarationQueue
	lease       repository.Lease
	limiter     repository.RateLimiter

	// NATS
	natsCfg   config.NATSConfig
	natsConn  *nats.Conn
	publisher repository.EventPublisher

	// Observability
	logCfg  config.LogConfig
	logger  *zerolog.Logger
	metrics *observability.Metrics

	// Game rules
	gameCfg  config.GameConfig
	schedule *clock.Schedule
	clock    clock.Clock

	// Repositories
	roundRepo   repository.RoundRepository
	wagerRepo   repository.WagerRepository
	lockRepo    repository.LockRepository
	accountRepo repository.AccountRepository
	txRepo      repository.TransactionRepository

	// Services
	roundServ      service.RoundService
	lockServ       service.LockService
	wagerServ      service.WagerService
	settlementServ service.SettlementService
	declareServ    service.DeclareService
	scheduler      service.SchedulerService

	// Handlers
	roundHand *roundAPI.Handler
	wagerHand *wagerAPI.Handler

	// Router and HTTP config
	jwtCfg  config.JWTConfig
	httpCfg config.HTTPConfig
	router  chi.Router
}

func newServiceProvider() *ServiceProvider {
	return &ServiceProvider{}
}

func (sp *ServiceProvider) LogCfg() config.LogConfig {
	if sp.logCfg == nil {
		cfg, err := env.NewLogConfig()
		if err != nil {
			panic("failed to get log config: " + err.Error())
		}
		sp.logCfg = cfg
	}
	return sp.logCfg
}

func (sp *ServiceProvider) Logger() zerolog.Logger {
	if sp.logger == nil {
		l := sp.ComponentLogger("app")
		sp.logger = &l
	}
	return *sp.logger
}

// ComponentLogger - логгер с полем component
func (sp *ServiceProvider) ComponentLogger(component string) zerolog.Logger {
	return observability.NewLogger(component, sp.LogCfg().Level())
}

func (sp *ServiceProvider) Metrics() *observability.Metrics {
	if sp.metrics == nil {
		sp.metrics = observability.NewMetrics(nil)
	}
	return sp.metrics
}

func (sp *ServiceProvider) PgConfig() config.PGConfig {
	if sp.pgConfig == nil {
		cfg, err := env.NewPGConfig()
		if err != nil {
			panic("failed to get database config: " + err.Error())
		}
		sp.pgConfig = cfg
	}
	return sp.pgConfig
}

func (sp *ServiceProvider) DBClient(ctx context.Context) *pgxpool.Pool {
	if sp.dbClient == nil {
		dbc, err := pgxpool.New(ctx, sp.PgConfig().DSN())
		if err != nil {
			panic("failed to create db pool: " + err.Error())
		}
		err = dbc.Ping(ctx)
		if err != nil {
			panic("failed to ping db: " + err.Error())
		}
		sp.dbClient = dbc
	}
	return sp.dbClient
}

func (sp *ServiceProvider) Migrator(ctx context.Context) *migrate.Migrator {
	if sp.migrator == nil {
		sp.migrator = migrate.NewMigrator(sp.DBClient(ctx), sp.PgConfig().MigrationsDir(), sp.ComponentLogger("migrate"))
	}
	return sp.migrator
}

func (sp *ServiceProvider) TXManager(ctx context.Context) trm.Manager {
	if sp.txManager == nil {
		m, err := manager.New(trmpgx.NewDefaultFactory(sp.DBClient(ctx)))
		if err != nil {
			panic("failed to create tx manager: " + err.Error())
		}

		sp.txManager = m
	}

	return sp.txManager
}

func (sp *ServiceProvider) RedisCfg() config.RedisConfig {
	if sp.redisCfg == nil {
		cfg, err := env.NewRedisConfig()
		if err != nil {
			panic("failed to get redis config: " + err.Error())
		}
		sp.redisCfg = cfg
	}
	return sp.redisCfg
}

func (sp *ServiceProvider) RedisClient(ctx context.Context) *redis.Client {
	if sp.redisClient == nil {
		client, err := kv.NewClient(ctx, sp.RedisCfg())
		if err != nil {
			panic(err.Error())
		}
		sp.redisClient = client
	}
	return sp.redisClient
}

func (sp *ServiceProvider) DeclarationQueue(ctx context.Context) repository.DeclarationQueue {
	if sp.declQueue == nil {
		sp.declQueue = kv.NewDeclarationQueue(sp.RedisClient(ctx), sp.ComponentLogger("declaration_queue"))
	}
	return sp.declQueue
}

func (sp *ServiceProvider) SchedulerLease(ctx context.Context) repository.Lease {
	if sp.lease == nil {
		sp.lease = kv.NewSchedulerLease(sp.RedisClient(ctx))
	}
	return sp.lease
}

func (sp *ServiceProvider) RateLimiter(ctx context.Context) repository.RateLimiter {
	if sp.limiter == nil {
		sp.limiter = kv.NewRateLimiter(sp.RedisClient(ctx))
	}
	return sp.limiter
}

func (sp *ServiceProvider) NATSCfg() config.NATSConfig {
	if sp.natsCfg == nil {
		cfg, err := env.NewNATSConfig()
		if err != nil {
			panic("failed to get nats config: " + err.Error())
		}
		sp.natsCfg = cfg
	}
	return sp.natsCfg
}

// EventPublisher - JetStream, если задан NATS_URL, иначе события не публикуются
func (sp *ServiceProvider) EventPublisher(ctx context.Context) repository.EventPublisher {
	if sp.publisher == nil {
		url := sp.NATSCfg().URL()
		if url == "" {
			log := sp.Logger()
			log.Warn().Msg("NATS_URL is empty, round events are not published")
			sp.publisher = events.NewNoopPublisher()
			return sp.publisher
		}

		nc, js, err := events.Connect(ctx, url)
		if err != nil {
			panic(err.Error())
		}
		sp.natsConn = nc
		sp.publisher = events.NewPublisher(js)
	}
	return sp.publisher
}

func (sp *ServiceProvider) GameCfg() config.GameConfig {
	if sp.gameCfg == nil {
		cfg, err := env.NewGameConfigFromYAML(env.GameConfigPath())
		if err != nil {
			panic("failed to get game config: " + err.Error())
		}
		sp.gameCfg = cfg
	}
	return sp.gameCfg
}

func (sp *ServiceProvider) Clock() clock.Clock {
	if sp.clock == nil {
		sp.clock = clock.System()
	}
	return sp.clock
}

func (sp *ServiceProvider) Schedule() *clock.Schedule {
	if sp.schedule == nil {
		cfg := sp.GameCfg()
		s, err := clock.NewSchedule(cfg.Location(), cfg.SlotLength(), cfg.BettingWindow(), cfg.SystemOnlyWindow())
		if err != nil {
			panic("failed to build slot schedule: " + err.Error())
		}
		sp.schedule = s
	}
	return sp.schedule
}

func (sp *ServiceProvider) RoundRepository(ctx context.Context) repository.RoundRepository {
	if sp.roundRepo == nil {
		sp.roundRepo = round_repo.NewRoundRepository(sp.DBClient(ctx))
	}
	return sp.roundRepo
}

func (sp *ServiceProvider) WagerRepository(ctx context.Context) repository.WagerRepository {
	if sp.wagerRepo == nil {
		sp.wagerRepo = wager_repo.NewWagerRepository(sp.DBClient(ctx))
	}
	return sp.wagerRepo
}

func (sp *ServiceProvider) LockRepository(ctx context.Context) repository.LockRepository {
	if sp.lockRepo == nil {
		sp.lockRepo = lock_repo.NewLockRepository(sp.DBClient(ctx))
	}
	return sp.lockRepo
}

func (sp *ServiceProvider) AccountRepository(ctx context.Context) repository.AccountRepository {
	if sp.accountRepo == nil {
		sp.accountRepo = account_repo.NewAccountRepository(sp.DBClient(ctx))
	}
	return sp.accountRepo
}

func (sp *ServiceProvider) TransactionRepository(ctx context.Context) repository.TransactionRepository {
	if sp.txRepo == nil {
		sp.txRepo = txlog_repo.NewTransactionRepository(sp.DBClient(ctx))
	}
	return sp.txRepo
}

func (sp *ServiceProvider) RoundService(ctx context.Context) service.RoundService {
	if sp.roundServ == nil {
		sp.roundServ = round.NewRoundService(
			sp.RoundRepository(ctx),
			sp.Schedule(),
			sp.Clock(),
			sp.ComponentLogger("round"),
		)
	}
	return sp.roundServ
}

func (sp *ServiceProvider) LockService(ctx context.Context) service.LockService {
	if sp.lockServ == nil {
		sp.lockServ = lock.NewLockService(lock.Deps{
			Cfg:       sp.GameCfg(),
			Schedule:  sp.Schedule(),
			Clock:     sp.Clock(),
			RoundRepo: sp.RoundRepository(ctx),
			LockRepo:  sp.LockRepository(ctx),
			WagerRepo: sp.WagerRepository(ctx),
			TxManager: sp.TXManager(ctx),
			Log:       sp.ComponentLogger("lock"),
			Metrics:   sp.Metrics(),
		})
	}
	return sp.lockServ
}

func (sp *ServiceProvider) WagerService(ctx context.Context) service.WagerService {
	if sp.wagerServ == nil {
		sp.wagerServ = wager.NewWagerService(wager.Deps{
			Cfg:         sp.GameCfg(),
			Schedule:    sp.Schedule(),
			Clock:       sp.Clock(),
			Rounds:      sp.RoundService(ctx),
			RoundRepo:   sp.RoundRepository(ctx),
			WagerRepo:   sp.WagerRepository(ctx),
			AccountRepo: sp.AccountRepository(ctx),
			TxRepo:      sp.TransactionRepository(ctx),
			Limiter:     sp.RateLimiter(ctx),
			TxManager:   sp.TXManager(ctx),
			Log:         sp.ComponentLogger("wager"),
			Metrics:     sp.Metrics(),
		})
	}
	return sp.wagerServ
}

func (sp *ServiceProvider) SettlementService(ctx context.Context) service.SettlementService {
	if sp.settlementServ == nil {
		sp.settlementServ = settlement.NewSettlementService(settlement.Deps{
			Cfg:         sp.GameCfg(),
			Clock:       sp.Clock(),
			Rounds:      sp.RoundService(ctx),
			WagerRepo:   sp.WagerRepository(ctx),
			AccountRepo: sp.AccountRepository(ctx),
			TxRepo:      sp.TransactionRepository(ctx),
			Events:      sp.EventPublisher(ctx),
			TxManager:   sp.TXManager(ctx),
			Log:         sp.ComponentLogger("settlement"),
			Metrics:     sp.Metrics(),
		})
	}
	return sp.settlementServ
}

func (sp *ServiceProvider) DeclareService(ctx context.Context) service.DeclareService {
	if sp.declareServ == nil {
		sp.declareServ = declare.NewDeclareService(declare.Deps{
			Schedule:   sp.Schedule(),
			Clock:      sp.Clock(),
			Rounds:     sp.RoundService(ctx),
			Locks:      sp.LockService(ctx),
			Settlement: sp.SettlementService(ctx),
			Queue:      sp.DeclarationQueue(ctx),
			Events:     sp.EventPublisher(ctx),
			Log:        sp.ComponentLogger("declare"),
			Metrics:    sp.Metrics(),
		})
	}
	return sp.declareServ
}

func (sp *ServiceProvider) Scheduler(ctx context.Context) service.SchedulerService {
	if sp.scheduler == nil {
		sp.scheduler = scheduler.NewScheduler(scheduler.Deps{
			Schedule: sp.Schedule(),
			Clock:    sp.Clock(),
			Rounds:   sp.RoundService(ctx),
			Locks:    sp.LockService(ctx),
			Declarer: sp.DeclareService(ctx),
			Lease:    sp.SchedulerLease(ctx),
			Interval: sp.GameCfg().SchedulerInterval(),
			LeaseTTL: sp.GameCfg().LeaseTTL(),
			Log:      sp.ComponentLogger("scheduler"),
			Metrics:  sp.Metrics(),
		})
	}
	return sp.scheduler
}

func (sp *ServiceProvider) RoundHandler(ctx context.Context) *roundAPI.Handler {
	if sp.roundHand == nil {
		sp.roundHand = roundAPI.NewHandler(roundAPI.HandlerDeps{
			Rounds:  sp.RoundService(ctx),
			Locks:   sp.LockService(ctx),
			Wagers:  sp.WagerService(ctx),
			Declare: sp.DeclareService(ctx),
			Log:     sp.ComponentLogger("http"),
		})
	}
	return sp.roundHand
}

func (sp *ServiceProvider) WagerHandler(ctx context.Context) *wagerAPI.Handler {
	if sp.wagerHand == nil {
		sp.wagerHand = wagerAPI.NewHandler(wagerAPI.HandlerDeps{
			Serv: sp.WagerService(ctx),
			Log:  sp.ComponentLogger("http"),
		})
	}
	return sp.wagerHand
}

func (sp *ServiceProvider) JWTCfg() config.JWTConfig {
	if sp.jwtCfg == nil {
		cfg, err := env.NewJWTConfig()
		if err != nil {
			panic("failed to get jwt config: " + err.Error())
		}
		sp.jwtCfg = cfg
	}
	return sp.jwtCfg
}

func (sp *ServiceProvider) HTTPCfg() config.HTTPConfig {
	if sp.httpCfg == nil {
		cfg, err := env.NewHTTPConfig()
		if err != nil {
			panic("failed to get http config: " + err.Error())
		}
		sp.httpCfg = cfg
	}

	return sp.httpCfg
}

func (sp *ServiceProvider) Router(ctx context.Context) chi.Router {
	if sp.router == nil {
		r := chi.NewRouter()

		r.Use(chimw.RequestID)
		r.Use(chimw.Recoverer)
		r.Use(middleware.RequestLogger(sp.ComponentLogger("http")))

		// CORS middleware
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   []string{"*"},
			AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
			ExposedHeaders:   []string{"Link"},
			AllowCredentials: false,
			MaxAge:           60 * 15,
		}))

		r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
			resp.WriteJSONResponse(w, http.StatusOK, map[string]string{"status": "ok"})
		})
		r.Handle("/metrics", promhttp.Handler())

		roundHandler := sp.RoundHandler(ctx)
		wagerHandler := sp.WagerHandler(ctx)

		r.Group(func(rr chi.Router) {
			rr.Use(middleware.Auth(sp.JWTCfg().AccessTokenSecretKey()))

			rr.Get("/rounds/current", roundHandler.Current)

			// Account endpoints
			rr.Group(func(ar chi.Router) {
				ar.Use(middleware.RequireRole(model.RoleAccount))
				ar.Post("/wagers", wagerHandler.Place)
				ar.Get("/wagers", wagerHandler.List)
			})

			// Operator endpoints
			rr.Group(func(or chi.Router) {
				or.Use(middleware.RequireRole(model.RoleOperator))
				or.Post("/rounds/{id}/result", roundHandler.Declare)
				or.Get("/rounds/{id}/locks", roundHandler.Locks)
				or.Post("/rounds/{id}/locks/reset", roundHandler.ResetLocks)
				or.Get("/rounds/{id}/stats", roundHandler.Stats)
			})
		})

		sp.router = r
	}

	return sp.router
}

// Close освобождает внешние подключения
func (sp *ServiceProvider) Close() {
	if sp.natsConn != nil {
		_ = sp.natsConn.Drain()
	}
	if sp.redisClient != nil {
		_ = sp.redisClient.Close()
	}
	if sp.dbClient != nil {
		sp.dbClient.Close()
	}
}
