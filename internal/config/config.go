package config

import (
	"numbers_backend/internal/model"
	"time"

	"github.com/joho/godotenv"
)

func Load(path string) error {
	err := godotenv.Load(path)
	if err != nil {
		return err
	}
	return nil
}

// GameConfig - правила игры: расписание слотов, блокировки, выплаты, лимиты
type GameConfig interface {
	Location() *time.Location
	SlotLength() time.Duration
	BettingWindow() time.Duration
	SystemOnlyWindow() time.Duration

	LockFraction(space model.Space) float64
	Multiplier(class model.GameClass) int64

	MinStake() int64
	MaxStake() int64
	RateLimit() (limit int, window time.Duration)

	SchedulerInterval() time.Duration
	LeaseTTL() time.Duration
	DrainInterval() time.Duration
	SettlementBatchSize() int
}

type HTTPConfig interface {
	Address() string
}

type PGConfig interface {
	DSN() string
	MigrationsDir() string
}

type RedisConfig interface {
	Addr() string
	Password() string
	DB() int
}

// NATSConfig - пустой URL отключает публикацию событий
type NATSConfig interface {
	URL() string
}

type LogConfig interface {
	Level() string
}

type JWTConfig interface {
	AccessTokenSecretKey() []byte
}
