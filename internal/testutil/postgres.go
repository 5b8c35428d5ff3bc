package testutil

import (
	"context"
	"numbers_backend/internal/migrate"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

const truncateAll = `TRUNCATE transactions, locked_numbers, wagers, rounds, accounts RESTART IDENTITY CASCADE`

// TestPostgresDSN - база для интеграционных тестов репозиториев. Пусто - тесты пропускаются
func TestPostgresDSN() string {
	return os.Getenv("TEST_PG_DSN")
}

// SetupTestDB подключается к тестовой базе, применяет миграции и очищает таблицы до и после теста
func SetupTestDB(t *testing.T) *pgxpool.Pool {
	t.Helper()

	dsn := TestPostgresDSN()
	if dsn == "" {
		t.Skip("TEST_PG_DSN is not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		t.Skipf("test postgres not available: %v", err)
	}

	if err := migrate.NewMigrator(pool, migrationsDir(), zerolog.Nop()).Up(ctx); err != nil {
		pool.Close()
		t.Fatalf("migrate: %v", err)
	}
	if _, err := pool.Exec(ctx, truncateAll); err != nil {
		pool.Close()
		t.Fatalf("truncate: %v", err)
	}

	t.Cleanup(func() {
		pool.Exec(context.Background(), truncateAll)
		pool.Close()
	})
	return pool
}

// CreateAccount - аккаунт с заданным балансом
func CreateAccount(t *testing.T, pool *pgxpool.Pool, balance int64) int64 {
	t.Helper()
	var id int64
	err := pool.QueryRow(context.Background(),
		`INSERT INTO accounts (name, balance) VALUES ($1, $2) RETURNING id`, t.Name(), balance).Scan(&id)
	if err != nil {
		t.Fatalf("create account: %v", err)
	}
	return id
}

func migrationsDir() string {
	_, file, _, _ := runtime.Caller(0)
	return filepath.Join(filepath.Dir(file), "..", "..", "migrations")
}
