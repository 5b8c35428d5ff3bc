package env

import (
	"errors"
	"numbers_backend/internal/config"
	"os"
)

const (
	dsnName           = "PG_DSN"
	migrationsDirName = "MIGRATIONS_DIR"

	defaultMigrationsDir = "migrations"
)

type pgConfig struct {
	dsn           string
	migrationsDir string
}

func NewPGConfig() (config.PGConfig, error) {
	dsn := os.Getenv(dsnName)
	if len(dsn) == 0 {
		return nil, errors.New("pg dsn not found")
	}

	dir := os.Getenv(migrationsDirName)
	if len(dir) == 0 {
		dir = defaultMigrationsDir
	}

	return &pgConfig{
		dsn:           dsn,
		migrationsDir: dir,
	}, nil
}

func (cfg *pgConfig) DSN() string {
	return cfg.dsn
}

func (cfg *pgConfig) MigrationsDir() string {
	return cfg.migrationsDir
}
