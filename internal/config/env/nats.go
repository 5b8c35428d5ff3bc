package env

import (
	"numbers_backend/internal/config"
	"os"
)

const natsURLEnvName = "NATS_URL"

type natsConfig struct {
	url string
}

func NewNATSConfig() (config.NATSConfig, error) {
	return &natsConfig{url: os.Getenv(natsURLEnvName)}, nil
}

func (cfg *natsConfig) URL() string {
	return cfg.url
}
