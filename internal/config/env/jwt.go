package env

import (
	"fmt"
	"numbers_backend/internal/config"
	"os"
)

const (
	accessTokenKeyEnvName = "ACCESS_TOKEN"
)

type jwtConfig struct {
	accessTokenSecretKey string
}

func NewJWTConfig() (config.JWTConfig, error) {
	accessToken := os.Getenv(accessTokenKeyEnvName)
	if len(accessToken) == 0 {
		return nil, fmt.Errorf("access token secret key not found")
	}

	return &jwtConfig{
		accessTokenSecretKey: accessToken,
	}, nil
}

func (j *jwtConfig) AccessTokenSecretKey() []byte {
	return []byte(j.accessTokenSecretKey)
}
