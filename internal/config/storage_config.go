package config

import (
	"os"
	"path/filepath"
)

const (
	TokenStoreFile  = "file"
	TokenStoreRedis = "redis"
)

type StorageConfig interface {
	GetTokenStore() string
	GetCredentialsPath() string
	GetRedisURL() string
	GetDatabaseURL() string
}

type Storage struct{}

var _ StorageConfig = Storage{}

// GetTokenStore returns "file" or "redis".
func (Storage) GetTokenStore() string {
	return GetEnv("TOKEN_STORE", TokenStoreFile)
}

func (Storage) GetCredentialsPath() string {
	if p := os.Getenv("CREDENTIALS_PATH"); p != "" {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".postureiq", "credentials.json")
	}
	return filepath.Join(home, ".postureiq", "credentials.json")
}

func (Storage) GetRedisURL() string {
	return GetEnv("REDIS_URL", "redis://localhost:6379/0")
}

// GetDatabaseURL is optional; without it activity queries degrade to an empty heatmap.
func (Storage) GetDatabaseURL() string {
	return GetEnv("DATABASE_URL", "")
}
