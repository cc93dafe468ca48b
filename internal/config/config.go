package config

type Config interface {
	EnvConfig
	ProviderConfig
	StorageConfig
	NavigationConfig
}

type EnvConfig interface {
	GetAppName() string
	GetEnv() string
	GetLogLevel() string
}

type mainConfig struct {
	EnvVars
	Provider
	Storage
	Navigation
}

func New() Config {
	return mainConfig{}
}
