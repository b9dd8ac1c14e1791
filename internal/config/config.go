package config

type Config interface {
	EnvConfig
	SessionConfig
	StorageConfig
}

type mainConfig struct {
	EnvVars
	Session
	Storage
}

func New() Config {
	return mainConfig{}
}
