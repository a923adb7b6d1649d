package config

import "github.com/ilyakaznacheev/cleanenv"

// Config holds the environment-driven defaults. Command line flags
// override every field at startup; nothing here is persisted.
type Config struct {
	ServerURL string `env:"MURMUR_SERVER_URL" env-default:"http://localhost:8000"`
	PanelAddr string `env:"MURMUR_PANEL_ADDR" env-default:":8444"`
	WatchDir  string `env:"MURMUR_WATCH_DIR"`
	Workers   int    `env:"MURMUR_WORKERS" env-default:"2"`
	Language  string `env:"MURMUR_LANGUAGE" env-default:"auto"`
	ModelSize string `env:"MURMUR_MODEL" env-default:"base"`
	DeviceID  int    `env:"MURMUR_DEVICE" env-default:"0"`
}

func MustLoad() *Config {
	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		panic("failed to read environment variables: " + err.Error())
	}

	return &cfg
}
