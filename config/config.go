package config

import (
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds the runtime settings, populated from CHAT_* environment
// variables with defaults matching a local development setup.
type Config struct {
	Addr          string        `envconfig:"ADDR" default:":3000"`
	MongoURI      string        `envconfig:"MONGO_URI" default:"mongodb://localhost:27017"`
	MongoDatabase string        `envconfig:"MONGO_DB" default:"chat_app"`
	SessionSecret string        `envconfig:"SESSION_SECRET" default:"chat-app-secret"`
	SessionTTL    time.Duration `envconfig:"SESSION_TTL" default:"72h"`
	HistoryLimit  int64         `envconfig:"HISTORY_LIMIT" default:"50"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("chat", &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
