package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/JRI98/widgetbridge/internal/ed25519"
	"github.com/JRI98/widgetbridge/internal/history"
	"github.com/caarlos0/env/v11"
)

type Config struct {
	Port string `env:"PORT" envDefault:"3000"`

	// NATSURL enables publishing processed messages when set.
	NATSURL    string `env:"NATS_URL"`
	NATSStream string `env:"NATS_STREAM" envDefault:"WIDGET_EVENTS"`

	// TrustedPublicKeys are base64 ed25519 keys allowed to call the API.
	// An empty list leaves the API open.
	TrustedPublicKeys []string `env:"TRUSTED_PUBLIC_KEYS" envSeparator:","`

	ChatwootBaseURL string   `env:"CHATWOOT_BASE_URL" envDefault:"https://chat.footgolflegends.com"`
	Screens         []string `env:"SCREENS" envSeparator:"," envDefault:"Addresses,Orders,Profile"`

	HistoryCapacity int           `env:"HISTORY_CAPACITY" envDefault:"100"`
	LogLevel        slog.Level    `env:"LOG_LEVEL" envDefault:"DEBUG"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
}

func Load() (Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return Config{}, fmt.Errorf("could not parse environment: %w", err)
	}

	if cfg.HistoryCapacity <= 0 || cfg.HistoryCapacity > history.DefaultCapacity {
		return Config{}, fmt.Errorf("HISTORY_CAPACITY must be between 1 and %d, got %d", history.DefaultCapacity, cfg.HistoryCapacity)
	}

	return cfg, nil
}

func (c Config) TrustedKeys() (map[string]ed25519.PublicKey, error) {
	keys := make(map[string]ed25519.PublicKey, len(c.TrustedPublicKeys))
	for _, encoded := range c.TrustedPublicKeys {
		encoded = strings.TrimSpace(encoded)
		if encoded == "" {
			continue
		}

		key, err := ed25519.PublicKeyFromBase64(encoded)
		if err != nil {
			return nil, fmt.Errorf("invalid trusted public key %q: %w", encoded, err)
		}
		keys[string(key)] = key
	}

	return keys, nil
}
