package config

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"strconv"
	"time"

	"go.uber.org/zap/zapcore"
)

type Config struct {
	Port         int
	MasterSecret string
	// GeneratedSecret is set when MASTER_SECRET was empty and a random
	// secret was created; tokens then do not survive a restart.
	GeneratedSecret bool
	GinMode         string
	LogLevel        string
	TLSCertFile     string
	TLSKeyFile      string
	TokenExpiry     time.Duration
	EventBuffer     int
	NotifyBuffer    int
	SendQueue       int
	LookupLimit     int
}

type Env interface {
	Getenv(key string) string
}

type osEnv struct{}

func (osEnv) Getenv(key string) string { return os.Getenv(key) }

func LoadConfig() (Config, error) {
	return LoadConfigFromEnv(osEnv{})
}

func LoadConfigFromEnv(env Env) (Config, error) {
	cfg := Config{
		Port:         3000,
		GinMode:      "release",
		LogLevel:     "info",
		TokenExpiry:  7 * 24 * time.Hour,
		EventBuffer:  1024,
		NotifyBuffer: 256,
		SendQueue:    64,
		LookupLimit:  60,
	}

	if raw := env.Getenv("PORT"); raw != "" {
		port, err := strconv.Atoi(raw)
		if err != nil || port <= 0 || port > 65535 {
			return Config{}, fmt.Errorf("invalid PORT %q", raw)
		}
		cfg.Port = port
	}

	cfg.MasterSecret = env.Getenv("MASTER_SECRET")
	if cfg.MasterSecret == "" {
		secret, err := randomSecret()
		if err != nil {
			return Config{}, fmt.Errorf("generate secret: %w", err)
		}
		cfg.MasterSecret = secret
		cfg.GeneratedSecret = true
	}

	if raw := env.Getenv("GIN_MODE"); raw != "" {
		cfg.GinMode = raw
	}

	if raw := env.Getenv("LOG_LEVEL"); raw != "" {
		if err := ValidateLogLevel(raw); err != nil {
			return Config{}, err
		}
		cfg.LogLevel = raw
	}

	cfg.TLSCertFile = env.Getenv("TLS_CERT_FILE")
	cfg.TLSKeyFile = env.Getenv("TLS_KEY_FILE")
	if (cfg.TLSCertFile == "") != (cfg.TLSKeyFile == "") {
		return Config{}, fmt.Errorf("TLS_CERT_FILE and TLS_KEY_FILE must be set together")
	}

	if raw := env.Getenv("TOKEN_EXPIRY_SECONDS"); raw != "" {
		seconds, err := strconv.Atoi(raw)
		if err != nil || seconds <= 0 {
			return Config{}, fmt.Errorf("invalid TOKEN_EXPIRY_SECONDS %q", raw)
		}
		cfg.TokenExpiry = time.Duration(seconds) * time.Second
	}

	for _, f := range []struct {
		key string
		dst *int
		min int
	}{
		{"EVENT_BUFFER", &cfg.EventBuffer, 0},
		{"NOTIFY_BUFFER", &cfg.NotifyBuffer, 1},
		{"SEND_QUEUE", &cfg.SendQueue, 1},
		{"LOOKUP_RATE_LIMIT", &cfg.LookupLimit, 0},
	} {
		raw := env.Getenv(f.key)
		if raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil || n < f.min {
			return Config{}, fmt.Errorf("invalid %s %q", f.key, raw)
		}
		*f.dst = n
	}

	return cfg, nil
}

// ValidateLogLevel accepts the level names zap understands.
func ValidateLogLevel(level string) error {
	if _, err := zapcore.ParseLevel(level); err != nil {
		return fmt.Errorf("invalid LOG_LEVEL %q: %w", level, err)
	}
	return nil
}

func randomSecret() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
