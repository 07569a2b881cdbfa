package config

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Port         string `mapstructure:"PORT"`
	DBPath       string `mapstructure:"DB_PATH"`
	MediaDir     string `mapstructure:"MEDIA_DIR"`
	TemplateDir  string `mapstructure:"TEMPLATE_DIR"`
	CookieDomain string `mapstructure:"COOKIE_DOMAIN"`
	CookieSecure bool   `mapstructure:"COOKIE_SECURE"`

	// BackofficeAuth puts every back-office page behind the staff login.
	BackofficeAuth bool `mapstructure:"BACKOFFICE_AUTH"`

	OrderRatePerMinute int `mapstructure:"ORDER_RATE_PER_MINUTE"`
	OrderRateBurst     int `mapstructure:"ORDER_RATE_BURST"`

	KafkaBrokers string `mapstructure:"KAFKA_BROKERS"`
	KafkaTopic   string `mapstructure:"KAFKA_TOPIC"`

	LogLevel  string `mapstructure:"LOG_LEVEL"`
	LogFormat string `mapstructure:"LOG_FORMAT"`

	CSRFKey    []byte `mapstructure:"-"`
	SessionKey []byte `mapstructure:"-"`
}

var defaults = map[string]interface{}{
	"PORT":                  "8585",
	"DB_PATH":               "./tienda.db",
	"MEDIA_DIR":             "./media",
	"TEMPLATE_DIR":          "",
	"COOKIE_DOMAIN":         "",
	"COOKIE_SECURE":         false,
	"BACKOFFICE_AUTH":       true,
	"ORDER_RATE_PER_MINUTE": 30,
	"ORDER_RATE_BURST":      10,
	"KAFKA_BROKERS":         "",
	"KAFKA_TOPIC":           "tienda.orders",
	"LOG_LEVEL":             "info",
	"LOG_FORMAT":            "text",
	"CSRF_KEY":              "",
	"SESSION_KEY":           "",
}

// LoadConfig reads the environment, optionally layered over the file named
// by CONFIG_FILE (any format viper understands, e.g. .env or .yaml).
func LoadConfig() (*Config, error) {
	return load(viper.New())
}

func load(v *viper.Viper) (*Config, error) {
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.AutomaticEnv()

	if file := v.GetString("CONFIG_FILE"); file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file %s: %w", file, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	cfg.CSRFKey = loadKey(v, "CSRF_KEY")
	cfg.SessionKey = loadKey(v, "SESSION_KEY")

	// Make sure port is valid
	if _, err := strconv.Atoi(cfg.Port); err != nil {
		slog.Error("Invalid PORT. Falling back to default.", "PORT", cfg.Port)
		cfg.Port = "8585"
	}
	if cfg.OrderRatePerMinute <= 0 {
		cfg.OrderRatePerMinute = 30
	}
	if cfg.OrderRateBurst <= 0 {
		cfg.OrderRateBurst = 1
	}

	return cfg, nil
}

// Brokers splits KAFKA_BROKERS; an empty list means events are only logged.
func (c *Config) Brokers() []string {
	var brokers []string
	for _, b := range strings.Split(c.KafkaBrokers, ",") {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}
	return brokers
}

// SlogLevel maps LOG_LEVEL to a slog level, defaulting to info.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}

// loadKey decodes a base64 key of at least 32 bytes. Missing or invalid keys
// are replaced by a random one so development works, with a warning.
func loadKey(v *viper.Viper, name string) []byte {
	raw := v.GetString(name)
	if raw == "" {
		slog.Warn(name + " not set. Generating a random key for development. It will change on each restart. PLEASE SET " + name + " IN PRODUCTION!")
		return generateRandomBytes(32)
	}
	decoded, err := base64.StdEncoding.DecodeString(raw)
	if err != nil || len(decoded) < 32 {
		slog.Warn(name + " is invalid or too short (min 32 bytes). Generating a random key for development. PLEASE SET A SECURE " + name + " IN PRODUCTION!")
		return generateRandomBytes(32)
	}
	return decoded
}

// generateRandomBytes generates a random byte slice of specified length
// Uses crypto/rand for secure random numbers.
func generateRandomBytes(n int) []byte {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		slog.Error("Failed to read random bytes", "error", err)
		// Only there to avoid a nil key; never fine for production.
		fallbackKey := "fallback-insecure-key-" + strconv.FormatInt(time.Now().UnixNano(), 10)
		if len(fallbackKey) < n {
			paddedKey := make([]byte, n)
			copy(paddedKey, fallbackKey)
			return paddedKey
		}
		return []byte(fallbackKey)[:n]
	}
	return b
}
