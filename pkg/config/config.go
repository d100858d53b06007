package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	ServiceName string

	ServerPort int

	DatabaseDriver string
	DatabaseURL    string

	JWTAccessSecret   []byte
	AdminPasswordHash string

	KafkaBrokers []string

	ElasticURL      string
	ElasticUser     string
	ElasticPassword string
	SearchIndex     string

	LogLevel    string
	ConflictTTL time.Duration

	// CookieSecure marks auth and CSRF cookies Secure. Turn it off only when
	// nothing terminates TLS in front of the server.
	CookieSecure bool
}

func Load() Config {
	return Config{
		ServiceName: EnvDefault("SERVICE_NAME", "boutique"),

		ServerPort: EnvIntDefault("SERVER_PORT", 8080),

		DatabaseDriver: EnvDefault("DATABASE_DRIVER", "postgres"),
		DatabaseURL:    os.Getenv("DATABASE_URL"),

		JWTAccessSecret:   []byte(os.Getenv("JWT_SECRET")),
		AdminPasswordHash: os.Getenv("ADMIN_PASSWORD_HASH"),

		KafkaBrokers: CSV(os.Getenv("KAFKA_BROKERS")),

		ElasticURL:      os.Getenv("ES_URL"),
		ElasticUser:     os.Getenv("ES_USER"),
		ElasticPassword: os.Getenv("ES_PASSWORD"),
		SearchIndex:     EnvDefault("SEARCH_INDEX", "products"),

		LogLevel:    EnvDefault("LOG_LEVEL", "info"),
		ConflictTTL: EnvDurationDefault("CONFLICT_TTL", 10*time.Minute),

		CookieSecure: EnvBoolDefault("COOKIE_SECURE", true),
	}
}

func CSV(v string) []string {
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func EnvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func EnvIntDefault(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func EnvDurationDefault(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return def
	}
	return d
}

func EnvBoolDefault(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}
