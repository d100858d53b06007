package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCSV(t *testing.T) {
	assert.Nil(t, CSV(""))
	assert.Equal(t, []string{"a:9092", "b:9092"}, CSV(" a:9092, ,b:9092 "))
}

func TestEnvDefaults(t *testing.T) {
	t.Setenv("BOUTIQUE_TEST_INT", "not-a-number")
	t.Setenv("BOUTIQUE_TEST_DUR", "90s")

	assert.Equal(t, 7, EnvIntDefault("BOUTIQUE_TEST_INT", 7))
	assert.Equal(t, 90*time.Second, EnvDurationDefault("BOUTIQUE_TEST_DUR", time.Minute))
	assert.Equal(t, time.Minute, EnvDurationDefault("BOUTIQUE_TEST_MISSING", time.Minute))
	assert.Equal(t, "def", EnvDefault("BOUTIQUE_TEST_MISSING", "def"))
}

func TestCookieSecure(t *testing.T) {
	t.Setenv("COOKIE_SECURE", "")
	assert.True(t, Load().CookieSecure)

	t.Setenv("COOKIE_SECURE", "false")
	assert.False(t, Load().CookieSecure)

	t.Setenv("COOKIE_SECURE", "maybe")
	assert.True(t, Load().CookieSecure)
}

func TestLoadAndValidate(t *testing.T) {
	t.Setenv("DATABASE_DRIVER", "sqlite")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("KAFKA_BROKERS", "k1:9092,k2:9092")

	cfg := Load()
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
	require.Error(t, cfg.Validate())

	cfg.DatabaseURL = "boutique.db"
	require.NoError(t, cfg.Validate())

	cfg.DatabaseDriver = "mysql"
	require.Error(t, cfg.Validate())
}
