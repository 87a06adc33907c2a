package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("HANDOFF_DESTINATION", "")
	t.Setenv("ALLOWED_ORIGINS", "https://shop.example, http://localhost:5173 ,")
	t.Setenv("DATABASE_URL", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, DefaultHandoffDestination, cfg.HandoffDestination)
	assert.Equal(t, []string{"https://shop.example", "http://localhost:5173"}, cfg.AllowedOrigins)
}

func TestLoadRequiresSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	_, err := Load()
	assert.Error(t, err)
}

func TestDSN(t *testing.T) {
	cfg := &Config{DBHost: "db", DBPort: "5433", DBUser: "shop", DBPassword: "pw", DBName: "barcoda"}
	assert.Equal(t, "host=db user=shop password=pw dbname=barcoda port=5433 sslmode=disable", cfg.DSN())

	cfg.DatabaseURL = "postgres://u:p@h/db"
	assert.Equal(t, "postgres://u:p@h/db", cfg.DSN())
}
