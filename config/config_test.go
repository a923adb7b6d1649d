package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaults(t *testing.T) {
	cfg := MustLoad()

	assert.Equal(t, "http://localhost:8000", cfg.ServerURL)
	assert.Equal(t, ":8444", cfg.PanelAddr)
	assert.Equal(t, 2, cfg.Workers)
	assert.Equal(t, "auto", cfg.Language)
	assert.Equal(t, "base", cfg.ModelSize)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("MURMUR_SERVER_URL", "http://stt.internal:9000")
	t.Setenv("MURMUR_MODEL", "small")
	t.Setenv("MURMUR_WORKERS", "4")

	cfg := MustLoad()

	assert.Equal(t, "http://stt.internal:9000", cfg.ServerURL)
	assert.Equal(t, "small", cfg.ModelSize)
	assert.Equal(t, 4, cfg.Workers)
}
