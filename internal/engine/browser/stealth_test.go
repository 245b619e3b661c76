package browser

import (
	"io"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
)

func TestGeolocationScriptEmbedsCoordinates(t *testing.T) {
	script := geolocationScript(-23.5505, -46.6333)
	assert.Contains(t, script, "-23.5505")
	assert.Contains(t, script, "-46.6333")
	assert.Contains(t, script, "accuracy: 10")
}

func TestStealthScriptCoversKnownTells(t *testing.T) {
	for _, tell := range []string{"webdriver", "plugins", "window.chrome", "permissions.query"} {
		assert.True(t, strings.Contains(stealthScript, tell), "missing %s override", tell)
	}
}

func TestConfigDefaults(t *testing.T) {
	cfg := Config{}.withDefaults()
	assert.Equal(t, 1366, cfg.Width)
	assert.Equal(t, 768, cfg.Height)
	assert.Equal(t, "pt-BR", cfg.Language)
	assert.NotEmpty(t, cfg.UserAgent)
}

func TestSessionMethodsFailBeforeInitialize(t *testing.T) {
	s := NewSession(Config{}, log.New(io.Discard))
	assert.False(t, s.IsReady())

	err := s.Evaluate(t.Context(), "1 + 1", nil)
	assert.ErrorContains(t, err, "not initialized")

	// Cleanup on a never-started session is a no-op
	s.Cleanup()
}
