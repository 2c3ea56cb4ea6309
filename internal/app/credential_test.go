package app

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zalando/go-keyring"

	"fsdrift/internal/config"
)

func TestLoadAPIKey(t *testing.T) {
	keyring.MockInit()
	cfg := config.NewConfig("host-1", t.TempDir())
	cfg.Summarizer.APIKeyEnv = "FSDRIFT_TEST_API_KEY"

	t.Run("nothing configured", func(t *testing.T) {
		t.Setenv("FSDRIFT_TEST_API_KEY", "")
		key, err := LoadAPIKey(cfg)
		require.NoError(t, err)
		assert.Empty(t, key)
	})

	t.Run("keyring fallback", func(t *testing.T) {
		t.Setenv("FSDRIFT_TEST_API_KEY", "")
		require.NoError(t, SetAPIKey("host-1", "sk-from-keyring"))

		key, err := LoadAPIKey(cfg)
		require.NoError(t, err)
		assert.Equal(t, "sk-from-keyring", key)
	})

	t.Run("environment wins", func(t *testing.T) {
		t.Setenv("FSDRIFT_TEST_API_KEY", "sk-from-env")
		key, err := LoadAPIKey(cfg)
		require.NoError(t, err)
		assert.Equal(t, "sk-from-env", key)
	})
}

func TestSetAPIKey_Empty(t *testing.T) {
	keyring.MockInit()
	assert.Error(t, SetAPIKey("host-1", ""))
}
