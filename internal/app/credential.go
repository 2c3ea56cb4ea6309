package app

import (
	"errors"
	"fmt"
	"os"

	"github.com/zalando/go-keyring"

	"fsdrift/internal/config"
)

// keyringService is the OS keyring service under which API keys are stored,
// one entry per host ID.
const keyringService = "fsdrift"

// LoadAPIKey returns the summarizer API key. The environment variable named by
// summarizer.api_key_env wins; otherwise the OS keyring entry for the host is used.
// A key that is set nowhere yields "" and no error.
func LoadAPIKey(cfg *config.Config) (string, error) {
	envName := cfg.Summarizer.APIKeyEnv
	if envName == "" {
		envName = config.DefaultAPIKeyEnv
	}
	if key := os.Getenv(envName); key != "" {
		return key, nil
	}

	key, err := keyring.Get(keyringService, cfg.HostID)
	if errors.Is(err, keyring.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("reading API key from keyring: %w", err)
	}
	return key, nil
}

// SetAPIKey stores key in the OS keyring for hostID.
func SetAPIKey(hostID, key string) error {
	if key == "" {
		return fmt.Errorf("API key must not be empty")
	}
	if err := keyring.Set(keyringService, hostID, key); err != nil {
		return fmt.Errorf("writing API key to keyring: %w", err)
	}
	return nil
}
