package encryption

import (
	"fmt"

	"fsdrift/internal/config"
	"fsdrift/internal/drift"
)

// NewEncryptorFromConfig creates an Encryptor based on the configuration type.
// It returns nil when encryption is disabled.
func NewEncryptorFromConfig(cfg config.EncryptionConfig) (drift.Encryptor, error) {
	if !cfg.Enabled {
		return nil, nil
	}
	return NewEncryptor(cfg)
}

// NewEncryptor creates an Encryptor for cfg.Type regardless of Enabled, for key setup.
func NewEncryptor(cfg config.EncryptionConfig) (drift.Encryptor, error) {
	switch cfg.Type {
	case "age", "":
		return NewAgeEncryptor(cfg), nil
	case "test":
		return NewTestEncryptor(), nil
	default:
		return nil, fmt.Errorf("unknown encryption type: %q", cfg.Type)
	}
}
