package testutil

import (
	"fsdrift/internal/drift"
	"fsdrift/internal/encryption"
)

// NewTestEncryptor returns the reversible header-only encryptor. Any non-empty passphrase unlocks it.
func NewTestEncryptor() drift.Encryptor {
	return encryption.NewTestEncryptor()
}
