package encryption

import (
	"bytes"
	"fmt"
	"io"

	"fsdrift/internal/drift"
)

// testHeader is prepended by TestEncryptor so "encrypted" snapshots differ from
// plaintext JSON while staying deterministic and reversible.
var testHeader = []byte("FSDENC\x00\x00")

// TestEncryptor is a deterministic, crypto-free encryptor for tests.
// Unlock rejects only the empty passphrase.
type TestEncryptor struct {
	SetupCalled bool
	Unlocks     int
}

var _ drift.Encryptor = (*TestEncryptor)(nil)

func NewTestEncryptor() *TestEncryptor {
	return &TestEncryptor{}
}

func (e *TestEncryptor) Setup(passphrase string) error {
	e.SetupCalled = true
	return nil
}

func (e *TestEncryptor) Encrypt(r io.Reader, w io.Writer) error {
	if _, err := w.Write(testHeader); err != nil {
		return fmt.Errorf("writing test header: %w", err)
	}
	if _, err := io.Copy(w, r); err != nil {
		return fmt.Errorf("copying data: %w", err)
	}
	return nil
}

func (e *TestEncryptor) Unlock(passphrase string) (drift.DecryptionContext, error) {
	if passphrase == "" {
		return nil, fmt.Errorf("empty passphrase")
	}
	e.Unlocks++
	return &TestDecryptionContext{}, nil
}

func (e *TestEncryptor) IsConfigured() bool {
	return true
}

func (e *TestEncryptor) IsEncrypted(header []byte) bool {
	return bytes.HasPrefix(header, testHeader)
}

// TestDecryptionContext strips the header added by TestEncryptor.
type TestDecryptionContext struct{}

var _ drift.DecryptionContext = (*TestDecryptionContext)(nil)

func (c *TestDecryptionContext) Decrypt(r io.Reader, w io.Writer) error {
	header := make([]byte, len(testHeader))
	if _, err := io.ReadFull(r, header); err != nil {
		return fmt.Errorf("reading test header: %w", err)
	}
	if !bytes.Equal(header, testHeader) {
		return fmt.Errorf("invalid test encryption header")
	}
	if _, err := io.Copy(w, r); err != nil {
		return fmt.Errorf("copying data: %w", err)
	}
	return nil
}
