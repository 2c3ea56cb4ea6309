package encryption

import (
	"bytes"
	"testing"
)

func TestTestEncryptor_SetupAndUnlock(t *testing.T) {
	t.Parallel()
	e := NewTestEncryptor()
	if err := e.Setup("pw"); err != nil {
		t.Fatalf("Setup() error = %v", err)
	}
	if !e.SetupCalled {
		t.Error("Setup() did not record that it was called")
	}
	if !e.IsConfigured() {
		t.Error("IsConfigured() = false, want true")
	}

	if _, err := e.Unlock(""); err == nil {
		t.Error("Unlock(\"\") expected error")
	}
	if _, err := e.Unlock("pw"); err != nil {
		t.Fatalf("Unlock() error = %v", err)
	}
	if e.Unlocks != 1 {
		t.Errorf("Unlocks = %d, want 1", e.Unlocks)
	}
}

func TestTestEncryptor_SnapshotRoundTrip(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input []byte
	}{
		{name: "snapshot record", input: []byte(`{"datetime":"2024-01-15T10:30:00Z","device":"~","data_hex":"","fs_repr":null}`)},
		{name: "empty", input: []byte{}},
		{name: "large tree", input: bytes.Repeat([]byte(`{"name":"x","children":[]},`), 5000)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			e := NewTestEncryptor()

			var sealed bytes.Buffer
			if err := e.Encrypt(bytes.NewReader(tt.input), &sealed); err != nil {
				t.Fatalf("Encrypt() error = %v", err)
			}
			if !e.IsEncrypted(sealed.Bytes()) {
				t.Error("IsEncrypted() = false for sealed output")
			}
			if e.IsEncrypted(tt.input) {
				t.Error("IsEncrypted() = true for plaintext")
			}

			dec, err := e.Unlock("pw")
			if err != nil {
				t.Fatalf("Unlock() error = %v", err)
			}
			var opened bytes.Buffer
			if err := dec.Decrypt(&sealed, &opened); err != nil {
				t.Fatalf("Decrypt() error = %v", err)
			}
			if !bytes.Equal(opened.Bytes(), tt.input) {
				t.Errorf("round-trip mismatch: got %d bytes, want %d", opened.Len(), len(tt.input))
			}
		})
	}
}

func TestTestDecryptionContext_RejectsForeignData(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		data []byte
	}{
		{name: "plaintext json", data: []byte(`{"datetime":"x"}`)},
		{name: "truncated header", data: []byte("FSD")},
		{name: "empty", data: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			var out bytes.Buffer
			if err := (&TestDecryptionContext{}).Decrypt(bytes.NewReader(tt.data), &out); err == nil {
				t.Error("Decrypt() expected error")
			}
		})
	}
}
