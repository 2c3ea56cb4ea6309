// Package store persists the single snapshot slot.
//
// SnapshotStore owns the record codec (JSON, optionally age-encrypted) and
// delegates the bytes to a Backend: a local file, a sqlite row, an S3 object
// or memory.
package store

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"fsdrift/internal/drift"
)

// Backend stores one opaque blob.
type Backend interface {
	// Put replaces the stored blob with size bytes read from r.
	Put(r io.Reader, size int64) error

	// Get writes the stored blob to w. It returns false when nothing was ever stored.
	Get(w io.Writer) (bool, error)

	// Location describes where the blob lives, for messages.
	Location() string

	// ValidateSetup verifies that the backend is reachable and writable.
	ValidateSetup() error
}

// PassphraseFunc supplies the passphrase that unlocks the private key.
// It is called at most once per SnapshotStore, and only for encrypted records.
type PassphraseFunc func() (string, error)

// Option configures a SnapshotStore.
type Option func(*SnapshotStore)

// WithEncryption encrypts saved records with enc. Encrypted records are
// decrypted on load after unlocking the private key with passphrase.
func WithEncryption(enc drift.Encryptor, passphrase PassphraseFunc) Option {
	return func(s *SnapshotStore) {
		s.encryptor = enc
		s.passphrase = passphrase
	}
}

// SnapshotStore implements drift.SnapshotStore on top of a Backend.
type SnapshotStore struct {
	backend    Backend
	clock      drift.Clock
	logger     drift.Logger
	encryptor  drift.Encryptor
	passphrase PassphraseFunc
	decryptor  drift.DecryptionContext
}

// NewSnapshotStore creates a SnapshotStore writing to backend.
func NewSnapshotStore(backend Backend, clock drift.Clock, logger drift.Logger, opts ...Option) *SnapshotStore {
	s := &SnapshotStore{
		backend: backend,
		clock:   clock,
		logger:  logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Backend returns the underlying backend.
func (s *SnapshotStore) Backend() Backend { return s.backend }

// Save records tree with the current UTC time, replacing whatever was stored.
func (s *SnapshotStore) Save(sourceLabel, rawPayload string, tree *drift.Entry) (string, error) {
	record := &drift.SnapshotRecord{
		Datetime:    s.clock.Now().UTC(),
		SourceLabel: sourceLabel,
		RawPayload:  rawPayload,
		Tree:        tree,
	}

	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encoding snapshot: %w", err)
	}

	if s.encryptor != nil {
		var buf bytes.Buffer
		if err := s.encryptor.Encrypt(bytes.NewReader(data), &buf); err != nil {
			return "", fmt.Errorf("encrypting snapshot: %w", err)
		}
		data = buf.Bytes()
	}

	location := s.backend.Location()
	if err := s.backend.Put(bytes.NewReader(data), int64(len(data))); err != nil {
		return "", fmt.Errorf("%w: writing snapshot to %s: %w", drift.ErrIO, location, err)
	}

	s.logger.Debug("snapshot written", "location", location, "bytes", len(data), "encrypted", s.encryptor != nil)
	return location, nil
}

// Load returns the stored record, or (nil, nil) when nothing was ever saved.
func (s *SnapshotStore) Load() (*drift.SnapshotRecord, error) {
	var buf bytes.Buffer
	found, err := s.backend.Get(&buf)
	if err != nil {
		return nil, fmt.Errorf("%w: reading snapshot from %s: %w", drift.ErrIO, s.backend.Location(), err)
	}
	if !found {
		return nil, nil
	}

	data, err := s.decode(buf.Bytes())
	if err != nil {
		return nil, err
	}

	var record drift.SnapshotRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("%w: %w", drift.ErrParse, err)
	}
	if record.Tree == nil {
		return nil, fmt.Errorf("%w: record has no tree", drift.ErrParse)
	}
	return &record, nil
}

// Raw returns the stored record as plaintext JSON, or nil when nothing was saved.
func (s *SnapshotStore) Raw() ([]byte, error) {
	var buf bytes.Buffer
	found, err := s.backend.Get(&buf)
	if err != nil {
		return nil, fmt.Errorf("%w: reading snapshot from %s: %w", drift.ErrIO, s.backend.Location(), err)
	}
	if !found {
		return nil, nil
	}
	return s.decode(buf.Bytes())
}

// decode returns the plaintext of a stored blob, decrypting it when it carries an encryption header.
func (s *SnapshotStore) decode(data []byte) ([]byte, error) {
	if s.encryptor == nil || !s.encryptor.IsEncrypted(data) {
		if looksEncrypted(data) {
			return nil, fmt.Errorf("%w: snapshot is encrypted but encryption is not configured", drift.ErrParse)
		}
		return data, nil
	}

	if s.decryptor == nil {
		if s.passphrase == nil {
			return nil, fmt.Errorf("snapshot is encrypted and no passphrase source is configured")
		}
		passphrase, err := s.passphrase()
		if err != nil {
			return nil, fmt.Errorf("reading passphrase: %w", err)
		}
		dec, err := s.encryptor.Unlock(passphrase)
		if err != nil {
			return nil, fmt.Errorf("unlocking private key: %w", err)
		}
		s.decryptor = dec
	}

	var out bytes.Buffer
	if err := s.decryptor.Decrypt(bytes.NewReader(data), &out); err != nil {
		return nil, fmt.Errorf("%w: decrypting snapshot: %w", drift.ErrParse, err)
	}
	return out.Bytes(), nil
}

// looksEncrypted recognizes an age file when no encryptor is available to ask.
func looksEncrypted(data []byte) bool {
	return bytes.HasPrefix(data, []byte("age-encryption.org/"))
}

// Compile-time check that SnapshotStore implements drift.SnapshotStore.
var _ drift.SnapshotStore = (*SnapshotStore)(nil)
