package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"fsdrift/internal/config"
	"fsdrift/internal/drift"
	"fsdrift/internal/encryption"
	"fsdrift/internal/extract"
	"fsdrift/internal/fs"
	"fsdrift/internal/store"
	"fsdrift/internal/summarize"
	"fsdrift/internal/transport"
)

// Options controls how NewApp sets up an invocation.
type Options struct {
	// Operation names the CLI command being run (e.g. "snapshot", "drift").
	Operation  string
	Parameters string
	// Passphrase unlocks the private key when an encrypted snapshot must be read.
	Passphrase store.PassphraseFunc
	// Verbose sends debug records to stderr as well as the log file.
	Verbose bool
}

// App is the application layer between the CLI and drift.Service.
// It constructs all dependencies from config, exposes high-level operations
// that accept raw string paths, and releases resources on Close.
type App struct {
	cfg       *config.Config
	service   *drift.Service
	store     *store.SnapshotStore
	backend   store.Backend
	transport drift.Transport
	clock     drift.Clock
	op        *Operation
	logger    drift.Logger
	logFile   *os.File
}

// NewApp creates a fully wired App from the given config.
// The caller must call Close when done.
func NewApp(cfg *config.Config, opts Options) (*App, error) {
	clock := drift.RealClock{}
	op := NewOperation(opts.Operation, opts.Parameters, drift.UUIDGenerator{}, clock)

	stderrLevel := slog.LevelWarn
	if opts.Verbose {
		stderrLevel = slog.LevelDebug
	}
	sl, logFile, err := newLogger(cfg.LogDir, op.ID, stderrLevel)
	if err != nil {
		return nil, fmt.Errorf("creating logger: %w", err)
	}
	logger := &slogAdapter{l: sl}

	a := &App{cfg: cfg, clock: clock, op: op, logger: logger, logFile: logFile}
	if err := a.wire(opts); err != nil {
		a.closeResources()
		return nil, err
	}

	logger.Debug("operation started", "operation", op.Name, "parameters", op.Parameters)
	return a, nil
}

func (a *App) wire(opts Options) error {
	cfg := a.cfg

	tr, err := transport.NewTransportFromConfig(cfg.Transport, a.logger)
	if err != nil {
		return fmt.Errorf("creating transport: %w", err)
	}
	a.transport = tr

	backend, err := store.NewBackendFromConfig(cfg.Store, cfg.HostID, cfg.BaseDir, a.clock)
	if err != nil {
		return fmt.Errorf("creating snapshot store: %w", err)
	}
	a.backend = backend

	enc, err := encryption.NewEncryptorFromConfig(cfg.Encryption)
	if err != nil {
		return fmt.Errorf("creating encryptor: %w", err)
	}
	var storeOpts []store.Option
	if enc != nil {
		storeOpts = append(storeOpts, store.WithEncryption(enc, opts.Passphrase))
	}
	a.store = store.NewSnapshotStore(backend, a.clock, a.logger, storeOpts...)

	timeout, err := cfg.Summarizer.TimeoutDuration()
	if err != nil {
		return err
	}
	apiKey, err := LoadAPIKey(cfg)
	if err != nil {
		// Only document summaries need the key; they report ErrMissingCredential.
		a.logger.Debug("API key unavailable", "error", err)
	}
	summarizer := summarize.NewClient(apiKey, summarize.Options{
		Endpoint:  cfg.Summarizer.Endpoint,
		Model:     cfg.Summarizer.Model,
		MaxTokens: cfg.Summarizer.MaxTokens,
		Timeout:   timeout,
		Prompt:    cfg.Summarizer.Prompt,
	}, a.logger)

	dispatcher := drift.NewPDFDispatcher(tr, extract.NewPDFExtractor(a.logger), summarizer, a.logger, cfg.Transport.RemoteTemp, "")
	a.service = drift.NewService(a.treeSource(), a.store, tr, dispatcher, a.logger, cfg.SourceLabel)
	return nil
}

// treeSource walks the local disk, or runs the capture helper through the
// transport when the inventoried host is remote.
func (a *App) treeSource() drift.TreeSource {
	if a.remote() {
		return transport.NewRemoteTreeSource(a.transport, a.cfg.Transport.RemoteBinary, a.cfg.Filesystem.Ignore, a.logger)
	}
	return fs.NewOSTreeBuilder(a.logger, a.cfg.Filesystem.Ignore)
}

func (a *App) remote() bool {
	return a.cfg.Transport.Type == "command"
}

// ResolveRoot turns a user-supplied path into the root to capture.
// An empty path selects the configured root, then the home directory.
// Remote roots are passed through untouched; the helper resolves them on its host.
func (a *App) ResolveRoot(rawPath string) (string, error) {
	if rawPath == "" {
		rawPath = a.cfg.Root
	}
	if a.remote() {
		return rawPath, nil
	}
	return resolveLocal(rawPath)
}

func resolveLocal(rawPath string) (string, error) {
	if rawPath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("cannot determine home directory: %w", err)
		}
		return home, nil
	}
	abs, err := filepath.Abs(rawPath)
	if err != nil {
		return "", fmt.Errorf("resolving path: %w", err)
	}
	return abs, nil
}

// Snapshot captures the tree and replaces the stored snapshot with it.
func (a *App) Snapshot(ctx context.Context, rawPath string) (*drift.SnapshotResult, error) {
	root, err := a.ResolveRoot(rawPath)
	if err != nil {
		return nil, err
	}
	return a.service.Snapshot(ctx, root)
}

// LastSnapshot returns the stored snapshot, or an error wrapping drift.ErrNoSnapshot.
func (a *App) LastSnapshot() (*drift.SnapshotRecord, error) {
	return a.service.LastSnapshot()
}

// RawSnapshot returns the stored record as plaintext JSON.
func (a *App) RawSnapshot() ([]byte, error) {
	data, err := a.store.Raw()
	if err != nil {
		return nil, err
	}
	if data == nil {
		return nil, drift.ErrNoSnapshot
	}
	return data, nil
}

// Drift compares a fresh capture against the stored snapshot.
func (a *App) Drift(ctx context.Context, rawPath string, update bool) (*drift.DriftResult, error) {
	root, err := a.ResolveRoot(rawPath)
	if err != nil {
		return nil, err
	}
	return a.service.CheckDrift(ctx, root, update)
}

// ListPDFs lists the documents recorded in the stored snapshot.
func (a *App) ListPDFs() ([]string, error) {
	return a.service.ListPDFs()
}

// SummarizePDF summarizes one document of the stored snapshot, selected by
// path or by its number in ListPDFs.
func (a *App) SummarizePDF(ctx context.Context, selector string) (*drift.Summary, error) {
	return a.service.SummarizePDF(ctx, selector)
}

// Devices lists the block devices of the inventoried host.
func (a *App) Devices(ctx context.Context) (*drift.BlockDevices, error) {
	return a.service.Devices(ctx)
}

// Deploy installs the running executable on the remote host as the capture
// helper and returns the path it was installed to.
func (a *App) Deploy(ctx context.Context) (string, error) {
	if !a.remote() {
		return "", fmt.Errorf("deploy requires transport type \"command\", got %q", a.cfg.Transport.Type)
	}
	exe, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("locating executable: %w", err)
	}
	dest := a.cfg.Transport.RemoteBinary
	if err := transport.Deploy(ctx, a.transport, exe, dest); err != nil {
		return "", err
	}
	a.logger.Info("capture helper deployed", "source", exe, "destination", dest)
	return dest, nil
}

// StoreStatus describes the snapshot slot for `store check`.
type StoreStatus struct {
	Location  string
	Encrypted bool
	Snapshot  *drift.SnapshotRecord // nil when the slot is empty
}

// CheckStore verifies that the snapshot slot is reachable and writable and
// reports whether it holds a readable snapshot.
func (a *App) CheckStore() (*StoreStatus, error) {
	status := &StoreStatus{
		Location:  a.backend.Location(),
		Encrypted: a.cfg.Encryption.Enabled,
	}
	if err := a.backend.ValidateSetup(); err != nil {
		return status, fmt.Errorf("validating %s: %w", status.Location, err)
	}
	record, err := a.store.Load()
	if err != nil {
		return status, err
	}
	status.Snapshot = record
	return status, nil
}

// Fail marks the operation as failed so Close logs it accordingly.
func (a *App) Fail(err error) {
	a.op.Fail()
	a.logger.Error("operation failed", "operation", a.op.Name, "error", err)
}

// Close logs the outcome of the operation and releases the store and log file.
func (a *App) Close() error {
	a.logger.Debug("operation finished",
		"operation", a.op.Name,
		"status", a.op.Status,
		"duration", a.clock.Now().Sub(a.op.Started))
	return a.closeResources()
}

func (a *App) closeResources() error {
	var errs []error
	if closer, ok := a.backend.(io.Closer); ok {
		if err := closer.Close(); err != nil {
			errs = append(errs, fmt.Errorf("closing snapshot store: %w", err))
		}
	}
	if a.logFile != nil {
		if err := a.logFile.Close(); err != nil {
			errs = append(errs, fmt.Errorf("closing log file: %w", err))
		}
		a.logFile = nil
	}
	return errors.Join(errs...)
}

// CaptureLocalTree walks rawPath (the home directory when empty) on this host.
// It backs the `tree` command that the remote capture runs, so it needs no config.
func CaptureLocalTree(ctx context.Context, rawPath string, ignorePatterns []string) (*drift.Entry, error) {
	root, err := resolveLocal(rawPath)
	if err != nil {
		return nil, err
	}
	return fs.NewOSTreeBuilder(drift.NewNopLogger(), ignorePatterns).Build(ctx, root)
}

// SetupEncryption creates the key pair for cfg.Encryption, protected by
// passphrase, and enables encryption in the config file at configPath.
func SetupEncryption(configPath string, cfg *config.Config, passphrase string) error {
	enc, err := encryption.NewEncryptor(cfg.Encryption)
	if err != nil {
		return err
	}
	if err := enc.Setup(passphrase); err != nil {
		return fmt.Errorf("setting up encryption keys: %w", err)
	}
	cfg.Encryption.Enabled = true
	return config.Update(configPath, cfg)
}
