package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
)

const (
	DefaultEndpoint  = "https://api.openai.com/v1/chat/completions"
	DefaultModel     = "gpt-4o-mini"
	DefaultMaxTokens = 200
	DefaultTimeout   = 60 * time.Second
	DefaultAPIKeyEnv = "API_KEY"
	DefaultPrompt    = "Summarize the following text, keeping its main points: "

	// DefaultRemoteBinary is relative to the login directory of the remote account.
	DefaultRemoteBinary = "./fsdrift"
)

// Config represents the main configuration for fsdrift.
type Config struct {
	HostID      string           `toml:"host_id"`
	BaseDir     string           `toml:"base_dir"`
	LogDir      string           `toml:"log_dir"`
	SourceLabel string           `toml:"source_label,omitempty"` // defaults to "~"
	Root        string           `toml:"root,omitempty"`         // defaults to the home directory
	Store       StoreConfig      `toml:"store"`
	Encryption  EncryptionConfig `toml:"encryption"`
	Filesystem  FilesystemConfig `toml:"filesystem"`
	Transport   TransportConfig  `toml:"transport"`
	Summarizer  SummarizerConfig `toml:"summarizer"`
}

// StoreConfig selects where the snapshot slot lives.
// This uses a tagged union pattern - the Type field determines which other fields are relevant.
type StoreConfig struct {
	Type string `toml:"type"` // "file" (default), "sqlite", "s3" or "memory"

	// File-specific fields (only used when Type == "file")
	Path string `toml:"path,omitempty"` // defaults to <base_dir>/mapping.json

	// SQLite-specific fields (only used when Type == "sqlite")
	DataDir string `toml:"data_dir,omitempty"`

	// S3-specific fields (only used when Type == "s3")
	S3Bucket   string `toml:"s3_bucket,omitempty"`
	S3Prefix   string `toml:"s3_prefix,omitempty"`
	S3Region   string `toml:"s3_region,omitempty"`
	S3Endpoint string `toml:"s3_endpoint,omitempty"` // for S3-compatible services
}

// EncryptionConfig holds paths to the age key pair used to encrypt snapshots at rest.
type EncryptionConfig struct {
	Enabled        bool   `toml:"enabled"`
	Type           string `toml:"type"` // "age" (default) or "test"
	PublicKeyPath  string `toml:"public_key_path"`
	PrivateKeyPath string `toml:"private_key_path"`
}

// FilesystemConfig holds filesystem-related settings.
type FilesystemConfig struct {
	Ignore []string `toml:"ignore"`
}

// TransportConfig selects how the inventoried host is reached.
type TransportConfig struct {
	Type         string `toml:"type"`                    // "local" (default) or "command"
	Command      string `toml:"command,omitempty"`       // e.g. "ssh user@host", only for type=command
	RemoteBinary string `toml:"remote_binary,omitempty"` // capture helper path on the remote host
	RemoteTemp   string `toml:"remote_temp,omitempty"`   // parking name for documents being fetched
}

// SummarizerConfig configures the chat-completions client used for document summaries.
type SummarizerConfig struct {
	Endpoint  string `toml:"endpoint"`
	Model     string `toml:"model"`
	MaxTokens int    `toml:"max_tokens"`
	Timeout   string `toml:"timeout"`     // Go duration string, e.g. "60s"
	APIKeyEnv string `toml:"api_key_env"` // environment variable holding the API key
	Prompt    string `toml:"prompt"`
}

// TimeoutDuration parses Timeout, falling back to DefaultTimeout when it is empty.
func (s SummarizerConfig) TimeoutDuration() (time.Duration, error) {
	if s.Timeout == "" {
		return DefaultTimeout, nil
	}
	d, err := time.ParseDuration(s.Timeout)
	if err != nil {
		return 0, fmt.Errorf("invalid summarizer timeout %q: %w", s.Timeout, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("summarizer timeout must be positive, got %s", s.Timeout)
	}
	return d, nil
}

// NewConfig creates a new Config with the provided values and default settings.
func NewConfig(hostID, baseDir string) *Config {
	return &Config{
		HostID:  hostID,
		BaseDir: baseDir,
		LogDir:  filepath.Join(baseDir, "log"),
		Store: StoreConfig{
			Type: "file",
			Path: filepath.Join(baseDir, "mapping.json"),
		},
		Encryption: EncryptionConfig{
			Type:           "age",
			PublicKeyPath:  filepath.Join(baseDir, "keys", "fsdrift.pub"),
			PrivateKeyPath: filepath.Join(baseDir, "keys", "fsdrift.key"),
		},
		Transport: TransportConfig{
			Type: "local",
		},
		Summarizer: SummarizerConfig{
			Endpoint:  DefaultEndpoint,
			Model:     DefaultModel,
			MaxTokens: DefaultMaxTokens,
			Timeout:   DefaultTimeout.String(),
			APIKeyEnv: DefaultAPIKeyEnv,
			Prompt:    DefaultPrompt,
		},
	}
}

// applyDefaults fills settings that older or hand-written config files leave empty.
func (c *Config) applyDefaults() {
	if c.Store.Type == "" {
		c.Store.Type = "file"
	}
	if c.Store.Type == "file" && c.Store.Path == "" && c.BaseDir != "" {
		c.Store.Path = filepath.Join(c.BaseDir, "mapping.json")
	}
	if c.Transport.Type == "" {
		c.Transport.Type = "local"
	}
	if c.Transport.Type == "command" && c.Transport.RemoteBinary == "" {
		c.Transport.RemoteBinary = DefaultRemoteBinary
	}
	if c.Summarizer.Endpoint == "" {
		c.Summarizer.Endpoint = DefaultEndpoint
	}
	if c.Summarizer.Model == "" {
		c.Summarizer.Model = DefaultModel
	}
	if c.Summarizer.MaxTokens <= 0 {
		c.Summarizer.MaxTokens = DefaultMaxTokens
	}
	if c.Summarizer.APIKeyEnv == "" {
		c.Summarizer.APIKeyEnv = DefaultAPIKeyEnv
	}
	if c.Summarizer.Prompt == "" {
		c.Summarizer.Prompt = DefaultPrompt
	}
}

// Manager handles reading and writing configuration.
type Manager struct{}

// Read decodes a Config from the provided reader and fills in defaults.
func (m *Manager) Read(r io.Reader) (*Config, error) {
	var cfg Config
	if _, err := toml.NewDecoder(r).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	cfg.applyDefaults()
	return &cfg, nil
}

// Write encodes a Config to the provided writer.
func (m *Manager) Write(w io.Writer, cfg *Config) error {
	if err := toml.NewEncoder(w).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return nil
}

// ReadFromFile reads a Config from the specified file path.
func ReadFromFile(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	m := &Manager{}
	cfg, err := m.Read(f)
	if err != nil {
		return nil, fmt.Errorf("reading config from %s: %w", path, err)
	}
	return cfg, nil
}

// writeToFile writes a Config to the specified file path.
func writeToFile(path string, cfg *Config) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer f.Close()

	m := &Manager{}
	if err := m.Write(f, cfg); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}
	return nil
}

// Init initializes a new config file at the specified path with the provided Config.
func Init(path string, cfg *Config) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := writeToFile(path, cfg); err != nil {
		return fmt.Errorf("initializing config: %w", err)
	}
	return nil
}

// Update rewrites an existing config file, e.g. after `config keys` enables encryption.
func Update(path string, cfg *Config) error {
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("config file not found at %s: %w", path, err)
	}
	if err := writeToFile(path, cfg); err != nil {
		return fmt.Errorf("updating config: %w", err)
	}
	return nil
}
