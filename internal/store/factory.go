package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"fsdrift/internal/config"
	"fsdrift/internal/drift"
)

// Environment variables holding static S3 credentials. When unset the default
// AWS credential chain applies.
const (
	EnvS3AccessKeyID     = "FSDRIFT_S3_ACCESS_KEY_ID"
	EnvS3SecretAccessKey = "FSDRIFT_S3_SECRET_ACCESS_KEY"
)

// NewBackendFromConfig creates a Backend based on the store config type.
func NewBackendFromConfig(cfg config.StoreConfig, hostID, baseDir string, clock drift.Clock) (Backend, error) {
	switch cfg.Type {
	case "", "file":
		path := cfg.Path
		if path == "" {
			if baseDir == "" {
				return nil, fmt.Errorf("file store requires path or base_dir to be set")
			}
			path = filepath.Join(baseDir, "mapping.json")
		}
		return NewFileBackend(path), nil
	case "sqlite":
		if cfg.DataDir == "" {
			return nil, fmt.Errorf("sqlite store requires data_dir to be set")
		}
		if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
			return nil, fmt.Errorf("creating sqlite data dir: %w", err)
		}
		return NewSQLiteBackend(filepath.Join(cfg.DataDir, hostID+".db"), clock)
	case "s3":
		return NewS3Backend(context.Background(), S3Options{
			Bucket:          cfg.S3Bucket,
			Prefix:          cfg.S3Prefix,
			Region:          cfg.S3Region,
			Endpoint:        cfg.S3Endpoint,
			AccessKeyID:     os.Getenv(EnvS3AccessKeyID),
			SecretAccessKey: os.Getenv(EnvS3SecretAccessKey),
		}, hostID)
	case "memory":
		return NewMemoryBackend(), nil
	default:
		return nil, fmt.Errorf("unknown store type: %s", cfg.Type)
	}
}
