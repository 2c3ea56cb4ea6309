package app

import (
	"os"
	"path/filepath"
	"testing"
)

func TestGetDefaults(t *testing.T) {
	t.Run("uses env vars when set", func(t *testing.T) {
		t.Setenv("FSDRIFT_CONFIG_PATH", "/custom/config.toml")
		t.Setenv("FSDRIFT_HOME", "/custom/fsdrift")

		defaults, err := GetDefaults()
		if err != nil {
			t.Fatalf("GetDefaults() error = %v", err)
		}

		if defaults["config_path"] != "/custom/config.toml" {
			t.Errorf("config_path = %q, want %q", defaults["config_path"], "/custom/config.toml")
		}
		if defaults["base_dir"] != "/custom/fsdrift" {
			t.Errorf("base_dir = %q, want %q", defaults["base_dir"], "/custom/fsdrift")
		}
		if defaults["log_dir"] != "/custom/fsdrift/log" {
			t.Errorf("log_dir = %q, want %q", defaults["log_dir"], "/custom/fsdrift/log")
		}
	})

	t.Run("falls back to home dir defaults", func(t *testing.T) {
		t.Setenv("FSDRIFT_CONFIG_PATH", "")
		t.Setenv("FSDRIFT_HOME", "")

		defaults, err := GetDefaults()
		if err != nil {
			t.Fatalf("GetDefaults() error = %v", err)
		}

		homeDir, _ := os.UserHomeDir()

		if want := filepath.Join(homeDir, ".config", "fsdrift.toml"); defaults["config_path"] != want {
			t.Errorf("config_path = %q, want %q", defaults["config_path"], want)
		}
		wantBase := filepath.Join(homeDir, ".local", "share", "fsdrift")
		if defaults["base_dir"] != wantBase {
			t.Errorf("base_dir = %q, want %q", defaults["base_dir"], wantBase)
		}
		if want := filepath.Join(wantBase, "log"); defaults["log_dir"] != want {
			t.Errorf("log_dir = %q, want %q", defaults["log_dir"], want)
		}
	})
}
