package config

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/udisondev/scale/internal/appdir"
)

func TestDefaultIsValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("default config should be valid: %v", err)
	}
}

func TestDefaultMatchesSequentialService(t *testing.T) {
	cfg := Default()
	if cfg.Server.Port != 33333 {
		t.Errorf("port: got %d, want 33333", cfg.Server.Port)
	}
	if cfg.Limits.MaxConnections != 1 {
		t.Errorf("max_connections: got %d, want 1", cfg.Limits.MaxConnections)
	}
	if cfg.Limits.AuthTimeout != 0 || cfg.Limits.IOTimeout != 0 {
		t.Error("timeouts should be disabled by default")
	}
	if cfg.Users.File != "/scale.conf" {
		t.Errorf("users.file: got %s", cfg.Users.File)
	}
	if cfg.Log.Journal != "/log/scale.log" {
		t.Errorf("log.journal: got %s", cfg.Log.Journal)
	}
}

func TestValidateCollectsErrors(t *testing.T) {
	cfg := Default()
	cfg.Server.Port = 0
	cfg.Users.File = ""
	cfg.Limits.MaxConnections = 0
	cfg.Limits.IOTimeout = -time.Second
	cfg.Events.Enabled = true
	cfg.Events.URLs = nil

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error")
	}
	for _, want := range []string{"invalid server port", "users.file", "max_connections", "io_timeout", "events.urls"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error should mention %q: %v", want, err)
		}
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := `
server:
  host: 127.0.0.1
  port: 4000
users:
  file: /etc/scale/users.conf
limits:
  max_connections: 8
  max_vector_size: 1048576
  auth_timeout: 5s
log:
  format: json
`
	if err := os.WriteFile(path, []byte(data), 0600); err != nil {
		t.Fatalf("write: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Addr() != "127.0.0.1:4000" {
		t.Errorf("addr: got %s", cfg.Server.Addr())
	}
	if cfg.Limits.MaxConnections != 8 || cfg.Limits.MaxVectorSize != 1<<20 {
		t.Errorf("limits: got %+v", cfg.Limits)
	}
	if cfg.Limits.AuthTimeout != 5*time.Second {
		t.Errorf("auth_timeout: got %v", cfg.Limits.AuthTimeout)
	}
	// значения, не указанные в файле, берутся из Default
	if cfg.Log.Journal != "/log/scale.log" {
		t.Errorf("journal: got %s", cfg.Log.Journal)
	}
}

func TestLoadInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("server:\n  port: 70000\n"), 0600); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Error("expected validation error")
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected read error")
	}
}

func TestEmbeddedDefaultMatchesDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, appdir.DefaultConfigYAML(), 0600); err != nil {
		t.Fatalf("write: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !reflect.DeepEqual(cfg, Default()) {
		t.Errorf("embedded config differs from Default:\n got %+v\nwant %+v", cfg, Default())
	}
}
