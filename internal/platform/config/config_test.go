package config

import (
	"errors"
	"flag"
	"io"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/MRamiBalles/GridSnake/internal/domain/grid"
	"github.com/MRamiBalles/GridSnake/internal/engine"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "snake.ini")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDefaultConfigMatchesEngineDefaults(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Rules() != engine.DefaultRules() {
		t.Errorf("Expected default rules %+v, got %+v", engine.DefaultRules(), cfg.Rules())
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Expected defaults to validate, got %v", err)
	}
}

func TestLoadFile(t *testing.T) {
	path := writeFile(t, `
[server]
addr = :9090
db_path = /tmp/hs.db

[game]
grid_size = 30
initial_interval = 200ms
border = wrap

[network]
max_messages_per_second = 5
allowed_origins = http://a.example, http://b.example
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Addr != ":9090" || cfg.DBPath != "/tmp/hs.db" {
		t.Errorf("Unexpected server section: %+v", cfg)
	}
	if cfg.GridSize != 30 || cfg.InitialInterval != 200*time.Millisecond || cfg.Border != grid.Wrap {
		t.Errorf("Unexpected game section: %+v", cfg)
	}
	if cfg.MinInterval != engine.DefaultMinInterval {
		t.Errorf("Expected unset keys to keep defaults, got min interval %s", cfg.MinInterval)
	}
	if cfg.MaxMessagesPerSecond != 5 || len(cfg.AllowedOrigins) != 2 || cfg.AllowedOrigins[1] != "http://b.example" {
		t.Errorf("Unexpected network section: %+v", cfg)
	}
}

func TestLoadMissingFile(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.ini"))
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("Expected a not-exist error, got %v", err)
	}
	if cfg.Addr != DefaultConfig().Addr {
		t.Error("Expected defaults alongside the error")
	}
}

func TestLoadBadBorder(t *testing.T) {
	path := writeFile(t, "[game]\nborder = spiral\n")
	if _, err := Load(path); err == nil {
		t.Error("Expected an unknown border to fail")
	}
}

func TestLoadMalformedValues(t *testing.T) {
	for _, tc := range []struct {
		name, content, want string
	}{
		{"grid size", "[game]\ngrid_size = abc\n", "game.grid_size"},
		{"interval", "[game]\nmin_interval = fast\n", "game.min_interval"},
		{"rate", "[network]\nmax_messages_per_second = 1.5\n", "network.max_messages_per_second"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Load(writeFile(t, tc.content))
			if err == nil {
				t.Fatal("Expected a malformed value to fail")
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Errorf("Expected the error to name %s, got %v", tc.want, err)
			}
		})
	}
}

func TestValidate(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Addr = ""
	cfg.GridSize = 1
	cfg.MaxMessagesPerSecond = -1
	if err := cfg.Validate(); err == nil {
		t.Error("Expected validation errors")
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.ini")
	cfg := DefaultConfig()
	cfg.Border = grid.Wrap
	cfg.IntervalStep = 10 * time.Millisecond
	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded.Rules() != cfg.Rules() || loaded.Addr != cfg.Addr {
		t.Errorf("Expected %+v, got %+v", cfg, loaded)
	}
}

func TestFlagsOverrideFile(t *testing.T) {
	path := writeFile(t, "[server]\naddr = :9090\n[game]\ngrid_size = 30\n")
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	cfg, err := LoadWithFlags(fs, []string{"-config", path, "-grid", "12", "-border", "wrap"})
	if err != nil {
		t.Fatalf("LoadWithFlags failed: %v", err)
	}
	if cfg.GridSize != 12 || cfg.Border != grid.Wrap {
		t.Errorf("Expected flags to win, got grid %d border %s", cfg.GridSize, cfg.Border)
	}
	if cfg.Addr != ":9090" {
		t.Errorf("Expected the file addr when no flag is given, got %s", cfg.Addr)
	}
}

func TestLoadWithFlagsMissingFiles(t *testing.T) {
	dir := t.TempDir()
	wd, _ := os.Getwd()
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	defer os.Chdir(wd)

	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	if _, err := LoadWithFlags(fs, nil); err != nil {
		t.Errorf("Expected a missing default file to be ignored, got %v", err)
	}

	fs = flag.NewFlagSet("test", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	if _, err := LoadWithFlags(fs, []string{"-config", "other.ini"}); err == nil {
		t.Error("Expected a missing explicit file to fail")
	}
}

func TestCheckOrigin(t *testing.T) {
	cfg := DefaultConfig()
	req := httptest.NewRequest("GET", "http://game.local/ws", nil)
	req.Header.Set("Origin", "http://evil.example")
	if !cfg.CheckOrigin(req) {
		t.Error("Expected any origin without an allow list")
	}

	cfg.AllowedOrigins = []string{"http://a.example"}
	if cfg.CheckOrigin(req) {
		t.Error("Expected a foreign origin to be refused")
	}
	req.Header.Set("Origin", "http://a.example")
	if !cfg.CheckOrigin(req) {
		t.Error("Expected a listed origin to pass")
	}
	req.Header.Set("Origin", "http://game.local")
	if !cfg.CheckOrigin(req) {
		t.Error("Expected the same host to pass")
	}
}
