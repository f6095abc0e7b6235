package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "bridge.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, "system:\n  log_level: debug\n")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Shm.Backend != "sysv" {
		t.Fatalf("Backend = %q, want sysv", cfg.Shm.Backend)
	}
	if cfg.Shm.RequestKey != 0x0F20 {
		t.Fatalf("RequestKey = 0x%x, want 0x0F20", cfg.Shm.RequestKey)
	}
	if cfg.Shm.MarketDataCapacity != 65536 {
		t.Fatalf("MarketDataCapacity = %d, want 65536", cfg.Shm.MarketDataCapacity)
	}
	if cfg.System.HTTPPort != 8080 {
		t.Fatalf("HTTPPort = %d, want 8080", cfg.System.HTTPPort)
	}
}

func TestLoadMmapRequiresDir(t *testing.T) {
	path := writeConfig(t, "shm:\n  backend: mmap\n")
	if _, err := Load(path); err == nil {
		t.Fatalf("expected error for mmap backend without mmap_dir")
	}
}

func TestLoadRoutingTable(t *testing.T) {
	path := writeConfig(t, "routing:\n  symbol_broker:\n    ag2506: simulator\n    IF2509: ctp\n")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Routing.SymbolBroker["ag2506"] != "simulator" {
		t.Fatalf("routing table missing ag2506 entry: %+v", cfg.Routing.SymbolBroker)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}
