package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
server:
  host: "127.0.0.1"
  port: 9000
content:
  root: "./content"
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Server.Host != "127.0.0.1" || cfg.Server.Port != 9000 {
		t.Errorf("unexpected server config: %+v", cfg.Server)
	}
	if cfg.Content.Root != filepath.Join(dir, "content") {
		t.Errorf("content root = %q", cfg.Content.Root)
	}
	if cfg.Debug {
		t.Error("debug should default to false when unset")
	}
	if cfg.Storage.DatabasePath != "" {
		t.Errorf("database_path should stay empty when unset, got %q", cfg.Storage.DatabasePath)
	}
}

func TestLoad_debugTrue(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("debug: true\n"), 0600); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if !cfg.Debug {
		t.Error("debug should be true when set in config")
	}
}

func TestLoad_expandPathDotSlashRelativeToConfigDir(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
storage:
  index_path: "./data/search-index.json"
  database_path: "./data/index.db"
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if want := filepath.Join(dir, "data", "search-index.json"); cfg.Storage.IndexPath != want {
		t.Errorf("index_path = %q, want %q", cfg.Storage.IndexPath, want)
	}
	if want := filepath.Join(dir, "data", "index.db"); cfg.Storage.DatabasePath != want {
		t.Errorf("database_path = %q, want %q", cfg.Storage.DatabasePath, want)
	}
}

func TestLoad_missingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing config")
	}
}

func TestLoad_invalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("server: [unclosed"), 0600); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("expected parse error")
	}
}

func TestApplyDefaults(t *testing.T) {
	var cfg Config
	ApplyDefaults(&cfg)
	if cfg.Search.DefaultLimit != 12 || cfg.Search.MaxLimit != 25 {
		t.Errorf("limits = %d/%d", cfg.Search.DefaultLimit, cfg.Search.MaxLimit)
	}
	if cfg.Search.SnippetLength != 200 {
		t.Errorf("snippet length = %d", cfg.Search.SnippetLength)
	}
	b := cfg.Search.Boosts
	if !(b.Title > b.Subtitle && b.Subtitle > b.Tags && b.Tags > b.Snippet) {
		t.Errorf("boost order violated: %+v", b)
	}
	w := cfg.Related.Weights
	if w.Program <= w.Tag || w.Vertical >= w.Tag {
		t.Errorf("related weights order violated: %+v", w)
	}
	if cfg.Content.Hubs["articles"] != "article" {
		t.Errorf("hubs = %v", cfg.Content.Hubs)
	}
	if len(cfg.Content.Extensions) == 0 {
		t.Error("extensions should default")
	}
}

func TestSearchConfig_FuzzinessAndPrefix(t *testing.T) {
	var s SearchConfig
	if s.FuzzinessOrDefault() != 1 {
		t.Errorf("default fuzziness = %d", s.FuzzinessOrDefault())
	}
	if !s.PrefixOrDefault() {
		t.Error("prefix should default to true")
	}
	five, zero, off := 5, 0, false
	s.Fuzziness = &five
	if s.FuzzinessOrDefault() != 2 {
		t.Errorf("fuzziness should clamp to 2, got %d", s.FuzzinessOrDefault())
	}
	s.Fuzziness = &zero
	if s.FuzzinessOrDefault() != 0 {
		t.Error("explicit zero fuzziness should be kept")
	}
	s.PrefixEnabled = &off
	if s.PrefixOrDefault() {
		t.Error("prefix explicitly disabled")
	}
}

func TestSave_roundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	cfg := &Config{Server: ServerConfig{Host: "0.0.0.0", Port: 7000}, Content: ContentConfig{Root: filepath.Join(dir, "c")}}
	if err := Save(path, cfg); err != nil {
		t.Fatal(err)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if got.Server.Port != 7000 || got.Content.Root != filepath.Join(dir, "c") {
		t.Errorf("round trip mismatch: %+v", got)
	}
}
