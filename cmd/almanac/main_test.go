package main

import (
	"context"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/hyperjump/almanac/internal/config"
	"github.com/hyperjump/almanac/internal/models"
	"go.uber.org/zap"
)

func TestArgsReorder(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		expected []string
	}{
		{
			name:     "flags after query are moved first",
			args:     []string{"golden visa", "-limit", "5"},
			expected: []string{"-limit", "5", "golden visa"},
		},
		{
			name:     "flags first returns unchanged",
			args:     []string{"-limit", "5", "golden visa"},
			expected: []string{"-limit", "5", "golden visa"},
		},
		{
			name:     "query only returns unchanged",
			args:     []string{"golden visa"},
			expected: []string{"golden visa"},
		},
		{
			name:     "empty args returns unchanged",
			args:     []string{},
			expected: []string{},
		},
		{
			name:     "id and keys then flags",
			args:     []string{"residency/portugal/golden-visa", "costs", "--output", "json"},
			expected: []string{"--output", "json", "residency/portugal/golden-visa", "costs"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := argsReorder(tt.args)
			if !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("argsReorder() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestBuildSearchQuery(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		expected string
	}{
		{"single word", []string{"portugal"}, "portugal"},
		{"multiple words", []string{"golden", "visa"}, "golden visa"},
		{"single quoted phrase", []string{"golden visa"}, "golden visa"},
		{"empty args", []string{}, ""},
		{"blank args", []string{"  ", "  "}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := buildSearchQuery(tt.args)
			if got != tt.expected {
				t.Errorf("buildSearchQuery(%v) = %q, want %q", tt.args, got, tt.expected)
			}
		})
	}
}

func TestSplitList(t *testing.T) {
	got := splitList(" program, ,country ,")
	if !reflect.DeepEqual(got, []string{"program", "country"}) {
		t.Errorf("splitList() = %v", got)
	}
	if got := splitList(""); got != nil {
		t.Errorf("splitList(\"\") = %v, want nil", got)
	}
}

func TestEscapeID(t *testing.T) {
	if got := escapeID("/residency/são-tomé/golden visa/"); got != "residency/s%C3%A3o-tom%C3%A9/golden%20visa" {
		t.Errorf("escapeID() = %q", got)
	}
}

func TestApplyOverrides(t *testing.T) {
	cfg := &config.Config{}
	cfg.Content.Root = "/content"
	cfg.Storage.IndexPath = "/index.json"

	applyOverrides(cfg, "", "", false)
	if cfg.Content.Root != "/content" || cfg.Storage.IndexPath != "/index.json" || cfg.Debug {
		t.Errorf("empty overrides changed config: %+v", cfg)
	}

	applyOverrides(cfg, "/other", "/tmp/idx.json", true)
	if cfg.Content.Root != "/other" || cfg.Storage.IndexPath != "/tmp/idx.json" || !cfg.Debug {
		t.Errorf("overrides not applied: %+v", cfg)
	}
}

func TestLoadConfig_prefersCwdConfigWhenDefaultPath(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yaml")
	content := `
debug: true
server:
  host: "localhost"
  port: 8080
content:
  root: "./content"
`
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	origWd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = os.Chdir(origWd) }()
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}

	cfg, resolved, err := loadConfig(defaultConfigPath)
	if err != nil {
		t.Fatal(err)
	}
	// On macOS, cwd can be /private/var/... while configPath from t.TempDir() is /var/...; compare canonical paths.
	resolvedCanon, _ := filepath.EvalSymlinks(resolved)
	configPathCanon, _ := filepath.EvalSymlinks(configPath)
	if resolvedCanon != configPathCanon {
		t.Errorf("resolved path = %s (canon %s), want %s (canon %s)", resolved, resolvedCanon, configPath, configPathCanon)
	}
	if !cfg.Debug {
		t.Error("debug should be true from cwd config.yaml")
	}
}

func TestLoadConfig_usesExplicitPath(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yaml")
	content := `
server:
  host: "127.0.0.1"
  port: 9000
storage:
  index_path: "./search-index.json"
`
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, resolved, err := loadConfig(configPath)
	if err != nil {
		t.Fatal(err)
	}
	if resolved != configPath {
		t.Errorf("resolved path = %s, want %s", resolved, configPath)
	}
	if cfg.Server.Host != "127.0.0.1" || cfg.Server.Port != 9000 {
		t.Errorf("unexpected server config: %+v", cfg.Server)
	}
	if want := filepath.Join(dir, "search-index.json"); cfg.Storage.IndexPath != want {
		t.Errorf("index path = %s, want %s", cfg.Storage.IndexPath, want)
	}
}

func TestInitializeComponents_buildThenSearch(t *testing.T) {
	dir := t.TempDir()
	root := filepath.Join(dir, "content")
	program := filepath.Join(root, "residency", "portugal", "golden-visa.mdx")
	if err := os.MkdirAll(filepath.Dir(program), 0755); err != nil {
		t.Fatal(err)
	}
	doc := "---\ntitle: Portugal Golden Visa\ntags: [golden visa]\n---\n### Eligibility\nInvest in funds.\n"
	if err := os.WriteFile(program, []byte(doc), 0600); err != nil {
		t.Fatal(err)
	}

	cfg := &config.Config{}
	config.ApplyDefaults(cfg)
	cfg.Content.Root = root
	cfg.Storage.IndexPath = filepath.Join(dir, "data", "search-index.json")
	cfg.Storage.DatabasePath = filepath.Join(dir, "data", "mirror.db")

	components, err := initializeComponents(cfg, zap.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	defer components.Close()
	if components.Mirror == nil {
		t.Fatal("mirror should be opened when database_path is set")
	}

	ctx := context.Background()
	art, err := components.Builder.BuildAndWrite(ctx, cfg.Storage.IndexPath, time.Now().UTC())
	if err != nil {
		t.Fatal(err)
	}
	if art.Count != 1 {
		t.Fatalf("artifact count = %d, want 1", art.Count)
	}
	n, err := components.Mirror.CountEntries(ctx, "")
	if err != nil || n != 1 {
		t.Fatalf("mirror entries = %d (%v), want 1", n, err)
	}

	resp, err := components.Engine.Search(ctx, &models.SearchQuery{Query: "golden visa"})
	if err != nil {
		t.Fatal(err)
	}
	if len(resp.Items) != 1 || resp.Items[0].ID != "residency/portugal/golden-visa" {
		t.Errorf("unexpected search results: %+v", resp.Items)
	}
}

func TestOpenMirror_disabledWithoutPath(t *testing.T) {
	mirror, err := openMirror(&config.Config{})
	if err != nil || mirror != nil {
		t.Errorf("openMirror() = %v, %v; want nil, nil", mirror, err)
	}
}
