// Package config provides configuration loading and structs for the Almanac server and tools.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application.
type Config struct {
	Debug   bool          `yaml:"debug"`
	Server  ServerConfig  `yaml:"server"`
	Content ContentConfig `yaml:"content"`
	Storage StorageConfig `yaml:"storage"`
	Cache   CacheConfig   `yaml:"cache"`
	Search  SearchConfig  `yaml:"search"`
	Related RelatedConfig `yaml:"related"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// ContentConfig describes the content tree.
type ContentConfig struct {
	Root string `yaml:"root"`
	// Verticals lists top-level program directories. Empty means every top-level
	// directory that is not a hub kind.
	Verticals []string `yaml:"verticals"`
	// Hubs maps a top-level hub directory to the entry type its documents get.
	Hubs          map[string]string `yaml:"hubs"`
	Extensions    []string          `yaml:"extensions"`
	IncludeDrafts bool              `yaml:"include_drafts"`
	Parallelism   int               `yaml:"parallelism"`
}

// StorageConfig holds artifact and database paths.
type StorageConfig struct {
	// IndexPath is the JSON search index artifact.
	IndexPath string `yaml:"index_path"`
	// DatabasePath is an optional SQLite mirror of the artifact. Empty disables it.
	DatabasePath string `yaml:"database_path"`
}

// CacheConfig holds content snapshot cache settings.
type CacheConfig struct {
	MaxSubtrees int `yaml:"max_subtrees"`
}

// FieldBoosts holds per-field boost weights for keyword search.
type FieldBoosts struct {
	Title    float64 `yaml:"title"`
	Subtitle float64 `yaml:"subtitle"`
	Tags     float64 `yaml:"tags"`
	Snippet  float64 `yaml:"snippet"`
}

// SearchConfig holds query and index build settings.
type SearchConfig struct {
	DefaultLimit   int         `yaml:"default_limit"`
	MaxLimit       int         `yaml:"max_limit"`
	CandidateLimit int         `yaml:"candidate_limit"`
	SnippetLength  int         `yaml:"snippet_length"`
	Fuzziness      *int        `yaml:"fuzziness"`
	PrefixEnabled  *bool       `yaml:"prefix_enabled"`
	MaxVariants    int         `yaml:"max_variants"`
	SpellCorrect   *bool       `yaml:"spell_correct"`
	Boosts         FieldBoosts `yaml:"boosts"`
	// Synonyms adds to the built-in expansion table.
	Synonyms map[string][]string `yaml:"synonyms"`
}

// FuzzinessOrDefault returns the configured edit distance clamped to [0, 2]; 1 when unset.
func (s *SearchConfig) FuzzinessOrDefault() int {
	if s.Fuzziness == nil {
		return 1
	}
	f := *s.Fuzziness
	if f < 0 {
		return 0
	}
	if f > 2 {
		return 2
	}
	return f
}

// PrefixOrDefault returns whether prefix matching is on; defaults to true when unset.
func (s *SearchConfig) PrefixOrDefault() bool {
	if s.PrefixEnabled != nil {
		return *s.PrefixEnabled
	}
	return true
}

// SpellCorrectOrDefault returns whether a respelled query is tried when no variant
// matches; defaults to true when unset.
func (s *SearchConfig) SpellCorrectOrDefault() bool {
	if s.SpellCorrect != nil {
		return *s.SpellCorrect
	}
	return true
}

// RelatedWeights holds related-item scoring weights.
type RelatedWeights struct {
	Tag      float64 `yaml:"tag"`
	Vertical float64 `yaml:"vertical"`
	Country  float64 `yaml:"country"`
	Program  float64 `yaml:"program"`
	Keyword  float64 `yaml:"keyword"`
}

// RelatedConfig holds related-item scorer settings.
type RelatedConfig struct {
	DefaultCount int            `yaml:"default_count"`
	Weights      RelatedWeights `yaml:"weights"`
	Keywords     []string       `yaml:"keywords"`
}

// Load reads and parses the config file at path, expands paths, and applies defaults.
// Returns an error if the file cannot be read or parsed.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	ApplyDefaults(&cfg)

	configDir := filepath.Dir(path)
	cfg.Content.Root = expandPath(cfg.Content.Root, configDir)
	cfg.Storage.IndexPath = expandPath(cfg.Storage.IndexPath, configDir)
	if cfg.Storage.DatabasePath != "" {
		cfg.Storage.DatabasePath = expandPath(cfg.Storage.DatabasePath, configDir)
	}

	return &cfg, nil
}

// Save writes the config to path.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// expandPath converts a path to absolute. Paths starting with "./" are relative to configDir;
// other relative paths are relative to the home directory.
func expandPath(path string, configDir string) string {
	if filepath.IsAbs(path) {
		return path
	}
	if strings.HasPrefix(path, "./") || path == "." {
		return filepath.Join(configDir, path)
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, path)
	}
	return path
}
