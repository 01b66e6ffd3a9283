package config

// DefaultHubs maps hub directories to the entry type of their documents.
var DefaultHubs = map[string]string{
	"articles": "article",
	"news":     "news",
	"media":    "media",
	"blog":     "blog",
}

// DefaultRelatedKeywords are title keywords that earn the related-item bonus.
var DefaultRelatedKeywords = []string{
	"golden visa",
	"citizenship",
	"residency",
	"digital nomad",
	"investor",
	"startup",
	"retirement",
	"passport",
}

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Content.Root == "" {
		cfg.Content.Root = "/usr/local/var/almanac/content"
	}
	if cfg.Content.Hubs == nil {
		cfg.Content.Hubs = make(map[string]string, len(DefaultHubs))
		for k, v := range DefaultHubs {
			cfg.Content.Hubs[k] = v
		}
	}
	if cfg.Content.Extensions == nil {
		cfg.Content.Extensions = []string{".mdx", ".md"}
	}
	if cfg.Content.Parallelism == 0 {
		cfg.Content.Parallelism = 8
	}
	if cfg.Storage.IndexPath == "" {
		cfg.Storage.IndexPath = "/usr/local/var/almanac/data/search-index.json"
	}
	if cfg.Cache.MaxSubtrees == 0 {
		cfg.Cache.MaxSubtrees = 64
	}
	if cfg.Search.DefaultLimit == 0 {
		cfg.Search.DefaultLimit = 12
	}
	if cfg.Search.MaxLimit == 0 {
		cfg.Search.MaxLimit = 25
	}
	if cfg.Search.CandidateLimit == 0 {
		cfg.Search.CandidateLimit = 50
	}
	if cfg.Search.SnippetLength == 0 {
		cfg.Search.SnippetLength = 200
	}
	if cfg.Search.MaxVariants == 0 {
		cfg.Search.MaxVariants = 4
	}
	if cfg.Search.Boosts.Title == 0 {
		cfg.Search.Boosts.Title = 4.0
	}
	if cfg.Search.Boosts.Subtitle == 0 {
		cfg.Search.Boosts.Subtitle = 2.5
	}
	if cfg.Search.Boosts.Tags == 0 {
		cfg.Search.Boosts.Tags = 2.0
	}
	if cfg.Search.Boosts.Snippet == 0 {
		cfg.Search.Boosts.Snippet = 1.0
	}
	if cfg.Related.DefaultCount == 0 {
		cfg.Related.DefaultCount = 5
	}
	ApplyRelatedDefaults(&cfg.Related)
}

// ApplyRelatedDefaults fills zero related-scoring weights and keywords.
func ApplyRelatedDefaults(r *RelatedConfig) {
	if r.Weights.Tag == 0 {
		r.Weights.Tag = 2.0
	}
	if r.Weights.Vertical == 0 {
		r.Weights.Vertical = 1.0
	}
	if r.Weights.Country == 0 {
		r.Weights.Country = 3.0
	}
	if r.Weights.Program == 0 {
		r.Weights.Program = 5.0
	}
	if r.Weights.Keyword == 0 {
		r.Weights.Keyword = 0.5
	}
	if r.Keywords == nil {
		r.Keywords = append([]string(nil), DefaultRelatedKeywords...)
	}
}
