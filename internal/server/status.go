package server

import (
	"context"

	"github.com/hyperjump/almanac/internal/cache"
	"github.com/hyperjump/almanac/internal/config"
	"github.com/hyperjump/almanac/internal/search"
	"github.com/hyperjump/almanac/internal/storage"
)

// StatusConfig is the configuration echoed by the status endpoint.
type StatusConfig struct {
	ContentRoot  string `json:"content_root"`
	IndexPath    string `json:"index_path"`
	DatabasePath string `json:"database_path,omitempty"`
	MaxVariants  int    `json:"max_variants"`
}

// StatusResponse is the shape of GET /api/v1/status.
type StatusResponse struct {
	Index          search.Status `json:"index"`
	Cache          *cache.Stats  `json:"cache,omitempty"`
	DiskUsageBytes *int64        `json:"disk_usage_bytes,omitempty"`
	MirrorEntries  *int64        `json:"mirror_entries,omitempty"`
	Config         StatusConfig  `json:"config"`
}

// BuildStatus collects engine, cache and disk state. store and mirror may be nil.
func BuildStatus(ctx context.Context, engine *search.Engine, store *cache.Store, mirror storage.Storage, cfg *config.Config) StatusResponse {
	st := StatusResponse{
		Index: engine.Status(),
		Config: StatusConfig{
			ContentRoot:  cfg.Content.Root,
			IndexPath:    cfg.Storage.IndexPath,
			DatabasePath: cfg.Storage.DatabasePath,
			MaxVariants:  cfg.Search.MaxVariants,
		},
	}
	if store != nil {
		stats := store.Stats()
		st.Cache = &stats
	}
	if usage, err := storage.MeasureUsage(cfg.Storage.IndexPath, cfg.Storage.DatabasePath); err == nil {
		total := usage.Total()
		st.DiskUsageBytes = &total
	}
	if mirror != nil {
		if n, err := mirror.CountEntries(ctx, ""); err == nil {
			st.MirrorEntries = &n
		}
	}
	return st
}
