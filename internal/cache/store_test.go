package cache

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/hyperjump/almanac/internal/config"
	"github.com/hyperjump/almanac/internal/content"
	"github.com/hyperjump/almanac/internal/metrics"
	"github.com/hyperjump/almanac/internal/models"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingLoader wraps the content loader and counts loads.
type countingLoader struct {
	*content.Loader
	loads atomic.Int32
	delay time.Duration
}

func (c *countingLoader) Load(ctx context.Context, subtree string) ([]*models.Document, error) {
	c.loads.Add(1)
	if c.delay > 0 {
		time.Sleep(c.delay)
	}
	return c.Loader.Load(ctx, subtree)
}

func newTestStore(t *testing.T, root string, mutate func(*config.Config)) (*Store, *countingLoader) {
	t.Helper()
	cfg := &config.Config{Content: config.ContentConfig{Root: root}}
	config.ApplyDefaults(cfg)
	if mutate != nil {
		mutate(cfg)
	}
	loader := &countingLoader{Loader: content.NewLoader(cfg.Content)}
	store, err := NewStore(loader, cfg)
	require.NoError(t, err)
	return store, loader
}

func seed(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	write(t, root, "residency/portugal/_country.mdx", "---\ntitle: Portugal\n---\n")
	write(t, root, "residency/portugal/golden-visa.mdx", "---\ntitle: Golden Visa\n---\n")
	write(t, root, "residency/portugal/d7.mdx", "---\ntitle: D7 Visa\ndraft: true\n---\n")
	return root
}

func TestStore_RebuildSkippedWhenStampEqual(t *testing.T) {
	store, loader := newTestStore(t, seed(t), nil)
	ctx := context.Background()

	first, err := store.Snapshot(ctx, "residency")
	require.NoError(t, err)
	second, err := store.Snapshot(ctx, "residency")
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Equal(t, int32(1), loader.loads.Load())
	assert.Equal(t, Stats{Hits: 1, Misses: 1, Rebuilds: 1, Subtrees: 1}, store.Stats())
}

func TestStore_TouchTriggersRebuild(t *testing.T) {
	root := seed(t)
	store, loader := newTestStore(t, root, nil)
	ctx := context.Background()

	first, err := store.Snapshot(ctx, "residency")
	require.NoError(t, err)

	p := filepath.Join(root, "residency", "portugal", "golden-visa.mdx")
	require.NoError(t, os.WriteFile(p, []byte("---\ntitle: Golden Visa 2025\n---\n"), 0o644))
	later := first.Stamp.MaxModTime.Add(time.Minute)
	require.NoError(t, os.Chtimes(p, later, later))

	second, err := store.Snapshot(ctx, "residency")
	require.NoError(t, err)
	assert.NotSame(t, first, second)
	assert.Equal(t, int32(2), loader.loads.Load())

	doc, ok := second.Get("residency/portugal/golden-visa")
	require.True(t, ok)
	assert.Equal(t, "Golden Visa 2025", doc.Title)

	old, _ := first.Get("residency/portugal/golden-visa")
	assert.Equal(t, "Golden Visa", old.Title, "earlier snapshot must stay intact")
}

func TestStore_AddedFileTriggersRebuild(t *testing.T) {
	root := seed(t)
	store, _ := newTestStore(t, root, nil)
	ctx := context.Background()

	docs, err := store.List(ctx, "residency")
	require.NoError(t, err)
	require.Len(t, docs, 2)

	write(t, root, "residency/greece/_country.mdx", "---\ntitle: Greece\n---\n")
	docs, err = store.List(ctx, "residency")
	require.NoError(t, err)
	assert.Len(t, docs, 3)
}

func TestStore_ConcurrentCallersShareRebuild(t *testing.T) {
	store, loader := newTestStore(t, seed(t), nil)
	loader.delay = 50 * time.Millisecond

	var wg sync.WaitGroup
	snaps := make([]*Snapshot, 8)
	for i := range snaps {
		wg.Add(1)
		go func() {
			defer wg.Done()
			snap, err := store.Snapshot(context.Background(), "residency")
			assert.NoError(t, err)
			snaps[i] = snap
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), loader.loads.Load())
	for _, s := range snaps[1:] {
		assert.Same(t, snaps[0], s)
	}
}

func TestStore_DraftsListedOnlyWhenIncluded(t *testing.T) {
	root := seed(t)
	ctx := context.Background()

	store, _ := newTestStore(t, root, nil)
	docs, err := store.List(ctx, "residency")
	require.NoError(t, err)
	for _, d := range docs {
		assert.False(t, d.Draft)
	}

	draft, err := store.Lookup(ctx, "/residency/portugal/d7")
	require.NoError(t, err)
	assert.True(t, draft.Draft)

	withDrafts, _ := newTestStore(t, root, func(c *config.Config) { c.Content.IncludeDrafts = true })
	docs, err = withDrafts.List(ctx, "residency")
	require.NoError(t, err)
	assert.Len(t, docs, 3)
}

func TestStore_LookupNotFound(t *testing.T) {
	store, _ := newTestStore(t, seed(t), nil)
	_, err := store.Lookup(context.Background(), "residency/portugal/nope")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = store.Lookup(context.Background(), "/")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStore_EmptySubtree(t *testing.T) {
	root := seed(t)
	require.NoError(t, os.MkdirAll(filepath.Join(root, "citizenship"), 0o755))
	store, _ := newTestStore(t, root, nil)

	docs, err := store.List(context.Background(), "citizenship")
	require.NoError(t, err)
	assert.Empty(t, docs)
}

func TestStore_Invalidate(t *testing.T) {
	store, loader := newTestStore(t, seed(t), nil)
	ctx := context.Background()

	_, err := store.Snapshot(ctx, "residency")
	require.NoError(t, err)
	store.Invalidate("/residency/")
	_, err = store.Snapshot(ctx, "residency")
	require.NoError(t, err)
	assert.Equal(t, int32(2), loader.loads.Load())

	store.Purge()
	assert.Equal(t, 0, store.Stats().Subtrees)
}

func TestStore_InvalidateDropsOverlappingSnapshots(t *testing.T) {
	store, _ := newTestStore(t, seed(t), nil)
	ctx := context.Background()

	for _, subtree := range []string{"", "residency", "articles"} {
		_, err := store.Snapshot(ctx, subtree)
		require.NoError(t, err)
	}
	require.Equal(t, 3, store.Stats().Subtrees)

	store.Invalidate("residency")
	assert.Equal(t, 1, store.Stats().Subtrees, "whole-tree and residency snapshots should be dropped")
}

func TestOverlaps(t *testing.T) {
	assert.True(t, overlaps("", "residency"))
	assert.True(t, overlaps("residency", "residency/portugal"))
	assert.True(t, overlaps("residency/portugal", "residency"))
	assert.False(t, overlaps("residency", "residency-old"))
	assert.False(t, overlaps("articles", "residency"))
}

func TestStore_RecordsMetrics(t *testing.T) {
	root := seed(t)
	cfg := &config.Config{Content: config.ContentConfig{Root: root}}
	config.ApplyDefaults(cfg)
	m := metrics.New()
	store, err := NewStore(content.NewLoader(cfg.Content), cfg, WithMetrics(m))
	require.NoError(t, err)

	_, err = store.Snapshot(context.Background(), "residency")
	require.NoError(t, err)
	_, err = store.Snapshot(context.Background(), "residency")
	require.NoError(t, err)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.CacheRebuildsTotal))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CacheLookupsTotal.WithLabelValues("hit")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.DocumentsLoaded.WithLabelValues("residency")))
}
