package cache

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/hyperjump/almanac/internal/config"
	"github.com/hyperjump/almanac/internal/docid"
	"github.com/hyperjump/almanac/internal/metrics"
	"github.com/hyperjump/almanac/internal/models"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// ErrNotFound is returned by Lookup when no document has the requested id.
var ErrNotFound = errors.New("document not found")

// DocumentLoader produces the documents of a subtree of the content root.
type DocumentLoader interface {
	Root() string
	Load(ctx context.Context, subtree string) ([]*models.Document, error)
}

// Snapshot is an immutable view of one subtree at the time of its stamp.
type Snapshot struct {
	Subtree string
	Stamp   Stamp
	// Docs holds every document, drafts included, sorted by id.
	Docs    []*models.Document
	BuiltAt time.Time

	byID map[string]*models.Document
}

func newSnapshot(subtree string, stamp Stamp, docs []*models.Document, builtAt time.Time) *Snapshot {
	s := &Snapshot{
		Subtree: subtree,
		Stamp:   stamp,
		Docs:    docs,
		BuiltAt: builtAt,
		byID:    make(map[string]*models.Document, len(docs)),
	}
	for _, d := range docs {
		s.byID[d.ID] = d
	}
	return s
}

// Get returns the document with id.
func (s *Snapshot) Get(id string) (*models.Document, bool) {
	d, ok := s.byID[id]
	return d, ok
}

// Stats are cumulative store counters.
type Stats struct {
	Hits     int64 `json:"hits"`
	Misses   int64 `json:"misses"`
	Rebuilds int64 `json:"rebuilds"`
	Subtrees int   `json:"subtrees"`
}

// Store owns the snapshot cache. It is safe for concurrent use; construct one per
// process and share it.
type Store struct {
	loader        DocumentLoader
	includeDrafts bool
	snapshots     *lru.Cache[string, *Snapshot]
	group         singleflight.Group
	logger        *zap.Logger
	metrics       *metrics.Metrics

	hits     atomic.Int64
	misses   atomic.Int64
	rebuilds atomic.Int64
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithLogger sets the logger for rebuild events.
func WithLogger(l *zap.Logger) StoreOption {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithMetrics sets the metrics sink.
func WithMetrics(m *metrics.Metrics) StoreOption {
	return func(s *Store) { s.metrics = m }
}

// NewStore creates a store reading through loader.
func NewStore(loader DocumentLoader, cfg *config.Config, opts ...StoreOption) (*Store, error) {
	size := cfg.Cache.MaxSubtrees
	if size <= 0 {
		size = 64
	}
	snapshots, err := lru.New[string, *Snapshot](size)
	if err != nil {
		return nil, fmt.Errorf("failed to create snapshot cache: %w", err)
	}
	s := &Store{
		loader:        loader,
		includeDrafts: cfg.Content.IncludeDrafts,
		snapshots:     snapshots,
		logger:        zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Snapshot returns the current snapshot of subtree ("" for the whole tree). The
// cached snapshot is reused while the subtree's stamp is unchanged; otherwise the
// subtree is reloaded once, shared by all concurrent callers.
func (s *Store) Snapshot(ctx context.Context, subtree string) (*Snapshot, error) {
	key := docid.Clean(subtree)
	dir := s.dir(key)

	stamp := ComputeStamp(dir)
	if snap, ok := s.snapshots.Get(key); ok && snap.Stamp.Equal(stamp) {
		s.hits.Add(1)
		s.metrics.RecordCacheLookup(true)
		return snap, nil
	}
	s.misses.Add(1)
	s.metrics.RecordCacheLookup(false)

	// The rebuild is shared, so one caller's cancellation must not fail the others.
	shared := context.WithoutCancel(ctx)
	v, err, _ := s.group.Do(key, func() (any, error) {
		stamp := ComputeStamp(dir)
		if snap, ok := s.snapshots.Peek(key); ok && snap.Stamp.Equal(stamp) {
			return snap, nil
		}
		return s.rebuild(shared, key, stamp)
	})
	if err != nil {
		return nil, err
	}
	return v.(*Snapshot), nil
}

func (s *Store) rebuild(ctx context.Context, key string, stamp Stamp) (*Snapshot, error) {
	start := time.Now()
	docs, err := s.loader.Load(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("failed to load %q: %w", key, err)
	}
	snap := newSnapshot(key, stamp, docs, time.Now())
	s.snapshots.Add(key, snap)
	s.rebuilds.Add(1)

	took := time.Since(start)
	s.metrics.RecordRebuild(key, len(docs), took)
	s.logger.Debug("snapshot rebuilt",
		zap.String("subtree", key),
		zap.Int("documents", len(docs)),
		zap.Int("files", stamp.Files),
		zap.Duration("took", took))
	return snap, nil
}

// List returns the documents of subtree sorted by id. Drafts are left out unless the
// content config includes them.
func (s *Store) List(ctx context.Context, subtree string) ([]*models.Document, error) {
	snap, err := s.Snapshot(ctx, subtree)
	if err != nil {
		return nil, err
	}
	if s.includeDrafts {
		return append([]*models.Document(nil), snap.Docs...), nil
	}
	out := make([]*models.Document, 0, len(snap.Docs))
	for _, d := range snap.Docs {
		if !d.Draft {
			out = append(out, d)
		}
	}
	return out, nil
}

// Lookup resolves a document by id or URL path. Drafts are resolvable.
func (s *Store) Lookup(ctx context.Context, id string) (*models.Document, error) {
	id = docid.Clean(id)
	if id == "" {
		return nil, ErrNotFound
	}
	top, _, _ := strings.Cut(id, "/")
	snap, err := s.Snapshot(ctx, top)
	if err != nil {
		return nil, err
	}
	doc, ok := snap.Get(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return doc, nil
}

// Invalidate drops every cached snapshot that overlaps subtree (the subtree itself,
// its ancestors such as the whole tree, and its descendants) so the next access
// reloads them.
func (s *Store) Invalidate(subtree string) {
	subtree = docid.Clean(subtree)
	for _, key := range s.snapshots.Keys() {
		if overlaps(key, subtree) {
			s.snapshots.Remove(key)
		}
	}
}

func overlaps(a, b string) bool {
	if a == "" || b == "" || a == b {
		return true
	}
	return strings.HasPrefix(a, b+"/") || strings.HasPrefix(b, a+"/")
}

// Purge drops every cached snapshot.
func (s *Store) Purge() {
	s.snapshots.Purge()
}

// Stats returns cumulative counters.
func (s *Store) Stats() Stats {
	return Stats{
		Hits:     s.hits.Load(),
		Misses:   s.misses.Load(),
		Rebuilds: s.rebuilds.Load(),
		Subtrees: s.snapshots.Len(),
	}
}

func (s *Store) dir(key string) string {
	if key == "" {
		return s.loader.Root()
	}
	return filepath.Join(s.loader.Root(), filepath.FromSlash(key))
}
