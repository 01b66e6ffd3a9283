package e2e

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/hyperjump/almanac/internal/cache"
	"github.com/hyperjump/almanac/internal/config"
	"github.com/hyperjump/almanac/internal/content"
	"github.com/hyperjump/almanac/internal/indexer"
	"github.com/hyperjump/almanac/internal/models"
	"github.com/hyperjump/almanac/internal/ranking"
	"github.com/hyperjump/almanac/internal/search"
	"github.com/hyperjump/almanac/internal/sections"
	"github.com/hyperjump/almanac/internal/storage"
)

const e2eSearchLimit = 25

type e2eEnv struct {
	cfg    *config.Config
	corpus *Corpus
	store  *cache.Store
	engine *search.Engine
	mirror *storage.SQLiteStorage
	art    *models.IndexArtifact
}

// newE2EEnv writes the corpus to disk, builds the artifact and mirror, and opens an engine on it.
func newE2EEnv(t *testing.T) *e2eEnv {
	t.Helper()
	dir := t.TempDir()
	cfg := &config.Config{}
	config.ApplyDefaults(cfg)
	cfg.Content.Root = filepath.Join(dir, "content")
	cfg.Storage.IndexPath = filepath.Join(dir, "data", "search-index.json")
	cfg.Storage.DatabasePath = filepath.Join(dir, "data", "mirror.db")

	corpus := BuildCorpus()
	if corpus.TotalDocs == 0 {
		t.Fatal("corpus has no documents")
	}
	if err := corpus.WriteTree(cfg.Content.Root); err != nil {
		t.Fatal(err)
	}

	store, err := cache.NewStore(content.NewLoader(cfg.Content), cfg)
	if err != nil {
		t.Fatal(err)
	}
	mirror, err := storage.NewSQLiteStorage(cfg.Storage.DatabasePath)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = mirror.Close() })

	builder := indexer.NewBuilder(store, &cfg.Search, indexer.WithMirror(mirror))
	art, err := builder.BuildAndWrite(context.Background(), cfg.Storage.IndexPath, time.Now().UTC())
	if err != nil {
		t.Fatalf("build index: %v", err)
	}

	engine := search.NewEngine(cfg.Storage.IndexPath, &cfg.Search)
	t.Cleanup(func() { _ = engine.Close() })
	return &e2eEnv{cfg: cfg, corpus: corpus, store: store, engine: engine, mirror: mirror, art: art}
}

func TestE2E_BuildIndexesEveryDocument(t *testing.T) {
	env := newE2EEnv(t)
	if env.art.Count != env.corpus.TotalDocs {
		t.Fatalf("artifact count = %d, want %d", env.art.Count, env.corpus.TotalDocs)
	}
	n, err := env.mirror.CountEntries(context.Background(), "")
	if err != nil {
		t.Fatal(err)
	}
	if int(n) != env.corpus.TotalDocs {
		t.Errorf("mirror entries = %d, want %d", n, env.corpus.TotalDocs)
	}
	programs, err := env.mirror.CountEntries(context.Background(), string(models.KindProgram))
	if err != nil {
		t.Fatal(err)
	}
	if programs != 80 {
		t.Errorf("mirror program entries = %d, want 80", programs)
	}
}

func TestE2E_SearchReturnsCorrectResults(t *testing.T) {
	env := newE2EEnv(t)
	ctx := context.Background()
	if env.corpus.TotalQueries == 0 {
		t.Fatal("corpus has no query test cases")
	}
	t.Logf("indexed %d documents; running %d query test cases", env.corpus.TotalDocs, env.corpus.TotalQueries)

	for _, tc := range env.corpus.TestCases {
		t.Run(tc.Description, func(t *testing.T) {
			resp, err := env.engine.Search(ctx, &models.SearchQuery{
				Query: tc.Query,
				Limit: e2eSearchLimit,
			})
			if err != nil {
				t.Fatalf("search failed: %v", err)
			}
			resultIDs := documentIDsFromResponse(resp)
			if !containsAny(resultIDs, tc.ExpectedDocIDs) {
				t.Errorf("query %q: expected at least one of %v in results, got %d results (ids: %v)",
					tc.Query, tc.ExpectedDocIDs, len(resultIDs), resultIDs)
			}
			seen := make(map[string]bool, len(resultIDs))
			for _, id := range resultIDs {
				if seen[id] {
					t.Errorf("query %q: duplicate id %s", tc.Query, id)
				}
				seen[id] = true
			}
		})
	}
}

func TestE2E_TypeFilterRestrictsResults(t *testing.T) {
	env := newE2EEnv(t)
	resp, err := env.engine.Search(context.Background(), &models.SearchQuery{
		Query: "portugal",
		Types: []string{string(models.KindCountry)},
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(resp.Items) == 0 {
		t.Fatal("expected the portugal overview")
	}
	for _, hit := range resp.Items {
		if hit.Type != string(models.KindCountry) {
			t.Errorf("hit %s has type %s", hit.ID, hit.Type)
		}
	}
	if resp.Items[0].ID != "residency/portugal" {
		t.Errorf("first hit = %s, want residency/portugal", resp.Items[0].ID)
	}
}

func TestE2E_RelatedPrefersSameProgram(t *testing.T) {
	env := newE2EEnv(t)
	ctx := context.Background()
	source, err := env.store.Lookup(ctx, "residency/portugal/golden-visa")
	if err != nil {
		t.Fatal(err)
	}
	pool, err := env.store.List(ctx, "")
	if err != nil {
		t.Fatal(err)
	}
	items := ranking.NewScorer(env.cfg.Related).Related(source, pool, 5)
	if len(items) != 5 {
		t.Fatalf("expected 5 related items, got %d", len(items))
	}
	for _, item := range items {
		if item.ID == source.ID {
			t.Error("source returned as related")
		}
		if !strings.HasSuffix(item.ID, "/golden-visa") {
			t.Errorf("related item %s is not a golden visa", item.ID)
		}
	}
	for i := 1; i < len(items); i++ {
		if *items[i-1].TimelineMonths > *items[i].TimelineMonths {
			t.Errorf("equal-score items not ordered by timeline: %v then %v", *items[i-1].TimelineMonths, *items[i].TimelineMonths)
		}
	}
}

func TestE2E_ProgramSectionsResolve(t *testing.T) {
	env := newE2EEnv(t)
	ctx := context.Background()
	for _, d := range env.corpus.Documents {
		if strings.Contains(d.Path, "/_") {
			continue
		}
		doc, err := env.store.Lookup(ctx, d.ID)
		if err != nil {
			t.Fatalf("lookup %s: %v", d.ID, err)
		}
		sec, ok := sections.Resolve(doc, "fees", "costs-and-fees")
		if !ok {
			t.Errorf("%s: costs section not found", d.ID)
			continue
		}
		if sec.Key != "costs-and-fees" || sec.Heading != "Costs & Fees" {
			t.Errorf("%s: resolved %+v", d.ID, sec)
		}
	}
}

func documentIDsFromResponse(resp *models.SearchResponse) []string {
	ids := make([]string, 0, len(resp.Items))
	for _, r := range resp.Items {
		ids = append(ids, r.ID)
	}
	return ids
}

func containsAny(got []string, expected []string) bool {
	set := make(map[string]bool)
	for _, id := range got {
		set[id] = true
	}
	for _, id := range expected {
		if set[id] {
			return true
		}
	}
	return false
}
