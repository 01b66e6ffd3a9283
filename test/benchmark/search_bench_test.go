package benchmark

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/hyperjump/almanac/internal/config"
	"github.com/hyperjump/almanac/internal/indexer"
	"github.com/hyperjump/almanac/internal/keyword"
	"github.com/hyperjump/almanac/internal/models"
	"github.com/hyperjump/almanac/internal/ranking"
	"github.com/hyperjump/almanac/internal/search"
)

func BenchmarkMergeMax(b *testing.B) {
	lists := make([][]*keyword.KeywordResult, 4)
	for l := range lists {
		for i := 0; i < 100; i++ {
			lists[l] = append(lists[l], &keyword.KeywordResult{
				ID:    fmt.Sprintf("doc-%d", (i*7+l)%150),
				Score: float64(100-i) / 100,
			})
		}
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = search.MergeMax(lists...)
	}
}

func BenchmarkExpand(b *testing.B) {
	e := search.NewExpander()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = e.Expand("portugal golden visa for digital nomad families")
	}
}

func BenchmarkEngineSearch(b *testing.B) {
	dir := b.TempDir()
	cfg := &config.Config{}
	config.ApplyDefaults(cfg)
	path := filepath.Join(dir, "search-index.json")

	docs := make([]models.SearchIndexEntry, 0, 1000)
	for i := 0; i < 1000; i++ {
		docs = append(docs, models.SearchIndexEntry{
			ID:      fmt.Sprintf("residency/country-%d/program-%d", i/10, i%10),
			Type:    string(models.KindProgram),
			Title:   fmt.Sprintf("Country %d Program %d Visa", i/10, i%10),
			Tags:    []string{"golden visa"},
			Snippet: "Residency by investment through qualifying real estate.",
		})
	}
	art := &models.IndexArtifact{Version: models.ArtifactVersion, GeneratedAt: time.Now().UTC(), Count: len(docs), Docs: docs}
	if err := indexer.WriteArtifact(path, art); err != nil {
		b.Fatal(err)
	}

	engine := search.NewEngine(path, &cfg.Search)
	defer engine.Close()
	ctx := context.Background()
	q := &models.SearchQuery{Query: "golden visa program"}
	if _, err := engine.Search(ctx, q); err != nil {
		b.Fatal(err)
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = engine.Search(ctx, &models.SearchQuery{Query: "golden visa program"})
	}
}

func BenchmarkRelated(b *testing.B) {
	cfg := &config.Config{}
	config.ApplyDefaults(cfg)
	scorer := ranking.NewScorer(cfg.Related)

	pool := make([]*models.Document, 0, 500)
	for i := 0; i < 500; i++ {
		pool = append(pool, &models.Document{
			ID:        fmt.Sprintf("residency/country-%d/program-%d", i/5, i%5),
			Kind:      models.KindProgram,
			Type:      string(models.KindProgram),
			Title:     fmt.Sprintf("Country %d Golden Visa", i/5),
			Tags:      []string{"golden visa", fmt.Sprintf("country-%d", i/5)},
			Countries: []string{fmt.Sprintf("country-%d", i/5)},
			Programs:  []string{fmt.Sprintf("program-%d", i%5)},
			Program:   &models.ProgramDoc{Vertical: "residency"},
		})
	}
	source := pool[0]
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = scorer.Related(source, pool, 5)
	}
}
