package content

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/hyperjump/almanac/internal/config"
	"github.com/hyperjump/almanac/internal/docid"
	"github.com/hyperjump/almanac/internal/models"
	"github.com/hyperjump/almanac/internal/sections"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Location is where a file sits in the content tree, which alone decides its
// document kind and id.
type Location struct {
	Kind models.Kind
	// Top is the top-level directory: a vertical or a hub kind.
	Top     string
	Country string
	// Slug is the program slug, the hub entry slug, or the hub file name
	// (without the leading underscore) of a country overview.
	Slug string
	// Type is the search facet type.
	Type string
}

// ID returns the document id for the location.
func (l Location) ID() string {
	switch l.Kind {
	case models.KindCountry:
		return docid.Country(l.Top, l.Country)
	case models.KindProgram:
		return docid.Program(l.Top, l.Country, l.Slug)
	default:
		return docid.Hub(l.Top, l.Slug)
	}
}

// Loader walks the content tree and produces normalized documents.
type Loader struct {
	root        string
	verticals   map[string]bool
	hubs        map[string]string
	extensions  map[string]bool
	parallelism int
	logger      *zap.Logger
}

// LoaderOption configures a Loader.
type LoaderOption func(*Loader)

// WithLogger sets the logger used for skipped files and coercion diagnostics.
func WithLogger(l *zap.Logger) LoaderOption {
	return func(ld *Loader) {
		if l != nil {
			ld.logger = l
		}
	}
}

// NewLoader creates a loader for cfg.Root.
func NewLoader(cfg config.ContentConfig, opts ...LoaderOption) *Loader {
	l := &Loader{
		root:        cfg.Root,
		verticals:   make(map[string]bool, len(cfg.Verticals)),
		hubs:        make(map[string]string, len(cfg.Hubs)),
		extensions:  make(map[string]bool, len(cfg.Extensions)),
		parallelism: cfg.Parallelism,
		logger:      zap.NewNop(),
	}
	for _, v := range cfg.Verticals {
		l.verticals[v] = true
	}
	// Query type filters are lowercased, so entry types must be too.
	for dir, typ := range cfg.Hubs {
		l.hubs[dir] = strings.ToLower(strings.TrimSpace(typ))
	}
	for _, ext := range cfg.Extensions {
		l.extensions[strings.ToLower(ext)] = true
	}
	if len(l.extensions) == 0 {
		l.extensions[".mdx"] = true
		l.extensions[".md"] = true
	}
	if l.parallelism <= 0 {
		l.parallelism = 1
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Root returns the content root directory.
func (l *Loader) Root() string {
	return l.root
}

// Classify maps a root-relative slash path to its location. It returns false for
// files the tree layout does not describe: other extensions, dot-files and
// unexpected depths.
func (l *Loader) Classify(rel string) (Location, bool) {
	rel = filepath.ToSlash(rel)
	if !l.extensions[strings.ToLower(path.Ext(rel))] {
		return Location{}, false
	}
	parts := strings.Split(rel, "/")
	for _, p := range parts {
		if p == "" || strings.HasPrefix(p, ".") {
			return Location{}, false
		}
	}
	slug := docid.SlugFromFile(parts[len(parts)-1])

	switch len(parts) {
	case 2:
		typ, ok := l.hubs[parts[0]]
		if !ok || strings.HasPrefix(slug, "_") {
			return Location{}, false
		}
		return Location{Kind: models.KindHub, Top: parts[0], Slug: slug, Type: typ}, true
	case 3:
		if !l.isVertical(parts[0]) {
			return Location{}, false
		}
		if hubFile, ok := strings.CutPrefix(slug, "_"); ok {
			if hubFile == "" {
				return Location{}, false
			}
			return Location{Kind: models.KindCountry, Top: parts[0], Country: parts[1], Slug: hubFile, Type: string(models.KindCountry)}, true
		}
		return Location{Kind: models.KindProgram, Top: parts[0], Country: parts[1], Slug: slug, Type: string(models.KindProgram)}, true
	}
	return Location{}, false
}

func (l *Loader) isVertical(dir string) bool {
	if _, isHub := l.hubs[dir]; isHub {
		return false
	}
	if len(l.verticals) == 0 {
		return true
	}
	return l.verticals[dir]
}

// ParseFile reads and normalizes one file given by its root-relative path.
func (l *Loader) ParseFile(rel string) (*models.Document, error) {
	loc, ok := l.Classify(rel)
	if !ok {
		return nil, fmt.Errorf("unrecognized content path %q", rel)
	}
	data, err := os.ReadFile(filepath.Join(l.root, filepath.FromSlash(rel)))
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", rel, err)
	}
	raw, body, err := ParseFrontmatter(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", rel, err)
	}
	meta := Normalize(raw)
	if len(meta.Dropped) > 0 {
		l.logger.Debug("dropped frontmatter fields", zap.String("path", rel), zap.Strings("fields", meta.Dropped))
	}
	return Build(loc, meta, body, filepath.ToSlash(rel)), nil
}

// Build assembles the document for a classified file from its normalized metadata.
func Build(loc Location, meta Meta, body, rel string) *models.Document {
	id := loc.ID()
	doc := &models.Document{
		ID:         id,
		Kind:       loc.Kind,
		Type:       loc.Type,
		Title:      meta.Title,
		Subtitle:   meta.Subtitle,
		Summary:    meta.Summary,
		URL:        docid.URL(id),
		Tags:       nonNil(meta.Tags),
		Created:    meta.Created,
		Updated:    meta.Updated,
		Draft:      meta.Draft,
		Body:       body,
		SourcePath: rel,
	}

	var countries, programs []string
	switch loc.Kind {
	case models.KindCountry:
		if doc.Title == "" {
			doc.Title = docid.Humanize(loc.Country)
		}
		countries = append(countries, loc.Country)
		doc.Country = &models.CountryDoc{
			Vertical:    loc.Top,
			CountrySlug: loc.Country,
			HubFile:     loc.Slug,
			Region:      meta.Region,
		}
	case models.KindProgram:
		if doc.Title == "" {
			doc.Title = docid.Humanize(loc.Slug)
		}
		countries = append(countries, loc.Country)
		programs = append(programs, loc.Slug)
		doc.Program = &models.ProgramDoc{
			Vertical:       loc.Top,
			CountrySlug:    loc.Country,
			ProgramSlug:    loc.Slug,
			MinInvestment:  meta.MinInvestment,
			TimelineMonths: meta.TimelineMonths,
			Currency:       meta.Currency,
			Steps:          meta.Steps,
			FAQ:            meta.FAQ,
			Prices:         meta.Prices,
			Sections:       sections.Split(body),
		}
	default:
		if doc.Title == "" {
			doc.Title = docid.Humanize(loc.Slug)
		}
		doc.Hub = &models.HubDoc{
			HubKind:  loc.Top,
			Slug:     loc.Slug,
			Author:   meta.Author,
			Category: meta.Category,
		}
	}
	doc.Countries = facet(append(countries, meta.Countries...))
	doc.Programs = facet(append(programs, meta.Programs...))

	doc.LinkLabel = doc.Title
	if meta.Slug != "" {
		doc.LinkLabel = docid.Humanize(meta.Slug)
	}
	return doc
}

// facet slugifies values and drops empties and duplicates, keeping first-seen order.
func facet(values []string) []string {
	out := make([]string, 0, len(values))
	seen := make(map[string]bool, len(values))
	for _, v := range values {
		s := sections.Slugify(v)
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// Load parses every recognized file under subtree ("" for the whole tree) and returns
// the documents sorted by id. A missing root or subtree yields an empty result.
// Unreadable or malformed files are logged and skipped.
func (l *Loader) Load(ctx context.Context, subtree string) ([]*models.Document, error) {
	rels, err := l.collect(subtree)
	if err != nil {
		return nil, err
	}

	results := make([]*models.Document, len(rels))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(l.parallelism)
	for i, rel := range rels {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			doc, err := l.ParseFile(rel)
			if err != nil {
				l.logger.Warn("skipping content file", zap.String("path", rel), zap.Error(err))
				return nil
			}
			results[i] = doc
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	// rels are sorted, so the lexically first path claims a contested id.
	docs := make([]*models.Document, 0, len(results))
	owner := make(map[string]string, len(results))
	for _, doc := range results {
		if doc == nil {
			continue
		}
		if first, taken := owner[doc.ID]; taken {
			l.logger.Warn("duplicate document id",
				zap.String("id", doc.ID),
				zap.String("kept", first),
				zap.String("skipped", doc.SourcePath))
			continue
		}
		owner[doc.ID] = doc.SourcePath
		docs = append(docs, doc)
	}
	sort.Slice(docs, func(i, j int) bool { return docs[i].ID < docs[j].ID })
	return docs, nil
}

// collect returns the sorted root-relative paths of classifiable files under subtree.
func (l *Loader) collect(subtree string) ([]string, error) {
	start := l.root
	if sub := docid.Clean(subtree); sub != "" {
		start = filepath.Join(l.root, filepath.FromSlash(sub))
	}
	info, err := os.Stat(start)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			l.logger.Debug("content subtree missing", zap.String("path", start))
			return nil, nil
		}
		return nil, fmt.Errorf("failed to stat %s: %w", start, err)
	}
	if !info.IsDir() {
		return nil, nil
	}

	var rels []string
	err = filepath.WalkDir(start, func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			if p == start {
				return walkErr
			}
			l.logger.Debug("skipping unreadable entry", zap.String("path", p), zap.Error(walkErr))
			return nil
		}
		rel, err := filepath.Rel(l.root, p)
		if err != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)
		if d.IsDir() {
			if p != start && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			if rel != "." && strings.Count(rel, "/") >= 2 {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		if _, ok := l.Classify(rel); !ok {
			l.logger.Debug("ignoring file outside content layout", zap.String("path", rel))
			return nil
		}
		rels = append(rels, rel)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk %s: %w", start, err)
	}
	sort.Strings(rels)
	return rels, nil
}
