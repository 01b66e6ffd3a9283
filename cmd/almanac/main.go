// Package main is the Almanac CLI entry point.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/hyperjump/almanac/internal/cache"
	"github.com/hyperjump/almanac/internal/cli"
	"github.com/hyperjump/almanac/internal/config"
	"github.com/hyperjump/almanac/internal/content"
	"github.com/hyperjump/almanac/internal/indexer"
	"github.com/hyperjump/almanac/internal/metrics"
	"github.com/hyperjump/almanac/internal/models"
	"github.com/hyperjump/almanac/internal/ranking"
	"github.com/hyperjump/almanac/internal/search"
	"github.com/hyperjump/almanac/internal/sections"
	"github.com/hyperjump/almanac/internal/server"
	"github.com/hyperjump/almanac/internal/storage"
	"github.com/hyperjump/almanac/pkg/utils"
	"go.uber.org/zap"
)

var version = "dev"

const defaultConfigPath = "/usr/local/etc/almanac/config.yaml"

// loadConfig loads config from path. When path is the default, it first looks for
// config.yaml in the current directory (for development); if that exists it is used.
// Returns the config and the path that was actually loaded.
func loadConfig(path string) (*config.Config, string, error) {
	if path == defaultConfigPath {
		if cwd, cwdErr := os.Getwd(); cwdErr == nil {
			fallback := filepath.Join(cwd, "config.yaml")
			if _, statErr := os.Stat(fallback); statErr == nil {
				cfg, loadErr := config.Load(fallback)
				if loadErr != nil {
					return nil, "", loadErr
				}
				return cfg, fallback, nil
			}
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	command := os.Args[1]
	switch command {
	case "server":
		runServer()
	case "build":
		runBuild()
	case "search":
		runSearch()
	case "related":
		runRelated()
	case "section":
		runSection()
	case "status":
		runStatus()
	case "version", "--version", "-v":
		fmt.Printf("almanac version %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

// commonFlags are shared by every subcommand that touches content or the index.
type commonFlags struct {
	configPath *string
	contentDir *string
	indexPath  *string
	debug      *bool
}

func addCommonFlags(fs *flag.FlagSet) commonFlags {
	return commonFlags{
		configPath: fs.String("config", defaultConfigPath, "config file path"),
		contentDir: fs.String("content", "", "content root (overrides config)"),
		indexPath:  fs.String("index", "", "search index artifact path (overrides config)"),
		debug:      fs.Bool("debug", false, "enable debug logging"),
	}
}

// setup loads the config, applies flag overrides and creates the logger.
func (f commonFlags) setup() (*config.Config, *zap.Logger, string) {
	cfg, resolved, err := loadConfig(*f.configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	applyOverrides(cfg, *f.contentDir, *f.indexPath, *f.debug)
	logger, err := utils.NewLogger(cfg.Debug)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	return cfg, logger, resolved
}

func applyOverrides(cfg *config.Config, contentDir, indexPath string, debug bool) {
	if contentDir != "" {
		cfg.Content.Root = contentDir
	}
	if indexPath != "" {
		cfg.Storage.IndexPath = indexPath
	}
	if debug {
		cfg.Debug = true
	}
}

func mustOutputFormat(s string) cli.OutputFormat {
	format, err := cli.ParseOutputFormat(s)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	return format
}

func runServer() {
	fs := flag.NewFlagSet("server", flag.ExitOnError)
	flags := addCommonFlags(fs)
	host := fs.String("host", "", "listen host (overrides config)")
	port := fs.Int("port", 0, "listen port (overrides config)")
	_ = fs.Parse(os.Args[2:])

	cfg, logger, resolvedConfigPath := flags.setup()
	defer logger.Sync()
	if *host != "" {
		cfg.Server.Host = *host
	}
	if *port != 0 {
		cfg.Server.Port = *port
	}
	logger.Info("config loaded",
		zap.String("config_path", resolvedConfigPath),
		zap.Bool("debug", cfg.Debug),
	)

	components, err := initializeComponents(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize components", zap.Error(err))
	}
	defer components.Close()

	opts := []server.Option{
		server.WithMetrics(components.Metrics),
		server.WithBuilder(components.Builder),
	}
	if components.Mirror != nil {
		opts = append(opts, server.WithMirror(components.Mirror))
	}
	srv := server.NewServer(components.Store, components.Engine, components.Scorer, cfg, logger, opts...)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Stop(ctx)
}

// buildResult is the summary printed by the build command.
type buildResult struct {
	Path        string    `json:"path"`
	Count       int       `json:"count"`
	GeneratedAt time.Time `json:"generatedAt"`
	Mirror      string    `json:"mirror,omitempty"`
	TookMs      int64     `json:"tookMs"`
}

func runBuild() {
	fs := flag.NewFlagSet("build", flag.ExitOnError)
	flags := addCommonFlags(fs)
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(os.Args[2:])
	format := mustOutputFormat(*outputFormat)

	cfg, logger, _ := flags.setup()
	defer logger.Sync()
	components, err := initializeComponents(cfg, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize: %v\n", err)
		os.Exit(1)
	}
	defer components.Close()

	start := time.Now()
	art, err := components.Builder.BuildAndWrite(context.Background(), cfg.Storage.IndexPath, time.Now().UTC())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Build failed: %v\n", err)
		os.Exit(1)
	}
	res := buildResult{
		Path:        cfg.Storage.IndexPath,
		Count:       art.Count,
		GeneratedAt: art.GeneratedAt,
		Mirror:      cfg.Storage.DatabasePath,
		TookMs:      time.Since(start).Milliseconds(),
	}
	if format == cli.OutputJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(res)
		return
	}
	fmt.Printf("Indexed %d entries into %s in %dms\n", res.Count, res.Path, res.TookMs)
	if res.Mirror != "" {
		fmt.Printf("Mirrored to %s\n", res.Mirror)
	}
}

// printSearchUsage prints search subcommand usage.
func printSearchUsage(fs *flag.FlagSet) {
	fmt.Fprintf(fs.Output(), "Usage: almanac search [flags] <query>\n\n")
	fmt.Fprintf(fs.Output(), "Query is all remaining arguments joined by spaces. Multi-word queries work with or without quotes.\n\n")
	fs.PrintDefaults()
	fmt.Fprintf(fs.Output(), `
Examples:
  almanac search golden visa
  almanac search --type program --limit 5 "digital nomad"
  almanac search --output json portugal
  almanac search --server http://localhost:8080 citizenship
`)
}

// buildSearchQuery joins all positional args with spaces so multi-word queries
// work the same with or without shell quoting.
func buildSearchQuery(args []string) string {
	return strings.TrimSpace(strings.Join(args, " "))
}

// argsReorder moves any flags (and their values) that appear after the positional
// arguments to the front so that flag.Parse() sees them. The flag package stops at
// the first non-flag argument.
func argsReorder(args []string) []string {
	for i, a := range args {
		if len(a) > 0 && a[0] == '-' {
			if i == 0 {
				return args
			}
			reordered := make([]string, 0, len(args))
			reordered = append(reordered, args[i:]...)
			reordered = append(reordered, args[:i]...)
			return reordered
		}
	}
	return args
}

// splitList flattens comma-separated flag values.
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func runSearch() {
	fs := flag.NewFlagSet("search", flag.ExitOnError)
	flags := addCommonFlags(fs)
	serverURL := fs.String("server", "", "server URL (empty = search the local index artifact)")
	limit := fs.Int("limit", 0, "number of results (default from config, capped at max_limit)")
	types := fs.String("type", "", "comma-separated type filter, e.g. program,country")
	outputFormat := fs.String("output", "text", "output format: text (human-readable), compact (one result per line), or json (parseable)")
	fs.Usage = func() { printSearchUsage(fs) }
	_ = fs.Parse(argsReorder(os.Args[2:]))
	format := mustOutputFormat(*outputFormat)

	searchQuery := &models.SearchQuery{
		Query: buildSearchQuery(fs.Args()),
		Types: splitList(*types),
		Limit: *limit,
	}
	if searchQuery.Query == "" {
		printSearchUsage(fs)
		os.Exit(1)
	}

	var response *models.SearchResponse
	if *serverURL != "" {
		var err error
		response, err = searchViaHTTP(*serverURL, searchQuery)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Search failed: %v\n", err)
			os.Exit(1)
		}
	} else {
		cfg, logger, _ := flags.setup()
		defer logger.Sync()
		engine := search.NewEngine(cfg.Storage.IndexPath, &cfg.Search, search.WithLogger(logger))
		defer engine.Close()
		var err error
		response, err = engine.Search(context.Background(), searchQuery)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Search failed: %v\n", err)
			os.Exit(1)
		}
	}
	if err := cli.WriteSearchResults(os.Stdout, response, format); err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(1)
	}
}

func searchViaHTTP(serverURL string, query *models.SearchQuery) (*models.SearchResponse, error) {
	body, err := json.Marshal(query)
	if err != nil {
		return nil, err
	}
	resp, err := http.Post(serverURL+"/api/v1/search", "application/json", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	var response models.SearchResponse
	if err := decodeResponse(resp, &response); err != nil {
		return nil, err
	}
	return &response, nil
}

func getJSON(serverURL, path string, out any) error {
	resp, err := http.Get(serverURL + path)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	return decodeResponse(resp, out)
}

func decodeResponse(resp *http.Response, out any) error {
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("server returned %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// escapeID escapes each segment of a document id for use in a URL path.
func escapeID(id string) string {
	segs := strings.Split(strings.Trim(id, "/"), "/")
	for i, s := range segs {
		segs[i] = url.PathEscape(s)
	}
	return strings.Join(segs, "/")
}

func runRelated() {
	fs := flag.NewFlagSet("related", flag.ExitOnError)
	flags := addCommonFlags(fs)
	serverURL := fs.String("server", "", "server URL (empty = read the content tree directly)")
	limit := fs.Int("limit", 0, "number of related items (default from config)")
	outputFormat := fs.String("output", "text", "output format: text, compact, or json")
	_ = fs.Parse(argsReorder(os.Args[2:]))
	format := mustOutputFormat(*outputFormat)

	if fs.NArg() != 1 {
		fmt.Println("Usage: almanac related [flags] <document-id>")
		os.Exit(1)
	}
	id := fs.Arg(0)

	var items []models.RelatedItem
	if *serverURL != "" {
		var out struct {
			Items []models.RelatedItem `json:"items"`
		}
		path := "/api/v1/related/" + escapeID(id)
		if *limit > 0 {
			path += "?limit=" + strconv.Itoa(*limit)
		}
		if err := getJSON(*serverURL, path, &out); err != nil {
			fmt.Fprintf(os.Stderr, "Related failed: %v\n", err)
			os.Exit(1)
		}
		items = out.Items
	} else {
		cfg, logger, _ := flags.setup()
		defer logger.Sync()
		store, err := newStore(cfg, logger, nil)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to initialize: %v\n", err)
			os.Exit(1)
		}
		ctx := context.Background()
		doc, err := store.Lookup(ctx, id)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Lookup failed: %v\n", err)
			os.Exit(1)
		}
		pool, err := store.List(ctx, "")
		if err != nil {
			fmt.Fprintf(os.Stderr, "Listing failed: %v\n", err)
			os.Exit(1)
		}
		items = ranking.NewScorer(cfg.Related).Related(doc, pool, *limit)
	}
	if err := cli.WriteRelated(os.Stdout, items, format); err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(1)
	}
}

func runSection() {
	fs := flag.NewFlagSet("section", flag.ExitOnError)
	flags := addCommonFlags(fs)
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(argsReorder(os.Args[2:]))
	format := mustOutputFormat(*outputFormat)

	if fs.NArg() < 1 {
		fmt.Println("Usage: almanac section [flags] <document-id> [key...]")
		fmt.Println("Keys are tried in order; without keys the section keys are listed.")
		os.Exit(1)
	}
	id, keys := fs.Arg(0), fs.Args()[1:]

	cfg, logger, _ := flags.setup()
	defer logger.Sync()
	store, err := newStore(cfg, logger, nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize: %v\n", err)
		os.Exit(1)
	}
	doc, err := store.Lookup(context.Background(), id)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Lookup failed: %v\n", err)
		os.Exit(1)
	}
	if len(keys) == 0 {
		_ = cli.WriteSectionKeys(os.Stdout, doc.ID, sections.Of(doc), format)
		return
	}
	sec, ok := sections.Resolve(doc, keys...)
	if !ok {
		fmt.Fprintf(os.Stderr, "No section %s in %s\n", strings.Join(keys, ", "), doc.ID)
		os.Exit(1)
	}
	if err := cli.WriteSection(os.Stdout, doc.ID, sec, format); err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(1)
	}
}

func runStatus() {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	flags := addCommonFlags(fs)
	serverURL := fs.String("server", "", "server URL (empty = inspect the local index)")
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(os.Args[2:])
	format := mustOutputFormat(*outputFormat)

	var status server.StatusResponse
	if *serverURL != "" {
		if err := getJSON(*serverURL, "/api/v1/status", &status); err != nil {
			fmt.Fprintf(os.Stderr, "Status failed: %v\n", err)
			os.Exit(1)
		}
	} else {
		cfg, logger, _ := flags.setup()
		defer logger.Sync()
		ctx := context.Background()
		engine := search.NewEngine(cfg.Storage.IndexPath, &cfg.Search, search.WithLogger(logger))
		defer engine.Close()
		if _, err := engine.Reload(ctx); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to load index: %v\n", err)
			os.Exit(1)
		}
		mirror, err := openMirror(cfg)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to open mirror: %v\n", err)
			os.Exit(1)
		}
		var entries storage.Storage
		if mirror != nil {
			defer mirror.Close()
			entries = mirror
		}
		status = server.BuildStatus(ctx, engine, nil, entries, cfg)
	}
	if err := cli.WriteStatus(os.Stdout, &status, format); err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(1)
	}
}

// Components holds initialized services.
type Components struct {
	Metrics *metrics.Metrics
	Store   *cache.Store
	Engine  *search.Engine
	Scorer  *ranking.Scorer
	Builder *indexer.Builder
	Mirror  *storage.SQLiteStorage
}

// Close releases the engine index and the mirror database.
func (c *Components) Close() {
	if c.Engine != nil {
		_ = c.Engine.Close()
	}
	if c.Mirror != nil {
		_ = c.Mirror.Close()
	}
}

func newStore(cfg *config.Config, logger *zap.Logger, m *metrics.Metrics) (*cache.Store, error) {
	loader := content.NewLoader(cfg.Content, content.WithLogger(logger))
	return cache.NewStore(loader, cfg, cache.WithLogger(logger), cache.WithMetrics(m))
}

// openMirror opens the SQLite mirror when a database path is configured.
func openMirror(cfg *config.Config) (*storage.SQLiteStorage, error) {
	if cfg.Storage.DatabasePath == "" {
		return nil, nil
	}
	if err := os.MkdirAll(filepath.Dir(cfg.Storage.DatabasePath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}
	return storage.NewSQLiteStorage(cfg.Storage.DatabasePath)
}

func initializeComponents(cfg *config.Config, logger *zap.Logger) (*Components, error) {
	m := metrics.New()
	store, err := newStore(cfg, logger, m)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize content store: %w", err)
	}
	mirror, err := openMirror(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	builderOpts := []indexer.BuilderOption{indexer.WithLogger(logger), indexer.WithMetrics(m)}
	if mirror != nil {
		builderOpts = append(builderOpts, indexer.WithMirror(mirror))
	}

	return &Components{
		Metrics: m,
		Store:   store,
		Engine:  search.NewEngine(cfg.Storage.IndexPath, &cfg.Search, search.WithLogger(logger), search.WithMetrics(m)),
		Scorer:  ranking.NewScorer(cfg.Related),
		Builder: indexer.NewBuilder(store, &cfg.Search, builderOpts...),
		Mirror:  mirror,
	}, nil
}

func printUsage() {
	fmt.Println(`almanac - Content resolution and search for structured content trees

Usage:
  almanac server [flags]                    Start the HTTP server
  almanac build [flags]                     Build the search index artifact from the content tree
  almanac search [flags] <query>            Search the index
  almanac related [flags] <id>              Show related documents
  almanac section [flags] <id> [key...]     Print a document section (keys tried in order)
  almanac status [flags]                    Show index, cache and disk status
  almanac version                           Show version
  almanac help                              Show this help

Common Flags:
  --config string    Config file path (default: /usr/local/etc/almanac/config.yaml)
  --content string   Content root (overrides config)
  --index string     Index artifact path (overrides config)
  --debug            Enable debug logging

Server Flags:
  --host string      Listen host (overrides config)
  --port int         Listen port (overrides config)

Search Flags:
  --server string    Server URL; empty searches the local artifact (default: "")
  --limit int        Number of results (default 12, max 25)
  --type string      Comma-separated type filter (program, country, article, news, media, blog)
  --output string    Output format: text, compact, or json (default: text)

Related Flags:
  --server string    Server URL; empty reads the content tree (default: "")
  --limit int        Number of related items (default from config)
  --output string    Output format: text, compact, or json

Status Flags:
  --server string    Server URL; empty inspects the local index (default: "")
  --output string    Output format: text or json (default: text)

Examples:
  almanac build
  almanac server --port 9090
  almanac search golden visa
  almanac search --type program --output json "digital nomad"
  almanac related residency/portugal/golden-visa
  almanac section residency/portugal/golden-visa comparison alternatives
  almanac status --output json`)
}
