package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/hyperjump/almanac/internal/cache"
	"github.com/hyperjump/almanac/internal/docid"
	"github.com/hyperjump/almanac/internal/models"
	"github.com/hyperjump/almanac/internal/sections"
	"github.com/hyperjump/almanac/internal/storage"
	"go.uber.org/zap"
)

const (
	defaultEntriesLimit = 50
	maxEntriesLimit     = 500
)

func (s *Server) handleSearchGet(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, err := intParam(q.Get("limit"))
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid limit")
		return
	}
	s.runSearch(w, r, &models.SearchQuery{
		Query: q.Get("q"),
		Types: listParam(q["type"]),
		Limit: limit,
	})
}

func (s *Server) handleSearchPost(w http.ResponseWriter, r *http.Request) {
	var query models.SearchQuery
	if err := json.NewDecoder(r.Body).Decode(&query); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	s.runSearch(w, r, &query)
}

func (s *Server) runSearch(w http.ResponseWriter, r *http.Request, query *models.SearchQuery) {
	s.logger.Debug("search request", zap.String("query", query.Query), zap.Int("limit", query.Limit))
	response, err := s.engine.Search(r.Context(), query)
	if err != nil {
		s.logger.Error("search failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, response)
}

func (s *Server) handleGetDocument(w http.ResponseWriter, r *http.Request) {
	doc, ok := s.lookup(w, r)
	if !ok {
		return
	}
	s.respondJSON(w, http.StatusOK, doc)
}

// handleGetSection returns the first section matching the key parameters, tried
// in order, or every section when no key is given.
func (s *Server) handleGetSection(w http.ResponseWriter, r *http.Request) {
	doc, ok := s.lookup(w, r)
	if !ok {
		return
	}
	keys := listParam(r.URL.Query()["key"])
	if len(keys) == 0 {
		s.respondJSON(w, http.StatusOK, map[string]any{
			"id":       doc.ID,
			"sections": sections.Of(doc),
		})
		return
	}
	sec, found := sections.Resolve(doc, keys...)
	if !found {
		s.respondError(w, http.StatusNotFound, "section not found")
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]any{
		"id":       doc.ID,
		"section":  sec,
		"markdown": sec.Markdown(),
	})
}

func (s *Server) handleRelated(w http.ResponseWriter, r *http.Request) {
	limit, err := intParam(r.URL.Query().Get("limit"))
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid limit")
		return
	}
	doc, ok := s.lookup(w, r)
	if !ok {
		return
	}
	pool, err := s.store.List(r.Context(), "")
	if err != nil {
		s.logger.Error("related: list documents failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	items := s.scorer.Related(doc, pool, limit)
	s.respondJSON(w, http.StatusOK, map[string]any{
		"id":    doc.ID,
		"count": len(items),
		"items": items,
	})
}

func (s *Server) handleListEntries(w http.ResponseWriter, r *http.Request) {
	if s.mirror == nil {
		s.respondError(w, http.StatusNotImplemented, "index mirror not enabled")
		return
	}
	q := r.URL.Query()
	offset, err := intParam(q.Get("offset"))
	if err != nil || offset < 0 {
		s.respondError(w, http.StatusBadRequest, "invalid offset")
		return
	}
	limit, err := intParam(q.Get("limit"))
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid limit")
		return
	}
	if limit <= 0 {
		limit = defaultEntriesLimit
	}
	limit = min(limit, maxEntriesLimit)
	typ := strings.ToLower(strings.TrimSpace(q.Get("type")))

	ctx := r.Context()
	total, err := s.mirror.CountEntries(ctx, typ)
	if err != nil {
		s.logger.Error("entries: count failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	entries, err := s.mirror.ListEntries(ctx, typ, offset, limit)
	if err != nil {
		s.logger.Error("entries: list failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]any{
		"total":  total,
		"offset": offset,
		"limit":  limit,
		"items":  entries,
	})
}

func (s *Server) handleGetEntry(w http.ResponseWriter, r *http.Request) {
	if s.mirror == nil {
		s.respondError(w, http.StatusNotImplemented, "index mirror not enabled")
		return
	}
	id := docid.Clean(chi.URLParam(r, "*"))
	entry, err := s.mirror.GetEntry(r.Context(), id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			s.respondError(w, http.StatusNotFound, "entry not found")
			return
		}
		s.logger.Error("entry lookup failed", zap.String("id", id), zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, entry)
}

// handleInvalidate drops cached snapshots: one subtree, or all of them when
// subtree is empty.
func (s *Server) handleInvalidate(w http.ResponseWriter, r *http.Request) {
	subtree := docid.Clean(r.URL.Query().Get("subtree"))
	if subtree == "" {
		s.store.Purge()
	} else {
		s.store.Invalidate(subtree)
	}
	s.logger.Info("cache invalidated", zap.String("subtree", subtree))
	s.respondJSON(w, http.StatusOK, map[string]any{"status": "invalidated", "subtree": subtree, "cache": s.store.Stats()})
}

// handleReload swaps in the artifact on disk. With rebuild=true the artifact is
// first rebuilt from the content tree.
func (s *Server) handleReload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	rebuild, _ := strconv.ParseBool(r.URL.Query().Get("rebuild"))
	resp := map[string]any{}
	if rebuild {
		if s.builder == nil {
			s.respondError(w, http.StatusNotImplemented, "index rebuild not enabled")
			return
		}
		// Edits within the filesystem's mtime resolution leave stamps unchanged.
		s.store.Purge()
		art, err := s.builder.BuildAndWrite(ctx, s.config.Storage.IndexPath, time.Now().UTC())
		if err != nil {
			s.logger.Error("index rebuild failed", zap.Error(err))
			s.respondError(w, http.StatusInternalServerError, err.Error())
			return
		}
		resp["built"] = art.Count
	}
	st, err := s.engine.Reload(ctx)
	if err != nil {
		s.logger.Error("index reload failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	resp["status"] = "reloaded"
	resp["index"] = st
	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, BuildStatus(r.Context(), s.engine, s.store, s.mirror, s.config))
}

// lookup resolves the document named by the wildcard path segment, writing a
// 404 or 500 response when it cannot.
func (s *Server) lookup(w http.ResponseWriter, r *http.Request) (*models.Document, bool) {
	id := chi.URLParam(r, "*")
	doc, err := s.store.Lookup(r.Context(), id)
	if err != nil {
		if errors.Is(err, cache.ErrNotFound) {
			s.respondError(w, http.StatusNotFound, "document not found")
			return nil, false
		}
		s.logger.Error("document lookup failed", zap.String("id", id), zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return nil, false
	}
	return doc, true
}

// intParam parses an optional integer query parameter; empty yields 0.
func intParam(v string) (int, error) {
	if v == "" {
		return 0, nil
	}
	return strconv.Atoi(v)
}

// listParam flattens repeated and comma-separated parameter values.
func listParam(values []string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}
