package server

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/hyperjump/chishiki/internal/models"
	"github.com/hyperjump/chishiki/internal/storage"
)

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req models.SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	s.logger.Debug("search request",
		zap.String("query", req.Query), zap.String("mode", req.Mode), zap.Int("k", req.K))
	resp, err := s.searcher.Search(r.Context(), &req)
	if err != nil {
		s.logger.Error("search failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	resp := map[string]interface{}{
		"vector_index_size":   s.searcher.VectorIndexSize(),
		"noun_documents":      s.searcher.NounDocumentCount(),
		"keyword_index_size":  s.searcher.KeywordDocCount(),
		"embedding_dimension": s.config.Embedding.Dimensions,
	}

	if s.catalog != nil {
		counts, err := s.catalog.GetCounts()
		if err != nil {
			s.logger.Error("status: catalog counts failed", zap.Error(err))
			s.respondError(w, http.StatusInternalServerError, err.Error())
			return
		}
		resp["catalog"] = counts
	}

	usage, err := storage.DiskUsageBytes(
		s.config.Paths.ExtractedDir,
		s.config.Paths.EmbeddingsDir,
		s.config.Paths.DatabasePath,
		s.config.Paths.KeywordIndexPath,
		s.config.Paths.VectorIndexPath,
	)
	if err != nil {
		s.logger.Warn("status: disk usage failed", zap.Error(err))
	} else {
		resp["disk_usage_bytes"] = usage
	}

	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Error("failed to encode response", zap.Error(err))
	}
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}
