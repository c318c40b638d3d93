package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/dshills/recipesearch/internal/searcher"
	"github.com/dshills/recipesearch/internal/storage"
	"github.com/dshills/recipesearch/pkg/types"
)

const maxBodyBytes = 1 << 20

// searchRequest is the body of /search and /compare. Fields absent from the
// body keep the preset's value, or the server default without a preset.
type searchRequest struct {
	types.ConditionParams
	Preset     string `json:"preset,omitempty"`
	PreferMode string `json:"prefer_mode,omitempty"`
}

type analyzeRequest struct {
	Query string `json:"query"`
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	req, cond, ok := s.decodeCondition(w, r)
	if !ok {
		return
	}
	s.logger.Debug("search request",
		zap.String("mode", string(cond.Mode())),
		zap.String("preset", req.Preset),
		zap.Int("max_results", cond.MaxResults()))

	resp, err := s.searcher.Search(r.Context(), cond)
	if err != nil {
		s.fail(w, "search failed", err)
		return
	}
	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCompare(w http.ResponseWriter, r *http.Request) {
	req, cond, ok := s.decodeCondition(w, r)
	if !ok {
		return
	}

	var prefer types.SearchMode
	if req.PreferMode != "" {
		var err error
		if prefer, err = types.ParseMode(req.PreferMode); err != nil {
			s.respondError(w, http.StatusBadRequest, err.Error())
			return
		}
	}

	cmp, err := s.searcher.CompareModes(r.Context(), cond, prefer)
	if err != nil {
		s.fail(w, "comparison failed", err)
		return
	}
	s.respondJSON(w, http.StatusOK, cmp)
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req analyzeRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Query == "" {
		s.respondError(w, http.StatusBadRequest, "query is required")
		return
	}
	s.respondJSON(w, http.StatusOK, s.searcher.AnalyzeQuery(req.Query))
}

func (s *Server) handleSuggest(w http.ResponseWriter, r *http.Request) {
	partial := r.URL.Query().Get("q")
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"partial":     partial,
		"suggestions": s.searcher.SuggestKeywords(partial),
	})
}

func (s *Server) handleGetRecipe(w http.ResponseWriter, r *http.Request) {
	id, ok := s.recipeID(w, r)
	if !ok {
		return
	}
	recipe, err := s.storage.GetRecipe(r.Context(), id)
	if err != nil {
		s.fail(w, "get recipe failed", err)
		return
	}
	s.respondJSON(w, http.StatusOK, recipe)
}

func (s *Server) handleSimilar(w http.ResponseWriter, r *http.Request) {
	id, ok := s.recipeID(w, r)
	if !ok {
		return
	}
	limit := searcher.DefaultSimilarLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > types.MaxResultsLimit {
			s.respondError(w, http.StatusBadRequest, "limit must be between 1 and 100")
			return
		}
		limit = n
	}

	if _, err := s.storage.GetRecipe(r.Context(), id); err != nil {
		s.fail(w, "get recipe failed", err)
		return
	}
	results, err := s.searcher.FindSimilar(r.Context(), id, limit)
	if err != nil {
		s.fail(w, "similarity search failed", err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"recipe_id": id,
		"results":   results,
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	status, err := s.storage.GetStatus(r.Context())
	if err != nil {
		s.fail(w, "status failed", err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"backend":          status.Backend,
		"build_mode":       status.BuildMode,
		"schema_version":   status.SchemaVersion,
		"recipes":          status.RecipeCount,
		"embeddings":       status.EmbeddingCount,
		"search_logs":      status.SearchLogCount,
		"disk_usage_bytes": status.DatabaseSize,
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// decodeCondition reads a searchRequest and builds its condition. On
// failure it has already written the response.
func (s *Server) decodeCondition(w http.ResponseWriter, r *http.Request) (*searchRequest, types.SearchCondition, bool) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return nil, types.SearchCondition{}, false
	}

	var head struct {
		Preset string `json:"preset"`
	}
	if len(body) > 0 {
		if err := json.Unmarshal(body, &head); err != nil {
			s.respondError(w, http.StatusBadRequest, "invalid request body")
			return nil, types.SearchCondition{}, false
		}
	}

	req := &searchRequest{ConditionParams: s.defaults}
	if head.Preset != "" {
		scenario, ok := types.FindScenario(head.Preset)
		if !ok {
			s.respondError(w, http.StatusBadRequest, fmt.Sprintf("unknown preset %q", head.Preset))
			return nil, types.SearchCondition{}, false
		}
		req.ConditionParams = scenario.Params
	}
	if len(body) > 0 {
		if err := json.Unmarshal(body, req); err != nil {
			s.respondError(w, http.StatusBadRequest, "invalid request body")
			return nil, types.SearchCondition{}, false
		}
	}

	if req.Mode != "" {
		mode, err := types.ParseMode(string(req.Mode))
		if err != nil {
			s.respondError(w, http.StatusBadRequest, err.Error())
			return nil, types.SearchCondition{}, false
		}
		req.Mode = mode
	}

	cond, err := types.NewSearchCondition(req.ConditionParams)
	if err != nil {
		s.respondError(w, statusFor(err), err.Error())
		return nil, types.SearchCondition{}, false
	}
	return req, cond, true
}

func (s *Server) recipeID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		s.respondError(w, http.StatusBadRequest, "invalid recipe id")
		return 0, false
	}
	return id, true
}

// statusFor maps the error taxonomy onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, types.ErrConfiguration), errors.Is(err, types.ErrUnsupportedMode):
		return http.StatusBadRequest
	case errors.Is(err, types.ErrNotFound), errors.Is(err, storage.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, types.ErrTimeout):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) fail(w http.ResponseWriter, message string, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error(message, zap.Int("status", status), zap.Error(err))
	} else {
		s.logger.Debug(message, zap.Int("status", status), zap.Error(err))
	}
	s.respondError(w, status, err.Error())
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}
