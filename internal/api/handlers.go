package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"clipseek/internal/middleware"
	"clipseek/internal/models"
	"clipseek/internal/services"
	"clipseek/internal/youtube"

	"github.com/gorilla/mux"
)

// Handler handles HTTP requests using the interfaces defined in this
// package (consumer-driven).
type Handler struct {
	queryService QueryService
	indexAdmin   IndexAdmin
	health       HealthChecker
}

func NewHandler(queryService QueryService, indexAdmin IndexAdmin, health HealthChecker) *Handler {
	return &Handler{
		queryService: queryService,
		indexAdmin:   indexAdmin,
		health:       health,
	}
}

// searchPayload is the request body for POST /api/search. Either url or
// video_id identifies the video.
type searchPayload struct {
	URL        string   `json:"url,omitempty"`
	VideoID    string   `json:"video_id,omitempty"`
	Query      string   `json:"query"`
	MaxResults int      `json:"max_results,omitempty"`
	MinScore   *float32 `json:"min_score,omitempty"`
}

// SearchVideo handles POST /api/search.
func (h *Handler) SearchVideo(w http.ResponseWriter, r *http.Request) {
	var payload searchPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"success": false,
			"error":   "invalid request body",
			"code":    "invalid_body",
		})
		return
	}

	videoID := payload.VideoID
	if payload.URL != "" {
		extracted, err := youtube.ExtractVideoID(payload.URL)
		if err != nil {
			writeTypedError(w, r, err)
			return
		}
		videoID = extracted
	}

	resp, err := h.queryService.Search(r.Context(), models.SearchRequest{
		VideoID:    videoID,
		Query:      payload.Query,
		MaxResults: payload.MaxResults,
		MinScore:   payload.MinScore,
	})
	if err != nil {
		writeTypedError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// GetIndexStatus handles GET /api/videos/{id}/index.
func (h *Handler) GetIndexStatus(w http.ResponseWriter, r *http.Request) {
	videoID := mux.Vars(r)["id"]
	if !youtube.ValidVideoID(videoID) {
		writeTypedError(w, r, models.ErrInvalidInput)
		return
	}

	status := map[string]any{
		"video_id": videoID,
		"state":    h.indexAdmin.State(videoID),
	}
	if idx, ok := h.indexAdmin.Cached(videoID); ok {
		status["built_at"] = idx.BuiltAt
		status["chunk_count"] = len(idx.Chunks)
		status["segment_count"] = idx.SegmentCount
		status["language"] = idx.Language
		status["is_generated"] = idx.IsGenerated
		status["duration"] = idx.Duration
	}

	writeJSON(w, http.StatusOK, status)
}

// InvalidateIndex handles DELETE /api/videos/{id}/index. The next search
// for the video rebuilds from source.
func (h *Handler) InvalidateIndex(w http.ResponseWriter, r *http.Request) {
	videoID := mux.Vars(r)["id"]
	if !youtube.ValidVideoID(videoID) {
		writeTypedError(w, r, models.ErrInvalidInput)
		return
	}

	h.indexAdmin.Invalidate(r.Context(), videoID)
	w.WriteHeader(http.StatusNoContent)
}

// Health handles GET /api/health.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	embeddingStatus := "up"
	if !h.health.Healthy(r.Context()) {
		embeddingStatus = "down"
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"status":            "ok",
		"embedding_service": embeddingStatus,
	})
}

// writeTypedError maps the engine's error taxonomy onto HTTP statuses. A
// failed search stays distinguishable from an empty successful one: errors
// always carry success=false and a machine-readable code.
func writeTypedError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	code := "internal_error"

	switch {
	case errors.Is(err, models.ErrInvalidInput):
		status, code = http.StatusBadRequest, "invalid_input"
	case errors.Is(err, models.ErrNotFound):
		status, code = http.StatusNotFound, "not_found"
	case errors.Is(err, models.ErrBuildTimeout):
		status, code = http.StatusGatewayTimeout, "timeout"
	case errors.Is(err, models.ErrDependencyUnavailable):
		status, code = http.StatusBadGateway, "dependency_unavailable"
	case errors.Is(err, models.ErrDimensionMismatch), errors.Is(err, models.ErrConfiguration):
		// Deployment misconfiguration - surface loudly, never degrade
		// silently.
		code = "configuration_error"
		log.Printf("❌ [%s] configuration error: %v", middleware.GetRequestID(r.Context()), err)
	}

	writeJSON(w, status, map[string]any{
		"success": false,
		"error":   err.Error(),
		"code":    code,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// stateIsTerminal reports whether a build event ends a status stream.
func stateIsTerminal(s services.BuildState) bool {
	return s == services.StateReady || s == services.StateFailed
}
