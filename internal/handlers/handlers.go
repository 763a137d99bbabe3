package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/XavierBriggs/fortuna/services/nfl-analytics-service/internal/store"
	"github.com/XavierBriggs/fortuna/services/nfl-analytics-service/pkg/models"
	"github.com/go-chi/chi/v5"
)

// Analyzer is the analysis surface the HTTP layer depends on.
type Analyzer interface {
	AnalyzeGame(ctx context.Context, gameID string, expanded bool) (*models.AnalysisPayload, error)
	Scoreboard(ctx context.Context, week, seasonType int) (*models.Scoreboard, error)
}

// Archive is the season archive surface the HTTP layer depends on.
type Archive interface {
	SeasonReport(ctx context.Context, filters store.SeasonFilters) ([]store.SeasonTeamRow, error)
	Ping(ctx context.Context) error
}

// Handler contains dependencies for HTTP handlers
type Handler struct {
	analyzer Analyzer
	archive  Archive
}

// NewHandler creates a new handler with dependencies. archive may be
// nil when no database is configured.
func NewHandler(analyzer Analyzer, archive Archive) *Handler {
	return &Handler{
		analyzer: analyzer,
		archive:  archive,
	}
}

// HealthCheck returns the health status of the service
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	archive := "disabled"
	if h.archive != nil {
		archive = "healthy"
		if err := h.archive.Ping(ctx); err != nil {
			archive = "unhealthy"
		}
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"archive":   archive,
		"timestamp": time.Now().UTC(),
		"service":   "nfl-analytics-service",
	})
}

// GetScoreboard returns the league scoreboard
// Query params: week, seasontype
func (h *Handler) GetScoreboard(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	week := parseIntParam(r, "week", 0)
	seasonType := parseIntParam(r, "seasontype", 0)

	board, err := h.analyzer.Scoreboard(ctx, week, seasonType)
	if err != nil {
		respondError(w, http.StatusBadGateway, "failed to retrieve scoreboard", err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"week":   board.Week.Number,
		"season": board.Season,
		"events": board.Events,
		"count":  len(board.Events),
	})
}

// GetGameAnalysis returns both stat views for one game
// Query params: expanded
func (h *Handler) GetGameAnalysis(w http.ResponseWriter, r *http.Request) {
	// Three upstream feeds may be fetched on a cache miss.
	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	gameID := chi.URLParam(r, "gameID")
	if gameID == "" {
		respondError(w, http.StatusBadRequest, "game_id is required", nil)
		return
	}
	expanded := r.URL.Query().Get("expanded") == "true" || r.URL.Query().Get("expanded") == "1"

	payload, err := h.analyzer.AnalyzeGame(ctx, gameID, expanded)
	if err != nil {
		respondError(w, http.StatusBadGateway, "failed to analyze game", err)
		return
	}

	respondJSON(w, http.StatusOK, payload)
}

// GetSeasonReport returns aggregated team stats from the archive
// Query params: season, week, variant, team
func (h *Handler) GetSeasonReport(w http.ResponseWriter, r *http.Request) {
	if h.archive == nil {
		respondError(w, http.StatusServiceUnavailable, "season archive not configured", nil)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	filters := store.SeasonFilters{
		Season:  parseIntParam(r, "season", 0),
		Week:    parseIntParam(r, "week", 0),
		Variant: r.URL.Query().Get("variant"),
		Team:    r.URL.Query().Get("team"),
	}
	if filters.Variant != "" && filters.Variant != "competitive" && filters.Variant != "full" {
		respondError(w, http.StatusBadRequest, "variant must be competitive or full", nil)
		return
	}

	report, err := h.archive.SeasonReport(ctx, filters)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to retrieve season report", err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"report": report,
		"count":  len(report),
	})
}

// parseIntParam parses an integer query parameter with a default
func parseIntParam(r *http.Request, name string, defaultValue int) int {
	valueStr := r.URL.Query().Get(name)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		fmt.Printf("error encoding response: %v\n", err)
	}
}

func respondError(w http.ResponseWriter, status int, message string, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	errResp := models.ErrorResponse{
		Error:   http.StatusText(status),
		Message: message,
		Code:    status,
	}

	if err != nil {
		fmt.Printf("error: %s - %v\n", message, err)
	}

	if err := json.NewEncoder(w).Encode(errResp); err != nil {
		fmt.Printf("error encoding error response: %v\n", err)
	}
}
