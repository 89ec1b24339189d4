// internal/server/handlers/discovery.go

package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"prospector/internal/domain/opportunity"
	"prospector/internal/service/discovery"
)

// DiscoveryHandler handles discovery-related HTTP requests
type DiscoveryHandler struct {
	aggregator *discovery.Aggregator
	scheduler  *discovery.Scheduler
	store      opportunity.Store
	logger     *zap.Logger
}

// NewDiscoveryHandler creates a new discovery handler. The scheduler may be
// nil when scheduled runs are disabled.
func NewDiscoveryHandler(
	aggregator *discovery.Aggregator,
	scheduler *discovery.Scheduler,
	store opportunity.Store,
	logger *zap.Logger,
) *DiscoveryHandler {
	return &DiscoveryHandler{
		aggregator: aggregator,
		scheduler:  scheduler,
		store:      store,
		logger:     logger,
	}
}

// runRequest is the body of a discovery run request. Omitted fields fall back
// to configured defaults.
type runRequest struct {
	Topics           []string `json:"topics"`
	TimeFilter       string   `json:"time_filter"`
	MinScore         float64  `json:"min_score"`
	MaxOpportunities int      `json:"max_opportunities"`
	CheckDuplicates  *bool    `json:"check_duplicates"`
	LookbackDays     int      `json:"lookback_days"`
	UseTrends        *bool    `json:"use_trends"`
}

// RunDiscovery executes a discovery run and returns the full result. The run
// itself never fails; source problems are reported in the result's errors.
func (h *DiscoveryHandler) RunDiscovery(w http.ResponseWriter, r *http.Request) {
	var req runRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondWithError(w, http.StatusBadRequest, "Invalid request body", err)
			return
		}
	}

	defaults := h.aggregator.Defaults()
	params := discovery.Params{
		Topics:           req.Topics,
		TimeFilter:       req.TimeFilter,
		MinScore:         req.MinScore,
		MaxOpportunities: req.MaxOpportunities,
		CheckDuplicates:  defaults.CheckDuplicates,
		UseTrends:        defaults.UseTrends,
		LookbackDays:     req.LookbackDays,
	}
	if req.CheckDuplicates != nil {
		params.CheckDuplicates = *req.CheckDuplicates
	}
	if req.UseTrends != nil {
		params.UseTrends = *req.UseTrends
	}

	result := h.aggregator.Run(r.Context(), params)

	// Persist survivors so later runs can suppress repeats.
	for _, opp := range result.Opportunities {
		if err := h.store.SaveOpportunity(r.Context(), opp); err != nil {
			h.logger.Warn("failed to persist opportunity",
				zap.String("id", opp.ID), zap.Error(err))
		}
	}

	respondWithJSON(w, http.StatusOK, result)
}

// QuickSearch scores a single topic without filtering or persistence.
func (h *DiscoveryHandler) QuickSearch(w http.ResponseWriter, r *http.Request) {
	topic := r.URL.Query().Get("topic")
	if topic == "" {
		respondWithError(w, http.StatusBadRequest, "Missing topic parameter", nil)
		return
	}

	timeFilter := r.URL.Query().Get("time_filter")
	opp := h.aggregator.QuickSearch(r.Context(), topic, timeFilter)

	respondWithJSON(w, http.StatusOK, opp)
}

// ListOpportunities returns stored opportunities matching the filter
func (h *DiscoveryHandler) ListOpportunities(w http.ResponseWriter, r *http.Request) {
	minScore, _ := strconv.ParseFloat(r.URL.Query().Get("min_score"), 64)

	filter := opportunity.Filter{
		MinScore: minScore,
	}

	if productType := r.URL.Query().Get("product_type"); productType != "" {
		filter.ProductType = opportunity.ProductType(productType)
	}

	if confidence := r.URL.Query().Get("confidence"); confidence != "" {
		filter.Confidence = opportunity.Confidence(confidence)
	}

	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if limit, err := strconv.Atoi(limitStr); err == nil {
			filter.Limit = limit
		}
	}

	opportunities, err := h.store.ListOpportunities(r.Context(), filter)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to list opportunities", err)
		return
	}
	if opportunities == nil {
		opportunities = []opportunity.ScoredOpportunity{}
	}

	respondWithJSON(w, http.StatusOK, opportunities)
}

// LastRun returns the result of the most recent scheduled run
func (h *DiscoveryHandler) LastRun(w http.ResponseWriter, r *http.Request) {
	if h.scheduler == nil {
		respondWithError(w, http.StatusNotFound, "Scheduled discovery is disabled", nil)
		return
	}

	result := h.scheduler.LastResult()
	if result == nil {
		respondWithError(w, http.StatusNotFound, "No scheduled run has completed yet", nil)
		return
	}

	respondWithJSON(w, http.StatusOK, result)
}

// Helper for JSON responses
func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("Failed to marshal response"))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}

// Helper for error responses
func respondWithError(w http.ResponseWriter, code int, message string, err error) {
	response := map[string]string{"error": message}
	if err != nil {
		response["detail"] = err.Error()
	}

	jsonResponse, _ := json.Marshal(response)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(jsonResponse)
}
