// internal/server/handlers/validation.go

package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"prospector/internal/service/validation"
)

// ValidationHandler handles organic validation HTTP requests
type ValidationHandler struct {
	tracker *validation.Tracker
}

// NewValidationHandler creates a new validation handler
func NewValidationHandler(tracker *validation.Tracker) *ValidationHandler {
	return &ValidationHandler{
		tracker: tracker,
	}
}

type startValidationRequest struct {
	OpportunityID string `json:"opportunity_id"`
	Title         string `json:"title"`
}

// StartValidation opens a validation campaign for an opportunity
func (h *ValidationHandler) StartValidation(w http.ResponseWriter, r *http.Request) {
	var req startValidationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.OpportunityID == "" {
		respondWithError(w, http.StatusBadRequest, "Missing opportunity_id", nil)
		return
	}

	if err := h.tracker.Start(req.OpportunityID, req.Title); err != nil {
		respondWithError(w, http.StatusConflict, "Failed to start validation", err)
		return
	}

	status, err := h.tracker.Status(req.OpportunityID)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to read validation status", err)
		return
	}

	respondWithJSON(w, http.StatusCreated, status)
}

type recordSignalRequest struct {
	Kind  string `json:"kind"`
	Count int    `json:"count"`
	Note  string `json:"note"`
}

// RecordSignal adds an observed signal to an open campaign
func (h *ValidationHandler) RecordSignal(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		respondWithError(w, http.StatusBadRequest, "Missing opportunity ID", nil)
		return
	}

	var req recordSignalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.Count == 0 {
		req.Count = 1
	}

	kind := validation.SignalKind(strings.ToLower(req.Kind))
	if err := h.tracker.Record(id, kind, req.Count, req.Note); err != nil {
		respondWithError(w, http.StatusBadRequest, "Failed to record signal", err)
		return
	}

	status, err := h.tracker.Status(id)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to read validation status", err)
		return
	}

	respondWithJSON(w, http.StatusOK, status)
}

// GetStatus returns the status of one validation campaign
func (h *ValidationHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		respondWithError(w, http.StatusBadRequest, "Missing opportunity ID", nil)
		return
	}

	status, err := h.tracker.Status(id)
	if err != nil {
		respondWithError(w, http.StatusNotFound, "Validation campaign not found", err)
		return
	}

	respondWithJSON(w, http.StatusOK, status)
}

// ListCampaigns returns every validation campaign, newest first
func (h *ValidationHandler) ListCampaigns(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, h.tracker.All())
}
