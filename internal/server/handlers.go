package server

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/arafta/clipdash/internal/review"
	"github.com/arafta/clipdash/internal/settings"
)

func (r *Router) handleGetSettings(w http.ResponseWriter, req *http.Request) {
	clientID := strings.ToLower(strings.TrimSpace(req.URL.Query().Get("clientId")))
	if clientID == "" {
		r.writeError(w, http.StatusBadRequest, "clientId is required", "VALIDATION_ERROR")
		return
	}
	writeJSON(w, http.StatusOK, r.store.GetSettings(clientID))
}

func (r *Router) handlePostSettings(w http.ResponseWriter, req *http.Request) {
	body, err := io.ReadAll(io.LimitReader(req.Body, 1<<20))
	if err != nil {
		r.writeError(w, http.StatusBadRequest, "failed to read request body", "READ_ERROR")
		return
	}
	var doc settings.Document
	if err := json.Unmarshal(body, &doc); err != nil {
		r.writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error(), "PARSE_ERROR")
		return
	}
	if strings.TrimSpace(doc.ClientID) == "" {
		r.writeError(w, http.StatusBadRequest, "clientId is required", "VALIDATION_ERROR")
		return
	}
	r.store.PutSettings(doc)
	w.WriteHeader(http.StatusNoContent)
}

type queueResponse struct {
	Rows   []review.Item `json:"rows"`
	Counts review.Counts `json:"counts"`
}

func (r *Router) handleGetQueue(w http.ResponseWriter, req *http.Request) {
	clientID := strings.ToLower(strings.TrimSpace(req.URL.Query().Get("client_id")))
	if clientID == "" {
		r.writeError(w, http.StatusBadRequest, "client_id is required", "VALIDATION_ERROR")
		return
	}
	rows, counts := r.store.Queue(clientID)
	if rows == nil {
		rows = []review.Item{}
	}
	writeJSON(w, http.StatusOK, queueResponse{Rows: rows, Counts: counts})
}

type bulkReviewRequest struct {
	Items []review.Update `json:"items"`
}

func (r *Router) handleBulkReviews(w http.ResponseWriter, req *http.Request) {
	body, err := io.ReadAll(io.LimitReader(req.Body, 1<<20))
	if err != nil {
		r.writeError(w, http.StatusBadRequest, "failed to read request body", "READ_ERROR")
		return
	}
	var batch bulkReviewRequest
	if err := json.Unmarshal(body, &batch); err != nil {
		r.writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error(), "PARSE_ERROR")
		return
	}
	if len(batch.Items) == 0 {
		r.writeError(w, http.StatusBadRequest, "items must not be empty", "VALIDATION_ERROR")
		return
	}
	if err := r.store.ApplyReviews(batch.Items); err != nil {
		r.writeError(w, http.StatusBadRequest, err.Error(), "VALIDATION_ERROR")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type locationsResponse struct {
	Rows       []LocationRow `json:"rows"`
	TotalViews float64       `json:"totalViews"`
}

func (r *Router) handleLocations(w http.ResponseWriter, req *http.Request) {
	clientID := strings.ToLower(strings.TrimSpace(req.URL.Query().Get("clientId")))
	if clientID == "" {
		r.writeError(w, http.StatusBadRequest, "clientId is required", "VALIDATION_ERROR")
		return
	}
	rows := r.store.Locations(clientID)
	if rows == nil {
		rows = []LocationRow{}
	}
	var total float64
	for _, row := range rows {
		total += row.WeightedViews
	}
	writeJSON(w, http.StatusOK, locationsResponse{Rows: rows, TotalViews: total})
}

func (r *Router) handleDashboard(w http.ResponseWriter, req *http.Request) {
	rows := r.store.Dashboard()
	if rows == nil {
		rows = []DashboardRow{}
	}
	writeJSON(w, http.StatusOK, rows)
}

func (r *Router) handleGetProfile(w http.ResponseWriter, req *http.Request) {
	userID := chi.URLParam(req, "user_id")
	profile, ok := r.store.Profile(userID)
	if !ok {
		r.writeError(w, http.StatusNotFound, "profile not found", "NOT_FOUND")
		return
	}
	writeJSON(w, http.StatusOK, profile)
}
