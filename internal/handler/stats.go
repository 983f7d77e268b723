package handler

import (
	"net/http"
	"strconv"

	"github.com/leca/ace-image-gateway/internal/api"
	"github.com/leca/ace-image-gateway/internal/model"
)

const (
	defaultRecentLimit = 20
	maxRecentLimit     = 100
)

// GetStats handles GET /stats -- aggregate delivery outcomes.
func (h *Handler) GetStats(w http.ResponseWriter, r *http.Request) {
	st, err := h.DB.DeliveryStats()
	if err != nil {
		api.InternalError(w, r, "failed to read delivery stats")
		return
	}

	result := map[string]interface{}{
		"deliveries": st,
	}
	api.WriteJSON(w, r, http.StatusOK, api.SuccessResponse(result))
}

// ListRecentDeliveries handles GET /stats/recent?limit=N.
func (h *Handler) ListRecentDeliveries(w http.ResponseWriter, r *http.Request) {
	limit := defaultRecentLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			api.BadRequest(w, r, "limit must be a positive integer")
			return
		}
		limit = min(n, maxRecentLimit)
	}

	deliveries, err := h.DB.RecentDeliveries(limit)
	if err != nil {
		api.InternalError(w, r, "failed to list deliveries")
		return
	}
	if deliveries == nil {
		deliveries = []*model.Delivery{}
	}
	api.WriteJSON(w, r, http.StatusOK, api.SuccessResponse(deliveries))
}
