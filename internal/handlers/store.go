package handlers

import (
	"net/http"

	"github.com/xelth-com/eckposgo/internal/services/pricing"
)

// updateStoreStatus records a new reading and reprices every product
func (r *Router) updateStoreStatus(w http.ResponseWriter, req *http.Request) {
	var in pricing.StoreStatusInput
	if err := decode(req, &in); err != nil {
		r.fail(w, req, err)
		return
	}
	status, err := r.Pricing.UpdateStoreStatus(req.Context(), in)
	if err != nil {
		r.fail(w, req, err)
		return
	}
	respondJSON(w, http.StatusCreated, status)
}

func (r *Router) latestStoreStatus(w http.ResponseWriter, req *http.Request) {
	status, err := r.Pricing.LatestStoreStatus(req.Context())
	if err != nil {
		r.fail(w, req, err)
		return
	}
	respondJSON(w, http.StatusOK, status)
}
