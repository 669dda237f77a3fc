package handlers

import (
	"net/http"

	"github.com/xelth-com/eckposgo/internal/services/analytics"
)

func (r *Router) salesSummary(w http.ResponseWriter, req *http.Request) {
	period, err := r.period(req)
	if err != nil {
		r.fail(w, req, err)
		return
	}
	summary, err := r.Analytics.SalesSummary(req.Context(), period)
	if err != nil {
		r.fail(w, req, err)
		return
	}
	respondJSON(w, http.StatusOK, summary)
}

func (r *Router) topProducts(w http.ResponseWriter, req *http.Request) {
	limit, err := queryInt(req, "limit", analytics.DefaultTopLimit)
	if err != nil {
		r.fail(w, req, err)
		return
	}
	top, err := r.Analytics.TopProducts(req.Context(), limit)
	if err != nil {
		r.fail(w, req, err)
		return
	}
	respondJSON(w, http.StatusOK, top)
}
