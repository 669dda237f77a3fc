package handlers

import (
	"net/http"

	"github.com/xelth-com/eckposgo/internal/apperr"
)

func (r *Router) trainModel(w http.ResponseWriter, req *http.Request) {
	res, err := r.Prediction.Train(req.Context())
	if err != nil {
		r.fail(w, req, err)
		return
	}
	respondJSON(w, http.StatusOK, res)
}

func (r *Router) modelInfo(w http.ResponseWriter, req *http.Request) {
	respondJSON(w, http.StatusOK, r.Prediction.Info())
}

// forecast predicts ?days= days ahead (FORECAST_DAYS by default, at most
// FORECAST_MAX_DAYS)
func (r *Router) forecast(w http.ResponseWriter, req *http.Request) {
	pid, err := pathID(req, "pid")
	if err != nil {
		r.fail(w, req, err)
		return
	}
	days, err := queryInt(req, "days", r.Config.Prediction.ForecastDays)
	if err != nil {
		r.fail(w, req, err)
		return
	}
	if limit := r.Config.Prediction.MaxForecastDays; limit > 0 && (days < 1 || days > limit) {
		r.fail(w, req, apperr.Validation("days must be between 1 and %d", limit))
		return
	}
	fc, err := r.Prediction.Forecast(req.Context(), pid, days)
	if err != nil {
		r.fail(w, req, err)
		return
	}
	respondJSON(w, http.StatusOK, fc)
}

// optimalPrice scans ?min_price=&max_price= (defaults derived from cost and base)
func (r *Router) optimalPrice(w http.ResponseWriter, req *http.Request) {
	pid, err := pathID(req, "pid")
	if err != nil {
		r.fail(w, req, err)
		return
	}
	lo, err := queryFloat(req, "min_price")
	if err != nil {
		r.fail(w, req, err)
		return
	}
	hi, err := queryFloat(req, "max_price")
	if err != nil {
		r.fail(w, req, err)
		return
	}
	best, err := r.Prediction.OptimalPrice(req.Context(), pid, lo, hi)
	if err != nil {
		r.fail(w, req, err)
		return
	}
	respondJSON(w, http.StatusOK, best)
}
