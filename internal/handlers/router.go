package handlers

import (
	"encoding/json"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/xelth-com/eckposgo/internal/apperr"
	"github.com/xelth-com/eckposgo/internal/buildinfo"
	"github.com/xelth-com/eckposgo/internal/config"
	"github.com/xelth-com/eckposgo/internal/logger"
	"github.com/xelth-com/eckposgo/internal/metrics"
	"github.com/xelth-com/eckposgo/internal/middleware"
	"github.com/xelth-com/eckposgo/internal/models"
	"github.com/xelth-com/eckposgo/internal/repository"
	"github.com/xelth-com/eckposgo/internal/services/analytics"
	"github.com/xelth-com/eckposgo/internal/services/prediction"
	"github.com/xelth-com/eckposgo/internal/services/pricing"
	"github.com/xelth-com/eckposgo/internal/services/sales"
	"github.com/xelth-com/eckposgo/internal/services/staff"
	"github.com/xelth-com/eckposgo/internal/websocket"
)

const (
	defaultPageSize = 100
	maxPageSize     = 1000
)

// Deps are the services the HTTP API is built on
type Deps struct {
	Config     *config.Config
	Repos      *repository.Repos
	Pricing    *pricing.Service
	Sales      *sales.Service
	Prediction *prediction.Service
	Analytics  *analytics.Service
	Staff      *staff.Service
	Hub        *websocket.Hub
	Log        *logger.Logger
}

// Router wraps the mux router and the services behind it
type Router struct {
	*mux.Router
	Deps
	log *logger.Logger
}

// NewRouter creates a new HTTP router with all routes
func NewRouter(d Deps) *Router {
	r := &Router{
		Router: mux.NewRouter(),
		Deps:   d,
		log:    d.Log.With("component", "api"),
	}

	authn := middleware.Auth(d.Config.JWTSecret, respondError)
	requireManager := middleware.RequireRole(respondError, models.RoleManager)
	requireStaff := middleware.RequireRole(respondError, models.RoleManager, models.RoleCashier)
	manager := func(h http.HandlerFunc) http.Handler { return authn(requireManager(h)) }
	staffOnly := func(h http.HandlerFunc) http.Handler { return authn(requireStaff(h)) }

	r.HandleFunc("/health", r.healthCheck).Methods("GET")
	r.Handle("/metrics", metrics.Handler()).Methods("GET")
	r.Handle("/ws", websocket.Handler(d.Hub, middleware.OriginAllowed(d.Config.CORSOrigins)))

	r.HandleFunc("/auth/login", r.login).Methods("POST")
	r.Handle("/auth/me", staffOnly(r.me)).Methods("GET")

	// Products
	r.Handle("/products", manager(r.createProduct)).Methods("POST")
	r.HandleFunc("/products", r.listProducts).Methods("GET")
	r.HandleFunc("/products/{id:[0-9]+}", r.getProduct).Methods("GET")
	r.Handle("/products/{id:[0-9]+}", manager(r.updateProduct)).Methods("PUT")
	r.Handle("/products/{id:[0-9]+}", manager(r.deleteProduct)).Methods("DELETE")
	r.HandleFunc("/products/{id:[0-9]+}/price-history", r.priceHistory).Methods("GET")
	r.HandleFunc("/products/{id:[0-9]+}/quote", r.quoteProduct).Methods("GET")
	r.Handle("/products/labels", staffOnly(r.shelfLabels)).Methods("GET")

	// Profit groups
	r.Handle("/profit-groups", manager(r.createGroup)).Methods("POST")
	r.HandleFunc("/profit-groups", r.listGroups).Methods("GET")
	r.HandleFunc("/profit-groups/{id:[0-9]+}", r.getGroup).Methods("GET")
	r.Handle("/profit-groups/{id:[0-9]+}/add-product/{pid:[0-9]+}", manager(r.addToGroup)).Methods("PUT")
	r.Handle("/profit-groups/{id:[0-9]+}/remove-product/{pid:[0-9]+}", manager(r.removeFromGroup)).Methods("PUT")
	r.HandleFunc("/profit-groups/{id:[0-9]+}/price-check", r.checkGroup).Methods("GET")
	r.Handle("/profit-groups/{id:[0-9]+}/adjust-prices", manager(r.adjustGroupPrices)).Methods("PUT")

	// Pricing rules
	r.Handle("/pricing-rules", manager(r.createRule)).Methods("POST")
	r.HandleFunc("/pricing-rules", r.listRules).Methods("GET")
	r.HandleFunc("/pricing-rules/{id:[0-9]+}", r.getRule).Methods("GET")
	r.Handle("/pricing-rules/{id:[0-9]+}", manager(r.updateRule)).Methods("PUT")
	r.Handle("/pricing-rules/{id:[0-9]+}", manager(r.deleteRule)).Methods("DELETE")
	r.Handle("/pricing/recompute", manager(r.recomputeAll)).Methods("POST")

	// Store status
	r.Handle("/store-status", manager(r.updateStoreStatus)).Methods("POST")
	r.HandleFunc("/store-status/latest", r.latestStoreStatus).Methods("GET")

	// Sales
	r.Handle("/sales", staffOnly(r.createSale)).Methods("POST")
	r.Handle("/sales", staffOnly(r.listSales)).Methods("GET")
	r.Handle("/sales/{id:[0-9]+}", staffOnly(r.getSale)).Methods("GET")
	r.Handle("/sales/{id:[0-9]+}/add-item", staffOnly(r.addSaleItem)).Methods("POST")

	// Prediction
	r.Handle("/prediction/train-model", manager(r.trainModel)).Methods("POST")
	r.HandleFunc("/prediction/model", r.modelInfo).Methods("GET")
	r.HandleFunc("/prediction/forecast/{pid:[0-9]+}", r.forecast).Methods("GET")
	r.HandleFunc("/prediction/optimal-price/{pid:[0-9]+}", r.optimalPrice).Methods("GET")

	// Analytics
	r.Handle("/analytics/sales-summary", staffOnly(r.salesSummary)).Methods("GET")
	r.Handle("/analytics/top-products", staffOnly(r.topProducts)).Methods("GET")

	return r
}

// HTTPHandler returns the router wrapped in the cross-cutting middleware. CORS
// sits outside mux so preflight requests never hit a method mismatch.
func (r *Router) HTTPHandler() http.Handler {
	return middleware.CORS(r.Config.CORSOrigins)(middleware.AccessLog(r.Log)(r.Router))
}

// healthCheck returns the health status of the API
func (r *Router) healthCheck(w http.ResponseWriter, req *http.Request) {
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":            "ok",
		"version":           buildinfo.Version,
		"build_time":        buildinfo.BuildTime,
		"commit":            buildinfo.CommitHash,
		"started_at":        buildinfo.StartTime().Format(time.RFC3339),
		"uptime_seconds":    int64(buildinfo.Uptime().Seconds()),
		"websocket_clients": r.Hub.ClientCount(),
		"model_trained":     r.Prediction.Info().Trained,
	})
}

// respondJSON sends a JSON response
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// respondError sends an error response
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{
		"error": message,
	})
}

// fail maps a service error onto its status code. Unclassified errors are
// logged and hidden from the client.
func (r *Router) fail(w http.ResponseWriter, req *http.Request, err error) {
	status := apperr.HTTPStatus(err)
	if status == http.StatusInternalServerError {
		r.log.Error("request failed", "method", req.Method, "path", req.URL.Path, "error", err)
		respondError(w, status, "Internal server error")
		return
	}
	respondError(w, status, err.Error())
}

func decode(req *http.Request, v interface{}) error {
	if err := json.NewDecoder(req.Body).Decode(v); err != nil {
		return apperr.Validation("invalid request payload: %v", err)
	}
	return nil
}

func pathID(req *http.Request, name string) (uint, error) {
	id, err := strconv.ParseUint(mux.Vars(req)[name], 10, 64)
	if err != nil || id == 0 {
		return 0, apperr.Validation("invalid %s", name)
	}
	return uint(id), nil
}

func queryInt(req *http.Request, name string, def int) (int, error) {
	raw := req.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apperr.Validation("%s must be an integer", name)
	}
	return v, nil
}

func queryFloat(req *http.Request, name string) (*float64, error) {
	raw := req.URL.Query().Get(name)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return nil, apperr.Validation("%s must be a finite number", name)
	}
	return &v, nil
}

// paging reads skip/limit; limit is capped at maxPageSize
func paging(req *http.Request) (offset, limit int, err error) {
	if offset, err = queryInt(req, "skip", 0); err != nil {
		return 0, 0, err
	}
	if limit, err = queryInt(req, "limit", defaultPageSize); err != nil {
		return 0, 0, err
	}
	if offset < 0 || limit <= 0 {
		return 0, 0, apperr.Validation("skip must be >= 0 and limit > 0")
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	return offset, limit, nil
}

var dateLayouts = []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"}

// period reads start_date/end_date. A date-only end_date covers that whole day.
func (r *Router) period(req *http.Request) (repository.Period, error) {
	var p repository.Period
	loc := r.Config.Store.Location
	if loc == nil {
		loc = time.UTC
	}
	parse := func(name string, endOfDay bool) (*time.Time, error) {
		raw := req.URL.Query().Get(name)
		if raw == "" {
			return nil, nil
		}
		for _, layout := range dateLayouts {
			t, err := time.ParseInLocation(layout, raw, loc)
			if err != nil {
				continue
			}
			if endOfDay && layout == "2006-01-02" {
				t = t.Add(24*time.Hour - time.Second)
			}
			t = t.UTC()
			return &t, nil
		}
		return nil, apperr.Validation("%s must be a date (YYYY-MM-DD) or RFC 3339 timestamp", name)
	}
	var err error
	if p.From, err = parse("start_date", false); err != nil {
		return p, err
	}
	if p.To, err = parse("end_date", true); err != nil {
		return p, err
	}
	if p.From != nil && p.To != nil && p.From.After(*p.To) {
		return p, apperr.Validation("start_date is after end_date")
	}
	return p, nil
}
