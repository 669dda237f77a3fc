package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xelth-com/eckposgo/internal/config"
	"github.com/xelth-com/eckposgo/internal/forecast"
	"github.com/xelth-com/eckposgo/internal/models"
	"github.com/xelth-com/eckposgo/internal/repository"
	"github.com/xelth-com/eckposgo/internal/repository/testutil"
	"github.com/xelth-com/eckposgo/internal/services/analytics"
	"github.com/xelth-com/eckposgo/internal/services/prediction"
	"github.com/xelth-com/eckposgo/internal/services/pricing"
	"github.com/xelth-com/eckposgo/internal/services/sales"
	"github.com/xelth-com/eckposgo/internal/services/staff"
	"github.com/xelth-com/eckposgo/internal/websocket"
)

type api struct {
	t       *testing.T
	handler http.Handler
	repos   *repository.Repos
	manager string
	cashier string
}

func newAPI(t *testing.T) *api {
	t.Helper()
	log := testutil.Logger(t)
	repos := repository.New(testutil.DB(t), log)
	cfg := &config.Config{
		JWTSecret:   "handler-test-secret",
		Store:       config.StoreConfig{Location: time.UTC},
		Prediction:  config.PredictionConfig{ForecastDays: 7, MaxForecastDays: 30},
		CORSOrigins: []string{"*"},
	}

	hub := websocket.NewHub(log)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go hub.Run(ctx)
	notifier := websocket.NewNotifier(hub)

	prices := pricing.NewService(repos, notifier, time.UTC, log)
	staffSvc := staff.NewService(repos, cfg.JWTSecret, log)
	router := NewRouter(Deps{
		Config:     cfg,
		Repos:      repos,
		Pricing:    prices,
		Sales:      sales.NewService(repos, prices, notifier, log),
		Prediction: prediction.NewService(repos, forecast.NewModel(), log),
		Analytics:  analytics.NewService(repos, log),
		Staff:      staffSvc,
		Hub:        hub,
		Log:        log,
	})

	a := &api{t: t, handler: router.HTTPHandler(), repos: repos}
	_, err := staffSvc.Create(ctx, staff.NewStaff{Username: "boss", Password: "manager-pass", Role: models.RoleManager})
	require.NoError(t, err)
	_, err = staffSvc.Create(ctx, staff.NewStaff{Username: "till", Password: "cashier-pass", Role: models.RoleCashier})
	require.NoError(t, err)
	a.manager = a.login("boss", "manager-pass")
	a.cashier = a.login("till", "cashier-pass")
	return a
}

func (a *api) do(method, path, token string, body interface{}) *httptest.ResponseRecorder {
	a.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(a.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	a.handler.ServeHTTP(rec, req)
	return rec
}

func (a *api) decode(rec *httptest.ResponseRecorder, v interface{}) {
	a.t.Helper()
	require.NoError(a.t, json.Unmarshal(rec.Body.Bytes(), v), rec.Body.String())
}

func (a *api) login(username, password string) string {
	a.t.Helper()
	rec := a.do(http.MethodPost, "/auth/login", "", LoginRequest{Username: username, Password: password})
	require.Equal(a.t, http.StatusOK, rec.Code, rec.Body.String())
	var session staff.Session
	a.decode(rec, &session)
	return session.Token
}

func (a *api) createProduct(sku string, cost, base float64, stock int) models.Product {
	a.t.Helper()
	rec := a.do(http.MethodPost, "/products", a.manager, pricing.NewProduct{
		SKU: sku, Name: sku, CostPrice: cost, BasePrice: base, StockQuantity: stock,
	})
	require.Equal(a.t, http.StatusCreated, rec.Code, rec.Body.String())
	var p models.Product
	a.decode(rec, &p)
	return p
}

func TestHealthAndMetrics(t *testing.T) {
	a := newAPI(t)

	rec := a.do(http.MethodGet, "/health", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var health map[string]interface{}
	a.decode(rec, &health)
	assert.Equal(t, "ok", health["status"])
	assert.Equal(t, false, health["model_trained"])

	rec = a.do(http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "eckpos_")
}

func TestLoginFailures(t *testing.T) {
	a := newAPI(t)
	rec := a.do(http.MethodPost, "/auth/login", "", LoginRequest{Username: "boss", Password: "nope"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = a.do(http.MethodGet, "/auth/me", a.cashier, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"role":"cashier"`)
}

func TestProductWritesNeedManager(t *testing.T) {
	a := newAPI(t)
	body := pricing.NewProduct{SKU: "X", Name: "X", CostPrice: 1, BasePrice: 2}

	assert.Equal(t, http.StatusUnauthorized, a.do(http.MethodPost, "/products", "", body).Code)
	assert.Equal(t, http.StatusForbidden, a.do(http.MethodPost, "/products", a.cashier, body).Code)
	assert.Equal(t, http.StatusCreated, a.do(http.MethodPost, "/products", a.manager, body).Code)
	assert.Equal(t, http.StatusConflict, a.do(http.MethodPost, "/products", a.manager, body).Code)
}

func TestProductLifecycle(t *testing.T) {
	a := newAPI(t)
	p := a.createProduct("MILK", 1, 2, 50)
	assert.Equal(t, 2.0, p.CurrentPrice)

	rec := a.do(http.MethodGet, "/products?skip=0&limit=10", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var list []models.Product
	a.decode(rec, &list)
	assert.Len(t, list, 1)

	rec = a.do(http.MethodPut, fmt.Sprintf("/products/%d", p.ID), a.manager, map[string]interface{}{"base_price": 3})
	require.Equal(t, http.StatusOK, rec.Code)
	a.decode(rec, &p)
	assert.Equal(t, 3.0, p.CurrentPrice)

	rec = a.do(http.MethodGet, fmt.Sprintf("/products/%d/price-history", p.ID), "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var history []models.PriceChange
	a.decode(rec, &history)
	require.NotEmpty(t, history)
	assert.Equal(t, 3.0, history[0].NewPrice)

	rec = a.do(http.MethodGet, fmt.Sprintf("/products/%d/quote", p.ID), "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	assert.Equal(t, http.StatusOK, a.do(http.MethodDelete, fmt.Sprintf("/products/%d", p.ID), a.manager, nil).Code)
	assert.Equal(t, http.StatusNotFound, a.do(http.MethodGet, fmt.Sprintf("/products/%d", p.ID), "", nil).Code)
	assert.Equal(t, http.StatusBadRequest, a.do(http.MethodGet, "/products?limit=abc", "", nil).Code)
}

func TestRulesAndStoreStatus(t *testing.T) {
	a := newAPI(t)
	p := a.createProduct("ICE", 1, 4, 10)

	rec := a.do(http.MethodPost, "/pricing-rules", a.manager, map[string]interface{}{
		"product_id":          p.ID,
		"rule_type":           "vacancy_rate",
		"condition":           map[string]float64{"min_rate": 50},
		"discount_percentage": 25,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var rule models.PricingRule
	a.decode(rec, &rule)
	assert.True(t, rule.IsActive)

	rec = a.do(http.MethodPost, "/store-status", a.manager, map[string]interface{}{"vacancy_rate": 80, "line_length": 2})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = a.do(http.MethodGet, fmt.Sprintf("/products/%d", p.ID), "", nil)
	a.decode(rec, &p)
	assert.Equal(t, 3.0, p.CurrentPrice)

	rec = a.do(http.MethodGet, "/store-status/latest", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var status models.StoreStatus
	a.decode(rec, &status)
	assert.Equal(t, 80.0, status.VacancyRate)

	rec = a.do(http.MethodGet, fmt.Sprintf("/pricing-rules?product_id=%d", p.ID), "", nil)
	var rules []models.PricingRule
	a.decode(rec, &rules)
	assert.Len(t, rules, 1)

	rec = a.do(http.MethodPost, "/pricing-rules", a.manager, map[string]interface{}{
		"product_id": p.ID, "rule_type": "moon_phase", "condition": map[string]int{}, "discount_percentage": 5,
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = a.do(http.MethodDelete, fmt.Sprintf("/pricing-rules/%d", rule.ID), a.manager, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	rec = a.do(http.MethodGet, fmt.Sprintf("/products/%d", p.ID), "", nil)
	a.decode(rec, &p)
	assert.Equal(t, 4.0, p.CurrentPrice)
}

func TestProfitGroupRoutes(t *testing.T) {
	a := newAPI(t)
	first := a.createProduct("A", 1, 2, 10)
	second := a.createProduct("B", 1, 2, 10)

	rec := a.do(http.MethodPost, "/profit-groups", a.manager, GroupRequest{Name: "combo", MinProfitPrice: 5})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var g models.ProfitGroup
	a.decode(rec, &g)

	for _, p := range []models.Product{first, second} {
		rec = a.do(http.MethodPut, fmt.Sprintf("/profit-groups/%d/add-product/%d", g.ID, p.ID), a.manager, nil)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	}

	rec = a.do(http.MethodGet, fmt.Sprintf("/profit-groups/%d/price-check", g.ID), "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var report pricing.GroupReport
	a.decode(rec, &report)
	assert.Len(t, report.Products, 2)
	// A absorbed the whole shortfall when it joined alone
	assert.InDelta(t, 6.0, report.CurrentProfit, 1e-9)
	assert.True(t, report.MeetsRequirement)

	rec = a.do(http.MethodPut, fmt.Sprintf("/profit-groups/%d/adjust-prices", g.ID), a.manager, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var rebalance pricing.RebalanceReport
	a.decode(rec, &rebalance)
	assert.Equal(t, "Group already meets profit requirement", rebalance.Message)

	rec = a.do(http.MethodPut, fmt.Sprintf("/profit-groups/%d/remove-product/%d", g.ID, second.ID), a.manager, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	rec = a.do(http.MethodPut, fmt.Sprintf("/profit-groups/%d/remove-product/%d", g.ID, second.ID), a.manager, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = a.do(http.MethodPut, fmt.Sprintf("/profit-groups/%d/add-product/%d", 999, first.ID), a.manager, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSalesAndAnalytics(t *testing.T) {
	a := newAPI(t)
	p := a.createProduct("TEA", 2, 5, 3)

	assert.Equal(t, http.StatusUnauthorized, a.do(http.MethodPost, "/sales", "", nil).Code)

	rec := a.do(http.MethodPost, "/sales", a.cashier, sales.NewSale{PaymentMethod: "cash"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var sale sales.Detail
	a.decode(rec, &sale)

	itemPath := fmt.Sprintf("/sales/%d/add-item", sale.ID)
	rec = a.do(http.MethodPost, itemPath, a.cashier, AddItemRequest{ProductID: p.ID, Quantity: 2})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	rec = a.do(http.MethodPost, itemPath, a.cashier, AddItemRequest{ProductID: p.ID, Quantity: 5})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "not enough stock available")

	rec = a.do(http.MethodGet, fmt.Sprintf("/sales/%d", sale.ID), a.cashier, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	a.decode(rec, &sale)
	assert.Equal(t, 10.0, sale.TotalAmount)
	require.Len(t, sale.Items, 1)
	assert.Equal(t, "TEA", sale.Items[0].ProductName)

	today := time.Now().UTC().Format("2006-01-02")
	rec = a.do(http.MethodGet, "/sales?start_date="+today+"&end_date="+today, a.cashier, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var list []models.Sale
	a.decode(rec, &list)
	assert.Len(t, list, 1)
	assert.Equal(t, http.StatusBadRequest, a.do(http.MethodGet, "/sales?start_date=yesterday", a.cashier, nil).Code)

	rec = a.do(http.MethodGet, "/analytics/sales-summary", a.manager, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var summary analytics.Summary
	a.decode(rec, &summary)
	assert.Equal(t, 10.0, summary.TotalRevenue)
	assert.Equal(t, 6.0, summary.TotalProfit)
	assert.Equal(t, 1, summary.SalesCount)

	rec = a.do(http.MethodGet, "/analytics/top-products?limit=5", a.manager, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var top []repository.ProductSales
	a.decode(rec, &top)
	require.Len(t, top, 1)
	assert.Equal(t, 2, top[0].TotalQuantity)
}

func TestPredictionRoutes(t *testing.T) {
	a := newAPI(t)
	p := a.createProduct("BEANS", 1, 3, 10)

	rec := a.do(http.MethodGet, fmt.Sprintf("/prediction/forecast/%d", p.ID), "", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
	rec = a.do(http.MethodPost, "/prediction/train-model", a.cashier, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	rec = a.do(http.MethodPost, "/prediction/train-model", a.manager, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = a.do(http.MethodGet, "/prediction/model", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"trained":false`)

	rec = a.do(http.MethodGet, fmt.Sprintf("/prediction/optimal-price/%d?min_price=oops", p.ID), "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPredictionRoutesRejectUnboundedInput(t *testing.T) {
	a := newAPI(t)
	p := a.createProduct("TEA", 1, 3, 10)

	for _, days := range []string{"0", "-3", "31", "3000000"} {
		rec := a.do(http.MethodGet, fmt.Sprintf("/prediction/forecast/%d?days=%s", p.ID, days), "", nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code, "days=%s", days)
	}

	for _, query := range []string{"min_price=NaN", "max_price=Inf", "min_price=-Inf&max_price=5", "min_price=-1"} {
		rec := a.do(http.MethodGet, fmt.Sprintf("/prediction/optimal-price/%d?%s", p.ID, query), "", nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code, query)
		assert.NotEmpty(t, rec.Body.String(), query)
	}
}

func TestCORSPreflight(t *testing.T) {
	a := newAPI(t)
	req := httptest.NewRequest(http.MethodOptions, "/products", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", "POST")
	rec := httptest.NewRecorder()
	a.handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestShelfLabels(t *testing.T) {
	a := newAPI(t)
	milk := a.createProduct("MILK", 1, 2, 10)
	a.createProduct("BREAD", 1, 3, 10)

	rec := a.do(http.MethodGet, "/products/labels", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = a.do(http.MethodGet, "/products/labels", a.cashier, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("%PDF-")))

	rec = a.do(http.MethodGet, fmt.Sprintf("/products/labels?ids=%d&cols=2&rows=4", milk.ID), a.cashier, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = a.do(http.MethodGet, "/products/labels?ids=abc", a.cashier, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = a.do(http.MethodGet, fmt.Sprintf("/products/labels?ids=%d,9999", milk.ID), a.cashier, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = a.do(http.MethodGet, "/products/labels?cols=0", a.cashier, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
