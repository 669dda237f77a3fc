package handlers

import (
	"net/http"
	"strconv"

	"github.com/xelth-com/eckposgo/internal/apperr"
	"github.com/xelth-com/eckposgo/internal/services/pricing"
)

func (r *Router) createRule(w http.ResponseWriter, req *http.Request) {
	var in pricing.NewRule
	if err := decode(req, &in); err != nil {
		r.fail(w, req, err)
		return
	}
	rule, err := r.Pricing.CreateRule(req.Context(), in)
	if err != nil {
		r.fail(w, req, err)
		return
	}
	respondJSON(w, http.StatusCreated, rule)
}

// listRules returns every rule, or only one product's with ?product_id=
func (r *Router) listRules(w http.ResponseWriter, req *http.Request) {
	var productID *uint
	if raw := req.URL.Query().Get("product_id"); raw != "" {
		v, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			r.fail(w, req, apperr.Validation("product_id must be an integer"))
			return
		}
		id := uint(v)
		productID = &id
	}
	rules, err := r.Repos.Rules.List(req.Context(), nil, productID)
	if err != nil {
		r.fail(w, req, err)
		return
	}
	respondJSON(w, http.StatusOK, rules)
}

func (r *Router) getRule(w http.ResponseWriter, req *http.Request) {
	id, err := pathID(req, "id")
	if err != nil {
		r.fail(w, req, err)
		return
	}
	rule, err := r.Repos.Rules.GetByID(req.Context(), nil, id)
	if err != nil {
		r.fail(w, req, err)
		return
	}
	respondJSON(w, http.StatusOK, rule)
}

func (r *Router) updateRule(w http.ResponseWriter, req *http.Request) {
	id, err := pathID(req, "id")
	if err != nil {
		r.fail(w, req, err)
		return
	}
	var patch pricing.RulePatch
	if err := decode(req, &patch); err != nil {
		r.fail(w, req, err)
		return
	}
	rule, err := r.Pricing.UpdateRule(req.Context(), id, patch)
	if err != nil {
		r.fail(w, req, err)
		return
	}
	respondJSON(w, http.StatusOK, rule)
}

func (r *Router) deleteRule(w http.ResponseWriter, req *http.Request) {
	id, err := pathID(req, "id")
	if err != nil {
		r.fail(w, req, err)
		return
	}
	if err := r.Pricing.DeleteRule(req.Context(), id); err != nil {
		r.fail(w, req, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "Pricing rule deleted successfully"})
}

// recomputeAll reprices the whole catalog on demand
func (r *Router) recomputeAll(w http.ResponseWriter, req *http.Request) {
	results, err := r.Pricing.RecomputeAll(req.Context(), pricing.TriggerManual)
	if err != nil {
		r.fail(w, req, err)
		return
	}
	changed := 0
	for _, res := range results {
		if res.Changed() {
			changed++
		}
	}
	respondJSON(w, http.StatusOK, map[string]int{"recomputed": len(results), "changed": changed})
}
