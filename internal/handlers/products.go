package handlers

import (
	"net/http"

	"github.com/xelth-com/eckposgo/internal/services/pricing"
)

const defaultHistoryLimit = 50

func (r *Router) createProduct(w http.ResponseWriter, req *http.Request) {
	var in pricing.NewProduct
	if err := decode(req, &in); err != nil {
		r.fail(w, req, err)
		return
	}
	p, err := r.Pricing.CreateProduct(req.Context(), in)
	if err != nil {
		r.fail(w, req, err)
		return
	}
	respondJSON(w, http.StatusCreated, p)
}

func (r *Router) listProducts(w http.ResponseWriter, req *http.Request) {
	offset, limit, err := paging(req)
	if err != nil {
		r.fail(w, req, err)
		return
	}
	products, err := r.Repos.Products.List(req.Context(), nil, offset, limit)
	if err != nil {
		r.fail(w, req, err)
		return
	}
	respondJSON(w, http.StatusOK, products)
}

func (r *Router) getProduct(w http.ResponseWriter, req *http.Request) {
	id, err := pathID(req, "id")
	if err != nil {
		r.fail(w, req, err)
		return
	}
	p, err := r.Repos.Products.GetByID(req.Context(), nil, id)
	if err != nil {
		r.fail(w, req, err)
		return
	}
	respondJSON(w, http.StatusOK, p)
}

func (r *Router) updateProduct(w http.ResponseWriter, req *http.Request) {
	id, err := pathID(req, "id")
	if err != nil {
		r.fail(w, req, err)
		return
	}
	var patch pricing.ProductPatch
	if err := decode(req, &patch); err != nil {
		r.fail(w, req, err)
		return
	}
	p, err := r.Pricing.UpdateProduct(req.Context(), id, patch)
	if err != nil {
		r.fail(w, req, err)
		return
	}
	respondJSON(w, http.StatusOK, p)
}

func (r *Router) deleteProduct(w http.ResponseWriter, req *http.Request) {
	id, err := pathID(req, "id")
	if err != nil {
		r.fail(w, req, err)
		return
	}
	if err := r.Pricing.DeleteProduct(req.Context(), id); err != nil {
		r.fail(w, req, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "Product deleted successfully"})
}

func (r *Router) priceHistory(w http.ResponseWriter, req *http.Request) {
	id, err := pathID(req, "id")
	if err != nil {
		r.fail(w, req, err)
		return
	}
	limit, err := queryInt(req, "limit", defaultHistoryLimit)
	if err != nil {
		r.fail(w, req, err)
		return
	}
	history, err := r.Pricing.PriceHistory(req.Context(), id, limit)
	if err != nil {
		r.fail(w, req, err)
		return
	}
	respondJSON(w, http.StatusOK, history)
}

// quoteProduct explains how the live price would be composed right now
func (r *Router) quoteProduct(w http.ResponseWriter, req *http.Request) {
	id, err := pathID(req, "id")
	if err != nil {
		r.fail(w, req, err)
		return
	}
	quote, err := r.Pricing.Quote(req.Context(), id)
	if err != nil {
		r.fail(w, req, err)
		return
	}
	respondJSON(w, http.StatusOK, quote)
}
