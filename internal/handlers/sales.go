package handlers

import (
	"net/http"

	"github.com/xelth-com/eckposgo/internal/services/sales"
)

// AddItemRequest sells a quantity of one product
type AddItemRequest struct {
	ProductID uint `json:"product_id"`
	Quantity  int  `json:"quantity"`
}

func (r *Router) createSale(w http.ResponseWriter, req *http.Request) {
	var in sales.NewSale
	if req.ContentLength != 0 {
		if err := decode(req, &in); err != nil {
			r.fail(w, req, err)
			return
		}
	}
	sale, err := r.Sales.Create(req.Context(), in)
	if err != nil {
		r.fail(w, req, err)
		return
	}
	respondJSON(w, http.StatusCreated, sale)
}

func (r *Router) listSales(w http.ResponseWriter, req *http.Request) {
	period, err := r.period(req)
	if err != nil {
		r.fail(w, req, err)
		return
	}
	offset, limit, err := paging(req)
	if err != nil {
		r.fail(w, req, err)
		return
	}
	list, err := r.Sales.List(req.Context(), period, offset, limit)
	if err != nil {
		r.fail(w, req, err)
		return
	}
	respondJSON(w, http.StatusOK, list)
}

func (r *Router) getSale(w http.ResponseWriter, req *http.Request) {
	id, err := pathID(req, "id")
	if err != nil {
		r.fail(w, req, err)
		return
	}
	sale, err := r.Sales.Get(req.Context(), id)
	if err != nil {
		r.fail(w, req, err)
		return
	}
	respondJSON(w, http.StatusOK, sale)
}

func (r *Router) addSaleItem(w http.ResponseWriter, req *http.Request) {
	id, err := pathID(req, "id")
	if err != nil {
		r.fail(w, req, err)
		return
	}
	var in AddItemRequest
	if err := decode(req, &in); err != nil {
		r.fail(w, req, err)
		return
	}
	item, err := r.Sales.AddItem(req.Context(), id, in.ProductID, in.Quantity)
	if err != nil {
		r.fail(w, req, err)
		return
	}
	respondJSON(w, http.StatusCreated, item)
}
