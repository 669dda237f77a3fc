package handlers

import (
	"context"
	"net/http"

	"github.com/xelth-com/eckposgo/internal/services/pricing"
)

// GroupRequest creates a profit group
type GroupRequest struct {
	Name           string  `json:"name"`
	MinProfitPrice float64 `json:"min_profit_price"`
}

type membershipResponse struct {
	Message      string  `json:"message"`
	ProductID    uint    `json:"product_id"`
	GroupID      uint    `json:"group_id"`
	CurrentPrice float64 `json:"current_price"`
}

func (r *Router) createGroup(w http.ResponseWriter, req *http.Request) {
	var in GroupRequest
	if err := decode(req, &in); err != nil {
		r.fail(w, req, err)
		return
	}
	g, err := r.Pricing.CreateGroup(req.Context(), in.Name, in.MinProfitPrice)
	if err != nil {
		r.fail(w, req, err)
		return
	}
	respondJSON(w, http.StatusCreated, g)
}

func (r *Router) listGroups(w http.ResponseWriter, req *http.Request) {
	groups, err := r.Repos.Groups.List(req.Context(), nil)
	if err != nil {
		r.fail(w, req, err)
		return
	}
	respondJSON(w, http.StatusOK, groups)
}

func (r *Router) getGroup(w http.ResponseWriter, req *http.Request) {
	id, err := pathID(req, "id")
	if err != nil {
		r.fail(w, req, err)
		return
	}
	g, err := r.Repos.Groups.GetByID(req.Context(), nil, id)
	if err != nil {
		r.fail(w, req, err)
		return
	}
	respondJSON(w, http.StatusOK, g)
}

func (r *Router) addToGroup(w http.ResponseWriter, req *http.Request) {
	r.changeMembership(w, req, r.Pricing.AddToGroup, "Product added to group")
}

func (r *Router) removeFromGroup(w http.ResponseWriter, req *http.Request) {
	r.changeMembership(w, req, r.Pricing.RemoveFromGroup, "Product removed from group")
}

type membershipFunc func(ctx context.Context, groupID, productID uint) (*pricing.Result, error)

func (r *Router) changeMembership(w http.ResponseWriter, req *http.Request, change membershipFunc, message string) {
	groupID, err := pathID(req, "id")
	if err != nil {
		r.fail(w, req, err)
		return
	}
	productID, err := pathID(req, "pid")
	if err != nil {
		r.fail(w, req, err)
		return
	}
	res, err := change(req.Context(), groupID, productID)
	if err != nil {
		r.fail(w, req, err)
		return
	}
	respondJSON(w, http.StatusOK, membershipResponse{
		Message:      message,
		ProductID:    productID,
		GroupID:      groupID,
		CurrentPrice: res.Product.CurrentPrice,
	})
}

func (r *Router) checkGroup(w http.ResponseWriter, req *http.Request) {
	id, err := pathID(req, "id")
	if err != nil {
		r.fail(w, req, err)
		return
	}
	report, err := r.Pricing.CheckGroup(req.Context(), id)
	if err != nil {
		r.fail(w, req, err)
		return
	}
	respondJSON(w, http.StatusOK, report)
}

func (r *Router) adjustGroupPrices(w http.ResponseWriter, req *http.Request) {
	id, err := pathID(req, "id")
	if err != nil {
		r.fail(w, req, err)
		return
	}
	report, err := r.Pricing.RebalanceGroup(req.Context(), id)
	if err != nil {
		r.fail(w, req, err)
		return
	}
	respondJSON(w, http.StatusOK, report)
}
