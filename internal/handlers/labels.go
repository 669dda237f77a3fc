package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/xelth-com/eckposgo/internal/apperr"
	"github.com/xelth-com/eckposgo/internal/models"
	"github.com/xelth-com/eckposgo/internal/services/printer"
)

// shelfLabels prints price tags for ?ids=1,2,3 or for the whole catalog.
// Optional cols/rows override the default sheet layout.
func (r *Router) shelfLabels(w http.ResponseWriter, req *http.Request) {
	ids, err := idList(req.URL.Query().Get("ids"))
	if err != nil {
		r.fail(w, req, err)
		return
	}

	layout := printer.DefaultLayout
	if layout.Cols, err = queryInt(req, "cols", layout.Cols); err != nil {
		r.fail(w, req, err)
		return
	}
	if layout.Rows, err = queryInt(req, "rows", layout.Rows); err != nil {
		r.fail(w, req, err)
		return
	}

	var products []models.Product
	if len(ids) > 0 {
		products, err = r.Repos.Products.GetByIDs(req.Context(), nil, ids)
		if err == nil && len(products) != len(ids) {
			err = apperr.NotFound("one or more products not found")
		}
	} else {
		products, err = r.Repos.Products.List(req.Context(), nil, 0, maxPageSize)
	}
	if err != nil {
		r.fail(w, req, err)
		return
	}

	labels := make([]printer.ShelfLabel, 0, len(products))
	for _, p := range products {
		labels = append(labels, printer.ShelfLabel{SKU: p.SKU, Name: p.Name, Price: p.CurrentPrice})
	}
	doc, err := printer.ShelfLabelsPDF(labels, layout)
	if err != nil {
		r.fail(w, req, err)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `inline; filename="shelf-labels.pdf"`)
	w.WriteHeader(http.StatusOK)
	w.Write(doc)
}

func idList(raw string) ([]uint, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	seen := map[uint]bool{}
	var ids []uint
	for _, part := range strings.Split(raw, ",") {
		n, err := strconv.ParseUint(strings.TrimSpace(part), 10, 32)
		if err != nil || n == 0 {
			return nil, apperr.Validation("ids must be a comma separated list of product ids")
		}
		if !seen[uint(n)] {
			seen[uint(n)] = true
			ids = append(ids, uint(n))
		}
	}
	return ids, nil
}
