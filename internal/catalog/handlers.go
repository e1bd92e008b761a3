package catalog

import (
	"net/http"
	"strconv"

	"github.com/noah-isme/toko-checkout/internal/common"
)

// ProductListItem is the public representation of a catalog entry.
type ProductListItem struct {
	Name  string `json:"name"`
	Unit  string `json:"unit"`
	Price string `json:"price"`
}

// Handler exposes public catalog endpoints.
type Handler struct {
	catalog *Memory
}

// HandlerConfig configures the Handler dependencies.
type HandlerConfig struct {
	Catalog *Memory
}

// NewHandler constructs a Handler.
func NewHandler(cfg HandlerConfig) *Handler {
	return &Handler{catalog: cfg.Catalog}
}

// Products handles GET /api/v1/products.
func (h *Handler) Products(w http.ResponseWriter, r *http.Request) {
	if h.catalog == nil {
		common.JSONError(w, http.StatusInternalServerError, common.CodeInternal, "catalog not configured", nil)
		return
	}
	entries := h.catalog.Entries()
	items := make([]ProductListItem, 0, len(entries))
	for _, e := range entries {
		items = append(items, ProductListItem{
			Name:  e.Product.Name,
			Unit:  e.Product.Unit.String(),
			Price: e.Price.StringFixed(2),
		})
	}
	w.Header().Set("X-Total-Count", strconv.Itoa(len(items)))
	common.Data(w, http.StatusOK, items)
}
