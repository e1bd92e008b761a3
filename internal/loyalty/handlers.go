package loyalty

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/noah-isme/toko-checkout/internal/common"
)

// Handler exposes loyalty balances.
type Handler struct {
	Registry *Registry
}

type balanceResponse struct {
	CustomerID string `json:"customerId"`
	Points     int64  `json:"points"`
}

// Balance handles GET /api/v1/loyalty/{customerID}. Unknown customers are
// opened with the seed balance.
func (h *Handler) Balance(w http.ResponseWriter, r *http.Request) {
	if h.Registry == nil {
		common.JSONError(w, http.StatusInternalServerError, common.CodeInternal, "loyalty not configured", nil)
		return
	}
	id := chi.URLParam(r, "customerID")
	acc, err := h.Registry.Account(id)
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, common.CodeBadRequest, err.Error(), nil)
		return
	}
	common.Data(w, http.StatusOK, balanceResponse{CustomerID: id, Points: acc.Points()})
}
