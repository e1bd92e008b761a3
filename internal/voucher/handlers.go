package voucher

import (
	"net/http"
	"strconv"
	"time"

	"github.com/noah-isme/toko-checkout/internal/common"
)

const dateLayout = "2006-01-02"

// Handler exposes the loaded coupons.
type Handler struct {
	Book *Book
	Now  func() time.Time
}

type couponItem struct {
	Code          string `json:"code"`
	Product       string `json:"product"`
	Unit          string `json:"unit"`
	RequiredQty   string `json:"requiredQty"`
	DiscountedQty string `json:"discountedQty"`
	Percent       string `json:"percent"`
	ValidFrom     string `json:"validFrom"`
	ValidTo       string `json:"validTo"`
	Description   string `json:"description"`
	Redeemed      bool   `json:"redeemed"`
	ActiveToday   bool   `json:"activeToday"`
}

// List returns every coupon with its validity window and redemption state.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	if h.Book == nil {
		common.JSONError(w, http.StatusInternalServerError, common.CodeInternal, "coupon book not configured", nil)
		return
	}
	today := time.Now()
	if h.Now != nil {
		today = h.Now()
	}
	coupons := h.Book.List()
	items := make([]couponItem, 0, len(coupons))
	for _, c := range coupons {
		items = append(items, couponItem{
			Code:          c.Code,
			Product:       c.Product.Name,
			Unit:          c.Product.Unit.String(),
			RequiredQty:   c.RequiredQty.String(),
			DiscountedQty: c.DiscountedQty.String(),
			Percent:       c.Percent.String(),
			ValidFrom:     c.ValidFrom.Format(dateLayout),
			ValidTo:       c.ValidTo.Format(dateLayout),
			Description:   c.Description,
			Redeemed:      c.Redeemed(),
			ActiveToday:   c.IsValidOn(today),
		})
	}
	w.Header().Set("X-Total-Count", strconv.Itoa(len(items)))
	common.Data(w, http.StatusOK, items)
}
