package checkout

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/noah-isme/toko-checkout/internal/cart"
	"github.com/noah-isme/toko-checkout/internal/catalog"
	"github.com/noah-isme/toko-checkout/internal/common"
	"github.com/noah-isme/toko-checkout/internal/loyalty"
	"github.com/noah-isme/toko-checkout/internal/voucher"
)

const dateLayout = "2006-01-02"

// ItemInput is one requested cart line.
type ItemInput struct {
	Name     string          `json:"name" validate:"required,max=128"`
	Unit     string          `json:"unit" validate:"omitempty,oneof=EACH KILO each kilo"`
	Quantity decimal.Decimal `json:"quantity"`
}

// Input is the checkout request body.
type Input struct {
	Items        []ItemInput `json:"items" validate:"required,min=1,dive"`
	Coupon       string      `json:"coupon" validate:"omitempty,max=64"`
	Date         string      `json:"date" validate:"omitempty,datetime=2006-01-02"`
	CustomerID   string      `json:"customerId" validate:"omitempty,max=64"`
	RedeemPoints int64       `json:"redeemPoints"`
}

// LineOutput is a priced line on the receipt response.
type LineOutput struct {
	Product   string `json:"product"`
	Unit      string `json:"unit"`
	Quantity  string `json:"quantity"`
	UnitPrice string `json:"unitPrice"`
	Total     string `json:"total"`
}

// DiscountOutput is an applied discount on the receipt response.
type DiscountOutput struct {
	Product     string `json:"product"`
	Description string `json:"description"`
	Amount      string `json:"amount"`
}

// PaymentOutput is a payment on the receipt response.
type PaymentOutput struct {
	Description string `json:"description"`
	Amount      string `json:"amount"`
}

// Output is the checkout response body.
type Output struct {
	ReceiptID      string           `json:"receiptId"`
	Date           string           `json:"date"`
	Plan           string           `json:"plan"`
	Currency       string           `json:"currency"`
	Lines          []LineOutput     `json:"lines"`
	Discounts      []DiscountOutput `json:"discounts"`
	Payments       []PaymentOutput  `json:"payments"`
	Subtotal       string           `json:"subtotal"`
	Savings        string           `json:"savings"`
	Total          string           `json:"total"`
	PointsEarned   int64            `json:"pointsEarned"`
	PointsRedeemed int64            `json:"pointsRedeemed"`
	Balance        *int64           `json:"balance,omitempty"`
}

// Handler serves the checkout endpoint.
type Handler struct {
	teller   *Teller
	catalog  *catalog.Memory
	coupons  *voucher.Book
	loyalty  *loyalty.Registry
	currency string
}

// HandlerConfig wires the handler dependencies.
type HandlerConfig struct {
	Teller   *Teller
	Catalog  *catalog.Memory
	Coupons  *voucher.Book
	Loyalty  *loyalty.Registry
	Currency string
}

// NewHandler constructs a Handler.
func NewHandler(cfg HandlerConfig) *Handler {
	return &Handler{
		teller:   cfg.Teller,
		catalog:  cfg.Catalog,
		coupons:  cfg.Coupons,
		loyalty:  cfg.Loyalty,
		currency: cfg.Currency,
	}
}

// Checkout handles POST /api/v1/checkout.
func (h *Handler) Checkout(w http.ResponseWriter, r *http.Request) {
	if h.teller == nil || h.catalog == nil {
		common.JSONError(w, http.StatusInternalServerError, common.CodeInternal, "checkout service not configured", nil)
		return
	}
	var in Input
	if err := common.DecodeJSON(r, &in); err != nil {
		common.WriteError(w, err)
		return
	}
	c, err := h.buildCart(in.Items)
	if err != nil {
		common.WriteError(w, mapError(err))
		return
	}
	opts, err := h.options(in)
	if err != nil {
		common.WriteError(w, mapError(err))
		return
	}
	receipt, err := h.teller.Checkout(r.Context(), c, opts)
	if err != nil {
		common.WriteError(w, mapError(err))
		return
	}
	out := h.render(receipt)
	if opts.Account != nil {
		balance := opts.Account.Points()
		out.Balance = &balance
	}
	common.Data(w, http.StatusCreated, out)
}

func (h *Handler) buildCart(items []ItemInput) (*cart.ShoppingCart, error) {
	c := cart.New()
	for _, it := range items {
		p, ok := h.catalog.Lookup(it.Name)
		if it.Unit != "" {
			unit, err := catalog.ParseUnit(it.Unit)
			if err != nil {
				return nil, err
			}
			if p, ok = h.catalog.LookupUnit(it.Name, unit); !ok {
				return nil, unknownProduct(it.Name + " (" + unit.String() + ")")
			}
		}
		if !ok {
			return nil, unknownProduct(it.Name)
		}
		if err := c.AddItemQuantity(p, it.Quantity); err != nil {
			return nil, err
		}
	}
	return c, nil
}

func (h *Handler) options(in Input) (Options, error) {
	var opts Options
	if in.Date != "" {
		on, err := time.Parse(dateLayout, in.Date)
		if err != nil {
			return Options{}, common.NewAppError(common.CodeBadRequest, "date must be YYYY-MM-DD", http.StatusBadRequest, err)
		}
		opts.Date = on
	}
	if code := strings.TrimSpace(in.Coupon); code != "" {
		if h.coupons == nil {
			return Options{}, voucher.ErrUnknownCoupon
		}
		cp, err := h.coupons.Lookup(code)
		if err != nil {
			return Options{}, err
		}
		opts.Coupon = cp
	}
	if id := strings.TrimSpace(in.CustomerID); id != "" && h.loyalty != nil {
		acc, err := h.loyalty.Account(id)
		if err != nil {
			return Options{}, err
		}
		opts.Account = acc
		opts.PointsToRedeem = in.RedeemPoints
	} else if in.RedeemPoints != 0 {
		return Options{}, common.NewAppError(common.CodeBadRequest, "customerId is required to redeem points", http.StatusBadRequest, loyalty.ErrCustomerRequired)
	}
	return opts, nil
}

func (h *Handler) render(r *Receipt) Output {
	out := Output{
		ReceiptID:      r.ID.String(),
		Date:           r.Date.Format(dateLayout),
		Plan:           r.Plan,
		Currency:       h.currency,
		Lines:          make([]LineOutput, 0, len(r.items)),
		Discounts:      make([]DiscountOutput, 0, len(r.discounts)),
		Payments:       make([]PaymentOutput, 0, len(r.payments)),
		Subtotal:       r.Subtotal().StringFixed(2),
		Savings:        r.Savings().StringFixed(2),
		Total:          r.Total().StringFixed(2),
		PointsEarned:   r.PointsEarned,
		PointsRedeemed: r.PointsRedeemed,
	}
	for _, it := range r.items {
		out.Lines = append(out.Lines, LineOutput{
			Product:   it.Product.Name,
			Unit:      it.Product.Unit.String(),
			Quantity:  it.Quantity.String(),
			UnitPrice: it.UnitPrice.StringFixed(2),
			Total:     it.Total.StringFixed(2),
		})
	}
	for _, d := range r.discounts {
		out.Discounts = append(out.Discounts, DiscountOutput{
			Product:     d.Product.Name,
			Description: d.Description,
			Amount:      d.Amount.StringFixed(2),
		})
	}
	for _, p := range r.payments {
		out.Payments = append(out.Payments, PaymentOutput{Description: p.Description, Amount: p.Amount.StringFixed(2)})
	}
	return out
}

func unknownProduct(name string) error {
	return common.NewAppError(common.CodeUnknownProduct, "unknown product: "+name, http.StatusUnprocessableEntity, catalog.ErrUnknownProduct)
}

// mapError translates domain errors into AppErrors for the HTTP boundary.
func mapError(err error) error {
	if common.IsAppError(err) {
		return err
	}
	switch {
	case errors.Is(err, catalog.ErrUnknownProduct):
		return common.NewAppError(common.CodeUnknownProduct, err.Error(), http.StatusUnprocessableEntity, err)
	case errors.Is(err, loyalty.ErrInvalidRedemption):
		return common.NewAppError(common.CodeInvalidRedemption, err.Error(), http.StatusUnprocessableEntity, err)
	case errors.Is(err, voucher.ErrUnknownCoupon):
		return common.NewAppError(common.CodeUnknownCoupon, err.Error(), http.StatusUnprocessableEntity, err)
	case errors.Is(err, cart.ErrInvalidQuantity), errors.Is(err, catalog.ErrInvalidUnit), errors.Is(err, loyalty.ErrCustomerRequired):
		return common.NewAppError(common.CodeBadRequest, err.Error(), http.StatusBadRequest, err)
	default:
		return err
	}
}
