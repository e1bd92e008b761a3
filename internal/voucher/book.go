package voucher

import (
	"errors"
	"fmt"
	"strings"
	"sync"
)

// ErrUnknownCoupon is returned when a coupon code is not in the book.
var ErrUnknownCoupon = errors.New("unknown coupon")

// Book indexes loaded coupons by code, keeping load order for listings.
type Book struct {
	mu     sync.RWMutex
	order  []*Coupon
	byCode map[string]*Coupon
}

// NewBook returns an empty book.
func NewBook() *Book {
	return &Book{byCode: make(map[string]*Coupon)}
}

func normalizeCode(code string) string {
	return strings.ToLower(strings.TrimSpace(code))
}

// Add registers c under its code, falling back to its description.
func (b *Book) Add(c *Coupon) error {
	if c == nil {
		return fmt.Errorf("nil coupon: %w", ErrInvalidCoupon)
	}
	key := normalizeCode(c.Code)
	if key == "" {
		key = normalizeCode(c.Description)
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, dup := b.byCode[key]; dup {
		return fmt.Errorf("duplicate coupon %q: %w", key, ErrInvalidCoupon)
	}
	b.byCode[key] = c
	b.order = append(b.order, c)
	return nil
}

// Lookup finds a coupon by code, case-insensitively.
func (b *Book) Lookup(code string) (*Coupon, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if c, ok := b.byCode[normalizeCode(code)]; ok {
		return c, nil
	}
	return nil, fmt.Errorf("%s: %w", strings.TrimSpace(code), ErrUnknownCoupon)
}

// List returns the coupons in load order.
func (b *Book) List() []*Coupon {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]*Coupon, len(b.order))
	copy(out, b.order)
	return out
}

// Len returns the number of coupons.
func (b *Book) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.order)
}
