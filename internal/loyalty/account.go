package loyalty

import (
	"errors"
	"fmt"
	"strings"
	"sync"
)

var (
	// ErrInvalidRedemption is returned for negative redemptions or ones exceeding the balance.
	ErrInvalidRedemption = errors.New("invalid redemption")
	// ErrInvalidEarn is returned when a negative amount of points is earned.
	ErrInvalidEarn = errors.New("invalid earned points")
	// ErrCustomerRequired is returned when an account is requested without a customer id.
	ErrCustomerRequired = errors.New("customer id required")
)

// Wallet is a points balance a checkout can spend from and credit.
type Wallet interface {
	Points() int64
	Redeem(points int64) (int64, error)
	Earn(points int64) (int64, error)
}

// Account holds a points balance. One point is worth one cent.
type Account struct {
	mu     sync.Mutex
	points int64
}

// NewAccount opens an account with an initial balance, clamped at zero.
func NewAccount(points int64) *Account {
	if points < 0 {
		points = 0
	}
	return &Account{points: points}
}

// Points returns the current balance.
func (a *Account) Points() int64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.points
}

// Redeem removes points from the balance. The balance is untouched on error.
func (a *Account) Redeem(points int64) (int64, error) {
	if points < 0 {
		return 0, fmt.Errorf("points must be >= 0: %w", ErrInvalidRedemption)
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if points > a.points {
		return 0, fmt.Errorf("insufficient points: have %d, want %d: %w", a.points, points, ErrInvalidRedemption)
	}
	a.points -= points
	return points, nil
}

// Earn adds points to the balance.
func (a *Account) Earn(points int64) (int64, error) {
	if points < 0 {
		return 0, fmt.Errorf("points must be >= 0: %w", ErrInvalidEarn)
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.points += points
	return points, nil
}

// Registry keeps one account per customer, opening new ones with the seed balance.
type Registry struct {
	mu       sync.Mutex
	seed     int64
	accounts map[string]*Account
}

// NewRegistry returns an empty registry.
func NewRegistry(seed int64) *Registry {
	return &Registry{seed: seed, accounts: make(map[string]*Account)}
}

// Account returns the account of customerID, opening it on first use.
func (r *Registry) Account(customerID string) (*Account, error) {
	id := strings.TrimSpace(customerID)
	if id == "" {
		return nil, ErrCustomerRequired
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if acc, ok := r.accounts[id]; ok {
		return acc, nil
	}
	acc := NewAccount(r.seed)
	r.accounts[id] = acc
	return acc, nil
}

// Balances snapshots every known balance keyed by customer id.
func (r *Registry) Balances() map[string]int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[string]int64, len(r.accounts))
	for id, acc := range r.accounts {
		out[id] = acc.Points()
	}
	return out
}
