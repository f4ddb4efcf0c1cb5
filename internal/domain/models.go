package domain

import (
	"math"
	"regexp"
	"time"

	"github.com/google/uuid"
)

const (
	// MinQuantity and MaxQuantity bound a single line item
	MinQuantity = 1
	MaxQuantity = 99
)

var productIDPattern = regexp.MustCompile(`^[a-fA-F\d]{24}$`)

// ValidProductID reports whether id has the backend's 24-hex-char format
func ValidProductID(id string) bool {
	return productIDPattern.MatchString(id)
}

// NormalizeQuantity clamps a quantity into [MinQuantity, MaxQuantity].
// Zero and negative values collapse to the minimum.
func NormalizeQuantity(q int) int {
	if q < MinQuantity {
		return MinQuantity
	}
	if q > MaxQuantity {
		return MaxQuantity
	}
	return q
}

// NormalizePrice collapses negative or non-numeric prices to 0
func NormalizePrice(p float64) float64 {
	if math.IsNaN(p) || math.IsInf(p, 0) || p < 0 {
		return 0
	}
	return p
}

// CartItemRef is the persisted shape of a cart line: just the product
// reference and a quantity. Everything else is live product truth.
type CartItemRef struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

// CartLineItem is a cart line enriched with current product data.
// Deleted and OutOfStock are computed at read time, never persisted.
type CartLineItem struct {
	ProductID  string  `json:"productId"`
	Quantity   int     `json:"quantity"`
	Price      float64 `json:"price"`
	Name       string  `json:"name"`
	Image      string  `json:"image"`
	OutOfStock bool    `json:"outOfStock"`
	Deleted    bool    `json:"deleted"`
}

// Ref strips a line item back down to its persisted reference
func (i CartLineItem) Ref() CartItemRef {
	return CartItemRef{ProductID: i.ProductID, Quantity: i.Quantity}
}

// Address is a shipping address. The contact fields are set for guest
// checkouts only.
type Address struct {
	Street    string   `json:"street"`
	City      string   `json:"city"`
	State     string   `json:"state"`
	Zipcode   string   `json:"zipcode"`
	Country   string   `json:"country"`
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`

	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
	Phone string `json:"phone,omitempty"`
}

// UserInfo is the contact block collected for guest checkouts
type UserInfo struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

// OrderItem is one line of a submitted order
type OrderItem struct {
	ProductID string  `json:"productId"`
	Quantity  int     `json:"quantity"`
	Price     float64 `json:"price"`
}

// OrderData is the full order payload submitted to the backend. It is
// created fresh per checkout attempt and never mutated after construction.
type OrderData struct {
	CartItems       []OrderItem   `json:"cartItems"`
	ShippingAddress Address       `json:"shippingAddress"`
	PaymentMethod   PaymentMethod `json:"paymentMethod"`
	UserInfo        *UserInfo     `json:"userInfo,omitempty"`
	UserID          string        `json:"userId,omitempty"`
	TotalPrice      float64       `json:"totalPrice"`
	DiscountAmount  float64       `json:"discountAmount"`
	ShippingCharges float64       `json:"shippingCharges"`
	AppliedCoupons  []string      `json:"appliedCoupons"`
	FinalTotal      float64       `json:"finalTotal"`
}

// CheckoutEvent is an audit record for one step of a checkout attempt.
// Recording is best-effort; a failed write never fails the checkout.
type CheckoutEvent struct {
	ID        uuid.UUID
	SessionID string
	OrderID   string
	PaymentID string
	EventType string
	EventData map[string]interface{} // JSONB
	CreatedAt time.Time
}

// SupportKey authenticates a support operator for event lookups
type SupportKey struct {
	ID        uuid.UUID
	Name      string
	KeyHash   string
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}
