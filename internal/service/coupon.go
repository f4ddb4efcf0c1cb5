package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/ripenred/checkout-api/internal/backend"
	"github.com/ripenred/checkout-api/internal/session"
	"github.com/ripenred/checkout-api/pkg/errors"
)

// CouponService exchanges a user-entered code for a percentage discount
// against the current cart total
type CouponService struct {
	backend  *backend.Client
	carts    *CartService
	sessions *session.Store
	logger   *zap.Logger
}

// NewCouponService creates a new coupon service
func NewCouponService(bc *backend.Client, carts *CartService, sessions *session.Store, logger *zap.Logger) *CouponService {
	return &CouponService{
		backend:  bc,
		carts:    carts,
		sessions: sessions,
		logger:   logger,
	}
}

// CouponOutcome reports the applied discount and the recomputed totals
type CouponOutcome struct {
	Code            string  `json:"code"`
	DiscountPercent float64 `json:"discountPercent"`
	DiscountAmount  float64 `json:"discountAmount"`
	DiscountedTotal float64 `json:"discountedTotal"`
	ShippingCharges float64 `json:"shippingCharges"`
	FinalTotal      float64 `json:"finalTotal"`
}

// Apply validates and applies a coupon code for the session. Coupons are
// for authenticated users only, and one coupon per session: once applied
// there is no stacking or replacement. Backend rejections surface their
// message verbatim and are never retried.
func (s *CouponService) Apply(ctx context.Context, sess *session.Session, code string) (*CouponOutcome, error) {
	if !sess.IsLoggedIn() {
		return nil, &errors.ErrUnauthorized{Message: "Please log in or sign up to use coupons"}
	}

	code = strings.TrimSpace(code)
	if code == "" {
		return nil, &errors.ErrValidation{Violations: []string{"Please enter a coupon code"}}
	}

	if sess.CouponApplied {
		return nil, &errors.ErrValidation{Violations: []string{"A coupon has already been applied to this order"}}
	}

	items, err := s.carts.Resolve(ctx, sess)
	if err != nil {
		return nil, err
	}
	total := ItemTotal(items)

	result, err := s.backend.ApplyCoupon(ctx, sess.Token, code, total)
	if err != nil {
		return nil, err
	}

	percent := result.DiscountPercent
	if percent == 0 {
		// Legacy coupons omit the percent; those were flat 20% off
		percent = 20
	}

	discount := CouponDiscount(total, percent)
	// Shipping stays computed on the original total, not the discounted one
	shipping := ShippingCharges(total)

	outcome := &CouponOutcome{
		Code:            code,
		DiscountPercent: percent,
		DiscountAmount:  discount,
		DiscountedTotal: total - discount,
		ShippingCharges: shipping,
		FinalTotal:      total - discount + shipping,
	}

	s.sessions.Update(sess.ID, func(sess *session.Session) {
		sess.CouponApplied = true
		sess.CouponCode = code
		sess.DiscountAmount = discount
	})

	s.logger.Info("Coupon applied",
		zap.String("sessionId", sess.ID),
		zap.String("code", code),
		zap.Float64("discountPercent", percent),
		zap.Float64("discountAmount", discount))

	return outcome, nil
}
