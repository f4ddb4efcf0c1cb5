package service

import (
	"fmt"
	"math"

	"go.uber.org/zap"

	"github.com/ripenred/checkout-api/internal/domain"
	"github.com/ripenred/checkout-api/internal/session"
	"github.com/ripenred/checkout-api/pkg/errors"
)

// ShippingCharges computes the delivery fee for an order total. The fee
// is always computed on the pre-discount total.
func ShippingCharges(total float64) float64 {
	if total < 500 {
		return 200
	}
	if total <= 1000 {
		return 100
	}
	return 0
}

// CouponDiscount computes the rupee discount for a percentage coupon
// against the pre-shipping total
func CouponDiscount(total, percent float64) float64 {
	return math.Round(total * percent / 100)
}

// OrderService validates checkout inputs and builds the immutable order
// payload submitted to the backend
type OrderService struct {
	address *AddressService
	logger  *zap.Logger
}

// NewOrderService creates a new order service
func NewOrderService(address *AddressService, logger *zap.Logger) *OrderService {
	return &OrderService{
		address: address,
		logger:  logger,
	}
}

// BuildInput carries the checkout form state needed to assemble an order
type BuildInput struct {
	PaymentMethod        domain.PaymentMethod
	SelectedAddressIndex *int
	FormAddress          *domain.Address
	GuestInfo            *domain.UserInfo
}

// Build validates the resolved cart, address, guest contact and payment
// method, then computes totals. Violations accumulate: the caller gets
// every problem in a single error, and nothing is ever submitted
// partially. Build performs no network I/O.
func (s *OrderService) Build(sess *session.Session, items []domain.CartLineItem, in BuildInput) (*domain.OrderData, error) {
	var violations []string

	if len(items) == 0 {
		violations = append(violations, "Cart must contain at least one item")
	} else {
		for i, item := range items {
			if item.ProductID == "" {
				violations = append(violations, fmt.Sprintf("Cart item %d: Product ID is required", i+1))
			} else if !domain.ValidProductID(item.ProductID) {
				violations = append(violations, fmt.Sprintf("Cart item %d: Invalid product ID format", i+1))
			}
			if item.Quantity < domain.MinQuantity || item.Quantity > domain.MaxQuantity {
				violations = append(violations, fmt.Sprintf("Cart item %d: Quantity must be between 1 and 99", i+1))
			}
		}
	}

	var shippingAddress *domain.Address
	addr, err := s.address.Resolve(sess, in.SelectedAddressIndex, in.FormAddress)
	if err != nil {
		violations = append(violations, "Address validation: "+validationMessage(err))
	} else {
		shippingAddress = addr
	}

	var userInfo *domain.UserInfo
	if !sess.IsLoggedIn() {
		if guestViolations := ValidateGuestInfo(in.GuestInfo); len(guestViolations) > 0 {
			for _, v := range guestViolations {
				violations = append(violations, "Guest info validation: "+v)
			}
		} else {
			userInfo = in.GuestInfo
		}
	}

	if in.PaymentMethod == "" {
		violations = append(violations, "Payment method is required")
	} else if !in.PaymentMethod.IsValid() {
		violations = append(violations, fmt.Sprintf("Unsupported payment method: %s", in.PaymentMethod))
	}

	totalPrice := ItemTotal(items)
	if len(items) > 0 && totalPrice <= 0 {
		violations = append(violations, "Total price must be a positive number")
	}

	if len(violations) > 0 {
		return nil, &errors.ErrValidation{Violations: violations}
	}

	// Discount was computed against the pre-shipping total when the
	// coupon was applied; shipping is computed on the pre-discount
	// total. Changing this ordering changes the final amount.
	discountAmount := sess.DiscountAmount
	shippingCharges := ShippingCharges(totalPrice)
	finalTotal := totalPrice - discountAmount + shippingCharges

	appliedCoupons := []string{}
	if sess.CouponApplied && sess.CouponCode != "" {
		appliedCoupons = append(appliedCoupons, sess.CouponCode)
	}

	orderItems := make([]domain.OrderItem, len(items))
	for i, item := range items {
		orderItems[i] = domain.OrderItem{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			Price:     domain.NormalizePrice(item.Price),
		}
	}

	order := &domain.OrderData{
		CartItems:       orderItems,
		ShippingAddress: *shippingAddress,
		PaymentMethod:   in.PaymentMethod,
		UserInfo:        userInfo,
		UserID:          sess.UserID,
		TotalPrice:      totalPrice,
		DiscountAmount:  discountAmount,
		ShippingCharges: shippingCharges,
		AppliedCoupons:  appliedCoupons,
		FinalTotal:      finalTotal,
	}

	s.logger.Debug("Order data built",
		zap.Int("items", len(order.CartItems)),
		zap.String("paymentMethod", string(order.PaymentMethod)),
		zap.Float64("totalPrice", order.TotalPrice),
		zap.Float64("finalTotal", order.FinalTotal))

	return order, nil
}

// validationMessage flattens an ErrValidation to its joined violations,
// leaving other errors untouched
func validationMessage(err error) string {
	if verr, ok := err.(*errors.ErrValidation); ok {
		return joinViolations(verr)
	}
	return err.Error()
}

func joinViolations(verr *errors.ErrValidation) string {
	msg := ""
	for i, v := range verr.Violations {
		if i > 0 {
			msg += ". "
		}
		msg += v
	}
	return msg
}
