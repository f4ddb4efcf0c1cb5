package service

import (
	"go.uber.org/zap"

	"github.com/ripenred/checkout-api/internal/backend"
	"github.com/ripenred/checkout-api/internal/config"
	"github.com/ripenred/checkout-api/internal/repository"
	"github.com/ripenred/checkout-api/internal/session"
)

// Services bundles the checkout services behind a single handle
type Services struct {
	Cart    *CartService
	Address *AddressService
	Order   *OrderService
	Coupon  *CouponService
	Payment *PaymentService
}

// NewServices wires the service layer. events may be nil when no
// database is configured.
func NewServices(cfg *config.Config, bc *backend.Client, sessions *session.Store, events repository.EventStore, logger *zap.Logger) *Services {
	cart := NewCartService(bc, sessions, logger)
	address := NewAddressService(bc, sessions, cfg.Checkout.ServiceablePincodes, logger)
	return &Services{
		Cart:    cart,
		Address: address,
		Order:   NewOrderService(address, logger),
		Coupon:  NewCouponService(bc, cart, sessions, logger),
		Payment: NewPaymentService(bc, sessions, events, logger),
	}
}
