package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/ripenred/checkout-api/internal/backend"
	"github.com/ripenred/checkout-api/internal/domain"
	"github.com/ripenred/checkout-api/internal/repository"
	"github.com/ripenred/checkout-api/internal/session"
	"github.com/ripenred/checkout-api/pkg/errors"
)

// PaymentService drives a checkout attempt through its state machine:
// order creation, provider dispatch, verification and cart clearing.
type PaymentService struct {
	backend  *backend.Client
	sessions *session.Store
	events   repository.EventStore // nil disables the audit log
	logger   *zap.Logger
}

// NewPaymentService creates a new payment service
func NewPaymentService(bc *backend.Client, sessions *session.Store, events repository.EventStore, logger *zap.Logger) *PaymentService {
	return &PaymentService{
		backend:  bc,
		sessions: sessions,
		events:   events,
		logger:   logger,
	}
}

// ModalCallback is the payload a modal payment widget hands back after
// the customer completes payment
type ModalCallback struct {
	RazorpayOrderID   string `json:"razorpay_order_id"`
	RazorpayPaymentID string `json:"razorpay_payment_id"`
	RazorpaySignature string `json:"razorpay_signature"`
	OrderID           string `json:"orderId"`
}

// Initiate submits the built order to the backend and dispatches to the
// selected provider, returning the launch the storefront must perform.
// Each call starts a fresh checkout attempt.
func (s *PaymentService) Initiate(ctx context.Context, sess *session.Session, order *domain.OrderData) (*domain.PaymentLaunch, error) {
	// The state machine is per attempt; a finished or failed attempt
	// does not block a new one
	s.sessions.Update(sess.ID, func(sess *session.Session) {
		sess.State = domain.StateIdle
		sess.PaymentResume = nil
	})

	result, err := s.backend.CreateOrder(ctx, sess.Token, order)
	if err != nil {
		s.recordEvent(ctx, sess, "", "", "order_create_failed", map[string]interface{}{
			"error":         err.Error(),
			"paymentMethod": string(order.PaymentMethod),
		})
		return nil, err
	}

	if err := s.advance(sess, domain.StateOrderCreated); err != nil {
		return nil, err
	}

	s.recordEvent(ctx, sess, result.OrderID, "", "order_created", map[string]interface{}{
		"paymentMethod": string(order.PaymentMethod),
		"totalPrice":    order.TotalPrice,
		"finalTotal":    order.FinalTotal,
		"amount":        result.Amount,
	})

	switch order.PaymentMethod {
	case domain.PaymentMethodPhonePe:
		return s.launchRedirect(ctx, sess, order, result)
	case domain.PaymentMethodRazorpay:
		return s.launchModal(ctx, sess, order, result)
	default:
		return s.confirmDirect(ctx, sess, result)
	}
}

// launchRedirect persists the resume state for the redirect provider and
// hands back the URL to navigate to. Verification happens on return via
// CompleteRedirect, not as a synchronous continuation.
func (s *PaymentService) launchRedirect(ctx context.Context, sess *session.Session, order *domain.OrderData, result *backend.CreateOrderResult) (*domain.PaymentLaunch, error) {
	if !result.Success.Bool() || result.PhonePeTransactionID == "" || result.PaymentURL == "" {
		s.fail(ctx, sess, result.OrderID, "", "failed to create PhonePe payment order")
		return nil, &errors.ErrPaymentFailed{Message: "Failed to create PhonePe payment order"}
	}

	s.sessions.Update(sess.ID, func(sess *session.Session) {
		sess.PaymentResume = &session.PaymentResume{
			OrderID:       result.OrderID,
			TransactionID: result.PhonePeTransactionID,
			Amount:        result.Amount,
			Order:         order,
		}
	})

	if err := s.advance(sess, domain.StateProviderRedirect); err != nil {
		return nil, err
	}

	s.recordEvent(ctx, sess, result.OrderID, result.PhonePeTransactionID, "payment_initiated", map[string]interface{}{
		"provider": "phonepe",
		"amount":   result.Amount,
	})

	return &domain.PaymentLaunch{
		Kind:        domain.LaunchRedirect,
		OrderID:     result.OrderID,
		RedirectURL: result.PaymentURL,
	}, nil
}

// launchModal returns the session keys the client-side payment widget
// needs; the widget's callback comes back through VerifyModal.
func (s *PaymentService) launchModal(ctx context.Context, sess *session.Session, order *domain.OrderData, result *backend.CreateOrderResult) (*domain.PaymentLaunch, error) {
	if result.RazorpayOrderID == "" {
		s.fail(ctx, sess, result.OrderID, "", "failed to create Razorpay order")
		return nil, &errors.ErrPaymentFailed{Message: "Failed to create Razorpay order"}
	}

	s.sessions.Update(sess.ID, func(sess *session.Session) {
		sess.PaymentResume = &session.PaymentResume{
			OrderID:       result.OrderID,
			TransactionID: result.RazorpayOrderID,
			Amount:        result.Amount,
			Order:         order,
		}
	})

	if err := s.advance(sess, domain.StateProviderModal); err != nil {
		return nil, err
	}

	s.recordEvent(ctx, sess, result.OrderID, result.RazorpayOrderID, "payment_initiated", map[string]interface{}{
		"provider": "razorpay",
		"amount":   result.Amount,
	})

	return &domain.PaymentLaunch{
		Kind:    domain.LaunchModal,
		OrderID: result.OrderID,
		Modal: &domain.ModalSession{
			Key:             result.RazorpayKey,
			RazorpayOrderID: result.RazorpayOrderID,
			Amount:          result.Amount,
			Currency:        result.Currency,
		},
	}, nil
}

// confirmDirect completes methods with no external payment step (cash on
// delivery): the order is confirmed as soon as the backend accepts it.
func (s *PaymentService) confirmDirect(ctx context.Context, sess *session.Session, result *backend.CreateOrderResult) (*domain.PaymentLaunch, error) {
	if err := s.advance(sess, domain.StateDirectConfirmed); err != nil {
		return nil, err
	}
	if err := s.advance(sess, domain.StateVerifying); err != nil {
		return nil, err
	}

	s.finalize(ctx, sess, result.OrderID, "")

	if err := s.advance(sess, domain.StateSuccess); err != nil {
		return nil, err
	}

	s.recordEvent(ctx, sess, result.OrderID, "", "order_confirmed", map[string]interface{}{
		"provider": "direct",
	})

	return &domain.PaymentLaunch{
		Kind:    domain.LaunchDirect,
		OrderID: result.OrderID,
	}, nil
}

// VerifyModal verifies a modal provider's callback with the backend and
// settles the attempt. Both boolean true and string "true" success flags
// count, and a duplicate submission flagged existing is success too.
func (s *PaymentService) VerifyModal(ctx context.Context, sess *session.Session, cb ModalCallback) (string, error) {
	if err := s.advance(sess, domain.StateVerifying); err != nil {
		return "", err
	}

	orderID := cb.OrderID
	var orderData *domain.OrderData
	if resume := sess.PaymentResume; resume != nil {
		if orderID == "" {
			orderID = resume.OrderID
		}
		orderData = resume.Order
	}

	result, err := s.backend.VerifyPayment(ctx, sess.Token, backend.VerifyPaymentRequest{
		RazorpayOrderID:   cb.RazorpayOrderID,
		RazorpayPaymentID: cb.RazorpayPaymentID,
		RazorpaySignature: cb.RazorpaySignature,
		OrderID:           orderID,
		OrderData:         orderData,
	})
	if err != nil {
		s.fail(ctx, sess, orderID, cb.RazorpayPaymentID, err.Error())
		return "", &errors.ErrPaymentFailed{
			PaymentID: cb.RazorpayPaymentID,
			Message:   "Payment verification failed, please contact support",
		}
	}

	return s.settle(ctx, sess, orderID, cb.RazorpayPaymentID, result)
}

// CompleteRedirect consumes the resume state stored before navigating to
// a redirect provider. succeeded reflects the provider's callback route.
func (s *PaymentService) CompleteRedirect(ctx context.Context, sess *session.Session, succeeded bool, transactionID string) (string, error) {
	resume := sess.PaymentResume
	if resume == nil {
		return "", &errors.ErrNotFound{Resource: "pending payment", ID: sess.ID}
	}
	if transactionID == "" {
		transactionID = resume.TransactionID
	}

	if !succeeded {
		// Provider-reported failures are never silently swallowed
		s.fail(ctx, sess, resume.OrderID, transactionID, "provider reported failure")
		s.sessions.Update(sess.ID, func(sess *session.Session) {
			sess.PaymentResume = nil
		})
		return "", &errors.ErrPaymentFailed{
			PaymentID: transactionID,
			Message:   "Payment failed, please try again or contact support",
		}
	}

	if err := s.advance(sess, domain.StateVerifying); err != nil {
		return "", err
	}

	result, err := s.backend.VerifyPayment(ctx, sess.Token, backend.VerifyPaymentRequest{
		TransactionID: transactionID,
		OrderID:       resume.OrderID,
		OrderData:     resume.Order,
	})
	if err != nil {
		s.fail(ctx, sess, resume.OrderID, transactionID, err.Error())
		return "", &errors.ErrPaymentFailed{
			PaymentID: transactionID,
			Message:   "Payment verification failed, please contact support",
		}
	}

	return s.settle(ctx, sess, resume.OrderID, transactionID, result)
}

// settle maps a verification result onto the state machine
func (s *PaymentService) settle(ctx context.Context, sess *session.Session, orderID, paymentID string, result *backend.VerifyPaymentResult) (string, error) {
	// existing:true means the backend already processed this payment;
	// an idempotent duplicate is a success, not a failure
	if result.Success.Bool() || result.Existing {
		s.finalize(ctx, sess, orderID, paymentID)
		if err := s.advance(sess, domain.StateSuccess); err != nil {
			return "", err
		}
		s.recordEvent(ctx, sess, orderID, paymentID, "payment_verified", map[string]interface{}{
			"existing": result.Existing,
		})
		return orderID, nil
	}

	message := result.Message
	if message == "" {
		message = "Payment verification failed, please contact support"
	}
	s.fail(ctx, sess, orderID, paymentID, message)
	return "", &errors.ErrPaymentFailed{PaymentID: paymentID, Message: message}
}

// finalize clears the cart and records the completed order on the
// session. Cart clearing is best-effort: the payment already went
// through, so a failed delete must not fail the checkout.
func (s *PaymentService) finalize(ctx context.Context, sess *session.Session, orderID, paymentID string) {
	if sess.IsLoggedIn() {
		if err := s.backend.ClearCart(ctx, sess.Token); err != nil {
			s.logger.Warn("Failed to clear server cart after payment",
				zap.String("sessionId", sess.ID),
				zap.String("orderId", orderID),
				zap.Error(err))
		}
	}

	s.sessions.Update(sess.ID, func(sess *session.Session) {
		if !sess.IsLoggedIn() {
			sess.GuestCart = nil
		}
		sess.OrderID = orderID
		sess.PaymentID = paymentID
		sess.PaymentResume = nil
		// The coupon was consumed by this order
		sess.CouponApplied = false
		sess.CouponCode = ""
		sess.DiscountAmount = 0
	})

	s.recordEvent(ctx, sess, orderID, paymentID, "cart_cleared", nil)
}

func (s *PaymentService) fail(ctx context.Context, sess *session.Session, orderID, paymentID, reason string) {
	if sess.State.CanTransitionTo(domain.StateFailed) {
		s.sessions.Update(sess.ID, func(sess *session.Session) {
			sess.State = domain.StateFailed
		})
	}
	s.recordEvent(ctx, sess, orderID, paymentID, "payment_failed", map[string]interface{}{
		"reason": reason,
	})
	s.logger.Error("Payment failed",
		zap.String("sessionId", sess.ID),
		zap.String("orderId", orderID),
		zap.String("paymentId", paymentID),
		zap.String("reason", reason))
}

func (s *PaymentService) advance(sess *session.Session, next domain.CheckoutState) error {
	if !sess.State.CanTransitionTo(next) {
		return &errors.ErrInvalidStateTransition{From: string(sess.State), To: string(next)}
	}
	s.sessions.Update(sess.ID, func(sess *session.Session) {
		sess.State = next
	})
	return nil
}

// recordEvent writes to the audit log; failures are logged and ignored
func (s *PaymentService) recordEvent(ctx context.Context, sess *session.Session, orderID, paymentID, eventType string, data map[string]interface{}) {
	if s.events == nil {
		return
	}
	event := &domain.CheckoutEvent{
		SessionID: sess.ID,
		OrderID:   orderID,
		PaymentID: paymentID,
		EventType: eventType,
		EventData: data,
	}
	if err := s.events.Create(ctx, event); err != nil {
		s.logger.Warn("Failed to record checkout event",
			zap.String("eventType", eventType), zap.Error(err))
	}
}
