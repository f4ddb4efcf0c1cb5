package domain

// PaymentMethod identifies how the customer pays
type PaymentMethod string

const (
	PaymentMethodRazorpay PaymentMethod = "razorpay"
	PaymentMethodPhonePe  PaymentMethod = "phonepe"
	PaymentMethodCOD      PaymentMethod = "cod"
)

// IsValid checks if the payment method is one we can dispatch
func (m PaymentMethod) IsValid() bool {
	switch m {
	case PaymentMethodRazorpay, PaymentMethodPhonePe, PaymentMethodCOD:
		return true
	default:
		return false
	}
}

// CheckoutState represents where a checkout attempt is in its lifecycle
type CheckoutState string

const (
	StateIdle             CheckoutState = "IDLE"
	StateOrderCreated     CheckoutState = "ORDER_CREATED"
	StateProviderRedirect CheckoutState = "PROVIDER_REDIRECT"
	StateProviderModal    CheckoutState = "PROVIDER_MODAL"
	StateDirectConfirmed  CheckoutState = "DIRECT_CONFIRMED"
	StateVerifying        CheckoutState = "VERIFYING"
	StateSuccess          CheckoutState = "SUCCESS"
	StateFailed           CheckoutState = "FAILED"
)

// CanTransitionTo checks if a state transition is valid
func (s CheckoutState) CanTransitionTo(next CheckoutState) bool {
	switch s {
	case StateIdle:
		return next == StateOrderCreated
	case StateOrderCreated:
		return next == StateProviderRedirect ||
			next == StateProviderModal ||
			next == StateDirectConfirmed ||
			next == StateFailed
	case StateProviderRedirect, StateProviderModal, StateDirectConfirmed:
		return next == StateVerifying || next == StateFailed
	case StateVerifying:
		return next == StateSuccess || next == StateFailed
	case StateSuccess:
		return false // Terminal
	case StateFailed:
		return next == StateOrderCreated // A failed attempt may start over
	default:
		return false
	}
}
