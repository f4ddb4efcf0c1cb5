package domain

// LaunchKind tags the provider-specific way a payment is launched
type LaunchKind string

const (
	LaunchRedirect LaunchKind = "redirect"
	LaunchModal    LaunchKind = "modal"
	LaunchDirect   LaunchKind = "direct"
)

// ModalSession carries everything a client-side payment widget needs to
// open its modal and hand the result back for verification.
type ModalSession struct {
	Key             string `json:"key"`
	RazorpayOrderID string `json:"razorpayOrderId"`
	Amount          int64  `json:"amount"`
	Currency        string `json:"currency"`
}

// PaymentLaunch is the tagged union returned by payment initiation:
// exactly one of RedirectURL or Modal is set, depending on Kind, and
// Direct launches carry neither.
type PaymentLaunch struct {
	Kind        LaunchKind    `json:"kind"`
	OrderID     string        `json:"orderId"`
	RedirectURL string        `json:"redirectUrl,omitempty"`
	Modal       *ModalSession `json:"modal,omitempty"`
}
