package repository

import (
	"context"

	"github.com/ripenred/checkout-api/internal/domain"
)

// EventStore records and retrieves checkout audit events
type EventStore interface {
	Create(ctx context.Context, event *domain.CheckoutEvent) error
	ListByOrderID(ctx context.Context, orderID string) ([]domain.CheckoutEvent, error)
	ListByPaymentID(ctx context.Context, paymentID string) ([]domain.CheckoutEvent, error)
}

// SupportKeyStore manages support operator API keys
type SupportKeyStore interface {
	Create(ctx context.Context, key *domain.SupportKey) error
	GetByKey(ctx context.Context, apiKey string) (*domain.SupportKey, error)
}

// Repositories aggregates all data stores
type Repositories struct {
	Event      EventStore
	SupportKey SupportKeyStore
}
