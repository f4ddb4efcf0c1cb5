package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ripenred/checkout-api/internal/domain"
)

type eventRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewEventRepository creates a new checkout event repository
func NewEventRepository(db *sql.DB, logger *zap.Logger) *eventRepository {
	return &eventRepository{
		db:     db,
		logger: logger,
	}
}

func (r *eventRepository) Create(ctx context.Context, event *domain.CheckoutEvent) error {
	query := `
		INSERT INTO checkout_events (id, session_id, order_id, payment_id, event_type, event_data, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}

	data, err := json.Marshal(event.EventData)
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx, query,
		event.ID,
		event.SessionID,
		nullable(event.OrderID),
		nullable(event.PaymentID),
		event.EventType,
		data,
		event.CreatedAt,
	)

	if err != nil {
		r.logger.Error("Failed to create checkout event", zap.Error(err))
		return err
	}

	return nil
}

func (r *eventRepository) ListByOrderID(ctx context.Context, orderID string) ([]domain.CheckoutEvent, error) {
	query := `
		SELECT id, session_id, order_id, payment_id, event_type, event_data, created_at
		FROM checkout_events
		WHERE order_id = $1
		ORDER BY created_at ASC
	`
	return r.list(ctx, query, orderID)
}

func (r *eventRepository) ListByPaymentID(ctx context.Context, paymentID string) ([]domain.CheckoutEvent, error) {
	query := `
		SELECT id, session_id, order_id, payment_id, event_type, event_data, created_at
		FROM checkout_events
		WHERE payment_id = $1
		ORDER BY created_at ASC
	`
	return r.list(ctx, query, paymentID)
}

func (r *eventRepository) list(ctx context.Context, query string, arg interface{}) ([]domain.CheckoutEvent, error) {
	rows, err := r.db.QueryContext(ctx, query, arg)
	if err != nil {
		r.logger.Error("Failed to query checkout events", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	var events []domain.CheckoutEvent
	for rows.Next() {
		var event domain.CheckoutEvent
		var orderID, paymentID sql.NullString
		var data []byte

		err := rows.Scan(
			&event.ID,
			&event.SessionID,
			&orderID,
			&paymentID,
			&event.EventType,
			&data,
			&event.CreatedAt,
		)
		if err != nil {
			continue
		}

		event.OrderID = orderID.String
		event.PaymentID = paymentID.String
		if len(data) > 0 {
			if err := json.Unmarshal(data, &event.EventData); err != nil {
				event.EventData = nil
			}
		}

		events = append(events, event)
	}

	return events, rows.Err()
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
