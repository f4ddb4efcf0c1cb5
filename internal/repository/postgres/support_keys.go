package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/ripenred/checkout-api/internal/domain"
	"github.com/ripenred/checkout-api/pkg/errors"
)

type supportKeyRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewSupportKeyRepository creates a new support key repository
func NewSupportKeyRepository(db *sql.DB, logger *zap.Logger) *supportKeyRepository {
	return &supportKeyRepository{
		db:     db,
		logger: logger,
	}
}

func (r *supportKeyRepository) GetByKey(ctx context.Context, apiKey string) (*domain.SupportKey, error) {
	// bcrypt hashes are salted, so there is no direct lookup; iterate the
	// active keys and verify against each hash. The key set is tiny.
	query := `
		SELECT id, name, key_hash, is_active, created_at, updated_at
		FROM support_keys
		WHERE is_active = true
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		r.logger.Error("Failed to query support keys", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var key domain.SupportKey

		err := rows.Scan(
			&key.ID,
			&key.Name,
			&key.KeyHash,
			&key.IsActive,
			&key.CreatedAt,
			&key.UpdatedAt,
		)
		if err != nil {
			continue
		}

		if err := bcrypt.CompareHashAndPassword([]byte(key.KeyHash), []byte(apiKey)); err == nil {
			return &key, nil
		}
	}

	return nil, &errors.ErrUnauthorized{Message: "invalid support API key"}
}

func (r *supportKeyRepository) Create(ctx context.Context, key *domain.SupportKey) error {
	query := `
		INSERT INTO support_keys (id, name, key_hash, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	now := time.Now()
	if key.ID == uuid.Nil {
		key.ID = uuid.New()
	}
	if key.CreatedAt.IsZero() {
		key.CreatedAt = now
	}
	if key.UpdatedAt.IsZero() {
		key.UpdatedAt = now
	}

	_, err := r.db.ExecContext(ctx, query,
		key.ID,
		key.Name,
		key.KeyHash,
		key.IsActive,
		key.CreatedAt,
		key.UpdatedAt,
	)

	if err != nil {
		r.logger.Error("Failed to create support key", zap.Error(err))
		return err
	}

	return nil
}
