package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// addressRepository implements the AddressRepository interface using PostgreSQL.
type addressRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewAddressRepository creates a new PostgreSQL-backed address repository.
func NewAddressRepository(pool *pgxpool.Pool, logger zerolog.Logger) AddressRepository {
	return &addressRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "address").Logger(),
	}
}

// Exists reports whether the address belongs to the user.
func (r *addressRepository) Exists(ctx context.Context, userID, addressID uuid.UUID) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM addresses WHERE id = $1 AND user_id = $2)`,
		addressID, userID,
	).Scan(&exists)
	if err != nil {
		r.logger.Error().
			Err(err).
			Str("address_id", addressID.String()).
			Msg("failed to check address existence")
		return false, fmt.Errorf("failed to check address existence: %w", err)
	}
	return exists, nil
}
