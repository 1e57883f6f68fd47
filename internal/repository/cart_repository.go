package repository

import (
	"context"
	"fmt"

	"kart-checkout/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// cartRepository implements the CartRepository interface using PostgreSQL.
type cartRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewCartRepository creates a new PostgreSQL-backed cart repository.
func NewCartRepository(pool *pgxpool.Pool, logger zerolog.Logger) CartRepository {
	return &cartRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "cart").Logger(),
	}
}

const cartLineColumns = `id, user_id, product_id, size, color, quantity, original_price, real_price, name, image, created_at, updated_at`

// BeginTx starts a new database transaction.
func (r *cartRepository) BeginTx(ctx context.Context) (pgx.Tx, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to begin transaction")
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	return tx, nil
}

// GetCart retrieves all cart lines for a user.
func (r *cartRepository) GetCart(ctx context.Context, userID uuid.UUID) ([]model.CartLine, error) {
	return r.getCart(ctx, r.pool, userID, false)
}

// GetCartTx retrieves and row-locks all cart lines for a user within the
// provided transaction.
func (r *cartRepository) GetCartTx(ctx context.Context, tx pgx.Tx, userID uuid.UUID) ([]model.CartLine, error) {
	return r.getCart(ctx, tx, userID, true)
}

func (r *cartRepository) getCart(ctx context.Context, q querier, userID uuid.UUID, forUpdate bool) ([]model.CartLine, error) {
	query := `
		SELECT ` + cartLineColumns + `
		FROM cart_lines
		WHERE user_id = $1
		ORDER BY created_at, id
	`
	if forUpdate {
		query += ` FOR UPDATE`
	}

	rows, err := q.Query(ctx, query, userID)
	if err != nil {
		r.logger.Error().Err(err).Str("user_id", userID.String()).Msg("failed to query cart")
		return nil, fmt.Errorf("failed to query cart: %w", err)
	}
	defer rows.Close()

	var lines []model.CartLine
	for rows.Next() {
		var line model.CartLine
		if err := scanCartLine(rows, &line); err != nil {
			r.logger.Error().Err(err).Msg("failed to scan cart line row")
			return nil, fmt.Errorf("failed to scan cart line: %w", err)
		}
		lines = append(lines, line)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error().Err(err).Msg("error iterating cart line rows")
		return nil, fmt.Errorf("error iterating cart lines: %w", err)
	}

	return lines, nil
}

// upsertLineQuery adds the incoming quantity on an identity-key collision.
// The DO UPDATE deliberately leaves the price and display columns alone so
// the existing line's snapshot survives the collision.
const upsertLineQuery = `
	INSERT INTO cart_lines (id, user_id, product_id, size, color, quantity, original_price, real_price, name, image, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NOW(), NOW())
	ON CONFLICT (user_id, product_id, size, color)
	DO UPDATE SET quantity = cart_lines.quantity + EXCLUDED.quantity, updated_at = NOW()
	RETURNING ` + cartLineColumns

// UpsertLine inserts a cart line or atomically adds to the existing quantity.
func (r *cartRepository) UpsertLine(ctx context.Context, line *model.CartLine) (*model.CartLine, error) {
	return r.upsertLine(ctx, r.pool, line)
}

// UpsertLineTx is UpsertLine within the provided transaction.
func (r *cartRepository) UpsertLineTx(ctx context.Context, tx pgx.Tx, line *model.CartLine) (*model.CartLine, error) {
	return r.upsertLine(ctx, tx, line)
}

// querier is satisfied by both *pgxpool.Pool and pgx.Tx.
type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func (r *cartRepository) upsertLine(ctx context.Context, q querier, line *model.CartLine) (*model.CartLine, error) {
	var stored model.CartLine
	row := q.QueryRow(ctx, upsertLineQuery,
		line.ID, line.UserID, line.ProductID, line.Size, line.Color,
		line.Quantity, line.OriginalPrice, line.RealPrice, line.Name, line.Image,
	)
	if err := scanCartLine(row, &stored); err != nil {
		r.logger.Error().
			Err(err).
			Str("user_id", line.UserID.String()).
			Str("product_id", line.ProductID).
			Msg("failed to upsert cart line")
		return nil, fmt.Errorf("failed to upsert cart line: %w", err)
	}

	r.logger.Debug().
		Str("user_id", line.UserID.String()).
		Str("product_id", line.ProductID).
		Int("quantity", stored.Quantity).
		Msg("cart line upserted")

	return &stored, nil
}

// SetQuantity replaces the quantity of an existing line.
func (r *cartRepository) SetQuantity(ctx context.Context, userID uuid.UUID, productID, size, color string, quantity int) error {
	query := `
		UPDATE cart_lines
		SET quantity = $5, updated_at = NOW()
		WHERE user_id = $1 AND product_id = $2 AND size = $3 AND color = $4
	`

	tag, err := r.pool.Exec(ctx, query, userID, productID, size, color, quantity)
	if err != nil {
		r.logger.Error().
			Err(err).
			Str("user_id", userID.String()).
			Str("product_id", productID).
			Msg("failed to update cart line quantity")
		return fmt.Errorf("failed to update cart line quantity: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return model.ErrCartLineNotFound
	}

	return nil
}

// RemoveLine deletes a single line by identity key.
func (r *cartRepository) RemoveLine(ctx context.Context, userID uuid.UUID, productID, size, color string) error {
	query := `
		DELETE FROM cart_lines
		WHERE user_id = $1 AND product_id = $2 AND size = $3 AND color = $4
	`

	tag, err := r.pool.Exec(ctx, query, userID, productID, size, color)
	if err != nil {
		r.logger.Error().
			Err(err).
			Str("user_id", userID.String()).
			Str("product_id", productID).
			Msg("failed to remove cart line")
		return fmt.Errorf("failed to remove cart line: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return model.ErrCartLineNotFound
	}

	r.logger.Debug().
		Str("user_id", userID.String()).
		Str("product_id", productID).
		Msg("cart line removed")

	return nil
}

// ClearCart deletes all lines for a user.
func (r *cartRepository) ClearCart(ctx context.Context, userID uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM cart_lines WHERE user_id = $1`, userID)
	if err != nil {
		r.logger.Error().Err(err).Str("user_id", userID.String()).Msg("failed to clear cart")
		return fmt.Errorf("failed to clear cart: %w", err)
	}
	return nil
}

// DeleteLinesTx deletes the named lines within the provided transaction.
// Scoping the delete to line ids means a line added concurrently, after the
// caller took its snapshot, stays in the cart instead of vanishing.
func (r *cartRepository) DeleteLinesTx(ctx context.Context, tx pgx.Tx, userID uuid.UUID, lineIDs []uuid.UUID) error {
	if len(lineIDs) == 0 {
		return nil
	}

	_, err := tx.Exec(ctx, `DELETE FROM cart_lines WHERE user_id = $1 AND id = ANY($2)`, userID, lineIDs)
	if err != nil {
		r.logger.Error().
			Err(err).
			Str("user_id", userID.String()).
			Int("line_count", len(lineIDs)).
			Msg("failed to delete cart lines in transaction")
		return fmt.Errorf("failed to delete cart lines: %w", err)
	}
	return nil
}

// scanCartLine scans a cart_lines row in cartLineColumns order.
func scanCartLine(row pgx.Row, line *model.CartLine) error {
	return row.Scan(
		&line.ID,
		&line.UserID,
		&line.ProductID,
		&line.Size,
		&line.Color,
		&line.Quantity,
		&line.OriginalPrice,
		&line.RealPrice,
		&line.Name,
		&line.Image,
		&line.CreatedAt,
		&line.UpdatedAt,
	)
}
