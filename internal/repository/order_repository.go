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

// orderRepository implements the OrderRepository interface using PostgreSQL.
type orderRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewOrderRepository creates a new PostgreSQL-backed order repository.
func NewOrderRepository(pool *pgxpool.Pool, logger zerolog.Logger) OrderRepository {
	return &orderRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "order").Logger(),
	}
}

const orderColumns = `id, user_id, address_id, subtotal, discount, total, coupon_code, payment_method, payment_status, status, gateway_order_id, gateway_payment_id, created_at, updated_at`

// BeginTx starts a new database transaction.
func (r *orderRepository) BeginTx(ctx context.Context) (pgx.Tx, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to begin transaction")
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	return tx, nil
}

// CreateOrder inserts a new order within the provided transaction.
func (r *orderRepository) CreateOrder(ctx context.Context, tx pgx.Tx, order *model.Order) error {
	query := `
		INSERT INTO orders (id, user_id, address_id, subtotal, discount, total, coupon_code, payment_method, payment_status, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	_, err := tx.Exec(ctx, query,
		order.ID, order.UserID, order.AddressID,
		order.Subtotal, order.Discount, order.Total, order.CouponCode,
		order.PaymentMethod, order.PaymentStatus, order.Status,
		order.CreatedAt, order.UpdatedAt,
	)
	if err != nil {
		r.logger.Error().
			Err(err).
			Str("order_id", order.ID.String()).
			Msg("failed to create order")
		return fmt.Errorf("failed to create order: %w", err)
	}

	r.logger.Debug().
		Str("order_id", order.ID.String()).
		Msg("order created successfully")

	return nil
}

// CreateOrderItems inserts the order's item snapshot within the provided transaction.
func (r *orderRepository) CreateOrderItems(ctx context.Context, tx pgx.Tx, items []model.OrderItem) error {
	if len(items) == 0 {
		return nil
	}

	query := `
		INSERT INTO order_items (id, order_id, product_id, size, color, quantity, original_price, real_price, name, image)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	batch := &pgx.Batch{}
	for _, item := range items {
		batch.Queue(query,
			item.ID, item.OrderID, item.ProductID, item.Size, item.Color,
			item.Quantity, item.OriginalPrice, item.RealPrice, item.Name, item.Image,
		)
	}

	results := tx.SendBatch(ctx, batch)
	defer results.Close()

	for i := 0; i < len(items); i++ {
		_, err := results.Exec()
		if err != nil {
			r.logger.Error().
				Err(err).
				Str("order_id", items[i].OrderID.String()).
				Str("product_id", items[i].ProductID).
				Msg("failed to create order item")
			return fmt.Errorf("failed to create order item: %w", err)
		}
	}

	r.logger.Debug().
		Int("count", len(items)).
		Msg("order items created successfully")

	return nil
}

// GetByID retrieves an order by its ID along with its items.
func (r *orderRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Order, []model.OrderItem, error) {
	orderQuery := `
		SELECT ` + orderColumns + `
		FROM orders
		WHERE id = $1
	`

	var order model.Order
	err := scanOrder(r.pool.QueryRow(ctx, orderQuery, id), &order)
	if err != nil {
		if err == pgx.ErrNoRows {
			r.logger.Debug().Str("order_id", id.String()).Msg("order not found")
			return nil, nil, nil
		}
		r.logger.Error().Err(err).Str("order_id", id.String()).Msg("failed to query order")
		return nil, nil, fmt.Errorf("failed to query order: %w", err)
	}

	itemsQuery := `
		SELECT id, order_id, product_id, size, color, quantity, original_price, real_price, name, image
		FROM order_items
		WHERE order_id = $1
		ORDER BY id
	`

	rows, err := r.pool.Query(ctx, itemsQuery, id)
	if err != nil {
		r.logger.Error().
			Err(err).
			Str("order_id", id.String()).
			Msg("failed to query order items")
		return nil, nil, fmt.Errorf("failed to query order items: %w", err)
	}
	defer rows.Close()

	var items []model.OrderItem
	for rows.Next() {
		var item model.OrderItem
		err := rows.Scan(
			&item.ID, &item.OrderID, &item.ProductID, &item.Size, &item.Color,
			&item.Quantity, &item.OriginalPrice, &item.RealPrice, &item.Name, &item.Image,
		)
		if err != nil {
			r.logger.Error().Err(err).Msg("failed to scan order item row")
			return nil, nil, fmt.Errorf("failed to scan order item: %w", err)
		}
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error().Err(err).Msg("error iterating order item rows")
		return nil, nil, fmt.Errorf("error iterating order items: %w", err)
	}

	return &order, items, nil
}

// ListByUser retrieves all orders for a user, newest first.
func (r *orderRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]model.Order, error) {
	query := `
		SELECT ` + orderColumns + `
		FROM orders
		WHERE user_id = $1
		ORDER BY created_at DESC
	`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		r.logger.Error().Err(err).Str("user_id", userID.String()).Msg("failed to query orders")
		return nil, fmt.Errorf("failed to query orders: %w", err)
	}
	defer rows.Close()

	var orders []model.Order
	for rows.Next() {
		var order model.Order
		if err := scanOrder(rows, &order); err != nil {
			r.logger.Error().Err(err).Msg("failed to scan order row")
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		orders = append(orders, order)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error().Err(err).Msg("error iterating order rows")
		return nil, fmt.Errorf("error iterating orders: %w", err)
	}

	return orders, nil
}

// UpdateStatus transitions the fulfillment status under the guard. The
// current state is read with a row lock in the same transaction that writes
// the new state, so a concurrent transition cannot slip past the table.
func (r *orderRepository) UpdateStatus(ctx context.Context, id uuid.UUID, to model.OrderStatus) error {
	return r.guardedUpdate(ctx, id, "status", string(to), func(current string) (bool, error) {
		from := model.OrderStatus(current)
		if from == to {
			return false, nil
		}
		if !from.CanTransition(to) {
			return false, model.NewInvalidTransition("status", current, string(to))
		}
		return true, nil
	})
}

// UpdatePaymentStatus transitions the payment status under the guard. When
// gatewayPaymentID is non-nil it is recorded in the same write, so a paid
// order always carries its correlation id.
func (r *orderRepository) UpdatePaymentStatus(ctx context.Context, id uuid.UUID, to model.PaymentStatus, gatewayPaymentID *string) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to begin transaction")
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var current model.PaymentStatus
	err = tx.QueryRow(ctx, `SELECT payment_status FROM orders WHERE id = $1 FOR UPDATE`, id).Scan(&current)
	if err != nil {
		if err == pgx.ErrNoRows {
			return model.ErrOrderNotFound
		}
		r.logger.Error().Err(err).Str("order_id", id.String()).Msg("failed to read payment status")
		return fmt.Errorf("failed to read payment status: %w", err)
	}

	if current == to {
		return tx.Commit(ctx)
	}

	if !current.CanTransition(to) {
		r.logger.Warn().
			Str("order_id", id.String()).
			Str("from", string(current)).
			Str("to", string(to)).
			Msg("payment status transition rejected")
		return model.NewInvalidTransition("paymentStatus", string(current), string(to))
	}

	if gatewayPaymentID != nil {
		_, err = tx.Exec(ctx,
			`UPDATE orders SET payment_status = $2, gateway_payment_id = $3, updated_at = NOW() WHERE id = $1`,
			id, to, *gatewayPaymentID,
		)
	} else {
		_, err = tx.Exec(ctx,
			`UPDATE orders SET payment_status = $2, updated_at = NOW() WHERE id = $1`,
			id, to,
		)
	}
	if err != nil {
		r.logger.Error().Err(err).Str("order_id", id.String()).Msg("failed to update payment status")
		return fmt.Errorf("failed to update payment status: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		r.logger.Error().Err(err).Str("order_id", id.String()).Msg("failed to commit payment status update")
		return fmt.Errorf("failed to commit payment status update: %w", err)
	}

	r.logger.Info().
		Str("order_id", id.String()).
		Str("from", string(current)).
		Str("to", string(to)).
		Msg("payment status updated")

	return nil
}

// SetGatewayOrderID records the remote gateway order id for correlation.
func (r *orderRepository) SetGatewayOrderID(ctx context.Context, id uuid.UUID, gatewayOrderID string) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE orders SET gateway_order_id = $2, updated_at = NOW() WHERE id = $1`,
		id, gatewayOrderID,
	)
	if err != nil {
		r.logger.Error().Err(err).Str("order_id", id.String()).Msg("failed to set gateway order id")
		return fmt.Errorf("failed to set gateway order id: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrOrderNotFound
	}
	return nil
}

// guardedUpdate runs a lock-read-check-write cycle on one orders column.
func (r *orderRepository) guardedUpdate(ctx context.Context, id uuid.UUID, column, to string, check func(current string) (bool, error)) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to begin transaction")
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var current string
	err = tx.QueryRow(ctx, `SELECT `+column+` FROM orders WHERE id = $1 FOR UPDATE`, id).Scan(&current)
	if err != nil {
		if err == pgx.ErrNoRows {
			return model.ErrOrderNotFound
		}
		r.logger.Error().Err(err).Str("order_id", id.String()).Msg("failed to read order state")
		return fmt.Errorf("failed to read order state: %w", err)
	}

	proceed, err := check(current)
	if err != nil {
		r.logger.Warn().
			Str("order_id", id.String()).
			Str("from", current).
			Str("to", to).
			Msg("status transition rejected")
		return err
	}
	if !proceed {
		// Same-state no-op.
		return tx.Commit(ctx)
	}

	_, err = tx.Exec(ctx, `UPDATE orders SET `+column+` = $2, updated_at = NOW() WHERE id = $1`, id, to)
	if err != nil {
		r.logger.Error().Err(err).Str("order_id", id.String()).Msg("failed to update order state")
		return fmt.Errorf("failed to update order state: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		r.logger.Error().Err(err).Str("order_id", id.String()).Msg("failed to commit order state update")
		return fmt.Errorf("failed to commit order state update: %w", err)
	}

	r.logger.Info().
		Str("order_id", id.String()).
		Str("from", current).
		Str("to", to).
		Msg("order status updated")

	return nil
}

// scanOrder scans an orders row in orderColumns order.
func scanOrder(row pgx.Row, order *model.Order) error {
	return row.Scan(
		&order.ID,
		&order.UserID,
		&order.AddressID,
		&order.Subtotal,
		&order.Discount,
		&order.Total,
		&order.CouponCode,
		&order.PaymentMethod,
		&order.PaymentStatus,
		&order.Status,
		&order.GatewayOrderID,
		&order.GatewayPaymentID,
		&order.CreatedAt,
		&order.UpdatedAt,
	)
}
