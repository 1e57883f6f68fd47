package repository

import (
	"context"

	"kart-checkout/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// CartRepository defines the interface for cart data access operations.
type CartRepository interface {
	// GetCart retrieves all cart lines for a user.
	GetCart(ctx context.Context, userID uuid.UUID) ([]model.CartLine, error)

	// GetCartTx is GetCart within the provided transaction, locking the
	// returned lines (FOR UPDATE) so concurrent quantity changes cannot
	// slip between the snapshot read and the commit.
	GetCartTx(ctx context.Context, tx pgx.Tx, userID uuid.UUID) ([]model.CartLine, error)

	// UpsertLine inserts a cart line or, on an identity-key collision
	// (user, product, size, color), atomically adds the quantity to the
	// existing line. The stored price snapshot is never overwritten.
	UpsertLine(ctx context.Context, line *model.CartLine) (*model.CartLine, error)

	// UpsertLineTx is UpsertLine within the provided transaction.
	UpsertLineTx(ctx context.Context, tx pgx.Tx, line *model.CartLine) (*model.CartLine, error)

	// SetQuantity replaces the quantity of an existing line.
	// Returns model.ErrCartLineNotFound if the line does not exist.
	SetQuantity(ctx context.Context, userID uuid.UUID, productID, size, color string, quantity int) error

	// RemoveLine deletes a single line by identity key.
	RemoveLine(ctx context.Context, userID uuid.UUID, productID, size, color string) error

	// ClearCart deletes all lines for a user.
	ClearCart(ctx context.Context, userID uuid.UUID) error

	// DeleteLinesTx deletes the named lines within the provided
	// transaction. Lines added after the caller's snapshot read keep
	// their ids out of the list and survive.
	DeleteLinesTx(ctx context.Context, tx pgx.Tx, userID uuid.UUID, lineIDs []uuid.UUID) error

	// BeginTx starts a new database transaction.
	BeginTx(ctx context.Context) (pgx.Tx, error)
}

// OrderRepository defines the interface for order data access operations.
// Status mutations consult the state-machine guard inside the same
// transaction that reads current state, so no code path can bypass it.
type OrderRepository interface {
	// BeginTx starts a new database transaction.
	BeginTx(ctx context.Context) (pgx.Tx, error)

	// CreateOrder inserts a new order within the provided transaction.
	CreateOrder(ctx context.Context, tx pgx.Tx, order *model.Order) error

	// CreateOrderItems inserts the order's item snapshot within the provided transaction.
	CreateOrderItems(ctx context.Context, tx pgx.Tx, items []model.OrderItem) error

	// GetByID retrieves an order by its ID along with its items.
	GetByID(ctx context.Context, id uuid.UUID) (*model.Order, []model.OrderItem, error)

	// ListByUser retrieves all orders for a user, newest first.
	ListByUser(ctx context.Context, userID uuid.UUID) ([]model.Order, error)

	// UpdateStatus transitions the fulfillment status under the guard.
	// A same-state update is a no-op success; a disallowed edge returns
	// *model.InvalidTransitionError.
	UpdateStatus(ctx context.Context, id uuid.UUID, to model.OrderStatus) error

	// UpdatePaymentStatus transitions the payment status under the guard,
	// optionally recording the gateway payment id in the same write.
	UpdatePaymentStatus(ctx context.Context, id uuid.UUID, to model.PaymentStatus, gatewayPaymentID *string) error

	// SetGatewayOrderID records the remote gateway order id for correlation.
	SetGatewayOrderID(ctx context.Context, id uuid.UUID, gatewayOrderID string) error
}

// CouponRepository defines the interface for coupon config access. Coupons
// are read-only to checkout except for the usage counter.
type CouponRepository interface {
	// GetByCode retrieves a coupon by code. Returns nil when absent.
	GetByCode(ctx context.Context, code string) (*model.Coupon, error)

	// IncrementUsageTx increments used_count within the provided
	// transaction, failing with model.ErrCouponExhausted when the usage
	// limit has been reached by a concurrent redemption.
	IncrementUsageTx(ctx context.Context, tx pgx.Tx, code string) error

	// Upsert inserts or refreshes a coupon definition (seed path).
	Upsert(ctx context.Context, coupon *model.Coupon) error
}

// ProductRepository is the narrow catalogue collaborator: identity, display
// metadata and price at add-to-cart time only.
type ProductRepository interface {
	// GetByID retrieves a single product by its ID. Returns nil when absent.
	GetByID(ctx context.Context, id string) (*model.Product, error)
}

// AddressRepository is the narrow address-book collaborator used to validate
// the shipping address reference at checkout start.
type AddressRepository interface {
	// Exists reports whether the address belongs to the user.
	Exists(ctx context.Context, userID, addressID uuid.UUID) (bool, error)
}
