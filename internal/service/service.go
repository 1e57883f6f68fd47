package service

import (
	"context"

	"kart-checkout/internal/model"

	"github.com/google/uuid"
)

// CartService defines operations for cart management and guest-cart merging.
type CartService interface {
	// GetCart retrieves the user's cart with its subtotal.
	GetCart(ctx context.Context, userID uuid.UUID) (*model.CartResponse, error)

	// AddLine adds a product to the cart, snapshotting the catalogue price.
	// Adding an identity-key duplicate increments the existing quantity.
	AddLine(ctx context.Context, userID uuid.UUID, req *model.AddLineRequest) (*model.CartResponse, error)

	// UpdateQuantity replaces the quantity of an existing line.
	UpdateQuantity(ctx context.Context, userID uuid.UUID, productID string, req *model.UpdateLineRequest) (*model.CartResponse, error)

	// RemoveLine removes one line by identity key.
	RemoveLine(ctx context.Context, userID uuid.UUID, productID, size, color string) (*model.CartResponse, error)

	// ClearCart removes every line from the user's cart.
	ClearCart(ctx context.Context, userID uuid.UUID) error

	// MergeGuestCart folds a client-held anonymous cart into the account
	// cart in one transaction. Identity-key matches add quantities and keep
	// the existing line's price snapshot; misses insert the guest line.
	MergeGuestCart(ctx context.Context, userID uuid.UUID, req *model.MergeCartRequest) (*model.CartResponse, error)
}

// CheckoutService is the saga coordinator: it converts the cart into an
// order snapshot and drives the payment handshake to one terminal outcome.
type CheckoutService interface {
	// StartCheckout atomically snapshots the cart into an order, applies
	// discounts, and clears the cart.
	StartCheckout(ctx context.Context, userID uuid.UUID, req *model.CheckoutRequest) (*model.CheckoutResponse, error)

	// CreatePaymentOrder creates the remote gateway order for an online
	// payment and records the correlation id. Adapter failure leaves the
	// order untouched; the attempt may be retried.
	CreatePaymentOrder(ctx context.Context, userID, orderID uuid.UUID) (*model.PaymentOrderResponse, error)

	// ConfirmPayment verifies a gateway success callback. A valid signature
	// commits paid; an invalid one commits failed and returns an error.
	ConfirmPayment(ctx context.Context, req *model.VerifyPaymentRequest) error

	// ReportPaymentFailure records a non-terminal failed charge while the
	// widget is still open. It never mutates order state.
	ReportPaymentFailure(ctx context.Context, orderID uuid.UUID, reason string)

	// AbandonPayment marks the attempt failed after the widget closed
	// without a completed charge. A racing successful payment wins; the
	// abandonment is then rejected by the transition guard.
	AbandonPayment(ctx context.Context, orderID uuid.UUID) error
}

// OrderService defines operations for order retrieval and status management.
type OrderService interface {
	// GetByID retrieves an order with its item snapshot.
	GetByID(ctx context.Context, id uuid.UUID) (*model.OrderResponse, error)

	// ListByUser retrieves the user's orders, newest first.
	ListByUser(ctx context.Context, userID uuid.UUID) ([]model.Order, error)

	// UpdateStatus transitions the fulfillment status under the guard.
	UpdateStatus(ctx context.Context, id uuid.UUID, to model.OrderStatus) error

	// UpdatePaymentStatus transitions the payment status under the guard.
	UpdatePaymentStatus(ctx context.Context, id uuid.UUID, to model.PaymentStatus) error
}
