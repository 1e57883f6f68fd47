package service

import (
	"context"
	"fmt"
	"time"

	"kart-checkout/internal/events"
	"kart-checkout/internal/gateway"
	"kart-checkout/internal/model"
	"kart-checkout/internal/pricing"
	"kart-checkout/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// ErrPaymentUnverified is returned when a structurally valid payment
// confirmation fails signature verification. The order is already marked
// failed by the time this surfaces.
var ErrPaymentUnverified = model.NewDomainError(model.ErrCodePaymentUnverified, "Payment signature verification failed")

// checkoutService implements CheckoutService.
type checkoutService struct {
	cartRepo    repository.CartRepository
	orderRepo   repository.OrderRepository
	couponRepo  repository.CouponRepository
	addressRepo repository.AddressRepository
	gateway     gateway.PaymentGateway
	publisher   events.Publisher
	currency    string
	logger      zerolog.Logger
}

// NewCheckoutService creates a new checkout service.
func NewCheckoutService(
	cartRepo repository.CartRepository,
	orderRepo repository.OrderRepository,
	couponRepo repository.CouponRepository,
	addressRepo repository.AddressRepository,
	gw gateway.PaymentGateway,
	publisher events.Publisher,
	currency string,
	logger zerolog.Logger,
) CheckoutService {
	return &checkoutService{
		cartRepo:    cartRepo,
		orderRepo:   orderRepo,
		couponRepo:  couponRepo,
		addressRepo: addressRepo,
		gateway:     gw,
		publisher:   publisher,
		currency:    currency,
		logger:      logger.With().Str("service", "checkout").Logger(),
	}
}

// StartCheckout converts the cart into an immutable order snapshot. Order
// insert, item snapshot, coupon usage increment and cart clear are one
// transaction: if any step fails, no partial state is visible.
func (s *checkoutService) StartCheckout(ctx context.Context, userID uuid.UUID, req *model.CheckoutRequest) (*model.CheckoutResponse, error) {
	if req == nil || !req.PaymentMethod.IsValid() {
		return nil, model.ErrInvalidPayMethod
	}

	tx, err := s.orderRepo.BeginTx(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to begin checkout transaction")
		return nil, fmt.Errorf("failed to start checkout: %w", err)
	}

	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				s.logger.Error().Err(rbErr).Msg("failed to rollback checkout transaction")
			}
		}
	}()

	// The snapshot read happens inside the transaction, with the lines
	// row-locked, so a quantity change from another device cannot land
	// between the read and the commit.
	lines, err := s.cartRepo.GetCartTx(ctx, tx, userID)
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", userID.String()).Msg("failed to read cart")
		return nil, fmt.Errorf("failed to start checkout: %w", err)
	}
	if len(lines) == 0 {
		err = model.ErrEmptyCart
		return nil, err
	}

	exists, err := s.addressRepo.Exists(ctx, userID, req.AddressID)
	if err != nil {
		s.logger.Error().Err(err).Str("address_id", req.AddressID.String()).Msg("failed to resolve address")
		return nil, fmt.Errorf("failed to start checkout: %w", err)
	}
	if !exists {
		s.logger.Warn().
			Str("user_id", userID.String()).
			Str("address_id", req.AddressID.String()).
			Msg("address not found")
		err = model.ErrAddressNotFound
		return nil, err
	}

	// Resolve and check the coupon up front; the usage cap is re-checked
	// by the guarded increment below.
	var coupon *model.Coupon
	if req.CouponCode != nil && *req.CouponCode != "" {
		coupon, err = s.couponRepo.GetByCode(ctx, *req.CouponCode)
		if err != nil {
			s.logger.Error().Err(err).Str("coupon_code", *req.CouponCode).Msg("failed to resolve coupon")
			return nil, fmt.Errorf("failed to start checkout: %w", err)
		}

		subtotal := pricing.ComputeTotals(lines, req.PaymentMethod, nil).Subtotal
		if err = pricing.CouponEligible(coupon, subtotal, time.Now()); err != nil {
			s.logger.Warn().
				Str("coupon_code", *req.CouponCode).
				Err(err).
				Msg("coupon rejected")
			return nil, err
		}
	}

	totals := pricing.ComputeTotals(lines, req.PaymentMethod, coupon)

	paymentStatus := model.PaymentPending
	if req.PaymentMethod == model.MethodCOD {
		paymentStatus = model.PaymentCOD
	}

	now := time.Now()
	order := &model.Order{
		ID:            uuid.New(),
		UserID:        userID,
		AddressID:     req.AddressID,
		Subtotal:      totals.Subtotal,
		Discount:      totals.Discount,
		Total:         totals.Total,
		CouponCode:    req.CouponCode,
		PaymentMethod: req.PaymentMethod,
		PaymentStatus: paymentStatus,
		Status:        model.StatusPlaced,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	items := make([]model.OrderItem, len(lines))
	for i, line := range lines {
		items[i] = model.OrderItem{
			ID:            uuid.New(),
			OrderID:       order.ID,
			ProductID:     line.ProductID,
			Size:          line.Size,
			Color:         line.Color,
			Quantity:      line.Quantity,
			OriginalPrice: line.OriginalPrice,
			RealPrice:     line.RealPrice,
			Name:          line.Name,
			Image:         line.Image,
		}
	}

	if err = s.orderRepo.CreateOrder(ctx, tx, order); err != nil {
		s.logger.Error().Err(err).Str("order_id", order.ID.String()).Msg("failed to create order")
		return nil, fmt.Errorf("failed to start checkout: %w", err)
	}

	if err = s.orderRepo.CreateOrderItems(ctx, tx, items); err != nil {
		s.logger.Error().
			Err(err).
			Str("order_id", order.ID.String()).
			Int("item_count", len(items)).
			Msg("failed to create order items")
		return nil, fmt.Errorf("failed to start checkout: %w", err)
	}

	if coupon != nil {
		if err = s.couponRepo.IncrementUsageTx(ctx, tx, coupon.Code); err != nil {
			return nil, err
		}
	}

	// Only the snapshotted lines are removed; anything added to the cart
	// after the locked read stays put.
	lineIDs := make([]uuid.UUID, len(lines))
	for i := range lines {
		lineIDs[i] = lines[i].ID
	}
	if err = s.cartRepo.DeleteLinesTx(ctx, tx, userID, lineIDs); err != nil {
		s.logger.Error().Err(err).Str("user_id", userID.String()).Msg("failed to clear cart")
		return nil, fmt.Errorf("failed to start checkout: %w", err)
	}

	if err = tx.Commit(ctx); err != nil {
		s.logger.Error().Err(err).Str("order_id", order.ID.String()).Msg("failed to commit checkout transaction")
		return nil, fmt.Errorf("failed to start checkout: %w", err)
	}

	s.publisher.Publish(ctx, events.OrderEvent{
		Type:    events.EventOrderPlaced,
		OrderID: order.ID.String(),
		UserID:  userID.String(),
		Total:   order.Total,
	})

	s.logger.Info().
		Str("order_id", order.ID.String()).
		Str("user_id", userID.String()).
		Str("payment_method", string(req.PaymentMethod)).
		Float64("total", order.Total).
		Msg("checkout started")

	return &model.CheckoutResponse{
		OrderID:  order.ID,
		Subtotal: order.Subtotal,
		Discount: order.Discount,
		Total:    order.Total,
	}, nil
}

// CreatePaymentOrder creates the remote gateway order for an online payment.
func (s *checkoutService) CreatePaymentOrder(ctx context.Context, userID, orderID uuid.UUID) (*model.PaymentOrderResponse, error) {
	order, _, err := s.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		s.logger.Error().Err(err).Str("order_id", orderID.String()).Msg("failed to load order")
		return nil, fmt.Errorf("failed to create payment order: %w", err)
	}
	if order == nil || order.UserID != userID {
		return nil, model.ErrOrderNotFound
	}
	if order.PaymentMethod != model.MethodOnline {
		return nil, model.ErrNotOnlineOrder
	}
	if order.PaymentStatus == model.PaymentPaid {
		return nil, model.NewInvalidTransition("paymentStatus", string(model.PaymentPaid), string(model.PaymentPending))
	}

	remote, err := s.gateway.CreateOrder(ctx, order.Total, s.currency, order.ID.String())
	if err != nil {
		// Attempt aborted; the order stays in its pre-attempt state and a
		// new attempt may be started.
		return nil, err
	}

	if err := s.orderRepo.SetGatewayOrderID(ctx, order.ID, remote.GatewayOrderID); err != nil {
		s.logger.Error().
			Err(err).
			Str("order_id", order.ID.String()).
			Str("gateway_order_id", remote.GatewayOrderID).
			Msg("failed to record gateway order id")
		return nil, fmt.Errorf("failed to create payment order: %w", err)
	}

	return &model.PaymentOrderResponse{
		OrderID:        order.ID,
		GatewayOrderID: remote.GatewayOrderID,
		Amount:         order.Total,
		Currency:       remote.Currency,
	}, nil
}

// ConfirmPayment verifies a gateway success callback and commits the
// terminal payment state. The transition guard in the order store is the
// idempotency boundary: whichever of confirm/abandon lands second is
// rejected there, regardless of client behaviour.
func (s *checkoutService) ConfirmPayment(ctx context.Context, req *model.VerifyPaymentRequest) error {
	order, _, err := s.orderRepo.GetByID(ctx, req.OrderID)
	if err != nil {
		s.logger.Error().Err(err).Str("order_id", req.OrderID.String()).Msg("failed to load order")
		return fmt.Errorf("failed to confirm payment: %w", err)
	}
	if order == nil {
		return model.ErrOrderNotFound
	}

	// The confirmation must name the gateway order recorded for this
	// order; a valid signature lifted from a different order is useless
	// here. Only then is the signature itself checked.
	verified := order.GatewayOrderID != nil &&
		*order.GatewayOrderID == req.GatewayOrderID &&
		s.gateway.VerifySignature(req.GatewayOrderID, req.GatewayPaymentID, req.Signature)

	if !verified {
		s.logger.Warn().
			Str("order_id", req.OrderID.String()).
			Str("gateway_order_id", req.GatewayOrderID).
			Str("gateway_payment_id", req.GatewayPaymentID).
			Msg("payment confirmation rejected")

		if err := s.orderRepo.UpdatePaymentStatus(ctx, req.OrderID, model.PaymentFailed, &req.GatewayPaymentID); err != nil {
			return err
		}

		s.publisher.Publish(ctx, events.OrderEvent{
			Type:    events.EventPaymentFailed,
			OrderID: order.ID.String(),
			UserID:  order.UserID.String(),
		})

		return ErrPaymentUnverified
	}

	if err := s.orderRepo.UpdatePaymentStatus(ctx, req.OrderID, model.PaymentPaid, &req.GatewayPaymentID); err != nil {
		return err
	}

	s.publisher.Publish(ctx, events.OrderEvent{
		Type:    events.EventPaymentPaid,
		OrderID: order.ID.String(),
		UserID:  order.UserID.String(),
		Total:   order.Total,
	})

	s.logger.Info().
		Str("order_id", req.OrderID.String()).
		Str("gateway_payment_id", req.GatewayPaymentID).
		Msg("payment confirmed")

	return nil
}

// ReportPaymentFailure records a failed charge while the widget is still
// open. The user may retry within the same session, so nothing is mutated.
func (s *checkoutService) ReportPaymentFailure(ctx context.Context, orderID uuid.UUID, reason string) {
	s.logger.Warn().
		Str("order_id", orderID.String()).
		Str("reason", reason).
		Msg("gateway reported failed charge; widget still open")
}

// AbandonPayment marks the attempt failed after the widget closed without a
// completed charge.
func (s *checkoutService) AbandonPayment(ctx context.Context, orderID uuid.UUID) error {
	err := s.orderRepo.UpdatePaymentStatus(ctx, orderID, model.PaymentFailed, nil)
	if err != nil {
		return err
	}

	order, _, loadErr := s.orderRepo.GetByID(ctx, orderID)
	if loadErr == nil && order != nil {
		s.publisher.Publish(ctx, events.OrderEvent{
			Type:    events.EventPaymentFailed,
			OrderID: order.ID.String(),
			UserID:  order.UserID.String(),
		})
	}

	s.logger.Info().Str("order_id", orderID.String()).Msg("payment attempt abandoned")
	return nil
}
