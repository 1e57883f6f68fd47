package service

import (
	"context"
	"fmt"

	"kart-checkout/internal/model"
	"kart-checkout/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// orderService implements OrderService.
type orderService struct {
	orderRepo repository.OrderRepository
	logger    zerolog.Logger
}

// NewOrderService creates a new order service.
func NewOrderService(orderRepo repository.OrderRepository, logger zerolog.Logger) OrderService {
	return &orderService{
		orderRepo: orderRepo,
		logger:    logger.With().Str("service", "order").Logger(),
	}
}

// GetByID retrieves an order with its item snapshot.
func (s *orderService) GetByID(ctx context.Context, id uuid.UUID) (*model.OrderResponse, error) {
	order, items, err := s.orderRepo.GetByID(ctx, id)
	if err != nil {
		s.logger.Error().Err(err).Str("order_id", id.String()).Msg("failed to get order")
		return nil, fmt.Errorf("failed to get order: %w", err)
	}
	if order == nil {
		s.logger.Debug().Str("order_id", id.String()).Msg("order not found")
		return nil, model.ErrOrderNotFound
	}

	return &model.OrderResponse{Order: *order, Items: items}, nil
}

// ListByUser retrieves the user's orders, newest first.
func (s *orderService) ListByUser(ctx context.Context, userID uuid.UUID) ([]model.Order, error) {
	orders, err := s.orderRepo.ListByUser(ctx, userID)
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", userID.String()).Msg("failed to list orders")
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	return orders, nil
}

// UpdateStatus transitions the fulfillment status under the guard.
func (s *orderService) UpdateStatus(ctx context.Context, id uuid.UUID, to model.OrderStatus) error {
	if !to.IsValid() {
		return model.NewInvalidTransition("status", "", string(to))
	}
	return s.orderRepo.UpdateStatus(ctx, id, to)
}

// UpdatePaymentStatus transitions the payment status under the guard.
func (s *orderService) UpdatePaymentStatus(ctx context.Context, id uuid.UUID, to model.PaymentStatus) error {
	if !to.IsValid() {
		return model.NewInvalidTransition("paymentStatus", "", string(to))
	}
	return s.orderRepo.UpdatePaymentStatus(ctx, id, to, nil)
}
