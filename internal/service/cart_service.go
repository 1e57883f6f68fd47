package service

import (
	"context"
	"fmt"

	"kart-checkout/internal/model"
	"kart-checkout/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// cartService implements CartService.
type cartService struct {
	cartRepo    repository.CartRepository
	productRepo repository.ProductRepository
	logger      zerolog.Logger
}

// NewCartService creates a new cart service.
func NewCartService(
	cartRepo repository.CartRepository,
	productRepo repository.ProductRepository,
	logger zerolog.Logger,
) CartService {
	return &cartService{
		cartRepo:    cartRepo,
		productRepo: productRepo,
		logger:      logger.With().Str("service", "cart").Logger(),
	}
}

// GetCart retrieves the user's cart with its subtotal.
func (s *cartService) GetCart(ctx context.Context, userID uuid.UUID) (*model.CartResponse, error) {
	lines, err := s.cartRepo.GetCart(ctx, userID)
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", userID.String()).Msg("failed to get cart")
		return nil, fmt.Errorf("failed to get cart: %w", err)
	}
	return cartResponse(lines), nil
}

// AddLine adds a product to the cart, snapshotting the catalogue price.
func (s *cartService) AddLine(ctx context.Context, userID uuid.UUID, req *model.AddLineRequest) (*model.CartResponse, error) {
	if req == nil || req.ProductID == "" {
		return nil, model.ErrProductNotFound
	}
	if req.Quantity <= 0 {
		return nil, model.ErrInvalidQuantity
	}

	product, err := s.productRepo.GetByID(ctx, req.ProductID)
	if err != nil {
		s.logger.Error().Err(err).Str("product_id", req.ProductID).Msg("failed to resolve product")
		return nil, fmt.Errorf("failed to resolve product: %w", err)
	}
	if product == nil {
		s.logger.Warn().Str("product_id", req.ProductID).Msg("product not found")
		return nil, model.ErrProductNotFound
	}

	line := &model.CartLine{
		ID:            uuid.New(),
		UserID:        userID,
		ProductID:     product.ID,
		Size:          req.Size,
		Color:         req.Color,
		Quantity:      req.Quantity,
		OriginalPrice: product.OriginalPrice,
		RealPrice:     product.RealPrice,
		Name:          product.Name,
		Image:         product.Image,
	}

	if _, err := s.cartRepo.UpsertLine(ctx, line); err != nil {
		s.logger.Error().
			Err(err).
			Str("user_id", userID.String()).
			Str("product_id", product.ID).
			Msg("failed to add cart line")
		return nil, fmt.Errorf("failed to add cart line: %w", err)
	}

	s.logger.Info().
		Str("user_id", userID.String()).
		Str("product_id", product.ID).
		Int("quantity", req.Quantity).
		Msg("cart line added")

	return s.GetCart(ctx, userID)
}

// UpdateQuantity replaces the quantity of an existing line.
func (s *cartService) UpdateQuantity(ctx context.Context, userID uuid.UUID, productID string, req *model.UpdateLineRequest) (*model.CartResponse, error) {
	if req == nil || req.Quantity <= 0 {
		return nil, model.ErrInvalidQuantity
	}

	err := s.cartRepo.SetQuantity(ctx, userID, productID, req.Size, req.Color, req.Quantity)
	if err != nil {
		if err == model.ErrCartLineNotFound {
			return nil, err
		}
		s.logger.Error().
			Err(err).
			Str("user_id", userID.String()).
			Str("product_id", productID).
			Msg("failed to update cart line")
		return nil, fmt.Errorf("failed to update cart line: %w", err)
	}

	return s.GetCart(ctx, userID)
}

// RemoveLine removes one line by identity key.
func (s *cartService) RemoveLine(ctx context.Context, userID uuid.UUID, productID, size, color string) (*model.CartResponse, error) {
	err := s.cartRepo.RemoveLine(ctx, userID, productID, size, color)
	if err != nil {
		if err == model.ErrCartLineNotFound {
			return nil, err
		}
		s.logger.Error().
			Err(err).
			Str("user_id", userID.String()).
			Str("product_id", productID).
			Msg("failed to remove cart line")
		return nil, fmt.Errorf("failed to remove cart line: %w", err)
	}

	return s.GetCart(ctx, userID)
}

// ClearCart removes every line from the user's cart.
func (s *cartService) ClearCart(ctx context.Context, userID uuid.UUID) error {
	if err := s.cartRepo.ClearCart(ctx, userID); err != nil {
		s.logger.Error().Err(err).Str("user_id", userID.String()).Msg("failed to clear cart")
		return fmt.Errorf("failed to clear cart: %w", err)
	}

	s.logger.Info().Str("user_id", userID.String()).Msg("cart cleared")
	return nil
}

// MergeGuestCart folds a client-held anonymous cart into the account cart.
// The whole merge is one transaction: a failure leaves the account cart
// unchanged so the guest copy is never the only surviving record.
func (s *cartService) MergeGuestCart(ctx context.Context, userID uuid.UUID, req *model.MergeCartRequest) (*model.CartResponse, error) {
	if req == nil || len(req.Lines) == 0 {
		return s.GetCart(ctx, userID)
	}

	for i, guest := range req.Lines {
		if guest.ProductID == "" {
			return nil, fmt.Errorf("guest line %d: product ID is required", i)
		}
		if guest.Quantity <= 0 {
			return nil, model.ErrInvalidQuantity
		}
	}

	tx, err := s.cartRepo.BeginTx(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to begin merge transaction")
		return nil, fmt.Errorf("failed to merge guest cart: %w", err)
	}

	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				s.logger.Error().Err(rbErr).Msg("failed to rollback merge transaction")
			}
		}
	}()

	for _, guest := range req.Lines {
		line := &model.CartLine{
			ID:            uuid.New(),
			UserID:        userID,
			ProductID:     guest.ProductID,
			Size:          guest.Size,
			Color:         guest.Color,
			Quantity:      guest.Quantity,
			OriginalPrice: guest.OriginalPrice,
			RealPrice:     guest.RealPrice,
			Name:          guest.Name,
			Image:         guest.Image,
		}

		if _, err = s.cartRepo.UpsertLineTx(ctx, tx, line); err != nil {
			s.logger.Error().
				Err(err).
				Str("user_id", userID.String()).
				Str("product_id", guest.ProductID).
				Msg("failed to merge guest line")
			return nil, fmt.Errorf("failed to merge guest cart: %w", err)
		}
	}

	if err = tx.Commit(ctx); err != nil {
		s.logger.Error().Err(err).Str("user_id", userID.String()).Msg("failed to commit merge transaction")
		return nil, fmt.Errorf("failed to merge guest cart: %w", err)
	}

	s.logger.Info().
		Str("user_id", userID.String()).
		Int("guest_lines", len(req.Lines)).
		Msg("guest cart merged")

	return s.GetCart(ctx, userID)
}

// cartResponse assembles the response payload with the running subtotal.
func cartResponse(lines []model.CartLine) *model.CartResponse {
	var subtotal float64
	for _, line := range lines {
		subtotal += line.RealPrice * float64(line.Quantity)
	}
	return &model.CartResponse{Lines: lines, Subtotal: subtotal}
}
