package repository

import (
	"context"
	"fmt"

	"kart-checkout/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// couponRepository implements the CouponRepository interface using PostgreSQL.
type couponRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewCouponRepository creates a new PostgreSQL-backed coupon repository.
func NewCouponRepository(pool *pgxpool.Pool, logger zerolog.Logger) CouponRepository {
	return &couponRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "coupon").Logger(),
	}
}

// GetByCode retrieves a coupon by code. Returns nil when absent.
func (r *couponRepository) GetByCode(ctx context.Context, code string) (*model.Coupon, error) {
	query := `
		SELECT code, type, value, min_order_amount, max_discount, valid_from, valid_until, usage_limit, used_count, active
		FROM coupons
		WHERE code = $1
	`

	var coupon model.Coupon
	err := r.pool.QueryRow(ctx, query, code).Scan(
		&coupon.Code,
		&coupon.Type,
		&coupon.Value,
		&coupon.MinOrderAmount,
		&coupon.MaxDiscount,
		&coupon.ValidFrom,
		&coupon.ValidUntil,
		&coupon.UsageLimit,
		&coupon.UsedCount,
		&coupon.Active,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			r.logger.Debug().Str("coupon_code", code).Msg("coupon not found")
			return nil, nil
		}
		r.logger.Error().Err(err).Str("coupon_code", code).Msg("failed to query coupon")
		return nil, fmt.Errorf("failed to query coupon: %w", err)
	}

	return &coupon, nil
}

// IncrementUsageTx increments the usage counter inside the checkout
// transaction. The WHERE clause re-checks the cap so concurrent redemptions
// that would exceed it roll the whole checkout back.
func (r *couponRepository) IncrementUsageTx(ctx context.Context, tx pgx.Tx, code string) error {
	tag, err := tx.Exec(ctx,
		`UPDATE coupons SET used_count = used_count + 1 WHERE code = $1 AND used_count < usage_limit`,
		code,
	)
	if err != nil {
		r.logger.Error().Err(err).Str("coupon_code", code).Msg("failed to increment coupon usage")
		return fmt.Errorf("failed to increment coupon usage: %w", err)
	}

	if tag.RowsAffected() == 0 {
		r.logger.Warn().Str("coupon_code", code).Msg("coupon usage limit reached")
		return model.ErrCouponExhausted
	}

	return nil
}

// Upsert inserts or refreshes a coupon definition. The usage counter is kept
// on conflict so reseeding never resets redemption accounting.
func (r *couponRepository) Upsert(ctx context.Context, coupon *model.Coupon) error {
	query := `
		INSERT INTO coupons (code, type, value, min_order_amount, max_discount, valid_from, valid_until, usage_limit, used_count, active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, 0, $9)
		ON CONFLICT (code)
		DO UPDATE SET
			type = EXCLUDED.type,
			value = EXCLUDED.value,
			min_order_amount = EXCLUDED.min_order_amount,
			max_discount = EXCLUDED.max_discount,
			valid_from = EXCLUDED.valid_from,
			valid_until = EXCLUDED.valid_until,
			usage_limit = EXCLUDED.usage_limit,
			active = EXCLUDED.active
	`

	_, err := r.pool.Exec(ctx, query,
		coupon.Code, coupon.Type, coupon.Value,
		coupon.MinOrderAmount, coupon.MaxDiscount,
		coupon.ValidFrom, coupon.ValidUntil,
		coupon.UsageLimit, coupon.Active,
	)
	if err != nil {
		r.logger.Error().Err(err).Str("coupon_code", coupon.Code).Msg("failed to upsert coupon")
		return fmt.Errorf("failed to upsert coupon: %w", err)
	}

	return nil
}
