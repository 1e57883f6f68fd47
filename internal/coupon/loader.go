// Package coupon loads coupon definitions from a seed source (local file or
// S3) and upserts them into the coupon store at startup, so the discount
// computation always resolves codes against the database.
package coupon

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"kart-checkout/internal/model"
	"kart-checkout/internal/repository"

	"github.com/rs/zerolog"
)

// Loader defines the interface for reading coupon definition files.
type Loader interface {
	// Load reads a JSON coupon definitions file and returns the coupons.
	Load(ctx context.Context, path string) ([]model.Coupon, error)
}

// fileLoader implements Loader for local JSON files.
type fileLoader struct {
	logger zerolog.Logger
}

// NewFileLoader creates a new file-based coupon loader.
func NewFileLoader(logger zerolog.Logger) Loader {
	return &fileLoader{
		logger: logger.With().Str("component", "coupon-loader").Logger(),
	}
}

// Load reads a JSON coupon definitions file.
func (l *fileLoader) Load(ctx context.Context, path string) ([]model.Coupon, error) {
	l.logger.Info().Str("file", path).Msg("loading coupon definitions")

	data, err := os.ReadFile(path)
	if err != nil {
		l.logger.Error().Err(err).Str("file", path).Msg("failed to read coupon file")
		return nil, fmt.Errorf("failed to read coupon file %s: %w", path, err)
	}

	coupons, err := decodeCoupons(data)
	if err != nil {
		l.logger.Error().Err(err).Str("file", path).Msg("failed to decode coupon file")
		return nil, fmt.Errorf("failed to decode coupon file %s: %w", path, err)
	}

	l.logger.Info().
		Str("file", path).
		Int("count", len(coupons)).
		Msg("coupon definitions loaded")

	return coupons, nil
}

// decodeCoupons parses and sanity-checks a coupon definitions document.
func decodeCoupons(data []byte) ([]model.Coupon, error) {
	var coupons []model.Coupon
	if err := json.Unmarshal(data, &coupons); err != nil {
		return nil, err
	}

	for i, c := range coupons {
		if c.Code == "" {
			return nil, fmt.Errorf("coupon %d: code is required", i)
		}
		if c.Type != model.CouponPercentage && c.Type != model.CouponFixed {
			return nil, fmt.Errorf("coupon %s: unknown type %q", c.Code, c.Type)
		}
		if c.Value <= 0 {
			return nil, fmt.Errorf("coupon %s: value must be positive", c.Code)
		}
		if c.UsageLimit <= 0 {
			return nil, fmt.Errorf("coupon %s: usage limit must be positive", c.Code)
		}
		if !c.ValidUntil.After(c.ValidFrom) {
			return nil, fmt.Errorf("coupon %s: validity window is empty", c.Code)
		}
	}

	return coupons, nil
}

// Seed loads coupon definitions and upserts them into the store. Existing
// usage counters are preserved by the repository upsert.
func Seed(ctx context.Context, repo repository.CouponRepository, loader Loader, path string, logger zerolog.Logger) error {
	coupons, err := loader.Load(ctx, path)
	if err != nil {
		return err
	}

	for i := range coupons {
		if err := repo.Upsert(ctx, &coupons[i]); err != nil {
			return fmt.Errorf("failed to seed coupon %s: %w", coupons[i].Code, err)
		}
	}

	logger.Info().Int("count", len(coupons)).Msg("coupon definitions seeded")
	return nil
}
