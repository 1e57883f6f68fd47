// Package pricing computes order totals from a cart snapshot. It is a pure
// calculation with no storage access; coupon resolution and usage accounting
// live with the caller.
package pricing

import (
	"math"
	"time"

	"kart-checkout/internal/model"
)

// Slab discount: a fixed amount off per full thousand of subtotal, granted
// only for online payment to steer customers off cash on delivery.
const (
	slabStep   = 1000.0
	slabAmount = 50.0
)

// Totals is the result of a totals computation. Discount is the combined
// coupon and slab discount, capped at Subtotal; Total is never negative.
type Totals struct {
	Subtotal       float64
	CouponDiscount float64
	SlabDiscount   float64
	Discount       float64
	Total          float64
}

// ComputeTotals prices a line-item list for the given payment method. The
// coupon, if non-nil, must already have passed eligibility checks for the
// current instant and subtotal; CouponEligible does that.
func ComputeTotals(lines []model.CartLine, method model.PaymentMethod, coupon *model.Coupon) Totals {
	var subtotal float64
	for _, line := range lines {
		subtotal += line.RealPrice * float64(line.Quantity)
	}

	var couponDiscount float64
	if coupon != nil {
		couponDiscount = couponAmount(coupon, subtotal)
	}

	var slab float64
	if method == model.MethodOnline {
		slab = math.Floor(subtotal/slabStep) * slabAmount
	}

	discount := math.Min(subtotal, couponDiscount+slab)
	total := math.Max(subtotal-discount, 0)

	return Totals{
		Subtotal:       subtotal,
		CouponDiscount: couponDiscount,
		SlabDiscount:   slab,
		Discount:       discount,
		Total:          total,
	}
}

// couponAmount returns the discount a coupon yields on the given subtotal,
// capped at the subtotal itself.
func couponAmount(c *model.Coupon, subtotal float64) float64 {
	var amount float64
	switch c.Type {
	case model.CouponPercentage:
		amount = subtotal * c.Value / 100
		if c.MaxDiscount != nil && amount > *c.MaxDiscount {
			amount = *c.MaxDiscount
		}
	case model.CouponFixed:
		amount = c.Value
	}
	return math.Min(amount, subtotal)
}

// CouponEligible checks a resolved coupon against the validity window and
// minimum-order constraint. It returns nil when the coupon may be applied.
func CouponEligible(c *model.Coupon, subtotal float64, now time.Time) error {
	if c == nil {
		return model.ErrCouponNotFound
	}
	if !c.Active {
		return model.ErrCouponNotFound
	}
	if c.UsedCount >= c.UsageLimit {
		return model.ErrCouponExhausted
	}
	if now.Before(c.ValidFrom) || now.After(c.ValidUntil) {
		return model.ErrCouponExpired
	}
	if c.MinOrderAmount != nil && subtotal < *c.MinOrderAmount {
		return model.ErrCouponMinOrder
	}
	return nil
}
