package model

import "time"

// CouponType selects how a coupon's value is applied.
type CouponType string

const (
	CouponPercentage CouponType = "percentage"
	CouponFixed      CouponType = "fixed"
)

// Coupon is a named discount rule. The Discount Engine treats it as read-only
// except for UsedCount, which is incremented exactly once per successful
// redemption inside the order-creation transaction.
type Coupon struct {
	Code           string     `json:"code" db:"code"`
	Type           CouponType `json:"type" db:"type"`
	Value          float64    `json:"value" db:"value"`
	MinOrderAmount *float64   `json:"minOrderAmount,omitempty" db:"min_order_amount"`
	MaxDiscount    *float64   `json:"maxDiscount,omitempty" db:"max_discount"`
	ValidFrom      time.Time  `json:"validFrom" db:"valid_from"`
	ValidUntil     time.Time  `json:"validUntil" db:"valid_until"`
	UsageLimit     int        `json:"usageLimit" db:"usage_limit"`
	UsedCount      int        `json:"usedCount" db:"used_count"`
	Active         bool       `json:"active" db:"active"`
}
