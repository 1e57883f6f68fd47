package model

import (
	"time"

	"github.com/google/uuid"
)

// Product is catalogue reference data. The checkout core reads it only at
// add-to-cart time to capture the price snapshot; it is owned elsewhere.
type Product struct {
	ID            string    `json:"id" db:"id"`
	Name          string    `json:"name" db:"name"`
	Image         string    `json:"image" db:"image"`
	OriginalPrice float64   `json:"originalPrice" db:"original_price"`
	RealPrice     float64   `json:"realPrice" db:"real_price"`
	CreatedAt     time.Time `json:"createdAt" db:"created_at"`
}

// Address is a shipping address reference resolved at checkout start. The
// address book itself is owned elsewhere; only existence matters here.
type Address struct {
	ID       uuid.UUID `json:"id" db:"id"`
	UserID   uuid.UUID `json:"userId" db:"user_id"`
	Line1    string    `json:"line1" db:"line1"`
	City     string    `json:"city" db:"city"`
	PostCode string    `json:"postCode" db:"post_code"`
	Country  string    `json:"country" db:"country"`
}
