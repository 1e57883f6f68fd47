package model

import (
	"time"

	"github.com/google/uuid"
)

// CartLine is one (product, size, color) entry in a user's cart. The price
// pair is snapshotted from the catalogue at add time and never recomputed, so
// later catalogue edits cannot change what the customer was shown.
type CartLine struct {
	ID            uuid.UUID `json:"-" db:"id"`
	UserID        uuid.UUID `json:"-" db:"user_id"`
	ProductID     string    `json:"productId" db:"product_id"`
	Size          string    `json:"size,omitempty" db:"size"`
	Color         string    `json:"color,omitempty" db:"color"`
	Quantity      int       `json:"quantity" db:"quantity"`
	OriginalPrice float64   `json:"originalPrice" db:"original_price"`
	RealPrice     float64   `json:"realPrice" db:"real_price"`
	Name          string    `json:"name" db:"name"`
	Image         string    `json:"image,omitempty" db:"image"`
	CreatedAt     time.Time `json:"-" db:"created_at"`
	UpdatedAt     time.Time `json:"-" db:"updated_at"`
}

// AddLineRequest is the payload for adding a product to the cart.
type AddLineRequest struct {
	ProductID string `json:"productId"`
	Size      string `json:"size,omitempty"`
	Color     string `json:"color,omitempty"`
	Quantity  int    `json:"quantity"`
}

// UpdateLineRequest is the payload for replacing a cart line's quantity.
type UpdateLineRequest struct {
	Size     string `json:"size,omitempty"`
	Color    string `json:"color,omitempty"`
	Quantity int    `json:"quantity"`
}

// GuestLine is one entry of a client-held anonymous cart submitted for merging.
// It carries the full snapshot the guest session captured at add time.
type GuestLine struct {
	ProductID     string  `json:"productId"`
	Size          string  `json:"size,omitempty"`
	Color         string  `json:"color,omitempty"`
	Quantity      int     `json:"quantity"`
	OriginalPrice float64 `json:"originalPrice"`
	RealPrice     float64 `json:"realPrice"`
	Name          string  `json:"name"`
	Image         string  `json:"image,omitempty"`
}

// MergeCartRequest is the payload for folding a guest cart into the account cart.
type MergeCartRequest struct {
	Lines []GuestLine `json:"lines"`
}

// CartResponse is the response payload for cart reads and mutations.
type CartResponse struct {
	Lines    []CartLine `json:"lines"`
	Subtotal float64    `json:"subtotal"`
}
