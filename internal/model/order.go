package model

import (
	"time"

	"github.com/google/uuid"
)

// PaymentMethod selects how an order is paid.
type PaymentMethod string

const (
	MethodCOD    PaymentMethod = "cod"
	MethodOnline PaymentMethod = "online"
)

// IsValid reports whether m is a known payment method.
func (m PaymentMethod) IsValid() bool {
	return m == MethodCOD || m == MethodOnline
}

// Order is the immutable post-checkout record. Items are a deep copy of the
// cart lines at creation time; the gateway correlation ids stay nil until the
// gateway interaction occurs. Orders are never deleted.
type Order struct {
	ID               uuid.UUID     `json:"id" db:"id"`
	UserID           uuid.UUID     `json:"userId" db:"user_id"`
	AddressID        uuid.UUID     `json:"addressId" db:"address_id"`
	Subtotal         float64       `json:"subtotal" db:"subtotal"`
	Discount         float64       `json:"discount" db:"discount"`
	Total            float64       `json:"total" db:"total"`
	CouponCode       *string       `json:"couponCode,omitempty" db:"coupon_code"`
	PaymentMethod    PaymentMethod `json:"paymentMethod" db:"payment_method"`
	PaymentStatus    PaymentStatus `json:"paymentStatus" db:"payment_status"`
	Status           OrderStatus   `json:"status" db:"status"`
	GatewayOrderID   *string       `json:"gatewayOrderId,omitempty" db:"gateway_order_id"`
	GatewayPaymentID *string       `json:"gatewayPaymentId,omitempty" db:"gateway_payment_id"`
	CreatedAt        time.Time     `json:"createdAt" db:"created_at"`
	UpdatedAt        time.Time     `json:"updatedAt" db:"updated_at"`
}

// OrderItem is one frozen line of an order snapshot.
type OrderItem struct {
	ID            uuid.UUID `json:"-" db:"id"`
	OrderID       uuid.UUID `json:"-" db:"order_id"`
	ProductID     string    `json:"productId" db:"product_id"`
	Size          string    `json:"size,omitempty" db:"size"`
	Color         string    `json:"color,omitempty" db:"color"`
	Quantity      int       `json:"quantity" db:"quantity"`
	OriginalPrice float64   `json:"originalPrice" db:"original_price"`
	RealPrice     float64   `json:"realPrice" db:"real_price"`
	Name          string    `json:"name" db:"name"`
	Image         string    `json:"image,omitempty" db:"image"`
}

// CheckoutRequest is the request payload for starting a checkout.
type CheckoutRequest struct {
	AddressID     uuid.UUID     `json:"addressId"`
	PaymentMethod PaymentMethod `json:"paymentMethod"`
	CouponCode    *string       `json:"couponCode,omitempty"`
}

// CheckoutResponse is the response payload for a started checkout.
type CheckoutResponse struct {
	OrderID  uuid.UUID `json:"orderId"`
	Subtotal float64   `json:"subtotal"`
	Discount float64   `json:"discount"`
	Total    float64   `json:"total"`
}

// PaymentOrderResponse is the response payload for a created gateway order.
// The client binds its payment widget to GatewayOrderID.
type PaymentOrderResponse struct {
	OrderID        uuid.UUID `json:"orderId"`
	GatewayOrderID string    `json:"gatewayOrderId"`
	Amount         float64   `json:"amount"`
	Currency       string    `json:"currency"`
}

// VerifyPaymentRequest is the gateway success callback relayed by the client.
type VerifyPaymentRequest struct {
	OrderID          uuid.UUID `json:"orderId"`
	GatewayOrderID   string    `json:"gatewayOrderId"`
	GatewayPaymentID string    `json:"gatewayPaymentId"`
	Signature        string    `json:"signature"`
}

// OrderResponse is the response payload for an order with its items.
type OrderResponse struct {
	Order Order       `json:"order"`
	Items []OrderItem `json:"items"`
}

// UpdateStatusRequest is the payload for a fulfillment status patch.
type UpdateStatusRequest struct {
	Status OrderStatus `json:"status"`
}

// UpdatePaymentStatusRequest is the payload for a payment status patch.
type UpdatePaymentStatusRequest struct {
	PaymentStatus PaymentStatus `json:"paymentStatus"`
}
