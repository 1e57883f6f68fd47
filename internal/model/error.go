package model

import "fmt"

// ErrorResponse represents a standardised error response.
type ErrorResponse struct {
	Error         string `json:"error"`
	Message       string `json:"message"`
	CorrelationID string `json:"correlationId,omitempty"`
}

// Standard error codes for API responses
const (
	ErrCodeInvalidJSON        = "INVALID_JSON"
	ErrCodeEmptyCart          = "EMPTY_CART"
	ErrCodeAddressNotFound    = "ADDRESS_NOT_FOUND"
	ErrCodeProductNotFound    = "PRODUCT_NOT_FOUND"
	ErrCodeOrderNotFound      = "ORDER_NOT_FOUND"
	ErrCodeCartLineNotFound   = "CART_LINE_NOT_FOUND"
	ErrCodeInvalidQuantity    = "INVALID_QUANTITY"
	ErrCodeCouponNotFound     = "COUPON_NOT_FOUND"
	ErrCodeCouponExpired      = "COUPON_EXPIRED"
	ErrCodeCouponMinOrder     = "COUPON_MIN_ORDER"
	ErrCodeCouponExhausted    = "COUPON_EXHAUSTED"
	ErrCodeInvalidPayMethod   = "INVALID_PAYMENT_METHOD"
	ErrCodeNotOnlineOrder     = "NOT_ONLINE_ORDER"
	ErrCodeInvalidTransition  = "INVALID_TRANSITION"
	ErrCodePaymentUnverified  = "PAYMENT_UNVERIFIED"
	ErrCodeGatewayUnavailable = "GATEWAY_UNAVAILABLE"
	ErrCodeUnauthorised       = "UNAUTHORIZED"
	ErrCodeInternalError      = "INTERNAL_ERROR"
)

// DomainError is a business-rule violation that is safe to surface to the caller.
type DomainError struct {
	Code    string
	Message string
}

func (e *DomainError) Error() string {
	return e.Message
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// Common domain errors
var (
	ErrEmptyCart        = NewDomainError(ErrCodeEmptyCart, "Cart is empty")
	ErrAddressNotFound  = NewDomainError(ErrCodeAddressNotFound, "Shipping address not found")
	ErrProductNotFound  = NewDomainError(ErrCodeProductNotFound, "Product not found")
	ErrOrderNotFound    = NewDomainError(ErrCodeOrderNotFound, "Order not found")
	ErrCartLineNotFound = NewDomainError(ErrCodeCartLineNotFound, "Cart line not found")
	ErrInvalidQuantity  = NewDomainError(ErrCodeInvalidQuantity, "Quantity must be greater than zero")
	ErrCouponNotFound   = NewDomainError(ErrCodeCouponNotFound, "Coupon code not found or inactive")
	ErrCouponExpired    = NewDomainError(ErrCodeCouponExpired, "Coupon is outside its validity window")
	ErrCouponMinOrder   = NewDomainError(ErrCodeCouponMinOrder, "Order subtotal is below the coupon minimum")
	ErrCouponExhausted  = NewDomainError(ErrCodeCouponExhausted, "Coupon usage limit reached")
	ErrInvalidPayMethod = NewDomainError(ErrCodeInvalidPayMethod, "Payment method must be cod or online")
	ErrNotOnlineOrder   = NewDomainError(ErrCodeNotOnlineOrder, "Order is not an online payment")
)

// InvalidTransitionError is a rejected state-machine edge. Field names the
// machine ("status" or "paymentStatus"); From/To are the attempted edge.
type InvalidTransitionError struct {
	Field string
	From  string
	To    string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid %s transition: %s -> %s", e.Field, e.From, e.To)
}

// NewInvalidTransition creates an InvalidTransitionError for the given machine and edge.
func NewInvalidTransition(field, from, to string) *InvalidTransitionError {
	return &InvalidTransitionError{Field: field, From: from, To: to}
}

// GatewayError wraps a transport or availability failure talking to the
// payment gateway. It aborts the current payment attempt only; the order is
// left in its pre-attempt state.
type GatewayError struct {
	Op  string
	Err error
}

func (e *GatewayError) Error() string {
	return fmt.Sprintf("payment gateway %s failed: %v", e.Op, e.Err)
}

func (e *GatewayError) Unwrap() error {
	return e.Err
}
