package model

// OrderStatus is the fulfillment state of an order.
type OrderStatus string

const (
	StatusPlaced     OrderStatus = "placed"
	StatusPending    OrderStatus = "pending"
	StatusProcessing OrderStatus = "processing"
	StatusShipped    OrderStatus = "shipped"
	StatusDelivered  OrderStatus = "delivered"
	StatusCompleted  OrderStatus = "completed"
	StatusCancelled  OrderStatus = "cancelled"
)

// PaymentStatus is the payment state of an order.
type PaymentStatus string

const (
	PaymentPending PaymentStatus = "pending"
	PaymentPaid    PaymentStatus = "paid"
	PaymentFailed  PaymentStatus = "failed"
	PaymentCOD     PaymentStatus = "cod"
)

// orderStatusEdges is the allowed-transition table for fulfillment state.
// Completed and cancelled are terminal.
var orderStatusEdges = map[OrderStatus][]OrderStatus{
	StatusPlaced:     {StatusPending, StatusProcessing, StatusCancelled},
	StatusPending:    {StatusProcessing, StatusCancelled},
	StatusProcessing: {StatusShipped, StatusCompleted, StatusCancelled},
	StatusShipped:    {StatusDelivered, StatusCompleted, StatusCancelled},
	StatusDelivered:  {StatusCompleted},
	StatusCompleted:  {},
	StatusCancelled:  {},
}

// paymentStatusEdges is the allowed-transition table for payment state.
// Paid is terminal: no mutation may follow a committed payment.
var paymentStatusEdges = map[PaymentStatus][]PaymentStatus{
	PaymentPending: {PaymentPaid, PaymentFailed, PaymentCOD},
	PaymentFailed:  {PaymentPending, PaymentPaid},
	PaymentCOD:     {PaymentPaid, PaymentFailed},
	PaymentPaid:    {},
}

// IsValid reports whether s is a known fulfillment state.
func (s OrderStatus) IsValid() bool {
	_, ok := orderStatusEdges[s]
	return ok
}

// IsValid reports whether s is a known payment state.
func (s PaymentStatus) IsValid() bool {
	_, ok := paymentStatusEdges[s]
	return ok
}

// CanTransition reports whether the fulfillment state machine allows from -> to.
// A same-state transition is always allowed and treated as a no-op by callers.
func (s OrderStatus) CanTransition(to OrderStatus) bool {
	if s == to {
		return s.IsValid()
	}
	for _, next := range orderStatusEdges[s] {
		if next == to {
			return true
		}
	}
	return false
}

// CanTransition reports whether the payment state machine allows from -> to.
func (s PaymentStatus) CanTransition(to PaymentStatus) bool {
	if s == to {
		return s.IsValid()
	}
	for _, next := range paymentStatusEdges[s] {
		if next == to {
			return true
		}
	}
	return false
}
