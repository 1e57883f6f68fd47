// Package gateway is the payment-gateway boundary: create a remote payment
// order and verify a completed payment's signature. Everything behind the
// HTTP call is a black box; any non-2xx or malformed response is an adapter
// failure, not a domain error.
package gateway

import "context"

// RemoteOrder is the gateway's record of a payment order. Amount is in minor
// currency units, as the gateway requires.
type RemoteOrder struct {
	GatewayOrderID string
	Amount         int64
	Currency       string
}

// PaymentGateway defines the operations the checkout orchestrator needs from
// the payment provider.
type PaymentGateway interface {
	// CreateOrder creates a remote payment order for the given amount in
	// major currency units, keyed by receipt for reconciliation.
	CreateOrder(ctx context.Context, amount float64, currency, receipt string) (*RemoteOrder, error)

	// VerifySignature reports whether the signature the gateway returned
	// for (gatewayOrderID, gatewayPaymentID) is authentic.
	VerifySignature(gatewayOrderID, gatewayPaymentID, signature string) bool
}
