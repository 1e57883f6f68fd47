package gateway

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"time"

	"kart-checkout/internal/model"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker/v2"
)

// Config holds payment gateway client configuration.
type Config struct {
	BaseURL   string
	KeyID     string
	KeySecret string
	Timeout   time.Duration
}

// client implements PaymentGateway against a Razorpay-style HTTP API. Calls
// go through a circuit breaker so a flapping gateway fails fast instead of
// tying up checkout requests.
type client struct {
	cfg     Config
	http    *http.Client
	breaker *gobreaker.CircuitBreaker[*RemoteOrder]
	logger  zerolog.Logger
}

// NewClient creates a new payment gateway client.
func NewClient(cfg Config, logger zerolog.Logger) PaymentGateway {
	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Second
	}

	logger = logger.With().Str("component", "payment-gateway").Logger()

	breaker := gobreaker.NewCircuitBreaker[*RemoteOrder](gobreaker.Settings{
		Name:    "payment-gateway",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("circuit breaker state changed")
		},
	})

	return &client{
		cfg:     cfg,
		http:    &http.Client{Timeout: cfg.Timeout},
		breaker: breaker,
		logger:  logger,
	}
}

// createOrderRequest is the gateway wire format for order creation. Amount is
// in minor units.
type createOrderRequest struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
}

type createOrderResponse struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

// CreateOrder creates a remote payment order for the given amount.
func (c *client) CreateOrder(ctx context.Context, amount float64, currency, receipt string) (*RemoteOrder, error) {
	minor := int64(math.Round(amount * 100))

	remote, err := c.breaker.Execute(func() (*RemoteOrder, error) {
		return c.createOrder(ctx, minor, currency, receipt)
	})
	if err != nil {
		c.logger.Error().
			Err(err).
			Str("receipt", receipt).
			Int64("amount_minor", minor).
			Msg("gateway order creation failed")
		return nil, &model.GatewayError{Op: "create order", Err: err}
	}

	c.logger.Info().
		Str("receipt", receipt).
		Str("gateway_order_id", remote.GatewayOrderID).
		Int64("amount_minor", remote.Amount).
		Msg("gateway order created")

	return remote, nil
}

func (c *client) createOrder(ctx context.Context, amountMinor int64, currency, receipt string) (*RemoteOrder, error) {
	body, err := json.Marshal(createOrderRequest{
		Amount:   amountMinor,
		Currency: currency,
		Receipt:  receipt,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode order request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/v1/orders", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build order request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.SetBasicAuth(c.cfg.KeyID, c.cfg.KeySecret)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("gateway request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("gateway returned status %d: %s", resp.StatusCode, payload)
	}

	var decoded createOrderResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("failed to decode gateway response: %w", err)
	}
	if decoded.ID == "" {
		return nil, fmt.Errorf("gateway response missing order id")
	}

	return &RemoteOrder{
		GatewayOrderID: decoded.ID,
		Amount:         decoded.Amount,
		Currency:       decoded.Currency,
	}, nil
}

// VerifySignature checks the HMAC-SHA256 of "orderID|paymentID" against the
// signature the gateway returned, in constant time.
func (c *client) VerifySignature(gatewayOrderID, gatewayPaymentID, signature string) bool {
	mac := hmac.New(sha256.New, []byte(c.cfg.KeySecret))
	mac.Write([]byte(gatewayOrderID + "|" + gatewayPaymentID))
	expected := hex.EncodeToString(mac.Sum(nil))

	return hmac.Equal([]byte(expected), []byte(signature))
}
