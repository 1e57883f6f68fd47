package handler

import (
	"encoding/json"
	"net/http"

	"kart-checkout/internal/model"
	"kart-checkout/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// CheckoutHandler handles checkout and payment-handshake HTTP requests.
type CheckoutHandler struct {
	service service.CheckoutService
	logger  zerolog.Logger
}

// NewCheckoutHandler creates a new checkout handler.
func NewCheckoutHandler(service service.CheckoutService, logger zerolog.Logger) *CheckoutHandler {
	return &CheckoutHandler{
		service: service,
		logger:  logger.With().Str("handler", "checkout").Logger(),
	}
}

// Start handles POST /api/checkout requests.
func (h *CheckoutHandler) Start(w http.ResponseWriter, r *http.Request) {
	uid, err := userID(r)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "missing or invalid user id", h.logger)
		return
	}

	var req model.CheckoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", h.logger)
		return
	}

	resp, err := h.service.StartCheckout(r.Context(), uid, &req)
	if err != nil {
		writeDomainError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusCreated, resp)
}

// CreatePaymentOrder handles POST /api/checkout/{orderID}/payment requests.
func (h *CheckoutHandler) CreatePaymentOrder(w http.ResponseWriter, r *http.Request) {
	uid, err := userID(r)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "missing or invalid user id", h.logger)
		return
	}

	orderID, err := uuid.Parse(chi.URLParam(r, "orderID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid order ID format", h.logger)
		return
	}

	resp, err := h.service.CreatePaymentOrder(r.Context(), uid, orderID)
	if err != nil {
		writeDomainError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusCreated, resp)
}

// Verify handles POST /api/payments/verify requests, the client-relayed
// gateway success callback.
func (h *CheckoutHandler) Verify(w http.ResponseWriter, r *http.Request) {
	var req model.VerifyPaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", h.logger)
		return
	}

	if req.OrderID == uuid.Nil || req.GatewayOrderID == "" || req.GatewayPaymentID == "" || req.Signature == "" {
		writeError(w, http.StatusBadRequest, "orderId, gatewayOrderId, gatewayPaymentId and signature are required", h.logger)
		return
	}

	if err := h.service.ConfirmPayment(r.Context(), &req); err != nil {
		writeDomainError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "paid"})
}

// reportFailureRequest is the payload for a non-terminal failure report.
type reportFailureRequest struct {
	Reason string `json:"reason"`
}

// ReportFailure handles POST /api/payments/{orderID}/failed requests. The
// widget is still open, so this is logged only.
func (h *CheckoutHandler) ReportFailure(w http.ResponseWriter, r *http.Request) {
	orderID, err := uuid.Parse(chi.URLParam(r, "orderID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid order ID format", h.logger)
		return
	}

	var req reportFailureRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		req.Reason = ""
	}

	h.service.ReportPaymentFailure(r.Context(), orderID, req.Reason)
	w.WriteHeader(http.StatusAccepted)
}

// Abandon handles POST /api/payments/{orderID}/abandon requests.
func (h *CheckoutHandler) Abandon(w http.ResponseWriter, r *http.Request) {
	orderID, err := uuid.Parse(chi.URLParam(r, "orderID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid order ID format", h.logger)
		return
	}

	if err := h.service.AbandonPayment(r.Context(), orderID); err != nil {
		writeDomainError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "failed"})
}
