package integration

import (
	"context"
	"testing"
	"time"

	"kart-checkout/internal/events"
	"kart-checkout/internal/gateway"
	"kart-checkout/internal/model"
	"kart-checkout/internal/repository"
	"kart-checkout/internal/service"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubGateway satisfies the gateway interface without a remote endpoint.
type stubGateway struct {
	orderID   string
	signature string
}

func (g *stubGateway) CreateOrder(ctx context.Context, amount float64, currency, receipt string) (*gateway.RemoteOrder, error) {
	return &gateway.RemoteOrder{
		GatewayOrderID: g.orderID,
		Amount:         int64(amount * 100),
		Currency:       currency,
	}, nil
}

func (g *stubGateway) VerifySignature(gatewayOrderID, gatewayPaymentID, signature string) bool {
	return signature == g.signature
}

type checkoutFixture struct {
	db          *TestDB
	cartRepo    repository.CartRepository
	orderRepo   repository.OrderRepository
	couponRepo  repository.CouponRepository
	checkoutSvc service.CheckoutService
	gateway     *stubGateway
}

func setupCheckout(t *testing.T) *checkoutFixture {
	t.Helper()

	db := SetupTestDB(t)
	logger := zerolog.Nop()

	SeedProducts(t, db.Pool)

	cartRepo := repository.NewCartRepository(db.Pool, logger)
	orderRepo := repository.NewOrderRepository(db.Pool, logger)
	couponRepo := repository.NewCouponRepository(db.Pool, logger)
	addressRepo := repository.NewAddressRepository(db.Pool, logger)

	gw := &stubGateway{orderID: "order_test123", signature: "valid-signature"}

	checkoutSvc := service.NewCheckoutService(
		cartRepo, orderRepo, couponRepo, addressRepo,
		gw, events.NewNoopPublisher(), "INR", logger,
	)

	return &checkoutFixture{
		db:          db,
		cartRepo:    cartRepo,
		orderRepo:   orderRepo,
		couponRepo:  couponRepo,
		checkoutSvc: checkoutSvc,
		gateway:     gw,
	}
}

func (f *checkoutFixture) fillCart(t *testing.T, userID uuid.UUID) {
	t.Helper()
	ctx := context.Background()

	// Subtotal 2500.00
	lines := []*model.CartLine{
		{ID: uuid.New(), UserID: userID, ProductID: "P001", Size: "M", Quantity: 2, OriginalPrice: 1200.00, RealPrice: 1000.00, Name: "Test Product 1"},
		{ID: uuid.New(), UserID: userID, ProductID: "P002", Quantity: 1, OriginalPrice: 600.00, RealPrice: 500.00, Name: "Test Product 2"},
	}
	for _, line := range lines {
		_, err := f.cartRepo.UpsertLine(ctx, line)
		require.NoError(t, err)
	}
}

func TestCheckout_EndToEnd(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	f := setupCheckout(t)
	ctx := context.Background()

	userID := uuid.New()
	addressID := SeedAddress(t, f.db.Pool, userID)
	f.fillCart(t, userID)

	minOrder := 1000.00
	maxDiscount := 200.00
	SeedCoupon(t, f.db.Pool, model.Coupon{
		Code:           "SAVE10",
		Type:           model.CouponPercentage,
		Value:          10,
		MinOrderAmount: &minOrder,
		MaxDiscount:    &maxDiscount,
		ValidFrom:      time.Now().Add(-time.Hour),
		ValidUntil:     time.Now().Add(time.Hour),
		UsageLimit:     5,
		Active:         true,
	})

	couponCode := "SAVE10"
	resp, err := f.checkoutSvc.StartCheckout(ctx, userID, &model.CheckoutRequest{
		AddressID:     addressID,
		PaymentMethod: model.MethodOnline,
		CouponCode:    &couponCode,
	})

	require.NoError(t, err)
	require.NotNil(t, resp)
	// Coupon 200 (capped) plus slab floor(2500/1000)*50 = 100.
	assert.Equal(t, 2500.00, resp.Subtotal)
	assert.Equal(t, 300.00, resp.Discount)
	assert.Equal(t, 2200.00, resp.Total)

	// The cart is cleared in the same transaction that created the order.
	cartLines, err := f.cartRepo.GetCart(ctx, userID)
	require.NoError(t, err)
	assert.Empty(t, cartLines)

	// The coupon usage counter advanced exactly once.
	coupon, err := f.couponRepo.GetByCode(ctx, "SAVE10")
	require.NoError(t, err)
	assert.Equal(t, 1, coupon.UsedCount)

	order, items, err := f.orderRepo.GetByID(ctx, resp.OrderID)
	require.NoError(t, err)
	require.NotNil(t, order)
	assert.Equal(t, model.StatusPlaced, order.Status)
	assert.Equal(t, model.PaymentPending, order.PaymentStatus)
	require.NotNil(t, order.CouponCode)
	assert.Equal(t, "SAVE10", *order.CouponCode)
	assert.Len(t, items, 2)

	// Payment handshake against the stub gateway.
	payResp, err := f.checkoutSvc.CreatePaymentOrder(ctx, userID, resp.OrderID)
	require.NoError(t, err)
	assert.Equal(t, "order_test123", payResp.GatewayOrderID)
	assert.Equal(t, 2200.00, payResp.Amount)

	err = f.checkoutSvc.ConfirmPayment(ctx, &model.VerifyPaymentRequest{
		OrderID:          resp.OrderID,
		GatewayOrderID:   "order_test123",
		GatewayPaymentID: "pay_test456",
		Signature:        "valid-signature",
	})
	require.NoError(t, err)

	order, _, err = f.orderRepo.GetByID(ctx, resp.OrderID)
	require.NoError(t, err)
	assert.Equal(t, model.PaymentPaid, order.PaymentStatus)
	require.NotNil(t, order.GatewayOrderID)
	assert.Equal(t, "order_test123", *order.GatewayOrderID)
	require.NotNil(t, order.GatewayPaymentID)
	assert.Equal(t, "pay_test456", *order.GatewayPaymentID)
}

func TestCheckout_OrderSnapshotSurvivesPriceChange(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	f := setupCheckout(t)
	ctx := context.Background()

	userID := uuid.New()
	addressID := SeedAddress(t, f.db.Pool, userID)
	f.fillCart(t, userID)

	resp, err := f.checkoutSvc.StartCheckout(ctx, userID, &model.CheckoutRequest{
		AddressID:     addressID,
		PaymentMethod: model.MethodCOD,
	})
	require.NoError(t, err)

	// Reprice the catalogue after the order exists.
	_, err = f.db.Pool.Exec(ctx, "UPDATE products SET real_price = 1, original_price = 1")
	require.NoError(t, err)

	_, items, err := f.orderRepo.GetByID(ctx, resp.OrderID)
	require.NoError(t, err)
	require.Len(t, items, 2)
	for _, item := range items {
		assert.NotEqual(t, 1.00, item.RealPrice)
		assert.NotEqual(t, 1.00, item.OriginalPrice)
	}
}

func TestCheckout_FailedSignatureMarksOrderFailed(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	f := setupCheckout(t)
	ctx := context.Background()

	userID := uuid.New()
	addressID := SeedAddress(t, f.db.Pool, userID)
	f.fillCart(t, userID)

	resp, err := f.checkoutSvc.StartCheckout(ctx, userID, &model.CheckoutRequest{
		AddressID:     addressID,
		PaymentMethod: model.MethodOnline,
	})
	require.NoError(t, err)

	_, err = f.checkoutSvc.CreatePaymentOrder(ctx, userID, resp.OrderID)
	require.NoError(t, err)

	err = f.checkoutSvc.ConfirmPayment(ctx, &model.VerifyPaymentRequest{
		OrderID:          resp.OrderID,
		GatewayOrderID:   "order_test123",
		GatewayPaymentID: "pay_test456",
		Signature:        "forged",
	})
	require.Error(t, err)
	assert.Equal(t, service.ErrPaymentUnverified, err)

	order, _, err := f.orderRepo.GetByID(ctx, resp.OrderID)
	require.NoError(t, err)
	assert.Equal(t, model.PaymentFailed, order.PaymentStatus)

	// A failed attempt is retryable: a genuine confirmation still lands.
	err = f.checkoutSvc.ConfirmPayment(ctx, &model.VerifyPaymentRequest{
		OrderID:          resp.OrderID,
		GatewayOrderID:   "order_test123",
		GatewayPaymentID: "pay_test789",
		Signature:        "valid-signature",
	})
	require.NoError(t, err)

	order, _, err = f.orderRepo.GetByID(ctx, resp.OrderID)
	require.NoError(t, err)
	assert.Equal(t, model.PaymentPaid, order.PaymentStatus)
}

func TestCheckout_ConfirmRequiresMatchingGatewayOrder(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	f := setupCheckout(t)
	ctx := context.Background()

	userID := uuid.New()
	addressID := SeedAddress(t, f.db.Pool, userID)
	f.fillCart(t, userID)

	resp, err := f.checkoutSvc.StartCheckout(ctx, userID, &model.CheckoutRequest{
		AddressID:     addressID,
		PaymentMethod: model.MethodOnline,
	})
	require.NoError(t, err)

	_, err = f.checkoutSvc.CreatePaymentOrder(ctx, userID, resp.OrderID)
	require.NoError(t, err)

	// A signature the gateway accepts, attached to a different gateway
	// order id, must not confirm this order.
	err = f.checkoutSvc.ConfirmPayment(ctx, &model.VerifyPaymentRequest{
		OrderID:          resp.OrderID,
		GatewayOrderID:   "order_someone_elses",
		GatewayPaymentID: "pay_test456",
		Signature:        "valid-signature",
	})
	require.Error(t, err)
	assert.Equal(t, service.ErrPaymentUnverified, err)

	order, _, err := f.orderRepo.GetByID(ctx, resp.OrderID)
	require.NoError(t, err)
	assert.Equal(t, model.PaymentFailed, order.PaymentStatus)
}

func TestCheckout_GuestMerge(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	f := setupCheckout(t)
	ctx := context.Background()
	logger := zerolog.Nop()

	productRepo := repository.NewProductRepository(f.db.Pool, logger)
	cartSvc := service.NewCartService(f.cartRepo, productRepo, logger)

	userID := uuid.New()

	// Account cart holds {P001, M, qty 1}.
	_, err := cartSvc.AddLine(ctx, userID, &model.AddLineRequest{ProductID: "P001", Size: "M", Quantity: 1})
	require.NoError(t, err)

	// Guest cart holds {P001, M, qty 3} and {P002, qty 2}.
	resp, err := cartSvc.MergeGuestCart(ctx, userID, &model.MergeCartRequest{
		Lines: []model.GuestLine{
			{ProductID: "P001", Size: "M", Quantity: 3, OriginalPrice: 1200.00, RealPrice: 1000.00, Name: "Test Product 1"},
			{ProductID: "P002", Quantity: 2, OriginalPrice: 600.00, RealPrice: 500.00, Name: "Test Product 2"},
		},
	})

	require.NoError(t, err)
	require.Len(t, resp.Lines, 2)

	byProduct := map[string]model.CartLine{}
	for _, line := range resp.Lines {
		byProduct[line.ProductID] = line
	}

	// Matching identity keys add quantities; the new product gets its own line.
	assert.Equal(t, 4, byProduct["P001"].Quantity)
	assert.Equal(t, 2, byProduct["P002"].Quantity)
	assert.Equal(t, 5500.00, resp.Subtotal)
}
