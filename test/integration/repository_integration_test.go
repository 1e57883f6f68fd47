package integration

import (
	"context"
	"errors"
	"testing"
	"time"

	"kart-checkout/internal/model"
	"kart-checkout/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCartRepository_UpsertAddsQuantity(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	db := SetupTestDB(t)
	logger := zerolog.Nop()
	ctx := context.Background()

	SeedProducts(t, db.Pool)
	repo := repository.NewCartRepository(db.Pool, logger)

	userID := uuid.New()
	line := &model.CartLine{
		ID:            uuid.New(),
		UserID:        userID,
		ProductID:     "P001",
		Size:          "M",
		Color:         "black",
		Quantity:      1,
		OriginalPrice: 1200.00,
		RealPrice:     1000.00,
		Name:          "Test Product 1",
	}

	first, err := repo.UpsertLine(ctx, line)
	require.NoError(t, err)
	assert.Equal(t, 1, first.Quantity)

	// Same identity key again with a different candidate price. Quantity
	// adds; the stored price snapshot is retained.
	again := &model.CartLine{
		ID:            uuid.New(),
		UserID:        userID,
		ProductID:     "P001",
		Size:          "M",
		Color:         "black",
		Quantity:      2,
		OriginalPrice: 9999.00,
		RealPrice:     9999.00,
		Name:          "Test Product 1",
	}

	merged, err := repo.UpsertLine(ctx, again)
	require.NoError(t, err)
	assert.Equal(t, 3, merged.Quantity)
	assert.Equal(t, 1000.00, merged.RealPrice)
	assert.Equal(t, 1200.00, merged.OriginalPrice)

	// A different size is a separate line.
	other := &model.CartLine{
		ID:        uuid.New(),
		UserID:    userID,
		ProductID: "P001",
		Size:      "L",
		Color:     "black",
		Quantity:  1,
		RealPrice: 1000.00,
		Name:      "Test Product 1",
	}
	_, err = repo.UpsertLine(ctx, other)
	require.NoError(t, err)

	lines, err := repo.GetCart(ctx, userID)
	require.NoError(t, err)
	assert.Len(t, lines, 2)
}

func TestCartRepository_SetQuantityAndRemove(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	db := SetupTestDB(t)
	logger := zerolog.Nop()
	ctx := context.Background()

	repo := repository.NewCartRepository(db.Pool, logger)
	userID := uuid.New()

	_, err := repo.UpsertLine(ctx, &model.CartLine{
		ID:        uuid.New(),
		UserID:    userID,
		ProductID: "P002",
		Quantity:  1,
		RealPrice: 500.00,
		Name:      "Test Product 2",
	})
	require.NoError(t, err)

	require.NoError(t, repo.SetQuantity(ctx, userID, "P002", "", "", 5))

	lines, err := repo.GetCart(ctx, userID)
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.Equal(t, 5, lines[0].Quantity)

	// Unknown identity key is reported, not silently ignored.
	err = repo.SetQuantity(ctx, userID, "P002", "XL", "", 2)
	assert.Equal(t, model.ErrCartLineNotFound, err)

	require.NoError(t, repo.RemoveLine(ctx, userID, "P002", "", ""))

	err = repo.RemoveLine(ctx, userID, "P002", "", "")
	assert.Equal(t, model.ErrCartLineNotFound, err)
}

func TestCartRepository_DeleteLinesTxLeavesConcurrentAdds(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	db := SetupTestDB(t)
	logger := zerolog.Nop()
	ctx := context.Background()

	repo := repository.NewCartRepository(db.Pool, logger)
	userID := uuid.New()

	for _, pid := range []string{"P001", "P002"} {
		_, err := repo.UpsertLine(ctx, &model.CartLine{
			ID:        uuid.New(),
			UserID:    userID,
			ProductID: pid,
			Quantity:  1,
			RealPrice: 500.00,
			Name:      "Test Product",
		})
		require.NoError(t, err)
	}

	tx, err := repo.BeginTx(ctx)
	require.NoError(t, err)

	snapshot, err := repo.GetCartTx(ctx, tx, userID)
	require.NoError(t, err)
	require.Len(t, snapshot, 2)

	// Another device adds a new line while the snapshot transaction is
	// open. The insert is a new row, so the row locks do not block it.
	_, err = repo.UpsertLine(ctx, &model.CartLine{
		ID:        uuid.New(),
		UserID:    userID,
		ProductID: "P003",
		Quantity:  1,
		RealPrice: 250.00,
		Name:      "Test Product 3",
	})
	require.NoError(t, err)

	ids := make([]uuid.UUID, len(snapshot))
	for i := range snapshot {
		ids[i] = snapshot[i].ID
	}
	require.NoError(t, repo.DeleteLinesTx(ctx, tx, userID, ids))
	require.NoError(t, tx.Commit(ctx))

	// The late addition survives; only the snapshotted lines are gone.
	remaining, err := repo.GetCart(ctx, userID)
	require.NoError(t, err)
	require.Len(t, remaining, 1)
	assert.Equal(t, "P003", remaining[0].ProductID)
}

func TestOrderRepository_GuardedStatusTransitions(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	db := SetupTestDB(t)
	logger := zerolog.Nop()
	ctx := context.Background()

	repo := repository.NewOrderRepository(db.Pool, logger)
	orderID := seedOrder(t, db, model.MethodOnline, model.PaymentPending)

	// placed -> shipped skips processing and is rejected.
	err := repo.UpdateStatus(ctx, orderID, model.StatusShipped)
	var te *model.InvalidTransitionError
	require.True(t, errors.As(err, &te))
	assert.Equal(t, "placed", te.From)

	// placed -> processing -> shipped is a legal path.
	require.NoError(t, repo.UpdateStatus(ctx, orderID, model.StatusProcessing))
	require.NoError(t, repo.UpdateStatus(ctx, orderID, model.StatusShipped))

	// Same-state retry is a no-op success.
	require.NoError(t, repo.UpdateStatus(ctx, orderID, model.StatusShipped))

	order, _, err := repo.GetByID(ctx, orderID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusShipped, order.Status)
}

func TestOrderRepository_PaidIsTerminal(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	db := SetupTestDB(t)
	logger := zerolog.Nop()
	ctx := context.Background()

	repo := repository.NewOrderRepository(db.Pool, logger)
	orderID := seedOrder(t, db, model.MethodOnline, model.PaymentPending)

	paymentID := "pay_xyz789"
	require.NoError(t, repo.UpdatePaymentStatus(ctx, orderID, model.PaymentPaid, &paymentID))

	// Paid accepts no further mutation; whichever write lands second loses.
	err := repo.UpdatePaymentStatus(ctx, orderID, model.PaymentFailed, nil)
	var te *model.InvalidTransitionError
	require.True(t, errors.As(err, &te))
	assert.Equal(t, "paid", te.From)

	// Replayed confirmation commits as a no-op.
	require.NoError(t, repo.UpdatePaymentStatus(ctx, orderID, model.PaymentPaid, &paymentID))

	order, _, err := repo.GetByID(ctx, orderID)
	require.NoError(t, err)
	assert.Equal(t, model.PaymentPaid, order.PaymentStatus)
	require.NotNil(t, order.GatewayPaymentID)
	assert.Equal(t, paymentID, *order.GatewayPaymentID)
}

func TestCouponRepository_IncrementStopsAtLimit(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	db := SetupTestDB(t)
	logger := zerolog.Nop()
	ctx := context.Background()

	repo := repository.NewCouponRepository(db.Pool, logger)

	SeedCoupon(t, db.Pool, model.Coupon{
		Code:       "LIMIT2",
		Type:       model.CouponFixed,
		Value:      50,
		ValidFrom:  time.Now().Add(-time.Hour),
		ValidUntil: time.Now().Add(time.Hour),
		UsageLimit: 2,
		Active:     true,
	})

	for i := 0; i < 2; i++ {
		tx, err := db.Pool.Begin(ctx)
		require.NoError(t, err)
		require.NoError(t, repo.IncrementUsageTx(ctx, tx, "LIMIT2"))
		require.NoError(t, tx.Commit(ctx))
	}

	tx, err := db.Pool.Begin(ctx)
	require.NoError(t, err)
	err = repo.IncrementUsageTx(ctx, tx, "LIMIT2")
	assert.Equal(t, model.ErrCouponExhausted, err)
	require.NoError(t, tx.Rollback(ctx))

	coupon, err := repo.GetByCode(ctx, "LIMIT2")
	require.NoError(t, err)
	assert.Equal(t, 2, coupon.UsedCount)
}

func TestCouponRepository_UpsertPreservesUsedCount(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	db := SetupTestDB(t)
	logger := zerolog.Nop()
	ctx := context.Background()

	repo := repository.NewCouponRepository(db.Pool, logger)

	coupon := model.Coupon{
		Code:       "SEEDED",
		Type:       model.CouponFixed,
		Value:      50,
		ValidFrom:  time.Now().Add(-time.Hour),
		ValidUntil: time.Now().Add(time.Hour),
		UsageLimit: 10,
		Active:     true,
	}
	require.NoError(t, repo.Upsert(ctx, &coupon))

	tx, err := db.Pool.Begin(ctx)
	require.NoError(t, err)
	require.NoError(t, repo.IncrementUsageTx(ctx, tx, "SEEDED"))
	require.NoError(t, tx.Commit(ctx))

	// Re-seeding the same code updates the definition without resetting
	// the usage counter.
	coupon.Value = 75
	require.NoError(t, repo.Upsert(ctx, &coupon))

	got, err := repo.GetByCode(ctx, "SEEDED")
	require.NoError(t, err)
	assert.Equal(t, 75.00, got.Value)
	assert.Equal(t, 1, got.UsedCount)
}

// seedOrder inserts a minimal placed order directly and returns its id.
func seedOrder(t *testing.T, db *TestDB, method model.PaymentMethod, paymentStatus model.PaymentStatus) uuid.UUID {
	t.Helper()

	orderID := uuid.New()
	_, err := db.Pool.Exec(context.Background(),
		`INSERT INTO orders (id, user_id, address_id, subtotal, discount, total, payment_method, payment_status, status)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		orderID, uuid.New(), uuid.New(), 1000.00, 0.00, 1000.00, method, paymentStatus, model.StatusPlaced,
	)
	require.NoError(t, err)
	return orderID
}
