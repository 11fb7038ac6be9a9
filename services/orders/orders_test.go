package orders

import (
	"fmt"
	"testing"

	"canteen-bot/database"
	orderModel "canteen-bot/models/order"
	"canteen-bot/services/token"
	"canteen-bot/types/apperror"

	"github.com/stretchr/testify/assert"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupOrderTestDB(t *testing.T) *Store {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}
	return NewStore(db, token.NewAssigner())
}

func sampleLines() []orderModel.Line {
	return []orderModel.Line{
		{ItemID: 1, Name: "Samosa", UnitPrice: 50, Quantity: 2},
		{ItemID: 2, Name: "Chai", UnitPrice: 30, Quantity: 1},
	}
}

// readyForPayment walks an order to payment_pending.
func readyForPayment(t *testing.T, store *Store, customerID string) *orderModel.Order {
	ord, err := store.CreatePending(customerID)
	assert.NoError(t, err)
	assert.NoError(t, store.UpdateCart(ord.ID, sampleLines(), 130))
	assert.NoError(t, store.SetServiceType(ord.ID, orderModel.ServiceParcel))
	assert.NoError(t, store.AttachPaymentLink(ord.ID, "plink_1"+customerID, "https://rzp.io/abc"))
	return ord
}

func TestCreatePendingWritesStatusEvent(t *testing.T) {
	store := setupOrderTestDB(t)

	ord, err := store.CreatePending("cust-1")
	assert.NoError(t, err)
	assert.Equal(t, orderModel.StatusPending, ord.Status)

	var events []orderModel.StatusEvent
	store.DB.Where("order_id = ?", ord.ID).Find(&events)
	assert.Len(t, events, 1)
	assert.Equal(t, "created", events[0].EventType)
}

func TestReuseOrCreatePending(t *testing.T) {
	store := setupOrderTestDB(t)

	first, err := store.ReuseOrCreatePending("cust-1")
	assert.NoError(t, err)
	second, err := store.ReuseOrCreatePending("cust-1")
	assert.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	// A closed order is not reused.
	assert.NoError(t, store.Cancel(first.ID, "cust-1"))
	third, err := store.ReuseOrCreatePending("cust-1")
	assert.NoError(t, err)
	assert.NotEqual(t, first.ID, third.ID)
}

func TestUpdateCartOnlyWhilePending(t *testing.T) {
	store := setupOrderTestDB(t)
	ord := readyForPayment(t, store, "cust-1")

	err := store.UpdateCart(ord.ID, sampleLines(), 130)
	var stale *apperror.StaleOrderState
	assert.ErrorAs(t, err, &stale)
	assert.Equal(t, orderModel.StatusPaymentPending.String(), stale.Actual)
}

func TestAttachPaymentLinkIsSingleShot(t *testing.T) {
	store := setupOrderTestDB(t)
	ord := readyForPayment(t, store, "cust-1")

	// Second attach must fail; the order already left pending.
	err := store.AttachPaymentLink(ord.ID, "plink_2", "https://rzp.io/def")
	var stale *apperror.StaleOrderState
	assert.ErrorAs(t, err, &stale)

	current, err := store.Get(ord.ID)
	assert.NoError(t, err)
	assert.Equal(t, "plink_1cust-1", *current.PaymentLinkRef)
}

func TestMarkPaidAssignsTokenAndPickupCode(t *testing.T) {
	store := setupOrderTestDB(t)
	ord := readyForPayment(t, store, "cust-1")

	applied, err := store.MarkPaid(ord.ID, "webhook", "AB12CD34")
	assert.NoError(t, err)
	assert.True(t, applied)

	paid, err := store.Get(ord.ID)
	assert.NoError(t, err)
	assert.Equal(t, orderModel.StatusPaid, paid.Status)
	assert.Equal(t, 1, *paid.DailyToken)
	assert.Equal(t, "AB12CD34", *paid.PickupCode)
}

func TestMarkPaidReplayIsNoOp(t *testing.T) {
	store := setupOrderTestDB(t)
	ord := readyForPayment(t, store, "cust-1")

	applied, err := store.MarkPaid(ord.ID, "webhook", "AB12CD34")
	assert.NoError(t, err)
	assert.True(t, applied)

	// However many times the gateway redelivers, nothing moves again.
	for i := 0; i < 5; i++ {
		applied, err = store.MarkPaid(ord.ID, "webhook", fmt.Sprintf("XX%06d", i))
		assert.NoError(t, err)
		assert.False(t, applied)
	}

	paid, err := store.Get(ord.ID)
	assert.NoError(t, err)
	assert.Equal(t, "AB12CD34", *paid.PickupCode)
	assert.Equal(t, 1, *paid.DailyToken)

	// No extra token was burned by the replays.
	var ctr orderModel.DailyCounter
	assert.NoError(t, store.DB.Take(&ctr).Error)
	assert.Equal(t, 1, ctr.Seq)
}

func TestMarkPaidRequiresPaymentPending(t *testing.T) {
	store := setupOrderTestDB(t)
	ord, err := store.CreatePending("cust-1")
	assert.NoError(t, err)

	_, err = store.MarkPaid(ord.ID, "webhook", "AB12CD34")
	var stale *apperror.StaleOrderState
	assert.ErrorAs(t, err, &stale)
	assert.Equal(t, orderModel.StatusPending.String(), stale.Actual)
}

func TestCancelOnlyBeforePayment(t *testing.T) {
	store := setupOrderTestDB(t)
	ord := readyForPayment(t, store, "cust-1")

	// payment_pending is still cancellable.
	assert.NoError(t, store.Cancel(ord.ID, "cust-1"))

	// A paid order is not.
	paidOrd := readyForPayment(t, store, "cust-2")
	_, err := store.MarkPaid(paidOrd.ID, "webhook", "AB12CD34")
	assert.NoError(t, err)

	err = store.Cancel(paidOrd.ID, "cust-2")
	var stale *apperror.StaleOrderState
	assert.ErrorAs(t, err, &stale)
	assert.Equal(t, orderModel.StatusPaid.String(), stale.Actual)

	current, err := store.Get(paidOrd.ID)
	assert.NoError(t, err)
	assert.Equal(t, orderModel.StatusPaid, current.Status)
}

func TestMarkDelivered(t *testing.T) {
	store := setupOrderTestDB(t)
	ord := readyForPayment(t, store, "cust-1")

	// Delivery before payment is rejected.
	err := store.MarkDelivered(ord.ID, "operator")
	var stale *apperror.StaleOrderState
	assert.ErrorAs(t, err, &stale)

	_, err = store.MarkPaid(ord.ID, "webhook", "AB12CD34")
	assert.NoError(t, err)
	assert.NoError(t, store.MarkDelivered(ord.ID, "operator"))

	current, err := store.Get(ord.ID)
	assert.NoError(t, err)
	assert.Equal(t, orderModel.StatusDelivered, current.Status)

	// Delivered is terminal; a second delivery is stale.
	err = store.MarkDelivered(ord.ID, "operator")
	assert.ErrorAs(t, err, &stale)
}

func TestGetByPickupRequiresMatchingCode(t *testing.T) {
	store := setupOrderTestDB(t)
	ord := readyForPayment(t, store, "cust-1")
	_, err := store.MarkPaid(ord.ID, "webhook", "AB12CD34")
	assert.NoError(t, err)

	got, err := store.GetByPickup(ord.ID, "AB12CD34")
	assert.NoError(t, err)
	assert.Equal(t, ord.ID, got.ID)

	_, err = store.GetByPickup(ord.ID, "WRONG123")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestGetByLinkRef(t *testing.T) {
	store := setupOrderTestDB(t)
	ord := readyForPayment(t, store, "cust-1")

	got, err := store.GetByLinkRef("plink_1cust-1")
	assert.NoError(t, err)
	assert.Equal(t, ord.ID, got.ID)

	_, err = store.GetByLinkRef("plink_unknown")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestStatisticsCountsOnlySuccessfulRevenue(t *testing.T) {
	store := setupOrderTestDB(t)

	paid := readyForPayment(t, store, "cust-1")
	_, err := store.MarkPaid(paid.ID, "webhook", "AB12CD34")
	assert.NoError(t, err)

	cancelled := readyForPayment(t, store, "cust-2")
	assert.NoError(t, store.Cancel(cancelled.ID, "cust-2"))

	_, err = store.CreatePending("cust-3")
	assert.NoError(t, err)

	stats, err := store.Statistics()
	assert.NoError(t, err)
	assert.Equal(t, int64(1), stats.TotalOrders)
	assert.Equal(t, 130.0, stats.TotalRevenue)
	assert.Equal(t, int64(1), stats.TodayOrders)
	assert.Equal(t, int64(1), stats.StatusCounts[orderModel.StatusPaid.String()])
	assert.Equal(t, int64(1), stats.StatusCounts[orderModel.StatusCancelled.String()])
	assert.Equal(t, int64(1), stats.StatusCounts[orderModel.StatusPending.String()])
}

func TestTodayOrders(t *testing.T) {
	store := setupOrderTestDB(t)
	readyForPayment(t, store, "cust-1")
	readyForPayment(t, store, "cust-2")

	list, err := store.TodayOrders()
	assert.NoError(t, err)
	assert.Len(t, list, 2)
}
