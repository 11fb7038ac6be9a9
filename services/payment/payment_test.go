package payment

import (
	"errors"
	"fmt"
	"testing"

	"canteen-bot/database"
	"canteen-bot/httpServices/razorpay"
	orderModel "canteen-bot/models/order"
	"canteen-bot/services/orders"
	"canteen-bot/services/token"
	"canteen-bot/types/apperror"

	"github.com/stretchr/testify/assert"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type fakeGateway struct {
	calls   int
	fail    bool
	lastReq *razorpay.PaymentLinkRequest
}

func (f *fakeGateway) CreatePaymentLink(req *razorpay.PaymentLinkRequest) (*razorpay.PaymentLinkEntity, error) {
	f.calls++
	f.lastReq = req
	if f.fail {
		return nil, errors.New("connection refused")
	}
	return &razorpay.PaymentLinkEntity{
		ID:          fmt.Sprintf("plink_%d", f.calls),
		ReferenceID: req.ReferenceID,
		ShortURL:    fmt.Sprintf("https://rzp.io/l/%d", f.calls),
		Status:      "created",
		Notes:       req.Notes,
	}, nil
}

func setupPaymentTest(t *testing.T) (*Adapter, *orders.Store, *fakeGateway) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}
	store := orders.NewStore(db, token.NewAssigner())
	gw := &fakeGateway{}
	return NewAdapter(store, gw, "https://canteen.example/paid"), store, gw
}

func newCartOrder(t *testing.T, store *orders.Store) *orderModel.Order {
	ord, err := store.CreatePending("cust-1")
	assert.NoError(t, err)
	lines := []orderModel.Line{{ItemID: 1, Name: "Samosa", UnitPrice: 50, Quantity: 2}}
	assert.NoError(t, store.UpdateCart(ord.ID, lines, 100))
	ord, err = store.Get(ord.ID)
	assert.NoError(t, err)
	return ord
}

func TestGetOrCreateLinkCreatesOnce(t *testing.T) {
	adapter, store, gw := setupPaymentTest(t)
	ord := newCartOrder(t, store)

	ref, url, err := adapter.GetOrCreateLink(ord, "+919876543210")
	assert.NoError(t, err)
	assert.Equal(t, "plink_1", ref)
	assert.Equal(t, "https://rzp.io/l/1", url)
	assert.Equal(t, 1, gw.calls)

	// The amount goes out in paise with the order id planted in the notes.
	assert.Equal(t, int64(10000), gw.lastReq.Amount)
	assert.Equal(t, "INR", gw.lastReq.Currency)
	assert.Equal(t, fmt.Sprintf("%d", ord.ID), gw.lastReq.Notes["internal_order_id"])
	assert.Equal(t, "+919876543210", gw.lastReq.Customer.Contact)

	// A repeated confirm reuses the stored link without a gateway call.
	current, err := store.Get(ord.ID)
	assert.NoError(t, err)
	assert.Equal(t, orderModel.StatusPaymentPending, current.Status)

	ref2, url2, err := adapter.GetOrCreateLink(current, "+919876543210")
	assert.NoError(t, err)
	assert.Equal(t, ref, ref2)
	assert.Equal(t, url, url2)
	assert.Equal(t, 1, gw.calls)
}

func TestGetOrCreateLinkRecoversFromAttachRace(t *testing.T) {
	adapter, store, gw := setupPaymentTest(t)
	ord := newCartOrder(t, store)

	// Both requests read the order while it was still pending.
	twin, err := store.Get(ord.ID)
	assert.NoError(t, err)

	ref, _, err := adapter.GetOrCreateLink(ord, "")
	assert.NoError(t, err)

	// The loser's attach fails, but it hands out the winner's link.
	ref2, _, err := adapter.GetOrCreateLink(twin, "")
	assert.NoError(t, err)
	assert.Equal(t, ref, ref2)
	assert.Equal(t, 2, gw.calls)
}

func TestGetOrCreateLinkGatewayDown(t *testing.T) {
	adapter, store, gw := setupPaymentTest(t)
	gw.fail = true
	ord := newCartOrder(t, store)

	_, _, err := adapter.GetOrCreateLink(ord, "")
	var unavailable *apperror.GatewayUnavailable
	assert.ErrorAs(t, err, &unavailable)

	// The order stays pending so the customer can retry.
	current, err := store.Get(ord.ID)
	assert.NoError(t, err)
	assert.Equal(t, orderModel.StatusPending, current.Status)
	assert.False(t, current.HasPaymentLink())
}

func TestGetOrCreateLinkRejectsClosedOrder(t *testing.T) {
	adapter, store, _ := setupPaymentTest(t)
	ord := newCartOrder(t, store)
	assert.NoError(t, store.Cancel(ord.ID, "cust-1"))

	ord, err := store.Get(ord.ID)
	assert.NoError(t, err)

	_, _, err = adapter.GetOrCreateLink(ord, "")
	var stale *apperror.StaleOrderState
	assert.ErrorAs(t, err, &stale)
}
