package session

import (
	"testing"
	"time"

	"canteen-bot/database"
	sessionModel "canteen-bot/models/session"
	"canteen-bot/types/apperror"

	"github.com/stretchr/testify/assert"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupSessionTestDB(t *testing.T) *Store {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}
	return NewStore(db)
}

func TestGetOrCreateIsLazy(t *testing.T) {
	store := setupSessionTestDB(t)

	sess, err := store.GetOrCreate("cust-1")
	assert.NoError(t, err)
	assert.Equal(t, sessionModel.StateInitial, sess.State)

	again, err := store.GetOrCreate("cust-1")
	assert.NoError(t, err)
	assert.Equal(t, sess.CustomerID, again.CustomerID)

	var count int64
	store.DB.Model(&sessionModel.Session{}).Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestTransitionRequiresExpectedState(t *testing.T) {
	store := setupSessionTestDB(t)
	_, err := store.GetOrCreate("cust-1")
	assert.NoError(t, err)

	orderID := uint(7)
	err = store.Transition("cust-1", sessionModel.StateInitial, sessionModel.StateBrowsingMenu, nil, &orderID)
	assert.NoError(t, err)

	// The session already moved on, so the same transition is stale now.
	err = store.Transition("cust-1", sessionModel.StateInitial, sessionModel.StateBrowsingMenu, nil, &orderID)
	assert.ErrorIs(t, err, apperror.ErrStaleSession)

	sess, err := store.Get("cust-1")
	assert.NoError(t, err)
	assert.Equal(t, sessionModel.StateBrowsingMenu, sess.State)
	assert.Equal(t, orderID, *sess.CurrentOrderID)
}

func TestTransitionCarriesItemParameter(t *testing.T) {
	store := setupSessionTestDB(t)
	_, err := store.GetOrCreate("cust-1")
	assert.NoError(t, err)

	orderID := uint(7)
	itemID := uint(3)
	assert.NoError(t, store.Transition("cust-1", sessionModel.StateInitial, sessionModel.StateBrowsingMenu, nil, &orderID))
	assert.NoError(t, store.Transition("cust-1", sessionModel.StateBrowsingMenu, sessionModel.StateSelectingQuantity, &itemID, &orderID))

	sess, err := store.Get("cust-1")
	assert.NoError(t, err)
	assert.Equal(t, itemID, sess.ItemID())

	// Leaving the quantity states clears the parameter.
	assert.NoError(t, store.Transition("cust-1", sessionModel.StateSelectingQuantity, sessionModel.StateAwaitingAddMore, nil, &orderID))
	sess, err = store.Get("cust-1")
	assert.NoError(t, err)
	assert.Nil(t, sess.StateItemID)
}

func TestForceStateOverridesAnything(t *testing.T) {
	store := setupSessionTestDB(t)
	_, err := store.GetOrCreate("cust-1")
	assert.NoError(t, err)

	orderID := uint(9)
	assert.NoError(t, store.Transition("cust-1", sessionModel.StateInitial, sessionModel.StateConfirmingOrder, nil, &orderID))
	assert.NoError(t, store.ForceState("cust-1", sessionModel.StatePickupReady, &orderID))

	sess, err := store.Get("cust-1")
	assert.NoError(t, err)
	assert.Equal(t, sessionModel.StatePickupReady, sess.State)
}

func TestSetPhonePersists(t *testing.T) {
	store := setupSessionTestDB(t)
	_, err := store.GetOrCreate("cust-1")
	assert.NoError(t, err)

	assert.NoError(t, store.SetPhone("cust-1", "+919876543210"))

	sess, err := store.Get("cust-1")
	assert.NoError(t, err)
	assert.Equal(t, "+919876543210", *sess.PhoneNumber)
}

func TestSweepIdleRemovesOnlyStaleSessions(t *testing.T) {
	store := setupSessionTestDB(t)
	_, err := store.GetOrCreate("fresh")
	assert.NoError(t, err)
	_, err = store.GetOrCreate("stale")
	assert.NoError(t, err)

	old := time.Now().Add(-48 * time.Hour)
	store.DB.Model(&sessionModel.Session{}).
		Where("customer_id = ?", "stale").
		Update("last_active", old)

	removed, err := store.SweepIdle(24 * time.Hour)
	assert.NoError(t, err)
	assert.Equal(t, int64(1), removed)

	_, err = store.Get("stale")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
	_, err = store.Get("fresh")
	assert.NoError(t, err)
}
