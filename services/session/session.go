package session

import (
	"errors"
	"time"

	sessionModel "canteen-bot/models/session"
	"canteen-bot/types/apperror"

	"gorm.io/gorm"
)

// Store owns the per-customer session rows. All state writes go through
// Transition, which carries a precondition on the previous state so that two
// concurrent requests from a double-tap cannot both advance the session.
type Store struct {
	DB *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{DB: db}
}

// GetOrCreate loads a customer's session, creating it lazily on first
// contact, and refreshes last_active.
func (s *Store) GetOrCreate(customerID string) (*sessionModel.Session, error) {
	var sess sessionModel.Session
	err := s.DB.Where("customer_id = ?", customerID).First(&sess).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		sess = sessionModel.Session{
			CustomerID: customerID,
			State:      sessionModel.StateInitial,
			LastActive: time.Now(),
		}
		if err := s.DB.Create(&sess).Error; err != nil {
			return nil, err
		}
		return &sess, nil
	}
	if err != nil {
		return nil, err
	}

	s.DB.Model(&sessionModel.Session{}).
		Where("customer_id = ?", customerID).
		Update("last_active", time.Now())
	return &sess, nil
}

// Get loads a session without creating one.
func (s *Store) Get(customerID string) (*sessionModel.Session, error) {
	var sess sessionModel.Session
	if err := s.DB.Where("customer_id = ?", customerID).First(&sess).Error; err != nil {
		return nil, err
	}
	return &sess, nil
}

// Transition moves a session from the expected state into the next one,
// optionally updating the state's item parameter and the current order.
// Returns ErrStaleSession when another request already moved the session.
func (s *Store) Transition(customerID string, from sessionModel.StateKind, to sessionModel.StateKind, itemID *uint, orderID *uint) error {
	res := s.DB.Model(&sessionModel.Session{}).
		Where("customer_id = ? AND state = ?", customerID, from).
		Updates(map[string]interface{}{
			"state":            to,
			"state_item_id":    itemID,
			"current_order_id": orderID,
			"last_active":      time.Now(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperror.ErrStaleSession
	}
	return nil
}

// ForceState moves a session unconditionally. Used by the reconciler, whose
// payment confirmation outranks whatever the customer is doing.
func (s *Store) ForceState(customerID string, to sessionModel.StateKind, orderID *uint) error {
	return s.DB.Model(&sessionModel.Session{}).
		Where("customer_id = ?", customerID).
		Updates(map[string]interface{}{
			"state":            to,
			"state_item_id":    nil,
			"current_order_id": orderID,
			"last_active":      time.Now(),
		}).Error
}

// SetPhone caches the customer's contact number for this and future orders.
func (s *Store) SetPhone(customerID, phone string) error {
	return s.DB.Model(&sessionModel.Session{}).
		Where("customer_id = ?", customerID).
		Updates(map[string]interface{}{
			"phone_number": phone,
			"last_active":  time.Now(),
		}).Error
}

// SweepIdle deletes sessions whose last activity is older than the given
// window. Open orders are untouched; only the conversational state goes.
func (s *Store) SweepIdle(olderThan time.Duration) (int64, error) {
	cutoff := time.Now().Add(-olderThan)
	res := s.DB.Where("last_active < ?", cutoff).Delete(&sessionModel.Session{})
	return res.RowsAffected, res.Error
}
