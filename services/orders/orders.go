package orders

import (
	"errors"
	"fmt"
	"time"

	"canteen-bot/logger"
	orderModel "canteen-bot/models/order"
	"canteen-bot/services/token"
	"canteen-bot/types/apperror"
	orderTypes "canteen-bot/types/order"

	"github.com/jinzhu/now"
	"gorm.io/gorm"
)

// Store owns the order aggregate. Every state-changing operation is a
// conditional update keyed on the current status ("UPDATE ... WHERE status = ?"),
// so the customer-facing router and the webhook reconciler can run
// concurrently without an in-process lock. A failed precondition surfaces as
// StaleOrderState.
type Store struct {
	DB     *gorm.DB
	Tokens *token.Assigner
}

func NewStore(db *gorm.DB, tokens *token.Assigner) *Store {
	return &Store{DB: db, Tokens: tokens}
}

// CreatePending opens a fresh order for a customer starting to browse.
func (s *Store) CreatePending(customerID string) (*orderModel.Order, error) {
	ord := orderModel.Order{
		CustomerID: customerID,
		Status:     orderModel.StatusPending,
	}
	if err := ord.SetLines([]orderModel.Line{}); err != nil {
		return nil, err
	}
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&ord).Error; err != nil {
			return err
		}
		return snapshotStatus(tx, ord.ID, orderModel.StatusPending, "created", customerID)
	})
	if err != nil {
		return nil, err
	}
	return &ord, nil
}

// ReuseOrCreatePending returns the customer's open Pending order if one
// exists, so a repeated /start never piles up duplicate carts.
func (s *Store) ReuseOrCreatePending(customerID string) (*orderModel.Order, error) {
	var ord orderModel.Order
	err := s.DB.Where("customer_id = ? AND status = ?", customerID, orderModel.StatusPending).
		Order("created_at DESC").First(&ord).Error
	if err == nil {
		return &ord, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	return s.CreatePending(customerID)
}

// Get loads an order by id.
func (s *Store) Get(orderID uint) (*orderModel.Order, error) {
	var ord orderModel.Order
	if err := s.DB.First(&ord, orderID).Error; err != nil {
		return nil, err
	}
	return &ord, nil
}

// GetByPickup loads an order only when the pickup code matches; unknown id
// and wrong code are indistinguishable to the caller.
func (s *Store) GetByPickup(orderID uint, code string) (*orderModel.Order, error) {
	var ord orderModel.Order
	err := s.DB.Where("id = ? AND pickup_code = ?", orderID, code).First(&ord).Error
	if err != nil {
		return nil, err
	}
	return &ord, nil
}

// GetByLinkRef resolves an order through the gateway's own link identifier.
func (s *Store) GetByLinkRef(linkRef string) (*orderModel.Order, error) {
	var ord orderModel.Order
	err := s.DB.Where("payment_link_ref = ?", linkRef).First(&ord).Error
	if err != nil {
		return nil, err
	}
	return &ord, nil
}

// UpdateCart persists the recomputed line snapshot and total for an order
// that is still open.
func (s *Store) UpdateCart(orderID uint, lines []orderModel.Line, total float64) error {
	probe := orderModel.Order{}
	if err := probe.SetLines(lines); err != nil {
		return err
	}
	res := s.DB.Model(&orderModel.Order{}).
		Where("id = ? AND status = ?", orderID, orderModel.StatusPending).
		Updates(map[string]interface{}{
			"items":        probe.Items,
			"total_amount": total,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return s.stale(orderID, orderModel.StatusPending)
	}
	return nil
}

// SetServiceType records dine-in/parcel once at checkout.
func (s *Store) SetServiceType(orderID uint, st orderModel.ServiceType) error {
	res := s.DB.Model(&orderModel.Order{}).
		Where("id = ? AND status = ?", orderID, orderModel.StatusPending).
		Update("service_type", st)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return s.stale(orderID, orderModel.StatusPending)
	}
	return nil
}

// AttachPaymentLink stores the gateway link atomically with the
// Pending -> PaymentPending transition. The "no existing link" guard keeps
// an order on at most one live link.
func (s *Store) AttachPaymentLink(orderID uint, linkRef, linkURL string) error {
	return s.DB.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&orderModel.Order{}).
			Where("id = ? AND status = ? AND payment_link_ref IS NULL", orderID, orderModel.StatusPending).
			Updates(map[string]interface{}{
				"status":           orderModel.StatusPaymentPending,
				"payment_link_ref": linkRef,
				"payment_link_url": linkURL,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return s.staleTx(tx, orderID, orderModel.StatusPending)
		}
		return snapshotStatus(tx, orderID, orderModel.StatusPaymentPending, "payment_link_created", "router")
	})
}

// MarkPaid applies the payment confirmation at most once. The returned bool
// reports whether this call performed the transition; a duplicate delivery
// against an already-final order returns (false, nil) so the caller can
// acknowledge it as a no-op. The daily token and pickup code are assigned in
// the same transaction and are write-once.
func (s *Store) MarkPaid(orderID uint, by string, pickupCode string) (bool, error) {
	applied := false
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&orderModel.Order{}).
			Where("id = ? AND status = ?", orderID, orderModel.StatusPaymentPending).
			Update("status", orderModel.StatusPaid)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			var cur orderModel.Order
			if err := tx.First(&cur, orderID).Error; err != nil {
				return err
			}
			if cur.Status.IsFinal() {
				// Duplicate or out-of-order redelivery; leave it alone.
				return nil
			}
			return &apperror.StaleOrderState{
				OrderID:  orderID,
				Expected: orderModel.StatusPaymentPending.String(),
				Actual:   cur.Status.String(),
			}
		}
		applied = true

		tok, err := s.Tokens.Next(tx, time.Now())
		if err != nil {
			return err
		}

		res = tx.Model(&orderModel.Order{}).
			Where("id = ? AND pickup_code IS NULL AND daily_token IS NULL", orderID).
			Updates(map[string]interface{}{
				"pickup_code": pickupCode,
				"daily_token": tok,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			logger.Warning(fmt.Sprintf("Order %d already has a pickup credential; keeping the existing one", orderID))
		}

		return snapshotStatus(tx, orderID, orderModel.StatusPaid, "paid", by)
	})
	return applied, err
}

// MarkExpired closes an order whose payment link lapsed unpaid. Applies only
// to payment_pending; anything else is reported as a no-op so an expiry
// racing a payment never undoes the payment.
func (s *Store) MarkExpired(orderID uint) (bool, error) {
	applied := false
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&orderModel.Order{}).
			Where("id = ? AND status = ?", orderID, orderModel.StatusPaymentPending).
			Update("status", orderModel.StatusExpired)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}
		applied = true
		return snapshotStatus(tx, orderID, orderModel.StatusExpired, "payment_link_expired", "webhook")
	})
	return applied, err
}

// Cancel closes an order the customer abandoned. Legal only before payment;
// a paid order needs a refund workflow this service does not provide.
func (s *Store) Cancel(orderID uint, by string) error {
	return s.DB.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&orderModel.Order{}).
			Where("id = ? AND status IN ?", orderID,
				[]orderModel.Status{orderModel.StatusPending, orderModel.StatusPaymentPending}).
			Update("status", orderModel.StatusCancelled)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return s.staleTx(tx, orderID, orderModel.StatusPending)
		}
		return snapshotStatus(tx, orderID, orderModel.StatusCancelled, "cancelled", by)
	})
}

// MarkDelivered is the operator's hand-over transition, the only legal move
// out of Paid.
func (s *Store) MarkDelivered(orderID uint, by string) error {
	return s.DB.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&orderModel.Order{}).
			Where("id = ? AND status = ?", orderID, orderModel.StatusPaid).
			Update("status", orderModel.StatusDelivered)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return s.staleTx(tx, orderID, orderModel.StatusPaid)
		}
		return snapshotStatus(tx, orderID, orderModel.StatusDelivered, "delivered", by)
	})
}

// TodayOrders lists everything created since midnight for the operator
// report.
func (s *Store) TodayOrders() ([]orderModel.Order, error) {
	var out []orderModel.Order
	err := s.DB.Where("created_at >= ?", now.BeginningOfDay()).
		Order("created_at ASC").Find(&out).Error
	return out, err
}

// Statistics aggregates totals the way the operator dashboard expects:
// revenue counts only paid and delivered orders.
func (s *Store) Statistics() (*orderTypes.Stats, error) {
	stats := &orderTypes.Stats{StatusCounts: map[string]int64{}}
	successful := []orderModel.Status{orderModel.StatusPaid, orderModel.StatusDelivered}

	var totals struct {
		Count   int64
		Revenue float64
	}
	err := s.DB.Model(&orderModel.Order{}).
		Select("COUNT(id) AS count, COALESCE(SUM(total_amount), 0) AS revenue").
		Where("status IN ?", successful).
		Scan(&totals).Error
	if err != nil {
		return nil, err
	}
	stats.TotalOrders = totals.Count
	stats.TotalRevenue = totals.Revenue

	err = s.DB.Model(&orderModel.Order{}).
		Where("created_at >= ? AND status IN ?", now.BeginningOfDay(), successful).
		Count(&stats.TodayOrders).Error
	if err != nil {
		return nil, err
	}

	var rows []struct {
		Status string
		Count  int64
	}
	err = s.DB.Model(&orderModel.Order{}).
		Select("status, COUNT(id) AS count").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, r := range rows {
		stats.StatusCounts[r.Status] = r.Count
	}
	return stats, nil
}

// stale builds a StaleOrderState carrying the order's actual status.
func (s *Store) stale(orderID uint, expected orderModel.Status) error {
	return s.staleTx(s.DB, orderID, expected)
}

func (s *Store) staleTx(tx *gorm.DB, orderID uint, expected orderModel.Status) error {
	var cur orderModel.Order
	if err := tx.First(&cur, orderID).Error; err != nil {
		return err
	}
	return &apperror.StaleOrderState{
		OrderID:  orderID,
		Expected: expected.String(),
		Actual:   cur.Status.String(),
	}
}

// snapshotStatus appends a status event row inside the mutating transaction.
func snapshotStatus(tx *gorm.DB, orderID uint, status orderModel.Status, eventType, by string) error {
	ev := orderModel.StatusEvent{
		OrderID:   orderID,
		Status:    status,
		EventType: eventType,
		CreatedBy: by,
	}
	return tx.Create(&ev).Error
}
