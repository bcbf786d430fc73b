// Package order is the transactional boundary around one order: its line
// items, its payment ledger, and the derived total/status projection. All
// mutations run under a per-order mutex plus a single database transaction,
// so a rejected payment never leaves partial ledger state behind.
package order

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/mahligai-id/backoffice/internal/ledger"
	"github.com/mahligai-id/backoffice/internal/models"
	"github.com/mahligai-id/backoffice/internal/money"
	"go.uber.org/zap"
)

// txRunner executes a function inside one transaction. *database.DB
// satisfies it.
type txRunner interface {
	WithTransaction(fn func(*sql.Tx) error) error
}

// orderStore is the slice of OrderRepository the aggregate needs.
type orderStore interface {
	Create(tx *sql.Tx, o *models.Order) error
	GetByID(tx *sql.Tx, id int64) (*models.Order, error)
	List(limit, offset int) ([]*models.Order, error)
	UpdateDerived(tx *sql.Tx, id int64, total money.Money, status models.PaymentStatus) error
	Delete(tx *sql.Tx, id int64) error
	AddItem(tx *sql.Tx, item *models.LineItem) error
	DeleteItem(tx *sql.Tx, orderID, itemID int64) error
	GetItems(tx *sql.Tx, orderID int64) ([]models.LineItem, error)
}

// paymentStore is the slice of PaymentRepository the aggregate needs.
type paymentStore interface {
	Create(tx *sql.Tx, p *models.Payment) error
	ListByOrder(tx *sql.Tx, orderID int64) ([]models.Payment, error)
	MarkVoided(tx *sql.Tx, id int64) error
}

// Service owns order lifecycle and ledger mutations.
type Service struct {
	db       txRunner
	orders   orderStore
	payments paymentStore
	locks    *keyedMutex
	logger   *zap.Logger
}

// NewService creates the order aggregate service.
func NewService(db txRunner, orders orderStore, payments paymentStore, logger *zap.Logger) *Service {
	return &Service{
		db:       db,
		orders:   orders,
		payments: payments,
		locks:    newKeyedMutex(),
		logger:   logger,
	}
}

// View is an order together with its derived ledger figures.
type View struct {
	Order      *models.Order    `json:"order"`
	Payments   []models.Payment `json:"payments"`
	AmountPaid money.Money      `json:"amount_paid"`
	AmountOwed money.Money      `json:"amount_owed"`
}

// Create books a new order, optionally for a client, with zero or more line
// items. The stored total is the exact sum of the items.
func (s *Service) Create(clientID *int64, eventDate *time.Time, items []models.LineItem) (*models.Order, error) {
	cleaned, err := validateItems(items)
	if err != nil {
		return nil, err
	}

	o := &models.Order{
		ClientID:      clientID,
		EventDate:     eventDate,
		Items:         cleaned,
		TotalAmount:   models.SumItems(cleaned),
		PaymentStatus: models.StatusPending,
	}

	err = s.db.WithTransaction(func(tx *sql.Tx) error {
		return s.orders.Create(tx, o)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Order created",
		zap.Int64("order_id", o.ID),
		zap.String("total", o.TotalAmount.String()),
		zap.Int("items", len(o.Items)))
	return o, nil
}

// Get returns the order with its full ledger view.
func (s *Service) Get(orderID int64) (*View, error) {
	o, err := s.orders.GetByID(nil, orderID)
	if err != nil {
		return nil, err
	}
	payments, err := s.payments.ListByOrder(nil, orderID)
	if err != nil {
		return nil, err
	}
	led := ledger.New(o.TotalAmount, payments)
	o.PaymentStatus = led.Status()
	return &View{
		Order:      o,
		Payments:   payments,
		AmountPaid: led.AmountPaid(),
		AmountOwed: led.AmountOwed(),
	}, nil
}

// List returns orders without ledger detail.
func (s *Service) List(limit, offset int) ([]*models.Order, error) {
	return s.orders.List(limit, offset)
}

// AddLineItem appends a billed item. Rejected with ErrOrderLocked once any
// live payment exists.
func (s *Service) AddLineItem(orderID int64, item models.LineItem) (*models.Order, error) {
	cleaned, err := validateItems([]models.LineItem{item})
	if err != nil {
		return nil, err
	}
	item = cleaned[0]
	item.OrderID = orderID

	unlock := s.locks.lock(orderID)
	defer unlock()

	err = s.db.WithTransaction(func(tx *sql.Tx) error {
		led, o, err := s.loadLedger(tx, orderID)
		if err != nil {
			return err
		}
		if !led.AmountPaid().IsZero() {
			return fmt.Errorf("%w: order %d", ErrOrderLocked, orderID)
		}
		if err := s.orders.AddItem(tx, &item); err != nil {
			return err
		}
		o.Items = append(o.Items, item)
		return s.refreshDerived(tx, o, led.Payments())
	})
	if err != nil {
		return nil, err
	}
	return s.orders.GetByID(nil, orderID)
}

// RemoveLineItem deletes a billed item under the same lock rule as
// AddLineItem.
func (s *Service) RemoveLineItem(orderID, itemID int64) (*models.Order, error) {
	unlock := s.locks.lock(orderID)
	defer unlock()

	err := s.db.WithTransaction(func(tx *sql.Tx) error {
		led, o, err := s.loadLedger(tx, orderID)
		if err != nil {
			return err
		}
		if !led.AmountPaid().IsZero() {
			return fmt.Errorf("%w: order %d", ErrOrderLocked, orderID)
		}
		if err := s.orders.DeleteItem(tx, orderID, itemID); err != nil {
			return err
		}
		remaining := o.Items[:0]
		for _, it := range o.Items {
			if it.ID != itemID {
				remaining = append(remaining, it)
			}
		}
		o.Items = remaining
		return s.refreshDerived(tx, o, led.Payments())
	})
	if err != nil {
		return nil, err
	}
	return s.orders.GetByID(nil, orderID)
}

// RecordPayment appends one payment to the order's ledger. Calls for the
// same order are serialized; two concurrent payments that would jointly
// overpay resolve to one success and one ErrOverpayment.
func (s *Service) RecordPayment(orderID int64, amount money.Money, method string, paidAt time.Time) (*models.Payment, error) {
	method = strings.ToUpper(strings.TrimSpace(method))
	if method == "" {
		method = models.MethodTransfer
	}
	if paidAt.IsZero() {
		paidAt = time.Now().UTC()
	}

	unlock := s.locks.lock(orderID)
	defer unlock()

	var created models.Payment
	err := s.db.WithTransaction(func(tx *sql.Tx) error {
		led, o, err := s.loadLedger(tx, orderID)
		if err != nil {
			return err
		}
		p, err := led.Record(amount, method, paidAt)
		if err != nil {
			return err
		}
		p.OrderID = orderID
		if err := s.payments.Create(tx, &p); err != nil {
			return err
		}
		created = p
		return s.refreshDerived(tx, o, led.Payments())
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Payment recorded",
		zap.Int64("order_id", orderID),
		zap.Int64("payment_id", created.ID),
		zap.Int("payment_number", created.PaymentNumber),
		zap.String("amount", created.Amount.String()))
	return &created, nil
}

// VoidPayment excludes a payment from the ledger without renumbering the
// rest, then recomputes the derived projection.
func (s *Service) VoidPayment(orderID, paymentID int64) (*models.Payment, error) {
	unlock := s.locks.lock(orderID)
	defer unlock()

	var voided models.Payment
	err := s.db.WithTransaction(func(tx *sql.Tx) error {
		led, o, err := s.loadLedger(tx, orderID)
		if err != nil {
			return err
		}
		p, err := led.Void(paymentID)
		if err != nil {
			return err
		}
		if err := s.payments.MarkVoided(tx, paymentID); err != nil {
			return err
		}
		voided = p
		return s.refreshDerived(tx, o, led.Payments())
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Payment voided",
		zap.Int64("order_id", orderID),
		zap.Int64("payment_id", paymentID))
	return &voided, nil
}

// Delete hard-deletes the order; payments and invoice records cascade with
// it so no orphaned financial rows remain.
func (s *Service) Delete(orderID int64) error {
	unlock := s.locks.lock(orderID)
	defer unlock()

	err := s.db.WithTransaction(func(tx *sql.Tx) error {
		return s.orders.Delete(tx, orderID)
	})
	if err != nil {
		return err
	}
	s.logger.Info("Order deleted", zap.Int64("order_id", orderID))
	return nil
}

// loadLedger reads the order and its payment history inside the current
// transaction.
func (s *Service) loadLedger(tx *sql.Tx, orderID int64) (*ledger.Ledger, *models.Order, error) {
	o, err := s.orders.GetByID(tx, orderID)
	if err != nil {
		return nil, nil, err
	}
	payments, err := s.payments.ListByOrder(tx, orderID)
	if err != nil {
		return nil, nil, err
	}
	return ledger.New(models.SumItems(o.Items), payments), o, nil
}

// refreshDerived rebuilds the stored total/status projection from line
// items and payment history. The stored columns are a query convenience,
// never the source of truth.
func (s *Service) refreshDerived(tx *sql.Tx, o *models.Order, payments []models.Payment) error {
	total := models.SumItems(o.Items)
	status := ledger.New(total, payments).Status()
	return s.orders.UpdateDerived(tx, o.ID, total, status)
}

func validateItems(items []models.LineItem) ([]models.LineItem, error) {
	cleaned := make([]models.LineItem, 0, len(items))
	for _, it := range items {
		it.Description = strings.TrimSpace(it.Description)
		if it.Description == "" {
			continue
		}
		if it.Quantity <= 0 {
			return nil, fmt.Errorf("%w: quantity must be positive for %q", money.ErrInvalidAmount, it.Description)
		}
		if it.UnitPrice.IsNegative() {
			return nil, fmt.Errorf("%w: unit price must not be negative for %q", money.ErrInvalidAmount, it.Description)
		}
		cleaned = append(cleaned, it)
	}
	if len(items) > 0 && len(cleaned) == 0 {
		return nil, ErrNoItems
	}
	return cleaned, nil
}
