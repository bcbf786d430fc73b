// Package ledger holds the pure payment-staging rules for one order: the
// append-only payment history, the derived paid/owed totals, and the
// DP1/DP2/LUNAS status. Nothing here touches storage; persistence is the
// order aggregate's job.
package ledger

import (
	"fmt"
	"time"

	"github.com/mahligai-id/backoffice/internal/models"
	"github.com/mahligai-id/backoffice/internal/money"
)

// Ledger wraps an order total and its payment history. The zero count of
// live (non-voided) payments and the exact paid sum fully determine status,
// so the same history always derives the same answer.
type Ledger struct {
	total    money.Money
	payments []models.Payment
}

// New builds a ledger over an order total and its existing payments. The
// slice is copied; callers keep ownership of theirs.
func New(total money.Money, payments []models.Payment) *Ledger {
	cp := make([]models.Payment, len(payments))
	copy(cp, payments)
	return &Ledger{total: total, payments: cp}
}

// Total returns the order total the ledger settles against.
func (l *Ledger) Total() money.Money {
	return l.total
}

// Payments returns a copy of the full history, voided entries included.
func (l *Ledger) Payments() []models.Payment {
	cp := make([]models.Payment, len(l.payments))
	copy(cp, l.payments)
	return cp
}

// AmountPaid is the exact sum of non-voided payment amounts.
func (l *Ledger) AmountPaid() money.Money {
	paid := money.Zero()
	for _, p := range l.payments {
		if !p.Voided {
			paid = paid.Add(p.Amount)
		}
	}
	return paid
}

// AmountOwed is total minus amountPaid.
func (l *Ledger) AmountOwed() money.Money {
	return l.total.Sub(l.AmountPaid())
}

// LiveCount returns the number of non-voided payments.
func (l *Ledger) LiveCount() int {
	n := 0
	for _, p := range l.payments {
		if !p.Voided {
			n++
		}
	}
	return n
}

// Status derives the staged payment state from the history.
func (l *Ledger) Status() models.PaymentStatus {
	return DeriveStatus(l.total, l.AmountPaid(), l.LiveCount())
}

// DeriveStatus is the staging policy as a pure function:
//
//	LUNAS   paid == total and total > 0
//	DP2     0 < paid < total and at least two live payments
//	DP1     0 < paid < total and fewer than two live payments
//	pending paid == 0
func DeriveStatus(total, paid money.Money, liveCount int) models.PaymentStatus {
	switch {
	case paid.IsZero():
		return models.StatusPending
	case paid.Equal(total) && total.IsPositive():
		return models.StatusLunas
	case liveCount >= 2:
		return models.StatusDP2
	default:
		return models.StatusDP1
	}
}

// NextPaymentNumber returns the next sequential payment number. Voided
// payments still occupy their number, so numbers are never reused.
func (l *Ledger) NextPaymentNumber() int {
	max := 0
	for _, p := range l.payments {
		if p.PaymentNumber > max {
			max = p.PaymentNumber
		}
	}
	return max + 1
}

// Record validates and appends a new payment, returning it with its
// assigned payment number. The persistent id is assigned later by the
// repository. On error the ledger is unchanged.
func (l *Ledger) Record(amount money.Money, method string, paidAt time.Time) (models.Payment, error) {
	if !amount.IsPositive() {
		return models.Payment{}, fmt.Errorf("%w: payment amount must be positive, got %s",
			money.ErrInvalidAmount, amount)
	}
	if l.AmountPaid().Add(amount).Cmp(l.total) > 0 {
		return models.Payment{}, fmt.Errorf("%w: %s owed, %s offered",
			ErrOverpayment, l.AmountOwed(), amount)
	}

	p := models.Payment{
		PaymentNumber: l.NextPaymentNumber(),
		Amount:        amount,
		Method:        method,
		PaidAt:        paidAt,
	}
	l.payments = append(l.payments, p)
	return p, nil
}

// Void marks the payment with the given id voided, excluding it from all
// derived totals. Remaining payments keep their numbers.
func (l *Ledger) Void(paymentID int64) (models.Payment, error) {
	for i := range l.payments {
		if l.payments[i].ID != paymentID {
			continue
		}
		if l.payments[i].Voided {
			return models.Payment{}, fmt.Errorf("%w: payment %d already voided", ErrPaymentNotFound, paymentID)
		}
		l.payments[i].Voided = true
		return l.payments[i], nil
	}
	return models.Payment{}, fmt.Errorf("%w: payment %d", ErrPaymentNotFound, paymentID)
}
