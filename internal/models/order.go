package models

import (
	"time"

	"github.com/mahligai-id/backoffice/internal/money"
)

// PaymentStatus is the staged payment state of an order. It is always
// re-derived from the payment history, never authoritative on its own.
type PaymentStatus string

const (
	// StatusPending means no money has been received yet.
	StatusPending PaymentStatus = ""
	// StatusDP1 means the first deposit has been received.
	StatusDP1 PaymentStatus = "DP1"
	// StatusDP2 means a second deposit has been received.
	StatusDP2 PaymentStatus = "DP2"
	// StatusLunas means the order is paid in full (amountPaid == total).
	StatusLunas PaymentStatus = "LUNAS"
)

// Order is one booked wedding package. It owns its line items and its
// payment history; the client is referenced, not owned.
type Order struct {
	ID            int64         `json:"id"`
	ClientID      *int64        `json:"client_id"` // nil for walk-in quotes
	EventDate     *time.Time    `json:"event_date"`
	Items         []LineItem    `json:"items"`
	TotalAmount   money.Money   `json:"total_amount"`
	PaymentStatus PaymentStatus `json:"payment_status"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`
}

// LineItem is one billed product or service on an order.
type LineItem struct {
	ID          int64       `json:"id"`
	OrderID     int64       `json:"order_id"`
	Description string      `json:"description"`
	UnitPrice   money.Money `json:"unit_price"`
	Quantity    int         `json:"quantity"`
}

// Subtotal returns UnitPrice * Quantity.
func (li LineItem) Subtotal() money.Money {
	return li.UnitPrice.MulInt(li.Quantity)
}

// SumItems returns the order total implied by a set of line items.
func SumItems(items []LineItem) money.Money {
	total := money.Zero()
	for _, it := range items {
		total = total.Add(it.Subtotal())
	}
	return total
}
