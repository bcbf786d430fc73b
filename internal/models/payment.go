package models

import (
	"time"

	"github.com/mahligai-id/backoffice/internal/money"
)

// Payment method constants. Free-form methods are accepted at the boundary;
// these cover the common cases.
const (
	MethodTransfer = "TRANSFER"
	MethodCash     = "CASH"
	MethodQRIS     = "QRIS"
)

// Payment is one received instalment against an order. Amount and
// PaymentNumber are immutable after creation; only Voided may change.
// Payment numbers are strictly increasing per order and never reused,
// so voiding leaves a visible gap in the sequence.
type Payment struct {
	ID            int64       `json:"id"`
	OrderID       int64       `json:"order_id"`
	PaymentNumber int         `json:"payment_number"`
	Amount        money.Money `json:"amount"`
	Method        string      `json:"method"`
	PaidAt        time.Time   `json:"paid_at"`
	Voided        bool        `json:"voided"`
	InvoiceID     *int64      `json:"invoice_id,omitempty"` // receipt generated for this payment
	CreatedAt     time.Time   `json:"created_at"`
}
