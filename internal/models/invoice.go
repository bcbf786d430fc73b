package models

import (
	"fmt"
	"time"
)

// InvoiceKind distinguishes the two generated document types.
type InvoiceKind string

const (
	// KindPaymentReceipt is a receipt for one recorded payment.
	KindPaymentReceipt InvoiceKind = "PAYMENT_RECEIPT"
	// KindFinalInvoice is the full-order invoice.
	KindFinalInvoice InvoiceKind = "FINAL_INVOICE"
)

// Valid reports whether k is a known invoice kind.
func (k InvoiceKind) Valid() bool {
	return k == KindPaymentReceipt || k == KindFinalInvoice
}

// Invoice is the record of one generated document. The rendered bytes live
// in the document store under Checksum; the row is never mutated after
// generation.
type Invoice struct {
	ID             int64       `json:"id"`
	Kind           InvoiceKind `json:"kind"`
	OrderID        int64       `json:"order_id"`
	PaymentID      *int64      `json:"payment_id,omitempty"` // set for PAYMENT_RECEIPT only
	SequenceNumber int64       `json:"sequence_number"`
	Number         string      `json:"number"`   // e.g. INV/2026/000042
	Checksum       string      `json:"checksum"` // sha256 of the PDF bytes
	FilePath       string      `json:"file_path"`
	GeneratedAt    time.Time   `json:"generated_at"`
	CreatedAt      time.Time   `json:"created_at"`
}

// FormatInvoiceNumber builds the human-facing invoice number from the
// per-tenant sequence, e.g. INV/2026/000042.
func FormatInvoiceNumber(seq int64, generatedAt time.Time) string {
	return fmt.Sprintf("INV/%d/%06d", generatedAt.Year(), seq)
}
