package ledger

import "errors"

// Business-rule rejections surfaced verbatim to callers.
var (
	// ErrOverpayment rejects a payment that would push the paid total past
	// the order total. Overpayment is never silently accepted.
	ErrOverpayment = errors.New("payment exceeds amount owed")

	// ErrPaymentNotFound rejects a void for an unknown or already-voided
	// payment id.
	ErrPaymentNotFound = errors.New("payment not found")
)
