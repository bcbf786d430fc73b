package order

import "errors"

// ErrOrderLocked rejects line-item changes once money has moved on the
// order. Billed amounts are frozen from the first live payment onward.
var ErrOrderLocked = errors.New("order has recorded payments; line items are locked")

// ErrNoItems rejects creating an order whose line items are all empty or
// malformed.
var ErrNoItems = errors.New("order has no valid line items")
