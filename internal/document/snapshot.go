package document

import (
	"time"

	"github.com/mahligai-id/backoffice/internal/ledger"
	"github.com/mahligai-id/backoffice/internal/models"
)

// Snapshot is the immutable, fully pre-formatted input to a render. It is
// built from value copies only, so concurrent ledger mutation after capture
// cannot change what gets printed. Identical snapshots render to identical
// bytes.
type Snapshot struct {
	GeneratedAt time.Time
	Vendor      VendorInfo
	Order       OrderSnapshot
	Payment     *PaymentSnapshot // set for payment receipts only
}

// VendorInfo is the letterhead block, taken from configuration.
type VendorInfo struct {
	Name    string
	Address string
	Phone   string
	Email   string
}

// OrderSnapshot carries the billed state of the order at capture time.
// Amounts are carried as display strings; arithmetic is finished before the
// snapshot exists.
type OrderSnapshot struct {
	ID          int64
	EventDate   string
	ClientName  string
	ClientLine  string // contact line under the name, may be empty
	Items       []ItemSnapshot
	Total       string
	AmountPaid  string
	AmountOwed  string
	Status      string
	PaymentRows []PaymentRow
}

// ItemSnapshot is one line item as printed.
type ItemSnapshot struct {
	Description string
	Quantity    int
	UnitPrice   string
	Subtotal    string
}

// PaymentRow is one ledger entry as printed on the final invoice.
type PaymentRow struct {
	Number int
	PaidAt string
	Method string
	Amount string
	Voided bool
}

// PaymentSnapshot is the single payment a receipt is issued for.
type PaymentSnapshot struct {
	ID     int64
	Number int
	PaidAt string
	Method string
	Amount string
}

// BuildSnapshot captures an order, its ledger, and optionally one payment
// into a render-ready snapshot. The client may be nil for orders without
// one.
func BuildSnapshot(o *models.Order, payments []models.Payment, client *models.Client,
	vendor VendorInfo, receiptFor *models.Payment, generatedAt time.Time) *Snapshot {

	led := ledger.New(models.SumItems(o.Items), payments)

	snap := &Snapshot{
		GeneratedAt: generatedAt,
		Vendor:      vendor,
		Order: OrderSnapshot{
			ID:         o.ID,
			Total:      led.Total().DisplayIDR(),
			AmountPaid: led.AmountPaid().DisplayIDR(),
			AmountOwed: led.AmountOwed().DisplayIDR(),
			Status:     statusLabel(led.Status()),
		},
	}
	if o.EventDate != nil {
		snap.Order.EventDate = o.EventDate.Format("2 January 2006")
	}
	if client != nil {
		snap.Order.ClientName = client.BrideName + " & " + client.GroomName
		snap.Order.ClientLine = contactLine(client)
	}

	for _, it := range o.Items {
		snap.Order.Items = append(snap.Order.Items, ItemSnapshot{
			Description: it.Description,
			Quantity:    it.Quantity,
			UnitPrice:   it.UnitPrice.DisplayIDR(),
			Subtotal:    it.Subtotal().DisplayIDR(),
		})
	}
	for _, p := range payments {
		snap.Order.PaymentRows = append(snap.Order.PaymentRows, PaymentRow{
			Number: p.PaymentNumber,
			PaidAt: p.PaidAt.Format("2 January 2006"),
			Method: p.Method,
			Amount: p.Amount.DisplayIDR(),
			Voided: p.Voided,
		})
	}
	if receiptFor != nil {
		snap.Payment = &PaymentSnapshot{
			ID:     receiptFor.ID,
			Number: receiptFor.PaymentNumber,
			PaidAt: receiptFor.PaidAt.Format("2 January 2006"),
			Method: receiptFor.Method,
			Amount: receiptFor.Amount.DisplayIDR(),
		}
	}
	return snap
}

func statusLabel(s models.PaymentStatus) string {
	switch s {
	case models.StatusDP1:
		return "DP 1"
	case models.StatusDP2:
		return "DP 2"
	case models.StatusLunas:
		return "LUNAS"
	default:
		return "BELUM BAYAR"
	}
}

func contactLine(c *models.Client) string {
	switch {
	case c.Phone != "" && c.Email != "":
		return c.Phone + " / " + c.Email
	case c.Phone != "":
		return c.Phone
	default:
		return c.Email
	}
}
