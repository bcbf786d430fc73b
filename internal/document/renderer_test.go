package document

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mahligai-id/backoffice/internal/models"
	"github.com/mahligai-id/backoffice/internal/money"
)

var testVendor = VendorInfo{
	Name:    "Mahligai Wedding Organizer",
	Address: "Jl. Kemang Raya No. 12, Jakarta Selatan",
	Phone:   "+62 812-3456-7890",
	Email:   "halo@mahligai.id",
}

func sampleOrder() (*models.Order, []models.Payment, *models.Client) {
	eventDate := time.Date(2026, 6, 20, 0, 0, 0, 0, time.UTC)
	o := &models.Order{
		ID:        42,
		EventDate: &eventDate,
		Items: []models.LineItem{
			{Description: "Paket katering", UnitPrice: money.MustFromString("150000"), Quantity: 100},
			{Description: "Dekorasi pelaminan", UnitPrice: money.MustFromString("12000000"), Quantity: 1},
		},
	}
	payments := []models.Payment{
		{ID: 1, PaymentNumber: 1, Amount: money.MustFromString("10000000"),
			Method: models.MethodTransfer, PaidAt: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)},
		{ID: 2, PaymentNumber: 2, Amount: money.MustFromString("5000000"),
			Method: models.MethodCash, PaidAt: time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC), Voided: true},
	}
	client := &models.Client{
		BrideName: "Sari",
		GroomName: "Budi",
		Phone:     "+62 811-1111-2222",
		Email:     "sari.budi@example.com",
	}
	return o, payments, client
}

func TestBuildSnapshot(t *testing.T) {
	o, payments, client := sampleOrder()
	generatedAt := time.Date(2026, 5, 1, 9, 30, 0, 0, time.UTC)

	snap := BuildSnapshot(o, payments, client, testVendor, nil, generatedAt)

	assert.Equal(t, generatedAt, snap.GeneratedAt)
	assert.Equal(t, int64(42), snap.Order.ID)
	assert.Equal(t, "20 June 2026", snap.Order.EventDate)
	assert.Equal(t, "Sari & Budi", snap.Order.ClientName)
	assert.Equal(t, "+62 811-1111-2222 / sari.budi@example.com", snap.Order.ClientLine)

	// 100 * 150000 + 12000000, one live payment of 10000000.
	assert.Equal(t, "Rp27.000.000", snap.Order.Total)
	assert.Equal(t, "Rp10.000.000", snap.Order.AmountPaid)
	assert.Equal(t, "Rp17.000.000", snap.Order.AmountOwed)
	assert.Equal(t, "DP 1", snap.Order.Status)

	require.Len(t, snap.Order.Items, 2)
	assert.Equal(t, "Rp15.000.000", snap.Order.Items[0].Subtotal)

	// The voided payment stays in the history rows, flagged.
	require.Len(t, snap.Order.PaymentRows, 2)
	assert.False(t, snap.Order.PaymentRows[0].Voided)
	assert.True(t, snap.Order.PaymentRows[1].Voided)
	assert.Nil(t, snap.Payment)
}

func TestBuildSnapshotForReceipt(t *testing.T) {
	o, payments, client := sampleOrder()

	snap := BuildSnapshot(o, payments, client, testVendor, &payments[0], time.Now().UTC())

	require.NotNil(t, snap.Payment)
	assert.Equal(t, 1, snap.Payment.Number)
	assert.Equal(t, "Rp10.000.000", snap.Payment.Amount)
	assert.Equal(t, "1 March 2026", snap.Payment.PaidAt)
	assert.Equal(t, models.MethodTransfer, snap.Payment.Method)
}

func TestBuildSnapshotWithoutClient(t *testing.T) {
	o, payments, _ := sampleOrder()

	snap := BuildSnapshot(o, payments, nil, testVendor, nil, time.Now().UTC())

	assert.Empty(t, snap.Order.ClientName)
	assert.Empty(t, snap.Order.ClientLine)
}

func TestStatusLabel(t *testing.T) {
	assert.Equal(t, "BELUM BAYAR", statusLabel(models.StatusPending))
	assert.Equal(t, "DP 1", statusLabel(models.StatusDP1))
	assert.Equal(t, "DP 2", statusLabel(models.StatusDP2))
	assert.Equal(t, "LUNAS", statusLabel(models.StatusLunas))
}

func newTestRenderer(t *testing.T) *Renderer {
	t.Helper()
	r, err := NewRenderer(nil, 30*time.Second, zap.NewNop())
	require.NoError(t, err)
	return r
}

func TestFillTemplateFinalInvoice(t *testing.T) {
	r := newTestRenderer(t)
	o, payments, client := sampleOrder()
	snap := BuildSnapshot(o, payments, client, testVendor, nil, time.Now().UTC())

	html, err := r.FillTemplate(snap, models.KindFinalInvoice)
	require.NoError(t, err)

	assert.Contains(t, html, "INVOICE")
	assert.Contains(t, html, "Mahligai Wedding Organizer")
	assert.Contains(t, html, "Sari &amp; Budi")
	assert.Contains(t, html, "Paket katering")
	assert.Contains(t, html, "Rp27.000.000")
	assert.Contains(t, html, "Status: DP 1")
	assert.Contains(t, html, `class="voided"`)
}

func TestFillTemplatePaymentReceipt(t *testing.T) {
	r := newTestRenderer(t)
	o, payments, client := sampleOrder()
	snap := BuildSnapshot(o, payments, client, testVendor, &payments[0], time.Now().UTC())

	html, err := r.FillTemplate(snap, models.KindPaymentReceipt)
	require.NoError(t, err)

	assert.Contains(t, html, "KWITANSI PEMBAYARAN")
	assert.Contains(t, html, "Rp10.000.000")
	assert.Contains(t, html, models.MethodTransfer)
	assert.NotContains(t, html, "Paket katering")
}

func TestFillTemplateReceiptNeedsPayment(t *testing.T) {
	r := newTestRenderer(t)
	o, payments, _ := sampleOrder()
	snap := BuildSnapshot(o, payments, nil, testVendor, nil, time.Now().UTC())

	_, err := r.FillTemplate(snap, models.KindPaymentReceipt)
	assert.Error(t, err)
}

// Same snapshot, same bytes, every time.
func TestFillTemplateIsDeterministic(t *testing.T) {
	r := newTestRenderer(t)
	o, payments, client := sampleOrder()
	snap := BuildSnapshot(o, payments, client, testVendor, nil,
		time.Date(2026, 5, 1, 9, 30, 0, 0, time.UTC))

	first, err := r.FillTemplate(snap, models.KindFinalInvoice)
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		again, err := r.FillTemplate(snap, models.KindFinalInvoice)
		require.NoError(t, err)
		assert.True(t, strings.Compare(first, again) == 0)
	}
}
