package export

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mahligai-id/backoffice/internal/models"
	"github.com/mahligai-id/backoffice/internal/money"
	"github.com/mahligai-id/backoffice/internal/order"
)

func sampleView() *order.View {
	eventDate := time.Date(2026, 6, 20, 0, 0, 0, 0, time.UTC)
	return &order.View{
		Order: &models.Order{
			ID:            42,
			EventDate:     &eventDate,
			TotalAmount:   money.MustFromString("20000000"),
			PaymentStatus: models.StatusDP1,
		},
		Payments: []models.Payment{
			{PaymentNumber: 1, Amount: money.MustFromString("8000000"),
				Method: models.MethodTransfer, PaidAt: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)},
			{PaymentNumber: 2, Amount: money.MustFromString("5000000"),
				Method: models.MethodCash, PaidAt: time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC), Voided: true},
		},
		AmountPaid: money.MustFromString("8000000"),
		AmountOwed: money.MustFromString("12000000"),
	}
}

func TestBuildWorkbook(t *testing.T) {
	exporter := NewLedgerExporter("Mahligai Wedding Organizer", zap.NewNop())
	client := &models.Client{BrideName: "Sari", GroomName: "Budi"}

	f, err := exporter.BuildWorkbook(sampleView(), client)
	require.NoError(t, err)
	defer f.Close()

	get := func(cell string) string {
		v, err := f.GetCellValue("Ledger", cell)
		require.NoError(t, err)
		return v
	}

	assert.Equal(t, "Mahligai Wedding Organizer", get("A1"))
	assert.Equal(t, "Order #42", get("A2"))
	assert.Equal(t, "Sari & Budi", get("A3"))
	assert.Equal(t, "Event: 2026-06-20", get("A4"))

	// Header then one row per payment, voided included.
	assert.Equal(t, "No", get("A6"))
	assert.Equal(t, "1", get("A7"))
	assert.Equal(t, "2026-03-01", get("B7"))
	assert.Equal(t, models.MethodTransfer, get("C7"))
	assert.Equal(t, "8000000.00", get("D7"))
	assert.Equal(t, "", get("E7"))
	assert.Equal(t, "VOID", get("E8"))

	// Summary block under the table.
	assert.Equal(t, "Total", get("C10"))
	assert.Equal(t, "20000000.00", get("D10"))
	assert.Equal(t, "Paid", get("C11"))
	assert.Equal(t, "8000000.00", get("D11"))
	assert.Equal(t, "Owed", get("C12"))
	assert.Equal(t, "12000000.00", get("D12"))
	assert.Equal(t, "Status", get("C13"))
	assert.Equal(t, "DP1", get("D13"))
}

func TestBuildWorkbookWithoutClient(t *testing.T) {
	exporter := NewLedgerExporter("Mahligai Wedding Organizer", zap.NewNop())

	view := sampleView()
	view.Payments = nil
	view.AmountPaid = money.Zero()
	view.AmountOwed = view.Order.TotalAmount
	view.Order.PaymentStatus = models.StatusPending

	f, err := exporter.BuildWorkbook(view, nil)
	require.NoError(t, err)
	defer f.Close()

	v, err := f.GetCellValue("Ledger", "A3")
	require.NoError(t, err)
	assert.Empty(t, v)

	// Summary sits right under the header when there are no payments.
	v, err = f.GetCellValue("Ledger", "C8")
	require.NoError(t, err)
	assert.Equal(t, "Total", v)
}
