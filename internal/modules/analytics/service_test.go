package analytics

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hjuarez/ventasbi/internal/database"
	"github.com/hjuarez/ventasbi/internal/modules/ingest"
)

func setupTestService(t *testing.T, txs []ingest.Transaction) *Service {
	t.Helper()

	db, err := database.NewInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, db.Migrate())

	log := zerolog.New(nil).Level(zerolog.Disabled)
	if len(txs) > 0 {
		_, err = ingest.NewRepository(db, log).Replace(txs)
		require.NoError(t, err)
	}

	return NewService(db, log)
}

func date(s string) time.Time {
	d, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestSummary(t *testing.T) {
	svc := setupTestService(t, []ingest.Transaction{
		{IssueDate: date("2024-01-01"), Amount: 100, CustomerID: "A"},
		{IssueDate: date("2024-01-02"), Amount: 200, CustomerID: "A"},
		{IssueDate: date("2024-01-03"), Amount: 300, CustomerID: "B"},
	})

	sum, err := svc.Summary()
	require.NoError(t, err)

	assert.Equal(t, 600.0, sum.TotalSales)
	assert.Equal(t, 2, sum.Customers)
	assert.Equal(t, 3, sum.Transactions)
	assert.InDelta(t, 200.0, sum.AverageTicket, 1e-9)
}

func TestSummary_EmptyStore(t *testing.T) {
	svc := setupTestService(t, nil)

	sum, err := svc.Summary()
	require.NoError(t, err)

	assert.Zero(t, sum.TotalSales)
	assert.Zero(t, sum.Transactions)
	assert.Zero(t, sum.AverageTicket, "average ticket must be zero, not NaN")
}

func TestTopCustomers_RankingAndLimit(t *testing.T) {
	svc := setupTestService(t, []ingest.Transaction{
		{IssueDate: date("2024-01-01"), Amount: 50, CustomerID: "A", CustomerName: "Alpha"},
		{IssueDate: date("2024-01-02"), Amount: 75, CustomerID: "A", CustomerName: "Alpha"},
		{IssueDate: date("2024-01-03"), Amount: 200, CustomerID: "B", CustomerName: "Beta"},
		{IssueDate: date("2024-01-04"), Amount: 10, CustomerID: "C", CustomerName: "Gamma"},
	})

	top, err := svc.TopCustomers(2)
	require.NoError(t, err)
	require.Len(t, top, 2)

	assert.Equal(t, "B", top[0].CustomerID)
	assert.Equal(t, 200.0, top[0].TotalSales)
	assert.Equal(t, "A", top[1].CustomerID)
	assert.Equal(t, 125.0, top[1].TotalSales)
	assert.Equal(t, 2, top[1].Transactions)
}

func TestTopCustomers_TieBrokenByID(t *testing.T) {
	svc := setupTestService(t, []ingest.Transaction{
		{IssueDate: date("2024-01-01"), Amount: 100, CustomerID: "Z"},
		{IssueDate: date("2024-01-02"), Amount: 100, CustomerID: "A"},
		{IssueDate: date("2024-01-03"), Amount: 100, CustomerID: "M"},
	})

	top, err := svc.TopCustomers(3)
	require.NoError(t, err)
	require.Len(t, top, 3)

	assert.Equal(t, "A", top[0].CustomerID)
	assert.Equal(t, "M", top[1].CustomerID)
	assert.Equal(t, "Z", top[2].CustomerID)
}

func TestTopCustomers_DefaultLimit(t *testing.T) {
	svc := setupTestService(t, []ingest.Transaction{
		{IssueDate: date("2024-01-01"), Amount: 1, CustomerID: "A"},
	})

	top, err := svc.TopCustomers(0)
	require.NoError(t, err)
	assert.Len(t, top, 1)
}

func TestHistory_ChronologicalForOneCustomer(t *testing.T) {
	svc := setupTestService(t, []ingest.Transaction{
		{IssueDate: date("2024-03-10"), Amount: 30, CustomerID: "A"},
		{IssueDate: date("2024-01-05"), Amount: 10, CustomerID: "A"},
		{IssueDate: date("2024-02-01"), Amount: 99, CustomerID: "B"},
	})

	hist, err := svc.History("A")
	require.NoError(t, err)
	require.Len(t, hist, 2)

	assert.Equal(t, date("2024-01-05"), hist[0].Date)
	assert.Equal(t, 10.0, hist[0].Amount)
	assert.Equal(t, date("2024-03-10"), hist[1].Date)
}

func TestHistory_UnknownCustomer(t *testing.T) {
	svc := setupTestService(t, []ingest.Transaction{
		{IssueDate: date("2024-01-01"), Amount: 1, CustomerID: "A"},
	})

	hist, err := svc.History("nobody")
	require.NoError(t, err)
	assert.Empty(t, hist)
}

func TestMonthlyTotals_GroupsAcrossYears(t *testing.T) {
	svc := setupTestService(t, []ingest.Transaction{
		{IssueDate: date("2023-01-15"), Amount: 100, CustomerID: "A"},
		{IssueDate: date("2024-01-20"), Amount: 50, CustomerID: "A"},
		{IssueDate: date("2024-06-01"), Amount: 25, CustomerID: "A"},
	})

	months, err := svc.MonthlyTotals("A")
	require.NoError(t, err)
	require.Len(t, months, 2)

	assert.Equal(t, 1, months[0].Month)
	assert.Equal(t, 150.0, months[0].TotalSales, "january totals merge across years")
	assert.Equal(t, 6, months[1].Month)
	assert.Equal(t, 25.0, months[1].TotalSales)
}
