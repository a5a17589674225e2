// Package analytics computes customer-level business-intelligence
// aggregates over the raw transaction store. It is independent of the
// forecasting pipeline.
package analytics

import "time"

// Summary holds the dashboard KPIs.
type Summary struct {
	TotalSales    float64 `json:"total_sales"`
	Customers     int     `json:"customers"`
	Transactions  int     `json:"transactions"`
	AverageTicket float64 `json:"average_ticket"` // Zero when there are no transactions
}

// CustomerTotal is one row of the top-customers ranking.
type CustomerTotal struct {
	CustomerID   string  `json:"customer_id"`
	CustomerName string  `json:"customer_name"`
	TotalSales   float64 `json:"total_sales"`
	Transactions int     `json:"transactions"`
}

// HistoryEntry is one transaction of a customer's chronological history.
type HistoryEntry struct {
	Date   time.Time `json:"date"`
	Amount float64   `json:"amount"`
}

// MonthlyTotal aggregates a customer's sales by calendar month number
// (1-12) across all years.
type MonthlyTotal struct {
	Month      int     `json:"month"`
	TotalSales float64 `json:"total_sales"`
}
