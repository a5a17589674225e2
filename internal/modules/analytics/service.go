package analytics

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/hjuarez/ventasbi/internal/database"
)

// Service answers BI queries with SQL aggregation over the transaction
// store. Customers without an identifier are grouped under the empty id.
type Service struct {
	db  *database.DB
	log zerolog.Logger
}

// NewService creates a new analytics service
func NewService(db *database.DB, log zerolog.Logger) *Service {
	return &Service{
		db:  db,
		log: log.With().Str("service", "analytics").Logger(),
	}
}

// Summary returns the global KPIs: total sales, distinct customers,
// transaction count and average ticket. With zero transactions the
// average ticket is zero, not NaN.
func (s *Service) Summary() (Summary, error) {
	var out Summary
	err := s.db.QueryRow(`
		SELECT COALESCE(SUM(amount), 0),
		       COUNT(DISTINCT customer_id),
		       COUNT(*)
		FROM transactions
	`).Scan(&out.TotalSales, &out.Customers, &out.Transactions)
	if err != nil {
		return Summary{}, fmt.Errorf("failed to compute summary: %w", err)
	}

	if out.Transactions > 0 {
		out.AverageTicket = out.TotalSales / float64(out.Transactions)
	}

	return out, nil
}

// TopCustomers ranks customers by total sales descending. Ties are
// broken by customer id ascending so the ranking is deterministic.
func (s *Service) TopCustomers(n int) ([]CustomerTotal, error) {
	if n <= 0 {
		n = 10
	}

	rows, err := s.db.Query(`
		SELECT COALESCE(customer_id, ''),
		       COALESCE(MAX(customer_name), ''),
		       SUM(amount),
		       COUNT(*)
		FROM transactions
		GROUP BY customer_id
		ORDER BY SUM(amount) DESC, customer_id ASC
		LIMIT ?
	`, n)
	if err != nil {
		return nil, fmt.Errorf("failed to rank customers: %w", err)
	}
	defer rows.Close()

	var out []CustomerTotal
	for rows.Next() {
		var c CustomerTotal
		if err := rows.Scan(&c.CustomerID, &c.CustomerName, &c.TotalSales, &c.Transactions); err != nil {
			return nil, fmt.Errorf("failed to scan customer total: %w", err)
		}
		out = append(out, c)
	}

	return out, rows.Err()
}

// History returns a customer's full transaction history in
// chronological order.
func (s *Service) History(customerID string) ([]HistoryEntry, error) {
	rows, err := s.db.Query(`
		SELECT issue_date, amount
		FROM transactions
		WHERE customer_id = ?
		ORDER BY issue_date ASC, id ASC
	`, customerID)
	if err != nil {
		return nil, fmt.Errorf("failed to load customer history: %w", err)
	}
	defer rows.Close()

	var out []HistoryEntry
	for rows.Next() {
		var e HistoryEntry
		var rawDate string
		if err := rows.Scan(&rawDate, &e.Amount); err != nil {
			return nil, fmt.Errorf("failed to scan history entry: %w", err)
		}
		e.Date, err = time.Parse("2006-01-02", rawDate)
		if err != nil {
			return nil, fmt.Errorf("corrupt issue_date %q: %w", rawDate, err)
		}
		out = append(out, e)
	}

	return out, rows.Err()
}

// MonthlyTotals groups a customer's sales by calendar month number
// across all years. Month is deliberately not year-scoped: the
// dashboard uses it as a seasonality profile.
func (s *Service) MonthlyTotals(customerID string) ([]MonthlyTotal, error) {
	rows, err := s.db.Query(`
		SELECT CAST(strftime('%m', issue_date) AS INTEGER) AS month,
		       SUM(amount)
		FROM transactions
		WHERE customer_id = ?
		GROUP BY month
		ORDER BY month ASC
	`, customerID)
	if err != nil {
		return nil, fmt.Errorf("failed to compute monthly totals: %w", err)
	}
	defer rows.Close()

	var out []MonthlyTotal
	for rows.Next() {
		var m MonthlyTotal
		if err := rows.Scan(&m.Month, &m.TotalSales); err != nil {
			return nil, fmt.Errorf("failed to scan monthly total: %w", err)
		}
		out = append(out, m)
	}

	return out, rows.Err()
}
