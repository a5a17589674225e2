package ingest

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/hjuarez/ventasbi/internal/database"
)

const dateLayout = "2006-01-02"

// Repository handles transaction persistence. One batch (identified by
// a uuid) holds the currently active dataset; re-ingesting replaces it.
type Repository struct {
	db  *database.DB
	log zerolog.Logger
}

// NewRepository creates a new transaction repository
func NewRepository(db *database.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repo", "transactions").Logger(),
	}
}

// Replace swaps the stored dataset for the given transactions inside a
// single database transaction. Returns the new batch id.
func (r *Repository) Replace(txs []Transaction) (string, error) {
	batchID := uuid.New().String()
	now := time.Now().UTC().Format(time.RFC3339)

	tx, err := r.db.Begin()
	if err != nil {
		return "", fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.Exec("DELETE FROM transactions"); err != nil {
		return "", fmt.Errorf("failed to clear previous dataset: %w", err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO transactions (batch_id, issue_date, amount, customer_id, customer_name, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return "", fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, t := range txs {
		_, err := stmt.Exec(
			batchID,
			t.IssueDate.Format(dateLayout),
			t.Amount,
			nullString(t.CustomerID),
			nullString(t.CustomerName),
			now,
		)
		if err != nil {
			return "", fmt.Errorf("failed to insert transaction: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("failed to commit dataset: %w", err)
	}

	r.log.Info().
		Str("batch_id", batchID).
		Int("transactions", len(txs)).
		Msg("Dataset replaced")

	return batchID, nil
}

// All returns every stored transaction ordered by issue date.
func (r *Repository) All() ([]Transaction, error) {
	rows, err := r.db.Query(`
		SELECT issue_date, amount, COALESCE(customer_id, ''), COALESCE(customer_name, '')
		FROM transactions
		ORDER BY issue_date ASC, id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer rows.Close()

	var txs []Transaction
	for rows.Next() {
		var t Transaction
		var rawDate string
		if err := rows.Scan(&rawDate, &t.Amount, &t.CustomerID, &t.CustomerName); err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		t.IssueDate, err = time.Parse(dateLayout, rawDate)
		if err != nil {
			return nil, fmt.Errorf("corrupt issue_date %q: %w", rawDate, err)
		}
		txs = append(txs, t)
	}

	return txs, rows.Err()
}

// Count returns the number of stored transactions.
func (r *Repository) Count() (int, error) {
	var n int
	if err := r.db.QueryRow("SELECT COUNT(*) FROM transactions").Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count transactions: %w", err)
	}
	return n, nil
}

func nullString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
