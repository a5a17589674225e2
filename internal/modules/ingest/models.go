// Package ingest loads raw sales transactions from tabular files into
// the transaction store.
package ingest

import "time"

// Transaction is one raw sales line. Records are immutable once
// ingested; the whole dataset is replaced on re-upload.
type Transaction struct {
	IssueDate    time.Time `json:"issue_date"`
	Amount       float64   `json:"amount"`
	CustomerID   string    `json:"customer_id,omitempty"`
	CustomerName string    `json:"customer_name,omitempty"`
}

// Column headers of the sales workbook. Matching is case-insensitive
// and accent-insensitive so exports from different locales still load.
const (
	ColumnIssueDate    = "Fecha Emisión"
	ColumnAmount       = "Importe Final"
	ColumnCustomerID   = "Doc. Auxiliar"
	ColumnCustomerName = "Razón Social"
)
