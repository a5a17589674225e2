package ingest

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/xuri/excelize/v2"

	"github.com/hjuarez/ventasbi/internal/pipeline"
)

// Parser reads sales transactions from XLSX or CSV files.
type Parser struct {
	log zerolog.Logger
}

// NewParser creates a new sales file parser
func NewParser(log zerolog.Logger) *Parser {
	return &Parser{
		log: log.With().Str("component", "ingest_parser").Logger(),
	}
}

// ParseFile reads transactions from the file at path, dispatching on
// the extension. Only the minimal schema is enforced: an issue-date
// column and a final-amount column must be present.
func (p *Parser) ParseFile(path string) ([]Transaction, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx":
		f, err := excelize.OpenFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open workbook: %w", err)
		}
		defer f.Close()
		return p.parseWorkbook(f)
	case ".csv":
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open csv: %w", err)
		}
		defer f.Close()
		return p.ParseCSV(f)
	default:
		return nil, fmt.Errorf("unsupported file type %q (want .xlsx or .csv)", filepath.Ext(path))
	}
}

// ParseXLSX reads transactions from an XLSX stream.
func (p *Parser) ParseXLSX(r io.Reader) ([]Transaction, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()
	return p.parseWorkbook(f)
}

func (p *Parser) parseWorkbook(f *excelize.File) ([]Transaction, error) {
	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook has no sheets: %w", pipeline.ErrEmptyInput)
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheets[0], err)
	}

	return p.parseRows(rows)
}

// ParseCSV reads transactions from a CSV stream with the same header
// contract as the workbook path.
func (p *Parser) ParseCSV(r io.Reader) ([]Transaction, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1 // Ragged rows are validated per cell below

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read csv: %w", err)
	}

	return p.parseRows(records)
}

// parseRows converts raw rows (first row = header) into transactions.
func (p *Parser) parseRows(rows [][]string) ([]Transaction, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("file has no rows: %w", pipeline.ErrEmptyInput)
	}

	cols, err := resolveColumns(rows[0])
	if err != nil {
		return nil, err
	}

	txs := make([]Transaction, 0, len(rows)-1)
	skipped := 0

	for i, row := range rows[1:] {
		date, amount, ok, err := parseRequired(row, cols)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		if !ok {
			// Blank or partial rows are common at the tail of exports
			skipped++
			continue
		}

		tx := Transaction{IssueDate: date, Amount: amount}
		if cols.customerID >= 0 && cols.customerID < len(row) {
			tx.CustomerID = strings.TrimSpace(row[cols.customerID])
		}
		if cols.customerName >= 0 && cols.customerName < len(row) {
			tx.CustomerName = strings.TrimSpace(row[cols.customerName])
		}
		txs = append(txs, tx)
	}

	if skipped > 0 {
		p.log.Debug().Int("skipped", skipped).Msg("Skipped blank rows during parse")
	}

	if len(txs) == 0 {
		return nil, fmt.Errorf("file has headers but no data rows: %w", pipeline.ErrEmptyInput)
	}

	p.log.Info().Int("transactions", len(txs)).Msg("Parsed sales file")
	return txs, nil
}

// columnIndexes holds the resolved positions of the known columns.
// Optional columns resolve to -1 when absent.
type columnIndexes struct {
	issueDate    int
	amount       int
	customerID   int
	customerName int
}

func resolveColumns(header []string) (columnIndexes, error) {
	cols := columnIndexes{issueDate: -1, amount: -1, customerID: -1, customerName: -1}

	for i, h := range header {
		switch normalizeHeader(h) {
		case normalizeHeader(ColumnIssueDate):
			cols.issueDate = i
		case normalizeHeader(ColumnAmount):
			cols.amount = i
		case normalizeHeader(ColumnCustomerID):
			cols.customerID = i
		case normalizeHeader(ColumnCustomerName):
			cols.customerName = i
		}
	}

	if cols.issueDate < 0 || cols.amount < 0 {
		return cols, fmt.Errorf("file must have %q and %q columns: %w",
			ColumnIssueDate, ColumnAmount, pipeline.ErrSchema)
	}

	return cols, nil
}

// normalizeHeader lowercases and strips accents and surrounding space so
// "FECHA EMISION" and "Fecha Emisión" resolve to the same column.
func normalizeHeader(h string) string {
	replacer := strings.NewReplacer(
		"á", "a", "é", "e", "í", "i", "ó", "o", "ú", "u", "ñ", "n",
	)
	return replacer.Replace(strings.ToLower(strings.TrimSpace(h)))
}

// parseRequired extracts the date and amount cells of one row.
// ok=false marks a blank row that should be skipped.
func parseRequired(row []string, cols columnIndexes) (time.Time, float64, bool, error) {
	var rawDate, rawAmount string
	if cols.issueDate < len(row) {
		rawDate = strings.TrimSpace(row[cols.issueDate])
	}
	if cols.amount < len(row) {
		rawAmount = strings.TrimSpace(row[cols.amount])
	}

	if rawDate == "" && rawAmount == "" {
		return time.Time{}, 0, false, nil
	}
	if rawDate == "" || rawAmount == "" {
		return time.Time{}, 0, false, fmt.Errorf("incomplete row (date=%q amount=%q): %w",
			rawDate, rawAmount, pipeline.ErrSchema)
	}

	date, err := parseDate(rawDate)
	if err != nil {
		return time.Time{}, 0, false, err
	}

	amount, err := strconv.ParseFloat(strings.ReplaceAll(rawAmount, ",", ""), 64)
	if err != nil {
		return time.Time{}, 0, false, fmt.Errorf("invalid amount %q: %w", rawAmount, pipeline.ErrSchema)
	}
	if amount < 0 || math.IsNaN(amount) || math.IsInf(amount, 0) {
		return time.Time{}, 0, false, fmt.Errorf("amount %q must be a non-negative number: %w",
			rawAmount, pipeline.ErrSchema)
	}

	return date, amount, true, nil
}

// excelEpoch is day zero of Excel's 1900 date system.
var excelEpoch = time.Date(1899, time.December, 30, 0, 0, 0, 0, time.UTC)

// parseDate accepts ISO dates, the common Latin-American day-first
// format, datetimes, and raw Excel serial numbers.
func parseDate(s string) (time.Time, error) {
	layouts := []string{
		"2006-01-02",
		"2006-01-02 15:04:05",
		"02/01/2006",
		"02-01-2006",
		"01-02-06", // excelize default for date-styled cells
		time.RFC3339,
	}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Truncate(24 * time.Hour), nil
		}
	}

	// Excel stores dates as serial day counts
	if serial, err := strconv.ParseFloat(s, 64); err == nil && serial > 0 {
		return excelEpoch.AddDate(0, 0, int(serial)), nil
	}

	return time.Time{}, fmt.Errorf("unparseable date %q: %w", s, pipeline.ErrSchema)
}
