package ingest

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/hjuarez/ventasbi/internal/pipeline"
)

func testParser() *Parser {
	return NewParser(zerolog.New(nil).Level(zerolog.Disabled))
}

func TestParseCSV_FullSchema(t *testing.T) {
	csv := strings.Join([]string{
		"Fecha Emisión,Importe Final,Doc. Auxiliar,Razón Social",
		"2024-01-15,1200.50,20100047218,ACME SAC",
		"2024-01-16,300,20600055519,BETA SRL",
	}, "\n")

	txs, err := testParser().ParseCSV(strings.NewReader(csv))
	require.NoError(t, err)
	require.Len(t, txs, 2)

	assert.Equal(t, time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC), txs[0].IssueDate)
	assert.Equal(t, 1200.50, txs[0].Amount)
	assert.Equal(t, "20100047218", txs[0].CustomerID)
	assert.Equal(t, "ACME SAC", txs[0].CustomerName)
}

func TestParseCSV_HeadersAreAccentAndCaseInsensitive(t *testing.T) {
	csv := "FECHA EMISION,IMPORTE FINAL\n2024-02-01,10\n"

	txs, err := testParser().ParseCSV(strings.NewReader(csv))
	require.NoError(t, err)
	assert.Len(t, txs, 1)
}

func TestParseCSV_MissingRequiredColumn(t *testing.T) {
	csv := "Fecha Emisión,Cliente\n2024-02-01,ACME\n"

	_, err := testParser().ParseCSV(strings.NewReader(csv))
	assert.ErrorIs(t, err, pipeline.ErrSchema)
}

func TestParseCSV_NoDataRows(t *testing.T) {
	csv := "Fecha Emisión,Importe Final\n"

	_, err := testParser().ParseCSV(strings.NewReader(csv))
	assert.ErrorIs(t, err, pipeline.ErrEmptyInput)
}

func TestParseCSV_BlankTailRowsSkipped(t *testing.T) {
	csv := "Fecha Emisión,Importe Final\n2024-02-01,10\n,\n,\n"

	txs, err := testParser().ParseCSV(strings.NewReader(csv))
	require.NoError(t, err)
	assert.Len(t, txs, 1)
}

func TestParseCSV_NegativeAmountRejected(t *testing.T) {
	csv := "Fecha Emisión,Importe Final\n2024-02-01,-5\n"

	_, err := testParser().ParseCSV(strings.NewReader(csv))
	assert.ErrorIs(t, err, pipeline.ErrSchema)
}

func TestParseCSV_UnparseableDateRejected(t *testing.T) {
	csv := "Fecha Emisión,Importe Final\nnot-a-date,10\n"

	_, err := testParser().ParseCSV(strings.NewReader(csv))
	assert.ErrorIs(t, err, pipeline.ErrSchema)
}

func TestParseCSV_DayFirstDates(t *testing.T) {
	csv := "Fecha Emisión,Importe Final\n15/03/2024,42\n"

	txs, err := testParser().ParseCSV(strings.NewReader(csv))
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC), txs[0].IssueDate)
}

func TestParseXLSX_RoundTrip(t *testing.T) {
	f := excelize.NewFile()
	sheet := f.GetSheetList()[0]
	require.NoError(t, f.SetSheetRow(sheet, "A1", &[]interface{}{
		ColumnIssueDate, ColumnAmount, ColumnCustomerID, ColumnCustomerName,
	}))
	require.NoError(t, f.SetSheetRow(sheet, "A2", &[]interface{}{"2024-04-01", 99.9, "123", "GAMMA"}))

	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))

	txs, err := testParser().ParseXLSX(&buf)
	require.NoError(t, err)
	require.Len(t, txs, 1)
	assert.Equal(t, 99.9, txs[0].Amount)
	assert.Equal(t, "GAMMA", txs[0].CustomerName)
}

func TestParseFile_UnsupportedExtension(t *testing.T) {
	_, err := testParser().ParseFile("ventas.pdf")
	assert.Error(t, err)
}

func TestParseDate_ExcelSerial(t *testing.T) {
	d, err := parseDate("45292") // 2024-01-01 in the 1900 date system
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), d)
}
