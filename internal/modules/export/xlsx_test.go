package export

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/hjuarez/ventasbi/internal/modules/forecast"
)

func sampleRecords() []forecast.Record {
	base := time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)
	return []forecast.Record{
		{Date: base, Predicted: 1234.56, Lower: 1000, Upper: 1500},
		{Date: base.AddDate(0, 0, 1), Predicted: 987.65, Lower: 800, Upper: 1200},
	}
}

func TestWriteForecast_RoundTrip(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteForecast(&buf, sampleRecords()))

	rows, err := ReadForecast(&buf)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC), rows[0].Date)
	assert.InDelta(t, 1234.56, rows[0].Predicted, 1e-9)
	assert.InDelta(t, 987.65, rows[1].Predicted, 1e-9)
}

func TestWriteForecast_SheetAndHeaders(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteForecast(&buf, sampleRecords()))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{SheetName}, f.GetSheetList())

	rows, err := f.GetRows(SheetName)
	require.NoError(t, err)
	require.NotEmpty(t, rows)
	assert.Equal(t, []string{"Fecha", "Predicción"}, rows[0])
}

func TestWriteForecast_EmptyRecords(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteForecast(&buf, nil))

	rows, err := ReadForecast(&buf)
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestReadForecast_MissingSheet(t *testing.T) {
	f := excelize.NewFile()
	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))

	_, err := ReadForecast(&buf)
	assert.Error(t, err)
}

func TestReadForecast_NotAWorkbook(t *testing.T) {
	_, err := ReadForecast(strings.NewReader("not xlsx"))
	assert.Error(t, err)
}
