package ingest

import (
	"testing"

	"github.com/thepalians/reviewer-sub002/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestNewRowReaderByExtension(t *testing.T) {
	csvReader, err := NewRowReader("tasks.csv")
	require.NoError(t, err)
	assert.IsType(t, &CSVReader{}, csvReader)

	excelReader, err := NewRowReader("TASKS.XLSX")
	require.NoError(t, err)
	assert.IsType(t, &ExcelReader{}, excelReader)
}

func TestNewRowReaderRejectsUnknownExtension(t *testing.T) {
	_, err := NewRowReader("tasks.pdf")
	assert.ErrorIs(t, err, errors.ErrUnsupportedFormat)

	_, err = NewRowReader("tasks")
	assert.ErrorIs(t, err, errors.ErrUnsupportedFormat)
}

func TestCSVReaderRows(t *testing.T) {
	data := []byte("brand_name,product_name\nAcme,\"Widget, Deluxe\"\nGlobex,Gadget\n")

	rows, err := (&CSVReader{}).Rows(data)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"brand_name", "product_name"}, rows[0])
	assert.Equal(t, []string{"Acme", "Widget, Deluxe"}, rows[1])
}

func TestCSVReaderToleratesUnevenRows(t *testing.T) {
	data := []byte("a,b,c\n1,2\n1,2,3,4\n")

	rows, err := (&CSVReader{}).Rows(data)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Len(t, rows[1], 2)
	assert.Len(t, rows[2], 4)
}

func TestCSVReaderEmptyFile(t *testing.T) {
	rows, err := (&CSVReader{}).Rows([]byte(""))
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestExcelReaderRows(t *testing.T) {
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	require.NoError(t, f.SetSheetRow(sheet, "A1", &[]interface{}{"brand_name", "product_name", "reward_amount"}))
	require.NoError(t, f.SetSheetRow(sheet, "A2", &[]interface{}{"Acme", "Widget", 25.50}))

	buf, err := f.WriteToBuffer()
	require.NoError(t, err)

	rows, err := (&ExcelReader{}).Rows(buf.Bytes())
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"brand_name", "product_name", "reward_amount"}, rows[0])
	assert.Equal(t, "Acme", rows[1][0])
	assert.Equal(t, "25.5", rows[1][2])
}

func TestExcelReaderRejectsCorruptData(t *testing.T) {
	_, err := (&ExcelReader{}).Rows([]byte("not a zip archive"))
	assert.Error(t, err)
}
