package ingest

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/thepalians/reviewer-sub002/pkg/errors"

	"github.com/xuri/excelize/v2"
)

// RowReader turns an uploaded file into raw rows, header included.
// Cell values are returned untrimmed; normalization happens in the
// pipeline so both formats go through the same path.
type RowReader interface {
	Rows(data []byte) ([][]string, error)
}

// NewRowReader picks a reader by file extension.
func NewRowReader(filename string) (RowReader, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv":
		return &CSVReader{}, nil
	case ".xlsx":
		return &ExcelReader{}, nil
	default:
		return nil, errors.ErrUnsupportedFormat
	}
}

type CSVReader struct{}

func (r *CSVReader) Rows(data []byte) ([][]string, error) {
	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true

	var rows [][]string
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read CSV row: %w", err)
		}
		rows = append(rows, row)
	}

	return rows, nil
}

type ExcelReader struct{}

func (r *ExcelReader) Rows(data []byte) ([][]string, error) {
	file, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer file.Close()

	sheets := file.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.ErrEmptyFile
	}

	rows, err := file.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to get rows: %w", err)
	}

	return rows, nil
}
