package dataset

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"slices"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/heartcheck/heartcheck/internal/domain/apperr"
	"github.com/heartcheck/heartcheck/internal/domain/model"
	"github.com/heartcheck/heartcheck/internal/domain/valueobject"
)

// Reader implements port.DatasetReader for csv, xlsx and json.
type Reader struct{}

// NewReader creates a Reader.
func NewReader() *Reader { return &Reader{} }

// Read parses r according to format.
func (rd *Reader) Read(ctx context.Context, r io.Reader, format valueobject.DatasetFormat) (*model.Dataset, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	switch format {
	case valueobject.DatasetFormatCSV:
		return readCSV(r)
	case valueobject.DatasetFormatXLSX:
		return readXLSX(r)
	case valueobject.DatasetFormatJSON:
		return readJSON(r)
	default:
		return nil, &apperr.UnsupportedFormatError{Format: format.String()}
	}
}

func readCSV(r io.Reader) (*model.Dataset, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, &apperr.InsufficientDataError{Reason: "empty file"}
	}
	if err != nil {
		return nil, malformed(valueobject.DatasetFormatCSV, err)
	}

	rows, err := cr.ReadAll()
	if err != nil {
		return nil, malformed(valueobject.DatasetFormatCSV, err)
	}
	return tableToDataset(header, rows)
}

func readXLSX(r io.Reader) (*model.Dataset, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, malformed(valueobject.DatasetFormatXLSX, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, &apperr.InsufficientDataError{Reason: "workbook has no sheets"}
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, malformed(valueobject.DatasetFormatXLSX, fmt.Errorf("sheet %s: %w", sheets[0], err))
	}
	if len(rows) == 0 {
		return nil, &apperr.InsufficientDataError{Reason: "empty sheet"}
	}
	return tableToDataset(rows[0], rows[1:])
}

// readJSON accepts an array of row objects, or an object of columns where
// each column maps row keys to values.
func readJSON(r io.Reader) (*model.Dataset, error) {
	var raw json.RawMessage
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, malformed(valueobject.DatasetFormatJSON, err)
	}
	trimmed := strings.TrimSpace(string(raw))

	switch {
	case strings.HasPrefix(trimmed, "["):
		var rows []map[string]any
		if err := json.Unmarshal(raw, &rows); err != nil {
			return nil, malformed(valueobject.DatasetFormatJSON, err)
		}
		return objectsToDataset(rows)
	case strings.HasPrefix(trimmed, "{"):
		var cols map[string]map[string]any
		if err := json.Unmarshal(raw, &cols); err != nil {
			return nil, malformed(valueobject.DatasetFormatJSON, err)
		}
		return columnsToDataset(cols)
	default:
		return nil, malformed(valueobject.DatasetFormatJSON, errors.New("expected an array of rows or an object of columns"))
	}
}

func malformed(format valueobject.DatasetFormat, err error) error {
	return &apperr.MalformedDatasetError{Format: format.String(), Err: err}
}

func objectsToDataset(rows []map[string]any) (*model.Dataset, error) {
	colSet := map[string]bool{}
	for _, row := range rows {
		for k := range row {
			colSet[k] = true
		}
	}
	header := sortedKeys(colSet)

	table := make([][]string, len(rows))
	for i, row := range rows {
		table[i] = make([]string, len(header))
		for j, col := range header {
			table[i][j] = jsonCell(row[col])
		}
	}
	return tableToDataset(header, table)
}

func columnsToDataset(cols map[string]map[string]any) (*model.Dataset, error) {
	header := sortedKeys(cols)

	rowSet := map[string]bool{}
	for _, col := range cols {
		for k := range col {
			rowSet[k] = true
		}
	}
	rowKeys := sortedKeys(rowSet)
	slices.SortFunc(rowKeys, compareRowKeys)

	table := make([][]string, len(rowKeys))
	for i, rk := range rowKeys {
		table[i] = make([]string, len(header))
		for j, col := range header {
			table[i][j] = jsonCell(cols[col][rk])
		}
	}
	return tableToDataset(header, table)
}

// compareRowKeys orders "2" before "10".
func compareRowKeys(a, b string) int {
	if len(a) != len(b) {
		return len(a) - len(b)
	}
	return strings.Compare(a, b)
}

func jsonCell(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case float64:
		if math.IsNaN(t) {
			return ""
		}
		return fmt.Sprint(t)
	case bool:
		if t {
			return "1"
		}
		return "0"
	case string:
		return t
	default:
		// Nested values are not numbers; surface them as invalid text.
		return fmt.Sprintf("%v", t)
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
