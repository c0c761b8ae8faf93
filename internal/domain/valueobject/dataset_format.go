package valueobject

import (
	"mime"
	"path/filepath"
	"strings"

	"github.com/heartcheck/heartcheck/internal/domain/apperr"
)

// DatasetFormat identifies how an uploaded dataset is encoded.
type DatasetFormat struct {
	value string
}

var (
	DatasetFormatCSV  = DatasetFormat{value: "csv"}
	DatasetFormatXLSX = DatasetFormat{value: "xlsx"}
	DatasetFormatJSON = DatasetFormat{value: "json"}
)

// DatasetFormatFromString parses an explicit format tag.
func DatasetFormatFromString(s string) (DatasetFormat, error) {
	switch strings.ToLower(strings.TrimPrefix(strings.TrimSpace(s), ".")) {
	case "csv":
		return DatasetFormatCSV, nil
	case "xlsx":
		return DatasetFormatXLSX, nil
	case "json":
		return DatasetFormatJSON, nil
	default:
		return DatasetFormat{}, &apperr.UnsupportedFormatError{Format: s}
	}
}

// Only media types that name exactly one format are trusted. Windows browsers
// send application/vnd.ms-excel for .csv files, so that type and
// application/octet-stream defer to the extension.
var mediaTypes = map[string]DatasetFormat{
	"text/csv":         DatasetFormatCSV,
	"application/csv":  DatasetFormatCSV,
	"application/json": DatasetFormatJSON,
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet": DatasetFormatXLSX,
}

// DetectDatasetFormat resolves the format of an upload. An explicit tag wins;
// otherwise the content type and then the file extension are consulted.
// Legacy .xls workbooks are unsupported.
func DetectDatasetFormat(tag, filename, contentType string) (DatasetFormat, error) {
	if tag != "" {
		return DatasetFormatFromString(tag)
	}
	if contentType != "" {
		if mt, _, err := mime.ParseMediaType(contentType); err == nil {
			if f, ok := mediaTypes[mt]; ok {
				return f, nil
			}
		}
	}
	ext := filepath.Ext(filename)
	if ext == "" {
		return DatasetFormat{}, &apperr.UnsupportedFormatError{Format: filename}
	}
	return DatasetFormatFromString(ext)
}

func (f DatasetFormat) String() string { return f.value }

// IsZero returns true if the DatasetFormat has not been set.
func (f DatasetFormat) IsZero() bool { return f.value == "" }

// Equal checks equality with another DatasetFormat.
func (f DatasetFormat) Equal(other DatasetFormat) bool { return f.value == other.value }
