package export

import (
	"fmt"
	"strings"

	"github.com/kailas-cloud/varsearch/internal/domain"
)

// Format is a downloadable export format.
type Format string

// Export format constants.
const (
	CSV  Format = "csv"
	XLSX Format = "xlsx"
)

// Content types sent by the export endpoint.
const (
	ContentTypeCSV  = "text/csv"
	ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// IsValid checks if the format is supported.
func (f Format) IsValid() bool { return f == CSV || f == XLSX }

// ContentType returns the expected MIME type.
func (f Format) ContentType() string {
	if f == XLSX {
		return ContentTypeXLSX
	}
	return ContentTypeCSV
}

// ParseFormat validates a user-supplied format name.
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(s)))
	if !f.IsValid() {
		return "", fmt.Errorf("%w: %q", domain.ErrUnsupportedFormat, s)
	}
	return f, nil
}

// Formats lists every supported format.
func Formats() []Format { return []Format{CSV, XLSX} }

// Download is a completed export handed to the caller to persist.
type Download struct {
	Format      Format
	Filename    string
	ContentType string
	Data        []byte
}

// DefaultFilename builds "<prefix>.<format>".
func DefaultFilename(prefix string, f Format) string {
	if prefix == "" {
		prefix = "export"
	}
	return prefix + "." + string(f)
}
