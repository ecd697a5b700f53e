// Package codec converts the marker set to and from JSON, CSV and KML text.
package codec

import (
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/UnknownOlympus/pinboard/internal/models"
)

// Format is an import/export text representation.
type Format string

const (
	FormatJSON Format = "json"
	FormatCSV  Format = "csv"
	FormatKML  Format = "kml"
)

// untitled replaces an empty title on import.
const untitled = "Untitled"

// Formats lists every export format in the order they are offered.
func Formats() []Format {
	return []Format{FormatJSON, FormatCSV, FormatKML}
}

// Ext returns the file extension, including the dot.
func (f Format) Ext() string {
	return "." + string(f)
}

// UnsupportedFormatError is returned for file extensions that have no codec.
type UnsupportedFormatError struct {
	Ext string
}

func (e *UnsupportedFormatError) Error() string {
	return fmt.Sprintf("unsupported file format %q", e.Ext)
}

// ParseError is returned when an import file is malformed. Record is the
// 1-based position of the offending entry, 0 when the whole file is unreadable.
type ParseError struct {
	Format Format
	Record int
	Err    error
}

func (e *ParseError) Error() string {
	if e.Record > 0 {
		return fmt.Sprintf("failed to parse %s record %d: %v", e.Format, e.Record, e.Err)
	}

	return fmt.Sprintf("failed to parse %s: %v", e.Format, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// FormatFromPath picks the format from the file extension, ignoring case.
func FormatFromPath(path string) (Format, error) {
	ext := strings.ToLower(filepath.Ext(path))
	for _, f := range Formats() {
		if ext == f.Ext() {
			return f, nil
		}
	}

	return "", &UnsupportedFormatError{Ext: ext}
}

// Encode writes markers in the given format.
func Encode(w io.Writer, format Format, markers []models.Marker) error {
	switch format {
	case FormatJSON:
		return encodeJSON(w, markers)
	case FormatCSV:
		return encodeCSV(w, markers)
	case FormatKML:
		return encodeKML(w, markers)
	default:
		return &UnsupportedFormatError{Ext: format.Ext()}
	}
}

// Decode parses the whole input. Any malformed entry fails the entire file.
func Decode(r io.Reader, format Format) ([]models.Fields, error) {
	var (
		fields []models.Fields
		err    error
	)

	switch format {
	case FormatJSON:
		fields, err = decodeJSON(r)
	case FormatCSV:
		fields, err = decodeCSV(r)
	case FormatKML:
		fields, err = decodeKML(r)
	default:
		return nil, &UnsupportedFormatError{Ext: format.Ext()}
	}
	if err != nil {
		return nil, err
	}

	for i := range fields {
		if fields[i].Title == "" {
			fields[i].Title = untitled
		}
		fields[i] = fields[i].WithDefaults()
	}

	return fields, nil
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func parseCoord(raw string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return 0, fmt.Errorf("invalid coordinate %q", raw)
	}

	return v, nil
}
