package codec

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/UnknownOlympus/pinboard/internal/models"
)

var csvHeader = []string{"Latitude", "Longitude", "Title", "Description", "Icon"}

const minCSVColumns = 2

// encodeCSV always quotes title and description; coordinates and icon are bare.
func encodeCSV(w io.Writer, markers []models.Marker) error {
	bw := bufio.NewWriter(w)
	if _, err := bw.WriteString(strings.Join(csvHeader, ",") + "\n"); err != nil {
		return fmt.Errorf("failed to write csv header: %w", err)
	}

	for _, m := range markers {
		row := strings.Join([]string{
			formatCoord(m.Lat),
			formatCoord(m.Lng),
			quoteCSV(m.Title),
			quoteCSV(m.Description),
			m.Icon,
		}, ",")
		if _, err := bw.WriteString(row + "\n"); err != nil {
			return fmt.Errorf("failed to write csv row: %w", err)
		}
	}

	if err := bw.Flush(); err != nil {
		return fmt.Errorf("failed to flush csv: %w", err)
	}

	return nil
}

func quoteCSV(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

func decodeCSV(r io.Reader) ([]models.Fields, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	var fields []models.Fields
	for row := 1; ; row++ {
		rec, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, &ParseError{Format: FormatCSV, Record: row, Err: err}
		}
		if row == 1 && isCSVHeader(rec) {
			continue
		}
		if len(rec) < minCSVColumns {
			return nil, &ParseError{Format: FormatCSV, Record: row, Err: fmt.Errorf("expected at least %d columns, got %d", minCSVColumns, len(rec))}
		}

		lat, err := parseCoord(rec[0])
		if err != nil {
			return nil, &ParseError{Format: FormatCSV, Record: row, Err: err}
		}
		lng, err := parseCoord(rec[1])
		if err != nil {
			return nil, &ParseError{Format: FormatCSV, Record: row, Err: err}
		}

		fields = append(fields, models.Fields{
			Lat:         lat,
			Lng:         lng,
			Title:       column(rec, 2),
			Description: column(rec, 3),
			Icon:        strings.TrimSpace(column(rec, 4)),
		})
	}

	return fields, nil
}

func isCSVHeader(rec []string) bool {
	return len(rec) > 0 && strings.EqualFold(strings.TrimSpace(rec[0]), csvHeader[0])
}

func column(rec []string, idx int) string {
	if idx < len(rec) {
		return rec[idx]
	}

	return ""
}
