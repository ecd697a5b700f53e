package codec

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/UnknownOlympus/pinboard/internal/models"
)

type jsonMarker struct {
	Lat         float64 `json:"lat"`
	Lng         float64 `json:"lng"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Icon        string  `json:"icon"`
	CreatedAt   int64   `json:"createdAt"`
}

// jsonImport accepts coordinates as JSON numbers or numeric strings.
type jsonImport struct {
	Lat         json.RawMessage `json:"lat"`
	Lng         json.RawMessage `json:"lng"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Icon        string          `json:"icon"`
}

var errMissingCoordinate = errors.New("missing coordinate")

func encodeJSON(w io.Writer, markers []models.Marker) error {
	out := make([]jsonMarker, 0, len(markers))
	for _, m := range markers {
		out = append(out, jsonMarker{
			Lat:         m.Lat,
			Lng:         m.Lng,
			Title:       m.Title,
			Description: m.Description,
			Icon:        m.Icon,
			CreatedAt:   m.CreatedAt,
		})
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("failed to encode json: %w", err)
	}

	return nil
}

func decodeJSON(r io.Reader) ([]models.Fields, error) {
	var entries []jsonImport
	if err := json.NewDecoder(r).Decode(&entries); err != nil {
		return nil, &ParseError{Format: FormatJSON, Err: err}
	}

	fields := make([]models.Fields, 0, len(entries))
	for i, e := range entries {
		lat, err := jsonCoord(e.Lat)
		if err != nil {
			return nil, &ParseError{Format: FormatJSON, Record: i + 1, Err: fmt.Errorf("lat: %w", err)}
		}
		lng, err := jsonCoord(e.Lng)
		if err != nil {
			return nil, &ParseError{Format: FormatJSON, Record: i + 1, Err: fmt.Errorf("lng: %w", err)}
		}
		fields = append(fields, models.Fields{
			Lat:         lat,
			Lng:         lng,
			Title:       e.Title,
			Description: e.Description,
			Icon:        e.Icon,
		})
	}

	return fields, nil
}

func jsonCoord(raw json.RawMessage) (float64, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return 0, errMissingCoordinate
	}

	var num float64
	if err := json.Unmarshal(raw, &num); err == nil {
		return num, nil
	}

	var str string
	if err := json.Unmarshal(raw, &str); err != nil {
		return 0, fmt.Errorf("invalid coordinate %s", raw)
	}

	return parseCoord(str)
}
