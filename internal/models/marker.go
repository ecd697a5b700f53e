package models

import "strings"

// DefaultIcon is the glyph assigned to markers that do not specify one.
const DefaultIcon = "📍"

// Marker is a persisted geographic annotation. It carries domain data only;
// rendering handles live with the map collaborator, keyed by ID.
type Marker struct {
	ID          string  `json:"id"`
	Lat         float64 `json:"lat"`
	Lng         float64 `json:"lng"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Icon        string  `json:"icon"`
	CreatedAt   int64   `json:"createdAt"` // milliseconds since epoch
}

// Fields returns the content of the marker without its identity.
func (m Marker) Fields() Fields {
	return Fields{
		Lat:         m.Lat,
		Lng:         m.Lng,
		Title:       m.Title,
		Description: m.Description,
		Icon:        m.Icon,
	}
}

// Record returns the durable representation of the marker.
func (m Marker) Record() Record {
	return Record{Fields: m.Fields(), CreatedAt: m.CreatedAt}
}

// Fields is the persistable content of a marker. History snapshots and
// import results are made of Fields.
type Fields struct {
	Lat         float64 `json:"lat"`
	Lng         float64 `json:"lng"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Icon        string  `json:"icon"`
}

// WithDefaults fills in the icon when it is empty.
func (f Fields) WithDefaults() Fields {
	if f.Icon == "" {
		f.Icon = DefaultIcon
	}

	return f
}

// ValidateFields validates coordinates and requires a non-blank title.
func ValidateFields(f Fields) error {
	if err := ValidateCoordinates(f.Lat, f.Lng); err != nil {
		return err
	}
	if strings.TrimSpace(f.Title) == "" {
		return &ValidationError{Field: "title", Reason: "must not be empty"}
	}

	return nil
}

// Record is a marker as written to durable storage.
type Record struct {
	Fields

	CreatedAt int64 `json:"createdAt"`
}

// Patch describes a partial marker update. Nil fields are left untouched.
type Patch struct {
	Lat         *float64
	Lng         *float64
	Title       *string
	Description *string
	Icon        *string
}

// TouchesCoordinates reports whether the patch changes the position.
func (p Patch) TouchesCoordinates() bool {
	return p.Lat != nil || p.Lng != nil
}

// Apply merges the patch into m and returns the result.
func (p Patch) Apply(m Marker) Marker {
	if p.Lat != nil {
		m.Lat = *p.Lat
	}
	if p.Lng != nil {
		m.Lng = *p.Lng
	}
	if p.Title != nil {
		m.Title = *p.Title
	}
	if p.Description != nil {
		m.Description = *p.Description
	}
	if p.Icon != nil {
		m.Icon = *p.Icon
	}

	return m
}
