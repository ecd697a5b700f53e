package models

// Place is a geocoding result: a point with its human readable name and
// the structured address returned by the provider.
type Place struct {
	Lat         float64           `json:"lat"`
	Lon         float64           `json:"lon"`
	DisplayName string            `json:"display_name"`
	Address     map[string]string `json:"address,omitempty"`
}
