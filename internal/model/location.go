package model

import "time"

// Address holds the address components a geocoder returns for a place.
type Address struct {
	City        string `json:"city,omitempty"`
	Town        string `json:"town,omitempty"`
	Village     string `json:"village,omitempty"`
	County      string `json:"county,omitempty"`
	State       string `json:"state,omitempty"`
	Country     string `json:"country,omitempty"`
	CountryCode string `json:"country_code,omitempty"`
}

// Locality returns the city, town or village, in that order of preference.
func (a Address) Locality() string {
	switch {
	case a.City != "":
		return a.City
	case a.Town != "":
		return a.Town
	default:
		return a.Village
	}
}

// PlaceName returns the locality, falling back to the county.
func (a Address) PlaceName() string {
	if l := a.Locality(); l != "" {
		return l
	}
	return a.County
}

// GeocodeCandidate is one raw search or reverse-geocode result. It lives
// only within a request and is never persisted as-is.
type GeocodeCandidate struct {
	PlaceID     int64   `json:"place_id"`
	DisplayName string  `json:"display_name"`
	Address     Address `json:"address"`
	Lat         float64 `json:"lat"`
	Lon         float64 `json:"lon"`
	Importance  float64 `json:"importance"`
	Type        string  `json:"type"`
	OSMType     string  `json:"osm_type"`
	AddressType string  `json:"addresstype"`
}

// ResolvedLocation is the durable record of a place that has been looked up.
// ExternalID is unique across the store.
type ResolvedLocation struct {
	ID         string    `json:"id" db:"id"`
	ExternalID string    `json:"externalId" db:"external_id"`
	Name       string    `json:"name" db:"name"`
	Region     string    `json:"region" db:"region"`
	Country    string    `json:"country" db:"country"`
	Lat        float64   `json:"lat" db:"lat"`
	Lon        float64   `json:"lon" db:"lon"`
	Timezone   *string   `json:"timezone" db:"timezone"`
	CreatedAt  time.Time `json:"createdAt" db:"created_at"`
}

// Coordinate represents geographic coordinates
type Coordinate struct {
	Lat float64 `json:"lat" validate:"min=-90,max=90"`
	Lon float64 `json:"lon" validate:"min=-180,max=180"`
}
