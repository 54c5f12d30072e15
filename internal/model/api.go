package model

// Units selects the measurement system used in responses.
type Units string

const (
	UnitsImperial Units = "imperial"
	UnitsMetric   Units = "metric"
)

// LookupRequest represents the body of a weather lookup
type LookupRequest struct {
	Query                 string      `json:"query" validate:"required,max=500"`
	CurrentLocation       *Coordinate `json:"currentLocation,omitempty" validate:"omitempty"`
	SelectedLocationIndex *int        `json:"selectedLocationIndex,omitempty"`
	Intent                *Intent     `json:"intent,omitempty" validate:"omitempty"`
	Units                 Units       `json:"units,omitempty" validate:"omitempty,oneof=imperial metric"`
}

// LookupResult is either a final answer or a disambiguation prompt.
// Exactly one of the fields is set.
type LookupResult struct {
	Answer         *LookupResponse
	Disambiguation *DisambiguationResponse
}

// LookupResponse represents a final weather answer
type LookupResponse struct {
	SummaryText string `json:"summaryText"`
	Card        Card   `json:"card"`
}

// Card is the intent-specific payload. Only the field for the request's
// intent type is populated; a nil field means its data was unavailable.
type Card struct {
	Type     IntentType     `json:"type"`
	Location string         `json:"location"`
	Units    Units          `json:"units"`
	Current  *CurrentCard   `json:"current"`
	Day      *DayCard       `json:"day"`
	Hourly   *HourlyCard    `json:"hourly"`
	Range    *DateRangeCard `json:"range"`
}

// CurrentCard shows current conditions
type CurrentCard struct {
	Temperature int    `json:"temperature"`
	FeelsLike   int    `json:"feelsLike"`
	Condition   string `json:"condition"`
	Humidity    int    `json:"humidity"`
	WindSpeed   int    `json:"windSpeed"`
	Icon        string `json:"icon,omitempty"`
}

// DayCard shows one day's aggregate
type DayCard struct {
	Date         string `json:"date"`
	High         int    `json:"high"`
	Low          int    `json:"low"`
	Condition    string `json:"condition"`
	PrecipChance int    `json:"precipChance"`
}

// HourEntry is one row of an hourly card
type HourEntry struct {
	Time         string `json:"time"`
	Hour         int    `json:"hour"`
	Temperature  int    `json:"temperature"`
	Condition    string `json:"condition"`
	PrecipChance int    `json:"precipChance"`
}

// HourlyCard lists the hours inside the requested window
type HourlyCard struct {
	StartHour int         `json:"startHour"`
	EndHour   int         `json:"endHour"`
	Hours     []HourEntry `json:"hours"`
}

// RangeDay is one row of a date-range card
type RangeDay struct {
	Date      string `json:"date"`
	High      int    `json:"high"`
	Low       int    `json:"low"`
	Condition string `json:"condition"`
}

// DateRangeCard lists each forecast day
type DateRangeCard struct {
	Days []RangeDay `json:"days"`
}

// LocationOption is one candidate offered for disambiguation
type LocationOption struct {
	Index       int     `json:"index"`
	Name        string  `json:"name"`
	Region      string  `json:"region"`
	Country     string  `json:"country"`
	DisplayName string  `json:"displayName"`
	Lat         float64 `json:"lat"`
	Lon         float64 `json:"lon"`
}

// DisambiguationResponse asks the caller to choose among candidate locations.
// The caller resumes by resubmitting with the same intent and a selectedLocationIndex.
type DisambiguationResponse struct {
	RequiresDisambiguation bool             `json:"requiresDisambiguation"`
	OriginalQuery          string           `json:"originalQuery"`
	Intent                 Intent           `json:"intent"`
	Locations              []LocationOption `json:"locations"`
	StateName              string           `json:"stateName,omitempty"`
}

// ErrorResponse is the body of every failed request
type ErrorResponse struct {
	Code  string `json:"code"`
	Error string `json:"error"`
}

// LocationListResponse represents stored locations
type LocationListResponse struct {
	Results []ResolvedLocation `json:"results"`
}
